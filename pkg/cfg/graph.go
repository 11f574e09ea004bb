package cfg

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// Graph is the CFG of one method. It is immutable once Build returns.
type Graph struct {
	Method *ir.Method `json:"-"`
	Nodes  []*Node    `json:"nodes"`
	Edges  []Edge     `json:"edges"`

	byStmt  map[*ir.Stmt]*Node
	succs   [][]int          // Edge indexes by source node
	preds   [][]int          // Edge indexes by target node
	rpo     []int            // Reverse postorder position by node ID
	retreat map[int]bool     // Edge indexes closing a cycle in the DFS
	reach   []*bitset.BitSet // Nodes reachable without retreating edges
}

// Entry returns the method entry node.
func (g *Graph) Entry() *Node {
	return g.Nodes[0]
}

// Exit returns the method exit node.
func (g *Graph) Exit() *Node {
	return g.Nodes[len(g.Nodes)-1]
}

// NodeOf returns the node created for s, or nil for blocks and labels.
func (g *Graph) NodeOf(s *ir.Stmt) *Node {
	return g.byStmt[s]
}

// Succs returns the outgoing edges of node id.
func (g *Graph) Succs(id int) []Edge {
	out := make([]Edge, 0, len(g.succs[id]))
	for _, i := range g.succs[id] {
		out = append(out, g.Edges[i])
	}
	return out
}

// Preds returns the incoming edges of node id.
func (g *Graph) Preds(id int) []Edge {
	out := make([]Edge, 0, len(g.preds[id]))
	for _, i := range g.preds[id] {
		out = append(out, g.Edges[i])
	}
	return out
}

// Order returns the reverse postorder position of node id.
func (g *Graph) Order(id int) int {
	return g.rpo[id]
}

// Reaches reports whether to can execute after from within the same loop
// iteration, i.e. along a path that takes no loop back edge.
func (g *Graph) Reaches(from, to int) bool {
	return g.reach[from].Test(uint(to))
}

// EnclosingLoops returns the loop header IDs whose statement encloses node
// id, innermost first. A loop header encloses itself.
func (g *Graph) EnclosingLoops(id int) []int {
	var loops []int
	for s := g.Nodes[id].Stmt; s != nil; s = s.Parent {
		if s.IsLoop() {
			loops = append(loops, g.byStmt[s].ID)
		}
	}
	return loops
}

// InnermostCommonLoop returns the innermost loop header enclosing both a
// and b.
func (g *Graph) InnermostCommonLoop(a, b int) (int, bool) {
	outer := g.EnclosingLoops(b)
	for _, l := range g.EnclosingLoops(a) {
		for _, m := range outer {
			if l == m {
				return l, true
			}
		}
	}
	return 0, false
}

// DataflowEdge reports whether e is a feasible transition for dataflow.
func DataflowEdge(e Edge) bool {
	return e.Type != EdgeTypeStructural
}

// ControlEdge reports whether e participates in post-dominance.
func ControlEdge(e Edge) bool {
	return e.Type != EdgeTypeException
}

func (g *Graph) index() {
	n := len(g.Nodes)
	g.succs = make([][]int, n)
	g.preds = make([][]int, n)
	for i, e := range g.Edges {
		g.succs[e.From] = append(g.succs[e.From], i)
		g.preds[e.To] = append(g.preds[e.To], i)
	}
	g.order()
	g.reachability()
}

// order numbers nodes in reverse postorder of a depth-first search over
// dataflow edges, starting at entry and then at every unvisited node in ID
// order. Edges to a node still on the DFS stack are retreating edges.
func (g *Graph) order() {
	n := len(g.Nodes)
	const (
		white = iota
		grey
		black
	)
	color := make([]int, n)
	post := make([]int, 0, n)
	g.retreat = make(map[int]bool)

	type frame struct {
		node int
		next int
	}
	visit := func(root int) {
		stack := []frame{{node: root}}
		color[root] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.succs[top.node]) {
				ei := g.succs[top.node][top.next]
				top.next++
				e := g.Edges[ei]
				if !DataflowEdge(e) {
					continue
				}
				switch color[e.To] {
				case white:
					color[e.To] = grey
					stack = append(stack, frame{node: e.To})
				case grey:
					g.retreat[ei] = true
				}
				continue
			}
			color[top.node] = black
			post = append(post, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	visit(0)
	for id := 0; id < n; id++ {
		if color[id] == white {
			visit(id)
		}
	}

	g.rpo = make([]int, n)
	for i, id := range post {
		g.rpo[id] = n - 1 - i
	}
}

// reachability computes, for every node, the set of nodes reachable over
// non-retreating dataflow edges. Those edges all point forward in reverse
// postorder, so one pass in decreasing order suffices.
func (g *Graph) reachability() {
	n := len(g.Nodes)
	byOrder := make([]int, n)
	for id, pos := range g.rpo {
		byOrder[pos] = id
	}
	g.reach = make([]*bitset.BitSet, n)
	for pos := n - 1; pos >= 0; pos-- {
		id := byOrder[pos]
		set := bitset.New(uint(n))
		for _, ei := range g.succs[id] {
			e := g.Edges[ei]
			if !DataflowEdge(e) || g.retreat[ei] {
				continue
			}
			set.Set(uint(e.To))
			set.InPlaceUnion(g.reach[e.To])
		}
		g.reach[id] = set
	}
}
