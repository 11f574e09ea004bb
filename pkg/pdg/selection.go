package pdg

import (
	"container/list"

	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// Selection is the subgraph of a PDG induced by the statements lying inside
// a source range. It shares the PDG's nodes and edges and never mutates
// them.
type Selection struct {
	PDG   *PDG
	First int // Start offset of the range
	Last  int // End offset of the range

	nodes NodeSet
	edges map[int]bool // Indexes into PDG.Edges
}

// Restrict keeps the nodes whose statement lies within [first, last] and
// the dependences between them. A loop-carried dependence is kept only if
// its loop header is kept too.
func Restrict(p *PDG, first, last int) *Selection {
	s := &Selection{
		PDG:   p,
		First: first,
		Last:  last,
		nodes: make(NodeSet),
		edges: make(map[int]bool),
	}

	for _, n := range p.Nodes {
		st := n.Stmt()
		if st == nil {
			continue
		}
		if st.Span.Start >= first && st.Span.End <= last {
			s.nodes.Add(n.ID)
		}
	}

	for i, e := range p.Edges {
		if !s.nodes.Has(e.Src) || !s.nodes.Has(e.Dst) {
			continue
		}
		if e.LoopCarried && !s.nodes.Has(e.Loop) {
			continue
		}
		s.edges[i] = true
	}
	return s
}

// Contains reports whether node id is part of the selection.
func (s *Selection) Contains(id int) bool {
	return s.nodes.Has(id)
}

// HasEdge reports whether PDG edge i is part of the selection.
func (s *Selection) HasEdge(i int) bool {
	return s.edges[i]
}

// Nodes returns the selected node IDs in source order.
func (s *Selection) Nodes() []int {
	return s.nodes.Sorted()
}

// Len returns the number of selected nodes.
func (s *Selection) Len() int {
	return len(s.nodes)
}

// IsAssigned reports whether any selected node defines v.
func (s *Selection) IsAssigned(v variable.Variable) bool {
	for id := range s.nodes {
		if s.PDG.Node(id).Defines(v) {
			return true
		}
	}
	return false
}

// AssignmentNodesOf returns the selected nodes defining v, in source order.
func (s *Selection) AssignmentNodesOf(v variable.Variable) []int {
	var out []int
	for _, id := range s.nodes.Sorted() {
		if s.PDG.Node(id).Defines(v) {
			out = append(out, id)
		}
	}
	return out
}

// ComputeSlice returns the nodes node transitively depends on through
// selected control and data dependences, node included.
func (s *Selection) ComputeSlice(node int) NodeSet {
	return s.traverseBackward(node)
}

// ComputeSliceFor slices backward from node with respect to v. When node
// defines v the result is ComputeSlice(node); when it only uses v the
// slice starts from the selected definitions of v reaching it and from the
// node itself; otherwise the result is empty.
func (s *Selection) ComputeSliceFor(node int, v variable.Variable) NodeSet {
	n := s.PDG.Node(node)
	if n.Defines(v) {
		return s.traverseBackward(node)
	}
	if !n.Uses(v) {
		return NodeSet{}
	}
	roots := s.defNodes(node, v)
	roots = append(roots, node)
	return s.traverseBackward(roots...)
}

// defNodes returns the sources of selected data dependences on v into
// node.
func (s *Selection) defNodes(node int, v variable.Variable) []int {
	var out []int
	for _, i := range s.PDG.Incoming(node) {
		e := s.PDG.Edges[i]
		if s.edges[i] && e.Type == DepTypeData && e.Var == v {
			out = append(out, e.Src)
		}
	}
	return out
}

// traverseBackward walks incoming control and data dependences breadth
// first. Anti and output dependences order statements but carry no value,
// so they are never followed.
func (s *Selection) traverseBackward(roots ...int) NodeSet {
	visited := make(NodeSet)
	queue := list.New()
	for _, r := range roots {
		if !visited.Has(r) {
			visited.Add(r)
			queue.PushBack(r)
		}
	}

	for queue.Len() > 0 {
		id := queue.Remove(queue.Front()).(int)
		for _, i := range s.PDG.Incoming(id) {
			if !s.edges[i] {
				continue
			}
			e := s.PDG.Edges[i]
			if e.Type == DepTypeAnti || e.Type == DepTypeOutput {
				continue
			}
			if visited.Has(e.Src) {
				continue
			}
			visited.Add(e.Src)
			queue.PushBack(e.Src)
		}
	}
	return visited
}
