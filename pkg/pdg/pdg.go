package pdg

import (
	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/dfg"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// builder accumulates dependences for one PDG.
type builder struct {
	g     *cfg.Graph
	facts *dfg.Facts
	pdg   *PDG
	seen  map[Dependence]bool
}

// Build constructs the PDG of the method g was built from.
func Build(g *cfg.Graph) *PDG {
	b := &builder{
		g:     g,
		facts: dfg.Collect(g),
		pdg: &PDG{
			Method:     g.Method,
			CFG:        g,
			attributes: make(map[variable.Variable][]Attribute),
		},
		seen: make(map[Dependence]bool),
	}

	// Step 1: Create nodes from CFG nodes, dropping exit
	b.createNodes()

	// Step 2: Add control dependences from the post-dominator tree
	b.addControlEdges()

	// Step 3: Add data and output dependences from reaching definitions
	b.addDataEdges(dfg.ReachingDefinitions(g, b.facts))

	// Step 4: Add anti dependences from reaching uses
	b.addAntiEdges(dfg.ReachingUsesOf(g, b.facts))

	b.index()
	return b.pdg
}

func (b *builder) createNodes() {
	for _, cn := range b.g.Nodes[:len(b.g.Nodes)-1] {
		n := &Node{
			ID:        cn.ID,
			Type:      cn.Type,
			StartLine: cn.StartLine,
			EndLine:   cn.EndLine,
			Text:      cn.Text,
			CFG:       cn,
			Declared:  b.facts.Declares[cn.ID],
		}
		for _, d := range b.facts.Defs[cn.ID] {
			n.Defined = append(n.Defined, d.Var)
			if d.Var.IsComposite() {
				b.addAttribute(d.Var, cn.ID)
			}
		}
		for _, u := range b.facts.Uses[cn.ID] {
			n.Used = append(n.Used, u.Var)
		}
		b.pdg.Nodes = append(b.pdg.Nodes, n)
	}
}

func (b *builder) addAttribute(v variable.Variable, node int) {
	base := v.Initial()
	attrs := b.pdg.attributes[base]
	for i := range attrs {
		if attrs[i].Var == v {
			attrs[i].Nodes = append(attrs[i].Nodes, node)
			return
		}
	}
	b.pdg.attributes[base] = append(attrs, Attribute{Var: v, Nodes: []int{node}})
}

func (b *builder) add(d Dependence) {
	if b.seen[d] {
		return
	}
	b.seen[d] = true
	b.pdg.Edges = append(b.pdg.Edges, d)
}

func (b *builder) addControlEdges() {
	exit := b.g.Exit().ID
	hasSource := make([]bool, len(b.g.Nodes))
	for _, dep := range controlDependences(b.g) {
		if dep[1] == exit {
			continue
		}
		hasSource[dep[1]] = true
		b.add(Dependence{Type: DepTypeControl, Src: dep[0], Dst: dep[1], Loop: NoLoop})
	}
	// Unreachable statements still belong to the method.
	for id := 1; id < exit; id++ {
		if !hasSource[id] {
			b.add(Dependence{Type: DepTypeControl, Src: 0, Dst: id, Loop: NoLoop})
		}
	}
}

// loopCarried reports whether a dependence from src to dst can only hold
// across an iteration of a loop enclosing both, and returns that loop.
func (b *builder) loopCarried(src, dst int) (bool, int) {
	loop, ok := b.g.InnermostCommonLoop(src, dst)
	if !ok {
		return false, NoLoop
	}
	if src != dst && b.g.Reaches(src, dst) {
		return false, NoLoop
	}
	return true, loop
}

func (b *builder) dependence(typ DepType, src, dst int, v variable.Variable) Dependence {
	d := Dependence{Type: typ, Src: src, Dst: dst, Var: v, Loop: NoLoop}
	d.LoopCarried, d.Loop = b.loopCarried(src, dst)
	return d
}

func (b *builder) addDataEdges(rd *dfg.ReachingDefs) {
	exit := b.g.Exit().ID
	for id := 0; id < exit; id++ {
		for _, u := range b.facts.Uses[id] {
			for _, d := range rd.Reaching(id, u.Var) {
				b.add(b.dependence(DepTypeData, d.Node, id, d.Var))
			}
		}
		for _, def := range b.facts.Defs[id] {
			for _, d := range rd.In(id) {
				if def.Var.Covers(d.Var) || d.Var.Covers(def.Var) {
					b.add(b.dependence(DepTypeOutput, d.Node, id, def.Var))
				}
			}
		}
	}
}

func (b *builder) addAntiEdges(ru *dfg.ReachingUses) {
	exit := b.g.Exit().ID
	for id := 0; id < exit; id++ {
		for _, def := range b.facts.Defs[id] {
			for _, u := range ru.Redefined(id, def.Var) {
				b.add(b.dependence(DepTypeAnti, u.Node, id, u.Var))
			}
		}
	}
}

func (b *builder) index() {
	n := len(b.pdg.Nodes)
	b.pdg.incoming = make([][]int, n)
	b.pdg.outgoing = make([][]int, n)
	for i, e := range b.pdg.Edges {
		b.pdg.outgoing[e.Src] = append(b.pdg.outgoing[e.Src], i)
		b.pdg.incoming[e.Dst] = append(b.pdg.incoming[e.Dst], i)
	}
}
