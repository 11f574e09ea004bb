package dfg

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// ReachingUses holds, for every CFG node, the uses that reach its entry
// along a path with no strong redefinition of the used variable. It is the
// dual of ReachingDefs and yields anti dependences.
type ReachingUses struct {
	Uses []Use // Bit i of every set stands for Uses[i]
	in   []*bitset.BitSet
}

// ReachingUsesOf computes reaching uses over g. A statement's own uses are
// read before its definitions, so a statement that strongly redefines a
// variable does not propagate its own use of it.
func ReachingUsesOf(g *cfg.Graph, facts *Facts) *ReachingUses {
	n := len(g.Nodes)
	r := &ReachingUses{}
	for id := 0; id < n; id++ {
		r.Uses = append(r.Uses, facts.Uses[id]...)
	}

	p := &forwardProblem{
		gen:  make([]*bitset.BitSet, n),
		kill: make([]*bitset.BitSet, n),
	}
	for id := 0; id < n; id++ {
		p.gen[id] = new(bitset.BitSet)
		p.kill[id] = new(bitset.BitSet)
	}

	for id := 0; id < n; id++ {
		for _, d := range facts.Defs[id] {
			if d.Weak {
				continue
			}
			for j, u := range r.Uses {
				if d.Var.Covers(u.Var) {
					p.kill[id].Set(uint(j))
				}
			}
		}
	}
	for i, u := range r.Uses {
		if !p.kill[u.Node].Test(uint(i)) {
			p.gen[u.Node].Set(uint(i))
		}
	}

	r.in = p.solve(g)
	return r
}

// Redefined returns the uses reaching node whose value a definition of v
// at node would overwrite.
func (r *ReachingUses) Redefined(node int, v variable.Variable) []Use {
	var out []Use
	for _, i := range members(r.in[node]) {
		if u := r.Uses[i]; v.Covers(u.Var) {
			out = append(out, u)
		}
	}
	return out
}
