package dfg

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// ReachingDefs holds the definitions reaching the entry of every CFG node.
//
// based on algo from ch 9.2, p.607 Dragonbook, v2.2,
// "Iterative algorithm to compute reaching definitions". A strong
// definition of a plain variable also kills the definitions of fields
// reached through it; weak definitions kill nothing.
type ReachingDefs struct {
	Defs []Def // Bit i of every set stands for Defs[i]
	in   []*bitset.BitSet
}

// ReachingDefinitions computes reaching definitions over g.
func ReachingDefinitions(g *cfg.Graph, facts *Facts) *ReachingDefs {
	n := len(g.Nodes)
	r := &ReachingDefs{}
	for id := 0; id < n; id++ {
		r.Defs = append(r.Defs, facts.Defs[id]...)
	}

	p := &forwardProblem{
		gen:  make([]*bitset.BitSet, n),
		kill: make([]*bitset.BitSet, n),
	}
	for id := 0; id < n; id++ {
		p.gen[id] = new(bitset.BitSet)
		p.kill[id] = new(bitset.BitSet)
	}
	for i, d := range r.Defs {
		p.gen[d.Node].Set(uint(i))
	}
	for id := 0; id < n; id++ {
		for _, d := range facts.Defs[id] {
			if d.Weak {
				continue
			}
			for j, other := range r.Defs {
				if d.Var.Covers(other.Var) {
					p.kill[id].Set(uint(j))
				}
			}
		}
		// our kills are KILL[obj] - GEN[B]
		p.kill[id].InPlaceDifference(p.gen[id])
	}

	r.in = p.solve(g)
	return r
}

// In returns the definitions reaching the entry of node.
func (r *ReachingDefs) In(node int) []Def {
	var out []Def
	for _, i := range members(r.in[node]) {
		out = append(out, r.Defs[i])
	}
	return out
}

// Reaching returns the definitions reaching node that can supply the value
// of v read there: definitions of v itself or of the reference v is
// reached through.
func (r *ReachingDefs) Reaching(node int, v variable.Variable) []Def {
	var out []Def
	for _, i := range members(r.in[node]) {
		if d := r.Defs[i]; d.Var.Covers(v) {
			out = append(out, d)
		}
	}
	return out
}
