package dfg

import (
	"container/list"

	"github.com/bits-and-blooms/bitset"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
)

// forwardProblem is a forward, may (union) dataflow problem over the
// statement nodes of a CFG:
//
//	IN[B]  = Union(P a pred of B) OUT[P]
//	OUT[B] = gen[B] Union (IN[B] - kill[B])
type forwardProblem struct {
	gen, kill []*bitset.BitSet
}

// solve runs the worklist iteration until no OUT set changes and returns
// the IN sets. Nodes are seeded in reverse postorder so structured code
// converges in few passes.
func (p *forwardProblem) solve(g *cfg.Graph) []*bitset.BitSet {
	n := len(g.Nodes)
	in := make([]*bitset.BitSet, n)
	out := make([]*bitset.BitSet, n)
	for id := 0; id < n; id++ {
		in[id] = new(bitset.BitSet)
		out[id] = p.gen[id].Clone()
	}

	byOrder := make([]int, n)
	for id := 0; id < n; id++ {
		byOrder[g.Order(id)] = id
	}

	worklist := list.New()
	queued := make([]bool, n)
	for _, id := range byOrder {
		worklist.PushBack(id)
		queued[id] = true
	}

	for worklist.Len() > 0 {
		id := worklist.Remove(worklist.Front()).(int)
		queued[id] = false

		next := new(bitset.BitSet)
		for _, e := range g.Preds(id) {
			if cfg.DataflowEdge(e) {
				next.InPlaceUnion(out[e.From])
			}
		}
		in[id] = next

		updated := p.gen[id].Union(next.Difference(p.kill[id]))
		if updated.Equal(out[id]) {
			continue
		}
		out[id] = updated
		for _, e := range g.Succs(id) {
			if cfg.DataflowEdge(e) && !queued[e.To] {
				worklist.PushBack(e.To)
				queued[e.To] = true
			}
		}
	}
	return in
}

func members(set *bitset.BitSet) []uint {
	var out []uint
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out = append(out, i)
	}
	return out
}
