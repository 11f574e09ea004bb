// Package opportunity enumerates partial extract-method opportunities in a
// selection: for each local variable assigned there, the slices starting at
// each top-level statement that are worth extracting.
package opportunity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-partial-extract/internal/log"
	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/pdg"
	"github.com/l3aro/go-partial-extract/pkg/slice"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// Group holds every opportunity found for one variable.
type Group struct {
	Variable variable.Variable
	Slices   []*slice.ASTSlice
}

// Options tunes the enumeration.
type Options struct {
	Concurrency  int        // Variables analyzed in parallel; <= 0 means GOMAXPROCS
	MinSliceSize int        // Slices with fewer statements are dropped
	Logger       log.Logger // Defaults to log.Nop()
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	return o
}

// Analyze builds the CFG and PDG of m and enumerates the opportunities in
// the byte range [first, last]. A selection holding no statement yields no
// groups. CFG construction errors are returned unchanged.
func Analyze(ctx context.Context, m *ir.Method, first, last int, opts Options) ([]Group, *pdg.PDG, error) {
	g, err := cfg.Build(m)
	if err != nil {
		return nil, nil, err
	}
	p := pdg.Build(g)
	groups, err := Find(ctx, p, first, last, opts)
	if err != nil {
		return nil, nil, err
	}
	return groups, p, nil
}

// Find runs FindForVariable for every declared variable assigned in the
// selection. Groups follow declaration order and variables without any
// valid slice are omitted.
func Find(ctx context.Context, p *pdg.PDG, first, last int, opts Options) ([]Group, error) {
	opts = opts.withDefaults()

	sel := pdg.Restrict(p, first, last)
	if sel.Len() == 0 {
		opts.Logger.Debug("empty selection", "method", p.Method.Name, "first", first, "last", last)
		return nil, nil
	}

	var vars []variable.Variable
	for _, v := range p.Declarations() {
		if sel.IsAssigned(v) {
			vars = append(vars, v)
		}
	}

	results := make([][]*slice.ASTSlice, len(vars))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for i, v := range vars {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = filter(FindForVariable(p, v, first, last), opts.MinSliceSize)
			opts.Logger.Debug("variable analyzed", "variable", v, "slices", len(results[i]))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("enumerating opportunities: %w", err)
	}

	var groups []Group
	for i, v := range vars {
		if len(results[i]) == 0 {
			continue
		}
		groups = append(groups, Group{Variable: v, Slices: results[i]})
	}
	opts.Logger.Info("opportunities enumerated", "method", p.Method.Name, "variables", len(vars), "groups", len(groups))
	return groups, nil
}

func filter(slices []*slice.ASTSlice, min int) []*slice.ASTSlice {
	if min <= 0 {
		return slices
	}
	out := slices[:0]
	for _, s := range slices {
		if len(s.Statements) >= min {
			out = append(out, s)
		}
	}
	return out
}

// FindForVariable slices the selection on v once per top-level statement
// that assigns v, directly or in a statement nested under it, shrinking the
// selection to start at that statement. Only valid slices are returned, in
// source order of their starting statement.
func FindForVariable(p *pdg.PDG, v variable.Variable, first, last int) []*slice.ASTSlice {
	var out []*slice.ASTSlice
	for _, id := range topNodes(p, first, last) {
		if !definesTransitively(p, id, v) {
			continue
		}
		sel := pdg.Restrict(p, p.Node(id).Stmt().Span.Start, last)
		s := slice.Build(sel, v)
		if s.Valid() {
			out = append(out, slice.NewASTSlice(s))
		}
	}
	return out
}

// topNodes returns the nodes in range whose statements share the parent of
// the first statement of the range, in source order. Labels have no node,
// so a labeled statement stands in the list of its label.
func topNodes(p *pdg.PDG, first, last int) []int {
	inRange := func(st *ir.Stmt) bool {
		return st != nil && st.Span.Start >= first && st.Span.End <= last
	}

	var parent *ir.Stmt
	found := false
	ir.Walk(p.Method.Body, func(st *ir.Stmt) bool {
		if found {
			return false
		}
		if st.Kind != ir.KindBlock && inRange(st) {
			parent, found = unlabeled(st).Parent, true
			return false
		}
		return true
	})
	if !found {
		return nil
	}

	var ids []int
	for _, n := range p.Nodes {
		if st := n.Stmt(); inRange(st) && unlabeled(st).Parent == parent {
			ids = append(ids, n.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return p.Node(ids[i]).Stmt().Span.Start < p.Node(ids[j]).Stmt().Span.Start
	})
	return ids
}

// unlabeled returns the outermost labeled statement wrapping st, or st.
func unlabeled(st *ir.Stmt) *ir.Stmt {
	for st.Parent != nil && st.Parent.Kind == ir.KindLabeled {
		st = st.Parent
	}
	return st
}

// definesTransitively reports whether node id, or any node control
// dependent on it, defines v.
func definesTransitively(p *pdg.PDG, id int, v variable.Variable) bool {
	visited := pdg.NewNodeSet(id)
	stack := []int{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.Node(n).Defines(v) {
			return true
		}
		for _, i := range p.Outgoing(n) {
			e := p.Edges[i]
			if e.Type == pdg.DepTypeControl && !visited.Has(e.Dst) {
				visited.Add(e.Dst)
				stack = append(stack, e.Dst)
			}
		}
	}
	return false
}
