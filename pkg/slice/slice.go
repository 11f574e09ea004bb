// Package slice computes the extractable slice of one variable inside a
// selection and partitions it into statements that can move to a new
// method and statements that must also stay behind.
package slice

import (
	"github.com/l3aro/go-partial-extract/pkg/pdg"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// Slice is the outcome of slicing one selection on one variable.
type Slice struct {
	Selection *pdg.Selection
	Variable  variable.Variable

	Criteria         []int         // Selected nodes defining Variable
	Nodes            pdg.NodeSet   // Statements that compute Variable
	Remaining        pdg.NodeSet   // Entry plus every node outside Nodes
	Indispensable    pdg.NodeSet   // Nodes whose effects are still needed by Remaining
	Removable        pdg.NodeSet   // Nodes - Indispensable
	PassedParameters *variable.Set // Variables flowing into Nodes from Remaining
}

// Build slices sel on v. An empty slice is returned when no selected node
// defines v.
func Build(sel *pdg.Selection, v variable.Variable) *Slice {
	p := sel.PDG
	s := &Slice{
		Selection:        sel,
		Variable:         v,
		Criteria:         sel.AssignmentNodesOf(v),
		Nodes:            make(pdg.NodeSet),
		Remaining:        make(pdg.NodeSet),
		Indispensable:    make(pdg.NodeSet),
		Removable:        make(pdg.NodeSet),
		PassedParameters: variable.NewSet(),
	}
	if len(s.Criteria) == 0 {
		return s
	}

	for _, c := range s.Criteria {
		s.Nodes.AddAll(sel.ComputeSlice(c))
	}

	s.addObjectState()
	throws := s.throwNodes()
	s.addGuardedThrows(throws)

	s.Remaining.Add(p.Entry().ID)
	for _, n := range p.Nodes {
		if !s.Nodes.Has(n.ID) {
			s.Remaining.Add(n.ID)
		}
	}

	var remainingThrows []int
	for _, t := range throws {
		if s.nestedInAny(t, s.Remaining, true) {
			remainingThrows = append(remainingThrows, t)
		}
	}

	controlEscaping, dataEscaping := s.escapingDependences()

	for _, id := range controlEscaping {
		n := p.Node(id)
		for _, u := range n.Used {
			s.Indispensable.AddAll(sel.ComputeSliceFor(id, u))
		}
		if len(n.Used) == 0 {
			s.Indispensable.AddAll(sel.ComputeSlice(id))
		}
		s.Indispensable.Add(id)
	}
	for _, id := range dataEscaping {
		for _, d := range p.Node(id).Defined {
			s.Indispensable.AddAll(sel.ComputeSliceFor(id, d))
		}
	}

	var indispensableThrows []int
	for _, t := range throws {
		if s.nestedInAny(t, s.Indispensable, false) {
			indispensableThrows = append(indispensableThrows, t)
		}
	}
	for _, t := range remainingThrows {
		s.Indispensable.AddAll(sel.ComputeSlice(t))
	}
	for _, t := range indispensableThrows {
		s.Indispensable.AddAll(sel.ComputeSlice(t))
	}

	for id := range s.Nodes {
		if !s.Remaining.Has(id) && !s.Indispensable.Has(id) {
			s.Removable.Add(id)
		}
	}
	return s
}

// addObjectState merges the slices of selected statements that set fields
// of any reference the slice reads, so the object is in the state the
// slice expects once isolated.
func (s *Slice) addObjectState() {
	p := s.Selection.PDG
	examined := variable.NewSet()
	objectSlice := make(pdg.NodeSet)
	for _, id := range s.Nodes.Sorted() {
		for _, u := range p.Node(id).Used {
			if u.IsComposite() || u == s.Variable.Initial() || examined.Has(u) {
				continue
			}
			for _, attr := range p.DefinedAttributesOf(u) {
				for _, def := range attr.Nodes {
					if s.Selection.Contains(def) {
						objectSlice.AddAll(s.Selection.ComputeSlice(def))
					}
				}
			}
			examined.Add(u)
		}
	}
	s.Nodes.AddAll(objectSlice)
}

func (s *Slice) throwNodes() []int {
	var out []int
	for _, id := range s.Selection.Nodes() {
		if s.Selection.PDG.Node(id).IsThrow() {
			out = append(out, id)
		}
	}
	return out
}

// addGuardedThrows merges the slice of every selected throw nested inside a
// predicate of the slice.
func (s *Slice) addGuardedThrows(throws []int) {
	p := s.Selection.PDG
	extra := make(pdg.NodeSet)
	for _, t := range throws {
		guards := s.guards(t)
		for _, id := range s.Nodes.Sorted() {
			if p.Node(id).IsPredicate() && guards.Has(id) {
				extra.AddAll(s.Selection.ComputeSlice(t))
				break
			}
		}
	}
	s.Nodes.AddAll(extra)
}

// guards returns the nodes node is nested inside: the transitive sources of
// its incoming control dependences, entry excluded.
func (s *Slice) guards(node int) pdg.NodeSet {
	p := s.Selection.PDG
	out := make(pdg.NodeSet)
	stack := []int{node}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, i := range p.Incoming(id) {
			e := p.Edges[i]
			if e.Type != pdg.DepTypeControl || e.Src == p.Entry().ID || out.Has(e.Src) {
				continue
			}
			out.Add(e.Src)
			stack = append(stack, e.Src)
		}
	}
	return out
}

func (s *Slice) nestedInAny(node int, set pdg.NodeSet, skipEntry bool) bool {
	entry := s.Selection.PDG.Entry().ID
	for g := range s.guards(node) {
		if skipEntry && g == entry {
			continue
		}
		if set.Has(g) {
			return true
		}
	}
	return false
}

// escapingDependences scans every dependence of the method. Data flowing
// from Remaining into the slice becomes a passed parameter; slice nodes
// whose values or control decisions are still consumed by Remaining are
// returned as data- and control-escaping.
func (s *Slice) escapingDependences() (control, data []int) {
	p := s.Selection.PDG
	nCD := make(pdg.NodeSet)
	nDD := make(pdg.NodeSet)
	for _, e := range p.Edges {
		switch e.Type {
		case pdg.DepTypeData:
			if s.Remaining.Has(e.Src) && s.Nodes.Has(e.Dst) {
				s.PassedParameters.Add(e.Var)
			}
			if s.Nodes.Has(e.Src) && s.Remaining.Has(e.Dst) &&
				e.Var != s.Variable && !e.Var.IsFieldAccess() {
				nDD.Add(e.Src)
			}
		case pdg.DepTypeControl:
			if s.Nodes.Has(e.Src) && s.Remaining.Has(e.Dst) {
				nCD.Add(e.Src)
			}
		}
	}
	return nCD.Sorted(), nDD.Sorted()
}

// Valid reports whether the slice is worth extracting: it has more than
// one statement, and a two-statement slice is not just the declaration
// plus one assignment of the variable.
func (s *Slice) Valid() bool {
	if len(s.Nodes) <= 1 {
		return false
	}
	if len(s.Nodes) == 2 {
		for id := range s.Nodes {
			if s.Selection.PDG.Node(id).Declares(s.Variable) {
				return false
			}
		}
	}
	return true
}

// Duplicated returns the slice nodes that must stay in the original method.
func (s *Slice) Duplicated() pdg.NodeSet {
	out := make(pdg.NodeSet)
	for id := range s.Nodes {
		if !s.Removable.Has(id) {
			out.Add(id)
		}
	}
	return out
}
