package pdg

import "sort"

// NodeSet is a set of PDG node IDs. Sorted order is source order.
type NodeSet map[int]struct{}

// NewNodeSet returns a set holding ids.
func NewNodeSet(ids ...int) NodeSet {
	s := make(NodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s NodeSet) Add(id int) {
	s[id] = struct{}{}
}

// AddAll inserts every member of o.
func (s NodeSet) AddAll(o NodeSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Has reports whether id is a member.
func (s NodeSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending ID order.
func (s NodeSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// First returns the smallest member.
func (s NodeSet) First() (int, bool) {
	first, ok := 0, false
	for id := range s {
		if !ok || id < first {
			first, ok = id, true
		}
	}
	return first, ok
}
