package variable

// Set is an insertion-ordered set of variables.
type Set struct {
	order []Variable
	index map[Variable]struct{}
}

// NewSet returns a set holding vs.
func NewSet(vs ...Variable) *Set {
	s := &Set{index: make(map[Variable]struct{}, len(vs))}
	for _, v := range vs {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was absent.
func (s *Set) Add(v Variable) bool {
	if s.index == nil {
		s.index = make(map[Variable]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Has reports whether v is in the set.
func (s *Set) Has(v Variable) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of variables.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Slice returns the variables in insertion order. The result must not be
// modified.
func (s *Set) Slice() []Variable {
	if s == nil {
		return nil
	}
	return s.order
}
