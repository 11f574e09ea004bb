package frontend

import (
	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// SelectLines widens the 1-based line range [startLine, endLine] to whole
// statements: the first and last statement touched by the range are
// lifted to the innermost statement list holding both, and the byte range
// from the start of the first to the end of the last is returned.
func SelectLines(m *ir.Method, startLine, endLine int) (first, last int, err error) {
	if startLine > endLine {
		startLine, endLine = endLine, startLine
	}

	var touched []*ir.Stmt
	ir.Walk(m.Body, func(s *ir.Stmt) bool {
		if s == m.Body || s.Kind == ir.KindBlock {
			return true
		}
		if s.Span.EndLine >= startLine && s.Span.StartLine <= endLine {
			touched = append(touched, s)
		}
		return true
	})
	if len(touched) == 0 {
		return 0, 0, ErrEmptySelection
	}

	a, b := touched[0], touched[0]
	for _, s := range touched[1:] {
		if s.Span.End > b.Span.End {
			b = s
		}
	}

	container := commonContainer(a, b)
	if container == nil {
		return 0, 0, ErrEmptySelection
	}
	return childOf(a, container).Span.Start, childOf(b, container).Span.End, nil
}

func holdsList(s *ir.Stmt) bool {
	return s.Kind == ir.KindBlock || s.Kind == ir.KindSwitch
}

// commonContainer returns the innermost block or switch enclosing both a
// and b.
func commonContainer(a, b *ir.Stmt) *ir.Stmt {
	for c := a.Parent; c != nil; c = c.Parent {
		if !holdsList(c) {
			continue
		}
		for d := b.Parent; d != nil; d = d.Parent {
			if d == c {
				return c
			}
		}
	}
	return nil
}

// childOf returns the ancestor of s, or s itself, directly inside c.
func childOf(s, c *ir.Stmt) *ir.Stmt {
	for s.Parent != c {
		s = s.Parent
	}
	return s
}
