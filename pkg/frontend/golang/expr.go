package golang

import (
	"go/ast"
	"go/types"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// accesses collects the variable accesses of one statement header.
type accesses struct {
	defs     []ir.Access
	uses     []ir.Access
	declares []ir.Binding
}

func (a *accesses) def(b ir.Binding, field string, weak bool) {
	a.defs = append(a.defs, ir.Access{Binding: b, Field: field, Weak: weak})
}

func (a *accesses) use(b ir.Binding, field string) {
	a.uses = append(a.uses, ir.Access{Binding: b, Field: field})
}

func (a *accesses) apply(s *ir.Stmt) {
	s.Defs = append(s.Defs, a.defs...)
	s.Uses = append(s.Uses, a.uses...)
	s.Declares = append(s.Declares, a.declares...)
}

// expr records the variables read by n. Function literals only contribute
// the enclosing variables they capture.
func (r *resolver) expr(n ast.Node, a *accesses) {
	if n == nil {
		return
	}
	ast.Inspect(n, func(c ast.Node) bool {
		switch c := c.(type) {
		case *ast.Ident:
			if b, ok := r.binding(c); ok {
				a.use(b, "")
			}
			return false
		case *ast.SelectorExpr:
			if b, path, ok := r.fieldPath(c); ok {
				a.use(b, path)
				a.use(b, "")
				return false
			}
			r.expr(c.X, a)
			return false
		case *ast.FuncLit:
			r.captures(c, a)
			return false
		}
		return true
	})
}

// target records an assignment to e. Compound assignments also read the
// target. Stores through an index or a pointer are weak: they update part
// of a value without replacing it.
func (r *resolver) target(e ast.Expr, a *accesses, compound bool) {
	switch x := e.(type) {
	case *ast.Ident:
		b, ok := r.binding(x)
		if !ok {
			return
		}
		if compound {
			a.use(b, "")
		}
		a.def(b, "", false)

	case *ast.SelectorExpr:
		b, path, ok := r.fieldPath(x)
		if !ok {
			r.expr(x.X, a)
			return
		}
		if compound {
			a.use(b, path)
		}
		a.use(b, "")
		a.def(b, path, false)

	case *ast.IndexExpr:
		r.expr(x.Index, a)
		r.expr(x.X, a)
		if b, path, ok := r.reference(x.X); ok {
			a.def(b, path, true)
		}

	case *ast.StarExpr:
		r.expr(x.X, a)
		if b, path, ok := r.reference(x.X); ok {
			a.def(b, path, true)
		}

	case *ast.ParenExpr:
		r.target(x.X, a, compound)

	default:
		r.expr(e, a)
	}
}

func (r *resolver) reference(e ast.Expr) (ir.Binding, string, bool) {
	switch x := e.(type) {
	case *ast.Ident:
		b, ok := r.binding(x)
		return b, "", ok
	case *ast.SelectorExpr:
		return r.fieldPath(x)
	case *ast.ParenExpr:
		return r.reference(x.X)
	}
	return ir.Binding{}, "", false
}

// fieldPath resolves a chain of struct field selections rooted at a
// variable to (variable, "f.g"). Method values and qualified identifiers
// do not resolve.
func (r *resolver) fieldPath(sel *ast.SelectorExpr) (ir.Binding, string, bool) {
	if s, ok := r.f.Info.Selections[sel]; ok && s.Kind() != types.FieldVal {
		return ir.Binding{}, "", false
	}

	x := sel.X
	for {
		switch p := x.(type) {
		case *ast.ParenExpr:
			x = p.X
			continue
		case *ast.StarExpr:
			x = p.X
			continue
		}
		break
	}

	switch base := x.(type) {
	case *ast.Ident:
		b, ok := r.binding(base)
		if !ok {
			return ir.Binding{}, "", false
		}
		return b, sel.Sel.Name, true
	case *ast.SelectorExpr:
		b, path, ok := r.fieldPath(base)
		if !ok {
			return ir.Binding{}, "", false
		}
		return b, path + "." + sel.Sel.Name, true
	}
	return ir.Binding{}, "", false
}

// captures records the enclosing variables a function literal reads. Its
// body may run later or never, so assignments to captured variables are
// weak definitions.
func (r *resolver) captures(lit *ast.FuncLit, a *accesses) {
	seen := make(map[ir.BindingKey]bool)
	ast.Inspect(lit.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.AssignStmt:
			for _, e := range x.Lhs {
				if id, ok := e.(*ast.Ident); ok {
					if b, ok := r.binding(id); ok {
						a.def(b, "", true)
					}
				}
			}
		case *ast.IncDecStmt:
			if id, ok := x.X.(*ast.Ident); ok {
				if b, ok := r.binding(id); ok {
					a.def(b, "", true)
				}
			}
		case *ast.Ident:
			if b, ok := r.binding(x); ok && !seen[b.Key()] {
				seen[b.Key()] = true
				a.use(b, "")
			}
		}
		return true
	})
}
