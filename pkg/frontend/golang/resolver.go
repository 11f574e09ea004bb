package golang

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

type resolver struct {
	f        *File
	fn       *ast.FuncDecl
	m        *ir.Method
	bindings map[*types.Var]ir.Binding
	results  []ir.Binding // Named results, read by a bare return
}

func newResolver(f *File, fn *ast.FuncDecl) *resolver {
	return &resolver{f: f, fn: fn, bindings: make(map[*types.Var]ir.Binding)}
}

func (r *resolver) offset(p token.Pos) int {
	return r.f.Fset.Position(p).Offset
}

func (r *resolver) span(n ast.Node) ir.Span {
	start := r.f.Fset.Position(n.Pos())
	end := r.f.Fset.Position(n.End())
	return ir.Span{Start: start.Offset, End: end.Offset, StartLine: start.Line, EndLine: end.Line}
}

func (r *resolver) text(n ast.Node) string {
	s := r.span(n)
	if s.Start < 0 || s.End > len(r.f.Src) || s.Start > s.End {
		return ""
	}
	return string(r.f.Src[s.Start:s.End])
}

func (r *resolver) typeString(t types.Type) string {
	if t == nil {
		return ""
	}
	return types.TypeString(t, types.RelativeTo(r.f.Pkg))
}

// newBinding registers the variable defined by id.
func (r *resolver) newBinding(id *ast.Ident, kind ir.BindingKind) (ir.Binding, bool) {
	v, ok := r.f.Info.Defs[id].(*types.Var)
	if !ok {
		return ir.Binding{}, false
	}
	b := ir.Binding{Name: id.Name, Kind: kind, Type: r.typeString(v.Type()), Decl: r.offset(id.Pos())}
	r.bindings[v] = b
	if kind == ir.BindingLocal {
		r.m.Locals = append(r.m.Locals, b)
	}
	return b, true
}

// binding resolves a use of id. Package-level variables play the role of
// fields: state outside the function.
func (r *resolver) binding(id *ast.Ident) (ir.Binding, bool) {
	v, ok := r.f.Info.ObjectOf(id).(*types.Var)
	if !ok || v.IsField() {
		return ir.Binding{}, false
	}
	if b, ok := r.bindings[v]; ok {
		return b, true
	}
	if v.Pkg() == nil || v.Parent() != v.Pkg().Scope() {
		return ir.Binding{}, false
	}
	b := ir.Binding{Name: v.Name(), Kind: ir.BindingField, Type: r.typeString(v.Type()), Decl: -1}
	if r.f.Fset.File(v.Pos()) == r.f.Fset.File(r.fn.Pos()) {
		b.Decl = r.offset(v.Pos())
	}
	r.bindings[v] = b
	r.m.Fields = append(r.m.Fields, b)
	return b, true
}

func (r *resolver) method() (*ir.Method, error) {
	fn := r.fn
	r.m = &ir.Method{
		Name:     fn.Name.Name,
		Language: ir.LanguageGo,
		Path:     r.f.Path,
		Source:   r.f.Src,
		Span:     r.span(fn),
	}

	if fn.Recv != nil {
		for _, field := range fn.Recv.List {
			for _, id := range field.Names {
				if b, ok := r.newBinding(id, ir.BindingReceiver); ok {
					r.m.Receiver = &b
				}
			}
		}
	}
	for _, field := range fn.Type.Params.List {
		for _, id := range field.Names {
			if b, ok := r.newBinding(id, ir.BindingParam); ok {
				r.m.Params = append(r.m.Params, b)
			}
		}
	}
	if fn.Type.Results != nil {
		var rets []string
		for _, field := range fn.Type.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				rets = append(rets, r.text(field.Type))
			}
			for _, id := range field.Names {
				if b, ok := r.newBinding(id, ir.BindingParam); ok {
					r.m.Params = append(r.m.Params, b)
					r.results = append(r.results, b)
				}
			}
		}
		r.m.ReturnType = strings.Join(rets, ", ")
		if len(rets) > 1 {
			r.m.ReturnType = "(" + r.m.ReturnType + ")"
		}
	}

	body, err := r.stmt(fn.Body)
	if err != nil {
		return nil, fmt.Errorf("translating function %s: %w", fn.Name.Name, err)
	}
	r.m.Body = body
	ir.SetParents(body)
	return r.m, nil
}

func (r *resolver) newStmt(kind ir.StmtKind, n ast.Node) *ir.Stmt {
	return &ir.Stmt{Kind: kind, Span: r.span(n), Text: r.text(n)}
}

func (r *resolver) list(stmts []ast.Stmt) ([]*ir.Stmt, error) {
	out := make([]*ir.Stmt, 0, len(stmts))
	for _, st := range stmts {
		s, err := r.stmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// header folds the accesses of an init statement into a compound
// statement's header.
func (r *resolver) header(s *ir.Stmt, init ast.Stmt) error {
	if init == nil {
		return nil
	}
	is, err := r.stmt(init)
	if err != nil {
		return err
	}
	s.Defs = append(s.Defs, is.Defs...)
	s.Uses = append(s.Uses, is.Uses...)
	s.Declares = append(s.Declares, is.Declares...)
	return nil
}

func (r *resolver) stmt(n ast.Stmt) (*ir.Stmt, error) {
	switch n := n.(type) {
	case *ast.BlockStmt:
		s := r.newStmt(ir.KindBlock, n)
		var err error
		if s.Stmts, err = r.list(n.List); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.AssignStmt:
		return r.assign(n), nil

	case *ast.IncDecStmt:
		s := r.newStmt(ir.KindSimple, n)
		a := &accesses{}
		r.target(n.X, a, true)
		a.apply(s)
		return s, nil

	case *ast.DeclStmt:
		return r.decl(n), nil

	case *ast.ExprStmt:
		kind := ir.KindSimple
		if r.isPanic(n.X) {
			kind = ir.KindThrow
		}
		s := r.newStmt(kind, n)
		a := &accesses{}
		r.expr(n.X, a)
		a.apply(s)
		return s, nil

	case *ast.GoStmt, *ast.DeferStmt, *ast.SendStmt:
		s := r.newStmt(ir.KindSimple, n)
		a := &accesses{}
		r.expr(n, a)
		a.apply(s)
		return s, nil

	case *ast.ReturnStmt:
		s := r.newStmt(ir.KindReturn, n)
		a := &accesses{}
		for _, e := range n.Results {
			r.expr(e, a)
		}
		if len(n.Results) == 0 {
			for _, b := range r.results {
				a.use(b, "")
			}
		}
		a.apply(s)
		return s, nil

	case *ast.BranchStmt:
		var s *ir.Stmt
		switch n.Tok {
		case token.BREAK:
			s = r.newStmt(ir.KindBreak, n)
		case token.CONTINUE:
			s = r.newStmt(ir.KindContinue, n)
		case token.GOTO:
			s = r.newStmt(ir.KindGoto, n)
		default:
			return r.newStmt(ir.KindEmpty, n), nil
		}
		if n.Label != nil {
			s.Label = n.Label.Name
		}
		return s, nil

	case *ast.EmptyStmt:
		return r.newStmt(ir.KindEmpty, n), nil

	case *ast.LabeledStmt:
		s := r.newStmt(ir.KindLabeled, n)
		s.Label = n.Label.Name
		var err error
		if s.Body, err = r.stmt(n.Stmt); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.IfStmt:
		s := r.newStmt(ir.KindIf, n)
		if err := r.header(s, n.Init); err != nil {
			return nil, err
		}
		a := &accesses{}
		r.expr(n.Cond, a)
		a.apply(s)
		var err error
		if s.Then, err = r.stmt(n.Body); err != nil {
			return nil, err
		}
		if n.Else != nil {
			if s.Else, err = r.stmt(n.Else); err != nil {
				return nil, err
			}
		}
		return s, nil

	case *ast.ForStmt:
		kind := ir.KindFor
		if n.Init == nil && n.Post == nil {
			kind = ir.KindWhile
		}
		s := r.newStmt(kind, n)
		if err := r.header(s, n.Init); err != nil {
			return nil, err
		}
		a := &accesses{}
		r.expr(n.Cond, a)
		a.apply(s)
		if err := r.header(s, n.Post); err != nil {
			return nil, err
		}
		var err error
		if s.Body, err = r.stmt(n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.RangeStmt:
		s := r.newStmt(ir.KindForEach, n)
		a := &accesses{}
		r.expr(n.X, a)
		for _, e := range []ast.Expr{n.Key, n.Value} {
			if e == nil {
				continue
			}
			if n.Tok == token.DEFINE {
				r.define(e, a)
			} else {
				r.target(e, a, false)
			}
		}
		a.apply(s)
		var err error
		if s.Body, err = r.stmt(n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.SwitchStmt:
		s := r.newStmt(ir.KindSwitch, n)
		if err := r.header(s, n.Init); err != nil {
			return nil, err
		}
		a := &accesses{}
		r.expr(n.Tag, a)
		a.apply(s)
		if err := r.cases(s, n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.TypeSwitchStmt:
		s := r.newStmt(ir.KindSwitch, n)
		if err := r.header(s, n.Init); err != nil {
			return nil, err
		}
		a := &accesses{}
		switch as := n.Assign.(type) {
		case *ast.AssignStmt:
			for _, e := range as.Rhs {
				r.expr(e, a)
			}
			r.typeSwitchVar(as, n.Body, a)
		case *ast.ExprStmt:
			r.expr(as.X, a)
		}
		a.apply(s)
		if err := r.cases(s, n.Body); err != nil {
			return nil, err
		}
		return s, nil

	case *ast.SelectStmt:
		s := r.newStmt(ir.KindSwitch, n)
		for _, cl := range n.Body.List {
			cc := cl.(*ast.CommClause)
			c := &ir.Case{Span: r.span(cc), Default: cc.Comm == nil}
			if cc.Comm != nil {
				comm, err := r.stmt(cc.Comm)
				if err != nil {
					return nil, err
				}
				c.Body = append(c.Body, comm)
			}
			body, err := r.list(cc.Body)
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, body...)
			s.Cases = append(s.Cases, c)
		}
		return s, nil
	}

	return nil, fmt.Errorf("%w: %T at line %d", ir.ErrUnsupportedSyntax, n, r.f.Fset.Position(n.Pos()).Line)
}

// cases translates the clauses of an expression or type switch. A clause
// ending in fallthrough continues into the next one.
func (r *resolver) cases(s *ir.Stmt, body *ast.BlockStmt) error {
	for _, cl := range body.List {
		cc := cl.(*ast.CaseClause)
		c := &ir.Case{Span: r.span(cc), Default: cc.List == nil}
		labels := &accesses{}
		for _, e := range cc.List {
			r.expr(e, labels)
		}
		c.Uses = labels.uses

		stmts := cc.Body
		if k := len(stmts); k > 0 {
			if br, ok := stmts[k-1].(*ast.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
				c.FallsThrough = true
				stmts = stmts[:k-1]
			}
		}
		var err error
		if c.Body, err = r.list(stmts); err != nil {
			return err
		}
		s.Cases = append(s.Cases, c)
	}
	return nil
}

// typeSwitchVar binds the symbol of "switch x := y.(type)". go/types
// declares one implicit object per clause; they share one binding.
func (r *resolver) typeSwitchVar(as *ast.AssignStmt, body *ast.BlockStmt, a *accesses) {
	if len(as.Lhs) != 1 {
		return
	}
	id, ok := as.Lhs[0].(*ast.Ident)
	if !ok || id.Name == "_" {
		return
	}
	b := ir.Binding{Name: id.Name, Kind: ir.BindingLocal, Decl: r.offset(id.Pos())}
	found := false
	for _, cl := range body.List {
		v, ok := r.f.Info.Implicits[cl].(*types.Var)
		if !ok {
			continue
		}
		r.bindings[v] = b
		found = true
	}
	if !found {
		return
	}
	r.m.Locals = append(r.m.Locals, b)
	a.declares = append(a.declares, b)
	a.def(b, "", false)
}

func (r *resolver) assign(n *ast.AssignStmt) *ir.Stmt {
	a := &accesses{}
	for _, e := range n.Rhs {
		r.expr(e, a)
	}

	switch n.Tok {
	case token.DEFINE:
		for _, e := range n.Lhs {
			r.define(e, a)
		}
	case token.ASSIGN:
		for _, e := range n.Lhs {
			r.target(e, a, false)
		}
	default:
		for _, e := range n.Lhs {
			r.target(e, a, true)
		}
	}

	kind := ir.KindSimple
	if len(a.declares) > 0 {
		kind = ir.KindDecl
	}
	s := r.newStmt(kind, n)
	a.apply(s)
	return s
}

// define handles the left side of ":=": new variables are declared, the
// others are plainly assigned.
func (r *resolver) define(e ast.Expr, a *accesses) {
	id, ok := e.(*ast.Ident)
	if !ok || id.Name == "_" {
		return
	}
	if b, ok := r.newBinding(id, ir.BindingLocal); ok {
		a.declares = append(a.declares, b)
		a.def(b, "", false)
		return
	}
	r.target(id, a, false)
}

func (r *resolver) decl(n *ast.DeclStmt) *ir.Stmt {
	gd, ok := n.Decl.(*ast.GenDecl)
	if !ok || gd.Tok != token.VAR {
		return r.newStmt(ir.KindEmpty, n)
	}

	s := r.newStmt(ir.KindDecl, n)
	a := &accesses{}
	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for _, e := range vs.Values {
			r.expr(e, a)
		}
		// Variables without initializer hold their zero value.
		for _, id := range vs.Names {
			if id.Name == "_" {
				continue
			}
			if b, ok := r.newBinding(id, ir.BindingLocal); ok {
				a.declares = append(a.declares, b)
				a.def(b, "", false)
			}
		}
	}
	a.apply(s)
	return s
}

func (r *resolver) isPanic(e ast.Expr) bool {
	call, ok := e.(*ast.CallExpr)
	if !ok {
		return false
	}
	id, ok := call.Fun.(*ast.Ident)
	if !ok || id.Name != "panic" {
		return false
	}
	obj := r.f.Info.Uses[id]
	_, builtin := obj.(*types.Builtin)
	return obj == nil || builtin
}
