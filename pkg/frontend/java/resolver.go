package java

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// resolver translates one method. It keeps a stack of block scopes and
// records each field the body touches.
type resolver struct {
	src       []byte
	m         *ir.Method
	scopes    []map[string]ir.Binding
	fields    map[string]ir.Binding
	usedField map[string]bool
}

func newResolver(src []byte) *resolver {
	return &resolver{src: src, usedField: make(map[string]bool)}
}

func (r *resolver) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(r.src)
}

func (r *resolver) push() {
	r.scopes = append(r.scopes, make(map[string]ir.Binding))
}

func (r *resolver) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare binds the identifier n in the innermost scope. Locals are
// recorded on the method unless local is false.
func (r *resolver) declare(n *sitter.Node, kind ir.BindingKind, typ string, local bool) ir.Binding {
	b := ir.Binding{
		Name: r.text(n),
		Kind: kind,
		Type: typ,
		Decl: int(n.StartByte()),
	}
	r.scopes[len(r.scopes)-1][b.Name] = b
	if local && kind == ir.BindingLocal {
		r.m.Locals = append(r.m.Locals, b)
	}
	return b
}

// lookup resolves a simple name against the scopes, then the fields.
func (r *resolver) lookup(name string) (ir.Binding, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if b, ok := r.scopes[i][name]; ok {
			return b, true
		}
	}
	return r.field(name)
}

// field resolves name as a field of the enclosing types.
func (r *resolver) field(name string) (ir.Binding, bool) {
	b, ok := r.fields[name]
	if !ok {
		return ir.Binding{}, false
	}
	if !r.usedField[name] {
		r.usedField[name] = true
		r.m.Fields = append(r.m.Fields, b)
	}
	return b, true
}

// thisField resolves this.name. Inherited fields are unknown to the
// resolver and get a synthetic binding.
func (r *resolver) thisField(name string) ir.Binding {
	if b, ok := r.field(name); ok {
		return b
	}
	b := ir.Binding{Name: name, Kind: ir.BindingField, Decl: -1}
	r.fields[name] = b
	r.usedField[name] = true
	r.m.Fields = append(r.m.Fields, b)
	return b
}

func (r *resolver) method(n *sitter.Node) (*ir.Method, error) {
	r.m = &ir.Method{
		Name:       r.text(n.ChildByFieldName("name")),
		Language:   ir.LanguageJava,
		Source:     r.src,
		Span:       span(n),
		ReturnType: r.text(n.ChildByFieldName("type")),
	}
	r.fields = classFields(n, r.src)

	r.push()
	defer r.pop()

	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			var name *sitter.Node
			typ := r.text(p.ChildByFieldName("type"))
			switch p.Type() {
			case "formal_parameter":
				name = p.ChildByFieldName("name")
			case "spread_parameter":
				for j := 0; j < int(p.NamedChildCount()); j++ {
					c := p.NamedChild(j)
					if c.Type() == "variable_declarator" {
						name = c.ChildByFieldName("name")
					} else if typ == "" && c.Type() != "modifiers" {
						typ = r.text(c) + "..."
					}
				}
			}
			if name == nil {
				continue
			}
			r.m.Params = append(r.m.Params, r.declare(name, ir.BindingParam, typ, false))
		}
	}

	body, err := r.stmt(n.ChildByFieldName("body"))
	if err != nil {
		return nil, fmt.Errorf("translating method %s: %w", r.m.Name, err)
	}
	r.m.Body = body
	ir.SetParents(body)
	return r.m, nil
}

func (r *resolver) newStmt(kind ir.StmtKind, n *sitter.Node) *ir.Stmt {
	return &ir.Stmt{Kind: kind, Span: span(n), Text: r.text(n)}
}

func (a *accesses) apply(s *ir.Stmt) {
	s.Defs = append(s.Defs, a.defs...)
	s.Uses = append(s.Uses, a.uses...)
	s.Declares = append(s.Declares, a.declares...)
}

func (r *resolver) block(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindBlock, n)
	r.push()
	defer r.pop()
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "line_comment" || c.Type() == "block_comment" {
			continue
		}
		child, err := r.stmt(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			s.Stmts = append(s.Stmts, child)
		}
	}
	return s, nil
}

// scoped translates n in its own scope, as Java does for the single
// statement body of if, loops and labels.
func (r *resolver) scoped(n *sitter.Node) (*ir.Stmt, error) {
	if n == nil {
		return nil, nil
	}
	r.push()
	defer r.pop()
	return r.stmt(n)
}

func (r *resolver) stmt(n *sitter.Node) (*ir.Stmt, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Type() {
	case "block", "constructor_body":
		return r.block(n)

	case "local_variable_declaration":
		s := r.newStmt(ir.KindDecl, n)
		a := &accesses{}
		r.declaration(n, a)
		a.apply(s)
		return s, nil

	case "expression_statement", "explicit_constructor_invocation", "assert_statement", "yield_statement":
		s := r.newStmt(ir.KindSimple, n)
		a := &accesses{}
		r.exprChildren(n, a)
		a.apply(s)
		return s, nil

	case "return_statement", "throw_statement":
		kind := ir.KindReturn
		if n.Type() == "throw_statement" {
			kind = ir.KindThrow
		}
		s := r.newStmt(kind, n)
		a := &accesses{}
		r.exprChildren(n, a)
		a.apply(s)
		return s, nil

	case "break_statement", "continue_statement":
		kind := ir.KindBreak
		if n.Type() == "continue_statement" {
			kind = ir.KindContinue
		}
		s := r.newStmt(kind, n)
		if n.NamedChildCount() > 0 && n.NamedChild(0).Type() == "identifier" {
			s.Label = r.text(n.NamedChild(0))
		}
		return s, nil

	case "class_declaration", "record_declaration", "enum_declaration", "interface_declaration", ";":
		return r.newStmt(ir.KindEmpty, n), nil

	case "if_statement":
		s := r.newStmt(ir.KindIf, n)
		a := &accesses{}
		r.expr(n.ChildByFieldName("condition"), a)
		a.apply(s)
		var err error
		if s.Then, err = r.scoped(n.ChildByFieldName("consequence")); err != nil {
			return nil, err
		}
		if s.Else, err = r.scoped(n.ChildByFieldName("alternative")); err != nil {
			return nil, err
		}
		return s, nil

	case "while_statement", "do_statement":
		kind := ir.KindWhile
		if n.Type() == "do_statement" {
			kind = ir.KindDoWhile
		}
		s := r.newStmt(kind, n)
		a := &accesses{}
		r.expr(n.ChildByFieldName("condition"), a)
		a.apply(s)
		var err error
		if s.Body, err = r.scoped(n.ChildByFieldName("body")); err != nil {
			return nil, err
		}
		return s, nil

	case "for_statement":
		return r.forStmt(n)

	case "enhanced_for_statement":
		return r.forEach(n)

	case "switch_expression", "switch_statement":
		return r.switchStmt(n)

	case "try_statement", "try_with_resources_statement":
		return r.tryStmt(n)

	case "synchronized_statement":
		s := r.newStmt(ir.KindSynchronized, n)
		a := &accesses{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "parenthesized_expression" {
				r.expr(c, a)
			}
		}
		a.apply(s)
		var err error
		if s.Body, err = r.stmt(n.ChildByFieldName("body")); err != nil {
			return nil, err
		}
		return s, nil

	case "labeled_statement":
		s := r.newStmt(ir.KindLabeled, n)
		var body *sitter.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "identifier" && s.Label == "" {
				s.Label = r.text(c)
				continue
			}
			body = c
		}
		var err error
		if s.Body, err = r.scoped(body); err != nil {
			return nil, err
		}
		return s, nil

	case "line_comment", "block_comment":
		return nil, nil
	}

	return nil, fmt.Errorf("%w: %s at line %d", ir.ErrUnsupportedSyntax, n.Type(), n.StartPoint().Row+1)
}

// declaration records a local_variable_declaration or resource: each
// initializer is read before its variable comes into scope.
func (r *resolver) declaration(n *sitter.Node, a *accesses) {
	typ := r.text(n.ChildByFieldName("type"))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		value := d.ChildByFieldName("value")
		r.expr(value, a)
		b := r.declare(d.ChildByFieldName("name"), ir.BindingLocal, typ+r.text(d.ChildByFieldName("dimensions")), true)
		a.declares = append(a.declares, b)
		if value != nil {
			a.def(b, "", false)
		}
	}
}

func (r *resolver) forStmt(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindFor, n)
	r.push()
	defer r.pop()

	a := &accesses{}
	body := n.ChildByFieldName("body")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if sameNode(c, body) {
			continue
		}
		if c.Type() == "local_variable_declaration" {
			r.declaration(c, a)
			continue
		}
		r.expr(c, a)
	}
	a.apply(s)

	var err error
	if s.Body, err = r.scoped(body); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *resolver) forEach(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindForEach, n)
	r.push()
	defer r.pop()

	a := &accesses{}
	r.expr(n.ChildByFieldName("value"), a)
	b := r.declare(n.ChildByFieldName("name"), ir.BindingLocal, r.text(n.ChildByFieldName("type")), true)
	a.declares = append(a.declares, b)
	a.def(b, "", false)
	a.apply(s)

	var err error
	if s.Body, err = r.scoped(n.ChildByFieldName("body")); err != nil {
		return nil, err
	}
	return s, nil
}

// switchStmt translates both the colon form, whose groups fall through,
// and the arrow form, whose rules never do.
func (r *resolver) switchStmt(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindSwitch, n)
	a := &accesses{}
	r.expr(n.ChildByFieldName("condition"), a)
	a.apply(s)

	body := n.ChildByFieldName("body")
	if body == nil {
		return s, nil
	}
	r.push()
	defer r.pop()

	for i := 0; i < int(body.NamedChildCount()); i++ {
		group := body.NamedChild(i)
		if group.Type() != "switch_block_statement_group" && group.Type() != "switch_rule" {
			continue
		}
		c := &ir.Case{Span: span(group), FallsThrough: group.Type() == "switch_block_statement_group"}
		labels := &accesses{}
		for j := 0; j < int(group.NamedChildCount()); j++ {
			child := group.NamedChild(j)
			if child.Type() == "switch_label" {
				if child.NamedChildCount() == 0 {
					c.Default = true
				}
				r.exprChildren(child, labels)
				continue
			}
			st, err := r.stmt(child)
			if err != nil {
				return nil, err
			}
			if st != nil {
				c.Body = append(c.Body, st)
			}
		}
		c.Uses = labels.uses
		s.Cases = append(s.Cases, c)
	}
	return s, nil
}

func (r *resolver) tryStmt(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindTry, n)
	r.push()
	defer r.pop()

	if res := n.ChildByFieldName("resources"); res != nil {
		a := &accesses{}
		for i := 0; i < int(res.NamedChildCount()); i++ {
			rc := res.NamedChild(i)
			if rc.Type() != "resource" {
				continue
			}
			name := rc.ChildByFieldName("name")
			if name == nil {
				r.exprChildren(rc, a)
				continue
			}
			r.expr(rc.ChildByFieldName("value"), a)
			b := r.declare(name, ir.BindingLocal, r.text(rc.ChildByFieldName("type")), true)
			a.declares = append(a.declares, b)
			a.def(b, "", false)
		}
		a.apply(s)
	}

	var err error
	if s.Body, err = r.stmt(n.ChildByFieldName("body")); err != nil {
		return nil, err
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "catch_clause":
			cs, err := r.catchClause(c)
			if err != nil {
				return nil, err
			}
			s.Catches = append(s.Catches, cs)
		case "finally_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if b := c.NamedChild(j); b.Type() == "block" {
					if s.Finally, err = r.block(b); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return s, nil
}

func (r *resolver) catchClause(n *sitter.Node) (*ir.Stmt, error) {
	s := r.newStmt(ir.KindCatch, n)
	r.push()
	defer r.pop()

	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		if p.Type() != "catch_formal_parameter" {
			continue
		}
		typ := ""
		for j := 0; j < int(p.NamedChildCount()); j++ {
			if t := p.NamedChild(j); t.Type() == "catch_type" {
				typ = r.text(t)
			}
		}
		if name := p.ChildByFieldName("name"); name != nil {
			b := r.declare(name, ir.BindingLocal, typ, true)
			s.Declares = append(s.Declares, b)
			s.Defs = append(s.Defs, ir.Access{Binding: b})
		}
	}

	var err error
	if s.Body, err = r.stmt(n.ChildByFieldName("body")); err != nil {
		return nil, err
	}
	return s, nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
