package java

import (
	sitter "github.com/smacker/go-tree-sitter"

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

func (r *resolver) exprChildren(n *sitter.Node, a *accesses) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		r.expr(n.NamedChild(i), a)
	}
}

// expr records the uses, and the definitions made by assignments and
// increments, of expression n.
func (r *resolver) expr(n *sitter.Node, a *accesses) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		if b, ok := r.lookup(r.text(n)); ok {
			a.use(b, "")
		}

	case "field_access":
		if b, path, ok := r.fieldPath(n); ok {
			a.use(b, path)
			if path != "" {
				a.use(b, "")
			}
			return
		}
		r.expr(n.ChildByFieldName("object"), a)

	case "assignment_expression":
		r.expr(n.ChildByFieldName("right"), a)
		op := n.ChildByFieldName("operator")
		r.target(n.ChildByFieldName("left"), a, op != nil && r.text(op) != "=")

	case "update_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			r.target(n.NamedChild(i), a, true)
		}

	case "method_invocation":
		if obj := n.ChildByFieldName("object"); obj != nil {
			r.expr(obj, a)
		}
		r.expr(n.ChildByFieldName("arguments"), a)

	case "method_reference":
		if n.NamedChildCount() > 0 {
			r.expr(n.NamedChild(0), a)
		}

	case "lambda_expression":
		r.captures(n, a)

	case "object_creation_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "argument_list":
				r.expr(c, a)
			case "class_body":
				r.captures(c, a)
			}
		}

	case "instanceof_expression":
		r.expr(n.ChildByFieldName("left"), a)
		if name := n.ChildByFieldName("name"); name != nil {
			b := r.declare(name, ir.BindingLocal, r.text(n.ChildByFieldName("right")), true)
			a.declares = append(a.declares, b)
			a.def(b, "", false)
		}

	case "this", "super", "type_identifier", "generic_type", "integral_type",
		"floating_point_type", "boolean_type", "array_type", "scoped_type_identifier",
		"line_comment", "block_comment":

	default:
		r.exprChildren(n, a)
	}
}

// target records an assignment to n. Compound assignments and increments
// also read the target. Stores into an array element are weak: they
// update part of the array without replacing it.
func (r *resolver) target(n *sitter.Node, a *accesses, compound bool) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		b, ok := r.lookup(r.text(n))
		if !ok {
			return
		}
		if compound {
			a.use(b, "")
		}
		a.def(b, "", false)

	case "field_access":
		b, path, ok := r.fieldPath(n)
		if !ok {
			r.expr(n.ChildByFieldName("object"), a)
			return
		}
		if compound {
			a.use(b, path)
		}
		if path != "" {
			a.use(b, "")
		}
		a.def(b, path, false)

	case "array_access":
		r.expr(n.ChildByFieldName("index"), a)
		arr := n.ChildByFieldName("array")
		r.expr(arr, a)
		if b, path, ok := r.reference(arr); ok {
			a.def(b, path, true)
		}

	case "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			r.target(n.NamedChild(i), a, compound)
		}

	default:
		r.expr(n, a)
	}
}

// reference resolves a variable or field path expression.
func (r *resolver) reference(n *sitter.Node) (ir.Binding, string, bool) {
	switch n.Type() {
	case "identifier":
		b, ok := r.lookup(r.text(n))
		return b, "", ok
	case "field_access":
		return r.fieldPath(n)
	}
	return ir.Binding{}, "", false
}

// fieldPath resolves a chain of field accesses to its base binding and
// dotted path. this.f resolves to the plain field f; a.f.g with a local or
// field base resolves to (a, "f.g").
func (r *resolver) fieldPath(n *sitter.Node) (ir.Binding, string, bool) {
	obj := n.ChildByFieldName("object")
	field := r.text(n.ChildByFieldName("field"))
	if obj == nil || field == "" {
		return ir.Binding{}, "", false
	}

	switch obj.Type() {
	case "this":
		return r.thisField(field), "", true
	case "identifier":
		b, ok := r.lookup(r.text(obj))
		if !ok {
			return ir.Binding{}, "", false
		}
		return b, field, true
	case "field_access":
		b, path, ok := r.fieldPath(obj)
		if !ok {
			return ir.Binding{}, "", false
		}
		if path == "" {
			return b, field, true
		}
		return b, path + "." + field, true
	}
	return ir.Binding{}, "", false
}

// captures records the enclosing variables read inside a lambda or an
// anonymous class body. Their bodies run later, so they contribute uses
// only; names declared inside shadow the enclosing ones.
func (r *resolver) captures(n *sitter.Node, a *accesses) {
	inner := make(map[string]bool)
	var declared func(c *sitter.Node)
	declared = func(c *sitter.Node) {
		switch c.Type() {
		case "variable_declarator", "formal_parameter", "catch_formal_parameter", "enhanced_for_statement":
			if name := c.ChildByFieldName("name"); name != nil {
				inner[r.text(name)] = true
			}
		case "inferred_parameters":
			for i := 0; i < int(c.NamedChildCount()); i++ {
				inner[r.text(c.NamedChild(i))] = true
			}
		case "lambda_expression":
			if p := c.ChildByFieldName("parameters"); p != nil && p.Type() == "identifier" {
				inner[r.text(p)] = true
			}
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			declared(c.NamedChild(i))
		}
	}
	declared(n)

	seen := make(map[ir.BindingKey]bool)
	var visit func(c *sitter.Node)
	visit = func(c *sitter.Node) {
		switch c.Type() {
		case "identifier":
			name := r.text(c)
			if inner[name] || r.isMemberName(c) {
				return
			}
			if b, ok := r.lookup(name); ok && !seen[b.Key()] {
				seen[b.Key()] = true
				a.use(b, "")
			}
			return
		case "field_access":
			if obj := c.ChildByFieldName("object"); obj != nil && obj.Type() == "this" {
				b := r.thisField(r.text(c.ChildByFieldName("field")))
				if !seen[b.Key()] {
					seen[b.Key()] = true
					a.use(b, "")
				}
				return
			}
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			visit(c.NamedChild(i))
		}
	}
	visit(n)
}

// isMemberName reports whether identifier n names a method, a field after
// a dot, a label or a declared member rather than a variable.
func (r *resolver) isMemberName(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "method_invocation", "method_declaration", "constructor_declaration", "variable_declarator",
		"formal_parameter", "catch_formal_parameter", "enhanced_for_statement":
		return sameNode(p.ChildByFieldName("name"), n)
	case "field_access":
		return sameNode(p.ChildByFieldName("field"), n)
	case "break_statement", "continue_statement", "labeled_statement", "method_reference":
		return true
	}
	return false
}
