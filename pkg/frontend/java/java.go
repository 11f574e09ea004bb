// Package java turns Java source into ir.Method values using the
// tree-sitter Java grammar. Identifiers are resolved with a block scope
// stack against locals, parameters and fields of the enclosing classes.
package java

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// parse returns the syntax tree of src. The caller must Close it.
func parse(src []byte) *sitter.Tree {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return parser.Parse(nil, src)
}

// ParseMethod translates the first method or constructor named name. A
// name of the form "Class.method" only matches methods declared directly
// in that class.
func ParseMethod(src []byte, name string) (*ir.Method, error) {
	tree := parse(src)
	defer tree.Close()

	className := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		className, name = name[:i], name[i+1:]
	}

	node := findMethod(tree.RootNode(), src, name, className)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ir.ErrMethodNotFound, name)
	}
	return newResolver(src).method(node)
}

// MethodAt translates the innermost method or constructor whose span
// contains offset.
func MethodAt(src []byte, offset int) (*ir.Method, error) {
	tree := parse(src)
	defer tree.Close()

	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if int(n.StartByte()) > offset || int(n.EndByte()) < offset {
			return
		}
		if isMethod(n) && n.ChildByFieldName("body") != nil {
			found = n
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(tree.RootNode())

	if found == nil {
		return nil, fmt.Errorf("%w: no method at offset %d", ir.ErrMethodNotFound, offset)
	}
	return newResolver(src).method(found)
}

// Methods lists the names of all methods and constructors with a body, in
// source order.
func Methods(src []byte) []string {
	tree := parse(src)
	defer tree.Close()

	var names []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if isMethod(n) && n.ChildByFieldName("body") != nil {
			names = append(names, n.ChildByFieldName("name").Content(src))
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(tree.RootNode())
	return names
}

func isMethod(n *sitter.Node) bool {
	return n.Type() == "method_declaration" || n.Type() == "constructor_declaration"
}

func findMethod(node *sitter.Node, src []byte, name, className string) *sitter.Node {
	if node == nil {
		return nil
	}

	if isMethod(node) && node.ChildByFieldName("body") != nil {
		nameNode := node.ChildByFieldName("name")
		if nameNode != nil && nameNode.Content(src) == name &&
			(className == "" || enclosingClassName(node, src) == className) {
			return node
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if result := findMethod(node.NamedChild(i), src, name, className); result != nil {
			return result
		}
	}
	return nil
}

func isTypeDeclaration(n *sitter.Node) bool {
	switch n.Type() {
	case "class_declaration", "enum_declaration", "record_declaration", "interface_declaration":
		return true
	}
	return false
}

func enclosingClassName(n *sitter.Node, src []byte) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isTypeDeclaration(p) {
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Content(src)
			}
		}
	}
	return ""
}

// classFields collects the fields declared by every type enclosing n.
// Inner declarations shadow outer ones.
func classFields(n *sitter.Node, src []byte) map[string]ir.Binding {
	var decls []*sitter.Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isTypeDeclaration(p) {
			decls = append(decls, p)
		}
	}

	fields := make(map[string]ir.Binding)
	for i := len(decls) - 1; i >= 0; i-- {
		body := decls[i].ChildByFieldName("body")
		if body == nil {
			continue
		}
		collectFields(body, src, fields)
	}
	return fields
}

func collectFields(body *sitter.Node, src []byte, fields map[string]ir.Binding) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			typ := ""
			if t := member.ChildByFieldName("type"); t != nil {
				typ = t.Content(src)
			}
			for j := 0; j < int(member.NamedChildCount()); j++ {
				d := member.NamedChild(j)
				if d.Type() != "variable_declarator" {
					continue
				}
				name := d.ChildByFieldName("name")
				fields[name.Content(src)] = ir.Binding{
					Name: name.Content(src),
					Kind: ir.BindingField,
					Type: typ,
					Decl: int(name.StartByte()),
				}
			}
		case "enum_body_declarations":
			collectFields(member, src, fields)
		case "enum_constant":
			name := member.ChildByFieldName("name")
			fields[name.Content(src)] = ir.Binding{
				Name: name.Content(src),
				Kind: ir.BindingField,
				Decl: int(name.StartByte()),
			}
		}
	}
}

func span(n *sitter.Node) ir.Span {
	return ir.Span{
		Start:     int(n.StartByte()),
		End:       int(n.EndByte()),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}
}
