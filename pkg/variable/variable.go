// Package variable models the abstract variables tracked by the dependence
// analysis: plain variables (locals, parameters, fields accessed without a
// local base) and composite variables (a field reached through a local
// reference).
package variable

import "github.com/l3aro/go-partial-extract/pkg/ir"

// Variable is either a plain variable (Field empty) or a composite variable
// (Base reached through Field). It is comparable, so equality and map keys
// are structural.
type Variable struct {
	Base    ir.BindingKey
	Name    string // Name of the base binding
	Field   string // Dotted field path; empty for plain variables
	IsField bool   // The base binding is itself a field
}

// Plain returns the plain variable for b.
func Plain(b ir.Binding) Variable {
	return Variable{Base: b.Key(), Name: b.Name, IsField: b.IsField()}
}

// Composite returns the variable for field reached through base.
func Composite(base ir.Binding, field string) Variable {
	v := Plain(base)
	v.Field = field
	return v
}

// FromAccess converts a resolved access into a variable.
func FromAccess(a ir.Access) Variable {
	if a.Field == "" {
		return Plain(a.Binding)
	}
	return Composite(a.Binding, a.Field)
}

// IsComposite reports whether v is a field reached through a reference.
func (v Variable) IsComposite() bool {
	return v.Field != ""
}

// IsFieldAccess reports whether v denotes object state rather than a local
// value: a field of the enclosing type or any composite variable.
func (v Variable) IsFieldAccess() bool {
	return v.IsField || v.IsComposite()
}

// Initial returns the base reference of a composite variable, or v itself.
func (v Variable) Initial() Variable {
	v.Field = ""
	return v
}

// Origin returns the declaration v is rooted at.
func (v Variable) Origin() ir.BindingKey {
	return v.Base
}

// Covers reports whether a definition of v overwrites w: v is w, or v is
// the plain base of composite w.
func (v Variable) Covers(w Variable) bool {
	if v == w {
		return true
	}
	return !v.IsComposite() && w.IsComposite() && w.Base == v.Base
}

func (v Variable) String() string {
	if v.Field == "" {
		return v.Name
	}
	return v.Name + "." + v.Field
}

// MarshalText renders v by name so dependence dumps stay readable.
func (v Variable) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
