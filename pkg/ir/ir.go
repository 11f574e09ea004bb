// Package ir defines the language-neutral statement tree consumed by the
// analysis packages. Front ends produce an ir.Method with every variable
// reference already resolved to a Binding.
package ir

// Language identifies the front end a method was produced by.
type Language string

const (
	LanguageJava Language = "java" // Parsed with the tree-sitter Java grammar
	LanguageGo   Language = "go"   // Parsed with go/parser and go/types
)

// Span is a half-open byte range into the method's source file.
type Span struct {
	Start     int `json:"start" msgpack:"start"`           // First byte offset
	End       int `json:"end" msgpack:"end"`               // One past the last byte offset
	StartLine int `json:"start_line" msgpack:"start_line"` // 1-based line of Start
	EndLine   int `json:"end_line" msgpack:"end_line"`     // 1-based line of End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// BindingKind classifies what a binding was declared as.
type BindingKind string

const (
	BindingLocal    BindingKind = "local"    // Local variable, loop variable or catch parameter
	BindingParam    BindingKind = "param"    // Method parameter
	BindingField    BindingKind = "field"    // Field of the enclosing type
	BindingReceiver BindingKind = "receiver" // Go method receiver
)

// BindingKey is the comparable identity of a binding. The declaration offset
// tells apart shadowed declarations sharing a name.
type BindingKey struct {
	Name string
	Kind BindingKind
	Decl int
}

// Binding is one resolved declaration.
type Binding struct {
	Name string      `json:"name"`
	Kind BindingKind `json:"kind"`
	Type string      `json:"type,omitempty"`
	Decl int         `json:"decl"` // Byte offset of the declaring identifier
}

// Key returns the structural identity of b.
func (b Binding) Key() BindingKey {
	return BindingKey{Name: b.Name, Kind: b.Kind, Decl: b.Decl}
}

// IsField reports whether b names a field of the enclosing type.
func (b Binding) IsField() bool {
	return b.Kind == BindingField
}

// Access is one read or write of a variable inside a statement. Field is the
// dotted field path for accesses through a local reference ("f" for x.f,
// "f.g" for x.f.g) and empty for plain accesses.
type Access struct {
	Binding Binding `json:"binding"`
	Field   string  `json:"field,omitempty"`
	Weak    bool    `json:"weak,omitempty"` // Element store: generates a definition without killing others
}

// Method is the analysis unit: one method or function body with its
// declarations.
type Method struct {
	Name       string    `json:"name"`
	Language   Language  `json:"language"`
	Path       string    `json:"path,omitempty"`
	Source     []byte    `json:"-"`
	Span       Span      `json:"span"`
	Receiver   *Binding  `json:"receiver,omitempty"`
	Params     []Binding `json:"params"`
	Locals     []Binding `json:"locals"` // In declaration order
	Fields     []Binding `json:"fields"` // Fields of the enclosing type referenced by the body
	ReturnType string    `json:"return_type,omitempty"`
	Body       *Stmt     `json:"-"`
}

// Declarations returns the receiver, parameters and locals in declaration
// order.
func (m *Method) Declarations() []Binding {
	out := make([]Binding, 0, len(m.Params)+len(m.Locals)+1)
	if m.Receiver != nil {
		out = append(out, *m.Receiver)
	}
	out = append(out, m.Params...)
	out = append(out, m.Locals...)
	return out
}

// Text returns the source text covered by span.
func (m *Method) Text(span Span) string {
	if span.Start < 0 || span.End > len(m.Source) || span.Start > span.End {
		return ""
	}
	return string(m.Source[span.Start:span.End])
}

// StatementCount returns the number of non-block statements in the body.
func (m *Method) StatementCount() int {
	n := 0
	Walk(m.Body, func(s *Stmt) bool {
		if s.Kind != KindBlock {
			n++
		}
		return true
	})
	return n
}
