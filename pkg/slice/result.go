package slice

import (
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/pdg"
)

// ASTSlice is a slice mapped back to the statements of the method, ready to
// be rendered as an extract-method refactoring.
type ASTSlice struct {
	Method       *ir.Method `json:"-" msgpack:"-"`
	Name         string     `json:"name" msgpack:"name"`                     // Name of the extracted method
	VariableName string     `json:"variable" msgpack:"variable"`             // Variable the slice computes
	VariableType string     `json:"variable_type" msgpack:"variable_type"`   // Declared type of the variable, if known
	ReturnsField bool       `json:"returns_field,omitempty" msgpack:"field"` // Variable is a field of the enclosing type
	MethodSize   int        `json:"method_size" msgpack:"method_size"`       // Statements in the original method

	Statements           []*ir.Stmt   `json:"-" msgpack:"-"` // Slice statements in source order
	Removable            []*ir.Stmt   `json:"-" msgpack:"-"`
	Duplicated           []*ir.Stmt   `json:"-" msgpack:"-"`
	PassedParameters     []ir.Binding `json:"passed_parameters" msgpack:"params"`
	Declaration          *ir.Stmt     `json:"-" msgpack:"-"` // Declaration of the variable, if any
	Insertion            *ir.Stmt     `json:"-" msgpack:"-"` // First slice statement; the call goes here
	DeclarationInSlice   bool         `json:"declaration_in_slice" msgpack:"decl_in_slice"`
	DeclarationRemovable bool         `json:"declaration_removable" msgpack:"decl_removable"`
}

// NewASTSlice maps s onto the statements of its method.
func NewASTSlice(s *Slice) *ASTSlice {
	p := s.Selection.PDG
	m := p.Method
	a := &ASTSlice{
		Method:       m,
		Name:         s.Variable.Name,
		VariableName: s.Variable.String(),
		ReturnsField: s.Variable.IsField,
		MethodSize:   p.StatementCount(),
	}

	stmts := func(set pdg.NodeSet) []*ir.Stmt {
		out := make([]*ir.Stmt, 0, len(set))
		for _, id := range set.Sorted() {
			if st := p.Node(id).Stmt(); st != nil {
				out = append(out, st)
			}
		}
		return out
	}
	a.Statements = stmts(s.Nodes)
	a.Removable = stmts(s.Removable)
	a.Duplicated = stmts(s.Duplicated())
	if len(a.Statements) > 0 {
		a.Insertion = a.Statements[0]
	}

	for _, b := range m.Declarations() {
		if b.Key() == s.Variable.Origin() && b.Type != "" {
			a.VariableType = b.Type
		}
		if b.IsField() {
			continue
		}
		for _, v := range s.PassedParameters.Slice() {
			if v.Origin() == b.Key() {
				a.PassedParameters = append(a.PassedParameters, b)
				break
			}
		}
	}
	if a.VariableType == "" {
		for _, f := range m.Fields {
			if f.Key() == s.Variable.Origin() {
				a.VariableType = f.Type
			}
		}
	}

	for _, n := range p.Nodes {
		if !n.Declares(s.Variable) {
			continue
		}
		a.Declaration = n.Stmt()
		a.DeclarationInSlice = s.Nodes.Has(n.ID)
		a.DeclarationRemovable = s.Removable.Has(n.ID)
		break
	}
	return a
}

// DeclarationNestedDeeperThanInsertion reports whether the declaration of
// the variable is out of scope at the insertion statement: it is nested
// deeper, or it is a try declaring resources at the same depth. The call
// replacing the slice then has to declare the variable itself.
func (a *ASTSlice) DeclarationNestedDeeperThanInsertion() bool {
	if a.Declaration == nil || a.Insertion == nil {
		return false
	}
	decl, at := a.Declaration.Depth(), a.Insertion.Depth()
	if decl > at {
		return true
	}
	return decl == at && a.Declaration.Kind == ir.KindTry
}

// Lines returns the 1-based line span covered by the slice statements.
func (a *ASTSlice) Lines() (start, end int) {
	for i, st := range a.Statements {
		if i == 0 || st.Span.StartLine < start {
			start = st.Span.StartLine
		}
		if st.Span.EndLine > end {
			end = st.Span.EndLine
		}
	}
	return start, end
}
