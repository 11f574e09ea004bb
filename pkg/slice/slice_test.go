package slice

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/frontend/java"
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/pdg"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

const guardedSource = `class A {
    int m(int a) {
        int x = a;
        if (x < 0) {
            throw new IllegalArgumentException("negative");
        }
        x = x * 2;
        return x;
    }
}
`

const objectStateSource = `class A {
    void m(Point p, int a) {
        int d = a;
        p.y = 7;
        d += p.length();
        System.out.println(d);
    }
}
`

// build slices the statements from the one starting with from to the one
// ending with to on the variable called name.
func build(t *testing.T, src, name, from, to string) *Slice {
	t.Helper()

	m, err := java.ParseMethod([]byte(src), "m")
	require.NoError(t, err)
	g, err := cfg.Build(m)
	require.NoError(t, err)
	p := pdg.Build(g)

	first := strings.Index(src, from)
	last := strings.Index(src, to) + len(to)
	require.True(t, first >= 0 && last > first, "bad range %q..%q", from, to)

	for _, v := range p.Declarations() {
		if v.Name == name {
			return Build(pdg.Restrict(p, first, last), v)
		}
	}
	t.Fatalf("variable %s not declared", name)
	return nil
}

func lines(stmts []*ir.Stmt) []int {
	out := make([]int, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.Span.StartLine)
	}
	return out
}

func TestBuildKeepsGuardedThrow(t *testing.T) {
	s := build(t, guardedSource, "x", "int x = a;", "x = x * 2;")
	// entry 0, int x 1, if 2, throw 3, x = x * 2 4, return 5

	assert.Equal(t, []int{1, 4}, s.Criteria)
	assert.Equal(t, []int{1, 2, 3, 4}, s.Nodes.Sorted())
	assert.Equal(t, []int{0, 5}, s.Remaining.Sorted())

	// The guard stays behind for the return, so the throw must stay too.
	assert.True(t, s.Indispensable.Has(2))
	assert.True(t, s.Indispensable.Has(3))
	assert.Equal(t, []int{4}, s.Removable.Sorted())
	assert.Equal(t, []int{1, 2, 3}, s.Duplicated().Sorted())

	require.Equal(t, 1, s.PassedParameters.Len())
	assert.Equal(t, "a", s.PassedParameters.Slice()[0].Name)
	assert.True(t, s.Valid())
}

func TestBuildPartitionsSlice(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		variable string
		from, to string
	}{
		{"guarded throw", guardedSource, "x", "int x = a;", "x = x * 2;"},
		{"object state", objectStateSource, "d", "int d = a;", "d += p.length();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := build(t, tt.src, tt.variable, tt.from, tt.to)

			union := make(pdg.NodeSet)
			union.AddAll(s.Removable)
			union.AddAll(s.Duplicated())
			assert.Equal(t, s.Nodes.Sorted(), union.Sorted())

			for id := range s.Removable {
				assert.False(t, s.Duplicated().Has(id), "node %d both removable and duplicated", id)
				assert.False(t, s.Remaining.Has(id))
			}
			for id := range s.Nodes {
				assert.True(t, s.Selection.Contains(id), "node %d outside the selection", id)
			}
		})
	}
}

func TestBuildAddsObjectState(t *testing.T) {
	s := build(t, objectStateSource, "d", "int d = a;", "d += p.length();")
	// entry 0, int d 1, p.y = 7 2, d += p.length() 3, println 4

	assert.Equal(t, []int{1, 3}, s.Criteria)
	assert.Equal(t, []int{1, 2, 3}, s.Nodes.Sorted())

	a := NewASTSlice(s)
	var texts []string
	for _, st := range a.Statements {
		texts = append(texts, st.Text)
	}
	want := []string{"int d = a;", "p.y = 7;", "d += p.length();"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("Statements mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutAssignment(t *testing.T) {
	s := build(t, guardedSource, "a", "int x = a;", "x = x * 2;")

	assert.Empty(t, s.Criteria)
	assert.Empty(t, s.Nodes)
	assert.Empty(t, s.Removable)
	assert.False(t, s.Valid())
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "single statement",
			body: "int x = a;\n        System.out.println(x);",
			want: false,
		},
		{
			name: "declaration plus one assignment",
			body: "int x = a;\n        x = 2;",
			want: false,
		},
		{
			name: "two assignments after a bare declaration",
			body: "int x;\n        x = a;\n        x += 1;",
			want: true,
		},
		{
			name: "three statements",
			body: "int x = a;\n        x = x * 2;\n        x -= 1;",
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "class A {\n    void m(int a) {\n        " + tt.body + "\n    }\n}\n"
			m, err := java.ParseMethod([]byte(src), "m")
			require.NoError(t, err)
			g, err := cfg.Build(m)
			require.NoError(t, err)
			p := pdg.Build(g)

			var x variable.Variable
			for _, v := range p.Declarations() {
				if v.Name == "x" {
					x = v
				}
			}
			body := m.Body.Span
			s := Build(pdg.Restrict(p, body.Start, body.End), x)
			assert.Equal(t, tt.want, s.Valid())
		})
	}
}

func TestNewASTSlice(t *testing.T) {
	s := build(t, guardedSource, "x", "int x = a;", "x = x * 2;")
	a := NewASTSlice(s)

	assert.Equal(t, "x", a.Name)
	assert.Equal(t, "x", a.VariableName)
	assert.Equal(t, "int", a.VariableType)
	assert.False(t, a.ReturnsField)
	assert.Equal(t, 5, a.MethodSize)

	for _, c := range []struct {
		name string
		want []int
		got  []*ir.Stmt
	}{
		{"Statements", []int{3, 4, 5, 7}, a.Statements},
		{"Removable", []int{7}, a.Removable},
		{"Duplicated", []int{3, 4, 5}, a.Duplicated},
	} {
		if diff := cmp.Diff(c.want, lines(c.got)); diff != "" {
			t.Errorf("%s lines mismatch (-want +got):\n%s", c.name, diff)
		}
	}

	require.Len(t, a.PassedParameters, 1)
	assert.Equal(t, "a", a.PassedParameters[0].Name)
	assert.Equal(t, ir.BindingParam, a.PassedParameters[0].Kind)

	require.NotNil(t, a.Declaration)
	assert.Equal(t, "int x = a;", a.Declaration.Text)
	assert.Same(t, a.Statements[0], a.Insertion)
	assert.True(t, a.DeclarationInSlice)
	assert.False(t, a.DeclarationRemovable)
	assert.False(t, a.DeclarationNestedDeeperThanInsertion())

	start, end := a.Lines()
	assert.Equal(t, 3, start)
	assert.Equal(t, 7, end)
}

func TestDeclarationNestedDeeperThanInsertion(t *testing.T) {
	inner := &ir.Stmt{Kind: ir.KindDecl, Text: "int r = open();"}
	try := &ir.Stmt{Kind: ir.KindTry, Body: &ir.Stmt{Kind: ir.KindBlock, Stmts: []*ir.Stmt{inner}}}
	use := &ir.Stmt{Kind: ir.KindSimple, Text: "r++;"}
	decl := &ir.Stmt{Kind: ir.KindDecl, Text: "int r = 0;"}
	ir.SetParents(&ir.Stmt{Kind: ir.KindBlock, Stmts: []*ir.Stmt{decl, try, use}})

	tests := []struct {
		name        string
		declaration *ir.Stmt
		insertion   *ir.Stmt
		want        bool
	}{
		{"same depth", decl, use, false},
		{"nested deeper", inner, use, true},
		{"try resource at same depth", try, use, true},
		{"insertion deeper", decl, inner, false},
		{"no declaration", nil, use, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ASTSlice{Declaration: tt.declaration, Insertion: tt.insertion}
			assert.Equal(t, tt.want, a.DeclarationNestedDeeperThanInsertion())
		})
	}
}
