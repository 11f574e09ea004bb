package golang

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

const demoSource = `package demo

var counter int

type T struct{ n int }

func (t *T) Add(d int) (sum int) {
	x := d * 2
	t.n += x
	counter++
	for i := 0; i < d; i++ {
		sum += i
	}
	switch x {
	case 1:
		sum = 1
		fallthrough
	case 2:
		sum = 2
	}
	if d < 0 {
		panic("negative")
	}
	go func() {
		counter = x
	}()
	return
}

func helper(v []int) {
	v[0] = 1
}
`

func parseDemo(t *testing.T) *File {
	t.Helper()
	f, err := ParseFile("demo.go", []byte(demoSource))
	require.NoError(t, err)
	return f
}

func names(bs []ir.Binding) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name)
	}
	return out
}

func hasAccess(as []ir.Access, name, field string) bool {
	for _, a := range as {
		if a.Binding.Name == name && a.Field == field {
			return true
		}
	}
	return false
}

func TestParseMethodBindings(t *testing.T) {
	m, err := ParseMethod(parseDemo(t), "T.Add")
	require.NoError(t, err)

	assert.Equal(t, "Add", m.Name)
	assert.Equal(t, ir.LanguageGo, m.Language)
	assert.Equal(t, "int", m.ReturnType)

	require.NotNil(t, m.Receiver)
	assert.Equal(t, "t", m.Receiver.Name)
	assert.Equal(t, ir.BindingReceiver, m.Receiver.Kind)
	assert.Equal(t, "*T", m.Receiver.Type)

	assert.Equal(t, []string{"d", "sum"}, names(m.Params))
	assert.Equal(t, []string{"x", "i"}, names(m.Locals))
	assert.Equal(t, []string{"counter"}, names(m.Fields))
	assert.True(t, m.Fields[0].IsField())
	assert.Equal(t, []string{"t", "d", "sum", "x", "i"}, names(m.Declarations()))
}

func TestParseMethodStatements(t *testing.T) {
	m, err := ParseMethod(parseDemo(t), "T.Add")
	require.NoError(t, err)

	var kinds []ir.StmtKind
	for _, s := range m.Body.Stmts {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []ir.StmtKind{
		ir.KindDecl, ir.KindSimple, ir.KindSimple, ir.KindFor,
		ir.KindSwitch, ir.KindIf, ir.KindSimple, ir.KindReturn,
	}, kinds)

	decl := m.Body.Stmts[0]
	assert.Equal(t, "x := d * 2", decl.Text)
	assert.Equal(t, []string{"x"}, names(decl.Declares))
	assert.True(t, hasAccess(decl.Uses, "d", ""))
	assert.True(t, hasAccess(decl.Defs, "x", ""))

	store := m.Body.Stmts[1]
	assert.True(t, hasAccess(store.Defs, "t", "n"))
	assert.True(t, hasAccess(store.Uses, "t", "n"))
	assert.True(t, hasAccess(store.Uses, "x", ""))

	loop := m.Body.Stmts[3]
	assert.True(t, hasAccess(loop.Defs, "i", ""), "init and post fold into the header")
	assert.Equal(t, []string{"i"}, names(loop.Declares))

	sw := m.Body.Stmts[4]
	require.Len(t, sw.Cases, 2)
	assert.True(t, sw.Cases[0].FallsThrough)
	assert.False(t, sw.Cases[1].FallsThrough)
	assert.Len(t, sw.Cases[0].Body, 1, "fallthrough is not a statement")

	guard := m.Body.Stmts[5]
	require.NotNil(t, guard.Then)
	require.Len(t, guard.Then.Stmts, 1)
	assert.Equal(t, ir.KindThrow, guard.Then.Stmts[0].Kind)

	closure := m.Body.Stmts[6]
	assert.True(t, hasAccess(closure.Uses, "x", ""))
	for _, d := range closure.Defs {
		assert.True(t, d.Weak, "closure assignments are weak")
	}

	ret := m.Body.Stmts[7]
	assert.True(t, hasAccess(ret.Uses, "sum", ""), "bare return reads named results")

	for _, s := range m.Body.Stmts {
		assert.Same(t, m.Body, s.Parent)
	}
}

func TestParseMethodIndexStore(t *testing.T) {
	m, err := ParseMethod(parseDemo(t), "helper")
	require.NoError(t, err)

	store := m.Body.Stmts[0]
	require.Len(t, store.Defs, 1)
	assert.Equal(t, "v", store.Defs[0].Binding.Name)
	assert.True(t, store.Defs[0].Weak)
}

func TestParseMethodNotFound(t *testing.T) {
	f := parseDemo(t)

	for _, name := range []string{"Missing", "U.Add"} {
		_, err := ParseMethod(f, name)
		assert.True(t, errors.Is(err, ir.ErrMethodNotFound), "ParseMethod(%q) error = %v", name, err)
	}

	m, err := ParseMethod(f, "Add")
	require.NoError(t, err)
	assert.Equal(t, "Add", m.Name)
}

func TestMethodsAndMethodAt(t *testing.T) {
	f := parseDemo(t)
	assert.Equal(t, []string{"T.Add", "helper"}, Methods(f))

	m, err := MethodAt(f, strings.Index(demoSource, "counter++"))
	require.NoError(t, err)
	assert.Equal(t, "Add", m.Name)

	m, err = MethodAt(f, strings.Index(demoSource, "v[0]"))
	require.NoError(t, err)
	assert.Equal(t, "helper", m.Name)

	_, err = MethodAt(f, strings.Index(demoSource, "type T"))
	assert.ErrorIs(t, err, ir.ErrMethodNotFound)
}

func TestParseFileSyntaxError(t *testing.T) {
	_, err := ParseFile("bad.go", []byte("package x\nfunc {"))
	assert.Error(t, err)
}
