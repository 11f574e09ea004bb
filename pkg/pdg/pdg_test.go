package pdg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/frontend/java"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

const branchesSource = `class A {
    void m(int a) {
        int x = a;
        if (x > 0) {
            x = 1;
        } else {
            x = 2;
        }
        while (x < 10) {
            x++;
        }
        return;
    }
}
`

const sumSource = `class A {
    int sum(int n) {
        int s = 0;
        for (int i = 0; i < n; i++) {
            s = s + i;
        }
        return s;
    }
}
`

func buildJava(t *testing.T, src, name string) *PDG {
	t.Helper()
	m, err := java.ParseMethod([]byte(src), name)
	require.NoError(t, err)
	g, err := cfg.Build(m)
	require.NoError(t, err)
	return Build(g)
}

func lookup(t *testing.T, p *PDG, name string) variable.Variable {
	t.Helper()
	for _, v := range p.Declarations() {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("variable %s not declared", name)
	return variable.Variable{}
}

func edgesOf(p *PDG, typ DepType) [][2]int {
	var out [][2]int
	for _, e := range p.Edges {
		if e.Type == typ {
			out = append(out, [2]int{e.Src, e.Dst})
		}
	}
	return out
}

func findEdge(p *PDG, typ DepType, src, dst int, name string) (int, bool) {
	for i, e := range p.Edges {
		if e.Type == typ && e.Src == src && e.Dst == dst && (name == "" || e.Var.Name == name) {
			return i, true
		}
	}
	return -1, false
}

func TestBuildNodes(t *testing.T) {
	p := buildJava(t, branchesSource, "m")

	// Exit is dropped; IDs match the CFG.
	require.Len(t, p.Nodes, 8)
	assert.True(t, p.Entry().IsEntry())
	assert.Equal(t, 7, p.StatementCount())
	assert.True(t, p.Node(2).IsPredicate())
	assert.True(t, p.Node(5).IsPredicate())
	assert.False(t, p.Node(3).IsPredicate())

	x := lookup(t, p, "x")
	a := lookup(t, p, "a")
	assert.True(t, p.Node(1).Declares(x))
	assert.True(t, p.Node(1).Defines(x))
	assert.True(t, p.Node(1).Uses(a))
	assert.True(t, p.Node(6).Uses(x))
	assert.True(t, p.Node(6).Defines(x))
	assert.True(t, p.Entry().Defines(a))
}

func TestControlDependences(t *testing.T) {
	p := buildJava(t, branchesSource, "m")

	want := [][2]int{{0, 1}, {0, 2}, {0, 5}, {0, 7}, {2, 3}, {2, 4}, {5, 6}}
	assert.ElementsMatch(t, want, edgesOf(p, DepTypeControl))
}

func TestDataDependences(t *testing.T) {
	p := buildJava(t, branchesSource, "m")

	tests := []struct {
		name        string
		typ         DepType
		src, dst    int
		varName     string
		loopCarried bool
		loop        int
	}{
		{"parameter into declaration", DepTypeData, 0, 1, "a", false, NoLoop},
		{"declaration into condition", DepTypeData, 1, 2, "x", false, NoLoop},
		{"then branch into loop", DepTypeData, 3, 5, "x", false, NoLoop},
		{"else branch into loop", DepTypeData, 4, 5, "x", false, NoLoop},
		{"body into header", DepTypeData, 6, 5, "x", true, 5},
		{"body into itself", DepTypeData, 6, 6, "x", true, 5},
		{"then branch into body", DepTypeData, 3, 6, "x", false, NoLoop},
		{"declaration overwritten", DepTypeOutput, 1, 3, "x", false, NoLoop},
		{"increment overwritten by itself", DepTypeOutput, 6, 6, "x", true, 5},
		{"condition read before overwrite", DepTypeAnti, 2, 3, "x", false, NoLoop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, ok := findEdge(p, tt.typ, tt.src, tt.dst, tt.varName)
			require.True(t, ok, "missing %s dependence %d -> %d on %s", tt.typ, tt.src, tt.dst, tt.varName)
			e := p.Edges[i]
			assert.Equal(t, tt.loopCarried, e.LoopCarried)
			assert.Equal(t, tt.loop, e.Loop)
		})
	}

	_, ok := findEdge(p, DepTypeData, 1, 5, "x")
	assert.False(t, ok, "killed definition reaches the loop")
}

func TestIncomingOutgoing(t *testing.T) {
	p := buildJava(t, branchesSource, "m")

	for _, i := range p.Incoming(5) {
		assert.Equal(t, 5, p.Edges[i].Dst)
	}
	for _, i := range p.Outgoing(2) {
		assert.Equal(t, 2, p.Edges[i].Src)
	}
	assert.NotEmpty(t, p.Outgoing(2))
}

func TestRestrictDropsLoopCarriedEdges(t *testing.T) {
	p := buildJava(t, sumSource, "sum")
	// entry 0, int s 1, for 2, s = s + i 3, return 4

	self, ok := findEdge(p, DepTypeData, 3, 3, "s")
	require.True(t, ok)
	require.True(t, p.Edges[self].LoopCarried)
	require.Equal(t, 2, p.Edges[self].Loop)

	body := p.Method.Body.Span
	whole := Restrict(p, body.Start, body.End)
	assert.Equal(t, []int{1, 2, 3, 4}, whole.Nodes())
	assert.True(t, whole.HasEdge(self))

	stmt := "s = s + i;"
	first := strings.Index(sumSource, stmt)
	inner := Restrict(p, first, first+len(stmt))
	assert.Equal(t, []int{3}, inner.Nodes())
	assert.Equal(t, 1, inner.Len())
	assert.False(t, inner.HasEdge(self), "loop-carried edge kept without its loop")
	assert.False(t, inner.Contains(0))
}

func TestComputeSlice(t *testing.T) {
	p := buildJava(t, sumSource, "sum")
	body := p.Method.Body.Span
	sel := Restrict(p, body.Start, body.End)

	s := lookup(t, p, "s")
	i := lookup(t, p, "i")

	assert.Equal(t, []int{1}, sel.ComputeSlice(1).Sorted())
	assert.Equal(t, []int{1, 2, 3, 4}, sel.ComputeSliceFor(4, s).Sorted())
	assert.Empty(t, sel.ComputeSliceFor(4, i))
	// Slicing on a use starts from its definitions and from the node itself.
	assert.Equal(t, []int{1, 2, 3}, sel.ComputeSliceFor(3, i).Sorted())

	assert.True(t, sel.IsAssigned(s))
	assert.Equal(t, []int{1, 3}, sel.AssignmentNodesOf(s))
	assert.Equal(t, []int{2}, sel.AssignmentNodesOf(i))
	assert.False(t, sel.IsAssigned(lookup(t, p, "n")))
}

func TestDefinedAttributesOf(t *testing.T) {
	src := `class A {
    void m(Point p) {
        p.x = 1;
        p.y = 2;
        p.x = 3;
    }
}
`
	p := buildJava(t, src, "m")
	attrs := p.DefinedAttributesOf(lookup(t, p, "p"))
	require.Len(t, attrs, 2)
	assert.Equal(t, "p.x", attrs[0].Var.String())
	assert.Equal(t, []int{1, 3}, attrs[0].Nodes)
	assert.Equal(t, "p.y", attrs[1].Var.String())
	assert.Equal(t, []int{2}, attrs[1].Nodes)
}

func TestNodeSet(t *testing.T) {
	s := NewNodeSet(4, 1, 3)
	s.Add(2)
	s.AddAll(NewNodeSet(1, 7))

	assert.Equal(t, []int{1, 2, 3, 4, 7}, s.Sorted())
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	first, ok := s.First()
	assert.True(t, ok)
	assert.Equal(t, 1, first)

	_, ok = NewNodeSet().First()
	assert.False(t, ok)
}
