package ir

import "testing"

// tree builds:
//
//	{ a; if (c) { b; } else d; while (e) { f; } }
func tree() (*Stmt, map[string]*Stmt) {
	s := map[string]*Stmt{}
	leaf := func(name string) *Stmt {
		st := &Stmt{Kind: KindSimple, Text: name}
		s[name] = st
		return st
	}
	then := &Stmt{Kind: KindBlock, Stmts: []*Stmt{leaf("b")}}
	s["if"] = &Stmt{Kind: KindIf, Text: "if", Then: then, Else: leaf("d")}
	s["while"] = &Stmt{Kind: KindWhile, Text: "while", Body: &Stmt{Kind: KindBlock, Stmts: []*Stmt{leaf("f")}}}
	root := &Stmt{Kind: KindBlock, Stmts: []*Stmt{leaf("a"), s["if"], s["while"]}}
	SetParents(root)
	return root, s
}

func TestWalk(t *testing.T) {
	root, _ := tree()

	var got []string
	Walk(root, func(s *Stmt) bool {
		if s.Kind != KindBlock {
			got = append(got, s.Text)
		}
		return s.Kind != KindWhile
	})
	want := []string{"a", "if", "b", "d", "while"}
	if len(got) != len(want) {
		t.Fatalf("Walk() visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk() visited %v, want %v", got, want)
			break
		}
	}
}

func TestEnclosingStatement(t *testing.T) {
	_, s := tree()

	tests := []struct {
		stmt  string
		want  *Stmt
		depth int
	}{
		{"a", nil, 1},
		{"b", s["if"], 3},
		{"d", s["if"], 2},
		{"f", s["while"], 3},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			if got := s[tt.stmt].EnclosingStatement(); got != tt.want {
				t.Errorf("EnclosingStatement() = %v, want %v", got, tt.want)
			}
			if got := s[tt.stmt].Depth(); got != tt.depth {
				t.Errorf("Depth() = %d, want %d", got, tt.depth)
			}
		})
	}
}

func TestStmtKinds(t *testing.T) {
	if !(&Stmt{Kind: KindForEach}).IsLoop() || (&Stmt{Kind: KindIf}).IsLoop() {
		t.Error("IsLoop() misclassifies")
	}
	if !(&Stmt{Kind: KindCatch}).IsCompound() || (&Stmt{Kind: KindReturn}).IsCompound() {
		t.Error("IsCompound() misclassifies")
	}

	sw := &Stmt{Kind: KindSwitch, Cases: []*Case{
		{Body: []*Stmt{{Text: "x"}, {Text: "y"}}},
		{Default: true, Body: []*Stmt{{Text: "z"}}},
	}}
	if got := len(sw.Children()); got != 3 {
		t.Errorf("switch Children() = %d statements, want 3", got)
	}
}

func TestMethod(t *testing.T) {
	root, _ := tree()
	recv := Binding{Name: "t", Kind: BindingReceiver}
	m := &Method{
		Source:   []byte("int x = 1;"),
		Receiver: &recv,
		Params:   []Binding{{Name: "p", Kind: BindingParam}},
		Locals:   []Binding{{Name: "x", Kind: BindingLocal, Decl: 4}},
		Body:     root,
	}

	decls := m.Declarations()
	if len(decls) != 3 || decls[0].Name != "t" || decls[2].Name != "x" {
		t.Errorf("Declarations() = %+v", decls)
	}
	if got := m.StatementCount(); got != 6 {
		t.Errorf("StatementCount() = %d, want 6", got)
	}
	if got := m.Text(Span{Start: 4, End: 5}); got != "x" {
		t.Errorf("Text() = %q, want x", got)
	}
	if got := m.Text(Span{Start: 4, End: 50}); got != "" {
		t.Errorf("Text() out of range = %q, want empty", got)
	}
	if !(Span{Start: 0, End: 10}).Contains(Span{Start: 2, End: 10}) {
		t.Error("Contains() rejects a nested span")
	}
	if (Binding{Name: "x", Kind: BindingLocal}).IsField() {
		t.Error("local reported as a field")
	}
}
