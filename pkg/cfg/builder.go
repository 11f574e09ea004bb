package cfg

import (
	"strings"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// jumpTarget is an entry of the break/continue resolution stack.
type jumpTarget struct {
	label     string
	breakable bool // Unlabeled break may target it (loops and switches)
	brk       int
	cont      int // -1 unless the target is a loop
}

type builder struct {
	g        *Graph
	targets  []jumpTarget
	handlers [][]int // Catch node IDs of the enclosing try statements
	label    string  // Label waiting to be claimed by the next loop or switch
	seen     map[[2]int]bool
}

// Build constructs the CFG of m. Statements are linked backwards: linking a
// statement takes the ID of its successor and returns the ID of the first
// node executed for it.
func Build(m *ir.Method) (*Graph, error) {
	if m == nil || m.Body == nil {
		return nil, &StructuralError{Reason: "missing method body"}
	}

	b := &builder{
		g: &Graph{
			Method: m,
			byStmt: make(map[*ir.Stmt]*Node),
		},
		seen: make(map[[2]int]bool),
	}

	// Step 1: Create nodes in source order
	if err := b.createNodes(m); err != nil {
		return nil, err
	}

	// Step 2: Link statements from the exit backwards
	first, err := b.link(m.Body, b.g.Exit().ID)
	if err != nil {
		return nil, err
	}
	b.addEdge(b.g.Entry().ID, first, EdgeTypeUnconditional)

	// Step 3: Index adjacency and execution order
	b.g.index()
	return b.g, nil
}

func (b *builder) createNodes(m *ir.Method) error {
	b.g.Nodes = append(b.g.Nodes, &Node{
		ID:        0,
		Type:      NodeTypeEntry,
		StartLine: m.Span.StartLine,
		EndLine:   m.Span.StartLine,
		Text:      "entry",
	})

	var err error
	ir.Walk(m.Body, func(s *ir.Stmt) bool {
		if err != nil {
			return false
		}
		if s.Kind == ir.KindBlock || s.Kind == ir.KindLabeled {
			return true
		}
		typ, ok := nodeTypeOf(s)
		if !ok {
			err = &StructuralError{Stmt: s, Reason: "unknown statement kind"}
			return false
		}
		n := &Node{
			ID:        len(b.g.Nodes),
			Type:      typ,
			StartLine: s.Span.StartLine,
			EndLine:   s.Span.EndLine,
			Text:      headerText(s),
			Stmt:      s,
		}
		b.g.Nodes = append(b.g.Nodes, n)
		b.g.byStmt[s] = n
		return true
	})
	if err != nil {
		return err
	}

	b.g.Nodes = append(b.g.Nodes, &Node{
		ID:        len(b.g.Nodes),
		Type:      NodeTypeExit,
		StartLine: m.Span.EndLine,
		EndLine:   m.Span.EndLine,
		Text:      "exit",
	})
	return nil
}

func nodeTypeOf(s *ir.Stmt) (NodeType, bool) {
	switch s.Kind {
	case ir.KindSimple, ir.KindDecl, ir.KindReturn, ir.KindBreak, ir.KindContinue, ir.KindEmpty, ir.KindGoto:
		return NodeTypeStatement, true
	case ir.KindIf, ir.KindSwitch, ir.KindTry, ir.KindSynchronized:
		return NodeTypeBranch, true
	case ir.KindWhile, ir.KindDoWhile, ir.KindFor, ir.KindForEach:
		return NodeTypeLoop, true
	case ir.KindThrow:
		return NodeTypeThrow, true
	case ir.KindCatch:
		return NodeTypeCatch, true
	}
	return "", false
}

// headerText shortens compound statements to their header line.
func headerText(s *ir.Stmt) string {
	text := strings.TrimSpace(s.Text)
	if !s.IsCompound() {
		return text
	}
	if s.Kind == ir.KindDoWhile {
		if i := strings.LastIndex(text, "while"); i >= 0 {
			return "do ... " + strings.TrimSpace(text[i:])
		}
	}
	if i := strings.IndexAny(text, "{\n"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func (b *builder) id(s *ir.Stmt) int {
	return b.g.byStmt[s].ID
}

func (b *builder) addEdge(from, to int, typ EdgeType) {
	key := [2]int{from, to}
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Type: typ})
}

func (b *builder) takeLabel() string {
	l := b.label
	b.label = ""
	return l
}

func (b *builder) push(t jumpTarget) {
	b.targets = append(b.targets, t)
}

func (b *builder) pop() {
	b.targets = b.targets[:len(b.targets)-1]
}

func (b *builder) linkList(stmts []*ir.Stmt, next int) (int, error) {
	for i := len(stmts) - 1; i >= 0; i-- {
		first, err := b.link(stmts[i], next)
		if err != nil {
			return 0, err
		}
		next = first
	}
	return next, nil
}

func (b *builder) link(s *ir.Stmt, next int) (int, error) {
	if s == nil {
		return next, nil
	}

	switch s.Kind {
	case ir.KindBlock:
		return b.linkList(s.Stmts, next)

	case ir.KindSimple, ir.KindDecl, ir.KindEmpty:
		n := b.id(s)
		b.addEdge(n, next, EdgeTypeUnconditional)
		return n, nil

	case ir.KindReturn:
		n := b.id(s)
		b.addEdge(n, b.g.Exit().ID, EdgeTypeReturn)
		return n, nil

	case ir.KindThrow:
		n := b.id(s)
		if len(b.handlers) == 0 {
			b.addEdge(n, b.g.Exit().ID, EdgeTypeThrow)
			return n, nil
		}
		for _, c := range b.handlers[len(b.handlers)-1] {
			b.addEdge(n, c, EdgeTypeThrow)
		}
		return n, nil

	case ir.KindBreak:
		t, ok := b.findTarget(s.Label, false)
		if !ok {
			return 0, &StructuralError{Stmt: s, Reason: "break outside loop, switch or label " + s.Label}
		}
		n := b.id(s)
		b.addEdge(n, t.brk, EdgeTypeBreak)
		return n, nil

	case ir.KindContinue:
		t, ok := b.findTarget(s.Label, true)
		if !ok {
			return 0, &StructuralError{Stmt: s, Reason: "continue outside loop " + s.Label}
		}
		n := b.id(s)
		b.addEdge(n, t.cont, EdgeTypeContinue)
		return n, nil

	case ir.KindGoto:
		return 0, &StructuralError{Stmt: s, Reason: "goto is not supported"}

	case ir.KindIf:
		return b.linkIf(s, next)

	case ir.KindWhile, ir.KindFor, ir.KindForEach:
		return b.linkLoop(s, next)

	case ir.KindDoWhile:
		return b.linkDoWhile(s, next)

	case ir.KindSwitch:
		return b.linkSwitch(s, next)

	case ir.KindTry:
		return b.linkTry(s, next)

	case ir.KindLabeled:
		if s.Body != nil && (s.Body.IsLoop() || s.Body.Kind == ir.KindSwitch) {
			b.label = s.Label
			return b.link(s.Body, next)
		}
		b.push(jumpTarget{label: s.Label, brk: next, cont: -1})
		first, err := b.link(s.Body, next)
		b.pop()
		return first, err

	case ir.KindSynchronized:
		n := b.id(s)
		first, err := b.link(s.Body, next)
		if err != nil {
			return 0, err
		}
		b.addEdge(n, first, EdgeTypeUnconditional)
		b.addEdge(n, next, EdgeTypeStructural)
		return n, nil
	}

	return 0, &StructuralError{Stmt: s, Reason: "statement kind cannot appear here"}
}

func (b *builder) findTarget(label string, cont bool) (jumpTarget, bool) {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := b.targets[i]
		if label != "" {
			if t.label != label {
				continue
			}
			if cont && t.cont < 0 {
				return jumpTarget{}, false
			}
			return t, true
		}
		if cont && t.cont >= 0 {
			return t, true
		}
		if !cont && t.breakable {
			return t, true
		}
	}
	return jumpTarget{}, false
}

func (b *builder) linkIf(s *ir.Stmt, next int) (int, error) {
	n := b.id(s)
	thenFirst, err := b.link(s.Then, next)
	if err != nil {
		return 0, err
	}
	elseFirst, err := b.link(s.Else, next)
	if err != nil {
		return 0, err
	}
	b.addEdge(n, thenFirst, EdgeTypeTrue)
	b.addEdge(n, elseFirst, EdgeTypeFalse)
	return n, nil
}

func (b *builder) linkLoop(s *ir.Stmt, next int) (int, error) {
	n := b.id(s)
	b.push(jumpTarget{label: b.takeLabel(), breakable: true, brk: next, cont: n})
	start := len(b.g.Edges)
	bodyFirst, err := b.link(s.Body, n)
	b.pop()
	if err != nil {
		return 0, err
	}
	for i := start; i < len(b.g.Edges); i++ {
		if e := &b.g.Edges[i]; e.To == n && e.Type == EdgeTypeUnconditional {
			e.Type = EdgeTypeBackEdge
		}
	}
	if bodyFirst == n {
		b.addEdge(n, n, EdgeTypeBackEdge)
	} else {
		b.addEdge(n, bodyFirst, EdgeTypeTrue)
	}
	b.addEdge(n, next, EdgeTypeFalse)
	return n, nil
}

func (b *builder) linkDoWhile(s *ir.Stmt, next int) (int, error) {
	n := b.id(s)
	b.push(jumpTarget{label: b.takeLabel(), breakable: true, brk: next, cont: n})
	bodyFirst, err := b.link(s.Body, n)
	b.pop()
	if err != nil {
		return 0, err
	}
	b.addEdge(n, bodyFirst, EdgeTypeBackEdge)
	b.addEdge(n, next, EdgeTypeFalse)
	return bodyFirst, nil
}

func (b *builder) linkSwitch(s *ir.Stmt, next int) (int, error) {
	n := b.id(s)
	b.push(jumpTarget{label: b.takeLabel(), breakable: true, brk: next, cont: -1})
	defer b.pop()

	firsts := make([]int, len(s.Cases))
	for i := len(s.Cases) - 1; i >= 0; i-- {
		c := s.Cases[i]
		after := next
		if c.FallsThrough && i+1 < len(s.Cases) {
			after = firsts[i+1]
		}
		first, err := b.linkList(c.Body, after)
		if err != nil {
			return 0, err
		}
		firsts[i] = first
	}

	hasDefault := false
	for i, c := range s.Cases {
		b.addEdge(n, firsts[i], EdgeTypeCase)
		hasDefault = hasDefault || c.Default
	}
	if !hasDefault {
		b.addEdge(n, next, EdgeTypeFalse)
	}
	return n, nil
}

// linkTry links body, catches and finally. Abrupt exits inside the try go
// straight to their targets without passing through finally.
func (b *builder) linkTry(s *ir.Stmt, next int) (int, error) {
	n := b.id(s)

	finallyFirst, err := b.link(s.Finally, next)
	if err != nil {
		return 0, err
	}

	catches := make([]int, 0, len(s.Catches))
	for _, c := range s.Catches {
		cn := b.id(c)
		first, err := b.link(c.Body, finallyFirst)
		if err != nil {
			return 0, err
		}
		b.addEdge(cn, first, EdgeTypeUnconditional)
		catches = append(catches, cn)
	}

	if len(catches) > 0 {
		b.handlers = append(b.handlers, catches)
	}
	bodyFirst, err := b.link(s.Body, finallyFirst)
	if len(catches) > 0 {
		b.handlers = b.handlers[:len(b.handlers)-1]
	}
	if err != nil {
		return 0, err
	}

	b.addEdge(n, bodyFirst, EdgeTypeUnconditional)
	for _, c := range catches {
		b.addEdge(n, c, EdgeTypeThrow)
	}
	b.addEdge(n, finallyFirst, EdgeTypeStructural)

	if len(catches) > 0 {
		ir.Walk(s.Body, func(x *ir.Stmt) bool {
			node := b.g.byStmt[x]
			if node == nil || node.Type == NodeTypeThrow || node.Type == NodeTypeCatch {
				return true
			}
			for _, c := range catches {
				b.addEdge(node.ID, c, EdgeTypeException)
			}
			return true
		})
	}
	return n, nil
}
