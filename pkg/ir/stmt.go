package ir

// StmtKind tags the syntactic form of a statement.
type StmtKind string

const (
	KindBlock        StmtKind = "block"        // { ... }
	KindSimple       StmtKind = "simple"       // Expression statement, assignment, increment
	KindDecl         StmtKind = "decl"         // Local variable declaration
	KindReturn       StmtKind = "return"       // return
	KindThrow        StmtKind = "throw"        // throw, or panic in Go
	KindBreak        StmtKind = "break"        // break [label]
	KindContinue     StmtKind = "continue"     // continue [label]
	KindEmpty        StmtKind = "empty"        // ;
	KindIf           StmtKind = "if"           // if / else
	KindWhile        StmtKind = "while"        // while, or condition-only Go for
	KindDoWhile      StmtKind = "do_while"     // do { } while
	KindFor          StmtKind = "for"          // Three-clause for
	KindForEach      StmtKind = "for_each"     // Enhanced for, or Go range
	KindSwitch       StmtKind = "switch"       // switch with cases
	KindTry          StmtKind = "try"          // try / catch / finally
	KindCatch        StmtKind = "catch"        // One catch clause of a try
	KindLabeled      StmtKind = "labeled"      // label: stmt
	KindSynchronized StmtKind = "synchronized" // synchronized (lock) { }
	KindGoto         StmtKind = "goto"         // goto; rejected by the CFG builder
)

// Stmt is one statement of a method body. Compound statements carry their
// header's accesses in Defs/Uses; nested statements are children.
type Stmt struct {
	Kind     StmtKind  `json:"kind"`
	Span     Span      `json:"span"`
	Text     string    `json:"text"`
	Parent   *Stmt     `json:"-"`
	Label    string    `json:"label,omitempty"` // Label of a labeled statement, or target of break/continue
	Defs     []Access  `json:"defs,omitempty"`
	Uses     []Access  `json:"uses,omitempty"`
	Declares []Binding `json:"declares,omitempty"`

	Stmts   []*Stmt `json:"-"` // Block
	Body    *Stmt   `json:"-"` // Loops, labeled, synchronized, try, catch
	Then    *Stmt   `json:"-"` // If
	Else    *Stmt   `json:"-"` // If
	Cases   []*Case `json:"-"` // Switch
	Catches []*Stmt `json:"-"` // Try, each of KindCatch
	Finally *Stmt   `json:"-"` // Try
}

// Case is one arm of a switch.
type Case struct {
	Span         Span     `json:"span"`
	Default      bool     `json:"default,omitempty"`
	FallsThrough bool     `json:"falls_through,omitempty"` // Control continues into the next case body
	Uses         []Access `json:"uses,omitempty"`          // Variables read by the case labels
	Body         []*Stmt  `json:"-"`
}

// IsCompound reports whether s nests other statements.
func (s *Stmt) IsCompound() bool {
	switch s.Kind {
	case KindBlock, KindIf, KindWhile, KindDoWhile, KindFor, KindForEach,
		KindSwitch, KindTry, KindCatch, KindLabeled, KindSynchronized:
		return true
	}
	return false
}

// IsLoop reports whether s is an iteration statement.
func (s *Stmt) IsLoop() bool {
	switch s.Kind {
	case KindWhile, KindDoWhile, KindFor, KindForEach:
		return true
	}
	return false
}

// Children returns the statements directly nested in s, in source order.
func (s *Stmt) Children() []*Stmt {
	var out []*Stmt
	add := func(c *Stmt) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch s.Kind {
	case KindBlock:
		out = append(out, s.Stmts...)
	case KindIf:
		add(s.Then)
		add(s.Else)
	case KindSwitch:
		for _, c := range s.Cases {
			out = append(out, c.Body...)
		}
	case KindTry:
		add(s.Body)
		out = append(out, s.Catches...)
		add(s.Finally)
	default:
		add(s.Body)
	}
	return out
}

// Walk visits s and its descendants in source order. Children of a
// statement are skipped when fn returns false.
func Walk(s *Stmt, fn func(*Stmt) bool) {
	if s == nil {
		return
	}
	if !fn(s) {
		return
	}
	for _, c := range s.Children() {
		Walk(c, fn)
	}
}

// EnclosingStatement returns the nearest ancestor of s that is not a block,
// or nil when s is a top-level statement of the method body.
func (s *Stmt) EnclosingStatement() *Stmt {
	for p := s.Parent; p != nil; p = p.Parent {
		if p.Kind != KindBlock {
			return p
		}
	}
	return nil
}

// Depth returns the number of statements enclosing s.
func (s *Stmt) Depth() int {
	d := 0
	for p := s.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// SetParents links Parent pointers below root.
func SetParents(root *Stmt) {
	Walk(root, func(s *Stmt) bool {
		for _, c := range s.Children() {
			c.Parent = s
		}
		return true
	})
}
