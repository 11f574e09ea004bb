// Package rewrite renders an extract-method opportunity as text: the new
// method, the call that replaces the extracted statements and the original
// method after the edit. Nothing is written back to disk.
package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/slice"
)

// ErrNothingToExtract is returned for a slice without statements.
var ErrNothingToExtract = errors.New("slice has no statements")

// Plan is the textual outcome of extracting one slice.
type Plan struct {
	Name      string `json:"name" yaml:"name"`
	Signature string `json:"signature" yaml:"signature"`
	Extracted string `json:"extracted" yaml:"extracted"` // Full text of the new method
	Call      string `json:"call" yaml:"call"`           // Statement invoking the new method
	Original  string `json:"original" yaml:"original"`   // Original method with the call in place
}

// Preview builds the extraction plan for s, a slice of m.
func Preview(m *ir.Method, s *slice.ASTSlice) (*Plan, error) {
	if len(s.Statements) == 0 || s.Insertion == nil {
		return nil, ErrNothingToExtract
	}
	if len(m.Source) == 0 {
		return nil, fmt.Errorf("previewing %s: method source not loaded", m.Name)
	}

	r := &renderer{
		m:         m,
		s:         s,
		src:       m.Source,
		inSlice:   make(map[*ir.Stmt]bool, len(s.Statements)),
		removable: make(map[*ir.Stmt]bool, len(s.Removable)),
		hoist:     s.DeclarationNestedDeeperThanInsertion(),
	}
	for _, st := range s.Statements {
		r.inSlice[st] = true
	}
	for _, st := range s.Removable {
		r.removable[st] = true
	}

	p := &Plan{Name: s.Name}
	p.Signature = r.signature()
	p.Call = r.call()
	p.Extracted = r.extracted(p.Signature)

	original, err := r.original(p.Call)
	if err != nil {
		return nil, err
	}
	p.Original = original
	return p, nil
}

type renderer struct {
	m         *ir.Method
	s         *slice.ASTSlice
	src       []byte
	inSlice   map[*ir.Stmt]bool
	removable map[*ir.Stmt]bool
	hoist     bool // The call declares the variable at the insertion point
}

func (r *renderer) golang() bool {
	return r.m.Language == ir.LanguageGo
}

func (r *renderer) indentUnit() string {
	if r.golang() {
		return "\t"
	}
	return "    "
}

func (r *renderer) returnType() string {
	if r.s.VariableType != "" {
		return r.s.VariableType
	}
	if r.golang() {
		return "any"
	}
	return "Object"
}

// receiver returns the passed parameter that becomes the receiver of the
// extracted Go method.
func (r *renderer) receiver() *ir.Binding {
	if !r.golang() {
		return nil
	}
	for i, b := range r.s.PassedParameters {
		if b.Kind == ir.BindingReceiver {
			return &r.s.PassedParameters[i]
		}
	}
	return nil
}

func (r *renderer) signature() string {
	var params []string
	for _, b := range r.s.PassedParameters {
		if b.Kind == ir.BindingReceiver && r.golang() {
			continue
		}
		params = append(params, r.param(b))
	}
	list := strings.Join(params, ", ")

	if r.golang() {
		if recv := r.receiver(); recv != nil {
			return fmt.Sprintf("func (%s) %s(%s) %s", r.param(*recv), r.s.Name, list, r.returnType())
		}
		return fmt.Sprintf("func %s(%s) %s", r.s.Name, list, r.returnType())
	}
	return fmt.Sprintf("private %s %s(%s)", r.returnType(), r.s.Name, list)
}

func (r *renderer) param(b ir.Binding) string {
	typ := b.Type
	if r.golang() {
		if typ == "" {
			typ = "any"
		}
		return b.Name + " " + typ
	}
	if typ == "" {
		typ = "Object"
	}
	return typ + " " + b.Name
}

func (r *renderer) call() string {
	var args []string
	for _, b := range r.s.PassedParameters {
		if b.Kind == ir.BindingReceiver && r.golang() {
			continue
		}
		args = append(args, b.Name)
	}
	invocation := fmt.Sprintf("%s(%s)", r.s.Name, strings.Join(args, ", "))
	if recv := r.receiver(); recv != nil {
		invocation = recv.Name + "." + invocation
	}

	v := r.s.VariableName
	declare := r.s.DeclarationRemovable || r.hoist
	if r.golang() {
		if declare {
			return fmt.Sprintf("%s := %s", v, invocation)
		}
		return fmt.Sprintf("%s = %s", v, invocation)
	}
	if declare {
		return fmt.Sprintf("%s %s = %s;", r.returnType(), v, invocation)
	}
	return fmt.Sprintf("%s = %s;", v, invocation)
}

// extracted renders the new method: each outermost slice statement with its
// nested non-slice statements cut out, then a return of the variable.
func (r *renderer) extracted(signature string) string {
	unit := r.indentUnit()

	var b strings.Builder
	b.WriteString(signature)
	b.WriteString(" {\n")
	for _, st := range r.outermost(r.inSlice) {
		var edits []edit
		r.pruneChildren(st, &edits)
		text := apply(r.src[st.Span.Start:st.Span.End], edits, st.Span.Start)
		for _, line := range reindent(text, indentAt(r.src, st.Span.Start), unit) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString(unit)
	b.WriteString("return ")
	b.WriteString(r.s.VariableName)
	if !r.golang() {
		b.WriteByte(';')
	}
	b.WriteString("\n}\n")
	return b.String()
}

// pruneChildren records deletions for the statements under st that are not
// part of the slice. Catch clauses are kept so the try stays well formed.
func (r *renderer) pruneChildren(st *ir.Stmt, edits *[]edit) {
	for _, c := range st.Children() {
		switch {
		case c.Kind == ir.KindBlock || c.Kind == ir.KindCatch || r.inSlice[c]:
			r.pruneChildren(c, edits)
		default:
			start, end := lineExtent(r.src, c.Span.Start, c.Span.End)
			if st.Kind == ir.KindIf && c == st.Else {
				start = elseKeyword(r.src, c.Span.Start, st.Span.Start)
			}
			*edits = append(*edits, edit{start: start, end: end})
		}
	}
}

// original renders the method with its removable statements deleted and the
// call inserted at the insertion statement.
func (r *renderer) original(call string) (string, error) {
	var edits []edit
	for _, st := range r.outermost(r.removable) {
		start, end := lineExtent(r.src, st.Span.Start, st.Span.End)
		edits = append(edits, edit{start: start, end: end})
	}

	at := r.s.Insertion
	indent := indentAt(r.src, at.Span.Start)
	if at == r.s.Declaration && !r.removable[at] && !r.hoist {
		// The declaration stays behind, so the call must follow it.
		_, end := lineExtent(r.src, at.Span.Start, at.Span.End)
		edits = append(edits, edit{start: end, end: end, text: indent + call + "\n"})
	} else if start := at.Span.Start - len(indent); strings.TrimSpace(string(r.src[start:at.Span.Start])) == "" && isLineStart(r.src, start) {
		edits = append(edits, edit{start: start, end: start, text: indent + call + "\n"})
	} else {
		edits = append(edits, edit{start: at.Span.Start, end: at.Span.Start, text: call + " "})
	}

	span := r.m.Span
	for _, e := range edits {
		if e.start < span.Start || e.end > span.End {
			return "", fmt.Errorf("previewing %s: statement outside method span", r.m.Name)
		}
	}
	return apply(r.src[span.Start:span.End], edits, span.Start), nil
}

// outermost returns the statements of set that have no ancestor in set, in
// source order.
func (r *renderer) outermost(set map[*ir.Stmt]bool) []*ir.Stmt {
	var out []*ir.Stmt
	ir.Walk(r.m.Body, func(st *ir.Stmt) bool {
		if set[st] {
			out = append(out, st)
			return false
		}
		return true
	})
	return out
}

type edit struct {
	start, end int
	text       string
}

// apply replaces each edit range in text, whose first byte sits at file
// offset base. Edits must not overlap; an insertion at the start of a
// deleted range lands before it.
func apply(text []byte, edits []edit, base int) string {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start > edits[j].start
		}
		return edits[i].end > edits[j].end
	})

	out := string(text)
	for _, e := range edits {
		out = out[:e.start-base] + e.text + out[e.end-base:]
	}
	return out
}

// lineExtent widens [start, end) to whole lines when the range is alone on
// them: leading indentation and the trailing newline are included.
func lineExtent(src []byte, start, end int) (int, int) {
	s := start
	for s > 0 && (src[s-1] == ' ' || src[s-1] == '\t') {
		s--
	}
	if !isLineStart(src, s) {
		return start, end
	}

	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t' || src[e] == '\r') {
		e++
	}
	switch {
	case e == len(src):
		return s, e
	case src[e] == '\n':
		return s, e + 1
	}
	return start, end
}

func isLineStart(src []byte, off int) bool {
	return off == 0 || src[off-1] == '\n'
}

// indentAt returns the leading whitespace of the line holding off.
func indentAt(src []byte, off int) string {
	s := off
	for s > 0 && src[s-1] != '\n' {
		s--
	}
	e := s
	for e < len(src) && (src[e] == ' ' || src[e] == '\t') {
		e++
	}
	return string(src[s:e])
}

// elseKeyword moves start back over whitespace and an "else" keyword that
// precedes it, without crossing floor.
func elseKeyword(src []byte, start, floor int) int {
	i := start
	for i > floor && strings.ContainsRune(" \t\r\n", rune(src[i-1])) {
		i--
	}
	if i-4 >= floor && string(src[i-4:i]) == "else" {
		i -= 4
		for i > floor && (src[i-1] == ' ' || src[i-1] == '\t') {
			i--
		}
		return i
	}
	return start
}

// reindent strips indent from every line of text after the first and
// prefixes all lines with unit. Blank lines are dropped.
func reindent(text, indent, unit string) []string {
	var out []string
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i > 0 {
			line = strings.TrimPrefix(line, indent)
		}
		out = append(out, unit+line)
	}
	return out
}
