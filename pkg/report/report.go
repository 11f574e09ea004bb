// Package report converts opportunity groups into serializable reports and
// renders them as tables, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/opportunity"
	"github.com/l3aro/go-partial-extract/pkg/slice"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Report lists the opportunities found in one method.
type Report struct {
	File       string  `json:"file" yaml:"file" msgpack:"file"`
	Method     string  `json:"method" yaml:"method" msgpack:"method"`
	Language   string  `json:"language" yaml:"language" msgpack:"language"`
	StartLine  int     `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	EndLine    int     `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	MethodSize int     `json:"method_size" yaml:"method_size" msgpack:"method_size"`
	Groups     []Group `json:"groups" yaml:"groups" msgpack:"groups"`
}

// Group holds the opportunities for one variable.
type Group struct {
	Variable string  `json:"variable" yaml:"variable" msgpack:"variable"`
	Slices   []Slice `json:"slices" yaml:"slices" msgpack:"slices"`
}

// Slice describes one opportunity by statement lines.
type Slice struct {
	Name                 string   `json:"name" yaml:"name" msgpack:"name"`
	Type                 string   `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type"`
	StartLine            int      `json:"start_line" yaml:"start_line" msgpack:"start_line"`
	EndLine              int      `json:"end_line" yaml:"end_line" msgpack:"end_line"`
	Statements           []int    `json:"statements" yaml:"statements" msgpack:"statements"`
	Removable            []int    `json:"removable" yaml:"removable" msgpack:"removable"`
	Duplicated           []int    `json:"duplicated" yaml:"duplicated" msgpack:"duplicated"`
	Parameters           []string `json:"parameters" yaml:"parameters" msgpack:"parameters"`
	DeclarationRemovable bool     `json:"declaration_removable" yaml:"declaration_removable" msgpack:"declaration_removable"`
}

// FromGroups builds the report for groups found in m between the given
// 1-based lines.
func FromGroups(m *ir.Method, startLine, endLine int, groups []opportunity.Group) *Report {
	r := &Report{
		File:       m.Path,
		Method:     m.Name,
		Language:   string(m.Language),
		StartLine:  startLine,
		EndLine:    endLine,
		MethodSize: m.StatementCount(),
		Groups:     make([]Group, 0, len(groups)),
	}
	for _, g := range groups {
		rg := Group{Variable: g.Variable.String()}
		for _, s := range g.Slices {
			rg.Slices = append(rg.Slices, fromSlice(s))
		}
		r.Groups = append(r.Groups, rg)
	}
	return r
}

func fromSlice(s *slice.ASTSlice) Slice {
	start, end := s.Lines()
	out := Slice{
		Name:                 s.Name,
		Type:                 s.VariableType,
		StartLine:            start,
		EndLine:              end,
		Statements:           lines(s.Statements),
		Removable:            lines(s.Removable),
		Duplicated:           lines(s.Duplicated),
		Parameters:           make([]string, 0, len(s.PassedParameters)),
		DeclarationRemovable: s.DeclarationRemovable,
	}
	for _, b := range s.PassedParameters {
		out.Parameters = append(out.Parameters, b.Name)
	}
	return out
}

func lines(stmts []*ir.Stmt) []int {
	out := make([]int, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, st.Span.StartLine)
	}
	return out
}

// Count returns the number of opportunities in r.
func (r *Report) Count() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Slices)
	}
	return n
}

// Write renders r in format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteJSON renders r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteYAML renders r as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// WriteTable renders one row per opportunity.
func WriteTable(w io.Writer, r *Report) error {
	if len(r.Groups) == 0 {
		_, err := fmt.Fprintf(w, "no opportunities in %s\n", r.Method)
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Variable", "Lines", "Statements", "Removable", "Duplicated", "Parameters"})
	table.SetAutoWrapText(false)
	for _, g := range r.Groups {
		for i, s := range g.Slices {
			table.Append([]string{
				strconv.Itoa(i),
				g.Variable,
				fmt.Sprintf("%d-%d", s.StartLine, s.EndLine),
				strconv.Itoa(len(s.Statements)),
				joinLines(s.Removable),
				joinLines(s.Duplicated),
				strings.Join(s.Parameters, ", "),
			})
		}
	}
	table.Render()
	return nil
}

func joinLines(ls []int) string {
	if len(ls) == 0 {
		return "-"
	}
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}
