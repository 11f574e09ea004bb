package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// MethodSummary condenses the report of one method to a single row.
type MethodSummary struct {
	File          string `json:"file" yaml:"file"`
	Method        string `json:"method" yaml:"method"`
	MethodSize    int    `json:"method_size" yaml:"method_size"`
	Variables     int    `json:"variables" yaml:"variables"`
	Opportunities int    `json:"opportunities" yaml:"opportunities"`
	MaxRemovable  int    `json:"max_removable" yaml:"max_removable"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summarize condenses r. MaxRemovable is the largest number of statements
// a single opportunity removes from the method.
func Summarize(r *Report) MethodSummary {
	s := MethodSummary{
		File:       r.File,
		Method:     r.Method,
		MethodSize: r.MethodSize,
		Variables:  len(r.Groups),
	}
	for _, g := range r.Groups {
		s.Opportunities += len(g.Slices)
		for _, sl := range g.Slices {
			s.MaxRemovable = max(s.MaxRemovable, len(sl.Removable))
		}
	}
	return s
}

// WriteSummaries renders rows in format. Table output lists failed methods
// with their error in place of the counts.
func WriteSummaries(w io.Writer, rows []MethodSummary, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding summaries: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding summaries: %w", err)
		}
		return enc.Close()
	case FormatTable, "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no methods found")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Method", "Size", "Variables", "Opportunities", "Max removable"})
	table.SetAutoWrapText(false)
	for _, r := range rows {
		if r.Error != "" {
			table.Append([]string{r.File, r.Method, "-", "-", "-", r.Error})
			continue
		}
		table.Append([]string{
			r.File,
			r.Method,
			strconv.Itoa(r.MethodSize),
			strconv.Itoa(r.Variables),
			strconv.Itoa(r.Opportunities),
			strconv.Itoa(r.MaxRemovable),
		})
	}
	table.Render()
	return nil
}
