package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/frontend"
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/opportunity"
)

// target is a loaded method plus the byte range selected in it.
type target struct {
	method    *ir.Method
	first     int
	last      int
	startLine int
	endLine   int
}

// loadTarget loads method from file and resolves the --start/--end line
// flags. Without them the whole body is selected.
func loadTarget(ctx context.Context, cmd *cobra.Command, file, method string) (*target, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", file)
	}

	m, err := frontend.Load(ctx, file, method)
	if err != nil {
		if errors.Is(err, frontend.ErrMethodNotFound) {
			return nil, methodNotFound(ctx, file, method)
		}
		return nil, fmt.Errorf("loading %s: %w", method, err)
	}

	t := &target{method: m}
	start, _ := cmd.Flags().GetInt("start")
	end, _ := cmd.Flags().GetInt("end")
	if start <= 0 && end <= 0 {
		t.first, t.last = m.Body.Span.Start, m.Body.Span.End
		t.startLine, t.endLine = m.Body.Span.StartLine, m.Body.Span.EndLine
		return t, nil
	}
	if start <= 0 {
		start = m.Body.Span.StartLine
	}
	if end <= 0 {
		end = m.Body.Span.EndLine
	}
	t.startLine, t.endLine = start, end
	t.first, t.last, err = frontend.SelectLines(m, start, end)
	if err != nil {
		return nil, fmt.Errorf("lines %d-%d: %w", start, end, err)
	}
	logger.Debug("selection resolved", "method", m.Name, "first", t.first, "last", t.last)
	return t, nil
}

// methodNotFound builds a not-found error listing close method names.
func methodNotFound(ctx context.Context, file, method string) error {
	names, err := frontend.Methods(ctx, file)
	if err != nil {
		return fmt.Errorf("method %q not found in %s", method, file)
	}
	var similar []string
	want := strings.ToLower(method)
	for _, n := range names {
		l := strings.ToLower(n)
		if strings.Contains(l, want) || strings.Contains(want, l) {
			similar = append(similar, n)
		}
	}
	if len(similar) > 0 {
		return fmt.Errorf("method %q not found in %s\nDid you mean: %s?", method, file, strings.Join(similar, ", "))
	}
	return fmt.Errorf("method %q not found in %s", method, file)
}

// analysisOptions maps the configuration onto enumeration options.
func analysisOptions() opportunity.Options {
	return opportunity.Options{
		Concurrency:  appConfig.Analysis.Concurrency,
		MinSliceSize: appConfig.Analysis.MinSliceSize,
		Logger:       logger,
	}
}

// explain rewrites errors from the analysis into messages for people.
func explain(err error) error {
	var se *cfg.StructuralError
	if errors.As(err, &se) {
		return fmt.Errorf("cannot analyze this method: %s", se.Reason)
	}
	return err
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("start", 0, "First line of the selection (default: method body start)")
	cmd.Flags().Int("end", 0, "Last line of the selection (default: method body end)")
}
