package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/internal/scanner"
	"github.com/l3aro/go-partial-extract/pkg/frontend"
	"github.com/l3aro/go-partial-extract/pkg/opportunity"
	"github.com/l3aro/go-partial-extract/pkg/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path] [--skip-tests] [--min-opportunities N] [--format table|json|yaml]",
	Short: "Summarize opportunities for every method under a directory",
	Long: `Walks path (default: current directory), analyzes the whole body of every
Java and Go method it finds and prints one row per method. Directories and
files listed in .gpxignore files are skipped.

Methods the analysis cannot handle are listed with the reason.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		skipTests, _ := cmd.Flags().GetBool("skip-tests")
		minOpps, _ := cmd.Flags().GetInt("min-opportunities")
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = appConfig.Output.Format
		}

		opts := scanner.DefaultOptions()
		opts.SkipTests = skipTests
		files, err := scanner.New(opts).Scan(root)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		logger.Debug("scan found files", "root", root, "files", len(files))

		var rows []report.MethodSummary
		for _, f := range files {
			fileRows, err := scanFile(cmd.Context(), f)
			if err != nil {
				return err
			}
			for _, r := range fileRows {
				if r.Error == "" && r.Opportunities < minOpps {
					continue
				}
				rows = append(rows, r)
			}
		}
		return report.WriteSummaries(cmd.OutOrStdout(), rows, format)
	},
}

// scanFile summarizes every method of f. Only cancellation aborts the
// scan; other failures are reported on the method's row.
func scanFile(ctx context.Context, f scanner.FileInfo) ([]report.MethodSummary, error) {
	names, err := frontend.Methods(ctx, f.FullPath)
	if err != nil {
		logger.Warn("skipping file", "file", f.Path, "error", err)
		return nil, nil
	}

	seen := make(map[string]bool)
	var rows []report.MethodSummary
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		row := report.MethodSummary{File: f.Path, Method: name}
		m, err := frontend.Load(ctx, f.FullPath, name)
		if err != nil {
			row.Error = err.Error()
			rows = append(rows, row)
			continue
		}
		groups, _, err := opportunity.Analyze(ctx, m, m.Body.Span.Start, m.Body.Span.End, analysisOptions())
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("method not analyzable", "file", f.Path, "method", name, "error", err)
			row.Error = explain(err).Error()
			rows = append(rows, row)
			continue
		}
		r := report.FromGroups(m, m.Body.Span.StartLine, m.Body.Span.EndLine, groups)
		r.File = f.Path
		rows = append(rows, report.Summarize(r))
	}
	return rows, nil
}

func init() {
	scanCmd.Flags().Bool("skip-tests", false, "Skip Go _test.go and Java *Test.java files")
	scanCmd.Flags().Int("min-opportunities", 0, "Only list methods with at least this many opportunities")
	scanCmd.Flags().StringP("format", "f", "", "Output format: table, json or yaml (default from config)")
	RootCmd.AddCommand(scanCmd)
}
