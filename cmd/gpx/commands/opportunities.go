package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/pkg/cache"
	"github.com/l3aro/go-partial-extract/pkg/opportunity"
	"github.com/l3aro/go-partial-extract/pkg/report"
)

var opportunitiesCmd = &cobra.Command{
	Use:     "opportunities <file> <method> [--start L --end L] [--var NAME] [--format table|json|yaml]",
	Aliases: []string{"opps"},
	Short:   "List partial extract-method opportunities in a selection",
	Long: `Lists, for every local variable assigned in the selection, the slices that
compute it and could move to a new method. Each slice reports the statements
that can be removed from the original method and those that must be
duplicated because the rest of the method still needs them.

The selection is given as a line range and widened to whole statements. The
method is "name" or "Type.name".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := loadTarget(ctx, cmd, args[0], args[1])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = appConfig.Output.Format
		}
		noCache, _ := cmd.Flags().GetBool("no-cache")
		varName, _ := cmd.Flags().GetString("var")

		r, err := opportunitiesReport(cmd, t, noCache)
		if err != nil {
			return err
		}
		if varName != "" {
			r.Groups = filterGroups(r.Groups, varName)
		}
		return report.Write(cmd.OutOrStdout(), r, format)
	},
}

// opportunitiesReport returns the cached report for t or computes it.
func opportunitiesReport(cmd *cobra.Command, t *target, noCache bool) (*report.Report, error) {
	var store *cache.ReportStore
	var key string
	if appConfig.Cache.Enabled && !noCache {
		s, err := cache.OpenReportStore(appConfig.Cache.Dir, appConfig.Cache.MaxEntries)
		if err != nil {
			logger.Warn("report cache unavailable", "error", err)
		} else {
			store = s
			key = cache.Key(t.method.Source, t.method.Name, t.first, t.last,
				fmt.Sprintf("min=%d", appConfig.Analysis.MinSliceSize))
			r, err := store.Get(key)
			if err == nil {
				logger.Debug("report cache hit", "method", t.method.Name)
				return r, nil
			}
			if !errors.Is(err, cache.ErrKeyNotFound) {
				logger.Warn("discarding cached report", "error", err)
			}
		}
	}

	groups, _, err := opportunity.Analyze(cmd.Context(), t.method, t.first, t.last, analysisOptions())
	if err != nil {
		return nil, explain(err)
	}
	r := report.FromGroups(t.method, t.startLine, t.endLine, groups)

	if store != nil {
		if err := store.Put(key, r); err != nil {
			logger.Warn("caching report", "error", err)
		} else if err := store.Save(); err != nil {
			logger.Warn("saving report cache", "error", err)
		}
	}
	return r, nil
}

func filterGroups(groups []report.Group, name string) []report.Group {
	var out []report.Group
	for _, g := range groups {
		if g.Variable == name {
			out = append(out, g)
		}
	}
	return out
}

func init() {
	addSelectionFlags(opportunitiesCmd)
	opportunitiesCmd.Flags().String("var", "", "Only show opportunities for this variable")
	opportunitiesCmd.Flags().StringP("format", "f", "", "Output format: table, json or yaml (default from config)")
	opportunitiesCmd.Flags().Bool("no-cache", false, "Bypass the report cache")
	RootCmd.AddCommand(opportunitiesCmd)
}
