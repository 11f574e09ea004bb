package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the report cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show report cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.OpenReportStore(appConfig.Cache.Dir, appConfig.Cache.MaxEntries)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		out := cmd.OutOrStdout()
		enabled := "enabled"
		if !appConfig.Cache.Enabled {
			enabled = "disabled"
		}
		fmt.Fprintf(out, "Cache: %s\n", enabled)
		fmt.Fprintf(out, "Path: %s\n", store.Path())
		fmt.Fprintf(out, "File size: %s\n", store.FileSize())
		fmt.Fprintf(out, "Contents: %s\n", cache.Summary(store.Stats()))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.OpenReportStore(appConfig.Cache.Dir, appConfig.Cache.MaxEntries)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		n := store.Stats().Entries
		if err := store.Clear(); err != nil {
			return err
		}
		logger.Info("report cache cleared", "path", store.Path())
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached reports\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	RootCmd.AddCommand(cacheCmd)
}
