package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gpx configuration interactively",
	Long: `Guides you through setting up gpx configuration step by step and saves it
globally (~/.gpx/config.yaml) or for the current project (./.gpx/config.yaml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Analysis ===
	concurrency := strconv.Itoa(cfg.Analysis.Concurrency)
	minSize := strconv.Itoa(cfg.Analysis.MinSliceSize)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Concurrency").
				Description("Variables sliced in parallel (0 = one per CPU)").
				Placeholder("0").
				Validate(nonNegative).
				Value(&concurrency),
			huh.NewInput().
				Title("Minimum slice size").
				Description("Hide opportunities with fewer statements (0 = show all)").
				Placeholder("0").
				Validate(nonNegative).
				Value(&minSize),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Analysis.Concurrency, _ = strconv.Atoi(concurrency)
	cfg.Analysis.MinSliceSize, _ = strconv.Atoi(minSize)

	// === SECTION 2: Output and logging ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Table", config.FormatTable),
					huh.NewOption("JSON", config.FormatJSON),
					huh.NewOption("YAML", config.FormatYAML),
				).
				Value(&cfg.Output.Format),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Error", "error"),
				).
				Value(&cfg.Log.Level),
			huh.NewConfirm().
				Title("Colored log output?").
				Value(&cfg.Output.Color),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Cache ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Report cache").
				Description("Remember results for unchanged files between runs?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&cfg.Cache.Enabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if cfg.Cache.Enabled {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache directory").
					Placeholder(cfg.Cache.Dir).
					Value(&cfg.Cache.Dir),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gpx/config.yaml)", "global"),
					huh.NewOption("Project (./.gpx/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Concurrency: %d\n", cfg.Analysis.Concurrency)
	fmt.Printf("Min slice size: %d\n", cfg.Analysis.MinSliceSize)
	fmt.Printf("Output format: %s\n", cfg.Output.Format)
	fmt.Printf("Log level: %s\n", cfg.Log.Level)
	if cfg.Cache.Enabled {
		fmt.Printf("Cache: %s (max %d reports)\n", cfg.Cache.Dir, cfg.Cache.MaxEntries)
	} else {
		fmt.Println("Cache: disabled")
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	absPath, _ := filepath.Abs(configPath)
	fmt.Printf("Configuration saved to: %s\n", absPath)
	return nil
}

func nonNegative(s string) error {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of 0 or more")
	}
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
