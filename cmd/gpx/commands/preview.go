package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-partial-extract/pkg/opportunity"
	"github.com/l3aro/go-partial-extract/pkg/rewrite"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file> <method> --var NAME [--index N] [--start L --end L] [--json]",
	Short: "Preview extracting one opportunity",
	Long: `Shows the method that extracting an opportunity would create, the call that
replaces the extracted statements, and the original method after the edit.
Nothing is written to disk.

--index selects among the opportunities listed for the variable by the
opportunities command, starting at 0.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		varName, _ := cmd.Flags().GetString("var")
		if varName == "" {
			return fmt.Errorf("--var is required")
		}
		index, _ := cmd.Flags().GetInt("index")
		if index < 0 {
			return fmt.Errorf("index must be non-negative: %d", index)
		}

		t, err := loadTarget(cmd.Context(), cmd, args[0], args[1])
		if err != nil {
			return err
		}
		groups, _, err := opportunity.Analyze(cmd.Context(), t.method, t.first, t.last, analysisOptions())
		if err != nil {
			return explain(err)
		}

		var group *opportunity.Group
		for i := range groups {
			if groups[i].Variable.String() == varName {
				group = &groups[i]
				break
			}
		}
		if group == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "no opportunities for %s\n", varName)
			return nil
		}
		if index >= len(group.Slices) {
			return fmt.Errorf("index %d out of range: %s has %d opportunities", index, varName, len(group.Slices))
		}

		plan, err := rewrite.Preview(t.method, group.Slices[index])
		if err != nil {
			return fmt.Errorf("previewing extraction: %w", err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "=== Extracted method: %s ===\n", plan.Name)
		fmt.Fprint(out, plan.Extracted)
		fmt.Fprintf(out, "\n=== Call ===\n%s\n", plan.Call)
		fmt.Fprintf(out, "\n=== %s after extraction ===\n%s\n", t.method.Name, plan.Original)
		return nil
	},
}

func init() {
	addSelectionFlags(previewCmd)
	previewCmd.Flags().String("var", "", "Variable whose opportunity to preview")
	previewCmd.Flags().Int("index", 0, "Opportunity index for the variable")
	previewCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(previewCmd)
}
