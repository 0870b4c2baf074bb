package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zorse-project/zorse/internal/app"
	"github.com/zorse-project/zorse/pkg/language"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract, filter and write a corpus file",
	Long: `Drains The Stack v2 partitions for each language, optionally runs the
BigQuery file query, and writes every admitted file as one JSON line.`,
	Example: `  zorse build --output data/mainframe.jsonl
  zorse build --output out.jsonl --languages COBOL,REXX --include-bigquery`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		includeBQ, _ := cmd.Flags().GetBool("include-bigquery")
		langs := cfg.Stack.Languages
		if cmd.Flags().Changed("languages") {
			langs, _ = cmd.Flags().GetStringSlice("languages")
		}

		runID := uuid.NewString()
		l := logger.With("run_id", runID)
		summary, err := newApp(l).Build(cmd.Context(), app.BuildOptions{
			Output:          output,
			Languages:       langs,
			IncludeBigQuery: includeBQ,
			RunID:           runID,
		})
		if err != nil {
			return err
		}

		for _, s := range summary.Sources {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-14s admitted %6d  rejected %6d\n", s.Name, s.Tally.Admitted, s.Tally.Rejected())
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Wrote %d records to %s", summary.Records, summary.Output)))
		return nil
	},
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "Output JSONL path")
	buildCmd.Flags().StringSlice("languages", language.DefaultStackLanguages, "Stack v2 languages to extract")
	buildCmd.Flags().Bool("include-bigquery", false, "Also run the BigQuery file query")
	_ = buildCmd.MarkFlagRequired("output")
}
