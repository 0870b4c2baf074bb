package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish --name <dataset> <file.jsonl>...",
	Short: "Append corpus files to a published dataset",
	Long: `Creates the private dataset <namespace>/<name> if needed, loads its
current rows, appends the rows of every input file and replaces the stored
corpus with the result.`,
	Example: `  zorse publish --name mainframe data/COBOL.jsonl data/JCL.jsonl
  zorse publish --name mainframe --paths a.jsonl,b.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		paths, _ := cmd.Flags().GetStringSlice("paths")
		paths = append(paths, args...)

		p, err := newApp(logger).Publisher(cmd.Context())
		if err != nil {
			return err
		}
		res, err := p.Publish(cmd.Context(), paths, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(
			fmt.Sprintf("Dataset %q uploaded (%d rows, %d new) at: %s", name, res.Total(), res.NewRows, res.URL)))
		return nil
	},
}

func init() {
	publishCmd.Flags().String("name", "", "Destination dataset name")
	publishCmd.Flags().StringSlice("paths", nil, "JSONL files to publish")
	_ = publishCmd.MarkFlagRequired("name")
}
