package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zorse-project/zorse/pkg/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and extensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, group := range []struct {
			title string
			reg   *language.Registry
		}{
			{"BIGQUERY", language.BulkQuery},
			{"STACK V2", language.BlobStore},
		} {
			fmt.Fprintln(out, titleStyle.Render(group.title))
			for _, lang := range group.reg.Languages() {
				exts := group.reg.SortedExtensions(lang)
				fmt.Fprintf(out, "  %-8s %s\n", lang, flagStyle.Render(strings.Join(exts, " ")))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
