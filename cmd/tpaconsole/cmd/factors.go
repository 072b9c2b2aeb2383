package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/tpaconsole/internal/factors"
)

var factorsCmd = &cobra.Command{
	Use:   "factors",
	Short: "List the factor catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := factors.Default()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.Categories())
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tKEY\tTYPE\tALLOWED")
		for _, cat := range catalog.Categories() {
			for _, f := range cat.Factors {
				allowed := "*"
				if f.HasAllowedValues() {
					allowed = strings.Join(f.AllowedValues, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cat.Key, f.Key, f.DataType, allowed)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if dups := catalog.Duplicates(); len(dups) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "duplicate keys (last definition wins): %s\n", strings.Join(dups, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(factorsCmd)
	factorsCmd.Flags().Bool("json", false, "print the categorized catalog as JSON")
}
