package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/tpaconsole/internal/factors"
	"github.com/solatis/tpaconsole/internal/rules"
	"github.com/solatis/tpaconsole/internal/types"
)

var compileCmd = &cobra.Command{
	Use:   "compile [draft.json]",
	Short: "Compile a rule draft to its rules-engine payload",
	Long: `Reads a rule draft (a file, or stdin when no file or "-" is given) and
prints the compiled payload, summaries and validation issues as JSON.
Exits non-zero when the draft has validation issues.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().String("currency", rules.DefaultCurrency, "display currency for summaries")
}

func runCompile(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	data, err := io.ReadAll(io.LimitReader(in, types.MaxRequestBodySize+1))
	if err != nil {
		return err
	}
	if len(data) > types.MaxRequestBodySize {
		return fmt.Errorf("%w: draft exceeds %d bytes", types.ErrInvalidBody, types.MaxRequestBodySize)
	}

	draft, err := rules.DecodeDraft(data)
	if err != nil {
		return err
	}

	currency, _ := cmd.Flags().GetString("currency")
	result := rules.NewCompiler(factors.Default(), currency).Run(draft)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if len(result.Issues) > 0 {
		return fmt.Errorf("draft has %d validation issue(s)", len(result.Issues))
	}
	return nil
}
