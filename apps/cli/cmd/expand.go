package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Print a scenario with its references flattened",
	Long: `Load a scenario file, replace every step that refers to another scenario
file with the steps of that file, and print the resulting document as JSON.

Examples:
  scenarist expand scenarios/orders/checkout.json
  scenarist expand scenarios/orders/checkout.json --data-root scenarios`,
	Args: cobra.ExactArgs(1),
	RunE: expandCommand,
}

func expandCommand(cmd *cobra.Command, args []string) error {
	r, err := offlineRunner()
	if err != nil {
		return err
	}

	doc, err := r.Load(args[0])
	if err != nil {
		return exitWith(ExitParseError, err)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}
