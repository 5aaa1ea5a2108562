package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

var listExpandFlag bool

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the steps of scenario files",
	Long: `List the steps defined in scenario files together with their directives.

Examples:
  scenarist list scenarios/users/create.json
  scenarist list scenarios/ --expand`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().BoolVar(&listExpandFlag, "expand", false, "List steps after references are expanded")
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if len(files) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no scenario files found"))
	}

	r, err := offlineRunner()
	if err != nil {
		return err
	}

	for _, file := range files {
		var doc *scenario.Document
		if listExpandFlag {
			doc, err = r.Load(file)
		} else {
			doc, err = r.Store().Load(file)
		}
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error loading %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		if doc.Name() != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", doc.Name())
		}
		for _, step := range doc.Steps {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", step)
			printDirectives(cmd, "prerequest", step.PreRequestScript())
			printDirectives(cmd, "test", step.PostRequestScript())
		}
	}

	return nil
}

func printDirectives(cmd *cobra.Command, phase string, script []string) {
	for _, line := range script {
		d, err := markup.Parse(line)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s: invalid: %v\n", phase, err)
			continue
		}
		if d != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s: %s\n", phase, d)
		}
	}
}
