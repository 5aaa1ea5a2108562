package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/scenarist/packages/core/runner"
	"github.com/abdul-hamid-achik/scenarist/packages/core/scenario"
	"github.com/abdul-hamid-achik/scenarist/packages/markup"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate scenario files without sending requests",
	Long: `Validate scenario files without executing them. Each file is checked
against the document schema, its references are expanded, and every
directive is parsed. Variables no scope declares are reported as warnings.

Examples:
  scenarist validate scenarios/users/create.json
  scenarist validate scenarios/ --data-root scenarios`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
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

	hasErrors := false
	for _, file := range files {
		if err := validateFile(cmd, r, file); err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return exitWith(ExitParseError, fmt.Errorf("validation failed"))
	}

	return nil
}

func validateFile(cmd *cobra.Command, r *runner.Runner, file string) error {
	doc, err := r.Load(file)
	if err != nil {
		return err
	}

	if _, err := markup.ParseAll(doc.PreRequestScript()); err != nil {
		return fmt.Errorf("document prerequest: %w", err)
	}
	if _, err := markup.ParseAll(doc.PostRequestScript()); err != nil {
		return fmt.Errorf("document test: %w", err)
	}

	session := r.NewSession(doc, nil)
	for _, step := range doc.Steps {
		if _, err := step.PreRequestDirectives(); err != nil {
			return err
		}
		if _, err := step.PostRequestDirectives(); err != nil {
			return err
		}
		for _, text := range stepTexts(step) {
			for _, name := range session.Resolver.Unresolved(text) {
				fmt.Fprintf(cmd.OutOrStderr(), "warning: %s: step %s: {{%s}} is not declared\n", file, step, name)
			}
		}
	}
	return nil
}

// stepTexts returns every request text of step that variables are
// substituted into.
func stepTexts(step *scenario.Step) []string {
	req := step.Request
	if req == nil {
		return nil
	}

	var out []string
	if req.URL != nil {
		out = append(out, req.URL.Raw)
		for _, q := range req.URL.Query {
			if !q.Disabled {
				out = append(out, q.Value)
			}
		}
	}
	for _, h := range req.Header {
		if !h.Disabled {
			out = append(out, h.Value)
		}
	}
	if req.Body != nil {
		out = append(out, req.Body.Raw)
		for _, kv := range req.Body.URLEncoded {
			if !kv.Disabled {
				out = append(out, kv.Value)
			}
		}
		for _, f := range req.Body.FormData {
			if !f.Disabled && f.Type != scenario.FormFieldFile {
				out = append(out, f.Value)
			}
		}
	}
	return out
}
