package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "scenarist",
	Short: "Declarative API scenarios. Run them, chain them, record them.",
	Long: `scenarist runs API test scenarios stored as Postman-style JSON collections.
Steps are annotated with small directives in their event scripts that skip,
mark expected failures, capture response values into variables, relax
response validation or pull in the steps of another scenario file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintln(os.Stderr, "Error:", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitUsageError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("SCENARIST_CONFIG", ""), "Path to test config file (env: SCENARIST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("SCENARIST_ENV_FILE", ""), "Path to .env file with extra environment variables (env: SCENARIST_ENV_FILE)")
	rootCmd.PersistentFlags().StringVar(&dataRootFlag, "data-root", getEnvString("SCENARIST_DATA_ROOT", ""), "Directory scenario references are resolved under (env: SCENARIST_DATA_ROOT)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
