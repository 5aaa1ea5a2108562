package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/scenarist/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new scenarist project",
	Long: `Initialize a new scenarist project in the current directory.

This creates:
  - test_config.yaml                   - System under test and run settings
  - scenario_set.yaml                  - Scenario selection for 'run --scenario-set'
  - scenarios/example/resources.json   - Example scenario

Examples:
  scenarist init
  scenarist init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleScenario = `{
  "info": {
    "name": "resources",
    "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
  },
  "variable": [
    {"key": "resourceId", "value": ""}
  ],
  "item": [
    {
      "name": "health check",
      "request": {"method": "GET", "url": "{{url}}/health"},
      "response": [{"code": 200}]
    },
    {
      "name": "create resource",
      "event": [
        {"listen": "test", "script": {"exec": ["// <set-variable:resourceId:response:id>"]}}
      ],
      "request": {
        "method": "POST",
        "header": [{"key": "Content-Type", "value": "application/json"}],
        "body": {"mode": "raw", "raw": "{\"name\": \"{{$randomAlphaNumeric}}\"}"},
        "url": "{{url}}/resources"
      },
      "response": [{"code": 201}]
    },
    {
      "name": "get resource",
      "event": [
        {"listen": "prerequest", "script": {"exec": ["// <is-partial-response-validation:keys_only>"]}}
      ],
      "request": {"method": "GET", "url": "{{url}}/resources/{{resourceId}}"},
      "response": [{"code": 200, "body": "{\"id\": \"{{resourceId}}\", \"name\": \"\"}"}]
    }
  ]
}
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	setFile := filepath.Join(cwd, "scenario_set.yaml")
	exampleFile := filepath.Join(cwd, "scenarios", "example", "resources.json")

	if !forceInit {
		for _, f := range []string{configFile, setFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	testConfig := config.DefaultConfig()
	testConfig.Name = "local"
	testConfig.SystemUnderTest = config.SystemUnderTest{
		Hostname: "localhost",
		URL:      "http://localhost:3000",
		APIPath:  "/api",
	}
	testConfig.ResponseValidation.ResponseBody.ExcludedProperties = []string{"createdAt", "updatedAt"}
	if err := testConfig.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	set := config.ScenarioSet{
		Name:     "smoke",
		DataDir:  "scenarios",
		Patterns: []string{"example/*"},
	}
	setYAML, err := yaml.Marshal(set)
	if err != nil {
		return err
	}
	if err := os.WriteFile(setFile, setYAML, 0644); err != nil {
		return fmt.Errorf("failed to create scenario set: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", setFile)

	if err := os.MkdirAll(filepath.Dir(exampleFile), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(exampleFile, []byte(exampleScenario), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nscenarist project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'scenarist run --scenario-set scenario_set.yaml' to execute the example scenario.\n")

	return nil
}
