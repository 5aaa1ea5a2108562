// Package cmd implements the scenarist CLI commands using Cobra.
//
// Available commands:
//   - run: Execute scenario files or a scenario set
//   - expand: Print a scenario with its references flattened
//   - validate: Check scenario files, references and directives without sending requests
//   - list: Display the steps of scenario files with their directives
//   - init: Create a test config, scenario set and example scenario
//   - version: Show scenarist version information
//
// Flags fall back to SCENARIST_* environment variables.
package cmd
