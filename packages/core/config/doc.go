// Package config loads the test configuration and scenario sets of a run.
//
// It provides functionality for:
//   - Loading test_config.yaml (system under test, environment variables,
//     excluded response properties, client settings)
//   - Default configuration values and merging of overrides
//   - Selecting scenario files through scenario_set.yaml data dirs and
//     patterns
package config
