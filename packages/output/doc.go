// Package output provides formatters for displaying scenario run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output with body diffs
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Each formatter implements the Formatter interface and can optionally
// implement Flushable for formats that accumulate results before output.
package output
