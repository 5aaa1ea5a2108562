// Package audit records which API calls a run made and how long each step
// took.
//
// The Recorder keeps:
//   - a count per "METHOD URL" key, written to api_calls.csv
//   - an HDR histogram of step durations for percentile summaries
//
// A Store optionally persists the same data into a SQLite database so that
// several runs can be compared.
package audit
