// Package runner executes scenario documents step by step.
//
// It provides functionality for:
//   - Loading, schema-checking and expanding a scenario file
//   - Running each step: pre-request directives, request preparation and
//     sending, response validation, post-request directives
//   - Expected-failure and skip handling
//   - Recording actual responses back into Postman collection exports
//   - Feeding API calls and step timings to an audit recorder
//
// Steps run sequentially. The environment scope and the datetime slot of the
// dynamic value generator live in a RunContext shared by every file of a run.
package runner
