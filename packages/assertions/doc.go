// Package assertions checks captured responses against the responses a step
// expects.
//
// Each expected entry may set a status code, a status text and a body. The
// entries are tried in order and the first one whose set fields all match
// wins. Status "OK" accepts any status code below 400. Bodies are compared
// as JSON when both sides parse:
//   - full validation removes the configured excluded property names at
//     every depth, then requires deep equality
//   - keys_only partial validation passes when no top-level expected key is
//     missing from the actual body
//   - keys_and_values partial validation passes when no expected key is
//     missing, or when no value differs
//
// Bodies that are not JSON are compared as text.
package assertions
