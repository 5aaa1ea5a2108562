// Package capture reads values out of JSON response bodies so later steps
// can use them.
//
// A source path is dot separated:
//   - object members are selected by key
//   - numeric segments index into arrays
//   - any other segment applied to an array is tried against each element
//     in order, and the first non-null hit wins
//   - a /regex/ segment is removed from the path and applied to the
//     extracted text; the first match (or first group) is kept
//
// Extracted text that looks like a JSON array or object is decoded.
package capture
