// Package http sends the requests described by scenario steps.
//
// It wraps the standard library's http package with:
//   - configurable timeouts, redirect handling, TLS verification and proxy
//   - an optional client-side rate limit
//   - raw, urlencoded and multipart bodies, including file parts
//   - a captured Response with status code, reason text, headers, body and
//     timing
package http
