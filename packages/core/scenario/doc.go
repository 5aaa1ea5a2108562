// Package scenario models scenario documents and loads them from disk.
//
// A scenario document is a Postman-collection-shaped JSON file: an info
// block, a variable list that seeds the scenario scope, an ordered list of
// steps (items) and optional document-level events. Each step carries a
// request, zero or more expected responses, and prerequest/test events
// whose script lines may hold markup directives.
//
// FileStore validates every document against an embedded JSON schema
// before decoding it.
package scenario
