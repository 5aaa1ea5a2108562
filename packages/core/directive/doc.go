// Package directive executes parsed markup directives around a step's
// request.
//
// Pre-request directives run before the request is built. Post-request
// directives run once a response has been captured and are skipped when
// there is none. set-variable writes into every scope tier that already
// declares the name; skip ends processing of the step; xfail only marks it.
package directive
