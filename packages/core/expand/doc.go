// Package expand flattens scenario documents that pull in other documents.
//
// A control step is an OPTIONS step whose scripts carry a
// <refer-scenario-file:path> directive. The expander replaces it with the
// steps of the referenced document, recursively, and passes the control
// step's prerequest set-variable lines on to the first inserted step.
// Reference cycles and referenced documents declaring variables the caller
// does not know are rejected before any request is sent.
package expand
