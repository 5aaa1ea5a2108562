// Package markup parses the inline directives embedded in scenario scripts.
//
// A directive is written as <op:arg1:arg2...> inside a script line:
//   - <skip:reason>
//   - <xfail:reason>
//   - <set-variable:name:value:literal text with {{tokens}}>
//   - <set-variable:name:response:path.to.property./regex/>
//   - <refer-scenario-file:relative/path.json>
//   - <is-partial-response-validation:keys_only|keys_and_values>
//
// Lines without a directive are plain text and are ignored.
package markup
