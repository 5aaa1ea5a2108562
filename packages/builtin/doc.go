// Package builtin generates the dynamic values that scenario documents
// reference with a leading $ inside a {{...}} token.
//
// Available generators:
//   - $guid: random UUID v4 rendered as 32 hex characters
//   - $randomPositiveInteger / $randomNegativeInteger: random non-zero integer
//   - $randomAlphaNumeric: 16 random letters and digits
//   - $randomPassword: 8 random letters, digits and %$@#!&
//   - $currentDate: today as YYYY-MM-DD, accepts a +N / -N day offset
//   - $randomDatePast / $randomDateFuture: a date 1 to 365 days away
//   - $randomStartDateTimeFuture: a future HTTP date, remembered by the generator
//   - $randomEndDateTimeFuture: three minutes after the remembered start
//
// Only $currentDate accepts an offset, e.g. {{$currentDate-5}}.
package builtin
