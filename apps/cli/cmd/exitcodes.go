package cmd

// Exit codes for scenarist CLI
const (
	// ExitSuccess indicates all steps passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more steps failed
	ExitTestFailure = 1

	// ExitParseError indicates a scenario file could not be loaded or expanded
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code of a failed command. A nil Err
// exits without printing.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitWith(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
