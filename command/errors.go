package command

import "fmt"

// Error is the single failure type a command surfaces to the CLI.
type Error struct {
	Message string
	Cause   error
}

func Errorf(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
