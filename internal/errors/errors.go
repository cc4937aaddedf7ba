package errors

import "fmt"

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// BusinessConflictError is a semantic rejection reported by the facility
// store, e.g. a duplicate name. Recoverable by the user, surfaced as its
// own modal rather than a field error.
type BusinessConflictError struct {
	Bcode int
}

func (e *BusinessConflictError) Error() string {
	return fmt.Sprintf("store rejected submission with business code %d", e.Bcode)
}

// SubmissionError is any other transport or server failure during submit.
// Surfaced as a generic modal; never mapped onto field slots.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return "submission failed: " + e.Err.Error()
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
