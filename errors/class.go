package errors

import "fmt"

// InvalidInputError marks a request the caller should correct and resubmit,
// such as an empty utterance or a missing action parameter.
type InvalidInputError struct {
	Msg string
	Err error
}

func (e *InvalidInputError) Error() string { return describe("invalid input", e.Msg, e.Err) }
func (e *InvalidInputError) Unwrap() error { return e.Err }

// TransientError marks a failure of an external service that may succeed
// if retried: rate limiting, 5xx responses, timeouts.
type TransientError struct {
	Msg string
	Err error
}

func (e *TransientError) Error() string { return describe("transient", e.Msg, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a failure that retrying cannot fix, such as missing
// credentials or configuration. The interactive session ends on it.
type FatalError struct {
	Msg string
	Err error
}

func (e *FatalError) Error() string { return describe("fatal", e.Msg, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

// InvalidInput returns an InvalidInputError with a formatted message.
func InvalidInput(format string, a ...interface{}) error {
	return &InvalidInputError{Msg: fmt.Sprintf(format, a...)}
}

// Transient wraps err as a TransientError. A nil err yields nil.
func Transient(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return err
	}
	return &TransientError{Msg: fmt.Sprintf(format, a...), Err: err}
}

// Fatal wraps err as a FatalError. err may be nil when the failure has no
// underlying cause, e.g. a missing environment variable.
func Fatal(err error, format string, a ...interface{}) error {
	return &FatalError{Msg: fmt.Sprintf(format, a...), Err: err}
}

func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return As(err, &e)
}

func IsTransient(err error) bool {
	var e *TransientError
	return As(err, &e)
}

func IsFatal(err error) bool {
	var e *FatalError
	return As(err, &e)
}

// Message returns the user-facing text of a classified error, without
// the cause chain. Unclassified errors return err.Error().
func Message(err error) string {
	var (
		ii *InvalidInputError
		tr *TransientError
		fa *FatalError
	)
	switch {
	case As(err, &ii):
		return ii.Msg
	case As(err, &tr):
		return tr.Msg
	case As(err, &fa):
		return fa.Msg
	default:
		return err.Error()
	}
}

func describe(kind, msg string, cause error) string {
	switch {
	case msg == "" && cause == nil:
		return kind
	case cause == nil:
		return fmt.Sprintf("%s: %s", kind, msg)
	case msg == "":
		return fmt.Sprintf("%s: %v", kind, cause)
	default:
		return fmt.Sprintf("%s: %s: %v", kind, msg, cause)
	}
}
