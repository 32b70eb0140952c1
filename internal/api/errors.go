package api

import "fmt"

// Error is the single failure shape the pipeline surfaces. Transport faults,
// schema mismatches and backend business errors all normalize into it, so
// callers only ever branch on Message for display.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// transportMessage deliberately hides the underlying transport detail; raw
// transport errors never reach callers.
const transportMessage = "Invalid server response."

func errTransport() *Error {
	return &Error{Message: transportMessage}
}

func errStatus(code int) *Error {
	return &Error{Message: fmt.Sprintf("Request failed with status %d.", code)}
}

// AsError converts any error into the pipeline shape. Errors that already
// carry a message pass through; everything else collapses to the generic
// transport message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*Error); ok {
		return apiErr
	}
	return errTransport()
}
