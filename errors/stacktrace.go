package errors

import (
	"github.com/pkg/errors"
)

// stackTracer is implemented by all pkg/errors instances carrying a stack.
type stackTracer interface {
	error
	StackTrace() errors.StackTrace
}

// stackTrace returns the innermost stack trace attached to given error, or
// nil if none of the wrapped errors carries one.
func stackTrace(err error) errors.StackTrace {
	var found errors.StackTrace
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			found = st.StackTrace()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return found
}
