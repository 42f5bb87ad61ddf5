// -----------------------------------------------------------------------
// Safe Goroutine - panic-to-error conversion for pipeline workers
// -----------------------------------------------------------------------

package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
)

// PanicError is returned by RecoverAsError when a worker panicked
type PanicError struct {
	Name  string
	Value interface{}
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Name, e.Value)
}

// RecoverAsError converts a panic in the calling goroutine into an error stored in errp.
// Usage inside errgroup workers:
//
//	g.Go(func() (err error) {
//	    defer common.RecoverAsError(logger, "risk_assessment", &err)
//	    ...
//	})
func RecoverAsError(logger arbor.ILogger, name string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	stack := GetStackTrace()
	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", stack).
			Msg("Recovered from panic in worker")
	}
	if errp != nil {
		*errp = &PanicError{Name: name, Value: r, Stack: stack}
	}
}
