package session

import (
	"fmt"
)

// ErrAlreadyStarted is returned by Start if the controller is already
// running (or was already stopped; a controller is single-use).
type ErrAlreadyStarted struct{}

func (e ErrAlreadyStarted) Error() string {
	return "the session is already started"
}

// ErrNotStarted is returned by Stop if Start was never called.
type ErrNotStarted struct{}

func (e ErrNotStarted) Error() string {
	return "the session was never started"
}

// ErrStopTimeout is returned by Stop when a pipeline stage did not
// finish within the stop timeout.
type ErrStopTimeout struct {
	Stage string
}

func (e ErrStopTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for the %s stage to finish", e.Stage)
}
