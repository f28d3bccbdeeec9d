package transcribe

import (
	"fmt"
)

// ErrTimeout is returned when a transcription request did not finish
// within the configured per-attempt timeout.
type ErrTimeout struct{}

func (e ErrTimeout) Error() string {
	return "the transcription request timed out"
}

// ErrAuth is returned on authentication/authorization failures. It is
// never retried: retrying with the same credentials cannot succeed.
type ErrAuth struct{}

func (e ErrAuth) Error() string {
	return "the transcription backend rejected the credentials"
}

// ErrServer is returned when the backend answered with a server-side
// error status.
type ErrServer struct {
	Code int
}

func (e ErrServer) Error() string {
	return fmt.Sprintf("the transcription backend returned status %d", e.Code)
}

// ErrNetwork wraps transport-level failures (connection refused, DNS,
// broken pipe, ...).
type ErrNetwork struct {
	Err error
}

func (e ErrNetwork) Error() string {
	return fmt.Sprintf("unable to reach the transcription backend: %v", e.Err)
}

func (e ErrNetwork) Unwrap() error {
	return e.Err
}
