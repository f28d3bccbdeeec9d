package capture

import (
	"context"
	"fmt"
	"io"

	"github.com/rivavoice/rivavoice/pkg/pcm"
)

// Source produces fixed-size PCM frames from an audio input. ReadFrame
// blocks for at most roughly one frame period, so a cooperative stop is
// observed quickly by whoever drives the read loop.
type Source interface {
	io.Closer
	ReadFrame(ctx context.Context) (pcm.Frame, error)
}

// ErrDevice means the audio input device could not be opened or read.
// It is fatal to a recording session.
type ErrDevice struct {
	Err error
}

func (e ErrDevice) Error() string {
	return fmt.Sprintf("unable to access the audio input device: %v", e.Err)
}

func (e ErrDevice) Unwrap() error {
	return e.Err
}
