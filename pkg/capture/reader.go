package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rivavoice/rivavoice/pkg/pcm"
)

// ReaderSource adapts any raw PCM16LE byte stream (stdin, a pipe, a test
// buffer) into a frame-oriented Source.
type ReaderSource struct {
	r         io.Reader
	frameSize int
	seq       uint64
	buf       []byte
}

var _ Source = (*ReaderSource)(nil)

func NewReaderSource(r io.Reader, frameSize int) *ReaderSource {
	return &ReaderSource{
		r:         r,
		frameSize: frameSize,
		buf:       make([]byte, frameSize*2),
	}
}

func (s *ReaderSource) ReadFrame(ctx context.Context) (pcm.Frame, error) {
	select {
	case <-ctx.Done():
		return pcm.Frame{}, ctx.Err()
	default:
	}

	n, err := io.ReadFull(s.r, s.buf)
	if err != nil {
		if err == io.ErrUnexpectedEOF && n >= 2 {
			// a short trailing read still yields a final (padded) frame
			for i := n; i < len(s.buf); i++ {
				s.buf[i] = 0
			}
		} else if err == io.EOF || err == io.ErrUnexpectedEOF {
			return pcm.Frame{}, io.EOF
		} else {
			return pcm.Frame{}, fmt.Errorf("unable to read audio: %w", err)
		}
	}

	samples := make([]int16, s.frameSize)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(s.buf[i*2:]))
	}

	frame := pcm.Frame{Samples: samples, Seq: s.seq}
	s.seq++
	return frame, nil
}

func (s *ReaderSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
