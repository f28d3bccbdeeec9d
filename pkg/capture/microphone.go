package capture

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/audio/pkg/audio"

	"github.com/rivavoice/rivavoice/pkg/pcm"
)

// Microphone captures the default input device as mono PCM16LE at the
// requested sample rate. The recorder backend streams into a pipe, and
// frames are cut from the pipe's read side.
type Microphone struct {
	frames     *ReaderSource
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	stream     io.Closer
	onceCloser onceCloser
}

var _ Source = (*Microphone)(nil)

func OpenMicrophone(
	ctx context.Context,
	sampleRate int,
	frameSize int,
) (_ *Microphone, _err error) {
	logger.Debugf(ctx, "OpenMicrophone(ctx, %d, %d)", sampleRate, frameSize)
	defer func() { logger.Debugf(ctx, "/OpenMicrophone(ctx, %d, %d): %v", sampleRate, frameSize, _err) }()

	r, w := io.Pipe()
	recorder := audio.NewRecorderAuto(ctx)
	logger.Infof(ctx, "using %T as the audio input", recorder.RecorderPCM)

	stream, err := recorder.RecordPCM(
		ctx,
		audio.SampleRate(sampleRate),
		audio.Channel(1),
		audio.PCMFormatS16LE,
		w,
	)
	if err != nil {
		w.Close()
		r.Close()
		return nil, ErrDevice{Err: fmt.Errorf("unable to start recording: %w", err)}
	}

	return &Microphone{
		frames:     NewReaderSource(r, frameSize),
		pipeReader: r,
		pipeWriter: w,
		stream:     stream,
	}, nil
}

func (m *Microphone) ReadFrame(ctx context.Context) (pcm.Frame, error) {
	frame, err := m.frames.ReadFrame(ctx)
	if err != nil && err != io.EOF && ctx.Err() == nil {
		return pcm.Frame{}, ErrDevice{Err: err}
	}
	return frame, err
}

func (m *Microphone) Close() error {
	var mErr *multierror.Error
	m.onceCloser.Do(func() {
		if err := m.stream.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("stream.Close(): %w", err))
		}
		if err := m.pipeWriter.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("pipeWriter.Close(): %w", err))
		}
		if err := m.pipeReader.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("pipeReader.Close(): %w", err))
		}
	})
	return mErr.ErrorOrNil()
}
