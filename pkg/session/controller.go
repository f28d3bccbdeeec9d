// Package session runs the whole pipeline: it pulls PCM frames from a
// capture source, segments them into speech chunks, sends the chunks to
// a transcription backend and merges the results into one transcript.
package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"

	"github.com/rivavoice/rivavoice/pkg/capture"
	"github.com/rivavoice/rivavoice/pkg/pcm"
	"github.com/rivavoice/rivavoice/pkg/segmenter"
	"github.com/rivavoice/rivavoice/pkg/transcribe"
	"github.com/rivavoice/rivavoice/pkg/transcript"
)

type Config struct {
	Segmenter segmenter.Config
	Language  transcribe.Language

	// QueueDepth bounds how many committed chunks may wait for
	// transcription. When the queue is full, new chunks are dropped:
	// losing a chunk is better than capture falling behind real time.
	QueueDepth int

	// StopTimeout bounds how long Stop waits for in-flight chunks.
	StopTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Segmenter:   segmenter.DefaultConfig(),
		QueueDepth:  2,
		StopTimeout: 20 * time.Second,
	}
}

type Stats struct {
	ChunkCount      int
	DroppedChunks   int
	DiscardedChunks int
}

// Controller owns one recording session. It is single-use: after Stop
// it cannot be started again.
type Controller struct {
	locker xsync.Mutex

	id     uuid.UUID
	cfg    Config
	source capture.Source
	client transcribe.Client
	seg    *segmenter.Segmenter

	events chan Event
	chunks chan *segmenter.Chunk

	cancel      context.CancelFunc
	captureDone chan struct{}
	workerDone  chan struct{}

	started bool
	stopped bool

	transcript      string
	chunkCount      int
	droppedChunks   int
	discardedChunks int
}

func New(
	source capture.Source,
	client transcribe.Client,
	cfg Config,
) *Controller {
	def := DefaultConfig()
	if cfg.QueueDepth < 1 {
		cfg.QueueDepth = def.QueueDepth
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = def.StopTimeout
	}
	return &Controller{
		id:          uuid.New(),
		cfg:         cfg,
		source:      source,
		client:      client,
		seg:         segmenter.New(cfg.Segmenter),
		events:      make(chan Event, 64),
		chunks:      make(chan *segmenter.Chunk, cfg.QueueDepth),
		captureDone: make(chan struct{}),
		workerDone:  make(chan struct{}),
	}
}

func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Events returns the event stream. It is closed after Stop, once the
// last queued chunk was processed. The caller must keep draining it
// while the session runs.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) Start(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Start()")
	defer func() { logger.Debugf(ctx, "/Start(): %v", _err) }()

	return xsync.DoR1(ctx, &c.locker, func() error {
		if c.started {
			return ErrAlreadyStarted{}
		}
		c.started = true

		logger.Infof(ctx, "starting session %s", c.id)
		ctx, c.cancel = context.WithCancel(ctx)
		observability.Go(ctx, func() {
			defer close(c.captureDone)
			c.captureLoop(ctx)
		})
		observability.Go(ctx, func() {
			defer close(c.workerDone)
			defer close(c.events)
			c.workerLoop(ctx)
		})
		return nil
	})
}

// Stop cancels capture, flushes the buffered tail through the
// transcription backend and returns the final transcript. It is
// idempotent: repeated calls return the same transcript.
func (c *Controller) Stop(ctx context.Context) (_ret string, _err error) {
	logger.Debugf(ctx, "Stop()")
	defer func() { logger.Debugf(ctx, "/Stop(): %v", _err) }()

	var notStarted, alreadyStopped bool
	c.locker.Do(ctx, func() {
		switch {
		case !c.started:
			notStarted = true
		case c.stopped:
			alreadyStopped = true
		default:
			c.stopped = true
		}
	})
	if notStarted {
		return "", ErrNotStarted{}
	}
	if alreadyStopped {
		return c.Transcript(ctx), nil
	}

	c.cancel()
	if err := c.source.Close(); err != nil {
		logger.Errorf(ctx, "unable to close the audio source: %v", err)
	}

	deadline := time.NewTimer(c.cfg.StopTimeout)
	defer deadline.Stop()
	select {
	case <-c.captureDone:
	case <-deadline.C:
		return "", ErrStopTimeout{Stage: "capture"}
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case <-c.workerDone:
	case <-deadline.C:
		return "", ErrStopTimeout{Stage: "transcription"}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return c.Transcript(ctx), nil
}

func (c *Controller) Transcript(ctx context.Context) string {
	return xsync.DoR1(ctx, &c.locker, func() string {
		return c.transcript
	})
}

func (c *Controller) Stats(ctx context.Context) Stats {
	return xsync.DoR1(ctx, &c.locker, func() Stats {
		return Stats{
			ChunkCount:      c.chunkCount,
			DroppedChunks:   c.droppedChunks,
			DiscardedChunks: c.discardedChunks,
		}
	})
}

func (c *Controller) captureLoop(ctx context.Context) {
	logger.Debugf(ctx, "captureLoop()")
	defer func() { logger.Debugf(ctx, "/captureLoop()") }()
	defer close(c.chunks)

	for {
		frame, err := c.source.ReadFrame(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				logger.Debugf(ctx, "the audio source is drained")
			case ctx.Err() != nil:
				logger.Debugf(ctx, "capture cancelled")
			default:
				logger.Errorf(ctx, "unable to read an audio frame: %v", err)
			}
			break
		}

		chunk, discard := c.seg.Push(ctx, frame)
		if discard != nil {
			c.locker.Do(ctx, func() { c.discardedChunks++ })
			c.emit(ctx, EventChunkDiscarded{SpeechDuration: discard.SpeechDuration})
		}
		if chunk != nil {
			c.enqueue(ctx, chunk)
		}
	}

	// Whatever is still buffered becomes the last chunk; the worker is
	// guaranteed to drain the queue, so a blocking send is safe here.
	flushCtx := xcontext.DetachDone(ctx)
	if chunk, discard := c.seg.Flush(flushCtx); chunk != nil {
		c.chunks <- chunk
		c.locker.Do(flushCtx, func() { c.chunkCount++ })
		c.emit(flushCtx, EventChunk{
			Index:          chunk.Index,
			Duration:       chunk.Duration,
			SpeechDuration: chunk.SpeechDuration,
		})
	} else if discard != nil {
		c.locker.Do(flushCtx, func() { c.discardedChunks++ })
		c.emit(flushCtx, EventChunkDiscarded{SpeechDuration: discard.SpeechDuration})
	}
}

func (c *Controller) enqueue(ctx context.Context, chunk *segmenter.Chunk) {
	select {
	case c.chunks <- chunk:
		c.locker.Do(ctx, func() { c.chunkCount++ })
		c.emit(ctx, EventChunk{
			Index:          chunk.Index,
			Duration:       chunk.Duration,
			SpeechDuration: chunk.SpeechDuration,
		})
	default:
		c.locker.Do(ctx, func() { c.droppedChunks++ })
		logger.Warnf(ctx, "the transcription queue is full, dropping chunk %d (%v of audio)", chunk.Index, chunk.Duration)
	}
}

// emit is used on the capture side, which must never block on a slow
// event consumer; the events here are informational only.
func (c *Controller) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	default:
		logger.Tracef(ctx, "the event queue is full, dropping %T", ev)
	}
}

func (c *Controller) workerLoop(ctx context.Context) {
	logger.Debugf(ctx, "workerLoop()")
	defer func() { logger.Debugf(ctx, "/workerLoop()") }()

	for chunk := range c.chunks {
		c.processChunk(ctx, chunk)
	}
}

func (c *Controller) processChunk(ctx context.Context, chunk *segmenter.Chunk) {
	logger.Debugf(ctx, "processChunk(%d)", chunk.Index)
	defer func() { logger.Debugf(ctx, "/processChunk(%d)", chunk.Index) }()

	wavData, err := pcm.EncodeWAV(chunk.Samples, c.cfg.Segmenter.SampleRate)
	if err != nil {
		logger.Errorf(ctx, "unable to encode chunk %d: %v", chunk.Index, err)
		c.events <- EventTranscribeError{Index: chunk.Index, Err: err}
		return
	}

	// Stop cancels ctx, but chunks that were already captured still
	// deserve a transcription attempt.
	text, err := c.client.Transcribe(xcontext.DetachDone(ctx), wavData, c.cfg.Language)
	if err != nil {
		logger.Errorf(ctx, "unable to transcribe chunk %d: %v", chunk.Index, err)
		c.events <- EventTranscribeError{Index: chunk.Index, Err: err}
		return
	}

	cleaned := transcript.Clean(text)
	if cleaned == "" {
		return
	}
	if isHallucination(ctx, cleaned) {
		logger.Debugf(ctx, "chunk %d looks like a hallucination, skipping: '%s'", chunk.Index, cleaned)
		return
	}

	previous := c.Transcript(ctx)
	merged, newText := transcript.Merge(previous, cleaned)
	if newText == "" && merged == previous {
		logger.Debugf(ctx, "chunk %d added nothing new", chunk.Index)
		return
	}
	newText = transcript.EnsureLeadingSpace(previous, newText)
	c.locker.Do(ctx, func() { c.transcript = merged })

	c.events <- EventTranscript{
		Index:      chunk.Index,
		NewText:    newText,
		Transcript: merged,
	}
}
