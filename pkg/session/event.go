package session

import (
	"time"
)

// Event is what a Controller reports on its Events channel. The
// concrete types below are the only implementations.
type Event interface {
	isEvent()
}

// EventChunk is emitted when the segmenter commits a chunk and it was
// queued for transcription.
type EventChunk struct {
	Index          int
	Duration       time.Duration
	SpeechDuration time.Duration
}

// EventChunkDiscarded is emitted when a committed chunk did not contain
// enough speech and was thrown away without transcription.
type EventChunkDiscarded struct {
	SpeechDuration time.Duration
}

// EventTranscript is emitted when a chunk's transcription was merged
// into the running transcript. NewText is only the part the chunk
// added; Transcript is the full text so far.
type EventTranscript struct {
	Index      int
	NewText    string
	Transcript string
}

// EventTranscribeError is emitted when a chunk could not be
// transcribed; the session keeps going, the chunk's audio is lost.
type EventTranscribeError struct {
	Index int
	Err   error
}

func (EventChunk) isEvent()           {}
func (EventChunkDiscarded) isEvent()  {}
func (EventTranscript) isEvent()      {}
func (EventTranscribeError) isEvent() {}
