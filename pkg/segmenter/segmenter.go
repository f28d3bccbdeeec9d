package segmenter

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/rivavoice/rivavoice/pkg/pcm"
	"github.com/rivavoice/rivavoice/pkg/vad"
)

// State is the speech/silence state of the segmenter.
type State int

const (
	StateCalibrating State = iota
	StateSilent
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "calibrating"
	case StateSilent:
		return "silent"
	case StateSpeaking:
		return "speaking"
	}
	return "unknown"
}

type Config struct {
	SampleRate int
	FrameSize  int

	// silence run length that commits a chunk
	SilenceDuration time.Duration

	// tail of the previous chunk prepended to the next one
	OverlapDuration time.Duration

	// chunks with less accumulated speech than this are discarded
	MinSpeechDuration time.Duration

	// frames of audio kept from just before speech onset
	PreRollFrames int

	// consecutive speech frames required to enter StateSpeaking
	SpeechTriggerFrames int

	CalibrationFrames int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:          16000,
		FrameSize:           1024,
		SilenceDuration:     2500 * time.Millisecond,
		OverlapDuration:     200 * time.Millisecond,
		MinSpeechDuration:   500 * time.Millisecond,
		PreRollFrames:       5,
		SpeechTriggerFrames: 3,
		CalibrationFrames:   vad.DefaultCalibrationFrames,
	}
}

// Chunk is one discrete audio segment ready for transcription:
// the previous chunk's overlap tail, pre-roll, speech and trailing silence.
type Chunk struct {
	Index          int
	Samples        []int16
	Duration       time.Duration
	SpeechDuration time.Duration
}

// Discard describes a pending chunk that was dropped for containing
// too little speech.
type Discard struct {
	SpeechDuration time.Duration
}

// Segmenter cuts a continuous frame stream into chunks at silence
// boundaries. It owns the VAD, the pre-roll FIFO and the overlap buffer,
// and is driven from exactly one goroutine.
type Segmenter struct {
	cfg Config
	det *vad.Detector

	state      State
	voiceRun   int
	silenceRun int

	mainBuf      []pcm.Frame
	preRoll      []pcm.Frame
	overlap      []pcm.Frame
	speechFrames int

	chunkIndex int
	discarded  int
	frameCount uint64

	frameDuration time.Duration
	overlapFrames int
}

func New(cfg Config) *Segmenter {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.SilenceDuration <= 0 {
		cfg.SilenceDuration = def.SilenceDuration
	}
	if cfg.OverlapDuration < 0 {
		cfg.OverlapDuration = def.OverlapDuration
	}
	if cfg.MinSpeechDuration < 0 {
		cfg.MinSpeechDuration = def.MinSpeechDuration
	}
	if cfg.PreRollFrames <= 0 {
		cfg.PreRollFrames = def.PreRollFrames
	}
	if cfg.SpeechTriggerFrames <= 0 {
		cfg.SpeechTriggerFrames = def.SpeechTriggerFrames
	}
	if cfg.CalibrationFrames <= 0 {
		cfg.CalibrationFrames = def.CalibrationFrames
	}

	return &Segmenter{
		cfg:           cfg,
		det:           vad.NewDetector(cfg.CalibrationFrames),
		state:         StateCalibrating,
		frameDuration: time.Duration(cfg.FrameSize) * time.Second / time.Duration(cfg.SampleRate),

		// overlap accounting is in whole frames, derived from the duration
		overlapFrames: int(cfg.OverlapDuration * time.Duration(cfg.SampleRate) / time.Second / time.Duration(cfg.FrameSize)),
	}
}

// Push feeds one captured frame through calibration, classification and
// segmentation. It returns a non-nil chunk when a silence boundary commits
// one, and a non-nil discard when a pending chunk was dropped for
// containing too little speech.
func (s *Segmenter) Push(ctx context.Context, frame pcm.Frame) (chunk *Chunk, discard *Discard) {
	rms := pcm.RMS(frame.Samples)

	if s.state == StateCalibrating {
		if s.det.Calibrate(ctx, rms) {
			s.state = StateSilent
		}
		// warm-up frames are neither classified nor buffered
		return nil, nil
	}

	// every frame lands in the main buffer (it is what overlap is cut
	// from) and in the pre-roll FIFO
	s.mainBuf = append(s.mainBuf, frame)
	s.preRoll = append(s.preRoll, frame)
	if len(s.preRoll) > s.cfg.PreRollFrames {
		s.preRoll = s.preRoll[1:]
	}

	isVoice := s.det.Classify(rms)
	if isVoice {
		s.speechFrames++
	}

	s.frameCount++
	if s.frameCount%10 == 0 {
		logger.Tracef(ctx, "audio level: rms=%.4f threshold=%.4f state=%v", rms, s.det.Threshold(), s.state)
	}

	switch s.state {
	case StateSilent:
		if !isVoice {
			s.voiceRun = 0
			break
		}
		s.voiceRun++
		if s.voiceRun >= s.cfg.SpeechTriggerFrames {
			s.state = StateSpeaking
			s.silenceRun = 0
			// credit the pre-roll to the speech duration, minus the frames
			// already counted toward the trigger
			if n := len(s.preRoll) - s.cfg.SpeechTriggerFrames; n > 0 {
				s.speechFrames += n
			}
			logger.Debugf(ctx, "voice detected (rms %.4f > %.4f)", rms, s.det.Threshold())
		}

	case StateSpeaking:
		if isVoice {
			// speech resumed before the silence run completed
			s.silenceRun = 0
			break
		}
		s.voiceRun = 0
		if s.silenceRun == 0 {
			logger.Debugf(ctx, "silence started (rms %.4f <= %.4f)", rms, s.det.Threshold())
		}
		s.silenceRun++
		if time.Duration(s.silenceRun)*s.frameDuration >= s.cfg.SilenceDuration {
			logger.Debugf(ctx, "committing a chunk after %v of silence", s.cfg.SilenceDuration)
			chunk, discard = s.commit(ctx)
			s.state = StateSilent
			s.silenceRun = 0
			s.voiceRun = 0
		}
	}

	return chunk, discard
}

// Flush force-commits whatever is buffered, subject to the same minimum
// speech gate. Called once when the session stops.
func (s *Segmenter) Flush(ctx context.Context) (*Chunk, *Discard) {
	if s.state == StateCalibrating || len(s.mainBuf) == 0 {
		return nil, nil
	}
	chunk, discard := s.commit(ctx)
	s.state = StateSilent
	s.silenceRun = 0
	s.voiceRun = 0
	return chunk, discard
}

func (s *Segmenter) commit(ctx context.Context) (*Chunk, *Discard) {
	speechDuration := time.Duration(s.speechFrames) * s.frameDuration

	if speechDuration < s.cfg.MinSpeechDuration {
		logger.Debugf(ctx, "discarding a chunk with insufficient speech: %v < %v", speechDuration, s.cfg.MinSpeechDuration)
		s.discarded++
		s.mainBuf = nil
		s.speechFrames = 0
		return nil, &Discard{SpeechDuration: speechDuration}
	}

	payload := make([]pcm.Frame, 0, len(s.overlap)+len(s.mainBuf))
	payload = append(payload, s.overlap...)
	payload = append(payload, s.mainBuf...)

	samples := make([]int16, 0, len(payload)*s.cfg.FrameSize)
	for _, f := range payload {
		samples = append(samples, f.Samples...)
	}

	chunk := &Chunk{
		Index:          s.chunkIndex,
		Samples:        samples,
		Duration:       time.Duration(len(payload)) * s.frameDuration,
		SpeechDuration: speechDuration,
	}
	s.chunkIndex++

	if len(s.mainBuf) > s.overlapFrames {
		s.overlap = append([]pcm.Frame(nil), s.mainBuf[len(s.mainBuf)-s.overlapFrames:]...)
	} else {
		s.overlap = append([]pcm.Frame(nil), s.mainBuf...)
	}
	s.mainBuf = nil
	s.speechFrames = 0

	logger.Debugf(ctx, "chunk %d committed: duration %v, speech %v", chunk.Index, chunk.Duration, chunk.SpeechDuration)
	return chunk, nil
}

func (s *Segmenter) State() State {
	return s.state
}

// NoiseFloor reports the calibrated noise floor, 0 before calibration.
func (s *Segmenter) NoiseFloor() float64 {
	return s.det.NoiseFloor()
}

// Threshold reports the calibrated silence threshold, 0 before calibration.
func (s *Segmenter) Threshold() float64 {
	return s.det.Threshold()
}

// DiscardedChunks reports how many pending chunks were dropped for not
// meeting the minimum speech duration.
func (s *Segmenter) DiscardedChunks() int {
	return s.discarded
}
