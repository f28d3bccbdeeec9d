// Package config holds the YAML configuration of the transcription
// pipeline, with defaults that match a typical desktop microphone
// setup (16 kHz mono, 64 ms frames).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rivavoice/rivavoice/pkg/segmenter"
	"github.com/rivavoice/rivavoice/pkg/transcribe"
)

type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	VAD           VADConfig           `yaml:"vad"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Session       SessionConfig       `yaml:"session"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	FrameSize  int `yaml:"frame_size"` // samples per frame
}

type VADConfig struct {
	CalibrationFrames int `yaml:"calibration_frames"`
}

type ChunkingConfig struct {
	SilenceDuration     float64 `yaml:"silence_duration"`    // seconds
	OverlapDuration     float64 `yaml:"overlap_duration"`    // seconds
	MinSpeechDuration   float64 `yaml:"min_speech_duration"` // seconds
	PreRollFrames       int     `yaml:"pre_roll_frames"`
	SpeechTriggerFrames int     `yaml:"speech_trigger_frames"`
}

type TranscriptionConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxRetries int    `yaml:"max_retries"`
	Prompt     string `yaml:"prompt"`
}

type SessionConfig struct {
	QueueDepth  int `yaml:"queue_depth"`
	StopTimeout int `yaml:"stop_timeout"` // seconds
}

// Default returns a configuration that works without a config file;
// only the API key has to come from the environment.
func Default() *Config {
	seg := segmenter.DefaultConfig()
	return &Config{
		Audio: AudioConfig{
			SampleRate: seg.SampleRate,
			FrameSize:  seg.FrameSize,
		},
		VAD: VADConfig{
			CalibrationFrames: seg.CalibrationFrames,
		},
		Chunking: ChunkingConfig{
			SilenceDuration:     seg.SilenceDuration.Seconds(),
			OverlapDuration:     seg.OverlapDuration.Seconds(),
			MinSpeechDuration:   seg.MinSpeechDuration.Seconds(),
			PreRollFrames:       seg.PreRollFrames,
			SpeechTriggerFrames: seg.SpeechTriggerFrames,
		},
		Transcription: TranscriptionConfig{
			Model:      "whisper-1",
			Timeout:    30,
			MaxRetries: 2,
		},
		Session: SessionConfig{
			QueueDepth:  2,
			StopTimeout: 20,
		},
	}
}

// Load reads the configuration from path, overlaying it on the
// defaults. A missing file is not an error: the defaults are used.
// OPENAI_API_KEY in the environment overrides transcription.api_key.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file '%s': %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("unable to read config file '%s': %w", path, err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Transcription.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking config: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}
	if a.FrameSize < 160 || a.FrameSize > 8192 {
		return fmt.Errorf("frame_size must be between 160 and 8192 samples, got %d", a.FrameSize)
	}
	return nil
}

func (v *VADConfig) Validate() error {
	if v.CalibrationFrames < 1 {
		return fmt.Errorf("calibration_frames must be at least 1, got %d", v.CalibrationFrames)
	}
	return nil
}

func (c *ChunkingConfig) Validate() error {
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("silence_duration must be positive, got %f", c.SilenceDuration)
	}
	if c.OverlapDuration < 0 {
		return fmt.Errorf("overlap_duration cannot be negative, got %f", c.OverlapDuration)
	}
	if c.MinSpeechDuration < 0 {
		return fmt.Errorf("min_speech_duration cannot be negative, got %f", c.MinSpeechDuration)
	}
	if c.PreRollFrames < 0 {
		return fmt.Errorf("pre_roll_frames cannot be negative, got %d", c.PreRollFrames)
	}
	if c.SpeechTriggerFrames < 1 {
		return fmt.Errorf("speech_trigger_frames must be at least 1, got %d", c.SpeechTriggerFrames)
	}
	return nil
}

func (t *TranscriptionConfig) Validate() error {
	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}
	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}
	return nil
}

func (s *SessionConfig) Validate() error {
	if s.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", s.QueueDepth)
	}
	if s.StopTimeout < 1 {
		return fmt.Errorf("stop_timeout must be at least 1 second, got %d", s.StopTimeout)
	}
	return nil
}

// SegmenterConfig converts the audio/vad/chunking sections into the
// segmenter's native representation.
func (c *Config) SegmenterConfig() segmenter.Config {
	return segmenter.Config{
		SampleRate:          c.Audio.SampleRate,
		FrameSize:           c.Audio.FrameSize,
		SilenceDuration:     time.Duration(c.Chunking.SilenceDuration * float64(time.Second)),
		OverlapDuration:     time.Duration(c.Chunking.OverlapDuration * float64(time.Second)),
		MinSpeechDuration:   time.Duration(c.Chunking.MinSpeechDuration * float64(time.Second)),
		PreRollFrames:       c.Chunking.PreRollFrames,
		SpeechTriggerFrames: c.Chunking.SpeechTriggerFrames,
		CalibrationFrames:   c.VAD.CalibrationFrames,
	}
}

// TranscribeOptions converts the transcription section into client
// options (everything except the API key, which NewOpenAI takes
// directly).
func (t *TranscriptionConfig) TranscribeOptions() transcribe.Options {
	opts := transcribe.Options{
		transcribe.OptionModel(t.Model),
		transcribe.OptionTimeout(time.Duration(t.Timeout) * time.Second),
		transcribe.OptionMaxRetries(uint(t.MaxRetries)),
	}
	if t.BaseURL != "" {
		opts = append(opts, transcribe.OptionBaseURL(t.BaseURL))
	}
	if t.Prompt != "" {
		opts = append(opts, transcribe.OptionPrompt(t.Prompt))
	}
	return opts
}

// GetLanguage returns the configured language tag.
func (t *TranscriptionConfig) GetLanguage() transcribe.Language {
	return transcribe.Language(t.Language)
}

// StopTimeoutDuration returns the session stop timeout as a
// time.Duration.
func (s *SessionConfig) StopTimeoutDuration() time.Duration {
	return time.Duration(s.StopTimeout) * time.Second
}
