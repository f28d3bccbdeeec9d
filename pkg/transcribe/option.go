package transcribe

import (
	"time"
)

type config struct {
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint
	Prompt     string
}

func defaultConfig() config {
	return config{
		Model:      "whisper-1",
		Timeout:    30 * time.Second,
		MaxRetries: 2,
	}
}

type Option interface {
	apply(*config)
}

type Options []Option

func (opts Options) apply(cfg *config) {
	for _, opt := range opts {
		opt.apply(cfg)
	}
}

func (opts Options) config() config {
	cfg := defaultConfig()
	opts.apply(&cfg)
	return cfg
}

// OptionModel overrides the transcription model name.
type OptionModel string

func (opt OptionModel) apply(cfg *config) {
	cfg.Model = string(opt)
}

// OptionBaseURL points the client at a different API endpoint, e.g. a
// local whisper.cpp server with an OpenAI-compatible API.
type OptionBaseURL string

func (opt OptionBaseURL) apply(cfg *config) {
	cfg.BaseURL = string(opt)
}

// OptionTimeout bounds each request attempt.
type OptionTimeout time.Duration

func (opt OptionTimeout) apply(cfg *config) {
	cfg.Timeout = time.Duration(opt)
}

// OptionMaxRetries sets how many times a failed attempt is repeated.
// Only timeouts, network errors and server-side errors are retried.
type OptionMaxRetries uint

func (opt OptionMaxRetries) apply(cfg *config) {
	cfg.MaxRetries = uint(opt)
}

// OptionPrompt sets an optional context prompt passed along with each
// chunk to bias the model towards domain vocabulary.
type OptionPrompt string

func (opt OptionPrompt) apply(cfg *config) {
	cfg.Prompt = string(opt)
}
