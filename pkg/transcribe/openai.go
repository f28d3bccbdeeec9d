package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAI transcribes chunks through an OpenAI-compatible audio
// transcription endpoint (api.openai.com or any server that speaks the
// same protocol, e.g. a local whisper.cpp server).
type OpenAI struct {
	client *openai.Client
	cfg    config
}

var _ Client = (*OpenAI)(nil)

func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	cfg := Options(opts).config()
	if apiKey == "" {
		return nil, fmt.Errorf("an API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

func (o *OpenAI) Transcribe(
	ctx context.Context,
	wavData []byte,
	language Language,
) (_ret string, _err error) {
	logger.Debugf(ctx, "Transcribe(%d bytes, '%s')", len(wavData), language)
	defer func() { logger.Debugf(ctx, "/Transcribe(): %d chars, %v", len(_ret), _err) }()

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := uint(0); attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt != 0 {
			logger.Debugf(ctx, "retrying the transcription request (attempt %d): %v", attempt, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := o.transcribeOnce(ctx, wavData, language)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}
	return "", lastErr
}

func (o *OpenAI) transcribeOnce(
	ctx context.Context,
	wavData []byte,
	language Language,
) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.CreateTranscription(attemptCtx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(wavData),
		Language: string(language.Family()),
		Prompt:   o.cfg.Prompt,
	})
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", ErrTimeout{}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", ErrAuth{}
			default:
				return "", ErrServer{Code: apiErr.HTTPStatusCode}
			}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", ErrServer{Code: reqErr.HTTPStatusCode}
		}
		return "", ErrNetwork{Err: err}
	}
	return resp.Text, nil
}

func isRetryable(err error) bool {
	switch e := err.(type) {
	case ErrTimeout, ErrNetwork:
		return true
	case ErrServer:
		return e.Code >= 500 || e.Code == http.StatusTooManyRequests
	}
	return false
}
