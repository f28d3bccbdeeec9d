package transcribe

import (
	"context"
)

// Client turns an encoded audio chunk into text. Implementations are
// expected to bound every call with a timeout; the pipeline treats any
// returned error as "this chunk is lost" and keeps going.
type Client interface {
	Transcribe(ctx context.Context, wavData []byte, language Language) (string, error)
}
