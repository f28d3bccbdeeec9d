package session

import (
	"context"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/lazybeaver/entropy"
)

const (
	// EntropyMin is the minimum Shannon entropy a long transcription
	// must have to be considered real speech. Stuck models produce
	// highly repetitive text with entropy well below this.
	EntropyMin = 3.63

	// EntropyDetectorLenMin is the text length below which the entropy
	// check is skipped: short phrases legitimately have low entropy.
	EntropyDetectorLenMin = 80
)

// isHallucination reports whether text looks like a transcription
// artifact rather than something the user actually said. Silence and
// background noise make speech models emit stock phrases or repeat
// themselves endlessly.
func isHallucination(ctx context.Context, text string) bool {
	t := strings.Trim(text, " .!?")
	switch t {
	case "Thank you",
		"Thanks for watching",
		"Subtitles by the Amara.org community",
		"":
		return true
	}

	if len(text) > EntropyDetectorLenMin {
		e, err := entropy.Shannon(text)
		if err != nil {
			logger.Errorf(ctx, "unable to calculate shannon entropy: %v", err)
			return false
		}
		if e < EntropyMin {
			logger.Debugf(ctx, "entropy is too low, assuming a hallucination: %f < %f", e, EntropyMin)
			return true
		}
	}

	return false
}
