package pcm

import (
	"math"
	"time"
)

// Frame is a fixed-size block of mono signed 16-bit PCM samples, together
// with its position in the capture sequence. A Frame is never mutated after
// it is produced.
type Frame struct {
	Samples []int16
	Seq     uint64
}

func (f Frame) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(sampleRate)
}

// RMS returns the root-mean-square loudness of the samples, normalized
// to the [0, 1] range.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(samples))) / 32768.0
}
