package vad

import (
	"context"
	"sort"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Calibration and threshold constants. A fixed threshold fails across
// differing microphone gains and rooms, so the threshold is derived once
// per session from a short warm-up window of frame loudness values.
const (
	DefaultCalibrationFrames = 50

	// warm-up RMS values at or below this are initialization artifacts
	calibrationEpsilon = 0.0001

	// noise floors below this mean a very quiet room, where a multiple of
	// the floor would sit too close to zero and false-trigger
	lowNoiseFloor      = 0.005
	lowNoiseThreshold  = 0.015
	fallbackNoiseFloor = 0.001

	thresholdFactor = 2.5
	thresholdMin    = 0.012
	thresholdMax    = 0.04
)

// Detector classifies frame loudness as speech or silence against a
// threshold calibrated from the first CalibrationFrames RMS samples of a
// session. Not safe for concurrent use; a session's capture loop owns it.
type Detector struct {
	calibrationFrames int
	rmsHistory        []float64
	noiseFloor        float64
	threshold         float64
	calibrated        bool
}

func NewDetector(calibrationFrames int) *Detector {
	if calibrationFrames <= 0 {
		calibrationFrames = DefaultCalibrationFrames
	}
	return &Detector{
		calibrationFrames: calibrationFrames,
		rmsHistory:        make([]float64, 0, calibrationFrames),
	}
}

// Calibrate records one warm-up RMS sample. It reports true once the
// warm-up window is complete and the threshold is frozen; further calls
// are no-ops.
func (d *Detector) Calibrate(ctx context.Context, rms float64) bool {
	if d.calibrated {
		return true
	}

	d.rmsHistory = append(d.rmsHistory, rms)
	if len(d.rmsHistory) < d.calibrationFrames {
		return false
	}

	nonZero := make([]float64, 0, len(d.rmsHistory))
	for _, r := range d.rmsHistory {
		if r > calibrationEpsilon {
			nonZero = append(nonZero, r)
		}
	}

	if len(nonZero) > 0 {
		sort.Float64s(nonZero)
		// the median resists transient loud outliers during warm-up
		d.noiseFloor = nonZero[len(nonZero)/2]
	} else {
		// muted or dead input; keep the math non-degenerate
		d.noiseFloor = fallbackNoiseFloor
	}

	if d.noiseFloor < lowNoiseFloor {
		d.threshold = lowNoiseThreshold
		logger.Debugf(ctx, "low noise environment detected, using the fixed threshold")
	} else {
		d.threshold = min(max(d.noiseFloor*thresholdFactor, thresholdMin), thresholdMax)
	}

	d.calibrated = true
	d.rmsHistory = nil
	logger.Debugf(ctx, "calibration complete: noise floor %.4f, silence threshold %.4f", d.noiseFloor, d.threshold)
	return true
}

// Classify reports whether a frame with the given RMS contains speech.
// Pure with respect to the frozen threshold.
func (d *Detector) Classify(rms float64) bool {
	return rms > d.threshold
}

func (d *Detector) Calibrated() bool {
	return d.calibrated
}

func (d *Detector) NoiseFloor() float64 {
	return d.noiseFloor
}

func (d *Detector) Threshold() float64 {
	return d.threshold
}
