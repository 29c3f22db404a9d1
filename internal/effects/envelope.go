// SPDX-License-Identifier: MIT
package effects

import "math"

// DetectorMode selects what the envelope follower tracks.
type DetectorMode int

const (
	DetectPeak DetectorMode = iota // Rectified amplitude.
	DetectRMS                      // Square root of the smoothed power.
)

// timeCoefficient converts a time constant in milliseconds to a one-pole
// smoothing coefficient. Zero or negative times mean instant response.
func timeCoefficient(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms / 1000 * float64(sampleRate)))
}

// envelope is a one-pole attack/release follower. Rising input moves the
// state with the attack coefficient, falling input with the release one.
type envelope struct {
	mode        DetectorMode
	attackCoef  float64
	releaseCoef float64
	state       float64
}

func newEnvelope(mode DetectorMode, attackMs, releaseMs float64, sampleRate int) *envelope {
	return &envelope{
		mode:        mode,
		attackCoef:  timeCoefficient(attackMs, sampleRate),
		releaseCoef: timeCoefficient(releaseMs, sampleRate),
	}
}

// next feeds one sample and returns the current linear level.
func (e *envelope) next(x float64) float64 {
	in := math.Abs(x)
	if e.mode == DetectRMS {
		in = x * x
	}

	coef := e.releaseCoef
	if in > e.state {
		coef = e.attackCoef
	}
	e.state = in + coef*(e.state-in)

	if e.mode == DetectRMS {
		return math.Sqrt(e.state)
	}
	return e.state
}

func (e *envelope) reset() {
	e.state = 0
}
