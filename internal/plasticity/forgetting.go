package plasticity

import "math"

// minStrength keeps the stability denominator away from zero.
const minStrength = 0.01

// reviewSchedule is the spaced-repetition schedule in hours after encoding.
var reviewSchedule = []float64{1, 3, 8, 24, 72, 168, 336}

// ForgettingCurve models Ebbinghaus-style retention decay. Retention
// halves faster for weak traces and slower for strong ones.
type ForgettingCurve struct {
	BaseStabilityHours float64 // hours of stability at strength 1.0
}

// DefaultForgettingCurve returns the standard 24h-stability curve.
func DefaultForgettingCurve() ForgettingCurve {
	return ForgettingCurve{BaseStabilityHours: 24}
}

// Retention returns the [0,1] probability that a trace of the given
// strength is still retrievable after the given elapsed hours.
func (f ForgettingCurve) Retention(hours, strength float64) float64 {
	if hours < 0 {
		hours = 0
	}
	s := math.Max(strength, minStrength)
	return math.Exp(-hours / (f.BaseStabilityHours * s))
}

// OptimalReviewTimes returns the first n entries of the review schedule,
// in hours since encoding.
func (f ForgettingCurve) OptimalReviewTimes(n int) []float64 {
	if n < 0 {
		n = 0
	}
	if n > len(reviewSchedule) {
		n = len(reviewSchedule)
	}
	out := make([]float64, n)
	copy(out, reviewSchedule[:n])
	return out
}
