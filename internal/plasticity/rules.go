package plasticity

// Rules holds the tunable parameters for Hebbian learning and
// frequency-gated potentiation/depression.
type Rules struct {
	LearningRate float64 // Hebbian weight gain per co-activation
	Decay        float64 // passive decay applied when traces do not co-fire
	Threshold    float64 // activation level required for co-firing

	LTPThresholdFreq float64 // Hz; stimulation at or above this potentiates
	LTPRate          float64
	LTDThresholdFreq float64 // Hz; stimulation at or below this depresses
	LTDRate          float64
}

// DefaultRules returns the standard plasticity parameters.
func DefaultRules() Rules {
	return Rules{
		LearningRate:     0.1,
		Decay:            0.01,
		Threshold:        0.5,
		LTPThresholdFreq: 10,
		LTPRate:          0.15,
		LTDThresholdFreq: 1,
		LTDRate:          0.1,
	}
}

// Hebbian applies the co-activation rule: if both sides fire above
// threshold the weight grows by rate*pre*post, otherwise it decays.
// The result is clamped to [0,1].
func (r Rules) Hebbian(pre, post, weight float64) float64 {
	if pre > r.Threshold && post > r.Threshold {
		weight += r.LearningRate * pre * post
	} else {
		weight *= 1 - r.Decay
	}
	return Clamp01(weight)
}

// LTPDelta returns the potentiation delta for a stimulation burst, or
// ok=false when the frequency is below the LTP gate.
func (r Rules) LTPDelta(freqHz, durationMin float64) (float64, bool) {
	if freqHz < r.LTPThresholdFreq {
		return 0, false
	}
	return r.LTPRate * (freqHz / r.LTPThresholdFreq) * (durationMin / 5), true
}

// LTDDelta returns the depression delta for low-frequency stimulation, or
// ok=false when the frequency is above the LTD gate.
func (r Rules) LTDDelta(freqHz, durationMin float64) (float64, bool) {
	if freqHz > r.LTDThresholdFreq {
		return 0, false
	}
	return r.LTDRate * (durationMin / 10), true
}

// Clamp01 clamps v to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
