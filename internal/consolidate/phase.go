package consolidate

import "time"

// Phase is the consolidation stage of a trace, derived from its age.
type Phase string

const (
	PhaseEncoding        Phase = "encoding"         // [0, 30min)
	PhaseStabilization   Phase = "stabilization"    // [30min, 60min)
	PhaseConsolidation   Phase = "consolidation"    // [60min, 24h)
	PhaseReconsolidation Phase = "re_consolidation" // [24h, inf)
)

// phaseLabels maps phase tags to display strings, keeping presentation
// text out of the phase logic.
var phaseLabels = map[Phase]string{
	PhaseEncoding:        "Encoding",
	PhaseStabilization:   "Stabilization",
	PhaseConsolidation:   "Consolidation",
	PhaseReconsolidation: "Re-consolidation",
}

// Label returns the display name for a phase.
func Label(p Phase) string {
	if l, ok := phaseLabels[p]; ok {
		return l
	}
	return string(p)
}

// phaseBaseStrength is the consolidation strength floor per phase.
var phaseBaseStrength = map[Phase]float64{
	PhaseEncoding:        0.2,
	PhaseStabilization:   0.5,
	PhaseConsolidation:   0.8,
	PhaseReconsolidation: 0.9,
}

// PhaseOf returns the phase for a trace of the given age.
func PhaseOf(age time.Duration) Phase {
	switch {
	case age < 30*time.Minute:
		return PhaseEncoding
	case age < time.Hour:
		return PhaseStabilization
	case age < 24*time.Hour:
		return PhaseConsolidation
	default:
		return PhaseReconsolidation
	}
}

// BaseStrength returns the consolidation strength floor for a phase.
func BaseStrength(p Phase) float64 {
	return phaseBaseStrength[p]
}

// stable reports whether a phase marks the trace as consolidated.
func stable(p Phase) bool {
	return p == PhaseConsolidation || p == PhaseReconsolidation
}
