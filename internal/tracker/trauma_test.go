package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTraumaAdmissionGate(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())

	if tr.Encode("mild", "fender bender", 0.5) {
		t.Fatal("intensity 0.5 must not pass the 0.7 admission gate")
	}
	if _, ok := tr.Get("mild"); ok {
		t.Fatal("rejected encoding left a retrievable entry")
	}
	if r := tr.Retention("mild"); r != 0 {
		t.Errorf("retention of rejected entry = %v, want 0", r)
	}

	if !tr.Encode("severe", "accident", 0.85) {
		t.Fatal("intensity 0.85 should pass the gate")
	}
	if _, ok := tr.Get("severe"); !ok {
		t.Fatal("admitted entry not retrievable")
	}
}

func TestTraumaRetentionDecaysSlower(t *testing.T) {
	clk := testClock()
	tr := NewTraumaTracker(DefaultTraumaConfig(), clk, zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	clk.Advance(24 * time.Hour)

	got := tr.Retention("severe")
	// Stability is scaled by 1.7, so after 24h: exp(-24 / (24*1.7)).
	want := math.Exp(-24.0 / (24.0 * 1.7))
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("trauma retention = %v, want %v", got, want)
	}

	// Strictly above a normal trace of equal strength and age.
	normal := math.Exp(-24.0 / 24.0)
	if got <= normal {
		t.Fatalf("trauma retention %v not above normal %v", got, normal)
	}
}

func TestIntrusionLikelihood(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	got := tr.IntrusionLikelihood("severe", 0.5)
	want := 0.4*0.85 + 0.3*0 + 0.3*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("intrusion likelihood = %v, want %v", got, want)
	}

	if l := tr.IntrusionLikelihood("ghost", 0.5); l != 0 {
		t.Errorf("intrusion likelihood for unknown id = %v, want 0", l)
	}
}

func TestReactivateBelowLikelihoodIsNotCounted(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("borderline", nil, 0.7)

	// likelihood = 0.4*0.7 = 0.28 <= 0.3: no reactivation.
	res, err := tr.Reactivate("borderline", 0, "grounding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Reactivated {
		t.Fatal("reactivation counted below the likelihood gate")
	}
	m, _ := tr.Get("borderline")
	if m.ReactivationCount != 0 {
		t.Errorf("reactivation count = %d, want 0", m.ReactivationCount)
	}
}

func TestReactivateFlashback(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	res, err := tr.Reactivate("severe", 0, "grounding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Reactivated {
		t.Fatal("expected reactivation")
	}
	// regulation = 0.4 - 0, flashback = 0.85 - 0.4.
	if math.Abs(res.RegulationEffectiveness-0.4) > 1e-9 {
		t.Errorf("regulation = %v, want 0.4", res.RegulationEffectiveness)
	}
	if math.Abs(res.FlashbackIntensity-0.45) > 1e-9 {
		t.Errorf("flashback = %v, want 0.45", res.FlashbackIntensity)
	}
}

func TestReactivateStressWeakensRegulation(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	calm, _ := tr.Reactivate("severe", 0.1, "grounding")
	stressed, _ := tr.Reactivate("severe", 0.9, "grounding")
	if stressed.RegulationEffectiveness >= calm.RegulationEffectiveness {
		t.Fatalf("regulation under stress %v not below calm %v",
			stressed.RegulationEffectiveness, calm.RegulationEffectiveness)
	}
	if stressed.FlashbackIntensity <= calm.FlashbackIntensity {
		t.Fatalf("flashback under stress %v not above calm %v",
			stressed.FlashbackIntensity, calm.FlashbackIntensity)
	}
}

func TestReactivateUnknownStrategy(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	_, err := tr.Reactivate("severe", 0.2, "yelling")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("got %v, want ErrUnknownStrategy", err)
	}

	// Empty strategy falls back to "default".
	if _, err := tr.Reactivate("severe", 0.2, ""); err != nil {
		t.Fatalf("empty strategy should use default, got %v", err)
	}
}

func TestExtinctionReducesIntensity(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	// Low-stress extinction trials: flashback = 0.85 - 0.5 = 0.35, below
	// the success bound, so each trial chips 0.02 off the intensity.
	before, _ := tr.Get("severe")
	for i := 0; i < 5; i++ {
		if _, err := tr.Reactivate("severe", 0, "extinction"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	after, _ := tr.Get("severe")

	want := before.Intensity - 5*0.02
	if math.Abs(after.Intensity-want) > 1e-9 {
		t.Fatalf("intensity = %v, want %v", after.Intensity, want)
	}
}

func TestExtinctionFloor(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.85)

	for i := 0; i < 100; i++ {
		tr.Reactivate("severe", 0, "extinction")
	}
	m, _ := tr.Get("severe")
	if m.Intensity < 0.1 {
		t.Fatalf("intensity %v fell below the 0.1 floor", m.Intensity)
	}
}

func TestHabituationDiscount(t *testing.T) {
	tr := NewTraumaTracker(DefaultTraumaConfig(), testClock(), zap.NewNop())
	tr.Encode("severe", nil, 0.9)

	first, _ := tr.Reactivate("severe", 0, "default")

	// Push the reactivation count past the habituation threshold.
	for i := 0; i < 15; i++ {
		tr.Reactivate("severe", 0, "default")
	}
	later, _ := tr.Reactivate("severe", 0, "default")

	if later.FlashbackIntensity >= first.FlashbackIntensity {
		t.Fatalf("habituated flashback %v not below initial %v",
			later.FlashbackIntensity, first.FlashbackIntensity)
	}
}
