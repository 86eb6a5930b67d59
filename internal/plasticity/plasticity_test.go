package plasticity

import (
	"math"
	"testing"
)

func TestRetentionDecreasesOverTime(t *testing.T) {
	curve := DefaultForgettingCurve()

	prev := 1.1
	for _, hours := range []float64{0, 1, 6, 24, 72, 168} {
		r := curve.Retention(hours, 0.8)
		if r <= 0 || r > 1 {
			t.Fatalf("retention at %vh = %v, want (0,1]", hours, r)
		}
		if r >= prev {
			t.Fatalf("retention at %vh = %v, not below previous %v", hours, r, prev)
		}
		prev = r
	}
}

func TestRetentionStrongerTraceDecaysSlower(t *testing.T) {
	curve := DefaultForgettingCurve()
	weak := curve.Retention(24, 0.3)
	strong := curve.Retention(24, 0.9)
	if strong <= weak {
		t.Fatalf("strong trace retention %v not above weak %v", strong, weak)
	}
}

func TestRetentionZeroStrengthDoesNotDivideByZero(t *testing.T) {
	curve := DefaultForgettingCurve()
	r := curve.Retention(1, 0)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		t.Fatalf("retention with zero strength = %v", r)
	}
}

func TestOptimalReviewTimes(t *testing.T) {
	curve := DefaultForgettingCurve()

	times := curve.OptimalReviewTimes(3)
	want := []float64{1, 3, 8}
	if len(times) != len(want) {
		t.Fatalf("got %d review times, want %d", len(times), len(want))
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("review time %d = %v, want %v", i, times[i], want[i])
		}
	}

	// Requesting more than the schedule holds truncates to the schedule.
	if got := curve.OptimalReviewTimes(20); len(got) != 7 {
		t.Errorf("got %d review times for n=20, want 7", len(got))
	}
	if got := curve.OptimalReviewTimes(-1); len(got) != 0 {
		t.Errorf("got %d review times for n=-1, want 0", len(got))
	}
}

func TestHebbianCoActivationStrengthens(t *testing.T) {
	rules := DefaultRules()

	w := rules.Hebbian(0.7, 0.7, 0.5)
	want := 0.5 + 0.1*0.7*0.7
	if math.Abs(w-want) > 1e-9 {
		t.Fatalf("hebbian weight = %v, want %v", w, want)
	}
}

func TestHebbianBelowThresholdDecays(t *testing.T) {
	rules := DefaultRules()

	w := rules.Hebbian(0.3, 0.9, 0.5)
	want := 0.5 * 0.99
	if math.Abs(w-want) > 1e-9 {
		t.Fatalf("hebbian weight = %v, want %v", w, want)
	}
}

func TestHebbianClamps(t *testing.T) {
	rules := DefaultRules()
	if w := rules.Hebbian(1.0, 1.0, 0.99); w != 1.0 {
		t.Errorf("weight %v escaped the [0,1] clamp", w)
	}
}

func TestLTPDelta(t *testing.T) {
	rules := DefaultRules()

	// Scenario from the bridge: 15Hz for 10 minutes.
	delta, ok := rules.LTPDelta(15, 10)
	if !ok {
		t.Fatal("15Hz should pass the 10Hz LTP gate")
	}
	want := 0.15 * (15.0 / 10.0) * (10.0 / 5.0)
	if math.Abs(delta-want) > 1e-9 {
		t.Fatalf("LTP delta = %v, want %v", delta, want)
	}

	if _, ok := rules.LTPDelta(5, 10); ok {
		t.Error("5Hz should not pass the LTP gate")
	}
	if delta, _ := rules.LTPDelta(15, 10); delta < 0 {
		t.Error("LTP delta must never be negative")
	}
}

func TestLTDDelta(t *testing.T) {
	rules := DefaultRules()

	delta, ok := rules.LTDDelta(1, 20)
	if !ok {
		t.Fatal("1Hz should pass the LTD gate")
	}
	want := 0.1 * (20.0 / 10.0)
	if math.Abs(delta-want) > 1e-9 {
		t.Fatalf("LTD delta = %v, want %v", delta, want)
	}

	if _, ok := rules.LTDDelta(5, 20); ok {
		t.Error("5Hz should not pass the LTD gate")
	}
}
