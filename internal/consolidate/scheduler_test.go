package consolidate

import (
	"math"
	"testing"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/plasticity"
	"github.com/nidhogg/plasticity/internal/trace"
	"go.uber.org/zap"
)

func newTestScheduler(t *testing.T) (*Scheduler, *trace.Store, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	store := trace.NewStore(plasticity.DefaultRules(), plasticity.DefaultForgettingCurve(), clk, zap.NewNop())
	sched := NewScheduler(store, clk, DefaultConfig(), zap.NewNop())
	return sched, store, clk
}

func TestPhaseOf(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want Phase
	}{
		{0, PhaseEncoding},
		{29 * time.Minute, PhaseEncoding},
		{30 * time.Minute, PhaseStabilization},
		{59 * time.Minute, PhaseStabilization},
		{time.Hour, PhaseConsolidation},
		{23 * time.Hour, PhaseConsolidation},
		{24 * time.Hour, PhaseReconsolidation},
		{1000 * time.Hour, PhaseReconsolidation},
	}
	for _, c := range cases {
		if got := PhaseOf(c.age); got != c.want {
			t.Errorf("PhaseOf(%v) = %v, want %v", c.age, got, c.want)
		}
	}
}

func TestPhaseLabels(t *testing.T) {
	if Label(PhaseReconsolidation) != "Re-consolidation" {
		t.Errorf("unexpected label %q", Label(PhaseReconsolidation))
	}
	if Label(Phase("weird")) != "weird" {
		t.Error("unknown phase should fall back to its tag")
	}
}

func TestTickSetsPhaseStrength(t *testing.T) {
	sched, store, clk := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)

	sched.OnTick(clk.Now())
	got, _ := store.Get("m1")
	if math.Abs(got.ConsolidationStrength-0.2) > 1e-9 {
		t.Errorf("encoding strength = %v, want 0.2", got.ConsolidationStrength)
	}
	if got.Consolidated {
		t.Error("encoding-phase trace must not be consolidated")
	}

	clk.Advance(45 * time.Minute)
	sched.OnTick(clk.Now())
	got, _ = store.Get("m1")
	if math.Abs(got.ConsolidationStrength-0.5) > 1e-9 {
		t.Errorf("stabilization strength = %v, want 0.5", got.ConsolidationStrength)
	}

	clk.Advance(time.Hour)
	sched.OnTick(clk.Now())
	got, _ = store.Get("m1")
	if math.Abs(got.ConsolidationStrength-0.8) > 1e-9 {
		t.Errorf("consolidation strength = %v, want 0.8", got.ConsolidationStrength)
	}
	if !got.Consolidated {
		t.Error("consolidation-phase trace should be marked consolidated")
	}
}

func TestTickAccessBonus(t *testing.T) {
	sched, store, clk := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)
	for i := 0; i < 5; i++ {
		store.Access("m1")
	}

	sched.OnTick(clk.Now())
	got, _ := store.Get("m1")
	// base 0.2 + 0.1*min(1, 5/10)
	want := 0.2 + 0.1*0.5
	if math.Abs(got.ConsolidationStrength-want) > 1e-9 {
		t.Errorf("strength = %v, want %v", got.ConsolidationStrength, want)
	}

	// The bonus saturates at 10 accesses.
	for i := 0; i < 20; i++ {
		store.Access("m1")
	}
	sched.OnTick(clk.Now())
	got, _ = store.Get("m1")
	if math.Abs(got.ConsolidationStrength-0.3) > 1e-9 {
		t.Errorf("saturated strength = %v, want 0.3", got.ConsolidationStrength)
	}
}

func TestConsolidatedFlagNeverReverts(t *testing.T) {
	sched, store, clk := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)

	clk.Advance(2 * time.Hour)
	sched.OnTick(clk.Now())
	got, _ := store.Get("m1")
	if !got.Consolidated {
		t.Fatal("expected consolidated after 2h")
	}

	// Further ticks keep the flag set.
	clk.Advance(48 * time.Hour)
	sched.OnTick(clk.Now())
	got, _ = store.Get("m1")
	if !got.Consolidated {
		t.Error("consolidated flag reverted")
	}
}

func TestConsolidateNow(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)
	store.Create("m2", nil, 0.5, nil)

	var notified []string
	sched.AddObserver(ObserverFunc(func(id string) {
		notified = append(notified, id)
	}))

	// Two passes reach 0.6 strength, still below the 0.7 threshold.
	if got := sched.ConsolidateNow(); len(got) != 0 {
		t.Fatalf("first pass transitioned %v, want none", got)
	}
	if got := sched.ConsolidateNow(); len(got) != 0 {
		t.Fatalf("second pass transitioned %v, want none", got)
	}
	// Third pass crosses 0.6 -> 0.9.
	got := sched.ConsolidateNow()
	if len(got) != 2 {
		t.Fatalf("third pass transitioned %v, want both", got)
	}
	if len(notified) != 2 {
		t.Fatalf("observers notified %d times, want 2", len(notified))
	}

	// Consolidated traces are skipped afterwards.
	if got := sched.ConsolidateNow(); len(got) != 0 {
		t.Fatalf("fourth pass transitioned %v, want none", got)
	}
	if len(notified) != 2 {
		t.Error("observer fired again for an already-consolidated trace")
	}
}

func TestConsolidateNowSelectedIDs(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)
	store.Create("m2", nil, 0.5, nil)

	sched.ConsolidateNow("m1")
	sched.ConsolidateNow("m1")
	sched.ConsolidateNow("m1")

	got1, _ := store.Get("m1")
	got2, _ := store.Get("m2")
	if !got1.Consolidated {
		t.Error("m1 should be consolidated")
	}
	if got2.ConsolidationStrength != 0 {
		t.Error("m2 should be untouched")
	}
}

func TestPanickingObserverDoesNotAbort(t *testing.T) {
	sched, store, _ := newTestScheduler(t)
	store.Create("m1", nil, 0.5, nil)

	fired := false
	sched.AddObserver(ObserverFunc(func(id string) {
		panic("observer boom")
	}))
	sched.AddObserver(ObserverFunc(func(id string) {
		fired = true
	}))

	sched.ConsolidateNow("m1")
	sched.ConsolidateNow("m1")
	sched.ConsolidateNow("m1")

	if !fired {
		t.Error("second observer skipped after first panicked")
	}
	got, _ := store.Get("m1")
	if !got.Consolidated {
		t.Error("consolidation aborted by observer panic")
	}
}
