package engine

import (
	"testing"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/config"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) (*Engine, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	return New(config.Default(), clk, zap.NewNop()), clk
}

func TestEngineWiring(t *testing.T) {
	e, _ := newTestEngine(t)

	if e.Store == nil || e.Scheduler == nil || e.Bridge == nil {
		t.Fatal("core components not wired")
	}
	if e.Skills == nil || e.Habits == nil || e.Trauma == nil || e.Learning == nil {
		t.Fatal("trackers not wired")
	}
}

func TestEngineStartStop(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Start()
	e.Stop()
}

func TestEngineStats(t *testing.T) {
	e, clk := newTestEngine(t)

	e.Store.Create("m1", "coffee ritual", 0.5, nil)
	e.Store.Create("m2", "morning run", 0.6, nil)
	e.Skills.Start("typing", 0.3, 0.5)
	e.Habits.Start("flossing", "evening")
	e.Habits.Reinforce("flossing", "evening", 0.5, true)
	e.Learning.LearnExplicit("capital of France", "Paris")
	e.Learning.LearnImplicit("keyboard layout", "qwerty")

	clk.Advance(time.Hour)
	stats := e.Stats()

	if stats.Store.Traces != 2 {
		t.Errorf("traces = %d, want 2", stats.Store.Traces)
	}
	if stats.Skills != 1 {
		t.Errorf("skills = %d, want 1", stats.Skills)
	}
	if stats.Habits != 1 {
		t.Errorf("habits = %d, want 1", stats.Habits)
	}
	if stats.Explicit != 1 || stats.Implicit != 1 {
		t.Errorf("learning counts = (%d, %d), want (1, 1)", stats.Explicit, stats.Implicit)
	}
}

func TestEngineReviewSchedule(t *testing.T) {
	e, _ := newTestEngine(t)

	got := e.ReviewSchedule(3)
	want := []float64{1, 3, 8}
	if len(got) != len(want) {
		t.Fatalf("schedule length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("schedule[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEngineConfigPropagation(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.TraumaIntensityThreshold = 0.9
	clk := clock.NewManual(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	e := New(cfg, clk, zap.NewNop())

	// Below the raised threshold: must not be admitted.
	if e.Trauma.Encode("t1", "near miss", 0.8) {
		t.Error("intensity 0.8 admitted despite threshold 0.9")
	}
	if !e.Trauma.Encode("t2", "crash", 0.95) {
		t.Error("intensity 0.95 rejected despite threshold 0.9")
	}
}
