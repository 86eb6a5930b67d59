package tracker

import (
	"math"
	"testing"
	"time"

	"github.com/nidhogg/plasticity/internal/clock"
	"go.uber.org/zap"
)

func testClock() *clock.Manual {
	return clock.NewManual(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
}

func TestSkillFirstPractice(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())
	tr.Start("typing", 0.2, 0)

	perf, ok := tr.Practice("typing", true)
	if !ok {
		t.Fatal("practice on typing failed")
	}
	// First trial: perf0 + (max - perf0) * 0.1.
	want := 0.2 + (0.95-0.2)*0.1
	if math.Abs(perf-want) > 1e-9 {
		t.Fatalf("performance = %v, want %v", perf, want)
	}
}

func TestSkillFailureNeverDropsBelowInitial(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())
	tr.Start("piano", 0.3, 0.5)

	for i := 0; i < 5; i++ {
		tr.Practice("piano", false)
	}
	s, _ := tr.Get("piano")
	if s.Performance < 0.3 {
		t.Fatalf("performance %v fell below initial 0.3", s.Performance)
	}
	if s.PracticeCount != 5 {
		t.Errorf("practice count = %d, want 5", s.PracticeCount)
	}
}

func TestSkillPerformanceNeverExceedsMax(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())
	tr.Start("chess", 0.9, 1.0)

	for i := 0; i < 200; i++ {
		tr.Practice("chess", true)
	}
	s, _ := tr.Get("chess")
	if s.Performance > 0.95 {
		t.Fatalf("performance %v exceeded the 0.95 ceiling", s.Performance)
	}
}

func TestSkillAutomatization(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())
	tr.Start("driving", 0.6, 1.0)

	for i := 0; i < 50; i++ {
		tr.Practice("driving", true)
	}
	s, _ := tr.Get("driving")
	if s.Automatized {
		t.Fatal("automatized at 50 practices; gate requires more than 50")
	}

	for i := 0; i < 20; i++ {
		tr.Practice("driving", true)
	}
	s, _ = tr.Get("driving")
	if s.Performance <= 0.8 {
		t.Fatalf("performance %v did not clear 0.8 after 70 practices", s.Performance)
	}
	if !s.Automatized {
		t.Fatal("skill should be automatized")
	}

	// The flag is one-way: failures do not revert it.
	for i := 0; i < 30; i++ {
		tr.Practice("driving", false)
	}
	s, _ = tr.Get("driving")
	if !s.Automatized {
		t.Error("automatized flag reverted after failures")
	}
}

func TestLearningCurveDeterministic(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())
	tr.Start("typing", 0.2, 0)

	first, ok := tr.LearningCurve("typing", 10)
	if !ok {
		t.Fatal("learning curve failed")
	}
	second, _ := tr.LearningCurve("typing", 10)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("curve point %d differs between calls: %v vs %v", i, first[i], second[i])
		}
	}

	// Closed form from n=2 on, increasing towards the ceiling.
	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] && i > 1 {
			t.Errorf("curve not increasing at point %d: %v -> %v", i, first[i-1], first[i])
		}
	}
	want2 := 0.95 - (0.95-0.2)*math.Pow(2, -0.4)
	if math.Abs(first[1]-want2) > 1e-9 {
		t.Errorf("curve point n=2 = %v, want %v", first[1], want2)
	}
}

func TestSkillUnknownID(t *testing.T) {
	tr := NewSkillTracker(DefaultSkillConfig(), testClock(), zap.NewNop())

	if _, ok := tr.Practice("ghost", true); ok {
		t.Error("practice on unknown skill should report not found")
	}
	if _, ok := tr.LearningCurve("ghost", 5); ok {
		t.Error("learning curve on unknown skill should report not found")
	}
}
