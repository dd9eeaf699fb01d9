package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

func fakeClock(start time.Time, stepMs ...int64) func() time.Time {
	i := 0
	return func() time.Time {
		if i >= len(stepMs) {
			return start
		}
		t := start.Add(time.Duration(stepMs[i]) * time.Millisecond)
		i++
		return t
	}
}

func TestRecorderRelativeTimestamps(t *testing.T) {
	start := time.Unix(1000, 0)
	rec := NewRecorderWithClock(fakeClock(start, 0, 10, 60, 90))
	rec.Start()
	rec.RecordPress("a")
	rec.RecordRelease("a")
	rec.RecordPress("b")

	events := rec.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []model.KeyEvent{
		{Key: "a", Direction: model.Press, TimeMs: 10},
		{Key: "a", Direction: model.Release, TimeMs: 60},
		{Key: "b", Direction: model.Press, TimeMs: 90},
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, ev, want[i])
		}
	}
}

func TestRecorderImplicitStart(t *testing.T) {
	start := time.Unix(1000, 0)
	rec := NewRecorderWithClock(fakeClock(start, 500, 600))
	rec.RecordPress("a")
	rec.RecordPress("b")

	events := rec.Events()
	if events[0].TimeMs != 0 {
		t.Fatalf("first event must anchor the clock, got t=%v", events[0].TimeMs)
	}
	if events[1].TimeMs != 100 {
		t.Fatalf("second event t = %v, want 100", events[1].TimeMs)
	}
}

func TestRecorderReset(t *testing.T) {
	rec := NewRecorder()
	rec.RecordPress("a")
	rec.Reset()
	if rec.Len() != 0 {
		t.Fatalf("expected empty recorder after reset, got %d events", rec.Len())
	}
}

func TestRecorderEventsIsCopy(t *testing.T) {
	rec := NewRecorder()
	rec.RecordPress("a")
	events := rec.Events()
	events[0].Key = "mutated"
	if rec.Events()[0].Key != "a" {
		t.Fatalf("Events must return a copy")
	}
}

func TestBuildSessionGates(t *testing.T) {
	cfg := model.CaptureConfig{
		Prompt:        "the quick brown fox",
		MinSimilarity: 0.8,
		MinEvents:     4,
	}
	events := []model.KeyEvent{
		{Key: "t", Direction: model.Press, TimeMs: 0},
		{Key: "h", Direction: model.Press, TimeMs: 80},
		{Key: "e", Direction: model.Press, TimeMs: 170},
		{Key: "q", Direction: model.Press, TimeMs: 260},
	}

	if _, err := BuildSession("A", "zzz", events, cfg, time.Now()); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if _, err := BuildSession("A", "the quick brown fox", events[:2], cfg, time.Now()); !errors.Is(err, ErrTooFewEvents) {
		t.Fatalf("expected ErrTooFewEvents, got %v", err)
	}

	created := time.Unix(42, 0)
	s, err := BuildSession("A", "  The Quick Brown Fox ", events, cfg, created)
	if err != nil {
		t.Fatalf("build session: %v", err)
	}
	if s.UserLabel != "A" || s.RawText != "The Quick Brown Fox" || !s.CreatedAt.Equal(created) {
		t.Fatalf("unexpected session: %+v", s)
	}
	if len(s.Events) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(s.Events))
	}
}
