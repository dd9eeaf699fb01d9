package sessionio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	sessions := []model.Session{
		{
			UserLabel: "A",
			RawText:   "the quick brown fox",
			CreatedAt: time.Unix(100, 0).UTC(),
			Events: []model.KeyEvent{
				{Key: "t", Direction: model.Press, TimeMs: 0},
				{Key: "t", Direction: model.Release, TimeMs: 85.5},
			},
		},
		{
			UserLabel: "B",
			RawText:   "the quick brown fox",
			CreatedAt: time.Unix(200, 0).UTC(),
			Events: []model.KeyEvent{
				{Key: "t", Direction: model.Press, TimeMs: 0},
				{Key: "h", Direction: model.Press, TimeMs: 120},
			},
		},
	}
	if err := ExportSessions(path, sessions); err != nil {
		t.Fatalf("export: %v", err)
	}

	imported, err := ImportSessions(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != len(sessions) {
		t.Fatalf("expected %d sessions, got %d", len(sessions), len(imported))
	}
	for i, got := range imported {
		want := sessions[i]
		if got.UserLabel != want.UserLabel || got.RawText != want.RawText {
			t.Fatalf("session %d = %+v, want %+v", i, got, want)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("session %d created_at = %v, want %v", i, got.CreatedAt, want.CreatedAt)
		}
		if len(got.Events) != len(want.Events) {
			t.Fatalf("session %d events = %d, want %d", i, len(got.Events), len(want.Events))
		}
		for j, ev := range got.Events {
			if ev != want.Events[j] {
				t.Fatalf("session %d event %d = %+v, want %+v", i, j, ev, want.Events[j])
			}
		}
	}
}

func TestImportLegacyExportFormat(t *testing.T) {
	// Zone-less ISO timestamps and down/up event types, as found in
	// older session exports.
	raw := `[
	  {
	    "user": "A",
	    "events": [
	      {"key": "t", "type": "down", "t": 0.0},
	      {"key": "t", "type": "up", "t": 91.2}
	    ],
	    "typed_text": "the quick brown fox",
	    "created_at": "2024-05-14T09:30:12.123456"
	  }
	]`
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sessions, err := ImportSessions(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.UserLabel != "A" || len(s.Events) != 2 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Events[1].Direction != model.Release || s.Events[1].TimeMs != 91.2 {
		t.Fatalf("unexpected event: %+v", s.Events[1])
	}
	if s.CreatedAt.Year() != 2024 {
		t.Fatalf("unexpected created_at: %v", s.CreatedAt)
	}
}

func TestReadEvents(t *testing.T) {
	raw := `[{"key": "a", "type": "down", "t": 0}, {"key": "a", "type": "up", "t": 88}]`
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if len(events) != 2 || events[0].Direction != model.Press || events[1].TimeMs != 88 {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestImportRejectsBadTimestamp(t *testing.T) {
	raw := `[{"user": "A", "events": [], "typed_text": "x", "created_at": "yesterday"}]`
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ImportSessions(path); err == nil {
		t.Fatalf("expected error for unparseable created_at")
	}
}
