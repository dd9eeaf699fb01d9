package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "keystyleid.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleSession(user string, base float64) model.Session {
	return model.Session{
		UserLabel: user,
		RawText:   "the quick brown fox",
		CreatedAt: time.Unix(100, 0).UTC(),
		Events: []model.KeyEvent{
			{Key: "t", Direction: model.Press, TimeMs: base},
			{Key: "t", Direction: model.Release, TimeMs: base + 80},
			{Key: "h", Direction: model.Press, TimeMs: base + 150},
			{Key: "h", Direction: model.Release, TimeMs: base + 230},
		},
	}
}

func TestInsertAndListRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := sampleSession("A", 0)
	id, err := st.InsertSession(ctx, want)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero session id")
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.ID != id || got.UserLabel != want.UserLabel || got.RawText != want.RawText {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if len(got.Events) != len(want.Events) {
		t.Fatalf("expected %d events, got %d", len(want.Events), len(got.Events))
	}
	for i, ev := range got.Events {
		if ev != want.Events[i] {
			t.Fatalf("event %d = %+v, want %+v", i, ev, want.Events[i])
		}
	}
}

func TestListSessionsPreservesInsertionOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	users := []string{"A", "B", "A"}
	for i, u := range users {
		if _, err := st.InsertSession(ctx, sampleSession(u, float64(i*1000))); err != nil {
			t.Fatalf("insert session %d: %v", i, err)
		}
	}
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i, u := range users {
		if sessions[i].UserLabel != u {
			t.Fatalf("session %d user = %q, want %q", i, sessions[i].UserLabel, u)
		}
	}
}

func TestCountByUserAndTotal(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"A", "A", "B"} {
		if _, err := st.InsertSession(ctx, sampleSession(u, 0)); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	counts, err := st.CountByUser(ctx)
	if err != nil {
		t.Fatalf("count by user: %v", err)
	}
	if counts["A"] != 2 || counts["B"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	total, err := st.TotalSessions(ctx)
	if err != nil {
		t.Fatalf("total sessions: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
}

func TestEmptyStore(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
	counts, err := st.CountByUser(ctx)
	if err != nil {
		t.Fatalf("count by user: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected empty counts, got %v", counts)
	}
}
