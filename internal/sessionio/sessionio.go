// Package sessionio reads and writes the JSON session interchange format.
//
// The format is a whole-collection array of session objects with "user",
// "events" (objects of "key", "type" being "down"/"up", and "t" in
// milliseconds), "typed_text", and "created_at". A bare event array is the
// input format for prediction from an external capture surface.
package sessionio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

type sessionJSON struct {
	User      string           `json:"user"`
	Events    []model.KeyEvent `json:"events"`
	TypedText string           `json:"typed_text"`
	CreatedAt string           `json:"created_at"`
}

// ExportSessions writes the whole collection to path, replacing any
// existing file atomically.
func ExportSessions(path string, sessions []model.Session) error {
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionJSON{
			User:      s.UserLabel,
			Events:    s.Events,
			TypedText: s.RawText,
			CreatedAt: s.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "sessions-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmpFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	return nil
}

// ImportSessions reads a whole session collection from path.
func ImportSessions(path string) ([]model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	var raw []sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	sessions := make([]model.Session, 0, len(raw))
	for i, r := range raw {
		createdAt, err := parseCreatedAt(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		sessions = append(sessions, model.Session{
			UserLabel: r.User,
			Events:    r.Events,
			RawText:   r.TypedText,
			CreatedAt: createdAt,
		})
	}
	return sessions, nil
}

// ReadEvents reads a bare event array from path.
func ReadEvents(path string) ([]model.KeyEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	var events []model.KeyEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// parseCreatedAt accepts RFC 3339 timestamps and the zone-less ISO form
// found in older session exports.
func parseCreatedAt(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at %q", value)
}
