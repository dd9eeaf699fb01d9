// Package capture assembles keystroke sessions from an input surface.
package capture

import (
	"errors"
	"strings"
	"time"

	"github.com/emrekiracbedel/keystyleid/internal/features"
	"github.com/emrekiracbedel/keystyleid/internal/model"
)

// Gate failures. Both are expected, recoverable conditions: the operator
// retakes the capture.
var (
	ErrValidationFailed = errors.New("typed text does not match the prompt closely enough")
	ErrTooFewEvents     = errors.New("too few key events recorded")
)

// Recorder collects key transition events with timestamps in milliseconds
// relative to the start of the capture. It has no global state; each
// capture surface owns one recorder.
type Recorder struct {
	now     func() time.Time
	startAt time.Time
	events  []model.KeyEvent
}

// NewRecorder returns an empty recorder using the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// NewRecorderWithClock returns a recorder using the provided clock.
func NewRecorderWithClock(now func() time.Time) *Recorder {
	return &Recorder{now: now}
}

// Start discards any recorded events and fixes the zero point of the
// session clock. If Start is never called, the first recorded event fixes
// it instead.
func (r *Recorder) Start() {
	r.startAt = r.now()
	r.events = nil
}

// RecordPress records a key-down transition for the given key identifier.
func (r *Recorder) RecordPress(key string) {
	r.record(key, model.Press)
}

// RecordRelease records a key-up transition for the given key identifier.
func (r *Recorder) RecordRelease(key string) {
	r.record(key, model.Release)
}

func (r *Recorder) record(key string, dir model.Direction) {
	t := r.now()
	if r.startAt.IsZero() {
		r.startAt = t
	}
	r.events = append(r.events, model.KeyEvent{
		Key:       key,
		Direction: dir,
		TimeMs:    float64(t.Sub(r.startAt)) / float64(time.Millisecond),
	})
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []model.KeyEvent {
	out := make([]model.KeyEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return len(r.events)
}

// Reset discards all recorded events and the session clock.
func (r *Recorder) Reset() {
	r.startAt = time.Time{}
	r.events = nil
}

// Validate applies the transcript and event-count gates shared by session
// saving and prediction.
func Validate(typed string, events []model.KeyEvent, cfg model.CaptureConfig) error {
	if !features.ValidateTypedText(typed, cfg.Prompt, cfg.MinSimilarity) {
		return ErrValidationFailed
	}
	if len(events) < cfg.MinEvents {
		return ErrTooFewEvents
	}
	return nil
}

// BuildSession validates a finished capture and assembles an immutable
// session record for the given user.
func BuildSession(user, typed string, events []model.KeyEvent, cfg model.CaptureConfig, createdAt time.Time) (model.Session, error) {
	if err := Validate(typed, events, cfg); err != nil {
		return model.Session{}, err
	}
	copied := make([]model.KeyEvent, len(events))
	copy(copied, events)
	return model.Session{
		UserLabel: user,
		Events:    copied,
		RawText:   strings.TrimSpace(typed),
		CreatedAt: createdAt,
	}, nil
}
