// Package model defines shared data structures.
package model

import "time"

// Direction identifies a key transition. The values match the JSON
// interchange format ("down"/"up").
type Direction string

// Key transition directions.
const (
	Press   Direction = "down"
	Release Direction = "up"
)

// KeyEvent is a single key transition with a timestamp in milliseconds
// relative to the start of its capture session. Timestamps are not
// comparable across sessions.
type KeyEvent struct {
	Key       string    `json:"key"`
	Direction Direction `json:"type"`
	TimeMs    float64   `json:"t"`
}

// Session is one validated typing run for an enrolled user. Sessions are
// immutable once created and only ever appended to the store.
type Session struct {
	ID        int64
	UserLabel string
	Events    []KeyEvent
	RawText   string
	CreatedAt time.Time
}

// FeatureVector holds the six dwell/flight statistics in the fixed order
// given by FeatureOrder. Trainer and predictor must agree on this order;
// the persisted feature-order artifact exists to detect drift.
type FeatureVector [6]float64

// Feature indices into a FeatureVector.
const (
	DwellMean = iota
	DwellStd
	DwellMedian
	FlightMean
	FlightStd
	FlightMedian
)

var featureNames = []string{
	"dwell_mean", "dwell_std", "dwell_median",
	"flight_mean", "flight_std", "flight_median",
}

// FeatureOrder returns the canonical feature names in vector order.
func FeatureOrder() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Slice returns the vector as a plain float slice in canonical order.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, len(v))
	copy(out, v[:])
	return out
}

// CaptureConfig defines the gate applied to a capture before saving a
// session or predicting.
type CaptureConfig struct {
	Prompt        string
	MinSimilarity float64
	MinEvents     int
}

// TrainConfig defines training policy.
type TrainConfig struct {
	MinPerUser   int
	TestFraction float64
	Trees        int
	Seed         int64
}

// TrainReport summarizes a successful training run.
type TrainReport struct {
	Accuracy      float64
	UserCounts    map[string]int
	TotalSessions int
	TrainSize     int
	TestSize      int
}

// Prediction is the result of classifying a fresh event sequence.
type Prediction struct {
	UserLabel     string
	Confidence    float64
	Probabilities map[string]float64
}
