// Package predictor classifies fresh event sequences against the
// last-trained model.
package predictor

import (
	"fmt"

	"github.com/emrekiracbedel/keystyleid/internal/features"
	"github.com/emrekiracbedel/keystyleid/internal/model"
	"github.com/emrekiracbedel/keystyleid/internal/modelstore"
)

// Predict loads the persisted model, extracts features from the events,
// and returns the predicted label with the full per-class distribution.
// Prediction is read-only: it never modifies the model.
func Predict(events []model.KeyEvent, ms *modelstore.Store) (model.Prediction, error) {
	f, err := ms.LoadForest()
	if err != nil {
		return model.Prediction{}, err
	}
	order, err := ms.LoadFeatureOrder()
	if err != nil {
		return model.Prediction{}, err
	}
	// A divergent feature order means the artifacts were written by an
	// incompatible build; silently mis-mapping features would produce
	// plausible-looking nonsense.
	if !sameOrder(order, model.FeatureOrder()) {
		return model.Prediction{}, fmt.Errorf("persisted feature order %v does not match expected %v; retrain the model", order, model.FeatureOrder())
	}

	vec := features.Extract(events).Slice()
	probs := f.PredictProba(vec)
	classes := f.Classes()

	probabilities := make(map[string]float64, len(classes))
	best := 0
	for i, c := range classes {
		probabilities[c] = probs[i]
		if probs[i] > probs[best] {
			best = i
		}
	}
	return model.Prediction{
		UserLabel:     classes[best],
		Confidence:    probs[best],
		Probabilities: probabilities,
	}, nil
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
