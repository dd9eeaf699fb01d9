// Package trainer assembles the labeled dataset and fits the classifier.
package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrekiracbedel/keystyleid/internal/features"
	"github.com/emrekiracbedel/keystyleid/internal/forest"
	"github.com/emrekiracbedel/keystyleid/internal/model"
	"github.com/emrekiracbedel/keystyleid/internal/modelstore"
	"github.com/emrekiracbedel/keystyleid/internal/store"
)

// Training failures. All are expected, recoverable conditions: collect
// more sessions and train again.
var (
	ErrNoData              = errors.New("no sessions collected yet")
	ErrInsufficientClasses = errors.New("need sessions from at least two users to train")
)

// InsufficientSamplesError reports which users still need more sessions.
type InsufficientSamplesError struct {
	MinPerUser int
	Counts     map[string]int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("need at least %d sessions per user", e.MinPerUser)
}

// Below this many total sessions there is no held-out evaluation: the
// model is trained and scored on the full set, which overstates accuracy.
const holdoutThreshold = 10

// Train loads all sessions, enforces sample policy, fits a random forest,
// evaluates it, and atomically replaces the persisted model.
func Train(ctx context.Context, st *store.Store, ms *modelstore.Store, cfg model.TrainConfig) (model.TrainReport, error) {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return model.TrainReport{}, fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(sessions) == 0 {
		return model.TrainReport{}, ErrNoData
	}

	counts := map[string]int{}
	for _, s := range sessions {
		counts[s.UserLabel]++
	}
	for _, c := range counts {
		if c < cfg.MinPerUser {
			return model.TrainReport{}, &InsufficientSamplesError{MinPerUser: cfg.MinPerUser, Counts: counts}
		}
	}

	samples := make([][]float64, len(sessions))
	labels := make([]string, len(sessions))
	for i, s := range sessions {
		samples[i] = features.Extract(s.Events).Slice()
		labels[i] = s.UserLabel
	}
	if len(counts) < 2 {
		return model.TrainReport{}, ErrInsufficientClasses
	}

	var trainIdx, testIdx []int
	if len(sessions) >= holdoutThreshold {
		trainIdx, testIdx = stratifiedSplit(labels, cfg.TestFraction, cfg.Seed)
	} else {
		for i := range sessions {
			trainIdx = append(trainIdx, i)
		}
		testIdx = trainIdx
	}

	trainX, trainY := subset(samples, labels, trainIdx)
	testX, testY := subset(samples, labels, testIdx)

	f, err := forest.Fit(trainX, trainY, cfg.Trees, cfg.Seed)
	if err != nil {
		return model.TrainReport{}, fmt.Errorf("failed to fit classifier: %w", err)
	}

	correct := 0
	for i := range testX {
		if f.Predict(testX[i]) == testY[i] {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(testX))

	if err := ms.Save(f, model.FeatureOrder()); err != nil {
		return model.TrainReport{}, fmt.Errorf("failed to persist model: %w", err)
	}

	return model.TrainReport{
		Accuracy:      accuracy,
		UserCounts:    counts,
		TotalSessions: len(sessions),
		TrainSize:     len(trainX),
		TestSize:      len(testX),
	}, nil
}

func subset(samples [][]float64, labels []string, idx []int) ([][]float64, []string) {
	outX := make([][]float64, len(idx))
	outY := make([]string, len(idx))
	for i, j := range idx {
		outX[i] = samples[j]
		outY[i] = labels[j]
	}
	return outX, outY
}
