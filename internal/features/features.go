// Package features reduces key event sequences to dwell/flight statistics.
package features

import (
	"math"
	"sort"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

// Extract reduces an event sequence to the fixed six-feature vector.
// It is total: any input, including fewer than two events or unpaired
// transitions, yields a well-defined vector (never an error).
//
// Dwell is the press-to-release latency per physical keystroke, matched
// per key identifier in chronological order. Flight is the latency between
// consecutive presses regardless of key. Each sample set is summarized as
// (mean, sample std, median); an empty set summarizes to zeros.
func Extract(events []model.KeyEvent) model.FeatureVector {
	var v model.FeatureVector
	if len(events) < 2 {
		return v
	}

	// Input order is not guaranteed; ties keep original order.
	sorted := make([]model.KeyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeMs < sorted[j].TimeMs
	})

	pending := map[string][]float64{}
	var dwells []float64
	var presses []float64
	for _, ev := range sorted {
		switch ev.Direction {
		case model.Press:
			pending[ev.Key] = append(pending[ev.Key], ev.TimeMs)
			presses = append(presses, ev.TimeMs)
		case model.Release:
			queue := pending[ev.Key]
			if len(queue) == 0 {
				// Release without a pending press: no sample.
				continue
			}
			down := queue[0]
			pending[ev.Key] = queue[1:]
			if d := ev.TimeMs - down; d > 0 {
				dwells = append(dwells, d)
			}
		}
	}

	var flights []float64
	for i := 1; i < len(presses); i++ {
		if d := presses[i] - presses[i-1]; d > 0 {
			flights = append(flights, d)
		}
	}

	v[model.DwellMean], v[model.DwellStd], v[model.DwellMedian] = summarize(dwells)
	v[model.FlightMean], v[model.FlightStd], v[model.FlightMedian] = summarize(flights)
	return v
}

func summarize(values []float64) (mean, std, median float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	if len(values) > 1 {
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(values)-1))
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return mean, std, median
}
