// Package forest implements a random forest classifier over fixed-length
// float feature vectors. It covers the small opaque-classifier contract
// this project needs: fit, predict, and per-class probabilities.
package forest

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Forest is a fitted ensemble of bootstrap-sampled CART trees. The zero
// value is not usable; construct with Fit or decode a persisted forest.
type Forest struct {
	ClassNames  []string `json:"classes"`
	NumFeatures int      `json:"num_features"`
	Trees       []Tree   `json:"trees"`
}

// Fit trains a forest on the samples. Classes are the sorted distinct
// labels; each tree is grown on a bootstrap resample with sqrt(d) feature
// subsampling per split. The same seed always yields the same forest.
func Fit(samples [][]float64, labels []string, trees int, seed int64) (*Forest, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("got %d samples but %d labels", len(samples), len(labels))
	}
	if trees <= 0 {
		return nil, fmt.Errorf("tree count must be > 0")
	}
	numFeatures := len(samples[0])
	for i, s := range samples {
		if len(s) != numFeatures {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(s), numFeatures)
		}
	}

	classes := distinctSorted(labels)
	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = classIndex[l]
	}

	mtry := int(math.Sqrt(float64(numFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(seed))
	f := &Forest{
		ClassNames:  classes,
		NumFeatures: numFeatures,
		Trees:       make([]Tree, 0, trees),
	}
	n := len(samples)
	for t := 0; t < trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, growTree(samples, y, idx, len(classes), mtry, rng))
	}
	return f, nil
}

// Classes returns the class labels in probability order.
func (f *Forest) Classes() []string {
	out := make([]string, len(f.ClassNames))
	copy(out, f.ClassNames)
	return out
}

// PredictProba returns the per-class probability distribution for x,
// averaged over the leaf distributions of all trees, indexed like Classes.
func (f *Forest) PredictProba(x []float64) []float64 {
	probs := make([]float64, len(f.ClassNames))
	if len(f.Trees) == 0 {
		return probs
	}
	for _, t := range f.Trees {
		for c, p := range t.proba(x) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

// Predict returns the label with the highest averaged probability. Ties
// resolve to the earlier class in sorted order.
func (f *Forest) Predict(x []float64) string {
	probs := f.PredictProba(x)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return f.ClassNames[best]
}

func distinctSorted(labels []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
