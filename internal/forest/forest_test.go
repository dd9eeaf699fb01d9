package forest

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

// Two well-separated clusters in two dimensions.
func separableData() ([][]float64, []string) {
	samples := [][]float64{
		{1, 1}, {1.2, 0.9}, {0.8, 1.1}, {1.1, 1.3}, {0.9, 0.8},
		{5, 5}, {5.2, 4.9}, {4.8, 5.1}, {5.1, 5.3}, {4.9, 4.8},
	}
	labels := []string{"a", "a", "a", "a", "a", "b", "b", "b", "b", "b"}
	return samples, labels
}

func TestFitAndPredictSeparable(t *testing.T) {
	samples, labels := separableData()
	f, err := Fit(samples, labels, 50, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	for i, s := range samples {
		if got := f.Predict(s); got != labels[i] {
			t.Fatalf("sample %d predicted %q, want %q", i, got, labels[i])
		}
	}
	if got := f.Predict([]float64{0.5, 0.5}); got != "a" {
		t.Fatalf("near-cluster point predicted %q, want a", got)
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	samples, labels := separableData()
	f, err := Fit(samples, labels, 25, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	probs := f.PredictProba([]float64{3, 3})
	if len(probs) != 2 {
		t.Fatalf("expected 2 class probabilities, got %d", len(probs))
	}
	sum := 0.0
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v, want 1", sum)
	}
}

func TestClassesSortedAndCopied(t *testing.T) {
	samples := [][]float64{{0}, {1}, {2}}
	f, err := Fit(samples, []string{"c", "a", "b"}, 5, 7)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	classes := f.Classes()
	if !reflect.DeepEqual(classes, []string{"a", "b", "c"}) {
		t.Fatalf("classes = %v, want sorted", classes)
	}
	classes[0] = "mutated"
	if f.Classes()[0] != "a" {
		t.Fatalf("Classes must return a copy")
	}
}

func TestFitDeterministicForSeed(t *testing.T) {
	samples, labels := separableData()
	f1, err := Fit(samples, labels, 20, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	f2, err := Fit(samples, labels, 20, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !reflect.DeepEqual(f1, f2) {
		t.Fatalf("same seed must yield identical forests")
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, nil, 10, 42); err == nil {
		t.Fatalf("expected error for empty samples")
	}
	if _, err := Fit([][]float64{{1}}, []string{"a", "b"}, 10, 42); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
	if _, err := Fit([][]float64{{1}, {2, 3}}, []string{"a", "b"}, 10, 42); err == nil {
		t.Fatalf("expected error for ragged samples")
	}
	if _, err := Fit([][]float64{{1}}, []string{"a"}, 0, 42); err == nil {
		t.Fatalf("expected error for zero trees")
	}
}

func TestForestJSONRoundTrip(t *testing.T) {
	samples, labels := separableData()
	f, err := Fit(samples, labels, 10, 3)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Forest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, s := range samples {
		if f.Predict(s) != decoded.Predict(s) {
			t.Fatalf("decoded forest disagrees with original")
		}
	}
}

func TestIdenticalFeaturesMixedLabels(t *testing.T) {
	// No split can separate identical points; the forest must still produce
	// a valid distribution rather than fail.
	samples := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	labels := []string{"a", "a", "b", "b"}
	f, err := Fit(samples, labels, 10, 42)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	probs := f.PredictProba([]float64{1, 1})
	sum := probs[0] + probs[1]
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %v, want 1", sum)
	}
}
