package trainer

import (
	"math"
	"math/rand"
	"sort"
)

// stratifiedSplit partitions sample indices into train and test sets,
// preserving each label's relative frequency. Every label keeps at least
// one sample on each side. The same seed always yields the same split.
func stratifiedSplit(labels []string, testFraction float64, seed int64) (train, test []int) {
	byLabel := map[string][]int{}
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	keys := make([]string, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	sort.Strings(keys)

	rng := rand.New(rand.NewSource(seed))
	for _, l := range keys {
		idx := byLabel[l]
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
		n := int(math.Round(float64(len(idx)) * testFraction))
		if n < 1 {
			n = 1
		}
		if n >= len(idx) {
			n = len(idx) - 1
		}
		test = append(test, idx[:n]...)
		train = append(train, idx[n:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}
