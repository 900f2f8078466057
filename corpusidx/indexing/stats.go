package indexing

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// LengthStats summarizes the token lengths of an index.
type LengthStats struct {
	Count  int
	Min    int
	Max    int
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
	// PaddingRatio is the share of padded slots when the index is cut into
	// consecutive buckets of bucketSize and each bucket is padded to its
	// longest member. Length-sorted indices keep this low.
	PaddingRatio float64
}

// ComputeStats summarizes lengths in their stored order.
func ComputeStats(lengths []int, bucketSize int) LengthStats {
	st := LengthStats{Count: len(lengths)}
	if len(lengths) == 0 {
		return st
	}

	xs := make([]float64, len(lengths))
	for i, n := range lengths {
		xs[i] = float64(n)
	}
	st.Mean, st.StdDev = stat.MeanStdDev(xs, nil)

	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	st.Min = int(sorted[0])
	st.Max = int(sorted[len(sorted)-1])
	st.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	st.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	st.PaddingRatio = paddingRatio(lengths, bucketSize)
	return st
}

func paddingRatio(lengths []int, bucketSize int) float64 {
	if bucketSize < 1 {
		bucketSize = 1
	}
	var padded, used int
	for start := 0; start < len(lengths); start += bucketSize {
		end := min(len(lengths), start+bucketSize)
		longest := slices.Max(lengths[start:end])
		for _, n := range lengths[start:end] {
			used += n
			padded += longest
		}
	}
	if padded == 0 {
		return 0
	}
	return float64(padded-used) / float64(padded)
}
