// Package indicator computes technical indicator columns over a Series.
//
// Every function is a pure column transform: it appends derived columns
// under deterministic ref names and returns the ref. Computing the same
// indicator twice with identical parameters is a no-op, which lets
// callers check column presence (locally or against the store) before
// paying for a recomputation. Failures are returned as coded errors and
// never panic, so one bad symbol cannot abort a batch.
package indicator

import (
	"math"

	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// rollingMean computes the trailing mean over exactly window values,
// null (NaN) for the first window-1 positions.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))

	sum := 0.0

	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}

		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = types.Null()
		}
	}

	return out
}

// rollingMeanMinOne computes the trailing mean over up to window values,
// skipping nulls, producing a value as soon as one sample is available.
func rollingMeanMinOne(values []float64, window int) []float64 {
	out := make([]float64, len(values))

	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}

		sum := 0.0
		count := 0

		for j := lo; j <= i; j++ {
			if types.IsNull(values[j]) {
				continue
			}

			sum += values[j]
			count++
		}

		if count == 0 {
			out[i] = types.Null()
		} else {
			out[i] = sum / float64(count)
		}
	}

	return out
}

// rollingStd computes the trailing sample standard deviation over exactly
// window values, null until a full window is available.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))

	for i := range values {
		if i < window-1 || window < 2 {
			out[i] = types.Null()
			continue
		}

		lo := i - window + 1

		mean := 0.0
		for j := lo; j <= i; j++ {
			mean += values[j]
		}

		mean /= float64(window)

		variance := 0.0
		for j := lo; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}

		out[i] = math.Sqrt(variance / float64(window-1))
	}

	return out
}

func highs(s *types.Series) []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.High
	}

	return out
}

func closes(s *types.Series) []float64 {
	out := make([]float64, s.Len())
	for i, bar := range s.Bars {
		out[i] = bar.Close
	}

	return out
}

func validateSeries(s *types.Series) error {
	if s == nil || s.Len() == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "series is nil or empty")
	}

	return nil
}
