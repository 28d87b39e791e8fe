package indicator

import (
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// EWMA appends an exponentially weighted moving average of the high price
// with smoothing span. Weights are normalized over the observed prefix
// (adjusted weighting), so the column is defined from the first bar and
// converges monotonically toward the plain recursive EMA.
func EWMA(s *types.Series, span int) (types.IndicatorRef, error) {
	ref := types.IndicatorRef{Kind: types.IndicatorTypeEWMA, Window: span}

	if err := validateSeries(s); err != nil {
		return ref, err
	}

	if span <= 0 {
		return ref, errors.Newf(errors.ErrCodeInvalidWindow, "EWMA span must be positive, got %d", span)
	}

	if s.HasColumn(ref.Name()) {
		return ref, nil
	}

	alpha := 2.0 / (float64(span) + 1.0)
	decay := 1.0 - alpha

	values := highs(s)
	out := make([]float64, len(values))

	// numerator and denominator of the normalized weighted sum
	num := 0.0
	den := 0.0

	for i, v := range values {
		num = v + decay*num
		den = 1.0 + decay*den
		out[i] = num / den
	}

	if err := s.SetColumn(ref.Name(), out); err != nil {
		return ref, err
	}

	return ref, nil
}
