package indicator

import (
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI appends the Relative Strength Index of the close price along with
// its intermediate columns (delta, gain, loss, avg_gain, avg_loss, RS).
//
// Averages are trailing means over up to period bars starting from the
// first available delta, so the column is defined from the second bar
// rather than waiting for a full window. When avg_loss is exactly zero
// RS is +Inf, which propagates to RSI=100 without special-casing.
func RSI(s *types.Series, period int) (types.IndicatorRef, error) {
	ref := types.IndicatorRef{Kind: types.IndicatorTypeRSI, Window: period}

	if err := validateSeries(s); err != nil {
		return ref, err
	}

	if period <= 0 {
		return ref, errors.Newf(errors.ErrCodeInvalidPeriod, "RSI period must be positive, got %d", period)
	}

	if s.HasColumn(ref.Name()) {
		return ref, nil
	}

	close := closes(s)
	n := len(close)

	delta := make([]float64, n)
	gain := make([]float64, n)
	loss := make([]float64, n)

	delta[0] = types.Null()
	gain[0] = types.Null()
	loss[0] = types.Null()

	for i := 1; i < n; i++ {
		d := close[i] - close[i-1]
		delta[i] = d

		if d > 0 {
			gain[i] = d
			loss[i] = 0
		} else {
			gain[i] = 0
			loss[i] = -d
		}
	}

	avgGain := rollingMeanMinOne(gain, period)
	avgLoss := rollingMeanMinOne(loss, period)

	rs := make([]float64, n)
	rsi := make([]float64, n)

	for i := 0; i < n; i++ {
		if types.IsNull(avgGain[i]) || types.IsNull(avgLoss[i]) {
			rs[i] = types.Null()
			rsi[i] = types.Null()

			continue
		}

		// avg_loss == 0 yields +Inf here and 100 below
		rs[i] = avgGain[i] / avgLoss[i]
		rsi[i] = 100.0 - 100.0/(1.0+rs[i])
	}

	cols := map[string][]float64{
		types.RSIColDelta:   delta,
		types.RSIColGain:    gain,
		types.RSIColLoss:    loss,
		types.RSIColAvgGain: avgGain,
		types.RSIColAvgLoss: avgLoss,
		types.RSIColRS:      rs,
		ref.Name():          rsi,
	}

	for name, col := range cols {
		if err := s.SetColumn(name, col); err != nil {
			return ref, err
		}
	}

	return ref, nil
}
