package indicator

import (
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Default Bollinger Bands configuration.
const (
	DefaultBollingerWindow = 20
	DefaultBollingerNumStd = 2.0
)

// BollingerBands appends the middle band (SMA of the high price over
// window bars) and upper/lower bands at numStd trailing sample standard
// deviations of the close price. Band entries are null until a full
// window of closes is available.
func BollingerBands(s *types.Series, window int, numStd float64) (types.BollingerBandRefs, error) {
	refs := types.BollingerBandRefs{Window: window, NumStd: numStd}

	if err := validateSeries(s); err != nil {
		return refs, err
	}

	if window <= 0 {
		return refs, errors.Newf(errors.ErrCodeInvalidWindow,
			"Bollinger window must be positive, got %d", window)
	}

	if numStd <= 0 {
		return refs, errors.Newf(errors.ErrCodeInvalidThreshold,
			"Bollinger numStd must be positive, got %g", numStd)
	}

	if s.HasColumn(refs.UpperBand()) && s.HasColumn(refs.LowerBand()) && s.HasColumn(refs.MovingAvg()) {
		return refs, nil
	}

	maRef, err := SMA(s, window)
	if err != nil {
		return refs, err
	}

	ma, _ := s.Column(maRef.Name())
	std := rollingStd(closes(s), window)

	upper := make([]float64, s.Len())
	lower := make([]float64, s.Len())

	for i := range upper {
		if types.IsNull(ma[i]) || types.IsNull(std[i]) {
			upper[i] = types.Null()
			lower[i] = types.Null()

			continue
		}

		upper[i] = ma[i] + numStd*std[i]
		lower[i] = ma[i] - numStd*std[i]
	}

	if err := s.SetColumn(refs.UpperBand(), upper); err != nil {
		return refs, err
	}

	if err := s.SetColumn(refs.LowerBand(), lower); err != nil {
		return refs, err
	}

	return refs, nil
}
