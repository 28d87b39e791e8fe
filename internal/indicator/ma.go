package indicator

import (
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// SMA appends a simple moving average of the high price over the trailing
// window bars. The first window-1 entries are null.
func SMA(s *types.Series, window int) (types.IndicatorRef, error) {
	ref := types.IndicatorRef{Kind: types.IndicatorTypeSMA, Window: window}

	if err := validateSeries(s); err != nil {
		return ref, err
	}

	if window <= 0 {
		return ref, errors.Newf(errors.ErrCodeInvalidWindow, "SMA window must be positive, got %d", window)
	}

	if s.HasColumn(ref.Name()) {
		return ref, nil
	}

	if err := s.SetColumn(ref.Name(), rollingMean(highs(s), window)); err != nil {
		return ref, err
	}

	return ref, nil
}

// MA computes the moving average of the given kind, dispatching between
// SMA and EWMA.
func MA(s *types.Series, kind types.IndicatorType, window int) (types.IndicatorRef, error) {
	switch kind {
	case types.IndicatorTypeSMA:
		return SMA(s, window)
	case types.IndicatorTypeEWMA:
		return EWMA(s, window)
	default:
		return types.IndicatorRef{}, errors.Newf(errors.ErrCodeInvalidMAKind,
			"unsupported moving average kind %q", kind)
	}
}
