package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/internal/indicator"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Default RSI strategy bounds.
const (
	DefaultRSIPeriod     = indicator.DefaultRSIPeriod
	DefaultRSILowerBound = 20.0
	DefaultRSIUpperBound = 80.0
)

// RSI signals sell when the index is above the upper bound (overbought)
// and buy when below the lower bound (oversold). The overbought check is
// evaluated first; with bounds in their valid order the two conditions
// are mutually exclusive anyway.
type RSI struct {
	Period int     `validate:"gt=0"`
	Lower  float64 `validate:"gte=0"`
	Upper  float64 `validate:"lte=100,gtfield=Lower"`
}

// NewRSI validates the period and bounds and builds an RSI strategy.
func NewRSI(period int, lower, upper float64) (*RSI, error) {
	r := &RSI{Period: period, Lower: lower, Upper: upper}
	if err := validate.Struct(r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid RSI parameters", err)
	}

	return r, nil
}

// Kind implements Strategy.
func (r *RSI) Kind() types.StrategyKind {
	return types.StrategyRSI
}

// SignalRef implements Strategy.
func (r *RSI) SignalRef() types.ColumnRef {
	return types.RSISignalRef{Period: r.Period, Lower: r.Lower, Upper: r.Upper}
}

// Apply implements Strategy.
func (r *RSI) Apply(s *types.Series) error {
	if s == nil || s.Len() == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "series is nil or empty")
	}

	ref := r.SignalRef()
	if s.HasSignal(ref.Name()) {
		return nil
	}

	rsiRef, err := indicator.RSI(s, r.Period)
	if err != nil {
		return err
	}

	rsi, _ := s.Column(rsiRef.Name())

	signals := make([]optional.Option[types.SignalValue], s.Len())

	for t := range rsi {
		if types.IsNull(rsi[t]) {
			continue
		}

		switch {
		case rsi[t] > r.Upper:
			signals[t] = optional.Some(types.SignalSell)
		case rsi[t] < r.Lower:
			signals[t] = optional.Some(types.SignalBuy)
		}
	}

	return s.SetSignal(ref.Name(), signals)
}
