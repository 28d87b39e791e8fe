package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/internal/indicator"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Default Bollinger strategy configuration.
const (
	DefaultBollingerWindow = indicator.DefaultBollingerWindow
	DefaultBollingerNumStd = indicator.DefaultBollingerNumStd
)

// BollingerBands signals sell when the bar's high breaks above the upper
// band (overbought) and buy when the low breaks below the lower band
// (oversold). The sell condition is evaluated first; if a pathological
// band width ever made both conditions true on one bar, the bar reports
// sell.
type BollingerBands struct {
	Window int     `validate:"gt=0"`
	NumStd float64 `validate:"gt=0"`
}

// NewBollingerBands validates the window and band width and builds a
// Bollinger strategy.
func NewBollingerBands(window int, numStd float64) (*BollingerBands, error) {
	b := &BollingerBands{Window: window, NumStd: numStd}
	if err := validate.Struct(b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid Bollinger parameters", err)
	}

	return b, nil
}

// Kind implements Strategy.
func (b *BollingerBands) Kind() types.StrategyKind {
	return types.StrategyBollingerBands
}

// SignalRef implements Strategy.
func (b *BollingerBands) SignalRef() types.ColumnRef {
	return types.BollingerSignalRef{Window: b.Window, NumStd: b.NumStd}
}

// Apply implements Strategy.
func (b *BollingerBands) Apply(s *types.Series) error {
	if s == nil || s.Len() == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "series is nil or empty")
	}

	ref := b.SignalRef()
	if s.HasSignal(ref.Name()) {
		return nil
	}

	bands, err := indicator.BollingerBands(s, b.Window, b.NumStd)
	if err != nil {
		return err
	}

	upper, _ := s.Column(bands.UpperBand())
	lower, _ := s.Column(bands.LowerBand())

	signals := make([]optional.Option[types.SignalValue], s.Len())

	for t, bar := range s.Bars {
		if types.IsNull(upper[t]) || types.IsNull(lower[t]) {
			continue
		}

		switch {
		case bar.High > upper[t]:
			signals[t] = optional.Some(types.SignalSell)
		case bar.Low < lower[t]:
			signals[t] = optional.Some(types.SignalBuy)
		}
	}

	return s.SetSignal(ref.Name(), signals)
}
