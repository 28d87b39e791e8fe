// Package strategy converts indicator columns into ternary buy/sell/none
// signal columns.
//
// The strategy set is closed: CrossingMA, RSI and BollingerBands. Each
// variant carries its own validated parameter struct and names its signal
// column deterministically, so applying the same configuration twice is a
// no-op and two parameterizations never collide in storage.
package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Strategy is one member of the closed strategy set.
type Strategy interface {
	// Kind returns the strategy family.
	Kind() types.StrategyKind
	// SignalRef names the signal column this configuration produces.
	SignalRef() types.ColumnRef
	// Apply computes the signal column onto the series. It is a no-op
	// when the column already exists.
	Apply(s *types.Series) error
}

var validate = validator.New()

// FromKind builds a strategy of the given kind with default parameters.
func FromKind(kind types.StrategyKind) (Strategy, error) {
	switch kind {
	case types.StrategyCrossingMA:
		return NewCrossingMA(types.IndicatorTypeSMA, DefaultShortWindow, DefaultLongWindow)
	case types.StrategyRSI:
		return NewRSI(DefaultRSIPeriod, DefaultRSILowerBound, DefaultRSIUpperBound)
	case types.StrategyBollingerBands:
		return NewBollingerBands(DefaultBollingerWindow, DefaultBollingerNumStd)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind %q", kind)
	}
}
