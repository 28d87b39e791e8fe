package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/internal/indicator"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Default crossover windows.
const (
	DefaultShortWindow = 20
	DefaultLongWindow  = 50
)

// CrossingMA signals on moving-average crossovers: buy when the short MA
// crosses strictly above the long MA, sell when it crosses strictly
// below. A bar where both MAs are exactly equal produces no signal; the
// cross fires on the first bar that is strictly past the other side.
type CrossingMA struct {
	MAKind types.IndicatorType `validate:"required,oneof=SMA EWMA"`
	Short  int                 `validate:"gt=0"`
	Long   int                 `validate:"gt=0,gtfield=Short"`
}

// NewCrossingMA validates the windows and builds a crossover strategy.
func NewCrossingMA(maKind types.IndicatorType, short, long int) (*CrossingMA, error) {
	c := &CrossingMA{MAKind: maKind, Short: short, Long: long}
	if err := validate.Struct(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid crossing MA parameters", err)
	}

	return c, nil
}

// Kind implements Strategy.
func (c *CrossingMA) Kind() types.StrategyKind {
	return types.StrategyCrossingMA
}

// SignalRef implements Strategy.
func (c *CrossingMA) SignalRef() types.ColumnRef {
	return types.CrossingMARef{MAKind: c.MAKind, Short: c.Short, Long: c.Long}
}

// Apply implements Strategy.
func (c *CrossingMA) Apply(s *types.Series) error {
	if s == nil || s.Len() == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "series is nil or empty")
	}

	ref := c.SignalRef()
	if s.HasSignal(ref.Name()) {
		return nil
	}

	shortRef, err := indicator.MA(s, c.MAKind, c.Short)
	if err != nil {
		return err
	}

	longRef, err := indicator.MA(s, c.MAKind, c.Long)
	if err != nil {
		return err
	}

	short, _ := s.Column(shortRef.Name())
	long, _ := s.Column(longRef.Name())

	signals := make([]optional.Option[types.SignalValue], s.Len())

	// first bar has no prior bar to compare against
	for t := 1; t < s.Len(); t++ {
		if types.IsNull(short[t]) || types.IsNull(long[t]) ||
			types.IsNull(short[t-1]) || types.IsNull(long[t-1]) {
			continue
		}

		switch {
		case short[t] > long[t] && short[t-1] <= long[t-1]:
			signals[t] = optional.Some(types.SignalBuy)
		case short[t] < long[t] && short[t-1] >= long[t-1]:
			signals[t] = optional.Some(types.SignalSell)
		}
	}

	return s.SetSignal(ref.Name(), signals)
}
