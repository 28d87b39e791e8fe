package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// BollingerStrategyTestSuite is a test suite for the band-breach
// strategy.
type BollingerStrategyTestSuite struct {
	suite.Suite
}

// TestBollingerStrategySuite runs the test suite.
func TestBollingerStrategySuite(t *testing.T) {
	suite.Run(t, new(BollingerStrategyTestSuite))
}

// newBreachSeries builds a series with the given highs and lows; closes
// sit midway.
func (suite *BollingerStrategyTestSuite) newBreachSeries(highs, lows []float64) *types.Series {
	suite.Require().Equal(len(highs), len(lows))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(highs))

	for i := range bars {
		mid := (highs[i] + lows[i]) / 2
		bars[i] = types.Bar{
			Datetime: base.AddDate(0, 0, i),
			Open:     mid,
			High:     highs[i],
			Low:      lows[i],
			Close:    mid,
			Volume:   1000,
		}
	}

	series, err := types.NewSeries("TEST", bars)
	suite.Require().NoError(err)

	return series
}

// setBands injects precomputed band columns.
func (suite *BollingerStrategyTestSuite) setBands(s *types.Series, b *BollingerBands, ma, upper, lower []float64) {
	refs := b.SignalRef().(types.BollingerSignalRef).BandRefs()
	suite.Require().NoError(s.SetColumn(refs.MovingAvg(), ma))
	suite.Require().NoError(s.SetColumn(refs.UpperBand(), upper))
	suite.Require().NoError(s.SetColumn(refs.LowerBand(), lower))
}

// TestBandBreaches pins sell on an upper breach, buy on a lower breach
// and silence inside the bands.
func (suite *BollingerStrategyTestSuite) TestBandBreaches() {
	b, err := NewBollingerBands(3, 2)
	suite.Require().NoError(err)

	series := suite.newBreachSeries(
		[]float64{100, 112, 104, 104},
		[]float64{96, 108, 100, 88},
	)

	flat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}

		return out
	}

	suite.setBands(series, b, flat(100, 4), flat(110, 4), flat(90, 4))

	suite.Require().NoError(b.Apply(series))

	signals, ok := series.Signal(b.SignalRef().Name())
	suite.Require().True(ok)

	suite.True(signals[0].IsNone(), "inside the bands")
	suite.Equal(types.SignalSell, signals[1].Unwrap(), "high above upper band")
	suite.True(signals[2].IsNone())
	suite.Equal(types.SignalBuy, signals[3].Unwrap(), "low below lower band")
}

// TestSellWinsWhenBothBandsBreached verifies the sell condition is
// checked first when one bar breaches both bands.
func (suite *BollingerStrategyTestSuite) TestSellWinsWhenBothBandsBreached() {
	b, err := NewBollingerBands(3, 2)
	suite.Require().NoError(err)

	series := suite.newBreachSeries([]float64{120}, []float64{80})
	suite.setBands(series, b, []float64{100}, []float64{110}, []float64{90})

	suite.Require().NoError(b.Apply(series))

	signals, _ := series.Signal(b.SignalRef().Name())
	suite.Equal(types.SignalSell, signals[0].Unwrap())
}

// TestNullBandsStaySilent verifies bars without defined bands produce no
// signal.
func (suite *BollingerStrategyTestSuite) TestNullBandsStaySilent() {
	b, err := NewBollingerBands(3, 2)
	suite.Require().NoError(err)

	series := suite.newBreachSeries([]float64{120, 120}, []float64{80, 80})
	suite.setBands(series, b,
		[]float64{types.Null(), 100},
		[]float64{types.Null(), 110},
		[]float64{types.Null(), 90})

	suite.Require().NoError(b.Apply(series))

	signals, _ := series.Signal(b.SignalRef().Name())
	suite.True(signals[0].IsNone())
	suite.Equal(types.SignalSell, signals[1].Unwrap())
}

// TestNewBollingerBandsValidation verifies parameter validation.
func (suite *BollingerStrategyTestSuite) TestNewBollingerBandsValidation() {
	_, err := NewBollingerBands(0, 2)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))

	_, err = NewBollingerBands(20, 0)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))
}
