package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// OptimizerTestSuite is a test suite for the crossover grid search.
type OptimizerTestSuite struct {
	suite.Suite
}

// TestOptimizerSuite runs the test suite.
func TestOptimizerSuite(t *testing.T) {
	suite.Run(t, new(OptimizerTestSuite))
}

// newOscillatingSeries builds a series whose price swings through several
// cycles so short crossovers transact.
func (suite *OptimizerTestSuite) newOscillatingSeries(n int) *types.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)

	for i := range bars {
		// triangle wave with period 10 between 90 and 110
		phase := i % 10
		price := 90.0 + float64(phase)*4
		if phase > 5 {
			price = 110.0 - float64(phase-5)*4
		}

		bars[i] = types.Bar{
			Datetime: base.AddDate(0, 0, i),
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			Volume:   1000,
		}
	}

	series, err := types.NewSeries("TEST", bars)
	suite.Require().NoError(err)

	return series
}

func (suite *OptimizerTestSuite) smallConfig(parallelism int) Config {
	return Config{
		ShortRange:  Range{Start: 2, Stop: 6, Step: 1},
		DiffRange:   Range{Start: 1, Stop: 5, Step: 1},
		MAKinds:     []types.IndicatorType{types.IndicatorTypeSMA, types.IndicatorTypeEWMA},
		InitialCash: 10000,
		Parallelism: parallelism,
	}
}

// TestRangeValues pins the half-open range semantics.
func (suite *OptimizerTestSuite) TestRangeValues() {
	suite.Equal([]int{10, 15, 20}, Range{Start: 10, Stop: 25, Step: 5}.Values())
	suite.Equal([]int{10, 15, 20}, Range{Start: 10, Stop: 21, Step: 5}.Values())
	suite.Empty(Range{Start: 10, Stop: 10, Step: 5}.Values())
}

// TestOptimizeFindsTransactingCombination verifies the search returns a
// combination whose windows fit the configured grid.
func (suite *OptimizerTestSuite) TestOptimizeFindsTransactingCombination() {
	opt, err := New(suite.smallConfig(1), nil)
	suite.Require().NoError(err)

	series := suite.newOscillatingSeries(60)

	record, err := opt.Optimize(context.Background(), series)
	suite.Require().NoError(err)

	suite.GreaterOrEqual(record.ShortWindow, 2)
	suite.Less(record.ShortWindow, 6)
	suite.Greater(record.LongWindow, record.ShortWindow)
	suite.Contains([]types.IndicatorType{types.IndicatorTypeSMA, types.IndicatorTypeEWMA}, record.MAKind)

	best, ok := opt.Best()
	suite.Require().True(ok)
	suite.Equal(record, best)

	bestSeries, ok := opt.BestSeries()
	suite.Require().True(ok)
	winner := types.CrossingMARef{MAKind: record.MAKind, Short: record.ShortWindow, Long: record.LongWindow}
	suite.True(bestSeries.HasSignal(winner.Name()))
	suite.False(series.HasSignal(winner.Name()), "input series stays untouched")
}

// TestOptimizeIsDeterministicAcrossParallelism verifies repeated runs and
// different worker counts resolve ties to the same combination.
func (suite *OptimizerTestSuite) TestOptimizeIsDeterministicAcrossParallelism() {
	series := suite.newOscillatingSeries(60)

	var records []OptimizationRecord

	for _, parallelism := range []int{1, 4, 4, 8} {
		opt, err := New(suite.smallConfig(parallelism), nil)
		suite.Require().NoError(err)

		record, err := opt.Optimize(context.Background(), series)
		suite.Require().NoError(err)

		records = append(records, record)
	}

	for i := 1; i < len(records); i++ {
		suite.Equal(records[0], records[i])
	}
}

// TestOptimizeFlatSeries verifies a series with no crossovers reports the
// no-data error rather than a zero-profit winner.
func (suite *OptimizerTestSuite) TestOptimizeFlatSeries() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, 30)

	for i := range bars {
		bars[i] = types.Bar{Datetime: base.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100, Volume: 1}
	}

	series, err := types.NewSeries("FLAT", bars)
	suite.Require().NoError(err)

	opt, err := New(suite.smallConfig(1), nil)
	suite.Require().NoError(err)

	_, err = opt.Optimize(context.Background(), series)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeOptimizerNoData, errors.GetCode(err))
}

// TestOptimizeNilSeries verifies the input guard.
func (suite *OptimizerTestSuite) TestOptimizeNilSeries() {
	opt, err := New(suite.smallConfig(1), nil)
	suite.Require().NoError(err)

	_, err = opt.Optimize(context.Background(), nil)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeOptimizerNoData, errors.GetCode(err))
}

// TestNewValidation verifies configuration validation.
func (suite *OptimizerTestSuite) TestNewValidation() {
	cfg := suite.smallConfig(1)
	cfg.MAKinds = nil

	_, err := New(cfg, nil)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	cfg = suite.smallConfig(0)
	_, err = New(cfg, nil)
	suite.Require().Error(err)
}
