package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// newTestSeries builds a series whose high prices are the given values.
// Closes track highs minus one so close-based indicators stay plausible.
func newTestSeries(t *testing.T, highs []float64) *types.Series {
	t.Helper()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(highs))

	for i, h := range highs {
		bars[i] = types.Bar{
			Datetime: base.AddDate(0, 0, i),
			Open:     h - 0.5,
			High:     h,
			Low:      h - 2,
			Close:    h - 1,
			Volume:   1000,
		}
	}

	series, err := types.NewSeries("TEST", bars)
	if err != nil {
		t.Fatalf("failed to build test series: %v", err)
	}

	return series
}

// MATestSuite is a test suite for the moving average indicators.
type MATestSuite struct {
	suite.Suite
}

// TestMASuite runs the test suite.
func TestMASuite(t *testing.T) {
	suite.Run(t, new(MATestSuite))
}

// TestSMAKnownValues checks the SMA column against hand-computed values
// over the high price.
func (suite *MATestSuite) TestSMAKnownValues() {
	series := newTestSeries(suite.T(), []float64{10, 12, 11, 13, 9})

	ref, err := SMA(series, 2)
	suite.Require().NoError(err)
	suite.Equal("SMA_2", ref.Name())

	col, ok := series.Column(ref.Name())
	suite.Require().True(ok)

	suite.True(types.IsNull(col[0]))
	suite.InDelta(11.0, col[1], 1e-9)
	suite.InDelta(11.5, col[2], 1e-9)
	suite.InDelta(12.0, col[3], 1e-9)
	suite.InDelta(11.0, col[4], 1e-9)
}

// TestSMANullPrefixLength verifies the first window-1 entries are null
// and the rest are defined.
func (suite *MATestSuite) TestSMANullPrefixLength() {
	series := newTestSeries(suite.T(), []float64{10, 11, 12, 13, 14, 15})

	ref, err := SMA(series, 4)
	suite.Require().NoError(err)

	col, _ := series.Column(ref.Name())

	for i := 0; i < 3; i++ {
		suite.True(types.IsNull(col[i]), "index %d should be null", i)
	}

	for i := 3; i < len(col); i++ {
		suite.False(types.IsNull(col[i]), "index %d should be defined", i)
	}
}

// TestSMAIdempotent verifies recomputation with the same window keeps the
// existing column.
func (suite *MATestSuite) TestSMAIdempotent() {
	series := newTestSeries(suite.T(), []float64{10, 12, 11})

	ref, err := SMA(series, 2)
	suite.Require().NoError(err)

	first, _ := series.Column(ref.Name())

	_, err = SMA(series, 2)
	suite.Require().NoError(err)

	second, _ := series.Column(ref.Name())
	// same slice, not a recomputed copy
	suite.Same(&first[0], &second[0])
}

// TestSMAInvalidInput verifies window and series validation.
func (suite *MATestSuite) TestSMAInvalidInput() {
	series := newTestSeries(suite.T(), []float64{10, 12})

	_, err := SMA(series, 0)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidWindow, errors.GetCode(err))

	_, err = SMA(nil, 2)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeEmptySeries, errors.GetCode(err))
}

// TestEWMAFirstValueEqualsFirstHigh verifies the adjusted weighting is
// defined from the first bar.
func (suite *MATestSuite) TestEWMAFirstValueEqualsFirstHigh() {
	series := newTestSeries(suite.T(), []float64{42, 44, 43})

	ref, err := EWMA(series, 10)
	suite.Require().NoError(err)
	suite.Equal("EWMA_10", ref.Name())

	col, ok := series.Column(ref.Name())
	suite.Require().True(ok)
	suite.InDelta(42.0, col[0], 1e-9)
}

// TestEWMAKnownValues checks the adjusted weighting against
// hand-computed normalized sums for span 3 (alpha 0.5).
func (suite *MATestSuite) TestEWMAKnownValues() {
	series := newTestSeries(suite.T(), []float64{10, 20, 30})

	ref, err := EWMA(series, 3)
	suite.Require().NoError(err)

	col, _ := series.Column(ref.Name())

	// weights 1, 0.5, 0.25 over the reversed prefix
	suite.InDelta(10.0, col[0], 1e-9)
	suite.InDelta((20+0.5*10)/1.5, col[1], 1e-9)
	suite.InDelta((30+0.5*20+0.25*10)/1.75, col[2], 1e-9)
}

// TestEWMAConstantSeries verifies a flat series yields a flat average.
func (suite *MATestSuite) TestEWMAConstantSeries() {
	series := newTestSeries(suite.T(), []float64{7, 7, 7, 7})

	ref, err := EWMA(series, 5)
	suite.Require().NoError(err)

	col, _ := series.Column(ref.Name())
	for i := range col {
		suite.InDelta(7.0, col[i], 1e-9)
	}
}

// TestMADispatch verifies the kind dispatcher.
func (suite *MATestSuite) TestMADispatch() {
	series := newTestSeries(suite.T(), []float64{10, 12, 11})

	ref, err := MA(series, types.IndicatorTypeSMA, 2)
	suite.Require().NoError(err)
	suite.Equal("SMA_2", ref.Name())

	ref, err = MA(series, types.IndicatorTypeEWMA, 2)
	suite.Require().NoError(err)
	suite.Equal("EWMA_2", ref.Name())

	_, err = MA(series, types.IndicatorType("WMA"), 2)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidMAKind, errors.GetCode(err))
}
