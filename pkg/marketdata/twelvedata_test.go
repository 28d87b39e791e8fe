package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/suite"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// TwelveDataTestSuite is a test suite for the twelvedata adapter,
// backed by a stub HTTP server.
type TwelveDataTestSuite struct {
	suite.Suite
}

// TestTwelveDataSuite runs the test suite.
func TestTwelveDataSuite(t *testing.T) {
	suite.Run(t, new(TwelveDataTestSuite))
}

func (suite *TwelveDataTestSuite) newProvider(handler http.HandlerFunc) (*TwelveData, *httptest.Server) {
	server := httptest.NewServer(handler)

	provider := &TwelveData{
		client: resty.New().SetBaseURL(server.URL),
		apiKey: "test-key",
	}

	return provider, server
}

func (suite *TwelveDataTestSuite) fetch(provider *TwelveData) (*types.Series, error) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	return provider.Fetch(context.Background(), "AAPL", IntervalDay, start, end)
}

// TestFetchParsesAndSortsAscending verifies the newest-first wire order
// comes back as an ascending series with parsed floats.
func (suite *TwelveDataTestSuite) TestFetchParsesAndSortsAscending() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("AAPL", r.URL.Query().Get("symbol"))
		suite.Equal("1day", r.URL.Query().Get("interval"))
		suite.Equal("test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2024-01-03", "open": "102", "high": "104", "low": "101", "close": "103", "volume": "3000"},
				{"datetime": "2024-01-02", "open": "101", "high": "103", "low": "100", "close": "102", "volume": "2000"},
				{"datetime": "2024-01-01", "open": "100", "high": "102", "low": "99", "close": "101", "volume": "1000"}
			]
		}`))
	})
	defer server.Close()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	series, err := provider.Fetch(context.Background(), "AAPL", IntervalDay, start, end)
	suite.Require().NoError(err)
	suite.Require().Equal(3, series.Len())

	suite.InDelta(101, series.Bars[0].Close, 1e-9)
	suite.InDelta(103, series.Bars[2].Close, 1e-9)
	suite.True(series.Bars[0].Datetime.Before(series.Bars[1].Datetime))
}

// TestFetchAcceptsMissingVolume verifies volume-less plans parse with a
// zero volume.
func (suite *TwelveDataTestSuite) TestFetchAcceptsMissingVolume() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2024-01-02 15:30:00", "open": "101", "high": "103", "low": "100", "close": "102", "volume": ""}
			]
		}`))
	})
	defer server.Close()

	series, err := suite.fetch(provider)
	suite.Require().NoError(err)
	suite.Require().Equal(1, series.Len())
	suite.InDelta(0.0, series.Bars[0].Volume, 1e-9)
}

// TestFetchNoData verifies an empty values array reports the
// no-data-for-symbol code.
func (suite *TwelveDataTestSuite) TestFetchNoData() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "values": []}`))
	})
	defer server.Close()

	_, err := suite.fetch(provider)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeNoDataForSymbol, errors.GetCode(err))
}

// TestFetchMissingCloseInvalidatesSeries verifies one malformed record
// fails the whole fetch with a parse code.
func (suite *TwelveDataTestSuite) TestFetchMissingCloseInvalidatesSeries() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2024-01-02", "open": "101", "high": "103", "low": "100", "close": "102", "volume": "2000"},
				{"datetime": "2024-01-01", "open": "100", "high": "102", "low": "99", "close": "", "volume": "1000"}
			]
		}`))
	})
	defer server.Close()

	_, err := suite.fetch(provider)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeMarketDataParse, errors.GetCode(err))
}

// TestFetchHTTPError verifies a non-200 status maps to the fetch-failed
// code.
func (suite *TwelveDataTestSuite) TestFetchHTTPError() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer server.Close()

	_, err := suite.fetch(provider)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeFetchFailed, errors.GetCode(err))
}

// TestFetchTimeoutClassification verifies a deadline maps to the
// timeout code, so scanners can tell slow upstreams from broken ones.
func (suite *TwelveDataTestSuite) TestFetchTimeoutClassification() {
	provider, server := suite.newProvider(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := provider.Fetch(ctx, "AAPL", IntervalDay, start, end)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeFetchTimeout, errors.GetCode(err))
}

// TestNewTwelveDataRequiresKey verifies the constructor guard.
func (suite *TwelveDataTestSuite) TestNewTwelveDataRequiresKey() {
	_, err := NewTwelveData("")
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeMissingParameter, errors.GetCode(err))
}

// TestNewProviderDispatch verifies the provider factory.
func (suite *TwelveDataTestSuite) TestNewProviderDispatch() {
	provider, err := NewProvider(ProviderBinance, "")
	suite.Require().NoError(err)
	suite.Equal("binance", provider.Name())

	_, err = NewProvider(ProviderType("yahoo"), "")
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidProvider, errors.GetCode(err))
}
