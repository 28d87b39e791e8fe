// Package marketdata fetches OHLCV time series from upstream providers.
//
// Providers return ascending, validated Series and surface
// distinguishable error codes for timeouts, connection failures and
// empty responses, so callers can isolate per-symbol failures inside a
// batch.
package marketdata

import (
	"context"
	"time"

	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Interval is the bar spacing of a fetched series.
type Interval string

const (
	IntervalMinute Interval = "1min"
	IntervalHour   Interval = "1h"
	IntervalDay    Interval = "1day"
	IntervalWeek   Interval = "1week"
)

// Provider supplies OHLCV series for a symbol over a date range.
type Provider interface {
	// Fetch returns ascending bars for the symbol. Cancellation and
	// per-fetch timeouts are controlled through ctx.
	Fetch(ctx context.Context, symbol string, interval Interval, start, end time.Time) (*types.Series, error)
	// Name identifies the provider.
	Name() string
}

// ProviderType selects a provider implementation.
type ProviderType string

const (
	ProviderTwelveData ProviderType = "twelvedata"
	ProviderPolygon    ProviderType = "polygon"
	ProviderBinance    ProviderType = "binance"
)

// NewProvider builds a provider of the given type. apiKey is required for
// twelvedata and polygon; binance historical klines need no key.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderTwelveData:
		return NewTwelveData(apiKey)
	case ProviderPolygon:
		return NewPolygon(apiKey)
	case ProviderBinance:
		return NewBinance(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider type %q", providerType)
	}
}
