package marketdata

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Polygon fetches aggregate bars through the official polygon.io client.
type Polygon struct {
	client *polygon.Client
}

// NewPolygon creates a polygon provider.
func NewPolygon(apiKey string) (*Polygon, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon API key is required")
	}

	return &Polygon{client: polygon.New(apiKey)}, nil
}

// Name implements Provider.
func (p *Polygon) Name() string {
	return string(ProviderPolygon)
}

func polygonTimespan(interval Interval) (models.Timespan, error) {
	switch interval {
	case IntervalMinute:
		return models.Minute, nil
	case IntervalHour:
		return models.Hour, nil
	case IntervalDay:
		return models.Day, nil
	case IntervalWeek:
		return models.Week, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", interval)
	}
}

// Fetch implements Provider.
func (p *Polygon) Fetch(ctx context.Context, symbol string, interval Interval, start, end time.Time) (*types.Series, error) {
	timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)

	var bars []types.Bar

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.Bar{
			Datetime: time.Time(agg.Timestamp),
			Open:     agg.Open,
			High:     agg.High,
			Low:      agg.Low,
			Close:    agg.Close,
			Volume:   agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, classifyTransportError(symbol, err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol %s", symbol)
	}

	return types.NewSeries(symbol, bars)
}
