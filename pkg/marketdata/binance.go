package marketdata

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Binance fetches historical klines through the official binance client.
// Historical data needs no API credentials.
type Binance struct {
	client *binance.Client
}

// NewBinance creates a binance provider.
func NewBinance() *Binance {
	return &Binance{client: binance.NewClient("", "")}
}

// Name implements Provider.
func (b *Binance) Name() string {
	return string(ProviderBinance)
}

func binanceInterval(interval Interval) (string, error) {
	switch interval {
	case IntervalMinute:
		return "1m", nil
	case IntervalHour:
		return "1h", nil
	case IntervalDay:
		return "1d", nil
	case IntervalWeek:
		return "1w", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", interval)
	}
}

// Fetch implements Provider.
func (b *Binance) Fetch(ctx context.Context, symbol string, interval Interval, start, end time.Time) (*types.Series, error) {
	iv, err := binanceInterval(interval)
	if err != nil {
		return nil, err
	}

	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(iv).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Do(ctx)
	if err != nil {
		return nil, classifyTransportError(symbol, err)
	}

	if len(klines) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol %s", symbol)
	}

	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParse, err,
				"malformed kline for symbol %s", symbol)
		}

		bars = append(bars, bar)
	}

	return types.NewSeries(symbol, bars)
}

func klineToBar(k *binance.Kline) (types.Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.Bar{}, err
	}

	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.Bar{}, err
	}

	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.Bar{}, err
	}

	close, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.Bar{}, err
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.Bar{}, err
	}

	return types.Bar{
		Datetime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   volume,
	}, nil
}
