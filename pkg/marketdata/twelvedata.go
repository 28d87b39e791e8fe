package marketdata

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveData fetches time series from the twelvedata REST API. The
// response carries a "values" array of per-bar records with string
// fields, which the adapter parses, casts, sorts ascending and
// validates.
type TwelveData struct {
	client *resty.Client
	apiKey string
}

// NewTwelveData creates a twelvedata provider.
func NewTwelveData(apiKey string) (*TwelveData, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "twelvedata API key is required")
	}

	return &TwelveData{
		client: resty.New().SetBaseURL(twelveDataBaseURL),
		apiKey: apiKey,
	}, nil
}

// Name implements Provider.
func (t *TwelveData) Name() string {
	return string(ProviderTwelveData)
}

type timeSeriesResponse struct {
	Status string      `json:"status"`
	Values []barRecord `json:"values"`
}

type barRecord struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// Fetch implements Provider.
func (t *TwelveData) Fetch(ctx context.Context, symbol string, interval Interval, start, end time.Time) (*types.Series, error) {
	var payload timeSeriesResponse

	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"interval":   string(interval),
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
			"apikey":     t.apiKey,
		}).
		SetResult(&payload).
		Get("/time_series")
	if err != nil {
		return nil, classifyTransportError(symbol, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeFetchFailed,
			"twelvedata returned status %d for symbol %s", resp.StatusCode(), symbol)
	}

	if len(payload.Values) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataForSymbol, "no data for symbol %s", symbol)
	}

	bars := make([]types.Bar, 0, len(payload.Values))

	for _, record := range payload.Values {
		bar, err := record.toBar()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParse, err,
				"malformed bar for symbol %s at %s", symbol, record.Datetime)
		}

		bars = append(bars, bar)
	}

	return types.NewSeries(symbol, bars)
}

func (r barRecord) toBar() (types.Bar, error) {
	datetime, err := parseDatetime(r.Datetime)
	if err != nil {
		return types.Bar{}, err
	}

	open, err := strconv.ParseFloat(r.Open, 64)
	if err != nil {
		return types.Bar{}, err
	}

	high, err := strconv.ParseFloat(r.High, 64)
	if err != nil {
		return types.Bar{}, err
	}

	low, err := strconv.ParseFloat(r.Low, 64)
	if err != nil {
		return types.Bar{}, err
	}

	// a record without a close price invalidates the whole series
	close, err := strconv.ParseFloat(r.Close, 64)
	if err != nil {
		return types.Bar{}, err
	}

	// volume is optional on some plans
	volume := 0.0
	if r.Volume != "" {
		volume, err = strconv.ParseFloat(r.Volume, 64)
		if err != nil {
			return types.Bar{}, err
		}
	}

	return types.Bar{
		Datetime: datetime,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   volume,
	}, nil
}

func parseDatetime(value string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return ts, nil
	}

	return time.Parse("2006-01-02", value)
}

func classifyTransportError(symbol string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrapf(errors.ErrCodeFetchTimeout, err, "fetch timed out for symbol %s", symbol)
	}

	return errors.Wrapf(errors.ErrCodeFetchFailed, err, "fetch failed for symbol %s", symbol)
}
