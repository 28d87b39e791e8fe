// Package scanner sweeps a universe of symbols for recent buy and sell
// signals.
//
// Fetches fan out concurrently over the symbols whose cache entries are
// stale; each symbol's failure is isolated and logged. A barrier joins
// all per-symbol processing before the aggregated report is published to
// the sink.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/strategy"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
	"github.com/viettran295/vTrade/pkg/marketdata"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default scan policy.
const (
	DefaultQueryInterval = time.Hour
	DefaultFetchTimeout  = 5 * time.Second
	DefaultDaysToScan    = 7
)

// SymbolSignals partitions the recent bars of one symbol/strategy pair
// into buy and sell events.
type SymbolSignals struct {
	Buys  []types.SignalEvent
	Sells []types.SignalEvent
}

// ScanReport aggregates one scan over all symbols and strategies.
type ScanReport struct {
	ID        string
	StartedAt time.Time
	// Signals is keyed by symbol, then strategy kind. Symbols whose
	// fetch or processing failed are absent.
	Signals map[string]map[types.StrategyKind]SymbolSignals
}

// Sink receives the completed report after every symbol has been
// processed.
type Sink interface {
	Publish(report ScanReport) error
}

// LogSink publishes scan reports to the log.
type LogSink struct {
	Log *logger.Logger
}

// Publish implements Sink.
func (s LogSink) Publish(report ScanReport) error {
	s.Log.Info("scan report", zap.String("scan_id", report.ID), zap.Time("started_at", report.StartedAt))

	for symbol, byStrategy := range report.Signals {
		for kind, signals := range byStrategy {
			if len(signals.Buys) == 0 && len(signals.Sells) == 0 {
				continue
			}

			s.Log.Info("signals",
				zap.String("symbol", symbol),
				zap.String("strategy", string(kind)),
				zap.Any("buy", signals.Buys),
				zap.Any("sell", signals.Sells),
			)
		}
	}

	return nil
}

// Config tunes the scan policy.
type Config struct {
	// QueryInterval is how long a cached fetch stays fresh.
	QueryInterval time.Duration
	// FetchTimeout bounds each per-symbol fetch.
	FetchTimeout time.Duration
	// DaysToScan is how many trailing bars are partitioned into events.
	DaysToScan int
	// Interval is the bar spacing requested from the provider.
	Interval marketdata.Interval
	// Lookback is the fetched date range ending now.
	Lookback time.Duration
}

// DefaultConfig returns the standard scan policy: hourly refresh, 5 s
// fetch timeout, last 7 bars, daily bars over three years.
func DefaultConfig() Config {
	return Config{
		QueryInterval: DefaultQueryInterval,
		FetchTimeout:  DefaultFetchTimeout,
		DaysToScan:    DefaultDaysToScan,
		Interval:      marketdata.IntervalDay,
		Lookback:      3 * 365 * 24 * time.Hour,
	}
}

// Scanner owns the cache and orchestrates fetch, signal computation and
// aggregation. The cache lives for the scanner's lifetime.
type Scanner struct {
	source marketdata.Provider
	cache  *ScanCache
	sink   Sink
	config Config
	log    *logger.Logger

	// now is injectable for staleness tests.
	now func() time.Time
}

// New creates a scanner over the given provider and sink.
func New(source marketdata.Provider, sink Sink, config Config, log *logger.Logger) (*Scanner, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "market data provider is required")
	}

	if sink == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "sink is required")
	}

	if config.QueryInterval <= 0 || config.FetchTimeout <= 0 || config.DaysToScan <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "scan intervals and days to scan must be positive")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scanner{
		source: source,
		cache:  NewScanCache(),
		sink:   sink,
		config: config,
		log:    log,
		now:    time.Now,
	}, nil
}

// Scan refreshes stale symbols, applies every strategy to every cached
// symbol and publishes the aggregated report. Per-symbol failures are
// logged and skipped; the scan itself only fails on a nil input or a
// sink error.
func (s *Scanner) Scan(ctx context.Context, symbols []string, strategies []strategy.Strategy) (ScanReport, error) {
	report := ScanReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Signals:   make(map[string]map[types.StrategyKind]SymbolSignals),
	}

	if len(symbols) == 0 || len(strategies) == 0 {
		return report, errors.New(errors.ErrCodeMissingParameter, "symbols and strategies are required")
	}

	symbols = dedupe(symbols)
	s.refresh(ctx, symbols)

	var mu sync.Mutex

	var wg sync.WaitGroup

	for _, symbol := range symbols {
		series, ok := s.cache.Get(symbol)
		if !ok {
			s.log.Warn("no cached data for symbol, skipping", zap.String("symbol", symbol))
			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			bySymbol := s.process(symbol, series, strategies)
			if len(bySymbol) == 0 {
				return
			}

			mu.Lock()
			report.Signals[symbol] = bySymbol
			mu.Unlock()
		}()
	}

	// all symbols finish before anything is reported
	wg.Wait()

	if err := s.sink.Publish(report); err != nil {
		return report, errors.Wrap(errors.ErrCodeUnknown, "failed to publish scan report", err)
	}

	return report, nil
}

// dedupe keeps the first occurrence of each symbol so no series is ever
// processed by two goroutines in one scan.
func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		if _, ok := seen[symbol]; ok {
			continue
		}

		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}

	return out
}

// refresh fans out fetches for the symbols whose cache entries are
// stale. Each fetch failure is isolated: it logs and leaves the cache
// entry absent without aborting sibling fetches.
func (s *Scanner) refresh(ctx context.Context, symbols []string) {
	now := s.now()

	var group errgroup.Group

	for _, symbol := range symbols {
		if !s.cache.NeedsRefresh(symbol, now, s.config.QueryInterval) {
			s.log.Debug("cache is fresh, skipping fetch", zap.String("symbol", symbol))
			continue
		}

		group.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
			defer cancel()

			series, err := s.source.Fetch(fetchCtx, symbol, s.config.Interval, now.Add(-s.config.Lookback), now)
			if err != nil {
				s.log.Warn("fetch failed",
					zap.String("symbol", symbol),
					zap.Int("code", int(errors.GetCode(err))),
					zap.Error(err),
				)

				return nil
			}

			s.cache.Put(symbol, series, now)

			return nil
		})
	}

	_ = group.Wait()
}

// process applies each strategy to the symbol's series and partitions
// the trailing bars into buy and sell events.
func (s *Scanner) process(symbol string, series *types.Series, strategies []strategy.Strategy) map[types.StrategyKind]SymbolSignals {
	out := make(map[types.StrategyKind]SymbolSignals)

	for _, strat := range strategies {
		if err := strat.Apply(series); err != nil {
			s.log.Warn("strategy failed for symbol",
				zap.String("symbol", symbol),
				zap.String("strategy", string(strat.Kind())),
				zap.Error(err),
			)

			continue
		}

		ref := strat.SignalRef()

		signals, ok := series.Signal(ref.Name())
		if !ok {
			s.log.Warn("signal column absent after processing, skipping",
				zap.String("symbol", symbol),
				zap.String("signal", ref.Name()),
			)

			continue
		}

		out[strat.Kind()] = s.recognize(series, signals)
	}

	return out
}

// recognize partitions the last DaysToScan bars into buy and sell
// events.
func (s *Scanner) recognize(series *types.Series, signals []optional.Option[types.SignalValue]) SymbolSignals {
	var events SymbolSignals

	lo := series.Len() - s.config.DaysToScan
	if lo < 0 {
		lo = 0
	}

	for i := lo; i < series.Len(); i++ {
		if signals[i].IsNone() {
			continue
		}

		event := types.SignalEvent{
			Datetime: series.Bars[i].Datetime,
			Close:    series.Bars[i].Close,
			Value:    signals[i].Unwrap(),
		}

		switch event.Value {
		case types.SignalBuy:
			events.Buys = append(events.Buys, event)
		case types.SignalSell:
			events.Sells = append(events.Sells, event)
		}
	}

	return events
}
