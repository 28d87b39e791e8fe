// Package config loads the YAML runtime configuration shared by the
// backtest and scan commands.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/viettran295/vTrade/internal/indicator"
	"github.com/viettran295/vTrade/internal/optimizer"
	"github.com/viettran295/vTrade/internal/strategy"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
	"github.com/viettran295/vTrade/pkg/marketdata"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file.
type Config struct {
	Provider   ProviderConfig   `yaml:"provider" validate:"required"`
	Store      StoreConfig      `yaml:"store"`
	Symbols    []string         `yaml:"symbols" validate:"min=1,dive,required"`
	Strategies []StrategyConfig `yaml:"strategies" validate:"min=1,dive"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Scan       ScanConfig       `yaml:"scan"`
}

// ProviderConfig selects the market data provider. The API key is read
// from the named environment variable, never from the file itself.
type ProviderConfig struct {
	Type      marketdata.ProviderType `yaml:"type" validate:"required,oneof=twelvedata polygon binance"`
	APIKeyEnv string                  `yaml:"api_key_env"`
	Interval  marketdata.Interval     `yaml:"interval" validate:"required,oneof=1min 1h 1day 1week"`
	Lookback  time.Duration           `yaml:"lookback" validate:"gt=0"`
}

// APIKey resolves the provider API key from the environment.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}

	return os.Getenv(p.APIKeyEnv)
}

type StoreConfig struct {
	// Path of the DuckDB database file. Empty means in-memory.
	Path string `yaml:"path"`
}

// StrategyConfig names a strategy kind with optional overrides. Zero
// values fall back to the strategy defaults.
type StrategyConfig struct {
	Kind        types.StrategyKind  `yaml:"kind" validate:"required,oneof=crossing_ma rsi bollinger_bands"`
	MAKind      types.IndicatorType `yaml:"ma_kind"`
	ShortWindow int                 `yaml:"short_window" validate:"gte=0"`
	LongWindow  int                 `yaml:"long_window" validate:"gte=0"`
	Period      int                 `yaml:"period" validate:"gte=0"`
	Lower       float64             `yaml:"lower" validate:"gte=0"`
	Upper       float64             `yaml:"upper" validate:"gte=0,lte=100"`
	Window      int                 `yaml:"window" validate:"gte=0"`
	NumStd      float64             `yaml:"num_std" validate:"gte=0"`
}

// Build constructs the configured strategy, falling back to the
// strategy defaults for any zero-valued field.
func (sc StrategyConfig) Build() (strategy.Strategy, error) {
	switch sc.Kind {
	case types.StrategyCrossingMA:
		maKind := sc.MAKind
		if maKind == "" {
			maKind = types.IndicatorTypeSMA
		}

		short := sc.ShortWindow
		if short == 0 {
			short = strategy.DefaultShortWindow
		}

		long := sc.LongWindow
		if long == 0 {
			long = strategy.DefaultLongWindow
		}

		return strategy.NewCrossingMA(maKind, short, long)
	case types.StrategyRSI:
		period := sc.Period
		if period == 0 {
			period = indicator.DefaultRSIPeriod
		}

		lower := sc.Lower
		if lower == 0 {
			lower = strategy.DefaultRSILowerBound
		}

		upper := sc.Upper
		if upper == 0 {
			upper = strategy.DefaultRSIUpperBound
		}

		return strategy.NewRSI(period, lower, upper)
	case types.StrategyBollingerBands:
		window := sc.Window
		if window == 0 {
			window = strategy.DefaultBollingerWindow
		}

		numStd := sc.NumStd
		if numStd == 0 {
			numStd = strategy.DefaultBollingerNumStd
		}

		return strategy.NewBollingerBands(window, numStd)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown strategy kind %q", sc.Kind)
	}
}

type BacktestConfig struct {
	InitialCash float64 `yaml:"initial_cash" validate:"gt=0"`
}

type OptimizerConfig struct {
	ShortRange  optimizer.Range       `yaml:"short_range"`
	DiffRange   optimizer.Range       `yaml:"diff_range"`
	MAKinds     []types.IndicatorType `yaml:"ma_kinds"`
	Parallelism int                   `yaml:"parallelism" validate:"gte=1"`
}

type ScanConfig struct {
	// Schedule is a cron expression for periodic scans. Empty disables
	// the schedule and the scan command runs once.
	Schedule      string        `yaml:"schedule"`
	QueryInterval time.Duration `yaml:"query_interval" validate:"gt=0"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	DaysToScan    int           `yaml:"days_to_scan" validate:"gt=0"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	opt := optimizer.DefaultConfig()

	return Config{
		Provider: ProviderConfig{
			Type:      marketdata.ProviderTwelveData,
			APIKeyEnv: "TWELVEDATA_API_KEY",
			Interval:  marketdata.IntervalDay,
			Lookback:  3 * 365 * 24 * time.Hour,
		},
		Store:   StoreConfig{Path: "vtrade.duckdb"},
		Symbols: []string{"AAPL"},
		Strategies: []StrategyConfig{
			{Kind: types.StrategyCrossingMA},
		},
		Backtest: BacktestConfig{InitialCash: 10000},
		Optimizer: OptimizerConfig{
			ShortRange:  opt.ShortRange,
			DiffRange:   opt.DiffRange,
			MAKinds:     opt.MAKinds,
			Parallelism: opt.Parallelism,
		},
		Scan: ScanConfig{
			QueryInterval: time.Hour,
			FetchTimeout:  5 * time.Second,
			DaysToScan:    7,
		},
	}
}

// Load reads a YAML configuration file, applies defaults for omitted
// sections, and validates the result. An empty path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return cfg, nil
}

// applyDefaults backfills zero-valued sections so a partial file stays
// valid.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Provider.Interval == "" {
		c.Provider.Interval = def.Provider.Interval
	}

	if c.Provider.Lookback == 0 {
		c.Provider.Lookback = def.Provider.Lookback
	}

	if c.Backtest.InitialCash == 0 {
		c.Backtest.InitialCash = def.Backtest.InitialCash
	}

	if c.Optimizer.ShortRange == (optimizer.Range{}) {
		c.Optimizer.ShortRange = def.Optimizer.ShortRange
	}

	if c.Optimizer.DiffRange == (optimizer.Range{}) {
		c.Optimizer.DiffRange = def.Optimizer.DiffRange
	}

	if len(c.Optimizer.MAKinds) == 0 {
		c.Optimizer.MAKinds = def.Optimizer.MAKinds
	}

	if c.Optimizer.Parallelism == 0 {
		c.Optimizer.Parallelism = def.Optimizer.Parallelism
	}

	if c.Scan.QueryInterval == 0 {
		c.Scan.QueryInterval = def.Scan.QueryInterval
	}

	if c.Scan.FetchTimeout == 0 {
		c.Scan.FetchTimeout = def.Scan.FetchTimeout
	}

	if c.Scan.DaysToScan == 0 {
		c.Scan.DaysToScan = def.Scan.DaysToScan
	}
}
