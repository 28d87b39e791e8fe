package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/viettran295/vTrade/internal/backtest"
	"github.com/viettran295/vTrade/internal/config"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/optimizer"
	"github.com/viettran295/vTrade/internal/store"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/marketdata"
	"go.uber.org/zap"
)

// backtestAction fetches (or loads cached) series for the symbol, applies
// the configured strategies, persists the derived columns and replays
// each signal through the backtester.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	symbol := cmd.String("symbol")
	if symbol == "" {
		symbol = cfg.Symbols[0]
	}

	db, err := store.New(cfg.Store.Path, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	series, err := loadSeries(ctx, cfg, db, symbol, appLogger)
	if err != nil {
		return err
	}

	for _, strategyCfg := range cfg.Strategies {
		strat, err := strategyCfg.Build()
		if err != nil {
			return err
		}

		if err := strat.Apply(series); err != nil {
			appLogger.Warn("strategy failed",
				zap.String("symbol", symbol),
				zap.String("strategy", string(strat.Kind())),
				zap.Error(err),
			)

			continue
		}

		signalRef := strat.SignalRef()
		if err := db.AddColumns(symbol, series, []string{signalRef.Name()}); err != nil {
			appLogger.Warn("failed to persist signal column", zap.Error(err))
		}

		bt := backtest.New(cfg.Backtest.InitialCash, appLogger)
		if err := bt.SetData(series, signalRef); err != nil {
			return err
		}

		if err := bt.Run(); err != nil {
			return err
		}

		bt.Report()
	}

	if cmd.Bool("optimize") {
		return optimize(ctx, cfg, series, appLogger)
	}

	return nil
}

// loadSeries serves the symbol from the store when cached, otherwise
// fetches it from the configured provider and caches it.
func loadSeries(ctx context.Context, cfg config.Config, db *store.DuckDB, symbol string, appLogger *logger.Logger) (*types.Series, error) {
	series, ok, err := db.Get(symbol)
	if err != nil {
		return nil, err
	}

	if ok {
		appLogger.Info("serving cached series", zap.String("symbol", symbol), zap.Int("bars", series.Len()))
		return series, nil
	}

	provider, err := marketdata.NewProvider(cfg.Provider.Type, cfg.Provider.APIKey())
	if err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.Add(-cfg.Provider.Lookback)

	series, err = provider.Fetch(ctx, symbol, cfg.Provider.Interval, start, end)
	if err != nil {
		return nil, err
	}

	if err := db.Put(symbol, series); err != nil {
		return nil, err
	}

	return series, nil
}

func optimize(ctx context.Context, cfg config.Config, series *types.Series, appLogger *logger.Logger) error {
	optCfg := optimizer.Config{
		ShortRange:   cfg.Optimizer.ShortRange,
		DiffRange:    cfg.Optimizer.DiffRange,
		MAKinds:      cfg.Optimizer.MAKinds,
		InitialCash:  cfg.Backtest.InitialCash,
		Parallelism:  cfg.Optimizer.Parallelism,
		ShowProgress: true,
	}

	opt, err := optimizer.New(optCfg, appLogger)
	if err != nil {
		return err
	}

	record, err := opt.Optimize(ctx, series)
	if err != nil {
		return err
	}

	appLogger.Info("best crossover",
		zap.Int("short_window", record.ShortWindow),
		zap.Int("long_window", record.LongWindow),
		zap.String("ma_kind", string(record.MAKind)),
		zap.Float64("max_profit_pct", record.MaxProfitPct),
	)

	return nil
}

func main() {
	// Missing .env is fine, keys may come from the real environment.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest trading strategies against historical bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"s"},
				Usage:   "Symbol to backtest (defaults to the first configured symbol)",
			},
			&cli.BoolFlag{
				Name:    "optimize",
				Aliases: []string{"o"},
				Usage:   "Grid-search the crossing MA windows after the backtests",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
