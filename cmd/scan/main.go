package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"github.com/viettran295/vTrade/internal/config"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/scanner"
	"github.com/viettran295/vTrade/internal/strategy"
	"github.com/viettran295/vTrade/pkg/marketdata"
	"go.uber.org/zap"
)

// scanAction runs one scan over the configured symbols, and when a cron
// schedule is configured keeps rescanning until interrupted.
func scanAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	provider, err := marketdata.NewProvider(cfg.Provider.Type, cfg.Provider.APIKey())
	if err != nil {
		return err
	}

	strategies := make([]strategy.Strategy, 0, len(cfg.Strategies))

	for _, strategyCfg := range cfg.Strategies {
		strat, err := strategyCfg.Build()
		if err != nil {
			return err
		}

		strategies = append(strategies, strat)
	}

	scanCfg := scanner.Config{
		QueryInterval: cfg.Scan.QueryInterval,
		FetchTimeout:  cfg.Scan.FetchTimeout,
		DaysToScan:    cfg.Scan.DaysToScan,
		Interval:      cfg.Provider.Interval,
		Lookback:      cfg.Provider.Lookback,
	}

	scan, err := scanner.New(provider, scanner.LogSink{Log: appLogger}, scanCfg, appLogger)
	if err != nil {
		return err
	}

	run := func() {
		if _, err := scan.Scan(ctx, cfg.Symbols, strategies); err != nil {
			appLogger.Error("scan failed", zap.Error(err))
		}
	}

	run()

	schedule := cmd.String("schedule")
	if schedule == "" {
		schedule = cfg.Scan.Schedule
	}

	if schedule == "" {
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, run); err != nil {
		return err
	}

	scheduler.Start()
	appLogger.Info("scan scheduled", zap.String("schedule", schedule), zap.Strings("symbols", cfg.Symbols))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	// Let an in-flight scan finish before exiting.
	<-scheduler.Stop().Done()

	appLogger.Info("scanner stopped")

	return nil
}

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "scan",
		Usage: "Scan symbols for fresh buy and sell signals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron expression for periodic scans (overrides the config file)",
			},
		},
		Action: scanAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
