package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/pkg/marketdata"
	"go.uber.org/zap"
)

// streamAction tails live prices for one asset until interrupted.
func streamAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	asset := cmd.String("asset")

	stream := marketdata.NewPriceStream(appLogger)

	ticks, err := stream.Watch(ctx, asset)
	if err != nil {
		return err
	}

	appLogger.Info("streaming prices", zap.String("asset", asset))

	for tick := range ticks {
		appLogger.Info("tick",
			zap.String("asset", tick.Asset),
			zap.Float64("price", tick.Price),
			zap.Time("at", tick.At),
		)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "stream",
		Usage: "Stream live crypto prices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "asset",
				Aliases: []string{"a"},
				Usage:   "Asset slug to stream, e.g. bitcoin",
				Value:   "bitcoin",
			},
		},
		Action: streamAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
