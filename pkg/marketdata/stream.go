package marketdata

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/pkg/errors"
	"go.uber.org/zap"
)

const coincapStreamURL = "wss://ws.coincap.io/prices"

// PriceTick is one live price update from the stream.
type PriceTick struct {
	Asset string
	Price float64
	At    time.Time
}

// PriceStream watches live asset prices over the coincap websocket feed.
type PriceStream struct {
	url string
	log *logger.Logger
}

// NewPriceStream creates a live price stream.
func NewPriceStream(log *logger.Logger) *PriceStream {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PriceStream{url: coincapStreamURL, log: log}
}

// Watch connects and emits a tick per received price update until ctx is
// cancelled or the connection drops. The returned channel is closed on
// exit.
func (ps *PriceStream) Watch(ctx context.Context, asset string) (<-chan PriceTick, error) {
	if asset == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "asset is required")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ps.url+"?assets="+asset, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStreamDisconnected, err, "failed to connect price stream for %s", asset)
	}

	ticks := make(chan PriceTick)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(ticks)
		defer conn.Close()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					ps.log.Warn("price stream closed", zap.String("asset", asset), zap.Error(err))
				}

				return
			}

			var prices map[string]string
			if err := json.Unmarshal(message, &prices); err != nil {
				ps.log.Warn("malformed price message", zap.String("asset", asset), zap.Error(err))
				continue
			}

			raw, ok := prices[asset]
			if !ok {
				continue
			}

			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				ps.log.Warn("malformed price value", zap.String("asset", asset), zap.String("value", raw))
				continue
			}

			select {
			case ticks <- PriceTick{Asset: asset, Price: price, At: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ticks, nil
}
