// Package backtest replays a signal column against historical prices and
// records the resulting equity curve.
//
// The simulation is a strictly sequential two-state machine (flat,
// holding): each bar's outcome depends on the state left by the previous
// bar, so a single run must never be parallelized across time steps.
// Independent runs each own private state and reset it on Run.
package backtest

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
	"go.uber.org/zap"
)

// Position is the backtester state.
type Position int

const (
	PositionFlat Position = iota
	PositionHolding
)

// OrderFraction is the share of current cash committed per buy order.
const OrderFraction = 0.2

// DefaultInitialCash is the simulation default starting cash.
const DefaultInitialCash = 10000.0

// EquityPoint is one row of the equity curve, emitted only on bars where
// a transaction occurred. ProfitPct is computed from cash alone and
// deliberately ignores the mark-to-market value of held shares.
type EquityPoint struct {
	Datetime  time.Time
	Cash      float64
	Shares    float64
	ProfitPct float64
}

// OrderSizeProfit is one point of the order-size sweep: the maximum
// profit reached on the equity curve when every buy commits a fixed
// dollar order size.
type OrderSizeProfit struct {
	OrderSize float64
	MaxProfit float64
}

// Backtester simulates a single-position long-only strategy. State is
// private to one run and reset at the start of every Run call.
type Backtester struct {
	initCash float64
	cash     float64
	shares   float64
	position Position

	data      *types.Series
	signalRef types.ColumnRef
	results   []EquityPoint

	log *logger.Logger
}

// New creates a backtester with the given starting cash.
func New(initialCash float64, log *logger.Logger) *Backtester {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Backtester{
		initCash: initialCash,
		cash:     initialCash,
		shares:   0,
		position: PositionFlat,
		log:      log,
	}
}

// SetData attaches the series and the signal column to replay. The
// series must carry the signal column under its ref name.
func (b *Backtester) SetData(s *types.Series, ref types.ColumnRef) error {
	if s == nil || s.Len() == 0 {
		return errors.New(errors.ErrCodeBacktestNoData, "backtest data is nil or empty")
	}

	if !s.HasSignal(ref.Name()) {
		return errors.Newf(errors.ErrCodeBacktestNoSignal, "signal column %s is missing", ref.Name())
	}

	b.data = s
	b.signalRef = ref

	return nil
}

// Run replays the signal against the data in ascending bar order. Cash,
// holdings and position are reset first, so runs on the same instance
// are independent.
//
// A buy while flat commits OrderFraction of current cash, buying
// floor(order/close) shares. The position flips to holding even when the
// floored share count is zero; this phantom position is kept as-is
// pending product clarification and is pinned by a test.
func (b *Backtester) Run() error {
	if b.data == nil {
		return errors.New(errors.ErrCodeBacktestNoData, "no data set, call SetData before Run")
	}

	b.reset()

	runID := uuid.NewString()
	signals, _ := b.data.Signal(b.signalRef.Name())

	for i, bar := range b.data.Bars {
		sig := signals[i]
		if sig.IsNone() {
			continue
		}

		switch {
		case sig.Unwrap() == types.SignalBuy && b.position == PositionFlat:
			b.position = PositionHolding
			b.buy(bar.Close)
		case sig.Unwrap() == types.SignalSell && b.position == PositionHolding:
			b.position = PositionFlat
			if b.shares > 0 {
				b.sellAll(bar.Close)
			}
		default:
			continue
		}

		b.results = append(b.results, EquityPoint{
			Datetime:  bar.Datetime,
			Cash:      b.cash,
			Shares:    b.shares,
			ProfitPct: (b.cash - b.initCash) / b.initCash * 100,
		})
	}

	b.log.Debug("backtest run finished",
		zap.String("run_id", runID),
		zap.String("symbol", b.data.Symbol),
		zap.String("signal", b.signalRef.Name()),
		zap.Int("transactions", len(b.results)),
	)

	return nil
}

func (b *Backtester) buy(close float64) {
	orderSize := decimal.NewFromFloat(b.cash).Mul(decimal.NewFromFloat(OrderFraction))
	price := decimal.NewFromFloat(close)

	sharesToBuy := orderSize.Div(price).Floor()
	cost := sharesToBuy.Mul(price)

	b.shares += sharesToBuy.InexactFloat64()
	b.cash = decimal.NewFromFloat(b.cash).Sub(cost).InexactFloat64()
}

func (b *Backtester) sellAll(close float64) {
	proceeds := decimal.NewFromFloat(b.shares).Mul(decimal.NewFromFloat(close))

	b.cash = decimal.NewFromFloat(b.cash).Add(proceeds).InexactFloat64()
	b.shares = 0
}

func (b *Backtester) reset() {
	b.cash = b.initCash
	b.shares = 0
	b.position = PositionFlat
	b.results = nil
}

// Results returns the equity curve of the last run.
func (b *Backtester) Results() []EquityPoint {
	return b.results
}

// MaxProfitPct returns the running maximum profit over the equity curve
// of the last run. The second return is false when no transaction
// occurred.
func (b *Backtester) MaxProfitPct() (float64, bool) {
	if len(b.results) == 0 {
		return 0, false
	}

	max := math.Inf(-1)
	for _, p := range b.results {
		if p.ProfitPct > max {
			max = p.ProfitPct
		}
	}

	return max, true
}

// Report logs a summary of the last run.
func (b *Backtester) Report() {
	b.log.Info("backtest report",
		zap.Float64("initial_cash", b.initCash),
		zap.Float64("final_cash", b.cash),
		zap.Float64("shares_held", b.shares),
		zap.Float64("profit", b.cash-b.initCash),
		zap.Float64("profit_pct", (b.cash-b.initCash)/b.initCash*100),
		zap.Int("transactions", len(b.results)),
	)
}

// OrderSizeOverProfit sweeps fixed dollar order sizes from step up to the
// initial cash and reports the maximum profit reached on each sweep's
// equity curve. Used by presentation consumers to chart order sizing
// against profit.
func (b *Backtester) OrderSizeOverProfit(step float64) ([]OrderSizeProfit, error) {
	if b.data == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoData, "no data set, call SetData before OrderSizeOverProfit")
	}

	if step <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "step must be positive, got %g", step)
	}

	signals, _ := b.data.Signal(b.signalRef.Name())

	var sweep []OrderSizeProfit

	for orderSize := step; orderSize < b.initCash; orderSize += step {
		b.reset()

		order := decimal.NewFromFloat(orderSize)
		maxProfit := math.Inf(-1)

		for i, bar := range b.data.Bars {
			sig := signals[i]
			if sig.IsNone() {
				continue
			}

			price := decimal.NewFromFloat(bar.Close)

			switch {
			case sig.Unwrap() == types.SignalBuy && b.position == PositionFlat:
				b.position = PositionHolding
				sharesToBuy := order.Div(price).Floor()
				b.shares += sharesToBuy.InexactFloat64()
				b.cash = decimal.NewFromFloat(b.cash).Sub(sharesToBuy.Mul(price)).InexactFloat64()
			case sig.Unwrap() == types.SignalSell && b.position == PositionHolding:
				b.position = PositionFlat
				if b.shares > 0 {
					b.sellAll(bar.Close)
				}
			default:
				continue
			}

			profit := (b.cash - b.initCash) / b.initCash * 100
			if profit > maxProfit {
				maxProfit = profit
			}
		}

		if math.IsInf(maxProfit, -1) {
			continue
		}

		sweep = append(sweep, OrderSizeProfit{OrderSize: orderSize, MaxProfit: maxProfit})
	}

	b.reset()

	return sweep, nil
}
