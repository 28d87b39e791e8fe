// Package optimizer grid-searches crossover parameters for the
// configuration with the highest profit.
package optimizer

import (
	"context"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/schollz/progressbar/v3"
	"github.com/viettran295/vTrade/internal/backtest"
	"github.com/viettran295/vTrade/internal/logger"
	"github.com/viettran295/vTrade/internal/strategy"
	"github.com/viettran295/vTrade/internal/types"
	"github.com/viettran295/vTrade/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Range is a half-open integer range [Start, Stop) with a positive Step.
type Range struct {
	Start int `yaml:"start" validate:"gt=0"`
	Stop  int `yaml:"stop" validate:"gtfield=Start"`
	Step  int `yaml:"step" validate:"gt=0"`
}

// Values materializes the range.
func (r Range) Values() []int {
	var out []int
	for v := r.Start; v < r.Stop; v += r.Step {
		out = append(out, v)
	}

	return out
}

// OptimizationRecord is the best parameter combination found.
type OptimizationRecord struct {
	ShortWindow  int
	LongWindow   int
	MAKind       types.IndicatorType
	MaxProfitPct float64
}

// Config configures a crossover grid search. LongWindow is derived as
// ShortWindow plus each value of DiffRange.
type Config struct {
	ShortRange  Range                 `yaml:"short_range"`
	DiffRange   Range                 `yaml:"diff_range"`
	MAKinds     []types.IndicatorType `yaml:"ma_kinds" validate:"min=1,dive,oneof=SMA EWMA"`
	InitialCash float64               `yaml:"initial_cash" validate:"gt=0"`
	// Parallelism bounds the worker pool. Combinations are independent,
	// so they may run concurrently; 1 means fully sequential.
	Parallelism  int  `yaml:"parallelism" validate:"gte=1"`
	ShowProgress bool `yaml:"show_progress"`
}

// DefaultConfig mirrors the conventional search space.
func DefaultConfig() Config {
	return Config{
		ShortRange:   Range{Start: 10, Stop: 100, Step: 5},
		DiffRange:    Range{Start: 5, Stop: 100, Step: 5},
		MAKinds:      []types.IndicatorType{types.IndicatorTypeSMA},
		InitialCash:  backtest.DefaultInitialCash,
		Parallelism:  1,
		ShowProgress: false,
	}
}

type combination struct {
	maKind types.IndicatorType
	short  int
	long   int
}

// CrossingMAOptimizer searches the (short, long, kind) grid and keeps the
// single best combination plus the series that produced it.
type CrossingMAOptimizer struct {
	config Config
	log    *logger.Logger

	best       *OptimizationRecord
	bestSeries *types.Series
}

var validate = validator.New()

// New validates the configuration and builds an optimizer.
func New(config Config, log *logger.Logger) (*CrossingMAOptimizer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid optimizer configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CrossingMAOptimizer{config: config, log: log}, nil
}

// combinations enumerates the grid in its fixed iteration order: kind,
// then short window, then window difference. The reduction below walks
// the same order, so repeated runs over the same input always resolve
// ties to the first combination encountered.
func (o *CrossingMAOptimizer) combinations() []combination {
	var combos []combination

	for _, kind := range o.config.MAKinds {
		for _, short := range o.config.ShortRange.Values() {
			for _, diff := range o.config.DiffRange.Values() {
				combos = append(combos, combination{maKind: kind, short: short, long: short + diff})
			}
		}
	}

	return combos
}

// Optimize runs the grid search over the series and returns the best
// record. Each combination runs on its own series clone with its own
// backtester, so the configured parallelism never shares state across
// combinations.
func (o *CrossingMAOptimizer) Optimize(ctx context.Context, s *types.Series) (OptimizationRecord, error) {
	if s == nil || s.Len() == 0 {
		return OptimizationRecord{}, errors.New(errors.ErrCodeOptimizerNoData, "series is nil or empty")
	}

	combos := o.combinations()
	profits := make([]float64, len(combos))

	var bar *progressbar.ProgressBar
	if o.config.ShowProgress {
		bar = progressbar.NewOptions(len(combos),
			progressbar.OptionSetDescription("Optimizing "+s.Symbol),
			progressbar.OptionShowCount(),
		)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(o.config.Parallelism)

	for i, combo := range combos {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			profit, ok := o.evaluate(s, combo)
			if !ok {
				profit = math.Inf(-1)
			}

			profits[i] = profit

			if bar != nil {
				_ = bar.Add(1)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return OptimizationRecord{}, err
	}

	// sequential reduction in grid order keeps ties deterministic
	maxProfit := math.Inf(-1)
	bestIdx := -1

	for i, profit := range profits {
		if profit > maxProfit {
			maxProfit = profit
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return OptimizationRecord{}, errors.Newf(errors.ErrCodeOptimizerNoData,
			"no combination produced a transaction for symbol %s", s.Symbol)
	}

	best := combos[bestIdx]
	o.best = &OptimizationRecord{
		ShortWindow:  best.short,
		LongWindow:   best.long,
		MAKind:       best.maKind,
		MaxProfitPct: maxProfit,
	}

	// replay the winner once to keep its augmented series for replot
	o.bestSeries = s.Clone()
	if _, ok := o.evaluateInto(o.bestSeries, best); !ok {
		o.bestSeries = nil
	}

	o.log.Info("optimization finished",
		zap.String("symbol", s.Symbol),
		zap.Int("combinations", len(combos)),
		zap.Int("short_window", best.short),
		zap.Int("long_window", best.long),
		zap.String("ma_kind", string(best.maKind)),
		zap.Float64("max_profit_pct", maxProfit),
	)

	return *o.best, nil
}

func (o *CrossingMAOptimizer) evaluate(s *types.Series, combo combination) (float64, bool) {
	return o.evaluateInto(s.Clone(), combo)
}

func (o *CrossingMAOptimizer) evaluateInto(s *types.Series, combo combination) (float64, bool) {
	strat, err := strategy.NewCrossingMA(combo.maKind, combo.short, combo.long)
	if err != nil {
		o.log.Warn("skipping combination", zap.Int("short", combo.short), zap.Int("long", combo.long), zap.Error(err))
		return 0, false
	}

	if err := strat.Apply(s); err != nil {
		o.log.Warn("skipping combination", zap.Int("short", combo.short), zap.Int("long", combo.long), zap.Error(err))
		return 0, false
	}

	bt := backtest.New(o.config.InitialCash, o.log)
	if err := bt.SetData(s, strat.SignalRef()); err != nil {
		return 0, false
	}

	if err := bt.Run(); err != nil {
		return 0, false
	}

	return bt.MaxProfitPct()
}

// Best returns the record of the last optimization.
func (o *CrossingMAOptimizer) Best() (OptimizationRecord, bool) {
	if o.best == nil {
		return OptimizationRecord{}, false
	}

	return *o.best, true
}

// BestSeries returns the indicator-and-signal-augmented series of the
// winning combination, for replotting without rerunning the search.
func (o *CrossingMAOptimizer) BestSeries() (*types.Series, bool) {
	if o.bestSeries == nil {
		return nil, false
	}

	return o.bestSeries, true
}
