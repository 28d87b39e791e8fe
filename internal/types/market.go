package types

import (
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/viettran295/vTrade/pkg/errors"
)

// Bar is a single OHLCV row of a time series.
type Bar struct {
	Datetime time.Time `csv:"datetime"`
	Open     float64   `csv:"open"`
	High     float64   `csv:"high"`
	Low      float64   `csv:"low"`
	Close    float64   `csv:"close"`
	Volume   float64   `csv:"volume"`
}

// Series is an ordered OHLCV time series for one symbol plus derived
// columns. Bars are sorted ascending by datetime with unique timestamps,
// enforced by NewSeries. Bars and float columns are treated as immutable
// once set; new derived columns may be appended under their deterministic
// ref names, which keeps recomputation idempotent.
type Series struct {
	Symbol string
	Bars   []Bar

	columns map[string][]float64
	signals map[string][]optional.Option[SignalValue]
}

// NewSeries validates bars and builds a Series. Bars are sorted ascending
// by datetime; duplicate timestamps and empty input are rejected.
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeEmptySeries, "empty series for symbol %s", symbol)
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Datetime.Equal(sorted[i-1].Datetime) {
			return nil, errors.Newf(errors.ErrCodeDuplicateBar,
				"duplicate timestamp %s for symbol %s", sorted[i].Datetime, symbol)
		}
	}

	return &Series{
		Symbol:  symbol,
		Bars:    sorted,
		columns: make(map[string][]float64),
		signals: make(map[string][]optional.Option[SignalValue]),
	}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.Bars)
}

// SetColumn attaches a derived float column aligned 1:1 with the bars.
// NaN encodes a null entry.
func (s *Series) SetColumn(name string, values []float64) error {
	if len(values) != len(s.Bars) {
		return errors.Newf(errors.ErrCodeColumnMismatch,
			"column %s has %d values, series has %d bars", name, len(values), len(s.Bars))
	}

	s.columns[name] = values

	return nil
}

// Column returns a derived float column by name.
func (s *Series) Column(name string) ([]float64, bool) {
	col, ok := s.columns[name]
	return col, ok
}

// HasColumn reports whether a derived float column exists.
func (s *Series) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// SetSignal attaches a signal column aligned 1:1 with the bars.
func (s *Series) SetSignal(name string, values []optional.Option[SignalValue]) error {
	if len(values) != len(s.Bars) {
		return errors.Newf(errors.ErrCodeColumnMismatch,
			"signal %s has %d values, series has %d bars", name, len(values), len(s.Bars))
	}

	s.signals[name] = values

	return nil
}

// Signal returns a signal column by name.
func (s *Series) Signal(name string) ([]optional.Option[SignalValue], bool) {
	sig, ok := s.signals[name]
	return sig, ok
}

// HasSignal reports whether a signal column exists.
func (s *Series) HasSignal(name string) bool {
	_, ok := s.signals[name]
	return ok
}

// ColumnNames returns all derived float column names, sorted.
func (s *Series) ColumnNames() []string {
	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// SignalNames returns all signal column names, sorted.
func (s *Series) SignalNames() []string {
	names := make([]string, 0, len(s.signals))
	for name := range s.signals {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clone returns a series sharing the bar slice but with independent
// column maps, so derived columns added to the clone do not leak into the
// original. Column slices themselves are shared; they are immutable once
// set.
func (s *Series) Clone() *Series {
	columns := make(map[string][]float64, len(s.columns))
	for name, col := range s.columns {
		columns[name] = col
	}

	signals := make(map[string][]optional.Option[SignalValue], len(s.signals))
	for name, sig := range s.signals {
		signals[name] = sig
	}

	return &Series{
		Symbol:  s.Symbol,
		Bars:    s.Bars,
		columns: columns,
		signals: signals,
	}
}

// IsNull reports whether a column value encodes null.
func IsNull(v float64) bool {
	return math.IsNaN(v)
}

// Null returns the null encoding for float columns.
func Null() float64 {
	return math.NaN()
}
