package types

import (
	"fmt"
	"time"
)

// SignalValue is the integer signal encoding: buy=1, sell=0. Absence of a
// signal is expressed as optional.None in a signal column, matching the
// null encoding used in storage.
type SignalValue int

const (
	SignalSell SignalValue = 0
	SignalBuy  SignalValue = 1
)

// StrategyKind identifies a signal-generation strategy.
type StrategyKind string

const (
	StrategyCrossingMA     StrategyKind = "crossing_ma"
	StrategyRSI            StrategyKind = "rsi"
	StrategyBollingerBands StrategyKind = "bollinger_bands"
)

// SignalColumnPrefix prefixes every signal column name, so storage can
// tell signal columns apart from indicator columns when loading a table.
const SignalColumnPrefix = "Signal_"

// ColumnRef names a derived column deterministically. Both indicator and
// signal refs implement it; consumers carry refs rather than inspecting
// column names.
type ColumnRef interface {
	Name() string
}

// CrossingMARef identifies a crossover signal column by moving-average
// kind and both window lengths.
type CrossingMARef struct {
	MAKind IndicatorType
	Short  int
	Long   int
}

// Name renders e.g. "Signal_SMA_20_50".
func (r CrossingMARef) Name() string {
	return fmt.Sprintf("%s%s_%d_%d", SignalColumnPrefix, r.MAKind, r.Short, r.Long)
}

// ShortRef returns the ref of the short moving-average column.
func (r CrossingMARef) ShortRef() IndicatorRef {
	return IndicatorRef{Kind: r.MAKind, Window: r.Short}
}

// LongRef returns the ref of the long moving-average column.
func (r CrossingMARef) LongRef() IndicatorRef {
	return IndicatorRef{Kind: r.MAKind, Window: r.Long}
}

// RSISignalRef identifies an RSI threshold signal column by period and
// both bounds.
type RSISignalRef struct {
	Period int
	Lower  float64
	Upper  float64
}

// Name renders e.g. "Signal_RSI_14_20_80".
func (r RSISignalRef) Name() string {
	return fmt.Sprintf("%sRSI_%d_%g_%g", SignalColumnPrefix, r.Period, r.Lower, r.Upper)
}

// RSIRef returns the ref of the RSI column the signal is derived from.
func (r RSISignalRef) RSIRef() IndicatorRef {
	return IndicatorRef{Kind: IndicatorTypeRSI, Window: r.Period}
}

// BollingerSignalRef identifies a Bollinger band-breach signal column.
type BollingerSignalRef struct {
	Window int
	NumStd float64
}

// Name renders e.g. "Signal_BB_20_2".
func (r BollingerSignalRef) Name() string {
	return fmt.Sprintf("%sBB_%d_%g", SignalColumnPrefix, r.Window, r.NumStd)
}

// BandRefs returns the refs of the band columns the signal is derived from.
func (r BollingerSignalRef) BandRefs() BollingerBandRefs {
	return BollingerBandRefs{Window: r.Window, NumStd: r.NumStd}
}

// SignalEvent is one recognized buy or sell bar, as reported by the
// scanner.
type SignalEvent struct {
	Datetime time.Time
	Close    float64
	Value    SignalValue
}
