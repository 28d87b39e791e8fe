package types

import "fmt"

// IndicatorType identifies an indicator family.
type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "SMA"
	IndicatorTypeEWMA           IndicatorType = "EWMA"
	IndicatorTypeRSI            IndicatorType = "RSI"
	IndicatorTypeBollingerBands IndicatorType = "BB"
)

// IndicatorRef identifies a single derived column by indicator kind and
// window length. The rendered name is deterministic, so recomputation is
// idempotent and store lookups by name are exact. This is the typed
// replacement for matching column names by substring.
type IndicatorRef struct {
	Kind   IndicatorType
	Window int
}

// Name renders the deterministic column name, e.g. "SMA_20".
func (r IndicatorRef) Name() string {
	return fmt.Sprintf("%s_%d", r.Kind, r.Window)
}

// BollingerBandRefs names the three columns produced by a Bollinger Bands
// computation over one window.
type BollingerBandRefs struct {
	Window int
	NumStd float64
}

// MovingAvg names the middle band column.
func (r BollingerBandRefs) MovingAvg() string {
	return IndicatorRef{Kind: IndicatorTypeSMA, Window: r.Window}.Name()
}

// UpperBand names the upper band column.
func (r BollingerBandRefs) UpperBand() string {
	return fmt.Sprintf("Upper_band_%d_%g", r.Window, r.NumStd)
}

// LowerBand names the lower band column.
func (r BollingerBandRefs) LowerBand() string {
	return fmt.Sprintf("Lower_band_%d_%g", r.Window, r.NumStd)
}

// Intermediate RSI column names, kept stable for storage and charting.
const (
	RSIColDelta   = "delta"
	RSIColGain    = "gain"
	RSIColLoss    = "loss"
	RSIColAvgGain = "avg_gain"
	RSIColAvgLoss = "avg_loss"
	RSIColRS      = "RS"
)
