package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRefNames pins the deterministic column names, which double as
// storage column names.
func TestRefNames(t *testing.T) {
	testCases := []struct {
		name     string
		ref      ColumnRef
		expected string
	}{
		{
			name:     "SMA indicator",
			ref:      IndicatorRef{Kind: IndicatorTypeSMA, Window: 20},
			expected: "SMA_20",
		},
		{
			name:     "EWMA indicator",
			ref:      IndicatorRef{Kind: IndicatorTypeEWMA, Window: 50},
			expected: "EWMA_50",
		},
		{
			name:     "RSI indicator",
			ref:      IndicatorRef{Kind: IndicatorTypeRSI, Window: 14},
			expected: "RSI_14",
		},
		{
			name:     "crossing MA signal",
			ref:      CrossingMARef{MAKind: IndicatorTypeSMA, Short: 20, Long: 50},
			expected: "Signal_SMA_20_50",
		},
		{
			name:     "RSI signal",
			ref:      RSISignalRef{Period: 14, Lower: 20, Upper: 80},
			expected: "Signal_RSI_14_20_80",
		},
		{
			name:     "bollinger signal",
			ref:      BollingerSignalRef{Window: 20, NumStd: 2},
			expected: "Signal_BB_20_2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.ref.Name())
		})
	}
}

// TestBollingerBandRefs pins the three band column names.
func TestBollingerBandRefs(t *testing.T) {
	refs := BollingerBandRefs{Window: 20, NumStd: 2}

	assert.Equal(t, "SMA_20", refs.MovingAvg())
	assert.Equal(t, "Upper_band_20_2", refs.UpperBand())
	assert.Equal(t, "Lower_band_20_2", refs.LowerBand())
}

// TestCrossingMARefComponents verifies the signal ref resolves its
// component moving-average refs.
func TestCrossingMARefComponents(t *testing.T) {
	ref := CrossingMARef{MAKind: IndicatorTypeEWMA, Short: 10, Long: 30}

	assert.Equal(t, "EWMA_10", ref.ShortRef().Name())
	assert.Equal(t, "EWMA_30", ref.LongRef().Name())
}
