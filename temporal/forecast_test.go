package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Any forecast over fewer than MinDataPoints samples returns an empty
// prediction set and zero confidence.
func TestForecastBelowMinDataPointsReturnsZeroConfidence(t *testing.T) {
	f := NewForecaster()
	series := []float64{1, 2, 3}
	cfg := DefaultConfig()
	cfg.MinDataPoints = 10

	result := f.Forecast(series, MethodLinear, cfg)
	assert.Empty(t, result.Predictions)
	assert.Equal(t, 0.0, result.Confidence)
}

// Twenty daily citation counts with a linearly rising trend must produce
// an "up" trend direction and confidence above 0.3.
func TestLinearForecastOnRisingTrendPredictsUp(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(10 + i*3)
	}

	f := NewForecaster()
	cfg := DefaultConfig()
	cfg.MinDataPoints = 10
	cfg.WindowSize = 7

	result := f.Forecast(series, MethodLinear, cfg)
	require.NotEmpty(t, result.Predictions)
	assert.Equal(t, "up", result.TrendDirection)
	assert.Greater(t, result.Confidence, 0.3)
	for _, p := range result.Predictions {
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}
}

func TestForecastClampsNegativeProjectionsToZero(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(50 - i*3)
	}

	f := NewForecaster()
	cfg := DefaultConfig()
	cfg.MinDataPoints = 10

	result := f.Forecast(series, MethodLinear, cfg)
	require.NotEmpty(t, result.Predictions)
	assert.Equal(t, "down", result.TrendDirection)
	for _, p := range result.Predictions {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
	}
}

// TestForecastUncertaintyBandGrowsWithHorizon implements the
// sigma*sqrt(step/7)*1.96 prediction-interval formula: later horizon
// steps carry a strictly wider band than earlier ones whenever the series
// has any variance.
func TestForecastUncertaintyBandGrowsWithHorizon(t *testing.T) {
	series := []float64{10, 14, 9, 16, 11, 15, 10, 17, 12, 18, 13, 19, 14, 20, 15, 21, 16, 22, 17, 23}

	f := NewForecaster()
	cfg := DefaultConfig()
	cfg.MinDataPoints = 10
	cfg.ForecastHorizon = 5

	result := f.Forecast(series, MethodSMA, cfg)
	require.Len(t, result.Predictions, 5)

	firstBand := result.Predictions[0].UpperBound - result.Predictions[0].Value
	lastBand := result.Predictions[4].UpperBound - result.Predictions[4].Value
	assert.Greater(t, firstBand, 0.0)
	assert.Greater(t, lastBand, firstBand)
}

// TestDirectionFlatWithinThresholdBand implements Ambiguity Resolution
// #3's named ±0.5 thresholds: a trend that doesn't clear either threshold
// reads as "flat" rather than flipping on the sign of a near-zero slope.
func TestDirectionFlatWithinThresholdBand(t *testing.T) {
	assert.Equal(t, "flat", direction(0.3))
	assert.Equal(t, "flat", direction(-0.3))
	assert.Equal(t, "up", direction(0.51))
	assert.Equal(t, "down", direction(-0.51))
}

func TestEnsembleCombinesMemberMethods(t *testing.T) {
	series := make([]float64, 24)
	for i := range series {
		series[i] = float64(5 + i*2)
	}

	f := NewForecaster()
	cfg := DefaultConfig()
	cfg.MinDataPoints = 10

	result := f.Ensemble(series, cfg)
	require.NotEmpty(t, result.Predictions)
	assert.Equal(t, MethodEnsemble, result.Method)
	assert.Equal(t, "up", result.TrendDirection)
}
