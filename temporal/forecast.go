package temporal

import "math"

// Method is the closed set of forecasting algorithms a Forecaster supports.
type Method string

const (
	MethodSMA      Method = "sma"
	MethodEMA      Method = "ema"
	MethodWMA      Method = "wma"
	MethodLinear   Method = "linear"
	MethodEnsemble Method = "ensemble"
)

// trendWeight is the per-method scaling factor applied to the projected
// trend slope, reflecting how aggressively each method should extrapolate.
var trendWeight = map[Method]float64{
	MethodSMA:    0.5,
	MethodEMA:    0.8,
	MethodWMA:    0.9,
	MethodLinear: 1.0,
}

// Trend direction is classified against these thresholds rather than a
// bare sign check, so small numeric noise around zero reads as "flat"
// instead of flipping direction between adjacent calls.
const (
	trendUpThreshold   = 0.5
	trendDownThreshold = -0.5
)

// uncertaintyZ is the z-score for a (roughly) 95% prediction interval.
const uncertaintyZ = 1.96

// Config tunes a single forecast call.
type Config struct {
	WindowSize         int
	EmaSmoothingFactor float64
	ForecastHorizon    int
	ConfidenceLevel    float64
	MinDataPoints      int
}

// DefaultConfig returns reasonable defaults: a 7-day window, 0.3 EMA
// smoothing, a 5-step horizon, 95% confidence level, and a floor of 10
// samples before a forecast is attempted.
func DefaultConfig() Config {
	return Config{WindowSize: 7, EmaSmoothingFactor: 0.3, ForecastHorizon: 5, ConfidenceLevel: 0.95, MinDataPoints: 10}
}

// PredictedPoint is one horizon step of a forecast, with a symmetric
// uncertainty band derived from holdout RMSE.
type PredictedPoint struct {
	Step       int
	Value      float64
	LowerBound float64
	UpperBound float64
}

// Forecast is the full outcome of one forecasting call: the projected
// series, its holdout-validated accuracy, and a derived confidence score.
// A series with fewer than MinDataPoints samples yields a Forecast that
// carries only its Method, an empty (non-nil) Predictions slice, and
// Confidence == 0.
type Forecast struct {
	Method         Method
	Predictions    []PredictedPoint
	TrendDirection string // "up" | "down" | "flat"
	MAE            float64
	RMSE           float64
	Confidence     float64
}

// Forecaster projects a per-entity daily metric series forward using one
// of several numeric methods, each validated against a holdout window
// drawn from the same series.
type Forecaster struct{}

// NewForecaster constructs a Forecaster. It holds no state: every call is
// a pure function of its input series and Config.
func NewForecaster() *Forecaster {
	return &Forecaster{}
}

// Forecast projects series forward by cfg.ForecastHorizon steps using
// method, after trimming the input to its last 2*WindowSize samples.
func (f *Forecaster) Forecast(series []float64, method Method, cfg Config) Forecast {
	cfg = withDefaults(cfg)
	window := trim(series, 2*cfg.WindowSize)
	if len(window) < cfg.MinDataPoints {
		return Forecast{Method: method, Predictions: []PredictedPoint{}, Confidence: 0}
	}

	base, trend := project(window, method, cfg)
	mae, rmse := holdoutValidate(window, method, cfg)
	confidence := confidenceScore(len(window), cfg.MinDataPoints, rmse)

	predictions := make([]PredictedPoint, 0, cfg.ForecastHorizon)
	k := trendWeight[method]
	sigma := stddev(window)
	for i := 1; i <= cfg.ForecastHorizon; i++ {
		value := math.Max(0, base+trend*float64(i)*k)
		band := sigma * math.Sqrt(float64(i)/7) * uncertaintyZ
		predictions = append(predictions, PredictedPoint{
			Step:       i,
			Value:      value,
			LowerBound: math.Max(0, value-band),
			UpperBound: value + band,
		})
	}

	return Forecast{
		Method:         method,
		Predictions:    predictions,
		TrendDirection: direction(trend),
		MAE:            mae,
		RMSE:           rmse,
		Confidence:     confidence,
	}
}

// Ensemble runs every concrete method over series and combines their
// predictions weighted by 1/(RMSE+0.01), normalized, with the resulting
// trend direction decided by majority vote across the member methods.
func (f *Forecaster) Ensemble(series []float64, cfg Config) Forecast {
	cfg = withDefaults(cfg)
	methods := []Method{MethodSMA, MethodEMA, MethodWMA, MethodLinear}

	members := make([]Forecast, 0, len(methods))
	for _, m := range methods {
		fc := f.Forecast(series, m, cfg)
		if len(fc.Predictions) == 0 {
			continue
		}
		members = append(members, fc)
	}
	if len(members) == 0 {
		return Forecast{Method: MethodEnsemble, Predictions: []PredictedPoint{}, Confidence: 0}
	}

	weights := make([]float64, len(members))
	var totalWeight float64
	for i, m := range members {
		weights[i] = 1 / (m.RMSE + 0.01)
		totalWeight += weights[i]
	}
	for i := range weights {
		weights[i] /= totalWeight
	}

	horizon := cfg.ForecastHorizon
	predictions := make([]PredictedPoint, horizon)
	var weightedMAE, weightedRMSE float64
	upVotes, downVotes := 0, 0
	for i, m := range members {
		w := weights[i]
		weightedMAE += w * m.MAE
		weightedRMSE += w * m.RMSE
		switch m.TrendDirection {
		case "up":
			upVotes++
		case "down":
			downVotes++
		}
		for step := 0; step < horizon && step < len(m.Predictions); step++ {
			p := m.Predictions[step]
			predictions[step].Step = p.Step
			predictions[step].Value += w * p.Value
			predictions[step].LowerBound += w * p.LowerBound
			predictions[step].UpperBound += w * p.UpperBound
		}
	}

	ensembleDirection := "flat"
	switch {
	case upVotes > downVotes:
		ensembleDirection = "up"
	case downVotes > upVotes:
		ensembleDirection = "down"
	}

	return Forecast{
		Method:         MethodEnsemble,
		Predictions:    predictions,
		TrendDirection: ensembleDirection,
		MAE:            weightedMAE,
		RMSE:           weightedRMSE,
		Confidence:     confidenceScore(len(trim(series, 2*cfg.WindowSize)), cfg.MinDataPoints, weightedRMSE),
	}
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = d.WindowSize
	}
	if cfg.EmaSmoothingFactor <= 0 {
		cfg.EmaSmoothingFactor = d.EmaSmoothingFactor
	}
	if cfg.ForecastHorizon <= 0 {
		cfg.ForecastHorizon = d.ForecastHorizon
	}
	if cfg.ConfidenceLevel <= 0 {
		cfg.ConfidenceLevel = d.ConfidenceLevel
	}
	if cfg.MinDataPoints <= 0 {
		cfg.MinDataPoints = d.MinDataPoints
	}
	return cfg
}

func trim(series []float64, n int) []float64 {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// project computes (base, trend) for the requested method over window.
func project(window []float64, method Method, cfg Config) (base, trend float64) {
	switch method {
	case MethodSMA:
		return smaProject(window, cfg.WindowSize)
	case MethodEMA:
		return emaProject(window, cfg.EmaSmoothingFactor)
	case MethodWMA:
		return wmaProject(window, cfg.WindowSize)
	default:
		return linearProject(window)
	}
}

// stddev computes the sample standard deviation of xs, the σ term in the
// forecast's per-step prediction-interval formula.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func smaProject(window []float64, windowSize int) (base, trend float64) {
	w := windowSize
	if w > len(window) {
		w = len(window)
	}
	recent := mean(window[len(window)-w:])
	if len(window) > 2*w {
		prior := mean(window[len(window)-2*w : len(window)-w])
		trend = (recent - prior) / float64(w)
	}
	return recent, trend
}

func emaSeries(window []float64, alpha float64) []float64 {
	out := make([]float64, len(window))
	out[0] = window[0]
	for i := 1; i < len(window); i++ {
		out[i] = alpha*window[i] + (1-alpha)*out[i-1]
	}
	return out
}

func emaProject(window []float64, alpha float64) (base, trend float64) {
	ema := emaSeries(window, alpha)
	last := ema[len(ema)-1]
	if len(ema) > 1 {
		trend = last - ema[len(ema)-2]
	}
	return last, trend
}

func wmaProject(window []float64, windowSize int) (base, trend float64) {
	w := windowSize
	if w > len(window) {
		w = len(window)
	}
	recentWMA := weightedMean(window[len(window)-w:])
	if len(window) > 2*w {
		priorWMA := weightedMean(window[len(window)-2*w : len(window)-w])
		trend = (recentWMA - priorWMA) / float64(w)
	}
	return recentWMA, trend
}

func weightedMean(xs []float64) float64 {
	var weightedSum, weightTotal float64
	for i, x := range xs {
		w := float64(i + 1)
		weightedSum += w * x
		weightTotal += w
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal
}

// linearProject fits an ordinary least-squares line to window and returns
// the fitted value at the series' end plus its slope.
func linearProject(window []float64) (base, trend float64) {
	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range window {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return mean(window), 0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	lastX := n - 1
	return intercept + slope*lastX, slope
}

// holdoutValidate predicts the last 5 points of window using sliding
// windows over the preceding samples and returns the resulting MAE/RMSE.
func holdoutValidate(window []float64, method Method, cfg Config) (mae, rmse float64) {
	holdout := 5
	if holdout > len(window)-1 {
		holdout = len(window) - 1
	}
	if holdout <= 0 {
		return 0, 0
	}

	start := len(window) - holdout
	var absErrSum, sqErrSum float64
	for i := start; i < len(window); i++ {
		train := window[:i]
		base, trend := project(train, method, cfg)
		k := trendWeight[method]
		predicted := math.Max(0, base+trend*1*k)
		actual := window[i]
		err := actual - predicted
		absErrSum += math.Abs(err)
		sqErrSum += err * err
	}
	mae = absErrSum / float64(holdout)
	rmse = math.Sqrt(sqErrSum / float64(holdout))
	return mae, rmse
}

func confidenceScore(n, minDataPoints int, rmse float64) float64 {
	dataSufficiency := math.Min(1, float64(n)/(3*float64(minDataPoints)))
	accuracyScore := 1 / (1 + rmse/100)
	score := (dataSufficiency + accuracyScore) / 2
	if score < 0.1 {
		score = 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func direction(trend float64) string {
	switch {
	case trend > trendUpThreshold:
		return "up"
	case trend < trendDownThreshold:
		return "down"
	default:
		return "flat"
	}
}
