package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	apperrors "bandicli/internal/errors"
	"bandicli/pkg/contracts/domain"
)

// ErrInsufficientData is returned by Fit when the series has fewer than two observations
var ErrInsufficientData = errors.New("dataframe has less than 2 non-NaN rows")

// ErrNotFitted is returned when Predict or MakeFutureDates is called before Fit
var ErrNotFitted = errors.New("model has not been fit")

const (
	// sigmaPriorScale is the scale of the half-normal prior on the observation noise
	sigmaPriorScale = 0.5
	minSigma2       = 1e-4
	maxIterations   = 100
	sigmaTolerance  = 1e-10
	secondsPerDay   = 86400.0
)

// Model is an additive trend + seasonality model. A Model is not safe for concurrent use.
type Model struct {
	cfg Config

	fitted  bool
	history []domain.TimeSeriesPoint
	start   time.Time
	tScale  float64
	yScale  float64

	changepoints []float64
	k            float64
	m            float64
	delta        []float64
	beta         []float64
	sigma        float64
	iterations   int
}

// Summary describes a fitted model
type Summary struct {
	Observations int
	Changepoints []time.Time
	GrowthRate   float64
	Offset       float64
	Sigma        float64
	YScale       float64
	Iterations   int
}

// New creates an unfitted model
func New(cfg Config) *Model {
	return &Model{cfg: cfg}
}

// Fit estimates the model parameters from series. Points may come in any order.
func (m *Model) Fit(ctx context.Context, series []domain.TimeSeriesPoint) error {
	if len(series) < 2 {
		return apperrors.NewModelError("cannot fit model", ErrInsufficientData).
			WithContext("observations", len(series))
	}

	history := make([]domain.TimeSeriesPoint, len(series))
	copy(history, series)
	sort.Slice(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})

	start := history[0].Date
	tScale := history[len(history)-1].Date.Sub(start).Seconds()
	if tScale <= 0 {
		return apperrors.NewModelError("cannot fit model: all observations share the same date", nil)
	}

	yScale := 0.0
	for _, p := range history {
		yScale = math.Max(yScale, math.Abs(float64(p.Value)))
	}
	if yScale == 0 {
		yScale = 1
	}

	m.history = history
	m.start = start
	m.tScale = tScale
	m.yScale = yScale
	m.changepoints = m.placeChangepoints()

	n := len(history)
	t := make([]float64, n)
	y := make([]float64, n)
	for i, p := range history {
		t[i] = m.scaleTime(p.Date)
		y[i] = float64(p.Value) / yScale
	}

	X := m.designMatrix(history, t)
	priors := m.priorScales()

	theta, sigma2, iterations, err := fitMAP(ctx, X, mat.NewVecDense(n, y), priors)
	if err != nil {
		return err
	}

	m.k = theta[0]
	m.m = theta[1]
	nCp := len(m.changepoints)
	m.delta = append([]float64(nil), theta[2:2+nCp]...)
	m.beta = append([]float64(nil), theta[2+nCp:]...)
	m.sigma = math.Sqrt(sigma2)
	m.iterations = iterations
	m.fitted = true
	return nil
}

// fitMAP alternates a ridge solve for the coefficients with the closed-form noise update
func fitMAP(ctx context.Context, X *mat.Dense, y *mat.VecDense, priors []float64) ([]float64, float64, int, error) {
	n, p := X.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())

	var xty mat.VecDense
	xty.MulVec(X.T(), y)

	sigma2 := sigmaPriorScale * sigmaPriorScale
	theta := mat.NewVecDense(p, nil)
	resid := mat.NewVecDense(n, nil)
	A := mat.NewSymDense(p, nil)

	iterations := 0
	for iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, 0, iterations, err
		}
		iterations++

		A.CopySym(&xtx)
		for j := 0; j < p; j++ {
			A.SetSym(j, j, A.At(j, j)+sigma2/(priors[j]*priors[j]))
		}

		if err := solveSPD(A, &xty, theta); err != nil {
			return nil, 0, iterations, apperrors.NewModelError("cannot fit model", err)
		}

		resid.MulVec(X, theta)
		resid.SubVec(y, resid)
		rss := mat.Dot(resid, resid)

		next := noiseMAP(n, rss)
		converged := math.Abs(next-sigma2) <= sigmaTolerance*math.Max(1, sigma2)
		sigma2 = next
		if converged {
			break
		}
	}

	return mat.Col(nil, 0, theta), sigma2, iterations, nil
}

// noiseMAP is the mode of σ² given the residual sum of squares under a half-normal prior on σ
func noiseMAP(n int, rss float64) float64 {
	fn := float64(n)
	// Stationary point of rss/(2σ²) + n·log σ + σ²/(2·sigmaPriorScale²)
	c := 1 / (sigmaPriorScale * sigmaPriorScale)
	sigma2 := (-fn + math.Sqrt(fn*fn+4*c*rss)) / (2 * c)
	return math.Max(sigma2, minSigma2)
}

// solveSPD solves A·x = b, adding diagonal jitter if A is numerically not positive definite
func solveSPD(A *mat.SymDense, b *mat.VecDense, x *mat.VecDense) error {
	var chol mat.Cholesky
	if chol.Factorize(A) {
		return chol.SolveVecTo(x, b)
	}

	p := A.SymmetricDim()
	jittered := mat.NewSymDense(p, nil)
	jitter := 1e-10
	for attempt := 0; attempt < 8; attempt++ {
		jittered.CopySym(A)
		for j := 0; j < p; j++ {
			jittered.SetSym(j, j, jittered.At(j, j)+jitter)
		}
		if chol.Factorize(jittered) {
			return chol.SolveVecTo(x, b)
		}
		jitter *= 100
	}
	return errors.New("normal equations are not positive definite")
}

// placeChangepoints spreads changepoints over the first ChangepointRange of the history,
// one per observation at most, excluding the first observation.
func (m *Model) placeChangepoints() []float64 {
	n := len(m.history)
	histSize := int(math.Floor(float64(n) * m.cfg.ChangepointRange))
	count := m.cfg.ChangepointCount
	if count+1 > histSize {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}

	cps := make([]float64, 0, count)
	step := float64(histSize-1) / float64(count)
	for i := 1; i <= count; i++ {
		idx := int(math.Round(float64(i) * step))
		cps = append(cps, m.scaleTime(m.history[idx].Date))
	}
	return cps
}

// priorScales returns the prior standard deviation of each design matrix column
func (m *Model) priorScales() []float64 {
	scales := []float64{m.cfg.TrendPriorScale, m.cfg.TrendPriorScale}
	for range m.changepoints {
		scales = append(scales, m.cfg.ChangepointPriorScale)
	}
	for i := 0; i < m.seasonalColumns(); i++ {
		scales = append(scales, m.cfg.SeasonalityPriorScale)
	}
	return scales
}

// designMatrix has columns t, 1, one hinge per changepoint, then the Fourier terms
func (m *Model) designMatrix(points []domain.TimeSeriesPoint, t []float64) *mat.Dense {
	nCp := len(m.changepoints)
	cols := 2 + nCp + m.seasonalColumns()
	X := mat.NewDense(len(points), cols, nil)

	for i, p := range points {
		X.Set(i, 0, t[i])
		X.Set(i, 1, 1)
		for j, s := range m.changepoints {
			if t[i] >= s {
				X.Set(i, 2+j, t[i]-s)
			}
		}
		for j, f := range m.fourier(p.Date) {
			X.Set(i, 2+nCp+j, f)
		}
	}
	return X
}

func (m *Model) seasonalColumns() int {
	if !m.cfg.YearlySeasonality || m.cfg.FourierOrder <= 0 {
		return 0
	}
	return 2 * m.cfg.FourierOrder
}

// fourier returns sin/cos pairs of the yearly cycle evaluated on days since the Unix epoch
func (m *Model) fourier(date time.Time) []float64 {
	cols := m.seasonalColumns()
	if cols == 0 {
		return nil
	}
	days := float64(date.Unix()) / secondsPerDay
	features := make([]float64, 0, cols)
	for i := 1; i <= m.cfg.FourierOrder; i++ {
		x := 2 * math.Pi * float64(i) * days / m.cfg.SeasonalityPeriodDays
		features = append(features, math.Sin(x), math.Cos(x))
	}
	return features
}

func (m *Model) scaleTime(date time.Time) float64 {
	return date.Sub(m.start).Seconds() / m.tScale
}

// trend evaluates the fitted piecewise-linear trend at scaled time t
func (m *Model) trend(t float64) float64 {
	value := m.k*t + m.m
	for j, s := range m.changepoints {
		if t >= s {
			value += m.delta[j] * (t - s)
		}
	}
	return value
}

// seasonal evaluates the fitted seasonality at date
func (m *Model) seasonal(date time.Time) float64 {
	value := 0.0
	for j, f := range m.fourier(date) {
		value += m.beta[j] * f
	}
	return value
}

// MakeFutureDates returns the history dates followed by Jan 1 of each of the next periods years
func (m *Model) MakeFutureDates(periods int) ([]time.Time, error) {
	if !m.fitted {
		return nil, apperrors.NewModelError("cannot build future dates", ErrNotFitted)
	}
	if periods < 0 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("periods must be non-negative, got %d", periods))
	}

	dates := make([]time.Time, 0, len(m.history)+periods)
	for _, p := range m.history {
		dates = append(dates, p.Date)
	}
	last := domain.LastYear(m.history)
	for i := 1; i <= periods; i++ {
		dates = append(dates, domain.YearStart(last+i))
	}
	return dates, nil
}

// Predict returns the estimate and uncertainty interval for each date, in input order
func (m *Model) Predict(ctx context.Context, dates []time.Time) ([]domain.ForecastPoint, error) {
	if !m.fitted {
		return nil, apperrors.NewModelError("cannot predict", ErrNotFitted)
	}

	t := make([]float64, len(dates))
	base := make([]float64, len(dates))
	seasonal := make([]float64, len(dates))
	for i, d := range dates {
		t[i] = m.scaleTime(d)
		seasonal[i] = m.seasonal(d)
		base[i] = m.trend(t[i]) + seasonal[i]
	}

	points := make([]domain.ForecastPoint, len(dates))
	for i, d := range dates {
		yhat := base[i] * m.yScale
		points[i] = domain.ForecastPoint{Date: d, Estimate: yhat, Lower: yhat, Upper: yhat}
	}

	if m.cfg.UncertaintySamples <= 0 || len(dates) == 0 {
		return points, nil
	}

	lower, upper, err := m.intervals(ctx, t, seasonal)
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i].Lower = math.Min(lower[i], points[i].Estimate)
		points[i].Upper = math.Max(upper[i], points[i].Estimate)
	}
	return points, nil
}

// Summary reports the fitted parameters, or nil before Fit
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}
	cps := make([]time.Time, len(m.changepoints))
	for i, s := range m.changepoints {
		cps[i] = m.start.Add(time.Duration(s * m.tScale * float64(time.Second)))
	}
	return &Summary{
		Observations: len(m.history),
		Changepoints: cps,
		GrowthRate:   m.k,
		Offset:       m.m,
		Sigma:        m.sigma,
		YScale:       m.yScale,
		Iterations:   m.iterations,
	}
}

// FutureRows keeps the points dated after lastYear and keys them by year
func FutureRows(points []domain.ForecastPoint, lastYear int) []domain.ForecastRow {
	rows := make([]domain.ForecastRow, 0, len(points))
	for _, p := range points {
		if p.Date.Year() <= lastYear {
			continue
		}
		rows = append(rows, domain.ForecastRow{
			Year:     p.Date.Year(),
			Estimate: p.Estimate,
			Lower:    p.Lower,
			Upper:    p.Upper,
		})
	}
	return rows
}
