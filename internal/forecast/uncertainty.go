package forecast

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// intervals simulates UncertaintySamples trajectories and returns the interval bounds per point,
// in original units. Past the end of the history the trend keeps changing at the historical
// changepoint rate with adjustments drawn from a Laplace distribution matched to the fitted ones.
func (m *Model) intervals(ctx context.Context, t, seasonal []float64) ([]float64, []float64, error) {
	rng := rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed^0x9e3779b97f4a7c15))

	tMax := 0.0
	for _, v := range t {
		tMax = math.Max(tMax, v)
	}

	rate := float64(len(m.changepoints))
	deltaScale := meanAbs(m.delta) + 1e-8

	samples := make([][]float64, len(t))
	for i := range samples {
		samples[i] = make([]float64, m.cfg.UncertaintySamples)
	}

	var futureCps, futureDeltas []float64
	for s := 0; s < m.cfg.UncertaintySamples; s++ {
		if s%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		futureCps, futureDeltas = futureCps[:0], futureDeltas[:0]
		if rate > 0 && tMax > 1 {
			for pos := 1 + rng.ExpFloat64()/rate; pos < tMax; pos += rng.ExpFloat64() / rate {
				futureCps = append(futureCps, pos)
				futureDeltas = append(futureDeltas, deltaScale*(rng.ExpFloat64()-rng.ExpFloat64()))
			}
		}

		for i, ti := range t {
			trend := m.trend(ti)
			for j, c := range futureCps {
				if ti >= c {
					trend += futureDeltas[j] * (ti - c)
				}
			}
			noise := m.sigma * rng.NormFloat64()
			samples[i][s] = (trend + seasonal[i] + noise) * m.yScale
		}
	}

	lowerQ := (1 - m.cfg.IntervalWidth) / 2
	upperQ := (1 + m.cfg.IntervalWidth) / 2

	lower := make([]float64, len(t))
	upper := make([]float64, len(t))
	for i, xs := range samples {
		sort.Float64s(xs)
		lower[i] = stat.Quantile(lowerQ, stat.Empirical, xs, nil)
		upper[i] = stat.Quantile(upperQ, stat.Empirical, xs, nil)
	}
	return lower, upper, nil
}

func meanAbs(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Abs(x)
	}
	return sum / float64(len(xs))
}
