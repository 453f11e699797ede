// Package forecast implements the additive time-series model used to project yearly tender counts.
//
// The model is the sum of a piecewise-linear trend and a Fourier yearly seasonality:
//
//	y(t) = (k + a(t)·δ) t + (m + a(t)·γ) + s(t) + ε
//
// where a(t) switches on the rate adjustment δ_j after changepoint j and γ_j = -s_j δ_j keeps the
// trend continuous. Both time and observations are rescaled before fitting: t spans [0, 1] over the
// history and y is divided by its largest absolute value.
//
// Fit computes the maximum a-posteriori estimate of (k, m, δ, β) under zero-mean Gaussian priors.
// For a fixed observation noise σ this is a ridge regression solved with a Cholesky factorisation;
// σ itself is re-estimated in closed form under a half-normal prior and the two steps alternate
// until σ converges.
//
// Predict returns point estimates with uncertainty intervals obtained by simulating future trend
// changepoints and observation noise. The simulation uses a seeded generator so that the same series
// and Config always produce the same intervals.
package forecast
