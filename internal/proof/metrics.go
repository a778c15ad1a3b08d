package proof

import (
	"errors"
	"math"
)

// ErrZeroBaseline is returned when relative drift is requested against H0 = 0.
var ErrZeroBaseline = errors.New("baseline energy H0 is zero; relative drift undefined")

// MaxRelativeDrift returns max_i |H_i - H0| / |H0| over the sampled series.
// An empty series has zero drift.
func MaxRelativeDrift(h0 float64, series []float64) (float64, error) {
	if h0 == 0 {
		return 0, ErrZeroBaseline
	}
	var maxDrift float64
	for _, h := range series {
		d := math.Abs(h-h0) / math.Abs(h0)
		if d > maxDrift {
			maxDrift = d
		}
	}
	return maxDrift, nil
}

// OrderParameter is the Kuramoto coherence estimator
// r = |Σ exp(iθ)| / N over the given phases. Zero phases give r = 0.
func OrderParameter(phases []float64) float64 {
	if len(phases) == 0 {
		return 0
	}
	var s, c float64
	for _, theta := range phases {
		s += math.Sin(theta)
		c += math.Cos(theta)
	}
	return math.Sqrt(s*s+c*c) / float64(len(phases))
}
