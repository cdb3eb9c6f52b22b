package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrSeriesMismatch = errors.New("analysis: series must be non-empty and of equal length")

type Orbit struct {
	CenterX, CenterY float64
	MeanRadius       float64
	MinRadius        float64
	MaxRadius        float64
}

// OrbitStats fits a circle to a sampled x-y orbit by taking the centroid as
// centre. Samples should cover whole periods.
func OrbitStats(xs, ys []float64) (Orbit, error) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return Orbit{}, ErrSeriesMismatch
	}

	o := Orbit{
		CenterX: floats.Sum(xs) / float64(n),
		CenterY: floats.Sum(ys) / float64(n),
	}

	r := make([]float64, n)
	for i := range r {
		r[i] = math.Hypot(xs[i]-o.CenterX, ys[i]-o.CenterY)
	}
	o.MeanRadius = floats.Sum(r) / float64(n)
	o.MinRadius = floats.Min(r)
	o.MaxRadius = floats.Max(r)

	return o, nil
}

// GyroFrequency is the relativistic angular frequency |q/m|·B/γ.
func GyroFrequency(qm, b, gamma float64) float64 {
	return math.Abs(qm) * b / gamma
}

// GyroRadius is p⊥/(|q/m|·B) for the normalised momentum p = γv.
func GyroRadius(pPerp, qm, b float64) float64 {
	return pPerp / math.Abs(qm*b)
}
