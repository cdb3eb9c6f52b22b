package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/LyesMestiri/atom/internal/particle"
)

var (
	ErrUnknownAxis = errors.New("analysis: axis must be x, y or z")
	ErrNoParticles = errors.New("analysis: no particles of the requested species")
)

// Histogram counts the particles of one species by momentum along one axis.
// Bin i covers [Min+i·Delta, Min+(i+1)·Delta); the largest value falls in the
// last bin.
type Histogram struct {
	Species  particle.Species
	Axis     string
	Min      float64
	Delta    float64
	Counts   []int
	N        int
	Mean     float64
	Variance float64
}

// Centers returns the midpoint of every bin.
func (h Histogram) Centers() []float64 {
	out := make([]float64, len(h.Counts))
	for i := range out {
		out[i] = h.Min + (float64(i)+0.5)*h.Delta
	}
	return out
}

// Normal samples the normal law with the histogram's mean and variance at
// every bin centre. The amplitude is the spread between the fullest and
// emptiest bins. A zero variance puts the whole amplitude in the mean's bin.
func (h Histogram) Normal() []float64 {
	out := make([]float64, len(h.Counts))
	if len(h.Counts) == 0 {
		return out
	}
	amplitude := float64(slices.Max(h.Counts) - slices.Min(h.Counts))
	if h.Variance == 0 {
		out[binOf(h.Mean, h.Min, h.Delta, len(out))] = amplitude
		return out
	}
	for i, c := range h.Centers() {
		d := c - h.Mean
		out[i] = amplitude * math.Exp(-d*d/(2*h.Variance))
	}
	return out
}

// MomentumHistogram sorts the momenta of species along axis into levels
// equal-width bins spanning the observed range. Mean and Variance are the
// sample statistics of the raw momenta, not of the binned values.
func MomentumHistogram(pop []particle.Particle, species particle.Species, axis string, levels int) (Histogram, error) {
	if levels < 1 {
		return Histogram{}, fmt.Errorf("analysis: levels must be positive, got %d", levels)
	}
	pick, err := axisOf(axis)
	if err != nil {
		return Histogram{}, err
	}

	var values []float64
	for i := range pop {
		if pop[i].Sort == species {
			values = append(values, pick(pop[i].Momentum()))
		}
	}
	if len(values) == 0 {
		return Histogram{}, fmt.Errorf("%w: %s", ErrNoParticles, species)
	}

	lo, hi := slices.Min(values), slices.Max(values)
	h := Histogram{
		Species: species,
		Axis:    axis,
		Min:     lo,
		Delta:   (hi - lo) / float64(levels),
		Counts:  make([]int, levels),
		N:       len(values),
	}
	for _, v := range values {
		h.Counts[binOf(v, h.Min, h.Delta, levels)]++
	}

	if len(values) == 1 {
		h.Mean = values[0]
	} else {
		h.Mean, h.Variance = stat.MeanVariance(values, nil)
	}
	return h, nil
}

func binOf(v, lo, delta float64, levels int) int {
	if delta <= 0 {
		return 0
	}
	return min(max(int((v-lo)/delta), 0), levels-1)
}

// Profile averages the momentum and velocity of one species along axis over
// a grid of nodes spaced hx apart, starting at the origin. A particle belongs
// to the nearest node; nodes without particles report zero.
type Profile struct {
	Species  particle.Species
	Axis     string
	Hx       float64
	Counts   []int
	Momentum []float64
	Velocity []float64
	// particles whose nearest node lies outside the grid
	Outside int
}

// Positions returns the coordinate of every node.
func (p Profile) Positions() []float64 {
	out := make([]float64, len(p.Counts))
	for i := range out {
		out[i] = float64(i) * p.Hx
	}
	return out
}

// VelocityProfile builds the node-averaged momentum and velocity profile of
// species along axis. Velocity is p/γ.
func VelocityProfile(pop []particle.Particle, species particle.Species, axis string, nodes int, hx float64) (Profile, error) {
	if nodes < 1 || hx <= 0 {
		return Profile{}, fmt.Errorf("analysis: need nodes > 0 and hx > 0, got %d and %g", nodes, hx)
	}
	pick, err := axisOf(axis)
	if err != nil {
		return Profile{}, err
	}

	prof := Profile{
		Species:  species,
		Axis:     axis,
		Hx:       hx,
		Counts:   make([]int, nodes),
		Momentum: make([]float64, nodes),
		Velocity: make([]float64, nodes),
	}
	seen := false
	for i := range pop {
		p := &pop[i]
		if p.Sort != species {
			continue
		}
		seen = true
		node := math.Round(pick(p.Position()) / hx)
		if node < 0 || node >= float64(nodes) || math.IsNaN(node) {
			prof.Outside++
			continue
		}
		n := int(node)
		prof.Counts[n]++
		prof.Momentum[n] += pick(p.Momentum())
		prof.Velocity[n] += pick(p.Velocity())
	}
	if !seen {
		return Profile{}, fmt.Errorf("%w: %s", ErrNoParticles, species)
	}

	for n, c := range prof.Counts {
		if c > 0 {
			prof.Momentum[n] /= float64(c)
			prof.Velocity[n] /= float64(c)
		}
	}
	return prof, nil
}

// VelocityBatches splits the particles of species into n equal-width
// velocity bands along axis. The result is indexed like pop and holds the
// band of each particle, or -1 for other species. Assigning bands on one
// frame and reusing them on later frames shows how each band spreads out.
func VelocityBatches(pop []particle.Particle, species particle.Species, axis string, n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("analysis: batches must be positive, got %d", n)
	}
	pick, err := axisOf(axis)
	if err != nil {
		return nil, err
	}

	out := make([]int, len(pop))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range pop {
		out[i] = -1
		if pop[i].Sort != species {
			continue
		}
		v := pick(pop[i].Velocity())
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: %s", ErrNoParticles, species)
	}

	delta := (hi - lo) / float64(n)
	for i := range pop {
		if pop[i].Sort == species {
			out[i] = binOf(pick(pop[i].Velocity()), lo, delta, n)
		}
	}
	return out, nil
}

// PhasePlane groups the (position, velocity) points of pop along axis by
// the bands from VelocityBatches. pop and batches must line up index for
// index.
func PhasePlane(pop []particle.Particle, batches []int, axis string) ([][]Point, error) {
	if len(pop) != len(batches) {
		return nil, ErrSeriesMismatch
	}
	pick, err := axisOf(axis)
	if err != nil {
		return nil, err
	}

	var out [][]Point
	for i := range pop {
		b := batches[i]
		if b < 0 {
			continue
		}
		for len(out) <= b {
			out = append(out, nil)
		}
		out[b] = append(out[b], Point{X: pick(pop[i].Position()), Y: pick(pop[i].Velocity())})
	}
	return out, nil
}

func axisOf(axis string) (func(particle.Vector3) float64, error) {
	switch axis {
	case "x":
		return func(v particle.Vector3) float64 { return v.X }, nil
	case "y":
		return func(v particle.Vector3) float64 { return v.Y }, nil
	case "z":
		return func(v particle.Vector3) float64 { return v.Z }, nil
	}
	return nil, fmt.Errorf("%w, got %q", ErrUnknownAxis, axis)
}
