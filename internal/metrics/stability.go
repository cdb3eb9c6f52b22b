package metrics

import (
	"github.com/LyesMestiri/atom/internal/particle"
)

// Stability is the fraction of observed steps in which every particle was
// finite with |p| below the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(pop []particle.Particle, t float64) {
	s.samples++
	for i := range pop {
		if !pop[i].IsFinite() || pop[i].Momentum().Norm() > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
