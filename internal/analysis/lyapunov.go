package analysis

import (
	"math"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

// LyapunovExponent estimates the largest Lyapunov exponent of a particle
// moving in src. A copy displaced by perturbation along x is pushed
// alongside, and their phase-space separation is measured and rescaled back
// to perturbation after every step. A positive value indicates chaos.
func LyapunovExponent(src fields.Source, p particle.Particle, dt, duration, perturbation float64) float64 {
	if dt <= 0 || duration <= 0 || perturbation <= 0 {
		return 0
	}

	a := p.Clone()
	b := p.Clone()
	b.SetPosition(particle.Vector3{X: b.X + perturbation, Y: b.Y, Z: b.Z})

	steps := int(math.Round(duration / dt))
	t := 0.0
	sumLog := 0.0

	for i := 0; i < steps; i++ {
		a.Move(src.Sample(a.Position(), t), dt)
		b.Move(src.Sample(b.Position(), t), dt)
		a.Commit()
		b.Commit()
		t += dt

		dx := b.Position().Sub(a.Position())
		dp := b.Momentum().Sub(a.Momentum())
		sep := math.Sqrt(dx.Dot(dx) + dp.Dot(dp))
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return sumLog / t
		}

		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		b.SetPosition(a.Position().Add(dx.Mult(scale)))
		b.SetMomentum(a.Momentum().Add(dp.Mult(scale)))
	}

	return sumLog / t
}
