package analysis

import (
	"math"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/integrators"
	"github.com/LyesMestiri/atom/internal/particle"
)

// IntegratorComparison holds the outcome of pushing one particle with both
// the Boris pusher and the RK4 reference.
type IntegratorComparison struct {
	Steps int
	// relative change of |p| between start and end
	BorisMomentumDrift float64
	RK4MomentumDrift   float64
	// largest phase-space distance between the two trajectories
	MaxSeparation float64
}

// CompareIntegrators pushes two copies of p through src for duration. In a
// purely magnetic field |p| is conserved, so the drift columns measure
// integrator error directly.
func CompareIntegrators(src fields.Source, p particle.Particle, dt, duration float64) IntegratorComparison {
	var cmp IntegratorComparison
	if dt <= 0 || duration <= 0 {
		return cmp
	}

	boris := p.Clone()
	ref := p.Clone()
	rk4 := integrators.NewRK4()
	p0 := p.Momentum().Norm()

	steps := int(math.Round(duration / dt))
	t := 0.0
	for i := 0; i < steps; i++ {
		boris.Move(src.Sample(boris.Position(), t), dt)
		boris.Commit()
		rk4.Push(&ref, src, t, dt)
		t += dt

		if !boris.IsFinite() || !ref.IsFinite() {
			break
		}
		cmp.Steps++

		dx := boris.Position().Sub(ref.Position())
		dp := boris.Momentum().Sub(ref.Momentum())
		cmp.MaxSeparation = max(cmp.MaxSeparation, math.Sqrt(dx.Dot(dx)+dp.Dot(dp)))
	}

	if p0 > 0 {
		cmp.BorisMomentumDrift = math.Abs(boris.Momentum().Norm()-p0) / p0
		cmp.RK4MomentumDrift = math.Abs(ref.Momentum().Norm()-p0) / p0
	}
	return cmp
}
