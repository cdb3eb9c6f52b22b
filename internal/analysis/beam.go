package analysis

import (
	"math"

	"go-hep.org/x/hep/fmom"

	"github.com/LyesMestiri/atom/internal/particle"
)

// Beam summarises a population as four-momenta in rest-energy units, with
// E = γM and p = M·(PU, PV, PW). Transverse means perpendicular to z.
type Beam struct {
	Count int
	// invariant mass of the summed four-momentum
	InvariantMass float64
	TotalEnergy   float64
	MeanPt        float64
	MaxPt         float64
	// largest relative deviation of a particle's M() from its rest mass
	MassShellError float64
}

// FourMomentum returns p as a four-vector scaled by its mass.
func FourMomentum(p *particle.Particle) fmom.PxPyPzE {
	return fmom.NewPxPyPzE(p.M*p.PU, p.M*p.PV, p.M*p.PW, p.M*p.Gamma())
}

// BeamSummary skips particles with a non-finite or massless state.
func BeamSummary(pop []particle.Particle) Beam {
	var (
		b             Beam
		px, py, pz, e float64
		sumPt         float64
	)
	for i := range pop {
		p := &pop[i]
		if p.M <= 0 || !p.IsFinite() {
			continue
		}
		p4 := FourMomentum(p)
		px += p4.Px()
		py += p4.Py()
		pz += p4.Pz()
		e += p4.E()

		pt := p4.Pt()
		sumPt += pt
		b.MaxPt = max(b.MaxPt, pt)
		b.MassShellError = max(b.MassShellError, math.Abs(p4.M()-p.M)/p.M)
		b.Count++
	}
	if b.Count == 0 {
		return b
	}

	total := fmom.NewPxPyPzE(px, py, pz, e)
	b.InvariantMass = total.M()
	b.TotalEnergy = e
	b.MeanPt = sumPt / float64(b.Count)
	return b
}
