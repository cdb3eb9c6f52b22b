package particle

import "math"

// Particle is one simulated charged particle.
//
// X1, Y1, Z1 hold the position for the next timestep so the current position
// stays readable while pushes run; Commit promotes it. PU, PV, PW are the
// relativistic momentum per unit rest mass. M is carried for deposition code
// and never read by Move.
type Particle struct {
	X, Y, Z    float64
	PU, PV, PW float64
	M, QM      float64
	X1, Y1, Z1 float64
	Sort       Species

	debugInfo
}

// New returns a particle with the given momentum and X1 initialised to X.
func New(x, y, z, pu, pv, pw, m, qm float64) Particle {
	return Particle{
		X: x, Y: y, Z: z,
		PU: pu, PV: pv, PW: pw,
		M: m, QM: qm,
		X1: x, Y1: y, Z1: z,
	}
}

// WithSort returns a copy of p tagged with s.
func (p Particle) WithSort(s Species) Particle {
	p.Sort = s
	return p
}

func (p *Particle) Position() Vector3 {
	return Vector3{p.X, p.Y, p.Z}
}

func (p *Particle) NextPosition() Vector3 {
	return Vector3{p.X1, p.Y1, p.Z1}
}

func (p *Particle) SetPosition(v Vector3) {
	p.X = v.X
	p.Y = v.Y
	p.Z = v.Z
}

func (p *Particle) SetNextPosition(v Vector3) {
	p.X1 = v.X
	p.Y1 = v.Y
	p.Z1 = v.Z
}

func (p *Particle) Momentum() Vector3 {
	return Vector3{p.PU, p.PV, p.PW}
}

func (p *Particle) SetMomentum(v Vector3) {
	p.PU = v.X
	p.PV = v.Y
	p.PW = v.Z
}

// Commit promotes the next position to the current one.
func (p *Particle) Commit() {
	p.X = p.X1
	p.Y = p.Y1
	p.Z = p.Z1
}

// Assign copies the full state of src, including build-dependent debug fields.
func (p *Particle) Assign(src *Particle) {
	*p = *src
}

func (p *Particle) Clone() Particle {
	return *p
}

// GammaInv is 1/γ for the current momentum.
func (p *Particle) GammaInv() float64 {
	return impulse(p.PU, p.PV, p.PW)
}

func (p *Particle) Gamma() float64 {
	return math.Sqrt(p.PU*p.PU + p.PV*p.PV + p.PW*p.PW + 1.0)
}

// Velocity is the momentum scaled by 1/γ, in units of c.
func (p *Particle) Velocity() Vector3 {
	return p.Momentum().Mult(p.GammaInv())
}

// KineticEnergy is (γ-1)·M in rest-energy units.
func (p *Particle) KineticEnergy() float64 {
	return (p.Gamma() - 1) * p.M
}

// IsFinite reports whether position, next position and momentum are all finite.
func (p *Particle) IsFinite() bool {
	return p.Position().IsFinite() && p.NextPosition().IsFinite() && p.Momentum().IsFinite()
}
