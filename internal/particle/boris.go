package particle

import "math"

// Move advances the particle by one timestep tau in the field fd.
//
// Momentum is replaced by the post-push momentum and X1, Y1, Z1 receive
// position + tau*velocity. Position is left untouched; see Commit.
// The stage order is fixed: the rotation uses the Lorentz factor after the
// first half kick, and both half kicks share one coefficient.
func (p *Particle) Move(fd Field, tau float64) {
	tau1, ps := p.electricMove(fd.E, tau)

	pu1, pv1, pw1 := p.magneticMove(fd.H, ps)

	sx3 := fd.E.Mult(tau1)
	p.PU = pu1 + sx3.X
	p.PV = pv1 + sx3.Y
	p.PW = pw1 + sx3.Z

	ps = impulse(p.PU, p.PV, p.PW)
	u, v, w := ps*p.PU, ps*p.PV, ps*p.PW

	p.X1 = p.X + tau*u
	p.Y1 = p.Y + tau*v
	p.Z1 = p.Z + tau*w
}

// electricMove applies the first half kick and returns the half-step
// coefficient q_m*tau/2 together with that coefficient scaled by 1/γ.
func (p *Particle) electricMove(e Vector3, tau float64) (tau1, ps float64) {
	tau1 = p.QM * tau * 0.5

	p.PU += tau1 * e.X
	p.PV += tau1 * e.Y
	p.PW += tau1 * e.Z
	ps = tau1 * impulse(p.PU, p.PV, p.PW)
	return tau1, ps
}

// magneticMove rotates the current momentum about h by the Boris rotation
// with b = ps*h. The result has the same magnitude as the input.
func (p *Particle) magneticMove(h Vector3, ps float64) (pu1, pv1, pw1 float64) {
	bx := ps * h.X
	by := ps * h.Y
	bz := ps * h.Z
	su := p.PU + p.PV*bz - p.PW*by
	sv := p.PV + p.PW*bx - p.PU*bz
	sw := p.PW + p.PU*by - p.PV*bx

	s1 := bx * bx
	s2 := by * by
	s3 := bz * bz
	s4 := bx * by
	s5 := by * bz
	s6 := bz * bx
	s := s1 + 1. + s2 + s3

	pu1 = ((s1+1.)*su + (s4+bz)*sv + (s6-by)*sw) / s
	pv1 = ((s4-bz)*su + (s2+1.)*sv + (s5+bx)*sw) / s
	pw1 = ((s6+by)*su + (s5-bx)*sv + (s3+1.)*sw) / s
	return pu1, pv1, pw1
}

// impulse is the inverse Lorentz factor (|p|²+1)^(-1/2).
func impulse(pu, pv, pw float64) float64 {
	return 1 / math.Sqrt((pu*pu+pv*pv+pw*pw)+1.0)
}

// Push moves every particle in ps with the matching field sample in fs.
// Both slices must have the same length.
func Push(ps []Particle, fs []Field, tau float64) {
	for i := range ps {
		ps[i].Move(fs[i], tau)
	}
}

// CommitAll promotes the next position of every particle.
func CommitAll(ps []Particle) {
	for i := range ps {
		ps[i].Commit()
	}
}
