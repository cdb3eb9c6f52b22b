// Package integrators holds reference integrators for the relativistic
// equation of motion. They are not symplectic and serve as a baseline for
// the Boris pusher, never as a replacement for it.
package integrators

import (
	"math"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

// State is position followed by momentum per unit rest mass.
type State [6]float64

// Derivative is the right-hand side of dx/dt = f(x, t).
type Derivative func(x State, t float64) State

func StateOf(p *particle.Particle) State {
	return State{p.X, p.Y, p.Z, p.PU, p.PV, p.PW}
}

// Apply writes s into p as both current and next position.
func (s State) Apply(p *particle.Particle) {
	pos := particle.Vector3{X: s[0], Y: s[1], Z: s[2]}
	p.SetPosition(pos)
	p.SetNextPosition(pos)
	p.SetMomentum(particle.Vector3{X: s[3], Y: s[4], Z: s[5]})
}

// Lorentz returns dx/dt = p/γ, dp/dt = q_m(E + p/γ × H) for a particle of
// charge to mass ratio qm in src.
func Lorentz(src fields.Source, qm float64) Derivative {
	return func(x State, t float64) State {
		pos := particle.Vector3{X: x[0], Y: x[1], Z: x[2]}
		mom := particle.Vector3{X: x[3], Y: x[4], Z: x[5]}
		v := mom.Mult(1 / math.Sqrt(1+mom.Dot(mom)))

		fd := src.Sample(pos, t)
		f := fd.E.Add(v.Cross(fd.H)).Mult(qm)
		return State{v.X, v.Y, v.Z, f.X, f.Y, f.Z}
	}
}

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(f Derivative, x State, t, dt float64) State {
	k1 := f(x, t)
	k2 := f(axpy(x, dt*0.5, k1), t+dt*0.5)
	k3 := f(axpy(x, dt*0.5, k2), t+dt*0.5)
	k4 := f(axpy(x, dt, k3), t+dt)

	var result State
	dt6 := dt / 6.0
	for i := range x {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}

// Push advances p by one step in src.
func (r *RK4) Push(p *particle.Particle, src fields.Source, t, dt float64) {
	r.Step(Lorentz(src, p.QM), StateOf(p), t, dt).Apply(p)
}

func axpy(x State, a float64, y State) State {
	for i := range x {
		x[i] += a * y[i]
	}
	return x
}
