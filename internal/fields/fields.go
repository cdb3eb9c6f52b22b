package fields

import (
	"math"

	"github.com/LyesMestiri/atom/internal/particle"
)

type Source interface {
	Sample(pos particle.Vector3, t float64) particle.Field
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(pos particle.Vector3, t float64) particle.Field

func (f SourceFunc) Sample(pos particle.Vector3, t float64) particle.Field { return f(pos, t) }

type Uniform struct {
	E, H particle.Vector3
}

func NewUniform(e, h particle.Vector3) *Uniform {
	return &Uniform{E: e, H: h}
}

func (u *Uniform) Sample(_ particle.Vector3, _ float64) particle.Field {
	return particle.Field{E: u.E, H: u.H}
}

// Mirror is a magnetic bottle with its minimum B0 at z = 0, growing as
// 1+(z/L)². The radial components keep the field divergence-free to first
// order in x and y.
type Mirror struct {
	B0, L float64
}

func NewMirror(b0, l float64) *Mirror {
	return &Mirror{B0: b0, L: l}
}

func (m *Mirror) Sample(pos particle.Vector3, _ float64) particle.Field {
	l2 := m.L * m.L
	return particle.Field{
		H: particle.Vector3{
			X: -m.B0 * pos.X * pos.Z / l2,
			Y: -m.B0 * pos.Y * pos.Z / l2,
			Z: m.B0 * (1 + pos.Z*pos.Z/l2),
		},
	}
}

// MirrorRatio is Bmax/Bmin between z = 0 and z = ±zmax.
func (m *Mirror) MirrorRatio(zmax float64) float64 {
	return 1 + zmax*zmax/(m.L*m.L)
}

// PlaneWave travels along +x with E along y and H along z.
type PlaneWave struct {
	Amplitude, K, Omega float64
}

func NewPlaneWave(amplitude, k, omega float64) *PlaneWave {
	return &PlaneWave{Amplitude: amplitude, K: k, Omega: omega}
}

func (w *PlaneWave) Sample(pos particle.Vector3, t float64) particle.Field {
	a := w.Amplitude * math.Cos(w.K*pos.X-w.Omega*t)
	return particle.Field{
		E: particle.Vector3{Y: a},
		H: particle.Vector3{Z: a},
	}
}

type superposition []Source

// Superpose sums the samples of every source.
func Superpose(sources ...Source) Source {
	return superposition(sources)
}

func (s superposition) Sample(pos particle.Vector3, t float64) particle.Field {
	var fd particle.Field
	for _, src := range s {
		f := src.Sample(pos, t)
		fd.E = fd.E.Add(f.E)
		fd.H = fd.H.Add(f.H)
	}
	return fd
}

// SampleAll fills out with the field at each particle's current position.
func SampleAll(src Source, ps []particle.Particle, t float64, out []particle.Field) {
	for i := range ps {
		out[i] = src.Sample(ps[i].Position(), t)
	}
}
