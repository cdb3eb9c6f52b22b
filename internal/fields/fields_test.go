package fields

import (
	"math"
	"testing"

	"github.com/LyesMestiri/atom/internal/particle"
)

func TestUniform(t *testing.T) {
	u := NewUniform(particle.Vector3{X: 1}, particle.Vector3{Z: 2})
	for _, pos := range []particle.Vector3{{}, {X: 5, Y: -3}, {Z: 100}} {
		fd := u.Sample(pos, 3.5)
		if fd.E != u.E || fd.H != u.H {
			t.Errorf("Sample(%v) = %+v", pos, fd)
		}
	}
}

func TestMirror(t *testing.T) {
	m := NewMirror(2, 4)

	fd := m.Sample(particle.Vector3{}, 0)
	if fd.H != (particle.Vector3{Z: 2}) {
		t.Errorf("field at the centre = %v", fd.H)
	}

	fd = m.Sample(particle.Vector3{X: 1, Z: 4}, 0)
	if math.Abs(fd.H.Z-4) > 1e-12 {
		t.Errorf("Hz at z=L = %v, want 2*B0", fd.H.Z)
	}
	if fd.H.X >= 0 {
		t.Errorf("radial field must point inwards above the midplane, got %v", fd.H.X)
	}
	if fd.E != (particle.Vector3{}) {
		t.Errorf("mirror has an electric field: %v", fd.E)
	}

	if r := m.MirrorRatio(4); math.Abs(r-2) > 1e-12 {
		t.Errorf("MirrorRatio = %v, want 2", r)
	}
}

func TestMirror_Divergence(t *testing.T) {
	m := NewMirror(1.5, 3)
	pos := particle.Vector3{X: 0.2, Y: -0.1, Z: 1.3}
	h := 1e-5

	div := 0.0
	for axis := 0; axis < 3; axis++ {
		var d particle.Vector3
		switch axis {
		case 0:
			d.X = h
		case 1:
			d.Y = h
		case 2:
			d.Z = h
		}
		fp := m.Sample(pos.Add(d), 0).H
		fm := m.Sample(pos.Sub(d), 0).H
		comp := [3]float64{fp.X - fm.X, fp.Y - fm.Y, fp.Z - fm.Z}
		div += comp[axis] / (2 * h)
	}

	if math.Abs(div) > 1e-6 {
		t.Errorf("div H = %v, want 0", div)
	}
}

func TestPlaneWave(t *testing.T) {
	w := NewPlaneWave(0.5, 2, 2)

	fd := w.Sample(particle.Vector3{}, 0)
	if fd.E.Y != 0.5 || fd.H.Z != 0.5 {
		t.Errorf("peak field = %+v", fd)
	}

	// a point riding the phase sees a constant field
	a := w.Sample(particle.Vector3{X: 1}, 1)
	b := w.Sample(particle.Vector3{X: 3}, 3)
	if math.Abs(a.E.Y-b.E.Y) > 1e-12 {
		t.Errorf("phase not constant along x = t: %v vs %v", a.E.Y, b.E.Y)
	}
}

func TestSuperpose(t *testing.T) {
	src := Superpose(
		NewUniform(particle.Vector3{X: 1}, particle.Vector3{}),
		NewUniform(particle.Vector3{Y: 2}, particle.Vector3{Z: 3}),
		SourceFunc(func(pos particle.Vector3, _ float64) particle.Field {
			return particle.Field{H: pos}
		}),
	)

	fd := src.Sample(particle.Vector3{X: 1, Y: 1, Z: 1}, 0)
	if fd.E != (particle.Vector3{X: 1, Y: 2}) {
		t.Errorf("E = %v", fd.E)
	}
	if fd.H != (particle.Vector3{X: 1, Y: 1, Z: 4}) {
		t.Errorf("H = %v", fd.H)
	}
}

func TestSampleAll(t *testing.T) {
	ps := []particle.Particle{
		particle.New(1, 0, 0, 0, 0, 0, 1, 1),
		particle.New(2, 0, 0, 0, 0, 0, 1, 1),
	}
	out := make([]particle.Field, len(ps))
	SampleAll(SourceFunc(func(pos particle.Vector3, _ float64) particle.Field {
		return particle.Field{E: particle.Vector3{X: pos.X}}
	}), ps, 0, out)

	if out[0].E.X != 1 || out[1].E.X != 2 {
		t.Errorf("SampleAll = %+v", out)
	}
}
