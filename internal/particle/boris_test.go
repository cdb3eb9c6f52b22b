package particle

import (
	"math"
	"math/rand"
	"testing"
)

func randVec(r *rand.Rand, scale float64) Vector3 {
	return Vector3{
		X: (2*r.Float64() - 1) * scale,
		Y: (2*r.Float64() - 1) * scale,
		Z: (2*r.Float64() - 1) * scale,
	}
}

func TestMove_PureMagneticConservesMagnitude(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p := New(0, 0, 0, 0, 0, 0, 1, 2*r.Float64()-1)
		p.SetMomentum(randVec(r, 10))
		h := randVec(r, 50)

		before := p.Momentum().Norm()
		p.Move(Field{H: h}, 0.05)
		after := p.Momentum().Norm()

		if math.Abs(after-before) > 1e-12*math.Max(1, before) {
			t.Fatalf("case %d: |p| changed from %.17g to %.17g", i, before, after)
		}
	}
}

func TestMove_ZeroField(t *testing.T) {
	tests := []struct {
		name string
		p    Particle
		tau  float64
	}{
		{"at rest", New(1, 2, 3, 0, 0, 0, 1, -1), 0.1},
		{"moving", New(0, 0, 0, 0.3, -0.7, 1.2, 1, -1), 0.01},
		{"ultra relativistic", New(-5, 0, 5, 1e4, 0, -1e3, 1, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			p0 := p.Momentum()
			v0 := p.Velocity()

			p.Move(Field{}, tt.tau)

			if p.Momentum() != p0 {
				t.Errorf("momentum changed: %v -> %v", p0, p.Momentum())
			}
			// no field leaves every stage bit-exact
			want := p.Position().Add(v0.Mult(tt.tau))
			if p.NextPosition() != want {
				t.Errorf("next position %v, want exactly %v", p.NextPosition(), want)
			}
			if p.Position() != tt.p.Position() {
				t.Error("Move touched the current position")
			}
		})
	}
}

func TestMove_PureElectric(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		qm := 4*r.Float64() - 2
		tau := 0.001 + 0.1*r.Float64()
		e := randVec(r, 5)

		p := New(0, 0, 0, 0, 0, 0, 1, qm)
		p.SetMomentum(randVec(r, 3))
		want := p.Momentum().Add(e.Mult(qm * tau))

		p.Move(Field{E: e}, tau)

		if d := p.Momentum().Sub(want).Norm(); d > 1e-12 {
			t.Fatalf("case %d: momentum %v, want %v (|d|=%g)", i, p.Momentum(), want, d)
		}
	}
}

// The rotation in Move must agree with the textbook vector form of the
// Boris rotation, p+ = p- + (p- + p- x t) x s with s = 2t/(1+t²).
func TestMove_MatchesVectorBoris(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		qm := 2*r.Float64() - 1
		tau := 0.01 + 0.2*r.Float64()
		fd := Field{E: randVec(r, 2), H: randVec(r, 4)}
		p := New(0.5, -0.5, 1, 0, 0, 0, 1, qm)
		p.SetMomentum(randVec(r, 2))

		h := qm * tau / 2
		pm := p.Momentum().Add(fd.E.Mult(h))
		gi := 1 / math.Sqrt(pm.Dot(pm)+1)
		tv := fd.H.Mult(h * gi)
		sv := tv.Mult(2 / (1 + tv.Dot(tv)))
		pp := pm.Add(pm.Add(pm.Cross(tv)).Cross(sv))
		pf := pp.Add(fd.E.Mult(h))
		xf := p.Position().Add(pf.Mult(tau / math.Sqrt(pf.Dot(pf)+1)))

		p.Move(fd, tau)

		if d := p.Momentum().Sub(pf).Norm(); d > 1e-12 {
			t.Fatalf("case %d: momentum %v, want %v", i, p.Momentum(), pf)
		}
		if d := p.NextPosition().Sub(xf).Norm(); d > 1e-12 {
			t.Fatalf("case %d: next position %v, want %v", i, p.NextPosition(), xf)
		}
	}
}

func TestPushAndCommitAll(t *testing.T) {
	ps := []Particle{
		New(0, 0, 0, 1, 0, 0, 1, 1),
		New(1, 1, 1, 0, 1, 0, 1, -1),
	}
	fs := []Field{
		{H: Vector3{Z: 1}},
		{E: Vector3{X: 1}},
	}

	want := make([]Particle, len(ps))
	for i := range ps {
		want[i] = ps[i]
		want[i].Move(fs[i], 0.1)
		want[i].Commit()
	}

	Push(ps, fs, 0.1)
	CommitAll(ps)

	for i := range ps {
		if ps[i] != want[i] {
			t.Errorf("particle %d: got %+v, want %+v", i, ps[i], want[i])
		}
	}
}

func BenchmarkMove(b *testing.B) {
	p := New(0, 0, 0, 0.1, 0.2, 0.3, 1, -1)
	fd := Field{E: Vector3{0.01, 0, 0}, H: Vector3{0, 0, 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Move(fd, 0.01)
		p.Commit()
	}
}

func BenchmarkPush_10k(b *testing.B) {
	const n = 10000
	ps := make([]Particle, n)
	fs := make([]Field, n)
	for i := range ps {
		ps[i] = New(float64(i), 0, 0, 0.1, 0, 0, 1, -1)
		fs[i] = Field{H: Vector3{Z: 1}}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Push(ps, fs, 0.01)
		CommitAll(ps)
	}
}
