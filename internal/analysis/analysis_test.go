package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

func TestPowerSpectrum(t *testing.T) {
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}

	// non power-of-two lengths are fine
	data := make([]float64, 100)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 7 * float64(i) / 100)
	}
	ps := PowerSpectrum(data)
	if len(ps) != 50 {
		t.Fatalf("expected 50 bins, got %d", len(ps))
	}
	if math.Abs(ps[7]-50) > 1e-9 {
		t.Errorf("bin 7 = %v, want 50", ps[7])
	}
	if ps[3] > 1e-9 {
		t.Errorf("bin 3 = %v, want 0", ps[3])
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		n  = 256
		dt = 0.01
	)
	want := 5 / (n * dt)

	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*want*float64(i)*dt)
	}

	got := DominantFrequency(data, dt)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("DominantFrequency = %v, want %v", got, want)
	}

	if DominantFrequency(data[:2], dt) != 0 {
		t.Error("expected 0 for too short a series")
	}
	if DominantFrequency(data, 0) != 0 {
		t.Error("expected 0 for non-positive dt")
	}
}

func TestOrbitStats(t *testing.T) {
	const n = 360
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		a := 2 * math.Pi * float64(i) / n
		xs[i] = 1 + 2*math.Cos(a)
		ys[i] = -3 + 2*math.Sin(a)
	}

	o, err := OrbitStats(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(o.CenterX-1) > 1e-12 || math.Abs(o.CenterY+3) > 1e-12 {
		t.Errorf("centre (%v, %v), want (1, -3)", o.CenterX, o.CenterY)
	}
	if math.Abs(o.MeanRadius-2) > 1e-12 || o.MaxRadius-o.MinRadius > 1e-12 {
		t.Errorf("radius mean %v in [%v, %v], want 2", o.MeanRadius, o.MinRadius, o.MaxRadius)
	}

	if _, err := OrbitStats(xs, ys[:1]); err != ErrSeriesMismatch {
		t.Errorf("expected ErrSeriesMismatch, got %v", err)
	}
	if _, err := OrbitStats(nil, nil); err != ErrSeriesMismatch {
		t.Errorf("expected ErrSeriesMismatch, got %v", err)
	}
}

func TestGyroReferences(t *testing.T) {
	if got := GyroFrequency(-1, 2, 2); got != 1 {
		t.Errorf("GyroFrequency = %v, want 1", got)
	}
	if got := GyroRadius(1, -1, 0.5); got != 2 {
		t.Errorf("GyroRadius = %v, want 2", got)
	}
}

// A pushed gyration orbit sampled over one period matches the analytic radius.
func TestOrbitStats_PushedGyration(t *testing.T) {
	p := particle.New(0, 0, 0, 1, 0, 0, 1, 1)
	src := fields.NewUniform(particle.Vector3{}, particle.Vector3{Z: 1})

	omega := GyroFrequency(p.QM, 1, p.Gamma())
	const steps = 4000
	dt := 2 * math.Pi / omega / steps

	xs := make([]float64, steps)
	ys := make([]float64, steps)
	for i := 0; i < steps; i++ {
		xs[i], ys[i] = p.X, p.Y
		p.Move(src.Sample(p.Position(), 0), dt)
		p.Commit()
	}

	o, err := OrbitStats(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	want := GyroRadius(1, p.QM, 1)
	if math.Abs(o.MeanRadius-want) > 1e-3 {
		t.Errorf("orbit radius %v, want %v", o.MeanRadius, want)
	}

	if f := DominantFrequency(xs, dt); math.Abs(2*math.Pi*f-omega) > 1e-9 {
		t.Errorf("orbit frequency %v, want %v", 2*math.Pi*f, omega)
	}
}

func TestLyapunovExponent_UniformField(t *testing.T) {
	p := particle.New(0, 0, 0, 0.5, 0, 0.2, 1, -1)
	src := fields.NewUniform(particle.Vector3{}, particle.Vector3{Z: 1})

	lambda := LyapunovExponent(src, p, 0.01, 20, 1e-6)
	if math.Abs(lambda) > 1e-3 {
		t.Errorf("expected no divergence in a uniform field, got %v", lambda)
	}

	if LyapunovExponent(src, p, 0, 1, 1e-6) != 0 {
		t.Error("expected 0 for invalid dt")
	}
}

func TestPhasePortrait(t *testing.T) {
	xs := []float64{-1, 0, 1, 0}
	ys := []float64{0, 1, 0, -1}

	portrait, err := PhasePortrait(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if len(portrait.Points) != 4 || portrait.Points[1] != (Point{0, 1}) {
		t.Errorf("unexpected points %v", portrait.Points)
	}

	art := PhasePortraitToASCII(portrait, 20, 10)
	if strings.Count(art, "\n") != 10 || !strings.Contains(art, "•") {
		t.Errorf("unexpected ASCII plot:\n%s", art)
	}

	if _, err := PhasePortrait(xs, ys[:2]); err == nil {
		t.Error("expected error for mismatched series")
	}
}

func TestPoincareSectionOf(t *testing.T) {
	cross := []float64{-1, 1, -1, 1}
	xs := []float64{0, 2, 0, 4}
	ys := []float64{1, 1, 1, 3}

	section, err := PoincareSectionOf(cross, xs, ys, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{1, 1}, {2, 2}}
	if len(section.Points) != len(want) {
		t.Fatalf("expected %d crossings, got %d", len(want), len(section.Points))
	}
	for i := range want {
		if section.Points[i] != want[i] {
			t.Errorf("crossing %d = %v, want %v", i, section.Points[i], want[i])
		}
	}

	if PoincareSectionToASCII(&PoincareSection{}, 10, 5) != "No crossings detected" {
		t.Error("expected placeholder for empty section")
	}
}

func TestCompareIntegrators_MagneticField(t *testing.T) {
	src := fields.NewUniform(particle.Vector3{}, particle.Vector3{Z: 1})
	p := particle.New(0, 0, 0, 1, 0, 0, 1, -1)

	cmp := CompareIntegrators(src, p, 0.2, 50)
	if cmp.Steps != 250 {
		t.Fatalf("steps = %d, want 250", cmp.Steps)
	}
	if cmp.BorisMomentumDrift > 1e-12 {
		t.Errorf("boris drift %.3e, want round-off", cmp.BorisMomentumDrift)
	}
	if cmp.RK4MomentumDrift < 1e-8 || cmp.RK4MomentumDrift > 1e-3 {
		t.Errorf("rk4 drift %.3e outside the expected range", cmp.RK4MomentumDrift)
	}
	if cmp.MaxSeparation <= 0 {
		t.Error("trajectories should differ")
	}

	if (CompareIntegrators(src, p, 0, 1) != IntegratorComparison{}) {
		t.Error("non-positive dt should yield an empty comparison")
	}
}

func TestBeamSummary(t *testing.T) {
	pop := []particle.Particle{
		particle.New(0, 0, 0, 1, 0, 0, 1, -1),
		particle.New(0, 0, 0, -1, 0, 0, 1, -1),
		particle.New(0, 0, 0, 0, 0, 0, 0, 0),
	}

	b := BeamSummary(pop)
	if b.Count != 2 {
		t.Fatalf("count = %d, want 2 (massless particle skipped)", b.Count)
	}
	// back to back: no net momentum, so the invariant mass is the total energy
	if math.Abs(b.InvariantMass-2*math.Sqrt2) > 1e-12 {
		t.Errorf("invariant mass = %.15f, want %.15f", b.InvariantMass, 2*math.Sqrt2)
	}
	if math.Abs(b.TotalEnergy-b.InvariantMass) > 1e-12 {
		t.Errorf("energy %.15f != invariant mass %.15f", b.TotalEnergy, b.InvariantMass)
	}
	if math.Abs(b.MeanPt-1) > 1e-12 || math.Abs(b.MaxPt-1) > 1e-12 {
		t.Errorf("pt mean %.6f max %.6f, want 1", b.MeanPt, b.MaxPt)
	}
	if b.MassShellError > 1e-12 {
		t.Errorf("mass shell error %.3e", b.MassShellError)
	}

	if (BeamSummary(nil) != Beam{}) {
		t.Error("empty population should give a zero summary")
	}
}

func TestFourMomentum_Proton(t *testing.T) {
	p := particle.New(0, 0, 0, 0.3, -0.4, 1.2, 1836, 1.0/1836)
	p4 := FourMomentum(&p)
	if math.Abs(p4.M()-1836)/1836 > 1e-12 {
		t.Errorf("mass = %.9f, want 1836", p4.M())
	}
	if math.Abs(p4.E()-1836*p.Gamma()) > 1e-9 {
		t.Errorf("energy = %.9f, want %.9f", p4.E(), 1836*p.Gamma())
	}
}
