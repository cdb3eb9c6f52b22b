package experiment

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/particle"
)

func TestBuildPopulation(t *testing.T) {
	cfg, err := config.GetPreset("beam")
	if err != nil {
		t.Fatal(err)
	}

	pop := BuildPopulation(cfg, rand.New(rand.NewSource(cfg.Seed)))
	if len(pop) != cfg.NumParticles() {
		t.Fatalf("expected %d particles, got %d", cfg.NumParticles(), len(pop))
	}

	electrons := cfg.Species[0]
	for i, p := range pop {
		sp := cfg.Species[0]
		if i >= electrons.Count {
			sp = cfg.Species[1]
		}
		if p.Sort != sp.Species {
			t.Fatalf("particle %d: sort %v, want %v", i, p.Sort, sp.Species)
		}
		if p.QM != sp.QM || p.M != sp.Mass {
			t.Fatalf("particle %d: charge/mass mismatch", i)
		}
		if math.Abs(p.X-sp.Position[0]) > sp.Extent || math.Abs(p.Z-sp.Position[2]) > sp.Extent {
			t.Fatalf("particle %d outside extent: %+v", i, p.Position())
		}
		if p.X1 != p.X || p.Y1 != p.Y || p.Z1 != p.Z {
			t.Fatalf("particle %d: next position not initialised", i)
		}
	}
}

func TestBuildPopulation_Deterministic(t *testing.T) {
	cfg, _ := config.GetPreset("beam")

	a := BuildPopulation(cfg, rand.New(rand.NewSource(1)))
	b := BuildPopulation(cfg, rand.New(rand.NewSource(1)))
	c := BuildPopulation(cfg, rand.New(rand.NewSource(2)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d", i)
		}
	}
	if a[0] == c[0] {
		t.Error("different seeds should give different populations")
	}
}

func TestBuildPopulation_ZeroSpread(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Species[0].Count = 3
	cfg.Species[0].Position = [3]float64{1, 2, 3}

	pop := BuildPopulation(cfg, rand.New(rand.NewSource(0)))
	for i, p := range pop {
		if p.Position() != (particle.Vector3{X: 1, Y: 2, Z: 3}) {
			t.Errorf("particle %d: position %+v", i, p.Position())
		}
		if p.Momentum() != (particle.Vector3{X: 1}) {
			t.Errorf("particle %d: momentum %+v", i, p.Momentum())
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	names := reg.ListFields()
	want := []string{config.FieldMirror, config.FieldUniform, config.FieldWave}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("field %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	if _, err := reg.GetField(config.FieldConfig{Kind: "dipole"}); err == nil {
		t.Error("expected error for unknown field kind")
	}
	if _, err := reg.GetBackend("cuda"); err == nil {
		t.Error("expected error for unknown backend")
	}
	if len(reg.DefaultMetrics()) == 0 {
		t.Error("expected default metrics")
	}
}

func TestRegistry_MirrorAddsUniform(t *testing.T) {
	reg := NewRegistry()
	src, err := reg.GetField(config.FieldConfig{Kind: config.FieldMirror, B0: 1, Length: 2, E: [3]float64{0.5, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}

	f := src.Sample(particle.Vector3{}, 0)
	if f.H.Z != 1 || f.E.X != 0.5 {
		t.Errorf("unexpected field at origin: %+v", f)
	}
}

func TestRun_NotSetup(t *testing.T) {
	exp := New(config.DefaultConfig())
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error when running before setup")
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dt = 0

	if _, err := Prepare(cfg); err == nil {
		t.Error("expected validation error")
	}
}

func TestRun_Gyration(t *testing.T) {
	cfg, err := config.GetPreset("gyration")
	if err != nil {
		t.Fatal(err)
	}

	exp, err := Prepare(cfg)
	if err != nil {
		t.Fatal(err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	if result.StepsTaken != steps {
		t.Errorf("expected %d steps, got %d", steps, result.StepsTaken)
	}
	if len(result.Frames) != steps+1 {
		t.Errorf("expected %d frames, got %d", steps+1, len(result.Frames))
	}
	if math.Abs(result.Metrics["mean_gamma"]-math.Sqrt2) > 1e-12 {
		t.Errorf("mean gamma %v, want sqrt(2)", result.Metrics["mean_gamma"])
	}
	if result.EnergyDrift > 1e-10 {
		t.Errorf("energy drift %e in a pure magnetic field", result.EnergyDrift)
	}
	if result.Metrics["stability"] != 1 {
		t.Errorf("stability %v, want 1", result.Metrics["stability"])
	}
}

func BenchmarkRun_Beam(b *testing.B) {
	cfg, _ := config.GetPreset("beam")
	cfg.Duration = 1

	for i := 0; i < b.N; i++ {
		exp, err := Prepare(cfg)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := exp.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
