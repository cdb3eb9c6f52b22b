package compute

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

func makePopulation(n int, seed int64) []particle.Particle {
	r := rand.New(rand.NewSource(seed))
	ps := make([]particle.Particle, n)
	for i := range ps {
		ps[i] = particle.New(
			r.Float64(), r.Float64(), r.Float64(),
			r.NormFloat64(), r.NormFloat64(), r.NormFloat64(),
			1, -1,
		)
	}
	return ps
}

func TestBackends_AgreeWithSerial(t *testing.T) {
	src := fields.Superpose(
		fields.NewUniform(particle.Vector3{X: 0.1}, particle.Vector3{Z: 1}),
		fields.NewMirror(1, 2),
	)
	ctx := context.Background()

	backends := []Backend{
		NewCPUBackend(),
		NewCPUBackendWithWorkers(3, 100),
		NewCPUBackendWithWorkers(8, 1),
	}

	for _, b := range backends {
		t.Run(b.Name(), func(t *testing.T) {
			want := makePopulation(5000, 1)
			got := makePopulation(5000, 1)
			fw := make([]particle.Field, len(want))
			fg := make([]particle.Field, len(got))
			serial := NewSerialBackend()

			for step := 0; step < 5; step++ {
				tt := float64(step) * 0.01
				if err := serial.Sample(ctx, src, want, tt, fw); err != nil {
					t.Fatal(err)
				}
				if err := serial.Push(ctx, want, fw, 0.01); err != nil {
					t.Fatal(err)
				}
				particle.CommitAll(want)

				if err := b.Sample(ctx, src, got, tt, fg); err != nil {
					t.Fatal(err)
				}
				if err := b.Push(ctx, got, fg, 0.01); err != nil {
					t.Fatal(err)
				}
				particle.CommitAll(got)
			}

			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("particle %d differs: %+v vs %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestBackends_LengthMismatch(t *testing.T) {
	ps := makePopulation(4, 2)
	fs := make([]particle.Field, 3)

	for _, b := range []Backend{NewSerialBackend(), NewCPUBackend()} {
		if err := b.Push(context.Background(), ps, fs, 0.1); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s Push: expected ErrLengthMismatch, got %v", b.Name(), err)
		}
		src := fields.NewUniform(particle.Vector3{}, particle.Vector3{})
		if err := b.Sample(context.Background(), src, ps, 0, fs); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s Sample: expected ErrLengthMismatch, got %v", b.Name(), err)
		}
	}
}

func TestBackends_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ps := makePopulation(10000, 3)
	fs := make([]particle.Field, len(ps))
	before := make([]particle.Particle, len(ps))
	copy(before, ps)

	for _, b := range []Backend{NewSerialBackend(), NewCPUBackendWithWorkers(4, 100)} {
		if err := b.Push(ctx, ps, fs, 0.1); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", b.Name(), err)
		}
	}
	for i := range ps {
		if ps[i] != before[i] {
			t.Fatalf("particle %d was pushed after cancellation", i)
		}
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	tests := []struct {
		n, minChunk, workers int
	}{
		{0, 10, 4},
		{1, 10, 4},
		{10, 10, 4},
		{1000, 7, 4},
		{1001, 1, 16},
		{64, 100, 1},
	}

	for _, tt := range tests {
		hits := make([]int32, tt.n)
		var calls atomic.Int32
		err := ParallelFor(context.Background(), tt.n, tt.minChunk, tt.workers, func(start, end int) {
			calls.Add(1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		if err != nil {
			t.Fatalf("%+v: %v", tt, err)
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("%+v: index %d visited %d times", tt, i, h)
			}
		}
		if tt.n > 0 && int(calls.Load()) > tt.workers && tt.workers > 0 {
			t.Errorf("%+v: %d chunks for %d workers", tt, calls.Load(), tt.workers)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		b, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if !b.Available() {
			t.Errorf("%s not available", b.Name())
		}
	}
	if _, err := ByName("gpu"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestSetBackend(t *testing.T) {
	prev := GetBackend()
	defer SetBackend(prev)

	SetBackend(NewSerialBackend())
	if GetBackend().Name() != "serial" {
		t.Errorf("GetBackend() = %s", GetBackend().Name())
	}
}

func BenchmarkSerialPush_100k(b *testing.B) {
	benchmarkPush(b, NewSerialBackend(), 100000)
}

func BenchmarkCPUPush_100k(b *testing.B) {
	benchmarkPush(b, NewCPUBackend(), 100000)
}

func benchmarkPush(b *testing.B, backend Backend, n int) {
	ps := makePopulation(n, 4)
	fs := make([]particle.Field, n)
	for i := range fs {
		fs[i] = particle.Field{H: particle.Vector3{Z: 1}}
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := backend.Push(ctx, ps, fs, 0.01); err != nil {
			b.Fatal(err)
		}
	}
}
