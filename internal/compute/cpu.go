package compute

import (
	"context"
	"fmt"
	"runtime"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

const defaultMinChunk = 2048

type CPUBackend struct {
	workers  int
	minChunk int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers:  runtime.NumCPU(),
		minChunk: defaultMinChunk,
	}
}

// NewCPUBackendWithWorkers fixes the worker count and the smallest chunk a
// worker is handed. Non-positive values fall back to the defaults.
func NewCPUBackendWithWorkers(workers, minChunk int) *CPUBackend {
	c := NewCPUBackend()
	if workers > 0 {
		c.workers = workers
	}
	if minChunk > 0 {
		c.minChunk = minChunk
	}
	return c
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Sample(ctx context.Context, src fields.Source, ps []particle.Particle, t float64, out []particle.Field) error {
	if err := checkLengths(len(ps), len(out)); err != nil {
		return err
	}
	return ParallelFor(ctx, len(ps), c.minChunk, c.workers, func(start, end int) {
		fields.SampleAll(src, ps[start:end], t, out[start:end])
	})
}

func (c *CPUBackend) Push(ctx context.Context, ps []particle.Particle, fs []particle.Field, tau float64) error {
	if err := checkLengths(len(ps), len(fs)); err != nil {
		return err
	}
	return ParallelFor(ctx, len(ps), c.minChunk, c.workers, func(start, end int) {
		particle.Push(ps[start:end], fs[start:end], tau)
	})
}
