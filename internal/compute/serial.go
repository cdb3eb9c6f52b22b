package compute

import (
	"context"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

type SerialBackend struct{}

func NewSerialBackend() *SerialBackend {
	return &SerialBackend{}
}

func (s *SerialBackend) Name() string    { return "serial" }
func (s *SerialBackend) Available() bool { return true }
func (s *SerialBackend) Cleanup()        {}

func (s *SerialBackend) Sample(ctx context.Context, src fields.Source, ps []particle.Particle, t float64, out []particle.Field) error {
	if err := checkLengths(len(ps), len(out)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fields.SampleAll(src, ps, t, out)
	return nil
}

func (s *SerialBackend) Push(ctx context.Context, ps []particle.Particle, fs []particle.Field, tau float64) error {
	if err := checkLengths(len(ps), len(fs)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	particle.Push(ps, fs, tau)
	return nil
}
