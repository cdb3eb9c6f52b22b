package compute

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

var ErrLengthMismatch = errors.New("compute: particle and field counts differ")

type Backend interface {
	Name() string
	Available() bool
	// Sample writes the field at every particle's current position into out.
	Sample(ctx context.Context, src fields.Source, ps []particle.Particle, t float64, out []particle.Field) error
	// Push moves every particle with its field sample. Positions are not committed.
	Push(ctx context.Context, ps []particle.Particle, fs []particle.Field, tau float64) error
	Cleanup()
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend()
}

func SetBackend(b Backend) {
	if activeBackend != nil {
		activeBackend.Cleanup()
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

func AutoSelectBackend() Backend {
	if runtime.NumCPU() > 1 {
		return NewCPUBackend()
	}
	return NewSerialBackend()
}

// Names lists the values accepted by ByName.
func Names() []string {
	return []string{"auto", "serial", "cpu"}
}

func ByName(name string) (Backend, error) {
	switch name {
	case "", "auto":
		return AutoSelectBackend(), nil
	case "serial":
		return NewSerialBackend(), nil
	case "cpu":
		return NewCPUBackend(), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", name)
}

func checkLengths(np, nf int) error {
	if np != nf {
		return fmt.Errorf("%w: %d particles, %d fields", ErrLengthMismatch, np, nf)
	}
	return nil
}
