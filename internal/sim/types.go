package sim

import (
	"fmt"

	"github.com/LyesMestiri/atom/internal/particle"
)

type Metric interface {
	Name() string
	Observe(pop []particle.Particle, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(pop []particle.Particle, t float64)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
	// RecordEvery stores a frame every n steps; 0 or 1 records every step.
	RecordEvery int
	// Track limits frames to the first n particles; 0 records all.
	Track         int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		RecordEvery:   1,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record interval must not be negative, got %d", ErrInvalidConfig, c.RecordEvery)
	}
	if c.Track < 0 {
		return fmt.Errorf("%w: track count must not be negative, got %d", ErrInvalidConfig, c.Track)
	}
	return nil
}

// Frame is a snapshot of the tracked particles at one time.
type Frame struct {
	Time      float64
	Positions []particle.Vector3
	Momenta   []particle.Vector3
}

type Result struct {
	Frames      []Frame
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}

func snapshot(pop []particle.Particle, track int, t float64) Frame {
	n := len(pop)
	if track > 0 && track < n {
		n = track
	}
	f := Frame{
		Time:      t,
		Positions: make([]particle.Vector3, n),
		Momenta:   make([]particle.Vector3, n),
	}
	for i := 0; i < n; i++ {
		f.Positions[i] = pop[i].Position()
		f.Momenta[i] = pop[i].Momentum()
	}
	return f
}

// TotalKineticEnergy sums (γ-1)·M over the population.
func TotalKineticEnergy(pop []particle.Particle) float64 {
	sum := 0.0
	for i := range pop {
		sum += pop[i].KineticEnergy()
	}
	return sum
}

// FirstInvalid returns the index of the first particle with a NaN or Inf
// component, or -1.
func FirstInvalid(pop []particle.Particle) int {
	for i := range pop {
		if !pop[i].IsFinite() {
			return i
		}
	}
	return -1
}
