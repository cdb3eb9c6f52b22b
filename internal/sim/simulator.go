package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/LyesMestiri/atom/internal/compute"
	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/particle"
)

// Simulator advances a particle population through a field source.
// Each step samples the field at every current position, pushes every
// particle, and only then commits the new positions.
type Simulator struct {
	source    fields.Source
	backend   compute.Backend
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
	pool      *FieldPool
}

func New(source fields.Source, backend compute.Backend) *Simulator {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Simulator{
		source:    source,
		backend:   backend,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard),
		pool:      NewFieldPool(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) WithLogger(l *log.Logger) *Simulator {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Simulator) Backend() compute.Backend { return s.backend }
func (s *Simulator) Source() fields.Source    { return s.source }

func (s *Simulator) Run(ctx context.Context, pop []particle.Particle, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(pop) == 0 {
		return nil, ErrEmptyPopulation
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := max(cfg.RecordEvery, 1)
	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	fs := s.pool.Get(len(pop))
	defer s.pool.Put(fs)

	t := 0.0
	result.Frames = append(result.Frames, snapshot(pop, cfg.Track, t))
	s.observe(pop, t)

	initialEnergy := TotalKineticEnergy(pop)

	s.logger.Debug("run started",
		"particles", len(pop), "steps", steps, "dt", cfg.Dt, "backend", s.backend.Name())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		if err := s.advance(ctx, pop, fs, t, cfg.Dt); err != nil {
			if ctx.Err() != nil {
				return result, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
			}
			return result, err
		}

		if cfg.ValidateState {
			if idx := FirstInvalid(pop); idx >= 0 {
				err := &SimulationError{Step: i, Time: t, Index: idx, Wrapped: ErrInvalidState}
				result.Errors = append(result.Errors, err)
				s.logger.Warn("invalid particle state, stopping run", "step", i, "particle", idx)
				break
			}
		}

		particle.CommitAll(pop)
		t += cfg.Dt
		result.StepsTaken++

		s.observe(pop, t)

		if result.StepsTaken%every == 0 {
			result.Frames = append(result.Frames, snapshot(pop, cfg.Track, t))
		}
	}

	if result.StepsTaken%every != 0 {
		result.Frames = append(result.Frames, snapshot(pop, cfg.Track, t))
	}

	finalEnergy := TotalKineticEnergy(pop)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished", "steps", result.StepsTaken, "energy_drift", result.EnergyDrift)

	return result, nil
}

// Step advances pop by one timestep dt starting at time t and commits it.
func (s *Simulator) Step(ctx context.Context, pop []particle.Particle, t, dt float64) error {
	fs := s.pool.Get(len(pop))
	defer s.pool.Put(fs)

	if err := s.advance(ctx, pop, fs, t, dt); err != nil {
		return err
	}
	if idx := FirstInvalid(pop); idx >= 0 {
		return &SimulationError{Time: t, Index: idx, Wrapped: ErrInvalidState}
	}
	particle.CommitAll(pop)
	return nil
}

func (s *Simulator) advance(ctx context.Context, pop []particle.Particle, fs []particle.Field, t, dt float64) error {
	if err := s.backend.Sample(ctx, s.source, pop, t, fs); err != nil {
		return err
	}
	return s.backend.Push(ctx, pop, fs, dt)
}

func (s *Simulator) observe(pop []particle.Particle, t float64) {
	for _, m := range s.metrics {
		m.Observe(pop, t)
	}
	for _, o := range s.observers {
		o.OnStep(pop, t)
	}
}
