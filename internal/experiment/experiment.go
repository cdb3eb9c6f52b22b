package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	simulator  *sim.Simulator
	population []particle.Particle
	randSource *rand.Rand
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup validates the config and builds the field source, backend and
// population. Metrics default to the registry's set when none are given.
func (e *Experiment) Setup(reg *Registry, metrics ...sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	src, err := reg.GetField(e.cfg.Field)
	if err != nil {
		return err
	}
	backend, err := reg.GetBackend(e.cfg.Backend)
	if err != nil {
		return err
	}

	e.simulator = sim.New(src, backend)
	if len(metrics) == 0 {
		metrics = reg.DefaultMetrics()
	}
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	e.population = BuildPopulation(e.cfg, e.randSource)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.population, e.cfg.SimConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Population is the live particle slice; Run advances it in place.
func (e *Experiment) Population() []particle.Particle {
	return e.population
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

// Prepare is New followed by Setup against the default registry.
func Prepare(cfg *config.Config) (*Experiment, error) {
	exp := New(cfg)
	if err := exp.Setup(NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

// BuildPopulation lays out every species in config order. Positions are
// drawn uniformly within Extent of the species centre and momenta from a
// normal distribution of width Spread; zero widths place every particle on
// the centre.
func BuildPopulation(cfg *config.Config, rng *rand.Rand) []particle.Particle {
	pop := make([]particle.Particle, 0, cfg.NumParticles())

	for _, sp := range cfg.Species {
		for i := 0; i < sp.Count; i++ {
			var pos, mom [3]float64
			for k := 0; k < 3; k++ {
				pos[k] = sp.Position[k]
				if sp.Extent > 0 {
					pos[k] += sp.Extent * (2*rng.Float64() - 1)
				}
				mom[k] = sp.Momentum[k]
				if sp.Spread > 0 {
					mom[k] += sp.Spread * rng.NormFloat64()
				}
			}

			p := particle.New(pos[0], pos[1], pos[2], mom[0], mom[1], mom[2], sp.Mass, sp.QM).WithSort(sp.Species)
			p.SetDebugIndex(len(pop))
			pop = append(pop, p)
		}
	}

	return pop
}
