package metrics

import (
	"math"

	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

// KineticEnergy averages the population's total (γ-1)·M over observed steps.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(pop []particle.Particle, t float64) {
	e.totalEnergy += sim.TotalKineticEnergy(pop)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative departure of the total kinetic
// energy from its first observed value. Only meaningful without E.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(pop []particle.Particle, t float64) {
	energy := sim.TotalKineticEnergy(pop)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MeanGamma averages the Lorentz factor over particles and steps.
type MeanGamma struct {
	name    string
	sum     float64
	samples int
}

func NewMeanGamma() *MeanGamma {
	return &MeanGamma{name: "mean_gamma"}
}

func (g *MeanGamma) Name() string { return g.name }

func (g *MeanGamma) Observe(pop []particle.Particle, t float64) {
	for i := range pop {
		g.sum += pop[i].Gamma()
	}
	g.samples += len(pop)
}

func (g *MeanGamma) Value() float64 {
	if g.samples == 0 {
		return 0
	}
	return g.sum / float64(g.samples)
}

func (g *MeanGamma) Reset() {
	g.sum = 0
	g.samples = 0
}
