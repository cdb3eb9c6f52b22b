// Package metrics provides per-run diagnostics observed by the simulator.
package metrics

import "github.com/LyesMestiri/atom/internal/sim"

// DefaultStabilityThreshold bounds |p| before a step counts as unstable.
const DefaultStabilityThreshold = 1e6

// Defaults is the metric set attached to every experiment run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMeanGamma(),
		NewStability(DefaultStabilityThreshold),
	}
}
