// Package analysis provides post-processing for recorded particle runs.
//
//   - [PowerSpectrum], [DominantFrequency]: spectral content of a coordinate series
//   - [OrbitStats]: centroid and radius of a gyration orbit
//   - [GyroFrequency], [GyroRadius]: analytic references for uniform fields
//   - [LyapunovExponent]: divergence of two nearby particles in a field source
//   - [PhasePortrait], [PoincareSectionOf]: 2D views of a trajectory
//   - [MomentumHistogram], [VelocityProfile]: momentum and velocity distributions of one species
//   - [VelocityBatches], [PhasePlane]: position against velocity, grouped by starting velocity
//
// # Checking a gyration run
//
//	xs, _ := traj.Series(0, "x")
//	ys, _ := traj.Series(0, "y")
//	orbit, _ := analysis.OrbitStats(xs, ys)
//	want := analysis.GyroRadius(1, 1, 1)
//	// orbit.MeanRadius ≈ want
package analysis
