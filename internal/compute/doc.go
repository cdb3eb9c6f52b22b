// Package compute provides the population-level call sites of the Boris push.
//
// Every backend runs the same [particle.Particle.Move]; they differ only in how
// the population is scheduled:
//
//   - Serial: one loop on the calling goroutine
//   - CPU: chunked fan-out over runtime.NumCPU workers
//
// # Selection
//
// The default backend is chosen at start-up:
//
//	backend := compute.GetBackend()
//	err := backend.Push(ctx, particles, samples, dt)
//
// Populations smaller than the CPU backend's chunk size are pushed serially,
// goroutine start-up costs more than the push itself below a few thousand
// particles.
package compute
