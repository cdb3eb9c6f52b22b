// Package particle provides the per-particle relativistic push used by the
// particle-in-cell driver.
//
// The package defines the particle record and the field sample it consumes:
//
//   - [Vector3]: three-component real value used for positions, momenta and fields
//   - [Field]: electric and magnetic field sampled at a particle for one timestep
//   - [Particle]: position, next position, momentum, mass, charge-to-mass ratio, species
//
// # Boris push
//
// [Particle.Move] advances one particle by one timestep with the Boris scheme:
// a half electric kick, an exact magnetic rotation, a second half kick and the
// position update. Momentum is stored per unit rest mass (γv, c = 1).
//
//	p := particle.New(0, 0, 0, 1, 0, 0, 1, -1)
//	p.Move(particle.Field{H: particle.Vector3{Z: 1}}, 0.01)
//	p.Commit()
//
// # Thread Safety
//
// Move touches only the receiver. Distinct particles may be pushed concurrently
// with no synchronization; see package compute for the population-level backends.
package particle
