// Package fields provides analytic electromagnetic field sources.
//
// A [Source] stands in for the mesh field solver: it returns the field sample
// a particle sees at its position and time. Sources are read-only after
// construction and safe for concurrent use.
//
//   - [Uniform]: constant E and H
//   - [Mirror]: magnetic bottle along z
//   - [PlaneWave]: linearly polarised vacuum wave travelling along x
package fields
