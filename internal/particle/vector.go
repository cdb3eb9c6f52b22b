package particle

import "math"

// Vector3 is a plain three-component vector.
type Vector3 struct {
	X, Y, Z float64
}

// Mult scales every component by t.
func (v Vector3) Mult(t float64) Vector3 {
	v.X *= t
	v.Y *= t
	v.Z *= t
	return v
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsFinite reports whether no component is NaN or Inf.
func (v Vector3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Field is the electromagnetic field sampled at a particle for one timestep.
// H is expected in the same normalised units the rotation uses.
type Field struct {
	E, H Vector3
}
