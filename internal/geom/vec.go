// Package geom provides the small vector and angle math shared by the
// network reconciler and the pursuit AI. The city plays out on the X/Z
// ground plane; Y is vertical and carried through untouched.
package geom

import "math"

// Vec3 is a position or displacement in world units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// HorizontalDistance returns the ground-plane (X/Z) distance to o.
// Pursuit ranges and capture radii ignore height differences so an agent
// on a curb and a player on the street still register contact.
func (v Vec3) HorizontalDistance(o Vec3) float64 {
	return math.Hypot(o.X-v.X, o.Z-v.Z)
}

// Distance returns the full 3D distance to o.
func (v Vec3) Distance(o Vec3) float64 {
	dx := o.X - v.X
	dy := o.Y - v.Y
	dz := o.Z - v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Lerp returns the linear blend between a and b at fraction t.
// t is not clamped; callers decide whether extrapolation is allowed.
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// WrapAngle normalizes an angle in radians to (-π, π].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDelta returns the smallest signed rotation that carries angle from
// into angle to, taking the short path across the ±π seam.
func AngleDelta(from, to float64) float64 {
	return WrapAngle(to - from)
}

// LerpAngle blends between two yaw angles at fraction t along the shortest
// arc. Interpolating 3.0 → -3.0 passes through π, not through zero.
func LerpAngle(from, to, t float64) float64 {
	return WrapAngle(from + AngleDelta(from, to)*t)
}

// StepAngle turns from toward to by at most maxStep radians, along the
// shortest arc, without overshooting.
func StepAngle(from, to, maxStep float64) float64 {
	d := AngleDelta(from, to)
	if math.Abs(d) <= maxStep {
		return WrapAngle(to)
	}
	if d > 0 {
		return WrapAngle(from + maxStep)
	}
	return WrapAngle(from - maxStep)
}

// Heading returns the yaw (radians) of the ground-plane direction from a
// toward b. Returns current when the points coincide on the ground plane.
func Heading(a, b Vec3, current float64) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	if dx == 0 && dz == 0 {
		return current
	}
	return math.Atan2(dz, dx)
}
