package geom

import "math"

// Vec3 is a world-space point or direction. Y is up; the ground plane is XZ.
type Vec3 struct {
	X, Y, Z float64
}

// Up is the world vertical axis.
var Up = Vec3{Y: 1}

// V builds a vector.
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(k float64) Vec3 { return Vec3{a.X * k, a.Y * k, a.Z * k} }
func (a Vec3) Dot(b Vec3) float64   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Cross returns a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Len returns the Euclidean length.
func (a Vec3) Len() float64 { return math.Sqrt(a.Dot(a)) }

// Normalize returns the unit vector along a, or the zero vector when a is
// degenerate.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// Flat drops the vertical component.
func (a Vec3) Flat() Vec3 { return Vec3{X: a.X, Z: a.Z} }

// IsZero reports whether every component is (near) zero.
func (a Vec3) IsZero() bool { return a.Len() < 1e-9 }

// Dist returns |a-b|.
func Dist(a, b Vec3) float64 { return a.Sub(b).Len() }

// AngleDeg returns the unsigned angle between a and b in degrees. Degenerate
// inputs yield 0.
func AngleDeg(a, b Vec3) float64 {
	na, nb := a.Normalize(), b.Normalize()
	if na.IsZero() || nb.IsZero() {
		return 0
	}
	c := Clamp(na.Dot(nb), -1, 1)
	return math.Acos(c) * 180 / math.Pi
}

// RotateY rotates a about the vertical axis by deg degrees. Positive angles
// turn +X toward -Z, matching a left-handed Y-up world viewed from above.
func (a Vec3) RotateY(deg float64) Vec3 {
	r := deg * math.Pi / 180
	s, c := math.Sin(r), math.Cos(r)
	return Vec3{
		X: a.X*c + a.Z*s,
		Y: a.Y,
		Z: -a.X*s + a.Z*c,
	}
}

// HeadingY returns the yaw of a direction on the ground plane, in radians,
// measured from +X toward +Z.
func (a Vec3) HeadingY() float64 { return math.Atan2(a.Z, a.X) }

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
