package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Affine represents a 2D affine transformation as a 2x3 row-major matrix:
//
//	| a  b  c |
//	| d  e  f |
//
// which maps a point to
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// Translate creates a translation by d.
func Translate(d r2.Vec) Affine {
	return Affine{A: 1, C: d.X, E: 1, F: d.Y}
}

// Rotate creates a counter-clockwise rotation about the origin (radians).
func Rotate(angle float64) Affine {
	sin, cos := math.Sincos(angle)
	return Affine{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// RotateAbout creates a counter-clockwise rotation about pivot (radians).
func RotateAbout(angle float64, pivot r2.Vec) Affine {
	return Translate(pivot).
		Multiply(Rotate(angle)).
		Multiply(Translate(r2.Scale(-1, pivot)))
}

// Mirror creates a reflection across the line through p1 and p2.
// If p1 and p2 coincide the identity is returned.
func Mirror(p1, p2 r2.Vec) Affine {
	d := r2.Sub(p2, p1)
	n := r2.Norm(d)
	if n == 0 {
		return Identity()
	}
	u := r2.Scale(1/n, d)
	// Householder-style reflection across the direction u: R = 2uu^T - I.
	lin := Affine{
		A: 2*u.X*u.X - 1, B: 2 * u.X * u.Y,
		D: 2 * u.X * u.Y, E: 2*u.Y*u.Y - 1,
	}
	return Translate(p1).Multiply(lin).Multiply(Translate(r2.Scale(-1, p1)))
}

// Multiply returns m * other, the transform that applies other first and m second.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply transforms a point.
func (m Affine) Apply(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// ApplyVector transforms a direction vector (translation is ignored).
func (m Affine) ApplyVector(v r2.Vec) r2.Vec {
	return r2.Vec{
		X: m.A*v.X + m.B*v.Y,
		Y: m.D*v.X + m.E*v.Y,
	}
}

// ApplyAngle maps a direction given as an angle (radians) through the
// linear part of m and returns the resulting angle in [0, 2*pi).
func (m Affine) ApplyAngle(angle float64) float64 {
	sin, cos := math.Sincos(angle)
	v := m.ApplyVector(r2.Vec{X: cos, Y: sin})
	return NormalizeAngle(math.Atan2(v.Y, v.X))
}

// Det returns the determinant of the linear part. A negative determinant
// means the transform flips orientation (a reflection).
func (m Affine) Det() float64 {
	return m.A*m.E - m.B*m.D
}

// Linear returns m without its translation component.
func (m Affine) Linear() Affine {
	return Affine{A: m.A, B: m.B, D: m.D, E: m.E}
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// NormalizeAngle wraps an angle into [0, 2*pi).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// Mod can round back up to exactly 2*pi for tiny negative inputs.
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
