package shapes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
)

// DefaultResolution is the number of vertices used for full circles.
const DefaultResolution = 100

// MaxLatticeVertices bounds the number of vertices a lattice expands to.
const MaxLatticeVertices = 1 << 22

// count checks that n lies in [lo, hi].
func count(shape, name string, n, lo, hi int) error {
	if n < lo || n > hi {
		return errors.New(errors.ErrCodeInvalidParameter, "%s: %s must be between %d and %d, got %d", shape, name, lo, hi, n)
	}
	return nil
}

// positive checks that every named value is a finite number above zero.
func positive(shape string, values ...namedValue) error {
	for _, v := range values {
		if !(v.v > 0) || math.IsInf(v.v, 0) {
			return errors.New(errors.ErrCodeInvalidParameter, "%s: %s must be positive, got %v", shape, v.name, v.v)
		}
	}
	return nil
}

type namedValue struct {
	name string
	v    float64
}

func nv(name string, v float64) namedValue { return namedValue{name, v} }

// compact drops consecutive duplicate vertices, including a last vertex that
// repeats the first.
func compact(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
