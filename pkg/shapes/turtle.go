package shapes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/geom"
)

// arcSegmentsPerTurn is the number of straight pieces in a full circle of
// a turtle arc.
const arcSegmentsPerTurn = 64

// turtle traces a centreline from straight segments and circular turns.
type turtle struct {
	pts []r2.Vec
	pos r2.Vec
	dir float64 // heading in radians
}

func newTurtle(start r2.Vec, heading float64) *turtle {
	return &turtle{pts: []r2.Vec{start}, pos: start, dir: heading}
}

// forward moves straight ahead by length.
func (t *turtle) forward(length float64) *turtle {
	if length == 0 {
		return t
	}
	sin, cos := math.Sincos(t.dir)
	t.pos = r2.Add(t.pos, r2.Vec{X: length * cos, Y: length * sin})
	t.pts = append(t.pts, t.pos)
	return t
}

// heading sets the direction without moving.
func (t *turtle) heading(dir float64) *turtle {
	t.dir = dir
	return t
}

// turn follows an arc of the given radius through angle radians, positive to
// the left.
func (t *turtle) turn(radius, angle float64) *turtle {
	side := 1.0
	if angle < 0 {
		side = -1
	}
	sin, cos := math.Sincos(t.dir)
	left := r2.Vec{X: -sin, Y: cos}
	center := r2.Add(t.pos, r2.Scale(side*radius, left))

	n := max(2, int(math.Ceil(math.Abs(angle)/(2*math.Pi)*arcSegmentsPerTurn)))
	start := t.pos
	for k := 1; k <= n; k++ {
		t.pos = geom.RotateAbout(angle*float64(k)/float64(n), center).Apply(start)
		t.pts = append(t.pts, t.pos)
	}
	t.dir = geom.NormalizeAngle(t.dir + angle)
	return t
}

func (t *turtle) left(radius float64) *turtle       { return t.turn(radius, math.Pi/2) }
func (t *turtle) right(radius float64) *turtle      { return t.turn(radius, -math.Pi/2) }
func (t *turtle) uturnLeft(radius float64) *turtle  { return t.turn(radius, math.Pi) }
func (t *turtle) uturnRight(radius float64) *turtle { return t.turn(radius, -math.Pi) }
