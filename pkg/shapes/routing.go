package shapes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// Outline sizes, counted on the centreline drawn by Meander: a quarter turn
// and a U-turn add arcSegmentsPerTurn/4 and /2 points. The outline has
// twice as many vertices as the centreline.
const (
	meanderFixedPoints  = 7 + 2*(arcSegmentsPerTurn/4) + 2*(arcSegmentsPerTurn/2)
	meanderPeriodPoints = 3 + 2*(arcSegmentsPerTurn/2)

	// MaxMeanderPeriods is the largest n whose outline fits one boundary.
	MaxMeanderPeriods = (geom.MaxVertices/2-meanderFixedPoints)/meanderPeriodPoints + 1

	// MaxSplitterOutputs is the largest n whose outline fits one boundary.
	// A splitter with n outputs has 4n+5 vertices.
	MaxSplitterOutputs = (geom.MaxVertices - 5) / 4
)

// Line returns a straight transmission line from the origin to d. The width
// tapers linearly from width at A to widthEnd at B; a zero widthEnd keeps
// the width constant. Endpoint sizes are the local widths.
func Line(d r2.Vec, width, widthEnd float64, layer geom.Layer) (*structure.Structure, error) {
	if widthEnd == 0 {
		widthEnd = width
	}
	if err := positive("line", nv("width", width), nv("width_end", widthEnd), nv("length", r2.Norm(d))); err != nil {
		return nil, err
	}
	heading := math.Atan2(d.Y, d.X)
	return structure.New(
		geom.NewPath([]r2.Vec{{}, d}, []float64{width, widthEnd}, layer),
		map[string]r2.Vec{"A": {}, "B": d},
		map[string]float64{"A": width, "B": widthEnd},
		structure.WithName("line"),
		structure.WithDirections(map[string]float64{"A": heading + math.Pi, "B": heading}),
	)
}

// Meander returns a meandering line of n periods. The line leaves A at the
// origin going up for connectLength, runs n back-and-forth sections of
// meanderLength joined by half circles of the given radius, and ends going
// up again at B.
func Meander(n int, width, radius, meanderLength, connectLength float64, layer geom.Layer) (*structure.Structure, error) {
	if err := count("meander", "n", n, 1, MaxMeanderPeriods); err != nil {
		return nil, err
	}
	if err := positive("meander",
		nv("width", width), nv("radius", radius),
		nv("meander_length", meanderLength), nv("connect_length", connectLength)); err != nil {
		return nil, err
	}
	half := meanderLength / 2
	if half <= width/2 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "meander: meander_length %v must exceed the width %v", meanderLength, width)
	}

	t := newTurtle(r2.Vec{}, math.Pi/2)
	t.forward(connectLength).
		right(width / 2).
		forward(half - width/2).
		uturnLeft(radius).
		forward(half)
	for range n - 1 {
		t.forward(half).
			uturnRight(radius).
			forward(2 * half).
			uturnLeft(radius).
			forward(half)
	}
	t.forward(half).
		uturnRight(radius).
		forward(half - width/2).
		left(width / 2).
		heading(math.Pi / 2).
		forward(connectLength)

	return structure.New(
		geom.NewPath(t.pts, []float64{width}, layer),
		map[string]r2.Vec{"A": {}, "B": t.pos},
		map[string]float64{"A": width, "B": width},
		structure.WithName("meander"),
		structure.WithDirections(map[string]float64{"A": 3 * math.Pi / 2, "B": math.Pi / 2}),
	)
}

// Splitter returns a polygon that splits one line of the given width into n
// parallel outputs spaced space apart. The input A sits on the left edge at
// the origin height; outputs B, C, ... sit on the right edge at x = length,
// top to bottom.
func Splitter(n int, width, length, space float64, layer geom.Layer) (*structure.Structure, error) {
	if err := count("splitter", "n", n, 1, MaxSplitterOutputs); err != nil {
		return nil, err
	}
	if err := positive("splitter", nv("width", width), nv("length", length)); err != nil {
		return nil, err
	}
	if space < 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "splitter: space must not be negative, got %v", space)
	}

	w := width
	span := (float64(n)*w + float64(n-1)*space) / 2
	xl := length/2 - w/2
	xr := length/2 + w/2

	pts := []r2.Vec{{X: 0, Y: 0}, {X: xl, Y: 0}, {X: xl, Y: span - w/2}}
	ends := map[string]r2.Vec{"A": {X: 0, Y: -w / 2}}
	sizes := map[string]float64{"A": w}
	dirs := map[string]float64{"A": math.Pi}

	for i := range n {
		top := span - float64(i)*(space+w) - w/2
		pts = append(pts,
			r2.Vec{X: length, Y: top},
			r2.Vec{X: length, Y: top - w},
			r2.Vec{X: xr, Y: top - w},
			r2.Vec{X: xr, Y: top - w - space},
		)
		l := Label(i + 1)
		ends[l] = r2.Vec{X: length, Y: top - w/2}
		sizes[l] = w
		dirs[l] = 0
	}
	pts = pts[:len(pts)-1]
	pts = append(pts,
		r2.Vec{X: xl, Y: span - float64(n-1)*(space+w) - w - w/2},
		r2.Vec{X: xl, Y: -w},
		r2.Vec{X: 0, Y: -w},
	)

	return structure.New(geom.NewPolygon(compact(pts), layer), ends, sizes,
		structure.WithName("splitter"),
		structure.WithDirections(dirs))
}
