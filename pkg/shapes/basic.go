package shapes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// sideDirections points the four side endpoints of a rectangle outward.
var sideDirections = map[string]float64{
	"A": math.Pi,
	"B": 3 * math.Pi / 2,
	"C": math.Pi / 2,
	"D": 0,
}

func sides(size r2.Vec) map[string]r2.Vec {
	return map[string]r2.Vec{
		"A":      {X: 0, Y: size.Y / 2},
		"B":      {X: size.X / 2, Y: 0},
		"C":      {X: size.X / 2, Y: size.Y},
		"D":      {X: size.X, Y: size.Y / 2},
		"CENTER": {X: size.X / 2, Y: size.Y / 2},
	}
}

// Box returns a solid rectangle with its lower left corner at the origin.
//
// Side endpoints have the length of their side as size. The corner endpoints
// W (lower left), X (lower right), Y (upper right) and Z (upper left) all
// take the width as size. CENTER has no size.
func Box(size r2.Vec, layer geom.Layer) (*structure.Structure, error) {
	if err := positive("box", nv("width", size.X), nv("height", size.Y)); err != nil {
		return nil, err
	}
	ends := sides(size)
	ends["W"] = r2.Vec{}
	ends["X"] = r2.Vec{X: size.X}
	ends["Y"] = size
	ends["Z"] = r2.Vec{Y: size.Y}
	sizes := map[string]float64{
		"A": size.Y, "D": size.Y,
		"B": size.X, "C": size.X,
		"CENTER": 0,
		"W":      size.X, "X": size.X, "Y": size.X, "Z": size.X,
	}
	return structure.New(geom.Rectangle(r2.Vec{}, size, layer), ends, sizes,
		structure.WithName("box"),
		structure.WithDirections(sideDirections))
}

// HollowBox returns a rectangular frame of the given border width.
//
// Without boolean operations the frame is drawn as a single keyhole polygon:
// the outer outline, a zero-width bridge along the bottom-left border, and the
// inner outline in reverse orientation.
func HollowBox(size r2.Vec, border float64, layer geom.Layer) (*structure.Structure, error) {
	if err := positive("hollow box", nv("width", size.X), nv("height", size.Y), nv("border", border)); err != nil {
		return nil, err
	}
	if 2*border >= math.Min(size.X, size.Y) {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "hollow box: border %v leaves no opening in %vx%v", border, size.X, size.Y)
	}
	w, h, b := size.X, size.Y, border
	pts := []r2.Vec{
		{X: 0, Y: b}, {X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}, {X: 0, Y: b},
		{X: b, Y: b}, {X: b, Y: h - b}, {X: w - b, Y: h - b}, {X: w - b, Y: b}, {X: b, Y: b},
	}
	sizes := map[string]float64{"A": h, "D": h, "B": w, "C": w, "CENTER": 0}
	return structure.New(geom.NewPolygon(pts, layer), sides(size), sizes,
		structure.WithName("hollow_box"),
		structure.WithDirections(sideDirections))
}

// Circle returns a disc of radius r centred on the origin, approximated by a
// regular polygon with resolution vertices (DefaultResolution if zero).
// CENTER has the radius as size; BOTTOM sits on the rim and has no size.
func Circle(r float64, resolution int, layer geom.Layer) (*structure.Structure, error) {
	if err := positive("circle", nv("radius", r)); err != nil {
		return nil, err
	}
	if resolution == 0 {
		resolution = DefaultResolution
	}
	if err := count("circle", "resolution", resolution, 3, geom.MaxVertices); err != nil {
		return nil, err
	}
	return structure.New(geom.Circle(r2.Vec{}, r, resolution, layer),
		map[string]r2.Vec{"CENTER": {}, "BOTTOM": {Y: -r}},
		map[string]float64{"CENTER": r, "BOTTOM": 0},
		structure.WithName("circle"))
}

// Triangle returns the triangle with vertices at the origin, at (side1, 0)
// and at side2 along the direction angle (radians). The vertices are the
// endpoints A, B and C, without size.
func Triangle(side1, side2, angle float64, layer geom.Layer) (*structure.Structure, error) {
	if err := positive("triangle", nv("side1", side1), nv("side2", side2)); err != nil {
		return nil, err
	}
	pts := []r2.Vec{{}, {X: side1}, geom.Rotate(angle).Apply(r2.Vec{X: side2})}
	ends := make(map[string]r2.Vec, len(pts))
	sizes := make(map[string]float64, len(pts))
	for i, p := range pts {
		ends[Label(i)] = p
		sizes[Label(i)] = 0
	}
	return structure.New(geom.NewPolygon(pts, layer), ends, sizes, structure.WithName("triangle"))
}
