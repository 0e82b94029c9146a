package shapes

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// Lattice repeats the geometry of template, including its compound members,
// on a cols x rows grid with the given pitch. The template itself is left
// untouched.
//
// A sits on the left edge at half the lattice height and B on the top row,
// centred horizontally. Both have no size.
func Lattice(template *structure.Structure, cols, rows int, spacing r2.Vec) (*structure.Structure, error) {
	if template == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "lattice: template is required")
	}
	if cols < 1 || rows < 1 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "lattice: need at least one row and column, got %dx%d", cols, rows)
	}

	if cols > MaxLatticeVertices || rows > MaxLatticeVertices/cols {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "lattice: %dx%d exceeds %d vertices", cols, rows, MaxLatticeVertices)
	}

	var cell []geom.Shape
	vertices := 0
	for _, s := range structure.Collect(template) {
		for _, p := range s.Polygons() {
			cell = append(cell, geom.NewPolygon(p.Points, p.Layer))
			vertices += len(p.Points)
		}
	}
	if vertices > MaxLatticeVertices/(cols*rows) {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "lattice: %dx%d copies of %d vertices exceed %d", cols, rows, vertices, MaxLatticeVertices)
	}
	ends := map[string]r2.Vec{
		"A": {X: 0, Y: spacing.Y * float64(rows) / 2},
		"B": {X: spacing.X * float64(cols-1) / 2, Y: spacing.Y * (float64(rows) - 0.5)},
	}
	return structure.New(
		geom.NewArray(geom.NewGroup(cell...), cols, rows, spacing),
		ends,
		map[string]float64{"A": 0, "B": 0},
		structure.WithName("lattice"),
	)
}
