// Package geom is the polygon geometry layer wrapped by structures.
//
// # Overview
//
// Everything a layout is made of ends up as a [Polygon] on a [Layer]. The
// higher-level shapes in this package are generators of polygons that keep
// enough of their construction (centrelines, widths, templates) to stay
// exact under rigid transforms:
//
//   - [Polygon]: a closed outline on a single layer
//   - [Path]: a centreline with per-vertex widths, outlined with mitred joins
//   - [Group]: several shapes moved as one
//   - [Array]: a rectangular repetition (lattice) of a template shape
//
// [Circle] returns a regular polygon approximation of a disc.
//
// # Transforms
//
// All shapes implement [Shape]. Shapes are mutated in place through
// [Shape.Transform] with an [Affine] matrix:
//
//	m := geom.RotateAbout(math.Pi/2, r2.Vec{X: 10, Y: 0})
//	shape.Transform(m)
//
// Points are gonum [r2.Vec] values so callers can use the r2 vector helpers
// directly on endpoint positions.
//
// Boolean operations (union, difference, clipping) are intentionally absent;
// downstream mask tools perform them on the emitted GDSII data.
//
// [r2.Vec]: gonum.org/v1/gonum/spatial/r2.Vec
package geom
