package geom

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// miterLimit bounds how far a joint may extend relative to half the width.
const miterLimit = 4.0

// Path is a centreline with a width at every vertex. Widths vary linearly
// along each segment and are unaffected by rigid transforms.
type Path struct {
	Points []r2.Vec
	Widths []float64
	Layer  Layer
}

// NewPath creates a path. If widths has a single element it is used for every
// vertex; otherwise it must have one width per point.
func NewPath(points []r2.Vec, widths []float64, layer Layer) *Path {
	w := make([]float64, len(points))
	for i := range w {
		switch {
		case len(widths) == len(points):
			w[i] = widths[i]
		case len(widths) > 0:
			w[i] = widths[0]
		}
	}
	pts, w := dedupe(points, w)
	return &Path{Points: pts, Widths: w, Layer: layer}
}

// Transform applies m to the centreline.
func (p *Path) Transform(m Affine) {
	for i, v := range p.Points {
		p.Points[i] = m.Apply(v)
	}
}

// Clone returns a deep copy of p.
func (p *Path) Clone() Shape {
	return &Path{Points: slices.Clone(p.Points), Widths: slices.Clone(p.Widths), Layer: p.Layer}
}

// Polygons outlines the path as a single polygon. Paths with fewer than two
// distinct points produce nothing.
func (p *Path) Polygons() []Polygon {
	n := len(p.Points)
	if n < 2 {
		return nil
	}
	normals := make([]r2.Vec, n-1)
	for i := range n - 1 {
		t := r2.Unit(r2.Sub(p.Points[i+1], p.Points[i]))
		normals[i] = r2.Vec{X: -t.Y, Y: t.X}
	}

	left := make([]r2.Vec, n)
	right := make([]r2.Vec, n)
	for i := range n {
		off := r2.Scale(p.Widths[i]/2, joint(normals, i))
		left[i] = r2.Add(p.Points[i], off)
		right[i] = r2.Sub(p.Points[i], off)
	}

	pts := make([]r2.Vec, 0, 2*n)
	pts = append(pts, left...)
	for i := n - 1; i >= 0; i-- {
		pts = append(pts, right[i])
	}
	return []Polygon{{Points: pts, Layer: p.Layer}}
}

// Ends returns the first and last centreline points.
func (p *Path) Ends() (first, last r2.Vec) {
	if len(p.Points) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	return p.Points[0], p.Points[len(p.Points)-1]
}

// joint returns the offset direction at vertex i, scaled so that a unit half
// width keeps the outline parallel to both adjacent segments.
func joint(normals []r2.Vec, i int) r2.Vec {
	switch {
	case i == 0:
		return normals[0]
	case i == len(normals):
		return normals[len(normals)-1]
	}
	prev, next := normals[i-1], normals[i]
	sum := r2.Add(prev, next)
	if r2.Norm(sum) < 1e-12 {
		return prev
	}
	m := r2.Unit(sum)
	cos := r2.Dot(m, next)
	if cos < 1/miterLimit {
		cos = 1 / miterLimit
	}
	return r2.Scale(1/cos, m)
}

// dedupe drops consecutive duplicate points, which have no direction.
func dedupe(points []r2.Vec, widths []float64) ([]r2.Vec, []float64) {
	pts := make([]r2.Vec, 0, len(points))
	w := make([]float64, 0, len(widths))
	for i, v := range points {
		if i > 0 && v == points[i-1] {
			continue
		}
		pts = append(pts, v)
		w = append(w, widths[i])
	}
	return pts, w
}
