package geom

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxVertices is the largest number of vertices a single outline may have.
// It matches what one GDSII boundary record can hold.
const MaxVertices = 8190

// Layer identifies the GDSII layer and datatype a polygon is drawn on.
type Layer struct {
	Layer    int16 `json:"layer" toml:"layer" yaml:"layer"`
	Datatype int16 `json:"datatype" toml:"datatype" yaml:"datatype"`
}

// Shape is geometry that can be moved rigidly and reduced to polygons.
//
// Transform mutates the receiver. Polygons returns freshly allocated
// polygons that callers may keep or modify. Clone returns a deep copy.
type Shape interface {
	Transform(m Affine)
	Polygons() []Polygon
	Clone() Shape
}

// Polygon is a closed outline. The closing edge is implicit: the last point
// is not repeated.
type Polygon struct {
	Points []r2.Vec
	Layer  Layer
}

// NewPolygon creates a polygon on the given layer. The points are copied.
func NewPolygon(points []r2.Vec, layer Layer) *Polygon {
	return &Polygon{Points: slices.Clone(points), Layer: layer}
}

// Transform applies m to every vertex.
func (p *Polygon) Transform(m Affine) {
	for i, v := range p.Points {
		p.Points[i] = m.Apply(v)
	}
}

// Polygons returns a copy of p.
func (p *Polygon) Polygons() []Polygon {
	return []Polygon{{Points: slices.Clone(p.Points), Layer: p.Layer}}
}

// Clone returns a deep copy of p.
func (p *Polygon) Clone() Shape {
	return NewPolygon(p.Points, p.Layer)
}

// Area returns the signed area (positive for counter-clockwise outlines).
func (p Polygon) Area() float64 {
	var sum float64
	n := len(p.Points)
	for i := range n {
		a, b := p.Points[i], p.Points[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Circle returns a regular polygon with the given number of vertices
// approximating a disc. Fewer than 3 points is raised to 3.
func Circle(center r2.Vec, radius float64, points int, layer Layer) *Polygon {
	if points < 3 {
		points = 3
	}
	pts := make([]r2.Vec, points)
	for i := range points {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(points))
		pts[i] = r2.Vec{X: center.X + radius*cos, Y: center.Y + radius*sin}
	}
	return &Polygon{Points: pts, Layer: layer}
}

// Rectangle returns the axis-aligned rectangle spanned by two corners.
func Rectangle(p1, p2 r2.Vec, layer Layer) *Polygon {
	return &Polygon{
		Points: []r2.Vec{
			{X: p1.X, Y: p1.Y},
			{X: p2.X, Y: p1.Y},
			{X: p2.X, Y: p2.Y},
			{X: p1.X, Y: p2.Y},
		},
		Layer: layer,
	}
}

// Group is a set of shapes moved together.
type Group struct {
	Shapes []Shape
}

// NewGroup creates a group from shapes. The slice is copied, the shapes are not.
func NewGroup(shapes ...Shape) *Group {
	return &Group{Shapes: slices.Clone(shapes)}
}

// Transform applies m to every member.
func (g *Group) Transform(m Affine) {
	for _, s := range g.Shapes {
		s.Transform(m)
	}
}

// Polygons concatenates the polygons of every member.
func (g *Group) Polygons() []Polygon {
	var out []Polygon
	for _, s := range g.Shapes {
		out = append(out, s.Polygons()...)
	}
	return out
}

// Clone returns a deep copy of g.
func (g *Group) Clone() Shape {
	c := &Group{Shapes: make([]Shape, len(g.Shapes))}
	for i, s := range g.Shapes {
		c.Shapes[i] = s.Clone()
	}
	return c
}

// Array repeats a template shape on a rectangular grid. The template stays in
// its local frame; transforms accumulate in Frame.
type Array struct {
	Template Shape
	Cols     int
	Rows     int
	Spacing  r2.Vec
	Frame    Affine
}

// NewArray creates a cols x rows lattice of template with the given pitch.
// The template is cloned.
func NewArray(template Shape, cols, rows int, spacing r2.Vec) *Array {
	return &Array{
		Template: template.Clone(),
		Cols:     cols,
		Rows:     rows,
		Spacing:  spacing,
		Frame:    Identity(),
	}
}

// Transform composes m onto the lattice frame.
func (a *Array) Transform(m Affine) {
	a.Frame = m.Multiply(a.Frame)
}

// Polygons expands the lattice.
func (a *Array) Polygons() []Polygon {
	base := a.Template.Polygons()
	out := make([]Polygon, 0, len(base)*a.Cols*a.Rows)
	for j := range a.Rows {
		for i := range a.Cols {
			m := a.Frame.Multiply(Translate(r2.Vec{
				X: float64(i) * a.Spacing.X,
				Y: float64(j) * a.Spacing.Y,
			}))
			for _, p := range base {
				q := Polygon{Points: make([]r2.Vec, len(p.Points)), Layer: p.Layer}
				for k, v := range p.Points {
					q.Points[k] = m.Apply(v)
				}
				out = append(out, q)
			}
		}
	}
	return out
}

// Clone returns a deep copy of a.
func (a *Array) Clone() Shape {
	return &Array{
		Template: a.Template.Clone(),
		Cols:     a.Cols,
		Rows:     a.Rows,
		Spacing:  a.Spacing,
		Frame:    a.Frame,
	}
}

// Bounds returns the bounding box of polygons. ok is false when there are
// no vertices.
func Bounds(polygons []Polygon) (box r2.Box, ok bool) {
	for _, p := range polygons {
		for _, v := range p.Points {
			if !ok {
				box = r2.Box{Min: v, Max: v}
				ok = true
				continue
			}
			box.Min.X = math.Min(box.Min.X, v.X)
			box.Min.Y = math.Min(box.Min.Y, v.Y)
			box.Max.X = math.Max(box.Max.X, v.X)
			box.Max.Y = math.Max(box.Max.Y, v.Y)
		}
	}
	return box, ok
}

var (
	_ Shape = (*Polygon)(nil)
	_ Shape = (*Group)(nil)
	_ Shape = (*Array)(nil)
	_ Shape = (*Path)(nil)
)
