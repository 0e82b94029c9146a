package design

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/shapes"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// factory builds a structure of one kind from its parameters.
type factory func(p *params, layer geom.Layer) (*structure.Structure, error)

// factories maps structure kinds to shape constructors. Angles are in
// degrees.
var factories = map[string]factory{
	"box": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		w, err := p.float("width")
		if err != nil {
			return nil, err
		}
		h, err := p.float("height")
		if err != nil {
			return nil, err
		}
		return shapes.Box(r2.Vec{X: w, Y: h}, layer)
	},
	"hollow_box": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		w, err := p.float("width")
		if err != nil {
			return nil, err
		}
		h, err := p.float("height")
		if err != nil {
			return nil, err
		}
		b, err := p.float("border")
		if err != nil {
			return nil, err
		}
		return shapes.HollowBox(r2.Vec{X: w, Y: h}, b, layer)
	},
	"circle": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		r, err := p.float("radius")
		if err != nil {
			return nil, err
		}
		n, err := p.intOr("resolution", shapes.DefaultResolution)
		if err != nil {
			return nil, err
		}
		return shapes.Circle(r, n, layer)
	},
	"triangle": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		s1, err := p.float("side1")
		if err != nil {
			return nil, err
		}
		s2, err := p.float("side2")
		if err != nil {
			return nil, err
		}
		a, err := p.float("angle")
		if err != nil {
			return nil, err
		}
		return shapes.Triangle(s1, s2, rad(a), layer)
	},
	"line": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		dx, err := p.floatOr("dx", 0)
		if err != nil {
			return nil, err
		}
		dy, err := p.floatOr("dy", 0)
		if err != nil {
			return nil, err
		}
		w, err := p.float("width")
		if err != nil {
			return nil, err
		}
		we, err := p.floatOr("width_end", 0)
		if err != nil {
			return nil, err
		}
		return shapes.Line(r2.Vec{X: dx, Y: dy}, w, we, layer)
	},
	"meander": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		n, err := p.int("n")
		if err != nil {
			return nil, err
		}
		w, err := p.float("width")
		if err != nil {
			return nil, err
		}
		r, err := p.float("radius")
		if err != nil {
			return nil, err
		}
		ml, err := p.float("meander_length")
		if err != nil {
			return nil, err
		}
		cl, err := p.float("connect_length")
		if err != nil {
			return nil, err
		}
		return shapes.Meander(n, w, r, ml, cl, layer)
	},
	"splitter": func(p *params, layer geom.Layer) (*structure.Structure, error) {
		n, err := p.int("n")
		if err != nil {
			return nil, err
		}
		w, err := p.float("width")
		if err != nil {
			return nil, err
		}
		l, err := p.float("length")
		if err != nil {
			return nil, err
		}
		s, err := p.floatOr("space", 0)
		if err != nil {
			return nil, err
		}
		return shapes.Splitter(n, w, l, s, layer)
	},
}

// Kinds returns the structure kinds a design may declare.
func Kinds() []string {
	return slices.Sorted(maps.Keys(factories))
}

func rad(deg float64) float64 { return functions["rad"](deg) }
