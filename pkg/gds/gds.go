package gds

import (
	"cmp"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

const (
	// DefaultUnit is the size of a user unit in metres (1 um).
	DefaultUnit = 1e-6
	// DefaultPrecision is the size of a database unit in metres (1 nm).
	DefaultPrecision = 1e-9
	// MaxPoints is the largest number of vertices in one boundary.
	MaxPoints = geom.MaxVertices
)

var (
	// ErrTooManyPoints is returned when a boundary does not fit one XY record.
	ErrTooManyPoints = errors.New(errors.ErrCodeUnsupported, "boundary has too many points")
	// ErrInvalidBoundary is returned for boundaries with fewer than 3 points.
	ErrInvalidBoundary = errors.New(errors.ErrCodeInvalidInput, "boundary needs at least 3 points")
	// ErrCoordinateOverflow is returned when a coordinate does not fit a
	// 32-bit database unit.
	ErrCoordinateOverflow = errors.New(errors.ErrCodeInvalidInput, "coordinate out of range")
	// ErrDuplicateCell is returned when two cells share a name.
	ErrDuplicateCell = errors.New(errors.ErrCodeInvalidInput, "duplicate cell name")
	// ErrMalformed is returned by Read for streams that are not valid GDSII.
	ErrMalformed = errors.New(errors.ErrCodeInvalidFormat, "malformed GDSII stream")
)

// Library is a GDSII library.
type Library struct {
	Name      string
	Unit      float64   // user unit in metres
	Precision float64   // database unit in metres
	Modified  time.Time // zero writes zero dates for reproducible output
	Cells     []Cell
}

// Cell is a named structure in a library.
type Cell struct {
	Name       string
	Boundaries []Boundary
}

// Boundary is a closed polygon. Points are in user units and the closing
// point is implicit.
type Boundary struct {
	Layer    int16
	Datatype int16
	Points   []r2.Vec
}

// NewLibrary returns an empty library with the default units.
func NewLibrary(name string) *Library {
	return &Library{Name: name, Unit: DefaultUnit, Precision: DefaultPrecision}
}

// NewCell converts the polygons of roots, and of all their compound members,
// into a cell.
func NewCell(name string, roots ...*structure.Structure) Cell {
	c := Cell{Name: name}
	for _, s := range structure.Collect(roots...) {
		c.AddPolygons(s.Polygons()...)
	}
	return c
}

// AddPolygons appends polygons as boundaries.
func (c *Cell) AddPolygons(polys ...geom.Polygon) {
	for _, p := range polys {
		c.Boundaries = append(c.Boundaries, Boundary{
			Layer:    p.Layer.Layer,
			Datatype: p.Layer.Datatype,
			Points:   p.Points,
		})
	}
}

// FromStructures returns a library with a single cell holding roots.
func FromStructures(libName, cellName string, roots ...*structure.Structure) *Library {
	lib := NewLibrary(libName)
	lib.Cells = []Cell{NewCell(cellName, roots...)}
	return lib
}

// Cell returns the cell with the given name.
func (l *Library) Cell(name string) (*Cell, bool) {
	for i := range l.Cells {
		if l.Cells[i].Name == name {
			return &l.Cells[i], true
		}
	}
	return nil, false
}

// Stats summarizes a library.
type Stats struct {
	Cells      int
	Boundaries int
	Vertices   int
	Layers     []geom.Layer // sorted by layer, then datatype
}

// Stats counts cells, boundaries and vertices and lists the layers in use.
func (l *Library) Stats() Stats {
	st := Stats{Cells: len(l.Cells)}
	seen := make(map[geom.Layer]bool)
	for _, c := range l.Cells {
		st.Boundaries += len(c.Boundaries)
		for _, b := range c.Boundaries {
			st.Vertices += len(b.Points)
			key := geom.Layer{Layer: b.Layer, Datatype: b.Datatype}
			if !seen[key] {
				seen[key] = true
				st.Layers = append(st.Layers, key)
			}
		}
	}
	sortLayers(st.Layers)
	return st
}

// Bounds returns the bounding box of every boundary of the cell.
func (c *Cell) Bounds() (r2.Box, bool) {
	polys := make([]geom.Polygon, len(c.Boundaries))
	for i, b := range c.Boundaries {
		polys[i] = geom.Polygon{Points: b.Points}
	}
	return geom.Bounds(polys)
}

func sortLayers(ls []geom.Layer) {
	slices.SortFunc(ls, func(a, b geom.Layer) int {
		return cmp.Or(cmp.Compare(a.Layer, b.Layer), cmp.Compare(a.Datatype, b.Datatype))
	})
}

// toDB converts a user unit coordinate to database units.
func (l *Library) toDB(v float64) (int32, bool) {
	d := math.Round(v * l.Unit / l.Precision)
	if d > math.MaxInt32 || d < math.MinInt32 || math.IsNaN(d) {
		return 0, false
	}
	return int32(d), true
}

func (l *Library) fromDB(d int32) float64 {
	return float64(d) * l.Precision / l.Unit
}
