package design

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/gds"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// DefaultCell is the name of the cell written when a design declares none.
const DefaultCell = "TOP"

// Layout is a built design: every declared and op-created structure, in
// creation order, addressed by id.
type Layout struct {
	Name      string
	Unit      float64
	Precision float64
	Vars      map[string]float64

	order      []string
	structures map[string]*structure.Structure
	kinds      map[string]string
	hidden     map[string]bool // absorbed into another structure, not a root
	cells      []CellSpec
}

// Build evaluates the variables, creates the declared structures and runs
// the operations in order. The first failing operation aborts the build with
// an [errors.OperationError] naming it.
func Build(ctx context.Context, f *File) (*Layout, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	e := newEnv(f.Vars)
	vars, err := e.resolveAll()
	if err != nil {
		return nil, err
	}
	l := &Layout{
		Name:       f.Name,
		Unit:       f.Unit,
		Precision:  f.Precision,
		Vars:       vars,
		structures: make(map[string]*structure.Structure),
		kinds:      make(map[string]string),
		hidden:     make(map[string]bool),
		cells:      slices.Clone(f.Cells),
	}

	for _, spec := range f.Structures {
		p := newParams(spec.Kind, spec.Params, e)
		s, err := factories[spec.Kind](p, geom.Layer{Layer: spec.Layer, Datatype: spec.Datatype})
		if err != nil {
			return nil, fmt.Errorf("structure %s: %w", spec.ID, err)
		}
		if err := p.unused(); err != nil {
			return nil, fmt.Errorf("structure %s: %w", spec.ID, err)
		}
		l.add(spec.ID, spec.Kind, s)
	}

	b := &builder{layout: l, env: e}
	for i, op := range f.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := opHandlers[op.Kind](b, op); err != nil {
			return nil, &errors.OperationError{Index: i, Kind: op.Kind, Err: err}
		}
	}
	return l, nil
}

func (l *Layout) add(id, kind string, s *structure.Structure) {
	s.Name = id
	l.order = append(l.order, id)
	l.structures[id] = s
	l.kinds[id] = kind
}

// Structure returns the structure with the given id.
func (l *Layout) Structure(id string) (*structure.Structure, bool) {
	s, ok := l.structures[id]
	return s, ok
}

// Kind returns the kind a structure was created with: a shape kind or the
// operation that produced it.
func (l *Layout) Kind(id string) string { return l.kinds[id] }

// IDs returns every structure id in creation order.
func (l *Layout) IDs() []string { return slices.Clone(l.order) }

// Roots returns the ids of structures that are not part of another one:
// compound members, lattice templates and flattened members are left out.
func (l *Layout) Roots() []string {
	var out []string
	for _, id := range l.order {
		if !l.hidden[id] {
			out = append(out, id)
		}
	}
	return out
}

// Library converts the layout to GDSII. Without declared cells a single
// [DefaultCell] holds every root.
func (l *Layout) Library() (*gds.Library, error) {
	lib := gds.NewLibrary(l.Name)
	if l.Unit > 0 {
		lib.Unit = l.Unit
	}
	if l.Precision > 0 {
		lib.Precision = l.Precision
	}
	if len(l.cells) == 0 {
		lib.Cells = []gds.Cell{gds.NewCell(DefaultCell, l.lookupAll(l.Roots())...)}
		return lib, nil
	}
	for _, c := range l.cells {
		roots := make([]*structure.Structure, 0, len(c.Structures))
		for _, id := range c.Structures {
			s, ok := l.structures[id]
			if !ok {
				return nil, errors.New(errors.ErrCodeUnknownStructure, "cell %s: no structure %q", c.Name, id)
			}
			roots = append(roots, s)
		}
		lib.Cells = append(lib.Cells, gds.NewCell(c.Name, roots...))
	}
	return lib, nil
}

func (l *Layout) lookupAll(ids []string) []*structure.Structure {
	out := make([]*structure.Structure, len(ids))
	for i, id := range ids {
		out[i] = l.structures[id]
	}
	return out
}

// idOf maps a structure back to its id, if it has one.
func (l *Layout) idOf(s *structure.Structure) (string, bool) {
	for _, id := range l.order {
		if l.structures[id] == s {
			return id, true
		}
	}
	return "", false
}
