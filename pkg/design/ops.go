package design

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/shapes"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// builder carries the state operations act on.
type builder struct {
	layout *Layout
	env    *env
}

type opHandler func(b *builder, op OpSpec) error

var opHandlers = map[string]opHandler{
	"connect":    opConnect,
	"translate":  opTranslate,
	"rotate":     opRotate,
	"mirror":     opMirror,
	"heal":       opHeal,
	"disconnect": opDisconnect,
	"copy":       opCopy,
	"cluster":    opCluster,
	"lattice":    opLattice,
	"flatten":    opFlatten,
}

// OpKinds returns the operation kinds a design may use.
func OpKinds() []string {
	return slices.Sorted(maps.Keys(opHandlers))
}

func (b *builder) structure(id string) (*structure.Structure, error) {
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidDesign, "missing structure id")
	}
	s, ok := b.layout.structures[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownStructure, "no structure %q", id)
	}
	return s, nil
}

// ref resolves an "id.label" reference.
func (b *builder) ref(r string) (*structure.Structure, string, error) {
	id, label, err := errors.SplitReference(r)
	if err != nil {
		return nil, "", err
	}
	s, err := b.structure(id)
	if err != nil {
		return nil, "", err
	}
	if !s.HasEndpoint(label) {
		return nil, "", errors.New(errors.ErrCodeUnknownEndpoint, "%s has no endpoint %q", id, label)
	}
	return s, label, nil
}

func (b *builder) members(ids []string) ([]*structure.Structure, error) {
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDesign, "members must not be empty")
	}
	out := make([]*structure.Structure, len(ids))
	for i, id := range ids {
		s, err := b.structure(id)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// point accepts [x, y] or an "id.label" reference to an endpoint position.
func (b *builder) point(v any) (r2.Vec, error) {
	switch x := v.(type) {
	case []any:
		return b.env.vec(x)
	case string:
		s, label, err := b.ref(x)
		if err != nil {
			return r2.Vec{}, err
		}
		return s.Endpoint(label)
	}
	return r2.Vec{}, errors.New(errors.ErrCodeInvalidParameter, "expected [x, y] or id.label, got %T", v)
}

// endpoints evaluates the endpoint and size tables of cluster and flatten.
// Sizes default to zero for endpoints that do not list one.
func (b *builder) endpoints(op OpSpec) (map[string]r2.Vec, map[string]float64, error) {
	ends := make(map[string]r2.Vec, len(op.Endpoints))
	sizes := make(map[string]float64, len(op.Endpoints))
	for _, k := range slices.Sorted(maps.Keys(op.Endpoints)) {
		if err := errors.ValidateLabel(k); err != nil {
			return nil, nil, err
		}
		p, err := b.point(op.Endpoints[k])
		if err != nil {
			return nil, nil, err
		}
		ends[k] = p
		sizes[k] = 0
	}
	for _, k := range slices.Sorted(maps.Keys(op.Sizes)) {
		if _, ok := ends[k]; !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidDesign, "size given for undeclared endpoint %q", k)
		}
		v, err := b.env.number(op.Sizes[k])
		if err != nil {
			return nil, nil, err
		}
		sizes[k] = v
	}
	return ends, sizes, nil
}

// newID checks that an op-created id is free.
func (b *builder) newID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidDesign, "missing id for the new structure")
	}
	if _, ok := b.layout.structures[id]; ok {
		return errors.New(errors.ErrCodeInvalidDesign, "id %q already in use", id)
	}
	return nil
}

func opConnect(b *builder, op OpSpec) error {
	anchor, al, err := b.ref(op.Anchor)
	if err != nil {
		return err
	}
	attach, bl, err := b.ref(op.Attach)
	if err != nil {
		return err
	}
	off, err := b.env.vec(op.Offset)
	if err != nil {
		return err
	}
	opts := []structure.ConnectOption{structure.WithOffset(off)}
	if op.Align != nil && !*op.Align {
		opts = append(opts, structure.WithoutAlignment())
	}
	return anchor.Connect(al, attach, bl, opts...)
}

func opTranslate(b *builder, op OpSpec) error {
	s, err := b.structure(op.Target)
	if err != nil {
		return err
	}
	d, err := b.env.vec(op.Delta)
	if err != nil {
		return err
	}
	s.Translate(d)
	return nil
}

func opRotate(b *builder, op OpSpec) error {
	s, err := b.structure(op.Target)
	if err != nil {
		return err
	}
	a, err := b.env.angle(op.Angle)
	if err != nil {
		return err
	}
	if op.About != "" {
		if op.Pivot != nil {
			return errors.New(errors.ErrCodeInvalidDesign, "use either about or pivot, not both")
		}
		return s.RotateAbout(a, op.About)
	}
	pivot, err := b.env.vec(op.Pivot)
	if err != nil {
		return err
	}
	s.Rotate(a, pivot)
	return nil
}

func opMirror(b *builder, op OpSpec) error {
	s, err := b.structure(op.Target)
	if err != nil {
		return err
	}
	if op.P1 == nil || op.P2 == nil {
		return errors.New(errors.ErrCodeInvalidDesign, "mirror needs p1 and p2")
	}
	p1, err := b.env.vec(op.P1)
	if err != nil {
		return err
	}
	p2, err := b.env.vec(op.P2)
	if err != nil {
		return err
	}
	if p1 == p2 {
		return errors.New(errors.ErrCodeInvalidParameter, "mirror axis points coincide")
	}
	s.Mirror(p1, p2)
	return nil
}

func opHeal(b *builder, op OpSpec) error {
	s, err := b.structure(op.Target)
	if err != nil {
		return err
	}
	id := op.ID
	if id == "" {
		id = op.Target + "_" + structure.HealPrefix + op.Label
	}
	if err := b.newID(id); err != nil {
		return err
	}
	var opts []structure.HealOption
	if op.Radius != nil {
		r, err := b.env.number(op.Radius)
		if err != nil {
			return err
		}
		opts = append(opts, structure.WithRadius(r))
	}
	if op.Resolution > 0 {
		opts = append(opts, structure.WithResolution(op.Resolution))
	}
	if op.Layer != 0 || op.Datatype != 0 {
		opts = append(opts, structure.WithLayer(geom.Layer{Layer: op.Layer, Datatype: op.Datatype}))
	}
	patch, err := s.Heal(op.Label, opts...)
	if err != nil {
		return err
	}
	b.layout.add(id, "heal", patch)
	b.layout.hidden[id] = true
	return nil
}

func opDisconnect(b *builder, op OpSpec) error {
	s, err := b.structure(op.Target)
	if err != nil {
		return err
	}
	if op.Label == "" {
		s.Disconnect()
		return nil
	}
	return s.DisconnectEndpoint(op.Label)
}

func opCopy(b *builder, op OpSpec) error {
	src, err := b.structure(op.Source)
	if err != nil {
		return err
	}
	if err := b.newID(op.ID); err != nil {
		return err
	}
	b.layout.add(op.ID, b.layout.kinds[op.Source], src.Copy())
	return nil
}

func opCluster(b *builder, op OpSpec) error {
	members, err := b.members(op.Members)
	if err != nil {
		return err
	}
	alias := op.ID != "" && op.ID != op.Members[0]
	if alias {
		if err := b.newID(op.ID); err != nil {
			return err
		}
	}
	ends, sizes, err := b.endpoints(op)
	if err != nil {
		return err
	}
	var opts []structure.ClusterOption
	if op.AllowConflicts {
		opts = append(opts, structure.AllowConflicts())
	}
	if _, err := structure.Cluster(members, ends, sizes, opts...); err != nil {
		return err
	}
	for _, id := range op.Members[1:] {
		if id != op.Members[0] {
			b.layout.hidden[id] = true
		}
	}
	if alias {
		// An alias for the head, which now stands for the whole cluster.
		b.layout.order = append(b.layout.order, op.ID)
		b.layout.structures[op.ID] = members[0]
		b.layout.kinds[op.ID] = "cluster"
		b.layout.hidden[op.ID] = true
	}
	return nil
}

func opLattice(b *builder, op OpSpec) error {
	tmpl, err := b.structure(op.Source)
	if err != nil {
		return err
	}
	if err := b.newID(op.ID); err != nil {
		return err
	}
	spacing, err := b.env.vec(op.Spacing)
	if err != nil {
		return err
	}
	s, err := shapes.Lattice(tmpl, op.Cols, op.Rows, spacing)
	if err != nil {
		return err
	}
	b.layout.add(op.ID, "lattice", s)
	b.layout.hidden[op.Source] = true
	return nil
}

func opFlatten(b *builder, op OpSpec) error {
	members, err := b.members(op.Members)
	if err != nil {
		return err
	}
	if err := b.newID(op.ID); err != nil {
		return err
	}
	ends, sizes, err := b.endpoints(op)
	if err != nil {
		return err
	}
	s, err := structure.Flatten(members, ends, sizes, geom.Layer{Layer: op.Layer, Datatype: op.Datatype})
	if err != nil {
		return err
	}
	b.layout.add(op.ID, "flatten", s)
	for _, id := range op.Members {
		b.layout.hidden[id] = true
	}
	return nil
}
