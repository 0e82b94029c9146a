package structure

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
)

// HealPrefix is prepended to the endpoint label to name healing patches.
const HealPrefix = "HEAL_"

// DefaultHealResolution is the number of vertices of a healing patch.
const DefaultHealResolution = 100

type healConfig struct {
	radius     float64
	resolution int
	layer      *geom.Layer
}

// HealOption configures [Structure.Heal].
type HealOption func(*healConfig)

// WithRadius overrides the patch radius (default: half the endpoint size).
func WithRadius(r float64) HealOption {
	return func(c *healConfig) { c.radius = r }
}

// WithResolution sets the number of vertices of the patch.
func WithResolution(n int) HealOption {
	return func(c *healConfig) { c.resolution = n }
}

// WithLayer puts the patch on layer instead of the structure's own layer.
func WithLayer(l geom.Layer) HealOption {
	return func(c *healConfig) { c.layer = &l }
}

// Heal adds a circular patch centred on an endpoint to cover the gap left
// where two differently shaped ends meet. The patch becomes a compound member
// of s, so it follows every later transform of s. It has a single endpoint
// "A" at its centre with size equal to its diameter.
func (s *Structure) Heal(label string, opts ...HealOption) (*Structure, error) {
	center, err := s.Endpoint(label)
	if err != nil {
		return nil, err
	}
	cfg := healConfig{radius: s.sizes[label] / 2, resolution: DefaultHealResolution}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.resolution < 3 || cfg.resolution > geom.MaxVertices {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "heal %s.%s: resolution must be between 3 and %d, got %d", s, label, geom.MaxVertices, cfg.resolution)
	}
	if cfg.radius <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "heal %s.%s: radius must be positive (endpoint has no size)", s, label)
	}
	layer := s.Layer()
	if cfg.layer != nil {
		layer = *cfg.layer
	}

	patch, err := New(
		geom.Circle(center, cfg.radius, cfg.resolution, layer),
		map[string]r2.Vec{"A": center},
		map[string]float64{"A": 2 * cfg.radius},
		WithName(HealPrefix+label),
	)
	if err != nil {
		return nil, err
	}
	s.compound = append(s.compound, patch)
	return patch, nil
}

// Layer returns the layer of the first polygon of the shape, or the zero
// layer for empty shapes.
func (s *Structure) Layer() geom.Layer {
	if polys := s.shape.Polygons(); len(polys) > 0 {
		return polys[0].Layer
	}
	return geom.Layer{}
}

// Copy returns a deep copy of s with a new ID. Shape, endpoints, sizes,
// directions and compound members are copied; links are not.
func (s *Structure) Copy() *Structure {
	c := &Structure{
		ID:         uuid.New(),
		Name:       s.Name,
		shape:      s.shape.Clone(),
		endpoints:  maps.Clone(s.endpoints),
		sizes:      maps.Clone(s.sizes),
		directions: maps.Clone(s.directions),
	}
	for _, m := range s.compound {
		mc := m.Copy()
		if m.owner == s {
			mc.owner = c
		}
		c.compound = append(c.compound, mc)
	}
	return c
}

type clusterConfig struct {
	allowConflicts bool
	directions     map[string]float64
}

// ClusterOption configures [Cluster].
type ClusterOption func(*clusterConfig)

// AllowConflicts lets the new endpoints reuse labels of the first member.
func AllowConflicts() ClusterOption {
	return func(c *clusterConfig) { c.allowConflicts = true }
}

// WithClusterDirections sets directions for the new endpoints.
func WithClusterDirections(dirs map[string]float64) ClusterOption {
	return func(c *clusterConfig) { c.directions = dirs }
}

// Cluster combines members into one compound structure. The first member
// becomes the compound: its endpoints are replaced by the given ones and the
// remaining members join its compound. All members then move together
// whichever of them is transformed, and keep their own geometry and layers.
//
// A new label that already exists on the first member is rejected with
// [ErrEndpointConflict] unless [AllowConflicts] is given, since the old
// endpoint would silently disappear.
func Cluster(members []*Structure, endpoints map[string]r2.Vec, sizes map[string]float64, opts ...ClusterOption) (*Structure, error) {
	if len(members) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cluster needs at least one member")
	}
	cfg := clusterConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	head := members[0]
	if head == nil {
		return nil, ErrNilStructure
	}
	if !cfg.allowConflicts {
		for _, k := range slices.Sorted(maps.Keys(endpoints)) {
			if head.HasEndpoint(k) {
				return nil, fmt.Errorf("%w: %s already has %q", ErrEndpointConflict, head, k)
			}
		}
	}
	dirs := cfg.directions
	if dirs == nil {
		dirs = map[string]float64{}
	}
	if err := head.SetEndpoints(endpoints, sizes, dirs); err != nil {
		return nil, err
	}
	for _, m := range members[1:] {
		if m == nil || m == head || slices.Contains(head.compound, m) {
			continue
		}
		m.owner = head
		head.compound = append(head.compound, m)
	}
	return head, nil
}

// Flatten collects every polygon of members and their compounds onto a
// single layer and wraps them in a new structure with the given endpoints.
// Overlapping polygons are kept as they are; no union is computed.
func Flatten(members []*Structure, endpoints map[string]r2.Vec, sizes map[string]float64, layer geom.Layer) (*Structure, error) {
	var shapes []geom.Shape
	for _, m := range Collect(members...) {
		for _, p := range m.Polygons() {
			shapes = append(shapes, geom.NewPolygon(p.Points, layer))
		}
	}
	return New(geom.NewGroup(shapes...), endpoints, sizes)
}

// Collect returns roots and, depth first, all of their compound members.
// Each structure appears once, in first-seen order.
func Collect(roots ...*Structure) []*Structure {
	seen := make(map[*Structure]bool)
	var out []*Structure
	var walk func(*Structure)
	walk = func(s *Structure) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
		for _, m := range s.compound {
			walk(m)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
