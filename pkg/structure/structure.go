package structure

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/geom"
)

// Epsilon is the distance below which two endpoint positions are considered
// coincident.
const Epsilon = 1e-9

var (
	// ErrUnknownEndpoint is returned when a label does not name an endpoint
	// of the structure. The operation that failed leaves all positions
	// unchanged.
	ErrUnknownEndpoint = errors.New(errors.ErrCodeUnknownEndpoint, "unknown endpoint")

	// ErrEndpointMismatch is returned by [New] when the endpoint and size
	// maps do not have the same labels.
	ErrEndpointMismatch = errors.New(errors.ErrCodeInvalidInput, "endpoints and sizes must share the same labels")

	// ErrNilShape is returned by [New] when no geometry is supplied.
	ErrNilShape = errors.New(errors.ErrCodeInvalidInput, "structure needs a shape")

	// ErrNilStructure is returned when a nil structure is passed where one
	// is required.
	ErrNilStructure = errors.New(errors.ErrCodeInvalidInput, "structure is nil")

	// ErrCyclicConnection is returned by [Structure.Connect] when the other
	// structure already drags this one along and its endpoint is elsewhere.
	// Moving it would move this structure too, so the endpoints can never meet.
	ErrCyclicConnection = errors.New(errors.ErrCodeCyclicConnection, "structures are already connected")

	// ErrEndpointConflict is returned by [Cluster] when a new endpoint label
	// is already used by the first member.
	ErrEndpointConflict = errors.New(errors.ErrCodeEndpointConflict, "endpoint label already exists")
)

// Link is one side of a connection: the endpoint Label on this structure is
// tied to PeerLabel on Peer.
type Link struct {
	Label     string
	Peer      *Structure
	PeerLabel string
}

// Structure is a shape with labelled endpoints.
//
// The zero value is not usable; create structures with [New].
type Structure struct {
	// ID uniquely identifies the structure. Copies get a fresh ID.
	ID uuid.UUID
	// Name is an optional human-readable name (the design id, "HEAL_A", ...).
	Name string

	shape      geom.Shape
	endpoints  map[string]r2.Vec
	sizes      map[string]float64
	directions map[string]float64
	links      []Link
	compound   []*Structure
	owner      *Structure // set for members joined by Cluster
}

// Option configures a structure at construction.
type Option func(*Structure)

// WithName sets the structure name.
func WithName(name string) Option {
	return func(s *Structure) { s.Name = name }
}

// WithDirections sets endpoint directions in radians. Labels that are not
// endpoints are ignored; endpoints without an entry have no direction.
func WithDirections(dirs map[string]float64) Option {
	return func(s *Structure) {
		for k, v := range dirs {
			if _, ok := s.endpoints[k]; ok {
				s.directions[k] = geom.NormalizeAngle(v)
			}
		}
	}
}

// New wraps shape with the given endpoints and endpoint sizes. The maps are
// copied. A size of zero means the endpoint has no meaningful width.
func New(shape geom.Shape, endpoints map[string]r2.Vec, sizes map[string]float64, opts ...Option) (*Structure, error) {
	if shape == nil {
		return nil, ErrNilShape
	}
	if len(endpoints) != len(sizes) {
		return nil, fmt.Errorf("%w: %d endpoints, %d sizes", ErrEndpointMismatch, len(endpoints), len(sizes))
	}
	for k := range endpoints {
		if _, ok := sizes[k]; !ok {
			return nil, fmt.Errorf("%w: no size for %q", ErrEndpointMismatch, k)
		}
	}
	s := &Structure{
		ID:         uuid.New(),
		shape:      shape,
		endpoints:  maps.Clone(endpoints),
		sizes:      maps.Clone(sizes),
		directions: make(map[string]float64),
	}
	if s.endpoints == nil {
		s.endpoints = make(map[string]r2.Vec)
		s.sizes = make(map[string]float64)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Shape returns the wrapped geometry. Mutating it directly bypasses endpoint
// bookkeeping.
func (s *Structure) Shape() geom.Shape { return s.shape }

// Polygons returns the polygons of this structure's own shape, excluding
// compound members.
func (s *Structure) Polygons() []geom.Polygon { return s.shape.Polygons() }

// Labels returns the endpoint labels in sorted order.
func (s *Structure) Labels() []string {
	return slices.Sorted(maps.Keys(s.endpoints))
}

// HasEndpoint reports whether label names an endpoint.
func (s *Structure) HasEndpoint(label string) bool {
	_, ok := s.endpoints[label]
	return ok
}

// Endpoint returns the current position of an endpoint.
func (s *Structure) Endpoint(label string) (r2.Vec, error) {
	p, ok := s.endpoints[label]
	if !ok {
		return r2.Vec{}, s.unknown(label)
	}
	return p, nil
}

// Size returns the size of an endpoint.
func (s *Structure) Size(label string) (float64, error) {
	v, ok := s.sizes[label]
	if !ok {
		return 0, s.unknown(label)
	}
	return v, nil
}

// Direction returns the direction of an endpoint in radians. ok is false when
// the endpoint has no direction.
func (s *Structure) Direction(label string) (dir float64, ok bool, err error) {
	if _, exists := s.endpoints[label]; !exists {
		return 0, false, s.unknown(label)
	}
	dir, ok = s.directions[label]
	return dir, ok, nil
}

// Endpoints returns a copy of the endpoint positions.
func (s *Structure) Endpoints() map[string]r2.Vec { return maps.Clone(s.endpoints) }

// Sizes returns a copy of the endpoint sizes.
func (s *Structure) Sizes() map[string]float64 { return maps.Clone(s.sizes) }

// Directions returns a copy of the endpoint directions.
func (s *Structure) Directions() map[string]float64 { return maps.Clone(s.directions) }

// Links returns a copy of this structure's links.
func (s *Structure) Links() []Link { return slices.Clone(s.links) }

// Compound returns the members that follow this structure.
func (s *Structure) Compound() []*Structure { return slices.Clone(s.compound) }

// String returns the name if set, otherwise the short ID.
func (s *Structure) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID.String()[:8]
}

func (s *Structure) unknown(label string) error {
	return fmt.Errorf("%w: %s has no endpoint %q", ErrUnknownEndpoint, s, label)
}

// SetEndpoints replaces the endpoint and size maps. The maps must share the
// same labels. Directions of labels that no longer exist are dropped; dirs
// may be nil to keep the remaining directions.
func (s *Structure) SetEndpoints(endpoints map[string]r2.Vec, sizes map[string]float64, dirs map[string]float64) error {
	if len(endpoints) != len(sizes) {
		return fmt.Errorf("%w: %d endpoints, %d sizes", ErrEndpointMismatch, len(endpoints), len(sizes))
	}
	for k := range endpoints {
		if _, ok := sizes[k]; !ok {
			return fmt.Errorf("%w: no size for %q", ErrEndpointMismatch, k)
		}
	}
	s.endpoints = maps.Clone(endpoints)
	s.sizes = maps.Clone(sizes)
	if s.endpoints == nil {
		s.endpoints = make(map[string]r2.Vec)
		s.sizes = make(map[string]float64)
	}
	if dirs != nil {
		s.directions = make(map[string]float64)
	}
	for k, v := range dirs {
		s.directions[k] = geom.NormalizeAngle(v)
	}
	maps.DeleteFunc(s.directions, func(k string, _ float64) bool {
		_, ok := s.endpoints[k]
		return !ok
	})
	return nil
}

func coincident(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) <= Epsilon && math.Abs(a.Y-b.Y) <= Epsilon
}
