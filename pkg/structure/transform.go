package structure

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/geom"
)

// Component returns every structure that moves together with s: s itself,
// everything reachable through links, and compound members. The order is
// breadth-first from s, with neighbours visited in link order.
func (s *Structure) Component() []*Structure {
	visited := map[*Structure]bool{s: true}
	queue := []*Structure{s}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		for _, next := range cur.neighbours() {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return queue
}

// neighbours lists structures that follow s under a transform. Compound
// members follow their owner. Only clustered members pull their owner along.
func (s *Structure) neighbours() []*Structure {
	out := make([]*Structure, 0, len(s.links)+len(s.compound)+1)
	for _, l := range s.links {
		out = append(out, l.Peer)
	}
	out = append(out, s.compound...)
	if s.owner != nil {
		out = append(out, s.owner)
	}
	return out
}

// drags reports whether transforming s also moves other. Links work both
// ways, compound membership does not: a member follows its owner, but only
// clustered members pull the owner along.
func (s *Structure) drags(other *Structure) bool {
	for _, c := range s.Component() {
		if c == other {
			return true
		}
	}
	return false
}

// Transform applies m to s and every structure in its component, each
// exactly once.
func (s *Structure) Transform(m geom.Affine) {
	for _, c := range s.Component() {
		c.apply(m)
	}
}

// Translate moves s and everything connected to it by d.
func (s *Structure) Translate(d r2.Vec) {
	s.Transform(geom.Translate(d))
}

// Rotate rotates s and everything connected to it counter-clockwise by angle
// radians about pivot.
func (s *Structure) Rotate(angle float64, pivot r2.Vec) {
	s.Transform(geom.RotateAbout(angle, pivot))
}

// RotateAbout rotates s and everything connected to it about one of its own
// endpoints.
func (s *Structure) RotateAbout(angle float64, label string) error {
	p, err := s.Endpoint(label)
	if err != nil {
		return err
	}
	s.Rotate(angle, p)
	return nil
}

// Mirror reflects s and everything connected to it across the line through
// p1 and p2. Endpoint directions are reflected as well.
func (s *Structure) Mirror(p1, p2 r2.Vec) {
	s.Transform(geom.Mirror(p1, p2))
}

// apply transforms only s: its shape, endpoints and directions.
func (s *Structure) apply(m geom.Affine) {
	s.shape.Transform(m)
	for k, p := range s.endpoints {
		s.endpoints[k] = m.Apply(p)
	}
	for k, d := range s.directions {
		s.directions[k] = m.ApplyAngle(d)
	}
}
