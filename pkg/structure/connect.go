package structure

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/geom"
)

type connectConfig struct {
	offset r2.Vec
	align  bool
}

// ConnectOption configures [Structure.Connect].
type ConnectOption func(*connectConfig)

// WithOffset shifts the landing point of the other endpoint by v.
func WithOffset(v r2.Vec) ConnectOption {
	return func(c *connectConfig) { c.offset = v }
}

// WithoutAlignment disables the rotation that makes directed endpoints face
// each other.
func WithoutAlignment() ConnectOption {
	return func(c *connectConfig) { c.align = false }
}

// Connect moves other, and everything connected to it, so that other's
// endpoint otherLabel lands on s's endpoint selfLabel. The link is then
// recorded on both structures.
//
// If both endpoints have a direction, other's component is first rotated
// about otherLabel so the two endpoints point at each other.
//
// Both labels are checked before anything moves: an unknown label returns
// [ErrUnknownEndpoint] with every position unchanged. If moving other would
// move s as well the endpoints cannot be brought together; Connect then only records
// the link when they already coincide and returns [ErrCyclicConnection]
// otherwise.
func (s *Structure) Connect(selfLabel string, other *Structure, otherLabel string, opts ...ConnectOption) error {
	if other == nil {
		return ErrNilStructure
	}
	cfg := connectConfig{align: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	target, err := s.Endpoint(selfLabel)
	if err != nil {
		return err
	}
	if _, err := other.Endpoint(otherLabel); err != nil {
		return err
	}
	target = r2.Add(target, cfg.offset)

	if other.drags(s) {
		p, _ := other.Endpoint(otherLabel)
		if !coincident(p, target) {
			return fmt.Errorf("%w: %s.%s and %s.%s", ErrCyclicConnection, s, selfLabel, other, otherLabel)
		}
		s.link(selfLabel, other, otherLabel)
		return nil
	}

	if cfg.align {
		selfDir, okSelf := s.directions[selfLabel]
		otherDir, okOther := other.directions[otherLabel]
		if okSelf && okOther {
			turn := geom.NormalizeAngle(selfDir + math.Pi - otherDir)
			if turn != 0 {
				pivot := other.endpoints[otherLabel]
				other.Rotate(turn, pivot)
			}
		}
	}

	other.Translate(r2.Sub(target, other.endpoints[otherLabel]))
	s.link(selfLabel, other, otherLabel)
	return nil
}

// link records the connection on both sides, skipping exact duplicates.
func (s *Structure) link(selfLabel string, other *Structure, otherLabel string) {
	s.addLink(Link{Label: selfLabel, Peer: other, PeerLabel: otherLabel})
	other.addLink(Link{Label: otherLabel, Peer: s, PeerLabel: selfLabel})
}

func (s *Structure) addLink(l Link) {
	for _, existing := range s.links {
		if existing == l {
			return
		}
	}
	s.links = append(s.links, l)
}

// Disconnect removes every link of s, on both sides. Compound membership is
// kept.
func (s *Structure) Disconnect() {
	links := s.links
	s.links = nil
	for _, l := range links {
		l.Peer.removeLink(l.reverse(s))
	}
}

// DisconnectEndpoint removes only the links made at label.
func (s *Structure) DisconnectEndpoint(label string) error {
	if _, err := s.Endpoint(label); err != nil {
		return err
	}
	var removed []Link
	s.links = slices.DeleteFunc(s.links, func(l Link) bool {
		if l.Label == label {
			removed = append(removed, l)
			return true
		}
		return false
	})
	for _, l := range removed {
		l.Peer.removeLink(l.reverse(s))
	}
	return nil
}

// reverse returns the link as seen from the peer, given its owner.
func (l Link) reverse(owner *Structure) Link {
	return Link{Label: l.PeerLabel, Peer: owner, PeerLabel: l.Label}
}

func (s *Structure) removeLink(target Link) {
	s.links = slices.DeleteFunc(s.links, func(l Link) bool { return l == target })
}
