package design

import (
	"encoding/json"
	"io"
	"math"

	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/structure"
)

// Summary is a JSON-friendly description of a built layout.
type Summary struct {
	Name       string             `json:"name"`
	Vars       map[string]float64 `json:"vars,omitempty"`
	Structures []StructureSummary `json:"structures"`
}

// StructureSummary describes one structure. Directions are in degrees.
type StructureSummary struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Root      bool                `json:"root"`
	Layer     int16               `json:"layer"`
	Datatype  int16               `json:"datatype"`
	Polygons  int                 `json:"polygons"`
	Endpoints map[string]Endpoint `json:"endpoints"`
	Links     []LinkSummary       `json:"links,omitempty"`
	Compound  []string            `json:"compound,omitempty"`
	Bounds    *[4]float64         `json:"bounds,omitempty"` // min x, min y, max x, max y
}

// Endpoint is an endpoint position with its size and optional direction.
type Endpoint struct {
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Size      float64  `json:"size"`
	Direction *float64 `json:"direction,omitempty"`
}

// LinkSummary is one recorded connection, seen from the owning structure.
type LinkSummary struct {
	Label     string `json:"label"`
	Peer      string `json:"peer"`
	PeerLabel string `json:"peer_label"`
}

// Summary describes every structure of the layout in creation order.
func (l *Layout) Summary() Summary {
	roots := make(map[string]bool)
	for _, id := range l.Roots() {
		roots[id] = true
	}
	sum := Summary{Name: l.Name, Vars: l.Vars}
	for _, id := range l.order {
		s := l.structures[id]
		if owner, _ := l.idOf(s); owner != id {
			continue // alias
		}
		ss := StructureSummary{
			ID:        id,
			Kind:      l.kinds[id],
			Root:      roots[id],
			Endpoints: make(map[string]Endpoint),
		}
		layer := s.Layer()
		ss.Layer, ss.Datatype = layer.Layer, layer.Datatype
		ss.Polygons = len(s.Polygons())
		ends, sizes, dirs := s.Endpoints(), s.Sizes(), s.Directions()
		for k, p := range ends {
			e := Endpoint{X: p.X, Y: p.Y, Size: sizes[k]}
			if d, ok := dirs[k]; ok {
				deg := d * 180 / math.Pi
				e.Direction = &deg
			}
			ss.Endpoints[k] = e
		}
		for _, ln := range s.Links() {
			ss.Links = append(ss.Links, LinkSummary{Label: ln.Label, Peer: l.name(ln.Peer), PeerLabel: ln.PeerLabel})
		}
		for _, m := range s.Compound() {
			ss.Compound = append(ss.Compound, l.name(m))
		}
		if box, ok := geom.Bounds(collectPolygons(s)); ok {
			ss.Bounds = &[4]float64{box.Min.X, box.Min.Y, box.Max.X, box.Max.Y}
		}
		sum.Structures = append(sum.Structures, ss)
	}
	return sum
}

// WriteJSON writes the summary as indented JSON.
func (l *Layout) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l.Summary())
}

// name returns the id of s, or its own name for unregistered structures
// such as the compound members of a copy.
func (l *Layout) name(s *structure.Structure) string {
	if id, ok := l.idOf(s); ok {
		return id
	}
	return s.String()
}

// collectPolygons returns the polygons of s and its compound members.
func collectPolygons(s *structure.Structure) []geom.Polygon {
	var polys []geom.Polygon
	for _, m := range structure.Collect(s) {
		polys = append(polys, m.Polygons()...)
	}
	return polys
}
