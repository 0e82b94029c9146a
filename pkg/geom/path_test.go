package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestPathStraight(t *testing.T) {
	p := NewPath([]r2.Vec{{X: 0}, {X: 10}}, []float64{2}, testLayer)
	polys := p.Polygons()
	if len(polys) != 1 {
		t.Fatalf("len(Polygons()) = %d, want 1", len(polys))
	}
	want := []r2.Vec{{X: 0, Y: 1}, {X: 10, Y: 1}, {X: 10, Y: -1}, {X: 0, Y: -1}}
	got := polys[0].Points
	if len(got) != len(want) {
		t.Fatalf("len(Points) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("Points[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if a := math.Abs(polys[0].Area()); math.Abs(a-20) > eps {
		t.Errorf("|Area()| = %v, want 20", a)
	}
}

func TestPathTaper(t *testing.T) {
	p := NewPath([]r2.Vec{{X: 0}, {X: 10}}, []float64{2, 4}, testLayer)
	if a := math.Abs(p.Polygons()[0].Area()); math.Abs(a-30) > eps {
		t.Errorf("|Area()| = %v, want 30", a)
	}
}

func TestPathCorner(t *testing.T) {
	// Right angle: the outer mitre corner sits at (11, -1).
	p := NewPath([]r2.Vec{{X: 0}, {X: 10}, {X: 10, Y: 10}}, []float64{2}, testLayer)
	pts := p.Polygons()[0].Points
	if len(pts) != 6 {
		t.Fatalf("len(Points) = %d, want 6", len(pts))
	}
	if !near(pts[1], r2.Vec{X: 9, Y: 1}) {
		t.Errorf("inner corner = %v, want (9,1)", pts[1])
	}
	if !near(pts[4], r2.Vec{X: 11, Y: -1}) {
		t.Errorf("outer corner = %v, want (11,-1)", pts[4])
	}
}

func TestPathDedupe(t *testing.T) {
	p := NewPath([]r2.Vec{{X: 0}, {X: 0}, {X: 5}}, []float64{1, 2, 3}, testLayer)
	if len(p.Points) != 2 {
		t.Fatalf("len(Points) = %d, want 2", len(p.Points))
	}
	if p.Widths[1] != 3 {
		t.Errorf("Widths[1] = %v, want 3", p.Widths[1])
	}
	if polys := NewPath([]r2.Vec{{X: 1}}, []float64{1}, testLayer).Polygons(); polys != nil {
		t.Errorf("single point Polygons() = %v, want nil", polys)
	}
}

func TestPathTransform(t *testing.T) {
	p := NewPath([]r2.Vec{{X: 0}, {X: 10}}, []float64{2}, testLayer)
	c := p.Clone().(*Path)
	p.Transform(RotateAbout(math.Pi/2, r2.Vec{}))
	first, last := p.Ends()
	if !near(first, r2.Vec{}) || !near(last, r2.Vec{Y: 10}) {
		t.Errorf("Ends() = %v, %v", first, last)
	}
	if _, last := c.Ends(); last != (r2.Vec{X: 10}) {
		t.Errorf("clone moved with original: %v", last)
	}
}
