package design

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r2"

	gerrors "github.com/matzehuels/gdstools/pkg/errors"
)

const resonatorTOML = `
name = "resonator"

[vars]
w = 10
len = "20 * w"

[[structure]]
id = "pad"
kind = "box"
layer = 1
params = { width = 100, height = 50 }

[[structure]]
id = "feed"
kind = "line"
layer = 2
params = { dx = "len", width = "w" }

[[op]]
kind = "connect"
anchor = "pad.D"
attach = "feed.A"

[[op]]
kind = "heal"
target = "feed"
label = "B"

[[op]]
kind = "rotate"
target = "pad"
angle = 90
about = "W"
`

const resonatorYAML = `
name: resonator
vars:
  w: 10
  len: 20 * w
structure:
  - id: pad
    kind: box
    layer: 1
    params: {width: 100, height: 50}
  - id: feed
    kind: line
    layer: 2
    params: {dx: len, width: w}
op:
  - kind: connect
    anchor: pad.D
    attach: feed.A
  - kind: heal
    target: feed
    label: B
  - kind: rotate
    target: pad
    angle: 90
    about: W
`

func mustBuild(t *testing.T, src string, format Format) *Layout {
	t.Helper()
	f, err := Parse([]byte(src), format)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	l, err := Build(context.Background(), f)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return l
}

func endpoint(t *testing.T, l *Layout, id, label string) r2.Vec {
	t.Helper()
	s, ok := l.Structure(id)
	if !ok {
		t.Fatalf("Structure(%q) not found", id)
	}
	p, err := s.Endpoint(label)
	if err != nil {
		t.Fatalf("Endpoint(%q) error: %v", label, err)
	}
	return p
}

func near(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestBuild(t *testing.T) {
	for _, tc := range []struct {
		format Format
		src    string
	}{
		{FormatTOML, resonatorTOML},
		{FormatYAML, resonatorYAML},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			l := mustBuild(t, tc.src, tc.format)

			if l.Name != "resonator" {
				t.Errorf("Name = %q, want resonator", l.Name)
			}
			if got := l.Vars["len"]; got != 200 {
				t.Errorf("Vars[len] = %v, want 200", got)
			}
			// The pad was rotated a quarter turn about its origin corner and
			// the feed line followed it.
			if got, want := endpoint(t, l, "feed", "A"), (r2.Vec{X: -25, Y: 100}); !near(got, want) {
				t.Errorf("feed.A = %v, want %v", got, want)
			}
			if got, want := endpoint(t, l, "feed", "B"), (r2.Vec{X: -25, Y: 300}); !near(got, want) {
				t.Errorf("feed.B = %v, want %v", got, want)
			}
			if got, want := endpoint(t, l, "feed_HEAL_B", "A"), (r2.Vec{X: -25, Y: 300}); !near(got, want) {
				t.Errorf("heal patch = %v, want %v", got, want)
			}

			if diff := cmp.Diff([]string{"pad", "feed", "feed_HEAL_B"}, l.IDs()); diff != "" {
				t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"pad", "feed"}, l.Roots()); diff != "" {
				t.Errorf("Roots() mismatch (-want +got):\n%s", diff)
			}

			lib, err := l.Library()
			if err != nil {
				t.Fatalf("Library() error: %v", err)
			}
			if len(lib.Cells) != 1 || lib.Cells[0].Name != DefaultCell {
				t.Fatalf("Library() cells = %+v, want a single %s", lib.Cells, DefaultCell)
			}
			if got := len(lib.Cells[0].Boundaries); got != 3 {
				t.Errorf("boundaries = %d, want 3", got)
			}
		})
	}
}

func TestBuildOperations(t *testing.T) {
	src := `
name = "ops"

[[structure]]
id = "a"
kind = "box"
layer = 1
params = { width = 10, height = 10 }

[[structure]]
id = "b"
kind = "box"
layer = 1
params = { width = 10, height = 10 }

[[op]]
kind = "translate"
target = "b"
delta = [100, 0]

[[op]]
kind = "copy"
source = "a"
id = "a2"

[[op]]
kind = "mirror"
target = "a2"
p1 = [0, 0]
p2 = [0, 1]

[[op]]
kind = "cluster"
members = ["a", "b"]
endpoints = { IN = "a.A", OUT = "b.D" }
sizes = { IN = 10 }

[[op]]
kind = "lattice"
source = "a2"
id = "grid"
cols = 3
rows = 2
spacing = [20, 20]

[[op]]
kind = "rotate"
target = "b"
angle = 180
pivot = [0, 0]

[[cell]]
name = "CHIP"
structures = ["a", "grid"]
`
	l := mustBuild(t, src, FormatTOML)

	if got, want := endpoint(t, l, "a2", "D"), (r2.Vec{X: -10, Y: 5}); !near(got, want) {
		t.Errorf("mirrored a2.D = %v, want %v", got, want)
	}
	// Rotating the second member moves the whole cluster.
	if got, want := endpoint(t, l, "a", "IN"), (r2.Vec{X: 0, Y: -5}); !near(got, want) {
		t.Errorf("a.IN = %v, want %v", got, want)
	}
	if got, want := endpoint(t, l, "a", "OUT"), (r2.Vec{X: -110, Y: -5}); !near(got, want) {
		t.Errorf("a.OUT = %v, want %v", got, want)
	}
	a, _ := l.Structure("a")
	if size, _ := a.Size("IN"); size != 10 {
		t.Errorf("a.IN size = %v, want 10", size)
	}
	if size, _ := a.Size("OUT"); size != 0 {
		t.Errorf("a.OUT size = %v, want 0", size)
	}
	if diff := cmp.Diff([]string{"a", "grid"}, l.Roots()); diff != "" {
		t.Errorf("Roots() mismatch (-want +got):\n%s", diff)
	}
	if got := l.Kind("a2"); got != "box" {
		t.Errorf("Kind(a2) = %q, want box", got)
	}

	lib, err := l.Library()
	if err != nil {
		t.Fatalf("Library() error: %v", err)
	}
	cell, ok := lib.Cell("CHIP")
	if !ok {
		t.Fatal("Library() has no CHIP cell")
	}
	// a, b (as a cluster member) and six lattice copies.
	if got := len(cell.Boundaries); got != 8 {
		t.Errorf("CHIP boundaries = %d, want 8", got)
	}
}

func TestBuildFlatten(t *testing.T) {
	src := `
name: flat
structure:
  - {id: a, kind: box, layer: 1, params: {width: 10, height: 10}}
  - {id: c, kind: circle, layer: 3, params: {radius: 5, resolution: 16}}
op:
  - {kind: flatten, id: f, members: [a, c], layer: 7, endpoints: {P: [1, 2]}}
`
	l := mustBuild(t, src, FormatYAML)
	f, ok := l.Structure("f")
	if !ok {
		t.Fatal("flatten did not register f")
	}
	polys := f.Polygons()
	if len(polys) != 2 {
		t.Fatalf("Polygons() = %d, want 2", len(polys))
	}
	for _, p := range polys {
		if p.Layer.Layer != 7 {
			t.Errorf("polygon layer = %d, want 7", p.Layer.Layer)
		}
	}
	if diff := cmp.Diff([]string{"f"}, l.Roots()); diff != "" {
		t.Errorf("Roots() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildErrors(t *testing.T) {
	const header = `
[[structure]]
id = "a"
kind = "box"
params = { width = 10, height = 10 }
`
	tests := []struct {
		name    string
		src     string
		code    gerrors.Code
		opIndex int // -1 when the failure is not tied to an operation
	}{
		{"unknown kind", `
[[structure]]
id = "a"
kind = "hexagon"
`, gerrors.ErrCodeUnknownShape, -1},
		{"bad id", `
[[structure]]
id = "a-b"
kind = "box"
`, gerrors.ErrCodeInvalidName, -1},
		{"duplicate id", header + header, gerrors.ErrCodeInvalidDesign, -1},
		{"unknown parameter", `
[[structure]]
id = "a"
kind = "box"
params = { width = 10, height = 10, depth = 3 }
`, gerrors.ErrCodeInvalidParameter, -1},
		{"missing parameter", `
[[structure]]
id = "a"
kind = "box"
params = { width = 10 }
`, gerrors.ErrCodeInvalidParameter, -1},
		{"negative size", `
[[structure]]
id = "a"
kind = "box"
params = { width = -1, height = 10 }
`, gerrors.ErrCodeInvalidParameter, -1},
		{"unknown op", header + `
[[op]]
kind = "explode"
`, gerrors.ErrCodeUnknownOperation, 0},
		{"unknown structure", header + `
[[op]]
kind = "translate"
target = "a"
delta = [1, 1]

[[op]]
kind = "connect"
anchor = "a.A"
attach = "ghost.A"
`, gerrors.ErrCodeUnknownStructure, 1},
		{"unknown endpoint", header + `
[[op]]
kind = "rotate"
target = "a"
angle = 90
about = "Q"
`, gerrors.ErrCodeUnknownEndpoint, 0},
		{"bad reference", header + `
[[op]]
kind = "connect"
anchor = "a"
attach = "a.B"
`, gerrors.ErrCodeInvalidInput, 0},
		{"cyclic", header + `
[[op]]
kind = "connect"
anchor = "a.A"
attach = "a.D"
`, gerrors.ErrCodeCyclicConnection, 0},
		{"bad expression", header + `
[[op]]
kind = "translate"
target = "a"
delta = ["1 +", 0]
`, gerrors.ErrCodeInvalidParameter, 0},
		{"unknown key", `
[[structure]]
id = "a"
kind = "box"
colour = "red"
`, gerrors.ErrCodeInvalidDesign, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src), FormatTOML)
			if err == nil {
				_, err = Build(context.Background(), f)
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if got := gerrors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
			var opErr *gerrors.OperationError
			switch {
			case tt.opIndex < 0 && errors.As(err, &opErr):
				t.Errorf("unexpected OperationError %v", err)
			case tt.opIndex >= 0 && !errors.As(err, &opErr):
				t.Errorf("error %v is not an OperationError", err)
			case tt.opIndex >= 0 && opErr.Index != tt.opIndex:
				t.Errorf("OperationError.Index = %d, want %d", opErr.Index, tt.opIndex)
			}
		})
	}
}

func TestBuildCancelled(t *testing.T) {
	f, err := Parse([]byte(resonatorTOML), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, f); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestLibraryUnknownCellMember(t *testing.T) {
	src := `
[[structure]]
id = "a"
kind = "box"
params = { width = 1, height = 1 }

[[cell]]
name = "C"
structures = ["b"]
`
	l := mustBuild(t, src, FormatTOML)
	if _, err := l.Library(); !gerrors.Is(err, gerrors.ErrCodeUnknownStructure) {
		t.Errorf("Library() error = %v, want %s", err, gerrors.ErrCodeUnknownStructure)
	}
}

func TestSummary(t *testing.T) {
	l := mustBuild(t, resonatorTOML, FormatTOML)
	var buf bytes.Buffer
	if err := l.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	var got Summary
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(got.Structures) != 3 {
		t.Fatalf("structures = %d, want 3", len(got.Structures))
	}
	pad := got.Structures[0]
	if pad.ID != "pad" || pad.Kind != "box" || !pad.Root {
		t.Errorf("pad summary = %+v", pad)
	}
	want := []LinkSummary{{Label: "D", Peer: "feed", PeerLabel: "A"}}
	if diff := cmp.Diff(want, pad.Links); diff != "" {
		t.Errorf("pad links mismatch (-want +got):\n%s", diff)
	}
	feed := got.Structures[1]
	if diff := cmp.Diff([]string{"feed_HEAL_B"}, feed.Compound); diff != "" {
		t.Errorf("feed compound mismatch (-want +got):\n%s", diff)
	}
	if d := feed.Endpoints["B"].Direction; d == nil || math.Abs(*d-90) > 1e-9 {
		t.Errorf("feed.B direction = %v, want 90", d)
	}
	if got.Structures[2].Root {
		t.Error("heal patch should not be a root")
	}
}

func TestKinds(t *testing.T) {
	want := []string{"box", "circle", "hollow_box", "line", "meander", "splitter", "triangle"}
	if diff := cmp.Diff(want, Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
	if got := len(OpKinds()); got != 10 {
		t.Errorf("OpKinds() = %d kinds, want 10", got)
	}
	for _, k := range Kinds() {
		if _, ok := factories[k]; !ok {
			t.Errorf("factory %q missing", k)
		}
	}
}

func TestBuildCountLimits(t *testing.T) {
	const box = `
[[structure]]
id = "a"
kind = "box"
params = { width = 10, height = 10 }
`
	tests := []struct {
		name    string
		src     string
		opIndex int
	}{
		{"circle resolution beyond int32", `
[[structure]]
id = "c"
kind = "circle"
params = { radius = 1, resolution = 1e18 }
`, -1},
		{"circle resolution beyond a boundary", `
[[structure]]
id = "c"
kind = "circle"
params = { radius = 1, resolution = 20000 }
`, -1},
		{"nan count", `
[[structure]]
id = "c"
kind = "circle"
params = { radius = 1, resolution = nan }
`, -1},
		{"infinite count", `
[[structure]]
id = "s"
kind = "splitter"
params = { n = inf, width = 1, length = 10 }
`, -1},
		{"meander periods", `
[[structure]]
id = "m"
kind = "meander"
params = { n = 1000000, width = 1, radius = 1, meander_length = 10, connect_length = 1 }
`, -1},
		{"splitter outputs", `
[[structure]]
id = "s"
kind = "splitter"
params = { n = "10 * 10000", width = 1, length = 10 }
`, -1},
		{"lattice grid", box + `
[[op]]
kind = "lattice"
id = "grid"
source = "a"
cols = 100000
rows = 100000
spacing = [20, 20]
`, 0},
		{"heal resolution", box + `
[[op]]
kind = "heal"
target = "a"
label = "A"
resolution = 100000
`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src), FormatTOML)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err = Build(context.Background(), f)
			if !gerrors.Is(err, gerrors.ErrCodeInvalidParameter) {
				t.Fatalf("Build() error = %v, want %s", err, gerrors.ErrCodeInvalidParameter)
			}
			var opErr *gerrors.OperationError
			if got := errors.As(err, &opErr); got != (tt.opIndex >= 0) {
				t.Errorf("OperationError = %v, want %v", got, tt.opIndex >= 0)
			} else if got && opErr.Index != tt.opIndex {
				t.Errorf("OperationError.Index = %d, want %d", opErr.Index, tt.opIndex)
			}
		})
	}
}

func TestClusterAliasCheckedFirst(t *testing.T) {
	f, err := Parse([]byte(`
[[structure]]
id = "a"
kind = "box"
params = { width = 10, height = 10 }

[[structure]]
id = "b"
kind = "box"
params = { width = 4, height = 4 }
`), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	l, err := Build(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := l.Structure("a")
	before := a.Endpoints()

	b := &builder{layout: l, env: newEnv(nil)}
	err = opCluster(b, OpSpec{
		Kind:      "cluster",
		ID:        "b",
		Members:   []string{"a", "b"},
		Endpoints: map[string]any{"P": "a.A"},
	})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidDesign) {
		t.Fatalf("opCluster() error = %v, want %s", err, gerrors.ErrCodeInvalidDesign)
	}
	if diff := cmp.Diff(before, a.Endpoints()); diff != "" {
		t.Errorf("head endpoints changed (-want +got):\n%s", diff)
	}
	if got := len(a.Compound()); got != 0 {
		t.Errorf("head took in %d members", got)
	}
}
