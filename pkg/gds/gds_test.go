package gds

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/gdstools/pkg/geom"
	"github.com/matzehuels/gdstools/pkg/shapes"
	"github.com/matzehuels/gdstools/pkg/structure"
)

func TestReal8(t *testing.T) {
	tests := []struct {
		v    float64
		want uint64
	}{
		{0, 0},
		{1, 0x4110000000000000},
		{-1, 0xC110000000000000},
		{0.5, 0x4080000000000000},
		{16, 0x4210000000000000},
		{1.0 / 16, 0x4010000000000000},
	}
	for _, tt := range tests {
		if got := encodeReal8(tt.v); got != tt.want {
			t.Errorf("encodeReal8(%v) = %#016x, want %#016x", tt.v, got, tt.want)
		}
		if got := decodeReal8(tt.want); got != tt.v {
			t.Errorf("decodeReal8(%#016x) = %v, want %v", tt.want, got, tt.v)
		}
	}

	for _, v := range []float64{1e-3, 1e-9, 1e-6, 123.456, -7.25e-12, math.Pi} {
		if got := decodeReal8(encodeReal8(v)); got != v {
			t.Errorf("round trip %v = %v", v, got)
		}
	}
}

func testLibrary(t *testing.T) *Library {
	t.Helper()
	box, err := shapes.Box(r2.Vec{X: 10, Y: 5}, geom.Layer{Layer: 1})
	if err != nil {
		t.Fatal(err)
	}
	line, err := shapes.Line(r2.Vec{X: 20}, 2, 1, geom.Layer{Layer: 2, Datatype: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := box.Connect("D", line, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := box.Heal("D", structure.WithResolution(12)); err != nil {
		t.Fatal(err)
	}
	lib := FromStructures("chip", "TOP", box, line)
	lib.Cells = append(lib.Cells, NewCell("EMPTY"))
	return lib
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewLibrary("x").WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x06, 0x00, 0x02, 0x02, 0x58}
	if got := buf.Bytes()[:6]; !bytes.Equal(got, want) {
		t.Errorf("HEADER = % x, want % x", got, want)
	}
	// LIBNAME "x" is padded to two bytes.
	if !bytes.Contains(buf.Bytes(), []byte{0x00, 0x06, 0x02, 0x06, 'x', 0x00}) {
		t.Error("padded LIBNAME record not found")
	}
	end := buf.Bytes()[buf.Len()-4:]
	if !bytes.Equal(end, []byte{0x00, 0x04, 0x04, 0x00}) {
		t.Errorf("stream ends with % x, want ENDLIB", end)
	}
}

func TestRoundTrip(t *testing.T) {
	lib := testLibrary(t)
	lib.Modified = time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)

	var buf bytes.Buffer
	n, err := lib.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, wrote %d bytes", n, buf.Len())
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	// Coordinates are snapped to the 1 nm database grid.
	opts := []cmp.Option{
		cmpopts.EquateApprox(1e-9, 1e-3),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(lib, got, opts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if _, err := testLibrary(t).WriteTo(&a); err != nil {
		t.Fatal(err)
	}
	if _, err := testLibrary(t).WriteTo(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("identical libraries produced different streams")
	}
}

func TestWriteValidation(t *testing.T) {
	square := []r2.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	huge := make([]r2.Vec, MaxPoints+1)
	for i := range huge {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(len(huge)))
		huge[i] = r2.Vec{X: 100 * c, Y: 100 * s}
	}
	tests := []struct {
		name string
		lib  *Library
		want error
	}{
		{"too many points", &Library{Name: "l", Unit: 1e-6, Precision: 1e-9,
			Cells: []Cell{{Name: "A", Boundaries: []Boundary{{Points: huge}}}}}, ErrTooManyPoints},
		{"max points ok", &Library{Name: "l", Unit: 1e-6, Precision: 1e-9,
			Cells: []Cell{{Name: "A", Boundaries: []Boundary{{Points: huge[:MaxPoints]}}}}}, nil},
		{"degenerate", &Library{Name: "l", Unit: 1e-6, Precision: 1e-9,
			Cells: []Cell{{Name: "A", Boundaries: []Boundary{{Points: square[:2]}}}}}, ErrInvalidBoundary},
		{"duplicate cell", &Library{Name: "l", Unit: 1e-6, Precision: 1e-9,
			Cells: []Cell{{Name: "A"}, {Name: "A"}}}, ErrDuplicateCell},
		{"overflow", &Library{Name: "l", Unit: 1, Precision: 1e-9,
			Cells: []Cell{{Name: "A", Boundaries: []Boundary{{Points: []r2.Vec{{}, {X: 10}, {Y: 10}}}}}}}, ErrCoordinateOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := tt.lib.WriteTo(&buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("WriteTo() error = %v, want %v", err, tt.want)
			}
			if err != nil && buf.Len() != 0 {
				t.Errorf("wrote %d bytes despite error", buf.Len())
			}
		})
	}
}

func TestReadSkipsOtherElements(t *testing.T) {
	var buf bytes.Buffer
	w := &writer{w: &buf}
	w.int16s(recHeader, streamVersion)
	w.int16s(recBgnLib, make([]int16, 12)...)
	w.str(recLibName, "lib")
	w.reals(recUnits, 1e-3, 1e-9)
	w.int16s(recBgnStr, make([]int16, 12)...)
	w.str(recStrName, "TOP")
	// A PATH element, including a LAYER and XY record, must be ignored.
	w.empty(recPath)
	w.int16s(recLayer, 9)
	w.int32s(recXY, []int32{0, 0, 1000, 0})
	w.empty(recEndEl)
	w.empty(recBoundary)
	w.int16s(recLayer, 4)
	w.int16s(recDatatype, 0)
	w.int32s(recXY, []int32{0, 0, 2000, 0, 2000, 1000, 0, 0})
	w.empty(recEndEl)
	w.empty(recEndStr)
	w.empty(recEndLib)
	if w.err != nil {
		t.Fatal(w.err)
	}

	lib, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := lib.Cell("TOP")
	if !ok {
		t.Fatal("cell TOP not found")
	}
	if len(c.Boundaries) != 1 {
		t.Fatalf("len(Boundaries) = %d, want 1", len(c.Boundaries))
	}
	want := Boundary{Layer: 4, Points: []r2.Vec{{}, {X: 2}, {X: 2, Y: 1}}}
	if diff := cmp.Diff(want, c.Boundaries[0], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("boundary (-want +got):\n%s", diff)
	}
}

func TestReadMalformed(t *testing.T) {
	var full bytes.Buffer
	if _, err := testLibrary(t).WriteTo(&full); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", full.Bytes()[:full.Len()/2]},
		{"no header", []byte{0x00, 0x04, 0x04, 0x00}},
		{"odd length", []byte{0x00, 0x05, 0x00, 0x02, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, ErrMalformed) {
				t.Errorf("Read() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestStats(t *testing.T) {
	st := testLibrary(t).Stats()
	if st.Cells != 2 || st.Boundaries != 3 {
		t.Errorf("Stats() = %+v, want 2 cells and 3 boundaries", st)
	}
	want := []geom.Layer{{Layer: 1}, {Layer: 2, Datatype: 3}}
	if diff := cmp.Diff(want, st.Layers); diff != "" {
		t.Errorf("Layers (-want +got):\n%s", diff)
	}
	c, _ := testLibrary(t).Cell("TOP")
	box, ok := c.Bounds()
	if !ok || box.Max.X < 30 {
		t.Errorf("Bounds() = %v, %v", box, ok)
	}
}
