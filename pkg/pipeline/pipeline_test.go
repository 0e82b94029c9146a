package pipeline

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/gdstools/pkg/cache"
	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/gds"
)

const testDesign = `
[[structure]]
id = "pad"
kind = "box"
layer = 1
params = { width = 100, height = 50 }

[[structure]]
id = "feed"
kind = "line"
layer = 1
params = { dx = 200, width = 10 }

[[op]]
kind = "connect"
anchor = "pad.D"
attach = "feed.A"
`

func writeDesign(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(testDesign), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"gds", false},
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"GDS", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{DesignPath: "chip.yaml"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.Format != "yaml" {
		t.Errorf("Format = %q, want yaml", opts.Format)
	}
	if diff := cmp.Diff(DefaultFormats, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	opts.Formats = nil
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Formats != nil {
		t.Error("ValidateAndSetDefaults should be idempotent once validated")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no design", Options{}, errors.ErrCodeInvalidInput},
		{"inline without format", Options{Source: []byte("x")}, errors.ErrCodeInvalidFormat},
		{"unknown extension", Options{DesignPath: "chip.json"}, errors.ErrCodeInvalidFormat},
		{"bad output format", Options{DesignPath: "chip.toml", Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
		{"bad name", Options{DesignPath: "chip.toml", Name: "my chip"}, errors.ErrCodeInvalidName},
		{"negative unit", Options{DesignPath: "chip.toml", Unit: -1}, errors.ErrCodeInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestOptionsFormatsDeduped(t *testing.T) {
	opts := Options{DesignPath: "a.toml", Formats: []string{"GDS", "json", "gds", " dot "}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"gds", "json", "dot"}, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Unit: 1e-6, Precision: 1e-9, Detailed: true}
	if k := opts.ArtifactKeyOpts(FormatGDS); k.Detailed || k.Precision != 1e-9 {
		t.Errorf("gds key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatDOT); !k.Detailed || k.Unit != 0 {
		t.Errorf("dot key opts = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatJSON); k != (cache.ArtifactKeyOpts{Format: FormatJSON}) {
		t.Errorf("json key opts = %+v", k)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	path := writeDesign(t, "my-chip.toml")
	r := NewRunner(cache.NewMemoryCache(), nil, nil)
	defer r.Close()

	opts := Options{DesignPath: path, Formats: []string{FormatGDS, FormatJSON, FormatDOT}}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Layout.Name != "my_chip" {
		t.Errorf("Layout.Name = %q, want my_chip", res.Layout.Name)
	}
	if res.Stats.Structures != 2 || res.Stats.Boundaries != 2 || res.Stats.Cells != 1 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.CacheInfo.Hits) != 0 {
		t.Errorf("first run hits = %v, want none", res.CacheInfo.Hits)
	}
	for _, f := range opts.Formats {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("artifact %s is empty", f)
		}
	}

	lib, err := gds.Read(bytes.NewReader(res.Artifacts[FormatGDS]))
	if err != nil {
		t.Fatalf("gds.Read() error: %v", err)
	}
	if lib.Name != "my_chip" || len(lib.Cells) != 1 {
		t.Errorf("library = %s with %d cells", lib.Name, len(lib.Cells))
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.AllHit {
		t.Errorf("second run hits = %v, want all", again.CacheInfo.Hits)
	}
	if !bytes.Equal(again.Artifacts[FormatGDS], res.Artifacts[FormatGDS]) {
		t.Error("cached GDS differs from the first export")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.CacheInfo.Hits) != 0 {
		t.Errorf("refresh hits = %v, want none", fresh.CacheInfo.Hits)
	}
}

func TestExecuteInlineSource(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Source:  []byte(testDesign),
		Format:  "toml",
		Name:    "inline",
		Unit:    1e-3,
		Formats: []string{FormatGDS},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	lib, err := gds.Read(bytes.NewReader(res.Artifacts[FormatGDS]))
	if err != nil {
		t.Fatal(err)
	}
	if lib.Name != "inline" || math.Abs(lib.Unit-1e-3) > 1e-12 {
		t.Errorf("library = %s unit %v, want inline unit 0.001", lib.Name, lib.Unit)
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{DesignPath: filepath.Join(t.TempDir(), "missing.toml")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}

	bad := []byte(testDesign + "\n[[op]]\nkind = \"connect\"\nanchor = \"pad.Q\"\nattach = \"feed.B\"\n")
	_, err = r.Execute(ctx, Options{Source: bad, Format: "toml"})
	if !errors.Is(err, errors.ErrCodeUnknownEndpoint) {
		t.Errorf("bad design error = %v, want %s", err, errors.ErrCodeUnknownEndpoint)
	}
}

func TestSourceHash(t *testing.T) {
	a := Options{Format: "toml"}
	b := Options{Format: "toml", Name: "other"}
	src := []byte(testDesign)
	if a.sourceHash(src) == b.sourceHash(src) {
		t.Error("name override should change the hash")
	}
	if a.sourceHash(src) != a.sourceHash([]byte(testDesign)) {
		t.Error("hash should be deterministic")
	}
}

func TestRunnerSummary(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(cache.NewMemoryCache(), nil, nil)

	if _, ok, err := r.Summary(ctx, "missing"); ok || err != nil {
		t.Fatalf("Summary(missing) = %v, %v; want miss", ok, err)
	}
	res, err := r.Execute(ctx, Options{Source: []byte(testDesign), Format: "toml", Name: "chip"})
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := r.Summary(ctx, res.DesignHash)
	if err != nil || !ok {
		t.Fatalf("Summary() = %v, %v; want hit", ok, err)
	}
	if diff := cmp.Diff(res.Summary, *got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFile(t *testing.T) {
	path := writeDesign(t, "resonator.yaml.toml")
	l, err := NewRunner(nil, nil, nil).BuildFile(context.Background(), Options{DesignPath: path})
	if err != nil {
		t.Fatalf("BuildFile() error: %v", err)
	}
	if diff := cmp.Diff([]string{"pad", "feed"}, l.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if l.Name != "resonator_yaml" {
		t.Errorf("Name = %q, want resonator_yaml", l.Name)
	}
}
