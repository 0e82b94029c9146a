package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/gdstools/pkg/gds"
)

const testDesign = `
name = "resonator"

[[structure]]
id = "pad"
kind = "box"
layer = 1
params = { width = 100, height = 50 }

[[structure]]
id = "feed"
kind = "line"
layer = 2
params = { dx = 200, width = 10 }

[[op]]
kind = "connect"
anchor = "pad.D"
attach = "feed.A"
`

// isolate points every XDG directory at a temporary location.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestExecuteBuild(t *testing.T) {
	dir := isolate(t)
	design := writeFile(t, dir, "resonator.toml", testDesign)
	base := filepath.Join(dir, "out", "chip")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}

	err := Execute(context.Background(), []string{"build", design, "-f", "gds,json,dot", "-o", base + ".gds"})
	if err != nil {
		t.Fatalf("Execute(build) error: %v", err)
	}

	data, err := os.ReadFile(base + ".gds")
	if err != nil {
		t.Fatal(err)
	}
	lib, err := gds.Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gds.Read() error: %v", err)
	}
	if lib.Name != "resonator" || len(lib.Cells) != 1 || len(lib.Cells[0].Boundaries) != 2 {
		t.Errorf("library %s: %d cells", lib.Name, len(lib.Cells))
	}
	for _, ext := range []string{".json", ".dot"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s output: %v", ext, err)
		}
	}
}

func TestExecuteBuildUsesConfig(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "config", appName), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "config", appName), "config.toml", "formats = [\"json\"]\n[cache]\nbackend = \"none\"\n")
	design := writeFile(t, dir, "resonator.toml", testDesign)

	if err := Execute(context.Background(), []string{"build", design}); err != nil {
		t.Fatalf("Execute(build) error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "resonator.json")); err != nil {
		t.Errorf("config formats not applied: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "resonator.gds")); !os.IsNotExist(err) {
		t.Errorf("gds written although config asks for json only")
	}
	if _, err := os.Stat(filepath.Join(dir, "cache", appName)); !os.IsNotExist(err) {
		t.Errorf("cache directory created although backend is none")
	}
}

func TestExecuteGraph(t *testing.T) {
	dir := isolate(t)
	design := writeFile(t, dir, "resonator.toml", testDesign)
	out := filepath.Join(dir, "links.dot")

	if err := Execute(context.Background(), []string{"graph", design, "-f", "dot", "-o", out, "--detailed"}); err != nil {
		t.Fatalf("Execute(graph) error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pad") || !strings.Contains(string(data), "feed") {
		t.Errorf("graph output missing structures:\n%s", data)
	}
}

func TestExecuteInspect(t *testing.T) {
	dir := isolate(t)
	design := writeFile(t, dir, "resonator.toml", testDesign)

	if err := Execute(context.Background(), []string{"inspect", design}); err != nil {
		t.Errorf("Execute(inspect design) error: %v", err)
	}
	if err := Execute(context.Background(), []string{"build", design, "--no-cache"}); err != nil {
		t.Fatal(err)
	}
	if err := Execute(context.Background(), []string{"inspect", filepath.Join(dir, "resonator.gds")}); err != nil {
		t.Errorf("Execute(inspect gds) error: %v", err)
	}
}

func TestExecuteErrors(t *testing.T) {
	dir := isolate(t)
	design := writeFile(t, dir, "resonator.toml", testDesign)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"missing design", []string{"build", filepath.Join(dir, "missing.toml")}},
		{"bad format", []string{"build", design, "-f", "png"}},
		{"bad graph format", []string{"graph", design, "-f", "gds"}},
		{"missing gds", []string{"inspect", filepath.Join(dir, "missing.gds")}},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.toml"), "build", design}},
		{"too many args", []string{"build", design, design}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Execute(context.Background(), tt.args); err == nil {
				t.Errorf("Execute(%v) should fail", tt.args)
			}
		})
	}
}
