// Package pipeline runs the load → build → export sequence shared by the
// CLI and the HTTP server.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    DesignPath: "resonator.toml",
//	    Formats:    []string{pipeline.FormatGDS, pipeline.FormatJSON},
//	})
//	os.WriteFile("resonator.gds", result.Artifacts["gds"], 0o644)
//
// Building is always done (it is cheap and the layout is part of the
// result); exported artifacts are cached under the hash of the design source
// and the export options.
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gdstools/pkg/cache"
	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/errors"
)

// Output formats.
const (
	FormatGDS  = "gds"  // GDSII stream
	FormatJSON = "json" // layout summary
	FormatDOT  = "dot"  // link graph as Graphviz source
	FormatSVG  = "svg"  // link graph rendered by Graphviz
)

// DefaultFormats are exported when Options.Formats is empty.
var DefaultFormats = []string{FormatGDS}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatGDS:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// Options configures a pipeline run. Either DesignPath or Source must be set.
type Options struct {
	// DesignPath is a design file to read.
	DesignPath string `json:"-"`
	// Source is the design text, used when DesignPath is empty.
	Source []byte `json:"-"`
	// Format is the design format; empty infers it from DesignPath.
	Format design.Format `json:"format,omitempty"`

	// Name overrides the library name from the design.
	Name string `json:"name,omitempty"`
	// Unit and Precision override the design's GDSII units (metres).
	Unit      float64 `json:"unit,omitempty"`
	Precision float64 `json:"precision,omitempty"`

	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // detailed link-graph labels
	Refresh  bool     `json:"refresh,omitempty"`  // ignore cached artifacts

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result is the output of a run.
type Result struct {
	Layout     *design.Layout
	Summary    design.Summary
	DesignHash string
	Artifacts  map[string][]byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Stats describes the built layout and the time spent.
type Stats struct {
	Structures int           `json:"structures"`
	Roots      int           `json:"roots"`
	Cells      int           `json:"cells"`
	Boundaries int           `json:"boundaries"`
	Vertices   int           `json:"vertices"`
	BuildTime  time.Duration `json:"build_time_ns"`
	ExportTime time.Duration `json:"export_time_ns"`
}

// CacheInfo reports which artifacts came from the cache.
type CacheInfo struct {
	Hits   []string // formats served from the cache
	AllHit bool     // every requested format was cached
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	return slices.Sorted(maps.Keys(ValidFormats))
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.DesignPath == "" && len(o.Source) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "a design path or source is required")
	}
	if o.Format == "" {
		if o.DesignPath == "" {
			return errors.New(errors.ErrCodeInvalidFormat, "design format is required for inline sources")
		}
		f, err := design.DetectFormat(o.DesignPath)
		if err != nil {
			return err
		}
		o.Format = f
	}
	if !design.ValidFormats[o.Format] {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported design format %q", o.Format)
	}
	if o.Name != "" {
		if err := errors.ValidateName(o.Name); err != nil {
			return err
		}
	}
	if o.Unit < 0 || o.Precision < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "unit and precision must be positive")
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for one format. Only the
// options that change the bytes of that format are included.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatGDS:
		k.Unit, k.Precision = o.Unit, o.Precision
	case FormatDOT, FormatSVG:
		k.Detailed = o.Detailed
	}
	return k
}

// sourceHash identifies the design text and the overrides applied to it.
func (o *Options) sourceHash(src []byte) string {
	return cache.Hash(fmt.Appendf(slices.Clone(src), "\x00%s\x00%s", o.Format, o.Name))
}

func dedupe(formats []string) []string {
	var out []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
