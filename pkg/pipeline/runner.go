package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gdstools/pkg/cache"
	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/observability"
)

// Runner executes pipelines against a cache. It holds no per-run state and
// may be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// uses the default keys.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute loads, builds and exports a design.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	src, err := readSource(opts)
	if err != nil {
		return nil, err
	}
	result := &Result{
		DesignHash: opts.sourceHash(src),
		Artifacts:  make(map[string][]byte),
	}

	// Stage 1: build
	buildStart := time.Now()
	l, err := r.Build(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Summary = l.Summary()
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Structures = len(result.Summary.Structures)
	result.Stats.Roots = len(l.Roots())

	if lib, err := Library(l, opts); err == nil {
		st := lib.Stats()
		result.Stats.Cells = st.Cells
		result.Stats.Boundaries = st.Boundaries
		result.Stats.Vertices = st.Vertices
	}

	r.cacheSummary(ctx, result.DesignHash, result.Summary)

	r.Logger.Info("built layout",
		"design", l.Name,
		"structures", result.Stats.Structures,
		"boundaries", result.Stats.Boundaries,
		"duration", result.Stats.BuildTime)

	// Stage 2: export
	exportStart := time.Now()
	artifacts, hits, err := r.ExportWithCacheInfo(ctx, l, result.DesignHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo = CacheInfo{Hits: hits, AllHit: len(hits) == len(opts.Formats)}
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Info("exported",
		"formats", strings.Join(opts.Formats, ","),
		"cached", len(hits),
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Build parses and builds a design source.
func (r *Runner) Build(ctx context.Context, src []byte, opts Options) (*design.Layout, error) {
	f, err := design.Parse(src, opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		f.Name = opts.Name
	}
	if f.Name == "" {
		f.Name = designName(opts.DesignPath)
	}

	observability.Pipeline().OnBuildStart(ctx, f.Name)
	start := time.Now()
	l, err := design.Build(ctx, f)
	n := 0
	if l != nil {
		n = len(l.IDs())
	}
	observability.Pipeline().OnBuildComplete(ctx, f.Name, n, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", f.Name, err)
	}
	return l, nil
}

// BuildFile loads and builds the design of opts without exporting it.
func (r *Runner) BuildFile(ctx context.Context, opts Options) (*design.Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	src, err := readSource(opts)
	if err != nil {
		return nil, err
	}
	return r.Build(ctx, src, opts)
}

// ExportWithCacheInfo exports every requested format, serving cached
// artifacts where possible, and returns the formats that hit the cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, l *design.Layout, designHash string, opts Options) (map[string][]byte, []string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	observability.Pipeline().OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var hits []string
	var err error
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(designHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, ok, cerr := r.Cache.Get(ctx, key); cerr == nil && ok {
				observability.Cache().OnCacheHit(ctx, format)
				artifacts[format] = data
				hits = append(hits, format)
				continue
			} else if cerr != nil {
				r.Logger.Warn("cache read failed", "format", format, "error", cerr)
			}
			observability.Cache().OnCacheMiss(ctx, format)
		}

		var data []byte
		data, err = Export(ctx, l, format, opts)
		if err != nil {
			err = fmt.Errorf("export %s: %w", format, err)
			break
		}
		artifacts[format] = data
		if serr := r.Cache.Set(ctx, key, data, cache.TTLArtifact); serr != nil {
			r.Logger.Warn("cache write failed", "format", format, "error", serr)
		} else {
			observability.Cache().OnCacheSet(ctx, format, len(data))
		}
	}

	observability.Pipeline().OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return artifacts, hits, nil
}

// Summary returns the layout summary cached for a design hash.
func (r *Runner) Summary(ctx context.Context, designHash string) (*design.Summary, bool, error) {
	data, ok, err := r.Cache.Get(ctx, r.Keyer.SummaryKey(designHash))
	if err != nil || !ok {
		return nil, false, err
	}
	var s design.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("parse cached summary: %w", err)
	}
	return &s, true, nil
}

func (r *Runner) cacheSummary(ctx context.Context, designHash string, s design.Summary) {
	data, err := json.Marshal(s)
	if err != nil {
		r.Logger.Warn("encode summary", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, r.Keyer.SummaryKey(designHash), data, cache.TTLSummary); err != nil {
		r.Logger.Warn("cache write failed", "key", "summary", "error", err)
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func readSource(opts Options) ([]byte, error) {
	if opts.DesignPath == "" {
		return opts.Source, nil
	}
	src, err := os.ReadFile(opts.DesignPath)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "design file %s", opts.DesignPath)
	}
	return src, err
}

// designName names a design without a name after its file.
func designName(path string) string {
	if path == "" {
		return "design"
	}
	return design.NameFromPath(path)
}
