package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/gds"
	"github.com/matzehuels/gdstools/pkg/topology"
)

// Library converts a layout to GDSII, applying the unit overrides of opts.
func Library(l *design.Layout, opts Options) (*gds.Library, error) {
	lib, err := l.Library()
	if err != nil {
		return nil, err
	}
	if opts.Name != "" {
		lib.Name = opts.Name
	}
	if opts.Unit > 0 {
		lib.Unit = opts.Unit
	}
	if opts.Precision > 0 {
		lib.Precision = opts.Precision
	}
	return lib, nil
}

// Export produces one artifact.
func Export(ctx context.Context, l *design.Layout, format string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatGDS:
		lib, err := Library(l, opts)
		if err != nil {
			return nil, err
		}
		if _, err := lib.WriteTo(&buf); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := l.WriteJSON(&buf); err != nil {
			return nil, err
		}
	case FormatDOT:
		buf.WriteString(topology.ToDOT(l, topology.Options{Detailed: opts.Detailed}))
	case FormatSVG:
		return topology.RenderSVG(ctx, topology.ToDOT(l, topology.Options{Detailed: opts.Detailed}))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return buf.Bytes(), nil
}
