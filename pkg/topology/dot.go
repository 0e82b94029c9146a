package topology

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gdstools/pkg/design"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the kind and endpoint labels to each node.
	Detailed bool
}

// ToDOT converts the link graph of a layout to Graphviz DOT. Every link is
// drawn once even though both structures record it.
func ToDOT(l *design.Layout, opts Options) string {
	sum := l.Summary()

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, s := range sum.Structures {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(s, opts.Detailed))}
		if !s.Root {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", s.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	seen := make(map[string]bool)
	for _, s := range sum.Structures {
		for _, ln := range s.Links {
			fwd := s.ID + "." + ln.Label + "|" + ln.Peer + "." + ln.PeerLabel
			rev := ln.Peer + "." + ln.PeerLabel + "|" + s.ID + "." + ln.Label
			if seen[fwd] || seen[rev] {
				continue
			}
			seen[fwd] = true
			fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", s.ID, ln.Peer, ln.Label+" - "+ln.PeerLabel)
		}
		for _, m := range s.Compound {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed];\n", s.ID, m)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(s design.StructureSummary, detailed bool) string {
	if !detailed {
		return s.ID
	}
	labels := slices.Sorted(maps.Keys(s.Endpoints))
	return fmt.Sprintf("%s\n%s\n%s", s.ID, s.Kind, strings.Join(labels, " "))
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin and scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
