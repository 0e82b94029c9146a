// Package pkg holds the libraries behind gdstools.
//
// # Overview
//
// gdstools builds GDSII mask layouts from structures that carry named
// endpoints. Structures are placed by joining endpoints rather than by
// absolute coordinates, and every join is remembered so that moving one
// structure moves everything attached to it.
//
//  1. [geom] - polygons, width-varying paths, groups and lattices
//  2. [structure] - the endpoint-carrying wrapper and its connection graph
//  3. [shapes] - parametric factories (boxes, lines, meanders, splitters, text)
//  4. [gds] - GDSII stream writer and reader
//  5. [design] - TOML/YAML design files built into layouts
//  6. [topology] - DOT and SVG diagrams of the connection graph
//  7. [pipeline] - load, build and export with artifact caching
//  8. [cache] - file, memory, Redis and MongoDB cache backends
//
// # Data Flow
//
//	design.toml
//	     ↓
//	[design] package (parse, evaluate expressions, run operations)
//	     ↓
//	[structure] graph of connected structures
//	     ↓
//	[gds] library  /  [design] summary  /  [topology] graph
//
// # Quick Start
//
//	feed, _ := shapes.Line(r2.Vec{X: 200}, 10, 10, geom.Layer{Layer: 1})
//	pad, _ := shapes.Box(r2.Vec{X: 100, Y: 100}, geom.Layer{Layer: 1})
//	if err := pad.Connect("D", feed, "A"); err != nil {
//	    return err
//	}
//	lib := gds.FromStructures("chip", "TOP", pad)
//	_, err := lib.WriteTo(f)
//
// Or declaratively:
//
//	f, _ := design.Load("resonator.toml", "")
//	layout, _ := design.Build(ctx, f)
//	lib, _ := layout.Library()
//
// [geom]: github.com/matzehuels/gdstools/pkg/geom
// [structure]: github.com/matzehuels/gdstools/pkg/structure
// [shapes]: github.com/matzehuels/gdstools/pkg/shapes
// [gds]: github.com/matzehuels/gdstools/pkg/gds
// [design]: github.com/matzehuels/gdstools/pkg/design
// [topology]: github.com/matzehuels/gdstools/pkg/topology
// [pipeline]: github.com/matzehuels/gdstools/pkg/pipeline
// [cache]: github.com/matzehuels/gdstools/pkg/cache
package pkg
