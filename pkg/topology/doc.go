// Package topology draws the connection graph of a built layout.
//
// Structures become nodes and recorded links become edges labelled with the
// two endpoint labels. Compound members (healing patches, clustered
// structures) hang off their owner with dashed edges. The diagram shows how
// pieces were composed, not the layout geometry itself.
//
//	dot := topology.ToDOT(layout, topology.Options{Detailed: true})
//	svg, err := topology.RenderSVG(dot)
//
// [RenderSVG] uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no external binaries are needed.
package topology
