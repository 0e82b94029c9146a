package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gdstools/pkg/pipeline"
	"github.com/matzehuels/gdstools/pkg/topology"
)

// graphCommand creates the graph command for connection diagrams.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
		stdout   bool
	)

	cmd := &cobra.Command{
		Use:   "graph [design.toml|design.yaml]",
		Short: "Draw the connection graph of a design",
		Long: `Draw the connection graph of a design.

Structures become nodes and every link between two endpoints becomes an edge
labelled with both endpoint labels. Hidden structures (merged cluster members,
lattice templates, heal patches) are drawn dashed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(designExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != pipeline.FormatDOT && format != pipeline.FormatSVG {
				return fmt.Errorf("invalid graph format %q (must be dot or svg)", format)
			}
			return c.runGraph(cmd.Context(), args[0], output, format, detailed, stdout)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <design>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg, dot")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show kinds and endpoint labels on nodes")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to standard output")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input, output, format string, detailed, stdout bool) error {
	l, err := c.buildLayout(ctx, input)
	if err != nil {
		return err
	}

	dot := topology.ToDOT(l, topology.Options{Detailed: detailed})
	data := []byte(dot)
	if format == pipeline.FormatSVG {
		if data, err = topology.RenderSVG(ctx, dot); err != nil {
			return fmt.Errorf("render graph: %w", err)
		}
	}

	if stdout {
		_, err := os.Stdout.Write(data)
		return err
	}
	path := output
	if path == "" {
		path = outputBase(input, "") + "." + format
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Graph written")
	printFile(path)
	return nil
}
