package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	output    string  // output base path
	formats   string  // comma-separated output formats
	name      string  // library name override
	unit      float64 // user unit in metres
	precision float64 // database unit in metres
	detailed  bool    // detailed link-graph labels
	noCache   bool
	refresh   bool
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build [design.toml|design.yaml]",
		Short: "Build a design into GDSII and other artifacts",
		Long: `Build a design into GDSII and other artifacts.

The design file declares structures and the operations that join them. Each
requested format is written next to the design (or to --output) as
<base>.<format>:

  gds   GDSII stream of the layout
  json  summary of structures, endpoints and links
  dot   connection graph in Graphviz DOT
  svg   connection graph rendered by Graphviz

Exported artifacts are cached by design content; use --refresh to rebuild.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(designExts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: design path without extension)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): gds, json, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&opts.name, "name", "", "library name (default: from the design)")
	cmd.Flags().Float64Var(&opts.unit, "unit", 0, "user unit in metres (default: from the design, 1e-6)")
	cmd.Flags().Float64Var(&opts.precision, "precision", 0, "database unit in metres (default: from the design, 1e-9)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "detailed node labels in dot/svg output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")

	return cmd
}

// pipelineOptions merges flags over the config file defaults.
func (c *CLI) pipelineOptions(input string, opts buildOpts) pipeline.Options {
	p := pipeline.Options{
		DesignPath: input,
		Name:       opts.name,
		Unit:       opts.unit,
		Precision:  opts.precision,
		Formats:    parseFormats(opts.formats, c.Config.Formats),
		Detailed:   opts.detailed,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	}
	if p.Unit == 0 {
		p.Unit = c.Config.Unit
	}
	if p.Precision == 0 {
		p.Precision = c.Config.Precision
	}
	return p
}

// runBuild executes the pipeline and writes every artifact.
func (c *CLI) runBuild(ctx context.Context, input string, opts buildOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.pipelineOptions(input, opts)
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Building "+input+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := outputBase(input, opts.output)
	var written []string
	for _, format := range popts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	prog.done("Built " + result.Layout.Name)

	printSuccess("Build complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats, result.CacheInfo.AllHit)
	if result.Stats.Boundaries == 0 {
		printWarningf("%s has no polygons", result.Layout.Name)
	}
	printNewline()
	printNextStep("Inspect", appName+" inspect "+base+".gds")

	return nil
}
