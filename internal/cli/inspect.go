package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/gds"
	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var tui bool

	cmd := &cobra.Command{
		Use:   "inspect [design.toml|design.yaml|layout.gds]",
		Short: "Show the structures of a design or the cells of a GDSII file",
		Long: `Show the structures of a design or the cells of a GDSII file.

For a design, each structure is listed with its kind, layer, endpoints and
links. With --tui the structures can be browsed interactively. For a .gds
file, each cell is listed with its boundary and vertex counts and layers.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles(append(designExts, "gds")...),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.EqualFold(filepath.Ext(args[0]), ".gds") {
				return c.runInspectGDS(args[0])
			}
			return c.runInspectDesign(cmd.Context(), args[0], tui)
		},
	}

	cmd.Flags().BoolVar(&tui, "tui", false, "browse structures interactively")

	return cmd
}

// buildLayout builds a design file without exporting it.
func (c *CLI) buildLayout(ctx context.Context, input string) (*design.Layout, error) {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	return runner.BuildFile(ctx, pipeline.Options{DesignPath: input, Logger: c.Logger})
}

func (c *CLI) runInspectDesign(ctx context.Context, input string, tui bool) error {
	l, err := c.buildLayout(ctx, input)
	if err != nil {
		return err
	}
	sum := l.Summary()

	if tui {
		m, err := tea.NewProgram(NewStructureListModel(sum), tea.WithContext(ctx)).Run()
		if err != nil {
			return fmt.Errorf("run browser: %w", err)
		}
		if sel := m.(StructureListModel).Selected; sel != nil {
			fmt.Println(structureDetail(*sel))
		}
		return nil
	}

	fmt.Println(StyleTitle.Render(sum.Name))
	printKeyValue("structures", strconv.Itoa(len(sum.Structures)))
	printKeyValue("roots", strconv.Itoa(len(l.Roots())))
	for _, name := range slices.Sorted(maps.Keys(sum.Vars)) {
		printKeyValue(name, formatFloat(sum.Vars[name]))
	}
	printNewline()
	fmt.Println(structureTable(sum.Structures, -1).Render())
	return nil
}

func (c *CLI) runInspectGDS(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "gds file %s", path)
	} else if err != nil {
		return err
	}
	defer f.Close()

	lib, err := gds.Read(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	st := lib.Stats()

	fmt.Println(StyleTitle.Render(lib.Name))
	printKeyValue("unit", fmt.Sprintf("%g m", lib.Unit))
	printKeyValue("precision", fmt.Sprintf("%g m", lib.Precision))
	printKeyValue("modified", lib.Modified.Format("2006-01-02 15:04:05"))
	printKeyValue("cells", strconv.Itoa(st.Cells))
	printKeyValue("boundaries", strconv.Itoa(st.Boundaries))
	printNewline()
	fmt.Println(cellTable(lib).Render())
	return nil
}

// structureTable lists structures; the row at cursor (if any) is highlighted.
func structureTable(structures []design.StructureSummary, cursor int) *table.Table {
	rows := make([][]string, len(structures))
	for i, s := range structures {
		rows[i] = []string{
			s.ID,
			s.Kind,
			fmt.Sprintf("%d/%d", s.Layer, s.Datatype),
			strings.Join(slices.Sorted(maps.Keys(s.Endpoints)), " "),
			strconv.Itoa(len(s.Links)),
			formatBounds(s.Bounds),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Structure", "Kind", "Layer", "Endpoints", "Links", "Bounds").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == cursor:
				return listSelectedStyle
			case !structures[row].Root:
				return listDimStyle
			case col == 0:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
}

func cellTable(lib *gds.Library) *table.Table {
	rows := make([][]string, len(lib.Cells))
	for i, c := range lib.Cells {
		sub := gds.Library{Cells: []gds.Cell{c}}
		st := sub.Stats()
		layers := make([]string, len(st.Layers))
		for j, l := range st.Layers {
			layers[j] = fmt.Sprintf("%d/%d", l.Layer, l.Datatype)
		}
		rows[i] = []string{c.Name, strconv.Itoa(st.Boundaries), strconv.Itoa(st.Vertices), strings.Join(layers, " ")}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Cell", "Boundaries", "Vertices", "Layers").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
}

// structureDetail renders endpoints and links of one structure.
func structureDetail(s design.StructureSummary) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(s.ID))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s  layer %d/%d  %d polygons", s.Kind, s.Layer, s.Datatype, s.Polygons)))
	b.WriteString("\n")
	for _, label := range slices.Sorted(maps.Keys(s.Endpoints)) {
		e := s.Endpoints[label]
		line := fmt.Sprintf("  %-8s (%s, %s)", label, formatFloat(e.X), formatFloat(e.Y))
		if e.Size != 0 {
			line += "  size " + formatFloat(e.Size)
		}
		if e.Direction != nil {
			line += "  dir " + formatFloat(*e.Direction) + "°"
		}
		b.WriteString(line + "\n")
	}
	for _, link := range s.Links {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %s %s %s.%s", link.Label, iconArrow, link.Peer, link.PeerLabel)))
		b.WriteString("\n")
	}
	if len(s.Compound) > 0 {
		b.WriteString(StyleDim.Render("  compound of " + strings.Join(s.Compound, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func formatBounds(b *[4]float64) string {
	if b == nil {
		return "—"
	}
	return fmt.Sprintf("%s × %s", formatFloat(b[2]-b[0]), formatFloat(b[3]-b[1]))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
