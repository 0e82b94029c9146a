package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/gdstools/pkg/design"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// StructureListModel - Interactive structure browser
// =============================================================================

// StructureListModel is the bubbletea model for browsing the structures of
// a built layout. Enter toggles the endpoint detail of the current row; q
// quits, leaving the last opened structure in Selected.
type StructureListModel struct {
	Name       string
	Structures []design.StructureSummary
	Cursor     int
	Offset     int
	Height     int
	ShowDetail bool
	Selected   *design.StructureSummary
}

// NewStructureListModel creates a browser over a layout summary.
func NewStructureListModel(sum design.Summary) StructureListModel {
	return StructureListModel{
		Name:       sum.Name,
		Structures: sum.Structures,
		Height:     15,
	}
}

func (m StructureListModel) Init() tea.Cmd {
	return nil
}

func (m StructureListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Structures)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			if len(m.Structures) == 0 {
				return m, nil
			}
			m.ShowDetail = !m.ShowDetail
			if m.ShowDetail {
				s := m.Structures[m.Cursor]
				m.Selected = &s
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}
	return m, nil
}

func (m StructureListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ endpoints  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Structures))
	visible := m.Structures[m.Offset:end]
	b.WriteString(structureTable(visible, m.Cursor-m.Offset).Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Structures)), len(m.Structures))))
	b.WriteString("\n")

	if m.ShowDetail && m.Cursor < len(m.Structures) {
		b.WriteString("\n")
		b.WriteString(structureDetail(m.Structures[m.Cursor]))
	}
	return b.String()
}
