package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sewerflow/sewerflow/pkg/errors"
	"github.com/sewerflow/sewerflow/pkg/manager"
	"github.com/sewerflow/sewerflow/pkg/network"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// NodeListModel is the bubbletea model for picking one node out of several
// candidates sharing a map location.
type NodeListModel struct {
	Candidates []network.Node
	Cursor     int
	Selected   *network.Node
}

// NewNodeListModel creates a new node list model.
func NewNodeListModel(candidates []network.Node) NodeListModel {
	return NodeListModel{Candidates: candidates}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Candidates)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = &m.Candidates[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, n := range m.Candidates {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		kind := n.Kind
		if kind == "" {
			kind = "—"
		}
		line := fmt.Sprintf("%s%-20s %-18s #%d", cursor, n.ObjID, kind, n.ID)

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Candidates))))
	return b.String()
}

// interactiveResolver resolves ambiguous node locations by asking the user.
func interactiveResolver() manager.CandidateResolver {
	return manager.ResolverFunc(func(_ context.Context, candidates []network.Node) (network.Node, error) {
		p := tea.NewProgram(NewNodeListModel(candidates))
		final, err := p.Run()
		if err != nil {
			return network.Node{}, fmt.Errorf("node picker: %w", err)
		}
		model := final.(NodeListModel)
		if model.Selected == nil {
			return network.Node{}, errors.New(errors.ErrCodeNodeNotFound, "selection cancelled")
		}
		return *model.Selected, nil
	})
}
