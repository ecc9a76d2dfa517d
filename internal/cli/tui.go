package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listLoadingStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Messages
// =============================================================================

// refreshMsg signals that the tree store changed and the visible node list
// must be rebuilt.
type refreshMsg struct{}

// genDoneMsg reports a finished generation batch.
type genDoneMsg struct {
	err error
}

// =============================================================================
// EditorModel - Interactive mind-map editing
// =============================================================================

// EditorModel is the bubbletea model for the interactive map editor.
type EditorModel struct {
	store       *mindmap.Store
	orch        *gen.Orchestrator
	userContext string
	name        string

	nodes  []mindmap.Node
	cursor int
	offset int
	height int

	// editing is set while a title edit is in progress; input holds the
	// pending text.
	editing bool
	input   string

	generating bool
	status     string
}

// NewEditorModel creates an editor over a live tree store.
func NewEditorModel(store *mindmap.Store, orch *gen.Orchestrator, name, userContext string) EditorModel {
	return EditorModel{
		store:       store,
		orch:        orch,
		userContext: userContext,
		name:        name,
		nodes:       store.Visible(),
		height:      20,
	}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, nil

	case genDoneMsg:
		m.generating = false
		if msg.err != nil {
			m.status = StyleWarning.Render("generation failed: " + msg.err.Error())
		} else {
			m.status = StyleSuccess.Render("generation complete")
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

// updateBrowsing handles keys in navigation mode.
func (m EditorModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}

	case "down", "j":
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}

	case " ", "tab":
		if n, ok := m.current(); ok {
			m.store.ToggleCollapse(n.ID)
		}

	case "m":
		if n, ok := m.current(); ok {
			m.store.ToggleContent(n.ID)
		}

	case "a":
		if n, ok := m.current(); ok {
			child, created := m.store.AddChild(n.ID, mindmap.ChildSpec{Title: "New node"})
			if created {
				m.refresh()
				m.moveCursorTo(child.ID)
			}
		}

	case "d":
		if n, ok := m.current(); ok {
			if n.IsRoot() {
				m.status = StyleWarning.Render("cannot delete the root")
				return m, nil
			}
			m.store.Delete(n.ID)
		}

	case "e":
		if n, ok := m.current(); ok {
			m.editing = true
			m.input = n.Title
		}

	case "g", "enter":
		if m.generating {
			m.status = StyleWarning.Render("a generation batch is already running")
			return m, nil
		}
		n, ok := m.current()
		if !ok {
			return m, nil
		}
		if n.Type.Terminal() {
			m.status = StyleDim.Render("detail nodes cannot be expanded")
			return m, nil
		}
		m.generating = true
		m.status = listLoadingStyle.Render("generating...")
		id := n.ID
		return m, func() tea.Msg {
			return genDoneMsg{err: m.orch.Expand(context.Background(), id, m.userContext)}
		}
	}
	return m, nil
}

// updateEditing handles keys while a title edit is in progress.
func (m EditorModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input = ""

	case "enter":
		if n, ok := m.current(); ok && strings.TrimSpace(m.input) != "" {
			m.store.EditTitle(n.ID, strings.TrimSpace(m.input))
		}
		m.editing = false
		m.input = ""

	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}

	default:
		if msg.Type == tea.KeyRunes {
			m.input += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.input += " "
		}
	}
	return m, nil
}

func (m EditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎/g generate  ␣ collapse  m minimize  a add  e edit  d delete  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	for i := m.offset; i < end; i++ {
		n := m.nodes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		line := cursor + strings.Repeat("  ", n.Level) + m.nodeLabel(n, i == m.cursor)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(StyleHighlight.Render("title: ") + m.input + StyleHighlight.Render("▏"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.nodes))))
		if m.status != "" {
			b.WriteString("  " + m.status)
		}
	}

	return b.String()
}

// nodeLabel renders one tree row.
func (m EditorModel) nodeLabel(n mindmap.Node, selected bool) string {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}

	var suffix string
	switch {
	case n.Loading:
		suffix = " " + listLoadingStyle.Render("(generating)")
	case n.Collapsed:
		suffix = " " + listDimStyle.Render("[+]")
	case n.ContentMinimized && n.Type == mindmap.TypeDetail:
		suffix = " " + listDimStyle.Render("…")
	}

	switch {
	case selected:
		return listSelectedStyle.Render(title) + suffix
	case n.Loading:
		return listDimStyle.Render(title) + suffix
	default:
		return listNormalStyle.Render(title) + suffix
	}
}

// =============================================================================
// Helpers
// =============================================================================

// refresh rebuilds the visible node list and clamps cursor and offset.
func (m *EditorModel) refresh() {
	m.nodes = m.store.Visible()
	if m.cursor >= len(m.nodes) {
		m.cursor = len(m.nodes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

// moveCursorTo positions the cursor on the given node if it is visible.
func (m *EditorModel) moveCursorTo(id string) {
	for i, n := range m.nodes {
		if n.ID == id {
			m.cursor = i
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
			return
		}
	}
}

// current returns the node under the cursor.
func (m EditorModel) current() (mindmap.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return mindmap.Node{}, false
	}
	return m.nodes[m.cursor], true
}
