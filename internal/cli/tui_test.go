package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func newTestEditor() (*mindmap.Store, EditorModel) {
	store := mindmap.NewStore(nil)
	root := store.AddRoot("Topic", mindmap.Position{})
	store.AddChild(root.ID, mindmap.ChildSpec{Title: "child one"})
	store.AddChild(root.ID, mindmap.ChildSpec{Title: "child two"})

	orch := gen.New(store, nil, gen.WithDelay(0))
	return store, NewEditorModel(store, orch, "Topic", "")
}

func update(m EditorModel, msg tea.Msg) EditorModel {
	next, _ := m.Update(msg)
	return next.(EditorModel)
}

func TestEditorNavigation(t *testing.T) {
	_, m := newTestEditor()

	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d", m.cursor)
	}
	m = update(m, keyMsg("j"))
	m = update(m, keyMsg("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	// Clamped at the last row.
	m = update(m, keyMsg("j"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}
	m = update(m, keyMsg("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestEditorCollapseTogglesVisibility(t *testing.T) {
	store, m := newTestEditor()

	// Collapse the root: children disappear from the visible list.
	m = update(m, keyMsg(" "))
	m = update(m, refreshMsg{})
	if len(m.nodes) != 1 {
		t.Errorf("visible rows = %d, want 1", len(m.nodes))
	}
	if len(store.Visible()) != 1 {
		t.Errorf("store visible = %d, want 1", len(store.Visible()))
	}

	m = update(m, keyMsg(" "))
	m = update(m, refreshMsg{})
	if len(m.nodes) != 3 {
		t.Errorf("visible rows = %d, want 3", len(m.nodes))
	}
}

func TestEditorDeleteRefusesRoot(t *testing.T) {
	store, m := newTestEditor()

	m = update(m, keyMsg("d"))
	m = update(m, refreshMsg{})
	if store.Len() != 3 {
		t.Errorf("root was deleted: len = %d", store.Len())
	}
}

func TestEditorDeleteRemovesChild(t *testing.T) {
	store, m := newTestEditor()

	m = update(m, keyMsg("j"))
	m = update(m, keyMsg("d"))
	m = update(m, refreshMsg{})
	if store.Len() != 2 {
		t.Errorf("len = %d, want 2", store.Len())
	}
	if len(m.nodes) != 2 {
		t.Errorf("visible rows = %d, want 2", len(m.nodes))
	}
}

func TestEditorTitleEditing(t *testing.T) {
	store, m := newTestEditor()

	m = update(m, keyMsg("j"))
	m = update(m, keyMsg("e"))
	if !m.editing {
		t.Fatal("not in editing mode")
	}

	// Clear the seeded title, type a new one, commit.
	for range "child one" {
		m = update(m, keyMsg("backspace"))
	}
	for _, r := range "renamed" {
		m = update(m, keyMsg(string(r)))
	}
	m = update(m, keyMsg("enter"))
	m = update(m, refreshMsg{})

	if m.editing {
		t.Error("still editing after commit")
	}
	id := m.nodes[1].ID
	got, _ := store.Get(id)
	if got.Title != "renamed" {
		t.Errorf("title = %q, want %q", got.Title, "renamed")
	}
}

func TestEditorAddChildMovesCursor(t *testing.T) {
	store, m := newTestEditor()

	m = update(m, keyMsg("a"))
	if store.Len() != 4 {
		t.Fatalf("len = %d, want 4", store.Len())
	}
	n, ok := m.current()
	if !ok || n.Title != "New node" {
		t.Errorf("cursor not on new child: %+v", n)
	}
}

func TestEditorViewShowsTree(t *testing.T) {
	_, m := newTestEditor()
	view := m.View()

	for _, want := range []string{"Topic", "child one", "child two"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
