package export

import (
	"strings"
	"testing"

	"github.com/jholzmann/canopy/pkg/mindmap"
)

func exportFixture() []mindmap.Node {
	return []mindmap.Node{
		{ID: "r", Type: mindmap.TypeRoot, Title: "Topic"},
		{ID: "a", ParentID: "r", Type: mindmap.TypeChapter, Title: "1. Alpha", Level: 1},
		{ID: "a1", ParentID: "a", Type: mindmap.TypeSubchapter, Title: "1.1 Sub", Level: 2},
		{ID: "b", ParentID: "r", Type: mindmap.TypeChapter, Title: "2. Beta", Level: 1},
	}
}

func TestToDOTIncludesVisibleNodes(t *testing.T) {
	dot := ToDOT(exportFixture(), Options{})

	for _, want := range []string{"Topic", "1. Alpha", "1.1 Sub", "2. Beta"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing label %q", want)
		}
	}
	if !strings.Contains(dot, `"r" -> "a"`) || !strings.Contains(dot, `"a" -> "a1"`) {
		t.Error("DOT missing parent edges")
	}
}

func TestToDOTOmitsCollapsedSubtrees(t *testing.T) {
	nodes := exportFixture()
	nodes[1].Collapsed = true // a

	dot := ToDOT(nodes, Options{})

	if strings.Contains(dot, "1.1 Sub") {
		t.Error("hidden node exported")
	}
	if strings.Contains(dot, `"a" -> "a1"`) {
		t.Error("edge to hidden node exported")
	}
	// The collapsed node itself stays visible.
	if !strings.Contains(dot, "1. Alpha") {
		t.Error("collapsed node missing")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	dot := ToDOT(exportFixture(), Options{Detailed: true})
	if !strings.Contains(dot, "chapter") || !strings.Contains(dot, "level 1") {
		t.Error("detailed labels missing type or level")
	}
}

func TestToDOTStylesLoadingNodes(t *testing.T) {
	nodes := exportFixture()
	nodes[3].Loading = true // b

	dot := ToDOT(nodes, Options{})
	if !strings.Contains(dot, "dashed") {
		t.Error("loading node not rendered dashed")
	}
}
