package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
)

// stubProvider returns canned responses for every call.
type stubProvider struct{}

func (stubProvider) DeriveTitle(ctx context.Context, prompt string) (string, error) {
	return "Stub Topic", nil
}

func (stubProvider) ListChapters(ctx context.Context, topic, userContext string) ([]gen.Chapter, error) {
	return []gen.Chapter{{Title: "One", Summary: "s"}}, nil
}

func (stubProvider) ListSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]gen.Subchapter, error) {
	return []gen.Subchapter{{Title: "Sub", LearningPoints: []string{"p"}}}, nil
}

func (stubProvider) ExplainPoint(ctx context.Context, subchapterTitle, userContext, point string) (gen.Detail, error) {
	return gen.Detail{Title: point, Explanation: "e"}, nil
}

func newTestServer() (*mindmap.Store, http.Handler) {
	store := mindmap.NewStore(nil)
	orch := gen.New(store, stubProvider{}, gen.WithDelay(0))
	s := New(store, orch, log.New(io.Discard), "")
	return store, s.Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAddRootAndListNodes(t *testing.T) {
	_, h := newTestServer()

	rec := doJSON(t, h, http.MethodPost, "/api/roots", `{"title":"Algebra","x":10,"y":20}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created mindmap.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Title != "Algebra" || created.Type != mindmap.TypeRoot {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/nodes", "")
	var resp struct {
		Nodes []mindmap.Node `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Nodes) != 1 {
		t.Errorf("node count = %d, want 1", len(resp.Nodes))
	}
}

func TestVisibleEndpointHonorsCollapse(t *testing.T) {
	store, h := newTestServer()
	root := store.AddRoot("Topic", mindmap.Position{})
	store.AddChild(root.ID, mindmap.ChildSpec{Title: "child"})

	rec := doJSON(t, h, http.MethodPost, "/api/nodes/"+root.ID+"/collapse", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("collapse status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/nodes/visible", "")
	var resp struct {
		Nodes []mindmap.Node `json:"nodes"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Nodes) != 1 {
		t.Errorf("visible count = %d, want 1", len(resp.Nodes))
	}
}

func TestAddChildUnknownParent(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, http.MethodPost, "/api/nodes/ghost/children", `{"title":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteNode(t *testing.T) {
	store, h := newTestServer()
	root := store.AddRoot("Topic", mindmap.Position{})
	child, _ := store.AddChild(root.ID, mindmap.ChildSpec{Title: "c"})

	rec := doJSON(t, h, http.MethodDelete, "/api/nodes/"+child.ID+"/", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := store.Get(child.ID); ok {
		t.Error("node survived delete")
	}
}

func TestExpandUnknownNode(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, http.MethodPost, "/api/nodes/ghost/expand", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLearnRequiresPrompt(t *testing.T) {
	_, h := newTestServer()
	rec := doJSON(t, h, http.MethodPost, "/api/learn", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEditTitle(t *testing.T) {
	store, h := newTestServer()
	root := store.AddRoot("Old", mindmap.Position{})

	rec := doJSON(t, h, http.MethodPut, "/api/nodes/"+root.ID+"/title", `{"title":"New"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	got, _ := store.Get(root.ID)
	if got.Title != "New" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestExportDOT(t *testing.T) {
	store, h := newTestServer()
	store.AddRoot("Topic", mindmap.Position{})

	rec := doJSON(t, h, http.MethodGet, "/api/export.dot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Topic") {
		t.Error("DOT output missing root label")
	}
}
