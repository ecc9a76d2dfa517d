package gen

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jholzmann/canopy/pkg/errors"
	"github.com/jholzmann/canopy/pkg/mindmap"
)

// fakeProvider implements Provider with overridable call functions.
// Unset functions return canned successful responses.
type fakeProvider struct {
	deriveTitle     func(ctx context.Context, prompt string) (string, error)
	listChapters    func(ctx context.Context, topic, userContext string) ([]Chapter, error)
	listSubchapters func(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error)
	explainPoint    func(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error)
}

func (f *fakeProvider) DeriveTitle(ctx context.Context, prompt string) (string, error) {
	if f.deriveTitle != nil {
		return f.deriveTitle(ctx, prompt)
	}
	return "Canned Topic", nil
}

func (f *fakeProvider) ListChapters(ctx context.Context, topic, userContext string) ([]Chapter, error) {
	if f.listChapters != nil {
		return f.listChapters(ctx, topic, userContext)
	}
	return []Chapter{{Title: "Alpha", Summary: "a"}, {Title: "Beta", Summary: "b"}}, nil
}

func (f *fakeProvider) ListSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
	if f.listSubchapters != nil {
		return f.listSubchapters(ctx, topic, chapterTitle, userContext)
	}
	return []Subchapter{{Title: "Sub", LearningPoints: []string{"point"}}}, nil
}

func (f *fakeProvider) ExplainPoint(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
	if f.explainPoint != nil {
		return f.explainPoint(ctx, subchapterTitle, userContext, point)
	}
	return Detail{Title: point, Explanation: "because", CorePoints: []string{"core"}}, nil
}

var _ Provider = (*fakeProvider)(nil)

// newTestOrchestrator wires a fresh store, fake provider, and zero-delay
// orchestrator.
func newTestOrchestrator(p *fakeProvider) (*mindmap.Store, *Orchestrator) {
	store := mindmap.NewStore(nil)
	return store, New(store, p, WithDelay(0))
}

func TestLearnBuildsOutline(t *testing.T) {
	subCalls := 0
	p := &fakeProvider{
		deriveTitle: func(ctx context.Context, prompt string) (string, error) {
			return "Linear Algebra", nil
		},
		listChapters: func(ctx context.Context, topic, userContext string) ([]Chapter, error) {
			return []Chapter{
				{Title: "Vectors", Summary: "v"},
				{Title: "Matrices", Summary: "m"},
				{Title: "Spaces", Summary: "s"},
				{Title: "Eigenvalues", Summary: "e"},
				{Title: "Decompositions", Summary: "d"},
			}, nil
		},
		listSubchapters: func(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
			subCalls++
			return []Subchapter{
				{Title: "First", LearningPoints: []string{"p1"}},
				{Title: "Second", LearningPoints: []string{"p2"}},
			}, nil
		},
	}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("teach me linear algebra", mindmap.Position{})

	if err := orch.Learn(context.Background(), root.ID, "teach me linear algebra", ""); err != nil {
		t.Fatalf("Learn() error: %v", err)
	}

	got, _ := store.Get(root.ID)
	if got.Title != "Linear Algebra" {
		t.Errorf("root title = %q, want %q", got.Title, "Linear Algebra")
	}
	if got.Loading {
		t.Error("root still loading after Learn")
	}

	chapters := store.Children(root.ID)
	if len(chapters) != 5 {
		t.Fatalf("chapter count = %d, want 5", len(chapters))
	}
	if chapters[0].Title != "1. Vectors" || chapters[4].Title != "5. Decompositions" {
		t.Errorf("chapter numbering wrong: %q ... %q", chapters[0].Title, chapters[4].Title)
	}

	// Only the first AutoExpandLimit chapters enter the waterfall.
	if subCalls != AutoExpandLimit {
		t.Errorf("subchapter calls = %d, want %d", subCalls, AutoExpandLimit)
	}
	for i, ch := range chapters {
		kids := store.Children(ch.ID)
		if i < AutoExpandLimit {
			if len(kids) != 2 {
				t.Errorf("chapter %d children = %d, want 2", i+1, len(kids))
			}
			if ch.Collapsed {
				t.Errorf("auto-expanded chapter %d is still collapsed", i+1)
			}
		} else {
			if len(kids) != 0 {
				t.Errorf("chapter %d children = %d, want 0", i+1, len(kids))
			}
			if !ch.Collapsed {
				t.Errorf("non-expanded chapter %d is not collapsed", i+1)
			}
		}
	}

	// Subchapters inherit the chapter number.
	subs := store.Children(chapters[1].ID)
	if subs[0].Title != "2.1 First" || subs[1].Title != "2.2 Second" {
		t.Errorf("subchapter numbering wrong: %q, %q", subs[0].Title, subs[1].Title)
	}
}

func TestLearnDeriveTitleFailure(t *testing.T) {
	p := &fakeProvider{
		deriveTitle: func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("quota exceeded")
		},
	}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("prompt", mindmap.Position{})

	err := orch.Learn(context.Background(), root.ID, "prompt", "")
	if err == nil {
		t.Fatal("Learn() succeeded despite provider failure")
	}
	if errors.GetCode(err) != errors.ErrCodeProvider {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeProvider)
	}

	got, _ := store.Get(root.ID)
	if got.Loading {
		t.Error("loading flag survived the failed call")
	}
	if len(store.Children(root.ID)) != 0 {
		t.Error("failed Learn left children behind")
	}
}

func TestLearnChapterFailureIsolated(t *testing.T) {
	p := &fakeProvider{
		listChapters: func(ctx context.Context, topic, userContext string) ([]Chapter, error) {
			return []Chapter{{Title: "A"}, {Title: "B"}, {Title: "C"}}, nil
		},
		listSubchapters: func(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
			if strings.HasPrefix(chapterTitle, "2.") {
				return nil, fmt.Errorf("transient failure")
			}
			return []Subchapter{{Title: "Sub"}}, nil
		},
	}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("topic", mindmap.Position{})

	// A mid-waterfall failure is contained: Learn still succeeds.
	if err := orch.Learn(context.Background(), root.ID, "topic", ""); err != nil {
		t.Fatalf("Learn() error: %v", err)
	}

	chapters := store.Children(root.ID)
	if len(chapters) != 3 {
		t.Fatalf("chapter count = %d, want 3", len(chapters))
	}
	if n := len(store.Children(chapters[0].ID)); n != 1 {
		t.Errorf("chapter 1 children = %d, want 1", n)
	}
	if n := len(store.Children(chapters[1].ID)); n != 0 {
		t.Errorf("failed chapter children = %d, want 0", n)
	}
	if n := len(store.Children(chapters[2].ID)); n != 1 {
		t.Errorf("chapter 3 children = %d, want 1", n)
	}
	if chapters[1].Loading {
		t.Error("failed chapter left loading")
	}
}

func TestExpandSubchapterFillsPlaceholders(t *testing.T) {
	p := &fakeProvider{
		explainPoint: func(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
			if point == "p2" {
				return Detail{}, fmt.Errorf("model hiccup")
			}
			return Detail{Title: strings.ToUpper(point), Explanation: "expl " + point}, nil
		},
	}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("topic", mindmap.Position{})
	chapter, _ := store.AddChild(root.ID, mindmap.ChildSpec{Title: "1. Ch"})
	sub, _ := store.AddChild(chapter.ID, mindmap.ChildSpec{
		Title: "1.1 Sub",
		Data:  mindmap.Payload{LearningPoints: []string{"p1", "p2", "p3", "p4"}},
	})

	if err := orch.ExpandSubchapter(context.Background(), sub.ID, ""); err != nil {
		t.Fatalf("ExpandSubchapter() error: %v", err)
	}

	details := store.Children(sub.ID)
	if len(details) != 4 {
		t.Fatalf("detail count = %d, want 4", len(details))
	}
	for i, d := range details {
		if d.Loading {
			t.Errorf("detail %d still loading", i)
		}
		if d.Type != mindmap.TypeDetail {
			t.Errorf("detail %d type = %v", i, d.Type)
		}
	}

	// The failed point is marked, the rest are filled in.
	if details[1].Title != FailedTitle {
		t.Errorf("failed detail title = %q, want %q", details[1].Title, FailedTitle)
	}
	if details[1].Data.Explanation != "" {
		t.Error("failed detail carries an explanation")
	}
	if details[0].Title != "P1" || details[0].Data.Explanation != "expl p1" {
		t.Errorf("detail 0 = %q / %q", details[0].Title, details[0].Data.Explanation)
	}
	if details[3].Data.Explanation != "expl p4" {
		t.Errorf("detail 3 explanation = %q", details[3].Data.Explanation)
	}
}

func TestExpandSubchapterWithoutPoints(t *testing.T) {
	p := &fakeProvider{}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("topic", mindmap.Position{})
	chapter, _ := store.AddChild(root.ID, mindmap.ChildSpec{Title: "1. Ch"})
	sub, _ := store.AddChild(chapter.ID, mindmap.ChildSpec{Title: "1.1 Sub"})

	if err := orch.ExpandSubchapter(context.Background(), sub.ID, ""); err != nil {
		t.Fatalf("ExpandSubchapter() error: %v", err)
	}

	// The subchapter's own title stands in as the single learning point.
	details := store.Children(sub.ID)
	if len(details) != 1 {
		t.Fatalf("detail count = %d, want 1", len(details))
	}
	if details[0].Data.Explanation == "" {
		t.Error("detail not filled in")
	}
}

func TestExpandChapterUsesOwnNumber(t *testing.T) {
	p := &fakeProvider{
		listSubchapters: func(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
			return []Subchapter{{Title: "Interference"}, {Title: "Diffraction"}}, nil
		},
	}
	store, orch := newTestOrchestrator(p)
	root := store.AddRoot("Physics", mindmap.Position{})
	chapter, _ := store.AddChild(root.ID, mindmap.ChildSpec{Title: "4. Waves"})

	if err := orch.ExpandChapter(context.Background(), chapter.ID, ""); err != nil {
		t.Fatalf("ExpandChapter() error: %v", err)
	}

	subs := store.Children(chapter.ID)
	if len(subs) != 2 {
		t.Fatalf("subchapter count = %d, want 2", len(subs))
	}
	if subs[0].Title != "4.1 Interference" || subs[1].Title != "4.2 Diffraction" {
		t.Errorf("numbering wrong: %q, %q", subs[0].Title, subs[1].Title)
	}
}

func TestExpandDetailUnsupported(t *testing.T) {
	store, orch := newTestOrchestrator(&fakeProvider{})
	root := store.AddRoot("topic", mindmap.Position{})
	chapter, _ := store.AddChild(root.ID, mindmap.ChildSpec{Title: "1. Ch"})
	sub, _ := store.AddChild(chapter.ID, mindmap.ChildSpec{Title: "1.1 Sub"})
	detail, _ := store.AddChild(sub.ID, mindmap.ChildSpec{Title: "d"})

	err := orch.Expand(context.Background(), detail.ID, "")
	if errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeUnsupported)
	}
}

func TestExpandUnknownNode(t *testing.T) {
	store, orch := newTestOrchestrator(&fakeProvider{})
	store.AddRoot("topic", mindmap.Position{})

	err := orch.Expand(context.Background(), "ghost", "")
	if errors.GetCode(err) != errors.ErrCodeNodeNotFound {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeNodeNotFound)
	}
}

func TestLearnEmitsWaterfallEvents(t *testing.T) {
	events := make(chan Event, 16)
	store := mindmap.NewStore(nil)
	orch := New(store, &fakeProvider{}, WithDelay(0), WithEvents(events))
	root := store.AddRoot("topic", mindmap.Position{})

	if err := orch.Learn(context.Background(), root.ID, "topic", ""); err != nil {
		t.Fatalf("Learn() error: %v", err)
	}
	close(events)

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	// The canned provider returns two chapters, so the waterfall runs twice.
	if len(got) != 2 {
		t.Fatalf("event count = %d, want 2", len(got))
	}
	for i, ev := range got {
		if ev.Kind != KindListSubchapters || ev.Step != i+1 || ev.Total != 2 || ev.Err != nil {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
}
