// Package gen drives content generation for the canopy knowledge tree.
//
// The package has two halves:
//
//   - [Provider], the contract consumed from an external generative content
//     provider (four structured request/response operations), with a Gemini
//     implementation and a caching wrapper
//   - [Orchestrator], which sequences provider calls per node type, splices
//     results into the tree store, and manages per-node loading state and
//     partial-failure recovery
//
// All expansion batches are strictly sequential: the orchestrator awaits
// each provider call, writes its result back, pauses a fixed delay, then
// issues the next request. Outstanding requests per batch are bounded at
// one, and write-back order is deterministic.
package gen

import "context"

// =============================================================================
// Provider Call Kinds
// =============================================================================

// Provider call kinds, used for hooks, cache keys, and event reporting.
const (
	KindDeriveTitle     = "derive_title"
	KindListChapters    = "list_chapters"
	KindListSubchapters = "list_subchapters"
	KindExplainPoint    = "explain_point"
)

// =============================================================================
// Structured Results
// =============================================================================

// Chapter is a single entry of a ListChapters response.
type Chapter struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Subchapter is a single entry of a ListSubchapters response.
type Subchapter struct {
	Title          string   `json:"title"`
	LearningPoints []string `json:"learning_points"`
}

// Detail is an ExplainPoint response: a focused explanation of one
// learning point.
type Detail struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	CorePoints  []string `json:"core_points"`
}

// =============================================================================
// Provider Interface
// =============================================================================

// Provider is the external generative content provider consumed by the
// orchestrator. Every method is a blocking request/response call; empty or
// malformed responses surface as errors carrying the PROVIDER_* codes from
// pkg/errors and are always recoverable per step, never fatal.
//
// The provider chooses result counts heuristically (e.g., how many chapters
// a topic warrants); the orchestrator imposes no ceiling of its own.
type Provider interface {
	// DeriveTitle condenses a free-text prompt into a short canonical
	// topic title.
	DeriveTitle(ctx context.Context, prompt string) (string, error)

	// ListChapters returns the chapter entries for a topic.
	ListChapters(ctx context.Context, topic, userContext string) ([]Chapter, error)

	// ListSubchapters returns the subchapter entries for one chapter of
	// a topic.
	ListSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error)

	// ExplainPoint returns a detailed explanation for a single learning
	// point of a subchapter.
	ExplainPoint(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error)
}
