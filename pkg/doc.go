// Package pkg provides the core libraries for Canopy mind maps.
//
// # Overview
//
// Canopy turns a learning topic into a hierarchical mind map: a root topic,
// numbered chapters, subchapters with learning points, and fully explained
// detail nodes. The pkg directory is organized into five main areas:
//
//  1. [mindmap] - Domain logic (tree store, layout, visibility, mutations)
//  2. [gen] - Generation (provider interface, orchestrator, numbering)
//  3. [storage] / [cache] - Persistence and provider response caching
//  4. [export] - Graphviz output (DOT, SVG, PNG)
//  5. [config] / [errors] / [observability] - Shared infrastructure
//
// # Architecture
//
// The typical data flow through Canopy:
//
//	Topic prompt
//	     ↓
//	[gen] package (provider calls sequenced by the orchestrator)
//	     ↓
//	[mindmap] package (tree store: mutate → layout → notify)
//	     ↓
//	[storage] package (snapshot autosave) / [export] package (SVG/PNG)
//
// # Quick Start
//
// Build a map by hand and lay it out:
//
//	import "github.com/jholzmann/canopy/pkg/mindmap"
//
//	store := mindmap.NewStore(nil)
//	root := store.AddRoot("Linear Algebra", mindmap.Position{})
//	store.AddChild(root.ID, mindmap.ChildSpec{Title: "1. Vectors"})
//	for _, n := range store.Visible() {
//	    fmt.Println(n.Title, n.Position)
//	}
//
// Generate one with a provider:
//
//	provider, _ := gen.NewGeminiProvider(ctx, apiKey, gen.DefaultModel)
//	orch := gen.New(store, provider)
//	_ = orch.Learn(ctx, root.ID, "linear algebra", "undergraduate")
//
// # Main Packages
//
// ## Core Domain Logic
//
// [mindmap] - The tree store and its pure helpers. Nodes form a forest keyed
// by parent references; Layout assigns indented-tree positions, Visible
// filters out nodes behind collapsed ancestors, and the Store serializes
// mutations, re-runs layout, and notifies subscribers.
//
// [gen] - Content generation. Provider is the four-call interface
// (DeriveTitle, ListChapters, ListSubchapters, ExplainPoint); the
// Orchestrator sequences calls per node type with pacing, auto-expand
// limits, and per-item failure isolation. Numbering helpers keep chapter
// and subchapter titles hierarchical.
//
// ## Infrastructure
//
// [storage] - Snapshot persistence with file (CLI) and MongoDB (server)
// backends. AutoSaver subscribes to the store so saving reacts to mutations.
//
// [cache] - Provider response cache with file, Redis, and null backends.
// Keys are content hashes of the call kind and inputs.
//
// [config] - TOML configuration with XDG paths and environment overrides.
//
// [errors] - Structured errors with machine-readable codes.
//
// [observability] - Pluggable hooks for store mutations, layout timing,
// provider calls, and cache activity.
//
// ## Output
//
// [export] - Graphviz export of the visible tree (DOT, SVG, PNG).
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/mindmap/...  # Specific package
//
// [mindmap]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/mindmap
// [gen]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/gen
// [storage]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/storage
// [cache]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/cache
// [config]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/config
// [errors]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/errors
// [observability]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/observability
// [export]: https://pkg.go.dev/github.com/jholzmann/canopy/pkg/export
package pkg
