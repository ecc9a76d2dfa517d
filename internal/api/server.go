// Package api implements the canopy HTTP API served by `canopy serve`.
//
// The API exposes the tree store (full and visible node sets), every
// mutation operation, generation triggers, and Graphviz export. Generation
// runs on a background goroutine, one batch at a time, mirroring the
// orchestrator's bounded sequential fan-out.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	canopyerrors "github.com/jholzmann/canopy/pkg/errors"
	"github.com/jholzmann/canopy/pkg/export"
	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
)

// Server handles HTTP requests against one mind map.
type Server struct {
	store       *mindmap.Store
	orch        *gen.Orchestrator
	logger      *log.Logger
	userContext string

	// genMu serializes generation batches: the orchestrator contract
	// forbids concurrent sibling expansions.
	genMu sync.Mutex
}

// New creates an API server over the given store and orchestrator.
func New(store *mindmap.Store, orch *gen.Orchestrator, logger *log.Logger, userContext string) *Server {
	return &Server{
		store:       store,
		orch:        orch,
		logger:      logger,
		userContext: userContext,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/nodes", s.handleNodes)
		r.Get("/nodes/visible", s.handleVisibleNodes)
		r.Post("/roots", s.handleAddRoot)
		r.Post("/learn", s.handleLearn)

		r.Route("/nodes/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDelete)
			r.Post("/children", s.handleAddChild)
			r.Put("/title", s.handleEditTitle)
			r.Post("/collapse", s.handleToggleCollapse)
			r.Post("/content", s.handleToggleContent)
			r.Put("/position", s.handleReposition)
			r.Post("/expand", s.handleExpand)
		})

		r.Get("/export.dot", s.handleExportDOT)
		r.Get("/export.svg", s.handleExportSVG)
	})

	return r
}

// =============================================================================
// Read Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"nodes": s.store.Nodes()})
}

func (s *Server) handleVisibleNodes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"nodes": s.store.Visible()})
}

// =============================================================================
// Mutation Handlers
// =============================================================================

func (s *Server) handleAddRoot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string  `json:"title"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		req.Title = "New topic"
	}
	n := s.store.AddRoot(req.Title, mindmap.Position{X: req.X, Y: req.Y})
	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, ok := s.store.AddChild(chi.URLParam(r, "id"), mindmap.ChildSpec{Title: req.Title})
	if !ok {
		respondError(w, canopyerrors.New(canopyerrors.ErrCodeNodeNotFound, "unknown parent node"))
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	// Cascade delete; unknown IDs are a silent no-op by design.
	s.store.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.store.EditTitle(chi.URLParam(r, "id"), req.Title)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleCollapse(w http.ResponseWriter, r *http.Request) {
	s.store.ToggleCollapse(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleContent(w http.ResponseWriter, r *http.Request) {
	s.store.ToggleContent(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReposition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.store.Reposition(chi.URLParam(r, "id"), mindmap.Position{X: req.X, Y: req.Y})
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Generation Handlers
// =============================================================================

// handleLearn creates a new root from a free-text prompt and starts the
// full root expansion in the background.
func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string  `json:"prompt"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		respondError(w, canopyerrors.New(canopyerrors.ErrCodeInvalidInput, "prompt is required"))
		return
	}

	root := s.store.AddRoot(req.Prompt, mindmap.Position{X: req.X, Y: req.Y})
	// The batch outlives the request; detach from its cancellation.
	ctx := context.WithoutCancel(r.Context())
	go s.runBatch(func() error {
		return s.orch.Learn(ctx, root.ID, req.Prompt, s.userContext)
	})
	respondJSON(w, http.StatusAccepted, root)
}

// handleExpand triggers the type-appropriate expansion for one node.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Get(id); !ok {
		respondError(w, canopyerrors.New(canopyerrors.ErrCodeNodeNotFound, "unknown node"))
		return
	}
	ctx := context.WithoutCancel(r.Context())
	go s.runBatch(func() error {
		return s.orch.Expand(ctx, id, s.userContext)
	})
	w.WriteHeader(http.StatusAccepted)
}

// runBatch serializes generation batches and logs failures; a failed batch
// has already reverted its transient node state.
func (s *Server) runBatch(fn func() error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if err := fn(); err != nil {
		s.logger.Warn("generation batch failed", "err", err)
	}
}

// =============================================================================
// Export Handlers
// =============================================================================

func (s *Server) handleExportDOT(w http.ResponseWriter, r *http.Request) {
	dot := export.ToDOT(s.store.Nodes(), export.Options{})
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleExportSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := export.RenderSVG(export.ToDOT(s.store.Nodes(), export.Options{}))
	if err != nil {
		respondError(w, canopyerrors.Wrap(canopyerrors.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// =============================================================================
// JSON Helpers
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondError(w, canopyerrors.Wrap(canopyerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps structured error codes to HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch canopyerrors.GetCode(err) {
	case canopyerrors.ErrCodeInvalidInput, canopyerrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case canopyerrors.ErrCodeNodeNotFound, canopyerrors.ErrCodeMapNotFound, canopyerrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case canopyerrors.ErrCodeUnsupported:
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, map[string]any{
		"error": canopyerrors.UserMessage(err),
		"code":  canopyerrors.GetCode(err),
	})
}
