package gen

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jholzmann/canopy/pkg/errors"
	"github.com/jholzmann/canopy/pkg/mindmap"
	"github.com/jholzmann/canopy/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultStepDelay paces sequential expansion batches: each provider
	// call in a batch is separated from the next by this pause.
	DefaultStepDelay = 400 * time.Millisecond

	// AutoExpandLimit caps how many of a new root's chapters enter the
	// automatic sub-expansion waterfall. Chapters beyond the limit stay
	// childless until manually triggered.
	AutoExpandLimit = 3

	// FailedTitle marks a placeholder whose generation call failed.
	// A failed item needs a fresh manual trigger; there is no auto-retry.
	FailedTitle = "⚠ generation failed"
)

// =============================================================================
// Events
// =============================================================================

// Event reports a completed orchestrator step. Events let a UI react to a
// running batch (rerender, update spinners) without the orchestrator
// reaching into UI state; the store itself already notifies subscribers of
// every write-back.
type Event struct {
	Kind   string // provider call kind (KindListChapters, ...)
	NodeID string // node the step wrote to
	Step   int    // 1-based step within the batch
	Total  int    // batch size
	Err    error  // nil on success
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator sequences provider calls per node type and splices results
// into the tree store.
//
// Expansion methods are synchronous: they run their whole batch (including
// pacing delays) before returning, so callers decide whether to run them on
// a background goroutine. Two expansions must not run concurrently for
// sibling nodes; the orchestrator itself never issues overlapping provider
// calls within one batch.
type Orchestrator struct {
	store    *mindmap.Store
	provider Provider
	delay    time.Duration
	logger   *log.Logger
	events   chan<- Event
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay overrides the pacing delay between batch steps.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithLogger attaches a logger for step-level progress.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithEvents attaches a channel receiving an Event per completed step.
// Sends are non-blocking; a full channel drops events rather than stalling
// the batch.
func WithEvents(ch chan<- Event) Option {
	return func(o *Orchestrator) { o.events = ch }
}

// New creates an orchestrator writing into store via provider.
func New(store *mindmap.Store, provider Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		provider: provider,
		delay:    DefaultStepDelay,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// =============================================================================
// Dispatch
// =============================================================================

// Expand runs the generation step appropriate for the node's type.
// Roots are expanded with their current title as the prompt; detail nodes
// are terminal and return ErrCodeUnsupported.
func (o *Orchestrator) Expand(ctx context.Context, nodeID, userContext string) error {
	n, ok := o.store.Get(nodeID)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s does not exist", nodeID)
	}
	switch n.Type {
	case mindmap.TypeRoot:
		return o.Learn(ctx, nodeID, n.Title, userContext)
	case mindmap.TypeChapter:
		return o.ExpandChapter(ctx, nodeID, userContext)
	case mindmap.TypeSubchapter:
		return o.ExpandSubchapter(ctx, nodeID, userContext)
	default:
		return errors.New(errors.ErrCodeUnsupported, "detail nodes have no further expansion")
	}
}

// =============================================================================
// Root Expansion
// =============================================================================

// Learn runs the full root flow: derive a canonical title from the
// free-text prompt, generate the chapter list (inserted collapsed, numbered
// sequentially), then auto-expand the first AutoExpandLimit chapters in a
// sequential, paced waterfall. A failure before any chapter exists is
// returned to the caller with the root's loading state reverted; a failure
// inside the waterfall is isolated to its chapter and the batch continues.
func (o *Orchestrator) Learn(ctx context.Context, rootID, prompt, userContext string) error {
	if _, ok := o.store.Get(rootID); !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s does not exist", rootID)
	}
	o.store.SetLoading(rootID, true)

	title, err := o.deriveTitle(ctx, prompt)
	if err != nil {
		o.store.SetLoading(rootID, false)
		return err
	}
	o.store.EditTitle(rootID, title)

	chapters, err := o.listChapters(ctx, title, userContext)
	if err != nil {
		o.store.SetLoading(rootID, false)
		return err
	}

	// The provider decides the chapter count; all of them are created,
	// collapsed, with orchestrator-assigned numbers.
	chapterIDs := make([]string, 0, len(chapters))
	for i, ch := range chapters {
		n, _ := o.store.AddChild(rootID, mindmap.ChildSpec{
			Title:     ChapterTitle(i+1, ch.Title),
			Data:      mindmap.Payload{Summary: ch.Summary},
			Collapsed: true,
		})
		chapterIDs = append(chapterIDs, n.ID)
	}
	o.store.SetLoading(rootID, false)

	// Waterfall: only the first few chapters expand automatically, one at
	// a time, paced by the step delay. Per-chapter failures clear that
	// chapter's loading flag and the batch moves on.
	limit := min(AutoExpandLimit, len(chapterIDs))
	for i := 0; i < limit; i++ {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				return err
			}
		}
		err := o.expandChapterNode(ctx, chapterIDs[i], i+1, title, userContext)
		o.emit(Event{Kind: KindListSubchapters, NodeID: chapterIDs[i], Step: i + 1, Total: limit, Err: err})
		if err != nil {
			o.logger.Warn("chapter expansion failed", "chapter", chapterIDs[i], "err", err)
		}
	}
	return nil
}

// =============================================================================
// Chapter Expansion
// =============================================================================

// ExpandChapter runs the manual single-request chapter flow: one
// ListSubchapters call, subchapters numbered from the chapter's own
// existing number.
func (o *Orchestrator) ExpandChapter(ctx context.Context, chapterID, userContext string) error {
	ch, ok := o.store.Get(chapterID)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s does not exist", chapterID)
	}
	number, ok := ParseChapterNumber(ch.Title)
	if !ok {
		number = o.siblingIndex(ch) + 1
	}
	return o.expandChapterNode(ctx, chapterID, number, o.topicFor(ch), userContext)
}

// expandChapterNode requests subchapters for one chapter and inserts them
// with hierarchical numbering. The chapter's loading flag brackets the
// call; insertion through AddChild un-collapses the chapter so the new
// subchapters are visible.
func (o *Orchestrator) expandChapterNode(ctx context.Context, chapterID string, number int, topic, userContext string) error {
	ch, ok := o.store.Get(chapterID)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s does not exist", chapterID)
	}

	o.store.SetLoading(chapterID, true)
	subs, err := o.listSubchapters(ctx, topic, ch.Title, userContext)
	if err != nil {
		o.store.SetLoading(chapterID, false)
		return err
	}

	for i, sub := range subs {
		o.store.AddChild(chapterID, mindmap.ChildSpec{
			Title: SubchapterTitle(number, i+1, sub.Title),
			Data:  mindmap.Payload{LearningPoints: sub.LearningPoints},
		})
	}
	o.store.SetLoading(chapterID, false)
	return nil
}

// =============================================================================
// Subchapter Expansion
// =============================================================================

// ExpandSubchapter creates one detail placeholder per learning point
// immediately (so the user sees loading shells before any provider
// response), then fills them in sequentially with paced ExplainPoint
// calls. A per-point failure marks that placeholder with FailedTitle,
// clears its loading flag, and the batch continues.
func (o *Orchestrator) ExpandSubchapter(ctx context.Context, subID, userContext string) error {
	sub, ok := o.store.Get(subID)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s does not exist", subID)
	}

	points := sub.Data.LearningPoints
	if len(points) == 0 {
		// A subchapter without learning points still expands: its own
		// title stands in as the single point.
		points = []string{sub.Title}
	}

	placeholderIDs := make([]string, len(points))
	for i, point := range points {
		n, _ := o.store.AddChild(subID, mindmap.ChildSpec{
			Title:   point,
			Loading: true,
		})
		placeholderIDs[i] = n.ID
	}

	for i, point := range points {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				return err
			}
		}

		detail, err := o.explainPoint(ctx, sub.Title, userContext, point)
		o.emit(Event{Kind: KindExplainPoint, NodeID: placeholderIDs[i], Step: i + 1, Total: len(points), Err: err})
		observability.Gen().OnBatchStep(ctx, KindExplainPoint, i+1, len(points), err)

		if err != nil {
			o.logger.Warn("point explanation failed", "point", point, "err", err)
			o.store.Update(placeholderIDs[i], func(n mindmap.Node) mindmap.Node {
				n.Title = FailedTitle
				n.Loading = false
				return n
			})
			continue
		}

		o.store.Update(placeholderIDs[i], func(n mindmap.Node) mindmap.Node {
			if detail.Title != "" {
				n.Title = detail.Title
			}
			n.Data.Explanation = detail.Explanation
			n.Data.CorePoints = detail.CorePoints
			n.Loading = false
			return n
		})
	}
	return nil
}

// =============================================================================
// Provider Calls (instrumented)
// =============================================================================

func (o *Orchestrator) deriveTitle(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	title, err := o.provider.DeriveTitle(ctx, prompt)
	observability.Gen().OnProviderCall(ctx, KindDeriveTitle, time.Since(start), err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeProvider, err, "derive title")
	}
	if title == "" {
		return "", errors.New(errors.ErrCodeProviderEmpty, "provider returned an empty title")
	}
	return title, nil
}

func (o *Orchestrator) listChapters(ctx context.Context, topic, userContext string) ([]Chapter, error) {
	start := time.Now()
	chapters, err := o.provider.ListChapters(ctx, topic, userContext)
	observability.Gen().OnProviderCall(ctx, KindListChapters, time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "list chapters for %q", topic)
	}
	if len(chapters) == 0 {
		return nil, errors.New(errors.ErrCodeProviderEmpty, "provider returned no chapters for %q", topic)
	}
	return chapters, nil
}

func (o *Orchestrator) listSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
	start := time.Now()
	subs, err := o.provider.ListSubchapters(ctx, topic, chapterTitle, userContext)
	observability.Gen().OnProviderCall(ctx, KindListSubchapters, time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "list subchapters for %q", chapterTitle)
	}
	if len(subs) == 0 {
		return nil, errors.New(errors.ErrCodeProviderEmpty, "provider returned no subchapters for %q", chapterTitle)
	}
	return subs, nil
}

func (o *Orchestrator) explainPoint(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
	start := time.Now()
	detail, err := o.provider.ExplainPoint(ctx, subchapterTitle, userContext, point)
	observability.Gen().OnProviderCall(ctx, KindExplainPoint, time.Since(start), err)
	if err != nil {
		return Detail{}, errors.Wrap(errors.ErrCodeProvider, err, "explain %q", point)
	}
	if detail.Explanation == "" {
		return Detail{}, errors.New(errors.ErrCodeProviderEmpty, "provider returned an empty explanation for %q", point)
	}
	return detail, nil
}

// =============================================================================
// Internal
// =============================================================================

// pause waits the configured step delay, honoring context cancellation.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.delay):
		return nil
	}
}

// emit sends an event without ever blocking the batch.
func (o *Orchestrator) emit(ev Event) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- ev:
	default:
	}
}

// siblingIndex returns the node's position among its parent's children.
func (o *Orchestrator) siblingIndex(n mindmap.Node) int {
	for i, sib := range o.store.Children(n.ParentID) {
		if sib.ID == n.ID {
			return i
		}
	}
	return 0
}

// topicFor walks up to the node's root and returns its title, stripping
// nothing: the root title is already canonical.
func (o *Orchestrator) topicFor(n mindmap.Node) string {
	cur := n
	for !cur.IsRoot() {
		parent, ok := o.store.Get(cur.ParentID)
		if !ok {
			break
		}
		cur = parent
	}
	return cur.Title
}
