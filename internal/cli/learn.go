package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
	"github.com/jholzmann/canopy/pkg/storage"
)

// learnCommand creates the learn command for generating a new mind map.
func (c *CLI) learnCommand() *cobra.Command {
	var (
		userContext string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "learn <topic>",
		Short: "Generate a new mind map from a topic",
		Long: `Generate a new mind map from a free-text topic.

The topic is turned into a canonical title, a chapter outline is generated,
and the first chapters are expanded automatically. The resulting map is
saved and can be opened with "canopy edit".`,
		Example: `  canopy learn "linear algebra"
  canopy learn --context "high school student" "photosynthesis"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLearn(cmd.Context(), strings.Join(args, " "), userContext, noCache)
		},
	}

	cmd.Flags().StringVar(&userContext, "context", "", "audience hint passed to the generator (e.g. \"undergraduate\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the provider response cache")

	return cmd
}

func (c *CLI) runLearn(ctx context.Context, prompt, userContext string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if userContext == "" {
		userContext = cfg.Gen.UserContext
	}

	st, err := c.newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	store := mindmap.NewStore(nil)
	events := make(chan gen.Event, 16)
	orch, err := c.newOrchestrator(ctx, cfg, store, noCache, events)
	if err != nil {
		return err
	}

	root := store.AddRoot(prompt, mindmap.Position{})

	spinner := newSpinnerWithContext(ctx, "Generating outline...")
	spinner.Start()

	// Event drain: the orchestrator reports each completed waterfall step.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			if ev.Err != nil {
				continue
			}
			spinner.SetMessage(fmt.Sprintf("Expanding chapters... (%d/%d)", ev.Step, ev.Total))
		}
	}()

	tracker := newProgress(c.Logger)
	err = orch.Learn(ctx, root.ID, prompt, userContext)
	close(events)
	<-drained

	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Generation failed")
		return err
	}

	title := prompt
	if n, ok := store.Get(root.ID); ok {
		title = n.Title
	}
	spinner.StopWithSuccess(fmt.Sprintf("Generated %s", StyleHighlight.Render(title)))
	tracker.done(fmt.Sprintf("Generated %d nodes", store.Len()))

	for _, n := range store.Nodes() {
		if n.Title == gen.FailedTitle {
			printWarning("Some nodes failed to generate; expand them again with \"canopy expand\"")
			break
		}
	}

	mapID := uuid.NewString()
	snap := &storage.Snapshot{
		ID:        mapID,
		Name:      title,
		UpdatedAt: time.Now().UTC(),
		Nodes:     store.Nodes(),
	}
	if err := st.Save(ctx, snap); err != nil {
		return err
	}

	printStats(store.Len(), len(store.Visible()))
	printNewline()
	printNextStep("Open the editor", "canopy edit "+mapID)
	printNextStep("Export as SVG", "canopy export --format svg "+mapID)
	return nil
}
