package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/storage"
)

// expandCommand creates the expand command for generating children of one node.
func (c *CLI) expandCommand() *cobra.Command {
	var (
		userContext string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "expand <map-id> <node-id>",
		Short: "Generate children for one node of a saved map",
		Long: `Generate children for one node of a saved map.

The generation step depends on the node's type: chapters get a subchapter
outline, subchapters get one explained detail per learning point. Detail
nodes are terminal and cannot be expanded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExpand(cmd.Context(), args[0], args[1], userContext, noCache)
		},
	}

	cmd.Flags().StringVar(&userContext, "context", "", "audience hint passed to the generator")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the provider response cache")

	return cmd
}

func (c *CLI) runExpand(ctx context.Context, mapID, nodeID, userContext string, noCache bool) error {
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

	store, name, err := c.openMap(ctx, st, mapID)
	if err != nil {
		return err
	}

	orch, err := c.newOrchestrator(ctx, cfg, store, noCache, nil)
	if err != nil {
		return err
	}

	before := store.Len()
	spinner := newSpinnerWithContext(ctx, "Expanding node...")
	spinner.Start()

	if err := orch.Expand(ctx, nodeID, userContext); err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Expansion failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Added %d nodes", store.Len()-before))

	snap := &storage.Snapshot{
		ID:        mapID,
		Name:      name,
		UpdatedAt: time.Now().UTC(),
		Nodes:     store.Nodes(),
	}
	if err := st.Save(ctx, snap); err != nil {
		return err
	}

	printStats(store.Len(), len(store.Visible()))
	return nil
}
