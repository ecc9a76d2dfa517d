package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/mindmap"
	"github.com/jholzmann/canopy/pkg/storage"
)

// editCommand creates the edit command opening the interactive editor.
func (c *CLI) editCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "edit <map-id>",
		Short: "Open a map in the interactive terminal editor",
		Long: `Open a saved map in the interactive terminal editor.

Navigate the visible tree, collapse and expand branches, edit titles, add
and delete nodes, and trigger generation for the selected node. Changes
are persisted automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), args[0], noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the provider response cache")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, mapID string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
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
	store.Subscribe(storage.AutoSaver(st, mapID, name, c.Logger))

	orch, err := c.newOrchestrator(ctx, cfg, store, noCache, nil)
	if err != nil {
		return err
	}

	model := NewEditorModel(store, orch, name, cfg.Gen.UserContext)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Store notifications arrive on mutation goroutines; Send marshals
	// them back onto the bubbletea event loop.
	store.Subscribe(func([]mindmap.Node) { p.Send(refreshMsg{}) })

	_, err = p.Run()
	return err
}
