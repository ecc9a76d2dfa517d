package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/mindmap"
)

// mapsCommand creates the maps management command.
func (c *CLI) mapsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maps",
		Short: "List, inspect, and delete saved maps",
	}

	cmd.AddCommand(c.mapsListCommand())
	cmd.AddCommand(c.mapsShowCommand())
	cmd.AddCommand(c.mapsDeleteCommand())

	return cmd
}

// mapsListCommand creates the "maps list" subcommand.
func (c *CLI) mapsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved maps, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMapsList(cmd.Context())
		},
	}
}

func (c *CLI) runMapsList(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	snaps, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		printInfo("No saved maps")
		printNextStep("Create one", `canopy learn "your topic"`)
		return nil
	}

	for _, snap := range snaps {
		fmt.Println(StyleValue.Render(snap.Name))
		printDetail("%s · %d nodes · %s", snap.ID, len(snap.Nodes), snap.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	return nil
}

// mapsShowCommand creates the "maps show" subcommand.
func (c *CLI) mapsShowCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show <map-id>",
		Short: "Print a map's tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMapsShow(cmd.Context(), args[0], all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include nodes hidden behind collapsed ancestors")

	return cmd
}

func (c *CLI) runMapsShow(ctx context.Context, mapID string, all bool) error {
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

	fmt.Println(StyleTitle.Render(name))
	printNewline()

	nodes := store.Visible()
	if all {
		nodes = store.Nodes()
	}
	byID := make(map[string]mindmap.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID != "" {
			if _, ok := byID[n.ParentID]; !ok {
				continue
			}
		}
		printTreeLine(n)
	}

	printNewline()
	printStats(store.Len(), len(store.Visible()))
	return nil
}

func printTreeLine(n mindmap.Node) {
	indent := strings.Repeat("  ", n.Level)
	marker := ""
	switch {
	case n.Loading:
		marker = " " + StyleWarning.Render("(generating)")
	case n.Collapsed:
		marker = " " + StyleDim.Render("[+]")
	}
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	if n.Type == mindmap.TypeRoot {
		fmt.Println(indent + StyleHighlight.Render(title) + marker)
		return
	}
	fmt.Println(indent + StyleValue.Render(title) + marker)
}

// mapsDeleteCommand creates the "maps delete" subcommand.
func (c *CLI) mapsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <map-id>",
		Short: "Delete a saved map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMapsDelete(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runMapsDelete(ctx context.Context, mapID string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(ctx, mapID); err != nil {
		return err
	}
	printSuccess("Deleted map %s", mapID)
	return nil
}
