package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/errors"
	"github.com/jholzmann/canopy/pkg/export"
)

// exportCommand creates the export command for writing a map as Graphviz output.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "export <map-id>",
		Short: "Write a map as DOT, SVG, or PNG",
		Long: `Write the visible portion of a saved map as Graphviz output.

Nodes hidden behind a collapsed ancestor are omitted, matching what the
interactive editor shows.`,
		Example: `  canopy export --format svg 4f1c... -o algebra.svg
  canopy export --format dot 4f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], format, output, detailed)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, or png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <map-id>.<format>)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include node type and level in labels")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, mapID, format, output string, detailed bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	store, _, err := c.openMap(ctx, st, mapID)
	if err != nil {
		return err
	}

	dot := export.ToDOT(store.Nodes(), export.Options{Detailed: detailed})

	var data []byte
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg":
		if data, err = export.RenderSVG(dot); err != nil {
			return err
		}
	case "png":
		if data, err = export.RenderPNG(dot); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, or png)", format)
	}

	if output == "" {
		output = fmt.Sprintf("%s.%s", mapID, format)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Exported map")
	printFile(output)
	printStats(store.Len(), len(store.Visible()))
	return nil
}
