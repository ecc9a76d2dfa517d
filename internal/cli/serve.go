package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/internal/api"
	"github.com/jholzmann/canopy/pkg/mindmap"
	"github.com/jholzmann/canopy/pkg/storage"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [map-id]",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server over one map.

With a map ID the saved map is loaded; without one a new empty map is
created. Every mutation is persisted automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapID := ""
			if len(args) == 1 {
				mapID = args[0]
			}
			return c.runServe(cmd.Context(), mapID, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the provider response cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, mapID, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := c.newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var (
		store *mindmap.Store
		name  string
	)
	if mapID == "" {
		mapID = uuid.NewString()
		name = "untitled"
		store = mindmap.NewStore(nil)
		c.Logger.Info("created new map", "map", mapID)
	} else {
		if store, name, err = c.openMap(ctx, st, mapID); err != nil {
			return err
		}
		c.Logger.Info("loaded map", "map", mapID, "name", name, "nodes", store.Len())
	}
	store.Subscribe(storage.AutoSaver(st, mapID, name, c.Logger))

	orch, err := c.newOrchestrator(ctx, cfg, store, noCache, nil)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.New(store, orch, c.Logger, cfg.Gen.UserContext).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr, "map", mapID)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		c.Logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
