// Package cli implements the canopy command-line interface.
//
// This package provides commands for generating mind maps from a topic,
// expanding individual nodes, editing a map interactively, exporting maps
// as Graphviz output, and serving the HTTP API. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - learn: Generate a new mind map from a free-text topic
//   - expand: Generate children for one node of a saved map
//   - edit: Open a map in the interactive terminal editor
//   - maps: List, inspect, and delete saved maps
//   - export: Write a map as DOT, SVG, or PNG
//   - serve: Run the HTTP API server
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jholzmann/canopy/pkg/buildinfo"
	"github.com/jholzmann/canopy/pkg/cache"
	"github.com/jholzmann/canopy/pkg/config"
	"github.com/jholzmann/canopy/pkg/errors"
	"github.com/jholzmann/canopy/pkg/gen"
	"github.com/jholzmann/canopy/pkg/mindmap"
	"github.com/jholzmann/canopy/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location (--config).
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "canopy",
		Short:        "Canopy generates and edits learning mind maps",
		Long:         `Canopy is a CLI tool for building hierarchical learning mind maps. It generates chapters, subchapters, and explanations for any topic, lays them out as an indented tree, and lets you expand, collapse, and edit the map interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file path")

	// Register all subcommands
	root.AddCommand(c.learnCommand())
	root.AddCommand(c.expandCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.mapsCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Component Factories
// =============================================================================

// loadConfig reads the config file honoring the --config override.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.ConfigPath)
}

// newSnapshotStore builds the snapshot store named by the config.
func (c *CLI) newSnapshotStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return storage.NewFileStore(cfg.Storage.Dir)
	case "mongo":
		return storage.NewMongoStore(ctx, storage.MongoConfig{
			URI:      cfg.Storage.MongoURI,
			Database: cfg.Storage.MongoDatabase,
		})
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newCache builds the provider response cache named by the config.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	switch cfg.Cache.Backend {
	case "", "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = config.CacheDir(); err != nil {
				return cache.NewNullCache()
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return fc
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		return cache.NewNullCache()
	}
}

// newProvider builds the content provider, wrapped with response caching.
func (c *CLI) newProvider(ctx context.Context, cfg config.Config, noCache bool) (gen.Provider, error) {
	if cfg.Provider.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"no API key configured; set provider.api_key or the GEMINI_API_KEY environment variable")
	}
	p, err := gen.NewGeminiProvider(ctx, cfg.Provider.APIKey, cfg.Provider.Model)
	if err != nil {
		return nil, err
	}
	return gen.NewCachedProvider(p, c.newCache(ctx, cfg, noCache), cache.DefaultKeyer{}), nil
}

// newOrchestrator builds an orchestrator over the given store.
func (c *CLI) newOrchestrator(ctx context.Context, cfg config.Config, store *mindmap.Store, noCache bool, events chan<- gen.Event) (*gen.Orchestrator, error) {
	provider, err := c.newProvider(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	opts := []gen.Option{
		gen.WithDelay(stepDelay(cfg)),
		gen.WithLogger(c.Logger),
	}
	if events != nil {
		opts = append(opts, gen.WithEvents(events))
	}
	return gen.New(store, provider, opts...), nil
}

func stepDelay(cfg config.Config) time.Duration {
	if cfg.Gen.StepDelayMS <= 0 {
		return gen.DefaultStepDelay
	}
	return time.Duration(cfg.Gen.StepDelayMS) * time.Millisecond
}

// =============================================================================
// Map Loading
// =============================================================================

// openMap loads a saved snapshot into a live tree store. The returned name
// is the snapshot's display name.
func (c *CLI) openMap(ctx context.Context, st storage.Store, mapID string) (*mindmap.Store, string, error) {
	snap, err := st.Load(ctx, mapID)
	if err != nil {
		return nil, "", err
	}
	if snap == nil {
		return nil, "", errors.New(errors.ErrCodeMapNotFound, "no saved map with ID %q", mapID)
	}
	return mindmap.NewStore(snap.Nodes), snap.Name, nil
}
