// Package storage persists mind-map snapshots.
//
// A snapshot is the full node set of one map serialized as a record list.
// It is loaded at startup and saved after every mutation: persistence
// registers as a store subscriber (see [AutoSaver]) so saving reacts to
// state changes instead of being an inline side effect of mutations.
//
// Backends:
//   - file: JSON files in a data directory for CLI usage (default)
//   - mongo: MongoDB collection for server deployments
package storage

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jholzmann/canopy/pkg/mindmap"
)

// Snapshot is the persisted form of one mind map.
type Snapshot struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
	Nodes     []mindmap.Node `json:"nodes" bson:"nodes"`
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Load retrieves a snapshot by map ID.
	// Returns nil, nil if the snapshot doesn't exist.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// Save stores a snapshot, overwriting any previous version.
	Save(ctx context.Context, snap *Snapshot) error

	// List returns all stored snapshots, most recently updated first.
	List(ctx context.Context) ([]Snapshot, error)

	// Delete removes a snapshot. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// AutoSaver
// =============================================================================

// AutoSaver returns a store subscriber that saves the node set after every
// mutation. Save failures are logged and swallowed: persistence problems
// must never block or corrupt the in-memory tree.
func AutoSaver(st Store, mapID, name string, logger *log.Logger) mindmap.Subscriber {
	return func(nodes []mindmap.Node) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := st.Save(ctx, &Snapshot{
			ID:        mapID,
			Name:      name,
			UpdatedAt: time.Now(),
			Nodes:     nodes,
		})
		if err != nil {
			logger.Warn("autosave failed", "map", mapID, "err", err)
		}
	}
}
