package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter provisions one required input file from a remote source.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "bfs-votes-ch").
	ID() string
	// Asset returns the path of the provisioned file relative to the data directory.
	Asset() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license or terms of use of the source.
	License() string
	// Import downloads the source from sourceURL and places Asset() under dataDir.
	Import(ctx context.Context, sourceURL, dataDir string) error
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
