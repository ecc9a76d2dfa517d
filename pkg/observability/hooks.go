// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about store mutations, layout passes,
// generation batches, and cache operations.
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import
// cycles and keeps the core packages free of observability frameworks.
//
// # Usage
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetGenHooks(&myGenHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from tree store mutations.
type StoreHooks interface {
	// OnMutate records a completed mutation operation and the resulting
	// node count.
	OnMutate(op string, nodeCount int)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from layout engine passes.
type LayoutHooks interface {
	// OnLayout records a completed layout pass over nodeCount nodes.
	OnLayout(nodeCount int, duration time.Duration)
}

// =============================================================================
// Generation Hooks
// =============================================================================

// GenHooks receives events from generation orchestrator batches.
type GenHooks interface {
	// OnProviderCall records a completed provider call.
	OnProviderCall(ctx context.Context, kind string, duration time.Duration, err error)

	// OnBatchStep records a completed step of a sequential expansion batch.
	OnBatchStep(ctx context.Context, kind string, step, total int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnMutate(string, int) {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayout(int, time.Duration) {}

// NoopGenHooks is a no-op implementation of GenHooks.
type NoopGenHooks struct{}

func (NoopGenHooks) OnProviderCall(context.Context, string, time.Duration, error) {}
func (NoopGenHooks) OnBatchStep(context.Context, string, int, int, error)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Registry
// =============================================================================

var (
	mu          sync.RWMutex
	storeHooks  StoreHooks  = NoopStoreHooks{}
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	genHooks    GenHooks    = NoopGenHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
)

// SetStoreHooks registers store mutation hooks.
func SetStoreHooks(h StoreHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopStoreHooks{}
	}
	storeHooks = h
}

// SetLayoutHooks registers layout hooks.
func SetLayoutHooks(h LayoutHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopLayoutHooks{}
	}
	layoutHooks = h
}

// SetGenHooks registers generation hooks.
func SetGenHooks(h GenHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopGenHooks{}
	}
	genHooks = h
}

// SetCacheHooks registers cache hooks.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopCacheHooks{}
	}
	cacheHooks = h
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	mu.RLock()
	defer mu.RUnlock()
	return storeHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	mu.RLock()
	defer mu.RUnlock()
	return layoutHooks
}

// Gen returns the registered generation hooks.
func Gen() GenHooks {
	mu.RLock()
	defer mu.RUnlock()
	return genHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}
