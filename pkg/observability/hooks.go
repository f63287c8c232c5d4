// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about pipeline execution, drawing, avatar assets, cache
// operations, and HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main (the serve command registers Prometheus
// collectors); libraries only ever call them.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetDrawHooks(&myDrawHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, tree.Len())
//	// ... solve ...
//	observability.Pipeline().OnLayoutComplete(ctx, positioned, unpositioned, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the render pipeline.
type PipelineHooks interface {
	// Input events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, personCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, personCount int)
	OnLayoutComplete(ctx context.Context, positioned, unpositioned int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Draw Hooks
// =============================================================================

// DrawHooks receives events from drawing passes on a surface.
type DrawHooks interface {
	// OnDrawStart records the start of a full redraw.
	OnDrawStart(ctx context.Context, surfaceID string)

	// OnDrawComplete records a finished redraw with the primitive counts.
	OnDrawComplete(ctx context.Context, surfaceID string, cards, lines int, duration time.Duration, err error)

	// OnDrawDropped records a redraw request dropped because one was running.
	OnDrawDropped(ctx context.Context, surfaceID string)
}

// =============================================================================
// Asset Hooks
// =============================================================================

// AssetHooks receives events from avatar loading.
type AssetHooks interface {
	// OnAssetLoaded records a decoded avatar.
	OnAssetLoaded(ctx context.Context, scheme string, duration time.Duration)

	// OnAssetFallback records a placeholder used instead of an avatar.
	OnAssetFallback(ctx context.Context, scheme string, err error)
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
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int) {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopDrawHooks is a no-op implementation of DrawHooks.
type NoopDrawHooks struct{}

func (NoopDrawHooks) OnDrawStart(context.Context, string)                                    {}
func (NoopDrawHooks) OnDrawComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopDrawHooks) OnDrawDropped(context.Context, string)                                  {}

// NoopAssetHooks is a no-op implementation of AssetHooks.
type NoopAssetHooks struct{}

func (NoopAssetHooks) OnAssetLoaded(context.Context, string, time.Duration) {}
func (NoopAssetHooks) OnAssetFallback(context.Context, string, error)       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	drawHooks     DrawHooks     = NoopDrawHooks{}
	assetHooks    AssetHooks    = NoopAssetHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetDrawHooks registers custom draw hooks.
func SetDrawHooks(h DrawHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		drawHooks = h
	}
}

// SetAssetHooks registers custom asset hooks.
func SetAssetHooks(h AssetHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		assetHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Draw returns the registered draw hooks.
func Draw() DrawHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return drawHooks
}

// Asset returns the registered asset hooks.
func Asset() AssetHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return assetHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	drawHooks = NoopDrawHooks{}
	assetHooks = NoopAssetHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
