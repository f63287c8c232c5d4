package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "smith.yaml")
	p.OnLoadComplete(ctx, "smith.yaml", 42, time.Second, nil)
	p.OnLayoutStart(ctx, 42)
	p.OnLayoutComplete(ctx, 40, 2, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Draw hooks
	d := NoopDrawHooks{}
	d.OnDrawStart(ctx, "surface-1")
	d.OnDrawComplete(ctx, "surface-1", 12, 20, time.Millisecond, nil)
	d.OnDrawDropped(ctx, "surface-1")

	// Asset hooks
	a := NoopAssetHooks{}
	a.OnAssetLoaded(ctx, "https", time.Millisecond)
	a.OnAssetFallback(ctx, "file", nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "tree")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "artifact", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/avatars/anna.png")
	h.OnResponse(ctx, "GET", "example.com", "/avatars/anna.png", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/avatars/anna.png", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customDraw := &testDrawHooks{}
	SetDrawHooks(customDraw)
	if Draw() != customDraw {
		t.Error("SetDrawHooks should set custom hooks")
	}

	customAsset := &testAssetHooks{}
	SetAssetHooks(customAsset)
	if Asset() != customAsset {
		t.Error("SetAssetHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Draw().(NoopDrawHooks); !ok {
		t.Error("Reset() should restore NoopDrawHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testDrawHooks struct{ NoopDrawHooks }
type testAssetHooks struct{ NoopAssetHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
