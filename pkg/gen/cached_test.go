package gen

import (
	"context"
	"testing"
	"time"

	"github.com/jholzmann/canopy/pkg/cache"
)

// memCache is a minimal in-memory Cache for provider-cache tests.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.entries[key] = data
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func TestCachedProviderHitsOnRepeat(t *testing.T) {
	calls := 0
	inner := &fakeProvider{
		listChapters: func(ctx context.Context, topic, userContext string) ([]Chapter, error) {
			calls++
			return []Chapter{{Title: "Only", Summary: "s"}}, nil
		},
	}
	p := NewCachedProvider(inner, newMemCache(), nil)
	ctx := context.Background()

	first, err := p.ListChapters(ctx, "topic", "")
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	second, err := p.ListChapters(ctx, "topic", "")
	if err != nil {
		t.Fatalf("ListChapters (cached): %v", err)
	}

	if calls != 1 {
		t.Errorf("provider calls = %d, want 1", calls)
	}
	if len(second) != 1 || second[0] != first[0] {
		t.Errorf("cached response differs: %+v vs %+v", second, first)
	}
}

func TestCachedProviderDistinguishesInputs(t *testing.T) {
	calls := 0
	inner := &fakeProvider{
		deriveTitle: func(ctx context.Context, prompt string) (string, error) {
			calls++
			return "T:" + prompt, nil
		},
	}
	p := NewCachedProvider(inner, newMemCache(), nil)
	ctx := context.Background()

	a, _ := p.DeriveTitle(ctx, "alpha")
	b, _ := p.DeriveTitle(ctx, "beta")

	if calls != 2 {
		t.Errorf("provider calls = %d, want 2", calls)
	}
	if a == b {
		t.Error("different prompts returned the same cached title")
	}
}

func TestCachedProviderSkipsFailedResponses(t *testing.T) {
	calls := 0
	inner := &fakeProvider{
		explainPoint: func(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
			calls++
			if calls == 1 {
				return Detail{}, context.DeadlineExceeded
			}
			return Detail{Title: "ok", Explanation: "e"}, nil
		},
	}
	p := NewCachedProvider(inner, newMemCache(), nil)
	ctx := context.Background()

	if _, err := p.ExplainPoint(ctx, "sub", "", "pt"); err == nil {
		t.Fatal("first call should fail")
	}
	// Failures are not cached; the retry reaches the provider.
	d, err := p.ExplainPoint(ctx, "sub", "", "pt")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if d.Title != "ok" || calls != 2 {
		t.Errorf("retry = %+v after %d calls", d, calls)
	}
}
