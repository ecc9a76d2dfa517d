package gen

import (
	"context"
	"encoding/json"

	"github.com/jholzmann/canopy/pkg/cache"
	"github.com/jholzmann/canopy/pkg/observability"
)

// =============================================================================
// CachedProvider
// =============================================================================

// CachedProvider wraps a Provider with response caching for the structured
// calls. DeriveTitle is cached too: a repeated prompt should produce the
// same canonical title. Cache failures degrade to direct provider calls;
// they never fail the expansion.
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	keyer cache.Keyer
}

// NewCachedProvider wraps inner with the given cache backend.
// A nil keyer falls back to the default keyer.
func NewCachedProvider(inner Provider, c cache.Cache, keyer cache.Keyer) *CachedProvider {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedProvider{inner: inner, cache: c, keyer: keyer}
}

// DeriveTitle returns the cached title for a prompt or asks the provider.
func (p *CachedProvider) DeriveTitle(ctx context.Context, prompt string) (string, error) {
	key := p.keyer.ProviderKey(KindDeriveTitle, prompt)
	var title string
	hit, err := p.lookup(ctx, KindDeriveTitle, key, &title)
	if err == nil && hit {
		return title, nil
	}

	title, err = p.inner.DeriveTitle(ctx, prompt)
	if err != nil {
		return "", err
	}
	p.remember(ctx, KindDeriveTitle, key, title)
	return title, nil
}

// ListChapters returns the cached chapter list or asks the provider.
func (p *CachedProvider) ListChapters(ctx context.Context, topic, userContext string) ([]Chapter, error) {
	key := p.keyer.ProviderKey(KindListChapters, topic, userContext)
	var chapters []Chapter
	hit, err := p.lookup(ctx, KindListChapters, key, &chapters)
	if err == nil && hit {
		return chapters, nil
	}

	chapters, err = p.inner.ListChapters(ctx, topic, userContext)
	if err != nil {
		return nil, err
	}
	p.remember(ctx, KindListChapters, key, chapters)
	return chapters, nil
}

// ListSubchapters returns the cached subchapter list or asks the provider.
func (p *CachedProvider) ListSubchapters(ctx context.Context, topic, chapterTitle, userContext string) ([]Subchapter, error) {
	key := p.keyer.ProviderKey(KindListSubchapters, topic, chapterTitle, userContext)
	var subs []Subchapter
	hit, err := p.lookup(ctx, KindListSubchapters, key, &subs)
	if err == nil && hit {
		return subs, nil
	}

	subs, err = p.inner.ListSubchapters(ctx, topic, chapterTitle, userContext)
	if err != nil {
		return nil, err
	}
	p.remember(ctx, KindListSubchapters, key, subs)
	return subs, nil
}

// ExplainPoint returns the cached explanation or asks the provider.
func (p *CachedProvider) ExplainPoint(ctx context.Context, subchapterTitle, userContext, point string) (Detail, error) {
	key := p.keyer.ProviderKey(KindExplainPoint, subchapterTitle, userContext, point)
	var detail Detail
	hit, err := p.lookup(ctx, KindExplainPoint, key, &detail)
	if err == nil && hit {
		return detail, nil
	}

	detail, err = p.inner.ExplainPoint(ctx, subchapterTitle, userContext, point)
	if err != nil {
		return Detail{}, err
	}
	p.remember(ctx, KindExplainPoint, key, detail)
	return detail, nil
}

// =============================================================================
// Internal
// =============================================================================

// lookup reads and decodes a cached response. Decode failures count as
// misses: the entry is stale garbage and the provider is asked again.
func (p *CachedProvider) lookup(ctx context.Context, kind, key string, out any) (bool, error) {
	data, found, err := p.cache.Get(ctx, key)
	if err != nil || !found {
		observability.Cache().OnCacheMiss(ctx, kind)
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		observability.Cache().OnCacheMiss(ctx, kind)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return true, nil
}

// remember stores a response, ignoring cache write failures.
func (p *CachedProvider) remember(ctx context.Context, kind, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

var _ Provider = (*CachedProvider)(nil)
