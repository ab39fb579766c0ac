package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CachedProvider wraps a Provider with an in-process TTL cache keyed on
// language pair, text and the work the text belongs to. Concurrent identical
// requests share one upstream call.
type CachedProvider struct {
	next     Provider
	cache    *gocache.Cache
	maxItems int // 0 = no cap
	group    singleflight.Group
}

func NewCachedProvider(next Provider, ttl time.Duration, maxItems int) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		next:     next,
		cache:    gocache.New(ttl, ttl*2),
		maxItems: maxItems,
	}
}

func (c *CachedProvider) Name() string { return c.next.Name() }

// Translate returns a cached result when one exists for the same key.
func (c *CachedProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	key := CacheKey(req)
	if v, ok := c.cache.Get(key); ok {
		res := *v.(*Result)
		return &res, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A call that just finished may have filled the cache.
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		res, err := c.next.Translate(ctx, req)
		if err != nil {
			return nil, err
		}
		c.store(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*Result)
	return &res, nil
}

// store caches res unless the cache is full of live entries.
func (c *CachedProvider) store(key string, res *Result) {
	if c.maxItems > 0 && c.cache.ItemCount() >= c.maxItems {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxItems {
			return
		}
	}
	c.cache.SetDefault(key, res)
}

// HealthCheck delegates to the wrapped provider when it supports it.
func (c *CachedProvider) HealthCheck(ctx context.Context) error {
	if hc, ok := c.next.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Len returns the number of cached translations.
func (c *CachedProvider) Len() int {
	return c.cache.ItemCount()
}

// CacheKey builds the cache key for a request. Work-specific prompt inputs
// (characters, glossary, style) are folded into a digest so one work's names
// never answer for another's. Suggestions are left out; they only hint.
func CacheKey(req Request) string {
	return req.SourceLang + ":" + req.TargetLang + ":" + req.Preferred + ":" +
		req.WorkID + ":" + workDigest(req) + ":" + req.Text
}

func workDigest(req Request) string {
	if len(req.Characters) == 0 && len(req.Glossary) == 0 && req.Style == "" {
		return ""
	}

	h := sha256.New()
	h.Write([]byte(req.Style))
	h.Write([]byte{0})

	terms := make([]string, 0, len(req.Glossary))
	for k := range req.Glossary {
		terms = append(terms, k)
	}
	sort.Strings(terms)
	for _, k := range terms {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(req.Glossary[k]))
		h.Write([]byte{0})
	}

	for _, ch := range req.Characters {
		h.Write([]byte(ch.NameOriginal))
		h.Write([]byte{0})
		h.Write([]byte(ch.NameTranslated))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
