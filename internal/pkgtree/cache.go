package pkgtree

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// DefaultCacheSize is used when a non-positive size is requested
const DefaultCacheSize = 4096

// cacheKeySep cannot appear in a valid segment of any supported separator
// scheme, so joined keys never collide.
const cacheKeySep = "\x00"

// cachedHandle records negative results too, so unresolvable namespaces do
// not hit the underlying resolver on every query.
type cachedHandle struct {
	handle *types.Handle
}

// CachingResolver provides in-memory LRU caching of Resolve results.
// NamespaceOf is passed through unchanged. Errors are never cached.
type CachingResolver struct {
	next  Resolver
	cache *lru.Cache[string, cachedHandle]
}

// NewCachingResolver wraps next with an LRU cache of maxLen entries
func NewCachingResolver(next Resolver, maxLen int) *CachingResolver {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	// lru.New fails only for non-positive sizes
	cache, _ := lru.New[string, cachedHandle](maxLen)
	return &CachingResolver{
		next:  next,
		cache: cache,
	}
}

// NamespaceOf delegates to the wrapped resolver
func (c *CachingResolver) NamespaceOf(ctx context.Context, identifier string) (types.Namespace, error) {
	return c.next.NamespaceOf(ctx, identifier)
}

// Resolve returns a copy of the cached handle, consulting the wrapped
// resolver on a miss
func (c *CachingResolver) Resolve(ctx context.Context, ns types.Namespace) (*types.Handle, error) {
	key := strings.Join(ns, cacheKeySep)
	if entry, ok := c.cache.Get(key); ok {
		return entry.handle.Clone(), nil
	}

	handle, err := c.next.Resolve(ctx, ns)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cachedHandle{handle: handle.Clone()})
	return handle, nil
}

// Size returns the current number of cached entries
func (c *CachingResolver) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *CachingResolver) Clear() {
	c.cache.Purge()
}
