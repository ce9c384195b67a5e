package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Cache memoizes responses for one CLI invocation. It is never shared across
// processes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	hits    int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

func cacheKey(prompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.MaxTokens)))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached response.
func (c *Cache) Get(prompt string, opts Options) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(prompt, opts)]
	if ok {
		c.hits++
	}
	return v, ok
}

// Put stores a response.
func (c *Cache) Put(prompt string, opts Options, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(prompt, opts)] = response
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hits returns how many lookups were served from the cache.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

type bypassKey struct{}

// Bypass marks ctx so that CachingClient neither reads nor stores responses
// for calls made with it.
func Bypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// CachingClient serves repeated identical prompts from a Cache.
type CachingClient struct {
	client Client
	cache  *Cache
	bypass bool
}

// NewCachingClient wraps client. With bypassAll set the cache is never used,
// which is how --no-cache is honoured.
func NewCachingClient(client Client, cache *Cache, bypassAll bool) *CachingClient {
	return &CachingClient{client: client, cache: cache, bypass: bypassAll}
}

// Complete implements Client.
func (cc *CachingClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	skip := cc.bypass || cc.cache == nil || bypassed(ctx)
	if !skip {
		if v, ok := cc.cache.Get(prompt, opts); ok {
			log.Debug().Int("prompt_chars", len(prompt)).Msg("Response served from cache")
			return v, nil
		}
	}

	out, err := cc.client.Complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	if !skip {
		cc.cache.Put(prompt, opts, out)
	}
	return out, nil
}
