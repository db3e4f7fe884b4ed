package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// PageCache caches successful GET responses for a short TTL. Entries are
// stored in Redis when a client is configured, otherwise in process memory.
type PageCache struct {
	rdb *redis.Client

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// NewPageCache creates a page cache. rdb may be nil for the in-process store.
func NewPageCache(rdb *redis.Client) *PageCache {
	return &PageCache{
		rdb:     rdb,
		entries: make(map[string]cacheEntry),
	}
}

// Cached returns a middleware serving cached response bodies for GET requests
// keyed by the full request URI. Only 200 responses are stored.
func (pc *PageCache) Cached(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := "pagecache:" + c.Request.URL.RequestURI()

		if body, ok := pc.get(c, key); ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		if writer.Status() == http.StatusOK {
			pc.set(c, key, writer.body.Bytes(), ttl)
		}
	}
}

func (pc *PageCache) get(c *gin.Context, key string) ([]byte, bool) {
	if pc.rdb != nil {
		body, err := pc.rdb.Get(c.Request.Context(), key).Bytes()
		if err != nil {
			return nil, false
		}
		return body, true
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	entry, ok := pc.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(pc.entries, key)
		return nil, false
	}
	return entry.body, true
}

func (pc *PageCache) set(c *gin.Context, key string, body []byte, ttl time.Duration) {
	if pc.rdb != nil {
		// Best effort: a failed write just means a cache miss next time
		pc.rdb.Set(c.Request.Context(), key, body, ttl)
		return
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	buf := make([]byte, len(body))
	copy(buf, body)
	pc.entries[key] = cacheEntry{body: buf, expiresAt: time.Now().Add(ttl)}
}

// bodyCaptureWriter tees the response body so it can be cached after the
// handler runs
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
