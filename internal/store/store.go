// Package store persists discovery results so repeated queries within the
// TTL are served from cache instead of re-running the pipeline.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/sells-group/signal-scout/internal/model"
)

// CachedDiscovery is one cached pipeline run.
type CachedDiscovery struct {
	Key       string         `json:"key"`
	Query     string         `json:"query"`
	Results   []model.Result `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Store defines the persistence interface for the discovery cache.
type Store interface {
	// GetCachedDiscovery returns the unexpired entry for key, or nil on a
	// miss. When wantContacts is true an entry cached without any contacts
	// does not qualify: the caller is asking for more than the cache holds.
	GetCachedDiscovery(ctx context.Context, key string, wantContacts bool) (*CachedDiscovery, error)
	// SetCachedDiscovery replaces any existing entry for key.
	SetCachedDiscovery(ctx context.Context, key, query string, results []model.Result, ttl time.Duration) error
	// DeleteExpired purges expired entries and reports how many went.
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// CacheKey derives the cache key for a query/exclusion pair. The query is
// normalized so trivial whitespace or casing differences still hit.
func CacheKey(query, excludedDomain string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + strings.ToLower(strings.TrimSpace(excludedDomain))))
	return hex.EncodeToString(sum[:])
}
