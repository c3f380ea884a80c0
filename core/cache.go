package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrCacheMiss = errors.New("response not cached")

// CachedResponse is an HTTP response stored by the offline worker, keyed by cache name and URL.
type CachedResponse struct {
	Cache       string    `db:"cache_name" json:"cache"`
	URL         string    `db:"url" json:"url"`
	Status      int       `db:"status" json:"status"`
	ContentType string    `db:"content_type" json:"contentType"`
	Body        []byte    `db:"body" json:"body"`
	StoredAt    time.Time `db:"stored_at" json:"storedAt"`
}

type CacheRepository interface {
	GetResponse(ctx context.Context, cache, url string) (CachedResponse, error)
	PutResponse(ctx context.Context, resp CachedResponse) error
	DeleteCache(ctx context.Context, cache string) error
	ListCaches(ctx context.Context) ([]string, error)
	ListURLs(ctx context.Context, cache string) ([]string, error)
}
