// Package bigcacherepo keeps offline cache entries in memory.
package bigcacherepo

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
)

// entries never expire, caches are deleted explicitly
const lifeWindow = 100 * 365 * 24 * time.Hour

type cacheRepository struct {
	cache *bigcache.BigCache

	mu    sync.RWMutex
	index map[string]map[string]struct{} // cache name -> urls
}

var _ core.CacheRepository = (*cacheRepository)(nil)

// New returns a CacheRepository backed by bigcache. Close releases it.
func New(ctx context.Context, maxSizeMB int) (*cacheRepository, error) {
	conf := bigcache.DefaultConfig(lifeWindow)
	conf.Shards = 16
	conf.CleanWindow = 0
	conf.HardMaxCacheSize = maxSizeMB
	conf.Verbose = false

	cache, err := bigcache.New(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "creating bigcache")
	}
	return &cacheRepository{cache: cache, index: make(map[string]map[string]struct{})}, nil
}

func (repo *cacheRepository) Close() error {
	return repo.cache.Close()
}

func key(cache, url string) string {
	return cache + "\x00" + url
}

func (repo *cacheRepository) GetResponse(_ context.Context, cache, url string) (core.CachedResponse, error) {
	data, err := repo.cache.Get(key(cache, url))
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return core.CachedResponse{}, core.ErrCacheMiss
		}
		return core.CachedResponse{}, errors.Wrapf(err, "getting %s from %s", url, cache)
	}
	var resp core.CachedResponse
	if err = json.Unmarshal(data, &resp); err != nil {
		return core.CachedResponse{}, errors.Wrapf(err, "decoding %s", url)
	}
	return resp, nil
}

func (repo *cacheRepository) PutResponse(_ context.Context, resp core.CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", resp.URL)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if err = repo.cache.Set(key(resp.Cache, resp.URL), data); err != nil {
		return errors.Wrapf(err, "putting %s into %s", resp.URL, resp.Cache)
	}
	urls, ok := repo.index[resp.Cache]
	if !ok {
		urls = make(map[string]struct{})
		repo.index[resp.Cache] = urls
	}
	urls[resp.URL] = struct{}{}
	return nil
}

func (repo *cacheRepository) DeleteCache(_ context.Context, cache string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for url := range repo.index[cache] {
		if err := repo.cache.Delete(key(cache, url)); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return errors.Wrapf(err, "deleting %s from %s", url, cache)
		}
	}
	delete(repo.index, cache)
	return nil
}

func (repo *cacheRepository) ListCaches(_ context.Context) ([]string, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	names := make([]string, 0, len(repo.index))
	for name := range repo.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (repo *cacheRepository) ListURLs(_ context.Context, cache string) ([]string, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	urls := make([]string, 0, len(repo.index[cache]))
	for url := range repo.index[cache] {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls, nil
}
