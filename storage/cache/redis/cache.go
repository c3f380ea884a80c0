// Package redisrepo keeps offline cache entries in redis, one hash per cache.
package redisrepo

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gimvicurnik/urnik/core"
)

type cacheRepository struct {
	client    redis.UniversalClient
	namespace string
}

var _ core.CacheRepository = (*cacheRepository)(nil)

// Connect opens a client for `addr` and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}
	return client, nil
}

func NewCacheRepository(client redis.UniversalClient, namespace string) core.CacheRepository {
	return &cacheRepository{client: client, namespace: namespace}
}

func (repo *cacheRepository) indexKey() string {
	return repo.namespace + ":caches"
}

func (repo *cacheRepository) cacheKey(cache string) string {
	return repo.namespace + ":cache:" + cache
}

func (repo *cacheRepository) GetResponse(ctx context.Context, cache, url string) (core.CachedResponse, error) {
	data, err := repo.client.HGet(ctx, repo.cacheKey(cache), url).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

func (repo *cacheRepository) PutResponse(ctx context.Context, resp core.CachedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", resp.URL)
	}
	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, repo.cacheKey(resp.Cache), resp.URL, data)
		pipe.SAdd(ctx, repo.indexKey(), resp.Cache)
		return nil
	})
	return errors.Wrapf(err, "putting %s into %s", resp.URL, resp.Cache)
}

func (repo *cacheRepository) DeleteCache(ctx context.Context, cache string) error {
	_, err := repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, repo.cacheKey(cache))
		pipe.SRem(ctx, repo.indexKey(), cache)
		return nil
	})
	return errors.Wrapf(err, "deleting cache %s", cache)
}

func (repo *cacheRepository) ListCaches(ctx context.Context) ([]string, error) {
	names, err := repo.client.SMembers(ctx, repo.indexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing caches")
	}
	sort.Strings(names)
	return names, nil
}

func (repo *cacheRepository) ListURLs(ctx context.Context, cache string) ([]string, error) {
	urls, err := repo.client.HKeys(ctx, repo.cacheKey(cache)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", cache)
	}
	sort.Strings(urls)
	return urls, nil
}
