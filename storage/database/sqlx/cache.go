package sqlxrepos

import (
	"bytes"
	"context"
	"database/sql"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/gabriel-vasile/mimetype"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
)

// cacheRepository stores response bodies brotli-compressed.
type cacheRepository struct {
	db *sqlx.DB
}

var _ core.CacheRepository = (*cacheRepository)(nil)

func NewCacheRepository(db *sqlx.DB) core.CacheRepository {
	return &cacheRepository{db: db}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}

func (repo *cacheRepository) GetResponse(ctx context.Context, cache, url string) (core.CachedResponse, error) {
	var resp core.CachedResponse
	q := repo.db.Rebind(`
		SELECT cache_name, url, status, content_type, body, stored_at
		FROM cache_entry WHERE cache_name = ? AND url = ?`)
	if err := repo.db.GetContext(ctx, &resp, q, cache, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CachedResponse{}, core.ErrCacheMiss
		}
		return core.CachedResponse{}, errors.Wrapf(err, "getting %s from %s", url, cache)
	}

	body, err := decompress(resp.Body)
	if err != nil {
		return core.CachedResponse{}, errors.Wrapf(err, "decompressing %s", url)
	}
	resp.Body = body
	resp.StoredAt = resp.StoredAt.UTC()
	return resp, nil
}

func (repo *cacheRepository) PutResponse(ctx context.Context, resp core.CachedResponse) error {
	if resp.ContentType == "" {
		resp.ContentType = mimetype.Detect(resp.Body).String()
	}
	body, err := compress(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "compressing %s", resp.URL)
	}

	q := repo.db.Rebind(`
		INSERT INTO cache_entry (cache_name, url, status, content_type, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_name, url) DO UPDATE SET
			status = excluded.status,
			content_type = excluded.content_type,
			body = excluded.body,
			stored_at = excluded.stored_at`)
	_, err = repo.db.ExecContext(ctx, q,
		resp.Cache, resp.URL, resp.Status, resp.ContentType, body, resp.StoredAt.UTC())
	if err != nil {
		return errors.Wrapf(err, "putting %s into %s", resp.URL, resp.Cache)
	}
	return nil
}

func (repo *cacheRepository) DeleteCache(ctx context.Context, cache string) error {
	q := repo.db.Rebind(`DELETE FROM cache_entry WHERE cache_name = ?`)
	if _, err := repo.db.ExecContext(ctx, q, cache); err != nil {
		return errors.Wrapf(err, "deleting cache %s", cache)
	}
	return nil
}

func (repo *cacheRepository) ListCaches(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	q := `SELECT DISTINCT cache_name FROM cache_entry ORDER BY cache_name`
	if err := repo.db.SelectContext(ctx, &names, q); err != nil {
		return nil, errors.Wrap(err, "listing caches")
	}
	return names, nil
}

func (repo *cacheRepository) ListURLs(ctx context.Context, cache string) ([]string, error) {
	urls := make([]string, 0)
	q := repo.db.Rebind(`SELECT url FROM cache_entry WHERE cache_name = ? ORDER BY url`)
	if err := repo.db.SelectContext(ctx, &urls, q, cache); err != nil {
		return nil, errors.Wrapf(err, "listing %s", cache)
	}
	return urls, nil
}
