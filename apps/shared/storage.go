package shared

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
	bigcacherepo "github.com/gimvicurnik/urnik/storage/cache/bigcache"
	redisrepo "github.com/gimvicurnik/urnik/storage/cache/redis"
	"github.com/gimvicurnik/urnik/storage/database"
	sqlxrepos "github.com/gimvicurnik/urnik/storage/database/sqlx"
)

// offline cache backends
const (
	CacheBackendSQL    = "sql"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Storage holds the migrated database and the repositories built on the configured backends.
type Storage struct {
	DB    *sqlx.DB
	State core.StateRepository
	Cache core.CacheRepository

	closers []io.Closer
}

// OpenStorage opens the database, runs the migrations and connects the offline cache backend.
func OpenStorage(ctx context.Context, conf *core.Config) (*Storage, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	st := &Storage{DB: db, State: sqlxrepos.NewStateRepository(db), closers: []io.Closer{db}}
	if err = database.Migrate(ctx, db); err != nil {
		_ = st.Close()
		return nil, err
	}

	switch conf.Offline.Backend {
	case CacheBackendSQL, "":
		st.Cache = sqlxrepos.NewCacheRepository(db)
	case CacheBackendMemory:
		repo, err := bigcacherepo.New(ctx, conf.Offline.MemorySizeMB)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		st.Cache = repo
		st.closers = append(st.closers, repo)
	case CacheBackendRedis:
		client, err := redisrepo.Connect(ctx, conf.Offline.RedisAddr, conf.Offline.RedisDB)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		st.Cache = redisrepo.NewCacheRepository(client, conf.Offline.CachePrefix)
		st.closers = append(st.closers, client)
	default:
		_ = st.Close()
		return nil, errors.Errorf("unsupported offline cache backend %q", conf.Offline.Backend)
	}
	return st, nil
}

// Close closes the backends in reverse order and returns the first error.
func (st *Storage) Close() error {
	var first error
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
