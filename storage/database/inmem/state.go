package inmemdb

import (
	"context"
	"sort"

	"github.com/gimvicurnik/urnik/core"
)

type stateRepository struct {
	db *stateTable
}

var _ core.StateRepository = (*stateRepository)(nil)

func NewStateRepository(db *DB) core.StateRepository {
	return &stateRepository{db: db.state}
}

func (repo *stateRepository) GetState(_ context.Context, name string) (core.StateRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rec, ok := repo.db.table[name]
	if !ok {
		return core.StateRecord{}, core.ErrStateNotFound
	}
	res := *rec
	res.Data = append([]byte(nil), rec.Data...)
	return res, nil
}

func (repo *stateRepository) PutState(_ context.Context, rec core.StateRecord) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.Data = append([]byte(nil), rec.Data...)
	repo.db.table[rec.Name] = &rec
	return nil
}

func (repo *stateRepository) DeleteState(_ context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[name]; !ok {
		return core.ErrStateNotFound
	}
	delete(repo.db.table, name)
	return nil
}

func (repo *stateRepository) ListStates(_ context.Context) ([]core.StateRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]core.StateRecord, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}
