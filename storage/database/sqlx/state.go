package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
)

type stateRepository struct {
	db *sqlx.DB
}

var _ core.StateRepository = (*stateRepository)(nil)

func NewStateRepository(db *sqlx.DB) core.StateRepository {
	return &stateRepository{db: db}
}

func (repo *stateRepository) GetState(ctx context.Context, name string) (core.StateRecord, error) {
	var rec core.StateRecord
	q := repo.db.Rebind(`SELECT name, data, updated_at FROM state WHERE name = ?`)
	if err := repo.db.GetContext(ctx, &rec, q, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.StateRecord{}, core.ErrStateNotFound
		}
		return core.StateRecord{}, errors.Wrapf(err, "getting state %s", name)
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func (repo *stateRepository) PutState(ctx context.Context, rec core.StateRecord) error {
	q := repo.db.Rebind(`
		INSERT INTO state (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := repo.db.ExecContext(ctx, q, rec.Name, rec.Data, rec.UpdatedAt.UTC()); err != nil {
		return errors.Wrapf(err, "putting state %s", rec.Name)
	}
	return nil
}

func (repo *stateRepository) DeleteState(ctx context.Context, name string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM state WHERE name = ?`), name)
	if err != nil {
		return errors.Wrapf(err, "deleting state %s", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrStateNotFound
	}
	return nil
}

func (repo *stateRepository) ListStates(ctx context.Context) ([]core.StateRecord, error) {
	recs := make([]core.StateRecord, 0)
	if err := repo.db.SelectContext(ctx, &recs, `SELECT name, data, updated_at FROM state ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "listing states")
	}
	for i := range recs {
		recs[i].UpdatedAt = recs[i].UpdatedAt.UTC()
	}
	return recs, nil
}
