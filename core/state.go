package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// ErrStateNotFound is returned by a StateRepository when nothing was persisted under a name.
var ErrStateNotFound = errors.New("state not found")

// names of the persisted states
const (
	StateSettings      = "settings"
	StateLists         = "lists"
	StateTimetable     = "timetable"
	StateFood          = "food"
	StateDocuments     = "documents"
	StateNotifications = "notifications"
	StateNotifPrefs    = "notification-preferences"
)

type (
	// StateRecord is a persisted JSON document.
	StateRecord struct {
		Name      string    `db:"name"`
		Data      []byte    `db:"data"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// StateRepository is the key-value storage of the stores (the equivalent of the browser localStorage).
	StateRepository interface {
		GetState(ctx context.Context, name string) (StateRecord, error)
		PutState(ctx context.Context, rec StateRecord) error
		DeleteState(ctx context.Context, name string) error
		ListStates(ctx context.Context) ([]StateRecord, error)
	}

	// Fetcher fetches and decodes JSON from the remote API.
	Fetcher interface {
		Get(ctx context.Context, path string, dst interface{}) error
	}
)

// LoadState decodes the state persisted under `name` into `dst`.
// `found` is false (and `dst` untouched) when nothing was persisted yet.
func LoadState(ctx context.Context, repo StateRepository, name string, dst interface{}) (updatedAt time.Time, found bool, err error) {
	rec, err := repo.GetState(ctx, name)
	if err != nil {
		if errors.Cause(err) == ErrStateNotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrapf(err, "loading %s", name)
	}
	if err = json.Unmarshal(rec.Data, dst); err != nil {
		return time.Time{}, false, errors.Wrapf(err, "decoding %s", name)
	}
	return rec.UpdatedAt, true, nil
}

// SaveState persists `src` under `name`.
func SaveState(ctx context.Context, repo StateRepository, name string, src interface{}, updatedAt time.Time) error {
	data, err := json.Marshal(src)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	rec := StateRecord{Name: name, Data: data, UpdatedAt: updatedAt.UTC()}
	if err = repo.PutState(ctx, rec); err != nil {
		return errors.Wrapf(err, "saving %s", name)
	}
	return nil
}
