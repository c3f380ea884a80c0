package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/settings"
	inmemdb "github.com/gimvicurnik/urnik/storage/database/inmem"
)

func TestSession(t *testing.T) {
	validate, translator := core.NewValidator()
	settingsSvc, err := settings.NewService(inmemdb.NewStateRepository(inmemdb.Open()), settings.NewSealer("k"), validate, translator)
	require.NoError(t, err)

	// Saturday counts as Monday
	sess := New(settingsSvc, core.NewFixedClock(time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, sess.Day())
	assert.True(t, sess.Entity().IsNone())

	sess.SetDay(7)
	assert.Equal(t, 4, sess.Day())
	sess.ResetDay()
	assert.Equal(t, 0, sess.Day())

	sess.SetEntity(entity.Entity{Type: entity.Teacher, List: []string{"Novak"}})
	assert.Equal(t, entity.Teacher, sess.Entity().Type)

	require.NoError(t, settingsSvc.SetEntity(context.Background(), entity.Entity{Type: entity.Class, List: []string{"3C"}}))
	ent := sess.ResetToSettings()
	assert.Equal(t, entity.Entity{Type: entity.Class, List: []string{"3C"}}, ent)
	assert.Equal(t, ent, sess.Entity())
}
