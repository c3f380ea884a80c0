package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/lists"
	"github.com/gimvicurnik/urnik/core/session"
	"github.com/gimvicurnik/urnik/core/settings"
	inmemdb "github.com/gimvicurnik/urnik/storage/database/inmem"
	testutil "github.com/gimvicurnik/urnik/tests"
)

type listsUpdater struct {
	lists *lists.Service
	calls int
}

func (u *listsUpdater) EnsureLists(ctx context.Context) error {
	u.calls++
	return u.lists.Update(ctx)
}

func newTestRouter(t *testing.T) (*Router, *settings.Service, *session.Session, *listsUpdater) {
	repo := inmemdb.NewStateRepository(inmemdb.Open())
	validate, translator := core.NewValidator()
	settingsSvc, err := settings.NewService(repo, settings.NewSealer("k"), validate, translator)
	require.NoError(t, err)
	listsSvc, err := lists.NewService(repo, testutil.NewStaticFetcher(map[string]interface{}{
		"/list/classes":    []string{"1A", "2B", "3C"},
		"/list/teachers":   []string{"Novak", "Kranjc"},
		"/list/classrooms": []string{"P1", "P2"},
	}))
	require.NoError(t, err)
	sess := session.New(settingsSvc, core.NewFixedClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)))
	updater := &listsUpdater{lists: listsSvc}
	r, err := New(settingsSvc, sess, listsSvc, updater)
	require.NoError(t, err)
	return r, settingsSvc, sess, updater
}

func TestRouter_HomeAndWelcome(t *testing.T) {
	r, settingsSvc, _, _ := newTestRouter(t)

	assert.Equal(t, Decision{View: ViewWelcome, Redirect: "/welcome", Replace: true}, r.Home())
	assert.Equal(t, Decision{View: ViewWelcome}, r.Welcome())

	require.NoError(t, settingsSvc.SetEntity(context.Background(), entity.Entity{Type: entity.Teacher, List: []string{"Novak"}}))
	assert.Equal(t, Decision{View: ViewTimetable, Redirect: "/timetable", Replace: true}, r.Home())
	assert.Equal(t, Decision{View: ViewTimetable, Redirect: "/timetable", Replace: true}, r.Welcome())
}

func TestRouter_TimetableWithoutParams(t *testing.T) {
	ctx := context.Background()
	r, settingsSvc, sess, _ := newTestRouter(t)

	d, err := r.Timetable(ctx, "", "", ViewHome)
	require.NoError(t, err)
	assert.Equal(t, Decision{View: ViewWelcome, Redirect: "/welcome", Replace: true}, d)

	d, err = r.Timetable(ctx, "", "", ViewTimetable)
	require.NoError(t, err)
	assert.False(t, d.Replace)

	require.NoError(t, settingsSvc.SetEntity(ctx, entity.Entity{Type: entity.Class, List: []string{"1A", "2B"}}))
	d, err = r.Timetable(ctx, "", "", ViewHome)
	require.NoError(t, err)
	assert.Equal(t, Decision{View: ViewTimetable, Redirect: "/timetable/classes/1A,2B", Replace: true}, d)
	assert.Equal(t, entity.Entity{Type: entity.Class, List: []string{"1A", "2B"}}, sess.Entity())
}

func TestRouter_TimetableWithParams(t *testing.T) {
	tests := []struct {
		name            string
		param           string
		value           string
		wantView        string
		wantEntity      *entity.Entity
		wantSuggestions []string
	}{
		{name: "class", param: "classes", value: "1A", wantView: ViewTimetable, wantEntity: &entity.Entity{Type: entity.Class, List: []string{"1A"}}},
		{name: "any known value accepted", param: "classes", value: "9Z,2B", wantView: ViewTimetable, wantEntity: &entity.Entity{Type: entity.Class, List: []string{"9Z", "2B"}}},
		{name: "teacher", param: "teachers", value: "Kranjc", wantView: ViewTimetable, wantEntity: &entity.Entity{Type: entity.Teacher, List: []string{"Kranjc"}}},
		{name: "classroom", param: "classrooms", value: "P2", wantView: ViewTimetable, wantEntity: &entity.Entity{Type: entity.Classroom, List: []string{"P2"}}},
		{name: "empty classrooms", param: "classrooms", value: "empty", wantView: ViewTimetable, wantEntity: &entity.Entity{Type: entity.EmptyClassrooms, List: []string{entity.EmptyClassroomsName}}},
		{name: "unknown teacher", param: "teachers", value: "Novk", wantView: ViewNotFound, wantSuggestions: []string{"Novak"}},
		{name: "wrong type", param: "teachers", value: "1A", wantView: ViewNotFound},
		{name: "unknown param", param: "students", value: "1A", wantView: ViewNotFound},
		{name: "empty value", param: "classes", value: "", wantView: ViewNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, sess, _ := newTestRouter(t)
			d, err := r.Timetable(context.Background(), tt.param, tt.value, ViewHome)
			require.NoError(t, err)
			assert.Equal(t, tt.wantView, d.View)
			assert.False(t, d.IsRedirect())
			assert.Equal(t, tt.wantEntity, d.Entity)
			assert.Equal(t, tt.wantSuggestions, d.Suggestions)
			if tt.wantEntity != nil {
				assert.Equal(t, *tt.wantEntity, sess.Entity())
			} else {
				assert.True(t, d.Replace)
				assert.True(t, sess.Entity().IsNone())
			}
		})
	}
}

func TestRouter_TimetableRefreshesLists(t *testing.T) {
	r, _, _, updater := newTestRouter(t)
	_, err := r.Timetable(context.Background(), "classes", "1A", ViewHome)
	require.NoError(t, err)
	_, err = r.Timetable(context.Background(), "classes", "2B", ViewTimetable)
	require.NoError(t, err)
	assert.Equal(t, 2, updater.calls)
}
