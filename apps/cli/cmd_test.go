package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimvicurnik/urnik/apps/shared"
	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/documents"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/food"
	"github.com/gimvicurnik/urnik/core/notifications"
	"github.com/gimvicurnik/urnik/core/snackbar"
	"github.com/gimvicurnik/urnik/core/timetable"
	emailsvc "github.com/gimvicurnik/urnik/services/email"
	"github.com/gimvicurnik/urnik/services/network"
	tu "github.com/gimvicurnik/urnik/tests"
)

// monday 4 march 2024
var testNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	cli *commandLine
	out *bytes.Buffer
	net *network.Static
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	conf := core.NewTestConfig()
	conf.Database.Name = filepath.Join(t.TempDir(), "urnik.db")
	conf.Offline.Backend = shared.CacheBackendSQL
	conf.Offline.OfflinePage = ""

	st, err := shared.OpenStorage(ctx, conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	fetcher := tu.NewStaticFetcher(map[string]interface{}{
		"/list/classes":    []string{"1A", "2B"},
		"/list/teachers":   []string{"Novak", "Kranjc"},
		"/list/classrooms": []string{"P1", "P2"},
		"/timetable": []timetable.Lesson{
			{Day: 1, Time: 1, Subject: "MAT", Class: "1A", Teacher: "Novak", Classroom: "P1"},
			{Day: 2, Time: 3, Subject: "FIZ", Class: "1A", Teacher: "Kranjc", Classroom: "P2"},
		},
		"/timetable/classrooms/empty": []timetable.Lesson{{Day: 1, Time: 1, Classroom: "P2"}},
		"/documents":                  []documents.Document{},
		"/notifications":              []notifications.Notification{},
	})
	for _, d := range core.Weekdays(testNow) {
		iso := core.ISODate(d)
		fetcher.Set("/substitutions/date/"+iso, []timetable.Substitution{})
		fetcher.Set("/menus/date/"+iso, food.Menu{})
		fetcher.Set("/schedule/date/"+iso, []food.LunchSchedule{})
	}

	f := &fixture{out: new(bytes.Buffer), net: network.NewStatic(true)}
	logger := tu.NewLogger()
	app, err := shared.New(ctx, shared.Deps{
		Conf:    conf,
		Logger:  logger,
		State:   st.State,
		Cache:   st.Cache,
		Mailer:  emailsvc.NewConsoleServiceMock(conf, logger),
		Clock:   core.NewFixedClock(testNow),
		Network: f.net,
		Fetcher: fetcher,
	})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	f.cli = newCommandLine(app, st, f.out)
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func runCLITests(t *testing.T, f *fixture, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.out.Reset()
			err := f.cli.run(context.Background(), tt.args)
			switch {
			case tt.wantErr != nil:
				if errors.Cause(err) != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, f.out.String(), want)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	f := setup(t)

	runCLITests(t, f, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
		{name: "settings: no subcommand", args: []string{"settings"}, wantErr: errHelp},
		{name: "cache: no subcommand", args: []string{"cache"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	defer func(orig func(context.Context, *sqlx.DB, string, ...string) error) { migrateFunc = orig }(migrateFunc)
	migrateFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, f, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	})
}

func Test_commandLine_migrateRuns(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.cli.run(context.Background(), []string{"migrate", "version"}))
}

func Test_commandLine_update(t *testing.T) {
	f := setup(t)

	runCLITests(t, f, []cliTest{
		{name: "update", args: []string{"update"}, wantOut: []string{snackbar.MsgUpdated, "4. 3. 2024, 09:00"}},
		{name: "forced update", args: []string{"update", "--force"}, wantOut: []string{snackbar.MsgUpdated}},
		{name: "unexpected arg", args: []string{"update", "lol"}, wantErrStr: "unknown command"},
	})

	f.net.Set(false)
	runCLITests(t, f, []cliTest{
		{name: "offline", args: []string{"update"}, wantErr: core.ErrOffline, wantOut: []string{snackbar.MsgOffline}},
	})
}

func Test_commandLine_show(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.cli.run(context.Background(), []string{"update"}))

	runCLITests(t, f, []cliTest{
		{name: "no entity selected", args: []string{"show"}, wantErr: errNoEntity},
		{name: "missing names", args: []string{"show", "classes"}, wantErr: errHelp},
		{name: "unknown class", args: []string{"show", "classes", "1B"}, wantErr: errNotFound},
		{name: "unknown type", args: []string{"show", "lol", "1A"}, wantErr: errNotFound},
		{name: "monday", args: []string{"show", "classes", "1A", "--day", "0"}, wantOut: []string{"1A · Ponedeljek", "MAT", "Novak", "8:00 - 8:45"}},
		{name: "tuesday", args: []string{"show", "classes", "1A", "-d", "1"}, wantOut: []string{"Torek", "FIZ", "P2"}},
		{name: "free day", args: []string{"show", "classes", "1A", "--day", "4"}, wantOut: []string{"Petek", "Ni pouka."}},
		{name: "empty classrooms", args: []string{"show", "classrooms", "empty", "--day", "0"}, wantOut: []string{entity.EmptyClassroomsName, "P2"}},
	})

	require.NoError(t, f.cli.run(context.Background(), []string{"settings", "set", "entityType=teacher", "entityList=Novak"}))
	runCLITests(t, f, []cliTest{
		{name: "selected entity", args: []string{"show", "--day", "0"}, wantOut: []string{"Novak · Ponedeljek", "MAT"}},
	})
}

func Test_commandLine_settings(t *testing.T) {
	f := setup(t)

	runCLITests(t, f, []cliTest{
		{name: "get", args: []string{"settings", "get"}, wantOut: []string{`"entityType"`, `"showSubstitutions": true`}},
		{name: "set: no pairs", args: []string{"settings", "set"}, wantErrStr: "requires at least 1 arg"},
		{name: "set: not a pair", args: []string{"settings", "set", "lol"}, wantErr: errInvalidPair},
		{name: "set: unknown key", args: []string{"settings", "set", "lol=1"}, wantErrStr: "unknown field"},
		{name: "set: invalid entity type", args: []string{"settings", "set", "entityType=lol"}, wantErrStr: "invalid settings"},
		{
			name:    "set",
			args:    []string{"settings", "set", "entityType=class", "entityList=1A,2B", "showSubstitutions=false"},
			wantOut: []string{`"showSubstitutions": false`, `"1A"`},
		},
	})

	s := f.cli.app.Settings.Get()
	assert.Equal(t, entity.Class, s.EntityType)
	assert.Equal(t, []string{"1A", "2B"}, s.EntityList)
	assert.False(t, s.ShowSubstitutions)
	assert.Equal(t, []string{"1A", "2B"}, f.cli.app.Session.Entity().List)
}

func Test_commandLine_secret(t *testing.T) {
	f := setup(t)

	var secret string
	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)
	readPasswordFunc = func(int) ([]byte, error) { return []byte(secret), nil }

	runCLITests(t, f, []cliTest{
		{name: "no name", args: []string{"secret"}, wantErrStr: "accepts 1 arg"},
		{name: "unknown name", args: []string{"secret", "lol"}, wantErrStr: `invalid argument "lol"`},
		{name: "empty secret", args: []string{"secret", "moodle-token"}, wantErr: errHelp},
	})

	secret = "tok3n"
	runCLITests(t, f, []cliTest{
		{name: "moodle token", args: []string{"secret", "moodle-token"}, wantOut: []string{"Enter moodle-token:"}},
	})
	secret = "pa55"
	runCLITests(t, f, []cliTest{
		{name: "circulars password", args: []string{"secret", "circulars-password"}},
	})

	s := f.cli.app.Settings.Get()
	assert.Equal(t, "tok3n", s.MoodleToken)
	assert.Equal(t, "pa55", s.CircularsPassword)
}

func Test_commandLine_cache(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	repo := f.cli.st.Cache
	w := f.cli.app.Worker

	for _, resp := range []core.CachedResponse{
		{Cache: w.DataCache(), URL: "http://api.test/timetable", Status: 200, Body: []byte(`[]`), StoredAt: testNow},
		{Cache: w.MainCache(), URL: "http://api.test/", Status: 200, Body: []byte(`<html></html>`), StoredAt: testNow},
		{Cache: "urnik-data-v0", URL: "http://api.test/timetable", Status: 200, Body: []byte(`[]`), StoredAt: testNow},
	} {
		require.NoError(t, repo.PutResponse(ctx, resp))
	}

	runCLITests(t, f, []cliTest{
		{name: "list", args: []string{"cache", "list"}, wantOut: []string{w.DataCache(), w.MainCache(), "urnik-data-v0", "13 B"}},
		{name: "clear: no target", args: []string{"cache", "clear"}, wantErrStr: "accepts 1 arg"},
		{name: "clear: unknown target", args: []string{"cache", "clear", "lol"}, wantErrStr: `invalid argument "lol"`},
		{name: "clear data", args: []string{"cache", "clear", "data"}, wantOut: []string{"cleared data"}},
	})

	_, err := repo.GetResponse(ctx, w.DataCache(), "http://api.test/timetable")
	assert.Equal(t, core.ErrCacheMiss, errors.Cause(err))
	_, err = repo.GetResponse(ctx, w.MainCache(), "http://api.test/")
	assert.NoError(t, err)

	runCLITests(t, f, []cliTest{
		{name: "install", args: []string{"cache", "install"}, wantOut: []string{"installed " + w.MainCache()}},
	})
	caches, err := repo.ListCaches(ctx)
	require.NoError(t, err)
	assert.NotContains(t, caches, "urnik-data-v0")
}
