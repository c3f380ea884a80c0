package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gimvicurnik/urnik/apps/shared"
	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/documents"
	"github.com/gimvicurnik/urnik/core/food"
	"github.com/gimvicurnik/urnik/core/notifications"
	"github.com/gimvicurnik/urnik/core/snackbar"
	"github.com/gimvicurnik/urnik/core/timetable"
	emailsvc "github.com/gimvicurnik/urnik/services/email"
	"github.com/gimvicurnik/urnik/services/network"
	"github.com/gimvicurnik/urnik/services/offline"
	bigcacherepo "github.com/gimvicurnik/urnik/storage/cache/bigcache"
	inmemdb "github.com/gimvicurnik/urnik/storage/database/inmem"
	tu "github.com/gimvicurnik/urnik/tests"
)

// monday 4 march 2024
var testNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	srv      Server
	app      *shared.App
	net      *network.Static
	upstream *httptest.Server
	hits     atomic.Int32
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{net: network.NewStatic(true)}

	mux := http.NewServeMux()
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"type":"circular","title":"C","url":"https://ucilnica.test/pluginfile.php/1/c.pdf"}]`))
	})
	mux.HandleFunc("/substitutions/date/2024-03-04", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accept":"` + r.Header.Get("Accept") + `","query":"` + r.URL.RawQuery + `"}`))
	})
	f.upstream = httptest.NewServer(mux)
	t.Cleanup(f.upstream.Close)

	conf := core.NewTestConfig()
	conf.Debug = false
	conf.Offline.OriginURL = f.upstream.URL
	conf.Offline.OfflinePage = ""

	fetcher := tu.NewStaticFetcher(map[string]interface{}{
		"/list/classes":               []string{"1A", "2B"},
		"/list/teachers":              []string{"Novak", "Kranjc"},
		"/list/classrooms":            []string{"P1", "P2"},
		"/timetable":                  []timetable.Lesson{{Day: 1, Time: 1, Subject: "MAT", Class: "1A", Teacher: "Novak", Classroom: "P1"}},
		"/timetable/classrooms/empty": []timetable.Lesson{{Day: 1, Time: 1, Classroom: "P2"}},
		"/documents":                  []documents.Document{{Type: "circular", Title: "C"}},
		"/notifications":              []notifications.Notification{},
	})
	for _, d := range core.Weekdays(testNow) {
		iso := core.ISODate(d)
		fetcher.Set("/substitutions/date/"+iso, []timetable.Substitution{})
		fetcher.Set("/menus/date/"+iso, food.Menu{})
		fetcher.Set("/schedule/date/"+iso, []food.LunchSchedule{})
	}

	cache, err := bigcacherepo.New(ctx, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	logger := tu.NewLogger()
	f.app, err = shared.New(ctx, shared.Deps{
		Conf:      conf,
		Logger:    logger,
		State:     inmemdb.NewStateRepository(inmemdb.Open()),
		Cache:     cache,
		Mailer:    emailsvc.NewConsoleServiceMock(conf, logger),
		Clock:     core.NewFixedClock(testNow),
		Transport: f.upstream.Client().Transport,
		Network:   f.net,
		Fetcher:   fetcher,
	})
	require.NoError(t, err)
	t.Cleanup(f.app.Close)
	require.NoError(t, f.app.Orchestrator.UpdateAll(ctx, false))

	f.srv = NewServer(ServerDeps{f.app})
	t.Cleanup(func() { _ = f.srv.Close() })
	return f
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_viewsApi(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f.srv, []httpTest{
		{
			name:     "home without entity",
			method:   http.MethodGet,
			path:     "/v1",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"welcome","redirect":"/welcome","replace":true}`),
		},
		{
			name:     "welcome",
			method:   http.MethodGet,
			path:     "/v1/welcome",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"welcome","replace":false}`),
		},
		{
			name:     "timetable guard without entity",
			method:   http.MethodGet,
			path:     "/v1/timetable",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"welcome","redirect":"/welcome","replace":false}`),
		},
		{
			name:     "timetable guard from home",
			method:   http.MethodGet,
			path:     "/v1/timetable?from=home",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"welcome","redirect":"/welcome","replace":true}`),
		},
		{
			name:     "unknown entity type",
			method:   http.MethodGet,
			path:     "/v1/timetable/lol/1A",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"view":"notFound","replace":true}`),
		},
		{
			name:     "invalid day",
			method:   http.MethodGet,
			path:     "/v1/timetable/classes/1A?day=lol",
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "invalid day"}),
		},
	})
}

func Test_viewsApi_timetable(t *testing.T) {
	f := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/timetable/classes/1A?day=1")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view struct {
		View   string `json:"view"`
		Entity struct {
			Type string   `json:"type"`
			List []string `json:"list"`
		} `json:"entity"`
		Day     int               `json:"day"`
		Lessons []json.RawMessage `json:"lessons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "timetable", view.View)
	assert.Equal(t, "class", view.Entity.Type)
	assert.Equal(t, []string{"1A"}, view.Entity.List)
	assert.Equal(t, 1, view.Day)
	assert.Len(t, view.Lessons, 1)

	// the session keeps the selection
	assert.Equal(t, 1, f.app.Session.Day())
	assert.Equal(t, []string{"1A"}, f.app.Session.Entity().List)

	req, rec = newRequest(http.MethodGet, "/v1/timetable/classes/3C")
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_settingsApi(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f.srv, []httpTest{
		{
			name:     "missing entity list",
			method:   http.MethodPut,
			path:     "/v1/settings",
			body:     []byte(`{"entityType":"class"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"entityList":"this field is required"}`),
		},
		{
			name:     "invalid entity type",
			method:   http.MethodPut,
			path:     "/v1/settings",
			body:     []byte(`{"entityType":"lol"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "valid",
			method:   http.MethodPut,
			path:     "/v1/settings",
			body:     []byte(`{"entityType":"class","entityList":[" 1A "],"moodleToken":"secret"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "home with entity",
			method:   http.MethodGet,
			path:     "/v1",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"timetable","redirect":"/timetable","replace":true}`),
		},
		{
			name:     "timetable guard with entity",
			method:   http.MethodGet,
			path:     "/v1/timetable",
			wantCode: http.StatusOK,
			wantData: []byte(`{"view":"timetable","redirect":"/timetable/classes/1A","replace":true}`),
		},
	})

	req, rec := newRequest(http.MethodGet, "/v1/settings")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "class", got["entityType"])
	assert.Equal(t, []interface{}{"1A"}, got["entityList"])
	assert.Equal(t, "********", got["moodleToken"])
	assert.Equal(t, "secret", f.app.Settings.Get().MoodleToken)
	assert.Equal(t, []string{"1A"}, f.app.Session.Entity().List)
}

func Test_dataApi(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f.srv, []httpTest{
		{
			name:     "menus: invalid date",
			method:   http.MethodGet,
			path:     "/v1/menus?date=lol",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"invalid date, expected YYYY-MM-DD"}`),
		},
		{
			name:     "notifications",
			method:   http.MethodGet,
			path:     "/v1/notifications",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	})

	req, rec := newRequest(http.MethodGet, "/v1/menus?date=2024-03-05")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var menu menuView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	assert.Equal(t, "2024-03-05", menu.Date)

	req, rec = newRequest(http.MethodGet, "/v1/circulars")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []documents.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "C", docs[0].Title)
}

func Test_syncApi(t *testing.T) {
	f := setup(t)

	runHTTPTests(t, f.srv, []httpTest{
		{
			name:     "message: missing action",
			method:   http.MethodPost,
			path:     "/v1/sw/messages",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"action":"this field is required"}`),
		},
		{
			name:     "message: unknown action",
			method:   http.MethodPost,
			path:     "/v1/sw/messages",
			body:     []byte(`{"action":"lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "lol: unknown action"}),
		},
		{
			name:     "message: clear data cache",
			method:   http.MethodPost,
			path:     "/v1/sw/messages",
			body:     []byte(`{"action":"clear-cache-data"}`),
			wantCode: http.StatusAccepted,
		},
	})

	req, rec := newRequest(http.MethodPost, "/v1/update?force=true")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res updateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "4. 3. 2024, 09:00", res.DataVersion)
	assert.Equal(t, snackbar.MsgUpdated, res.Snackbar.Message)

	f.net.Set(false)
	runHTTPTests(t, f.srv, []httpTest{
		{
			name:     "update offline",
			method:   http.MethodPost,
			path:     "/v1/update",
			wantCode: http.StatusServiceUnavailable,
			wantData: marshalObj(t, httpErr{Error: snackbar.MsgOffline}),
		},
	})

	req, rec = newRequest(http.MethodGet, "/v1/snackbar")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var snack snackbar.Snackbar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snack))
	assert.Equal(t, snackbar.MsgOffline, snack.Message)
}

func Test_syncApi_updates(t *testing.T) {
	f := setup(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/sw/updates", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	h := f.srv.(*server).hub
	require.Eventually(t, func() bool { return h.size() == 1 }, time.Second, 10*time.Millisecond)

	req, rec := newRequest(http.MethodPost, "/v1/sw/messages", []byte(`{"action":"clear-cache-all"}`))
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg offline.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.True(t, msg.RefreshAll)
	assert.Equal(t, "refreshAll", msg.Action())
}

func Test_proxyApi(t *testing.T) {
	f := setup(t)

	for i := 0; i < 2; i++ {
		req, rec := newRequest(http.MethodGet, "/api/documents")
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var docs []documents.Document
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		assert.Len(t, docs, 1)
	}
	f.app.Worker.Wait()
	// miss, then hit with a background revalidation
	assert.Equal(t, int32(2), f.hits.Load())

	// path and query are forwarded below the origin, JSON is asked for by default
	req, rec := newRequest(http.MethodGet, "/api/substitutions/date/2024-03-04?x=1")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accept":"application/json","query":"x=1"}`, rec.Body.String())

	req, rec = newRequest(http.MethodGet, "/api/lol")
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newRequest(http.MethodGet, "/metrics")
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `urnik_offline_requests_total{result="hit"} 1`)
	assert.Contains(t, rec.Body.String(), `urnik_offline_requests_total{result="miss"} 3`)
	assert.Contains(t, rec.Body.String(), "urnik_store_updates_total")
}
