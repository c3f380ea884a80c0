// Package shared assembles the services used by the API server and the admin CLI.
package shared

import (
	"context"
	"net/http"

	"github.com/asaskevich/EventBus"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/documents"
	"github.com/gimvicurnik/urnik/core/food"
	"github.com/gimvicurnik/urnik/core/lists"
	"github.com/gimvicurnik/urnik/core/notifications"
	"github.com/gimvicurnik/urnik/core/router"
	"github.com/gimvicurnik/urnik/core/session"
	"github.com/gimvicurnik/urnik/core/settings"
	"github.com/gimvicurnik/urnik/core/snackbar"
	"github.com/gimvicurnik/urnik/core/timetable"
	"github.com/gimvicurnik/urnik/core/update"
	"github.com/gimvicurnik/urnik/services/apiclient"
	"github.com/gimvicurnik/urnik/services/network"
	"github.com/gimvicurnik/urnik/services/offline"
)

type Deps struct {
	Conf   *core.Config
	Logger core.Logger
	State  core.StateRepository
	Cache  core.CacheRepository
	Mailer core.EmailService

	// optional
	Clock     *core.Clock
	Registry  *prometheus.Registry
	Transport http.RoundTripper     // used by the offline worker to reach the network
	Network   update.NetworkChecker // defaults to probing the API base URL
	Fetcher   core.Fetcher          // defaults to the API client going through the offline worker
}

type App struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Clock      *core.Clock
	Registry   *prometheus.Registry

	Worker        *offline.Worker
	Settings      *settings.Service
	Session       *session.Session
	Lists         *lists.Service
	Timetable     *timetable.Service
	Food          *food.Service
	Documents     *documents.Service
	Notifications *notifications.Service
	Snackbar      *snackbar.Store
	Orchestrator  *update.Orchestrator
	Router        *router.Router
}

// New builds the services and loads the persisted stores.
func New(ctx context.Context, deps Deps) (*App, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(deps.Conf, "Conf"),
		vala.IsNotNil(deps.Logger, "Logger"),
		vala.IsNotNil(deps.State, "State"),
		vala.IsNotNil(deps.Cache, "Cache"),
		vala.IsNotNil(deps.Mailer, "Mailer"),
	).Check()
	if err != nil {
		return nil, err
	}
	conf := deps.Conf

	app := &App{Conf: conf, Logger: deps.Logger, Clock: deps.Clock, Registry: deps.Registry, Snackbar: snackbar.NewStore()}
	app.Validate, app.Translator = core.NewValidator()
	if app.Clock == nil {
		if app.Clock, err = core.NewClock(conf.Sync.CustomDate); err != nil {
			return nil, err
		}
	}
	if app.Registry == nil {
		app.Registry = prometheus.NewRegistry()
		app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	app.Worker, err = offline.New(offline.Options{
		Prefix:      conf.Offline.CachePrefix,
		Version:     conf.Offline.Version,
		Origin:      conf.Offline.OriginURL,
		OfflinePage: conf.Offline.OfflinePage,
		Assets:      conf.Offline.Assets,
		Data:        conf.Offline.Data,
		Repo:        deps.Cache,
		Transport:   deps.Transport,
		Bus:         EventBus.New(),
		Logger:      deps.Logger,
		Metrics:     offline.NewMetrics(app.Registry),
	})
	if err != nil {
		return nil, errors.Wrap(err, "setting up offline worker")
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		client := &http.Client{Transport: app.Worker, Timeout: conf.API.Timeout}
		if fetcher, err = apiclient.New(conf.API.BaseURL, client); err != nil {
			return nil, errors.Wrap(err, "setting up api client")
		}
	}
	checker := deps.Network
	if checker == nil {
		checker = network.NewChecker(conf.API.BaseURL, &http.Client{Transport: deps.Transport})
	}

	if app.Settings, err = settings.NewService(deps.State, settings.NewSealer(conf.SecretKey), app.Validate, app.Translator); err != nil {
		return nil, err
	}
	if app.Lists, err = lists.NewService(deps.State, fetcher); err != nil {
		return nil, err
	}
	if app.Timetable, err = timetable.NewService(deps.State, fetcher); err != nil {
		return nil, err
	}
	if app.Food, err = food.NewService(deps.State, fetcher); err != nil {
		return nil, err
	}
	if app.Documents, err = documents.NewService(deps.State, fetcher); err != nil {
		return nil, err
	}
	if app.Notifications, err = notifications.NewService(deps.State, fetcher, deps.Mailer, app.Validate, app.Translator); err != nil {
		return nil, err
	}

	app.Orchestrator, err = update.New(update.Options{
		Settings: app.Settings,
		Stores: update.Stores{
			Lists:         app.Lists,
			Timetable:     app.Timetable,
			Food:          app.Food,
			Documents:     app.Documents,
			Notifications: app.Notifications,
		},
		Snackbar: app.Snackbar,
		Network:  checker,
		Logger:   deps.Logger,
		Clock:    app.Clock,
		Metrics:  update.NewMetrics(app.Registry),
		MaxAge:   conf.Sync.MaxAge,
	})
	if err != nil {
		return nil, err
	}
	if err = app.Orchestrator.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "loading stores")
	}

	// crash reports follow the user's consent
	if r, ok := deps.Logger.(core.Reporter); ok {
		consent := func(s settings.Settings) { r.EnableReports(s.DataCollectionCrashes) }
		consent(app.Settings.Get())
		app.Settings.OnChange(consent)
	}

	app.Session = session.New(app.Settings, app.Clock)
	if app.Router, err = router.New(app.Settings, app.Session, app.Lists, app.Orchestrator); err != nil {
		return nil, err
	}
	return app, nil
}

// WatchCacheUpdates refreshes the stores on the offline worker broadcasts.
func (app *App) WatchCacheUpdates(ctx context.Context) error {
	return app.Worker.Subscribe(func(msg offline.Message) {
		if err := app.Orchestrator.OnCacheUpdate(ctx, msg.Action(), msg.Path); err != nil {
			app.Logger.Warn("refreshing after cache update", err)
		}
	})
}

// Close stops the background work.
func (app *App) Close() {
	app.Worker.Close()
	app.Orchestrator.Wait()
}
