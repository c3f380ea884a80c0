package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // nolint:gosec
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/gimvicurnik/urnik/apps/api/echo"
	"github.com/gimvicurnik/urnik/apps/shared"
	"github.com/gimvicurnik/urnik/core"
	emailsvc "github.com/gimvicurnik/urnik/services/email"
	logsvc "github.com/gimvicurnik/urnik/services/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		return err
	}

	logger := logsvc.NewRollbarLogger(conf)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up storage
	st, err := shared.OpenStorage(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "setting up storage")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	app, err := shared.New(ctx, shared.Deps{
		Conf:   conf,
		Logger: logger,
		State:  st.State,
		Cache:  st.Cache,
		Mailer: emailsvc.NewService(conf, logger),
	})
	if err != nil {
		return errors.Wrap(err, "setting up application")
	}
	defer app.Close()

	conf.Watch(logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = app.Worker.Install(ctx); err != nil {
		logger.Warn("installing offline caches", err)
	}
	if err = app.Worker.Activate(ctx); err != nil {
		logger.Warn("activating offline caches", err)
	}
	if err = app.WatchCacheUpdates(ctx); err != nil {
		return errors.Wrap(err, "watching cache updates")
	}

	if names, err := app.Orchestrator.UpdateOnLoad(ctx, false); err != nil {
		logger.Warn("updating on load", err)
	} else if len(names) > 0 {
		logger.Info("updated on load", map[string]interface{}{"tasks": names})
	}
	go app.Orchestrator.Run(ctx, conf.Sync.PollInterval)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("dataVersion", expvar.Func(func() interface{} { return app.Settings.Get().DataVersion }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil { // nolint:gosec
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{App: app})
	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		cancel()

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}
