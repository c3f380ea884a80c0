package echoapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core/snackbar"
	"github.com/gimvicurnik/urnik/services/apiclient"
)

type syncApi struct {
	deps     ServerDeps
	hub      *hub
	upgrader websocket.Upgrader
}

type (
	updateResult struct {
		DataVersion string            `json:"dataVersion"`
		Snackbar    snackbar.Snackbar `json:"snackbar"`
	}

	swMessage struct {
		Action string `json:"action" validate:"required"`
	}
)

func registerSyncAPI(g *echo.Group, deps ServerDeps, h *hub) {
	api := syncApi{
		deps: deps,
		hub:  h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	g.POST("/update", api.update)
	g.GET("/snackbar", api.snackbar)
	g.POST("/sw/messages", api.message)
	g.GET("/sw/updates", api.updates)
}

// update refreshes every store. `?force=true` bypasses the offline caches.
func (api *syncApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if force, _ := strconv.ParseBool(ctx.QueryParam("force")); force {
		reqCtx = apiclient.Force(reqCtx)
	}
	if err := api.deps.Orchestrator.UpdateAll(reqCtx, true); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updateResult{
		DataVersion: api.deps.Settings.Get().DataVersion,
		Snackbar:    api.deps.Snackbar.Current(),
	})
}

func (api *syncApi) snackbar(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Snackbar.Current())
}

func (api *syncApi) message(ctx echo.Context) error {
	var data swMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to swMessage")
	}
	if err := api.deps.Validate.Struct(data); err != nil {
		return err
	}
	if err := api.deps.Worker.HandleMessage(ctx.Request().Context(), data.Action); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusAccepted)
}

// updates streams the cache-updates broadcasts over a websocket.
func (api *syncApi) updates(ctx echo.Context) error {
	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading to websocket")
	}
	api.hub.serve(api.hub.register(conn))
	return nil
}

// registerProxy serves the remote API through the offline worker: `/api/<path>` maps to `<origin>/<path>`.
func registerProxy(g *echo.Group, deps ServerDeps) error {
	origin, err := url.Parse(deps.Conf.Offline.OriginURL)
	if err != nil {
		return errors.Wrap(err, "parsing origin URL")
	}
	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer:  middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{Name: "origin", URL: origin}}),
		Rewrite:   map[string]string{"/api/*": "/$1"},
		Transport: deps.Worker,
	})
	g.GET("/*", echo.NotFoundHandler, defaultAccept, proxy)
	return nil
}

// defaultAccept asks for JSON when the client does not say otherwise.
func defaultAccept(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if ctx.Request().Header.Get(echo.HeaderAccept) == "" {
			ctx.Request().Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
		}
		return next(ctx)
	}
}
