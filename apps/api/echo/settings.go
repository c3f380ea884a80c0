package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core/notifications"
	"github.com/gimvicurnik/urnik/core/settings"
)

type settingsApi struct {
	deps ServerDeps
}

func registerSettingsAPI(g *echo.Group, deps ServerDeps) {
	api := settingsApi{deps: deps}

	g.GET("/settings", api.retrieve)
	g.PUT("/settings", api.update)
	g.GET("/notifications/preferences", api.retrievePreferences)
	g.PUT("/notifications/preferences", api.updatePreferences)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Settings.Get().Public())
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data settings.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	s, err := api.deps.Settings.Update(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	// the shown entity follows the settings
	if data.EntityType != nil || data.EntityList != nil {
		api.deps.Session.ResetToSettings()
	}
	return ctx.JSON(http.StatusOK, s.Public())
}

func (api *settingsApi) retrievePreferences(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Notifications.Preferences())
}

func (api *settingsApi) updatePreferences(ctx echo.Context) error {
	var data notifications.UpdatePreferences
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePreferences")
	}
	prefs, err := api.deps.Notifications.UpdatePreferences(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prefs)
}
