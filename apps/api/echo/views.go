package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/router"
	"github.com/gimvicurnik/urnik/core/timetable"
)

type viewsApi struct {
	deps ServerDeps
}

type timetableView struct {
	router.Decision
	Day           int                      `json:"day"`
	CurrentLesson int                      `json:"currentLesson"`
	Lessons       []timetable.MergedLesson `json:"lessons"`
	Slots         []timetable.Slot         `json:"slots"`
}

func registerViewsAPI(g *echo.Group, deps ServerDeps) {
	api := viewsApi{deps: deps}

	g.GET("", api.home)
	g.GET("/welcome", api.welcome)
	g.GET("/timetable", api.timetableGuard)
	g.GET("/timetable/:type/:value", api.timetable)
}

func (api *viewsApi) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Router.Home())
}

func (api *viewsApi) welcome(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Router.Welcome())
}

func (api *viewsApi) timetableGuard(ctx echo.Context) error {
	d, err := api.deps.Router.Timetable(ctx.Request().Context(), "", "", ctx.QueryParam("from"))
	if err != nil {
		return errors.Wrap(err, "resolving timetable")
	}
	return ctx.JSON(http.StatusOK, d)
}

// timetable returns the merged lessons of the entity in the route.
// `?day=` selects the weekday (0 is Monday) of the session.
func (api *viewsApi) timetable(ctx echo.Context) error {
	d, err := api.deps.Router.Timetable(ctx.Request().Context(), ctx.Param("type"), ctx.Param("value"), ctx.QueryParam("from"))
	if err != nil {
		return errors.Wrap(err, "resolving timetable")
	}
	if d.View != router.ViewTimetable || d.Entity == nil {
		return ctx.JSON(http.StatusNotFound, d)
	}

	if day := ctx.QueryParam("day"); day != "" {
		n, err := strconv.Atoi(day)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid day")
		}
		api.deps.Session.SetDay(n)
	}

	show := api.deps.Settings.Get().ShowSubstitutions
	return ctx.JSON(http.StatusOK, timetableView{
		Decision:      d,
		Day:           api.deps.Session.Day(),
		CurrentLesson: core.CurrentLesson(api.deps.Clock.Now()),
		Lessons:       api.deps.Timetable.Lessons(*d.Entity, show),
		Slots:         api.deps.Timetable.Slots(*d.Entity, show),
	})
}
