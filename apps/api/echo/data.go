package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/documents"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/food"
)

type dataApi struct {
	deps      ServerDeps
	tokenizer documents.Tokenizer
}

type menuView struct {
	Date           string               `json:"date"`
	Snack          string               `json:"snack"`
	Lunch          string               `json:"lunch"`
	LunchUntil     string               `json:"lunchUntil,omitempty"`
	Menu           *food.Menu           `json:"menu"`
	LunchSchedules []food.LunchSchedule `json:"lunchSchedules"`
}

func registerDataAPI(g *echo.Group, deps ServerDeps) {
	api := dataApi{
		deps: deps,
		tokenizer: documents.Tokenizer{
			NormalURL:     deps.Conf.EClassroom.NormalURL,
			WebserviceURL: deps.Conf.EClassroom.WebserviceURL,
		},
	}

	g.GET("/menus", api.menus)
	g.GET("/circulars", api.circulars)
	g.GET("/documents", api.documents)
	g.GET("/notifications", api.notifications)
}

// menus returns the snack and lunch of `?date=` (today by default) for the selected menu types.
// Lunch schedules are limited to the selected classes.
func (api *dataApi) menus(ctx echo.Context) error {
	date := api.deps.Clock.Now()
	if d := ctx.QueryParam("date"); d != "" {
		parsed, err := core.ParseISODate(d)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date, expected YYYY-MM-DD"})
		}
		date = parsed
	}

	s := api.deps.Settings.Get()
	view := menuView{
		Date:  core.ISODate(date),
		Snack: api.deps.Food.Snack(date, string(s.SnackType)),
		Lunch: api.deps.Food.Lunch(date, string(s.LunchType)),
	}
	if m, ok := api.deps.Food.Menu(date); ok {
		view.Menu = &m
		if m.Lunch != nil && m.Lunch.Until != nil {
			view.LunchUntil = *m.Lunch.Until
		}
	}

	var classes []string
	if ent := s.Entity(); ent.Type == entity.Class {
		classes = ent.List
	}
	view.LunchSchedules = api.deps.Food.LunchSchedules(date, classes)
	return ctx.JSON(http.StatusOK, view)
}

func (api *dataApi) circulars(ctx echo.Context) error {
	docs := api.deps.Documents.Filter(documents.CircularTypes)
	return ctx.JSON(http.StatusOK, api.tokenizer.Tokenize(docs, api.deps.Settings.Get().MoodleToken))
}

func (api *dataApi) documents(ctx echo.Context) error {
	docs := api.deps.Documents.Filter(documents.DocumentTypes)
	return ctx.JSON(http.StatusOK, api.tokenizer.Tokenize(docs, api.deps.Settings.Get().MoodleToken))
}

func (api *dataApi) notifications(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.deps.Notifications.Notifications())
}
