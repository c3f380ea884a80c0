// Package router maps the views to their guards: which entity a timetable shows and where to redirect.
package router

import (
	"context"

	"github.com/kat-co/vala"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/lists"
	"github.com/gimvicurnik/urnik/core/session"
	"github.com/gimvicurnik/urnik/core/settings"
)

// views
const (
	ViewHome      = "home"
	ViewWelcome   = "welcome"
	ViewTimetable = "timetable"
	ViewNotFound  = "notFound"
)

const maxSuggestions = 3

type (
	// ListsEnsurer refreshes the lists, waiting only when they are still empty.
	ListsEnsurer interface {
		EnsureLists(ctx context.Context) error
	}

	// Decision is the outcome of a guard: render View, or redirect to Redirect when set.
	Decision struct {
		View        string         `json:"view"`
		Redirect    string         `json:"redirect,omitempty"`
		Replace     bool           `json:"replace"`
		Entity      *entity.Entity `json:"entity,omitempty"`
		Suggestions []string       `json:"suggestions,omitempty"`
	}
)

func (d Decision) IsRedirect() bool { return d.Redirect != "" }

type Router struct {
	settings *settings.Service
	session  *session.Session
	lists    *lists.Service
	ensurer  ListsEnsurer
}

func New(settingsSvc *settings.Service, sess *session.Session, listsSvc *lists.Service, ensurer ListsEnsurer) (*Router, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(settingsSvc, "settingsSvc"),
		vala.IsNotNil(sess, "sess"),
		vala.IsNotNil(listsSvc, "listsSvc"),
		vala.IsNotNil(ensurer, "ensurer"),
	).Check()
	if err != nil {
		return nil, err
	}
	return &Router{settings: settingsSvc, session: sess, lists: listsSvc, ensurer: ensurer}, nil
}

func redirect(view, path string, replace bool) Decision {
	return Decision{View: view, Redirect: path, Replace: replace}
}

// Home sends the user to the timetable, or to the welcome page when no entity is selected.
func (r *Router) Home() Decision {
	if r.settings.Get().Entity().IsNone() {
		return redirect(ViewWelcome, "/welcome", true)
	}
	return redirect(ViewTimetable, "/timetable", true)
}

// Welcome sends the user to the timetable when an entity is selected.
func (r *Router) Welcome() Decision {
	if !r.settings.Get().Entity().IsNone() {
		return redirect(ViewTimetable, "/timetable", true)
	}
	return Decision{View: ViewWelcome}
}

// Timetable resolves the entity of a timetable route. `from` is the view the user comes from.
func (r *Router) Timetable(ctx context.Context, param, value, from string) (Decision, error) {
	if param == "" {
		ent := r.session.Entity()
		if ent.IsNone() {
			ent = r.session.ResetToSettings()
		}
		if ent.IsNone() {
			// replace only when coming from home
			return redirect(ViewWelcome, "/welcome", from == ViewHome), nil
		}
		ent = r.session.ResetToSettings()
		return redirect(ViewTimetable, ent.Path(), true), nil
	}

	names := entity.ParseRoute(value)
	if len(names) > 0 {
		if err := r.ensurer.EnsureLists(ctx); err != nil && r.lists.Empty() {
			return Decision{}, err
		}

		if typ, ok := entity.TypeFromRoute(param); ok && r.lists.Contains(typ, names) {
			ent := entity.Entity{Type: typ, List: names}
			r.session.SetEntity(ent)
			return Decision{View: ViewTimetable, Entity: &ent}, nil
		}
		if param == entity.RouteClassrooms && len(names) == 1 && names[0] == entity.RouteEmpty {
			ent := entity.NewEmptyClassrooms()
			r.session.SetEntity(ent)
			return Decision{View: ViewTimetable, Entity: &ent}, nil
		}
	}

	return r.notFound(param, names), nil
}

func (r *Router) notFound(param string, names []string) Decision {
	d := Decision{View: ViewNotFound, Replace: true}
	typ, ok := entity.TypeFromRoute(param)
	if !ok {
		return d
	}
	candidates := r.lists.Names(typ)
	for _, n := range names {
		for _, s := range entity.Suggest(n, candidates, maxSuggestions) {
			if len(d.Suggestions) < maxSuggestions && !core.ContainsString(d.Suggestions, s) {
				d.Suggestions = append(d.Suggestions, s)
			}
		}
	}
	return d
}
