package entity

import (
	"strings"

	"github.com/pkg/errors"
)

// Type is the kind of entity a timetable is shown for.
type Type string

const (
	None            Type = "none"
	Class           Type = "class"
	Teacher         Type = "teacher"
	Classroom       Type = "classroom"
	EmptyClassrooms Type = "emptyClassrooms"
)

// EmptyClassroomsName is the display name of the empty classrooms pseudo entity.
const EmptyClassroomsName = "Proste učilnice"

// route params
const (
	RouteClasses    = "classes"
	RouteTeachers   = "teachers"
	RouteClassrooms = "classrooms"
	RouteEmpty      = "empty"
)

var ErrInvalidRoute = errors.New("invalid entity route")

var Types = []string{string(None), string(Class), string(Teacher), string(Classroom), string(EmptyClassrooms)}

func (t Type) Valid() bool {
	switch t {
	case None, Class, Teacher, Classroom, EmptyClassrooms:
		return true
	}
	return false
}

// Entity is what the timetable is shown for: one or more classes, teachers or classrooms.
type Entity struct {
	Type Type     `json:"type"`
	List []string `json:"list"`
}

func (e Entity) IsNone() bool {
	return e.Type == None || e.Type == "" || (e.Type != EmptyClassrooms && len(e.List) == 0)
}

func (e Entity) String() string {
	if e.IsNone() {
		return ""
	}
	return strings.Join(e.List, ", ")
}

func NewEmptyClassrooms() Entity {
	return Entity{Type: EmptyClassrooms, List: []string{EmptyClassroomsName}}
}

// Route returns the route param and value of the entity timetable.
func (e Entity) Route() (param, value string, err error) {
	switch e.Type {
	case Class:
		param = RouteClasses
	case Teacher:
		param = RouteTeachers
	case Classroom:
		param = RouteClassrooms
	case EmptyClassrooms:
		return RouteClassrooms, RouteEmpty, nil
	default:
		return "", "", ErrInvalidRoute
	}
	if len(e.List) == 0 {
		return "", "", ErrInvalidRoute
	}
	return param, strings.Join(e.List, ","), nil
}

// Path returns the timetable path of the entity ("/timetable/<param>/<value>").
func (e Entity) Path() string {
	param, value, err := e.Route()
	if err != nil {
		return "/welcome"
	}
	return "/timetable/" + param + "/" + value
}

// TypeFromRoute maps a route param to the entity type.
func TypeFromRoute(param string) (Type, bool) {
	switch param {
	case RouteClasses:
		return Class, true
	case RouteTeachers:
		return Teacher, true
	case RouteClassrooms:
		return Classroom, true
	}
	return None, false
}

// ParseRoute splits a comma separated route value into names.
func ParseRoute(value string) []string {
	names := make([]string, 0)
	for _, n := range strings.Split(value, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
