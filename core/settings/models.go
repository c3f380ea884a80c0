package settings

import (
	"time"

	"github.com/gimvicurnik/urnik/core/entity"
)

type (
	SnackType string
	LunchType string
	ThemeType string
)

const (
	SnackNormal         SnackType = "normal"
	SnackVegetarian     SnackType = "vegetarian"
	SnackPoultry        SnackType = "poultry"
	SnackFruitVegetable SnackType = "fruitvegetable"

	LunchNormal     LunchType = "normal"
	LunchVegetarian LunchType = "vegetarian"

	ThemeSystem ThemeType = "system"
	ThemeLight  ThemeType = "light"
	ThemeDark   ThemeType = "dark"
)

// NoDataVersion is the data version shown before the first successful update.
const NoDataVersion = "Ni podatkov"

// DataVersionLayout formats the time of the last successful update (slovenian short date & time).
const DataVersionLayout = "2. 1. 2006, 15:04"

var (
	snackTypes = []string{string(SnackNormal), string(SnackVegetarian), string(SnackPoultry), string(SnackFruitVegetable)}
	lunchTypes = []string{string(LunchNormal), string(LunchVegetarian)}
	themeTypes = []string{string(ThemeSystem), string(ThemeLight), string(ThemeDark)}
)

// Settings are the persisted user preferences.
type Settings struct {
	EntityType entity.Type `json:"entityType"`
	EntityList []string    `json:"entityList"`

	SnackType SnackType `json:"snackType"`
	LunchType LunchType `json:"lunchType"`

	ShowSubstitutions    bool `json:"showSubstitutions"`
	ShowLinksInTimetable bool `json:"showLinksInTimetable"`
	ShowHoursInTimetable bool `json:"showHoursInTimetable"`
	HighlightCurrentTime bool `json:"highlightCurrentTime"`
	EnableLessonDetails  bool `json:"enableLessonDetails"`
	EnablePullToRefresh  bool `json:"enablePullToRefresh"`
	EnableUpdateOnLoad   bool `json:"enableUpdateOnLoad"`

	DataCollectionPerformance bool `json:"dataCollectionPerformance"`
	DataCollectionCrashes     bool `json:"dataCollectionCrashes"`

	ThemeType ThemeType `json:"themeType"`

	MoodleToken       string `json:"moodleToken"`
	CircularsPassword string `json:"circularsPassword"`

	DataVersion   string    `json:"dataVersion"`
	DataUpdatedAt time.Time `json:"dataUpdatedAt,omitempty"`
}

func Defaults() Settings {
	return Settings{
		EntityType:                entity.None,
		EntityList:                []string{},
		SnackType:                 SnackNormal,
		LunchType:                 LunchNormal,
		ShowSubstitutions:         true,
		ShowLinksInTimetable:      true,
		ShowHoursInTimetable:      true,
		HighlightCurrentTime:      true,
		EnableLessonDetails:       true,
		EnablePullToRefresh:       true,
		EnableUpdateOnLoad:        true,
		DataCollectionPerformance: true,
		DataCollectionCrashes:     true,
		ThemeType:                 ThemeSystem,
		DataVersion:               NoDataVersion,
	}
}

func (s Settings) Entity() entity.Entity {
	if s.EntityType == entity.EmptyClassrooms {
		return entity.NewEmptyClassrooms()
	}
	list := make([]string, len(s.EntityList))
	copy(list, s.EntityList)
	return entity.Entity{Type: s.EntityType, List: list}
}

// Public hides the secrets.
func (s Settings) Public() Settings {
	if s.MoodleToken != "" {
		s.MoodleToken = "********"
	}
	if s.CircularsPassword != "" {
		s.CircularsPassword = "********"
	}
	return s
}

// UpdateSettings holds the settings to change; nil fields are left untouched.
type UpdateSettings struct {
	EntityType *string  `json:"entityType" validate:"omitempty,entitytype"`
	EntityList []string `json:"entityList" validate:"omitempty,dive,required"`

	SnackType *string `json:"snackType" validate:"omitempty,snacktype"`
	LunchType *string `json:"lunchType" validate:"omitempty,lunchtype"`

	ShowSubstitutions    *bool `json:"showSubstitutions"`
	ShowLinksInTimetable *bool `json:"showLinksInTimetable"`
	ShowHoursInTimetable *bool `json:"showHoursInTimetable"`
	HighlightCurrentTime *bool `json:"highlightCurrentTime"`
	EnableLessonDetails  *bool `json:"enableLessonDetails"`
	EnablePullToRefresh  *bool `json:"enablePullToRefresh"`
	EnableUpdateOnLoad   *bool `json:"enableUpdateOnLoad"`

	DataCollectionPerformance *bool `json:"dataCollectionPerformance"`
	DataCollectionCrashes     *bool `json:"dataCollectionCrashes"`

	ThemeType *string `json:"themeType" validate:"omitempty,themetype"`

	MoodleToken       *string `json:"moodleToken"`
	CircularsPassword *string `json:"circularsPassword"`
}

func (u UpdateSettings) apply(s *Settings) {
	if u.EntityType != nil {
		s.EntityType = entity.Type(*u.EntityType)
		if s.EntityType == entity.None || s.EntityType == entity.EmptyClassrooms {
			s.EntityList = []string{}
		}
	}
	if u.EntityList != nil {
		s.EntityList = u.EntityList
	}
	if u.SnackType != nil {
		s.SnackType = SnackType(*u.SnackType)
	}
	if u.LunchType != nil {
		s.LunchType = LunchType(*u.LunchType)
	}
	setBool(&s.ShowSubstitutions, u.ShowSubstitutions)
	setBool(&s.ShowLinksInTimetable, u.ShowLinksInTimetable)
	setBool(&s.ShowHoursInTimetable, u.ShowHoursInTimetable)
	setBool(&s.HighlightCurrentTime, u.HighlightCurrentTime)
	setBool(&s.EnableLessonDetails, u.EnableLessonDetails)
	setBool(&s.EnablePullToRefresh, u.EnablePullToRefresh)
	setBool(&s.EnableUpdateOnLoad, u.EnableUpdateOnLoad)
	setBool(&s.DataCollectionPerformance, u.DataCollectionPerformance)
	setBool(&s.DataCollectionCrashes, u.DataCollectionCrashes)
	if u.ThemeType != nil {
		s.ThemeType = ThemeType(*u.ThemeType)
	}
	if u.MoodleToken != nil {
		s.MoodleToken = *u.MoodleToken
	}
	if u.CircularsPassword != nil {
		s.CircularsPassword = *u.CircularsPassword
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
