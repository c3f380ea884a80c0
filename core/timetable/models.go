package timetable

import "github.com/gimvicurnik/urnik/core/entity"

type (
	// Lesson is a regularly scheduled timetable entry. Day goes from 1 (Monday) to 5 (Friday).
	Lesson struct {
		Day       int    `json:"day"`
		Time      int    `json:"time"`
		Subject   string `json:"subject"`
		Class     string `json:"class"`
		Teacher   string `json:"teacher"`
		Classroom string `json:"classroom"`
	}

	// Substitution overrides a lesson on a specific date.
	Substitution struct {
		Lesson
		Date              string `json:"date"`
		Notes             string `json:"notes"`
		OriginalTeacher   string `json:"original-teacher"`
		OriginalClassroom string `json:"original-classroom"`
	}

	MergedLesson struct {
		Day                   int    `json:"day"`
		Time                  int    `json:"time"`
		Class                 string `json:"class"`
		Classroom             string `json:"classroom"`
		Subject               string `json:"subject"`
		Teacher               string `json:"teacher"`
		Substitution          bool   `json:"substitution"`
		SubstitutionClass     string `json:"substitutionClass"`
		SubstitutionClassroom string `json:"substitutionClassroom"`
		SubstitutionSubject   string `json:"substitutionSubject"`
		SubstitutionTeacher   string `json:"substitutionTeacher"`
		Notes                 string `json:"notes"`
	}

	// Slot aggregates the lessons displayed in one cell of the timetable.
	Slot struct {
		Day          int      `json:"day"`
		Time         int      `json:"time"`
		Subjects     []string `json:"subjects"`
		Classes      []string `json:"classes"`
		Teachers     []string `json:"teachers"`
		Classrooms   []string `json:"classrooms"`
		Substitution bool     `json:"substitution"`
	}

	// State is the persisted timetable data.
	State struct {
		Timetable       []Lesson         `json:"timetable"`
		EmptyClassrooms []Lesson         `json:"emptyClassrooms"`
		Substitutions   [][]Substitution `json:"substitutions"` // one slice per weekday
	}
)

// field returns the value of the lesson field matching the entity type.
func (l Lesson) field(typ entity.Type) string {
	switch typ {
	case entity.Class:
		return l.Class
	case entity.Teacher:
		return l.Teacher
	case entity.Classroom:
		return l.Classroom
	}
	return ""
}
