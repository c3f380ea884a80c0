package timetable

import (
	"sort"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
)

type slotKey struct{ day, time int }

// Merge returns the lessons of `ent` merged with their substitutions.
//
// A substitution replaces a lesson when it has the same day, time and its original teacher is the lesson teacher.
// When several substitutions match, the first with notes wins, otherwise the first one.
func Merge(st State, ent entity.Entity, showSubstitutions bool) []MergedLesson {
	base, subs := selectRecords(st, ent)

	candidates := make(map[slotKey][]Substitution)
	if showSubstitutions {
		for _, sub := range subs {
			k := slotKey{sub.Day, sub.Time}
			candidates[k] = append(candidates[k], sub)
		}
	}

	lessons := make([]MergedLesson, 0, len(base))
	for _, lesson := range base {
		ml := MergedLesson{
			Day:       lesson.Day,
			Time:      lesson.Time,
			Class:     lesson.Class,
			Classroom: lesson.Classroom,
			Subject:   lesson.Subject,
			Teacher:   lesson.Teacher,
		}
		if sub, ok := pickSubstitution(candidates[slotKey{lesson.Day, lesson.Time}], lesson.Teacher); ok {
			ml.Substitution = true
			ml.SubstitutionClass = sub.Class
			ml.SubstitutionClassroom = sub.Classroom
			ml.SubstitutionSubject = sub.Subject
			ml.SubstitutionTeacher = sub.Teacher
			ml.Notes = sub.Notes
		}
		lessons = append(lessons, ml)
	}
	return lessons
}

func pickSubstitution(candidates []Substitution, teacher string) (Substitution, bool) {
	var (
		first Substitution
		found bool
	)
	for _, sub := range candidates {
		if sub.OriginalTeacher != teacher {
			continue
		}
		if sub.Notes != "" {
			return sub, true
		}
		if !found {
			first, found = sub, true
		}
	}
	return first, found
}

// selectRecords returns the (deduplicated) lessons and substitutions of `ent`.
func selectRecords(st State, ent entity.Entity) ([]Lesson, []Substitution) {
	switch ent.Type {
	case entity.EmptyClassrooms:
		return dedupeLessons(st.EmptyClassrooms), nil
	case entity.Class, entity.Teacher, entity.Classroom:
	default:
		return nil, nil
	}

	var (
		lessons []Lesson
		subs    []Substitution
	)
	for _, name := range ent.List {
		for _, l := range st.Timetable {
			if l.field(ent.Type) == name {
				lessons = append(lessons, l)
			}
		}
		for _, day := range st.Substitutions {
			for _, s := range day {
				if s.field(ent.Type) == name {
					subs = append(subs, s)
				}
			}
		}
	}
	return dedupeLessons(lessons), dedupeSubstitutions(subs)
}

func dedupeLessons(lessons []Lesson) []Lesson {
	seen := make(map[Lesson]struct{}, len(lessons))
	res := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		res = append(res, l)
	}
	return res
}

func dedupeSubstitutions(subs []Substitution) []Substitution {
	seen := make(map[Substitution]struct{}, len(subs))
	res := make([]Substitution, 0, len(subs))
	for _, s := range subs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		res = append(res, s)
	}
	return res
}

// Slots aggregates merged lessons into timetable cells, by day then time.
// Only `days` are kept (all days when empty). A substituted lesson shows the substitution values,
// or nothing when the lesson is cancelled (the substitution has no subject).
func Slots(lessons []MergedLesson, days ...int) map[int]map[int]*Slot {
	slots := make(map[int]map[int]*Slot)
	for _, l := range lessons {
		if len(days) > 0 && !containsInt(days, l.Day) {
			continue
		}
		byTime, ok := slots[l.Day]
		if !ok {
			byTime = make(map[int]*Slot)
			slots[l.Day] = byTime
		}
		slot, ok := byTime[l.Time]
		if !ok {
			slot = &Slot{
				Day:        l.Day,
				Time:       l.Time,
				Subjects:   []string{},
				Classes:    []string{},
				Teachers:   []string{},
				Classrooms: []string{},
			}
			byTime[l.Time] = slot
		}

		if l.Substitution {
			slot.Substitution = true
			if l.SubstitutionSubject == "" {
				continue
			}
			slot.Subjects = core.AppendUnique(slot.Subjects, l.SubstitutionSubject)
			slot.Classes = core.AppendUnique(slot.Classes, l.SubstitutionClass)
			slot.Teachers = core.AppendUnique(slot.Teachers, l.SubstitutionTeacher)
			slot.Classrooms = core.AppendUnique(slot.Classrooms, l.SubstitutionClassroom)
			continue
		}
		slot.Subjects = core.AppendUnique(slot.Subjects, l.Subject)
		slot.Classes = core.AppendUnique(slot.Classes, l.Class)
		slot.Teachers = core.AppendUnique(slot.Teachers, l.Teacher)
		slot.Classrooms = core.AppendUnique(slot.Classrooms, l.Classroom)
	}
	return slots
}

// SortedSlots flattens the slots ordered by day then time.
func SortedSlots(slots map[int]map[int]*Slot) []Slot {
	res := make([]Slot, 0)
	for _, byTime := range slots {
		for _, s := range byTime {
			res = append(res, *s)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Day != res[j].Day {
			return res[i].Day < res[j].Day
		}
		return res[i].Time < res[j].Time
	})
	return res
}

func containsInt(ints []int, v int) bool {
	for _, i := range ints {
		if i == v {
			return true
		}
	}
	return false
}
