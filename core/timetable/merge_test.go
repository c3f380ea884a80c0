package timetable

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gimvicurnik/urnik/core/entity"
)

func lesson(day, time int, subject, class, teacher, classroom string) Lesson {
	return Lesson{Day: day, Time: time, Subject: subject, Class: class, Teacher: teacher, Classroom: classroom}
}

func substitution(l Lesson, origTeacher, notes string) Substitution {
	return Substitution{Lesson: l, Date: "2024-03-04", Notes: notes, OriginalTeacher: origTeacher}
}

func testState() State {
	return State{
		Timetable: []Lesson{
			lesson(1, 1, "MAT", "1A", "Novak", "P1"),
			lesson(1, 2, "SLO", "1A", "Kranjc", "P2"),
			lesson(1, 2, "ANG", "2B", "Horvat", "P3"),
			lesson(2, 1, "FIZ", "1A", "Zupan", "P4"),
			lesson(1, 1, "MAT", "1A", "Novak", "P1"), // served twice
		},
		EmptyClassrooms: []Lesson{
			lesson(1, 1, "", "", "", "P9"),
		},
		Substitutions: [][]Substitution{
			{
				substitution(lesson(1, 1, "KEM", "1A", "Zupan", "P5"), "Novak", ""),
				substitution(lesson(1, 1, "BIO", "1A", "Cvetko", "P6"), "Novak", "Prinesite zvezke"),
				substitution(lesson(1, 2, "", "1A", "", ""), "Kranjc", ""),
				substitution(lesson(1, 2, "ZGO", "2B", "Dolenc", "P3"), "Someone else", ""),
			},
			{}, {}, {}, {},
		},
	}
}

func TestMerge(t *testing.T) {
	st := testState()

	tests := []struct {
		name string
		ent  entity.Entity
		show bool
		want []MergedLesson
	}{
		{name: "none", ent: entity.Entity{Type: entity.None}, show: true, want: []MergedLesson{}},
		{
			name: "empty classrooms",
			ent:  entity.NewEmptyClassrooms(),
			show: true,
			want: []MergedLesson{{Day: 1, Time: 1, Classroom: "P9"}},
		},
		{
			name: "class with substitutions, notes win and duplicates dropped",
			ent:  entity.Entity{Type: entity.Class, List: []string{"1A", "1A"}},
			show: true,
			want: []MergedLesson{
				{
					Day: 1, Time: 1, Class: "1A", Classroom: "P1", Subject: "MAT", Teacher: "Novak",
					Substitution: true, SubstitutionClass: "1A", SubstitutionClassroom: "P6", SubstitutionSubject: "BIO",
					SubstitutionTeacher: "Cvetko", Notes: "Prinesite zvezke",
				},
				{Day: 1, Time: 2, Class: "1A", Classroom: "P2", Subject: "SLO", Teacher: "Kranjc", Substitution: true, SubstitutionClass: "1A"},
				{Day: 2, Time: 1, Class: "1A", Classroom: "P4", Subject: "FIZ", Teacher: "Zupan"},
			},
		},
		{
			name: "substitutions hidden",
			ent:  entity.Entity{Type: entity.Class, List: []string{"1A"}},
			show: false,
			want: []MergedLesson{
				{Day: 1, Time: 1, Class: "1A", Classroom: "P1", Subject: "MAT", Teacher: "Novak"},
				{Day: 1, Time: 2, Class: "1A", Classroom: "P2", Subject: "SLO", Teacher: "Kranjc"},
				{Day: 2, Time: 1, Class: "1A", Classroom: "P4", Subject: "FIZ", Teacher: "Zupan"},
			},
		},
		{
			name: "original teacher must match",
			ent:  entity.Entity{Type: entity.Class, List: []string{"2B"}},
			show: true,
			want: []MergedLesson{
				{Day: 1, Time: 2, Class: "2B", Classroom: "P3", Subject: "ANG", Teacher: "Horvat"},
			},
		},
		{
			name: "teacher keeps entity order",
			ent:  entity.Entity{Type: entity.Teacher, List: []string{"Zupan", "Horvat"}},
			show: true,
			want: []MergedLesson{
				{Day: 2, Time: 1, Class: "1A", Classroom: "P4", Subject: "FIZ", Teacher: "Zupan"},
				{Day: 1, Time: 2, Class: "2B", Classroom: "P3", Subject: "ANG", Teacher: "Horvat"},
			},
		},
		{
			name: "classroom",
			ent:  entity.Entity{Type: entity.Classroom, List: []string{"P3"}},
			show: true,
			want: []MergedLesson{
				{Day: 1, Time: 2, Class: "2B", Classroom: "P3", Subject: "ANG", Teacher: "Horvat"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(st, tt.ent, tt.show)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSlots(t *testing.T) {
	lessons := []MergedLesson{
		{Day: 1, Time: 1, Class: "1A", Classroom: "P1", Subject: "MAT", Teacher: "Novak", Substitution: true,
			SubstitutionClass: "1AB", SubstitutionClassroom: "P6", SubstitutionSubject: "BIO", SubstitutionTeacher: "Cvetko"},
		{Day: 1, Time: 2, Class: "1A", Classroom: "P2", Subject: "SLO", Teacher: "Kranjc", Substitution: true},
		{Day: 1, Time: 3, Class: "1A", Classroom: "P2", Subject: "GEO", Teacher: "Kos"},
		{Day: 1, Time: 3, Class: "1B", Classroom: "P2", Subject: "GEO", Teacher: "Kos"},
		{Day: 2, Time: 1, Class: "1A", Classroom: "P4", Subject: "FIZ", Teacher: "Zupan"},
	}

	got := SortedSlots(Slots(lessons, 1))
	want := []Slot{
		{Day: 1, Time: 1, Subjects: []string{"BIO"}, Classes: []string{"1AB"}, Teachers: []string{"Cvetko"}, Classrooms: []string{"P6"}, Substitution: true},
		{Day: 1, Time: 2, Subjects: []string{}, Classes: []string{}, Teachers: []string{}, Classrooms: []string{}, Substitution: true},
		{Day: 1, Time: 3, Subjects: []string{"GEO"}, Classes: []string{"1A", "1B"}, Teachers: []string{"Kos"}, Classrooms: []string{"P2"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Slots() mismatch (-want +got):\n%s", diff)
	}

	if all := SortedSlots(Slots(lessons)); len(all) != 4 {
		t.Errorf("Slots() len = %d, want 4", len(all))
	}
}

func TestNewSubstitutions(t *testing.T) {
	st := testState()
	before := SubstitutionsFor(st, entity.Entity{Type: entity.Class, List: []string{"1A"}})

	added := substitution(lesson(2, 1, "KEM", "1A", "Kos", "P4"), "Zupan", "")
	st.Substitutions[1] = append(st.Substitutions[1], added)
	after := SubstitutionsFor(st, entity.Entity{Type: entity.Class, List: []string{"1A"}})

	if diff := cmp.Diff([]Substitution{added}, NewSubstitutions(before, after)); diff != "" {
		t.Errorf("NewSubstitutions() mismatch (-want +got):\n%s", diff)
	}
	if got := SubstitutionsFor(st, entity.NewEmptyClassrooms()); got != nil {
		t.Errorf("SubstitutionsFor() = %v, want nil", got)
	}
}
