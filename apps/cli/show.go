package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/router"
)

var (
	errNoEntity = errors.New("no entity selected")
	errNotFound = errors.New("timetable not found")

	dayNames = []string{"Ponedeljek", "Torek", "Sreda", "Četrtek", "Petek"}
)

func (cli *commandLine) showCmd() *cobra.Command {
	var day int
	cmd := &cobra.Command{
		Use:   "show [classes|teachers|classrooms] [names]",
		Short: "Print the merged timetable of an entity (the selected one by default)",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return usage(cmd)
			}

			var ent entity.Entity
			if len(args) == 0 {
				if ent = cli.app.Session.ResetToSettings(); ent.IsNone() {
					return errNoEntity
				}
			} else {
				d, err := cli.app.Router.Timetable(cmd.Context(), args[0], args[1], "")
				if err != nil {
					return err
				}
				if d.View != router.ViewTimetable || d.Entity == nil {
					if len(d.Suggestions) > 0 {
						return errors.Wrapf(errNotFound, "did you mean %s?", strings.Join(d.Suggestions, ", "))
					}
					return errNotFound
				}
				ent = *d.Entity
			}

			if day >= 0 {
				cli.app.Session.SetDay(day)
			}
			fmt.Fprint(cli.out, cli.renderTimetable(ent, cli.app.Session.Day()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&day, "day", "d", -1, "weekday, 0 (Monday) to 4 (Friday); today by default")
	return cmd
}

func (cli *commandLine) renderTimetable(ent entity.Entity, day int) string {
	show := cli.app.Settings.Get().ShowSubstitutions
	t := &table{
		title:   ent.String() + " · " + dayNames[day],
		headers: []string{"Ura", "Čas", "Predmet", "Razred", "Profesor", "Učilnica"},
	}
	for _, s := range cli.app.Timetable.Slots(ent, show, day+1) {
		var hours string
		if s.Time >= 0 && s.Time < len(core.LessonTimes) {
			hours = core.LessonTimes[s.Time][0] + " - " + core.LessonTimes[s.Time][1]
		}
		t.add(s.Substitution,
			strconv.Itoa(s.Time)+".",
			hours,
			strings.Join(s.Subjects, ", "),
			strings.Join(s.Classes, ", "),
			strings.Join(s.Teachers, ", "),
			strings.Join(s.Classrooms, ", "),
		)
	}
	if len(t.rows) == 0 {
		return titleStyle.Render(t.title) + "\n" + mutedStyle.Render("Ni pouka.") + "\n"
	}
	return t.render()
}
