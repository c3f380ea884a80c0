package timetable

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
)

// Service is the timetable store.
type Service struct {
	repo    core.StateRepository
	fetcher core.Fetcher

	mu        sync.RWMutex
	state     State
	stored    bool
	updatedAt time.Time
}

func NewService(repo core.StateRepository, fetcher core.Fetcher) (*Service, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(fetcher, "fetcher"),
	).Check()
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, fetcher: fetcher}, nil
}

func (svc *Service) Name() string { return core.StateTimetable }

func (svc *Service) Load(ctx context.Context) error {
	var st State
	updatedAt, found, err := core.LoadState(ctx, svc.repo, core.StateTimetable, &st)
	if err != nil {
		return err
	}
	svc.mu.Lock()
	svc.state, svc.stored, svc.updatedAt = st, found, updatedAt
	svc.mu.Unlock()
	return nil
}

func (svc *Service) Stored() (bool, time.Time) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.stored, svc.updatedAt
}

// Get returns a snapshot of the timetable state.
func (svc *Service) Get() State {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.state
}

func (svc *Service) UpdateTimetable(ctx context.Context) error {
	var lessons []Lesson
	if err := svc.fetcher.Get(ctx, "/timetable", &lessons); err != nil {
		return errors.Wrap(err, "fetching timetable")
	}
	return svc.save(ctx, func(st *State) { st.Timetable = lessons })
}

// UpdateSubstitutions fetches the substitutions of every weekday of the week of `date`.
func (svc *Service) UpdateSubstitutions(ctx context.Context, date time.Time) error {
	days := core.Weekdays(date)
	subs := make([][]Substitution, len(days))

	g, gctx := errgroup.WithContext(ctx)
	for i, day := range days {
		i, path := i, "/substitutions/date/"+core.ISODate(day)
		g.Go(func() error {
			var daySubs []Substitution
			if err := svc.fetcher.Get(gctx, path, &daySubs); err != nil {
				return err
			}
			if daySubs == nil {
				daySubs = []Substitution{}
			}
			subs[i] = daySubs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "fetching substitutions")
	}
	return svc.save(ctx, func(st *State) { st.Substitutions = subs })
}

func (svc *Service) UpdateEmptyClassrooms(ctx context.Context) error {
	var lessons []Lesson
	if err := svc.fetcher.Get(ctx, "/timetable/classrooms/empty", &lessons); err != nil {
		return errors.Wrap(err, "fetching empty classrooms")
	}
	return svc.save(ctx, func(st *State) { st.EmptyClassrooms = lessons })
}

func (svc *Service) save(ctx context.Context, fn func(*State)) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	st := svc.state
	fn(&st)
	now := time.Now()
	if err := core.SaveState(ctx, svc.repo, core.StateTimetable, st, now); err != nil {
		return err
	}
	svc.state, svc.stored, svc.updatedAt = st, true, now
	return nil
}

// Lessons returns the merged lessons of `ent`.
func (svc *Service) Lessons(ent entity.Entity, showSubstitutions bool) []MergedLesson {
	return Merge(svc.Get(), ent, showSubstitutions)
}

// Slots returns the timetable cells of `ent` for `days` (all when empty).
func (svc *Service) Slots(ent entity.Entity, showSubstitutions bool, days ...int) []Slot {
	return SortedSlots(Slots(svc.Lessons(ent, showSubstitutions), days...))
}

// SubstitutionsFor returns the substitutions concerning `ent` over the whole week.
func SubstitutionsFor(st State, ent entity.Entity) []Substitution {
	if ent.Type == entity.EmptyClassrooms {
		return nil
	}
	_, subs := selectRecords(st, ent)
	return subs
}

// NewSubstitutions returns the substitutions of `after` missing from `before`.
func NewSubstitutions(before, after []Substitution) []Substitution {
	seen := make(map[Substitution]struct{}, len(before))
	for _, s := range before {
		seen[s] = struct{}{}
	}
	res := make([]Substitution, 0)
	for _, s := range after {
		if _, ok := seen[s]; !ok {
			res = append(res, s)
		}
	}
	return res
}
