package food

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gimvicurnik/urnik/core"
)

// Service is the food store (menus and lunch schedules).
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

func (svc *Service) Name() string { return core.StateFood }

func (svc *Service) Load(ctx context.Context) error {
	var st State
	updatedAt, found, err := core.LoadState(ctx, svc.repo, core.StateFood, &st)
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

func (svc *Service) Get() State {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.state
}

// UpdateMenus fetches the menus of every weekday of the week of `date`.
func (svc *Service) UpdateMenus(ctx context.Context, date time.Time) error {
	days := core.Weekdays(date)
	menus := make([]Menu, len(days))

	g, gctx := errgroup.WithContext(ctx)
	for i, day := range days {
		i, d := i, core.ISODate(day)
		g.Go(func() error {
			var m Menu
			if err := svc.fetcher.Get(gctx, "/menus/date/"+d, &m); err != nil {
				return err
			}
			m.Date = d
			menus[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "fetching menus")
	}
	return svc.save(ctx, func(st *State) { st.Menus = menus })
}

// UpdateLunchSchedules fetches the lunch schedules of every weekday of the week of `date`.
func (svc *Service) UpdateLunchSchedules(ctx context.Context, date time.Time) error {
	days := core.Weekdays(date)
	schedules := make([][]LunchSchedule, len(days))

	g, gctx := errgroup.WithContext(ctx)
	for i, day := range days {
		i, d := i, core.ISODate(day)
		g.Go(func() error {
			var s []LunchSchedule
			if err := svc.fetcher.Get(gctx, "/schedule/date/"+d, &s); err != nil {
				return err
			}
			if s == nil {
				s = []LunchSchedule{}
			}
			schedules[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "fetching lunch schedules")
	}
	return svc.save(ctx, func(st *State) { st.LunchSchedules = schedules })
}

func (svc *Service) save(ctx context.Context, fn func(*State)) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	st := svc.state
	fn(&st)
	now := time.Now()
	if err := core.SaveState(ctx, svc.repo, core.StateFood, st, now); err != nil {
		return err
	}
	svc.state, svc.stored, svc.updatedAt = st, true, now
	return nil
}

// Menu returns the menu of `date`.
func (svc *Service) Menu(date time.Time) (Menu, bool) {
	d := core.ISODate(date)
	for _, m := range svc.Get().Menus {
		if m.Date == d {
			return m, true
		}
	}
	return Menu{}, false
}

func (svc *Service) Snack(date time.Time, snackType string) string {
	m, _ := svc.Menu(date)
	return m.Snack.Item(snackType)
}

func (svc *Service) Lunch(date time.Time, lunchType string) string {
	m, _ := svc.Menu(date)
	return m.Lunch.Item(lunchType)
}

// LunchSchedules returns the lunch schedules of `date` for `classes` (all when empty).
func (svc *Service) LunchSchedules(date time.Time, classes []string) []LunchSchedule {
	d := core.ISODate(date)
	res := make([]LunchSchedule, 0)
	for _, day := range svc.Get().LunchSchedules {
		for _, s := range day {
			if s.Date != d {
				continue
			}
			if len(classes) > 0 && !core.ContainsString(classes, deref(s.Class)) {
				continue
			}
			res = append(res, s)
		}
	}
	return res
}
