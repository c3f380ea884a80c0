package lists

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

// State are the names of the valid entities.
type State struct {
	Classes    []string `json:"classesList"`
	Teachers   []string `json:"teachersList"`
	Classrooms []string `json:"classroomsList"`
}

// Service is the lists store.
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

func (svc *Service) Name() string { return core.StateLists }

func (svc *Service) Load(ctx context.Context) error {
	var st State
	updatedAt, found, err := core.LoadState(ctx, svc.repo, core.StateLists, &st)
	if err != nil {
		return err
	}
	svc.mu.Lock()
	svc.state, svc.stored, svc.updatedAt = st, found, updatedAt
	svc.mu.Unlock()
	return nil
}

// Stored reports whether the lists were persisted and when.
func (svc *Service) Stored() (bool, time.Time) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.stored, svc.updatedAt
}

// Update fetches the three lists concurrently, sorts and persists them.
func (svc *Service) Update(ctx context.Context) error {
	var st State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.fetcher.Get(gctx, "/list/classes", &st.Classes) })
	g.Go(func() error { return svc.fetcher.Get(gctx, "/list/teachers", &st.Teachers) })
	g.Go(func() error { return svc.fetcher.Get(gctx, "/list/classrooms", &st.Classrooms) })
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "fetching lists")
	}

	st.Classes = entity.Sort(entity.Class, st.Classes)
	st.Teachers = entity.Sort(entity.Teacher, st.Teachers)
	st.Classrooms = entity.Sort(entity.Classroom, st.Classrooms)

	now := time.Now()
	if err := core.SaveState(ctx, svc.repo, core.StateLists, st, now); err != nil {
		return err
	}
	svc.mu.Lock()
	svc.state, svc.stored, svc.updatedAt = st, true, now
	svc.mu.Unlock()
	return nil
}

func (svc *Service) Get() State {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.state
}

// Empty reports whether any of the lists is missing.
func (svc *Service) Empty() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.state.Classes) == 0 || len(svc.state.Teachers) == 0 || len(svc.state.Classrooms) == 0
}

func (svc *Service) Names(typ entity.Type) []string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	var names []string
	switch typ {
	case entity.Class:
		names = svc.state.Classes
	case entity.Teacher:
		names = svc.state.Teachers
	case entity.Classroom:
		names = svc.state.Classrooms
	}
	return append([]string{}, names...)
}

// Contains reports whether any of `names` is a known entity of type `typ`.
func (svc *Service) Contains(typ entity.Type, names []string) bool {
	known := svc.Names(typ)
	for _, n := range names {
		if core.ContainsString(known, n) {
			return true
		}
	}
	return false
}
