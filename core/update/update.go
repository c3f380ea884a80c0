// Package update orchestrates the refreshes of the stores.
package update

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/documents"
	"github.com/gimvicurnik/urnik/core/food"
	"github.com/gimvicurnik/urnik/core/lists"
	"github.com/gimvicurnik/urnik/core/notifications"
	"github.com/gimvicurnik/urnik/core/settings"
	"github.com/gimvicurnik/urnik/core/snackbar"
	"github.com/gimvicurnik/urnik/core/timetable"
)

// task names
const (
	TaskDocuments       = "documents"
	TaskMenus           = "menus"
	TaskLunchSchedules  = "lunchSchedules"
	TaskTimetable       = "timetable"
	TaskSubstitutions   = "substitutions"
	TaskEmptyClassrooms = "emptyClassrooms"
	TaskLists           = "lists"
	TaskNotifications   = "notifications"
)

// cache update actions
const (
	ActionRefreshAll  = "refreshAll"
	ActionRefreshData = "refreshData"
)

type (
	// NetworkChecker reports whether the remote API can be reached.
	NetworkChecker interface {
		Online(ctx context.Context) bool
	}

	// Store is a persisted store.
	Store interface {
		Name() string
		Stored() (bool, time.Time)
	}

	Stores struct {
		Lists         *lists.Service
		Timetable     *timetable.Service
		Food          *food.Service
		Documents     *documents.Service
		Notifications *notifications.Service
	}

	Options struct {
		Settings *settings.Service
		Stores   Stores
		Snackbar *snackbar.Store
		Network  NetworkChecker
		Logger   core.Logger
		Clock    *core.Clock
		Metrics  *Metrics
		MaxAge   time.Duration // 0 disables the age rule
	}

	task struct {
		name  string
		store Store
		path  string // API path prefix served by the task
		run   func(ctx context.Context) error
	}
)

type Orchestrator struct {
	opts  Options
	tasks []task
	group singleflight.Group
	bg    sync.WaitGroup
}

func New(opts Options) (*Orchestrator, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(opts.Settings, "Settings"),
		vala.IsNotNil(opts.Stores.Lists, "Stores.Lists"),
		vala.IsNotNil(opts.Stores.Timetable, "Stores.Timetable"),
		vala.IsNotNil(opts.Stores.Food, "Stores.Food"),
		vala.IsNotNil(opts.Stores.Documents, "Stores.Documents"),
		vala.IsNotNil(opts.Stores.Notifications, "Stores.Notifications"),
		vala.IsNotNil(opts.Snackbar, "Snackbar"),
		vala.IsNotNil(opts.Network, "Network"),
		vala.IsNotNil(opts.Logger, "Logger"),
		vala.IsNotNil(opts.Clock, "Clock"),
	).Check()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{opts: opts}
	s := opts.Stores
	o.tasks = []task{
		{name: TaskDocuments, store: s.Documents, path: "/documents", run: s.Documents.Update},
		{name: TaskMenus, store: s.Food, path: "/menus/", run: func(ctx context.Context) error {
			return s.Food.UpdateMenus(ctx, o.opts.Clock.Now())
		}},
		{name: TaskLunchSchedules, store: s.Food, path: "/schedule/", run: func(ctx context.Context) error {
			return s.Food.UpdateLunchSchedules(ctx, o.opts.Clock.Now())
		}},
		{name: TaskTimetable, store: s.Timetable, path: "/timetable", run: s.Timetable.UpdateTimetable},
		{name: TaskSubstitutions, store: s.Timetable, path: "/substitutions/", run: o.updateSubstitutions},
		{name: TaskEmptyClassrooms, store: s.Timetable, path: "/timetable/classrooms/empty", run: s.Timetable.UpdateEmptyClassrooms},
		{name: TaskLists, store: s.Lists, path: "/list/", run: s.Lists.Update},
		{name: TaskNotifications, store: s.Notifications, path: "/notifications", run: s.Notifications.Update},
	}
	return o, nil
}

// Load reads every store from the storage.
func (o *Orchestrator) Load(ctx context.Context) error {
	s := o.opts.Stores
	loaders := []func(context.Context) error{
		o.opts.Settings.Load, s.Lists.Load, s.Timetable.Load, s.Food.Load, s.Documents.Load, s.Notifications.Load,
	}
	for _, load := range loaders {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Wrap runs a store refresh. It is skipped when offline; failures are displayed, logged and returned;
// success updates the data version.
func (o *Orchestrator) Wrap(ctx context.Context, name string, fn func(context.Context) error) error {
	if !o.opts.Network.Online(ctx) {
		o.opts.Metrics.observe(name, "offline")
		return nil
	}

	if err := fn(ctx); err != nil {
		o.opts.Metrics.observe(name, "error")
		o.opts.Snackbar.Display(snackbar.MsgError)
		o.opts.Logger.Error("updating "+name, err, o.person())
		return err
	}

	o.opts.Metrics.observe(name, "ok")
	o.opts.Metrics.success()
	if err := o.opts.Settings.SetDataVersion(ctx, o.opts.Clock.Now()); err != nil {
		o.opts.Logger.Error("saving data version", err)
	}
	return nil
}

func (o *Orchestrator) person() core.Person {
	prefs := o.opts.Stores.Notifications.Preferences()
	return core.Person{ID: prefs.Token, Email: prefs.Email}
}

// UpdateAll refreshes every store concurrently. Concurrent calls share the same run.
func (o *Orchestrator) UpdateAll(ctx context.Context, showSuccess bool) error {
	_, err, _ := o.group.Do("all", func() (interface{}, error) {
		return nil, o.updateAll(ctx, showSuccess)
	})
	return err
}

func (o *Orchestrator) updateAll(ctx context.Context, showSuccess bool) error {
	if !o.opts.Network.Online(ctx) {
		o.opts.Snackbar.Display(snackbar.MsgOffline)
		return core.ErrOffline
	}
	if showSuccess {
		o.opts.Snackbar.Display(snackbar.MsgUpdating)
	}

	err := o.run(ctx, o.tasks)

	if showSuccess {
		o.opts.Snackbar.Display(snackbar.MsgUpdated)
	}
	return err
}

// run executes `tasks` concurrently; every task runs to completion and the first error is returned.
func (o *Orchestrator) run(ctx context.Context, tasks []task) error {
	var g errgroup.Group
	for _, t := range tasks {
		t := t
		g.Go(func() error { return o.Wrap(ctx, t.name, t.run) })
	}
	return g.Wait()
}

func (o *Orchestrator) updateSubstitutions(ctx context.Context) error {
	tt := o.opts.Stores.Timetable
	ent := o.opts.Settings.Get().Entity()
	prev := tt.Get()
	before := timetable.SubstitutionsFor(prev, ent)

	if err := tt.UpdateSubstitutions(ctx, o.opts.Clock.Now()); err != nil {
		return err
	}
	// nothing to compare with on the first load
	if len(prev.Substitutions) > 0 {
		after := timetable.SubstitutionsFor(tt.Get(), ent)
		if n := o.opts.Stores.Notifications.NotifySubstitutionChanges(ent, before, after); n > 0 {
			o.opts.Logger.Info("substitution changes notified", map[string]interface{}{"count": n})
		}
	}
	return nil
}

// ShouldUpdate reports whether `store` must be refreshed: when forced, never persisted, settings never persisted,
// update on load enabled, or older than the maximum age.
func (o *Orchestrator) ShouldUpdate(store Store, force bool) bool {
	if force {
		return true
	}
	stored, updatedAt := store.Stored()
	if !stored || !o.opts.Settings.Exists() {
		return true
	}
	if o.opts.Settings.Get().EnableUpdateOnLoad {
		return true
	}
	return o.opts.MaxAge > 0 && o.opts.Clock.Now().Sub(updatedAt) > o.opts.MaxAge
}

// UpdateOnLoad refreshes the stale stores. It returns the names of the refreshed tasks.
func (o *Orchestrator) UpdateOnLoad(ctx context.Context, force bool) ([]string, error) {
	stale := make([]task, 0, len(o.tasks))
	names := make([]string, 0, len(o.tasks))
	for _, t := range o.tasks {
		if o.ShouldUpdate(t.store, force) {
			stale = append(stale, t)
			names = append(names, t.name)
		}
	}
	if len(stale) == 0 {
		return names, nil
	}
	return names, o.run(ctx, stale)
}

// EnsureLists refreshes the lists in the background, waiting for it only when a list is still empty.
func (o *Orchestrator) EnsureLists(ctx context.Context) error {
	lst := o.taskByName(TaskLists)
	if !o.opts.Stores.Lists.Empty() {
		o.Go(func() { _ = o.Wrap(context.Background(), lst.name, lst.run) })
		return nil
	}
	return o.Wrap(ctx, lst.name, lst.run)
}

// RefreshPath refreshes the tasks serving the API `path`.
func (o *Orchestrator) RefreshPath(ctx context.Context, path string) error {
	matched := make([]task, 0, 1)
	best := 0
	for _, t := range o.tasks {
		if !strings.HasPrefix(path, t.path) || len(t.path) < best {
			continue
		}
		if len(t.path) > best {
			matched, best = matched[:0], len(t.path)
		}
		matched = append(matched, t)
	}
	if len(matched) == 0 {
		return nil
	}
	return o.run(ctx, matched)
}

// OnCacheUpdate reacts to an offline cache broadcast.
func (o *Orchestrator) OnCacheUpdate(ctx context.Context, action, path string) error {
	switch action {
	case ActionRefreshAll, ActionRefreshData:
		return o.UpdateAll(ctx, false)
	case "":
		if path != "" {
			return o.RefreshPath(ctx, path)
		}
	}
	return nil
}

// Run refreshes all stores every `interval` until `ctx` is done.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = o.UpdateAll(ctx, false)
		}
	}
}

// Go runs `fn` in the background; Wait waits for it.
func (o *Orchestrator) Go(fn func()) {
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		fn()
	}()
}

// Wait waits for the background refreshes.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

func (o *Orchestrator) taskByName(name string) task {
	for _, t := range o.tasks {
		if t.name == name {
			return t
		}
	}
	return task{}
}
