package settings

import (
	"context"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Service is the settings store.
type Service struct {
	repo       core.StateRepository
	sealer     *Sealer
	validate   *validator.Validate
	translator ut.Translator

	mu        sync.RWMutex
	current   Settings
	exists    bool
	listeners []func(Settings)
}

func NewService(repo core.StateRepository, sealer *Sealer, validate *validator.Validate, translator ut.Translator) (*Service, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(sealer, "sealer"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
	).Check()
	if err != nil {
		return nil, err
	}
	InitValidators(validate, translator)
	return &Service{
		repo:       repo,
		sealer:     sealer,
		validate:   validate,
		translator: translator,
		current:    Defaults(),
	}, nil
}

// Load reads the persisted settings, keeping the defaults when nothing was persisted.
func (svc *Service) Load(ctx context.Context) error {
	stored := Defaults()
	_, found, err := core.LoadState(ctx, svc.repo, core.StateSettings, &stored)
	if err != nil {
		return err
	}
	if found {
		if stored.MoodleToken, err = svc.sealer.Open(stored.MoodleToken); err != nil {
			return errors.Wrap(err, "opening moodle token")
		}
		if stored.CircularsPassword, err = svc.sealer.Open(stored.CircularsPassword); err != nil {
			return errors.Wrap(err, "opening circulars password")
		}
		if stored.EntityList == nil {
			stored.EntityList = []string{}
		}
	}

	svc.mu.Lock()
	svc.current = stored
	svc.exists = found
	svc.mu.Unlock()
	return nil
}

func (svc *Service) Get() Settings {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	s := svc.current
	s.EntityList = append([]string{}, s.EntityList...)
	return s
}

// Exists reports whether the settings were ever persisted.
func (svc *Service) Exists() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.exists
}

// OnChange registers a function called with the new settings after each change.
func (svc *Service) OnChange(fn func(Settings)) {
	svc.mu.Lock()
	svc.listeners = append(svc.listeners, fn)
	svc.mu.Unlock()
}

func (svc *Service) Update(ctx context.Context, upd UpdateSettings) (Settings, error) {
	if err := svc.validate.Struct(upd); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return Settings{}, core.NewValidationError(ErrInvalidSettings, core.TranslateErrors(verrs, svc.translator)...)
		}
		return Settings{}, errors.Wrap(err, "validating settings")
	}
	upd.EntityList = core.CleanStrings(upd.EntityList)
	if upd.EntityType != nil {
		typ := entity.Type(*upd.EntityType)
		if (typ == entity.Class || typ == entity.Teacher || typ == entity.Classroom) && len(upd.EntityList) == 0 {
			return Settings{}, core.NewValidationError(ErrInvalidSettings, core.FieldError{
				Field: "entityList",
				Error: "this field is required",
			})
		}
	}
	return svc.modify(ctx, upd.apply)
}

func (svc *Service) SetEntity(ctx context.Context, ent entity.Entity) error {
	_, err := svc.modify(ctx, func(s *Settings) {
		s.EntityType = ent.Type
		s.EntityList = append([]string{}, ent.List...)
		if ent.Type == entity.EmptyClassrooms || ent.Type == entity.None {
			s.EntityList = []string{}
		}
	})
	return err
}

// SetDataVersion records the time of the last successful synchronisation.
func (svc *Service) SetDataVersion(ctx context.Context, t time.Time) error {
	_, err := svc.modify(ctx, func(s *Settings) {
		s.DataVersion = t.Format(DataVersionLayout)
		s.DataUpdatedAt = t.UTC()
	})
	return err
}

// Reset drops the persisted settings.
func (svc *Service) Reset(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if err := svc.repo.DeleteState(ctx, core.StateSettings); err != nil && errors.Cause(err) != core.ErrStateNotFound {
		return errors.Wrap(err, "deleting settings")
	}
	svc.current = Defaults()
	svc.exists = false
	return nil
}

func (svc *Service) modify(ctx context.Context, fn func(*Settings)) (Settings, error) {
	svc.mu.Lock()
	updated := svc.current
	updated.EntityList = append([]string{}, updated.EntityList...)
	fn(&updated)
	if err := svc.persist(ctx, updated); err != nil {
		svc.mu.Unlock()
		return Settings{}, err
	}
	svc.current = updated
	svc.exists = true
	listeners := svc.listeners
	svc.mu.Unlock()

	for _, fn := range listeners {
		fn(updated)
	}
	return updated, nil
}

func (svc *Service) persist(ctx context.Context, s Settings) (err error) {
	if s.MoodleToken, err = svc.sealer.Seal(s.MoodleToken); err != nil {
		return errors.Wrap(err, "sealing moodle token")
	}
	if s.CircularsPassword, err = svc.sealer.Seal(s.CircularsPassword); err != nil {
		return errors.Wrap(err, "sealing circulars password")
	}
	return core.SaveState(ctx, svc.repo, core.StateSettings, s, time.Now())
}
