package notifications

import (
	"context"
	"net/mail"
	"sync"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/timetable"
)

var ErrInvalidPreferences = errors.New("invalid notification preferences")

type (
	substitutionLine struct {
		Date      string
		Time      int
		Subject   string
		Teacher   string
		Classroom string
		Notes     string
	}

	substitutionsMail struct {
		Entity        string
		Substitutions []substitutionLine
	}
)

// Service is the notifications store.
type Service struct {
	repo       core.StateRepository
	fetcher    core.Fetcher
	emailSvc   core.EmailService
	validate   *validator.Validate
	translator ut.Translator

	mu            sync.RWMutex
	notifications []Notification
	stored        bool
	updatedAt     time.Time
	prefs         Preferences
}

func NewService(
	repo core.StateRepository,
	fetcher core.Fetcher,
	emailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
) (*Service, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(fetcher, "fetcher"),
		vala.IsNotNil(emailSvc, "emailSvc"),
		vala.IsNotNil(validate, "validate"),
		vala.IsNotNil(translator, "translator"),
	).Check()
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:       repo,
		fetcher:    fetcher,
		emailSvc:   emailSvc,
		validate:   validate,
		translator: translator,
		prefs:      DefaultPreferences(),
	}, nil
}

func (svc *Service) Name() string { return core.StateNotifications }

func (svc *Service) Load(ctx context.Context) error {
	var notifs []Notification
	updatedAt, found, err := core.LoadState(ctx, svc.repo, core.StateNotifications, &notifs)
	if err != nil {
		return err
	}
	prefs := DefaultPreferences()
	if _, _, err = core.LoadState(ctx, svc.repo, core.StateNotifPrefs, &prefs); err != nil {
		return err
	}

	svc.mu.Lock()
	svc.notifications, svc.stored, svc.updatedAt = notifs, found, updatedAt
	svc.prefs = prefs
	svc.mu.Unlock()
	return nil
}

func (svc *Service) Stored() (bool, time.Time) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.stored, svc.updatedAt
}

func (svc *Service) Update(ctx context.Context) error {
	var notifs []Notification
	if err := svc.fetcher.Get(ctx, "/notifications", &notifs); err != nil {
		return errors.Wrap(err, "fetching notifications")
	}
	if notifs == nil {
		notifs = []Notification{}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	now := time.Now()
	if err := core.SaveState(ctx, svc.repo, core.StateNotifications, notifs, now); err != nil {
		return err
	}
	svc.notifications, svc.stored, svc.updatedAt = notifs, true, now
	return nil
}

func (svc *Service) Notifications() []Notification {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return append([]Notification{}, svc.notifications...)
}

func (svc *Service) Preferences() Preferences {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.prefs
}

// UpdatePreferences changes the subscriptions. A token is generated on the first subscription.
func (svc *Service) UpdatePreferences(ctx context.Context, upd UpdatePreferences) (Preferences, error) {
	if err := svc.validate.Struct(upd); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return Preferences{}, core.NewValidationError(ErrInvalidPreferences, core.TranslateErrors(verrs, svc.translator)...)
		}
		return Preferences{}, errors.Wrap(err, "validating preferences")
	}
	if upd.Email != nil {
		email := core.CleanString(*upd.Email, true)
		upd.Email = &email
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	prefs := svc.prefs
	upd.apply(&prefs)
	if prefs.Token == "" && prefs.subscribed() {
		prefs.Token = uuid.NewString()
	}
	if err := core.SaveState(ctx, svc.repo, core.StateNotifPrefs, prefs, time.Now()); err != nil {
		return Preferences{}, err
	}
	svc.prefs = prefs
	return prefs, nil
}

// NotifySubstitutionChanges e-mails the substitutions of `ent` present in `after` but not in `before`.
// It returns the number of new substitutions sent.
func (svc *Service) NotifySubstitutionChanges(ent entity.Entity, before, after []timetable.Substitution) int {
	prefs := svc.Preferences()
	if !prefs.SubstitutionsNotificationsImmediate || prefs.Email == "" || ent.IsNone() {
		return 0
	}
	added := timetable.NewSubstitutions(before, after)
	if len(added) == 0 {
		return 0
	}

	data := substitutionsMail{Entity: ent.String(), Substitutions: make([]substitutionLine, 0, len(added))}
	for _, s := range added {
		data.Substitutions = append(data.Substitutions, substitutionLine{
			Date:      s.Date,
			Time:      s.Time,
			Subject:   s.Subject,
			Teacher:   s.Teacher,
			Classroom: s.Classroom,
			Notes:     s.Notes,
		})
	}
	svc.emailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: prefs.Email}},
		Subject:      "Nova nadomeščanja: " + ent.String(),
		TemplateName: "substitutions",
		TemplateData: data,
	})
	return len(added)
}
