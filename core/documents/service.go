package documents

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/gimvicurnik/urnik/core"
)

// document types shown in the circulars and documents views
var (
	CircularTypes = []string{"circular", "other"}
	DocumentTypes = []string{"substitutions", "lunch-schedule", "snack-menu", "lunch-menu", "exam-schedule", "timetable"}
)

type Document struct {
	Type      string  `json:"type"`
	Created   string  `json:"created"`
	Modified  string  `json:"modified"`
	Effective string  `json:"effective"`
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Content   *string `json:"content"`
}

type State struct {
	Documents []Document `json:"documents"`
}

// Service is the documents store.
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

func (svc *Service) Name() string { return core.StateDocuments }

func (svc *Service) Load(ctx context.Context) error {
	var st State
	updatedAt, found, err := core.LoadState(ctx, svc.repo, core.StateDocuments, &st)
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

func (svc *Service) Update(ctx context.Context) error {
	var docs []Document
	if err := svc.fetcher.Get(ctx, "/documents", &docs); err != nil {
		return errors.Wrap(err, "fetching documents")
	}
	st := State{Documents: docs}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	now := time.Now()
	if err := core.SaveState(ctx, svc.repo, core.StateDocuments, st, now); err != nil {
		return err
	}
	svc.state, svc.stored, svc.updatedAt = st, true, now
	return nil
}

// Filter returns the documents of the given types, newest first.
func (svc *Service) Filter(types []string) []Document {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	res := make([]Document, 0)
	for i := len(svc.state.Documents) - 1; i >= 0; i-- {
		if doc := svc.state.Documents[i]; core.ContainsString(types, doc.Type) {
			res = append(res, doc)
		}
	}
	return res
}

// Tokenizer rewrites e-classroom file URLs to the webservice endpoint authenticated with a moodle token.
type Tokenizer struct {
	NormalURL     string
	WebserviceURL string
}

func (tk Tokenizer) TokenizeURL(url, token string) string {
	if token != "" && tk.NormalURL != "" && strings.Contains(url, tk.NormalURL) {
		return strings.Replace(url, tk.NormalURL, tk.WebserviceURL, 1) + "?token=" + token
	}
	return url
}

// Tokenize applies TokenizeURL to every document.
func (tk Tokenizer) Tokenize(docs []Document, token string) []Document {
	for i := range docs {
		docs[i].URL = tk.TokenizeURL(docs[i].URL, token)
	}
	return docs
}
