package snackbar

import (
	"sync"
	"time"
)

// messages
const (
	MsgOffline  = "Internetna povezava ni na voljo"
	MsgUpdating = "Posodabljanje ..."
	MsgUpdated  = "Podatki posodobljeni"
	MsgError    = "Napaka pri pridobivanju podatkov"
)

const DefaultTimeout = 2 * time.Second

type Snackbar struct {
	Show       bool          `json:"show"`
	Message    string        `json:"message"`
	ButtonText string        `json:"buttonText"`
	Timeout    time.Duration `json:"timeout"`
	ShownAt    time.Time     `json:"shownAt"`
}

type Option func(*Snackbar)

func WithButton(text string) Option {
	return func(s *Snackbar) { s.ButtonText = text }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Snackbar) {
		if d > 0 {
			s.Timeout = d
		}
	}
}

// Store holds the last displayed snackbar and forwards it to the subscribers.
type Store struct {
	mu          sync.RWMutex
	current     Snackbar
	history     []Snackbar
	subscribers []func(Snackbar)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Display(message string, opts ...Option) {
	sb := Snackbar{Show: true, Message: message, Timeout: DefaultTimeout, ShownAt: time.Now()}
	for _, opt := range opts {
		opt(&sb)
	}

	s.mu.Lock()
	s.current = sb
	s.history = append(s.history, sb)
	if len(s.history) > 50 {
		s.history = s.history[len(s.history)-50:]
	}
	subs := s.subscribers
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sb)
	}
}

// Current returns the displayed snackbar; it is hidden once its timeout elapsed.
func (s *Store) Current() Snackbar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sb := s.current
	if sb.Show && time.Since(sb.ShownAt) > sb.Timeout {
		sb.Show = false
	}
	return sb
}

// Messages returns the messages displayed so far, oldest first.
func (s *Store) Messages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]string, 0, len(s.history))
	for _, sb := range s.history {
		msgs = append(msgs, sb.Message)
	}
	return msgs
}

func (s *Store) Subscribe(fn func(Snackbar)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}
