// Package session holds the ephemeral view state: the selected day and the entity being shown.
package session

import (
	"sync"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/core/entity"
	"github.com/gimvicurnik/urnik/core/settings"
)

type Session struct {
	settings *settings.Service
	clock    *core.Clock

	mu     sync.RWMutex
	day    int
	entity entity.Entity
}

func New(settingsSvc *settings.Service, clock *core.Clock) *Session {
	return &Session{
		settings: settingsSvc,
		clock:    clock,
		day:      core.CurrentDay(clock.Now()),
		entity:   entity.Entity{Type: entity.None, List: []string{}},
	}
}

func (s *Session) Day() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.day
}

// SetDay selects a weekday (0 is Monday); out of range days are clamped.
func (s *Session) SetDay(day int) {
	if day < 0 {
		day = 0
	} else if day > 4 {
		day = 4
	}
	s.mu.Lock()
	s.day = day
	s.mu.Unlock()
}

// ResetDay selects the current weekday.
func (s *Session) ResetDay() {
	s.SetDay(core.CurrentDay(s.clock.Now()))
}

func (s *Session) Entity() entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent := s.entity
	ent.List = append([]string{}, ent.List...)
	return ent
}

func (s *Session) SetEntity(ent entity.Entity) {
	ent.List = append([]string{}, ent.List...)
	s.mu.Lock()
	s.entity = ent
	s.mu.Unlock()
}

// ResetToSettings shows the entity selected in the settings.
func (s *Session) ResetToSettings() entity.Entity {
	ent := s.settings.Get().Entity()
	s.SetEntity(ent)
	return ent
}
