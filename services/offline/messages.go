package offline

import (
	"time"

	"github.com/pkg/errors"
)

// Topic is the EventBus topic the worker publishes Message values on.
const Topic = "cache-updates"

// worker actions
const (
	ActionClearCacheAll  = "clear-cache-all"
	ActionClearCacheData = "clear-cache-data"
)

var ErrUnknownAction = errors.New("unknown action")

// Message is published after the caches change.
type Message struct {
	Date        time.Time `json:"date"`
	RefreshAll  bool      `json:"refreshAll,omitempty"`
	RefreshData bool      `json:"refreshData,omitempty"`
	Path        string    `json:"path,omitempty"` // revalidated data path, relative to the origin
}

// Action returns "refreshAll", "refreshData" or "" for plain cache updates.
func (m Message) Action() string {
	switch {
	case m.RefreshAll:
		return "refreshAll"
	case m.RefreshData:
		return "refreshData"
	}
	return ""
}
