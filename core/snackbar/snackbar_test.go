package snackbar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_Display(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Current().Show)

	var got []Snackbar
	s.Subscribe(func(sb Snackbar) { got = append(got, sb) })

	s.Display(MsgUpdating)
	cur := s.Current()
	assert.True(t, cur.Show)
	assert.Equal(t, MsgUpdating, cur.Message)
	assert.Equal(t, DefaultTimeout, cur.Timeout)
	assert.Empty(t, cur.ButtonText)

	s.Display(MsgError, WithButton("Poskusi znova"), WithTimeout(time.Nanosecond))
	time.Sleep(time.Millisecond)
	cur = s.Current()
	assert.False(t, cur.Show)
	assert.Equal(t, "Poskusi znova", cur.ButtonText)

	assert.Equal(t, []string{MsgUpdating, MsgError}, s.Messages())
	assert.Len(t, got, 2)
}
