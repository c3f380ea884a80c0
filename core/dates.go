package core

import (
	"strconv"
	"strings"
	"time"
)

// ISODateLayout is the date format used by the remote API.
const ISODateLayout = "2006-01-02"

// LessonTimes holds the start and end of every lesson slot, indexed by time.
var LessonTimes = [][2]string{
	{"7:10", "7:55"},
	{"8:00", "8:45"},
	{"8:50", "9:35"},
	{"9:40", "10:25"},
	{"10:55", "11:40"},
	{"11:45", "12:30"},
	{"12:35", "13:20"},
	{"13:25", "14:10"},
	{"14:15", "15:00"},
	{"15:05", "15:50"},
	{"15:55", "16:40"},
}

// Clock returns the current time. A custom date replaces the date part of "now".
type Clock struct {
	now        func() time.Time
	customDate time.Time
}

func NewClock(customDate string) (*Clock, error) {
	c := &Clock{now: time.Now}
	if customDate != "" {
		d, err := ParseISODate(customDate)
		if err != nil {
			return nil, err
		}
		c.customDate = d
	}
	return c, nil
}

// NewFixedClock returns a Clock frozen at `t`.
func NewFixedClock(t time.Time) *Clock {
	return &Clock{now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time {
	now := c.now()
	if !c.customDate.IsZero() {
		y, m, d := c.customDate.Date()
		return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
	}
	return now
}

// ParseISODate parses a YYYY-MM-DD date as UTC midnight.
func ParseISODate(s string) (time.Time, error) {
	return time.ParseInLocation(ISODateLayout, CleanString(s), time.UTC)
}

func ISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// CurrentDay returns the weekday index of `t`: 0 is Monday, 4 is Friday, weekends count as Monday.
func CurrentDay(t time.Time) int {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return 0
	}
	return int(wd) - 1
}

// Weekdays returns Monday to Friday of the week of `date` as UTC midnights.
// Weekend dates return the days of the next week.
func Weekdays(date time.Time) []time.Time {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		day = day.AddDate(0, 0, 2)
	}
	monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))

	days := make([]time.Time, 5)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// CurrentLesson returns the index of the lesson slot `t` falls in, or -1.
// A slot starts at the end of the previous lesson (the first one at its own start) and ends with the lesson.
func CurrentLesson(t time.Time) int {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	for i := range LessonTimes {
		start := clockMinutes(LessonTimes[i][0])
		if i > 0 {
			start = clockMinutes(LessonTimes[i-1][1])
		}
		if start*60 <= secs && secs <= clockMinutes(LessonTimes[i][1])*60 {
			return i
		}
	}
	return -1
}

func clockMinutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}
