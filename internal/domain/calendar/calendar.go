package calendar

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "America/New_York"
	DayKeyLayout    = "2006-01-02"
)

// Calendar maps instants to trading day and week keys in a reference zone.
// Weeks start on Monday.
type Calendar struct {
	loc *time.Location
}

// Countdown is the wall-clock distance to the next day boundary.
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour + time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second
}

// New loads the named IANA zone. Fixed offsets are not accepted since they
// drift across daylight-saving transitions.
func New(zone string) (*Calendar, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = DefaultTimezone
	}
	if strings.EqualFold(zone, "local") {
		return nil, fmt.Errorf("timezone must be a named IANA zone, got %q", zone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Calendar{loc: loc}, nil
}

// MustNew is New for package-level fixtures and tests.
func MustNew(zone string) *Calendar {
	c, err := New(zone)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) DayKey(t time.Time) string {
	return t.In(c.loc).Format(DayKeyLayout)
}

func (c *Calendar) WeekStartKey(t time.Time) string {
	return civilWeekStart(civilDate(t.In(c.loc))).Format(DayKeyLayout)
}

// PreviousDayKey walks back one civil day, so a 23 or 25 hour day never
// skips or repeats a key.
func (c *Calendar) PreviousDayKey(t time.Time) string {
	return civilDate(t.In(c.loc)).AddDate(0, 0, -1).Format(DayKeyLayout)
}

func (c *Calendar) PreviousWeekStartKey(t time.Time) string {
	return civilWeekStart(civilDate(t.In(c.loc))).AddDate(0, 0, -7).Format(DayKeyLayout)
}

// DayStart returns midnight of t's trading day in the reference zone.
func (c *Calendar) DayStart(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

func (c *Calendar) NextDayBoundary(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
}

// ParseDayKey validates key and returns the start of that day.
func (c *Calendar) ParseDayKey(key string) (time.Time, error) {
	key = strings.TrimSpace(key)
	day, err := time.ParseInLocation(DayKeyLayout, key, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	if day.Format(DayKeyLayout) != key {
		return time.Time{}, fmt.Errorf("day key %q is not canonical", key)
	}
	return c.DayStart(day), nil
}

func (c *Calendar) WeekStartKeyForDay(dayKey string) (string, error) {
	day, err := c.ParseDayKey(dayKey)
	if err != nil {
		return "", err
	}
	return c.WeekStartKey(day), nil
}

// IsWeekStartKey reports whether key is a canonical Monday key.
func (c *Calendar) IsWeekStartKey(key string) bool {
	day, err := c.ParseDayKey(key)
	if err != nil {
		return false
	}
	return day.Weekday() == time.Monday
}

func (c *Calendar) TimeUntilNextDayBoundary(now time.Time) Countdown {
	if now.Equal(c.DayStart(now)) {
		return Countdown{}
	}
	remaining := c.NextDayBoundary(now).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	total := int(remaining / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// civilDate pins a local date to UTC midnight so date arithmetic ignores DST.
func civilDate(local time.Time) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func civilWeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
