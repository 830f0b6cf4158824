// Package gmt converts local wall-clock times on a given calendar date into
// UTC, using the offset that is in effect in the zone on that date.
package gmt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"eventcsv/internal/model"
	"eventcsv/internal/tz"
)

// Layout is the UTC timestamp format written to the GMT columns.
const Layout = "1/2/2006 3:04pm"

var (
	ErrInvalidClock = errors.New("gmt: invalid time of day")
	ErrNoDate       = errors.New("gmt: date is missing")
	ErrNoZone       = errors.New("gmt: timezone is missing")
	ErrHostZone     = errors.New("gmt: the host's local zone is not a timezone name")
)

// Clock is a parsed time of day.
type Clock struct {
	Hour   int // 0-23
	Minute int
}

// String formats c as h:mmam/pm.
func (c Clock) String() string {
	return time.Date(2000, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format("3:04pm")
}

var (
	twelveHour     = regexp.MustCompile(`^(\d{1,2})(?::(\d{1,2}))?([ap])\.?(?:m\.?)?$`)
	twentyFourHour = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseClock parses "10:00am", "2:30 PM", "9pm", "9:05 a.m." and the 24-hour
// "14:30" form.
func ParseClock(s string) (Clock, error) {
	cleaned := strings.Join(strings.Fields(strings.ToLower(s)), "")
	if cleaned == "" {
		return Clock{}, ErrInvalidClock
	}

	if m := twelveHour.FindStringSubmatch(cleaned); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		hour %= 12
		if m[3] == "p" {
			hour += 12
		}
		return Clock{Hour: hour, Minute: minute}, nil
	}

	if m := twentyFourHour.FindStringSubmatch(cleaned); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		return Clock{Hour: hour, Minute: minute}, nil
	}

	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// NormalizeClock returns s as lowercase h:mmam/pm. Input that does not
// parse is returned lowercased with whitespace removed.
func NormalizeClock(s string) string {
	c, err := ParseClock(s)
	if err != nil {
		return strings.Join(strings.Fields(strings.ToLower(s)), "")
	}
	return c.String()
}

// Location resolves zone through the registry and loads it from tzdata.
// "Local" is rejected: it names whatever zone the host runs in.
func Location(zone string) (*time.Location, error) {
	if strings.TrimSpace(zone) == "" {
		return nil, ErrNoZone
	}
	name := tz.ResolveIANA(zone)
	if strings.EqualFold(strings.TrimSpace(name), "local") {
		return nil, fmt.Errorf("%w: %q", ErrHostZone, zone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("gmt: load zone %q: %w", zone, err)
	}
	return loc, nil
}

// Instant returns the moment at which the wall clock in zone shows clock on
// date. Wall times skipped by a DST transition are resolved by time.Date.
func Instant(date model.Date, clock, zone string) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, ErrNoDate
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year, date.Month, date.Day, c.Hour, c.Minute, 0, 0, loc), nil
}

// ToUTC formats the UTC equivalent of clock on date in zone using Layout.
// It returns "" when any input cannot be resolved.
func ToUTC(date model.Date, clock, zone string) string {
	s, err := Convert(date, clock, zone)
	if err != nil {
		return ""
	}
	return s
}

// Convert is ToUTC with the failure reason.
func Convert(date model.Date, clock, zone string) (string, error) {
	t, err := Instant(date, clock, zone)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(Layout), nil
}
