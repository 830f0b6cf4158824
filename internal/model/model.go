package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultWeeks is used when a pattern leaves its week count unset.
	DefaultWeeks = 8
	// MaxWeeks caps how far a single pattern may repeat.
	MaxWeeks = 52
)

// EventType is the internal code of an event category.
type EventType string

const (
	EventTypeUnset         EventType = ""
	EventTypeMentorSwarm   EventType = "mentor-swarm"
	EventTypeInvestorSwarm EventType = "investor-swarm"
)

var eventTypeLabels = map[EventType]string{
	EventTypeMentorSwarm:   "Mentor Swarm",
	EventTypeInvestorSwarm: "Investor Swarm",
}

// Label returns the display name written to the CSV. Unknown codes are
// returned unchanged.
func (t EventType) Label() string {
	if l, ok := eventTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Known reports whether t is one of the enumerated codes.
func (t EventType) Known() bool {
	_, ok := eventTypeLabels[t]
	return ok
}

// RecurringPattern describes events repeating on a set of weekdays for a
// number of weeks, always at the same local start/end time.
type RecurringPattern struct {
	Program   string   `yaml:"program" json:"program"`
	StartDate Date     `yaml:"start_date" json:"startDate"`
	Days      Weekdays `yaml:"days_of_week" json:"daysOfWeek"`
	StartTime string   `yaml:"start_time" json:"startTime"`
	EndTime   string   `yaml:"end_time" json:"endTime"`
	// Weeks is the number of weeks to generate. Zero means DefaultWeeks;
	// values are clamped to [1, MaxWeeks].
	Weeks     int       `yaml:"weeks" json:"weeks"`
	Timezone  string    `yaml:"timezone" json:"timezone"`
	Capacity  int       `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	Staff     []string  `yaml:"staff" json:"staff"`
	EventType EventType `yaml:"event_type" json:"eventType"`
	Virtual   bool      `yaml:"virtual" json:"isVirtual"`
	Location  string    `yaml:"location" json:"location"`
}

// WeekCount returns the effective number of weeks for the pattern.
func (p RecurringPattern) WeekCount() int {
	switch {
	case p.Weeks == 0:
		return DefaultWeeks
	case p.Weeks < 1:
		return 1
	case p.Weeks > MaxWeeks:
		return MaxWeeks
	default:
		return p.Weeks
	}
}

// Validate reports every missing required field. A pattern that fails
// validation can still be expanded; callers decide whether to reject it.
func (p RecurringPattern) Validate() error {
	errs := validateCommon(p.Program, p.StartTime, p.EndTime, p.Capacity, p.EventType, p.Location, p.Staff)
	if p.StartDate.IsZero() {
		errs = append(errs, errors.New("start date is required"))
	}
	if len(p.Days) == 0 {
		errs = append(errs, errors.New("at least one day of week is required"))
	}
	for _, d := range p.Days {
		if d < time.Sunday || d > time.Saturday {
			errs = append(errs, fmt.Errorf("day of week %d is out of range", int(d)))
		}
	}
	return errors.Join(errs...)
}

// SingleEvent is a one-off event on a single date.
type SingleEvent struct {
	Program   string    `yaml:"program" json:"program"`
	Date      Date      `yaml:"date" json:"date"`
	StartTime string    `yaml:"start_time" json:"startTime"`
	EndTime   string    `yaml:"end_time" json:"endTime"`
	Timezone  string    `yaml:"timezone" json:"timezone"`
	Capacity  int       `yaml:"capacity,omitempty" json:"capacity,omitempty"`
	Staff     []string  `yaml:"staff" json:"staff"`
	EventType EventType `yaml:"event_type" json:"eventType"`
	Virtual   bool      `yaml:"virtual" json:"isVirtual"`
	Location  string    `yaml:"location" json:"location"`
}

// Validate reports every missing required field.
func (e SingleEvent) Validate() error {
	errs := validateCommon(e.Program, e.StartTime, e.EndTime, e.Capacity, e.EventType, e.Location, e.Staff)
	if e.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	return errors.Join(errs...)
}

func validateCommon(program, start, end string, capacity int, et EventType, location string, staff []string) []error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"program", program},
		{"start time", start},
		{"end time", end},
		{"event type", string(et)},
		{"location", location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}
	if capacity <= 0 {
		errs = append(errs, errors.New("capacity must be a positive number"))
	}
	if len(StaffNames(staff)) == 0 {
		errs = append(errs, errors.New("at least one staff member is required"))
	}
	return errs
}

// StaffNames returns the non-blank staff names, trimmed, in order.
func StaffNames(staff []string) []string {
	out := make([]string, 0, len(staff))
	for _, s := range staff {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EventInstance is one dated occurrence, ready for serialization.
type EventInstance struct {
	Date Date `json:"date"`
	// DayOfWeek is set when the instance came from a weekday selection;
	// otherwise the weekday is derived from Date.
	DayOfWeek *time.Weekday `json:"dayOfWeek,omitempty"`

	// StartTime / EndTime are local wall-clock strings in Timezone.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Timezone  string `json:"timezone"`

	Program   string    `json:"program"`
	Staff     []string  `json:"staff"`
	Capacity  int       `json:"capacity,omitempty"`
	EventType EventType `json:"eventType"`
	Virtual   bool      `json:"isVirtual"`
	Location  string    `json:"location"`
}

// Weekday returns the explicit weekday if present, else the date's weekday.
func (i EventInstance) Weekday() time.Weekday {
	if i.DayOfWeek != nil {
		return *i.DayOfWeek
	}
	return i.Date.Weekday()
}
