// Package recurrence expands weekly patterns and single events into dated
// event instances.
package recurrence

import (
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"eventcsv/internal/model"
)

// Expand produces the instances of a weekly pattern, sorted by date.
//
// The first occurrence of each selected weekday falls on or after the start
// date; every later week repeats it exactly seven days later. A pattern
// without a program, start date or weekday yields nothing.
func Expand(p model.RecurringPattern) []model.EventInstance {
	if strings.TrimSpace(p.Program) == "" || p.StartDate.IsZero() || len(p.Days) == 0 {
		return nil
	}

	days := uniqueDays(p.Days)
	weeks := p.WeekCount()
	startDay := int(p.StartDate.Weekday())

	out := make([]model.EventInstance, 0, weeks*len(days))
	for w := 0; w < weeks; w++ {
		for _, d := range days {
			offset := (int(d)-startDay+7)%7 + 7*w
			day := d
			out = append(out, model.EventInstance{
				Date:      p.StartDate.AddDays(offset),
				DayOfWeek: &day,
				StartTime: p.StartTime,
				EndTime:   p.EndTime,
				Timezone:  p.Timezone,
				Program:   p.Program,
				Staff:     append([]string(nil), p.Staff...),
				Capacity:  p.Capacity,
				EventType: p.EventType,
				Virtual:   p.Virtual,
				Location:  p.Location,
			})
		}
	}

	SortByDate(out)
	return out
}

// ExpandSingle returns the one instance of e, or nothing when e has no date.
func ExpandSingle(e model.SingleEvent) []model.EventInstance {
	if e.Date.IsZero() {
		return nil
	}
	return []model.EventInstance{{
		Date:      e.Date,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Timezone:  e.Timezone,
		Program:   e.Program,
		Staff:     append([]string(nil), e.Staff...),
		Capacity:  e.Capacity,
		EventType: e.EventType,
		Virtual:   e.Virtual,
		Location:  e.Location,
	}}
}

// ExpandAll expands every pattern and single event and merges the result
// by date. On equal dates pattern instances come first, in input order.
func ExpandAll(patterns []model.RecurringPattern, events []model.SingleEvent) []model.EventInstance {
	var out []model.EventInstance
	for _, p := range patterns {
		out = append(out, Expand(p)...)
	}
	for _, e := range events {
		out = append(out, ExpandSingle(e)...)
	}
	SortByDate(out)
	return out
}

// SortByDate orders instances by calendar date, keeping the relative order
// of instances on the same date.
func SortByDate(instances []model.EventInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Date.Before(instances[j].Date)
	})
}

// uniqueDays drops duplicates and values outside Sunday..Saturday while
// keeping the selection order.
func uniqueDays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]bool, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

var rruleDays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Rule returns the RFC 5545 weekly rule that generates the same dates as
// Expand, anchored at midnight of the start date in loc. It returns nil for
// patterns Expand would skip.
func Rule(p model.RecurringPattern, loc *time.Location) (*rrule.RRule, error) {
	if strings.TrimSpace(p.Program) == "" || p.StartDate.IsZero() {
		return nil, nil
	}
	days := uniqueDays(p.Days)
	if len(days) == 0 {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	byDay := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byDay = append(byDay, rruleDays[d])
	}

	start := p.StartDate.In(loc)
	// The last generated date is start + 7*weeks - 1 days; UNTIL is the last
	// second of it so an event at any time of day on that date is included.
	until := p.StartDate.AddDays(7 * p.WeekCount()).In(loc).Add(-time.Second)

	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     until,
		Byweekday: byDay,
	})
}
