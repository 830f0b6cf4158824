package ics

import (
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventcsv/internal/gmt"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/model"
	"eventcsv/internal/recurrence"
	"eventcsv/internal/tz"
)

const localTimestamp = "20060102T150405"

var errNoOccurrences = errors.New("pattern has no occurrences")

// ExportSeries renders each pattern as a single recurring VEVENT and each
// single instance as its own VEVENT. Series carry their zone as TZID so
// calendar clients apply the offset in effect on each date. Patterns that
// expand to nothing or whose zone or clocks cannot be resolved are skipped.
func ExportSeries(patterns []model.RecurringPattern, singles []model.EventInstance, opts ExportOptions) string {
	cal, opts := newCalendar(opts)
	for _, p := range patterns {
		if err := addSeries(cal, p, opts.Now); err != nil {
			appLog.Warn("ics export: skipping pattern", "program", p.Program, "reason", err.Error())
		}
	}
	for _, inst := range singles {
		addInstance(cal, inst, opts.Now)
	}
	return cal.Serialize()
}

func addSeries(cal *ical.Calendar, p model.RecurringPattern, now time.Time) error {
	instances := recurrence.Expand(p)
	if len(instances) == 0 {
		return errNoOccurrences
	}
	loc, err := gmt.Location(p.Timezone)
	if err != nil {
		return err
	}
	rule, err := recurrence.Rule(p, loc)
	if err != nil {
		return err
	}
	if rule == nil {
		return errNoOccurrences
	}
	start, end, err := span(instances[0].Date, p.StartTime, p.EndTime, p.Timezone)
	if err != nil {
		return err
	}

	zone := tz.ResolveIANA(p.Timezone)
	ev := cal.AddEvent(SeriesUID(p))
	ev.SetDtStampTime(now.UTC())
	ev.SetProperty(ical.ComponentPropertyDtStart, start.In(loc).Format(localTimestamp), ical.WithTZID(zone))
	ev.SetProperty(ical.ComponentPropertyDtEnd, end.In(loc).Format(localTimestamp), ical.WithTZID(zone))
	ev.AddRrule(rule.OrigOptions.RRuleString())
	describeEvent(ev, p.Program, p.Location, p.Staff, p.EventType)
	return nil
}

// SeriesUID derives a stable UID for a recurring pattern.
func SeriesUID(p model.RecurringPattern) string {
	days := make([]string, 0, len(p.Days))
	for _, d := range p.Days {
		days = append(days, d.String())
	}
	key := strings.Join([]string{
		p.Program,
		p.StartDate.String(),
		strings.Join(days, ","),
		p.StartTime,
		p.Timezone,
		p.Location,
	}, "\x1f")
	return uuid.NewSHA1(uidNamespace, []byte("series\x1f"+key)).String() + "@eventcsv"
}
