// Package export turns schedule documents into CSV and iCalendar output and
// drives the scheduled refresh of the configured output files.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eventcsv/internal/csvexport"
	"eventcsv/internal/ics"
	"eventcsv/internal/input"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/model"
	"eventcsv/internal/recurrence"
	"eventcsv/internal/tz"
)

// ErrInvalidDocument is returned in strict mode when a document holds
// incomplete records or timezones outside the registry.
var ErrInvalidDocument = errors.New("invalid schedule document")

// Options controls how a document is expanded.
type Options struct {
	// Strict rejects the whole document on the first class of problems
	// instead of exporting best-effort.
	Strict bool
	// DefaultTimezone fills blank record timezones.
	DefaultTimezone string
	// DefaultWeeks fills unset pattern week counts.
	DefaultWeeks int
}

// Instances validates doc and expands it into chronologically ordered
// instances. doc itself is not modified.
func Instances(doc input.Document, opts Options) ([]model.EventInstance, error) {
	doc, err := prepare(doc, opts)
	if err != nil {
		return nil, err
	}
	instances := recurrence.ExpandAll(doc.Patterns, doc.Events)
	appLog.Debug("schedule expanded",
		"patterns", len(doc.Patterns),
		"events", len(doc.Events),
		"instances", len(instances),
	)
	return instances, nil
}

// Series validates doc like Instances and renders it as an iCalendar
// document with one recurring event per pattern instead of one event per
// date. Single events are written as they are.
func Series(doc input.Document, opts Options, now time.Time) (string, error) {
	doc, err := prepare(doc, opts)
	if err != nil {
		return "", err
	}
	singles := recurrence.ExpandAll(nil, doc.Events)
	return ics.ExportSeries(doc.Patterns, singles, ics.ExportOptions{Now: now}), nil
}

// prepare copies doc, fills defaults and applies the strictness policy.
func prepare(doc input.Document, opts Options) (input.Document, error) {
	doc = input.Document{
		Patterns: append([]model.RecurringPattern(nil), doc.Patterns...),
		Events:   append([]model.SingleEvent(nil), doc.Events...),
	}
	doc.ApplyDefaults(opts.DefaultTimezone, opts.DefaultWeeks)

	if problems := Problems(doc); len(problems) > 0 {
		if opts.Strict {
			return input.Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(problems...))
		}
		for _, p := range problems {
			appLog.Warn("schedule record is incomplete; exporting anyway", "problem", p.Error())
		}
	}
	return doc, nil
}

// Problems lists every validation failure in doc, one error per record.
func Problems(doc input.Document) []error {
	var problems []error
	for i, p := range doc.Patterns {
		if err := recordProblems(p.Validate(), p.Timezone); err != nil {
			problems = append(problems, fmt.Errorf("pattern %d (%s): %w", i+1, describe(p.Program), err))
		}
	}
	for i, e := range doc.Events {
		if err := recordProblems(e.Validate(), e.Timezone); err != nil {
			problems = append(problems, fmt.Errorf("event %d (%s): %w", i+1, describe(e.Program), err))
		}
	}
	return problems
}

func recordProblems(err error, zone string) error {
	if !tz.Supported(zone) {
		err = errors.Join(err, fmt.Errorf("timezone %q is not supported", zone))
	}
	return err
}

func describe(program string) string {
	if p := strings.TrimSpace(program); p != "" {
		return p
	}
	return "untitled"
}

// CSV renders instances as CSV text.
func CSV(instances []model.EventInstance) string {
	return csvexport.Encode(instances)
}

// ICS renders instances as an iCalendar document stamped with now.
func ICS(instances []model.EventInstance, now time.Time) string {
	return ics.Export(instances, ics.ExportOptions{Now: now})
}
