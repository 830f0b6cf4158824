package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventcsv/internal/gmt"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/model"
)

const defaultProductID = "-//eventcsv//Event Export//EN"

// uidNamespace scopes the name-based UIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:eventcsv:event"))

// ExportOptions controls calendar rendering.
type ExportOptions struct {
	ProductID string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export renders instances as a VCALENDAR with one VEVENT per instance.
// Instances whose start or end cannot be resolved to an instant are skipped.
func Export(instances []model.EventInstance, opts ExportOptions) string {
	cal, opts := newCalendar(opts)
	for _, inst := range instances {
		addInstance(cal, inst, opts.Now)
	}
	return cal.Serialize()
}

func newCalendar(opts ExportOptions) (*ical.Calendar, ExportOptions) {
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)
	return cal, opts
}

func addInstance(cal *ical.Calendar, inst model.EventInstance, now time.Time) {
	start, end, err := span(inst.Date, inst.StartTime, inst.EndTime, inst.Timezone)
	if err != nil {
		appLog.Warn("ics export: skipping instance", "program", inst.Program, "date", inst.Date.String(), "reason", err.Error())
		return
	}

	ev := cal.AddEvent(InstanceUID(inst))
	ev.SetDtStampTime(now.UTC())
	ev.SetStartAt(start.UTC())
	ev.SetEndAt(end.UTC())
	describeEvent(ev, inst.Program, inst.Location, inst.Staff, inst.EventType)
}

// span resolves the start and end instants of one occurrence. An end that
// is not after the start belongs to the next day.
func span(date model.Date, startClock, endClock, zone string) (time.Time, time.Time, error) {
	start, err := gmt.Instant(date, startClock, zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := gmt.Instant(date, endClock, zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func describeEvent(ev *ical.VEvent, program, location string, staff []string, et model.EventType) {
	ev.SetSummary(program)
	if location != "" {
		ev.SetLocation(location)
	}
	if names := model.StaffNames(staff); len(names) > 0 {
		ev.SetDescription(strings.Join(names, ", "))
	}
	if label := et.Label(); label != "" {
		ev.SetProperty(ical.ComponentPropertyCategories, label)
	}
}

// InstanceUID derives a stable UID from the fields that identify an instance,
// so re-exporting the same schedule updates events instead of duplicating them.
func InstanceUID(inst model.EventInstance) string {
	key := strings.Join([]string{inst.Program, inst.Date.String(), inst.StartTime, inst.Timezone, inst.Location}, "\x1f")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@eventcsv"
}
