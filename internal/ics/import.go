package ics

import (
	"strings"

	"eventcsv/internal/model"
)

// Defaults fills the fields a calendar feed has no equivalent for.
type Defaults struct {
	// Timezone names the zone occurrences were expanded into. It is copied
	// to every event so the CSV shows the same wall clock.
	Timezone  string
	EventType model.EventType
	Capacity  int
	Staff     []string
}

const clockLayout = "3:04pm"

// ToSingleEvents converts timed occurrences into single events in the
// occurrence's own zone. All-day occurrences have no clock and are skipped.
func ToSingleEvents(occs []Occurrence, d Defaults) []model.SingleEvent {
	out := make([]model.SingleEvent, 0, len(occs))
	for _, o := range occs {
		if o.AllDay {
			continue
		}
		ev := model.SingleEvent{
			Program:   strings.TrimSpace(o.Summary),
			Date:      model.DateOf(o.Start),
			StartTime: o.Start.Format(clockLayout),
			EndTime:   o.End.Format(clockLayout),
			Timezone:  d.Timezone,
			Capacity:  d.Capacity,
			Staff:     append([]string(nil), d.Staff...),
			EventType: eventTypeOf(o.Categories, d.EventType),
			Virtual:   isOnlineLocation(o.Location),
			Location:  strings.TrimSpace(o.Location),
		}
		out = append(out, ev)
	}
	return out
}

// eventTypeOf picks the first category naming a known event type, by code
// or by label.
func eventTypeOf(categories []string, fallback model.EventType) model.EventType {
	for _, c := range categories {
		c = strings.TrimSpace(c)
		for _, et := range []model.EventType{model.EventTypeMentorSwarm, model.EventTypeInvestorSwarm} {
			if strings.EqualFold(c, string(et)) || strings.EqualFold(c, et.Label()) {
				return et
			}
		}
	}
	return fallback
}

func isOnlineLocation(loc string) bool {
	loc = strings.ToLower(strings.TrimSpace(loc))
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
