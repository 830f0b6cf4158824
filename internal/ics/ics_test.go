package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcsv/internal/model"
)

var feed = strings.ReplaceAll(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//EN
BEGIN:VEVENT
UID:weekly@test
DTSTART;TZID=America/New_York:20250306T100000
DTEND;TZID=America/New_York:20250306T110000
RRULE:FREQ=WEEKLY;COUNT=3
EXDATE;TZID=America/New_York:20250313T100000
SUMMARY:Office Hours
LOCATION:https://meet.example.com/oh
CATEGORIES:Mentor Swarm
END:VEVENT
BEGIN:VEVENT
UID:weekly@test
RECURRENCE-ID;TZID=America/New_York:20250320T100000
DTSTART;TZID=America/New_York:20250320T130000
DTEND;TZID=America/New_York:20250320T140000
SUMMARY:Office Hours (moved)
LOCATION:https://meet.example.com/oh
END:VEVENT
BEGIN:VEVENT
UID:demo@test
DTSTART:20250402T170000Z
DTEND:20250402T190000Z
SUMMARY:Demo Day
LOCATION:1 Market St
END:VEVENT
BEGIN:VEVENT
UID:holiday@test
DTSTART;VALUE=DATE:20250404
DTEND;VALUE=DATE:20250405
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
SUMMARY:No UID
DTSTART:20250402T170000Z
END:VEVENT
END:VCALENDAR
`, "\n", "\r\n")

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func expandFeed(t *testing.T) ExpandResult {
	t.Helper()
	events, err := ParseICS(Source{ID: "test", URL: "https://example.com/feed.ics"}, []byte(feed))
	require.NoError(t, err)

	loc := newYork(t)
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      time.Date(2025, time.March, 1, 0, 0, 0, 0, loc),
		RangeEnd:        time.Date(2025, time.April, 30, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)
	return res
}

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, []byte(feed))
	require.NoError(t, err)

	byUID := map[string][]ParsedEvent{}
	for _, ev := range events {
		byUID[ev.UID] = append(byUID[ev.UID], ev)
	}
	assert.NotContains(t, byUID, "", "events without a UID are skipped")

	weekly := byUID["weekly@test"]
	require.Len(t, weekly, 2)
	base := weekly[0]
	assert.Equal(t, "Office Hours", base.Summary)
	assert.Equal(t, "America/New_York", base.StartTZ)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=3", base.RawRRule)
	assert.Equal(t, []string{"Mentor Swarm"}, base.Categories)
	assert.False(t, base.AllDay)
	require.Len(t, base.ExDates, 1)
	assert.True(t, base.ExDates[0].Equal(time.Date(2025, time.March, 13, 14, 0, 0, 0, time.UTC)))

	override := weekly[1]
	assert.True(t, override.IsOverride)
	require.NotNil(t, override.Recurrence)
	assert.True(t, override.Recurrence.Equal(time.Date(2025, time.March, 20, 14, 0, 0, 0, time.UTC)))

	demo := byUID["demo@test"]
	require.Len(t, demo, 1)
	assert.True(t, demo[0].Start.Equal(time.Date(2025, time.April, 2, 17, 0, 0, 0, time.UTC)))
}

func TestParseICSErrors(t *testing.T) {
	_, err := ParseICS(Source{}, nil)
	assert.Error(t, err)
	_, err = ParseICS(Source{}, []byte("  \r\n"))
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	res := expandFeed(t)

	var timed []Occurrence
	for _, o := range res.Occurrences {
		if !o.AllDay {
			timed = append(timed, o)
		}
	}
	require.Len(t, timed, 3)

	assert.Equal(t, "Office Hours", timed[0].Summary)
	assert.Equal(t, time.Date(2025, time.March, 6, 10, 0, 0, 0, newYork(t)).String(), timed[0].Start.String())

	assert.Equal(t, "Office Hours (moved)", timed[1].Summary, "override replaces the 3/20 instance")
	assert.Equal(t, 13, timed[1].Start.Hour())
	assert.Equal(t, 20, timed[1].Start.Day())

	assert.Equal(t, "Demo Day", timed[2].Summary)
	assert.Equal(t, 13, timed[2].Start.Hour(), "UTC event shown in the display zone")

	for i := 1; i < len(res.Occurrences); i++ {
		assert.False(t, res.Occurrences[i].Start.Before(res.Occurrences[i-1].Start))
	}
	assert.Empty(t, res.TruncatedEvents)
}

func TestExpandOccurrencesCap(t *testing.T) {
	start := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	events := []ParsedEvent{{
		UID:      "daily",
		Start:    start,
		End:      start.Add(time.Hour),
		RawRRule: "FREQ=DAILY",
	}}
	res, err := ExpandOccurrences(events, ExpandConfig{
		RangeStart:             start,
		RangeEnd:               start.AddDate(0, 0, 30),
		MaxOccurrencesPerEvent: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Occurrences, 5)
	assert.Equal(t, []string{"daily"}, res.TruncatedEvents)

	_, err = ExpandOccurrences(events, ExpandConfig{RangeStart: start, RangeEnd: start.Add(-time.Hour)})
	assert.Error(t, err)
}

func TestToSingleEvents(t *testing.T) {
	res := expandFeed(t)
	events := ToSingleEvents(res.Occurrences, Defaults{
		Timezone:  "America/New_York",
		EventType: model.EventTypeInvestorSwarm,
		Capacity:  25,
		Staff:     []string{"Ada"},
	})
	require.Len(t, events, 3, "all-day occurrences are skipped")

	first := events[0]
	assert.Equal(t, "Office Hours", first.Program)
	assert.Equal(t, model.NewDate(2025, time.March, 6), first.Date)
	assert.Equal(t, "10:00am", first.StartTime)
	assert.Equal(t, "11:00am", first.EndTime)
	assert.Equal(t, "America/New_York", first.Timezone)
	assert.Equal(t, model.EventTypeMentorSwarm, first.EventType, "category names the event type")
	assert.True(t, first.Virtual)
	assert.Equal(t, 25, first.Capacity)
	assert.Equal(t, []string{"Ada"}, first.Staff)

	assert.Equal(t, model.EventTypeInvestorSwarm, events[1].EventType)
	assert.Equal(t, "1:00pm", events[1].StartTime)

	demo := events[2]
	assert.Equal(t, "Demo Day", demo.Program)
	assert.Equal(t, "1:00pm", demo.StartTime)
	assert.Equal(t, "3:00pm", demo.EndTime)
	assert.False(t, demo.Virtual)
	assert.Equal(t, "1 Market St", demo.Location)
}

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, model.EventTypeInvestorSwarm, eventTypeOf([]string{"misc", "investor-swarm"}, ""))
	assert.Equal(t, model.EventTypeMentorSwarm, eventTypeOf([]string{" mentor swarm "}, ""))
	assert.Equal(t, model.EventType("x"), eventTypeOf(nil, "x"))
}
