package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDate(t *testing.T) {
	d, err := ParseDate("2025-02-20")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.February, Day: 20}, d)
	assert.Equal(t, time.Thursday, d.Weekday())
	assert.Equal(t, "2/20/2025", d.Slash())
	assert.Equal(t, "2025-02-20", d.String())

	assert.Equal(t, NewDate(2025, time.March, 6), d.AddDays(14))
	assert.Equal(t, NewDate(2024, time.December, 31), NewDate(2025, time.January, 1).AddDays(-1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))

	zero, err := ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.Slash())

	_, err = ParseDate("02/20/2025")
	assert.Error(t, err)
}

func TestDateDecoding(t *testing.T) {
	var fromYAML struct {
		D Date `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 2025-03-13\n"), &fromYAML))
	assert.Equal(t, NewDate(2025, time.March, 13), fromYAML.D)

	var fromJSON struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-03-13"}`), &fromJSON))
	assert.Equal(t, NewDate(2025, time.March, 13), fromJSON.D)

	out, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-03-13"}`, string(out))
}

func TestEventTypeLabel(t *testing.T) {
	assert.Equal(t, "Mentor Swarm", EventTypeMentorSwarm.Label())
	assert.Equal(t, "Investor Swarm", EventTypeInvestorSwarm.Label())
	assert.Equal(t, "office-hours", EventType("office-hours").Label())
	assert.Equal(t, "", EventTypeUnset.Label())
	assert.False(t, EventType("office-hours").Known())
}

func TestWeekCount(t *testing.T) {
	cases := map[int]int{0: DefaultWeeks, -3: 1, 1: 1, 5: 5, 52: 52, 60: MaxWeeks}
	for in, want := range cases {
		assert.Equal(t, want, RecurringPattern{Weeks: in}.WeekCount(), "weeks=%d", in)
	}
}

func TestValidate(t *testing.T) {
	valid := RecurringPattern{
		Program:   "Founders",
		StartDate: NewDate(2025, time.February, 20),
		Days:      []time.Weekday{time.Thursday},
		StartTime: "10:00am",
		EndTime:   "11:00am",
		Capacity:  10,
		Staff:     []string{"", "Ada"},
		EventType: EventTypeMentorSwarm,
		Location:  "Room 1",
	}
	assert.NoError(t, valid.Validate())

	err := RecurringPattern{Staff: []string{" "}, Days: []time.Weekday{9}}.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"program is required",
		"start time is required",
		"end time is required",
		"event type is required",
		"location is required",
		"capacity must be a positive number",
		"at least one staff member is required",
		"start date is required",
		"day of week 9 is out of range",
	} {
		assert.Contains(t, err.Error(), want)
	}

	single := SingleEvent{Program: "Demo"}
	err = single.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date is required")
	assert.NotContains(t, err.Error(), "program is required")
}

func TestStaffNames(t *testing.T) {
	assert.Equal(t, []string{"Ada", "Grace"}, StaffNames([]string{" Ada ", "", "  ", "Grace"}))
	assert.Empty(t, StaffNames(nil))
}

func TestInstanceWeekday(t *testing.T) {
	inst := EventInstance{Date: NewDate(2025, time.February, 20)}
	assert.Equal(t, time.Thursday, inst.Weekday())

	explicit := time.Monday
	inst.DayOfWeek = &explicit
	assert.Equal(t, time.Monday, inst.Weekday())
}

func TestWeekdaysDecoding(t *testing.T) {
	var fromJSON struct {
		Days Weekdays `json:"daysOfWeek"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"daysOfWeek":["4", 1, "friday", "Sun"]}`), &fromJSON))
	assert.Equal(t, Weekdays{time.Thursday, time.Monday, time.Friday, time.Sunday}, fromJSON.Days)

	var fromYAML struct {
		Days Weekdays `yaml:"days_of_week"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("days_of_week: [2, tuesday, \"6\"]\n"), &fromYAML))
	assert.Equal(t, Weekdays{time.Tuesday, time.Tuesday, time.Saturday}, fromYAML.Days)

	assert.Error(t, yaml.Unmarshal([]byte("days_of_week: [someday]\n"), &fromYAML))
	assert.Error(t, yaml.Unmarshal([]byte("days_of_week: monday\n"), &fromYAML))
	assert.Error(t, json.Unmarshal([]byte(`{"daysOfWeek":[true]}`), &fromJSON))
}
