package gmt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcsv/internal/model"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want Clock
	}{
		{"10:00am", Clock{10, 0}},
		{"2:30 PM", Clock{14, 30}},
		{"9pm", Clock{21, 0}},
		{"9 P", Clock{21, 0}},
		{"9:05 a.m.", Clock{9, 5}},
		{"12:00am", Clock{0, 0}},
		{"12:15pm", Clock{12, 15}},
		{" 07:45AM ", Clock{7, 45}},
		{"14:30", Clock{14, 30}},
		{"00:00", Clock{0, 0}},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "noon", "13:00pm", "0:30am", "10:75am", "25:00", "10", "am", "10:00xm"} {
		_, err := ParseClock(in)
		assert.ErrorIs(t, err, ErrInvalidClock, in)
	}
}

func TestNormalizeClock(t *testing.T) {
	assert.Equal(t, "10:00am", NormalizeClock("10:00 AM"))
	assert.Equal(t, "9:00pm", NormalizeClock("09:00pm"))
	assert.Equal(t, "2:30pm", NormalizeClock("14:30"))
	assert.Equal(t, "12:00am", NormalizeClock("12am"))
	assert.Equal(t, "sometime", NormalizeClock(" Some Time "))
}

func TestToUTCAcrossSpringForward(t *testing.T) {
	// DST in America/New_York began on 2025-03-09.
	cases := []struct {
		date model.Date
		want string
	}{
		{model.NewDate(2025, time.February, 20), "2/20/2025 3:00pm"},
		{model.NewDate(2025, time.February, 27), "2/27/2025 3:00pm"},
		{model.NewDate(2025, time.March, 6), "3/6/2025 3:00pm"},
		{model.NewDate(2025, time.March, 13), "3/13/2025 2:00pm"},
		{model.NewDate(2025, time.March, 20), "3/20/2025 2:00pm"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToUTC(tc.date, "10:00am", "America/New_York"), tc.date.String())
	}
}

func TestToUTCResolvesAliases(t *testing.T) {
	d := model.NewDate(2025, time.July, 1)
	want := "7/1/2025 5:00pm"
	for _, zone := range []string{"America/Los_Angeles", "PST", "PDT", "Pacific"} {
		assert.Equal(t, want, ToUTC(d, "10:00am", zone), zone)
	}
}

func TestToUTCOtherZones(t *testing.T) {
	cases := []struct {
		name  string
		date  model.Date
		clock string
		zone  string
		want  string
	}{
		{"evening rolls into next UTC day", model.NewDate(2025, time.February, 20), "10:00pm", "Eastern", "2/21/2025 3:00am"},
		{"midnight", model.NewDate(2025, time.July, 4), "12:00am", "EDT", "7/4/2025 4:00am"},
		{"alaska standard time", model.NewDate(2025, time.January, 15), "12:00pm", "AKST", "1/15/2025 9:00pm"},
		{"amsterdam before EU change", model.NewDate(2025, time.March, 27), "10:00am", "CET", "3/27/2025 9:00am"},
		{"amsterdam after EU change", model.NewDate(2025, time.April, 3), "10:00am", "CET", "4/3/2025 8:00am"},
		{"new york already on EDT while amsterdam is not", model.NewDate(2025, time.March, 27), "10:00am", "EST", "3/27/2025 2:00pm"},
		{"ambiguous fall-back hour keeps daylight offset", model.NewDate(2025, time.November, 2), "1:30am", "America/New_York", "11/2/2025 5:30am"},
		{"zones outside the registry still load", model.NewDate(2025, time.June, 1), "9:00am", "Asia/Tokyo", "6/1/2025 12:00am"},
		{"24-hour input", model.NewDate(2025, time.June, 2), "14:30", "Central", "6/2/2025 7:30pm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToUTC(tc.date, tc.clock, tc.zone))
		})
	}
}

func TestToUTCFailuresAreBlank(t *testing.T) {
	d := model.NewDate(2025, time.February, 20)
	assert.Equal(t, "", ToUTC(d, "", "EST"))
	assert.Equal(t, "", ToUTC(d, "lunchtime", "EST"))
	assert.Equal(t, "", ToUTC(d, "10:00am", ""))
	assert.Equal(t, "", ToUTC(d, "10:00am", "Mars/Olympus_Mons"))
	assert.Equal(t, "", ToUTC(model.Date{}, "10:00am", "EST"))

	_, err := Convert(model.Date{}, "10:00am", "EST")
	assert.True(t, errors.Is(err, ErrNoDate))
	_, err = Convert(d, "10:00am", " ")
	assert.True(t, errors.Is(err, ErrNoZone))
}

func TestInstant(t *testing.T) {
	got, err := Instant(model.NewDate(2025, time.March, 13), "10:00am", "EST")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 13, 14, 0, 0, 0, time.UTC), got.UTC())
	assert.Equal(t, "America/New_York", got.Location().String())
}

func TestLocationRejectsHostZone(t *testing.T) {
	for _, zone := range []string{"Local", "local", " Local "} {
		_, err := Location(zone)
		assert.ErrorIs(t, err, ErrHostZone, zone)
	}
	assert.Equal(t, "", ToUTC(model.NewDate(2025, time.July, 1), "10:00am", "Local"))

	loc, err := Location("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}
