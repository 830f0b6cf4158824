// Package csvexport writes event instances in the fixed 14-column layout
// expected by the scheduling platform import.
package csvexport

import (
	"io"
	"strconv"
	"strings"

	"eventcsv/internal/gmt"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/model"
	"eventcsv/internal/tz"
)

// Header is the column order of the import schema.
var Header = []string{
	"Slot",
	"Program",
	"Staff",
	"Virtual Location",
	"Physical Location",
	"Event Type",
	"Day of Week",
	"Event Date",
	"Start Time",
	"End Time",
	"Time Zone",
	"GMT Start",
	"GMT End",
	"Slot Registrant Capacity",
}

const (
	colProgram  = 1
	colStaff    = 2
	colVirtual  = 3
	colPhysical = 4
)

// Encode renders instances as CSV text. Rows follow the input order.
func Encode(instances []model.EventInstance) string {
	var b strings.Builder
	writeRows(&b, instances)
	return b.String()
}

// Write streams the same text Encode returns to w.
func Write(w io.Writer, instances []model.EventInstance) error {
	_, err := io.WriteString(w, Encode(instances))
	return err
}

// Values returns the 14 column values of one instance, unquoted. GMT
// columns that cannot be computed are blank.
func Values(inst model.EventInstance) []string {
	var virtualLoc, physicalLoc string
	if inst.Virtual {
		virtualLoc = inst.Location
	} else {
		physicalLoc = inst.Location
	}

	capacity := ""
	if inst.Capacity > 0 {
		capacity = strconv.Itoa(inst.Capacity)
	}

	return []string{
		"", // Slot is assigned by the importer.
		inst.Program,
		strings.Join(model.StaffNames(inst.Staff), ","),
		virtualLoc,
		physicalLoc,
		inst.EventType.Label(),
		inst.Weekday().String(),
		inst.Date.Slash(),
		gmt.NormalizeClock(inst.StartTime),
		gmt.NormalizeClock(inst.EndTime),
		tz.ResolveLabel(inst.Timezone),
		gmtField(inst, inst.StartTime, "start"),
		gmtField(inst, inst.EndTime, "end"),
		capacity,
	}
}

// Row returns the 14 encoded fields of one instance, quoting included.
// Program, Staff and the populated location column are always quoted.
func Row(inst model.EventInstance) []string {
	row := Values(inst)
	for i, v := range row {
		switch {
		case i == colProgram, i == colStaff:
			row[i] = quote(v)
		case i == colVirtual && inst.Virtual, i == colPhysical && !inst.Virtual:
			row[i] = quote(v)
		default:
			row[i] = field(v)
		}
	}
	return row
}

func writeRows(b *strings.Builder, instances []model.EventInstance) {
	b.WriteString(strings.Join(Header, ","))
	b.WriteByte('\n')
	for _, inst := range instances {
		b.WriteString(strings.Join(Row(inst), ","))
		b.WriteByte('\n')
	}
}

func gmtField(inst model.EventInstance, clock, which string) string {
	s, err := gmt.Convert(inst.Date, clock, inst.Timezone)
	if err != nil {
		appLog.Warn("gmt conversion failed; leaving field blank",
			"column", which,
			"program", inst.Program,
			"date", inst.Date.String(),
			"time", clock,
			"timezone", inst.Timezone,
			"reason", err.Error(),
		)
		return ""
	}
	return s
}

// quote always wraps s in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// field quotes s only when it would otherwise break the row apart.
func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}
