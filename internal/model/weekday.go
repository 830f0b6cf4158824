package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Weekdays is an ordered weekday selection. Documents may spell entries as
// numbers (0=Sunday), numeric strings or English day names.
type Weekdays []time.Weekday

// ParseWeekday accepts "4", "thu" or "Thursday".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Weekday(n), nil
	}
	lower := strings.ToLower(s)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if lower == name || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

func (w *Weekdays) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Weekdays, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case float64:
			out = append(out, time.Weekday(int(x)))
		case string:
			d, err := ParseWeekday(x)
			if err != nil {
				return err
			}
			out = append(out, d)
		default:
			return fmt.Errorf("unsupported day of week value %v", v)
		}
	}
	*w = out
	return nil
}

func (w *Weekdays) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: days of week must be a list", node.Line)
	}
	out := make(Weekdays, 0, len(node.Content))
	for _, item := range node.Content {
		d, err := ParseWeekday(item.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		out = append(out, d)
	}
	*w = out
	return nil
}
