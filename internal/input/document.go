// Package input reads schedule documents: the recurring patterns and single
// events a user wants exported, as YAML or JSON.
package input

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"eventcsv/internal/model"
)

// Document is the full set of records for one export.
type Document struct {
	Patterns []model.RecurringPattern `yaml:"patterns" json:"patterns"`
	Events   []model.SingleEvent      `yaml:"events" json:"events"`
}

// Empty reports whether the document holds no records at all.
func (d Document) Empty() bool {
	return len(d.Patterns) == 0 && len(d.Events) == 0
}

// Load reads a schedule document from path.
func Load(path string) (Document, error) {
	if path == "" {
		return Document{}, errors.New("input path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := Parse(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a schedule document from r, such as an HTTP request body.
func Decode(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, err
	}
	return Parse(data)
}

// Parse decodes document bytes. A document whose first non-blank byte is
// '{' is JSON with the camelCase keys the HTTP API takes; anything else is
// YAML with snake_case keys. Unknown keys are rejected in both forms so
// typos do not silently drop fields.
func Parse(data []byte) (Document, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return doc, nil
	}
	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode schedule document: %w", err)
		}
		return doc, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("decode schedule document: %w", err)
	}
	return doc, nil
}

// ApplyDefaults fills blank timezones and unset week counts.
func (d *Document) ApplyDefaults(timezone string, weeks int) {
	for i := range d.Patterns {
		if strings.TrimSpace(d.Patterns[i].Timezone) == "" {
			d.Patterns[i].Timezone = timezone
		}
		if d.Patterns[i].Weeks == 0 && weeks > 0 {
			d.Patterns[i].Weeks = weeks
		}
	}
	for i := range d.Events {
		if strings.TrimSpace(d.Events[i].Timezone) == "" {
			d.Events[i].Timezone = timezone
		}
	}
}

// Merge appends other's records to d.
func (d *Document) Merge(other Document) {
	d.Patterns = append(d.Patterns, other.Patterns...)
	d.Events = append(d.Events, other.Events...)
}
