package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventcsv/internal/config"
	"eventcsv/internal/gmt"
	"eventcsv/internal/ics"
	"eventcsv/internal/input"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/model"
)

// now is replaced in tests.
var now = time.Now

// Result is the outcome of one refresh.
type Result struct {
	CSV         string
	ICS         string
	Instances   int
	Imported    int
	Expanded    []model.EventInstance
	GeneratedAt time.Time
}

// ImportICS fetches every source and converts its timed occurrences within
// [today, today+horizonDays) in timezone into single events. Failing sources
// are logged and reported but do not stop the others.
func ImportICS(ctx context.Context, f *ics.Fetcher, sources []config.ICSConfig, timezone string, horizonDays int) ([]model.SingleEvent, []error) {
	if len(sources) == 0 {
		return nil, nil
	}
	loc, err := gmt.Location(timezone)
	if err != nil {
		return nil, []error{fmt.Errorf("import timezone: %w", err)}
	}

	t := now().In(loc)
	rangeStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	rangeEnd := rangeStart.AddDate(0, 0, horizonDays)

	var (
		out  []model.SingleEvent
		errs []error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return out, append(errs, err)
		}
		res, err := f.FetchOne(ctx, ics.Source{ID: src.ID, URL: src.URL})
		if err != nil {
			errs = append(errs, fmt.Errorf("ics source %s: %w", src.ID, err))
			appLog.Error("ics import: fetch failed", err, "id", src.ID)
			continue
		}
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("ics source %s: %w", src.ID, err))
			continue
		}
		expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
			DisplayLocation: loc,
			RangeStart:      rangeStart,
			RangeEnd:        rangeEnd,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("ics source %s: %w", src.ID, err))
			continue
		}
		events := ics.ToSingleEvents(expanded.Occurrences, ics.Defaults{
			Timezone:  timezone,
			EventType: src.EventType,
			Capacity:  src.Capacity,
			Staff:     src.Staff,
		})
		appLog.Info("ics import completed", "id", src.ID, "events", len(events), "from_cache", res.FromCache)
		out = append(out, events...)
	}
	return out, errs
}

// StdoutPath as cfg.Output means the caller prints the CSV itself, so
// Refresh writes no file for it.
const StdoutPath = "-"

// Refresh loads cfg.Input, folds in the configured ICS sources, and writes
// the CSV (and ICS when configured) atomically. An empty or StdoutPath
// cfg.Output skips writing; the rendered text is returned either way.
func Refresh(ctx context.Context, cfg *config.Config, f *ics.Fetcher) (Result, error) {
	if cfg == nil {
		return Result{}, errors.New("config is nil")
	}
	if f == nil {
		f = ics.NewFetcher(cfg.CacheDir, nil)
	}

	var doc input.Document
	if cfg.Input != "" {
		d, err := input.Load(cfg.Input)
		if err != nil {
			return Result{}, fmt.Errorf("load input: %w", err)
		}
		doc = d
	}

	imported, errs := ImportICS(ctx, f, cfg.ICS, cfg.DefaultTimezone, cfg.HorizonDays)
	if len(errs) > 0 && len(imported) == 0 && doc.Empty() {
		return Result{}, fmt.Errorf("refresh: nothing to export: %w", errors.Join(errs...))
	}
	doc.Merge(input.Document{Events: imported})

	opts := Options{
		Strict:          cfg.Strict,
		DefaultTimezone: cfg.DefaultTimezone,
		DefaultWeeks:    cfg.DefaultWeeks,
	}
	instances, err := Instances(doc, opts)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		CSV:         CSV(instances),
		Instances:   len(instances),
		Imported:    len(imported),
		Expanded:    instances,
		GeneratedAt: now(),
	}
	if cfg.Output != "" && cfg.Output != StdoutPath {
		if err := config.WriteFileAtomic(cfg.Output, []byte(res.CSV), 0o644); err != nil {
			return Result{}, fmt.Errorf("write csv: %w", err)
		}
	}
	if cfg.ICSOutput != "" {
		if cfg.ICSSeries {
			if res.ICS, err = Series(doc, opts, res.GeneratedAt); err != nil {
				return Result{}, err
			}
		} else {
			res.ICS = ICS(instances, res.GeneratedAt)
		}
		if err := config.WriteFileAtomic(cfg.ICSOutput, []byte(res.ICS), 0o644); err != nil {
			return Result{}, fmt.Errorf("write ics: %w", err)
		}
	}

	appLog.Info("refresh completed",
		"instances", res.Instances,
		"imported", res.Imported,
		"output", cfg.Output,
		"ics_output", cfg.ICSOutput,
	)
	return res, nil
}
