package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eventcsv/internal/config"
	"eventcsv/internal/csvexport"
	"eventcsv/internal/export"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/metrics"
	"eventcsv/internal/model"
	"eventcsv/internal/report"
	"eventcsv/internal/web"
)

const version = "0.3.0"

// flagConfig holds CLI flag values; non-empty values override the config file.
type flagConfig struct {
	configPath string
	input      string
	out        string
	icsOut     string
	icsSeries  bool
	pdfOut     string
	imports    multiFlag
	strict     bool
	listen     string
	serve      bool
	once       bool
	logLevel   string
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	flags := parseFlags(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, flags, os.Stdout)
	appLog.Sync()
	if err != nil {
		appLog.Error("eventcsv failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags flagConfig, stdout io.Writer) error {
	conf, err := loadConfig(flags)
	if err != nil {
		return err
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("eventcsv starting", "version", version)
	appLog.Debug("effective config",
		"listen", conf.Listen,
		"default_timezone", conf.DefaultTimezone,
		"default_weeks", conf.DefaultWeeks,
		"strict", conf.Strict,
		"input", conf.Input,
		"output", conf.Output,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
	)

	switch {
	case flags.serve:
		return serve(ctx, conf)
	default:
		// -once is the scheduled refresh run a single time, which is what
		// a plain export does as well.
		return exportOnce(ctx, conf, flags.pdfOut, stdout)
	}
}

// loadConfig reads the config file when one is named, then applies
// EVENTCSV_* environment overrides and finally flags.
func loadConfig(flags flagConfig) (*config.Config, error) {
	conf := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
		}
		conf = loaded
	}
	config.ApplyEnv(conf)

	if flags.input != "" {
		conf.Input = flags.input
	}
	if flags.out != "" {
		conf.Output = flags.out
	}
	if flags.icsOut != "" {
		conf.ICSOutput = flags.icsOut
	}
	if flags.icsSeries {
		conf.ICSSeries = true
	}
	if flags.strict {
		conf.Strict = true
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	for i, src := range flags.imports {
		conf.ICS = append(conf.ICS, config.ICSConfig{ID: fmt.Sprintf("import-%d", i+1), URL: src})
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// exportOnce runs one refresh. The CSV goes to conf.Output, or to stdout
// when the output is "-".
func exportOnce(ctx context.Context, conf *config.Config, pdfOut string, stdout io.Writer) error {
	res, err := export.Refresh(ctx, conf, nil)
	if err != nil {
		return err
	}
	if conf.Output == export.StdoutPath {
		if err := csvexport.Write(stdout, res.Expanded); err != nil {
			return err
		}
	}
	return writePDF(pdfOut, res.Expanded, res.GeneratedAt)
}

// writePDF renders the instances as a printable report. An empty path is a
// no-op.
func writePDF(path string, instances []model.EventInstance, generated time.Time) error {
	if path == "" {
		return nil
	}
	pdf, err := report.PDF(instances, report.Options{Title: "Event schedule", Generated: generated})
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := config.WriteFileAtomic(path, pdf, 0o644); err != nil {
		return err
	}
	appLog.Info("wrote pdf report", "path", path, "instances", len(instances))
	return nil
}

// serve runs the HTTP API and, when an input or ICS source is configured,
// the scheduled refresh, until ctx is canceled.
func serve(ctx context.Context, conf *config.Config) error {
	m := metrics.New()

	var latest web.LatestSource
	if conf.Input != "" || len(conf.ICS) > 0 {
		sched := export.NewScheduler(conf, nil).WithObserver(m)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
		latest = sched
	}

	srv := web.NewServer(conf, latest, m)
	err := srv.ListenAndServe(ctx)
	appLog.Info("eventcsv exiting")
	return err
}

func parseFlags(args []string) flagConfig {
	var cfg flagConfig

	fs := flag.NewFlagSet("eventcsv", flag.ExitOnError)
	fs.StringVar(&cfg.configPath, "config", "", "Path to config file (created with defaults if missing)")
	fs.StringVar(&cfg.input, "input", "", "Schedule document (YAML or JSON)")
	fs.StringVar(&cfg.out, "out", "", `CSV output path ("-" for stdout)`)
	fs.StringVar(&cfg.icsOut, "ics-out", "", "Optional iCalendar output path")
	fs.BoolVar(&cfg.icsSeries, "ics-series", false, "Write one recurring iCalendar event per pattern instead of one per date")
	fs.StringVar(&cfg.pdfOut, "pdf-out", "", "Optional PDF report output path")
	fs.Var(&cfg.imports, "import", "Extra .ics file or URL to import (repeatable)")
	fs.BoolVar(&cfg.strict, "strict", false, "Reject incomplete records and unsupported timezones")
	fs.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.BoolVar(&cfg.serve, "serve", false, "Serve the HTTP API and run the scheduled refresh")
	fs.BoolVar(&cfg.once, "once", false, "Run one scheduled refresh and exit")
	fs.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	_ = fs.Parse(args)
	return cfg
}
