package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventcsv/internal/config"
	"eventcsv/internal/export"
	"eventcsv/internal/gmt"
	"eventcsv/internal/input"
	appLog "eventcsv/internal/log"
	"eventcsv/internal/metrics"
	"eventcsv/internal/model"
	"eventcsv/internal/report"
	"eventcsv/internal/tz"
)

const maxBodyBytes = 1 << 20

// LatestSource exposes the result of the most recent scheduled refresh.
type LatestSource interface {
	Latest() (export.Result, bool)
}

// Server provides the HTTP API for previewing and exporting schedules.
type Server struct {
	cfg     *config.Config
	latest  LatestSource
	metrics *metrics.Metrics
	mux     *http.ServeMux
	routes  map[string]bool
	now     func() time.Time
}

// NewServer constructs a new Server. latest may be nil when no scheduled
// refresh runs; m may be nil to disable /metrics and request metrics.
func NewServer(cfg *config.Config, latest LatestSource, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		latest:  latest,
		metrics: m,
		mux:     http.NewServeMux(),
		routes:  make(map[string]bool),
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.metrics != nil {
		h = s.metrics.Middleware(h, s.routes)
	}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth rather than locking everyone out.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="eventcsv", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.handle("/health", http.HandlerFunc(s.handleHealth))
	s.handle("/api/timezones", http.HandlerFunc(s.handleTimezones))
	s.handle("/api/preview", http.HandlerFunc(s.handlePreview))
	s.handle("/api/export.csv", http.HandlerFunc(s.handleExportCSV))
	s.handle("/api/export.ics", http.HandlerFunc(s.handleExportICS))
	s.handle("/api/export.pdf", http.HandlerFunc(s.handleExportPDF))
	s.handle("/api/latest.csv", http.HandlerFunc(s.handleLatestCSV))
	if s.metrics != nil {
		s.handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handle(path string, h http.Handler) {
	s.routes[path] = true
	s.mux.Handle(path, h)
}

func (s *Server) countExport(format string) {
	if s.metrics != nil {
		s.metrics.CountExport(format)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type timezonesResponse struct {
	Default   string      `json:"default"`
	Timezones []tz.Option `json:"timezones"`
}

func (s *Server) handleTimezones(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, timezonesResponse{
		Default:   s.cfg.DefaultTimezone,
		Timezones: tz.Options(),
	})
}

// instanceDTO is an EventInstance with the derived columns a UI shows.
type instanceDTO struct {
	model.EventInstance
	Weekday       string `json:"weekday"`
	TimezoneLabel string `json:"timezoneLabel"`
	GMTStart      string `json:"gmtStart"`
	GMTEnd        string `json:"gmtEnd"`
}

type previewResponse struct {
	Count     int           `json:"count"`
	Instances []instanceDTO `json:"instances"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	instances, ok := s.instancesFromRequest(w, r)
	if !ok {
		return
	}
	resp := previewResponse{
		Count:     len(instances),
		Instances: make([]instanceDTO, 0, len(instances)),
	}
	for _, inst := range instances {
		resp.Instances = append(resp.Instances, instanceDTO{
			EventInstance: inst,
			Weekday:       inst.Weekday().String(),
			TimezoneLabel: tz.ResolveLabel(inst.Timezone),
			GMTStart:      gmt.ToUTC(inst.Date, inst.StartTime, inst.Timezone),
			GMTEnd:        gmt.ToUTC(inst.Date, inst.EndTime, inst.Timezone),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	instances, ok := s.instancesFromRequest(w, r)
	if !ok {
		return
	}
	s.countExport("csv")
	writeAttachment(w, "text/csv; charset=utf-8", "events.csv", []byte(export.CSV(instances)))
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	series := false
	if v := r.URL.Query().Get("series"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "series must be true or false")
			return
		}
		series = b
	}
	if !series {
		instances, ok := s.instancesFromRequest(w, r)
		if !ok {
			return
		}
		s.countExport("ics")
		writeAttachment(w, "text/calendar; charset=utf-8", "events.ics", []byte(export.ICS(instances, s.now())))
		return
	}

	doc, opts, ok := s.documentFromRequest(w, r)
	if !ok {
		return
	}
	cal, err := export.Series(doc, opts, s.now())
	if err != nil {
		writeExportError(w, err)
		return
	}
	s.countExport("ics")
	writeAttachment(w, "text/calendar; charset=utf-8", "events.ics", []byte(cal))
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	instances, ok := s.instancesFromRequest(w, r)
	if !ok {
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Event schedule"
	}
	pdf, err := report.PDF(instances, report.Options{Title: title, Generated: s.now()})
	if err != nil {
		appLog.Error("render pdf failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	s.countExport("pdf")
	writeAttachment(w, "application/pdf", "events.pdf", pdf)
}

func (s *Server) handleLatestCSV(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if s.latest == nil {
		writeError(w, http.StatusNotFound, "scheduled refresh is not running")
		return
	}
	res, ok := s.latest.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no export has been generated yet")
		return
	}
	w.Header().Set("Last-Modified", res.GeneratedAt.UTC().Format(http.TimeFormat))
	writeAttachment(w, "text/csv; charset=utf-8", "events.csv", []byte(res.CSV))
}

// instancesFromRequest decodes a schedule document from a POST body and
// expands it. It writes the error response itself and reports false on
// failure.
func (s *Server) instancesFromRequest(w http.ResponseWriter, r *http.Request) ([]model.EventInstance, bool) {
	doc, opts, ok := s.documentFromRequest(w, r)
	if !ok {
		return nil, false
	}
	instances, err := export.Instances(doc, opts)
	if err != nil {
		writeExportError(w, err)
		return nil, false
	}

	appLog.Info("api export request",
		"path", r.URL.Path,
		"patterns", len(doc.Patterns),
		"events", len(doc.Events),
		"instances", len(instances),
		"strict", opts.Strict,
	)
	return instances, true
}

// documentFromRequest decodes the POSTed schedule document the same way
// schedule files are read. ?strict=true|false overrides the configured
// strictness.
func (s *Server) documentFromRequest(w http.ResponseWriter, r *http.Request) (input.Document, export.Options, bool) {
	if !allowMethod(w, r, http.MethodPost) {
		return input.Document{}, export.Options{}, false
	}

	opts := export.Options{
		Strict:          s.cfg.Strict,
		DefaultTimezone: s.cfg.DefaultTimezone,
		DefaultWeeks:    s.cfg.DefaultWeeks,
	}
	if v := r.URL.Query().Get("strict"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "strict must be true or false")
			return input.Document{}, export.Options{}, false
		}
		opts.Strict = b
	}

	doc, err := input.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule document: "+err.Error())
		return input.Document{}, export.Options{}, false
	}
	return doc, opts, true
}

func writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, export.ErrInvalidDocument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("expand schedule failed", err)
	writeError(w, http.StatusInternalServerError, "failed to expand schedule")
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
