package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRefresh(t *testing.T) {
	m := New()
	at := time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

	m.ObserveRefresh(time.Second, 7, at, nil)
	m.ObserveRefresh(time.Second, 0, time.Time{}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues("error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.instances))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastRefresh))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte("OK"))
			return
		}
		http.NotFound(w, r)
	})
	h := m.Middleware(next, map[string]bool{"/health": true})

	for _, p := range []string{"/health", "/health", "/secret/token"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	m.CountExport("csv")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "other", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `eventcsv_exports_total{format="csv"} 1`))
	assert.Contains(t, text, "go_goroutines")
}
