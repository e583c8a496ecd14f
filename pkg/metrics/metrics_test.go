package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterVec(t *testing.T) {
	cv := NewCounterVec("events_total", "events", "event")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cv.Inc("save")
		}()
	}
	wg.Wait()
	cv.Inc("submit")

	assert.Equal(t, map[string]int64{"save": 50, "submit": 1}, cv.Values())
}

func TestCounterIgnoresNegative(t *testing.T) {
	c := NewCounter("uploads_total", "uploads")
	c.Add(3)
	c.Add(-2)
	assert.Equal(t, int64(3), c.Value())
}

func TestHistogramStats(t *testing.T) {
	h := NewHistogram("d", "durations")
	assert.Equal(t, HistogramStats{}, h.Stats())

	h.Observe(2)
	h.Observe(0.5)
	h.ObserveDuration(1500 * time.Millisecond)

	s := h.Stats()
	assert.Equal(t, int64(3), s.Count)
	assert.InDelta(t, 4.0, s.Sum, 1e-9)
	assert.InDelta(t, 0.5, s.Min, 1e-9)
	assert.InDelta(t, 2.0, s.Max, 1e-9)
	assert.InDelta(t, 4.0/3, s.Avg, 1e-9)
}

func TestHandlerOutput(t *testing.T) {
	m := NewMetrics("quoteform")
	m.ObserveEvent("submit", 10*time.Millisecond, errors.New("invalid"))
	m.ObserveEvent("goto", time.Millisecond, nil)
	m.ObserveEvent("submit", time.Millisecond, nil)
	m.ExportsTotal.Inc("csv")
	m.UploadsTotal.Inc()
	m.SetGauge("sessions_active", func() float64 { return 7 })

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))

	body := w.Body.String()
	for _, want := range []string{
		`quoteform_events_total{event="goto"} 1`,
		`quoteform_events_total{event="submit"} 2`,
		`quoteform_event_errors_total{event="submit"} 1`,
		`quoteform_event_duration_seconds_count 3`,
		`quoteform_exports_total{format="csv"} 1`,
		`quoteform_uploads_total 1`,
		`quoteform_panics_total 0`,
		`quoteform_sessions_active 7`,
	} {
		assert.Contains(t, body, want)
	}
	assert.Less(t, strings.Index(body, `event="goto"`), strings.Index(body, `event="submit"`), "labels sorted")
}
