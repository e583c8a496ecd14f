// Package metrics provides process metrics for the quote form in the
// Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds the form server metrics.
type Metrics struct {
	namespace string

	EventsTotal   *CounterVec
	EventErrors   *CounterVec
	EventDuration *Histogram
	ExportsTotal  *CounterVec
	UploadsTotal  *Counter
	PanicsTotal   *Counter

	mu     sync.RWMutex
	gauges map[string]GaugeFunc
}

// GaugeFunc reports a gauge value on every scrape.
type GaugeFunc func() float64

// NewMetrics creates a metrics set whose names are prefixed with namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		namespace: namespace,

		EventsTotal:   NewCounterVec("events_total", "Form events dispatched", "event"),
		EventErrors:   NewCounterVec("event_errors_total", "Form events that returned an error", "event"),
		EventDuration: NewHistogram("event_duration_seconds", "Form event handling time"),
		ExportsTotal:  NewCounterVec("exports_total", "Answer exports written", "format"),
		UploadsTotal:  NewCounter("uploads_total", "Site files accepted"),
		PanicsTotal:   NewCounter("panics_total", "Handler panics recovered"),

		gauges: make(map[string]GaugeFunc),
	}
}

// ObserveEvent records one dispatched event.
func (m *Metrics) ObserveEvent(event string, d time.Duration, err error) {
	m.EventsTotal.Inc(event)
	m.EventDuration.ObserveDuration(d)
	if err != nil {
		m.EventErrors.Inc(event)
	}
}

// SetGauge registers fn as the gauge name, replacing any earlier one.
func (m *Metrics) SetGauge(name string, fn GaugeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = fn
}

// Handler returns an HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.WriteTo(w)
	})
}

// WriteTo writes every metric in the Prometheus text format. Series are
// sorted so scrapes are stable.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	m.writeVec(cw, m.EventsTotal)
	m.writeVec(cw, m.EventErrors)
	m.writeHistogram(cw, m.EventDuration)
	m.writeVec(cw, m.ExportsTotal)
	m.writeCounter(cw, m.UploadsTotal)
	m.writeCounter(cw, m.PanicsTotal)

	m.mu.RLock()
	names := make([]string, 0, len(m.gauges))
	for name := range m.gauges {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(cw, "# TYPE %s_%s gauge\n", m.namespace, name)
		fmt.Fprintf(cw, "%s_%s %s\n", m.namespace, name, formatFloat(m.gauges[name]()))
	}
	m.mu.RUnlock()

	return cw.n, cw.err
}

func (m *Metrics) writeCounter(w io.Writer, c *Counter) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", m.namespace, c.name, c.help)
	fmt.Fprintf(w, "# TYPE %s_%s counter\n", m.namespace, c.name)
	fmt.Fprintf(w, "%s_%s %d\n", m.namespace, c.name, c.Value())
}

func (m *Metrics) writeVec(w io.Writer, cv *CounterVec) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", m.namespace, cv.name, cv.help)
	fmt.Fprintf(w, "# TYPE %s_%s counter\n", m.namespace, cv.name)
	values := cv.Values()
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		fmt.Fprintf(w, "%s_%s{%s=%q} %d\n", m.namespace, cv.name, cv.label, label, values[label])
	}
}

func (m *Metrics) writeHistogram(w io.Writer, h *Histogram) {
	stats := h.Stats()
	fmt.Fprintf(w, "# HELP %s_%s %s\n", m.namespace, h.name, h.help)
	fmt.Fprintf(w, "# TYPE %s_%s summary\n", m.namespace, h.name)
	fmt.Fprintf(w, "%s_%s_sum %s\n", m.namespace, h.name, formatFloat(stats.Sum))
	fmt.Fprintf(w, "%s_%s_count %d\n", m.namespace, h.name, stats.Count)
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds delta to the counter. Negative deltas are ignored.
func (c *Counter) Add(delta int64) {
	if delta > 0 {
		c.value.Add(delta)
	}
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// CounterVec is a counter partitioned by one label.
type CounterVec struct {
	name   string
	help   string
	label  string
	mu     sync.RWMutex
	values map[string]*Counter
}

// NewCounterVec creates a counter vector over label.
func NewCounterVec(name, help, label string) *CounterVec {
	return &CounterVec{
		name:   name,
		help:   help,
		label:  label,
		values: make(map[string]*Counter),
	}
}

// WithLabel returns the counter for the label value.
func (cv *CounterVec) WithLabel(value string) *Counter {
	cv.mu.RLock()
	c, ok := cv.values[value]
	cv.mu.RUnlock()
	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if c, ok := cv.values[value]; ok {
		return c
	}
	c = NewCounter(cv.name, cv.help)
	cv.values[value] = c
	return c
}

// Inc increments the counter for the label value.
func (cv *CounterVec) Inc(value string) {
	cv.WithLabel(value).Inc()
}

// Values returns all counter values by label value.
func (cv *CounterVec) Values() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	result := make(map[string]int64, len(cv.values))
	for label, c := range cv.values {
		result[label] = c.Value()
	}
	return result
}

// Histogram tracks the count and sum of observations.
type Histogram struct {
	name string
	help string

	mu    sync.Mutex
	sum   float64
	count int64
	min   float64
	max   float64
}

// NewHistogram creates a new histogram.
func NewHistogram(name, help string) *Histogram {
	return &Histogram{name: name, help: help}
}

// Observe records a value.
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || value < h.min {
		h.min = value
	}
	if h.count == 0 || value > h.max {
		h.max = value
	}
	h.sum += value
	h.count++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Stats returns histogram statistics.
func (h *Histogram) Stats() HistogramStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := HistogramStats{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		stats.Avg = h.sum / float64(h.count)
	}
	return stats
}

// HistogramStats contains histogram statistics.
type HistogramStats struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Avg   float64
}
