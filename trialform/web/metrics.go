package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service's Prometheus metrics on its own registry.
//
// Metrics exposed:
//   - trialform_submissions_total{outcome}: submissions by outcome (accepted, rejected, dropped)
//   - trialform_field_errors_total{field}: validation errors by field
//   - trialform_widgets_active: widgets currently held for sessions
//   - trialform_http_request_duration_seconds{route,method,status}: request latency
type Metrics struct {
	Registry *prometheus.Registry

	submissions     *prometheus.CounterVec
	fieldErrors     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeDropped  = "dropped"
)

// NewMetrics registers the collectors on a new registry.  activeWidgets is
// sampled on every scrape.
func NewMetrics(activeWidgets func() int) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		Registry: reg,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trialform",
			Name:      "submissions_total",
			Help:      "Form submissions by outcome.",
		}, []string{"outcome"}),
		fieldErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trialform",
			Name:      "field_errors_total",
			Help:      "Validation errors reported per field.",
		}, []string{"field"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trialform",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	if activeWidgets != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "trialform",
			Name:      "widgets_active",
			Help:      "Widgets currently held for sessions.",
		}, func() float64 {
			return float64(activeWidgets())
		})
	}
	return m
}

// ObserveSubmission counts a submission and the fields that failed.
func (m *Metrics) ObserveSubmission(outcome string, failed []string) {
	m.submissions.WithLabelValues(outcome).Inc()
	for _, f := range failed {
		m.fieldErrors.WithLabelValues(f).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records the duration of each request labelled with its route
// template.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status())).Observe(time.Since(start).Seconds())
	})
}
