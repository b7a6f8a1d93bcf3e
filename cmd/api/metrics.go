package main

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	written  prometheus.Counter
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and response status.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lessons",
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lessons",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lessons",
			Name:      "http_response_bytes_total",
			Help:      "Bytes written in HTTP response bodies.",
		}),
	}

	registry.MustRegister(m.requests, m.duration, m.inFlight, m.written)

	return m
}

func (s *server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})
}

func (s *server) recordMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()

		m := httpsnoop.CaptureMetrics(next, w, r)

		s.metrics.requests.WithLabelValues(r.Method, strconv.Itoa(m.Code)).Inc()
		s.metrics.duration.WithLabelValues(r.Method).Observe(m.Duration.Seconds())
		s.metrics.written.Add(float64(m.Written))
	}
}
