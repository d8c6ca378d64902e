// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package prometheus provides an event handler exposing CPU and HTTP events
// as Prometheus metrics.
package prometheus

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DataDog/dd-apm-core-go/event"
)

// Handler updates Prometheus metrics from consumed events. It is meant to be
// registered on the core with core.WithHandler.
type Handler struct {
	registry *prometheus.Registry
	metrics  http.Handler

	cpuUsage     *prometheus.GaugeVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewHandler returns a handler registering its metrics on registry. A nil
// registry selects a new one.
func NewHandler(registry *prometheus.Registry) (*Handler, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	h := &Handler{
		registry: registry,
		cpuUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cpu_usage",
			Help: "CPU usage in %",
		}, []string{"agent"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_count",
			Help: "Total number of HTTP requests",
		}, []string{"agent", "path"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_milliseconds",
			Help:    "HTTP duration in milliseconds",
			Buckets: []float64{500, 1000, 3000},
		}, []string{"agent", "useCase"}),
	}
	for _, c := range []prometheus.Collector{h.cpuUsage, h.httpRequests, h.httpDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	h.metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return h, nil
}

// OnEvent updates the metrics matching ev. Other events are ignored.
func (h *Handler) OnEvent(ev event.Event, _ int64, _ bool) {
	switch e := ev.(type) {
	case *event.CPUInformation:
		h.cpuUsage.WithLabelValues(agent(&e.Header)).Set(e.AverageCPUUsage())
	case *event.HTTPTimer:
		a := agent(&e.Header)
		h.httpRequests.WithLabelValues(a, e.URI).Inc()
		h.httpDuration.WithLabelValues(a, e.TaggingHeader).Observe(e.Duration)
	}
}

// ServeHTTP serves the metrics in the Prometheus exposition format.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

func agent(h *event.Header) string {
	return strconv.FormatInt(h.PlatformIdent, 10)
}
