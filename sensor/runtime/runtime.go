// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package runtime provides a sensor submitting Go runtime gauges at every
// scheduler iteration.
package runtime

import (
	"math"
	"runtime"
	"time"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

type point struct {
	metric string
	value  float64
}

// Sensor reads runtime.MemStats and the goroutine count on every Update.
type Sensor struct {
	platformIdent   int64
	sensorTypeIdent int64

	stats       runtime.MemStats
	collectedAt time.Time
	compute     func(prev, curr *runtime.MemStats, period time.Duration) []point
	now         func() time.Time
}

var _ sensor.JMXSensor = (*Sensor)(nil)

// New returns a runtime sensor.
func New(platformIdent, sensorTypeIdent int64) *Sensor {
	return &Sensor{
		platformIdent:   platformIdent,
		sensorTypeIdent: sensorTypeIdent,
		compute:         computeMetrics,
		now:             time.Now,
	}
}

// Name implements sensor.Named.
func (s *Sensor) Name() string { return "runtime" }

// Update implements sensor.JMXSensor. Rates are only reported once a
// previous sample exists.
func (s *Sensor) Update(sink sensor.EventSink) {
	now := s.now()
	prev := s.stats
	prevAt := s.collectedAt
	runtime.ReadMemStats(&s.stats)
	s.collectedAt = now

	points := []point{
		{metric: "runtime.go.num_goroutine", value: float64(runtime.NumGoroutine())},
		{metric: "runtime.go.mem_stats.heap_alloc", value: float64(s.stats.HeapAlloc)},
		{metric: "runtime.go.mem_stats.heap_objects", value: float64(s.stats.HeapObjects)},
		{metric: "runtime.go.mem_stats.num_gc", value: float64(s.stats.NumGC)},
	}
	if period := now.Sub(prevAt); !prevAt.IsZero() && period > 0 {
		points = append(points, s.compute(&prev, &s.stats, period)...)
	}
	for _, p := range removeInvalid(points) {
		sink.AddData(&event.RuntimeMetric{
			Header: event.Header{
				PlatformIdent:   s.platformIdent,
				SensorTypeIdent: s.sensorTypeIdent,
				Timestamp:       now,
			},
			Name:  p.metric,
			Value: p.value,
		})
	}
}

func computeMetrics(prev, curr *runtime.MemStats, period time.Duration) []point {
	return []point{
		{metric: "runtime.go.alloc_bytes_per_sec", value: rate(curr.TotalAlloc, prev.TotalAlloc, period)},
		{metric: "runtime.go.allocs_per_sec", value: rate(curr.Mallocs, prev.Mallocs, period)},
		{metric: "runtime.go.frees_per_sec", value: rate(curr.Frees, prev.Frees, period)},
	}
}

func rate(curr, prev uint64, period time.Duration) float64 {
	return float64(int64(curr)-int64(prev)) / period.Seconds()
}

// removeInvalid drops NaN and infinite values.
func removeInvalid(points []point) (result []point) {
	for _, p := range points {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			continue
		}
		result = append(result, p)
	}
	return result
}
