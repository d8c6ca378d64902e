// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package event

import "math"

// Timer aggregates the durations of repeated invocations of a method. All
// durations are expressed in milliseconds.
type Timer struct {
	Header

	Count    int64
	Duration float64
	Min      float64
	Max      float64

	CPUDuration float64
	CPUMin      float64
	CPUMax      float64

	ExclusiveCount    int64
	ExclusiveDuration float64
	ExclusiveMin      float64
	ExclusiveMax      float64
}

var _ Event = (*Timer)(nil)

// NewTimer returns an empty timer with the given header.
func NewTimer(h Header) *Timer {
	return &Timer{
		Header:       h,
		Min:          math.NaN(),
		Max:          math.NaN(),
		CPUMin:       math.NaN(),
		CPUMax:       math.NaN(),
		ExclusiveMin: math.NaN(),
		ExclusiveMax: math.NaN(),
	}
}

// Kind implements Event.
func (t *Timer) Kind() Kind { return KindTimer }

// Timing returns the timer itself. It lets callers reach the embedded timer of
// HTTP and SQL events.
func (t *Timer) Timing() *Timer { return t }

// AddDuration records the wall duration of one invocation.
func (t *Timer) AddDuration(d float64) {
	t.Count++
	t.Duration += d
	t.Min = minOf(t.Min, d)
	t.Max = maxOf(t.Max, d)
}

// AddCPUDuration records the CPU duration of one invocation.
func (t *Timer) AddCPUDuration(d float64) {
	t.CPUDuration += d
	t.CPUMin = minOf(t.CPUMin, d)
	t.CPUMax = maxOf(t.CPUMax, d)
}

// AddExclusiveDuration records the exclusive duration of one invocation,
// that is its duration minus the duration of its nested invocations.
func (t *Timer) AddExclusiveDuration(d float64) {
	t.ExclusiveCount++
	t.ExclusiveDuration += d
	t.ExclusiveMin = minOf(t.ExclusiveMin, d)
	t.ExclusiveMax = maxOf(t.ExclusiveMax, d)
}

// Average returns the average wall duration, or NaN when nothing was recorded.
func (t *Timer) Average() float64 {
	if t.Count == 0 {
		return math.NaN()
	}
	return t.Duration / float64(t.Count)
}

func minOf(cur, v float64) float64 {
	if math.IsNaN(cur) || v < cur {
		return v
	}
	return cur
}

func maxOf(cur, v float64) float64 {
	if math.IsNaN(cur) || v > cur {
		return v
	}
	return cur
}

// HTTPTimer is a Timer for an HTTP request served by the application.
type HTTPTimer struct {
	Timer

	URI            string
	RequestMethod  string
	ResponseStatus int32
	// TaggingHeader holds the value of the use-case tagging header, if sent.
	TaggingHeader string
}

var _ Event = (*HTTPTimer)(nil)

// Kind implements Event.
func (t *HTTPTimer) Kind() Kind { return KindHTTPTimer }

// SQLStatement is a Timer for a SQL statement executed by the application.
type SQLStatement struct {
	Timer

	SQL         string
	Prepared    bool
	Parameters  []string
	DatabaseURL string
}

var _ Event = (*SQLStatement)(nil)

// Kind implements Event.
func (s *SQLStatement) Kind() Kind { return KindSQLStatement }
