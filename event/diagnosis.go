// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package event

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotDiagnosable is returned when an event carries no timing information
// usable for diagnosis.
var ErrNotDiagnosable = errors.New("event carries no timing information")

// MetaDataType names the metadata attached to a DiagnosisTimer.
type MetaDataType string

const (
	MetaDataSQL MetaDataType = "SQL"
	MetaDataURI MetaDataType = "URI"
)

// DiagnosisTimer is the timing summary of a timer or invocation sequence
// event, as used by problem diagnosis.
type DiagnosisTimer struct {
	CPUDuration       float64                 `json:"cpuDuration"`
	Duration          float64                 `json:"duration"`
	ExclusiveDuration float64                 `json:"exclusiveDuration"`
	MetaData          map[MetaDataType]string `json:"metaData"`
}

// timed is implemented by every event embedding a Timer.
type timed interface {
	Timing() *Timer
}

// NewDiagnosisTimer summarizes ev. Timer events (including HTTP and SQL
// timers) and invocation sequences are supported.
func NewDiagnosisTimer(ev Event) (*DiagnosisTimer, error) {
	if s, ok := ev.(*InvocationSequence); ok {
		d := s.Duration()
		return &DiagnosisTimer{
			Duration:          d,
			CPUDuration:       math.NaN(),
			ExclusiveDuration: d - s.NestedDuration(),
			MetaData:          map[MetaDataType]string{},
		}, nil
	}
	t, ok := ev.(timed)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDiagnosable, ev.Kind())
	}
	timer := t.Timing()
	md := map[MetaDataType]string{}
	switch e := ev.(type) {
	case *SQLStatement:
		md[MetaDataSQL] = e.SQL
	case *HTTPTimer:
		md[MetaDataURI] = e.URI
	}
	return &DiagnosisTimer{
		Duration:          timer.Duration,
		CPUDuration:       timer.CPUDuration,
		ExclusiveDuration: timer.ExclusiveDuration,
		MetaData:          md,
	}, nil
}

// AggregatedDiagnosisTimer sums several DiagnosisTimers and counts the
// aggregated exclusive invocations.
type AggregatedDiagnosisTimer struct {
	DiagnosisTimer
	ExclusiveCount float64 `json:"exclusiveCount"`
}

// NewAggregatedDiagnosisTimer starts an aggregation with ev.
func NewAggregatedDiagnosisTimer(ev Event) (*AggregatedDiagnosisTimer, error) {
	d, err := NewDiagnosisTimer(ev)
	if err != nil {
		return nil, err
	}
	a := &AggregatedDiagnosisTimer{DiagnosisTimer: *d}
	if _, ok := ev.(*InvocationSequence); ok {
		a.ExclusiveCount = 1
	} else {
		a.ExclusiveCount = float64(ev.(timed).Timing().ExclusiveCount)
	}
	return a, nil
}

// Aggregate adds the timing of ev to a.
func (a *AggregatedDiagnosisTimer) Aggregate(ev Event) error {
	if s, ok := ev.(*InvocationSequence); ok {
		d := s.Duration()
		a.Duration += d
		a.ExclusiveDuration += d - s.NestedDuration()
		a.ExclusiveCount++
		return nil
	}
	t, ok := ev.(timed)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotDiagnosable, ev.Kind())
	}
	timer := t.Timing()
	a.Duration += timer.Duration
	a.CPUDuration += timer.CPUDuration
	a.ExclusiveDuration += timer.ExclusiveDuration
	a.ExclusiveCount += float64(timer.ExclusiveCount)
	return nil
}
