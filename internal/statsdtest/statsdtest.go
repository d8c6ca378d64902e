// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package statsdtest provides a recording statsd client for tests.
package statsdtest

import (
	"sync"

	"github.com/DataDog/dd-apm-core-go/internal"
)

var _ internal.StatsdClient = &TestStatsdClient{}

// TestStatsdCall is a single recorded call made on a TestStatsdClient.
type TestStatsdCall struct {
	name     string
	floatVal float64
	intVal   int64
}

// Name returns the metric name of the call.
func (t TestStatsdCall) Name() string { return t.name }

// IntVal returns the value of a count call.
func (t TestStatsdCall) IntVal() int64 { return t.intVal }

// FloatVal returns the value of a gauge call.
func (t TestStatsdCall) FloatVal() float64 { return t.floatVal }

// TestStatsdClient records every call it receives.
type TestStatsdClient struct {
	mu          sync.RWMutex
	gaugeCalls  []TestStatsdCall
	incrCalls   []TestStatsdCall
	countCalls  []TestStatsdCall
	counts      map[string]int64
	closed      bool
	flushed     int
}

// Gauge implements internal.StatsdClient.
func (tg *TestStatsdClient) Gauge(name string, value float64, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.gaugeCalls = append(tg.gaugeCalls, newCall(name, func(c *TestStatsdCall) { c.floatVal = value }))
	return nil
}

// Incr implements internal.StatsdClient.
func (tg *TestStatsdClient) Incr(name string, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.addCount(name, 1)
	tg.incrCalls = append(tg.incrCalls, newCall(name, nil))
	return nil
}

// Count implements internal.StatsdClient.
func (tg *TestStatsdClient) Count(name string, value int64, tags []string, rate float64) error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.addCount(name, value)
	tg.countCalls = append(tg.countCalls, newCall(name, func(c *TestStatsdCall) { c.intVal = value }))
	return nil
}

// Flush implements internal.StatsdClient.
func (tg *TestStatsdClient) Flush() error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.flushed++
	return nil
}

// Close implements internal.StatsdClient.
func (tg *TestStatsdClient) Close() error {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.closed = true
	return nil
}

func (tg *TestStatsdClient) addCount(name string, value int64) {
	if tg.counts == nil {
		tg.counts = make(map[string]int64)
	}
	tg.counts[name] += value
}

func newCall(name string, set func(*TestStatsdCall)) TestStatsdCall {
	c := TestStatsdCall{name: name}
	if set != nil {
		set(&c)
	}
	return c
}

// Closed reports whether Close was called.
func (tg *TestStatsdClient) Closed() bool {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return tg.closed
}

// Counts returns the accumulated value of every Incr and Count call, by name.
func (tg *TestStatsdClient) Counts() map[string]int64 {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	c := make(map[string]int64, len(tg.counts))
	for k, v := range tg.counts {
		c[k] = v
	}
	return c
}

// GaugeCalls returns the recorded gauge calls.
func (tg *TestStatsdClient) GaugeCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.gaugeCalls...)
}

// IncrCalls returns the recorded incr calls.
func (tg *TestStatsdClient) IncrCalls() []TestStatsdCall {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return append([]TestStatsdCall(nil), tg.incrCalls...)
}

// CallNames returns the names of every recorded call.
func (tg *TestStatsdClient) CallNames() []string {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	var n []string
	for _, calls := range [][]TestStatsdCall{tg.gaugeCalls, tg.incrCalls, tg.countCalls} {
		for _, c := range calls {
			n = append(n, c.name)
		}
	}
	return n
}

// GetCallsByName returns the recorded calls with the provided name.
func (tg *TestStatsdClient) GetCallsByName(name string) (calls []TestStatsdCall) {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	for _, cs := range [][]TestStatsdCall{tg.gaugeCalls, tg.incrCalls, tg.countCalls} {
		for _, c := range cs {
			if c.name == name {
				calls = append(calls, c)
			}
		}
	}
	return calls
}
