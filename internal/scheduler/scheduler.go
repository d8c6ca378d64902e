// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package scheduler polls the platform and JMX sensors at a fixed delay.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

// ErrShutdownTimeout is returned by Stop when the scheduler goroutine did not
// exit in time.
var ErrShutdownTimeout = errors.New("sensor scheduler shutdown timed out")

const (
	defaultInterval = time.Second
	defaultCadence  = 5
)

// Config holds the scheduler settings.
type Config struct {
	// Interval is the delay between the end of a run and the start of the
	// next one.
	Interval time.Duration
	// Cadence is the number of iterations of a platform sensor cycle.
	Cadence int
}

// Scheduler runs the sensors from a single goroutine. A run never overlaps
// with another one, so the sensor lists need no locking.
type Scheduler struct {
	cfg      Config
	platform []sensor.PlatformSensor // owned by the scheduler goroutine
	jmx      []sensor.JMXSensor
	sink     sensor.EventSink

	count int // iteration within the current cycle, 0 before the first

	active atomic.Int64 // number of platform sensors not removed
	runs   atomic.Int64 // completed runs

	stop      chan struct{}
	done      chan struct{}
	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// New returns a scheduler submitting sensor events to sink.
func New(cfg Config, platform []sensor.PlatformSensor, jmx []sensor.JMXSensor, sink sensor.EventSink) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Cadence < 1 {
		cfg.Cadence = defaultCadence
	}
	s := &Scheduler{
		cfg:      cfg,
		platform: append([]sensor.PlatformSensor(nil), platform...),
		jmx:      append([]sensor.JMXSensor(nil), jmx...),
		sink:     sink,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.active.Store(int64(len(platform)))
	return s
}

// Start schedules the first run after initialDelay. Calling Start more than
// once has no effect.
func (s *Scheduler) Start(initialDelay time.Duration) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.loop(initialDelay)
	})
}

// Stop prevents any further run and waits at most timeout for a run in
// progress to complete. Calling Stop more than once is safe.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started.Load() {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, timeout)
	}
}

// Active returns the number of platform sensors still polled.
func (s *Scheduler) Active() int { return int(s.active.Load()) }

// Runs returns the number of completed runs.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

func (s *Scheduler) loop(initialDelay time.Duration) {
	defer close(s.done)
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
		case <-s.stop:
			return
		}
		select {
		case <-s.stop:
			return
		default:
		}
		s.run()
		timer.Reset(s.cfg.Interval)
	}
}

// run performs one iteration: reset at the first iteration of a cycle,
// gather at every iteration, get at the last one. JMX sensors are updated at
// every iteration.
func (s *Scheduler) run() {
	defer s.runs.Add(1)
	defer func() {
		if err := recover(); err != nil {
			log.Error("sensor scheduler: run panicked: %v", err)
		}
	}()
	if len(s.platform) > 0 {
		s.count++
		if s.count == 1 {
			for _, p := range s.platform {
				if err := safely(p.Reset); err != nil {
					log.Error("sensor scheduler: resetting %s: %v", sensor.Name(p), err)
				}
			}
		}
		s.gather()
		if s.count >= s.cfg.Cadence {
			for _, p := range s.platform {
				var ev event.Event
				if err := safely(func() { ev = p.Get() }); err != nil {
					log.Error("sensor scheduler: getting data from %s: %v", sensor.Name(p), err)
					continue
				}
				if ev != nil {
					s.sink.AddData(ev)
				}
			}
			s.count = 0
		}
	}
	for _, j := range s.jmx {
		if err := safely(func() { j.Update(s.sink) }); err != nil {
			log.Error("sensor scheduler: updating %s: %v", sensor.Name(j), err)
		}
	}
}

// gather calls Gather on every platform sensor and removes the failing ones.
func (s *Scheduler) gather() {
	kept := s.platform[:0]
	for _, p := range s.platform {
		var err error
		if perr := safely(func() { err = p.Gather() }); perr != nil {
			err = perr
		}
		if err != nil {
			log.Warn("Platform sensor %s cannot update data and is removed, no metrics will be provided: %v", sensor.Name(p), err)
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.platform); i++ {
		s.platform[i] = nil
	}
	s.platform = kept
	s.active.Store(int64(len(kept)))
}

// safely calls fn and turns a panic into an error wrapping
// sensor.ErrSensorFailure.
func safely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", sensor.ErrSensorFailure, r)
		}
	}()
	fn()
	return nil
}
