// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package core collects the telemetry events produced by instrumentation and
// sensors, and hands them over to the transport.
//
// Events are submitted with AddData, which never blocks and never fails:
// when the core is not running or when its queue is full, the event is
// dropped. A single goroutine consumes the queue in submission order. Sensors
// are polled periodically by a scheduler which submits their events the same
// way.
//
// The package level functions operate on a process wide service:
//
//	core.Start(core.WithCollectorURL("http://collector:8182"))
//	defer core.Stop()
//	...
//	core.AddData(ev)
package core

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal"
	"github.com/DataDog/dd-apm-core-go/internal/globalconfig"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/internal/ringbuffer"
	"github.com/DataDog/dd-apm-core-go/internal/scheduler"
	"github.com/DataDog/dd-apm-core-go/internal/transport"
	"github.com/DataDog/dd-apm-core-go/sensor"
	"github.com/DataDog/dd-apm-core-go/sensor/cpu"
	runtimesensor "github.com/DataDog/dd-apm-core-go/sensor/runtime"
)

// State is the lifecycle state of a Service. States only move forward.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Sensor type identifiers of the default sensors.
const (
	cpuSensorTypeIdent     = 1
	runtimeSensorTypeIdent = 2
)

// Service is the collection core. Create it with NewService.
type Service struct {
	config *config
	state  atomic.Int32

	buffer    *ringbuffer.RingBuffer
	scheduler *scheduler.Scheduler
	hook      *shutdownHook
	statsd    internal.StatsdClient
	sender    *transport.HTTPSender // nil when a custom transport is used

	published   atomic.Uint64
	dropped     atomic.Uint64
	dropLimiter *rate.Limiter

	// mu is held while starting, and while stopping once the state has
	// moved to StateShuttingDown.
	mu          sync.Mutex
	stop        chan struct{} // closed to stop background goroutines
	stopped     chan struct{} // closed once the state is StateStopped
	stoppedOnce sync.Once
	wg          sync.WaitGroup
}

var _ sensor.EventSink = (*Service)(nil)

// NewService returns a service configured with opts. It does not start it.
func NewService(opts ...StartOption) (*Service, error) {
	c := newConfig(opts...)
	s := &Service{
		config:      c,
		dropLimiter: rate.NewLimiter(rate.Every(dropLogInterval), 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	transportHandler := c.transport
	if transportHandler == nil {
		s.sender = transport.NewHTTPSender(c.collectorURL, c.httpClient, c.platformID)
		transportHandler = s.sender
	}
	handlers := append([]Handler{transportHandler}, c.handlers...)
	rb, err := ringbuffer.New(c.capacity, handlers...)
	if err != nil {
		return nil, err
	}
	s.buffer = rb

	if !c.sensorsSet {
		c.platform, c.jmx = defaultSensors(c.platformID)
	}
	s.scheduler = scheduler.New(scheduler.Config{
		Interval: c.refreshInterval,
		Cadence:  c.cadence,
	}, c.platform, c.jmx, s)

	registrar := c.registrar
	if registrar == nil {
		registrar = transport.NewHTTPRegistrar(c.collectorURL, c.httpClient, c.platformID)
	}
	s.hook = newShutdownHook(s, registrar, c.exitSignals)
	return s, nil
}

func defaultSensors(platformID string) ([]sensor.PlatformSensor, []sensor.JMXSensor) {
	ident := platformIdent(platformID)
	var platform []sensor.PlatformSensor
	if c, err := cpu.New(ident, cpuSensorTypeIdent); err != nil {
		log.Warn("CPU sensor disabled: %v", err)
	} else {
		platform = append(platform, c)
	}
	return platform, []sensor.JMXSensor{runtimesensor.New(ident, runtimeSensorTypeIdent)}
}

// platformIdent derives the numeric identifier carried by sensor events from
// the platform id.
func platformIdent(platformID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(platformID))
	return int64(h.Sum64() >> 1)
}

// State returns the current lifecycle state.
func (s *Service) State() State { return State(s.state.Load()) }

// Published returns the number of events accepted by the queue.
func (s *Service) Published() uint64 { return s.published.Load() }

// Dropped returns the number of events dropped because the queue was full.
func (s *Service) Dropped() uint64 { return s.dropped.Load() }

// Start starts consuming events, schedules the sensors and registers the
// exit hook. It has no effect unless the service was just created.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return
	}
	c := s.config
	s.buffer.Start()
	s.scheduler.Start(c.initialDelay)
	if c.exitHook {
		s.hook.register()
	}
	if c.healthMetrics {
		s.statsd = c.statsd
		if s.statsd == nil {
			client, err := internal.NewStatsdClient(c.dogstatsdAddr, statsTags(c))
			if err != nil {
				log.Warn("Runtime and health metrics disabled: %v", err)
			}
			s.statsd = client
		}
		s.statsd.Incr("datadog.apm_core.started", nil, 1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.reportHealthMetrics(statsInterval)
		}()
	}
	logStartup(s)
}

// AddData submits ev. It never blocks: ev is dropped when the service is not
// running or when the queue is full. The caller must not modify ev afterwards.
func (s *Service) AddData(ev event.Event) {
	if ev == nil || State(s.state.Load()) != StateRunning {
		return
	}
	if err := s.buffer.TryPublish(ev); err != nil {
		n := s.dropped.Add(1)
		// Allow holds the limiter lock briefly and never waits for the rate period.
		if s.dropLimiter.Allow() {
			log.Warn("Event queue is full (capacity %d), dropping data. %d events dropped so far.", s.buffer.Capacity(), n)
		}
		return
	}
	s.published.Add(1)
}

// AddEUMData submits an end user monitoring event. See AddData.
func (s *Service) AddEUMData(ev *event.EUM) {
	if ev == nil {
		return
	}
	s.AddData(ev)
}

// Flush waits until every event submitted before the call has been handed to
// the transport and sent.
func (s *Service) Flush() {
	if s.State() != StateRunning {
		return
	}
	s.buffer.Flush()
}

// Stop stops accepting events, drains the queue and stops the scheduler. Both
// waits are bounded by the shutdown timeout: when it elapses, a warning is
// logged and the shutdown goes on. Calling Stop more than once is safe.
func (s *Service) Stop() {
	if s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
		s.markStopped()
		return
	}
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.config
	drained := true
	if err := s.buffer.Shutdown(c.shutdownTimeout); err != nil {
		log.Warn("Event queue not drained: %v", err)
		drained = false
	}
	if err := s.scheduler.Stop(c.shutdownTimeout); err != nil {
		log.Warn("Sensor scheduler not stopped: %v", err)
	}
	if drained && s.sender != nil {
		s.sender.Stop()
	}
	close(s.stop)
	s.wg.Wait()
	if s.statsd != nil {
		s.statsd.Incr("datadog.apm_core.stopped", nil, 1)
		s.statsd.Flush()
		s.statsd.Close()
	}
	s.hook.deregister()
	log.Flush()
	s.state.Store(int32(StateStopped))
	s.markStopped()
}

func (s *Service) markStopped() {
	s.stoppedOnce.Do(func() { close(s.stopped) })
}

// Stopped returns a channel closed once the service reached StateStopped,
// whichever Stop call got it there.
func (s *Service) Stopped() <-chan struct{} { return s.stopped }

// Shutdown runs the process exit path: it stops the service and then
// unregisters the agent from the collector. It is what the exit hook does on
// termination signals, and can be called by applications handling those
// signals themselves.
func (s *Service) Shutdown() {
	s.hook.run()
}

func statsTags(c *config) []string {
	tags := []string{
		"platform_id:" + c.platformID,
		"runtime-id:" + globalconfig.RuntimeID(),
	}
	if svc := globalconfig.ServiceName(); svc != "" {
		tags = append(tags, "service:"+svc)
	}
	return tags
}
