// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// probe counts its calls and records the iteration of each of them.
type probe struct {
	mu        sync.Mutex
	resets    []int
	gathers   []int
	gets      []int
	iteration int
	failAt    int // gather fails at this iteration when non-zero
	panicAt   int // gather panics at this iteration when non-zero
}

func (p *probe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, p.iteration)
}

func (p *probe) Gather() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gathers = append(p.gathers, p.iteration)
	if p.failAt != 0 && p.iteration == p.failAt {
		return errors.New("probe broken")
	}
	if p.panicAt != 0 && p.iteration == p.panicAt {
		panic("probe exploded")
	}
	return nil
}

func (p *probe) Get() event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets = append(p.gets, p.iteration)
	return &event.CPUInformation{Count: 1}
}

type sink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *sink) AddData(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type jmxCounter struct {
	updates atomic.Int64
}

func (j *jmxCounter) Update(sink sensor.EventSink) {
	j.updates.Add(1)
	sink.AddData(&event.RuntimeMetric{Name: "jmx"})
}

// iterate performs n runs, telling every probe the iteration number first.
func iterate(s *Scheduler, n int, probes ...*probe) {
	for i := 1; i <= n; i++ {
		for _, p := range probes {
			p.mu.Lock()
			p.iteration = i
			p.mu.Unlock()
		}
		s.run()
	}
}

func TestPhaseCycle(t *testing.T) {
	assert := assert.New(t)
	p := &probe{}
	out := &sink{}
	s := New(Config{Cadence: 5}, []sensor.PlatformSensor{p}, nil, out)

	iterate(s, 5, p)
	assert.Equal([]int{1}, p.resets)
	assert.Equal([]int{1, 2, 3, 4, 5}, p.gathers)
	assert.Equal([]int{5}, p.gets)
	assert.Equal(1, out.len())
	assert.Equal(int64(5), s.Runs())

	// the next cycle starts over
	iterate(s, 5, p)
	assert.Equal([]int{1, 1}, p.resets)
	assert.Len(p.gathers, 10)
	assert.Equal([]int{5, 5}, p.gets)
	assert.Equal(2, out.len())
}

func TestGatherFailureRemovesSensor(t *testing.T) {
	tl := new(log.RecordLogger)
	defer log.UseLogger(tl)()

	for name, broken := range map[string]*probe{
		"error": {failAt: 3},
		"panic": {panicAt: 3},
	} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			healthy := &probe{}
			out := &sink{}
			s := New(Config{Cadence: 5}, []sensor.PlatformSensor{broken, healthy}, nil, out)
			assert.Equal(2, s.Active())

			iterate(s, 5, broken, healthy)
			assert.Equal([]int{1, 2, 3}, broken.gathers)
			assert.Empty(broken.gets)
			assert.Equal([]int{1, 2, 3, 4, 5}, healthy.gathers)
			assert.Equal([]int{5}, healthy.gets)
			assert.Equal(1, out.len())
			assert.Equal(1, s.Active())

			// removal is permanent
			iterate(s, 5, broken, healthy)
			assert.Len(broken.gathers, 3)
			assert.Equal([]int{1}, broken.resets)
		})
	}
	assert.Len(t, tl.Logs(), 2)
	assert.Contains(t, tl.Logs()[0], "is removed")
}

func TestSingleIterationCadence(t *testing.T) {
	p := &probe{}
	out := &sink{}
	s := New(Config{Cadence: 1}, []sensor.PlatformSensor{p}, nil, out)
	iterate(s, 3, p)
	assert.Len(t, p.resets, 3)
	assert.Len(t, p.gets, 3)
	assert.Equal(t, 3, out.len())
}

func TestJMXEveryIteration(t *testing.T) {
	j := &jmxCounter{}
	out := &sink{}
	p := &probe{}
	s := New(Config{Cadence: 5}, []sensor.PlatformSensor{p}, []sensor.JMXSensor{j}, out)
	iterate(s, 3, p)
	assert.Equal(t, int64(3), j.updates.Load())
	assert.Equal(t, 3, out.len())

	// without platform sensors, JMX sensors still run
	j2 := &jmxCounter{}
	s2 := New(Config{}, nil, []sensor.JMXSensor{j2}, out)
	s2.run()
	assert.Equal(t, int64(1), j2.updates.Load())
}

type panickingJMX struct{}

func (panickingJMX) Update(sensor.EventSink) { panic("jmx exploded") }

func TestJMXPanicIsolated(t *testing.T) {
	tl := new(log.RecordLogger)
	defer log.UseLogger(tl)()
	j := &jmxCounter{}
	s := New(Config{}, nil, []sensor.JMXSensor{panickingJMX{}, j}, &sink{})
	s.run()
	log.Flush()
	assert.Equal(t, int64(1), j.updates.Load())
	require.NotEmpty(t, tl.Logs())
	assert.Contains(t, tl.Logs()[0], "jmx exploded")
}

func TestLoop(t *testing.T) {
	p := &probe{}
	out := &sink{}
	s := New(Config{Interval: time.Millisecond, Cadence: 2}, []sensor.PlatformSensor{p}, nil, out)
	s.Start(0)
	s.Start(0)
	assert.Eventually(t, func() bool { return out.len() >= 2 }, 5*time.Second, time.Millisecond)
	require.NoError(t, s.Stop(time.Second))
	require.NoError(t, s.Stop(time.Second))

	runs := s.Runs()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, runs, s.Runs())
}

// blockingProbe blocks in Gather until released.
type blockingProbe struct {
	entered chan struct{}
	release chan struct{}
	gathers atomic.Int64
}

func (*blockingProbe) Reset()           {}
func (*blockingProbe) Get() event.Event { return nil }
func (b *blockingProbe) Gather() error {
	if b.gathers.Add(1) == 1 {
		close(b.entered)
		<-b.release
	}
	return nil
}

func TestStopDuringRun(t *testing.T) {
	b := &blockingProbe{entered: make(chan struct{}), release: make(chan struct{})}
	s := New(Config{Interval: time.Millisecond}, []sensor.PlatformSensor{b}, nil, &sink{})
	s.Start(0)
	<-b.entered

	stopped := make(chan error)
	go func() { stopped <- s.Stop(5 * time.Second) }()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a run was in progress")
	case <-time.After(20 * time.Millisecond):
	}
	close(b.release)
	require.NoError(t, <-stopped)
	assert.Equal(t, int64(1), s.Runs(), "the run in progress completes")

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), b.gathers.Load(), "no run is scheduled after Stop")
}

func TestStopTimeout(t *testing.T) {
	b := &blockingProbe{entered: make(chan struct{}), release: make(chan struct{})}
	s := New(Config{}, []sensor.PlatformSensor{b}, nil, &sink{})
	s.Start(0)
	<-b.entered
	err := s.Stop(10 * time.Millisecond)
	assert.True(t, errors.Is(err, ErrShutdownTimeout))
	close(b.release)
	<-s.done
}

func TestStopNotStarted(t *testing.T) {
	s := New(Config{}, nil, nil, &sink{})
	assert.NoError(t, s.Stop(time.Millisecond))
	s.Start(0) // no-op once stopped
	<-s.done
}
