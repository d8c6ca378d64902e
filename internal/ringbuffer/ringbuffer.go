// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package ringbuffer implements a bounded multi-producer single-consumer queue
// of events over a fixed arena of reusable slots.
//
// Producers claim a sequence number with TryPublish and never block: when the
// slot they would need has not been released by the consumer yet, the call
// fails with ErrCapacityExceeded. A single consumer goroutine hands every
// published event to the registered handlers, strictly in sequence order.
package ringbuffer

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
)

var (
	// ErrCapacityExceeded is returned by TryPublish when the buffer is full.
	ErrCapacityExceeded = errors.New("ring buffer capacity exceeded")

	// ErrShutdownTimeout is returned by Shutdown when the consumer could not
	// drain the buffer in time.
	ErrShutdownTimeout = errors.New("ring buffer drain timed out")

	// ErrInvalidCapacity is returned by New when the capacity is not a
	// positive power of two.
	ErrInvalidCapacity = errors.New("ring buffer capacity must be a positive power of two")
)

// Handler consumes events. OnEvent is only ever called from the consumer
// goroutine. endOfBatch is true when the consumer has caught up with every
// event published so far.
type Handler interface {
	OnEvent(ev event.Event, seq int64, endOfBatch bool)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev event.Event, seq int64, endOfBatch bool)

// OnEvent implements Handler.
func (f HandlerFunc) OnEvent(ev event.Event, seq int64, endOfBatch bool) { f(ev, seq, endOfBatch) }

// Flusher is implemented by handlers holding buffered data. Flush is called
// from the consumer goroutine when a flush is requested and when the buffer
// is drained on shutdown.
type Flusher interface {
	Flush()
}

// slot is a reusable cell of the arena. seq holds the sequence of the event
// currently stored, and is only written after ev.
type slot struct {
	seq atomic.Int64
	ev  event.Event
}

// RingBuffer is a bounded MPSC queue. The zero value is not usable, use New.
type RingBuffer struct {
	slots    []slot
	mask     int64
	cursor   atomic.Int64 // highest claimed sequence
	consumed atomic.Int64 // highest sequence released by the consumer
	handlers []Handler

	notify chan struct{}      // wakes the consumer up; capacity 1
	flush  chan chan struct{} // synchronous flush requests
	halt   chan struct{}      // closed to drain and stop the consumer
	kill   chan struct{}      // closed to stop the consumer right away
	done   chan struct{}      // closed when the consumer has exited

	started  atomic.Bool
	startOne sync.Once
	haltOne  sync.Once
	killOne  sync.Once
}

// New returns a ring buffer holding up to capacity events, consumed by the
// given handlers in order. The consumer is not started until Start is called.
func New(capacity int, handlers ...Handler) (*RingBuffer, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	r := &RingBuffer{
		slots:    make([]slot, capacity),
		mask:     int64(capacity - 1),
		handlers: handlers,
		notify:   make(chan struct{}, 1),
		flush:    make(chan chan struct{}),
		halt:     make(chan struct{}),
		kill:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(-1)
	}
	r.cursor.Store(-1)
	r.consumed.Store(-1)
	return r, nil
}

// Capacity returns the number of slots of the arena.
func (r *RingBuffer) Capacity() int { return len(r.slots) }

// Cursor returns the highest sequence claimed so far, or -1.
func (r *RingBuffer) Cursor() int64 { return r.cursor.Load() }

// Consumed returns the number of events released by the consumer.
func (r *RingBuffer) Consumed() int64 { return r.consumed.Load() + 1 }

// Remaining returns the number of free slots.
func (r *RingBuffer) Remaining() int64 {
	return int64(len(r.slots)) - (r.cursor.Load() - r.consumed.Load())
}

// TryPublish stores ev in the next free slot. It never blocks: when the
// buffer is full it returns ErrCapacityExceeded and ev is not stored.
func (r *RingBuffer) TryPublish(ev event.Event) error {
	var next int64
	for {
		cur := r.cursor.Load()
		next = cur + 1
		if next-int64(len(r.slots)) > r.consumed.Load() {
			return ErrCapacityExceeded
		}
		if r.cursor.CompareAndSwap(cur, next) {
			break
		}
	}
	s := &r.slots[next&r.mask]
	s.ev = ev
	s.seq.Store(next)
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the consumer goroutine. Calling it more than once has no
// effect.
func (r *RingBuffer) Start() {
	r.startOne.Do(func() {
		r.started.Store(true)
		go r.run()
	})
}

// Flush waits until every event published before the call has been consumed
// and the handlers implementing Flusher have been flushed. It returns right
// away when the consumer is not running.
func (r *RingBuffer) Flush() {
	if !r.started.Load() {
		return
	}
	done := make(chan struct{})
	select {
	case r.flush <- done:
	case <-r.done:
		return
	}
	select {
	case <-done:
	case <-r.done:
	}
}

// Shutdown stops the intake of the consumer and waits at most timeout for it
// to drain the events already published. On timeout the consumer is told to
// exit after the event it is processing and ErrShutdownTimeout is returned.
// Calling Shutdown more than once is safe.
func (r *RingBuffer) Shutdown(timeout time.Duration) error {
	r.haltOne.Do(func() { close(r.halt) })
	if !r.started.Load() {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		return nil
	case <-timer.C:
		r.killOne.Do(func() { close(r.kill) })
		return fmt.Errorf("%w after %s, %d events left", ErrShutdownTimeout, timeout, r.Cursor()+1-r.Consumed())
	}
}

// Done returns a channel closed once the consumer goroutine has exited.
func (r *RingBuffer) Done() <-chan struct{} { return r.done }

func (r *RingBuffer) killed() bool {
	select {
	case <-r.kill:
		return true
	default:
		return false
	}
}

// run is the consumer loop.
func (r *RingBuffer) run() {
	defer close(r.done)
	for {
		if !r.consumeAvailable() {
			return
		}
		select {
		case <-r.notify:
		case done := <-r.flush:
			if r.drain() {
				r.flushHandlers()
			}
			close(done)
		case <-r.halt:
			if r.drain() {
				r.flushHandlers()
			}
			return
		case <-r.kill:
			return
		}
	}
}

// consumeAvailable processes every event published contiguously after the
// last consumed sequence. It returns false if the consumer was killed.
func (r *RingBuffer) consumeAvailable() bool {
	for {
		next := r.consumed.Load() + 1
		available := r.available(next)
		if available < next {
			return true
		}
		for ; next <= available; next++ {
			if r.killed() {
				return false
			}
			r.consume(next, next == available)
		}
	}
}

// available returns the highest sequence such that every sequence from next
// up to it has been published, or next-1 when next itself is not published.
func (r *RingBuffer) available(next int64) int64 {
	hi := r.cursor.Load()
	for seq := next; seq <= hi; seq++ {
		if r.slots[seq&r.mask].seq.Load() != seq {
			return seq - 1
		}
	}
	return hi
}

// drain consumes events until the consumer has caught up with the cursor,
// waiting for in-flight publishes to complete. It returns false if the
// consumer was killed.
func (r *RingBuffer) drain() bool {
	for {
		if !r.consumeAvailable() {
			return false
		}
		if r.consumed.Load() >= r.cursor.Load() {
			return true
		}
		// a producer claimed a sequence but has not published it yet
		select {
		case <-r.notify:
		case <-r.kill:
			return false
		}
	}
}

// consume hands the event at seq to the handlers and releases its slot.
func (r *RingBuffer) consume(seq int64, endOfBatch bool) {
	s := &r.slots[seq&r.mask]
	ev := s.ev
	for _, h := range r.handlers {
		r.dispatch(h, ev, seq, endOfBatch)
	}
	s.ev = nil
	r.consumed.Store(seq)
}

func (r *RingBuffer) dispatch(h Handler, ev event.Event, seq int64, endOfBatch bool) {
	defer func() {
		if err := recover(); err != nil {
			log.Error("ring buffer handler %T panicked: %v", h, err)
		}
	}()
	h.OnEvent(ev, seq, endOfBatch)
}

func (r *RingBuffer) flushHandlers() {
	for _, h := range r.handlers {
		f, ok := h.(Flusher)
		if !ok {
			continue
		}
		func() {
			defer func() {
				if err := recover(); err != nil {
					log.Error("ring buffer handler %T panicked on flush: %v", h, err)
				}
			}()
			f.Flush()
		}()
	}
}
