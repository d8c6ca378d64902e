// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package sensor defines the contracts of the periodic data sources polled by
// the collection core.
package sensor

import (
	"errors"
	"fmt"

	"github.com/DataDog/dd-apm-core-go/event"
)

// ErrSensorFailure is wrapped by errors returned from PlatformSensor.Gather.
// A sensor failing to gather is removed for good.
var ErrSensorFailure = errors.New("sensor failure")

// EventSink accepts events. The collection core is the sink handed to
// JMXSensor.Update, so AddData never blocks and never fails.
type EventSink interface {
	AddData(ev event.Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ev event.Event)

// AddData implements EventSink.
func (f EventSinkFunc) AddData(ev event.Event) { f(ev) }

// PlatformSensor aggregates measurements over a cycle of iterations. At the
// first iteration of a cycle Reset is called, Gather is called at every
// iteration and Get at the last one. Get returns nil when there is nothing to
// report. Implementations are only ever called from the scheduler goroutine.
type PlatformSensor interface {
	Reset()
	Gather() error
	Get() event.Event
}

// JMXSensor is updated at every iteration of the scheduler, independently of
// the platform sensor cycle, and submits its events directly to sink.
type JMXSensor interface {
	Update(sink EventSink)
}

// Named is optionally implemented by sensors to provide a name for logs.
type Named interface {
	Name() string
}

// Name returns the name of a sensor.
func Name(s interface{}) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
