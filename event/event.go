// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package event defines the telemetry records produced by sensors and
// instrumentation hooks and handed to the collection core.
//
// An event is owned by its producer until it is submitted. Once submitted,
// ownership moves to the core and the producer must not modify it anymore.
package event

import (
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"
)

// Kind identifies the variant of an Event.
type Kind uint8

const (
	// KindCPUInformation identifies *CPUInformation events.
	KindCPUInformation Kind = iota + 1
	// KindTimer identifies *Timer events.
	KindTimer
	// KindHTTPTimer identifies *HTTPTimer events.
	KindHTTPTimer
	// KindSQLStatement identifies *SQLStatement events.
	KindSQLStatement
	// KindException identifies *Exception events.
	KindException
	// KindInvocationSequence identifies *InvocationSequence events.
	KindInvocationSequence
	// KindEUM identifies *EUM events.
	KindEUM
	// KindRuntimeMetric identifies *RuntimeMetric events.
	KindRuntimeMetric
)

var kindNames = map[Kind]string{
	KindCPUInformation:     "cpu_information",
	KindTimer:              "timer",
	KindHTTPTimer:          "http_timer",
	KindSQLStatement:       "sql_statement",
	KindException:          "exception",
	KindInvocationSequence: "invocation_sequence",
	KindEUM:                "eum",
	KindRuntimeMetric:      "runtime_metric",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is a telemetry record. Every variant embeds a Header and knows how to
// encode itself as msgpack.
type Event interface {
	msgp.Encodable

	// Kind returns the variant of the event.
	Kind() Kind

	// EventHeader returns the identifiers shared by every variant.
	EventHeader() *Header
}

// Header holds the identifiers carried by every event.
type Header struct {
	// PlatformIdent identifies the agent which produced the event.
	PlatformIdent int64
	// SensorTypeIdent identifies the sensor which produced the event.
	SensorTypeIdent int64
	// MethodIdent identifies the instrumented method, if any.
	MethodIdent int64
	// Timestamp is the time at which the event was produced.
	Timestamp time.Time
}

// EventHeader implements Event.
func (h *Header) EventHeader() *Header { return h }

// NewHeader returns a Header stamped with the current time.
func NewHeader(platformIdent, sensorTypeIdent, methodIdent int64) Header {
	return Header{
		PlatformIdent:   platformIdent,
		SensorTypeIdent: sensorTypeIdent,
		MethodIdent:     methodIdent,
		Timestamp:       time.Now(),
	}
}
