// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package event

// CPUInformation holds the CPU usage of the process aggregated over one
// sensor cycle. Usages are percentages.
type CPUInformation struct {
	Header

	Count          int32
	ProcessCPUTime int64 // nanoseconds
	MinCPUUsage    float64
	MaxCPUUsage    float64
	TotalCPUUsage  float64
}

var _ Event = (*CPUInformation)(nil)

// Kind implements Event.
func (c *CPUInformation) Kind() Kind { return KindCPUInformation }

// AverageCPUUsage returns the mean usage over the cycle.
func (c *CPUInformation) AverageCPUUsage() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.TotalCPUUsage / float64(c.Count)
}

// ExceptionEventType tells what happened to an exception at the instrumented
// method.
type ExceptionEventType uint8

const (
	ExceptionCreated ExceptionEventType = iota
	ExceptionPassed
	ExceptionRethrown
	ExceptionHandled
)

// Exception records an error observed by an exception sensor.
type Exception struct {
	Header

	EventType     ExceptionEventType
	ThrowableType string
	ErrorMessage  string
	Cause         string
	StackTrace    string
}

var _ Event = (*Exception)(nil)

// Kind implements Event.
func (e *Exception) Kind() Kind { return KindException }

// EUMType identifies the kind of record sent by browser instrumentation.
type EUMType uint8

const (
	EUMPageLoad EUMType = iota
	EUMAjax
	EUMResourceLoad
	EUMUserAction
)

// EUM is an end-user-monitoring record originating from client-side
// instrumentation.
type EUM struct {
	Header

	Type      EUMType
	SessionID int64
	TabID     int64
	BeaconID  int64
	URL       string
	Duration  float64 // milliseconds
}

var _ Event = (*EUM)(nil)

// Kind implements Event.
func (e *EUM) Kind() Kind { return KindEUM }

// RuntimeMetric is a single named gauge read from the host runtime.
type RuntimeMetric struct {
	Header

	Name  string
	Value float64
}

var _ Event = (*RuntimeMetric)(nil)

// Kind implements Event.
func (m *RuntimeMetric) Kind() Kind { return KindRuntimeMetric }
