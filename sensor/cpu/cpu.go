// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package cpu provides a platform sensor reporting the CPU usage of the
// current process.
package cpu

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

// timesReader is satisfied by *process.Process.
type timesReader interface {
	Times() (*cpu.TimesStat, error)
}

// Sensor samples the CPU time of the process at every Gather and reports the
// usage observed over the cycle at Get.
type Sensor struct {
	platformIdent   int64
	sensorTypeIdent int64

	proc   timesReader
	numCPU int
	now    func() time.Time

	lastCPU  float64 // seconds
	lastWall time.Time
	data     *event.CPUInformation
}

var _ sensor.PlatformSensor = (*Sensor)(nil)

// New returns a sensor for the current process.
func New(platformIdent, sensorTypeIdent int64) (*Sensor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("cpu sensor: %w", err)
	}
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = 1
	}
	return newSensor(platformIdent, sensorTypeIdent, p, n, time.Now), nil
}

func newSensor(platformIdent, sensorTypeIdent int64, p timesReader, numCPU int, now func() time.Time) *Sensor {
	s := &Sensor{
		platformIdent:   platformIdent,
		sensorTypeIdent: sensorTypeIdent,
		proc:            p,
		numCPU:          numCPU,
		now:             now,
	}
	s.Reset()
	return s
}

// Name implements sensor.Named.
func (s *Sensor) Name() string { return "cpu" }

// Reset implements sensor.PlatformSensor.
func (s *Sensor) Reset() {
	s.data = &event.CPUInformation{
		Header: event.Header{
			PlatformIdent:   s.platformIdent,
			SensorTypeIdent: s.sensorTypeIdent,
		},
	}
}

// Gather implements sensor.PlatformSensor. The first call only records a
// baseline.
func (s *Sensor) Gather() error {
	t, err := s.proc.Times()
	if err != nil {
		return fmt.Errorf("%w: reading process cpu times: %v", sensor.ErrSensorFailure, err)
	}
	now := s.now()
	total := t.User + t.System
	defer func() {
		s.lastCPU, s.lastWall = total, now
	}()
	if s.lastWall.IsZero() {
		return nil
	}
	wall := now.Sub(s.lastWall).Seconds()
	if wall <= 0 {
		return nil
	}
	usage := (total - s.lastCPU) / wall / float64(s.numCPU) * 100
	d := s.data
	if d.Count == 0 || usage < d.MinCPUUsage {
		d.MinCPUUsage = usage
	}
	if d.Count == 0 || usage > d.MaxCPUUsage {
		d.MaxCPUUsage = usage
	}
	d.Count++
	d.TotalCPUUsage += usage
	d.ProcessCPUTime = int64(total * float64(time.Second))
	return nil
}

// Get implements sensor.PlatformSensor. It returns nil until a usage sample
// was recorded since the last Reset.
func (s *Sensor) Get() event.Event {
	if s.data.Count == 0 {
		return nil
	}
	d := s.data
	d.Timestamp = s.now()
	s.Reset()
	return d
}
