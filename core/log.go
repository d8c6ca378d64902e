// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/internal/version"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

type startupInfo struct {
	Date                 string   `json:"date"`                   // ISO 8601 date and time of start
	Version              string   `json:"version"`                // Library version
	Lang                 string   `json:"lang"`                   // "Go"
	LangVersion          string   `json:"lang_version"`           // Go version, e.g. go1.22
	Architecture         string   `json:"architecture"`           // Architecture of host machine
	PlatformID           string   `json:"platform_id"`            // Identifier of this agent
	CollectorURL         string   `json:"collector_url"`          // Where events are sent, empty with a custom transport
	RingBufferCapacity   int      `json:"ring_buffer_capacity"`   // Size of the event queue
	RefreshIntervalMs    int64    `json:"refresh_interval_ms"`    // Delay between sensor scheduler runs
	PhaseCadence         int      `json:"phase_cadence"`          // Iterations of a platform sensor cycle
	ShutdownTimeoutMs    int64    `json:"shutdown_timeout_ms"`    // Bound on draining and scheduler shutdown
	PlatformSensors      []string `json:"platform_sensors"`       // Names of the platform sensors
	JMXSensors           []string `json:"jmx_sensors"`            // Names of the JMX sensors
	Handlers             int      `json:"handlers"`               // Number of extra event handlers
	Debug                bool     `json:"debug"`                  // Whether debug mode is enabled
	HealthMetricsEnabled bool     `json:"health_metrics_enabled"` // Whether health metrics are reported
	ExitHookEnabled      bool     `json:"exit_hook_enabled"`      // Whether the exit hook is registered
}

// logStartup logs the effective configuration of s, unless
// DD_APM_CORE_STARTUP_LOGS is false.
func logStartup(s *Service) {
	c := s.config
	if !c.startupLogs {
		return
	}
	info := startupInfo{
		Date:                 time.Now().Format(time.RFC3339),
		Version:              version.Tag,
		Lang:                 "Go",
		LangVersion:          runtime.Version(),
		Architecture:         runtime.GOARCH,
		PlatformID:           c.platformID,
		RingBufferCapacity:   c.capacity,
		RefreshIntervalMs:    c.refreshInterval.Milliseconds(),
		PhaseCadence:         c.cadence,
		ShutdownTimeoutMs:    c.shutdownTimeout.Milliseconds(),
		Handlers:             len(c.handlers),
		Debug:                c.debug,
		HealthMetricsEnabled: c.healthMetrics,
		ExitHookEnabled:      c.exitHook,
	}
	if s.sender != nil {
		info.CollectorURL = c.collectorURL
	}
	for _, p := range c.platform {
		info.PlatformSensors = append(info.PlatformSensors, sensor.Name(p))
	}
	for _, j := range c.jmx {
		info.JMXSensors = append(info.JMXSensors, sensor.Name(j))
	}
	bs, err := json.Marshal(info)
	if err != nil {
		log.Warn("Failed to serialize json for startup log: (%v) %#v\n", err, info)
		return
	}
	log.Info("Startup: %s", string(bs))
}
