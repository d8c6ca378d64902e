// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import (
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provider "github.com/DataDog/dd-apm-core-go/internal/config"
	"github.com/DataDog/dd-apm-core-go/internal/globalconfig"
	"github.com/DataDog/dd-apm-core-go/internal/log"
)

func TestConfigDefaults(t *testing.T) {
	c := newConfigFrom(provider.NewProvider())
	assert.Equal(t, defaultRefreshInterval, c.refreshInterval)
	assert.Equal(t, defaultRefreshInterval, c.initialDelay)
	assert.Equal(t, defaultRingBufferCapacity, c.capacity)
	assert.Equal(t, defaultPhaseCadence, c.cadence)
	assert.Equal(t, defaultShutdownTimeout, c.shutdownTimeout)
	assert.Equal(t, defaultCollectorURL, c.collectorURL)
	assert.Equal(t, globalconfig.RuntimeID(), c.platformID)
	assert.True(t, c.healthMetrics)
	assert.True(t, c.exitHook)
	assert.False(t, c.debug)
	assert.False(t, c.sensorsSet)
	assert.True(t, c.startupLogs)
	assert.Equal(t, []os.Signal{os.Interrupt, syscall.SIGTERM}, c.exitSignals)
}

func TestConfigSources(t *testing.T) {
	c := newConfigFrom(provider.NewProvider(provider.MapSource{
		envRefreshInterval:      "250",
		envRingBufferCapacity:   "64",
		envPhaseCadence:         "3",
		envShutdownTimeout:      "1500",
		envCollectorURL:         "http://collector:8182",
		envPlatformID:           "agent-1",
		envHealthMetricsEnabled: "false",
		envExitHookEnabled:      "false",
		envStartupLogs:          "false",
		envAgentHost:            "agent",
		envDogstatsdPort:        "9125",
	}))
	assert.Equal(t, 250*time.Millisecond, c.refreshInterval)
	assert.Equal(t, 250*time.Millisecond, c.initialDelay)
	assert.Equal(t, 64, c.capacity)
	assert.Equal(t, 3, c.cadence)
	assert.Equal(t, 1500*time.Millisecond, c.shutdownTimeout)
	assert.Equal(t, "http://collector:8182", c.collectorURL)
	assert.Equal(t, "agent-1", c.platformID)
	assert.False(t, c.healthMetrics)
	assert.False(t, c.exitHook)
	assert.False(t, c.startupLogs)
	assert.Equal(t, "agent:9125", c.dogstatsdAddr)
}

func TestConfigInvalidValues(t *testing.T) {
	tp := new(log.RecordLogger)
	defer log.UseLogger(tp)()

	c := newConfigFrom(provider.NewProvider(provider.MapSource{
		envRefreshInterval:      "-5",
		envRingBufferCapacity:   "1000",
		envPhaseCadence:         "0",
		envShutdownTimeout:      "soon",
		envHealthMetricsEnabled: "maybe",
	}))
	assert.Equal(t, defaultRefreshInterval, c.refreshInterval)
	assert.Equal(t, defaultRingBufferCapacity, c.capacity)
	assert.Equal(t, defaultPhaseCadence, c.cadence)
	assert.Equal(t, defaultShutdownTimeout, c.shutdownTimeout)
	assert.True(t, c.healthMetrics)
	assert.Len(t, tp.Logs(), 5)
}

func TestConfigPriority(t *testing.T) {
	c := newConfigFrom(provider.NewProvider(
		provider.MapSource{envRingBufferCapacity: "16"},
		provider.MapSource{envRingBufferCapacity: "32", envPhaseCadence: "7"},
	), WithPhaseCadence(9))
	assert.Equal(t, 16, c.capacity)
	assert.Equal(t, 9, c.cadence)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apm_core.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apm_core:
  DD_APM_CORE_RING_BUFFER_CAPACITY: 128
  DD_APM_CORE_COLLECTOR_URL: http://from-file:8182
  DD_APM_CORE_STARTUP_LOGS: false
  DD_AGENT_HOST: file-agent
  DD_DOGSTATSD_PORT: 9125
`), 0o600))
	t.Setenv(provider.FileEnvVar, path)
	t.Setenv(envCollectorURL, "http://from-env:8182")
	t.Setenv(envAgentHost, "")
	t.Setenv(envDogstatsdPort, "")

	c := newConfig()
	assert.Equal(t, 128, c.capacity)
	assert.Equal(t, "http://from-env:8182", c.collectorURL)
	assert.False(t, c.startupLogs)
	assert.Equal(t, "file-agent:9125", c.dogstatsdAddr)
}

func TestOptions(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	c := newConfigFrom(provider.NewProvider(),
		WithRefreshInterval(2*time.Second),
		WithInitialDelay(time.Millisecond),
		WithRingBufferCapacity(256),
		WithPhaseCadence(4),
		WithShutdownTimeout(3*time.Second),
		WithCollectorURL("http://collector"),
		WithPlatformID("p"),
		WithHTTPClient(client),
		WithHandler(&recorder{}),
		WithHealthMetrics(false),
		WithDogstatsdAddress("localhost:9999"),
		WithExitHook(true, syscall.SIGHUP),
	)
	assert.Equal(t, 2*time.Second, c.refreshInterval)
	assert.Equal(t, time.Millisecond, c.initialDelay)
	assert.Equal(t, 256, c.capacity)
	assert.Equal(t, 4, c.cadence)
	assert.Equal(t, 3*time.Second, c.shutdownTimeout)
	assert.Equal(t, "http://collector", c.collectorURL)
	assert.Equal(t, "p", c.platformID)
	assert.Same(t, client, c.httpClient)
	assert.Len(t, c.handlers, 1)
	assert.False(t, c.healthMetrics)
	assert.Equal(t, "localhost:9999", c.dogstatsdAddr)
	assert.True(t, c.exitHook)
	assert.Equal(t, []os.Signal{syscall.SIGHUP}, c.exitSignals)
}

func TestOptionsIgnoreInvalid(t *testing.T) {
	tp := new(log.RecordLogger)
	defer log.UseLogger(tp)()

	c := newConfigFrom(provider.NewProvider(),
		WithRefreshInterval(0),
		WithRingBufferCapacity(3),
		WithPhaseCadence(0),
		WithShutdownTimeout(-time.Second),
		WithExitHook(false),
	)
	assert.Equal(t, defaultRefreshInterval, c.refreshInterval)
	assert.Equal(t, defaultRingBufferCapacity, c.capacity)
	assert.Equal(t, defaultPhaseCadence, c.cadence)
	assert.Equal(t, defaultShutdownTimeout, c.shutdownTimeout)
	assert.False(t, c.exitHook)
	assert.Equal(t, []os.Signal{os.Interrupt, syscall.SIGTERM}, c.exitSignals)
	assert.Len(t, tp.Logs(), 1)
}

func TestDefaultSensors(t *testing.T) {
	s, err := NewService(WithTransport(&recorder{}), WithExitHook(false))
	require.NoError(t, err)
	assert.Len(t, s.config.jmx, 1)
	assert.LessOrEqual(t, len(s.config.platform), 1)

	s, err = NewService(WithTransport(&recorder{}), WithJMXSensors(), WithExitHook(false))
	require.NoError(t, err)
	assert.Empty(t, s.config.platform)
	assert.Empty(t, s.config.jmx)
}
