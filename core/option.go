// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import (
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/DataDog/dd-apm-core-go/internal"
	provider "github.com/DataDog/dd-apm-core-go/internal/config"
	"github.com/DataDog/dd-apm-core-go/internal/globalconfig"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/internal/ringbuffer"
	"github.com/DataDog/dd-apm-core-go/sensor"
)

// Recognized configuration keys. Each of them can be set in the environment
// or in the file named by DD_APM_CORE_CONFIG_FILE.
const (
	envRefreshInterval      = "DD_APM_CORE_REFRESH_INTERVAL_MS"
	envRingBufferCapacity   = "DD_APM_CORE_RING_BUFFER_CAPACITY"
	envPhaseCadence         = "DD_APM_CORE_PHASE_CADENCE"
	envShutdownTimeout      = "DD_APM_CORE_SHUTDOWN_TIMEOUT_MS"
	envCollectorURL         = "DD_APM_CORE_COLLECTOR_URL"
	envHealthMetricsEnabled = "DD_APM_CORE_HEALTH_METRICS_ENABLED"
	envDebug                = "DD_APM_CORE_DEBUG"
	envPlatformID           = "DD_APM_CORE_PLATFORM_ID"
	envExitHookEnabled      = "DD_APM_CORE_EXIT_HOOK_ENABLED"
	envStartupLogs          = "DD_APM_CORE_STARTUP_LOGS"
	envAgentHost            = "DD_AGENT_HOST"
	envDogstatsdPort        = "DD_DOGSTATSD_PORT"
)

const (
	defaultRefreshInterval    = time.Second
	defaultRingBufferCapacity = 1024
	defaultPhaseCadence       = 5
	defaultShutdownTimeout    = 5 * time.Second
	defaultCollectorURL       = "http://localhost:8182"

	// dropLogInterval is the minimum interval between two warnings about
	// dropped events.
	dropLogInterval = 10 * time.Second

	// statsInterval is the interval at which health metrics are reported.
	statsInterval = 10 * time.Second
)

// Handler consumes the events submitted to the core, one at a time and in
// submission order, from a single goroutine.
type Handler = ringbuffer.Handler

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc = ringbuffer.HandlerFunc

// config holds the core configuration.
type config struct {
	// refreshInterval is the delay between two sensor scheduler runs.
	refreshInterval time.Duration

	// initialDelay is the delay before the first scheduler run.
	initialDelay time.Duration

	// capacity is the ring buffer size, a power of two.
	capacity int

	// cadence is the number of scheduler iterations of a platform sensor cycle.
	cadence int

	// shutdownTimeout bounds the drain of the ring buffer and the wait for
	// the scheduler on Stop.
	shutdownTimeout time.Duration

	// collectorURL is the base URL of the collector.
	collectorURL string

	// platformID identifies this agent to the collector.
	platformID string

	// debug, when true, writes details to logs.
	debug bool

	// healthMetrics enables reporting health metrics to dogstatsd.
	healthMetrics bool

	// dogstatsdAddr is the address of the dogstatsd server.
	dogstatsdAddr string

	// statsd is the client used for health metrics. Created on start when nil.
	statsd internal.StatsdClient

	// httpClient is used by the default transport and registrar.
	httpClient *http.Client

	// transport receives every consumed event before the other handlers.
	// The HTTP sender is used when nil.
	transport Handler

	// handlers receive every consumed event after the transport.
	handlers []Handler

	// registrar is notified on process exit. The HTTP registrar is used
	// when nil.
	registrar Registrar

	// sensorsSet reports whether sensors were configured with options, in
	// which case the default sensors are not installed.
	sensorsSet bool
	platform   []sensor.PlatformSensor
	jmx        []sensor.JMXSensor

	// exitHook enables the process exit hook.
	exitHook bool

	// exitSignals are the signals triggering the exit hook.
	exitSignals []os.Signal

	// startupLogs enables the startup configuration log line.
	startupLogs bool
}

// StartOption represents a function that can be provided as a parameter to
// NewService or Start.
type StartOption func(*config)

// newConfig renders the core configuration from the defaults, the
// configuration sources and the given options, in that order.
func newConfig(opts ...StartOption) *config {
	return newConfigFrom(provider.Default(), opts...)
}

func newConfigFrom(p *provider.Provider, opts ...StartOption) *config {
	c := &config{
		exitSignals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	c.refreshInterval = p.Millis(envRefreshInterval, defaultRefreshInterval)
	c.capacity = p.Int(envRingBufferCapacity, defaultRingBufferCapacity, func(i int) bool {
		if i <= 0 || i&(i-1) != 0 {
			log.Warn("ignoring %s: %d is not a positive power of two", envRingBufferCapacity, i)
			return false
		}
		return true
	})
	c.cadence = p.Int(envPhaseCadence, defaultPhaseCadence, func(i int) bool {
		if i < 1 {
			log.Warn("ignoring %s: value must be positive, got %d", envPhaseCadence, i)
			return false
		}
		return true
	})
	c.shutdownTimeout = p.Millis(envShutdownTimeout, defaultShutdownTimeout)
	c.collectorURL = p.String(envCollectorURL, defaultCollectorURL)
	c.platformID = p.String(envPlatformID, globalconfig.RuntimeID())
	c.debug = p.Bool(envDebug, false)
	c.healthMetrics = p.Bool(envHealthMetricsEnabled, true)
	c.exitHook = p.Bool(envExitHookEnabled, true)
	c.startupLogs = p.Bool(envStartupLogs, true)
	c.dogstatsdAddr = internal.DefaultDogstatsdAddr(p.String(envAgentHost, ""), p.String(envDogstatsdPort, ""))
	for _, fn := range opts {
		fn(c)
	}
	if c.initialDelay <= 0 {
		c.initialDelay = c.refreshInterval
	}
	if c.debug {
		log.SetLevel(log.LevelDebug)
	}
	return c
}

// WithDebugMode enables debug mode, making logging more verbose.
func WithDebugMode(enabled bool) StartOption {
	return func(c *config) {
		c.debug = enabled
	}
}

// WithRefreshInterval sets the delay between two sensor scheduler runs.
// Non-positive values are ignored.
func WithRefreshInterval(d time.Duration) StartOption {
	return func(c *config) {
		if d > 0 {
			c.refreshInterval = d
		}
	}
}

// WithInitialDelay sets the delay before the first sensor scheduler run. It
// defaults to the refresh interval.
func WithInitialDelay(d time.Duration) StartOption {
	return func(c *config) {
		c.initialDelay = d
	}
}

// WithRingBufferCapacity sets the number of events which can be queued. It
// must be a power of two, other values are ignored.
func WithRingBufferCapacity(n int) StartOption {
	return func(c *config) {
		if n <= 0 || n&(n-1) != 0 {
			log.Warn("ignoring ring buffer capacity %d: not a positive power of two", n)
			return
		}
		c.capacity = n
	}
}

// WithPhaseCadence sets the number of scheduler iterations of a platform
// sensor cycle.
func WithPhaseCadence(n int) StartOption {
	return func(c *config) {
		if n >= 1 {
			c.cadence = n
		}
	}
}

// WithShutdownTimeout bounds the time spent draining the queue, and waiting
// for the scheduler, on Stop.
func WithShutdownTimeout(d time.Duration) StartOption {
	return func(c *config) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithCollectorURL sets the base URL of the collector, e.g.
// http://collector:8182.
func WithCollectorURL(url string) StartOption {
	return func(c *config) {
		c.collectorURL = url
	}
}

// WithPlatformID sets the identifier of this agent. A random one is used by
// default.
func WithPlatformID(id string) StartOption {
	return func(c *config) {
		c.platformID = id
	}
}

// WithHTTPClient sets the HTTP client used to talk to the collector.
func WithHTTPClient(client *http.Client) StartOption {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTransport replaces the HTTP transport with h.
func WithTransport(h Handler) StartOption {
	return func(c *config) {
		c.transport = h
	}
}

// WithHandler adds a handler receiving every consumed event after the
// transport.
func WithHandler(h Handler) StartOption {
	return func(c *config) {
		c.handlers = append(c.handlers, h)
	}
}

// WithRegistrar replaces the registrar notified on process exit.
func WithRegistrar(r Registrar) StartOption {
	return func(c *config) {
		c.registrar = r
	}
}

// WithPlatformSensors sets the platform sensors polled by the scheduler.
// When sensors are set with options, the default CPU and runtime sensors are
// not installed.
func WithPlatformSensors(sensors ...sensor.PlatformSensor) StartOption {
	return func(c *config) {
		c.sensorsSet = true
		c.platform = append(c.platform, sensors...)
	}
}

// WithJMXSensors sets the sensors updated at every scheduler iteration. See
// WithPlatformSensors about the default sensors.
func WithJMXSensors(sensors ...sensor.JMXSensor) StartOption {
	return func(c *config) {
		c.sensorsSet = true
		c.jmx = append(c.jmx, sensors...)
	}
}

// WithHealthMetrics enables or disables reporting health metrics to dogstatsd.
func WithHealthMetrics(enabled bool) StartOption {
	return func(c *config) {
		c.healthMetrics = enabled
	}
}

// WithDogstatsdAddress sets the address of the dogstatsd server receiving
// health metrics. It defaults to localhost:8125, or DD_AGENT_HOST and
// DD_DOGSTATSD_PORT when set.
func WithDogstatsdAddress(addr string) StartOption {
	return func(c *config) {
		c.dogstatsdAddr = addr
	}
}

// withStatsdClient sets the statsd client used for health metrics.
func withStatsdClient(s internal.StatsdClient) StartOption {
	return func(c *config) {
		c.statsd = s
	}
}

// WithExitHook enables or disables the process exit hook. When enabled, the
// given signals (os.Interrupt and SIGTERM when none) stop the core,
// unregister the agent and are then raised again.
func WithExitHook(enabled bool, signals ...os.Signal) StartOption {
	return func(c *config) {
		c.exitHook = enabled
		if len(signals) > 0 {
			c.exitSignals = signals
		}
	}
}
