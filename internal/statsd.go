// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package internal

import (
	"net"
	"os"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// StatsdClient is the subset of the dogstatsd client used to report health
// metrics of the collection core.
type StatsdClient interface {
	Incr(name string, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

var _ StatsdClient = (*statsd.Client)(nil)

// NewStatsdClient returns a dogstatsd client sending to addr with the given
// global tags.
func NewStatsdClient(addr string, globalTags []string) (StatsdClient, error) {
	client, err := statsd.New(addr, statsd.WithMaxMessagesPerPayload(40), statsd.WithTags(globalTags))
	if err != nil {
		return &statsd.NoOpClient{}, err
	}
	return client, nil
}

// defaultSocketDSD specifies the socket path to use for connecting to the statsd server.
// Replaced in tests
var defaultSocketDSD = "/var/run/datadog/dsd.socket"

// DefaultDogstatsdAddr returns the connection address for Dogstatsd given the
// configured agent host and port, either of which may be empty.
func DefaultDogstatsdAddr(host, port string) string {
	if _, err := os.Stat(defaultSocketDSD); err == nil && host == "" && port == "" {
		// socket exists and user didn't specify otherwise
		return "unix://" + defaultSocketDSD
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "8125"
	}
	return net.JoinHostPort(host, port)
}
