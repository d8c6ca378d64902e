// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import "time"

// reportHealthMetrics periodically reports the state of the queue and of the
// sensors, until the service is stopped.
func (s *Service) reportHealthMetrics(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var lastPublished, lastDropped, lastConsumed uint64
	report := func() {
		published, dropped := s.published.Load(), s.dropped.Load()
		consumed := uint64(s.buffer.Consumed())
		s.statsd.Count("datadog.apm_core.events.published", int64(published-lastPublished), nil, 1)
		s.statsd.Count("datadog.apm_core.events.dropped", int64(dropped-lastDropped), nil, 1)
		s.statsd.Count("datadog.apm_core.events.consumed", int64(consumed-lastConsumed), nil, 1)
		lastPublished, lastDropped, lastConsumed = published, dropped, consumed

		s.statsd.Gauge("datadog.apm_core.queue.remaining", float64(s.buffer.Remaining()), nil, 1)
		s.statsd.Gauge("datadog.apm_core.sensors.active", float64(s.scheduler.Active()), nil, 1)
		if s.sender != nil {
			s.statsd.Gauge("datadog.apm_core.transport.sent", float64(s.sender.Sent()), nil, 1)
			s.statsd.Gauge("datadog.apm_core.transport.failed", float64(s.sender.Failed()), nil, 1)
		}
	}
	for {
		select {
		case <-ticker.C:
			report()
		case <-s.stop:
			report()
			return
		}
	}
}
