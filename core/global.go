// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package core

import (
	"sync"
	"sync/atomic"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
)

var (
	// mu serializes Start and Stop.
	mu sync.Mutex

	// global is the service used by the package level functions.
	global atomic.Pointer[Service]
)

// Start starts the process wide service with the given options. A service
// already running is stopped first.
func Start(opts ...StartOption) error {
	mu.Lock()
	defer mu.Unlock()
	s, err := NewService(opts...)
	if err != nil {
		return err
	}
	if old := global.Swap(s); old != nil {
		old.Stop()
	}
	s.Start()
	return nil
}

// Stop stops the process wide service. It is a no-op when none is running.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if s := global.Load(); s != nil {
		s.Stop()
	}
	log.Flush()
}

// AddData submits ev to the process wide service. See (*Service).AddData.
func AddData(ev event.Event) {
	if s := global.Load(); s != nil {
		s.AddData(ev)
	}
}

// AddEUMData submits ev to the process wide service. See (*Service).AddEUMData.
func AddEUMData(ev *event.EUM) {
	if s := global.Load(); s != nil {
		s.AddEUMData(ev)
	}
}

// Flush waits until every event submitted to the process wide service before
// the call has been sent. It is meant for short lived processes.
func Flush() {
	if s := global.Load(); s != nil {
		s.Flush()
	}
}
