// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package globalconfig stores configuration which applies globally to the
// whole process.
package globalconfig

import (
	"sync"

	"github.com/google/uuid"
)

var cfg = &config{
	runtimeID: uuid.New().String(),
}

type config struct {
	mu          sync.RWMutex
	runtimeID   string
	serviceName string
}

// RuntimeID returns this process's unique runtime id.
func RuntimeID() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.runtimeID
}

// ServiceName returns the service name reported by the collection core.
func ServiceName() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()
	return cfg.serviceName
}

// SetServiceName sets the global service name set for this application.
func SetServiceName(name string) {
	cfg.mu.Lock()
	defer cfg.mu.Unlock()
	cfg.serviceName = name
}
