// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package config resolves configuration values from the environment and from
// an optional YAML file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DataDog/dd-apm-core-go/internal/log"
)

// FileEnvVar names the environment variable pointing to the YAML
// configuration file.
const FileEnvVar = "DD_APM_CORE_CONFIG_FILE"

// Source returns the raw value of a key, or the empty string when unset.
type Source interface {
	Get(key string) string
}

// Provider looks up keys in its sources, in order of priority.
type Provider struct {
	sources []Source
}

// NewProvider returns a provider querying sources in the given order.
func NewProvider(sources ...Source) *Provider {
	return &Provider{sources: sources}
}

// Default returns the provider used by the collection core: environment
// variables first, then the file named by DD_APM_CORE_CONFIG_FILE.
func Default() *Provider {
	sources := []Source{EnvSource{}}
	if path := os.Getenv(FileEnvVar); path != "" {
		sources = append(sources, ParseFile(path))
	}
	return NewProvider(sources...)
}

func (p *Provider) lookup(key string) (string, bool) {
	for _, s := range p.sources {
		if v := strings.TrimSpace(s.Get(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

// String returns the value of key or def.
func (p *Provider) String(key, def string) string {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

// Bool returns the boolean value of key or def when unset or unparsable.
func (p *Provider) Bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn("ignoring %s: %v", key, err)
		return def
	}
	return b
}

// Int returns the integer value of key or def. When validate is non-nil and
// rejects the value, def is returned.
func (p *Provider) Int(key string, def int, validate func(int) bool) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Warn("ignoring %s: %v", key, err)
		return def
	}
	if validate != nil && !validate(i) {
		return def
	}
	return i
}

// Millis returns the value of key, expressed in milliseconds, as a duration.
func (p *Provider) Millis(key string, def time.Duration) time.Duration {
	ms := p.Int(key, -1, func(i int) bool {
		if i <= 0 {
			log.Warn("ignoring %s: value must be positive, got %d", key, i)
			return false
		}
		return true
	})
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// EnvSource reads keys from the process environment.
type EnvSource struct{}

// Get implements Source.
func (EnvSource) Get(key string) string { return os.Getenv(key) }

// MapSource reads keys from a map. It is mostly useful in tests.
type MapSource map[string]string

// Get implements Source.
func (m MapSource) Get(key string) string { return m[key] }
