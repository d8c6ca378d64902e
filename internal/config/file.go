// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/DataDog/dd-apm-core-go/internal/log"
	"gopkg.in/yaml.v3"
)

// FileSource holds the keys read from a YAML configuration file of the form:
//
//	apm_core:
//	  DD_APM_CORE_RING_BUFFER_CAPACITY: 2048
//	  DD_APM_CORE_REFRESH_INTERVAL_MS: 500
type FileSource struct {
	Config map[string]string `yaml:"apm_core,omitempty"`
}

// Get implements Source.
func (f *FileSource) Get(key string) string {
	return f.Config[key]
}

func (f *FileSource) isEmpty() bool {
	return len(f.Config) == 0
}

func emptyFileSource() *FileSource {
	return &FileSource{Config: make(map[string]string)}
}

// ParseFile reads the YAML file at filePath. A missing or invalid file yields
// an empty source.
func ParseFile(filePath string) *FileSource {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Reading config file %s failed: %v", filePath, err)
		}
		return emptyFileSource()
	}
	return fileContentsToSource(data, filePath)
}

func fileContentsToSource(data []byte, fileName string) *FileSource {
	var src FileSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		log.Warn("Parsing config file %s failed due to error: %v", fileName, err)
		return emptyFileSource()
	}
	if src.Config == nil {
		return emptyFileSource()
	}
	for k := range src.Config {
		if !strings.HasPrefix(k, "DD_") {
			log.Warn("Ignoring unknown key %q in config file %s", k, fileName)
			delete(src.Config, k)
		}
	}
	return &src
}
