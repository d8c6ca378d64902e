// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HTTPRegistrar unregisters the agent from the collector.
type HTTPRegistrar struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// NewHTTPRegistrar returns a registrar for the given platform. A nil client
// selects a default one.
func NewHTTPRegistrar(collectorURL string, client *http.Client, platformID string) *HTTPRegistrar {
	if client == nil {
		client = defaultClient
	}
	return &HTTPRegistrar{
		url:     strings.TrimSuffix(collectorURL, "/") + "/v1/platforms/" + url.PathEscape(platformID),
		client:  client,
		headers: defaultHeaders(platformID),
	}
}

// Unregister tells the collector that the platform is going away.
func (r *HTTPRegistrar) Unregister(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.url, nil)
	if err != nil {
		return fmt.Errorf("cannot create http request: %v", err)
	}
	for header, value := range r.headers {
		if header == "Content-Type" {
			continue
		}
		req.Header.Set(header, value)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("unregistering platform: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("unregistering platform: %w", err)
	}
	return nil
}
