// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

// Package transport delivers consumed events to the collector over HTTP.
package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/internal/ringbuffer"
	"github.com/DataDog/dd-apm-core-go/internal/version"
)

const (
	// payloadSizeLimit specifies the maximum size of a payload. Once reached,
	// the payload is sent even when more events are queued.
	payloadSizeLimit = 4 * 1024 * 1024

	// concurrentConnectionLimit specifies the maximum number of uploads in
	// flight at any time.
	concurrentConnectionLimit = 10

	defaultHTTPTimeout = 10 * time.Second

	eventCountHeader = "X-Datadog-Event-Count"
	platformHeader   = "X-Datadog-Platform-Id"
)

func defaultHeaders(platformID string) map[string]string {
	return map[string]string{
		"Content-Type":                "application/msgpack",
		"Datadog-Meta-Lang":           "go",
		"Datadog-Meta-Lang-Version":   strings.TrimPrefix(runtime.Version(), "go"),
		"Datadog-Meta-Tracer-Version": version.Tag,
		platformHeader:                platformID,
	}
}

// defaultClient is the HTTP client used when none is given.
var defaultClient = &http.Client{
	Timeout: defaultHTTPTimeout,
}

// HTTPSender is a ring buffer handler batching events into msgpack payloads
// which are posted to the collector. Uploads run in the background.
type HTTPSender struct {
	url     string
	client  *http.Client
	headers map[string]string

	payload payload // only used from the consumer goroutine
	climit  chan struct{}
	wg      sync.WaitGroup

	sent   atomic.Uint64 // events delivered
	failed atomic.Uint64 // events lost in failed uploads
}

var (
	_ ringbuffer.Handler = (*HTTPSender)(nil)
	_ ringbuffer.Flusher = (*HTTPSender)(nil)
)

// NewHTTPSender returns a sender posting to <collectorURL>/v1/events. A nil
// client selects a default one.
func NewHTTPSender(collectorURL string, client *http.Client, platformID string) *HTTPSender {
	if client == nil {
		client = defaultClient
	}
	return &HTTPSender{
		url:     strings.TrimSuffix(collectorURL, "/") + "/v1/events",
		client:  client,
		headers: defaultHeaders(platformID),
		climit:  make(chan struct{}, concurrentConnectionLimit),
	}
}

// OnEvent implements ringbuffer.Handler. The payload is sent at the end of a
// batch or once it grows past payloadSizeLimit.
func (s *HTTPSender) OnEvent(ev event.Event, _ int64, endOfBatch bool) {
	if err := s.payload.add(ev); err != nil {
		log.Error("Error encoding %s event: %v", ev.Kind(), err)
	}
	if endOfBatch || s.payload.size() > payloadSizeLimit {
		s.flush()
	}
}

// Flush implements ringbuffer.Flusher. It sends the pending payload and waits
// for every upload in flight.
func (s *HTTPSender) Flush() {
	s.flush()
	s.wg.Wait()
}

// Stop waits for every upload in flight.
func (s *HTTPSender) Stop() {
	s.wg.Wait()
}

// Sent returns the number of events delivered to the collector.
func (s *HTTPSender) Sent() uint64 { return s.sent.Load() }

// Failed returns the number of events lost in failed uploads.
func (s *HTTPSender) Failed() uint64 { return s.failed.Load() }

func (s *HTTPSender) flush() {
	n := s.payload.itemCount()
	if n == 0 {
		return
	}
	buf := s.payload.buffer()
	s.payload.reset()

	s.climit <- struct{}{}
	s.wg.Add(1)
	go func() {
		defer func() {
			<-s.climit
			s.wg.Done()
		}()
		if err := s.send(buf, n); err != nil {
			s.failed.Add(uint64(n))
			log.Error("lost %d events: %v", n, err)
			return
		}
		s.sent.Add(uint64(n))
		log.Debug("sent %d events (%d bytes)", n, buf.Len())
	}()
}

func (s *HTTPSender) send(body *bytes.Buffer, count int) error {
	req, err := http.NewRequest(http.MethodPost, s.url, body)
	if err != nil {
		return fmt.Errorf("cannot create http request: %v", err)
	}
	for header, value := range s.headers {
		req.Header.Set(header, value)
	}
	req.Header.Set(eventCountHeader, strconv.Itoa(count))
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// checkResponse drains and closes the body of resp so the connection can be
// reused, and turns error status codes into errors.
func checkResponse(resp *http.Response) error {
	defer resp.Body.Close()
	if code := resp.StatusCode; code >= 400 {
		// error, check the body for context information and
		// return a nice error.
		msg := make([]byte, 1000)
		n, _ := resp.Body.Read(msg)
		_, _ = io.Copy(io.Discard, resp.Body)
		txt := http.StatusText(code)
		if n > 0 {
			return fmt.Errorf("%s (Status: %s)", msg[:n], txt)
		}
		return fmt.Errorf("%s", txt)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
