// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"

	"github.com/DataDog/dd-apm-core-go/event"
	"github.com/DataDog/dd-apm-core-go/internal/log"
	"github.com/DataDog/dd-apm-core-go/internal/version"
)

func TestArrayHeader(t *testing.T) {
	for _, n := range []uint64{0, 1, 15, 16, 1<<16 - 1, 1 << 16, 1<<32 - 1} {
		var header [8]byte
		off := arrayHeader(&header, n)
		assert.Equal(t, arrayHeaderSize(n), 8-off)
		got, err := msgp.NewReader(bytes.NewReader(header[off:])).ReadArrayHeader()
		require.NoError(t, err)
		assert.Equal(t, uint32(n), got, "n=%d", n)
	}
}

func TestPayload(t *testing.T) {
	assert := assert.New(t)
	var p payload
	for i := 0; i < 20; i++ {
		require.NoError(t, p.add(&event.RuntimeMetric{Name: "m" + strconv.Itoa(i), Value: float64(i)}))
	}
	assert.Equal(20, p.itemCount())
	buf := p.buffer()
	assert.Equal(p.size(), buf.Len())

	r := msgp.NewReader(buf)
	n, err := r.ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(uint32(20), n)
	for i := 0; i < 20; i++ {
		v, err := r.ReadIntf()
		require.NoError(t, err)
		assert.Equal("m"+strconv.Itoa(i), v.(map[string]interface{})["name"])
	}

	p.reset()
	assert.Equal(0, p.itemCount())
	assert.Equal(1, p.size())
}

type collector struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
	status   int
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.requests = append(c.requests, r)
	c.bodies = append(c.bodies, body)
	status := c.status
	c.mu.Unlock()
	if status != 0 {
		http.Error(w, "collector unavailable", status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func TestSenderBatches(t *testing.T) {
	assert := assert.New(t)
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	s := NewHTTPSender(srv.URL+"/", nil, "platform-1")
	s.OnEvent(&event.RuntimeMetric{Name: "a"}, 0, false)
	s.OnEvent(&event.RuntimeMetric{Name: "b"}, 1, false)
	s.Stop()
	assert.Empty(c.requests, "nothing is sent before the end of a batch")

	s.OnEvent(&event.RuntimeMetric{Name: "c"}, 2, true)
	s.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.requests, 1)
	req := c.requests[0]
	assert.Equal(http.MethodPost, req.Method)
	assert.Equal("/v1/events", req.URL.Path)
	assert.Equal("3", req.Header.Get(eventCountHeader))
	assert.Equal("application/msgpack", req.Header.Get("Content-Type"))
	assert.Equal("platform-1", req.Header.Get(platformHeader))
	assert.Equal(version.Tag, req.Header.Get("Datadog-Meta-Tracer-Version"))

	n, err := msgp.NewReader(bytes.NewReader(c.bodies[0])).ReadArrayHeader()
	require.NoError(t, err)
	assert.Equal(uint32(3), n)
	assert.Equal(uint64(3), s.Sent())
}

func TestSenderFlush(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	s := NewHTTPSender(srv.URL, nil, "p")
	s.OnEvent(&event.RuntimeMetric{Name: "a"}, 0, false)
	s.Flush()
	assert.Equal(t, uint64(1), s.Sent())
	s.Flush() // nothing pending
	c.mu.Lock()
	assert.Len(t, c.requests, 1)
	c.mu.Unlock()
}

func TestSenderSizeLimit(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	s := NewHTTPSender(srv.URL, nil, "p")
	big := strings.Repeat("x", payloadSizeLimit/2)
	for i := 0; i < 3; i++ {
		s.OnEvent(&event.Exception{StackTrace: big}, int64(i), false)
	}
	s.Stop()
	c.mu.Lock()
	assert.Len(t, c.requests, 1, "the payload is sent once it exceeds the limit")
	c.mu.Unlock()
	assert.Equal(t, 1, s.payload.itemCount())
	s.Flush()
	assert.Equal(t, uint64(3), s.Sent())
}

func TestSenderError(t *testing.T) {
	tl := new(log.RecordLogger)
	defer log.UseLogger(tl)()

	c := &collector{status: http.StatusServiceUnavailable}
	srv := httptest.NewServer(c)
	defer srv.Close()

	s := NewHTTPSender(srv.URL, nil, "p")
	s.OnEvent(&event.RuntimeMetric{Name: "a"}, 0, true)
	s.Stop()
	log.Flush()
	assert.Equal(t, uint64(0), s.Sent())
	assert.Equal(t, uint64(1), s.Failed())
	require.NotEmpty(t, tl.Logs())
	assert.Contains(t, tl.Logs()[0], "lost 1 events")
	assert.Contains(t, tl.Logs()[0], "collector unavailable")
}

func TestRegistrar(t *testing.T) {
	c := &collector{}
	srv := httptest.NewServer(c)
	defer srv.Close()

	r := NewHTTPRegistrar(srv.URL, srv.Client(), "platform/1")
	require.NoError(t, r.Unregister(context.Background()))
	c.mu.Lock()
	require.Len(t, c.requests, 1)
	req := c.requests[0]
	c.mu.Unlock()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/v1/platforms/platform%2F1", req.URL.EscapedPath())

	c.mu.Lock()
	c.status = http.StatusNotFound
	c.mu.Unlock()
	assert.Error(t, r.Unregister(context.Background()))
}
