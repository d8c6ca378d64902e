// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DataDog/dd-apm-core-go/event"
)

type named struct{}

func (named) Name() string { return "named" }

type anonymous struct{}

func TestName(t *testing.T) {
	assert.Equal(t, "named", Name(named{}))
	assert.Equal(t, "*sensor.anonymous", Name(&anonymous{}))
}

func TestEventSinkFunc(t *testing.T) {
	var got []event.Event
	var sink EventSink = EventSinkFunc(func(ev event.Event) { got = append(got, ev) })
	ev := &event.RuntimeMetric{Name: "x"}
	sink.AddData(ev)
	assert.Equal(t, []event.Event{ev}, got)
}
