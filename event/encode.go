// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package event

import (
	"time"

	"github.com/tinylib/msgp/msgp"
)

// Every event is encoded as a msgpack map. The first entries are always
// "kind" followed by the header fields; variant fields come after.

const headerFieldCount = 5

const (
	timerFieldCount      = 11
	httpFieldCount       = 4
	sqlFieldCount        = 4
	cpuFieldCount        = 5
	exceptionFieldCount  = 5
	eumFieldCount        = 6
	runtimeFieldCount    = 2
	invocationFieldCount = 6
)

// fieldWriter writes key/value pairs and keeps the first error it encounters,
// turning every following write into a no-op.
type fieldWriter struct {
	w   *msgp.Writer
	err error
}

func (f *fieldWriter) key(k string) bool {
	if f.err != nil {
		return false
	}
	f.err = f.w.WriteString(k)
	return f.err == nil
}

func (f *fieldWriter) str(k, v string) {
	if f.key(k) {
		f.err = f.w.WriteString(v)
	}
}

func (f *fieldWriter) i64(k string, v int64) {
	if f.key(k) {
		f.err = f.w.WriteInt64(v)
	}
}

func (f *fieldWriter) f64(k string, v float64) {
	if f.key(k) {
		f.err = f.w.WriteFloat64(v)
	}
}

func (f *fieldWriter) boolean(k string, v bool) {
	if f.key(k) {
		f.err = f.w.WriteBool(v)
	}
}

func (f *fieldWriter) time(k string, v time.Time) {
	if f.key(k) {
		f.err = f.w.WriteTime(v)
	}
}

func (f *fieldWriter) strs(k string, v []string) {
	if !f.key(k) {
		return
	}
	if f.err = f.w.WriteArrayHeader(uint32(len(v))); f.err != nil {
		return
	}
	for _, s := range v {
		if f.err = f.w.WriteString(s); f.err != nil {
			return
		}
	}
}

// value writes k followed by the encoding of e, or nil when e is nil.
func (f *fieldWriter) value(k string, e msgp.Encodable, isNil bool) {
	if !f.key(k) {
		return
	}
	if isNil {
		f.err = f.w.WriteNil()
		return
	}
	f.err = e.EncodeMsg(f.w)
}

func (f *fieldWriter) begin(k Kind, h *Header, fields uint32) {
	if f.err = f.w.WriteMapHeader(headerFieldCount + fields); f.err != nil {
		return
	}
	if f.key("kind") {
		f.err = f.w.WriteUint8(uint8(k))
	}
	f.i64("platform_ident", h.PlatformIdent)
	f.i64("sensor_type_ident", h.SensorTypeIdent)
	f.i64("method_ident", h.MethodIdent)
	f.time("timestamp", h.Timestamp)
}

func (f *fieldWriter) timer(t *Timer) {
	f.i64("count", t.Count)
	f.f64("duration", t.Duration)
	f.f64("min", t.Min)
	f.f64("max", t.Max)
	f.f64("cpu_duration", t.CPUDuration)
	f.f64("cpu_min", t.CPUMin)
	f.f64("cpu_max", t.CPUMax)
	f.i64("exclusive_count", t.ExclusiveCount)
	f.f64("exclusive_duration", t.ExclusiveDuration)
	f.f64("exclusive_min", t.ExclusiveMin)
	f.f64("exclusive_max", t.ExclusiveMax)
}

// EncodeMsg implements msgp.Encodable.
func (t *Timer) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(t.Kind(), &t.Header, timerFieldCount)
	f.timer(t)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (t *HTTPTimer) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(t.Kind(), &t.Header, timerFieldCount+httpFieldCount)
	f.timer(&t.Timer)
	f.str("uri", t.URI)
	f.str("request_method", t.RequestMethod)
	f.i64("response_status", int64(t.ResponseStatus))
	f.str("tagging_header", t.TaggingHeader)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (s *SQLStatement) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(s.Kind(), &s.Header, timerFieldCount+sqlFieldCount)
	f.timer(&s.Timer)
	f.str("sql", s.SQL)
	f.boolean("prepared", s.Prepared)
	f.strs("parameters", s.Parameters)
	f.str("database_url", s.DatabaseURL)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (c *CPUInformation) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(c.Kind(), &c.Header, cpuFieldCount)
	f.i64("count", int64(c.Count))
	f.i64("process_cpu_time", c.ProcessCPUTime)
	f.f64("min_cpu_usage", c.MinCPUUsage)
	f.f64("max_cpu_usage", c.MaxCPUUsage)
	f.f64("total_cpu_usage", c.TotalCPUUsage)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (e *Exception) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(e.Kind(), &e.Header, exceptionFieldCount)
	f.i64("event_type", int64(e.EventType))
	f.str("throwable_type", e.ThrowableType)
	f.str("error_message", e.ErrorMessage)
	f.str("cause", e.Cause)
	f.str("stack_trace", e.StackTrace)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (e *EUM) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(e.Kind(), &e.Header, eumFieldCount)
	f.i64("type", int64(e.Type))
	f.i64("session_id", e.SessionID)
	f.i64("tab_id", e.TabID)
	f.i64("beacon_id", e.BeaconID)
	f.str("url", e.URL)
	f.f64("duration", e.Duration)
	return f.err
}

// EncodeMsg implements msgp.Encodable.
func (m *RuntimeMetric) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(m.Kind(), &m.Header, runtimeFieldCount)
	f.str("name", m.Name)
	f.f64("value", m.Value)
	return f.err
}

// EncodeMsg implements msgp.Encodable. The whole tree below s is encoded.
func (s *InvocationSequence) EncodeMsg(w *msgp.Writer) error {
	f := fieldWriter{w: w}
	f.begin(s.Kind(), &s.Header, invocationFieldCount)
	f.f64("start", s.Start)
	f.f64("end", s.End)
	f.value("timer", s.Timer, s.Timer == nil)
	f.value("sql", s.SQL, s.SQL == nil)
	if f.key("exceptions") {
		if f.err = w.WriteArrayHeader(uint32(len(s.Exceptions))); f.err == nil {
			for _, e := range s.Exceptions {
				if f.err = e.EncodeMsg(w); f.err != nil {
					break
				}
			}
		}
	}
	if f.key("nested") {
		if f.err = w.WriteArrayHeader(uint32(len(s.Nested))); f.err == nil {
			for _, n := range s.Nested {
				if f.err = n.EncodeMsg(w); f.err != nil {
					break
				}
			}
		}
	}
	return f.err
}
