// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2026 Datadog, Inc.

package event

// InvocationSequence is a node of an invocation tree. The root exclusively
// owns the whole tree: nested sequences are never shared between trees.
type InvocationSequence struct {
	Header

	// Start and End are expressed in milliseconds relative to an arbitrary
	// monotonic origin shared by the whole tree.
	Start float64
	End   float64

	// Nested holds the child invocations, in call order.
	Nested []*InvocationSequence

	// Optional data captured at this node.
	Timer      *Timer
	SQL        *SQLStatement
	Exceptions []*Exception
}

var _ Event = (*InvocationSequence)(nil)

// Kind implements Event.
func (s *InvocationSequence) Kind() Kind { return KindInvocationSequence }

// AddNested appends child to the node's children.
func (s *InvocationSequence) AddNested(child *InvocationSequence) {
	s.Nested = append(s.Nested, child)
}

// Duration returns the wall duration of the invocation. When a timer was
// captured at this node its duration takes precedence.
func (s *InvocationSequence) Duration() float64 {
	switch {
	case s.Timer != nil:
		return s.Timer.Duration
	case s.SQL != nil:
		return s.SQL.Duration
	}
	return s.End - s.Start
}

// NestedDuration returns the summed duration of the direct children.
func (s *InvocationSequence) NestedDuration() float64 {
	var d float64
	for _, n := range s.Nested {
		d += n.Duration()
	}
	return d
}

// ChildCount returns the number of nodes below s.
func (s *InvocationSequence) ChildCount() int64 {
	var c int64
	for _, n := range s.Nested {
		c += 1 + n.ChildCount()
	}
	return c
}

// Walk calls fn for s and every node below it, depth first, in call order.
// Walking stops as soon as fn returns false.
func (s *InvocationSequence) Walk(fn func(*InvocationSequence) bool) bool {
	if !fn(s) {
		return false
	}
	for _, n := range s.Nested {
		if !n.Walk(fn) {
			return false
		}
	}
	return true
}
