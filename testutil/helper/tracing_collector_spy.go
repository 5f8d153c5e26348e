package helper

import (
	"context"
	"sync"

	"github.com/trainmining/delaystats/delaystats"
)

// SpySpanContext implements delaystats.SpanContext for testing tracing functionality.
type SpySpanContext struct {
	status     string
	attributes map[string]string
	mu         sync.Mutex
}

// SetStatus implements the delaystats.SpanContext interface.
func (c *SpySpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// AddAttribute implements the delaystats.SpanContext interface.
func (c *SpySpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}
	c.attributes[key] = value
}

// TracingCollectorSpy is a delaystats.TracingCollector implementation that captures tracing calls.
type TracingCollectorSpy struct {
	spanRecords []SpySpanRecord
	mu          sync.Mutex
}

// SpySpanRecord represents a recorded span.
type SpySpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	SpanContext     *SpySpanContext
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{spanRecords: make([]SpySpanRecord, 0)}
}

// StartSpan implements the delaystats.TracingCollector interface.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, delaystats.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpySpanContext{attributes: make(map[string]string)}

	s.spanRecords = append(s.spanRecords, SpySpanRecord{
		Name:            name,
		StartAttributes: copyLabels(attrs),
		SpanContext:     spanCtx,
	})

	return ctx, spanCtx
}

// FinishSpan implements the delaystats.TracingCollector interface.
func (s *TracingCollectorSpy) FinishSpan(spanCtx delaystats.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spyCtx, ok := spanCtx.(*SpySpanContext)
	if !ok {
		return
	}

	for i := range s.spanRecords {
		if s.spanRecords[i].SpanContext == spyCtx {
			s.spanRecords[i].Status = status
			s.spanRecords[i].EndAttributes = copyLabels(attrs)
			break
		}
	}
}

// SpanRecordMatcher provides a fluent interface for checking span records.
type SpanRecordMatcher struct {
	found  bool
	record SpySpanRecord
}

// HasSpanRecordForName starts a fluent chain to check a span record.
func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.spanRecords {
		if record.Name == name {
			return &SpanRecordMatcher{found: true, record: record}
		}
	}

	return &SpanRecordMatcher{found: false}
}

// WithStatus checks if the span record has the specified status.
func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	if m.found && m.record.Status != status {
		m.found = false
	}

	return m
}

// WithStartAttribute checks if the span record has the specified start attribute.
func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	if !m.found {
		return m
	}

	if attrValue, exists := m.record.StartAttributes[key]; !exists || attrValue != value {
		m.found = false
	}

	return m
}

// WithEndAttribute checks if the span record has the specified end attribute.
func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	if !m.found {
		return m
	}

	if attrValue, exists := m.record.EndAttributes[key]; !exists || attrValue != value {
		m.found = false
	}

	return m
}

// WithSpanStatus checks the status set on the span context while the span was open.
func (m *SpanRecordMatcher) WithSpanStatus(status string) *SpanRecordMatcher {
	if !m.found {
		return m
	}

	m.record.SpanContext.mu.Lock()
	defer m.record.SpanContext.mu.Unlock()

	if m.record.SpanContext.status != status {
		m.found = false
	}

	return m
}

// WithSpanAttribute checks an attribute added to the span context while the span was open.
func (m *SpanRecordMatcher) WithSpanAttribute(key, value string) *SpanRecordMatcher {
	if !m.found {
		return m
	}

	m.record.SpanContext.mu.Lock()
	defer m.record.SpanContext.mu.Unlock()

	if attrValue, exists := m.record.SpanContext.attributes[key]; !exists || attrValue != value {
		m.found = false
	}

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *SpanRecordMatcher) Assert() bool {
	return m.found
}
