package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/eventstore"
)

// SpanRecord is one captured span. Status and EndAttributes are empty until the span is finished.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

type spySpan struct {
	index int
}

func (*spySpan) SetStatus(string)            {}
func (*spySpan) AddAttribute(string, string) {}

// TracingCollectorSpy captures spans started and finished through eventstore.TracingCollector.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []SpanRecord
}

func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, SpanRecord{Name: name, StartAttributes: maps.Clone(attrs)})

	return ctx, &spySpan{index: len(s.spans) - 1}
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*spySpan)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans[span.index].Status = status
	s.spans[span.index].EndAttributes = maps.Clone(attrs)
	s.spans[span.index].Finished = true
}

// Spans returns the spans with the given name in start order.
func (s *TracingCollectorSpy) Spans(name string) []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []SpanRecord

	for _, span := range s.spans {
		if span.Name == name {
			found = append(found, span)
		}
	}

	return found
}
