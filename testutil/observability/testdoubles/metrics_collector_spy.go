package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MetricRecord is one captured call. Duration is set for durations, Value for gauges.
type MetricRecord struct {
	Kind     string
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
	Context  bool
}

const (
	KindDuration = "duration"
	KindCounter  = "counter"
	KindValue    = "value"
)

// MetricsCollectorSpy captures calls of both the plain and the contextual metrics contract.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.add(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.add(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.add(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordDurationContext(
	_ context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	s.add(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels, Context: true})
}

func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.add(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels, Context: true})
}

func (s *MetricsCollectorSpy) RecordValueContext(
	_ context.Context,
	metric string,
	value float64,
	labels map[string]string,
) {

	s.add(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels, Context: true})
}

// Records returns a copy of all captured records in call order.
func (s *MetricsCollectorSpy) Records() []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]MetricRecord, len(s.records))
	copy(records, s.records)

	return records
}

// Find returns the records of one kind and metric whose labels contain all the given labels.
func (s *MetricsCollectorSpy) Find(kind, metric string, labels map[string]string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []MetricRecord

	for _, record := range s.records {
		if record.Kind != kind || record.Metric != metric || !containsLabels(record.Labels, labels) {
			continue
		}

		found = append(found, record)
	}

	return found
}

// CountCounter sums the increments of a counter whose labels contain the given labels.
func (s *MetricsCollectorSpy) CountCounter(metric string, labels map[string]string) int {
	return len(s.Find(KindCounter, metric, labels))
}

// LastValue returns the most recent gauge value for a metric.
func (s *MetricsCollectorSpy) LastValue(metric string) (float64, bool) {
	values := s.Find(KindValue, metric, nil)
	if len(values) == 0 {
		return 0, false
	}

	return values[len(values)-1].Value, true
}

func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

func (s *MetricsCollectorSpy) add(record MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Labels = maps.Clone(record.Labels)
	s.records = append(s.records, record)
}

func containsLabels(actual, wanted map[string]string) bool {
	for key, value := range wanted {
		if actual[key] != value {
			return false
		}
	}

	return true
}
