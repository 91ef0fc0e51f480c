package metrics

import (
	"errors"

	coremetrics "github.com/mucollege/dispatchtrack/core/metrics"
)

// MultiSink fans events out to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink builds a MultiSink from the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordFetch(ev coremetrics.FetchEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordFetch(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordCompletion(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordIngest(ev coremetrics.IngestEvent) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.RecordIngest(ev))
	}
	return errors.Join(errs...)
}
