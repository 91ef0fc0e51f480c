package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/mucollege/dispatchtrack/core/metrics"
)

// PromSink records dispatch-tracking events in Prometheus metrics.
type PromSink struct {
	fetches     *prometheus.CounterVec
	orphans     prometheus.Counter
	completions *prometheus.CounterVec
	ingested    *prometheus.CounterVec
}

// NewPromSink registers the collectors on the provided registerer. If reg is
// nil, the default registerer is used. Already-registered collectors are
// reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_fetches_total",
		Help: "Reconciliation passes against the reference store",
	}, []string{"failed"})
	orphans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_orphan_rows_total",
		Help: "Joined rows whose college foreign key did not resolve",
	})
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_completions_total",
		Help: "Completion submit attempts",
	}, []string{"failed"})
	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_ingest_rows_total",
		Help: "Ingested batch rows by outcome",
	}, []string{"outcome"})

	if err := register(reg, &fetches); err != nil {
		return nil, err
	}
	if err := registerCounter(reg, &orphans); err != nil {
		return nil, err
	}
	if err := register(reg, &completions); err != nil {
		return nil, err
	}
	if err := register(reg, &ingested); err != nil {
		return nil, err
	}
	return &PromSink{fetches: fetches, orphans: orphans, completions: completions, ingested: ingested}, nil
}

func register(reg prometheus.Registerer, vec **prometheus.CounterVec) error {
	if err := reg.Register(*vec); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*vec = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.Counter) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*c = are.ExistingCollector.(prometheus.Counter)
	}
	return nil
}

func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	s.fetches.WithLabelValues(strconv.FormatBool(ev.Failed)).Inc()
	if ev.Orphans > 0 {
		s.orphans.Add(float64(ev.Orphans))
	}
	return nil
}

func (s *PromSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	s.completions.WithLabelValues(strconv.FormatBool(ev.Failed)).Inc()
	return nil
}

func (s *PromSink) RecordIngest(ev coremetrics.IngestEvent) error {
	s.ingested.WithLabelValues("created").Add(float64(ev.Created))
	s.ingested.WithLabelValues("unresolved").Add(float64(ev.Skipped))
	s.ingested.WithLabelValues("failed").Add(float64(ev.Failed))
	return nil
}
