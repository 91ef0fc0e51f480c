// Package view filters the reconciled dispatch view and drives the
// fetch, reconcile, filter recomputation pass behind every interaction.
package view

import (
	"context"

	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/metrics"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/reconcile"
)

// Snapshot is the output of one recomputation pass: the full joined view and
// the subset matching the active filter. It is what the presentation layer
// renders.
type Snapshot struct {
	Rows     []model.JoinedRow
	Filtered []model.JoinedRow
	Filter   Filter
}

// Engine recomputes the view on demand.
type Engine struct {
	fetcher *reconcile.Fetcher
	sink    metrics.Sink
	log     logger.Logger
}

// NewEngine wires an Engine. Nil sink or logger disable the concern.
func NewEngine(f *reconcile.Fetcher, sink metrics.Sink, log logger.Logger) *Engine {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{fetcher: f, sink: sink, log: log}
}

// Recompute runs one full fetch-reconcile-filter pass. A fetch failure is
// reported to the caller together with an empty snapshot so the session can
// keep rendering; nothing is retried here.
func (e *Engine) Recompute(ctx context.Context, f Filter) (*Snapshot, error) {
	rows, err := e.fetcher.FetchJoined(ctx)
	if err != nil {
		e.log.Errorf("recompute: %v", err)
		if serr := e.sink.RecordFetch(metrics.FetchEvent{Failed: true}); serr != nil {
			e.log.Warnf("record fetch metric: %v", serr)
		}
		return &Snapshot{Rows: []model.JoinedRow{}, Filtered: []model.JoinedRow{}, Filter: f}, err
	}
	orphans := 0
	for _, r := range rows {
		if r.Orphaned {
			orphans++
		}
	}
	if serr := e.sink.RecordFetch(metrics.FetchEvent{Records: len(rows), Orphans: orphans}); serr != nil {
		e.log.Warnf("record fetch metric: %v", serr)
	}
	return &Snapshot{Rows: rows, Filtered: f.Apply(rows), Filter: f}, nil
}
