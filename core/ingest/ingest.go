// Package ingest creates dispatch records in bulk from an uploaded batch,
// resolving college short-codes against the reference store and reporting
// per-row outcomes. Partial success is the expected result; there is no
// rollback.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mucollege/dispatchtrack/core/events"
	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/metrics"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
	"github.com/mucollege/dispatchtrack/internal/eventbus"
)

// Row is one parsed upload row. How the file was parsed (CSV or otherwise)
// is the caller's business; the pipeline only sees this shape.
type Row struct {
	CollegeCode string     `json:"college_code"`
	CollegeName string     `json:"college_name"`
	ExamDate    model.Date `json:"exam_date"`
}

// Outcome classifies what happened to one row.
type Outcome int

const (
	// OutcomeCreated: the dispatch record was created.
	OutcomeCreated Outcome = iota
	// OutcomeUnresolved: the college code matched nothing; the row was skipped.
	OutcomeUnresolved
	// OutcomeFailed: the create request failed at the store.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUnresolved:
		return "unresolved"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// RowResult is the per-row outcome handed back to the operator.
type RowResult struct {
	Row       Row     `json:"row"`
	Outcome   Outcome `json:"outcome"`
	CollegeID string  `json:"college_id,omitempty"`
	RecordID  string  `json:"record_id,omitempty"`
	Err       string  `json:"error,omitempty"`
}

// Report collects the outcomes of one batch.
type Report struct {
	BatchID string      `json:"batch_id"`
	Results []RowResult `json:"results"`
}

func (r *Report) count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

func (r *Report) Created() int { return r.count(OutcomeCreated) }
func (r *Report) Skipped() int { return r.count(OutcomeUnresolved) }
func (r *Report) Failed() int  { return r.count(OutcomeFailed) }

// Dedupe drops exact duplicates of the (code, name, date) tuple, preserving
// first-seen order. Duplicates are removed before any remote call.
func Dedupe(rows []Row) []Row {
	type key struct {
		code, name, date string
	}
	seen := make(map[key]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		k := key{r.CollegeCode, r.CollegeName, r.ExamDate.String()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Pipeline wires the batch creation flow.
type Pipeline struct {
	colleges   store.CollegeStore
	dispatches store.DispatchStore
	sink       metrics.Sink
	bus        eventbus.EventBus
	log        logger.Logger
}

// New wires a Pipeline. Sink, bus and logger may be nil.
func New(cs store.CollegeStore, ds store.DispatchStore, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger) *Pipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Pipeline{colleges: cs, dispatches: ds, sink: sink, bus: bus, log: log}
}

// Run deduplicates the rows, resolves each college code and creates a
// pending dispatch record per resolved row. Rows fail independently; the
// batch always runs to the end.
func (p *Pipeline) Run(ctx context.Context, rows []Row) *Report {
	report := &Report{BatchID: uuid.NewString()}
	for _, row := range Dedupe(rows) {
		report.Results = append(report.Results, p.runRow(ctx, row))
	}
	p.log.Infof("batch %s: %d created, %d unresolved, %d failed",
		report.BatchID, report.Created(), report.Skipped(), report.Failed())
	if err := p.sink.RecordIngest(metrics.IngestEvent{
		BatchID: report.BatchID,
		Created: report.Created(),
		Skipped: report.Skipped(),
		Failed:  report.Failed(),
	}); err != nil {
		p.log.Warnf("record ingest metric: %v", err)
	}
	if p.bus != nil {
		p.bus.Publish(events.BatchIngested{
			BatchID:    report.BatchID,
			Created:    report.Created(),
			Skipped:    report.Skipped(),
			Failed:     report.Failed(),
			FinishedAt: time.Now().UTC(),
		})
	}
	return report
}

func (p *Pipeline) runRow(ctx context.Context, row Row) RowResult {
	res := RowResult{Row: row}
	college, err := p.colleges.FindCollegeByCode(ctx, row.CollegeCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.log.Warnf("no matching college for code %s", row.CollegeCode)
			res.Outcome = OutcomeUnresolved
			res.Err = "no matching college for code " + row.CollegeCode
			return res
		}
		res.Outcome = OutcomeFailed
		res.Err = err.Error()
		return res
	}
	res.CollegeID = college.ID

	rec, err := p.dispatches.CreateDispatch(ctx, model.NewDispatch{
		CollegeID: college.ID,
		ExamDate:  row.ExamDate,
		Status:    model.StatusPending,
		Remark:    model.DefaultRemark,
	})
	if err != nil {
		p.log.Errorf("create dispatch for %s: %v", row.CollegeCode, err)
		res.Outcome = OutcomeFailed
		res.Err = err.Error()
		return res
	}
	res.Outcome = OutcomeCreated
	res.RecordID = rec.ID
	return res
}
