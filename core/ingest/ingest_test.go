package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
	"github.com/mucollege/dispatchtrack/core/store/storetest"
)

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDedupe(t *testing.T) {
	rows := []Row{
		{CollegeCode: "MED01", CollegeName: "Medical College", ExamDate: date("2024-05-01")},
		{CollegeCode: "MED01", CollegeName: "Medical College", ExamDate: date("2024-05-01")},
		{CollegeCode: "MED01", CollegeName: "Medical College", ExamDate: date("2024-05-02")},
		{CollegeCode: "MED01", CollegeName: "Medical Collage", ExamDate: date("2024-05-01")},
	}
	got := Dedupe(rows)
	// only the full-tuple duplicate is dropped
	assert.Len(t, got, 3)
	assert.Equal(t, rows[0], got[0])
}

func TestRunCreatesPendingRecords(t *testing.T) {
	st := storetest.New()
	st.Colleges = []model.College{{ID: "c1", Code: "MED01", Name: "Medical College"}}
	p := New(st, st, nil, nil, nil)

	report := p.Run(context.Background(), []Row{
		{CollegeCode: "MED01", CollegeName: "Medical College", ExamDate: date("2024-05-01")},
	})
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeCreated, report.Results[0].Outcome)
	assert.Equal(t, "c1", report.Results[0].CollegeID)
	assert.NotEmpty(t, report.Results[0].RecordID)
	assert.NotEmpty(t, report.BatchID)

	require.Len(t, st.Dispatches, 1)
	created := st.Dispatches[0]
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, model.DefaultRemark, created.Remark)
	assert.Equal(t, "2024-05-01", created.ExamDate.String())
}

func TestRunDedupesBeforeRemoteCalls(t *testing.T) {
	st := storetest.New()
	st.Colleges = []model.College{{ID: "c1", Code: "MED01", Name: "Medical College"}}
	p := New(st, st, nil, nil, nil)

	row := Row{CollegeCode: "MED01", CollegeName: "Medical College", ExamDate: date("2024-05-01")}
	report := p.Run(context.Background(), []Row{row, row})

	assert.Len(t, report.Results, 1)
	assert.Equal(t, 1, st.FindCalls)
	assert.Equal(t, 1, st.CreateCalls, "exactly one create for identical rows")
}

func TestRunSkipsUnresolvedAndContinues(t *testing.T) {
	st := storetest.New()
	st.Colleges = []model.College{
		{ID: "c1", Code: "MED01"},
		{ID: "c2", Code: "ENG02"},
	}
	p := New(st, st, nil, nil, nil)

	report := p.Run(context.Background(), []Row{
		{CollegeCode: "MED01", ExamDate: date("2024-05-01")},
		{CollegeCode: "NOPE9", ExamDate: date("2024-05-01")},
		{CollegeCode: "ENG02", ExamDate: date("2024-05-01")},
	})
	assert.Equal(t, 2, report.Created())
	assert.Equal(t, 1, report.Skipped())
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, 2, st.CreateCalls, "unresolved row must not reach create")

	skipped := report.Results[1]
	assert.Equal(t, OutcomeUnresolved, skipped.Outcome)
	assert.Contains(t, skipped.Err, "NOPE9")
}

func TestRunReportsCreateFailures(t *testing.T) {
	st := storetest.New()
	st.Colleges = []model.College{{ID: "c1", Code: "MED01"}}
	st.CreateErr = &store.WriteError{Collection: "dispatch", Status: 500}
	p := New(st, st, nil, nil, nil)

	report := p.Run(context.Background(), []Row{{CollegeCode: "MED01", ExamDate: date("2024-05-01")}})
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeFailed, report.Results[0].Outcome)
	assert.Equal(t, 1, report.Failed())
}

func TestRunEmptyBatch(t *testing.T) {
	st := storetest.New()
	p := New(st, st, nil, nil, nil)
	report := p.Run(context.Background(), nil)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, st.FindCalls)
}
