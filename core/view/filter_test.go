package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/reconcile"
	"github.com/mucollege/dispatchtrack/core/store"
	"github.com/mucollege/dispatchtrack/core/store/storetest"
)

func newFetcher(st *storetest.Store) *reconcile.Fetcher {
	return reconcile.NewFetcher(st, st, nil)
}

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleRows() []model.JoinedRow {
	return []model.JoinedRow{
		{
			DispatchRecord: model.DispatchRecord{ID: "d1", CollegeID: "c1", ExamDate: date("2024-05-01")},
			CollegeCode:    "MED01", CollegeName: "Medical College", RouteCode: "R1", RouteName: "North",
		},
		{
			DispatchRecord: model.DispatchRecord{ID: "d2", CollegeID: "c2", ExamDate: date("2024-05-01")},
			CollegeCode:    "ENG02", CollegeName: "Engineering College", RouteCode: "R2", RouteName: "South",
		},
		{
			DispatchRecord: model.DispatchRecord{ID: "d3", CollegeID: "c1", ExamDate: date("2024-05-02")},
			CollegeCode:    "MED01", CollegeName: "Medical College", RouteCode: "R1", RouteName: "North",
		},
	}
}

func TestZeroFilterReturnsInputUnchanged(t *testing.T) {
	rows := sampleRows()
	f := Filter{}
	assert.True(t, f.IsZero())
	assert.Equal(t, rows, f.Apply(rows))
}

func TestFilterScenario(t *testing.T) {
	rows := []model.JoinedRow{
		{
			DispatchRecord: model.DispatchRecord{ID: "d1", CollegeID: "c1", ExamDate: date("2024-05-01"), Status: model.StatusPending},
			CollegeCode:    "MED01", RouteCode: "R1",
		},
	}
	d := date("2024-05-01")
	got := Filter{ExamDate: &d, RouteCode: "R1"}.Apply(rows)
	require.Len(t, got, 1)
	assert.Equal(t, "d1", got[0].ID)

	assert.Empty(t, Filter{RouteCode: "R2"}.Apply(rows))
}

func TestFilterExactMatchOnly(t *testing.T) {
	rows := sampleRows()
	// substring of a real code must not match
	assert.Empty(t, Filter{CollegeCode: "MED"}.Apply(rows))
	assert.Len(t, Filter{CollegeCode: "MED01"}.Apply(rows), 2)
}

func TestFilterConjunctionComposes(t *testing.T) {
	rows := sampleRows()
	d := date("2024-05-01")
	f1 := Filter{ExamDate: &d}
	f2 := Filter{RouteCode: "R1"}
	both := Filter{ExamDate: &d, RouteCode: "R1"}

	assert.Equal(t, both.Apply(rows), f2.Apply(f1.Apply(rows)))
	assert.Equal(t, both.Apply(rows), f1.Apply(f2.Apply(rows)))
}

func TestFilteredToEmptyIsNotZero(t *testing.T) {
	f := Filter{RouteCode: "R9"}
	assert.False(t, f.IsZero())
	assert.Empty(t, f.Apply(sampleRows()))
}

func TestRoutesAndCollegeCodes(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, []string{"R1", "R2"}, Routes(rows))
	assert.Equal(t, []string{"MED01", "ENG02"}, CollegeCodes(rows))
}

func TestRecomputeAppliesFilter(t *testing.T) {
	st := storetest.New()
	st.Colleges = []model.College{
		{ID: "c1", Code: "MED01", Name: "Medical College", RouteCode: "R1"},
		{ID: "c2", Code: "ENG02", Name: "Engineering College", RouteCode: "R2"},
	}
	st.Dispatches = []model.DispatchRecord{
		{ID: "d1", CollegeID: "c1", ExamDate: date("2024-05-01")},
		{ID: "d2", CollegeID: "c2", ExamDate: date("2024-05-01")},
	}
	e := NewEngine(newFetcher(st), nil, nil)

	snap, err := e.Recompute(context.Background(), Filter{RouteCode: "R1"})
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 2)
	require.Len(t, snap.Filtered, 1)
	assert.Equal(t, "d1", snap.Filtered[0].ID)
}

func TestRecomputeFetchFailureYieldsEmptySnapshot(t *testing.T) {
	st := storetest.New()
	st.ListErr = &store.FetchError{Collection: "dispatch", Status: 503}
	e := NewEngine(newFetcher(st), nil, nil)

	snap, err := e.Recompute(context.Background(), Filter{})
	require.Error(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Rows)
	assert.Empty(t, snap.Filtered)
}
