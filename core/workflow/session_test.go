package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mucollege/dispatchtrack/core/events"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
	"github.com/mucollege/dispatchtrack/core/store/storetest"
	"github.com/mucollege/dispatchtrack/internal/eventbus"
)

func row(recordID, collegeID string) model.JoinedRow {
	return model.JoinedRow{
		DispatchRecord: model.DispatchRecord{ID: recordID, CollegeID: collegeID, Status: model.StatusPending},
		CollegeCode:    "MED01",
		CollegeName:    "Medical College",
	}
}

func TestSessionHappyPath(t *testing.T) {
	st := storetest.New()
	s := NewSession(st, nil, nil, nil)
	r := row("d1", "c1")

	assert.Equal(t, Unmarked, s.State(r))
	assert.Equal(t, Marked, s.Mark(r))
	assert.Equal(t, NamePending, s.State(r))
	assert.Equal(t, 0, st.CompleteCalls, "no write before submit")

	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))
	assert.Equal(t, Confirmed, s.State(r))
	name, ok := s.Recipient("c1")
	require.True(t, ok)
	assert.Equal(t, "A. Sharma", name)
	assert.Equal(t, "A. Sharma", st.Completed["d1"])
}

func TestSubmitIsIdempotentPerSession(t *testing.T) {
	st := storetest.New()
	s := NewSession(st, nil, nil, nil)
	r := row("d1", "c1")
	s.Mark(r)

	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))
	err := s.Submit(context.Background(), "c1", "B. Patel")
	require.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.Equal(t, 1, st.CompleteCalls, "second submit must not reach the store")
	assert.Equal(t, "A. Sharma", st.Completed["d1"])
}

func TestMarkAfterConfirmDoesNotReset(t *testing.T) {
	st := storetest.New()
	s := NewSession(st, nil, nil, nil)
	r := row("d1", "c1")
	s.Mark(r)
	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))

	// a view re-render re-fires the checkbox handler
	assert.Equal(t, Confirmed, s.Mark(r))
	assert.Equal(t, Confirmed, s.State(r))
	assert.Equal(t, 1, st.CompleteCalls)
}

func TestSubmitFailureKeepsNamePending(t *testing.T) {
	st := storetest.New()
	st.FailCompleteIDs = map[string]bool{"d1": true}
	s := NewSession(st, nil, nil, nil)
	r := row("d1", "c1")
	s.Mark(r)

	err := s.Submit(context.Background(), "c1", "A. Sharma")
	require.Error(t, err)
	var werr *store.WriteError
	assert.True(t, errors.As(err, &werr))
	assert.Equal(t, NamePending, s.State(r), "failed write must not confirm")

	// operator-initiated retry succeeds once the store recovers
	st.FailCompleteIDs = nil
	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))
	assert.Equal(t, Confirmed, s.State(r))
	assert.Equal(t, 2, st.CompleteCalls)
}

func TestSubmitGuards(t *testing.T) {
	s := NewSession(storetest.New(), nil, nil, nil)
	assert.ErrorIs(t, s.Submit(context.Background(), "c1", ""), ErrEmptyRecipient)
	assert.ErrorIs(t, s.Submit(context.Background(), "c1", "A. Sharma"), ErrNotMarked)
}

func TestSessionSharedCollegeKeying(t *testing.T) {
	// Two dispatch rows for the same college share one pending entry. This
	// mirrors the behavior the system replaces; the subtlety is deliberate
	// and must not be changed without a requirement decision.
	st := storetest.New()
	s := NewSession(st, nil, nil, nil)
	first := row("d1", "c1")
	second := row("d2", "c1")

	s.Mark(first)
	assert.Equal(t, NamePending, s.State(second), "rows for one college share state")

	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))
	assert.Equal(t, Confirmed, s.State(second))
	assert.Equal(t, "A. Sharma", st.Completed["d1"], "write targets the first marked record")
	_, wroteSecond := st.Completed["d2"]
	assert.False(t, wroteSecond)
}

func TestSubmitPublishesCompletionEvent(t *testing.T) {
	st := storetest.New()
	bus := eventbus.New()
	sub := bus.Subscribe()
	s := NewSession(st, nil, bus, nil)
	s.Mark(row("d1", "c1"))
	require.NoError(t, s.Submit(context.Background(), "c1", "A. Sharma"))

	select {
	case ev := <-sub:
		completed, ok := ev.(events.DispatchCompleted)
		require.True(t, ok, "unexpected event %#v", ev)
		assert.Equal(t, "d1", completed.RecordID)
		assert.Equal(t, "A. Sharma", completed.Recipient)
		assert.False(t, completed.CompletedAt.IsZero())
	default:
		t.Fatal("expected a completion event on the bus")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	st := storetest.New()
	a := NewSession(st, nil, nil, nil)
	b := NewSession(st, nil, nil, nil)
	r := row("d1", "c1")

	a.Mark(r)
	assert.Equal(t, Unmarked, b.State(r))
	assert.NotEqual(t, a.ID(), b.ID())
}
