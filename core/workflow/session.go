package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mucollege/dispatchtrack/core/events"
	"github.com/mucollege/dispatchtrack/core/logger"
	"github.com/mucollege/dispatchtrack/core/metrics"
	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/internal/eventbus"
)

// Session holds the completion state for one operator session. It is owned by
// the session lifetime, handed to handlers explicitly, and discarded when the
// session ends; nothing in it is persisted.
//
// Pending entries are keyed by college id, not dispatch record id, matching
// the behavior this system replaces: two dispatch rows for the same college
// share completion state. See TestSessionSharedCollegeKeying before changing
// the keying.
type Session struct {
	id    string
	store DispatchCompleter
	sink  metrics.Sink
	bus   eventbus.EventBus
	log   logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	recordID  string
	recipient string
}

// NewSession creates a fresh session. Sink, bus and logger may be nil.
func NewSession(store DispatchCompleter, sink metrics.Sink, bus eventbus.EventBus, log logger.Logger) *Session {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Session{
		id:      uuid.NewString(),
		store:   store,
		sink:    sink,
		bus:     bus,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mark records that the operator checked the completion control for the row.
// A pending entry with an empty recipient is created; marking an already
// marked or confirmed row changes nothing.
func (s *Session) Mark(row model.JoinedRow) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[row.CollegeID]; ok {
		if e.recipient != "" {
			return Confirmed
		}
		return NamePending
	}
	s.entries[row.CollegeID] = &entry{recordID: row.ID}
	s.log.Debugw("marked for completion", map[string]any{
		"session": s.id, "college": row.CollegeID, "record": row.ID,
	})
	return Marked
}

// State reports the row's position in the machine for rendering.
func (s *Session) State(row model.JoinedRow) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[row.CollegeID]
	switch {
	case !ok:
		return Unmarked
	case e.recipient == "":
		return NamePending
	default:
		return Confirmed
	}
}

// Recipient returns the confirmed recipient name for the college, if any.
func (s *Session) Recipient(collegeID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[collegeID]
	if !ok || e.recipient == "" {
		return "", false
	}
	return e.recipient, true
}

// Submit confirms the completion: it issues the single status write for the
// pending entry and, on success, moves the entry to its terminal state. The
// write is guarded by the entry still being recipient-empty, so rapid
// repeated submits and view re-renders cannot produce a duplicate patch. On
// failure the entry is unchanged and the operator may submit again.
func (s *Session) Submit(ctx context.Context, collegeID, recipient string) error {
	if recipient == "" {
		return ErrEmptyRecipient
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[collegeID]
	if !ok {
		return ErrNotMarked
	}
	if e.recipient != "" {
		return ErrAlreadyConfirmed
	}

	if err := s.store.CompleteDispatch(ctx, e.recordID, recipient); err != nil {
		s.log.Errorf("complete dispatch %s: %v", e.recordID, err)
		s.recordCompletion(e.recordID, collegeID, recipient, true)
		return fmt.Errorf("complete dispatch %s: %w", e.recordID, err)
	}
	e.recipient = recipient
	s.recordCompletion(e.recordID, collegeID, recipient, false)
	if s.bus != nil {
		s.bus.Publish(events.DispatchCompleted{
			RecordID:    e.recordID,
			CollegeID:   collegeID,
			Recipient:   recipient,
			CompletedAt: time.Now().UTC(),
		})
	}
	return nil
}

func (s *Session) recordCompletion(recordID, collegeID, recipient string, failed bool) {
	err := s.sink.RecordCompletion(metrics.CompletionEvent{
		RecordID:  recordID,
		CollegeID: collegeID,
		Recipient: recipient,
		Failed:    failed,
	})
	if err != nil {
		s.log.Warnf("record completion metric: %v", err)
	}
}
