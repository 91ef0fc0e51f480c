// Package storetest provides an in-memory reference store for unit tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mucollege/dispatchtrack/core/model"
	"github.com/mucollege/dispatchtrack/core/store"
)

// Store implements store.CollegeStore and store.DispatchStore in memory,
// with per-operation error injection and call counting.
type Store struct {
	mu         sync.Mutex
	Colleges   []model.College
	Dispatches []model.DispatchRecord

	ListErr     error
	CollegesErr error
	FindErr     error
	CreateErr   error
	CompleteErr error

	// FailCompleteIDs makes CompleteDispatch fail for specific record ids.
	FailCompleteIDs map[string]bool

	ListCalls     int
	CollegesCalls int
	FindCalls     int
	CreateCalls   int
	CompleteCalls int

	Completed map[string]string // record id -> recipient
	nextID    int
}

func New() *Store {
	return &Store{Completed: map[string]string{}}
}

func (s *Store) GetCollege(_ context.Context, id string) (model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Colleges {
		if c.ID == id {
			return c, nil
		}
	}
	return model.College{}, store.ErrNotFound
}

func (s *Store) FindCollegeByCode(_ context.Context, code string) (model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FindCalls++
	if s.FindErr != nil {
		return model.College{}, s.FindErr
	}
	for _, c := range s.Colleges {
		if c.Code == code {
			return c, nil
		}
	}
	return model.College{}, store.ErrNotFound
}

func (s *Store) ListColleges(_ context.Context, ids []string) ([]model.College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CollegesCalls++
	if s.CollegesErr != nil {
		return nil, s.CollegesErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.College
	for _, c := range s.Colleges {
		if want[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListDispatches(_ context.Context) ([]model.DispatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]model.DispatchRecord, len(s.Dispatches))
	copy(out, s.Dispatches)
	return out, nil
}

func (s *Store) CreateDispatch(_ context.Context, d model.NewDispatch) (model.DispatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.CreateErr != nil {
		return model.DispatchRecord{}, s.CreateErr
	}
	s.nextID++
	rec := model.DispatchRecord{
		ID:        fmt.Sprintf("rec%d", s.nextID),
		CollegeID: d.CollegeID,
		ExamDate:  d.ExamDate,
		Status:    d.Status,
		Remark:    d.Remark,
	}
	s.Dispatches = append(s.Dispatches, rec)
	return rec, nil
}

func (s *Store) CompleteDispatch(_ context.Context, id, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CompleteCalls++
	if s.CompleteErr != nil {
		return s.CompleteErr
	}
	if s.FailCompleteIDs[id] {
		return &store.WriteError{Collection: "dispatch", ID: id, Status: 500}
	}
	for i, rec := range s.Dispatches {
		if rec.ID == id {
			s.Dispatches[i].Status = model.StatusComplete
			s.Dispatches[i].Recipient = recipient
			s.Completed[id] = recipient
			return nil
		}
	}
	s.Completed[id] = recipient
	return nil
}

func (s *Store) UpdateRemark(_ context.Context, id, remark string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.Dispatches {
		if rec.ID == id {
			s.Dispatches[i].Remark = remark
			return nil
		}
	}
	return &store.WriteError{Collection: "dispatch", ID: id, Status: 404, Err: store.ErrNotFound}
}
