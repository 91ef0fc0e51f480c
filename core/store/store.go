// Package store defines the interfaces the core uses to talk to the
// reference store, and the error taxonomy for remote failures. The HTTP
// implementation lives in infra/refstore.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mucollege/dispatchtrack/core/model"
)

// ErrNotFound is returned when a single-record lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// CollegeStore reads college reference records.
type CollegeStore interface {
	// GetCollege fetches one college by internal id.
	GetCollege(ctx context.Context, id string) (model.College, error)
	// FindCollegeByCode resolves a human-readable short code to a college by
	// exact match. Zero matches yield ErrNotFound.
	FindCollegeByCode(ctx context.Context, code string) (model.College, error)
	// ListColleges fetches the colleges for a set of internal ids in a single
	// request. Ids that match nothing are simply absent from the result.
	ListColleges(ctx context.Context, ids []string) ([]model.College, error)
}

// DispatchStore reads and mutates dispatch records.
type DispatchStore interface {
	ListDispatches(ctx context.Context) ([]model.DispatchRecord, error)
	CreateDispatch(ctx context.Context, d model.NewDispatch) (model.DispatchRecord, error)
	// CompleteDispatch patches the record to status=Complete with the given
	// recipient name. The record is unchanged on failure.
	CompleteDispatch(ctx context.Context, id, recipient string) error
	UpdateRemark(ctx context.Context, id, remark string) error
}

// FetchError is a failed read: non-2xx response or transport error. The core
// surfaces it as "no data available" and continues with an empty view.
type FetchError struct {
	Collection string
	Status     int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Collection, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError is a failed create or patch. The targeted record is unchanged
// from the core's perspective and the operation may be retried by the
// operator.
type WriteError struct {
	Collection string
	ID         string
	Status     int
	Err        error
}

func (e *WriteError) Error() string {
	target := e.Collection
	if e.ID != "" {
		target += "/" + e.ID
	}
	if e.Status != 0 {
		return fmt.Sprintf("write %s: status %d", target, e.Status)
	}
	return fmt.Sprintf("write %s: %v", target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
