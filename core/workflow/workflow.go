// Package workflow drives the per-record completion state machine: an
// operator marks a delivery as done, enters the recipient's name and submits,
// and the workflow issues at most one successful status write per record per
// session.
package workflow

import (
	"context"
	"errors"
	"fmt"
)

// State is the per-record position in the completion machine.
type State int

const (
	// Unmarked: the operator has not checked the completion control.
	Unmarked State = iota
	// Marked: the completion control was just checked and a pending entry
	// recorded. Rendering-wise it is indistinguishable from NamePending.
	Marked
	// NamePending: an entry exists but the recipient name has not been
	// confirmed; no remote write has happened yet.
	NamePending
	// Confirmed: the status write succeeded. Terminal for the session.
	Confirmed
)

func (s State) String() string {
	switch s {
	case Unmarked:
		return "unmarked"
	case Marked:
		return "marked"
	case NamePending:
		return "name_pending"
	case Confirmed:
		return "confirmed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrNotMarked is returned by Submit when no entry exists for the college.
	ErrNotMarked = errors.New("record not marked for completion")
	// ErrAlreadyConfirmed guards against a second write after a successful one.
	ErrAlreadyConfirmed = errors.New("completion already confirmed")
	// ErrEmptyRecipient rejects a submit without a recipient name.
	ErrEmptyRecipient = errors.New("recipient name is empty")
)

// DispatchCompleter is the single store operation the workflow needs.
type DispatchCompleter interface {
	CompleteDispatch(ctx context.Context, id, recipient string) error
}
