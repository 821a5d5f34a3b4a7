package booking

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("booking: invalid state transition")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

type Event string

const (
	EventConfirm Event = "CONFIRM"
	EventCancel  Event = "CANCEL"
)

// Transition is the booking state machine: a pure function of the
// current status and the requested event. Cancelled is fully terminal;
// Confirmed may still be cancelled (refund handling is external).
// Re-entering the current state is rejected, the orchestrator decides
// where duplicate requests are tolerated.
func Transition(from Status, ev Event) (Status, error) {
	switch from {
	case StatusPending:
		switch ev {
		case EventConfirm:
			return StatusConfirmed, nil
		case EventCancel:
			return StatusCancelled, nil
		}
	case StatusConfirmed:
		if ev == EventCancel {
			return StatusCancelled, nil
		}
	case StatusCancelled:
		// no way out
	}
	return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, ev)
}

// ValidStatus reports whether s is one of the known statuses; useful
// when decoding persisted documents.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}
