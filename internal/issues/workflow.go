package issues

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
)

var (
	// ErrInvalidStatus is returned for a status value outside the enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is returned when the requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions lists the target states reachable from each state:
// the pending → in-progress → resolved → closed chain, re-open
// (resolved → in-progress), reset to pending from any state, and
// re-submitting the current status as a no-op.
var transitions = map[models.Status]map[models.Status]bool{
	models.StatusPending: {
		models.StatusPending:    true,
		models.StatusInProgress: true,
	},
	models.StatusInProgress: {
		models.StatusPending:    true,
		models.StatusInProgress: true,
		models.StatusResolved:   true,
	},
	models.StatusResolved: {
		models.StatusPending:    true,
		models.StatusInProgress: true,
		models.StatusResolved:   true,
		models.StatusClosed:     true,
	},
	models.StatusClosed: {
		models.StatusPending: true,
		models.StatusClosed:  true,
	},
}

// CanTransition reports whether an issue may move from one status to another.
func CanTransition(from, to models.Status) bool {
	return transitions[from][to]
}

// ApplyStatus applies a status transition to the issue in place.
//
// Every accepted transition refreshes UpdatedAt. Entering resolved or closed
// from a different state stamps ResolvedAt; a re-submission of the current
// status leaves ResolvedAt untouched, and reopening never clears it. Optional
// resolution notes are recorded when the issue enters resolved or closed.
func ApplyStatus(issue *models.Issue, to models.Status, notes string, assignedTo *uuid.UUID, now time.Time) error {
	if !models.ValidStatus(to) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	from := issue.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	issue.Status = to
	issue.UpdatedAt = now
	if (to == models.StatusResolved || to == models.StatusClosed) && from != to {
		resolved := now
		issue.ResolvedAt = &resolved
		if notes != "" {
			issue.ResolutionNotes = notes
		}
	}
	if assignedTo != nil {
		issue.AssignedTo = assignedTo
	}
	return nil
}
