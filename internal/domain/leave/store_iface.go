package leave

import (
	"context"
	"time"
)

// RecordStore is the canonical home of leave records. Successful writes are
// visible to queries on the same store instance as soon as the call
// returns. Transition is atomic with respect to the pending-status check:
// of two concurrent transitions on one record, exactly one succeeds.
type RecordStore interface {
	// Insert admits a new record. It fails with a ValidationError when the
	// record violates Record.Validate and with ErrDuplicateRecord on id
	// collision.
	Insert(ctx context.Context, rec Record) error

	// Get fails with ErrRecordNotFound for unknown ids.
	Get(ctx context.Context, id string) (Record, error)

	// Transition moves a pending record into a terminal status, setting
	// approver and approval time in the same step. It fails with
	// ErrRecordNotFound for unknown ids and with a TransitionError when the
	// record already left pending, including when a concurrent caller won.
	Transition(ctx context.Context, id string, next Status, approver string, at time.Time) (Record, error)

	// Query returns the records matching every present filter field,
	// ordered by application time descending with ties by id ascending.
	Query(ctx context.Context, f Filter) ([]Record, error)
}
