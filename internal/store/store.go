// Package store implements the failed-event persistence contract. Every
// method is safe for concurrent use; replays for different rows are
// independent and require no cross-row transactions.
package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by UpdateAttemptedAt/Delete when the row no
// longer exists (it may already have been deleted by a concurrent replay).
var ErrNotFound = errors.New("store: failed event not found")

// FailedEvent is one row of the `failed_event` table.
type FailedEvent struct {
	ID          uint64
	Timestamp   int64 // the decoded event's own timestamp (unix seconds)
	AttemptedAt int64 // unix seconds; advances on every retry
	IMEI        string
	HandlerName string
	EventData   json.RawMessage
}

// Store is the failed-event store contract.
type Store interface {
	// Persist inserts a row with AttemptedAt = now and returns its id.
	Persist(imei, handlerName string, eventData json.RawMessage, eventTimestamp time.Time) (uint64, error)

	// NextFailedImei returns the IMEI of the most recently attempted
	// failed event across the whole store (ORDER BY attempted_at DESC
	// LIMIT 1), or ok=false if the store is empty.
	NextFailedImei() (imei string, ok bool, err error)

	// List returns up to limit failed events for imei. Ordering is stable
	// within a call but otherwise unspecified.
	List(imei string, limit int) ([]FailedEvent, error)

	// UpdateAttemptedAt advances the retry timestamp of row id.
	UpdateAttemptedAt(id uint64, t time.Time) error

	// Delete removes row id.
	Delete(id uint64) error

	// Close releases the underlying storage handle.
	Close() error
}
