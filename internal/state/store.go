// Package state persists the evaluation history of calckit.
//
// History is opt-in. The engine records one Entry per evaluation when a
// Store is configured and runs without one otherwise.
package state

import (
	"context"
	"time"
)

// Entry is a single recorded evaluation.
type Entry struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Args      []string  `json:"args"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Failed reports whether the evaluation returned an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// Store records and lists evaluations.
type Store interface {
	// Record persists e. An empty ID is replaced with a new UUID and a zero
	// CreatedAt with the current time.
	Record(ctx context.Context, e *Entry) error
	// List returns the most recent entries first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*Entry, error)
	// Clear deletes every entry and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
	Close() error
}
