// Package sessionstore persists solving-session transcripts (Stage 1-3
// artifacts, outcome, retry counts, timing) for offline benchmark analysis —
// the Go analogue of the original implementation's benchmark/apis result
// recording.
package sessionstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a solving session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSolved    Status = "solved"
	StatusFailed    Status = "failed"
)

// SessionRecord is a persisted transcript of one solving session.
type SessionRecord struct {
	ID uuid.UUID

	Kind      string
	Objective string
	Status    Status
	ErrorMsg  string

	// Stage2Plan and Stage3Program hold the raw validated JSON of the
	// Structure Abstraction plan and the Solution Composition program, kept
	// for offline benchmark analysis of what a session actually decided to
	// do. internal/stages' orchestrators return only an error on success
	// (their signatures are fixed by spec.md), so no current caller in this
	// module populates these; they exist so a future caller with access to
	// the validated stage2.Plan/stage3.Program values has somewhere to put
	// them without a schema migration.
	Stage2Plan    map[string]any
	Stage3Program map[string]any

	Stage1Retries int
	Stage2Retries int
	Stage3Retries int

	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns how long the session ran, or the time elapsed so far if
// it hasn't finished.
func (r *SessionRecord) Duration() time.Duration {
	end := time.Now()
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.StartedAt)
}

// Store is the persistence surface both BunSessionStore and
// MemorySessionStore satisfy.
type Store interface {
	Save(ctx context.Context, r *SessionRecord) error
	Get(ctx context.Context, id uuid.UUID) (*SessionRecord, error)
	List(ctx context.Context) ([]*SessionRecord, error)
}
