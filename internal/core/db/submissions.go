package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/tpaconsole/internal/types"
)

// Outcome classifies how the upstream backend answered a submission.
type Outcome string

const (
	// OutcomeAccepted means the backend returned 2xx.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected means the backend answered with a non-2xx status.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the backend could not be reached.
	OutcomeFailed Outcome = "failed"
)

// Journal list bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Submission is one journaled rule submission.
// Payload holds the compiled JSON exactly as sent upstream.
type Submission struct {
	ID             types.SubmissionID `db:"submission_id"`
	ClientID       string             `db:"client_id"`
	RuleName       string             `db:"rule_name"`
	Scope          string             `db:"scope"`
	RuleStatus     string             `db:"rule_status"`
	Payload        string             `db:"payload"`
	Outcome        Outcome            `db:"outcome"`
	UpstreamStatus int                `db:"upstream_status"`
	ErrorMessage   *string            `db:"error_message"`
	CreatedAt      time.Time          `db:"created_at"`
}

// Journal records compiled rule submissions for audit.
// Safe for concurrent use; all state lives in the database.
type Journal struct {
	queries *Queries
}

// NewJournal creates a journal over loaded named queries.
func NewJournal(queries *Queries) *Journal {
	return &Journal{queries: queries}
}

// Record inserts s, assigning an ID and timestamp when absent.
func (j *Journal) Record(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = types.NewSubmissionID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	switch s.Outcome {
	case OutcomeAccepted, OutcomeRejected, OutcomeFailed:
	default:
		return fmt.Errorf("invalid submission outcome %q", s.Outcome)
	}

	_, err := j.queries.ExecContext(ctx, "insert-submission",
		string(s.ID), s.ClientID, s.RuleName, s.Scope, s.RuleStatus,
		s.Payload, string(s.Outcome), s.UpstreamStatus, s.ErrorMessage, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record submission %s: %w", s.ID, err)
	}
	return nil
}

// Get returns one submission or types.ErrNotFound.
func (j *Journal) Get(ctx context.Context, id types.SubmissionID) (*Submission, error) {
	var s Submission
	err := j.queries.GetContext(ctx, "get-submission", &s, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return &s, nil
}

// List returns the newest submissions first, optionally filtered by outcome.
// limit is clamped to [1, MaxListLimit]; 0 means DefaultListLimit.
func (j *Journal) List(ctx context.Context, outcome Outcome, limit int) ([]Submission, error) {
	limit = clampLimit(limit)

	out := []Submission{}
	var err error
	if outcome == "" {
		err = j.queries.SelectContext(ctx, "list-submissions", &out, limit)
	} else {
		err = j.queries.SelectContext(ctx, "list-submissions-by-outcome", &out, string(outcome), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
