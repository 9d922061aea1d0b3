package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidTask    = errors.New("schedule: task requires call_id and due_at")
	ErrAlreadyStarted = errors.New("schedule: already started")
)

// Task is one pending classification pass.
type Task struct {
	CallID     string    `json:"call_id"`
	CampaignID string    `json:"campaign_id,omitempty"`
	DueAt      time.Time `json:"due_at"`
}

func (t Task) valid() bool {
	return t.CallID != "" && !t.DueAt.IsZero()
}

// RunFunc executes a due task. Its errors are the caller's to log.
type RunFunc func(ctx context.Context, t Task)

// Store persists pending tasks so they survive a restart.
type Store interface {
	Put(ctx context.Context, t Task) error
	// Delete removes the task for callID and reports whether one existed.
	Delete(ctx context.Context, callID string) (bool, error)
	// List returns every task not yet claimed, ordered by due time.
	List(ctx context.Context) ([]Task, error)
	// Claim takes a due task for one run. Exactly one caller gets true per Put,
	// however many schedulers share the store.
	Claim(ctx context.Context, callID string) (bool, error)
	// Done forgets a claimed task unless it was Put again since the claim.
	Done(ctx context.Context, callID string) error
}
