package calls

import (
	"context"
	"time"

	"realty-crm/internal/outcome"
)

// Completer is the write side the Updater needs.
type Completer interface {
	Complete(ctx context.Context, externalCallID string, c Completion) error
}

// Updater writes a classification result onto its call record.
// It issues exactly one Complete per Apply and never retries.
type Updater struct {
	store Completer
	clock func() time.Time
}

func NewUpdater(store Completer) *Updater {
	return &Updater{store: store, clock: time.Now}
}

func (u *Updater) Apply(ctx context.Context, externalCallID string, res outcome.Result, summary string) (Completion, error) {
	if externalCallID == "" {
		return Completion{}, ErrInvalidArgument
	}
	c := Completion{
		Outcome:       outcome.Outcome(res, summary),
		LeadStage:     res.LeadStage,
		AppointmentAt: res.AppointmentAt,
		CompletedAt:   u.clock().UTC(),
	}
	if err := u.store.Complete(ctx, externalCallID, c); err != nil {
		return Completion{}, err
	}
	return c, nil
}
