package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("calls: record not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Repository persists call records. Implementations must treat Complete as a
// plain overwrite keyed by the external call id (last write wins).
type Repository interface {
	Create(ctx context.Context, r Record) error
	Complete(ctx context.Context, externalCallID string, c Completion) error

	Get(ctx context.Context, id string) (Record, error)
	GetByExternalID(ctx context.Context, externalCallID string) (Record, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]Record, error)
	// ListAppointments returns records with an appointment in [from, to), earliest first.
	ListAppointments(ctx context.Context, from, to time.Time) ([]Record, error)
}

func validateNew(r Record) error {
	if r.ID == "" || r.ExternalCallID == "" || r.CampaignID == "" || r.PhoneNumber == "" {
		return ErrInvalidArgument
	}
	if r.Status != StatusInitiated || !r.LeadStage.Valid() {
		return ErrInvalidArgument
	}
	return nil
}
