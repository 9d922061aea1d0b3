package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is append-only. No Update/Delete methods are provided.
type Repository interface {
	Append(ctx context.Context, e Event) error
	// List returns a campaign's events, oldest first.
	List(ctx context.Context, campaignID string) ([]Event, error)
}

// Service records campaign events.
// Callers treat recording as best-effort and never fail a call flow on it.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrInvalidEvent      = errors.New("audit: invalid event")
	ErrRepoNotConfigured = errors.New("audit: repository not configured")
)

func (s *Service) Record(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return ErrRepoNotConfigured
	}
	if e.Type == "" || (e.CampaignID == "" && e.CallID == "") {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) List(ctx context.Context, campaignID string) ([]Event, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRepoNotConfigured
	}
	if campaignID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.List(ctx, campaignID)
}

func (s *Service) CampaignDeployed(ctx context.Context, campaignID, actorUserID, actorRole string, contacts, initiated int) error {
	return s.Record(ctx, Event{
		Type:        EventCampaignDeployed,
		CampaignID:  campaignID,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		Message:     "campaign deployed",
		Metadata:    metadata(map[string]any{"contacts": contacts, "initiated": initiated}),
	})
}

func (s *Service) InitiationFailed(ctx context.Context, campaignID, phone string, cause error) error {
	return s.Record(ctx, Event{
		Type:       EventInitiationFailed,
		CampaignID: campaignID,
		Message:    "call initiation failed",
		Metadata:   metadata(map[string]any{"phone_number": phone, "error": errText(cause)}),
	})
}

func (s *Service) PersistFailed(ctx context.Context, campaignID, callID string, cause error) error {
	return s.Record(ctx, Event{
		Type:       EventPersistFailed,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "call record could not be saved",
		Metadata:   metadata(map[string]any{"error": errText(cause)}),
	})
}

func (s *Service) ScheduleFailed(ctx context.Context, campaignID, callID string, cause error) error {
	return s.Record(ctx, Event{
		Type:       EventScheduleFailed,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "classification could not be scheduled",
		Metadata:   metadata(map[string]any{"error": errText(cause)}),
	})
}

func (s *Service) ClassificationFailed(ctx context.Context, campaignID, callID string, cause error) error {
	return s.Record(ctx, Event{
		Type:       EventClassificationFailed,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "classification failed",
		Metadata:   metadata(map[string]any{"error": errText(cause)}),
	})
}

func (s *Service) CallCompleted(ctx context.Context, campaignID, callID, leadStage string, appointmentAt *time.Time) error {
	meta := map[string]any{"lead_stage": leadStage}
	if appointmentAt != nil {
		meta["appointment_date"] = appointmentAt.UTC().Format(time.RFC3339)
	}
	return s.Record(ctx, Event{
		Type:       EventCallCompleted,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "call classified",
		Metadata:   metadata(meta),
	})
}

func (s *Service) ReclassifyRequested(ctx context.Context, campaignID, callID, actorUserID, actorRole string) error {
	return s.Record(ctx, Event{
		Type:        EventReclassifyRequested,
		CampaignID:  campaignID,
		CallID:      callID,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		Message:     "reclassification requested",
	})
}

func metadata(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
