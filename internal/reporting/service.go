package reporting

import (
	"context"
	"errors"
	"time"

	"realty-crm/internal/calls"
	"realty-crm/internal/outcome"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository is the read side of the call record store.
type Repository interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]calls.Record, error)
	ListAppointments(ctx context.Context, from, to time.Time) ([]calls.Record, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CampaignSummary(ctx context.Context, campaignID string) (CampaignSummary, error) {
	if campaignID == "" {
		return CampaignSummary{}, ErrInvalidRequest
	}
	records, err := s.repo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return CampaignSummary{}, err
	}

	out := CampaignSummary{
		CampaignID: campaignID,
		TotalCalls: len(records),
		ByStage: map[outcome.LeadStage]int{
			outcome.StageHot:  0,
			outcome.StageWarm: 0,
			outcome.StageCold: 0,
			outcome.StageNew:  0,
		},
	}
	for _, r := range records {
		switch r.Status {
		case calls.StatusInitiated:
			out.InitiatedCalls++
		case calls.StatusCompleted:
			out.CompletedCalls++
		}
		out.ByStage[r.LeadStage]++
		if r.AppointmentAt != nil {
			out.Appointments++
		}
	}
	if out.TotalCalls > 0 {
		out.ConversionRate = float64(out.ByStage[outcome.StageHot]) / float64(out.TotalCalls)
	}
	return out, nil
}

// Appointments lists booked viewings in [r.From, r.To), earliest first.
func (s *Service) Appointments(ctx context.Context, r TimeRange) ([]Appointment, error) {
	if r.From.IsZero() || r.To.IsZero() || !r.From.Before(r.To) {
		return nil, ErrInvalidRequest
	}
	records, err := s.repo.ListAppointments(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(records))
	for _, rec := range records {
		if rec.AppointmentAt == nil {
			continue
		}
		out = append(out, Appointment{
			CallID:        rec.ExternalCallID,
			CampaignID:    rec.CampaignID,
			ContactName:   rec.ContactName,
			PhoneNumber:   rec.PhoneNumber,
			Email:         rec.Email,
			LeadStage:     rec.LeadStage,
			AppointmentAt: *rec.AppointmentAt,
		})
	}
	return out, nil
}
