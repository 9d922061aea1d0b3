package calls

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"realty-crm/internal/outcome"
	"realty-crm/internal/pgtest"
)

func TestPostgresRepo(t *testing.T) {
	db := pgtest.Start(t)
	ctx := context.Background()

	campaignID := uuid.NewString()
	pgtest.SeedCampaign(t, db, campaignID, "", "active")
	repo := NewPostgresRepo(db)

	created := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	rec := Record{
		ID:             uuid.NewString(),
		ExternalCallID: "call-1",
		CampaignID:     campaignID,
		PhoneNumber:    "+15550000001",
		Status:         StatusInitiated,
		LeadStage:      outcome.StageNew,
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	t.Run("create without property or appointment", func(t *testing.T) {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByExternalID(ctx, "call-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.PropertyID != "" || got.AppointmentAt != nil || got.Status != StatusInitiated {
			t.Fatalf("unexpected record: %+v", got)
		}
		if got.CampaignID != campaignID || !got.CreatedAt.Equal(created) {
			t.Fatalf("unexpected linkage: %+v", got)
		}
	})

	t.Run("complete writes the classification", func(t *testing.T) {
		at := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)
		err := repo.Complete(ctx, "call-1", Completion{
			Outcome:       outcome.OutcomeAppointmentScheduled,
			LeadStage:     outcome.StageHot,
			AppointmentAt: &at,
			CompletedAt:   created.Add(2 * time.Minute),
		})
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		got, err := repo.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != StatusCompleted || got.LeadStage != outcome.StageHot || got.AppointmentAt == nil || !got.AppointmentAt.Equal(at) {
			t.Fatalf("unexpected record: %+v", got)
		}

		appts, err := repo.ListAppointments(ctx, at.Add(-time.Hour), at.Add(time.Hour))
		if err != nil || len(appts) != 1 {
			t.Fatalf("appointments: %v %v", appts, err)
		}
	})

	t.Run("complete of unknown call", func(t *testing.T) {
		err := repo.Complete(ctx, "call-missing", Completion{LeadStage: outcome.StageCold, CompletedAt: created})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		if _, err := repo.GetByExternalID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list by campaign", func(t *testing.T) {
		got, err := repo.ListByCampaign(ctx, campaignID)
		if err != nil || len(got) != 1 || got[0].ExternalCallID != "call-1" {
			t.Fatalf("unexpected list: %v %v", got, err)
		}
	})
}
