package calls

import (
	"context"
	"testing"
	"time"

	"realty-crm/internal/outcome"
)

func newRecord(id, ext, campaign string, created time.Time) Record {
	return Record{
		ID:             id,
		ExternalCallID: ext,
		CampaignID:     campaign,
		ContactName:    "Jane",
		PhoneNumber:    "+15551234567",
		Status:         StatusInitiated,
		LeadStage:      outcome.StageNew,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestMemoryRepo_CreateValidates(t *testing.T) {
	repo := NewMemoryRepo()
	bad := newRecord("r1", "", "camp", time.Now())
	if err := repo.Create(context.Background(), bad); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	completed := newRecord("r1", "b1", "camp", time.Now())
	completed.Status = StatusCompleted
	if err := repo.Create(context.Background(), completed); err != ErrInvalidArgument {
		t.Fatalf("expected records to start initiated, got %v", err)
	}
}

func TestMemoryRepo_CompleteIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo()
	if err := repo.Create(ctx, newRecord("r1", "b1", "camp", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Complete(ctx, "b1", Completion{Outcome: "first", LeadStage: outcome.StageWarm, CompletedAt: now}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := repo.Complete(ctx, "b1", Completion{Outcome: "second", LeadStage: outcome.StageCold, CompletedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	r, err := repo.GetByExternalID(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if r.Status != StatusCompleted || r.Outcome != "second" || r.LeadStage != outcome.StageCold {
		t.Fatalf("unexpected record: %+v", r)
	}

	if err := repo.Complete(ctx, "missing", Completion{LeadStage: outcome.StageCold}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_ListAppointmentsInRange(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	early, late, outside := base.Add(9*time.Hour), base.Add(15*time.Hour), base.Add(48*time.Hour)

	repo := NewMemoryRepo()
	for i, at := range []*time.Time{&late, nil, &early, &outside} {
		r := newRecord(string(rune('a'+i)), string(rune('A'+i)), "camp", base)
		r.AppointmentAt = at
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.ListAppointments(ctx, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || !got[0].AppointmentAt.Equal(early) || !got[1].AppointmentAt.Equal(late) {
		t.Fatalf("expected early then late, got %+v", got)
	}
}

func TestMemoryRepo_ListByCampaignNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()
	repo := NewMemoryRepo(
		newRecord("r1", "b1", "camp", now),
		newRecord("r2", "b2", "other", now),
		newRecord("r3", "b3", "camp", now.Add(time.Minute)),
	)
	got, err := repo.ListByCampaign(ctx, "camp")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r3" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
