package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestService_RecordRequiresTypeAndTarget(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Record(context.Background(), Event{CampaignID: "c"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Record(context.Background(), Event{Type: EventCallCompleted}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_RecordFillsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	now := time.Unix(1700000000, 0)
	svc.clock = func() time.Time { return now }

	if err := svc.InitiationFailed(context.Background(), "camp", "+15551234567", errors.New("status 400")); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || !e.CreatedAt.Equal(now) {
		t.Fatalf("expected id and created_at filled: %+v", e)
	}
	if e.Type != EventInitiationFailed {
		t.Fatalf("unexpected type %q", e.Type)
	}
	if !strings.Contains(e.Metadata, `"error":"status 400"`) || !strings.Contains(e.Metadata, "+15551234567") {
		t.Fatalf("unexpected metadata %s", e.Metadata)
	}
}

func TestService_ListByCampaign(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	appt := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)

	_ = svc.CampaignDeployed(ctx, "camp", "u1", "agent", 2, 1)
	_ = svc.CallCompleted(ctx, "camp", "call-1", "Hot", &appt)
	_ = svc.ClassificationFailed(ctx, "other", "call-2", errors.New("timeout"))

	evs, err := svc.List(ctx, "camp")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].ActorUserID != "u1" || evs[0].Type != EventCampaignDeployed {
		t.Fatalf("unexpected first event %+v", evs[0])
	}
	if !strings.Contains(evs[1].Metadata, "2026-10-16T15:00:00Z") {
		t.Fatalf("expected appointment in metadata, got %s", evs[1].Metadata)
	}
}

func TestService_NilRepo(t *testing.T) {
	var svc *Service
	if err := svc.Record(context.Background(), Event{Type: EventCallCompleted, CallID: "x"}); err != ErrRepoNotConfigured {
		t.Fatalf("expected ErrRepoNotConfigured, got %v", err)
	}
}
