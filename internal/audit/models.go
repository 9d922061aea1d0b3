package audit

import "time"

// Event is an append-only record of something that happened to a campaign or call.
// Events are never updated or deleted. Actor fields are empty for system events.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`
	// CallID is the calling service's call id when the event concerns one call.
	CallID string `json:"call_id,omitempty" db:"call_id"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// Message is a short human-readable description for operators.
	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventCampaignDeployed     EventType = "campaign_deployed"
	EventInitiationFailed     EventType = "call_initiation_failed"
	EventPersistFailed        EventType = "call_persist_failed"
	EventScheduleFailed       EventType = "classification_schedule_failed"
	EventClassificationFailed EventType = "classification_failed"
	EventCallCompleted        EventType = "call_completed"
	EventReclassifyRequested  EventType = "reclassify_requested"
)
