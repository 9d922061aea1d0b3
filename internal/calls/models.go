package calls

import (
	"time"

	"realty-crm/internal/outcome"
)

// Record is one outbound call attempt and its outcome (table campaign_calls).
//
// Lifecycle: created as StatusInitiated / outcome.StageNew when the call is placed,
// completed once by the classification pass, never deleted here.
type Record struct {
	ID             string `json:"id" db:"id"`
	ExternalCallID string `json:"bland_call_id" db:"bland_call_id"`
	CampaignID     string `json:"campaign_id" db:"campaign_id"`
	PropertyID     string `json:"property_id,omitempty" db:"property_id"`

	ContactName string `json:"contact_name" db:"contact_name"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
	Email       string `json:"email,omitempty" db:"email"`

	Status    Status            `json:"status" db:"status"`
	Outcome   string            `json:"outcome,omitempty" db:"outcome"`
	LeadStage outcome.LeadStage `json:"lead_stage" db:"lead_stage"`

	AppointmentAt *time.Time `json:"appointment_date,omitempty" db:"appointment_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusInitiated Status = "initiated"
	StatusCompleted Status = "completed"
)

// Completion is the single mutation applied by the classification pass.
type Completion struct {
	Outcome       string
	LeadStage     outcome.LeadStage
	AppointmentAt *time.Time
	CompletedAt   time.Time
}

// Apply returns r with the completion written into it.
func (r Record) Apply(c Completion) Record {
	r.Status = StatusCompleted
	r.Outcome = c.Outcome
	r.LeadStage = c.LeadStage
	r.AppointmentAt = c.AppointmentAt
	r.UpdatedAt = c.CompletedAt
	return r
}
