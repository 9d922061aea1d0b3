package reporting

import (
	"time"

	"realty-crm/internal/outcome"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CampaignSummary aggregates the call records of one campaign.
type CampaignSummary struct {
	CampaignID string `json:"campaign_id"`

	TotalCalls     int `json:"total_calls"`
	InitiatedCalls int `json:"initiated_calls"`
	CompletedCalls int `json:"completed_calls"`

	// ByStage counts every lead stage, including zero counts.
	ByStage map[outcome.LeadStage]int `json:"by_stage"`

	Appointments int `json:"appointments"`
	// ConversionRate is Hot calls over total calls.
	ConversionRate float64 `json:"conversion_rate"`
}

// Appointment is one booked viewing.
type Appointment struct {
	CallID        string            `json:"call_id"`
	CampaignID    string            `json:"campaign_id"`
	ContactName   string            `json:"contact_name"`
	PhoneNumber   string            `json:"phone_number"`
	Email         string            `json:"email,omitempty"`
	LeadStage     outcome.LeadStage `json:"lead_stage"`
	AppointmentAt time.Time         `json:"appointment_date"`
}
