package campaigns

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Campaign is an outbound calling campaign about one property.
type Campaign struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Type       string `json:"campaign_type" db:"campaign_type"`
	PropertyID string `json:"property_id,omitempty" db:"property_id"`
	// PropertyDetails is the plain-text description read to contacts.
	PropertyDetails string    `json:"property_details,omitempty"`
	Status          Status    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Contact is one person a deployment dials.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type DeployRequest struct {
	Campaign Campaign
	Contacts []Contact

	ActorUserID string
	ActorRole   string
}

// State is where a contact ended up after deployment.
// Completed is reached later, by the classification pass.
type State string

const (
	StateInitiated State = "initiated"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

type ContactResult struct {
	Contact  Contact `json:"contact"`
	State    State   `json:"state"`
	CallID   string  `json:"call_id,omitempty"`
	RecordID string  `json:"record_id,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func propertyDetails(address, description string) string {
	address, description = strings.TrimSpace(address), strings.TrimSpace(description)
	switch {
	case address == "":
		return description
	case description == "":
		return address
	default:
		return address + ", " + description
	}
}
