package outcome

import (
	"context"
	"time"
)

// OutcomeAppointmentScheduled is the outcome text written for confirmed viewings.
const OutcomeAppointmentScheduled = "Appointment scheduled"

const outcomeNoAppointment = "No appointment scheduled"

// Result is what one classification pass derives from a transcript.
type Result struct {
	HasBookingInterest         bool       `json:"has_booking_interest"`
	HasAppointmentConfirmation bool       `json:"has_appointment_confirmation"`
	AppointmentAt              *time.Time `json:"appointment_at,omitempty"`
	LeadStage                  LeadStage  `json:"lead_stage"`

	// Matched lists the tags of the rules that fired, in evaluation order.
	Matched []string `json:"matched_rules,omitempty"`
}

// Classifier turns a transcript into a Result. at is when the call took place;
// relative dates such as "tomorrow" resolve against it. RuleClassifier is the
// phrase-table implementation; a model-backed classifier can stand in.
type Classifier interface {
	Classify(ctx context.Context, t Transcript, at time.Time) (Result, error)
}

// RuleClassifier classifies with phrase rules and regex timestamp extraction.
type RuleClassifier struct {
	Interest     Rule
	Confirmation Rule

	clock func() time.Time
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		Interest:     BookingInterestRule,
		Confirmation: AppointmentConfirmationRule,
		clock:        time.Now,
	}
}

// WithClock replaces the clock used when Classify is given a zero reference time.
func (c *RuleClassifier) WithClock(now func() time.Time) *RuleClassifier {
	c.clock = now
	return c
}

func (c *RuleClassifier) Classify(_ context.Context, t Transcript, at time.Time) (Result, error) {
	if at.IsZero() {
		at = c.clock()
	}
	return c.classify(t, at), nil
}

// ClassifyAt runs the default rules against t with a fixed notion of now.
// The same transcript and now always give the same Result.
func ClassifyAt(t Transcript, now time.Time) Result {
	return NewRuleClassifier().classify(t, now)
}

func (c *RuleClassifier) classify(t Transcript, now time.Time) Result {
	texts := t.FromContact()

	var r Result
	if c.Interest.MatchAny(texts) {
		r.HasBookingInterest = true
		r.Matched = append(r.Matched, c.Interest.Tag)
	}
	if c.Confirmation.MatchAny(texts) {
		r.HasAppointmentConfirmation = true
		r.Matched = append(r.Matched, c.Confirmation.Tag)
	}
	if ts, ok := ExtractAppointment(texts, now); ok {
		r.AppointmentAt = &ts
		r.Matched = append(r.Matched, TagAppointmentTime)
	}
	r.LeadStage = StageFor(r.HasAppointmentConfirmation, r.HasBookingInterest)
	return r
}

// Outcome is the outcome text stored on the call record.
func Outcome(r Result, summary string) string {
	if r.HasAppointmentConfirmation {
		return OutcomeAppointmentScheduled
	}
	if summary != "" {
		return summary
	}
	return outcomeNoAppointment
}
