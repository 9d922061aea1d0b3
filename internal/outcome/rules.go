package outcome

import "strings"

// Rule is a tagged phrase rule. Text matches when every group has at least one
// phrase contained in the lowercased text.
type Rule struct {
	Tag   string
	AllOf [][]string
}

const (
	TagBookingInterest         = "booking_interest"
	TagAppointmentConfirmation = "appointment_confirmation"
	TagAppointmentTime         = "appointment_time"
)

var (
	BookingInterestRule = Rule{
		Tag:   TagBookingInterest,
		AllOf: [][]string{{"interested", "would like to", "want to see"}},
	}
	AppointmentConfirmationRule = Rule{
		Tag: TagAppointmentConfirmation,
		AllOf: [][]string{
			{"yes"},
			{"appointment", "viewing", "see the property"},
		},
	}
)

// Match expects text already lowercased.
func (r Rule) Match(text string) bool {
	if len(r.AllOf) == 0 {
		return false
	}
	for _, group := range r.AllOf {
		if !containsAny(text, group) {
			return false
		}
	}
	return true
}

// MatchAny reports whether any of the texts matches.
func (r Rule) MatchAny(texts []string) bool {
	for _, t := range texts {
		if r.Match(strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
