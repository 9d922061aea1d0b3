package outcome

import "strings"

// SpeakerUser marks utterances spoken by the contacted party.
const SpeakerUser = "user"

// Utterance is one speaker-tagged line of a call transcript.
type Utterance struct {
	Speaker string `json:"user"`
	Text    string `json:"text"`
}

// Transcript is the ordered conversation returned by the calling service.
type Transcript struct {
	Utterances []Utterance `json:"transcripts"`
	Summary    string      `json:"summary,omitempty"`
}

// FromContact returns the text of the contacted party's utterances, in order.
func (t Transcript) FromContact() []string {
	var out []string
	for _, u := range t.Utterances {
		if strings.EqualFold(strings.TrimSpace(u.Speaker), SpeakerUser) {
			out = append(out, u.Text)
		}
	}
	return out
}
