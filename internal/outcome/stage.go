package outcome

import (
	"fmt"
	"strings"
)

// LeadStage is the engagement classification attached to every call record.
type LeadStage string

const (
	StageHot  LeadStage = "Hot"
	StageWarm LeadStage = "Warm"
	StageCold LeadStage = "Cold"
	StageNew  LeadStage = "New"
)

// Rank orders stages by engagement strength: Hot > Warm > Cold > New.
// Unknown values rank below New.
func (s LeadStage) Rank() int {
	switch s {
	case StageHot:
		return 3
	case StageWarm:
		return 2
	case StageCold:
		return 1
	case StageNew:
		return 0
	default:
		return -1
	}
}

func (s LeadStage) Valid() bool { return s.Rank() >= 0 }

// ParseLeadStage accepts any casing of a stage name.
func ParseLeadStage(v string) (LeadStage, error) {
	for _, s := range []LeadStage{StageHot, StageWarm, StageCold, StageNew} {
		if strings.EqualFold(strings.TrimSpace(v), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("outcome: unknown lead stage %q", v)
}

// StageFor is total: a confirmed appointment is Hot, expressed interest is Warm, anything else Cold.
func StageFor(confirmed, interested bool) LeadStage {
	switch {
	case confirmed:
		return StageHot
	case interested:
		return StageWarm
	default:
		return StageCold
	}
}
