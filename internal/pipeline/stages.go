// Package pipeline holds the hiring pipeline state machine: which stage an
// application may move to next. The policy is pure; persistence and
// authorization live elsewhere.
package pipeline

import "github.com/yourorg/jobboard/internal/domain"

// transitions maps each stage to the stages it may move to. The pipeline is
// strictly forward: no skipping, no re-entry, and decision is terminal.
var transitions = map[domain.Stage][]domain.Stage{
	domain.StageApplied:   {domain.StageScreening},
	domain.StageScreening: {domain.StageInterview, domain.StageDecision},
	domain.StageInterview: {domain.StageDecision},
	domain.StageDecision:  {},
}

// AllowedNextStages returns the stages an application in the given stage may
// move to. The returned slice must not be mutated.
func AllowedNextStages(stage domain.Stage) []domain.Stage {
	return transitions[stage]
}

// IsValidTransition reports whether moving from one stage to another follows
// the transition table. Self-transitions are never valid, including
// decision -> decision.
func IsValidTransition(from, to domain.Stage) bool {
	if from == to {
		return false
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
