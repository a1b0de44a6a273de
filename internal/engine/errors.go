package engine

import "fmt"

// Outcome is the tag callers check after an operation that may legitimately do nothing.
type Outcome string

const (
	OutcomeCompleted          Outcome = "completed"
	OutcomeAlreadyCompleted   Outcome = "already-completed"
	OutcomeNotFound           Outcome = "not-found"
	OutcomeBranchRequired     Outcome = "branch-required"
	OutcomeQuestlineCompleted Outcome = "questline-completed"
	OutcomeUpdated            Outcome = "updated"
	OutcomeInvalidState       Outcome = "invalid-state"
)

// Changed reports whether the outcome mutated state.
func (o Outcome) Changed() bool {
	switch o {
	case OutcomeCompleted, OutcomeQuestlineCompleted, OutcomeUpdated:
		return true
	default:
		return false
	}
}

// InputError indicates user supplied data that cannot be stored.
type InputError struct {
	Field  string
	Reason string
}

func (e InputError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
