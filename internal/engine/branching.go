package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Branch conditions a quest can carry.
const (
	condStepCompleted = "step_completed"
	condChoice        = "choice"
)

// BranchRule opens or closes other quests when its condition holds at
// completion. Condition is "step_completed:<step>" or "choice:<key>:<value>".
type BranchRule struct {
	Condition string   `json:"condition"`
	Unlocks   []string `json:"unlocks,omitempty"`
	Locks     []string `json:"locks,omitempty"`
}

// ValidateCondition reports whether cond is a condition BranchRule understands.
func ValidateCondition(cond string) error {
	kind, rest, _ := strings.Cut(cond, ":")
	switch kind {
	case condStepCompleted:
		if rest != "" {
			return nil
		}
	case condChoice:
		if key, val, ok := strings.Cut(rest, ":"); ok && key != "" && val != "" {
			return nil
		}
	}
	return fmt.Errorf("condition %q: want step_completed:<step> or choice:<key>:<value>", cond)
}

func (r BranchRule) met(q Quest) bool {
	kind, rest, _ := strings.Cut(r.Condition, ":")
	switch kind {
	case condStepCompleted:
		return slices.ContainsFunc(q.Steps, func(s QuestStep) bool { return s.ID == rest && s.Done })
	case condChoice:
		key, want, ok := strings.Cut(rest, ":")
		got, chosen := q.Choices[key]
		return ok && chosen && got == want
	}
	return false
}

// applyBranches runs the branch rules of the quest at idx. Unlocked quests
// go from locked to active. Locked quests that are still open are failed.
func (o *op) applyBranches(idx int) (unlocked, locked []string) {
	q := o.st.Quests.Quests[idx]
	for _, r := range q.Branches {
		if !r.met(q) {
			continue
		}
		for _, id := range r.Unlocks {
			i := findQuest(o.st.Quests.Quests, id)
			if i < 0 || o.st.Quests.Quests[i].Status != QuestLocked {
				continue
			}
			o.st.Quests.Quests[i].Status = QuestActive
			o.st.Quests.Quests[i].UpdatedAt = o.now
			unlocked = append(unlocked, id)
		}
		for _, id := range r.Locks {
			i := findQuest(o.st.Quests.Quests, id)
			if i < 0 || i == idx {
				continue
			}
			if s := o.st.Quests.Quests[i].Status; s != QuestLocked && s != QuestActive {
				continue
			}
			o.markFailed(i)
			locked = append(locked, id)
		}
	}
	if len(unlocked)+len(locked) > 0 {
		o.log.Debug("quest branched", "quest", q.ID, "unlocked", unlocked, "locked", locked)
	}
	return unlocked, locked
}

// chooseQuestOption records a choice on an open quest for its choice: rules.
func (o *op) chooseQuestOption(questID, key, value string) (QuestResult, error) {
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return QuestResult{}, InputError{Field: "choice", Reason: "needs a key and a value"}
	}
	idx := findQuest(o.st.Quests.Quests, questID)
	if idx < 0 {
		return QuestResult{Status: OutcomeNotFound}, nil
	}
	q := &o.st.Quests.Quests[idx]
	if q.Status != QuestActive && q.Status != QuestLocked {
		return QuestResult{Status: OutcomeInvalidState, Quest: *q}, nil
	}
	if q.Choices == nil {
		q.Choices = map[string]string{}
	}
	q.Choices[key] = value
	q.UpdatedAt = o.now
	return QuestResult{Status: OutcomeUpdated, Quest: *q}, nil
}

// ParseBranchRule reads "<condition>=<quest>,<quest>". A quest prefixed with
// "!" is locked instead of unlocked.
func ParseBranchRule(input string) (BranchRule, error) {
	cond, targets, ok := strings.Cut(strings.TrimSpace(input), "=")
	if !ok {
		return BranchRule{}, fmt.Errorf("branch %q: want <condition>=<quest>[,!<quest>]", input)
	}
	r := BranchRule{Condition: strings.TrimSpace(cond)}
	if err := ValidateCondition(r.Condition); err != nil {
		return BranchRule{}, err
	}
	for _, t := range strings.Split(targets, ",") {
		t = strings.TrimSpace(t)
		if id, lock := strings.CutPrefix(t, "!"); lock && id != "" {
			r.Locks = append(r.Locks, id)
		} else if t != "" && !lock {
			r.Unlocks = append(r.Unlocks, t)
		}
	}
	if len(r.Unlocks)+len(r.Locks) == 0 {
		return BranchRule{}, fmt.Errorf("branch %q names no quests", input)
	}
	return r, nil
}
