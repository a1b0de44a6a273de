package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

type AchievementCategory string

const (
	AchievementDream     AchievementCategory = "Dream"
	AchievementRitual    AchievementCategory = "Ritual"
	AchievementShame     AchievementCategory = "Shame"
	AchievementDungeon   AchievementCategory = "Dungeon"
	AchievementCompanion AchievementCategory = "Companion"
	AchievementMap       AchievementCategory = "Map"
	AchievementQuest     AchievementCategory = "Quest"
)

type TriggerType string

const (
	TriggerShameCounter     TriggerType = "SHAME_COUNTER"
	TriggerDungeonCleared   TriggerType = "DUNGEON_CLEARED"
	TriggerCompanionEvolved TriggerType = "COMPANION_EVOLVED"
	TriggerRitualCompleted  TriggerType = "RITUAL_COMPLETED"
	TriggerPunishmentTier   TriggerType = "PUNISHMENT_TIER_REACHED"
	TriggerConfessionLogged TriggerType = "CONFESSION_LOGGED"
	TriggerMapNodeUnlocked  TriggerType = "MAP_NODE_UNLOCKED"
	TriggerMapAllUnlocked   TriggerType = "MAP_ALL_NODES_UNLOCKED"
	TriggerQuestCompleted   TriggerType = "QUEST_COMPLETED"
	TriggerQuestsCompleted  TriggerType = "QUESTS_COMPLETED"
	TriggerDreamTag         TriggerType = "DREAM_TAG"
)

// Trigger is the condition attached to an achievement. Count triggers use
// Value; id and tag triggers use Target. Both travel as "value" in JSON.
type Trigger struct {
	Type    TriggerType
	Counter string
	Value   int
	Target  string
}

type triggerJSON struct {
	Type    TriggerType     `json:"type"`
	Counter string          `json:"counter,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	out := triggerJSON{Type: t.Type, Counter: t.Counter}
	var err error
	switch {
	case t.Target != "":
		out.Value, err = json.Marshal(t.Target)
	case t.Value != 0:
		out.Value, err = json.Marshal(t.Value)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var in triggerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Trigger{Type: in.Type, Counter: in.Counter}
	if len(in.Value) == 0 || string(in.Value) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(in.Value, &n); err == nil {
		t.Value = int(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(in.Value, &s); err != nil {
		return fmt.Errorf("trigger %s: value must be a number or string", in.Type)
	}
	t.Target = s
	return nil
}

type AchievementReward struct {
	XP     int    `json:"xp,omitempty"`
	Tokens int    `json:"tokens,omitempty"`
	Title  string `json:"title,omitempty"`
}

type Achievement struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Desc     string              `json:"desc"`
	Category AchievementCategory `json:"category"`
	Secret   bool                `json:"secret"`
	Unlocked bool                `json:"unlocked"`
	Date     *time.Time          `json:"date,omitempty"`
	Trigger  Trigger             `json:"trigger"`
	Reward   AchievementReward   `json:"reward"`
}

// Notifier receives unlock toasts. Delivery is fire-and-forget.
type Notifier interface {
	AchievementUnlocked(a Achievement)
}

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) AchievementUnlocked(a Achievement) {
	n.log.Info("achievement unlocked", "id", a.ID, "title", a.Title)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(a Achievement)

func (f NotifierFunc) AchievementUnlocked(a Achievement) { f(a) }

// countMatch is the rule for count triggers: something must exist and reach the threshold.
func countMatch(count, threshold int) bool {
	return count > 0 && count >= threshold
}

func shameCounter(s *ShameCounters, name string) (int, bool) {
	switch strings.ToLower(name) {
	case "pantiessniffed":
		return s.PantiesSniffed, true
	case "ritualsfailed":
		return s.RitualsFailed, true
	case "dirtytokensburned":
		return s.DirtyTokensBurned, true
	case "confessions":
		return len(s.Confessions), true
	default:
		return 0, false
	}
}

// TriggerMatches evaluates t against snap. Missing snapshot data never matches.
func TriggerMatches(t Trigger, snap Snapshot) bool {
	switch t.Type {
	case TriggerShameCounter:
		if snap.Shame == nil {
			return false
		}
		v, ok := shameCounter(snap.Shame, t.Counter)
		return ok && countMatch(v, t.Value)
	case TriggerConfessionLogged:
		return snap.Shame != nil && countMatch(len(snap.Shame.Confessions), t.Value)
	case TriggerDungeonCleared:
		n := 0
		for _, d := range snap.Dungeons {
			if d.Cleared {
				n++
			}
		}
		return countMatch(n, t.Value)
	case TriggerCompanionEvolved:
		n := 0
		for _, c := range snap.Companions {
			if c.Evolved() {
				n++
			}
		}
		return countMatch(n, t.Value)
	case TriggerRitualCompleted:
		n := 0
		for _, p := range snap.RitualProgress {
			if p.Completed {
				n++
			}
		}
		return countMatch(n, t.Value)
	case TriggerPunishmentTier:
		return countMatch(len(snap.Punishments), t.Value)
	case TriggerMapNodeUnlocked:
		return slices.ContainsFunc(snap.MapNodes, func(n MapNode) bool { return n.ID == t.Target && n.Unlocked })
	case TriggerMapAllUnlocked:
		if len(snap.MapNodes) == 0 {
			return false
		}
		return !slices.ContainsFunc(snap.MapNodes, func(n MapNode) bool { return !n.Unlocked })
	case TriggerQuestCompleted:
		return t.Target != "" && slices.ContainsFunc(snap.Quests, func(q Quest) bool {
			return q.ID == t.Target && q.Status == QuestCompleted
		})
	case TriggerQuestsCompleted:
		return countMatch(snap.QuestsCompleted, t.Value)
	case TriggerDreamTag:
		return t.Target != "" && slices.ContainsFunc(snap.Journal, func(e JournalEntry) bool { return e.HasTag(t.Target) })
	default:
		return false
	}
}

func findAchievement(as []Achievement, id string) int {
	for i := range as {
		if as[i].ID == id {
			return i
		}
	}
	return -1
}

// unlockAchievement flips a locked achievement and grants its reward. Unknown or
// already unlocked ids are a no-op.
func (o *op) unlockAchievement(id string) bool {
	idx := findAchievement(o.st.Achievements, id)
	if idx < 0 || o.st.Achievements[idx].Unlocked {
		return false
	}
	a := &o.st.Achievements[idx]
	now := o.now
	a.Unlocked = true
	a.Date = &now
	o.sink.GrantXP(a.Reward.XP)
	o.sink.GrantTokens(a.Reward.Tokens)
	if a.Reward.Title != "" {
		o.sink.GrantTitle(a.Reward.Title)
	}
	o.unlocked = append(o.unlocked, *a)
	return true
}

// evaluateAchievements checks every locked achievement against the current
// state and returns the ids it unlocked.
func (o *op) evaluateAchievements() []string {
	snap := o.snapshot()
	var ids []string
	for i := range o.st.Achievements {
		a := o.st.Achievements[i]
		if a.Unlocked || !TriggerMatches(a.Trigger, snap) {
			continue
		}
		if o.unlockAchievement(a.ID) {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

type AddAchievementInput struct {
	Title    string
	Desc     string
	Category AchievementCategory
	Secret   bool
	Trigger  Trigger
	Reward   AchievementReward
}

func (o *op) addAchievement(in AddAchievementInput) (Achievement, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Achievement{}, InputError{Field: "title", Reason: "is required"}
	}
	if in.Trigger.Type == "" {
		return Achievement{}, InputError{Field: "trigger", Reason: "is required"}
	}
	a := Achievement{
		ID:       o.newID(),
		Title:    title,
		Desc:     in.Desc,
		Category: in.Category,
		Secret:   in.Secret,
		Trigger:  in.Trigger,
		Reward:   in.Reward,
	}
	o.st.Achievements = append(o.st.Achievements, a)
	return a, nil
}

// resetAchievements relocks everything. Rewards already granted are kept.
func (o *op) resetAchievements() {
	for i := range o.st.Achievements {
		o.st.Achievements[i].Unlocked = false
		o.st.Achievements[i].Date = nil
	}
}
