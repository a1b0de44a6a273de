package engine

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

type QuestStep struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Desc     string `json:"desc,omitempty"`
	Done     bool   `json:"done"`
	Required bool   `json:"required"`
}

type QuestRewards struct {
	XP          int      `json:"xp"`
	Tokens      int      `json:"tokens"`
	Obedience   int      `json:"obedience,omitempty"`
	Achievement string   `json:"achievement,omitempty"`
	Title       string   `json:"title,omitempty"`
	Items       []string `json:"items,omitempty"`
	Buffs       []string `json:"buffs,omitempty"`
}

type Quest struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Desc          string        `json:"desc,omitempty"`
	Type          QuestType     `json:"type"`
	Status        QuestStatus   `json:"status"`
	Category      QuestCategory `json:"category"`
	Difficulty    Difficulty    `json:"difficulty"`
	Priority      Priority      `json:"priority"`
	Steps         []QuestStep   `json:"steps"`
	Rewards       QuestRewards  `json:"rewards"`
	Tags          []string      `json:"tags"`
	Unlocks       []string      `json:"unlocks"`
	TimeLimitMS   int64         `json:"timeLimit,omitempty"`
	Recurring     Recurrence    `json:"recurring,omitempty"`
	Questline     string        `json:"questline,omitempty"`
	QuestlineStep int           `json:"questlineStep,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	CompletedAt   *time.Time    `json:"completedAt,omitempty"`
	FailedAt      *time.Time    `json:"failedAt,omitempty"`
	// Template and SpawnedFrom link recurring instances back to their origin.
	Template    string `json:"template,omitempty"`
	SpawnedFrom string `json:"spawnedFrom,omitempty"`
	// Generated marks quests built from the daily and weekly templates.
	Generated bool              `json:"generated,omitempty"`
	Branches  []BranchRule      `json:"branches,omitempty"`
	Choices   map[string]string `json:"choices,omitempty"`
}

func (q Quest) HasTag(tag string) bool {
	return slices.ContainsFunc(q.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
}

func (q Quest) Deadline() (time.Time, bool) {
	if q.TimeLimitMS <= 0 {
		return time.Time{}, false
	}
	return q.CreatedAt.Add(time.Duration(q.TimeLimitMS) * time.Millisecond), true
}

// QuestLedger is the persisted quest document: the quests plus lifetime counters.
type QuestLedger struct {
	Quests                []Quest  `json:"quests"`
	CompletedAchievements []string `json:"completedAchievements"`
	TotalXPEarned         int      `json:"totalXpEarned"`
	QuestsCompleted       int      `json:"questsCompleted"`
	QuestsFailed          int      `json:"questsFailed"`
}

// RewardPopup is what the UI shows after a quest completes.
type RewardPopup struct {
	QuestID     string
	Title       string
	XP          int
	Tokens      int
	Obedience   int
	Items       []string
	Achievement string
	NewTitle    string
	Buffs       []string
	Unlocked    []string
	Locked      []string
}

// CanCompleteQuest reports whether every required step is done.
func CanCompleteQuest(q Quest) bool {
	for _, s := range q.Steps {
		if s.Required && !s.Done {
			return false
		}
	}
	return true
}

// QuestProgress is the percentage of steps done.
func QuestProgress(q Quest) int {
	if q.Status == QuestCompleted {
		return 100
	}
	if len(q.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range q.Steps {
		if s.Done {
			done++
		}
	}
	return done * 100 / len(q.Steps)
}

func IsQuestExpired(q Quest, now time.Time) bool {
	dl, ok := q.Deadline()
	return ok && now.After(dl)
}

// TimeRemaining renders the time left before a quest's deadline, or "" without one.
func TimeRemaining(q Quest, now time.Time) string {
	dl, ok := q.Deadline()
	if !ok {
		return ""
	}
	left := dl.Sub(now)
	if left <= 0 {
		return "Expired"
	}
	days := int(left / (24 * time.Hour))
	hours := int(left/time.Hour) % 24
	minutes := int(left/time.Minute) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// SortByPriority orders quests urgent first, then by creation time.
func SortByPriority(qs []Quest) {
	sort.SliceStable(qs, func(i, j int) bool {
		ri, rj := qs[i].Priority.rank(), qs[j].Priority.rank()
		if ri != rj {
			return ri < rj
		}
		return qs[i].CreatedAt.Before(qs[j].CreatedAt)
	})
}

// QuestChain returns the quests of a questline ordered by step.
func QuestChain(qs []Quest, questline string) []Quest {
	var chain []Quest
	for _, q := range qs {
		if q.Questline == questline && questline != "" {
			chain = append(chain, q)
		}
	}
	sort.SliceStable(chain, func(i, j int) bool { return chain[i].QuestlineStep < chain[j].QuestlineStep })
	return chain
}

// NextInChain returns the first locked quest of the chain after the last completed one.
func NextInChain(qs []Quest, questline string) (Quest, bool) {
	for _, q := range QuestChain(qs, questline) {
		if q.Status == QuestLocked {
			return q, true
		}
	}
	return Quest{}, false
}

func IsChainCompleted(qs []Quest, questline string) bool {
	chain := QuestChain(qs, questline)
	if len(chain) == 0 {
		return false
	}
	for _, q := range chain {
		if q.Status != QuestCompleted {
			return false
		}
	}
	return true
}

func findQuest(qs []Quest, id string) int {
	for i := range qs {
		if qs[i].ID == id {
			return i
		}
	}
	return -1
}

func resetSteps(steps []QuestStep) {
	for i := range steps {
		steps[i].Done = false
	}
}

func (o *op) startQuest(id string) Outcome {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	q := &o.st.Quests.Quests[idx]
	if q.Status != QuestLocked {
		return OutcomeInvalidState
	}
	q.Status = QuestActive
	q.UpdatedAt = o.now
	return OutcomeUpdated
}

// QuestResult reports a step update or a direct completion.
type QuestResult struct {
	Status Outcome
	Quest  Quest
	Popup  *RewardPopup
}

func (o *op) updateStep(questID, stepID string, done bool) QuestResult {
	idx := findQuest(o.st.Quests.Quests, questID)
	if idx < 0 {
		return QuestResult{Status: OutcomeNotFound}
	}
	q := &o.st.Quests.Quests[idx]
	si := slices.IndexFunc(q.Steps, func(s QuestStep) bool { return s.ID == stepID })
	if si < 0 {
		return QuestResult{Status: OutcomeNotFound, Quest: *q}
	}
	if q.Status != QuestActive {
		return QuestResult{Status: OutcomeInvalidState, Quest: *q}
	}
	q.Steps[si].Done = done
	q.UpdatedAt = o.now

	if CanCompleteQuest(*q) {
		popup := o.completeQuest(idx)
		return QuestResult{Status: OutcomeCompleted, Quest: o.st.Quests.Quests[idx], Popup: popup}
	}
	return QuestResult{Status: OutcomeUpdated, Quest: *q}
}

func (o *op) completeQuestByID(id string) QuestResult {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return QuestResult{Status: OutcomeNotFound}
	}
	q := o.st.Quests.Quests[idx]
	if q.Status == QuestCompleted {
		return QuestResult{Status: OutcomeAlreadyCompleted, Quest: q}
	}
	if q.Status != QuestActive || !CanCompleteQuest(q) {
		return QuestResult{Status: OutcomeInvalidState, Quest: q}
	}
	popup := o.completeQuest(idx)
	return QuestResult{Status: OutcomeCompleted, Quest: o.st.Quests.Quests[idx], Popup: popup}
}

// questBuff is the buff a quest reward grants, by quest type.
func questBuff(t QuestType, source string) Buff {
	if t == QuestTypeDream {
		return Buff{Name: "Dream Quest Blessing", Source: source, Type: BuffClarityBoost, Value: 1.10, Duration: "24h"}
	}
	return Buff{Name: "Obedience Reward", Source: source, Type: BuffXPMultiplier, Value: 1.15, Duration: "12h"}
}

// completeQuest grants the quest's rewards once; a completed quest is left untouched.
func (o *op) completeQuest(idx int) *RewardPopup {
	q := &o.st.Quests.Quests[idx]
	if q.Status == QuestCompleted {
		return nil
	}
	now := o.now
	q.Status = QuestCompleted
	q.CompletedAt = &now
	q.UpdatedAt = now

	rw := q.Rewards
	popup := &RewardPopup{QuestID: q.ID, Title: q.Title}
	popup.XP = o.sink.GrantXP(rw.XP)
	popup.Tokens = o.sink.GrantTokens(rw.Tokens)
	popup.Obedience = o.sink.GrantObedience(rw.Obedience)
	for _, item := range rw.Items {
		o.sink.GrantItem(item, 1)
		popup.Items = append(popup.Items, item)
	}
	if rw.Title != "" {
		o.sink.GrantTitle(rw.Title)
		popup.NewTitle = rw.Title
	}
	for range rw.Buffs {
		b := questBuff(q.Type, q.ID)
		o.sink.GrantBuff(b)
		popup.Buffs = append(popup.Buffs, b.Name)
	}

	ledger := &o.st.Quests
	ledger.QuestsCompleted++
	ledger.TotalXPEarned += popup.XP
	if rw.Achievement != "" {
		popup.Achievement = rw.Achievement
		if !slices.Contains(ledger.CompletedAchievements, rw.Achievement) {
			ledger.CompletedAchievements = append(ledger.CompletedAchievements, rw.Achievement)
		}
		o.unlockAchievement(rw.Achievement)
	}

	popup.Unlocked = o.unlockDependents(q.ID)
	unlocked, locked := o.applyBranches(idx)
	popup.Unlocked = append(popup.Unlocked, unlocked...)
	popup.Locked = locked
	o.log.Info("quest completed", "quest", q.ID, "xp", popup.XP)
	return popup
}

// unlockDependents activates locked quests that list id in their unlocks.
func (o *op) unlockDependents(id string) []string {
	var unlocked []string
	for i := range o.st.Quests.Quests {
		q := &o.st.Quests.Quests[i]
		if q.Status == QuestLocked && slices.Contains(q.Unlocks, id) {
			q.Status = QuestActive
			q.UpdatedAt = o.now
			unlocked = append(unlocked, q.ID)
		}
	}
	return unlocked
}

func (o *op) abandonQuest(id string) Outcome {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	q := &o.st.Quests.Quests[idx]
	if q.Status != QuestActive {
		return OutcomeInvalidState
	}
	q.Status = QuestLocked
	resetSteps(q.Steps)
	q.UpdatedAt = o.now
	return OutcomeUpdated
}

func (o *op) failQuest(id string) Outcome {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	if o.st.Quests.Quests[idx].Status != QuestActive {
		return OutcomeInvalidState
	}
	o.markFailed(idx)
	return OutcomeUpdated
}

func (o *op) markFailed(idx int) {
	q := &o.st.Quests.Quests[idx]
	now := o.now
	q.Status = QuestFailed
	q.FailedAt = &now
	q.UpdatedAt = now
	o.st.Quests.QuestsFailed++
	o.log.Info("quest failed", "quest", q.ID)
}

// resetQuest puts a quest back to active with fresh steps. The time limit
// restarts so an overdue quest is not failed again on the next operation.
func (o *op) resetQuest(id string) Outcome {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	q := &o.st.Quests.Quests[idx]
	q.Status = QuestActive
	resetSteps(q.Steps)
	q.CompletedAt = nil
	q.FailedAt = nil
	q.CreatedAt = o.now
	q.UpdatedAt = o.now
	return OutcomeUpdated
}

type AddQuestInput struct {
	Title       string
	Desc        string
	Type        QuestType
	Category    QuestCategory
	Difficulty  Difficulty
	Priority    Priority
	Steps       []string
	Rewards     QuestRewards
	Tags        []string
	Unlocks     []string
	TimeLimit   time.Duration
	Recurring   Recurrence
	Branches    []BranchRule
	StartLocked bool
}

func (o *op) addQuest(in AddQuestInput) (Quest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Quest{}, InputError{Field: "title", Reason: "is required"}
	}
	if in.Recurring != "" && in.Recurring != RecurrenceDaily && in.Recurring != RecurrenceWeekly {
		return Quest{}, InputError{Field: "recurring", Reason: "must be daily or weekly"}
	}
	for _, b := range in.Branches {
		if err := ValidateCondition(b.Condition); err != nil {
			return Quest{}, InputError{Field: "branch", Reason: err.Error()}
		}
	}
	q := Quest{
		ID:          "q" + o.newID(),
		Title:       title,
		Desc:        in.Desc,
		Type:        in.Type,
		Status:      QuestActive,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Priority:    in.Priority,
		Rewards:     in.Rewards,
		Tags:        append([]string{}, in.Tags...),
		Unlocks:     append([]string{}, in.Unlocks...),
		TimeLimitMS: in.TimeLimit.Milliseconds(),
		Recurring:   in.Recurring,
		Branches:    slices.Clone(in.Branches),
		CreatedAt:   o.now,
		UpdatedAt:   o.now,
	}
	if in.StartLocked {
		q.Status = QuestLocked
	}
	for i, text := range in.Steps {
		q.Steps = append(q.Steps, QuestStep{ID: fmt.Sprintf("s%d", i+1), Text: text, Required: true})
	}
	o.st.Quests.Quests = append(o.st.Quests.Quests, q)
	return q, nil
}

func (o *op) deleteQuest(id string) Outcome {
	idx := findQuest(o.st.Quests.Quests, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	o.st.Quests.Quests = slices.Delete(o.st.Quests.Quests, idx, idx+1)
	return OutcomeUpdated
}

// checkExpiredQuests fails overdue active quests and returns how many failed now.
func (o *op) checkExpiredQuests() int {
	failed := 0
	for i := range o.st.Quests.Quests {
		q := o.st.Quests.Quests[i]
		if q.Status != QuestActive || !IsQuestExpired(q, o.now) {
			continue
		}
		o.markFailed(i)
		failed++
	}
	return failed
}

type autoRule struct {
	applies   func(q Quest) bool
	satisfied func(q Quest, snap Snapshot, now time.Time) bool
}

var dreamPlaceTags = []string{"temple", "ritual", "transformation"}

var autoRules = []autoRule{
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeDream && q.HasTag("lucid") },
		satisfied: func(q Quest, snap Snapshot, _ time.Time) bool {
			return anyEntrySince(snap.Journal, q.CreatedAt, func(e JournalEntry) bool {
				return e.HasTag("lucid") || e.Lucidity == LucidityFull || e.Lucidity == LucidityPartial
			})
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeDream && (q.HasTag("temple") || q.HasTag("spiritual")) },
		satisfied: func(q Quest, snap Snapshot, _ time.Time) bool {
			return anyEntrySince(snap.Journal, q.CreatedAt, func(e JournalEntry) bool {
				if slices.ContainsFunc(e.Places, func(p string) bool { return strings.EqualFold(p, "Temple of Dreams") }) {
					return true
				}
				return slices.ContainsFunc(dreamPlaceTags, e.HasTag)
			})
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeDream && q.HasTag("companion") },
		satisfied: func(q Quest, snap Snapshot, _ time.Time) bool {
			return anyEntrySince(snap.Journal, q.CreatedAt, func(e JournalEntry) bool { return len(e.Companions) > 0 })
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeDream && q.HasTag("flying") },
		satisfied: func(q Quest, snap Snapshot, _ time.Time) bool {
			return anyEntrySince(snap.Journal, q.CreatedAt, func(e JournalEntry) bool { return e.HasTag("fly") || e.HasTag("flying") })
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeIRL && (q.HasTag("obedience") || q.HasTag("shame")) },
		satisfied: func(_ Quest, snap Snapshot, _ time.Time) bool {
			s := snap.Shame
			return s != nil && (s.PantiesSniffed > 0 || len(s.Confessions) > 0 || s.DirtyTokensBurned > 0)
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeIRL && q.HasTag("ritual") },
		satisfied: func(_ Quest, snap Snapshot, _ time.Time) bool {
			for _, p := range snap.RitualProgress {
				if p.Completed {
					return true
				}
			}
			return false
		},
	},
	{
		applies: func(q Quest) bool { return q.Type == QuestTypeIRL && q.Category == CategoryDaily },
		satisfied: func(q Quest, _ Snapshot, now time.Time) bool {
			return epochDay(q.UpdatedAt.In(now.Location())) == epochDay(now) &&
				slices.ContainsFunc(q.Steps, func(s QuestStep) bool { return s.Done })
		},
	},
}

func anyEntrySince(entries []JournalEntry, since time.Time, match func(JournalEntry) bool) bool {
	for _, e := range entries {
		if !e.Date.Before(since) && match(e) {
			return true
		}
	}
	return false
}

// checkAutoComplete marks steps done on quests whose rule is met by the snapshot
// and completes them in the same pass. A quest with no step left to mark is skipped.
func (o *op) checkAutoComplete(snap Snapshot) []RewardPopup {
	var popups []RewardPopup
	for i := range o.st.Quests.Quests {
		q := o.st.Quests.Quests[i]
		if q.Status != QuestActive {
			continue
		}
		matched := false
		for _, r := range autoRules {
			if r.applies(q) && r.satisfied(q, snap, o.now) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		flipped := false
		steps := o.st.Quests.Quests[i].Steps
		for si := range steps {
			if !steps[si].Done {
				steps[si].Done = true
				flipped = true
			}
		}
		if !flipped {
			continue
		}
		o.st.Quests.Quests[i].UpdatedAt = o.now
		if CanCompleteQuest(o.st.Quests.Quests[i]) {
			if p := o.completeQuest(i); p != nil {
				popups = append(popups, *p)
			}
		}
	}
	return popups
}

// samePeriod compares two instants by calendar day or ISO week in now's location.
func samePeriod(a, b time.Time, r Recurrence) bool {
	if r == RecurrenceWeekly {
		ay, aw := a.ISOWeek()
		by, bw := b.ISOWeek()
		return ay == by && aw == bw
	}
	return epochDay(a) == epochDay(b)
}

// generateRecurringQuests spawns a fresh active instance for each completed
// recurring quest whose completion is outside the current day or ISO week.
// A completed record spawns at most one successor.
func (o *op) generateRecurringQuests() []string {
	spawnedFrom := map[string]bool{}
	for _, q := range o.st.Quests.Quests {
		if q.SpawnedFrom != "" {
			spawnedFrom[q.SpawnedFrom] = true
		}
	}

	var created []string
	n := len(o.st.Quests.Quests)
	for i := 0; i < n; i++ {
		q := o.st.Quests.Quests[i]
		if q.Status != QuestCompleted || q.CompletedAt == nil {
			continue
		}
		if q.Generated || (q.Recurring != RecurrenceDaily && q.Recurring != RecurrenceWeekly) {
			continue
		}
		if spawnedFrom[q.ID] || samePeriod(q.CompletedAt.In(o.now.Location()), o.now, q.Recurring) {
			continue
		}

		tpl := q.Template
		if tpl == "" {
			tpl = q.ID
		}
		next := q
		next.ID = fmt.Sprintf("%s_%d", tpl, o.now.UnixMilli())
		next.Template = tpl
		next.SpawnedFrom = q.ID
		next.Status = QuestActive
		next.Steps = slices.Clone(q.Steps)
		resetSteps(next.Steps)
		next.CreatedAt = o.now
		next.UpdatedAt = o.now
		next.CompletedAt = nil
		next.FailedAt = nil

		o.st.Quests.Quests = append(o.st.Quests.Quests, next)
		spawnedFrom[q.ID] = true
		created = append(created, next.ID)
	}
	return created
}
