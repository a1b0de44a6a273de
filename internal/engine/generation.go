package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// QuestGeneration remembers when the daily and weekly template quests were
// last built. A zero time means never.
type QuestGeneration struct {
	LastDaily  time.Time `json:"lastDaily"`
	LastWeekly time.Time `json:"lastWeekly"`
}

const (
	dayLimitMS  = int64(24 * time.Hour / time.Millisecond)
	weekLimitMS = 7 * dayLimitMS
)

func dailyQuestTemplates() []Quest {
	return []Quest{
		{
			Title: "Morning Reflection", Desc: "Start your day with mindful intention",
			Type: QuestTypeIRL, Difficulty: DifficultyEasy, Priority: PriorityMedium,
			Steps: []QuestStep{
				{ID: "daily-reflect-1", Text: "Spend 5 minutes in quiet reflection", Desc: "Find a peaceful space", Required: true},
			},
			Rewards: QuestRewards{XP: 50, Obedience: 10},
			Tags:    []string{"mindfulness", "daily", "morning"},
		},
		{
			Title: "Dream Journal Entry", Desc: "Record your nocturnal adventures",
			Type: QuestTypeDream, Difficulty: DifficultyEasy, Priority: PriorityHigh,
			Steps: []QuestStep{
				{ID: "daily-journal-1", Text: "Write down at least one dream", Desc: "Record any dream fragments", Required: true},
			},
			Rewards: QuestRewards{XP: 75, Tokens: 5},
			Tags:    []string{"dreams", "journal", "daily"},
		},
		{
			Title: "Lucidity Practice", Desc: "Strengthen dream awareness",
			Type: QuestTypeDream, Difficulty: DifficultyMedium, Priority: PriorityHigh,
			Steps: []QuestStep{
				{ID: "daily-rc-1", Text: "Perform 5 reality checks", Desc: "Question your reality throughout the day", Required: true},
				{ID: "daily-intent-1", Text: "Set lucid dream intention", Desc: "Before sleep, affirm your awareness", Required: true},
			},
			Rewards: QuestRewards{XP: 100, Buffs: []string{"lucidity_boost"}},
			Tags:    []string{"lucidity", "practice", "daily"},
		},
	}
}

func weeklyQuestTemplates() []Quest {
	return []Quest{
		{
			Title: "Weekly Transformation Review", Desc: "Assess your journey and growth",
			Type: QuestTypeIRL, Difficulty: DifficultyMedium, Priority: PriorityMedium,
			Steps: []QuestStep{
				{ID: "weekly-review-1", Text: "Complete transformation self-assessment", Desc: "Reflect on weekly progress", Required: true},
				{ID: "weekly-goals-1", Text: "Set goals for the upcoming week", Desc: "Plan your path forward", Required: true},
			},
			Rewards: QuestRewards{XP: 200, Tokens: 25, Achievement: "Self Reflective"},
			Tags:    []string{"reflection", "weekly", "growth"},
		},
		{
			Title: "Dream Pattern Analysis", Desc: "Study your dream themes and symbols",
			Type: QuestTypeDream, Difficulty: DifficultyHard, Priority: PriorityMedium,
			Steps: []QuestStep{
				{ID: "weekly-patterns-1", Text: "Identify recurring dream themes", Desc: "Look for patterns in your journal", Required: true},
				{ID: "weekly-symbols-1", Text: "Analyze dream symbols", Desc: "Research and interpret meanings", Required: true},
				{ID: "weekly-plan-1", Text: "Create dream work plan", Desc: "Plan specific techniques to explore themes", Required: true},
			},
			Rewards: QuestRewards{XP: 300, Tokens: 40, Title: "Dream Analyst"},
			Tags:    []string{"analysis", "dreams", "weekly"},
		},
	}
}

// weekStart is midnight of the Monday that opens t's week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func templateSlug(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}

// generatePeriodQuests rebuilds the template quests once per day and once
// per ISO week. The previous period's generated quests are dropped first.
func (o *op) generatePeriodQuests() []string {
	gen := &o.st.QuestGeneration
	var created []string
	if gen.LastDaily.IsZero() || !samePeriod(gen.LastDaily.In(o.now.Location()), o.now, RecurrenceDaily) {
		created = append(created, o.replaceGenerated(RecurrenceDaily, CategoryDaily, o.now, dayLimitMS, dailyQuestTemplates())...)
		gen.LastDaily = o.now
	}
	if gen.LastWeekly.IsZero() || !samePeriod(gen.LastWeekly.In(o.now.Location()), o.now, RecurrenceWeekly) {
		created = append(created, o.replaceGenerated(RecurrenceWeekly, CategoryWeekly, weekStart(o.now), weekLimitMS, weeklyQuestTemplates())...)
		gen.LastWeekly = o.now
	}
	return created
}

func (o *op) replaceGenerated(r Recurrence, cat QuestCategory, anchor time.Time, limitMS int64, templates []Quest) []string {
	o.st.Quests.Quests = slices.DeleteFunc(o.st.Quests.Quests, func(q Quest) bool {
		return q.Generated && q.Recurring == r
	})
	ids := make([]string, 0, len(templates))
	for _, q := range templates {
		slug := templateSlug(q.Title)
		q.ID = fmt.Sprintf("%s-%s-%s", r, slug, anchor.Format(time.DateOnly))
		q.Template = string(r) + "-" + slug
		q.Generated = true
		q.Status = QuestActive
		q.Category = cat
		q.Recurring = r
		q.TimeLimitMS = limitMS
		q.CreatedAt = o.now
		q.UpdatedAt = o.now
		o.st.Quests.Quests = append(o.st.Quests.Quests, q)
		ids = append(ids, q.ID)
	}
	o.log.Info("template quests generated", "recurrence", r, "count", len(ids))
	return ids
}
