package engine

type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

type QuestType string

const (
	QuestTypeDream QuestType = "dream"
	QuestTypeIRL   QuestType = "irl"
)

type QuestStatus string

const (
	QuestLocked    QuestStatus = "locked"
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

type QuestCategory string

const (
	CategoryMain        QuestCategory = "main"
	CategorySide        QuestCategory = "side"
	CategoryDaily       QuestCategory = "daily"
	CategoryWeekly      QuestCategory = "weekly"
	CategoryEpic        QuestCategory = "epic"
	CategoryRitual      QuestCategory = "ritual"
	CategorySkill       QuestCategory = "skill"
	CategoryExploration QuestCategory = "exploration"
	CategoryHabit       QuestCategory = "habit"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyEpic      Difficulty = "epic"
	DifficultyLegendary Difficulty = "legendary"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// rank orders priorities for sorting; unknown values sort last.
func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

type Lucidity string

const (
	LucidityNone    Lucidity = "none"
	LucidityPartial Lucidity = "partial"
	LucidityFull    Lucidity = "full"
)
