package engine

import (
	"fmt"
	"strings"
)

func ParseRecurrence(input string) (Recurrence, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	switch s {
	case "day", "d":
		s = string(RecurrenceDaily)
	case "week", "w":
		s = string(RecurrenceWeekly)
	case "month", "m":
		s = string(RecurrenceMonthly)
	case "year", "y", "annual":
		s = string(RecurrenceYearly)
	}
	r := Recurrence(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid recurrence: %q", input)
	}
	return r, nil
}

// ParseQuestType parses user input to a QuestType.
// Empty or unrecognized input returns QuestTypeIRL.
func ParseQuestType(input string) QuestType {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "dream", "dreams", "astral":
		return QuestTypeDream
	default:
		return QuestTypeIRL
	}
}

func ParseCategory(input string) QuestCategory {
	s := QuestCategory(strings.TrimSpace(strings.ToLower(input)))
	switch s {
	case CategoryMain, CategorySide, CategoryDaily, CategoryWeekly, CategoryEpic,
		CategoryRitual, CategorySkill, CategoryExploration, CategoryHabit:
		return s
	default:
		return CategorySide
	}
}

func ParseDifficulty(input string) Difficulty {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "easy", "1":
		return DifficultyEasy
	case "hard", "3":
		return DifficultyHard
	case "epic", "4":
		return DifficultyEpic
	case "legendary", "5":
		return DifficultyLegendary
	default:
		return DifficultyMedium
	}
}

func ParsePriority(input string) Priority {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "urgent":
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

func ParseLucidity(input string) Lucidity {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "full", "lucid":
		return LucidityFull
	case "partial", "semi":
		return LucidityPartial
	default:
		return LucidityNone
	}
}
