package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

type Ritual struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      Recurrence `json:"type"`
	XP        int        `json:"xp"`
	Obedience int        `json:"obedience"`
	// Streak is a display cache; ComputeProgress over the logs is authoritative.
	Streak int `json:"streak"`
}

type RitualLog struct {
	ID                string    `json:"id"`
	RitualID          string    `json:"ritualId"`
	Timestamp         time.Time `json:"timestamp"`
	XPAwarded         *int      `json:"xpAwarded,omitempty"`
	ObedienceAwarded  *int      `json:"obedienceAwarded,omitempty"`
	MultiplierApplied *float64  `json:"multiplierApplied,omitempty"`
}

type RitualProgress struct {
	Streak          int        `json:"streak"`
	Completed       bool       `json:"completed"`
	Multiplier      float64    `json:"multiplier"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
}

type streakBonus struct {
	threshold int
	bonus     float64
}

var streakBonuses = map[Recurrence]streakBonus{
	RecurrenceDaily:   {threshold: 3, bonus: 0.10},
	RecurrenceWeekly:  {threshold: 4, bonus: 0.20},
	RecurrenceMonthly: {threshold: 3, bonus: 0.50},
}

// StreakMultiplier returns the bonus earned by streak for a recurrence, 0 when below threshold.
func StreakMultiplier(r Recurrence, streak int) float64 {
	b, ok := streakBonuses[r]
	if !ok || streak < b.threshold {
		return 0
	}
	return b.bonus
}

// DescribeMultiplier is the human form of a recurrence's bonus rule.
func DescribeMultiplier(r Recurrence) string {
	b, ok := streakBonuses[r]
	if !ok {
		return "no streak bonus"
	}
	unit := map[Recurrence]string{
		RecurrenceDaily:   "days",
		RecurrenceWeekly:  "weeks",
		RecurrenceMonthly: "months",
	}[r]
	return fmt.Sprintf("+%d%% after %d %s", int(math.Round(b.bonus*100)), b.threshold, unit)
}

// epochDay is the number of days from 1970-01-01 to t's calendar date in t's location.
func epochDay(t time.Time) int {
	y, m, d := t.Date()
	return floorDiv(int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()), 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// PeriodIndex buckets t into the window of recurrence r. Weeks count from the
// Unix epoch, not the calendar week.
func PeriodIndex(t time.Time, r Recurrence) int {
	switch r {
	case RecurrenceWeekly:
		return floorDiv(epochDay(t), 7)
	case RecurrenceMonthly:
		return t.Year()*12 + int(t.Month()) - 1
	case RecurrenceYearly:
		return t.Year()
	default:
		return epochDay(t)
	}
}

// ComputeProgress derives streak, completion and multiplier for ritual from logs
// as seen at ref. Log timestamps are read in ref's location.
func ComputeProgress(ritual Ritual, logs []RitualLog, ref time.Time) RitualProgress {
	loc := ref.Location()
	var (
		periods []int
		last    *time.Time
	)
	seen := map[int]bool{}
	for _, l := range logs {
		if l.RitualID != ritual.ID {
			continue
		}
		ts := l.Timestamp
		if last == nil || ts.After(*last) {
			last = &ts
		}
		p := PeriodIndex(ts.In(loc), ritual.Type)
		if !seen[p] {
			seen[p] = true
			periods = append(periods, p)
		}
	}
	if len(periods) == 0 {
		return RitualProgress{}
	}
	slices.Sort(periods)
	slices.Reverse(periods)

	current := PeriodIndex(ref, ritual.Type)
	completed := periods[0] == current
	expected := current - 1
	if completed {
		expected = current
	}

	streak := 0
	for _, p := range periods {
		if p > expected {
			continue
		}
		if p < expected {
			break
		}
		streak++
		expected--
	}

	return RitualProgress{
		Streak:          streak,
		Completed:       completed,
		Multiplier:      StreakMultiplier(ritual.Type, streak),
		LastCompletedAt: last,
	}
}

// RitualResult reports one completeRitual call.
type RitualResult struct {
	Status           Outcome
	Ritual           Ritual
	XPAwarded        int
	ObedienceAwarded int
	Multiplier       float64
	Progress         RitualProgress
	BuffsTriggered   []string
	// NPCsShamed lists the NPCs named by the ritual.
	NPCsShamed  []string
	CompanionXP int
}

func findRitual(rituals []Ritual, id string) int {
	for i := range rituals {
		if rituals[i].ID == id {
			return i
		}
	}
	return -1
}

// ritualProgressMap is the snapshot other engines read.
func ritualProgressMap(st *State, now time.Time) map[string]RitualProgress {
	out := make(map[string]RitualProgress, len(st.Rituals))
	for _, r := range st.Rituals {
		out[r.ID] = ComputeProgress(r, st.RitualLogs, now)
	}
	return out
}

func (o *op) completeRitual(id string) RitualResult {
	idx := findRitual(o.st.Rituals, id)
	if idx < 0 {
		return RitualResult{Status: OutcomeNotFound}
	}
	ritual := o.st.Rituals[idx]

	before := ComputeProgress(ritual, o.st.RitualLogs, o.now)
	if before.Completed {
		return RitualResult{Status: OutcomeAlreadyCompleted, Ritual: ritual, Progress: before}
	}

	entry := RitualLog{ID: o.newID(), RitualID: ritual.ID, Timestamp: o.now}
	logs := append(o.st.RitualLogs, entry)
	after := ComputeProgress(ritual, logs, o.now)

	mult := 0.0
	if o.streakBonus {
		mult = after.Multiplier
	}
	xp := o.sink.GrantXP(int(math.Round(float64(ritual.XP) * (1 + mult))))
	obedience := o.sink.GrantObedience(ritual.Obedience)

	entry.XPAwarded = &xp
	entry.ObedienceAwarded = &obedience
	entry.MultiplierApplied = &mult
	logs[len(logs)-1] = entry
	o.st.RitualLogs = logs

	o.st.Rituals[idx].Streak = after.Streak
	buffs := o.sink.triggerSource(ritual.Name)
	shamed := o.shameNamedNPCs(ritual.Name, ritualNPCShame)
	companionXP := o.gainCompanionXP(CompanionRitual, 0)

	o.log.Debug("ritual completed", "ritual", ritual.ID, "streak", after.Streak, "xp", xp)
	return RitualResult{
		Status:           OutcomeCompleted,
		Ritual:           o.st.Rituals[idx],
		XPAwarded:        xp,
		ObedienceAwarded: obedience,
		Multiplier:       mult,
		Progress:         after,
		BuffsTriggered:   buffs,
		NPCsShamed:       shamed,
		CompanionXP:      companionXP,
	}
}

// resetRitualStreak drops every log for the ritual.
func (o *op) resetRitualStreak(id string) Outcome {
	idx := findRitual(o.st.Rituals, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	o.st.RitualLogs = slices.DeleteFunc(o.st.RitualLogs, func(l RitualLog) bool { return l.RitualID == id })
	o.st.Rituals[idx].Streak = 0
	return OutcomeUpdated
}

type AddRitualInput struct {
	Name      string
	Type      Recurrence
	XP        int
	Obedience int
}

func (o *op) addRitual(in AddRitualInput) (Ritual, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Ritual{}, InputError{Field: "name", Reason: "is required"}
	}
	if !in.Type.IsValid() {
		return Ritual{}, InputError{Field: "type", Reason: "must be daily, weekly, monthly or yearly"}
	}
	if in.XP < 0 || in.Obedience < 0 {
		return Ritual{}, InputError{Field: "reward", Reason: "must not be negative"}
	}
	r := Ritual{ID: o.newID(), Name: name, Type: in.Type, XP: in.XP, Obedience: in.Obedience}
	o.st.Rituals = append(o.st.Rituals, r)
	return r, nil
}

func (o *op) deleteRitual(id string) Outcome {
	idx := findRitual(o.st.Rituals, id)
	if idx < 0 {
		return OutcomeNotFound
	}
	o.st.Rituals = slices.Delete(o.st.Rituals, idx, idx+1)
	o.st.RitualLogs = slices.DeleteFunc(o.st.RitualLogs, func(l RitualLog) bool { return l.RitualID == id })
	return OutcomeUpdated
}
