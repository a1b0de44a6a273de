package root

import (
	"strings"
	"testing"
	"time"

	"reverie/internal/engine"
)

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	st := &engine.State{
		Profile: engine.Profile{XP: 600, Titles: []string{"Veilwalker"}},
		Rituals: []engine.Ritual{{ID: "r1", Name: "Morning Devotion", Type: engine.RecurrenceDaily}},
		RitualLogs: []engine.RitualLog{
			{RitualID: "r1", Timestamp: now.Add(-48 * time.Hour)},
			{RitualID: "r1", Timestamp: now.Add(-24 * time.Hour)},
			{RitualID: "r1", Timestamp: now},
		},
		Dungeons: []engine.Dungeon{
			{ID: "caves_of_shame", Name: "Caves of Shame", Difficulty: "easy", Unlocked: true, Cleared: true, TimesCleared: 2},
			{ID: "temple", Name: "Temple", Difficulty: "normal"},
		},
		Quests: engine.QuestLedger{
			Quests: []engine.Quest{
				{Title: "Open quest", Status: engine.QuestActive, Priority: engine.PriorityHigh},
				{Title: "Done quest", Status: engine.QuestCompleted},
			},
			QuestsCompleted: 1,
		},
		Achievements: []engine.Achievement{{Title: "First Steps", Unlocked: true}, {Title: "Hidden"}},
		Companions:   []engine.Companion{{Name: "Luna", Level: 2, XP: 15, Bond: 20}},
		NPCs:         []engine.NPC{{Name: "Selene", Role: "Mistress", Trust: 35, Shame: 15}},
	}

	md := buildReport(st, now)
	for _, want := range []string{
		"**Level 1**",
		"Titles: Veilwalker",
		"| Morning Devotion | Daily | 3 | yes | +10% |",
		"cleared ×2",
		"**Temple** (normal): locked",
		"- [ ] Open quest (high, 0%)",
		"1 of 2 unlocked.",
		"- ★ First Steps",
		"- Luna: level 2, 15/60 XP, bond 20",
		"- Selene (Mistress): trust 35, shame 15",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Done quest") || strings.Contains(md, "★ Hidden") {
		t.Fatalf("report lists closed items:\n%s", md)
	}
}
