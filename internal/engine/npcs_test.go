package engine

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRitualShamesNamedNPCsAndFeedsCompanions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.Rituals = []Ritual{{ID: "kneel", Name: "Kneel for Selene", Type: RecurrenceDaily, XP: 50}}
		st.NPCs = []NPC{{ID: "selene", Name: "Selene", Shame: 10}, {ID: "orrin", Name: "Orrin"}}
		st.Companions = []Companion{{ID: "luna", Name: "Luna", Level: 1}}
	})

	res, err := svc.CompleteRitual(ctx, "kneel")
	if err != nil || res.Status != OutcomeCompleted {
		t.Fatalf("CompleteRitual: %+v err=%v", res, err)
	}
	if len(res.NPCsShamed) != 1 || res.NPCsShamed[0] != "selene" || res.CompanionXP != 20 {
		t.Fatalf("shamed=%v companionXP=%d", res.NPCsShamed, res.CompanionXP)
	}

	if again, _ := svc.CompleteRitual(ctx, "kneel"); again.Status != OutcomeAlreadyCompleted || len(again.NPCsShamed) != 0 {
		t.Fatalf("second completion: %+v", again)
	}
	st := mustState(t, svc)
	if st.NPCs[0].Shame != 15 || st.NPCs[1].Shame != 0 {
		t.Fatalf("npcs=%+v", st.NPCs)
	}
	if c := st.Companions[0]; c.Level != 1 || c.XP != 20 {
		t.Fatalf("companion=%+v", c)
	}
}

func TestNPCShameAtMaxGrantsTitleOnce(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.Rituals = []Ritual{{ID: "kneel", Name: "Kneel for Selene", Type: RecurrenceDaily}}
		st.NPCs = []NPC{{ID: "selene", Name: "Selene", Shame: 98}}
	})

	for range 2 {
		if _, err := svc.CompleteRitual(ctx, "kneel"); err != nil {
			t.Fatal(err)
		}
		clock.Advance(24 * time.Hour)
	}
	st := mustState(t, svc)
	if st.NPCs[0].Shame != 100 {
		t.Fatalf("shame=%d, want clamped at 100", st.NPCs[0].Shame)
	}
	if len(st.Profile.Titles) != 1 || st.Profile.Titles[0] != shameMaxTitle {
		t.Fatalf("titles=%v", st.Profile.Titles)
	}
}

func TestCompanionXPUsesBuffs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.Rituals = []Ritual{{ID: "r1", Name: "Dream Recall", Type: RecurrenceDaily}}
		st.Companions = []Companion{{ID: "luna", Name: "Luna", Level: 1}}
		st.Buffs = []Buff{{ID: "b1", Type: BuffXPMultiplier, Value: 1.5, Active: true}}
	})

	res, err := svc.CompleteRitual(ctx, "r1")
	if err != nil || res.CompanionXP != 30 {
		t.Fatalf("companion xp=%d err=%v, want 30", res.CompanionXP, err)
	}
}

func TestCompanionGainLevels(t *testing.T) {
	cases := []struct {
		start     Companion
		xp        int
		wantLevel int
		wantXP    int
		levels    int
	}{
		{Companion{Level: 1}, 39, 1, 39, 0},
		{Companion{Level: 1, XP: 30}, 50, 2, 40, 1},
		{Companion{}, 200, 4, 20, 3},
	}
	for _, c := range cases {
		got := c.start
		if n := got.gain(c.xp); n != c.levels || got.Level != c.wantLevel || got.XP != c.wantXP {
			t.Fatalf("gain(%d) from %+v: levels=%d companion=%+v", c.xp, c.start, n, got)
		}
	}
	if CompanionXPForLevel(1) != 0 || CompanionXPForLevel(2) != 40 || CompanionXPForLevel(5) != 100 {
		t.Fatalf("level thresholds")
	}
}

func TestStageTrustsNamedNPCs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ql := Questline{
		ID:   "shore",
		Name: "The Shore",
		Stages: []QuestStage{
			{ID: "s1", Title: "Walk with Orrin", XP: 100},
			{ID: "s2", Title: "Orrin's map", XP: 50},
			{ID: "s3", Title: "Alone", XP: 10},
		},
	}
	seed(t, svc, func(st *State) {
		st.Questlines = []Questline{ql}
		st.NPCs = []NPC{{ID: "orrin", Name: "Orrin", Trust: 98}, {ID: "selene", Name: "Selene", Trust: 30}}
		st.Companions = []Companion{{ID: "luna", Name: "Luna", Level: 1}}
	})

	res, err := svc.CompleteStage(ctx, "shore", "s1", "")
	if err != nil || len(res.NPCsTrusted) != 1 || res.NPCsTrusted[0] != "orrin" {
		t.Fatalf("s1: %+v err=%v", res, err)
	}
	st := mustState(t, svc)
	if st.NPCs[0].Trust != 100 || st.NPCs[1].Trust != 30 {
		t.Fatalf("npcs=%+v", st.NPCs)
	}
	if len(st.NPCAchievements) != 1 || st.NPCAchievements[0] != trustMaxAchievement || st.Profile.XP != 100+trustMaxXP {
		t.Fatalf("npc achievements=%v xp=%d", st.NPCAchievements, st.Profile.XP)
	}
	// 100 quest XP: 40 to level 2, 60 to level 3.
	if c := st.Companions[0]; c.Level != 3 || c.XP != 0 {
		t.Fatalf("companion=%+v", c)
	}

	if _, err := svc.CompleteStage(ctx, "shore", "s2", ""); err != nil {
		t.Fatal(err)
	}
	if st := mustState(t, svc); st.Profile.XP != 150+trustMaxXP || len(st.NPCAchievements) != 1 {
		t.Fatalf("full trust rewarded twice: xp=%d %v", st.Profile.XP, st.NPCAchievements)
	}
}

func TestJournalEntryCountsNPCsAndFeedsCompanions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.NPCs = []NPC{{ID: "selene", Name: "Selene"}}
		st.Companions = []Companion{{ID: "luna", Name: "Luna", Level: 1}}
	})

	if _, err := svc.RecordJournalEntry(ctx, JournalInput{Title: "Temple", Companions: []string{"selene"}}); err != nil {
		t.Fatal(err)
	}
	st := mustState(t, svc)
	if st.NPCs[0].DreamCount != 1 || st.Companions[0].XP != 10 {
		t.Fatalf("npc=%+v companion=%+v", st.NPCs[0], st.Companions[0])
	}
}

func TestEnsureNPCAndUpsertCompanionKeepProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.NPCs = []NPC{{ID: "selene", Name: "Selene", Trust: 70}}
		st.Companions = []Companion{{ID: "luna", Name: "Luna", Level: 3, XP: 12, Bond: 40}}
	})

	n, err := svc.EnsureNPC(ctx, NPCInput{Name: "selene"})
	if err != nil || n.ID != "selene" || n.Trust != 70 {
		t.Fatalf("existing npc: %+v err=%v", n, err)
	}
	n, err = svc.EnsureNPC(ctx, NPCInput{Name: "Mara"})
	if err != nil || !strings.HasPrefix(n.ID, "npc-") || n.Role != "Friend" || n.Trust != 30 || n.Shame != 10 {
		t.Fatalf("new npc: %+v err=%v", n, err)
	}
	if _, err := svc.EnsureNPC(ctx, NPCInput{Name: " "}); err == nil {
		t.Fatalf("blank npc name accepted")
	}

	c, err := svc.UpsertCompanion(ctx, Companion{ID: "luna", Name: "Luna", Forms: []string{"Moth", "Owl"}})
	if err != nil || c.Level != 3 || c.XP != 12 || c.Bond != 40 || !c.Evolved() {
		t.Fatalf("upsert: %+v err=%v", c, err)
	}
}
