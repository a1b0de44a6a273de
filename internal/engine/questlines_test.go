package engine

import (
	"context"
	"testing"
)

func veil() Questline {
	return Questline{
		ID:   "veil",
		Name: "Path of the Veil",
		Stages: []QuestStage{
			{ID: "gate", Title: "The Gate", XP: 100},
			{ID: "fork", Title: "The Fork", XP: 50, BranchChoices: []QuestBranch{
				{ID: "light", Title: "Light", Reward: &QuestReward{XP: 30, Item: "lantern"}},
				{ID: "shadow", Title: "Shadow", Reward: &QuestReward{Buff: "Shadow Pact"}},
			}},
			{ID: "end", Title: "The Veil", XP: 200},
		},
		Reward:        &QuestReward{XP: 500, Title: "Veilwalker"},
		Branching:     true,
		ActiveStageID: "gate",
	}
}

func TestCompleteStageBranchRequired(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) { st.Questlines = []Questline{veil()} })

	if res, _ := svc.CompleteStage(ctx, "veil", "gate", ""); res.Status != OutcomeCompleted {
		t.Fatalf("gate: %s", res.Status)
	}
	before := mustState(t, svc)

	for _, branch := range []string{"", "twilight"} {
		res, err := svc.CompleteStage(ctx, "veil", "fork", branch)
		if err != nil || res.Status != OutcomeBranchRequired {
			t.Fatalf("fork with %q: %+v err=%v", branch, res, err)
		}
	}
	after := mustState(t, svc)
	if after.Profile.XP != before.Profile.XP || after.Questlines[0].Stages[1].Completed {
		t.Fatalf("branch-required mutated state: xp %d -> %d", before.Profile.XP, after.Profile.XP)
	}
	if after.Questlines[0].ActiveStageID != "fork" {
		t.Fatalf("active stage=%s, want fork", after.Questlines[0].ActiveStageID)
	}
}

func TestCompleteStageAwardsBranchReward(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) { st.Questlines = []Questline{veil()} })

	if _, err := svc.CompleteStage(ctx, "veil", "gate", ""); err != nil {
		t.Fatal(err)
	}
	res, err := svc.CompleteStage(ctx, "veil", "fork", "light")
	if err != nil || res.Status != OutcomeCompleted || res.Branch == nil || res.Branch.ID != "light" {
		t.Fatalf("fork: %+v err=%v", res, err)
	}
	st := mustState(t, svc)
	// gate 100, fork 50, light branch 30
	if st.Profile.XP != 180 || st.Profile.Items["lantern"] != 1 {
		t.Fatalf("profile=%+v", st.Profile)
	}
	if st.Questlines[0].Stages[1].ChosenBranchID != "light" || st.Questlines[0].ActiveStageID != "end" {
		t.Fatalf("questline=%+v", st.Questlines[0])
	}
	if got := QuestlineProgress(st.Questlines[0]); got != 66 {
		t.Fatalf("progress=%d, want 66", got)
	}
}

func TestBranchBuffRewardTriggersStoredBuff(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.Questlines = []Questline{veil()}
		st.Buffs = []Buff{{ID: "pact", Name: "Pact", Source: "shadow pact", Type: BuffObedienceGain, Value: 2, Duration: "1h"}}
	})

	if res, _ := svc.ChooseBranch(ctx, "veil", "fork", "shadow"); res != OutcomeUpdated {
		t.Fatalf("ChooseBranch: %s", res)
	}
	if res, _ := svc.CompleteStage(ctx, "veil", "fork", ""); res.Status != OutcomeCompleted {
		t.Fatalf("fork with chosen branch: %s", res.Status)
	}
	st := mustState(t, svc)
	if !st.Buffs[0].Active || st.Buffs[0].ExpiresAt == nil {
		t.Fatalf("buff=%+v, want active", st.Buffs[0])
	}
}

func TestQuestlineCompletesOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) { st.Questlines = []Questline{veil()} })

	steps := []struct{ stage, branch string }{{"gate", ""}, {"fork", "shadow"}, {"end", ""}}
	var last StageResult
	for _, s := range steps {
		var err error
		last, err = svc.CompleteStage(ctx, "veil", s.stage, s.branch)
		if err != nil {
			t.Fatal(err)
		}
	}
	if last.Status != OutcomeQuestlineCompleted {
		t.Fatalf("last stage: %s", last.Status)
	}
	st := mustState(t, svc)
	// 100 + 50 + 200 + 500
	if st.Profile.XP != 850 || len(st.Profile.Titles) != 1 || st.Profile.Titles[0] != "Veilwalker" {
		t.Fatalf("profile=%+v", st.Profile)
	}
	if !st.Questlines[0].Completed || st.Questlines[0].ActiveStageID != "" {
		t.Fatalf("questline=%+v", st.Questlines[0])
	}

	if res, _ := svc.CompleteStage(ctx, "veil", "end", ""); res.Status != OutcomeAlreadyCompleted {
		t.Fatalf("repeat: %s", res.Status)
	}
	if st := mustState(t, svc); st.Profile.XP != 850 {
		t.Fatalf("xp after repeat=%d", st.Profile.XP)
	}
}

func TestStageAndQuestlineLookups(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) { st.Questlines = []Questline{veil()} })

	if res, _ := svc.CompleteStage(ctx, "nope", "gate", ""); res.Status != OutcomeNotFound {
		t.Fatalf("unknown questline: %s", res.Status)
	}
	if res, _ := svc.CompleteStage(ctx, "veil", "nope", ""); res.Status != OutcomeNotFound {
		t.Fatalf("unknown stage: %s", res.Status)
	}
	if out, _ := svc.ChooseBranch(ctx, "veil", "fork", "twilight"); out != OutcomeNotFound {
		t.Fatalf("unknown branch: %s", out)
	}
}

func TestResetQuestline(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) { st.Questlines = []Questline{veil()} })

	for _, s := range []struct{ stage, branch string }{{"gate", ""}, {"fork", "light"}} {
		if _, err := svc.CompleteStage(ctx, "veil", s.stage, s.branch); err != nil {
			t.Fatal(err)
		}
	}
	if out, _ := svc.ResetQuestline(ctx, "veil"); out != OutcomeUpdated {
		t.Fatalf("reset: %s", out)
	}
	st := mustState(t, svc)
	ql := st.Questlines[0]
	if ql.ActiveStageID != "gate" || ql.Stages[0].Completed || ql.Stages[1].ChosenBranchID != "" {
		t.Fatalf("questline after reset=%+v", ql)
	}
	if st.Profile.XP != 180 {
		t.Fatalf("reset should keep granted xp, got %d", st.Profile.XP)
	}
	if out, _ := svc.ResetQuestline(ctx, "nope"); out != OutcomeNotFound {
		t.Fatalf("reset unknown: %s", out)
	}
}
