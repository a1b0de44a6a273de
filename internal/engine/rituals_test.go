package engine

import (
	"context"
	"testing"
	"time"
)

const day = 24 * time.Hour

func dailyLogs(id string, offsets ...int) []RitualLog {
	var logs []RitualLog
	for _, off := range offsets {
		logs = append(logs, RitualLog{ID: "l", RitualID: id, Timestamp: baseTime.Add(time.Duration(off) * day)})
	}
	return logs
}

func TestComputeProgressThreeDayStreak(t *testing.T) {
	r := Ritual{ID: "r1", Type: RecurrenceDaily, XP: 100}
	p := ComputeProgress(r, dailyLogs("r1", -2, -1, 0), baseTime)

	if p.Streak != 3 || !p.Completed || p.Multiplier != 0.10 {
		t.Fatalf("progress=%+v, want streak 3 completed multiplier 0.10", p)
	}
	if p.LastCompletedAt == nil || !p.LastCompletedAt.Equal(baseTime) {
		t.Fatalf("LastCompletedAt=%v, want %v", p.LastCompletedAt, baseTime)
	}
}

func TestComputeProgressGapEndsStreak(t *testing.T) {
	r := Ritual{ID: "r1", Type: RecurrenceDaily}

	before := ComputeProgress(r, dailyLogs("r1", -3, -2), baseTime)
	if before.Streak != 0 || before.Completed {
		t.Fatalf("before=%+v, want streak 0 not completed", before)
	}

	after := ComputeProgress(r, dailyLogs("r1", -3, -2, 0), baseTime)
	if after.Streak != 1 || !after.Completed || after.Multiplier != 0 {
		t.Fatalf("after=%+v, want streak 1 completed no multiplier", after)
	}
}

func TestComputeProgressYesterdayKeepsStreakOpen(t *testing.T) {
	r := Ritual{ID: "r1", Type: RecurrenceDaily}
	p := ComputeProgress(r, dailyLogs("r1", -3, -2, -1), baseTime)
	if p.Completed || p.Streak != 3 {
		t.Fatalf("progress=%+v, want streak 3 not yet completed today", p)
	}
}

func TestComputeProgressSamePeriodCountsOnce(t *testing.T) {
	r := Ritual{ID: "r1", Type: RecurrenceDaily}
	logs := dailyLogs("r1", 0, 0, -1)
	logs = append(logs, RitualLog{RitualID: "other", Timestamp: baseTime.Add(-2 * day)})
	p := ComputeProgress(r, logs, baseTime)
	if p.Streak != 2 {
		t.Fatalf("streak=%d, want 2", p.Streak)
	}
}

func TestComputeProgressNoLogs(t *testing.T) {
	p := ComputeProgress(Ritual{ID: "r1", Type: RecurrenceWeekly}, nil, baseTime)
	if p.Streak != 0 || p.Completed || p.Multiplier != 0 || p.LastCompletedAt != nil {
		t.Fatalf("progress=%+v, want zero", p)
	}
}

func TestPeriodIndex(t *testing.T) {
	epoch := time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := PeriodIndex(epoch, RecurrenceDaily); got != 0 {
		t.Fatalf("daily epoch=%d, want 0", got)
	}
	if got := PeriodIndex(epoch.AddDate(0, 0, 6), RecurrenceWeekly); got != 0 {
		t.Fatalf("weekly day 6=%d, want 0", got)
	}
	if got := PeriodIndex(epoch.AddDate(0, 0, 7), RecurrenceWeekly); got != 1 {
		t.Fatalf("weekly day 7=%d, want 1", got)
	}
	if got := PeriodIndex(baseTime, RecurrenceMonthly); got != 2025*12+2 {
		t.Fatalf("monthly=%d, want %d", got, 2025*12+2)
	}
	if got := PeriodIndex(baseTime, RecurrenceYearly); got != 2025 {
		t.Fatalf("yearly=%d, want 2025", got)
	}

	// The calendar date in the timestamp's own zone decides the bucket.
	tokyo := time.FixedZone("JST", 9*3600)
	late := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC) // already Mar 10 in Tokyo
	if PeriodIndex(late.In(tokyo), RecurrenceDaily) != PeriodIndex(baseTime, RecurrenceDaily) {
		t.Fatalf("expected same local day in Tokyo")
	}
}

func TestMonthlyAndYearlyMultipliers(t *testing.T) {
	monthly := Ritual{ID: "m", Type: RecurrenceMonthly}
	logs := []RitualLog{
		{RitualID: "m", Timestamp: baseTime.AddDate(0, -2, 0)},
		{RitualID: "m", Timestamp: baseTime.AddDate(0, -1, 0)},
		{RitualID: "m", Timestamp: baseTime},
	}
	if p := ComputeProgress(monthly, logs, baseTime); p.Streak != 3 || p.Multiplier != 0.50 {
		t.Fatalf("monthly=%+v, want streak 3 multiplier 0.50", p)
	}

	yearly := Ritual{ID: "y", Type: RecurrenceYearly}
	var ylogs []RitualLog
	for i := range 5 {
		ylogs = append(ylogs, RitualLog{RitualID: "y", Timestamp: baseTime.AddDate(-i, 0, 0)})
	}
	if p := ComputeProgress(yearly, ylogs, baseTime); p.Streak != 5 || p.Multiplier != 0 {
		t.Fatalf("yearly=%+v, want streak 5 and no multiplier", p)
	}
}

func seedRitual(t *testing.T, svc *Service, extra func(st *State)) {
	t.Helper()
	seed(t, svc, func(st *State) {
		st.Rituals = []Ritual{{ID: "r1", Name: "Morning", Type: RecurrenceDaily, XP: 100, Obedience: 10}}
		if extra != nil {
			extra(st)
		}
	})
}

func TestCompleteRitualFirstCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedRitual(t, svc, nil)

	res, err := svc.CompleteRitual(ctx, "r1")
	if err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	if res.Status != OutcomeCompleted || res.XPAwarded != 100 || res.ObedienceAwarded != 10 {
		t.Fatalf("result=%+v", res)
	}
	if res.Progress.Streak != 1 || !res.Progress.Completed || res.Progress.Multiplier != 0 {
		t.Fatalf("progress=%+v, want {1 true 0}", res.Progress)
	}

	st := mustState(t, svc)
	if len(st.RitualLogs) != 1 {
		t.Fatalf("logs=%d, want 1", len(st.RitualLogs))
	}
	l := st.RitualLogs[0]
	if l.XPAwarded == nil || *l.XPAwarded != 100 || l.ObedienceAwarded == nil || *l.ObedienceAwarded != 10 {
		t.Fatalf("log=%+v, want awarded amounts recorded", l)
	}
	if st.Rituals[0].Streak != 1 {
		t.Fatalf("cached streak=%d, want 1", st.Rituals[0].Streak)
	}
	if st.Profile.XP != 100 || st.Profile.Obedience != 10 {
		t.Fatalf("profile=%+v", st.Profile)
	}
}

func TestCompleteRitualIdempotentPerPeriod(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	seedRitual(t, svc, nil)

	if _, err := svc.CompleteRitual(ctx, "r1"); err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	clock.Advance(3 * time.Hour)
	res, err := svc.CompleteRitual(ctx, "r1")
	if err != nil {
		t.Fatalf("CompleteRitual again: %v", err)
	}
	if res.Status != OutcomeAlreadyCompleted || res.XPAwarded != 0 {
		t.Fatalf("second result=%+v, want already-completed", res)
	}

	st := mustState(t, svc)
	if len(st.RitualLogs) != 1 || st.Profile.XP != 100 {
		t.Fatalf("logs=%d xp=%d, want 1 log and 100 xp", len(st.RitualLogs), st.Profile.XP)
	}
}

func TestCompleteRitualStreakBonusOnThirdDay(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	seedRitual(t, svc, nil)

	var res RitualResult
	for i := range 3 {
		if i > 0 {
			clock.Advance(day)
		}
		var err error
		res, err = svc.CompleteRitual(ctx, "r1")
		if err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
	}
	if res.Progress.Streak != 3 || res.Multiplier != 0.10 || res.XPAwarded != 110 {
		t.Fatalf("third=%+v, want streak 3, multiplier 0.10, 110 xp", res)
	}
	if st := mustState(t, svc); st.Profile.XP != 310 {
		t.Fatalf("profile xp=%d, want 310", st.Profile.XP)
	}
}

func TestCompleteRitualStreakBonusDisabled(t *testing.T) {
	svc, _ := newTestService(t, WithStreakMultiplier(false))
	ctx := context.Background()
	seedRitual(t, svc, func(st *State) {
		st.RitualLogs = dailyLogs("r1", -2, -1)
	})

	res, err := svc.CompleteRitual(ctx, "r1")
	if err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	if res.XPAwarded != 100 || res.Multiplier != 0 || res.Progress.Multiplier != 0.10 {
		t.Fatalf("result=%+v, want base xp with the bonus only reported", res)
	}
}

func TestCompleteRitualUsesBuffedAmounts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedRitual(t, svc, func(st *State) {
		st.Buffs = []Buff{
			{ID: "b1", Name: "Focus", Type: BuffXPMultiplier, Value: 1.5, Active: true},
			{ID: "b2", Name: "Dawn", Source: "Morning", Type: BuffObedienceGain, Value: 2, Duration: "6h"},
		}
	})

	res, err := svc.CompleteRitual(ctx, "r1")
	if err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	if res.XPAwarded != 150 {
		t.Fatalf("xp=%d, want 150 after buff", res.XPAwarded)
	}
	// The source buff switches on after this completion's grants.
	if res.ObedienceAwarded != 10 {
		t.Fatalf("obedience=%d, want 10", res.ObedienceAwarded)
	}
	if len(res.BuffsTriggered) != 1 || res.BuffsTriggered[0] != "Dawn" {
		t.Fatalf("triggered=%v, want [Dawn]", res.BuffsTriggered)
	}

	st := mustState(t, svc)
	if *st.RitualLogs[0].XPAwarded != 150 {
		t.Fatalf("log xp=%d, want applied 150", *st.RitualLogs[0].XPAwarded)
	}
	b := st.Buffs[1]
	if !b.Active || b.ExpiresAt == nil || !b.ExpiresAt.Equal(baseTime.Add(6*time.Hour)) {
		t.Fatalf("source buff=%+v, want active until +6h", b)
	}
}

func TestCompleteRitualNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	seedRitual(t, svc, nil)

	res, err := svc.CompleteRitual(context.Background(), "nope")
	if err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	if res.Status != OutcomeNotFound {
		t.Fatalf("status=%s, want not-found", res.Status)
	}
}

func TestResetRitualStreak(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seedRitual(t, svc, func(st *State) {
		st.RitualLogs = dailyLogs("r1", -2, -1)
		st.Rituals[0].Streak = 2
	})

	out, err := svc.ResetRitualStreak(ctx, "r1")
	if err != nil || out != OutcomeUpdated {
		t.Fatalf("ResetRitualStreak=%s, %v", out, err)
	}
	st := mustState(t, svc)
	if len(st.RitualLogs) != 0 || st.Rituals[0].Streak != 0 {
		t.Fatalf("logs=%d streak=%d, want cleared", len(st.RitualLogs), st.Rituals[0].Streak)
	}
}

func TestAddAndDeleteRitual(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {})

	r, err := svc.AddRitual(ctx, AddRitualInput{Name: "Stretch", Type: RecurrenceWeekly, XP: 40})
	if err != nil {
		t.Fatalf("AddRitual: %v", err)
	}
	if _, err := svc.CompleteRitual(ctx, r.ID); err != nil {
		t.Fatalf("CompleteRitual: %v", err)
	}
	out, err := svc.DeleteRitual(ctx, r.ID)
	if err != nil || out != OutcomeUpdated {
		t.Fatalf("DeleteRitual=%s, %v", out, err)
	}
	st := mustState(t, svc)
	if len(st.Rituals) != 0 || len(st.RitualLogs) != 0 {
		t.Fatalf("rituals=%d logs=%d, want none", len(st.Rituals), len(st.RitualLogs))
	}
}
