package engine

import (
	"context"
	"strings"
	"testing"
)

func testDungeon(id string, unlocked bool) Dungeon {
	return Dungeon{
		ID:       id,
		Name:     strings.ToUpper(id),
		Unlocked: unlocked,
		RoomPool: []RoomTemplate{
			{Type: RoomTrial, Subtype: "obedience", Desc: "kneel", Weight: 2},
			{Type: RoomLoot, Desc: "chest", Weight: 1},
			{Type: RoomBoss, Desc: "boss"},
		},
		LootPool: []Loot{{ID: "l1", Name: "Charm", Rarity: "common"}},
		Boss:     &Boss{Name: "Warden", Weakness: "confession", Rewards: BossRewards{XP: 100, Tokens: 10}},
	}
}

func TestGenerateRunShape(t *testing.T) {
	d := testDungeon("d1", true)
	for seed := range uint64(300) {
		rooms := GenerateRun(d, NewStream(seed))
		if len(rooms) < 4 || len(rooms) > 6 {
			t.Fatalf("seed %d: %d rooms, want 4-6", seed, len(rooms))
		}
		bosses := 0
		for i, r := range rooms {
			if r.Type == RoomBoss {
				bosses++
			}
			if r.Rewards == nil || r.Rewards.XP != 50+10*i {
				t.Fatalf("seed %d room %d rewards=%+v, want xp %d", seed, i, r.Rewards, 50+10*i)
			}
		}
		last := rooms[len(rooms)-1]
		if bosses != 1 || last.Type != RoomBoss || last.ID != BossRoomID {
			t.Fatalf("seed %d: bosses=%d last=%+v", seed, bosses, last)
		}
		if rooms[0].ID != "room_1" {
			t.Fatalf("seed %d: first id=%s", seed, rooms[0].ID)
		}
	}
}

func TestGenerateRunWithoutBossTemplate(t *testing.T) {
	d := testDungeon("d1", true)
	d.RoomPool = d.RoomPool[:2]
	for seed := range uint64(100) {
		rooms := GenerateRun(d, NewStream(seed))
		if len(rooms) < 3 || len(rooms) > 5 {
			t.Fatalf("seed %d: %d rooms, want 3-5", seed, len(rooms))
		}
		for _, r := range rooms {
			if r.Type == RoomBoss {
				t.Fatalf("seed %d: unexpected boss room", seed)
			}
		}
	}
}

func TestGenerateRunHonoursWeights(t *testing.T) {
	d := Dungeon{RoomPool: []RoomTemplate{
		{Type: RoomTrial, Subtype: "heavy", Weight: 9},
		{Type: RoomTrial, Subtype: "light", Weight: 1},
	}}
	rng := NewStream(7)
	heavy, light := 0, 0
	for range 2000 {
		for _, r := range GenerateRun(d, rng) {
			if r.Subtype == "heavy" {
				heavy++
			} else {
				light++
			}
		}
	}
	if light == 0 || heavy < 5*light {
		t.Fatalf("heavy=%d light=%d, want roughly 9:1", heavy, light)
	}
}

func TestResolveTrialPolicies(t *testing.T) {
	rng := &scriptedRand{}
	if ResolveTrial("shame", "short", rng) {
		t.Fatalf("short confession should fail")
	}
	if ResolveTrial("shame", "0123456789", rng) {
		t.Fatalf("exactly ten characters should fail")
	}
	if !ResolveTrial("shame", "a sufficiently long confession", rng) {
		t.Fatalf("long confession should pass")
	}
	if !ResolveTrial("obedience", "", rng) || !ResolveTrial("ritual", "", rng) {
		t.Fatalf("obedience and ritual always pass")
	}
	if ResolveTrial("riddle-of-steel", "", rng) {
		t.Fatalf("unknown subtypes fail")
	}

	cases := []struct {
		subtype string
		roll    float64
		want    bool
	}{
		{"combat", 0.69, true},
		{"combat", 0.70, false},
		{"psychic", 0.59, true},
		{"psychic", 0.60, false},
		{"puzzle", 0.49, true},
		{"puzzle", 0.50, false},
	}
	for _, c := range cases {
		if got := ResolveTrial(c.subtype, "", &scriptedRand{floats: []float64{c.roll}}); got != c.want {
			t.Fatalf("%s at %.2f = %v, want %v", c.subtype, c.roll, got, c.want)
		}
	}
}

func TestResolveBossWeaknessOdds(t *testing.T) {
	boss := Boss{Name: "Warden", Weakness: "confession"}
	rng := NewStream(99)
	const n = 5000
	hit, miss := 0, 0
	for range n {
		if ResolveBoss(boss, "confession", rng) {
			hit++
		}
		if ResolveBoss(boss, "direct_combat", rng) {
			miss++
		}
	}
	if hit <= miss {
		t.Fatalf("weakness wins %d <= mismatched wins %d", hit, miss)
	}
	if hit < n*70/100 || hit > n*90/100 || miss < n*20/100 || miss > n*40/100 {
		t.Fatalf("hit=%d miss=%d outside generous bounds of 80%%/30%%", hit, miss)
	}
}

func TestStartRunPolicies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, func(st *State) {
		st.Dungeons = []Dungeon{testDungeon("d1", true), testDungeon("d2", false), testDungeon("d3", true)}
	})

	if ok, err := svc.StartRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing dungeon: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.StartRun(ctx, "d2"); err != nil || ok {
		t.Fatalf("locked dungeon: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.StartRun(ctx, "d1"); err != nil || !ok {
		t.Fatalf("start d1: ok=%v err=%v", ok, err)
	}
	first, err := svc.ActiveRun(ctx)
	if err != nil || first == nil {
		t.Fatalf("ActiveRun: %v %v", first, err)
	}
	if first.TotalRooms != len(first.Rooms) || first.CurrentRoomIndex != 0 || !first.StartTime.Equal(baseTime) {
		t.Fatalf("run=%+v", first)
	}

	// A second start is rejected and leaves the active run alone.
	if ok, err := svc.StartRun(ctx, "d3"); err != nil || ok {
		t.Fatalf("start while active: ok=%v err=%v", ok, err)
	}
	again, _ := svc.ActiveRun(ctx)
	if again.DungeonID != "d1" {
		t.Fatalf("active run replaced by %s", again.DungeonID)
	}

	if ok, _ := svc.AbandonRun(ctx); !ok {
		t.Fatalf("AbandonRun should succeed")
	}
	if ok, _ := svc.AbandonRun(ctx); ok {
		t.Fatalf("AbandonRun without a run should report false")
	}
	if ok, err := svc.StartRun(ctx, "d3"); err != nil || !ok {
		t.Fatalf("start after abandon: ok=%v err=%v", ok, err)
	}
}

func seedRun(t *testing.T, svc *Service, dungeons []Dungeon, rooms []DungeonRoom) {
	t.Helper()
	seed(t, svc, func(st *State) {
		st.Dungeons = dungeons
		st.ActiveRun = &DungeonRun{
			DungeonID:     dungeons[0].ID,
			Rooms:         rooms,
			StartTime:     baseTime,
			TotalRooms:    len(rooms),
			LootCollected: []string{},
		}
	})
}

func TestCollectLootBanksItemAndAdvances(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := Dungeon{ID: "d1", Unlocked: true, LootPool: []Loot{{ID: "l1", Name: "Charm"}}}
	seedRun(t, svc, []Dungeon{d}, []DungeonRoom{
		{ID: "room_1", Type: RoomLoot, Rewards: &RoomRewards{XP: 50}},
		{ID: "room_2", Type: RoomTrial, Subtype: "obedience", Rewards: &RoomRewards{XP: 60}},
	})

	ok, err := svc.CollectLoot(ctx)
	if err != nil || !ok {
		t.Fatalf("CollectLoot: ok=%v err=%v", ok, err)
	}
	st := mustState(t, svc)
	if len(st.Inventory) != 1 || st.Inventory[0].ID != "l1" || st.Inventory[0].Name != "Charm" {
		t.Fatalf("inventory=%+v, want l1", st.Inventory)
	}
	if !st.Inventory[0].Obtained.Equal(baseTime) {
		t.Fatalf("obtained=%v, want %v", st.Inventory[0].Obtained, baseTime)
	}
	if st.ActiveRun == nil || st.ActiveRun.CurrentRoomIndex != 1 || st.ActiveRun.CompletedRooms != 1 {
		t.Fatalf("run=%+v, want advanced to room 2", st.ActiveRun)
	}
	if len(st.ActiveRun.LootCollected) != 1 || st.ActiveRun.LootBanked != 1 {
		t.Fatalf("loot collected=%v banked=%d", st.ActiveRun.LootCollected, st.ActiveRun.LootBanked)
	}
	if st.Profile.XP != 50 || st.Profile.Items["l1"] != 1 {
		t.Fatalf("profile=%+v", st.Profile)
	}
}

func TestCollectLootEmptyPoolStillCompletesRoom(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := Dungeon{ID: "d1", Unlocked: true}
	seedRun(t, svc, []Dungeon{d}, []DungeonRoom{
		{ID: "room_1", Type: RoomLoot},
		{ID: "room_2", Type: RoomLoot},
	})

	if ok, err := svc.CollectLoot(ctx); err != nil || !ok {
		t.Fatalf("CollectLoot: ok=%v err=%v", ok, err)
	}
	st := mustState(t, svc)
	if len(st.Inventory) != 0 || st.ActiveRun.CurrentRoomIndex != 1 {
		t.Fatalf("inventory=%v run=%+v", st.Inventory, st.ActiveRun)
	}
}

func TestFailedTrialDoesNotAdvance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := Dungeon{ID: "d1", Unlocked: true}
	seedRun(t, svc, []Dungeon{d}, []DungeonRoom{
		{ID: "room_1", Type: RoomTrial, Subtype: "shame"},
		{ID: "room_2", Type: RoomLoot},
	})

	ok, err := svc.CompleteTrial(ctx, "shame", "short")
	if err != nil || ok {
		t.Fatalf("CompleteTrial short: ok=%v err=%v", ok, err)
	}
	st := mustState(t, svc)
	if st.ActiveRun.CurrentRoomIndex != 0 || st.ActiveRun.Rooms[0].Completed {
		t.Fatalf("run advanced on failure: %+v", st.ActiveRun)
	}

	if ok, _ := svc.CollectLoot(ctx); ok {
		t.Fatalf("CollectLoot on a trial room should fail")
	}
	if ok, _ := svc.FightBoss(ctx, "confession"); ok {
		t.Fatalf("FightBoss on a trial room should fail")
	}
	if ok, _ := svc.CompleteTrial(ctx, "", "a sufficiently long confession"); !ok {
		t.Fatalf("CompleteTrial long: want success")
	}
}

func TestBossWithoutRunFails(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, func(st *State) { st.Dungeons = []Dungeon{testDungeon("d1", true)} })

	for name, fn := range map[string]func(context.Context) (bool, error){
		"boss":  func(ctx context.Context) (bool, error) { return svc.FightBoss(ctx, "x") },
		"loot":  svc.CollectLoot,
		"trial": func(ctx context.Context) (bool, error) { return svc.CompleteTrial(ctx, "obedience", "") },
	} {
		if ok, err := fn(context.Background()); err != nil || ok {
			t.Fatalf("%s without run: ok=%v err=%v", name, ok, err)
		}
	}
}

func TestFullRunClearsDungeon(t *testing.T) {
	svc, _ := newTestService(t, WithRand(&scriptedRand{ints: []int{0}, floats: []float64{0.5}}))
	ctx := context.Background()
	d1 := testDungeon("d1", true)
	d2 := testDungeon("d2", false)
	seedRun(t, svc, []Dungeon{d1, d2}, []DungeonRoom{
		{ID: "room_1", Type: RoomTrial, Subtype: "obedience", Rewards: &RoomRewards{XP: 50}},
		{ID: "room_2", Type: RoomLoot, Rewards: &RoomRewards{XP: 60}},
		{ID: BossRoomID, Type: RoomBoss, Rewards: &RoomRewards{XP: 70}},
	})

	if ok, _ := svc.CompleteTrial(ctx, "", ""); !ok {
		t.Fatalf("obedience trial should pass")
	}
	if ok, _ := svc.CollectLoot(ctx); !ok {
		t.Fatalf("CollectLoot should pass")
	}
	// 0.5 is under the 80% weakness chance.
	if ok, _ := svc.FightBoss(ctx, "confession"); !ok {
		t.Fatalf("boss should fall to its weakness at roll 0.5")
	}

	st := mustState(t, svc)
	if st.ActiveRun != nil {
		t.Fatalf("run should be cleared")
	}
	if !st.Dungeons[0].Cleared || st.Dungeons[0].TimesCleared != 1 {
		t.Fatalf("dungeon=%+v", st.Dungeons[0])
	}
	if !st.Dungeons[1].Unlocked {
		t.Fatalf("next dungeon should unlock")
	}
	p := st.DungeonProgress
	if p.TotalClearedDungeons != 1 || p.TotalBossesDefeated != 1 {
		t.Fatalf("progress=%+v", p)
	}
	if len(p.Honors) != 2 || p.Honors[0] != "first_dungeon" || p.Honors[1] != "boss_slayer" {
		t.Fatalf("honors=%v", p.Honors)
	}
	if len(st.Inventory) != 1 {
		t.Fatalf("inventory=%v, want the one looted item", st.Inventory)
	}
	// rooms 50+60+70, boss 100, honors 200+300
	if st.Profile.XP != 780 || st.Profile.Tokens != 10+25+40 {
		t.Fatalf("profile=%+v", st.Profile)
	}
}

func TestBossMismatchCanFail(t *testing.T) {
	svc, _ := newTestService(t, WithRand(&scriptedRand{floats: []float64{0.5}}))
	ctx := context.Background()
	seedRun(t, svc, []Dungeon{testDungeon("d1", true)}, []DungeonRoom{
		{ID: BossRoomID, Type: RoomBoss},
	})

	if ok, _ := svc.FightBoss(ctx, "direct_combat"); ok {
		t.Fatalf("0.5 should lose against the 30%% mismatch chance")
	}
	if st := mustState(t, svc); st.ActiveRun == nil || st.ActiveRun.Rooms[0].Completed {
		t.Fatalf("failed boss must leave the run in place")
	}
}

func TestCompleteRoomAppendsSuppliedLoot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := Dungeon{ID: "d1", Unlocked: true, LootPool: []Loot{{ID: "gem", Name: "Gem", Rarity: "rare"}}}
	seedRun(t, svc, []Dungeon{d}, []DungeonRoom{
		{ID: "room_1", Type: RoomLoot},
		{ID: "room_2", Type: RoomTrial, Subtype: "ritual"},
	})

	res, err := svc.CompleteRoom(ctx, &RoomRewards{Items: []string{"gem"}})
	if err != nil || !res.Completed || res.Cleared != nil {
		t.Fatalf("CompleteRoom=%+v err=%v", res, err)
	}
	res, err = svc.CompleteRoom(ctx, nil)
	if err != nil || res.Cleared == nil {
		t.Fatalf("last CompleteRoom=%+v err=%v", res, err)
	}
	if len(res.Cleared.Loot) != 1 || res.Cleared.Loot[0].Rarity != "rare" {
		t.Fatalf("banked loot=%+v", res.Cleared.Loot)
	}
	if st := mustState(t, svc); len(st.Inventory) != 1 {
		t.Fatalf("inventory=%v, want gem once", st.Inventory)
	}
}

func TestDungeonClearedAchievementUnlocksOnSecondClear(t *testing.T) {
	svc, _ := newTestService(t, WithRand(&scriptedRand{ints: []int{0}}))
	ctx := context.Background()
	pool := []RoomTemplate{{Type: RoomTrial, Subtype: "ritual", Weight: 1}}
	seed(t, svc, func(st *State) {
		st.Dungeons = []Dungeon{
			{ID: "d1", Unlocked: true, RoomPool: pool},
			{ID: "d2", RoomPool: pool},
		}
		st.Achievements = []Achievement{{
			ID: "delver", Title: "Delver", Category: AchievementDungeon,
			Trigger: Trigger{Type: TriggerDungeonCleared, Value: 2},
			Reward:  AchievementReward{XP: 1000},
		}}
	})

	clearDungeon := func(id string) {
		t.Helper()
		if ok, err := svc.StartRun(ctx, id); err != nil || !ok {
			t.Fatalf("StartRun(%s): ok=%v err=%v", id, ok, err)
		}
		for {
			run, _ := svc.ActiveRun(ctx)
			if run == nil {
				return
			}
			if ok, _ := svc.CompleteTrial(ctx, "", ""); !ok {
				t.Fatalf("ritual trial should pass")
			}
		}
	}

	clearDungeon("d1")
	achievements, _ := svc.ListAchievements(ctx)
	if achievements[0].Unlocked {
		t.Fatalf("unlocked after one clear")
	}

	clearDungeon("d2")
	st := mustState(t, svc)
	if !st.Achievements[0].Unlocked || st.Achievements[0].Date == nil {
		t.Fatalf("achievement should unlock on the second clear: %+v", st.Achievements[0])
	}
	xp := st.Profile.XP

	for range 3 {
		ids, err := svc.EvaluateAchievements(ctx)
		if err != nil || len(ids) != 0 {
			t.Fatalf("EvaluateAchievements=%v, %v", ids, err)
		}
	}
	if st := mustState(t, svc); st.Profile.XP != xp {
		t.Fatalf("xp changed on re-evaluation: %d -> %d", xp, st.Profile.XP)
	}
}

func TestTrialResolvesByRoomSubtype(t *testing.T) {
	svc, _ := newTestService(t, WithRand(&scriptedRand{floats: []float64{0.99}}))
	ctx := context.Background()
	seedRun(t, svc, []Dungeon{{ID: "d1", Unlocked: true}}, []DungeonRoom{
		{ID: "room_1", Type: RoomTrial, Subtype: "combat"},
		{ID: "room_2", Type: RoomLoot},
	})

	// 0.99 loses the 70% combat roll whatever the caller names.
	for _, subtype := range []string{"", "combat", "obedience", "ritual"} {
		if ok, err := svc.CompleteTrial(ctx, subtype, ""); err != nil || ok {
			t.Fatalf("CompleteTrial(%q): ok=%v err=%v", subtype, ok, err)
		}
	}
	if st := mustState(t, svc); st.ActiveRun.CurrentRoomIndex != 0 {
		t.Fatalf("run advanced to %d", st.ActiveRun.CurrentRoomIndex)
	}
}

func TestBossDropsAreBanked(t *testing.T) {
	svc, _ := newTestService(t, WithRand(&scriptedRand{floats: []float64{0.1}}))
	ctx := context.Background()
	d := testDungeon("d1", true)
	d.Boss.Rewards.Items = []string{"warden_key"}
	seedRun(t, svc, []Dungeon{d}, []DungeonRoom{
		{ID: BossRoomID, Type: RoomBoss},
	})

	if ok, _ := svc.FightBoss(ctx, "confession"); !ok {
		t.Fatalf("boss should fall at roll 0.1")
	}
	st := mustState(t, svc)
	if len(st.Inventory) != 1 || st.Inventory[0].ID != "warden_key" || st.Inventory[0].DungeonID != "d1" {
		t.Fatalf("inventory=%+v", st.Inventory)
	}
	if st.Profile.Items["warden_key"] != 1 {
		t.Fatalf("items=%v", st.Profile.Items)
	}
}
