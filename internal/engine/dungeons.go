package engine

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

type RoomType string

const (
	RoomTrial RoomType = "trial"
	RoomLoot  RoomType = "loot"
	RoomBoss  RoomType = "boss"
)

type RoomTemplate struct {
	Type    RoomType `json:"type"`
	Subtype string   `json:"subtype,omitempty"`
	Desc    string   `json:"desc"`
	Weight  int      `json:"weight"`
}

type BossRewards struct {
	XP     int      `json:"xp"`
	Tokens int      `json:"tokens"`
	Items  []string `json:"items,omitempty"`
}

type Boss struct {
	Name     string      `json:"name"`
	Health   int         `json:"health"`
	Attacks  []string    `json:"attacks"`
	Weakness string      `json:"weakness"`
	Rewards  BossRewards `json:"rewards"`
}

type Loot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rarity string `json:"rarity,omitempty"`
	Desc   string `json:"desc,omitempty"`
}

type Dungeon struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Difficulty   string         `json:"difficulty"`
	Unlocked     bool           `json:"unlocked"`
	Cleared      bool           `json:"cleared"`
	TimesCleared int            `json:"timesCleared"`
	RoomPool     []RoomTemplate `json:"roomPool"`
	LootPool     []Loot         `json:"lootPool"`
	Boss         *Boss          `json:"boss,omitempty"`
}

type RoomRewards struct {
	XP    int      `json:"xp"`
	Items []string `json:"items,omitempty"`
}

type DungeonRoom struct {
	ID        string       `json:"id"`
	Type      RoomType     `json:"type"`
	Subtype   string       `json:"subtype,omitempty"`
	Desc      string       `json:"desc"`
	Completed bool         `json:"completed"`
	Rewards   *RoomRewards `json:"rewards,omitempty"`
}

// DungeonRun is the single in-flight traversal. LootBanked counts the
// LootCollected entries already moved to the inventory.
type DungeonRun struct {
	DungeonID        string        `json:"dungeonId"`
	Rooms            []DungeonRoom `json:"rooms"`
	CurrentRoomIndex int           `json:"currentRoomIndex"`
	StartTime        time.Time     `json:"startTime"`
	CompletedRooms   int           `json:"completedRooms"`
	TotalRooms       int           `json:"totalRooms"`
	LootCollected    []string      `json:"lootCollected"`
	LootBanked       int           `json:"lootBanked"`
}

func (r *DungeonRun) Current() *DungeonRoom {
	if r == nil || r.CurrentRoomIndex < 0 || r.CurrentRoomIndex >= len(r.Rooms) {
		return nil
	}
	return &r.Rooms[r.CurrentRoomIndex]
}

type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rarity    string    `json:"rarity,omitempty"`
	Desc      string    `json:"desc,omitempty"`
	DungeonID string    `json:"dungeonId"`
	Obtained  time.Time `json:"obtained"`
}

type DungeonProgress struct {
	TotalClearedDungeons int      `json:"totalClearedDungeons"`
	TotalBossesDefeated  int      `json:"totalBossesDefeated"`
	Honors               []string `json:"honors"`
}

const (
	DefaultBossStrategy = "direct_combat"
	BossRoomID          = "boss_room"
)

// Trial success chances for the subtypes that are left to luck.
var trialOdds = map[string]float64{
	"combat":  0.7,
	"psychic": 0.6,
	"puzzle":  0.5,
}

// GenerateRun lays out 3-5 weighted rooms and, when the pool defines one, a final boss room.
func GenerateRun(d Dungeon, rng Rand) []DungeonRoom {
	var (
		pool    []RoomTemplate
		bossTpl *RoomTemplate
	)
	for i, t := range d.RoomPool {
		if t.Type == RoomBoss {
			if bossTpl == nil {
				bossTpl = &d.RoomPool[i]
			}
			continue
		}
		w := t.Weight
		if w <= 0 {
			w = 1
		}
		for range w {
			pool = append(pool, t)
		}
	}

	var rooms []DungeonRoom
	if len(pool) > 0 {
		count := 3 + rng.Intn(3)
		for i := range count {
			t := pool[rng.Intn(len(pool))]
			rooms = append(rooms, DungeonRoom{
				ID:      fmt.Sprintf("room_%d", i+1),
				Type:    t.Type,
				Subtype: t.Subtype,
				Desc:    t.Desc,
				Rewards: &RoomRewards{XP: 50 + 10*i},
			})
		}
	}

	if bossTpl != nil {
		desc := bossTpl.Desc
		if d.Boss != nil && desc == "" {
			desc = d.Boss.Name + " awaits."
		}
		rooms = append(rooms, DungeonRoom{
			ID:      BossRoomID,
			Type:    RoomBoss,
			Subtype: bossTpl.Subtype,
			Desc:    desc,
			Rewards: &RoomRewards{XP: 50 + 10*len(rooms)},
		})
	}
	return rooms
}

// ResolveTrial decides a trial. Shame needs a confession longer than ten characters;
// obedience and ritual are declarative; combat, psychic and puzzle are rolled.
func ResolveTrial(subtype, input string, rng Rand) bool {
	switch strings.ToLower(subtype) {
	case "shame":
		return utf8.RuneCountInString(input) > 10
	case "obedience", "ritual":
		return true
	}
	p, ok := trialOdds[strings.ToLower(subtype)]
	if !ok {
		return false
	}
	return rng.Float64() < p
}

// ResolveBoss rolls a boss fight: 80% when strategy hits the weakness, 30% otherwise.
func ResolveBoss(b Boss, strategy string, rng Rand) bool {
	p := 0.3
	if b.Weakness != "" && strings.EqualFold(strategy, b.Weakness) {
		p = 0.8
	}
	return rng.Float64() < p
}

func findDungeon(ds []Dungeon, id string) int {
	for i := range ds {
		if ds[i].ID == id {
			return i
		}
	}
	return -1
}

// AvailableDungeons returns the unlocked dungeons in list order.
func AvailableDungeons(ds []Dungeon) []Dungeon {
	var out []Dungeon
	for _, d := range ds {
		if d.Unlocked {
			out = append(out, d)
		}
	}
	return out
}

// startRun rejects a new run while another is active; the caller abandons first.
func (o *op) startRun(dungeonID string) bool {
	idx := findDungeon(o.st.Dungeons, dungeonID)
	if idx < 0 || !o.st.Dungeons[idx].Unlocked {
		return false
	}
	if o.st.ActiveRun != nil {
		return false
	}
	rooms := GenerateRun(o.st.Dungeons[idx], o.rng)
	if len(rooms) == 0 {
		return false
	}
	o.st.ActiveRun = &DungeonRun{
		DungeonID:     dungeonID,
		Rooms:         rooms,
		StartTime:     o.now,
		TotalRooms:    len(rooms),
		LootCollected: []string{},
	}
	o.log.Info("dungeon run started", "dungeon", dungeonID, "rooms", len(rooms))
	return true
}

func (o *op) abandonRun() bool {
	if o.st.ActiveRun == nil {
		return false
	}
	o.log.Info("dungeon run abandoned", "dungeon", o.st.ActiveRun.DungeonID)
	o.st.ActiveRun = nil
	return true
}

// RoomResult reports one completed room.
type RoomResult struct {
	Completed bool
	Room      DungeonRoom
	XPAwarded int
	Cleared   *ClearResult
}

// ClearResult reports the bookkeeping done when the last room falls.
type ClearResult struct {
	DungeonID    string
	TimesCleared int
	BossDefeated bool
	Honors       []string
	Unlocked     string
	Loot         []InventoryItem
}

func (o *op) completeRoom(rewards *RoomRewards) RoomResult {
	run := o.st.ActiveRun
	room := run.Current()
	if room == nil {
		return RoomResult{}
	}
	room.Completed = true
	run.CompletedRooms++

	xp := 0
	if room.Rewards != nil {
		xp = o.sink.GrantXP(room.Rewards.XP)
	}
	if room.Type == RoomLoot && rewards != nil {
		run.LootCollected = append(run.LootCollected, rewards.Items...)
	}

	res := RoomResult{Completed: true, Room: *room, XPAwarded: xp}
	if run.CurrentRoomIndex >= len(run.Rooms)-1 {
		res.Cleared = o.completeDungeon()
		return res
	}
	run.CurrentRoomIndex++
	return res
}

// completeTrial resolves the current trial by the room's own subtype. A
// non-empty subtype names the trial the caller expects and must match it.
func (o *op) completeTrial(subtype, input string) bool {
	room := o.st.ActiveRun.Current()
	if room == nil || room.Type != RoomTrial {
		return false
	}
	if subtype = strings.TrimSpace(subtype); subtype != "" && !strings.EqualFold(subtype, room.Subtype) {
		return false
	}
	if !ResolveTrial(room.Subtype, input, o.rng) {
		return false
	}
	o.completeRoom(nil)
	return true
}

func (o *op) fightBoss(strategy string) bool {
	run := o.st.ActiveRun
	room := run.Current()
	if room == nil || room.Type != RoomBoss {
		return false
	}
	idx := findDungeon(o.st.Dungeons, run.DungeonID)
	if idx < 0 || o.st.Dungeons[idx].Boss == nil {
		return false
	}
	boss := *o.st.Dungeons[idx].Boss
	if strings.TrimSpace(strategy) == "" {
		strategy = DefaultBossStrategy
	}
	if !ResolveBoss(boss, strategy, o.rng) {
		return false
	}
	o.sink.GrantXP(boss.Rewards.XP)
	o.sink.GrantTokens(boss.Rewards.Tokens)
	// Boss drops join the run's loot and are banked when the dungeon clears.
	run.LootCollected = append(run.LootCollected, boss.Rewards.Items...)
	o.completeRoom(nil)
	return true
}

func (o *op) collectLoot() bool {
	run := o.st.ActiveRun
	room := run.Current()
	if room == nil || room.Type != RoomLoot {
		return false
	}
	idx := findDungeon(o.st.Dungeons, run.DungeonID)
	if idx < 0 {
		return false
	}
	pool := o.st.Dungeons[idx].LootPool
	if len(pool) == 0 {
		o.completeRoom(nil)
		return true
	}
	item := pool[o.rng.Intn(len(pool))]
	o.completeRoom(&RoomRewards{Items: []string{item.ID}})
	if o.st.ActiveRun != nil {
		o.bankLoot(o.st.ActiveRun, o.st.Dungeons[idx])
	}
	return true
}

// bankLoot moves not-yet-banked loot from the run into the inventory.
func (o *op) bankLoot(run *DungeonRun, d Dungeon) []InventoryItem {
	var banked []InventoryItem
	for _, id := range run.LootCollected[run.LootBanked:] {
		item := InventoryItem{ID: id, Name: id, DungeonID: d.ID, Obtained: o.now}
		for _, l := range d.LootPool {
			if l.ID == id {
				item.Name, item.Rarity, item.Desc = l.Name, l.Rarity, l.Desc
				break
			}
		}
		o.st.Inventory = append(o.st.Inventory, item)
		o.sink.GrantItem(id, 1)
		banked = append(banked, item)
	}
	run.LootBanked = len(run.LootCollected)
	return banked
}

type dungeonHonor struct {
	id     string
	xp     int
	tokens int
	earned func(st *State, d Dungeon, bossDefeated bool) bool
}

var dungeonHonors = []dungeonHonor{
	{"first_dungeon", 200, 25, func(st *State, _ Dungeon, _ bool) bool { return st.DungeonProgress.TotalClearedDungeons >= 1 }},
	{"boss_slayer", 300, 40, func(_ *State, _ Dungeon, boss bool) bool { return boss }},
	{"shame_master", 500, 60, func(_ *State, d Dungeon, _ bool) bool { return d.ID == "caves_of_shame" && d.TimesCleared >= 3 }},
	{"obedience_adept", 750, 80, func(_ *State, d Dungeon, _ bool) bool { return d.ID == "temple_of_obedience" }},
	{"dream_walker", 1000, 100, func(_ *State, d Dungeon, _ bool) bool { return d.ID == "labyrinth_of_dreams" }},
	{"dungeon_master", 2000, 200, func(st *State, _ Dungeon, _ bool) bool {
		if len(st.Dungeons) == 0 {
			return false
		}
		for _, d := range st.Dungeons {
			if !d.Cleared {
				return false
			}
		}
		return true
	}},
}

func (o *op) completeDungeon() *ClearResult {
	run := o.st.ActiveRun
	idx := findDungeon(o.st.Dungeons, run.DungeonID)
	if idx < 0 {
		o.st.ActiveRun = nil
		return nil
	}
	d := &o.st.Dungeons[idx]
	res := &ClearResult{DungeonID: d.ID}

	res.Loot = o.bankLoot(run, *d)
	d.Cleared = true
	d.TimesCleared++
	res.TimesCleared = d.TimesCleared

	prog := &o.st.DungeonProgress
	prog.TotalClearedDungeons++
	for _, r := range run.Rooms {
		if r.Type == RoomBoss && r.Completed {
			res.BossDefeated = true
			prog.TotalBossesDefeated++
			break
		}
	}

	for _, h := range dungeonHonors {
		if slices.Contains(prog.Honors, h.id) || !h.earned(o.st, *d, res.BossDefeated) {
			continue
		}
		prog.Honors = append(prog.Honors, h.id)
		o.sink.GrantXP(h.xp)
		o.sink.GrantTokens(h.tokens)
		res.Honors = append(res.Honors, h.id)
	}

	if idx+1 < len(o.st.Dungeons) && !o.st.Dungeons[idx+1].Unlocked {
		o.st.Dungeons[idx+1].Unlocked = true
		res.Unlocked = o.st.Dungeons[idx+1].ID
	}

	o.st.ActiveRun = nil
	o.log.Info("dungeon cleared", "dungeon", res.DungeonID, "times", res.TimesCleared, "boss", res.BossDefeated)
	return res
}
