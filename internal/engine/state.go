package engine

import (
	"context"
	"fmt"
	"time"

	"reverie/internal/storage"
)

// Store keys. Each entity family is one document, replaced whole on save.
const (
	KeyProfile         = "profile"
	KeyRituals         = "rituals"
	KeyRitualLogs      = "ritualLogs"
	KeyDungeons        = "dungeons"
	KeyActiveRun       = "activeDungeonRun"
	KeyDungeonProgress = "dungeonProgress"
	KeyInventory       = "dungeonInventory"
	KeyQuests          = "quests"
	KeyQuestlines      = "questlines"
	KeyAchievements    = "achievements"
	KeyBuffs           = "buffs"
	KeyJournal         = "journalEntries"
	KeyShame           = "shame"
	KeyPunishments     = "activePunishments"
	KeyCompanions      = "companions"
	KeyMapNodes        = "mapNodes"
	KeyNPCs            = "npcs"
	KeyNPCAchievements = "npcAchievements"
	KeyQuestGeneration = "questGeneration"
)

// State is the envelope one operation reads, mutates and writes back.
type State struct {
	Profile         Profile
	Rituals         []Ritual
	RitualLogs      []RitualLog
	Dungeons        []Dungeon
	ActiveRun       *DungeonRun
	DungeonProgress DungeonProgress
	Inventory       []InventoryItem
	Quests          QuestLedger
	Questlines      []Questline
	Achievements    []Achievement
	Buffs           []Buff

	Journal     []JournalEntry
	Shame       ShameCounters
	Punishments []Punishment
	Companions  []Companion
	MapNodes    []MapNode

	NPCs            []NPC
	NPCAchievements []string
	QuestGeneration QuestGeneration
}

type binding struct {
	key  string
	load func(ctx context.Context, kv *storage.Store, st *State) error
	save func(ctx context.Context, kv *storage.Store, st *State) error
}

func bind[T any](key string, field func(*State) *T, def func() T) binding {
	return binding{
		key: key,
		load: func(ctx context.Context, kv *storage.Store, st *State) error {
			v, err := storage.Load(ctx, kv, key, def)
			if err != nil {
				return err
			}
			*field(st) = v
			return nil
		},
		save: func(ctx context.Context, kv *storage.Store, st *State) error {
			return storage.Save(ctx, kv, key, *field(st))
		},
	}
}

func none[T any]() func() T { return func() T { var zero T; return zero } }

func bindings(now time.Time) []binding {
	return []binding{
		bind(KeyProfile, func(s *State) *Profile { return &s.Profile }, none[Profile]()),
		bind(KeyRituals, func(s *State) *[]Ritual { return &s.Rituals }, defaultRituals),
		bind(KeyRitualLogs, func(s *State) *[]RitualLog { return &s.RitualLogs }, none[[]RitualLog]()),
		bind(KeyDungeons, func(s *State) *[]Dungeon { return &s.Dungeons }, defaultDungeons),
		bind(KeyActiveRun, func(s *State) **DungeonRun { return &s.ActiveRun }, none[*DungeonRun]()),
		bind(KeyDungeonProgress, func(s *State) *DungeonProgress { return &s.DungeonProgress }, none[DungeonProgress]()),
		bind(KeyInventory, func(s *State) *[]InventoryItem { return &s.Inventory }, none[[]InventoryItem]()),
		bind(KeyQuests, func(s *State) *QuestLedger { return &s.Quests }, func() QuestLedger { return defaultQuestLedger(now) }),
		bind(KeyQuestlines, func(s *State) *[]Questline { return &s.Questlines }, defaultQuestlines),
		bind(KeyAchievements, func(s *State) *[]Achievement { return &s.Achievements }, defaultAchievements),
		bind(KeyBuffs, func(s *State) *[]Buff { return &s.Buffs }, defaultBuffs),
		bind(KeyJournal, func(s *State) *[]JournalEntry { return &s.Journal }, none[[]JournalEntry]()),
		bind(KeyShame, func(s *State) *ShameCounters { return &s.Shame }, none[ShameCounters]()),
		bind(KeyPunishments, func(s *State) *[]Punishment { return &s.Punishments }, none[[]Punishment]()),
		bind(KeyCompanions, func(s *State) *[]Companion { return &s.Companions }, defaultCompanions),
		bind(KeyMapNodes, func(s *State) *[]MapNode { return &s.MapNodes }, defaultMapNodes),
		bind(KeyNPCs, func(s *State) *[]NPC { return &s.NPCs }, defaultNPCs),
		bind(KeyNPCAchievements, func(s *State) *[]string { return &s.NPCAchievements }, none[[]string]()),
		bind(KeyQuestGeneration, func(s *State) *QuestGeneration { return &s.QuestGeneration }, none[QuestGeneration]()),
	}
}

func loadState(ctx context.Context, kv *storage.Store, now time.Time) (*State, error) {
	st := &State{}
	for _, b := range bindings(now) {
		if err := b.load(ctx, kv, st); err != nil {
			return nil, fmt.Errorf("load %s: %w", b.key, err)
		}
	}
	normalizeState(st, now)
	return st, nil
}

func saveState(ctx context.Context, kv *storage.Store, st *State, now time.Time) error {
	for _, b := range bindings(now) {
		if err := b.save(ctx, kv, st); err != nil {
			return fmt.Errorf("save %s: %w", b.key, err)
		}
	}
	return nil
}

// normalizeState fills fields older documents may lack.
func normalizeState(st *State, now time.Time) {
	if st.Profile.Items == nil {
		st.Profile.Items = map[string]int{}
	}
	for i := range st.Rituals {
		if !st.Rituals[i].Type.IsValid() {
			st.Rituals[i].Type = RecurrenceDaily
		}
	}
	for i := range st.Dungeons {
		d := &st.Dungeons[i]
		if d.Difficulty == "" {
			d.Difficulty = "normal"
		}
		for j := range d.RoomPool {
			if d.RoomPool[j].Weight <= 0 {
				d.RoomPool[j].Weight = 1
			}
		}
	}
	if run := st.ActiveRun; run != nil {
		if findDungeon(st.Dungeons, run.DungeonID) < 0 || len(run.Rooms) == 0 {
			st.ActiveRun = nil
		} else {
			run.TotalRooms = len(run.Rooms)
			run.LootBanked = min(max(run.LootBanked, 0), len(run.LootCollected))
		}
	}
	for i := range st.Quests.Quests {
		q := &st.Quests.Quests[i]
		if q.Status == "" {
			q.Status = QuestLocked
		}
		if q.Type == "" {
			q.Type = QuestTypeIRL
		}
		if q.Priority == "" {
			q.Priority = PriorityMedium
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		if q.UpdatedAt.IsZero() {
			q.UpdatedAt = q.CreatedAt
		}
	}
	for i := range st.Companions {
		c := &st.Companions[i]
		c.Level = max(c.Level, 1)
		c.XP = max(c.XP, 0)
		c.Bond = clampMeter(c.Bond)
	}
	for i := range st.NPCs {
		n := &st.NPCs[i]
		n.Trust = clampMeter(n.Trust)
		n.Shame = clampMeter(n.Shame)
		n.DreamCount = max(n.DreamCount, 0)
		if n.Role == "" {
			n.Role = "Friend"
		}
	}
	for i := range st.Questlines {
		ql := &st.Questlines[i]
		if ql.ActiveStageID == "" && !ql.Completed {
			if s, ok := ActiveStage(*ql); ok {
				ql.ActiveStageID = s.ID
			}
		}
	}
}
