package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reverie/internal/storage"
)

type Service struct {
	db          *sql.DB
	kv          *storage.Store
	rng         Rand
	now         func() time.Time
	newID       func() string
	notify      Notifier
	log         *slog.Logger
	streakBonus bool
}

type Option func(*Service)

func WithRand(r Rand) Option { return func(s *Service) { s.rng = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// WithStreakMultiplier toggles the ritual streak bonus. On by default.
func WithStreakMultiplier(enabled bool) Option {
	return func(s *Service) { s.streakBonus = enabled }
}

func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:          db,
		kv:          storage.NewStore(db),
		now:         time.Now,
		newID:       uuid.NewString,
		log:         slog.Default(),
		streakBonus: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand("")
	}
	if s.notify == nil {
		s.notify = logNotifier{log: s.log}
	}
	return s
}

// op is one logical operation: the loaded state plus everything a reducer step needs.
type op struct {
	st          *State
	now         time.Time
	rng         Rand
	newID       func() string
	sink        *ledger
	log         *slog.Logger
	streakBonus bool
	unlocked    []Achievement
	// expired counts quests the pre-operation sweep failed.
	expired int
}

// mutate loads the state, fails overdue quests, runs fn, evaluates
// achievements last and saves, all in one transaction. Toasts fire after commit.
func (s *Service) mutate(ctx context.Context, fn func(o *op) error) error {
	var unlocked []Achievement
	err := s.kv.WithTx(ctx, func(tx *storage.Store) error {
		now := s.now()
		st, err := loadState(ctx, tx, now)
		if err != nil {
			return err
		}
		o := &op{
			st:          st,
			now:         now,
			rng:         s.rng,
			newID:       s.newID,
			sink:        &ledger{st: st, now: now, newID: s.newID},
			log:         s.log,
			streakBonus: s.streakBonus,
		}
		if expired := ExpireBuffs(st.Buffs, now); len(expired) > 0 {
			s.log.Debug("buffs expired", "ids", expired)
		}
		o.expired = o.checkExpiredQuests()
		if err := fn(o); err != nil {
			return err
		}
		o.evaluateAchievements()
		if err := saveState(ctx, tx, st, now); err != nil {
			return err
		}
		unlocked = o.unlocked
		return nil
	})
	if err != nil {
		return err
	}
	for _, a := range unlocked {
		s.notify.AchievementUnlocked(a)
	}
	return nil
}

// view loads the state for read-only use. Missing keys are still seeded.
func (s *Service) view(ctx context.Context, fn func(st *State, now time.Time) error) error {
	return s.kv.WithTx(ctx, func(tx *storage.Store) error {
		now := s.now()
		st, err := loadState(ctx, tx, now)
		if err != nil {
			return err
		}
		return fn(st, now)
	})
}

// LoadState returns the whole state as currently stored.
func (s *Service) LoadState(ctx context.Context) (*State, error) {
	var out *State
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return out, nil
}

// Reset deletes one stored document so it is re-seeded on next read.
func (s *Service) Reset(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// Profile

type Status struct {
	Profile      Profile
	Level        int
	NextLevelXP  int
	XPToNext     int
	ActiveBuffs  []Buff
	Unlocked     int
	Achievements int
	Quests       QuestLedger
	Dungeons     DungeonProgress
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var out Status
	err := s.view(ctx, func(st *State, now time.Time) error {
		out.Profile = st.Profile
		out.Level, out.NextLevelXP, out.XPToNext = LevelProgress(st.Profile.XP)
		for _, b := range st.Buffs {
			if b.Live(now) {
				out.ActiveBuffs = append(out.ActiveBuffs, b)
			}
		}
		for _, a := range st.Achievements {
			if a.Unlocked {
				out.Unlocked++
			}
		}
		out.Achievements = len(st.Achievements)
		out.Quests = st.Quests
		out.Dungeons = st.DungeonProgress
		return nil
	})
	return out, err
}

// Rituals

type RitualView struct {
	Ritual   Ritual
	Progress RitualProgress
}

func (s *Service) ListRituals(ctx context.Context) ([]RitualView, error) {
	var out []RitualView
	err := s.view(ctx, func(st *State, now time.Time) error {
		for _, r := range st.Rituals {
			out = append(out, RitualView{Ritual: r, Progress: ComputeProgress(r, st.RitualLogs, now)})
		}
		return nil
	})
	return out, err
}

func (s *Service) RitualLogs(ctx context.Context, ritualID string) ([]RitualLog, error) {
	var out []RitualLog
	err := s.view(ctx, func(st *State, _ time.Time) error {
		for _, l := range st.RitualLogs {
			if l.RitualID == ritualID {
				out = append(out, l)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) CompleteRitual(ctx context.Context, id string) (RitualResult, error) {
	var res RitualResult
	err := s.mutate(ctx, func(o *op) error {
		res = o.completeRitual(id)
		return nil
	})
	if err != nil {
		return RitualResult{}, fmt.Errorf("complete ritual: %w", err)
	}
	return res, nil
}

func (s *Service) ResetRitualStreak(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.resetRitualStreak(id)
		return nil
	})
	return out, err
}

func (s *Service) AddRitual(ctx context.Context, in AddRitualInput) (Ritual, error) {
	var r Ritual
	err := s.mutate(ctx, func(o *op) error {
		var err error
		r, err = o.addRitual(in)
		return err
	})
	return r, err
}

func (s *Service) DeleteRitual(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.deleteRitual(id)
		return nil
	})
	return out, err
}

// Dungeons

func (s *Service) ListDungeons(ctx context.Context) ([]Dungeon, *DungeonRun, error) {
	var (
		ds  []Dungeon
		run *DungeonRun
	)
	err := s.view(ctx, func(st *State, _ time.Time) error {
		ds, run = st.Dungeons, st.ActiveRun
		return nil
	})
	return ds, run, err
}

func (s *Service) ActiveRun(ctx context.Context) (*DungeonRun, error) {
	_, run, err := s.ListDungeons(ctx)
	return run, err
}

func (s *Service) Inventory(ctx context.Context) ([]InventoryItem, DungeonProgress, error) {
	var (
		items []InventoryItem
		prog  DungeonProgress
	)
	err := s.view(ctx, func(st *State, _ time.Time) error {
		items, prog = st.Inventory, st.DungeonProgress
		return nil
	})
	return items, prog, err
}

func (s *Service) StartRun(ctx context.Context, dungeonID string) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.startRun(dungeonID)
		return nil
	})
	return ok, err
}

func (s *Service) AbandonRun(ctx context.Context) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.abandonRun()
		return nil
	})
	return ok, err
}

func (s *Service) CompleteRoom(ctx context.Context, rewards *RoomRewards) (RoomResult, error) {
	var res RoomResult
	err := s.mutate(ctx, func(o *op) error {
		res = o.completeRoom(rewards)
		return nil
	})
	return res, err
}

func (s *Service) CompleteTrial(ctx context.Context, subtype, input string) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.completeTrial(subtype, input)
		return nil
	})
	return ok, err
}

func (s *Service) FightBoss(ctx context.Context, strategy string) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.fightBoss(strategy)
		return nil
	})
	return ok, err
}

func (s *Service) CollectLoot(ctx context.Context) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.collectLoot()
		return nil
	})
	return ok, err
}

// Quests

func (s *Service) ListQuests(ctx context.Context) (QuestLedger, error) {
	var out QuestLedger
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st.Quests
		SortByPriority(out.Quests)
		return nil
	})
	return out, err
}

func (s *Service) StartQuest(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.startQuest(id)
		return nil
	})
	return out, err
}

func (s *Service) UpdateStep(ctx context.Context, questID, stepID string, done bool) (QuestResult, error) {
	var res QuestResult
	err := s.mutate(ctx, func(o *op) error {
		res = o.updateStep(questID, stepID, done)
		return nil
	})
	if err != nil {
		return QuestResult{}, fmt.Errorf("update step: %w", err)
	}
	return res, nil
}

func (s *Service) CompleteQuest(ctx context.Context, id string) (QuestResult, error) {
	var res QuestResult
	err := s.mutate(ctx, func(o *op) error {
		res = o.completeQuestByID(id)
		return nil
	})
	return res, err
}

func (s *Service) AbandonQuest(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.abandonQuest(id)
		return nil
	})
	return out, err
}

func (s *Service) FailQuest(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.failQuest(id)
		return nil
	})
	return out, err
}

func (s *Service) ResetQuest(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.resetQuest(id)
		return nil
	})
	return out, err
}

func (s *Service) AddQuest(ctx context.Context, in AddQuestInput) (Quest, error) {
	var q Quest
	err := s.mutate(ctx, func(o *op) error {
		var err error
		q, err = o.addQuest(in)
		return err
	})
	return q, err
}

func (s *Service) DeleteQuest(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.deleteQuest(id)
		return nil
	})
	return out, err
}

func (s *Service) CheckExpiredQuests(ctx context.Context) (int, error) {
	var n int
	err := s.mutate(ctx, func(o *op) error {
		n = o.expired + o.checkExpiredQuests()
		return nil
	})
	return n, err
}

func (s *Service) CheckAutoComplete(ctx context.Context) ([]RewardPopup, error) {
	var popups []RewardPopup
	err := s.mutate(ctx, func(o *op) error {
		popups = o.checkAutoComplete(o.snapshot())
		return nil
	})
	return popups, err
}

func (s *Service) GenerateRecurringQuests(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.mutate(ctx, func(o *op) error {
		ids = o.generateRecurringQuests()
		return nil
	})
	return ids, err
}

// GeneratePeriodQuests builds the daily and weekly template quests when a new
// day or week has begun.
func (s *Service) GeneratePeriodQuests(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.mutate(ctx, func(o *op) error {
		ids = o.generatePeriodQuests()
		return nil
	})
	return ids, err
}

func (s *Service) ChooseQuestOption(ctx context.Context, questID, key, value string) (QuestResult, error) {
	var res QuestResult
	err := s.mutate(ctx, func(o *op) error {
		var err error
		res, err = o.chooseQuestOption(questID, key, value)
		return err
	})
	if err != nil {
		return QuestResult{}, fmt.Errorf("choose: %w", err)
	}
	return res, nil
}

// TickResult reports one maintenance pass over the quest log.
type TickResult struct {
	Failed    int
	Completed []RewardPopup
	Spawned   []string
	Generated []string
}

// Tick runs expiry, auto-completion, recurrence and template generation in
// that order as one operation.
func (s *Service) Tick(ctx context.Context) (TickResult, error) {
	var res TickResult
	err := s.mutate(ctx, func(o *op) error {
		res.Failed = o.expired + o.checkExpiredQuests()
		res.Completed = o.checkAutoComplete(o.snapshot())
		res.Spawned = o.generateRecurringQuests()
		res.Generated = o.generatePeriodQuests()
		return nil
	})
	if err != nil {
		return TickResult{}, fmt.Errorf("tick: %w", err)
	}
	return res, nil
}

// Questlines

func (s *Service) ListQuestlines(ctx context.Context) ([]Questline, error) {
	var out []Questline
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st.Questlines
		return nil
	})
	return out, err
}

func (s *Service) CompleteStage(ctx context.Context, questlineID, stageID, branchID string) (StageResult, error) {
	var res StageResult
	err := s.mutate(ctx, func(o *op) error {
		res = o.completeStage(questlineID, stageID, branchID)
		return nil
	})
	if err != nil {
		return StageResult{}, fmt.Errorf("complete stage: %w", err)
	}
	return res, nil
}

func (s *Service) ChooseBranch(ctx context.Context, questlineID, stageID, branchID string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.chooseBranch(questlineID, stageID, branchID)
		return nil
	})
	return out, err
}

func (s *Service) ResetQuestline(ctx context.Context, questlineID string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.resetQuestline(questlineID)
		return nil
	})
	return out, err
}

// Achievements

func (s *Service) ListAchievements(ctx context.Context) ([]Achievement, error) {
	var out []Achievement
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st.Achievements
		return nil
	})
	return out, err
}

// EvaluateAchievements re-runs every trigger and returns the ids unlocked now.
func (s *Service) EvaluateAchievements(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.mutate(ctx, func(o *op) error {
		ids = o.evaluateAchievements()
		return nil
	})
	return ids, err
}

func (s *Service) UnlockAchievement(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.mutate(ctx, func(o *op) error {
		ok = o.unlockAchievement(id)
		return nil
	})
	return ok, err
}

func (s *Service) AddAchievement(ctx context.Context, in AddAchievementInput) (Achievement, error) {
	var a Achievement
	err := s.mutate(ctx, func(o *op) error {
		var err error
		a, err = o.addAchievement(in)
		return err
	})
	return a, err
}

// ResetAchievements relocks every achievement. Triggers that still match
// unlock again at the end of the same operation.
func (s *Service) ResetAchievements(ctx context.Context) error {
	return s.mutate(ctx, func(o *op) error {
		o.resetAchievements()
		return nil
	})
}

// Collaborator inputs

func (s *Service) RecordJournalEntry(ctx context.Context, in JournalInput) (JournalEntry, error) {
	var e JournalEntry
	err := s.mutate(ctx, func(o *op) error {
		e = o.recordJournalEntry(in)
		return nil
	})
	return e, err
}

func (s *Service) AdjustShame(ctx context.Context, counter string, delta int) (int, error) {
	var v int
	err := s.mutate(ctx, func(o *op) error {
		var err error
		v, err = o.adjustShame(counter, delta)
		return err
	})
	return v, err
}

func (s *Service) AddConfession(ctx context.Context, text string) (Confession, error) {
	var c Confession
	err := s.mutate(ctx, func(o *op) error {
		var err error
		c, err = o.addConfession(text)
		return err
	})
	return c, err
}

func (s *Service) AddPunishment(ctx context.Context, name string, tier int) (Punishment, error) {
	var p Punishment
	err := s.mutate(ctx, func(o *op) error {
		var err error
		p, err = o.addPunishment(name, tier)
		return err
	})
	return p, err
}

func (s *Service) ClearPunishment(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.clearPunishment(id)
		return nil
	})
	return out, err
}

func (s *Service) UpsertCompanion(ctx context.Context, c Companion) (Companion, error) {
	var saved Companion
	err := s.mutate(ctx, func(o *op) error {
		var err error
		saved, err = o.upsertCompanion(c)
		return err
	})
	return saved, err
}

func (s *Service) UnlockMapNode(ctx context.Context, id string) (Outcome, error) {
	var out Outcome
	err := s.mutate(ctx, func(o *op) error {
		out = o.unlockMapNode(id)
		return nil
	})
	return out, err
}

// EnsureNPC returns the NPC with in.Name, creating it when it does not exist yet.
func (s *Service) EnsureNPC(ctx context.Context, in NPCInput) (NPC, error) {
	var n NPC
	err := s.mutate(ctx, func(o *op) error {
		var err error
		n, err = o.ensureNPC(in)
		return err
	})
	return n, err
}

func (s *Service) ListNPCs(ctx context.Context) ([]NPC, error) {
	var out []NPC
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st.NPCs
		return nil
	})
	return out, err
}

func (s *Service) ListCompanions(ctx context.Context) ([]Companion, error) {
	var out []Companion
	err := s.view(ctx, func(st *State, _ time.Time) error {
		out = st.Companions
		return nil
	})
	return out, err
}
