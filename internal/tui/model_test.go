package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"reverie/internal/engine"
)

type fakeBoard struct {
	rituals   []engine.RitualView
	run       *engine.DungeonRun
	completed []string
	trials    int
}

func (f *fakeBoard) Status(context.Context) (engine.Status, error) {
	return engine.Status{Profile: engine.Profile{XP: 120, Tokens: 3}, NextLevelXP: 500, XPToNext: 380}, nil
}

func (f *fakeBoard) ListRituals(context.Context) ([]engine.RitualView, error) { return f.rituals, nil }

func (f *fakeBoard) ActiveRun(context.Context) (*engine.DungeonRun, error) { return f.run, nil }

func (f *fakeBoard) ListQuests(context.Context) (engine.QuestLedger, error) {
	return engine.QuestLedger{Quests: []engine.Quest{
		{Title: "Open quest", Status: engine.QuestActive},
		{Title: "Closed quest", Status: engine.QuestCompleted},
	}}, nil
}

func (f *fakeBoard) CompleteRitual(_ context.Context, id string) (engine.RitualResult, error) {
	f.completed = append(f.completed, id)
	return engine.RitualResult{Status: engine.OutcomeCompleted, Ritual: engine.Ritual{ID: id, Name: "Morning"}, XPAwarded: 100}, nil
}

func (f *fakeBoard) CompleteTrial(context.Context, string, string) (bool, error) {
	f.trials++
	return true, nil
}

func (f *fakeBoard) FightBoss(context.Context, string) (bool, error) { return false, nil }

func (f *fakeBoard) CollectLoot(context.Context) (bool, error) { return true, nil }

func (f *fakeBoard) Tick(context.Context) (engine.TickResult, error) { return engine.TickResult{}, nil }

func loaded(t *testing.T, f *fakeBoard) boardModel {
	t.Helper()
	m := newBoardModel(context.Background(), f)
	next, _ := m.Update(m.loadCmd()())
	return next.(boardModel)
}

func TestBoardRendersState(t *testing.T) {
	f := &fakeBoard{
		rituals: []engine.RitualView{
			{Ritual: engine.Ritual{ID: "r1", Name: "Morning", Type: engine.RecurrenceDaily}, Progress: engine.RitualProgress{Streak: 3, Completed: true, Multiplier: 0.1}},
		},
	}
	view := loaded(t, f).View()
	for _, want := range []string{"Level 0", "[x] Morning", "+10%", "(no active run)", "Open quest"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Closed quest") {
		t.Fatalf("completed quest listed as active:\n%s", view)
	}
}

func TestBoardCompletesSelectedRitual(t *testing.T) {
	f := &fakeBoard{rituals: []engine.RitualView{
		{Ritual: engine.Ritual{ID: "r1", Name: "Morning"}},
		{Ritual: engine.Ritual{ID: "r2", Name: "Evening"}},
	}}
	m := loaded(t, f)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	msg := cmd()
	if len(f.completed) != 1 || f.completed[0] != "r2" {
		t.Fatalf("completed=%v, want [r2]", f.completed)
	}
	next, _ = next.Update(msg)
	if got := next.(boardModel).lastLog; !strings.Contains(got, "+100 XP") {
		t.Fatalf("lastLog=%q", got)
	}
}

func TestBoardFacesCurrentRoom(t *testing.T) {
	f := &fakeBoard{run: &engine.DungeonRun{
		DungeonID:  "caves_of_shame",
		Rooms:      []engine.DungeonRoom{{ID: "room_1", Type: engine.RoomTrial, Subtype: "obedience"}},
		TotalRooms: 1,
	}}
	m := loaded(t, f)
	if !strings.Contains(m.View(), "Caves Of Shame") {
		t.Fatalf("run not rendered:\n%s", m.View())
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	if msg, ok := cmd().(actionMsg); !ok || msg.err != nil || f.trials != 1 {
		t.Fatalf("msg=%+v trials=%d", msg, f.trials)
	}
}
