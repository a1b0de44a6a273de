package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

// board is the subset of engine.Service the dashboard drives.
type board interface {
	Status(ctx context.Context) (engine.Status, error)
	ListRituals(ctx context.Context) ([]engine.RitualView, error)
	ActiveRun(ctx context.Context) (*engine.DungeonRun, error)
	ListQuests(ctx context.Context) (engine.QuestLedger, error)
	CompleteRitual(ctx context.Context, id string) (engine.RitualResult, error)
	CompleteTrial(ctx context.Context, subtype, input string) (bool, error)
	FightBoss(ctx context.Context, strategy string) (bool, error)
	CollectLoot(ctx context.Context) (bool, error)
	Tick(ctx context.Context) (engine.TickResult, error)
}

type boardModel struct {
	ctx context.Context
	svc board

	width  int
	height int

	status  *engine.Status
	rituals []engine.RitualView
	run     *engine.DungeonRun
	quests  []engine.Quest

	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	status  *engine.Status
	rituals []engine.RitualView
	run     *engine.DungeonRun
	quests  []engine.Quest
	err     error
}

// actionMsg carries the one-line result of any board action.
type actionMsg struct {
	log string
	err error
}

func newBoardModel(ctx context.Context, svc board) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.svc.Status(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		rituals, err := m.svc.ListRituals(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		run, err := m.svc.ActiveRun(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		ledger, err := m.svc.ListQuests(m.ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		var active []engine.Quest
		for _, q := range ledger.Quests {
			if q.Status == engine.QuestActive {
				active = append(active, q)
			}
		}
		return loadedMsg{status: &st, rituals: rituals, run: run, quests: active}
	}
}

func (m boardModel) ritualCmd(id string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteRitual(m.ctx, id)
		if err != nil {
			return actionMsg{err: err}
		}
		if res.Status != engine.OutcomeCompleted {
			return actionMsg{log: fmt.Sprintf("%s: %s", res.Ritual.Name, res.Status)}
		}
		log := fmt.Sprintf("%s done: +%d XP, +%d obedience (streak %d)", res.Ritual.Name, res.XPAwarded, res.ObedienceAwarded, res.Progress.Streak)
		return actionMsg{log: log}
	}
}

func (m boardModel) roomCmd() tea.Cmd {
	room := m.run.Current()
	if room == nil {
		return nil
	}
	return func() tea.Msg {
		var (
			ok  bool
			err error
		)
		switch room.Type {
		case engine.RoomBoss:
			ok, err = m.svc.FightBoss(m.ctx, engine.DefaultBossStrategy)
		case engine.RoomLoot:
			ok, err = m.svc.CollectLoot(m.ctx)
		default:
			ok, err = m.svc.CompleteTrial(m.ctx, "", "")
		}
		if err != nil {
			return actionMsg{err: err}
		}
		if !ok {
			return actionMsg{log: fmt.Sprintf("%s %s resisted. Try again.", ui.RoomIcon(string(room.Type)), room.ID)}
		}
		return actionMsg{log: fmt.Sprintf("%s %s cleared.", ui.RoomIcon(string(room.Type)), room.ID)}
	}
}

func (m boardModel) tickCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.Tick(m.ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{log: fmt.Sprintf("Tick: %d failed, %d completed, %d spawned", res.Failed, len(res.Completed), len(res.Spawned))}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		m.rituals = msg.rituals
		m.run = msg.run
		m.quests = msg.quests
		if m.selected >= len(m.rituals) {
			m.selected = max(len(m.rituals)-1, 0)
		}
		return m, nil
	case actionMsg:
		if msg.err != nil {
			m.lastLog = "Action failed: " + msg.err.Error()
			return m, nil
		}
		m.lastLog = msg.log
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.rituals)-1 {
				m.selected++
			}
			return m, nil
		case "c", " ", "enter":
			if m.selected < 0 || m.selected >= len(m.rituals) {
				return m, nil
			}
			rv := m.rituals[m.selected]
			if rv.Progress.Completed {
				m.lastLog = rv.Ritual.Name + " is already done this period."
				return m, nil
			}
			m.lastLog = fmt.Sprintf("Performing %s…", rv.Ritual.Name)
			return m, m.ritualCmd(rv.Ritual.ID)
		case "d":
			if m.run == nil {
				m.lastLog = "No dungeon run in progress. Start one with rv dungeon start."
				return m, nil
			}
			return m, m.roomCmd()
		case "t":
			return m, m.tickCmd()
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 30
	if m.width > 0 {
		leftW = min(leftW, m.width/2)
		leftW = max(leftW, 18)
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := range rows {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.status == nil {
		return "Reverie — loading…"
	}
	p := m.status.Profile
	lvl := m.status.Level
	cur := engine.XPRequiredForLevel(lvl)
	bar := ui.ProgressBar(p.XP-cur, m.status.NextLevelXP-cur, 30)
	return fmt.Sprintf("Reverie | Level %d | XP %d %s | Obedience %d | Tokens %d", lvl, p.XP, bar, p.Obedience, p.Tokens)
}

func (m boardModel) renderSidebar() string {
	var lines []string
	lines = append(lines, "Buffs")
	if m.status == nil || len(m.status.ActiveBuffs) == 0 {
		lines = append(lines, "(none)")
	} else {
		for _, b := range m.status.ActiveBuffs {
			lines = append(lines, fmt.Sprintf("- %s x%.2f", b.Name, b.Value))
		}
	}
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- c/space: perform ritual")
	lines = append(lines, "- d: face current room")
	lines = append(lines, "- t: tick quests")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	var out []string
	out = append(out, "Rituals")
	if len(m.rituals) == 0 {
		out = append(out, "(no rituals)")
	}
	for i, rv := range m.rituals {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		mark := "[ ]"
		if rv.Progress.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s%s %s (%s, streak %d)", cursor, mark, rv.Ritual.Name, rv.Ritual.Type, rv.Progress.Streak)
		if rv.Progress.Multiplier > 0 {
			line += fmt.Sprintf(" +%.0f%%", rv.Progress.Multiplier*100)
		}
		out = append(out, line)
	}

	out = append(out, "")
	out = append(out, "Dungeon")
	if m.run == nil {
		out = append(out, "(no active run)")
	} else {
		out = append(out, fmt.Sprintf("%s %s", ui.Label(m.run.DungeonID), ui.ProgressBar(m.run.CompletedRooms, m.run.TotalRooms, 12)))
		for i, room := range m.run.Rooms {
			marker := "  "
			if i == m.run.CurrentRoomIndex {
				marker = "> "
			}
			state := "pending"
			if room.Completed {
				state = "done"
			}
			out = append(out, fmt.Sprintf("%s%s %s %s (%s)", marker, ui.RoomIcon(string(room.Type)), room.Type, room.Subtype, state))
		}
	}

	out = append(out, "")
	out = append(out, "Active quests")
	if len(m.quests) == 0 {
		out = append(out, "(none)")
	}
	now := time.Now()
	for _, q := range m.quests {
		line := fmt.Sprintf("- %s %d%%", q.Title, engine.QuestProgress(q))
		if left := engine.TimeRemaining(q, now); left != "" {
			line += " " + left
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
