package root

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newReportCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a markdown summary of the whole dream life",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := svc.LoadState(ctx)
			if err != nil {
				return err
			}
			md := buildReport(st, time.Now())
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return fmt.Errorf("report renderer: %w", err)
			}
			rendered, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source")
	return cmd
}

func buildReport(st *engine.State, now time.Time) string {
	var b strings.Builder
	level, next, toGo := engine.LevelProgress(st.Profile.XP)

	b.WriteString("# Reverie report\n\n")
	fmt.Fprintf(&b, "_%s_\n\n", now.Format("Monday 2 January 2006"))
	fmt.Fprintf(&b, "**Level %d** · %d XP (next at %d, %d to go) · %d obedience · %d tokens\n\n",
		level, st.Profile.XP, next, toGo, st.Profile.Obedience, st.Profile.Tokens)
	if len(st.Profile.Titles) > 0 {
		fmt.Fprintf(&b, "Titles: %s\n\n", strings.Join(st.Profile.Titles, ", "))
	}

	b.WriteString("## Rituals\n\n")
	b.WriteString("| Ritual | Cadence | Streak | Done | Bonus |\n|---|---|---|---|---|\n")
	for _, r := range st.Rituals {
		p := engine.ComputeProgress(r, st.RitualLogs, now)
		done := "no"
		if p.Completed {
			done = "yes"
		}
		bonus := "-"
		if p.Multiplier > 0 {
			bonus = fmt.Sprintf("+%.0f%%", p.Multiplier*100)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", r.Name, ui.Label(string(r.Type)), p.Streak, done, bonus)
	}

	b.WriteString("\n## Dungeons\n\n")
	for _, d := range st.Dungeons {
		state := "locked"
		switch {
		case d.Cleared:
			state = fmt.Sprintf("cleared ×%d", d.TimesCleared)
		case d.Unlocked:
			state = "open"
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", d.Name, d.Difficulty, state)
	}
	if run := st.ActiveRun; run != nil {
		fmt.Fprintf(&b, "\nIn progress: %s, room %d of %d.\n", ui.Label(run.DungeonID), run.CurrentRoomIndex+1, run.TotalRooms)
	}
	if len(st.DungeonProgress.Honors) > 0 {
		fmt.Fprintf(&b, "\nHonors: %s\n", strings.Join(st.DungeonProgress.Honors, ", "))
	}

	b.WriteString("\n## Quests\n\n")
	fmt.Fprintf(&b, "%d completed · %d failed · %d XP earned from quests\n\n",
		st.Quests.QuestsCompleted, st.Quests.QuestsFailed, st.Quests.TotalXPEarned)
	quests := append([]engine.Quest(nil), st.Quests.Quests...)
	engine.SortByPriority(quests)
	for _, q := range quests {
		if q.Status != engine.QuestActive {
			continue
		}
		line := fmt.Sprintf("- [ ] %s (%s, %d%%)", q.Title, q.Priority, engine.QuestProgress(q))
		if left := engine.TimeRemaining(q, now); left != "" {
			line += " · " + left
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n## Questlines\n\n")
	for _, ql := range st.Questlines {
		fmt.Fprintf(&b, "- **%s**: %d%%", ql.Name, engine.QuestlineProgress(ql))
		if s, ok := engine.ActiveStage(ql); ok {
			fmt.Fprintf(&b, ", next: %s", s.Title)
		}
		b.WriteString("\n")
	}

	if len(st.Companions) > 0 || len(st.NPCs) > 0 {
		b.WriteString("\n## Companions and NPCs\n\n")
		for _, c := range st.Companions {
			fmt.Fprintf(&b, "- %s: level %d, %d/%d XP, bond %d\n", c.Name, c.Level, c.XP, engine.CompanionXPForLevel(c.Level+1), c.Bond)
		}
		for _, n := range st.NPCs {
			fmt.Fprintf(&b, "- %s (%s): trust %d, shame %d\n", n.Name, n.Role, n.Trust, n.Shame)
		}
	}

	unlocked := 0
	for _, a := range st.Achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	fmt.Fprintf(&b, "\n## Achievements\n\n%d of %d unlocked.\n", unlocked, len(st.Achievements))
	for _, a := range st.Achievements {
		if a.Unlocked {
			fmt.Fprintf(&b, "- ★ %s\n", a.Title)
		}
	}
	return b.String()
}
