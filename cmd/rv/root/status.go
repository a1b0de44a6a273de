package root

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"reverie/internal/ui"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show profile, level, titles and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := svc.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := st.Profile

			fmt.Fprintln(out, ui.Heading(ui.IconMoon, "Dreamer Status"))
			fmt.Fprintln(out, ui.LabelValue("Level", st.Level))
			fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (next at %d, %d to go)", p.XP, st.NextLevelXP, st.XPToNext)))
			fmt.Fprintln(out, ui.LabelValue("Obedience", p.Obedience))
			fmt.Fprintln(out, ui.LabelValue("Tokens", p.Tokens))
			if len(p.Titles) > 0 {
				fmt.Fprintln(out, ui.LabelValue("Titles", ui.Gold.Render(strings.Join(p.Titles, ", "))))
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconFlame+" Active buffs"))
			if len(st.ActiveBuffs) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("- none"))
			}
			for _, b := range st.ActiveBuffs {
				fmt.Fprintf(out, "- %s %s %s\n", ui.Key.Render(b.Name), ui.Muted.Render(fmt.Sprintf("%s x%.2f", b.Type, b.Value)), ui.Muted.Render(b.Source))
			}
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconScroll+" Records"))
			fmt.Fprintf(out, "- %s %d completed, %d failed, %d XP earned\n", ui.Key.Render("Quests:"), st.Quests.QuestsCompleted, st.Quests.QuestsFailed, st.Quests.TotalXPEarned)
			fmt.Fprintf(out, "- %s %d cleared, %d bosses defeated\n", ui.Key.Render("Dungeons:"), st.Dungeons.TotalClearedDungeons, st.Dungeons.TotalBossesDefeated)
			if len(st.Dungeons.Honors) > 0 {
				fmt.Fprintf(out, "- %s %s\n", ui.Key.Render("Honors:"), strings.Join(st.Dungeons.Honors, ", "))
			}
			fmt.Fprintf(out, "- %s %d/%d unlocked\n", ui.Key.Render("Achievements:"), st.Unlocked, st.Achievements)

			if len(p.Items) > 0 {
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render(ui.IconChest+" Items"))
				ids := make([]string, 0, len(p.Items))
				for id := range p.Items {
					ids = append(ids, id)
				}
				slices.Sort(ids)
				for _, id := range ids {
					fmt.Fprintf(out, "- %s x%d\n", ui.Label(id), p.Items[id])
				}
			}
			return nil
		},
	}

	return cmd
}
