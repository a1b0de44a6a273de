package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reverie/internal/ui"
)

func newAchievementsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Show unlocked achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			// Pick up anything the current state already satisfies.
			if _, err := svc.EvaluateAchievements(ctx); err != nil {
				return err
			}
			list, err := svc.ListAchievements(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Achievements"))
			unlocked := 0
			for _, a := range list {
				if a.Unlocked {
					unlocked++
					when := ""
					if a.Date != nil {
						when = a.Date.Format("2006-01-02")
					}
					fmt.Fprintf(out, "%s %s %s %s\n", ui.Gold.Render("★"), a.Title, ui.Muted.Render(string(a.Category)), ui.Muted.Render(when))
					continue
				}
				if !all {
					continue
				}
				title, desc := a.Title, a.Desc
				if a.Secret {
					title, desc = "???", "A secret yet to be dreamt."
				}
				fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render("☆"), ui.Muted.Render(title), ui.Muted.Render(desc))
			}
			fmt.Fprintf(out, "\n%s\n", ui.LabelValue("Unlocked", fmt.Sprintf("%d/%d", unlocked, len(list))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also list locked achievements")
	return cmd
}
