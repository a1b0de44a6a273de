package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newRitualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ritual",
		Short: "Track recurring rituals and their streaks",
	}
	cmd.AddCommand(newRitualListCmd(), newRitualDoCmd(), newRitualResetCmd(), newRitualAddCmd(), newRitualDeleteCmd())
	return cmd
}

func ritualIDs(ctx context.Context, svc *engine.Service) []string {
	views, _ := svc.ListRituals(ctx)
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.Ritual.ID)
	}
	return ids
}

func newRitualListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rituals with their current streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			views, err := svc.ListRituals(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCandle, "Rituals"))
			for _, v := range views {
				mark := ui.Muted.Render("○")
				if v.Progress.Completed {
					mark = ui.Good.Render("●")
				}
				line := fmt.Sprintf("%s %s %s %s", mark, ui.Key.Render(v.Ritual.ID), v.Ritual.Name, ui.Muted.Render("("+ui.Label(string(v.Ritual.Type))+")"))
				line += fmt.Sprintf(" streak %d", v.Progress.Streak)
				if v.Progress.Multiplier > 0 {
					line += " " + ui.Gold.Render(fmt.Sprintf("+%.0f%%", v.Progress.Multiplier*100))
				}
				fmt.Fprintln(out, line)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(no rituals)"))
			}
			return nil
		},
	}
}

func newRitualDoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "do <ritual_id>",
		Short: "Perform a ritual for the current period",
		Args:  requireArgs("ritual_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			before, err := svc.Status(ctx)
			if err != nil {
				return err
			}
			res, err := svc.CompleteRitual(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch res.Status {
			case engine.OutcomeNotFound:
				return unknownErr("ritual", args[0], ritualIDs(ctx, svc))
			case engine.OutcomeAlreadyCompleted:
				fmt.Fprintf(out, "%s %s is already done this period %s\n", ui.Warn.Render(ui.IconWarn), res.Ritual.Name, ui.Muted.Render(fmt.Sprintf("(streak %d)", res.Progress.Streak)))
				return nil
			}

			fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render(ui.IconDone+" Performed"), res.Ritual.Name,
				ui.Muted.Render(fmt.Sprintf("(+%d XP, +%d obedience)", res.XPAwarded, res.ObedienceAwarded)))
			fmt.Fprintln(out, ui.LabelValue("Streak", res.Progress.Streak))
			if res.Multiplier > 0 {
				fmt.Fprintln(out, ui.Gold.Render(fmt.Sprintf("%s Streak bonus +%.0f%%", ui.IconFlame, res.Multiplier*100)))
			}
			for _, b := range res.BuffsTriggered {
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconSparkle+" Buff"), b)
			}
			for _, id := range res.NPCsShamed {
				fmt.Fprintf(out, "%s %s\n", ui.Warn.Render(ui.IconEye+" Shame rises for"), id)
			}
			if res.CompanionXP > 0 {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("Companions +%d XP", res.CompanionXP)))
			}
			after, err := svc.Status(ctx)
			if err != nil {
				return err
			}
			if after.Level > before.Level {
				fmt.Fprintf(out, "%s %d → %d\n", ui.BadgeLevelUp, before.Level, after.Level)
			}
			return nil
		},
	}
}

func newRitualResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <ritual_id>",
		Short: "Clear a ritual's completion history",
		Args:  requireArgs("ritual_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.ResetRitualStreak(ctx, args[0])
			if err != nil {
				return err
			}
			if out == engine.OutcomeNotFound {
				return unknownErr("ritual", args[0], ritualIDs(ctx, svc))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Streak reset"), args[0])
			return nil
		},
	}
}

func newRitualAddCmd() *cobra.Command {
	var (
		every     string
		xp        int
		obedience int
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a ritual",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := engine.ParseRecurrence(every)
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			r, err := svc.AddRitual(ctx, engine.AddRitualInput{Name: args[0], Type: rec, XP: xp, Obedience: obedience})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconCandle+" Added"), r.Name, ui.Muted.Render(r.ID+", "+engine.DescribeMultiplier(r.Type)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&every, "every", "e", "daily", "Recurrence (daily|weekly|monthly|yearly)")
	cmd.Flags().IntVar(&xp, "xp", 50, "XP per completion")
	cmd.Flags().IntVar(&obedience, "obedience", 5, "Obedience per completion")
	return cmd
}

func newRitualDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ritual_id>",
		Short: "Delete a ritual and its logs",
		Args:  requireArgs("ritual_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.DeleteRitual(ctx, args[0])
			if err != nil {
				return err
			}
			if out == engine.OutcomeNotFound {
				return unknownErr("ritual", args[0], ritualIDs(ctx, svc))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Deleted"), args[0])
			return nil
		},
	}
}
