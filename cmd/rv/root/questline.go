package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newQuestlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questline",
		Short: "Follow staged questlines and their branches",
	}
	cmd.AddCommand(newQuestlineListCmd(), newQuestlineStageCmd(), newQuestlineChooseCmd(), newQuestlineResetCmd())
	return cmd
}

func questlineIDs(ctx context.Context, svc *engine.Service) []string {
	qls, _ := svc.ListQuestlines(ctx)
	ids := make([]string, 0, len(qls))
	for _, ql := range qls {
		ids = append(ids, ql.ID)
	}
	return ids
}

func newQuestlineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List questlines and their stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			qls, err := svc.ListQuestlines(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ql := range qls {
				title := fmt.Sprintf("%s %s %s", ui.IconChain, ql.Name, ui.Muted.Render(ql.ID))
				fmt.Fprintf(out, "%s %s %d%%\n", ui.H2.Render(title), ui.ProgressBar(engine.QuestlineProgress(ql), 100, 10), engine.QuestlineProgress(ql))
				for _, s := range ql.Stages {
					marker := "  "
					if s.ID == ql.ActiveStageID {
						marker = ui.Gold.Render("▶ ")
					}
					mark := "[ ]"
					if s.Completed {
						mark = "[x]"
					}
					fmt.Fprintf(out, "  %s%s %s %s %s\n", marker, mark, ui.Key.Render(s.ID), s.Title, ui.Muted.Render(fmt.Sprintf("(%d XP)", s.XP)))
					for _, b := range s.BranchChoices {
						chosen := ""
						if b.ID == s.ChosenBranchID {
							chosen = ui.Good.Render(" (chosen)")
						}
						fmt.Fprintf(out, "        ↳ %s %s%s\n", ui.Key.Render(b.ID), b.Title, chosen)
					}
				}
				if ql.Completed {
					fmt.Fprintln(out, "  "+ui.Good.Render(ui.IconTrophy+" completed"))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func stageErr(ctx context.Context, svc *engine.Service, questlineID, stageID string) error {
	qls, err := svc.ListQuestlines(ctx)
	if err != nil {
		return err
	}
	for _, ql := range qls {
		if ql.ID != questlineID {
			continue
		}
		ids := make([]string, 0, len(ql.Stages))
		for _, s := range ql.Stages {
			ids = append(ids, s.ID)
		}
		return unknownErr("stage", stageID, ids)
	}
	return unknownErr("questline", questlineID, questlineIDs(ctx, svc))
}

func newQuestlineStageCmd() *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   "stage <questline_id> <stage_id>",
		Short: "Complete a questline stage",
		Args:  requireArgs("questline_id", "stage_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.CompleteStage(ctx, args[0], args[1], branch)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch res.Status {
			case engine.OutcomeNotFound:
				return stageErr(ctx, svc, args[0], args[1])
			case engine.OutcomeBranchRequired:
				ids := make([]string, 0, len(res.Stage.BranchChoices))
				for _, b := range res.Stage.BranchChoices {
					ids = append(ids, b.ID)
				}
				if branch != "" {
					return unknownErr("branch", branch, ids)
				}
				return fmt.Errorf("stage %s needs a branch: pass --branch with one of %v", args[1], ids)
			case engine.OutcomeAlreadyCompleted:
				fmt.Fprintf(out, "%s %s is already complete\n", ui.Warn.Render(ui.IconWarn), res.Stage.Title)
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconDone+" Stage complete:"), res.Stage.Title)
			if res.Branch != nil {
				fmt.Fprintln(out, ui.LabelValue("Path", res.Branch.Title))
			}
			for _, id := range res.NPCsTrusted {
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconEye+" Trust grows with"), id)
			}
			if res.Status == engine.OutcomeQuestlineCompleted {
				fmt.Fprintln(out, ui.Gold.Render(ui.IconTrophy+" Questline complete!"))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to take at a branching stage")
	return cmd
}

func newQuestlineChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "choose <questline_id> <stage_id> <branch_id>",
		Short: "Pick a branch ahead of completing its stage",
		Args:  requireArgs("questline_id", "stage_id", "branch_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.ChooseBranch(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			switch out {
			case engine.OutcomeNotFound:
				return fmt.Errorf("no branch %s at %s/%s", args[2], args[0], args[1])
			case engine.OutcomeAlreadyCompleted:
				return fmt.Errorf("stage %s is already complete", args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render("Chose"), args[2])
			return nil
		},
	}
}

func newQuestlineResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <questline_id>",
		Short: "Reset a questline to its first stage",
		Args:  requireArgs("questline_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.ResetQuestline(ctx, args[0])
			if err != nil {
				return err
			}
			if out == engine.OutcomeNotFound {
				return unknownErr("questline", args[0], questlineIDs(ctx, svc))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Warn.Render("Reset"), args[0])
			return nil
		},
	}
}
