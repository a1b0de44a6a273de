package root

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newQuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Manage dream and waking-life quests",
	}
	cmd.AddCommand(
		newQuestListCmd(),
		newQuestOutcomeCmd("start", "Activate a locked quest", (*engine.Service).StartQuest),
		newQuestStepCmd(),
		newQuestCompleteCmd(),
		newQuestOutcomeCmd("abandon", "Abandon an active quest and clear its steps", (*engine.Service).AbandonQuest),
		newQuestOutcomeCmd("fail", "Mark an active quest as failed", (*engine.Service).FailQuest),
		newQuestOutcomeCmd("reset", "Restart a quest from scratch", (*engine.Service).ResetQuest),
		newQuestOutcomeCmd("delete", "Delete a quest", (*engine.Service).DeleteQuest),
		newQuestChooseCmd(),
		newQuestAddCmd(),
		newQuestTickCmd(),
	)
	return cmd
}

func questIDs(ctx context.Context, svc *engine.Service) []string {
	ledger, _ := svc.ListQuests(ctx)
	ids := make([]string, 0, len(ledger.Quests))
	for _, q := range ledger.Quests {
		ids = append(ids, q.ID)
	}
	return ids
}

func newQuestListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quests by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			ledger, err := svc.ListQuests(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			now := time.Now()
			fmt.Fprintln(out, ui.Heading(ui.IconCompass, "Quests"))
			shown := 0
			for _, q := range ledger.Quests {
				if !all && (q.Status == engine.QuestCompleted || q.Status == engine.QuestFailed) {
					continue
				}
				shown++
				line := fmt.Sprintf("- %s %s %s %s", ui.Key.Render(q.ID), q.Title, ui.StatusText(string(q.Status)),
					ui.Muted.Render(fmt.Sprintf("[%s · %s · %s]", q.Type, ui.Label(string(q.Category)), q.Priority)))
				if len(q.Steps) > 0 && q.Status != engine.QuestCompleted {
					line += fmt.Sprintf(" %d%%", engine.QuestProgress(q))
				}
				if left := engine.TimeRemaining(q, now); left != "" && q.Status == engine.QuestActive {
					line += " " + ui.Warn.Render(ui.IconHourglass+" "+left)
				}
				fmt.Fprintln(out, line)
				if q.Status == engine.QuestActive {
					for _, s := range q.Steps {
						mark := "[ ]"
						if s.Done {
							mark = "[x]"
						}
						fmt.Fprintf(out, "    %s %s %s\n", mark, ui.Muted.Render(s.ID), s.Text)
					}
				}
			}
			if shown == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(no open quests)"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed and failed quests")
	return cmd
}

func newQuestOutcomeCmd(verb, short string, fn func(*engine.Service, context.Context, string) (engine.Outcome, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <quest_id>",
		Short: short,
		Args:  requireArgs("quest_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := fn(svc, ctx, args[0])
			if err != nil {
				return err
			}
			switch out {
			case engine.OutcomeNotFound:
				return unknownErr("quest", args[0], questIDs(ctx, svc))
			case engine.OutcomeInvalidState:
				return fmt.Errorf("cannot %s quest %s in its current state", verb, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Key.Render(verb), args[0], ui.OutcomeText(string(out)))
			return nil
		},
	}
}

func printQuestResult(cmd *cobra.Command, res engine.QuestResult) {
	out := cmd.OutOrStdout()
	if res.Popup == nil {
		fmt.Fprintf(out, "%s %s %d%%\n", res.Quest.Title, ui.OutcomeText(string(res.Status)), engine.QuestProgress(res.Quest))
		return
	}
	p := res.Popup
	fmt.Fprintf(out, "%s %s\n", ui.Gold.Render(ui.IconTrophy+" Quest complete:"), p.Title)
	fmt.Fprintf(out, "  +%d XP  +%d tokens", p.XP, p.Tokens)
	if p.Obedience > 0 {
		fmt.Fprintf(out, "  +%d obedience", p.Obedience)
	}
	fmt.Fprintln(out)
	for _, item := range p.Items {
		fmt.Fprintf(out, "  %s %s\n", ui.IconChest, ui.Label(item))
	}
	for _, b := range p.Buffs {
		fmt.Fprintf(out, "  %s %s\n", ui.IconSparkle, b)
	}
	if p.NewTitle != "" {
		fmt.Fprintf(out, "  %s %s\n", ui.Key.Render("Title:"), ui.Gold.Render(p.NewTitle))
	}
	if p.Achievement != "" {
		fmt.Fprintf(out, "  %s %s\n", ui.Key.Render("Achievement:"), p.Achievement)
	}
	for _, id := range p.Unlocked {
		fmt.Fprintf(out, "  %s %s\n", ui.Good.Render("Unlocked quest"), id)
	}
	for _, id := range p.Locked {
		fmt.Fprintf(out, "  %s %s\n", ui.Bad.Render("Closed quest"), id)
	}
}

func newQuestChooseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "choose <quest_id> <key> <value>",
		Short: "Record a choice that the quest's branches read on completion",
		Args:  requireArgs("quest_id", "key", "value"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.ChooseQuestOption(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			switch res.Status {
			case engine.OutcomeNotFound:
				return unknownErr("quest", args[0], questIDs(ctx, svc))
			case engine.OutcomeInvalidState:
				return fmt.Errorf("quest %s is %s; choices are fixed once it ends", args[0], res.Quest.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", ui.Good.Render("Chose"), args[1], args[2])
			return nil
		},
	}
}

func newQuestStepCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "step <quest_id> <step_id>",
		Short: "Mark a quest step done (or undone with --undo)",
		Args:  requireArgs("quest_id", "step_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.UpdateStep(ctx, args[0], args[1], !undo)
			if err != nil {
				return err
			}
			switch res.Status {
			case engine.OutcomeNotFound:
				if res.Quest.ID == "" {
					return unknownErr("quest", args[0], questIDs(ctx, svc))
				}
				stepIDs := make([]string, 0, len(res.Quest.Steps))
				for _, s := range res.Quest.Steps {
					stepIDs = append(stepIDs, s.ID)
				}
				return unknownErr("step", args[1], stepIDs)
			case engine.OutcomeInvalidState:
				return fmt.Errorf("quest %s is %s; only active quests take step updates", args[0], res.Quest.Status)
			}
			printQuestResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark the step as not done")
	return cmd
}

func newQuestCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <quest_id>",
		Short: "Complete an active quest whose required steps are done",
		Args:  requireArgs("quest_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.CompleteQuest(ctx, args[0])
			if err != nil {
				return err
			}
			switch res.Status {
			case engine.OutcomeNotFound:
				return unknownErr("quest", args[0], questIDs(ctx, svc))
			case engine.OutcomeInvalidState:
				if res.Quest.Status != engine.QuestActive {
					return fmt.Errorf("quest %s is %s; only active quests can be completed", args[0], res.Quest.Status)
				}
				return fmt.Errorf("quest %s is not ready: finish its required steps first", args[0])
			}
			printQuestResult(cmd, res)
			return nil
		},
	}
}

func newQuestAddCmd() *cobra.Command {
	var (
		questType  string
		category   string
		difficulty string
		priority   string
		steps      []string
		tags       []string
		unlocks    []string
		xp         int
		tokens     int
		limit      string
		recurring  string
		locked     bool
		branches   []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a quest",
		Args:  requireArgs("title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := engine.AddQuestInput{
				Title:       args[0],
				Type:        engine.ParseQuestType(questType),
				Category:    engine.ParseCategory(category),
				Difficulty:  engine.ParseDifficulty(difficulty),
				Priority:    engine.ParsePriority(priority),
				Steps:       steps,
				Tags:        tags,
				Unlocks:     unlocks,
				Rewards:     engine.QuestRewards{XP: xp, Tokens: tokens},
				StartLocked: locked,
			}
			if strings.TrimSpace(limit) != "" {
				d, ok := engine.ParseDuration(limit)
				if !ok {
					return fmt.Errorf("invalid time limit %q (use e.g. 1d 12h)", limit)
				}
				in.TimeLimit = d
			}
			if recurring != "" {
				r, err := engine.ParseRecurrence(recurring)
				if err != nil {
					return err
				}
				in.Recurring = r
			}
			for _, b := range branches {
				rule, err := engine.ParseBranchRule(b)
				if err != nil {
					return err
				}
				in.Branches = append(in.Branches, rule)
			}

			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.AddQuest(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconCompass+" Added"), q.Title, ui.Muted.Render(q.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&questType, "type", "t", "irl", "Quest type (dream|irl)")
	cmd.Flags().StringVarP(&category, "category", "c", "side", "Category (main|side|daily|weekly|epic|ritual|skill|exploration|habit)")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "medium", "Difficulty (easy|medium|hard|epic|legendary)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority (low|medium|high|urgent)")
	cmd.Flags().StringArrayVarP(&steps, "step", "s", nil, "Required step text (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags (comma separated or repeatable)")
	cmd.Flags().StringSliceVar(&unlocks, "after", nil, "Quest ids whose completion activates this one")
	cmd.Flags().IntVar(&xp, "xp", 100, "XP reward")
	cmd.Flags().IntVar(&tokens, "tokens", 10, "Token reward")
	cmd.Flags().StringVar(&limit, "limit", "", "Time limit, e.g. 2d or 12h")
	cmd.Flags().StringVar(&recurring, "recurring", "", "Recurrence (daily|weekly)")
	cmd.Flags().BoolVar(&locked, "locked", false, "Create the quest locked")
	cmd.Flags().StringArrayVar(&branches, "branch", nil, "Branch rule, e.g. step_completed:s1=q2 or choice:path:left=q3,!q4 (repeatable)")
	return cmd
}

func newQuestTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Expire, auto-complete, respawn recurring quests and build the day's template quests",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.Tick(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Failed > 0 {
				fmt.Fprintf(out, "%s %d quest(s) ran out of time\n", ui.Bad.Render(ui.IconHourglass), res.Failed)
			}
			for _, p := range res.Completed {
				printQuestResult(cmd, engine.QuestResult{Status: engine.OutcomeCompleted, Popup: &p})
			}
			for _, id := range res.Spawned {
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render("New instance"), id)
			}
			for _, id := range res.Generated {
				fmt.Fprintf(out, "%s %s\n", ui.Good.Render("Generated"), id)
			}
			if res.Failed == 0 && len(res.Completed) == 0 && len(res.Spawned) == 0 && len(res.Generated) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("Nothing to do."))
			}
			return nil
		},
	}
}
