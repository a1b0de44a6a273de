package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record journal entries, shame, punishments, companions, NPCs and map progress",
	}
	cmd.AddCommand(
		newRecordJournalCmd(),
		newRecordShameCmd(),
		newRecordConfessionCmd(),
		newRecordPunishmentCmd(),
		newRecordPardonCmd(),
		newRecordCompanionCmd(),
		newRecordNPCCmd(),
		newRecordMapCmd(),
	)
	return cmd
}

func newRecordJournalCmd() *cobra.Command {
	var (
		tags       []string
		lucidity   string
		places     []string
		companions []string
	)
	cmd := &cobra.Command{
		Use:   "journal <title>",
		Short: "Log a dream journal entry",
		Args:  requireArgs("title"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			e, err := svc.RecordJournalEntry(ctx, engine.JournalInput{
				Title:      args[0],
				Tags:       tags,
				Lucidity:   engine.ParseLucidity(lucidity),
				Places:     places,
				Companions: companions,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconMoon+" Recorded"), e.Title, ui.Muted.Render(strings.Join(e.Tags, ", ")))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Dream tags (comma separated or repeatable)")
	cmd.Flags().StringVarP(&lucidity, "lucidity", "l", "none", "Lucidity (none|partial|full)")
	cmd.Flags().StringSliceVar(&places, "place", nil, "Places visited")
	cmd.Flags().StringSliceVar(&companions, "companion", nil, "Companions met")
	return cmd
}

func newRecordShameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shame <counter> <delta>",
		Short: "Adjust a shame counter (pantiesSniffed|ritualsFailed|dirtyTokensBurned)",
		Args:  requireArgs("counter", "delta"),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := intArg("delta", args[1])
			if err != nil {
				return err
			}
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			v, err := svc.AdjustShame(ctx, args[0], delta)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue(args[0], v))
			return nil
		},
	}
}

func newRecordConfessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confession <text...>",
		Short: "Log a confession",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := svc.AddConfession(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconEye+" Confession recorded"))
			return nil
		},
	}
}

func newRecordPunishmentCmd() *cobra.Command {
	var tier int
	cmd := &cobra.Command{
		Use:   "punishment <name>",
		Short: "Begin a punishment",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := svc.AddPunishment(ctx, args[0], tier)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Bad.Render(ui.IconChain+" Punishment"), p.Name, ui.Muted.Render(fmt.Sprintf("tier %d, id %s", p.Tier, p.ID)))
			return nil
		},
	}
	cmd.Flags().IntVar(&tier, "tier", 1, "Punishment tier")
	return cmd
}

func newRecordPardonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pardon <punishment_id>",
		Short: "Clear an active punishment",
		Args:  requireArgs("punishment_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.ClearPunishment(ctx, args[0])
			if err != nil {
				return err
			}
			if out == engine.OutcomeNotFound {
				return fmt.Errorf("no active punishment %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Pardoned"))
			return nil
		},
	}
}

func newRecordCompanionCmd() *cobra.Command {
	var (
		id    string
		forms []string
	)
	cmd := &cobra.Command{
		Use:   "companion <name>",
		Short: "Add or update a dream companion",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := svc.UpsertCompanion(ctx, engine.Companion{ID: id, Name: args[0], Forms: forms})
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%s %s %s %s", ui.Good.Render("Companion"), c.Name, ui.Muted.Render(c.ID),
				ui.LabelValue("Level", fmt.Sprintf("%d (%d/%d XP)", c.Level, c.XP, engine.CompanionXPForLevel(c.Level+1))))
			if c.Evolved() {
				line += " " + ui.Gold.Render("evolved")
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Companion id to update")
	cmd.Flags().StringSliceVar(&forms, "form", nil, "Forms in evolution order")
	return cmd
}

func newRecordNPCCmd() *cobra.Command {
	var (
		role string
		bio  string
	)
	cmd := &cobra.Command{
		Use:   "npc <name>",
		Short: "Add a dream figure; rituals and questline stages that name it move its meters",
		Args:  requireArgs("name"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := svc.EnsureNPC(ctx, engine.NPCInput{Name: args[0], Role: role, Bio: bio})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s) %s %s\n", ui.Good.Render(ui.IconEye+" NPC"), n.Name, n.Role,
				ui.LabelValue("Trust", n.Trust), ui.LabelValue("Shame", n.Shame))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "Friend", "Role (Mistress|Family|Friend|Mentor|...)")
	cmd.Flags().StringVar(&bio, "bio", "", "Short description")
	return cmd
}

func newRecordMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <node_id>",
		Short: "Unlock a dream map node",
		Args:  requireArgs("node_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.UnlockMapNode(ctx, args[0])
			if err != nil {
				return err
			}
			switch out {
			case engine.OutcomeNotFound:
				st, err := svc.LoadState(ctx)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(st.MapNodes))
				for _, n := range st.MapNodes {
					ids = append(ids, n.ID)
				}
				return unknownErr("map node", args[0], ids)
			case engine.OutcomeAlreadyCompleted:
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(args[0]+" is already open"))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconCompass+" Unlocked"), ui.Label(args[0]))
			return nil
		},
	}
}
