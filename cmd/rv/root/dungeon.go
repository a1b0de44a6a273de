package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reverie/internal/engine"
	"reverie/internal/ui"
)

func newDungeonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dungeon",
		Short: "Delve dungeons room by room",
	}
	cmd.AddCommand(
		newDungeonListCmd(),
		newDungeonStartCmd(),
		newDungeonRoomCmd(),
		newDungeonTrialCmd(),
		newDungeonBossCmd(),
		newDungeonLootCmd(),
		newDungeonAbandonCmd(),
		newDungeonInventoryCmd(),
	)
	return cmd
}

func newDungeonListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dungeons",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			dungeons, run, err := svc.ListDungeons(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconDoor, "Dungeons"))
			for _, d := range dungeons {
				state := "locked"
				if d.Unlocked {
					state = "unlocked"
				}
				if d.Cleared {
					state = "cleared"
				}
				line := fmt.Sprintf("- %s %s %s %s", ui.Key.Render(d.ID), d.Name, ui.StatusText(state), ui.Muted.Render(d.Difficulty))
				if d.TimesCleared > 0 {
					line += ui.Muted.Render(fmt.Sprintf(" x%d", d.TimesCleared))
				}
				if run != nil && run.DungeonID == d.ID {
					line += " " + ui.Warn.Render("(in progress)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func dungeonIDs(ctx context.Context, svc *engine.Service) []string {
	dungeons, _, _ := svc.ListDungeons(ctx)
	ids := make([]string, 0, len(dungeons))
	for _, d := range dungeons {
		ids = append(ids, d.ID)
	}
	return ids
}

func newDungeonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <dungeon_id>",
		Short: "Start a run through an unlocked dungeon",
		Args:  requireArgs("dungeon_id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if active, err := svc.ActiveRun(ctx); err != nil {
				return err
			} else if active != nil {
				return fmt.Errorf("a run through %s is already in progress; finish it or run: rv dungeon abandon", active.DungeonID)
			}
			ok, err := svc.StartRun(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				dungeons, _, _ := svc.ListDungeons(ctx)
				for _, d := range dungeons {
					if d.ID == args[0] {
						return fmt.Errorf("%s is still locked", d.Name)
					}
				}
				return unknownErr("dungeon", args[0], dungeonIDs(ctx, svc))
			}
			run, err := svc.ActiveRun(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Good.Render(ui.IconDoor+" Entered"), ui.Label(run.DungeonID), ui.Muted.Render(fmt.Sprintf("(%d rooms)", run.TotalRooms)))
			printRun(cmd, run)
			return nil
		},
	}
}

func printRun(cmd *cobra.Command, run *engine.DungeonRun) {
	out := cmd.OutOrStdout()
	if run == nil {
		fmt.Fprintln(out, ui.Muted.Render("No run in progress."))
		return
	}
	fmt.Fprintf(out, "%s %s\n", ui.H2.Render(ui.Label(run.DungeonID)), ui.ProgressBar(run.CompletedRooms, run.TotalRooms, 12))
	for i, room := range run.Rooms {
		marker := "  "
		if i == run.CurrentRoomIndex {
			marker = ui.Gold.Render("▶ ")
		}
		state := ui.Muted.Render("ahead")
		if room.Completed {
			state = ui.Good.Render("done")
		}
		kind := string(room.Type)
		if room.Subtype != "" {
			kind += "/" + room.Subtype
		}
		fmt.Fprintf(out, "%s%s %s %s %s\n", marker, ui.RoomIcon(string(room.Type)), kind, state, ui.Muted.Render(room.Desc))
	}
}

func newDungeonRoomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "room",
		Short: "Show the active run and the room ahead",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := svc.ActiveRun(ctx)
			if err != nil {
				return err
			}
			printRun(cmd, run)
			return nil
		},
	}
}

// afterRoom reports the run state following a room attempt, including a clear.
func afterRoom(ctx context.Context, cmd *cobra.Command, svc *engine.Service, ok bool, what string) error {
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "%s %s failed. The room holds.\n", ui.Bad.Render(ui.IconSkull), what)
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", ui.Good.Render(ui.IconDone), what+" succeeded.")
	run, err := svc.ActiveRun(ctx)
	if err != nil {
		return err
	}
	if run != nil {
		printRun(cmd, run)
		return nil
	}
	_, prog, err := svc.Inventory(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.Gold.Render(ui.IconTrophy+" Dungeon cleared!"))
	fmt.Fprintf(out, "%s %d cleared, %d bosses\n", ui.Key.Render("Progress:"), prog.TotalClearedDungeons, prog.TotalBossesDefeated)
	return nil
}

func requireRun(ctx context.Context, svc *engine.Service, want engine.RoomType) error {
	run, err := svc.ActiveRun(ctx)
	if err != nil {
		return err
	}
	room := run.Current()
	if room == nil {
		return fmt.Errorf("no run in progress; start one with: rv dungeon start <dungeon_id>")
	}
	if room.Type != want {
		return fmt.Errorf("the current room is a %s room, not %s", room.Type, want)
	}
	return nil
}

func newDungeonTrialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trial [confession...]",
		Short: "Attempt the current trial room",
		Long:  "Attempt the current trial room. Shame trials need a confession longer than ten characters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireRun(ctx, svc, engine.RoomTrial); err != nil {
				return err
			}
			ok, err := svc.CompleteTrial(ctx, "", strings.Join(args, " "))
			if err != nil {
				return err
			}
			return afterRoom(ctx, cmd, svc, ok, "Trial")
		},
	}
}

func newDungeonBossCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boss [strategy]",
		Short: "Fight the boss; matching its weakness improves the odds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireRun(ctx, svc, engine.RoomBoss); err != nil {
				return err
			}
			strategy := engine.DefaultBossStrategy
			if len(args) == 1 {
				strategy = args[0]
			}
			ok, err := svc.FightBoss(ctx, strategy)
			if err != nil {
				return err
			}
			return afterRoom(ctx, cmd, svc, ok, "Boss fight ("+strategy+")")
		},
	}
}

func newDungeonLootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loot",
		Short: "Collect loot from the current room",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := requireRun(ctx, svc, engine.RoomLoot); err != nil {
				return err
			}
			before, _, err := svc.Inventory(ctx)
			if err != nil {
				return err
			}
			ok, err := svc.CollectLoot(ctx)
			if err != nil {
				return err
			}
			after, _, err := svc.Inventory(ctx)
			if err != nil {
				return err
			}
			for _, item := range after[len(before):] {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Gold.Render(ui.IconChest), item.Name, ui.RarityText(item.Rarity))
			}
			return afterRoom(ctx, cmd, svc, ok, "Looting")
		},
	}
}

func newDungeonAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Abandon the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			ok, err := svc.AbandonRun(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("No run in progress."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render(ui.IconDoor+" Run abandoned"))
			return nil
		},
	}
}

func newDungeonInventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Show dungeon loot and honors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cleanup, err := openService(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()

			items, prog, err := svc.Inventory(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconChest, "Inventory"))
			if len(items) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(empty)"))
			}
			for _, it := range items {
				fmt.Fprintf(out, "- %s %s %s\n", it.Name, ui.RarityText(it.Rarity), ui.Muted.Render(fmt.Sprintf("from %s on %s", ui.Label(it.DungeonID), it.Obtained.Format("2006-01-02"))))
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Cleared", prog.TotalClearedDungeons))
			fmt.Fprintln(out, ui.LabelValue("Bosses defeated", prog.TotalBossesDefeated))
			if len(prog.Honors) > 0 {
				fmt.Fprintln(out, ui.LabelValue("Honors", strings.Join(prog.Honors, ", ")))
			}
			return nil
		},
	}
}
