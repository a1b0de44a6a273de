package root

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reverie/internal/config"
	"reverie/internal/ui"
)

const Version = "0.1.0"

var (
	dbFlag string
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:           "rv",
	Short:         "Reverie — rituals, dungeons and quests for the dreaming mind",
	Long:          "Reverie is a local-first CLI/TUI for dream-work rituals, dungeon runs, quests and questlines with RPG progression.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if dbFlag != "" {
			c.DBPath = dbFlag
		}
		cfg = c
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level()})))
		return nil
	},
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Database path (overrides REVERIE_DB)")

	rootCmd.AddCommand(
		newStatusCmd(),
		newRitualCmd(),
		newDungeonCmd(),
		newQuestCmd(),
		newQuestlineCmd(),
		newAchievementsCmd(),
		newRecordCmd(),
		newReportCmd(),
		newBoardCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
