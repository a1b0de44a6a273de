package root

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"reverie/internal/engine"
	"reverie/internal/storage"
	"reverie/internal/ui"
)

func openDB(ctx context.Context) (*sql.DB, func(), error) {
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup, nil
}

// openService wires the engine to the configured database. Achievement toasts go to out.
func openService(ctx context.Context, out io.Writer) (*engine.Service, func(), error) {
	db, cleanup, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := engine.NewService(db,
		engine.WithRand(engine.NewRand(cfg.Seed)),
		engine.WithStreakMultiplier(cfg.StreakMultiplier),
		engine.WithLogger(slog.Default()),
		engine.WithNotifier(engine.NotifierFunc(func(a engine.Achievement) {
			fmt.Fprintf(out, "%s %s\n", ui.Gold.Render(ui.IconTrophy+" Achievement unlocked:"), a.Title)
			slog.Debug("achievement unlocked", "id", a.ID)
		})),
	)
	return svc, cleanup, nil
}
