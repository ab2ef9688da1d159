// Command bookline-windowgen seeds default availability windows for every
// active employee over the next N days, skipping the weekly closure day.
// Seeding is idempotent: a day that already has a default window is left
// alone, so the batch can run on a schedule.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"bookline/backend/internal/config"
	"bookline/backend/internal/domain"
	"bookline/backend/internal/store/postgres"
)

func main() {
	days := flag.Int("days", 30, "number of days ahead to seed")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "bookline-windowgen"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if *days <= 0 {
		log.Error("days must be positive", slog.Int("days", *days))
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		log.Error("database connection failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("migrations failed", slog.Any("err", err))
		os.Exit(1)
	}

	catalog := postgres.NewCatalogRepo(db)
	windows := postgres.NewAvailabilityRepo(db)

	employees, err := catalog.ListEmployees(ctx, 0)
	if err != nil {
		log.Error("listing employees failed", slog.Any("err", err))
		os.Exit(1)
	}
	if len(employees) == 0 {
		log.Warn("no active employees, nothing to seed")
		return
	}

	start := domain.DateOnly(time.Now().In(cfg.Timezone))
	var created, skipped int
	for offset := 0; offset < *days; offset++ {
		date := start.AddDate(0, 0, offset)
		if date.Weekday() == cfg.ClosureWeekday {
			continue
		}
		for _, emp := range employees {
			inserted, err := windows.SeedWindow(ctx, domain.AvailabilityWindow{
				EmployeeID:  emp.ID,
				Date:        date,
				StartMinute: cfg.WindowOpen,
				EndMinute:   cfg.WindowClose,
			})
			if err != nil {
				log.Error("seeding window failed",
					slog.Int64("employee_id", emp.ID),
					slog.String("date", date.Format(domain.DateLayout)),
					slog.Any("err", err),
				)
				os.Exit(1)
			}
			if inserted {
				created++
			} else {
				skipped++
			}
		}
	}

	log.Info("window seeding complete",
		slog.Int("employees", len(employees)),
		slog.Int("days", *days),
		slog.Int("created", created),
		slog.Int("skipped", skipped),
	)
}
