// cmd/demo/main.go
// Standalone demo entrypoint exercising one full create -> generate ->
// complete -> recalculate cycle. Runs against memstore by default, or the
// live mysqlstore/Redis/MongoDB trio when MYSQL_DSN is set. Intended as a
// smoke-test harness, not a service; the HTTP/gRPC surface is out of scope
// for this core.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"matchcore/internal/audit"
	"matchcore/internal/cache"
	"matchcore/internal/config"
	"matchcore/internal/database"
	"matchcore/internal/grouplock"
	"matchcore/internal/lifecycle"
	"matchcore/internal/logging"
	"matchcore/internal/models"
	"matchcore/internal/replay"
	"matchcore/internal/store"
	"matchcore/internal/store/memstore"
	"matchcore/internal/store/mysqlstore"
)

// groupSeeder provisions a group's settings row ahead of a run, outside
// store.Port since group management itself is out of scope for this core.
// Both memstore.Store and mysqlstore.Store implement it.
type groupSeeder interface {
	SeedGroupSettings(ctx context.Context, settings models.GroupSettings) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.Environment)
	ctx := context.Background()

	// With MYSQL_DSN set, wire the live trio (MySQL + Redis + MongoDB) via
	// database.Initialize; otherwise fall back to memstore plus nil-backed
	// cache/audit sinks so the demo still runs with zero infrastructure.
	var st store.Port
	var rankings *cache.RankingsCache
	var sink *audit.Sink
	if cfg.Database.MySQL.DSN != "" {
		conns, err := database.Initialize(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("initialize databases: %w", err)
		}
		defer conns.Close()
		st = mysqlstore.New(conns.MySQL)
		rankings = cache.NewRankingsCache(conns.Redis, logger, cfg.Cache.RankingsTTL)
		sink = audit.NewSink(conns.MongoDB, logger)
	} else {
		st = memstore.New()
		rankings = cache.NewRankingsCache(nil, logger, cfg.Cache.RankingsTTL)
		sink = audit.NewSink(nil, logger)
	}
	locks := grouplock.NewRegistry()
	orch := replay.New(st, sink, logger)
	ctrl := lifecycle.New(st, locks, rankings, sink, orch, logger)

	groupID := uuid.NewString()
	seeder, ok := st.(groupSeeder)
	if !ok {
		return fmt.Errorf("store %T cannot seed group settings", st)
	}
	if err := seeder.SeedGroupSettings(ctx, models.GroupSettings{
		GroupID:          groupID,
		RatingSystem:     models.RatingSystemSeriousElo,
		InitialRating:    cfg.Rating.InitialRating,
		KFactor:          cfg.Rating.KFactor,
		EloConst:         400,
		Constraints:      models.DefaultConstraintToggles(),
		EloDiff:          cfg.Rating.EloDiff,
		AutoRelaxEloDiff: true,
		AutoRelaxStep:    cfg.Rating.AutoRelaxStep,
		AutoRelaxMaxDiff: cfg.Rating.AutoRelaxMaxDiff,
	}); err != nil {
		return fmt.Errorf("seed group settings: %w", err)
	}

	names := []string{"Ann", "Bea", "Cid", "Deb", "Eli", "Fay", "Gus", "Hal"}
	playerIDs := make([]string, 0, len(names))
	for _, name := range names {
		p := models.Player{
			ID:          uuid.NewString(),
			GroupID:     groupID,
			DisplayName: name,
			Rating:      models.InitialRating(cfg.Rating.InitialRating, nil),
			Membership:  models.MembershipPermanent,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := st.AddPlayer(ctx, p); err != nil {
			return fmt.Errorf("add player %s: %w", name, err)
		}
		playerIDs = append(playerIDs, p.ID)
	}

	eventName := "Tuesday Open Play"
	event, err := ctrl.CreateEvent(ctx, groupID, &eventName, nil, 2, 3, playerIDs)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	logger.WithField("event_id", event.ID).Info("event created")

	genResp, err := ctrl.Generate(ctx, event.ID, false)
	if err != nil {
		return fmt.Errorf("generate schedule: %w", err)
	}
	logger.WithField("status", genResp.Event.Status).Info("schedule generated")

	games, err := st.ListGamesByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	for i := range games {
		score1, score2 := 11, 7
		if i%2 == 1 {
			score1, score2 = 6, 11
		}
		if _, err := ctrl.UpdateScore(ctx, games[i].ID, event.ID, &score1, &score2); err != nil {
			return fmt.Errorf("score game %s: %w", games[i].ID, err)
		}
	}

	completeResp, err := ctrl.Complete(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("complete event: %w", err)
	}
	logger.WithField("rating_updates", len(completeResp.Updates)).Info("event completed")

	summary, err := orch.Recalculate(ctx, groupID)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"events_processed": summary.EventsProcessed,
		"players_updated":  summary.PlayersUpdated,
	}).Info("replay complete")

	for _, top := range summary.TopFinal {
		logger.WithFields(map[string]interface{}{
			"player": top.DisplayName,
			"rating": top.Rating,
		}).Info("ranked player")
	}

	return nil
}
