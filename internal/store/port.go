// internal/store/port.go
// Persistence port consumed by the Lifecycle Controller and Replay
// Orchestrator. Adapters: memstore (in-memory reference) and mysqlstore.

package store

import (
	"context"

	"matchcore/internal/models"
)

// GroupStore covers group-level reads and settings.
type GroupStore interface {
	GetGroupSettings(ctx context.Context, groupID string) (models.GroupSettings, error)
	SetGroupArchived(ctx context.Context, groupID string, archived bool) error
}

// PlayerStore covers roster membership reads and writes.
type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (models.Player, error)
	ListPlayersByGroup(ctx context.Context, groupID string) ([]models.Player, error) // ordered by rating desc
	AddPlayer(ctx context.Context, p models.Player) error
	UpdatePlayerRatingAndStats(ctx context.Context, p models.Player) error
	ResetPlayerStats(ctx context.Context, groupID string) error
}

// EventStore covers event reads, writes, and participant management.
type EventStore interface {
	GetEvent(ctx context.Context, eventID string) (models.Event, error)
	CreateEvent(ctx context.Context, e models.Event) error
	UpdateEventStatus(ctx context.Context, eventID string, status models.EventStatus, meta *models.GenerationMetadata) error
	DeleteEvent(ctx context.Context, eventID string) error
	ListEventsByGroup(ctx context.Context, groupID string, status *models.EventStatus) ([]models.Event, error)
	// ListCompletedEventsOrdered returns every COMPLETED event in the group
	// ordered by (starts_at ASC, created_at ASC), the order Replay streams.
	ListCompletedEventsOrdered(ctx context.Context, groupID string) ([]models.Event, error)
	GetPreviousCompletedEvent(ctx context.Context, groupID string, beforeEventID string) (*models.Event, error)
	AddParticipants(ctx context.Context, eventID string, playerIDs []string) error
	GetParticipants(ctx context.Context, eventID string) ([]string, error)
}

// GameForEvent bundles a game with the pre-event ratings and display
// names of its four players, the shape complete/replay need without a
// separate player lookup per game.
type GameForEvent struct {
	Game          models.Game
	PlayerRatings map[string]float64
	PlayerNames   map[string]string
}

// GameStore covers game reads/writes within an event.
type GameStore interface {
	CreateGames(ctx context.Context, eventID string, games []models.Game) error
	ListGamesByEvent(ctx context.Context, eventID string) ([]models.Game, error)
	ListGamesByEventWithRatings(ctx context.Context, eventID string) ([]GameForEvent, error)
	ListGamesByPlayer(ctx context.Context, playerID string) ([]models.Game, error)
	UpdateGameScore(ctx context.Context, gameID string, score1, score2 *int) (models.Game, error)
	DeleteGamesByEvent(ctx context.Context, eventID string) error
	SwapPositions(ctx context.Context, gameID1, slot1, gameID2, slot2 string) error
	UpdateEloSnapshots(ctx context.Context, gameID string, team1Elo, team2Elo float64) error
}

// RatingUpdateStore covers the append-only rating-update audit trail.
type RatingUpdateStore interface {
	AppendRatingUpdates(ctx context.Context, records []models.RatingUpdateRecord) error
	DeleteAllForGroup(ctx context.Context, groupID string) error
	// LastEventDeltas returns, per player, the rating_before of their
	// rating-update record in the group's most recently completed event;
	// players with no record in that event are absent (SUPPLEMENT, grounded
	// on get_last_event_deltas).
	LastEventDeltas(ctx context.Context, groupID string) (map[string]float64, error)
	// ListByPlayer returns a player's full rating-update history
	// (SUPPLEMENT, grounded on get_history_by_group_player).
	ListByPlayer(ctx context.Context, groupID, playerID string) ([]models.RatingUpdateRecord, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.RatingUpdateRecord, error)
}

// Port is the full persistence contract the core consumes.
type Port interface {
	GroupStore
	PlayerStore
	EventStore
	GameStore
	RatingUpdateStore

	// WithTx runs fn within a single logical connection's transaction
	// scope; complete and recalculate require their writes be atomic.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Port) error) error
}
