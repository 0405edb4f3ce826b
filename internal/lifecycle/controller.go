// internal/lifecycle/controller.go
// Event lifecycle state machine: create, generate, swap, score, complete,
// delete, plus the bulk-import supplement.

package lifecycle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"matchcore/internal/audit"
	"matchcore/internal/cache"
	"matchcore/internal/coreerr"
	"matchcore/internal/grouplock"
	"matchcore/internal/matchmaking"
	"matchcore/internal/models"
	"matchcore/internal/ratings"
	"matchcore/internal/replay"
	"matchcore/internal/store"
	"matchcore/internal/utils"
)

// Controller owns event state transitions. It is the only component that
// mutates Player.Rating and cumulative stats outside of Replay.
type Controller struct {
	store    store.Port
	locks    *grouplock.Registry
	cache    *cache.RankingsCache
	audit    *audit.Sink
	replay   *replay.Orchestrator
	logger   *logrus.Entry
}

func New(s store.Port, locks *grouplock.Registry, rc *cache.RankingsCache, sink *audit.Sink, orch *replay.Orchestrator, logger *logrus.Entry) *Controller {
	return &Controller{store: s, locks: locks, cache: rc, audit: sink, replay: orch, logger: logger}
}

// CreateEvent creates a DRAFT event with its participant set attached.
// Requires |participants| == 4*C.
func (c *Controller) CreateEvent(ctx context.Context, groupID string, name *string, startsAt *time.Time, courts, rounds int, participants []string) (models.Event, error) {
	e := models.Event{
		ID:           utils.GenerateUUID(),
		GroupID:      groupID,
		Name:         name,
		StartsAt:     startsAt,
		Courts:       courts,
		Rounds:       rounds,
		Participants: models.ParticipantSet(participants),
		Status:       models.EventDraft,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if len(participants) != e.RequiredParticipants() {
		return models.Event{}, coreerr.InputInvalid("number of participants (%d) must equal 4*courts (%d)", len(participants), e.RequiredParticipants())
	}
	if err := c.store.CreateEvent(ctx, e); err != nil {
		return models.Event{}, coreerr.Persistence(err, "creating event")
	}
	if err := c.store.AddParticipants(ctx, e.ID, participants); err != nil {
		return models.Event{}, coreerr.Persistence(err, "attaching participants to event %s", e.ID)
	}
	return e, nil
}

// GenerateResponse is the outcome of one generate call.
type GenerateResponse struct {
	Event    models.Event
	Metadata models.GenerationMetadata
}

// Generate produces (or regenerates) an event's schedule, acquiring the
// group lock for the duration. seed defaults to the event id unless
// newSeed requests a fresh opaque seed.
func (c *Controller) Generate(ctx context.Context, eventID string, newSeed bool) (GenerateResponse, error) {
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "loading event %s", eventID)
	}

	release, err := c.locks.Acquire(ctx, event.GroupID)
	if err != nil {
		return GenerateResponse{}, err
	}
	defer release()

	if !event.Status.CanTransitionTo(models.EventGenerated) {
		return GenerateResponse{}, coreerr.StateViolation("event %s in status %s cannot be generated", eventID, event.Status)
	}

	settings, err := c.store.GetGroupSettings(ctx, event.GroupID)
	if err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "loading group settings for %s", event.GroupID)
	}

	participantIDs, err := c.store.GetParticipants(ctx, eventID)
	if err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "loading participants for event %s", eventID)
	}

	players := make([]matchmaking.PlayerInput, 0, len(participantIDs))
	for _, pid := range participantIDs {
		p, err := c.store.GetPlayer(ctx, pid)
		if err != nil {
			return GenerateResponse{}, coreerr.Persistence(err, "loading participant %s", pid)
		}
		players = append(players, matchmaking.PlayerInput{ID: p.ID, Rating: p.Rating, DisplayName: p.DisplayName})
	}

	previousPairs, err := c.previousTeammatePairs(ctx, event)
	if err != nil {
		return GenerateResponse{}, err
	}

	seed := eventID
	if newSeed {
		seed = utils.GenerateUUID()
	}

	gen, err := matchmaking.New(players, event.Courts, event.Rounds, matchmaking.FromGroupSettings(settings), previousPairs, seed)
	if err != nil {
		return GenerateResponse{}, err
	}

	result, genErr := gen.GenerateOrError()

	meta := result.Metadata
	if genErr != nil {
		_ = c.store.UpdateEventStatus(ctx, eventID, event.Status, &meta)
		return GenerateResponse{}, genErr
	}

	if err := c.store.DeleteGamesByEvent(ctx, eventID); err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "clearing prior games for event %s", eventID)
	}
	for i := range result.Games {
		result.Games[i].ID = utils.GenerateUUID()
		result.Games[i].EventID = eventID
	}
	if err := c.store.CreateGames(ctx, eventID, result.Games); err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "persisting generated games for event %s", eventID)
	}
	if err := c.store.UpdateEventStatus(ctx, eventID, models.EventGenerated, &meta); err != nil {
		return GenerateResponse{}, coreerr.Persistence(err, "updating event %s status", eventID)
	}
	event.Status = models.EventGenerated
	event.GenMeta = &meta

	c.cache.Invalidate(ctx, event.GroupID)
	return GenerateResponse{Event: event, Metadata: meta}, nil
}

// previousTeammatePairs loads the teammate pair-set of the most recent
// COMPLETED event in the group, empty if none exists.
func (c *Controller) previousTeammatePairs(ctx context.Context, event models.Event) (map[matchmaking.Pair]bool, error) {
	prev, err := c.store.GetPreviousCompletedEvent(ctx, event.GroupID, event.ID)
	if err != nil {
		return nil, coreerr.Persistence(err, "loading previous completed event for group %s", event.GroupID)
	}
	pairs := map[matchmaking.Pair]bool{}
	if prev == nil {
		return pairs, nil
	}
	games, err := c.store.ListGamesByEvent(ctx, prev.ID)
	if err != nil {
		return nil, coreerr.Persistence(err, "loading games of previous event %s", prev.ID)
	}
	for _, g := range games {
		for _, pair := range g.TeammatePairs() {
			pairs[matchmaking.Pair(pair)] = true
		}
	}
	return pairs, nil
}

// SwapResponse carries the non-blocking warnings a swap produced.
type SwapResponse struct {
	Warnings []string
}

// Swap exchanges two players' positions within a round, either inside a
// single game or across two games. Does not re-validate hard constraints;
// returns warnings instead of blocking. Forbidden on a COMPLETED event.
func (c *Controller) Swap(ctx context.Context, eventID string, roundIndex int, player1, player2 string) (SwapResponse, error) {
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return SwapResponse{}, coreerr.Persistence(err, "loading event %s", eventID)
	}
	if event.Status == models.EventCompleted {
		return SwapResponse{}, coreerr.StateViolation("event %s is COMPLETED; swaps are forbidden", eventID)
	}

	games, err := c.store.ListGamesByEvent(ctx, eventID)
	if err != nil {
		return SwapResponse{}, coreerr.Persistence(err, "loading games for event %s", eventID)
	}

	var g1, g2 *models.Game
	var slot1, slot2 string
	for i := range games {
		g := &games[i]
		if g.RoundIndex != roundIndex {
			continue
		}
		if slot := findSlot(g, player1); slot != "" && g1 == nil {
			g1, slot1 = g, slot
		}
		if slot := findSlot(g, player2); slot != "" && g2 == nil {
			g2, slot2 = g, slot
		}
	}
	if g1 == nil || g2 == nil {
		return SwapResponse{}, coreerr.InputInvalid("both players must appear in round %d of event %s", roundIndex, eventID)
	}

	if err := c.store.SwapPositions(ctx, g1.ID, slot1, g2.ID, slot2); err != nil {
		return SwapResponse{}, coreerr.Persistence(err, "swapping positions in event %s", eventID)
	}

	if event.Status == models.EventGenerated {
		if err := c.store.UpdateEventStatus(ctx, eventID, models.EventInProgress, nil); err != nil {
			return SwapResponse{}, coreerr.Persistence(err, "updating event %s status", eventID)
		}
	}

	settings, err := c.store.GetGroupSettings(ctx, event.GroupID)
	if err != nil {
		return SwapResponse{}, coreerr.Persistence(err, "loading group settings for %s", event.GroupID)
	}
	previousPairs, err := c.previousTeammatePairs(ctx, event)
	if err != nil {
		return SwapResponse{}, err
	}

	after := *g1
	setSlot(&after, slot1, player2)
	warnings := matchmaking.SwapWarnings(matchmaking.FromGroupSettings(settings), previousPairs, &after)

	c.cache.Invalidate(ctx, event.GroupID)
	return SwapResponse{Warnings: warnings}, nil
}

func findSlot(g *models.Game, playerID string) string {
	switch playerID {
	case g.Team1Player1:
		return "team1_player1"
	case g.Team1Player2:
		return "team1_player2"
	case g.Team2Player1:
		return "team2_player1"
	case g.Team2Player2:
		return "team2_player2"
	default:
		return ""
	}
}

func setSlot(g *models.Game, slot, value string) {
	switch slot {
	case "team1_player1":
		g.Team1Player1 = value
	case "team1_player2":
		g.Team1Player2 = value
	case "team2_player1":
		g.Team2Player1 = value
	case "team2_player2":
		g.Team2Player2 = value
	}
}

// UpdateScore sets a game's score. If the event is already COMPLETED, this
// cascades a full-group replay instead of a local stat adjustment.
func (c *Controller) UpdateScore(ctx context.Context, gameID, eventID string, score1, score2 *int) (models.Game, error) {
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.Game{}, coreerr.Persistence(err, "loading event %s", eventID)
	}

	if event.Status == models.EventCompleted {
		release, err := c.locks.Acquire(ctx, event.GroupID)
		if err != nil {
			return models.Game{}, err
		}
		defer release()

		game, err := c.store.UpdateGameScore(ctx, gameID, score1, score2)
		if err != nil {
			return models.Game{}, coreerr.Persistence(err, "updating score for game %s", gameID)
		}
		if _, err := c.replay.Recalculate(ctx, event.GroupID); err != nil {
			return models.Game{}, err
		}
		c.cache.Invalidate(ctx, event.GroupID)
		return game, nil
	}

	game, err := c.store.UpdateGameScore(ctx, gameID, score1, score2)
	if err != nil {
		return models.Game{}, coreerr.Persistence(err, "updating score for game %s", gameID)
	}
	if event.Status == models.EventGenerated {
		if err := c.store.UpdateEventStatus(ctx, eventID, models.EventInProgress, nil); err != nil {
			return models.Game{}, coreerr.Persistence(err, "updating event %s status", eventID)
		}
	}
	c.cache.Invalidate(ctx, event.GroupID)
	return game, nil
}

// CompleteResponse carries the per-player rating updates applied.
type CompleteResponse struct {
	Event   models.Event
	Updates []models.RatingUpdateRecord
}

// Complete runs the active rating engine once over the event's games,
// applies deltas and stat increments, and records the audit trail.
func (c *Controller) Complete(ctx context.Context, eventID string) (CompleteResponse, error) {
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "loading event %s", eventID)
	}

	release, err := c.locks.Acquire(ctx, event.GroupID)
	if err != nil {
		return CompleteResponse{}, err
	}
	defer release()

	if !event.Status.CanTransitionTo(models.EventCompleted) {
		return CompleteResponse{}, coreerr.StateViolation("event %s in status %s cannot be completed", eventID, event.Status)
	}

	settings, err := c.store.GetGroupSettings(ctx, event.GroupID)
	if err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "loading group settings for %s", event.GroupID)
	}

	gamesWithRatings, err := c.store.ListGamesByEventWithRatings(ctx, eventID)
	if err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "loading games for event %s", eventID)
	}

	engine := ratings.NewEngine(settings.RatingSystem, float64(settings.KFactor), settings.EloConst)

	batch := make([]ratings.GameForRating, 0, len(gamesWithRatings))
	currentRatings := map[string]float64{}
	statsTouched := map[string]bool{}
	for _, gwr := range gamesWithRatings {
		g := gwr.Game
		if g.Result == models.ResultUnset {
			continue
		}
		batch = append(batch, toGameForRating(g, gwr.PlayerRatings, gwr.PlayerNames))
		for pid, r := range gwr.PlayerRatings {
			currentRatings[pid] = r
		}
		for _, pid := range g.Players() {
			statsTouched[pid] = true
		}
	}

	deltas := engine.CalculateDeltas(batch, currentRatings)

	var updates []models.RatingUpdateRecord
	for _, pid := range sortedKeys(deltas) {
		d := deltas[pid]
		p, err := c.store.GetPlayer(ctx, pid)
		if err != nil {
			return CompleteResponse{}, coreerr.Persistence(err, "loading player %s", pid)
		}
		p.Rating = d.RatingAfter
		updates = append(updates, models.RatingUpdateRecord{
			ID:           utils.GenerateUUID(),
			EventID:      eventID,
			GroupID:      event.GroupID,
			PlayerID:     pid,
			RatingBefore: d.RatingBefore,
			RatingAfter:  d.RatingAfter,
			Delta:        d.Delta,
			RatingSystem: settings.RatingSystem,
		})
		applyGameOutcomeStats(&p, gamesWithRatings, pid)
		if err := c.store.UpdatePlayerRatingAndStats(ctx, p); err != nil {
			return CompleteResponse{}, coreerr.Persistence(err, "updating player %s", pid)
		}
	}

	if len(updates) > 0 {
		if err := c.store.AppendRatingUpdates(ctx, updates); err != nil {
			return CompleteResponse{}, coreerr.Persistence(err, "appending rating updates for event %s", eventID)
		}
	}

	if err := c.store.UpdateEventStatus(ctx, eventID, models.EventCompleted, event.GenMeta); err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "updating event %s status", eventID)
	}
	event.Status = models.EventCompleted

	c.audit.RecordCompletion(ctx, event, updates)
	c.cache.Invalidate(ctx, event.GroupID)

	return CompleteResponse{Event: event, Updates: updates}, nil
}

// applyGameOutcomeStats increments games/wins/losses/ties for playerID
// across the games it actually appeared in within this event.
func applyGameOutcomeStats(p *models.Player, games []store.GameForEvent, playerID string) {
	for _, gwr := range games {
		g := gwr.Game
		onTeam1 := g.Team1Player1 == playerID || g.Team1Player2 == playerID
		onTeam2 := g.Team2Player1 == playerID || g.Team2Player2 == playerID
		if !onTeam1 && !onTeam2 {
			continue
		}
		p.GamesPlayed++
		switch g.Result {
		case models.ResultTie:
			p.Ties++
		case models.ResultTeam1Win:
			if onTeam1 {
				p.Wins++
			} else {
				p.Losses++
			}
		case models.ResultTeam2Win:
			if onTeam2 {
				p.Wins++
			} else {
				p.Losses++
			}
		}
	}
}

func toGameForRating(g models.Game, playerRatings map[string]float64, playerNames map[string]string) ratings.GameForRating {
	mk := func(id string) ratings.PlayerRating {
		return ratings.PlayerRating{PlayerID: id, Rating: playerRatings[id], DisplayName: playerNames[id]}
	}
	var score1, score2 *float64
	if g.Score1 != nil {
		v := float64(*g.Score1)
		score1 = &v
	}
	if g.Score2 != nil {
		v := float64(*g.Score2)
		score2 = &v
	}
	return ratings.GameForRating{
		Team1:      [2]ratings.PlayerRating{mk(g.Team1Player1), mk(g.Team1Player2)},
		Team2:      [2]ratings.PlayerRating{mk(g.Team2Player1), mk(g.Team2Player2)},
		Result:     g.Result,
		ScoreTeam1: score1,
		ScoreTeam2: score2,
	}
}

// sortedKeys returns deltas' player ids in lexical order. The Engine's own
// insertion order isn't exposed on the map, so callers needing a stable
// write order use lexical order instead; determinism of the *computed values* is
// guaranteed by the engine itself, not by write ordering.
func sortedKeys(deltas map[string]ratings.RatingDelta) []string {
	keys := make([]string, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Delete removes an event. COMPLETED events cannot be deleted.
func (c *Controller) Delete(ctx context.Context, eventID string) error {
	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return coreerr.Persistence(err, "loading event %s", eventID)
	}
	if !event.Status.CanDelete() {
		return coreerr.StateViolation("event %s is COMPLETED and cannot be deleted", eventID)
	}
	if err := c.store.DeleteEvent(ctx, eventID); err != nil {
		return coreerr.Persistence(err, "deleting event %s", eventID)
	}
	c.cache.Invalidate(ctx, event.GroupID)
	return nil
}

// BulkEventInput is one already-parsed historical event a caller-side
// importer (CSV, JSON, whatever) feeds through ImportCompletedEvent. The
// core does not parse any file format itself.
type BulkEventInput struct {
	Name     *string
	StartsAt *time.Time
	Courts   int
	Rounds   int
	Games    []BulkGameInput
}

// BulkGameInput is one already-scored historical game.
type BulkGameInput struct {
	RoundIndex   int
	CourtIndex   int
	Team1Player1 string
	Team1Player2 string
	Team2Player1 string
	Team2Player2 string
	Score1       *int
	Score2       *int
}

// ImportCompletedEvent walks a bulk-loaded historical event straight
// through create -> (games supplied directly, bypassing Generate) ->
// complete, so historical data can be backfilled without ever invoking
// the schedule generator.
func (c *Controller) ImportCompletedEvent(ctx context.Context, groupID string, input BulkEventInput) (CompleteResponse, error) {
	participants := map[string]bool{}
	for _, g := range input.Games {
		participants[g.Team1Player1] = true
		participants[g.Team1Player2] = true
		participants[g.Team2Player1] = true
		participants[g.Team2Player2] = true
	}
	ids := make([]string, 0, len(participants))
	for id := range participants {
		ids = append(ids, id)
	}

	event, err := c.CreateEvent(ctx, groupID, input.Name, input.StartsAt, input.Courts, input.Rounds, ids)
	if err != nil {
		return CompleteResponse{}, err
	}

	games := make([]models.Game, 0, len(input.Games))
	for _, bg := range input.Games {
		games = append(games, models.Game{
			ID:           utils.GenerateUUID(),
			EventID:      event.ID,
			RoundIndex:   bg.RoundIndex,
			CourtIndex:   bg.CourtIndex,
			Team1Player1: bg.Team1Player1,
			Team1Player2: bg.Team1Player2,
			Team2Player1: bg.Team2Player1,
			Team2Player2: bg.Team2Player2,
			Score1:       bg.Score1,
			Score2:       bg.Score2,
			Result:       models.DeriveResult(bg.Score1, bg.Score2),
		})
	}
	if err := c.store.CreateGames(ctx, event.ID, games); err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "persisting imported games for event %s", event.ID)
	}
	if err := c.store.UpdateEventStatus(ctx, event.ID, models.EventGenerated, nil); err != nil {
		return CompleteResponse{}, coreerr.Persistence(err, "updating imported event %s status", event.ID)
	}

	return c.Complete(ctx, event.ID)
}
