// internal/replay/orchestrator.go
// Full-history replay: resets a group's ratings and stats, then streams
// every COMPLETED event back through round-by-round, snapshotting team
// ELOs before applying each round's deltas.

package replay

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"matchcore/internal/audit"
	"matchcore/internal/coreerr"
	"matchcore/internal/models"
	"matchcore/internal/ratings"
	"matchcore/internal/store"
	"matchcore/internal/utils"
)

// Orchestrator recomputes a group's entire rating history from scratch.
type Orchestrator struct {
	store  store.Port
	audit  *audit.Sink
	logger *logrus.Entry
}

func New(s store.Port, sink *audit.Sink, logger *logrus.Entry) *Orchestrator {
	return &Orchestrator{store: s, audit: sink, logger: logger}
}

// PlayerRatingSummary is one line of the top-5 final-ratings summary.
type PlayerRatingSummary struct {
	PlayerID    string
	DisplayName string
	Rating      float64
}

// Summary reports how much work a recalculate run did.
type Summary struct {
	EventsProcessed int
	PlayersUpdated  int
	TopFinal        []PlayerRatingSummary
}

// Recalculate resets every player's rating to their per-skill-tier initial
// value, zeroes cumulative stats, deletes every rating-update record in
// the group, and streams all COMPLETED events in (starts_at, created_at)
// order, round by round, reapplying the engine. A corrupt single event is
// logged and skipped; the orchestrator continues with the rest.
func (o *Orchestrator) Recalculate(ctx context.Context, groupID string) (Summary, error) {
	settings, err := o.store.GetGroupSettings(ctx, groupID)
	if err != nil {
		return Summary{}, coreerr.Persistence(err, "loading group settings for %s", groupID)
	}

	players, err := o.store.ListPlayersByGroup(ctx, groupID)
	if err != nil {
		return Summary{}, coreerr.Persistence(err, "loading players for group %s", groupID)
	}

	currentRatings := make(map[string]float64, len(players))
	displayNames := make(map[string]string, len(players))
	liveStats := make(map[string]*models.Player, len(players))
	for i := range players {
		p := players[i]
		p.ResetStats(models.InitialRating(settings.InitialRating, p.SkillTier))
		currentRatings[p.ID] = p.Rating
		displayNames[p.ID] = p.DisplayName
		liveStats[p.ID] = &p
	}

	if err := o.store.DeleteAllForGroup(ctx, groupID); err != nil {
		return Summary{}, coreerr.Persistence(err, "clearing rating updates for group %s", groupID)
	}

	events, err := o.store.ListCompletedEventsOrdered(ctx, groupID)
	if err != nil {
		return Summary{}, coreerr.Persistence(err, "listing completed events for group %s", groupID)
	}

	engine := ratings.NewEngine(settings.RatingSystem, float64(settings.KFactor), settings.EloConst)

	processed := 0
	for _, event := range events {
		if err := o.replayEvent(ctx, event, settings.RatingSystem, engine, currentRatings, displayNames, liveStats); err != nil {
			o.logger.WithError(err).WithField("event_id", event.ID).Warn("skipping corrupt event during replay")
			continue
		}
		processed++
	}

	touched := 0
	for _, p := range liveStats {
		if err := o.store.UpdatePlayerRatingAndStats(ctx, *p); err != nil {
			return Summary{}, coreerr.Persistence(err, "writing back final rating for player %s", p.ID)
		}
		touched++
	}

	summary := Summary{EventsProcessed: processed, PlayersUpdated: touched, TopFinal: topFive(liveStats)}
	o.audit.RecordReplay(ctx, groupID, summary.EventsProcessed, summary.PlayersUpdated)
	return summary, nil
}

// replayEvent runs one event's rounds in order, snapshotting each round's
// team ELOs before applying its deltas, and accumulates rating-update
// records (delta != 0 only) to write once the event is done.
func (o *Orchestrator) replayEvent(ctx context.Context, event models.Event, system models.RatingSystem, engine ratings.Engine, currentRatings map[string]float64, displayNames map[string]string, liveStats map[string]*models.Player) error {
	games, err := o.store.ListGamesByEvent(ctx, event.ID)
	if err != nil {
		return coreerr.Persistence(err, "loading games for event %s", event.ID)
	}

	ratingBefore := map[string]float64{}
	touch := func(id string) {
		if _, ok := ratingBefore[id]; !ok {
			ratingBefore[id] = currentRatings[id]
		}
	}
	for _, g := range games {
		for _, pid := range g.Players() {
			touch(pid)
		}
	}

	rounds := groupByRound(games)
	roundIndexes := make([]int, 0, len(rounds))
	for idx := range rounds {
		roundIndexes = append(roundIndexes, idx)
	}
	sort.Ints(roundIndexes)

	for _, idx := range roundIndexes {
		roundGames := rounds[idx]

		for i := range roundGames {
			g := &roundGames[i]
			g.Team1Elo = (currentRatings[g.Team1Player1] + currentRatings[g.Team1Player2]) / 2
			g.Team2Elo = (currentRatings[g.Team2Player1] + currentRatings[g.Team2Player2]) / 2
			if err := o.store.UpdateEloSnapshots(ctx, g.ID, g.Team1Elo, g.Team2Elo); err != nil {
				return coreerr.Persistence(err, "writing elo snapshot for game %s", g.ID)
			}
		}

		batch := make([]ratings.GameForRating, 0, len(roundGames))
		for _, g := range roundGames {
			if g.Result == models.ResultUnset {
				continue
			}
			batch = append(batch, toGameForRating(g, currentRatings, displayNames))
		}
		if len(batch) == 0 {
			continue
		}

		deltas := engine.CalculateDeltas(batch, currentRatings)
		for pid, d := range deltas {
			currentRatings[pid] = d.RatingAfter
		}

		for _, g := range roundGames {
			if g.Result == models.ResultUnset {
				continue
			}
			for _, pid := range g.Players() {
				p, ok := liveStats[pid]
				if !ok {
					continue
				}
				p.GamesPlayed++
				switch {
				case g.Result == models.ResultTie:
					p.Ties++
				case g.Result == models.ResultTeam1Win && (pid == g.Team1Player1 || pid == g.Team1Player2):
					p.Wins++
				case g.Result == models.ResultTeam2Win && (pid == g.Team2Player1 || pid == g.Team2Player2):
					p.Wins++
				default:
					p.Losses++
				}
			}
		}
	}

	var updates []models.RatingUpdateRecord
	for pid, before := range ratingBefore {
		after := currentRatings[pid]
		delta := after - before
		if delta == 0 {
			continue
		}
		updates = append(updates, models.RatingUpdateRecord{
			ID:           utils.GenerateUUID(),
			EventID:      event.ID,
			GroupID:      event.GroupID,
			PlayerID:     pid,
			RatingBefore: before,
			RatingAfter:  after,
			Delta:        delta,
			RatingSystem: system,
		})
	}
	if len(updates) > 0 {
		if err := o.store.AppendRatingUpdates(ctx, updates); err != nil {
			return coreerr.Persistence(err, "appending replay rating updates for event %s", event.ID)
		}
	}

	for pid, r := range currentRatings {
		if p, ok := liveStats[pid]; ok {
			p.Rating = r
		}
	}

	return nil
}

func groupByRound(games []models.Game) map[int][]models.Game {
	out := map[int][]models.Game{}
	for _, g := range games {
		out[g.RoundIndex] = append(out[g.RoundIndex], g)
	}
	return out
}

func toGameForRating(g models.Game, currentRatings map[string]float64, displayNames map[string]string) ratings.GameForRating {
	mk := func(id string) ratings.PlayerRating {
		return ratings.PlayerRating{PlayerID: id, Rating: currentRatings[id], DisplayName: displayNames[id]}
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

func topFive(liveStats map[string]*models.Player) []PlayerRatingSummary {
	out := make([]PlayerRatingSummary, 0, len(liveStats))
	for id, p := range liveStats {
		out = append(out, PlayerRatingSummary{PlayerID: id, DisplayName: p.DisplayName, Rating: p.Rating})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
