// internal/ratings/serious.go
// Standard team-average ELO

package ratings

import "matchcore/internal/models"

// SeriousElo is the standard competitive ELO variant: team rating is the
// average of both players, and each player on a team receives the same
// delta. Zero-sum per game.
type SeriousElo struct {
	KFactor  float64
	EloConst float64
}

func NewSeriousElo(kFactor, eloConst float64) *SeriousElo {
	return &SeriousElo{KFactor: kFactor, EloConst: eloConst}
}

func (s *SeriousElo) CalculateDeltas(games []GameForRating, currentRatings map[string]float64) map[string]RatingDelta {
	tracker := newPlayerTracker()
	deltas := make(map[string]float64)

	for _, game := range games {
		if game.Result == models.ResultUnset {
			continue
		}
		for _, p := range []PlayerRating{game.Team1[0], game.Team1[1], game.Team2[0], game.Team2[1]} {
			tracker.observe(p)
		}

		team1Rating := teamAverage(
			PlayerRating{PlayerID: game.Team1[0].PlayerID, Rating: ratingOf(currentRatings, game.Team1[0])},
			PlayerRating{PlayerID: game.Team1[1].PlayerID, Rating: ratingOf(currentRatings, game.Team1[1])},
		)
		team2Rating := teamAverage(
			PlayerRating{PlayerID: game.Team2[0].PlayerID, Rating: ratingOf(currentRatings, game.Team2[0])},
			PlayerRating{PlayerID: game.Team2[1].PlayerID, Rating: ratingOf(currentRatings, game.Team2[1])},
		)

		expectedTeam1 := expectedScore(team1Rating, team2Rating, s.EloConst)
		actualTeam1 := actualScore(game.Result, true)

		deltaTeam1 := s.KFactor * (actualTeam1 - expectedTeam1)
		deltaTeam2 := -deltaTeam1

		deltas[game.Team1[0].PlayerID] += deltaTeam1
		deltas[game.Team1[1].PlayerID] += deltaTeam1
		deltas[game.Team2[0].PlayerID] += deltaTeam2
		deltas[game.Team2[1].PlayerID] += deltaTeam2
	}

	return buildResult(tracker.order, tracker.info, deltas, currentRatings)
}
