// internal/ratings/racs.go
// Individual-vs-opponent-mean ELO with score-proportional K-factor

package ratings

import "matchcore/internal/models"

// RacsElo computes each player's expected score against the opponent
// team's average rating individually, with a dynamic K-factor scaled by
// the game's score blowout (falling back to KFactor when scores are
// absent). Ties produce zero change for every player.
type RacsElo struct {
	KFactor  float64
	EloConst float64
}

func NewRacsElo(kFactor, eloConst float64) *RacsElo {
	return &RacsElo{KFactor: kFactor, EloConst: eloConst}
}

func (r *RacsElo) CalculateDeltas(games []GameForRating, currentRatings map[string]float64) map[string]RatingDelta {
	tracker := newPlayerTracker()
	deltas := make(map[string]float64)

	for _, game := range games {
		if game.Result == models.ResultUnset {
			continue
		}
		for _, p := range []PlayerRating{game.Team1[0], game.Team1[1], game.Team2[0], game.Team2[1]} {
			tracker.observe(p)
		}

		p1, p2 := game.Team1[0], game.Team1[1]
		p3, p4 := game.Team2[0], game.Team2[1]

		r1, r2 := ratingOf(currentRatings, p1), ratingOf(currentRatings, p2)
		r3, r4 := ratingOf(currentRatings, p3), ratingOf(currentRatings, p4)

		team1Avg := (r1 + r2) / 2
		team2Avg := (r3 + r4) / 2

		e1 := r.calcExpected(r1, team2Avg)
		e2 := r.calcExpected(r2, team2Avg)
		e3 := r.calcExpected(r3, team1Avg)
		e4 := r.calcExpected(r4, team1Avg)

		var kConst float64
		if game.ScoreTeam1 != nil && game.ScoreTeam2 != nil {
			diff := *game.ScoreTeam1 - *game.ScoreTeam2
			if diff < 0 {
				diff = -diff
			}
			kConst = 10 * diff
		} else {
			kConst = r.KFactor
		}

		switch game.Result {
		case models.ResultTeam1Win:
			deltas[p1.PlayerID] += kConst * e1
			deltas[p2.PlayerID] += kConst * e2
			deltas[p3.PlayerID] += kConst * (-1 + e3)
			deltas[p4.PlayerID] += kConst * (-1 + e4)
		case models.ResultTeam2Win:
			deltas[p1.PlayerID] += kConst * (-1 + e1)
			deltas[p2.PlayerID] += kConst * (-1 + e2)
			deltas[p3.PlayerID] += kConst * e3
			deltas[p4.PlayerID] += kConst * e4
		case models.ResultTie:
			// no change
		}
	}

	return buildResult(tracker.order, tracker.info, deltas, currentRatings)
}

// calcExpected is Rac's individual expected-score formula:
// E = 1 / (1 + 10^((playerRating - opponentAvg) / (playerRating * eloConst))).
// Guards playerRating == 0 with E = 0.5.
func (r *RacsElo) calcExpected(playerRating, opponentAvg float64) float64 {
	if playerRating == 0 {
		return 0.5
	}
	exponent := (playerRating - opponentAvg) / (playerRating * r.EloConst)
	return 1.0 / (1.0 + pow10(exponent))
}
