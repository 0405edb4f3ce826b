// internal/ratings/catchup.go
// Compressive variant: base ELO delta adjusted by position vs batch median

package ratings

import (
	"sort"

	"matchcore/internal/models"
)

// CatchUpElo compresses rating spread: below-median winners gain more,
// above-median winners gain less, above-median losers lose slightly more.
// Not strictly zero-sum by design. The median is computed over the players
// appearing in the batch, not the full group (see DESIGN.md open question).
type CatchUpElo struct {
	KFactor         float64
	EloConst        float64
	GainBoostMax    float64
	GainReductionMax float64
	LossPenaltyMax  float64
}

func NewCatchUpElo(kFactor, eloConst float64) *CatchUpElo {
	return &CatchUpElo{
		KFactor:          kFactor,
		EloConst:         eloConst,
		GainBoostMax:     0.50,
		GainReductionMax: 0.30,
		LossPenaltyMax:   0.20,
	}
}

func (c *CatchUpElo) CalculateDeltas(games []GameForRating, currentRatings map[string]float64) map[string]RatingDelta {
	tracker := newPlayerTracker()

	for _, game := range games {
		for _, p := range []PlayerRating{game.Team1[0], game.Team1[1], game.Team2[0], game.Team2[1]} {
			tracker.observe(p)
		}
	}

	ratings := make([]float64, 0, len(tracker.order))
	for _, id := range tracker.order {
		ratings = append(ratings, ratingOf(currentRatings, tracker.info[id]))
	}
	median := medianOf(ratings)

	deltas := make(map[string]float64)
	for _, game := range games {
		if game.Result == models.ResultUnset {
			continue
		}

		team1Rating := teamAverage(
			PlayerRating{Rating: ratingOf(currentRatings, game.Team1[0])},
			PlayerRating{Rating: ratingOf(currentRatings, game.Team1[1])},
		)
		team2Rating := teamAverage(
			PlayerRating{Rating: ratingOf(currentRatings, game.Team2[0])},
			PlayerRating{Rating: ratingOf(currentRatings, game.Team2[1])},
		)

		expectedTeam1 := expectedScore(team1Rating, team2Rating, c.EloConst)
		actualTeam1 := actualScore(game.Result, true)
		baseDeltaTeam1 := c.KFactor * (actualTeam1 - expectedTeam1)

		for _, p := range game.Team1 {
			deltas[p.PlayerID] += c.adjustDelta(baseDeltaTeam1, ratingOf(currentRatings, p), median)
		}
		for _, p := range game.Team2 {
			deltas[p.PlayerID] += c.adjustDelta(-baseDeltaTeam1, ratingOf(currentRatings, p), median)
		}
	}

	return buildResult(tracker.order, tracker.info, deltas, currentRatings)
}

// adjustDelta applies the catch-up boost/reduction/penalty based on the
// player's distance from the batch median, clamped to a +/-0.5 ratio.
func (c *CatchUpElo) adjustDelta(baseDelta, playerRating, median float64) float64 {
	if median == 0 {
		return baseDelta
	}

	distanceRatio := (playerRating - median) / median
	if distanceRatio > 0.5 {
		distanceRatio = 0.5
	} else if distanceRatio < -0.5 {
		distanceRatio = -0.5
	}
	absRatio := distanceRatio
	if absRatio < 0 {
		absRatio = -absRatio
	}

	if baseDelta > 0 {
		if playerRating < median {
			boost := c.GainBoostMax * absRatio * 2
			return baseDelta * (1 + boost)
		}
		reduction := c.GainReductionMax * absRatio * 2
		return baseDelta * (1 - reduction)
	}

	if playerRating > median {
		penalty := c.LossPenaltyMax * absRatio * 2
		return baseDelta * (1 + penalty)
	}
	return baseDelta
}

func medianOf(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 1000.0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
