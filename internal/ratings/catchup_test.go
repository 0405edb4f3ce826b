package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matchcore/internal/models"
)

func TestCatchUpElo_CompressesSpreadWhenUnderdogWins(t *testing.T) {
	// Property 6: on a strictly-ordered population where the underdog team
	// wins, the spread (max-min) after applying deltas should shrink.
	engine := NewCatchUpElo(32, 400.0)
	ratings := map[string]float64{"a": 1400, "b": 1350, "c": 900, "d": 850}
	games := []GameForRating{{
		Team1:  [2]PlayerRating{{PlayerID: "c", Rating: ratings["c"]}, {PlayerID: "d", Rating: ratings["d"]}},
		Team2:  [2]PlayerRating{{PlayerID: "a", Rating: ratings["a"]}, {PlayerID: "b", Rating: ratings["b"]}},
		Result: models.ResultTeam1Win,
	}}

	before := spread(ratings)
	deltas := engine.CalculateDeltas(games, ratings)

	after := map[string]float64{}
	for id, r := range ratings {
		after[id] = r + deltas[id].Delta
	}

	assert.Less(t, spread(after), before)
}

func TestCatchUpElo_NotStrictlyZeroSum(t *testing.T) {
	engine := NewCatchUpElo(32, 400.0)
	ratings := map[string]float64{"a": 1400, "b": 1350, "c": 900, "d": 850}
	games := []GameForRating{{
		Team1:  [2]PlayerRating{{PlayerID: "c", Rating: ratings["c"]}, {PlayerID: "d", Rating: ratings["d"]}},
		Team2:  [2]PlayerRating{{PlayerID: "a", Rating: ratings["a"]}, {PlayerID: "b", Rating: ratings["b"]}},
		Result: models.ResultTeam1Win,
	}}

	deltas := engine.CalculateDeltas(games, ratings)

	sum := deltas["a"].Delta + deltas["b"].Delta + deltas["c"].Delta + deltas["d"].Delta
	assert.NotEqual(t, 0.0, sum)
}

func spread(ratings map[string]float64) float64 {
	min, max := 0.0, 0.0
	first := true
	for _, r := range ratings {
		if first {
			min, max = r, r
			first = false
			continue
		}
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	return max - min
}
