package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/models"
)

func mkGame(t1p1, t1p2, t2p1, t2p2 string, rating float64, result models.GameResult) GameForRating {
	return GameForRating{
		Team1:  [2]PlayerRating{{PlayerID: t1p1, Rating: rating}, {PlayerID: t1p2, Rating: rating}},
		Team2:  [2]PlayerRating{{PlayerID: t2p1, Rating: rating}, {PlayerID: t2p2, Rating: rating}},
		Result: result,
	}
}

func TestSeriousElo_S4NumericExample(t *testing.T) {
	// S4: four players at 1000, k=32, team1 wins -> +16/+16/-16/-16 exactly.
	engine := NewSeriousElo(32, 400.0)
	games := []GameForRating{mkGame("a", "b", "c", "d", 1000, models.ResultTeam1Win)}

	deltas := engine.CalculateDeltas(games, nil)

	require.Len(t, deltas, 4)
	assert.InDelta(t, 16.0, deltas["a"].Delta, 0.0001)
	assert.InDelta(t, 16.0, deltas["b"].Delta, 0.0001)
	assert.InDelta(t, -16.0, deltas["c"].Delta, 0.0001)
	assert.InDelta(t, -16.0, deltas["d"].Delta, 0.0001)
}

func TestSeriousElo_ZeroSumPerGame(t *testing.T) {
	// Property 5: sum of deltas is zero per game, within float epsilon.
	engine := NewSeriousElo(32, 400.0)
	ratings := map[string]float64{"a": 1100, "b": 980, "c": 1250, "d": 1005}
	games := []GameForRating{{
		Team1:  [2]PlayerRating{{PlayerID: "a", Rating: ratings["a"]}, {PlayerID: "b", Rating: ratings["b"]}},
		Team2:  [2]PlayerRating{{PlayerID: "c", Rating: ratings["c"]}, {PlayerID: "d", Rating: ratings["d"]}},
		Result: models.ResultTeam2Win,
	}}

	deltas := engine.CalculateDeltas(games, ratings)

	sum := deltas["a"].Delta + deltas["b"].Delta + deltas["c"].Delta + deltas["d"].Delta
	assert.InDelta(t, 0.0, sum, 0.0001)
}

func TestSeriousElo_SkipsUnsetGames(t *testing.T) {
	engine := NewSeriousElo(32, 400.0)
	games := []GameForRating{mkGame("a", "b", "c", "d", 1000, models.ResultUnset)}

	deltas := engine.CalculateDeltas(games, nil)

	assert.Empty(t, deltas)
}

func TestSeriousElo_TieProducesNoNetChange(t *testing.T) {
	engine := NewSeriousElo(32, 400.0)
	games := []GameForRating{mkGame("a", "b", "c", "d", 1000, models.ResultTie)}

	deltas := engine.CalculateDeltas(games, nil)

	for _, d := range deltas {
		assert.InDelta(t, 0.0, d.Delta, 0.0001)
	}
}
