package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matchcore/internal/models"
)

func TestRacsElo_S5ScoreK(t *testing.T) {
	// S5: score1=11, score2=2, team1 wins, all ratings 1000.
	// K = 10*9 = 90; E = 0.5 -> +/-45.0.
	engine := NewRacsElo(100, 0.3)
	score1, score2 := 11.0, 2.0
	games := []GameForRating{{
		Team1:      [2]PlayerRating{{PlayerID: "a", Rating: 1000}, {PlayerID: "b", Rating: 1000}},
		Team2:      [2]PlayerRating{{PlayerID: "c", Rating: 1000}, {PlayerID: "d", Rating: 1000}},
		Result:     models.ResultTeam1Win,
		ScoreTeam1: &score1,
		ScoreTeam2: &score2,
	}}

	deltas := engine.CalculateDeltas(games, nil)

	assert.InDelta(t, 45.0, deltas["a"].Delta, 0.0001)
	assert.InDelta(t, 45.0, deltas["b"].Delta, 0.0001)
	assert.InDelta(t, -45.0, deltas["c"].Delta, 0.0001)
	assert.InDelta(t, -45.0, deltas["d"].Delta, 0.0001)
}

func TestRacsElo_S7TieIsZero(t *testing.T) {
	// S7: tie -> all deltas zero.
	engine := NewRacsElo(100, 0.3)
	games := []GameForRating{{
		Team1:  [2]PlayerRating{{PlayerID: "a", Rating: 1100}, {PlayerID: "b", Rating: 950}},
		Team2:  [2]PlayerRating{{PlayerID: "c", Rating: 1200}, {PlayerID: "d", Rating: 980}},
		Result: models.ResultTie,
	}}

	deltas := engine.CalculateDeltas(games, nil)

	for _, d := range deltas {
		assert.Equal(t, 0.0, d.Delta)
	}
}

func TestRacsElo_FallsBackToKFactorWithoutScores(t *testing.T) {
	engine := NewRacsElo(100, 0.3)
	games := []GameForRating{{
		Team1:  [2]PlayerRating{{PlayerID: "a", Rating: 1000}, {PlayerID: "b", Rating: 1000}},
		Team2:  [2]PlayerRating{{PlayerID: "c", Rating: 1000}, {PlayerID: "d", Rating: 1000}},
		Result: models.ResultTeam1Win,
	}}

	deltas := engine.CalculateDeltas(games, nil)

	assert.InDelta(t, 50.0, deltas["a"].Delta, 0.0001)
	assert.InDelta(t, -50.0, deltas["c"].Delta, 0.0001)
}
