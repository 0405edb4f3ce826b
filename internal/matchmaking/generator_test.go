package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
)

func allOnConfig() ConstraintConfig {
	return ConstraintConfig{
		NoRepeatTeammateInEvent:           true,
		NoRepeatTeammateFromPreviousEvent: true,
		NoRepeatOpponentInEvent:           true,
		EloDiff:                           0.05,
		AutoRelaxEloDiff:                  true,
		AutoRelaxStep:                     0.01,
		AutoRelaxMaxDiff:                  0.25,
	}
}

func TestGenerator_S1MinimalGeneration(t *testing.T) {
	players := []PlayerInput{{ID: "a", Rating: 1000}, {ID: "b", Rating: 1000}, {ID: "c", Rating: 1000}, {ID: "d", Rating: 1000}}
	g, err := New(players, 1, 1, allOnConfig(), nil, "x")
	require.NoError(t, err)

	res := g.Generate()

	require.True(t, res.Success)
	require.Len(t, res.Games, 1)
	assert.Equal(t, 4, len(res.Games[0].Players()))
}

func TestGenerator_S2OverConstrainedFailsWithoutRelaxation(t *testing.T) {
	players := []PlayerInput{{ID: "a", Rating: 1000}, {ID: "b", Rating: 1000}, {ID: "c", Rating: 1000}, {ID: "d", Rating: 1000}}
	previous := map[Pair]bool{
		makePair("a", "b"): true,
		makePair("a", "c"): true,
		makePair("a", "d"): true,
	}
	config := allOnConfig()
	g, err := New(players, 1, 1, config, previous, "x")
	require.NoError(t, err)

	res := g.Generate()

	require.False(t, res.Success)
	assert.Equal(t, string(coreerr.ConstraintsInfeasible), res.Metadata.FailureReason)
	assert.Equal(t, 0, res.Metadata.RelaxIterations)
}

func TestGenerator_S3RatingForcedRelaxation(t *testing.T) {
	players := make([]PlayerInput, 0, 8)
	base := 800.0
	for i := 0; i < 8; i++ {
		players = append(players, PlayerInput{ID: string(rune('a' + i)), Rating: base})
		base += 90
	}
	config := ConstraintConfig{
		NoRepeatTeammateInEvent:           true,
		NoRepeatTeammateFromPreviousEvent: true,
		NoRepeatOpponentInEvent:           true,
		EloDiff:                           0.01,
		AutoRelaxEloDiff:                  true,
		AutoRelaxStep:                     0.05,
		AutoRelaxMaxDiff:                  0.5,
	}
	g, err := New(players, 2, 2, config, nil, "s3")
	require.NoError(t, err)

	res := g.Generate()

	require.True(t, res.Success)
	assert.Greater(t, res.Metadata.EloDiffUsed, res.Metadata.EloDiffConfigured)
	assert.GreaterOrEqual(t, res.Metadata.RelaxIterations, 1)
}

func TestGenerator_Determinism(t *testing.T) {
	players := []PlayerInput{{ID: "a", Rating: 1000}, {ID: "b", Rating: 1020}, {ID: "c", Rating: 980}, {ID: "d", Rating: 1010}, {ID: "e", Rating: 1005}, {ID: "f", Rating: 995}, {ID: "g", Rating: 1015}, {ID: "h", Rating: 985}}
	config := allOnConfig()

	g1, err := New(players, 2, 2, config, nil, "same-seed")
	require.NoError(t, err)
	g2, err := New(players, 2, 2, config, nil, "same-seed")
	require.NoError(t, err)

	r1 := g1.Generate()
	r2 := g2.Generate()

	require.Equal(t, r1.Success, r2.Success)
	require.Equal(t, r1.Games, r2.Games)
}

func TestGenerator_InvariantsUnderRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		courts := rapid.IntRange(1, 3).Draw(t, "courts")
		rounds := rapid.IntRange(1, 3).Draw(t, "rounds")
		n := courts * 4

		players := make([]PlayerInput, n)
		for i := 0; i < n; i++ {
			rating := rapid.Float64Range(900, 1100).Draw(t, "rating")
			players[i] = PlayerInput{ID: string(rune('A' + i)), Rating: rating}
		}
		seed := rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(t, "seed")

		config := ConstraintConfig{
			NoRepeatTeammateInEvent:           true,
			NoRepeatTeammateFromPreviousEvent: false,
			NoRepeatOpponentInEvent:           true,
			EloDiff:                           0.1,
			AutoRelaxEloDiff:                  true,
			AutoRelaxStep:                     0.05,
			AutoRelaxMaxDiff:                  0.9,
		}

		g, err := New(players, courts, rounds, config, nil, seed)
		if err != nil {
			t.Fatal(err)
		}
		res := g.Generate()
		if !res.Success {
			return
		}

		teammateSeen := map[Pair]bool{}
		opponentCounts := map[Pair]int{}

		byRound := map[int][]models.Game{}
		for _, game := range res.Games {
			byRound[game.RoundIndex] = append(byRound[game.RoundIndex], game)
		}

		for _, roundGames := range byRound {
			seenThisRound := map[string]bool{}
			for _, game := range roundGames {
				for _, p := range game.Players() {
					if seenThisRound[p] {
						t.Fatalf("player %s appears twice in round %d", p, game.RoundIndex)
					}
					seenThisRound[p] = true
				}
			}
			if len(seenThisRound) != n {
				t.Fatalf("round does not cover all %d participants, got %d", n, len(seenThisRound))
			}
		}

		for _, game := range res.Games {
			for _, pair := range game.TeammatePairs() {
				p := makePair(pair[0], pair[1])
				if teammateSeen[p] {
					t.Fatalf("teammate pair %v repeated", p)
				}
				teammateSeen[p] = true
			}
			for _, pair := range game.OpponentPairs() {
				p := makePair(pair[0], pair[1])
				opponentCounts[p]++
				if opponentCounts[p] > 2 {
					t.Fatalf("opponent pair %v exceeded 2 matches", p)
				}
			}
		}
	})
}
