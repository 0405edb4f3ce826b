// internal/matchmaking/generator.go
// Constrained round-robin schedule generator: two-phase candidate-pool
// build plus per-round greedy packing with iterative rating relaxation.

package matchmaking

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
)

const (
	// MaxAttempts bounds the overall relax-iteration loop; in practice the
	// auto_relax_max_elo_diff/auto_relax_step ratio is reached first.
	MaxAttempts = 1000
	// MaxRoundAttempts bounds reshuffle attempts per round before the
	// generator gives up on the current elo_diff_used.
	MaxRoundAttempts = 100
)

// PlayerInput is one participant supplied to the generator.
type PlayerInput struct {
	ID          string
	Rating      float64
	DisplayName string
}

// Generator produces a schedule of rounds x courts games satisfying the
// configured constraints, relaxing rating tolerance on rating-bound
// failures only.
type Generator struct {
	players               map[string]PlayerInput
	playerOrder           []string
	courts                int
	rounds                int
	config                ConstraintConfig
	previousTeammatePairs map[Pair]bool
	seed                  string
}

// New builds a Generator. Returns InputInvalid if the participant count
// does not equal 4*courts.
func New(players []PlayerInput, courts, rounds int, config ConstraintConfig, previousTeammatePairs map[Pair]bool, seed string) (*Generator, error) {
	if len(players) != courts*4 {
		return nil, coreerr.InputInvalid("number of players (%d) must equal courts*4 (%d)", len(players), courts*4)
	}
	g := &Generator{
		players:               make(map[string]PlayerInput, len(players)),
		playerOrder:           make([]string, 0, len(players)),
		courts:                courts,
		rounds:                rounds,
		config:                config,
		previousTeammatePairs: previousTeammatePairs,
		seed:                  seed,
	}
	for _, p := range players {
		g.players[p.ID] = p
		g.playerOrder = append(g.playerOrder, p.ID)
	}
	return g, nil
}

// Result is the outcome of one generation attempt.
type Result struct {
	Success  bool
	Games    []models.Game
	Metadata models.GenerationMetadata
}

// Generate runs the two-phase candidate-pool + per-round packing algorithm,
// widening elo_diff_used on rating-bound failures up to
// auto_relax_max_elo_diff, and failing immediately (no relaxation) on
// hard-constraint-bound failures.
func (g *Generator) Generate() Result {
	start := time.Now()
	attempts := 0
	relaxIterations := 0
	eloDiffUsed := g.config.EloDiff

	for attempts < MaxAttempts {
		rng := newSeededRNG(g.seed, relaxIterations)

		games, failureReason := g.tryGenerate(rng, eloDiffUsed)
		attempts++

		if failureReason == "" {
			return Result{
				Success: true,
				Games:   games,
				Metadata: models.GenerationMetadata{
					Seed:              g.seed,
					EloDiffConfigured: g.config.EloDiff,
					EloDiffUsed:       eloDiffUsed,
					RelaxIterations:   relaxIterations,
					Attempts:          attempts,
					DurationMs:        models.DurationSince(start),
					Constraints:       g.config.toggles(),
					Success:           true,
				},
			}
		}

		if g.config.AutoRelaxEloDiff && failureReason == "rating" {
			eloDiffUsed += g.config.AutoRelaxStep
			relaxIterations++

			if eloDiffUsed > g.config.AutoRelaxMaxDiff {
				return Result{
					Success: false,
					Metadata: models.GenerationMetadata{
						Seed:              g.seed,
						EloDiffConfigured: g.config.EloDiff,
						EloDiffUsed:       eloDiffUsed,
						RelaxIterations:   relaxIterations,
						Attempts:          attempts,
						DurationMs:        models.DurationSince(start),
						Constraints:       g.config.toggles(),
						Success:           false,
						FailureReason:     string(coreerr.RatingInfeasible),
					},
				}
			}
			continue
		}

		// Hard-constraint-bound failure, or relaxation disabled: fail now.
		subtype := coreerr.ConstraintsInfeasible
		if failureReason == "rating" {
			subtype = coreerr.RatingInfeasible
		}
		return Result{
			Success: false,
			Metadata: models.GenerationMetadata{
				Seed:              g.seed,
				EloDiffConfigured: g.config.EloDiff,
				EloDiffUsed:       eloDiffUsed,
				RelaxIterations:   relaxIterations,
				Attempts:          attempts,
				DurationMs:        models.DurationSince(start),
				Constraints:       g.config.toggles(),
				Success:           false,
				FailureReason:     string(subtype),
			},
		}
	}

	return Result{
		Success: false,
		Metadata: models.GenerationMetadata{
			Seed:              g.seed,
			EloDiffConfigured: g.config.EloDiff,
			EloDiffUsed:       eloDiffUsed,
			RelaxIterations:   relaxIterations,
			Attempts:          attempts,
			DurationMs:        models.DurationSince(start),
			Constraints:       g.config.toggles(),
			Success:           false,
			FailureReason:     string(coreerr.RatingInfeasible),
		},
	}
}

// GenerateOrError runs Generate and translates a failed result into a
// *coreerr.Error, the form the Lifecycle Controller consumes directly.
func (g *Generator) GenerateOrError() (Result, error) {
	res := g.Generate()
	if res.Success {
		return res, nil
	}
	subtype := coreerr.MatchmakingSubtype(res.Metadata.FailureReason)
	if subtype == "" {
		subtype = coreerr.ConstraintsInfeasible
	}
	return res, coreerr.Matchmaking(subtype, "could not generate schedule (elo_diff_used=%.4f, attempts=%d)", res.Metadata.EloDiffUsed, res.Metadata.Attempts)
}

// tryGenerate attempts one full schedule at the given elo_diff_used.
// Returns failureReason "" on success, "rating" if the candidate pool
// itself came back empty, or "hard_constraints" if a round couldn't be
// packed despite a non-empty pool.
func (g *Generator) tryGenerate(rng *rand.Rand, eloDiff float64) ([]models.Game, string) {
	pool := g.buildCandidatePool(eloDiff)
	if len(pool) == 0 {
		return nil, "rating"
	}

	var allGames []models.Game
	eventTeammatePairs := map[Pair]bool{}
	eventOpponentCounts := map[Pair]int{}

	checker := newChecker(g.config, g.previousTeammatePairs)

	for round := 0; round < g.rounds; round++ {
		roundGames, ok := g.selectRoundMatches(rng, checker, round, pool, eventTeammatePairs, eventOpponentCounts)
		if !ok {
			return nil, "hard_constraints"
		}
		for _, m := range roundGames {
			for _, pair := range m.teammatePairs() {
				eventTeammatePairs[pair] = true
			}
			for _, pair := range m.opponentPairs() {
				eventOpponentCounts[pair]++
			}
		}
		for court, m := range roundGames {
			allGames = append(allGames, g.toGame(round, court, m))
		}
	}

	return allGames, ""
}

// buildCandidatePool enumerates all disjoint team1/team2 pairings whose
// team-mean ratings are balanced within eloDiff.
func (g *Generator) buildCandidatePool(eloDiff float64) []candidateMatch {
	pairs := g.allPlayerPairs()
	checker := newChecker(g.config, g.previousTeammatePairs)

	var pool []candidateMatch
	for i, team1 := range pairs {
		for j, team2 := range pairs {
			if i == j {
				continue
			}
			if team1[0] == team2[0] || team1[0] == team2[1] || team1[1] == team2[0] || team1[1] == team2[1] {
				continue
			}
			t1r := (g.players[team1[0]].Rating + g.players[team1[1]].Rating) / 2
			t2r := (g.players[team2[0]].Rating + g.players[team2[1]].Rating) / 2
			if checker.ratingBalanced(t1r, t2r, eloDiff) {
				pool = append(pool, candidateMatch{team1: team1, team2: team2})
			}
		}
	}
	return pool
}

func (g *Generator) allPlayerPairs() [][2]string {
	var pairs [][2]string
	for i := 0; i < len(g.playerOrder); i++ {
		for j := i + 1; j < len(g.playerOrder); j++ {
			pairs = append(pairs, [2]string{g.playerOrder[i], g.playerOrder[j]})
		}
	}
	return pairs
}

// selectRoundMatches repeatedly shuffles the candidate pool and greedily
// walks it, admitting a candidate if its players are unused this round and
// it doesn't violate the hard constraints, until courts games are filled.
func (g *Generator) selectRoundMatches(rng *rand.Rand, c *checker, round int, pool []candidateMatch, eventTeammatePairs map[Pair]bool, eventOpponentCounts map[Pair]int) ([]candidateMatch, bool) {
	for attempt := 0; attempt < MaxRoundAttempts; attempt++ {
		shuffled := make([]candidateMatch, len(pool))
		copy(shuffled, pool)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		var selected []candidateMatch
		usedPlayers := map[string]bool{}
		roundTeammatePairs := map[Pair]bool{}
		roundOpponentCounts := map[Pair]int{}

		for _, m := range shuffled {
			players := m.players()
			overlap := false
			for _, p := range players {
				if usedPlayers[p] {
					overlap = true
					break
				}
			}
			if overlap {
				continue
			}

			combinedTeammates := unionPairs(eventTeammatePairs, roundTeammatePairs)
			combinedOpponents := sumCounts(eventOpponentCounts, roundOpponentCounts)

			if !c.hardConstraintsOK(m, combinedTeammates, combinedOpponents) {
				continue
			}

			selected = append(selected, m)
			for _, p := range players {
				usedPlayers[p] = true
			}
			for _, pair := range m.teammatePairs() {
				roundTeammatePairs[pair] = true
			}
			for _, pair := range m.opponentPairs() {
				roundOpponentCounts[pair]++
			}

			if len(selected) == g.courts {
				return selected, true
			}
		}
	}
	return nil, false
}

func (g *Generator) toGame(round, court int, m candidateMatch) models.Game {
	p1 := g.players[m.team1[0]]
	p2 := g.players[m.team1[1]]
	p3 := g.players[m.team2[0]]
	p4 := g.players[m.team2[1]]
	return models.Game{
		RoundIndex:   round,
		CourtIndex:   court,
		Team1Player1: p1.ID,
		Team1Player2: p2.ID,
		Team2Player1: p3.ID,
		Team2Player2: p4.ID,
		Result:       models.ResultUnset,
		Team1Elo:     (p1.Rating + p2.Rating) / 2,
		Team2Elo:     (p3.Rating + p4.Rating) / 2,
	}
}

func unionPairs(a, b map[Pair]bool) map[Pair]bool {
	out := make(map[Pair]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func sumCounts(a, b map[Pair]int) map[Pair]int {
	out := make(map[Pair]int, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

// newSeededRNG derives a deterministic PRNG from (seed, relaxIteration)
// via FNV-1a, reseeding at the start of every relax iteration so
// relaxations remain reproducible across runs, not just within a process
// (unlike hash/maphash, whose seed is randomized per process).
func newSeededRNG(seed string, relaxIteration int) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	h.Write([]byte{'_'})
	h.Write([]byte{byte(relaxIteration), byte(relaxIteration >> 8), byte(relaxIteration >> 16), byte(relaxIteration >> 24)})
	s1 := h.Sum64()
	h.Write([]byte{'#'})
	s2 := h.Sum64()
	return rand.New(rand.NewPCG(s1, s2))
}
