// internal/models/game.go
// Single 2v2 match within an event

package models

// GameResult tags the outcome of a scored game. UNSET means no score has
// been entered yet; rating engines skip UNSET games entirely.
type GameResult string

const (
	ResultTeam1Win GameResult = "TEAM1_WIN"
	ResultTeam2Win GameResult = "TEAM2_WIN"
	ResultTie      GameResult = "TIE"
	ResultUnset    GameResult = "UNSET"
)

// DeriveResult computes the result tag from two optional scores:
// score1 > score2 -> TEAM1_WIN, score1 < score2 -> TEAM2_WIN,
// score1 == score2 -> TIE, either nil -> UNSET.
func DeriveResult(score1, score2 *int) GameResult {
	if score1 == nil || score2 == nil {
		return ResultUnset
	}
	switch {
	case *score1 > *score2:
		return ResultTeam1Win
	case *score1 < *score2:
		return ResultTeam2Win
	default:
		return ResultTie
	}
}

// Game is one 2v2 match within an event.
type Game struct {
	ID         string     `json:"id" db:"id"`
	EventID    string     `json:"event_id" db:"event_id"`
	RoundIndex int        `json:"round_index" db:"round_index"`
	CourtIndex int        `json:"court_index" db:"court_index"`

	Team1Player1 string `json:"team1_player1" db:"team1_player1"`
	Team1Player2 string `json:"team1_player2" db:"team1_player2"`
	Team2Player1 string `json:"team2_player1" db:"team2_player1"`
	Team2Player2 string `json:"team2_player2" db:"team2_player2"`

	Score1 *int       `json:"score1,omitempty" db:"score1"`
	Score2 *int       `json:"score2,omitempty" db:"score2"`
	Result GameResult `json:"result" db:"result"`

	// Team1Elo/Team2Elo are historical snapshots: the mean of the team's
	// players' ratings at the moment the game was rated (either at
	// generation time or, during replay, immediately before that round's
	// deltas were applied). Every replay run rewrites them from that run's
	// per-round ratings.
	Team1Elo float64 `json:"team1_elo" db:"team1_elo"`
	Team2Elo float64 `json:"team2_elo" db:"team2_elo"`

	Swapped bool `json:"swapped" db:"swapped"`
}

// Team1 returns the two team-1 player ids.
func (g *Game) Team1() [2]string { return [2]string{g.Team1Player1, g.Team1Player2} }

// Team2 returns the two team-2 player ids.
func (g *Game) Team2() [2]string { return [2]string{g.Team2Player1, g.Team2Player2} }

// Players returns all four participants of the game.
func (g *Game) Players() [4]string {
	return [4]string{g.Team1Player1, g.Team1Player2, g.Team2Player1, g.Team2Player2}
}

// TeammatePairs returns the two unordered teammate pairs in this game,
// each pair ordered lexicographically for stable set-membership checks.
func (g *Game) TeammatePairs() [2][2]string {
	return [2][2]string{
		orderedPair(g.Team1Player1, g.Team1Player2),
		orderedPair(g.Team2Player1, g.Team2Player2),
	}
}

// OpponentPairs returns the four unordered cross-team pairs in this game.
func (g *Game) OpponentPairs() [4][2]string {
	return [4][2]string{
		orderedPair(g.Team1Player1, g.Team2Player1),
		orderedPair(g.Team1Player1, g.Team2Player2),
		orderedPair(g.Team1Player2, g.Team2Player1),
		orderedPair(g.Team1Player2, g.Team2Player2),
	}
}

func orderedPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
