// internal/store/mysqlstore/games.go
// Game data access, including joined-ratings reads and atomic swaps

package mysqlstore

import (
	"context"
	"database/sql"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
	"matchcore/internal/store"
)

func createGames(ctx context.Context, q querier, eventID string, games []models.Game) error {
	query := `
		INSERT INTO games (
			id, event_id, round_index, court_index,
			team1_player1, team1_player2, team2_player1, team2_player2,
			score1, score2, result, team1_elo, team2_elo, swapped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, g := range games {
		g.EventID = eventID
		_, err := q.ExecContext(ctx, query,
			g.ID, g.EventID, g.RoundIndex, g.CourtIndex,
			g.Team1Player1, g.Team1Player2, g.Team2Player1, g.Team2Player2,
			g.Score1, g.Score2, g.Result, g.Team1Elo, g.Team2Elo, g.Swapped,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanGame(row interface {
	Scan(dest ...interface{}) error
}) (models.Game, error) {
	var g models.Game
	err := row.Scan(
		&g.ID, &g.EventID, &g.RoundIndex, &g.CourtIndex,
		&g.Team1Player1, &g.Team1Player2, &g.Team2Player1, &g.Team2Player2,
		&g.Score1, &g.Score2, &g.Result, &g.Team1Elo, &g.Team2Elo, &g.Swapped,
	)
	return g, err
}

const gameColumns = `
	id, event_id, round_index, court_index,
	team1_player1, team1_player2, team2_player1, team2_player2,
	score1, score2, result, team1_elo, team2_elo, swapped
`

func listGamesByEvent(ctx context.Context, q querier, eventID string) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE event_id = ? ORDER BY round_index, court_index`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func listGamesByEventWithRatings(ctx context.Context, q querier, eventID string) ([]store.GameForEvent, error) {
	games, err := listGamesByEvent(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]store.GameForEvent, 0, len(games))
	for _, g := range games {
		ratings := map[string]float64{}
		names := map[string]string{}
		for _, pid := range g.Players() {
			p, err := getPlayer(ctx, q, pid)
			if err != nil {
				return nil, err
			}
			ratings[pid] = p.Rating
			names[pid] = p.DisplayName
		}
		out = append(out, store.GameForEvent{Game: g, PlayerRatings: ratings, PlayerNames: names})
	}
	return out, nil
}

func listGamesByPlayer(ctx context.Context, q querier, playerID string) ([]models.Game, error) {
	query := `
		SELECT ` + gameColumns + ` FROM games
		WHERE team1_player1 = ? OR team1_player2 = ? OR team2_player1 = ? OR team2_player2 = ?
		ORDER BY round_index, court_index
	`
	rows, err := q.QueryContext(ctx, query, playerID, playerID, playerID, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func updateGameScore(ctx context.Context, q querier, gameID string, score1, score2 *int) (models.Game, error) {
	result := models.DeriveResult(score1, score2)
	res, err := q.ExecContext(ctx, `UPDATE games SET score1 = ?, score2 = ?, result = ? WHERE id = ?`, score1, score2, result, gameID)
	if err != nil {
		return models.Game{}, err
	}
	if err := checkAffected(res, "game %s not found", gameID); err != nil {
		return models.Game{}, err
	}
	return scanGame(q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, gameID))
}

func deleteGamesByEvent(ctx context.Context, q querier, eventID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM games WHERE event_id = ?`, eventID)
	return err
}

var gameSlotColumns = map[string]bool{
	"team1_player1": true, "team1_player2": true,
	"team2_player1": true, "team2_player2": true,
}

// swapPositions exchanges the player occupying slot1 of gameID1 with the
// player occupying slot2 of gameID2, marking both games swapped. Column
// names are whitelisted since they're interpolated into the query.
func swapPositions(ctx context.Context, q querier, gameID1, slot1, gameID2, slot2 string) error {
	if !gameSlotColumns[slot1] || !gameSlotColumns[slot2] {
		return coreerr.InputInvalid("unknown game slot")
	}

	var v1, v2 string
	if err := q.QueryRowContext(ctx, `SELECT `+slot1+` FROM games WHERE id = ?`, gameID1).Scan(&v1); err != nil {
		if err == sql.ErrNoRows {
			return coreerr.NotFound("game %s not found", gameID1)
		}
		return err
	}
	if err := q.QueryRowContext(ctx, `SELECT `+slot2+` FROM games WHERE id = ?`, gameID2).Scan(&v2); err != nil {
		if err == sql.ErrNoRows {
			return coreerr.NotFound("game %s not found", gameID2)
		}
		return err
	}

	if _, err := q.ExecContext(ctx, `UPDATE games SET `+slot1+` = ?, swapped = TRUE WHERE id = ?`, v2, gameID1); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `UPDATE games SET `+slot2+` = ?, swapped = TRUE WHERE id = ?`, v1, gameID2)
	return err
}

func updateEloSnapshots(ctx context.Context, q querier, gameID string, team1Elo, team2Elo float64) error {
	res, err := q.ExecContext(ctx, `UPDATE games SET team1_elo = ?, team2_elo = ? WHERE id = ?`, team1Elo, team2Elo, gameID)
	if err != nil {
		return err
	}
	return checkAffected(res, "game %s not found", gameID)
}

func (s *Store) CreateGames(ctx context.Context, eventID string, games []models.Game) error {
	return createGames(ctx, s.q(), eventID, games)
}
func (s *Store) ListGamesByEvent(ctx context.Context, eventID string) ([]models.Game, error) {
	return listGamesByEvent(ctx, s.q(), eventID)
}
func (s *Store) ListGamesByEventWithRatings(ctx context.Context, eventID string) ([]store.GameForEvent, error) {
	return listGamesByEventWithRatings(ctx, s.q(), eventID)
}
func (s *Store) ListGamesByPlayer(ctx context.Context, playerID string) ([]models.Game, error) {
	return listGamesByPlayer(ctx, s.q(), playerID)
}
func (s *Store) UpdateGameScore(ctx context.Context, gameID string, score1, score2 *int) (models.Game, error) {
	return updateGameScore(ctx, s.q(), gameID, score1, score2)
}
func (s *Store) DeleteGamesByEvent(ctx context.Context, eventID string) error {
	return deleteGamesByEvent(ctx, s.q(), eventID)
}
func (s *Store) SwapPositions(ctx context.Context, gameID1, slot1, gameID2, slot2 string) error {
	return swapPositions(ctx, s.q(), gameID1, slot1, gameID2, slot2)
}
func (s *Store) UpdateEloSnapshots(ctx context.Context, gameID string, team1Elo, team2Elo float64) error {
	return updateEloSnapshots(ctx, s.q(), gameID, team1Elo, team2Elo)
}

func (t *txStore) CreateGames(ctx context.Context, eventID string, games []models.Game) error {
	return createGames(ctx, t.q(), eventID, games)
}
func (t *txStore) ListGamesByEvent(ctx context.Context, eventID string) ([]models.Game, error) {
	return listGamesByEvent(ctx, t.q(), eventID)
}
func (t *txStore) ListGamesByEventWithRatings(ctx context.Context, eventID string) ([]store.GameForEvent, error) {
	return listGamesByEventWithRatings(ctx, t.q(), eventID)
}
func (t *txStore) ListGamesByPlayer(ctx context.Context, playerID string) ([]models.Game, error) {
	return listGamesByPlayer(ctx, t.q(), playerID)
}
func (t *txStore) UpdateGameScore(ctx context.Context, gameID string, score1, score2 *int) (models.Game, error) {
	return updateGameScore(ctx, t.q(), gameID, score1, score2)
}
func (t *txStore) DeleteGamesByEvent(ctx context.Context, eventID string) error {
	return deleteGamesByEvent(ctx, t.q(), eventID)
}
func (t *txStore) SwapPositions(ctx context.Context, gameID1, slot1, gameID2, slot2 string) error {
	return swapPositions(ctx, t.q(), gameID1, slot1, gameID2, slot2)
}
func (t *txStore) UpdateEloSnapshots(ctx context.Context, gameID string, team1Elo, team2Elo float64) error {
	return updateEloSnapshots(ctx, t.q(), gameID, team1Elo, team2Elo)
}
