// internal/store/mysqlstore/players.go
// Player roster data access

package mysqlstore

import (
	"context"
	"database/sql"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
)

func getPlayer(ctx context.Context, q querier, playerID string) (models.Player, error) {
	query := `
		SELECT id, group_id, display_name, rating, games_played, wins, losses,
		       ties, membership, skill_tier, created_at, updated_at
		FROM players
		WHERE id = ?
	`
	var p models.Player
	err := q.QueryRowContext(ctx, query, playerID).Scan(
		&p.ID, &p.GroupID, &p.DisplayName, &p.Rating, &p.GamesPlayed,
		&p.Wins, &p.Losses, &p.Ties, &p.Membership, &p.SkillTier,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Player{}, coreerr.NotFound("player %s not found", playerID)
	}
	if err != nil {
		return models.Player{}, err
	}
	return p, nil
}

func listPlayersByGroup(ctx context.Context, q querier, groupID string) ([]models.Player, error) {
	query := `
		SELECT id, group_id, display_name, rating, games_played, wins, losses,
		       ties, membership, skill_tier, created_at, updated_at
		FROM players
		WHERE group_id = ?
		ORDER BY rating DESC
	`
	rows, err := q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(
			&p.ID, &p.GroupID, &p.DisplayName, &p.Rating, &p.GamesPlayed,
			&p.Wins, &p.Losses, &p.Ties, &p.Membership, &p.SkillTier,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func addPlayer(ctx context.Context, q querier, p models.Player) error {
	query := `
		INSERT INTO players (
			id, group_id, display_name, rating, games_played, wins, losses,
			ties, membership, skill_tier, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.GroupID, p.DisplayName, p.Rating, p.GamesPlayed, p.Wins,
		p.Losses, p.Ties, p.Membership, p.SkillTier, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func updatePlayerRatingAndStats(ctx context.Context, q querier, p models.Player) error {
	query := `
		UPDATE players SET
			rating = ?, games_played = ?, wins = ?, losses = ?, ties = ?,
			updated_at = NOW()
		WHERE id = ?
	`
	res, err := q.ExecContext(ctx, query, p.Rating, p.GamesPlayed, p.Wins, p.Losses, p.Ties, p.ID)
	if err != nil {
		return err
	}
	return checkAffected(res, "player %s not found", p.ID)
}

func resetPlayerStats(ctx context.Context, q querier, groupID string, initialRating int) error {
	query := `
		UPDATE players
		SET rating = CASE skill_tier
				WHEN 'ADVANCED' THEN ? + TRUNCATE(100.0 * ? / 1000.0, 0)
				WHEN 'BEGINNER' THEN ? - TRUNCATE(100.0 * ? / 1000.0, 0)
				ELSE ?
			END,
			games_played = 0, wins = 0, losses = 0, ties = 0, updated_at = NOW()
		WHERE group_id = ?
	`
	_, err := q.ExecContext(ctx, query, initialRating, initialRating, initialRating, initialRating, initialRating, groupID)
	return err
}

func checkAffected(res sql.Result, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return coreerr.NotFound(format, args...)
	}
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (models.Player, error) {
	return getPlayer(ctx, s.q(), playerID)
}
func (s *Store) ListPlayersByGroup(ctx context.Context, groupID string) ([]models.Player, error) {
	return listPlayersByGroup(ctx, s.q(), groupID)
}
func (s *Store) AddPlayer(ctx context.Context, p models.Player) error {
	return addPlayer(ctx, s.q(), p)
}
func (s *Store) UpdatePlayerRatingAndStats(ctx context.Context, p models.Player) error {
	return updatePlayerRatingAndStats(ctx, s.q(), p)
}
func (s *Store) ResetPlayerStats(ctx context.Context, groupID string) error {
	gs, err := getGroupSettings(ctx, s.q(), groupID)
	if err != nil {
		return err
	}
	return resetPlayerStats(ctx, s.q(), groupID, gs.InitialRating)
}

func (t *txStore) GetPlayer(ctx context.Context, playerID string) (models.Player, error) {
	return getPlayer(ctx, t.q(), playerID)
}
func (t *txStore) ListPlayersByGroup(ctx context.Context, groupID string) ([]models.Player, error) {
	return listPlayersByGroup(ctx, t.q(), groupID)
}
func (t *txStore) AddPlayer(ctx context.Context, p models.Player) error {
	return addPlayer(ctx, t.q(), p)
}
func (t *txStore) UpdatePlayerRatingAndStats(ctx context.Context, p models.Player) error {
	return updatePlayerRatingAndStats(ctx, t.q(), p)
}
func (t *txStore) ResetPlayerStats(ctx context.Context, groupID string) error {
	gs, err := getGroupSettings(ctx, t.q(), groupID)
	if err != nil {
		return err
	}
	return resetPlayerStats(ctx, t.q(), groupID, gs.InitialRating)
}
