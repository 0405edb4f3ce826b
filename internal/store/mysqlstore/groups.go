// internal/store/mysqlstore/groups.go
// Group settings data access

package mysqlstore

import (
	"context"
	"database/sql"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
)

func getGroupSettings(ctx context.Context, q querier, groupID string) (models.GroupSettings, error) {
	query := `
		SELECT group_id, rating_system, initial_rating, k_factor, elo_const,
		       constraints, elo_diff, auto_relax_elo_diff, auto_relax_step,
		       auto_relax_max_elo_diff
		FROM group_settings
		WHERE group_id = ?
	`
	var gs models.GroupSettings
	err := q.QueryRowContext(ctx, query, groupID).Scan(
		&gs.GroupID,
		&gs.RatingSystem,
		&gs.InitialRating,
		&gs.KFactor,
		&gs.EloConst,
		&gs.Constraints,
		&gs.EloDiff,
		&gs.AutoRelaxEloDiff,
		&gs.AutoRelaxStep,
		&gs.AutoRelaxMaxDiff,
	)
	if err == sql.ErrNoRows {
		return models.GroupSettings{}, coreerr.NotFound("group settings %s not found", groupID)
	}
	if err != nil {
		return models.GroupSettings{}, err
	}
	return gs, nil
}

func setGroupArchived(ctx context.Context, q querier, groupID string, archived bool) error {
	_, err := q.ExecContext(ctx, `UPDATE group_settings SET archived = ? WHERE group_id = ?`, archived, groupID)
	return err
}

// seedGroupSettings installs a group's settings row, used by cmd/demo to
// provision a group ahead of a create/generate/complete/recalculate run
// without a caller-side group-management surface (out of scope for this
// core, same rationale as memstore.Store.SeedGroupSettings).
func seedGroupSettings(ctx context.Context, q querier, gs models.GroupSettings) error {
	query := `
		INSERT INTO group_settings (
			group_id, rating_system, initial_rating, k_factor, elo_const,
			constraints, elo_diff, auto_relax_elo_diff, auto_relax_step,
			auto_relax_max_elo_diff, archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE)
		ON DUPLICATE KEY UPDATE
			rating_system = VALUES(rating_system),
			initial_rating = VALUES(initial_rating),
			k_factor = VALUES(k_factor),
			elo_const = VALUES(elo_const),
			constraints = VALUES(constraints),
			elo_diff = VALUES(elo_diff),
			auto_relax_elo_diff = VALUES(auto_relax_elo_diff),
			auto_relax_step = VALUES(auto_relax_step),
			auto_relax_max_elo_diff = VALUES(auto_relax_max_elo_diff)
	`
	_, err := q.ExecContext(ctx, query,
		gs.GroupID, gs.RatingSystem, gs.InitialRating, gs.KFactor, gs.EloConst,
		gs.Constraints, gs.EloDiff, gs.AutoRelaxEloDiff, gs.AutoRelaxStep, gs.AutoRelaxMaxDiff,
	)
	return err
}

func (s *Store) GetGroupSettings(ctx context.Context, groupID string) (models.GroupSettings, error) {
	return getGroupSettings(ctx, s.q(), groupID)
}

func (s *Store) SetGroupArchived(ctx context.Context, groupID string, archived bool) error {
	return setGroupArchived(ctx, s.q(), groupID, archived)
}

// SeedGroupSettings is not part of store.Port; cmd/demo reaches it through
// the groupSeeder interface when wired against a live MySQL connection.
func (s *Store) SeedGroupSettings(ctx context.Context, gs models.GroupSettings) error {
	return seedGroupSettings(ctx, s.q(), gs)
}

func (t *txStore) GetGroupSettings(ctx context.Context, groupID string) (models.GroupSettings, error) {
	return getGroupSettings(ctx, t.q(), groupID)
}

func (t *txStore) SetGroupArchived(ctx context.Context, groupID string, archived bool) error {
	return setGroupArchived(ctx, t.q(), groupID, archived)
}
