// internal/store/mysqlstore/rating_updates.go
// Append-only rating-update audit trail

package mysqlstore

import (
	"context"

	"matchcore/internal/models"
)

func appendRatingUpdates(ctx context.Context, q querier, records []models.RatingUpdateRecord) error {
	query := `
		INSERT INTO rating_updates (
			id, event_id, group_id, player_id, rating_before, rating_after,
			delta, rating_system
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, r := range records {
		_, err := q.ExecContext(ctx, query,
			r.ID, r.EventID, r.GroupID, r.PlayerID, r.RatingBefore, r.RatingAfter,
			r.Delta, r.RatingSystem,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func deleteAllForGroup(ctx context.Context, q querier, groupID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM rating_updates WHERE group_id = ?`, groupID)
	return err
}

// lastEventDeltas mirrors the original's get_last_event_deltas: rating_before
// values from the most recently completed event in the group.
func lastEventDeltas(ctx context.Context, q querier, groupID string) (map[string]float64, error) {
	query := `
		SELECT ru.player_id, ru.rating_before
		FROM rating_updates ru
		JOIN events e ON e.id = ru.event_id
		WHERE e.group_id = ? AND e.status = 'COMPLETED'
		AND e.id = (
			SELECT id FROM events
			WHERE group_id = ? AND status = 'COMPLETED'
			ORDER BY starts_at DESC, created_at DESC
			LIMIT 1
		)
	`
	rows, err := q.QueryContext(ctx, query, groupID, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var playerID string
		var before float64
		if err := rows.Scan(&playerID, &before); err != nil {
			return nil, err
		}
		out[playerID] = before
	}
	return out, rows.Err()
}

func listByPlayer(ctx context.Context, q querier, groupID, playerID string) ([]models.RatingUpdateRecord, error) {
	query := `
		SELECT ru.id, ru.event_id, ru.group_id, ru.player_id, ru.rating_before,
		       ru.rating_after, ru.delta, ru.rating_system
		FROM rating_updates ru
		JOIN events e ON e.id = ru.event_id
		WHERE ru.group_id = ? AND ru.player_id = ?
		ORDER BY e.starts_at ASC, e.created_at ASC
	`
	rows, err := q.QueryContext(ctx, query, groupID, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatingUpdateRows(rows)
}

func listByEvent(ctx context.Context, q querier, eventID string) ([]models.RatingUpdateRecord, error) {
	query := `
		SELECT id, event_id, group_id, player_id, rating_before, rating_after,
		       delta, rating_system
		FROM rating_updates
		WHERE event_id = ?
	`
	rows, err := q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatingUpdateRows(rows)
}

func scanRatingUpdateRows(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]models.RatingUpdateRecord, error) {
	var out []models.RatingUpdateRecord
	for rows.Next() {
		var r models.RatingUpdateRecord
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.GroupID, &r.PlayerID, &r.RatingBefore,
			&r.RatingAfter, &r.Delta, &r.RatingSystem,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AppendRatingUpdates(ctx context.Context, records []models.RatingUpdateRecord) error {
	return appendRatingUpdates(ctx, s.q(), records)
}
func (s *Store) DeleteAllForGroup(ctx context.Context, groupID string) error {
	return deleteAllForGroup(ctx, s.q(), groupID)
}
func (s *Store) LastEventDeltas(ctx context.Context, groupID string) (map[string]float64, error) {
	return lastEventDeltas(ctx, s.q(), groupID)
}
func (s *Store) ListByPlayer(ctx context.Context, groupID, playerID string) ([]models.RatingUpdateRecord, error) {
	return listByPlayer(ctx, s.q(), groupID, playerID)
}
func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.RatingUpdateRecord, error) {
	return listByEvent(ctx, s.q(), eventID)
}

func (t *txStore) AppendRatingUpdates(ctx context.Context, records []models.RatingUpdateRecord) error {
	return appendRatingUpdates(ctx, t.q(), records)
}
func (t *txStore) DeleteAllForGroup(ctx context.Context, groupID string) error {
	return deleteAllForGroup(ctx, t.q(), groupID)
}
func (t *txStore) LastEventDeltas(ctx context.Context, groupID string) (map[string]float64, error) {
	return lastEventDeltas(ctx, t.q(), groupID)
}
func (t *txStore) ListByPlayer(ctx context.Context, groupID, playerID string) ([]models.RatingUpdateRecord, error) {
	return listByPlayer(ctx, t.q(), groupID, playerID)
}
func (t *txStore) ListByEvent(ctx context.Context, eventID string) ([]models.RatingUpdateRecord, error) {
	return listByEvent(ctx, t.q(), eventID)
}
