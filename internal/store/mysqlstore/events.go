// internal/store/mysqlstore/events.go
// Event and participant data access

package mysqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
)

// scanGenMeta unmarshals a nullable JSON column into a *GenerationMetadata.
// Event.GenMeta is itself a pointer with Scan/Value defined on the pointee,
// so scanning directly into &e.GenMeta (a **GenerationMetadata) wouldn't
// satisfy sql.Scanner; this goes through raw bytes instead.
func scanGenMeta(raw []byte) (*models.GenerationMetadata, error) {
	if raw == nil {
		return nil, nil
	}
	var meta models.GenerationMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func getEvent(ctx context.Context, q querier, eventID string) (models.Event, error) {
	query := `
		SELECT id, group_id, name, starts_at, courts, rounds, status,
		       generation_metadata, created_at, updated_at
		FROM events
		WHERE id = ?
	`
	var e models.Event
	var genMeta []byte
	err := q.QueryRowContext(ctx, query, eventID).Scan(
		&e.ID, &e.GroupID, &e.Name, &e.StartsAt, &e.Courts, &e.Rounds,
		&e.Status, &genMeta, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Event{}, coreerr.NotFound("event %s not found", eventID)
	}
	if err != nil {
		return models.Event{}, err
	}
	if e.GenMeta, err = scanGenMeta(genMeta); err != nil {
		return models.Event{}, err
	}
	participants, err := getParticipants(ctx, q, eventID)
	if err != nil {
		return models.Event{}, err
	}
	e.Participants = models.ParticipantSet(participants)
	return e, nil
}

// valueGenMeta marshals a nullable *GenerationMetadata for a query arg.
// GenerationMetadata.Value has a value receiver, so calling it on a nil
// *GenerationMetadata directly would panic dereferencing the nil pointer;
// this guards that case explicitly.
func valueGenMeta(meta *models.GenerationMetadata) (interface{}, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
}

func createEvent(ctx context.Context, q querier, e models.Event) error {
	query := `
		INSERT INTO events (
			id, group_id, name, starts_at, courts, rounds, status,
			generation_metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	genMeta, err := valueGenMeta(e.GenMeta)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, query,
		e.ID, e.GroupID, e.Name, e.StartsAt, e.Courts, e.Rounds, e.Status,
		genMeta, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// updatableEventColumns whitelists the event columns update-status may
// touch, per §6's "adapters must reject invalid column writes."
var updatableEventColumns = map[string]bool{
	"status":              true,
	"generation_metadata": true,
}

func updateEventStatus(ctx context.Context, q querier, eventID string, status models.EventStatus, meta *models.GenerationMetadata) error {
	if !updatableEventColumns["status"] || !updatableEventColumns["generation_metadata"] {
		return coreerr.InputInvalid("event status/metadata columns are not writable")
	}
	genMeta, err := valueGenMeta(meta)
	if err != nil {
		return err
	}
	query := `UPDATE events SET status = ?, generation_metadata = ?, updated_at = NOW() WHERE id = ?`
	res, err := q.ExecContext(ctx, query, status, genMeta, eventID)
	if err != nil {
		return err
	}
	return checkAffected(res, "event %s not found", eventID)
}

func deleteEvent(ctx context.Context, q querier, eventID string) error {
	var status models.EventStatus
	err := q.QueryRowContext(ctx, `SELECT status FROM events WHERE id = ?`, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return coreerr.NotFound("event %s not found", eventID)
	}
	if err != nil {
		return err
	}
	if !status.CanDelete() {
		return coreerr.StateViolation("event %s is COMPLETED and cannot be deleted", eventID)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM games WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM event_participants WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
	return err
}

func listEventsByGroup(ctx context.Context, q querier, groupID string, status *models.EventStatus) ([]models.Event, error) {
	query := `
		SELECT id, group_id, name, starts_at, courts, rounds, status,
		       generation_metadata, created_at, updated_at
		FROM events
		WHERE group_id = ?
	`
	args := []interface{}{groupID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY starts_at ASC, created_at ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		var genMeta []byte
		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.Name, &e.StartsAt, &e.Courts, &e.Rounds,
			&e.Status, &genMeta, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		meta, err := scanGenMeta(genMeta)
		if err != nil {
			return nil, err
		}
		e.GenMeta = meta
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		participants, err := getParticipants(ctx, q, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = models.ParticipantSet(participants)
	}
	return out, nil
}

func listCompletedEventsOrdered(ctx context.Context, q querier, groupID string) ([]models.Event, error) {
	completed := models.EventCompleted
	return listEventsByGroup(ctx, q, groupID, &completed)
}

func getPreviousCompletedEvent(ctx context.Context, q querier, groupID, beforeEventID string) (*models.Event, error) {
	completed, err := listCompletedEventsOrdered(ctx, q, groupID)
	if err != nil {
		return nil, err
	}
	var prev *models.Event
	for i := range completed {
		if completed[i].ID == beforeEventID {
			break
		}
		e := completed[i]
		prev = &e
	}
	return prev, nil
}

func addParticipants(ctx context.Context, q querier, eventID string, playerIDs []string) error {
	for _, pid := range playerIDs {
		if _, err := q.ExecContext(ctx, `INSERT INTO event_participants (event_id, player_id) VALUES (?, ?)`, eventID, pid); err != nil {
			return err
		}
	}
	return nil
}

func getParticipants(ctx context.Context, q querier, eventID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT player_id FROM event_participants WHERE event_id = ?`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		out = append(out, pid)
	}
	return out, rows.Err()
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	return getEvent(ctx, s.q(), eventID)
}
func (s *Store) CreateEvent(ctx context.Context, e models.Event) error { return createEvent(ctx, s.q(), e) }
func (s *Store) UpdateEventStatus(ctx context.Context, eventID string, status models.EventStatus, meta *models.GenerationMetadata) error {
	return updateEventStatus(ctx, s.q(), eventID, status, meta)
}
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error { return deleteEvent(ctx, s.q(), eventID) }
func (s *Store) ListEventsByGroup(ctx context.Context, groupID string, status *models.EventStatus) ([]models.Event, error) {
	return listEventsByGroup(ctx, s.q(), groupID, status)
}
func (s *Store) ListCompletedEventsOrdered(ctx context.Context, groupID string) ([]models.Event, error) {
	return listCompletedEventsOrdered(ctx, s.q(), groupID)
}
func (s *Store) GetPreviousCompletedEvent(ctx context.Context, groupID, beforeEventID string) (*models.Event, error) {
	return getPreviousCompletedEvent(ctx, s.q(), groupID, beforeEventID)
}
func (s *Store) AddParticipants(ctx context.Context, eventID string, playerIDs []string) error {
	return addParticipants(ctx, s.q(), eventID, playerIDs)
}
func (s *Store) GetParticipants(ctx context.Context, eventID string) ([]string, error) {
	return getParticipants(ctx, s.q(), eventID)
}

func (t *txStore) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	return getEvent(ctx, t.q(), eventID)
}
func (t *txStore) CreateEvent(ctx context.Context, e models.Event) error { return createEvent(ctx, t.q(), e) }
func (t *txStore) UpdateEventStatus(ctx context.Context, eventID string, status models.EventStatus, meta *models.GenerationMetadata) error {
	return updateEventStatus(ctx, t.q(), eventID, status, meta)
}
func (t *txStore) DeleteEvent(ctx context.Context, eventID string) error { return deleteEvent(ctx, t.q(), eventID) }
func (t *txStore) ListEventsByGroup(ctx context.Context, groupID string, status *models.EventStatus) ([]models.Event, error) {
	return listEventsByGroup(ctx, t.q(), groupID, status)
}
func (t *txStore) ListCompletedEventsOrdered(ctx context.Context, groupID string) ([]models.Event, error) {
	return listCompletedEventsOrdered(ctx, t.q(), groupID)
}
func (t *txStore) GetPreviousCompletedEvent(ctx context.Context, groupID, beforeEventID string) (*models.Event, error) {
	return getPreviousCompletedEvent(ctx, t.q(), groupID, beforeEventID)
}
func (t *txStore) AddParticipants(ctx context.Context, eventID string, playerIDs []string) error {
	return addParticipants(ctx, t.q(), eventID, playerIDs)
}
func (t *txStore) GetParticipants(ctx context.Context, eventID string) ([]string, error) {
	return getParticipants(ctx, t.q(), eventID)
}
