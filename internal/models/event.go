// internal/models/event.go
// Event scheduling unit and its lifecycle state machine

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventStatus is the event lifecycle state: DRAFT -> GENERATED ->
// IN_PROGRESS -> COMPLETED, with COMPLETED able to re-enter itself via
// edit-after-complete (triggering a replay, not a status change).
type EventStatus string

const (
	EventDraft      EventStatus = "DRAFT"
	EventGenerated  EventStatus = "GENERATED"
	EventInProgress EventStatus = "IN_PROGRESS"
	EventCompleted  EventStatus = "COMPLETED"
)

// CanTransitionTo reports whether moving from the receiver status to next
// is a legal lifecycle edge. It does not cover edit-after-complete, which
// stays in COMPLETED and is handled by the replay path instead.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch {
	case s == EventDraft && next == EventGenerated:
		return true
	case s == EventGenerated && next == EventInProgress:
		return true
	case (s == EventGenerated || s == EventInProgress) && next == EventCompleted:
		return true
	case s == EventDraft && next == EventDraft:
		// re-generation before any games exist is a no-op transition
		return true
	case s == EventGenerated && next == EventGenerated:
		// re-generation discards and rebuilds games, staying GENERATED
		return true
	default:
		return false
	}
}

// CanDelete reports whether an event in this status may be deleted.
// COMPLETED events can never be deleted.
func (s EventStatus) CanDelete() bool {
	return s != EventCompleted
}

// Event is a scheduling unit within a group.
type Event struct {
	ID           string       `json:"id" db:"id"`
	GroupID      string       `json:"group_id" db:"group_id"`
	Name         *string      `json:"name,omitempty" db:"name"`
	StartsAt     *time.Time   `json:"starts_at,omitempty" db:"starts_at"`
	Courts       int          `json:"courts" db:"courts"`
	Rounds       int          `json:"rounds" db:"rounds"`
	Participants ParticipantSet `json:"participants" db:"participants"`
	Status       EventStatus  `json:"status" db:"status"`
	GenMeta      *GenerationMetadata `json:"generation_metadata,omitempty" db:"generation_metadata"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// RequiredParticipants returns 4*Courts, the invariant participant count.
func (e *Event) RequiredParticipants() int {
	return 4 * e.Courts
}

// ParticipantSet implements sql.Scanner/driver.Valuer for []string event
// participant lists stored as a JSON column, the same pattern the teacher
// uses for its own string-slice JSON columns.
type ParticipantSet []string

func (p *ParticipantSet) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ParticipantSet", value)
	}
	return json.Unmarshal(bytes, p)
}

func (p ParticipantSet) Value() (driver.Value, error) {
	return json.Marshal(p)
}
