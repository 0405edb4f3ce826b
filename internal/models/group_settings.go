// internal/models/group_settings.go
// Per-group configuration consumed by the rating engines and generator.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// RatingSystem names a pluggable rating engine.
type RatingSystem string

const (
	RatingSystemSeriousElo RatingSystem = "SERIOUS_ELO"
	RatingSystemCatchUp    RatingSystem = "CATCH_UP"
	RatingSystemRacsElo    RatingSystem = "RACS_ELO"
)

// ConstraintToggles are the three hard-constraint switches the generator
// honors. Stored as a JSON column alongside GroupSettings and snapshotted
// verbatim into GenerationMetadata on every generation attempt.
type ConstraintToggles struct {
	NoRepeatTeammateInEvent             bool `json:"no_repeat_teammate_in_event"`
	NoRepeatTeammateFromPreviousEvent   bool `json:"no_repeat_teammate_from_previous_event"`
	NoRepeatOpponentInEvent             bool `json:"no_repeat_opponent_in_event"`
}

// Scan implements sql.Scanner so ConstraintToggles can be stored as a JSON
// column, the same pattern the teacher uses for its own JSON-backed fields.
func (c *ConstraintToggles) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ConstraintToggles", value)
	}
	return json.Unmarshal(bytes, c)
}

// Value implements driver.Valuer for ConstraintToggles.
func (c ConstraintToggles) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// DefaultConstraintToggles mirrors the source's defaults: all three hard
// constraints on by default.
func DefaultConstraintToggles() ConstraintToggles {
	return ConstraintToggles{
		NoRepeatTeammateInEvent:           true,
		NoRepeatTeammateFromPreviousEvent: true,
		NoRepeatOpponentInEvent:           true,
	}
}

// GroupSettings is the per-group configuration consumed by the core.
type GroupSettings struct {
	GroupID    string       `json:"group_id" db:"group_id"`
	RatingSystem RatingSystem `json:"rating_system" db:"rating_system"`

	// InitialRating is the group's base rating for new players; skill-tier
	// offsets are derived from it (see models.SkillOffset).
	InitialRating int `json:"initial_rating" db:"initial_rating"`
	KFactor       int `json:"k_factor" db:"k_factor"`

	// EloConst defaults to 400 for Serious/Catch-Up and 0.3 for Rac's;
	// zero means "use the engine's default" (see ratings.NewEngine).
	EloConst float64 `json:"elo_const" db:"elo_const"`

	Constraints ConstraintToggles `json:"constraints" db:"constraints"`

	// EloDiff is the fractional rating-balance tolerance the generator
	// starts from; AutoRelax* govern widening it on rating-bound failures.
	EloDiff           float64 `json:"elo_diff" db:"elo_diff"`
	AutoRelaxEloDiff  bool    `json:"auto_relax_elo_diff" db:"auto_relax_elo_diff"`
	AutoRelaxStep     float64 `json:"auto_relax_step" db:"auto_relax_step"`
	AutoRelaxMaxDiff  float64 `json:"auto_relax_max_elo_diff" db:"auto_relax_max_elo_diff"`
}

// DefaultGroupSettings returns the settings defaults named in the data
// model: initial_rating 1000, k_factor 32, elo_diff 0.05, auto-relax step
// 0.01 up to 0.25.
func DefaultGroupSettings(groupID string) GroupSettings {
	return GroupSettings{
		GroupID:          groupID,
		RatingSystem:     RatingSystemSeriousElo,
		InitialRating:    1000,
		KFactor:          32,
		EloConst:         400.0,
		Constraints:      DefaultConstraintToggles(),
		EloDiff:          0.05,
		AutoRelaxEloDiff: true,
		AutoRelaxStep:    0.01,
		AutoRelaxMaxDiff: 0.25,
	}
}
