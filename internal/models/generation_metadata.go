// internal/models/generation_metadata.go
// Reported outcome of one schedule-generation attempt

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenerationMetadata is reported for both successful and failed generation
// attempts: the seed used, configured vs. actual elo_diff, how many relax
// iterations and full-schedule attempts it took, wall-clock duration, and a
// frozen snapshot of the constraint toggles in effect.
type GenerationMetadata struct {
	Seed             string            `json:"seed"`
	EloDiffConfigured float64          `json:"elo_diff_configured"`
	EloDiffUsed      float64           `json:"elo_diff_used"`
	RelaxIterations  int               `json:"relax_iterations"`
	Attempts         int               `json:"attempts"`
	DurationMs       int64             `json:"duration_ms"`
	Constraints      ConstraintToggles `json:"constraints"`
	Success          bool              `json:"success"`
	FailureReason    string            `json:"failure_reason,omitempty"`
}

// Scan implements sql.Scanner so GenerationMetadata can be persisted as an
// opaque JSON blob on the event row.
func (g *GenerationMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into GenerationMetadata", value)
	}
	return json.Unmarshal(bytes, g)
}

// Value implements driver.Valuer for GenerationMetadata.
func (g GenerationMetadata) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// DurationSince fills DurationMs from a start time; a small helper used by
// the generator to avoid importing time.Since at every call site.
func DurationSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
