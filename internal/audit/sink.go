// internal/audit/sink.go
// Append-only audit sink for completion and replay runs

package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"matchcore/internal/models"
)

// Sink records a best-effort audit document per completion or replay run,
// alongside (not instead of) the RatingUpdateRecord rows the core writes
// through the persistence port. A failure here never aborts the caller's
// operation — analytics shouldn't break the app.
type Sink struct {
	db     *mongo.Database
	logger *logrus.Entry
}

func NewSink(db *mongo.Database, logger *logrus.Entry) *Sink {
	return &Sink{db: db, logger: logger}
}

// RecordCompletion logs one event-completion's rating-update batch. A nil
// backing database (audit sink not configured) is a silent no-op.
func (s *Sink) RecordCompletion(ctx context.Context, event models.Event, deltas []models.RatingUpdateRecord) {
	if s.db == nil {
		return
	}
	doc := bson.M{
		"type":       "event_completed",
		"event_id":   event.ID,
		"group_id":   event.GroupID,
		"deltas":     len(deltas),
		"created_at": time.Now(),
	}
	if _, err := s.db.Collection("audit_events").InsertOne(ctx, doc); err != nil {
		s.logger.WithError(err).WithField("event_id", event.ID).Warn("failed to record completion audit entry")
	}
}

// RecordReplay logs a summary of one recalculate run. A nil backing
// database (audit sink not configured) is a silent no-op.
func (s *Sink) RecordReplay(ctx context.Context, groupID string, eventsProcessed, playersUpdated int) {
	if s.db == nil {
		return
	}
	doc := bson.M{
		"type":             "group_recalculated",
		"group_id":         groupID,
		"events_processed": eventsProcessed,
		"players_updated":  playersUpdated,
		"created_at":       time.Now(),
	}
	if _, err := s.db.Collection("audit_events").InsertOne(ctx, doc); err != nil {
		s.logger.WithError(err).WithField("group_id", groupID).Warn("failed to record replay audit entry")
	}
}
