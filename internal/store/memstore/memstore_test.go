package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
	"matchcore/internal/store"
)

func seedGroup(ctx context.Context, s *Store, groupID string) {
	s.SeedGroupSettings(ctx, models.GroupSettings{
		GroupID:       groupID,
		RatingSystem:  models.RatingSystemSeriousElo,
		InitialRating: 1000,
		KFactor:       32,
		EloConst:      400,
		Constraints:   models.DefaultConstraintToggles(),
	})
}

func TestStore_PlayerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	groupID := "g1"
	seedGroup(ctx, s, groupID)

	p := models.Player{ID: "p1", GroupID: groupID, DisplayName: "Ann", Rating: 1000, Membership: models.MembershipPermanent}
	require.NoError(t, s.AddPlayer(ctx, p))

	got, err := s.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)

	_, err = s.GetPlayer(ctx, "missing")
	require.Error(t, err)
	assert.True(t, coreerr.IsCode(err, coreerr.CodeInputInvalid))
}

func TestStore_DeleteEvent_ForbidsCompleted(t *testing.T) {
	ctx := context.Background()
	s := New()
	groupID := "g1"
	seedGroup(ctx, s, groupID)

	e := models.Event{ID: "e1", GroupID: groupID, Courts: 1, Rounds: 1, Status: models.EventCompleted, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreateEvent(ctx, e))

	err := s.DeleteEvent(ctx, "e1")
	require.Error(t, err)
	var coreErr *coreerr.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, coreerr.CodeStateViolation, coreErr.Code)
}

// TestStore_LastEventDeltas_MostRecentEventOnly ensures rating_before
// values from an earlier completed event don't leak into the result once a
// later event has completed in the same group.
func TestStore_LastEventDeltas_MostRecentEventOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	groupID := "g1"
	seedGroup(ctx, s, groupID)

	early := time.Now().Add(-48 * time.Hour)
	late := time.Now().Add(-1 * time.Hour)

	e1 := models.Event{ID: "e1", GroupID: groupID, Courts: 1, Rounds: 1, Status: models.EventCompleted, StartsAt: &early, CreatedAt: early, UpdatedAt: early}
	e2 := models.Event{ID: "e2", GroupID: groupID, Courts: 1, Rounds: 1, Status: models.EventCompleted, StartsAt: &late, CreatedAt: late, UpdatedAt: late}
	require.NoError(t, s.CreateEvent(ctx, e1))
	require.NoError(t, s.CreateEvent(ctx, e2))

	require.NoError(t, s.AppendRatingUpdates(ctx, []models.RatingUpdateRecord{
		{ID: "r1", EventID: "e1", GroupID: groupID, PlayerID: "p1", RatingBefore: 1000, RatingAfter: 1016, Delta: 16},
	}))
	require.NoError(t, s.AppendRatingUpdates(ctx, []models.RatingUpdateRecord{
		{ID: "r2", EventID: "e2", GroupID: groupID, PlayerID: "p1", RatingBefore: 1016, RatingAfter: 1032, Delta: 16},
	}))

	deltas, err := s.LastEventDeltas(ctx, groupID)
	require.NoError(t, err)
	require.Contains(t, deltas, "p1")
	assert.Equal(t, 1016.0, deltas["p1"], "rating_before must come from e2 (most recent), not e1")
}

func TestStore_SwapPositions(t *testing.T) {
	ctx := context.Background()
	s := New()
	g1 := models.Game{ID: "game1", EventID: "e1", Team1Player1: "a", Team1Player2: "b", Team2Player1: "c", Team2Player2: "d"}
	g2 := models.Game{ID: "game2", EventID: "e1", Team1Player1: "e", Team1Player2: "f", Team2Player1: "g", Team2Player2: "h"}
	require.NoError(t, s.CreateGames(ctx, "e1", []models.Game{g1, g2}))

	require.NoError(t, s.SwapPositions(ctx, "game1", "team1_player1", "game2", "team1_player1"))

	updated1, err := s.ListGamesByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, updated1, 2)
	for _, g := range updated1 {
		if g.ID == "game1" {
			assert.Equal(t, "e", g.Team1Player1)
			assert.True(t, g.Swapped)
		}
		if g.ID == "game2" {
			assert.Equal(t, "a", g.Team1Player1)
			assert.True(t, g.Swapped)
		}
	}
}

func TestStore_WithTx_RunsAgainstSameStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	groupID := "g1"
	seedGroup(ctx, s, groupID)

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Port) error {
		return tx.AddPlayer(ctx, models.Player{ID: "p1", GroupID: groupID, DisplayName: "Ann", Rating: 1000})
	})
	require.NoError(t, err)

	p, err := s.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.DisplayName)
}
