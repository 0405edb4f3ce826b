package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/audit"
	"matchcore/internal/logging"
	"matchcore/internal/models"
	"matchcore/internal/store/memstore"
)

func seedGroup(ctx context.Context, st *memstore.Store, groupID string) {
	st.SeedGroupSettings(ctx, models.GroupSettings{
		GroupID:       groupID,
		RatingSystem:  models.RatingSystemSeriousElo,
		InitialRating: 1000,
		KFactor:       32,
		EloConst:      400,
		Constraints:   models.DefaultConstraintToggles(),
	})
}

func seedCompletedEvent(t *testing.T, ctx context.Context, st *memstore.Store, groupID, eventID string) {
	t.Helper()
	require.NoError(t, st.CreateEvent(ctx, models.Event{
		ID:      eventID,
		GroupID: groupID,
		Courts:  1,
		Rounds:  1,
		Status:  models.EventCompleted,
	}))
	s1, s2 := 11, 7
	require.NoError(t, st.CreateGames(ctx, eventID, []models.Game{{
		ID:           eventID + "-g1",
		EventID:      eventID,
		RoundIndex:   0,
		CourtIndex:   0,
		Team1Player1: "a",
		Team1Player2: "b",
		Team2Player1: "c",
		Team2Player2: "d",
		Score1:       &s1,
		Score2:       &s2,
		Result:       models.DeriveResult(&s1, &s2),
	}}))
}

// TestRecalculate_MatchesDirectCompletion checks that replaying a single
// completed event reproduces the same rating deltas SeriousElo would
// compute directly, since there's nothing prior in the group's history to
// diverge on.
func TestRecalculate_MatchesDirectCompletion(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	groupID := "g1"
	seedGroup(ctx, st, groupID)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, st.AddPlayer(ctx, models.Player{ID: id, GroupID: groupID, DisplayName: id, Rating: 1000, Membership: models.MembershipPermanent}))
	}
	seedCompletedEvent(t, ctx, st, groupID, "e1")

	orch := New(st, audit.NewSink(nil, logging.New("test")), logging.New("test"))
	summary, err := orch.Recalculate(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EventsProcessed)

	a, err := st.GetPlayer(ctx, "a")
	require.NoError(t, err)
	b, err := st.GetPlayer(ctx, "b")
	require.NoError(t, err)
	c, err := st.GetPlayer(ctx, "c")
	require.NoError(t, err)
	d, err := st.GetPlayer(ctx, "d")
	require.NoError(t, err)

	// S4 numeric example: equal ratings, k=32, team1 wins -> +-16 exactly.
	assert.InDelta(t, 1016.0, a.Rating, 0.0001)
	assert.InDelta(t, 1016.0, b.Rating, 0.0001)
	assert.InDelta(t, 984.0, c.Rating, 0.0001)
	assert.InDelta(t, 984.0, d.Rating, 0.0001)
}

// TestRecalculate_IsIdempotent checks that running Recalculate twice in a
// row over the same completed history converges to the same final ratings.
func TestRecalculate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	groupID := "g1"
	seedGroup(ctx, st, groupID)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, st.AddPlayer(ctx, models.Player{ID: id, GroupID: groupID, DisplayName: id, Rating: 1000, Membership: models.MembershipPermanent}))
	}
	seedCompletedEvent(t, ctx, st, groupID, "e1")

	orch := New(st, audit.NewSink(nil, logging.New("test")), logging.New("test"))
	_, err := orch.Recalculate(ctx, groupID)
	require.NoError(t, err)
	first, err := st.GetPlayer(ctx, "a")
	require.NoError(t, err)

	_, err = orch.Recalculate(ctx, groupID)
	require.NoError(t, err)
	second, err := st.GetPlayer(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, first.Rating, second.Rating)
}

// TestRecalculate_EloSnapshotPrecedesRoundDelta verifies the round-by-round
// replay writes a game's team ELO snapshot using the rating in effect
// *before* that round's deltas are applied, per the simultaneous-games
// invariant: two players in the same round must be rated identically
// regardless of other games already processed in that round.
func TestRecalculate_EloSnapshotPrecedesRoundDelta(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	groupID := "g1"
	seedGroup(ctx, st, groupID)

	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		require.NoError(t, st.AddPlayer(ctx, models.Player{ID: id, GroupID: groupID, DisplayName: id, Rating: 1000, Membership: models.MembershipPermanent}))
	}
	require.NoError(t, st.CreateEvent(ctx, models.Event{ID: "e1", GroupID: groupID, Courts: 2, Rounds: 1, Status: models.EventCompleted}))

	s1, s2 := 11, 3
	require.NoError(t, st.CreateGames(ctx, "e1", []models.Game{
		{ID: "g1", EventID: "e1", RoundIndex: 0, CourtIndex: 0, Team1Player1: "a", Team1Player2: "b", Team2Player1: "c", Team2Player2: "d", Score1: &s1, Score2: &s2, Result: models.DeriveResult(&s1, &s2)},
		{ID: "g2", EventID: "e1", RoundIndex: 0, CourtIndex: 1, Team1Player1: "e", Team1Player2: "f", Team2Player1: "g", Team2Player2: "h", Score1: &s1, Score2: &s2, Result: models.DeriveResult(&s1, &s2)},
	}))

	orch := New(st, audit.NewSink(nil, logging.New("test")), logging.New("test"))
	_, err := orch.Recalculate(ctx, groupID)
	require.NoError(t, err)

	games, err := st.ListGamesByEvent(ctx, "e1")
	require.NoError(t, err)
	for _, g := range games {
		assert.Equal(t, 1000.0, g.Team1Elo, "pre-round snapshot must use the initial rating, not a post-delta one")
		assert.Equal(t, 1000.0, g.Team2Elo)
	}
}
