// internal/store/memstore/memstore.go
// In-memory reference implementation of store.Port, grounded in the
// teacher's one-struct-per-entity repository layout but backed by maps
// instead of *sql.DB rows. Used by the lifecycle, replay and memstore unit
// tests and by cmd/demo.

package memstore

import (
	"context"
	"sort"
	"sync"

	"matchcore/internal/coreerr"
	"matchcore/internal/models"
	"matchcore/internal/store"
)

// Store is an in-memory, mutex-guarded implementation of store.Port.
type Store struct {
	mu sync.RWMutex

	groupSettings map[string]models.GroupSettings
	groupArchived map[string]bool

	players map[string]models.Player

	events       map[string]models.Event
	participants map[string][]string // eventID -> playerIDs

	games map[string]models.Game // gameID -> game

	ratingUpdates map[string][]models.RatingUpdateRecord // groupID -> records
}

var _ store.Port = (*Store)(nil)

// New builds an empty in-memory store.
func New() *Store {
	return &Store{
		groupSettings: make(map[string]models.GroupSettings),
		groupArchived: make(map[string]bool),
		players:       make(map[string]models.Player),
		events:        make(map[string]models.Event),
		participants:  make(map[string][]string),
		games:         make(map[string]models.Game),
		ratingUpdates: make(map[string][]models.RatingUpdateRecord),
	}
}

// SeedGroupSettings is a test/demo helper to install a group's settings
// without going through a caller-side group-management surface (out of
// scope for this core). The ctx/error signature keeps it interchangeable
// with mysqlstore.Store.SeedGroupSettings via cmd/demo's groupSeeder.
func (s *Store) SeedGroupSettings(ctx context.Context, settings models.GroupSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupSettings[settings.GroupID] = settings
	return nil
}

func (s *Store) GetGroupSettings(ctx context.Context, groupID string) (models.GroupSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gs, ok := s.groupSettings[groupID]
	if !ok {
		return models.GroupSettings{}, coreerr.NotFound("group settings %s not found", groupID)
	}
	return gs, nil
}

func (s *Store) SetGroupArchived(ctx context.Context, groupID string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupArchived[groupID] = archived
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[playerID]
	if !ok {
		return models.Player{}, coreerr.NotFound("player %s not found", playerID)
	}
	return p, nil
}

func (s *Store) ListPlayersByGroup(ctx context.Context, groupID string) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Player
	for _, p := range s.players {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (s *Store) AddPlayer(ctx context.Context, p models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
	return nil
}

func (s *Store) UpdatePlayerRatingAndStats(ctx context.Context, p models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return coreerr.NotFound("player %s not found", p.ID)
	}
	s.players[p.ID] = p
	return nil
}

func (s *Store) ResetPlayerStats(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.groupSettings[groupID]
	if !ok {
		return coreerr.NotFound("group settings %s not found", groupID)
	}
	for id, p := range s.players {
		if p.GroupID != groupID {
			continue
		}
		p.ResetStats(models.InitialRating(gs.InitialRating, p.SkillTier))
		s.players[id] = p
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return models.Event{}, coreerr.NotFound("event %s not found", eventID)
	}
	return e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	s.participants[e.ID] = append([]string(nil), e.Participants...)
	return nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, eventID string, status models.EventStatus, meta *models.GenerationMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return coreerr.NotFound("event %s not found", eventID)
	}
	e.Status = status
	if meta != nil {
		e.GenMeta = meta
	}
	s.events[eventID] = e
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return coreerr.NotFound("event %s not found", eventID)
	}
	if !e.Status.CanDelete() {
		return coreerr.StateViolation("event %s is COMPLETED and cannot be deleted", eventID)
	}
	delete(s.events, eventID)
	delete(s.participants, eventID)
	for id, g := range s.games {
		if g.EventID == eventID {
			delete(s.games, id)
		}
	}
	return nil
}

func (s *Store) ListEventsByGroup(ctx context.Context, groupID string, status *models.EventStatus) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for _, e := range s.events {
		if e.GroupID != groupID {
			continue
		}
		if status != nil && e.Status != *status {
			continue
		}
		out = append(out, e)
	}
	sortEventsChronologically(out)
	return out, nil
}

func (s *Store) ListCompletedEventsOrdered(ctx context.Context, groupID string) ([]models.Event, error) {
	completed := models.EventCompleted
	return s.ListEventsByGroup(ctx, groupID, &completed)
}

func (s *Store) GetPreviousCompletedEvent(ctx context.Context, groupID string, beforeEventID string) (*models.Event, error) {
	completed, err := s.ListCompletedEventsOrdered(ctx, groupID)
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

func (s *Store) AddParticipants(ctx context.Context, eventID string, playerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[eventID] = append(s.participants[eventID], playerIDs...)
	return nil
}

func (s *Store) GetParticipants(ctx context.Context, eventID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.participants[eventID]...), nil
}

func (s *Store) CreateGames(ctx context.Context, eventID string, games []models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range games {
		g.EventID = eventID
		s.games[g.ID] = g
	}
	return nil
}

func (s *Store) ListGamesByEvent(ctx context.Context, eventID string) ([]models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Game
	for _, g := range s.games {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundIndex != out[j].RoundIndex {
			return out[i].RoundIndex < out[j].RoundIndex
		}
		return out[i].CourtIndex < out[j].CourtIndex
	})
	return out, nil
}

func (s *Store) ListGamesByEventWithRatings(ctx context.Context, eventID string) ([]store.GameForEvent, error) {
	games, err := s.ListGamesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.GameForEvent, 0, len(games))
	for _, g := range games {
		ratings := map[string]float64{}
		names := map[string]string{}
		for _, pid := range g.Players() {
			if p, ok := s.players[pid]; ok {
				ratings[pid] = p.Rating
				names[pid] = p.DisplayName
			}
		}
		out = append(out, store.GameForEvent{Game: g, PlayerRatings: ratings, PlayerNames: names})
	}
	return out, nil
}

func (s *Store) ListGamesByPlayer(ctx context.Context, playerID string) ([]models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Game
	for _, g := range s.games {
		for _, pid := range g.Players() {
			if pid == playerID {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func (s *Store) UpdateGameScore(ctx context.Context, gameID string, score1, score2 *int) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return models.Game{}, coreerr.NotFound("game %s not found", gameID)
	}
	g.Score1 = score1
	g.Score2 = score2
	g.Result = models.DeriveResult(score1, score2)
	s.games[gameID] = g
	return g, nil
}

func (s *Store) DeleteGamesByEvent(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.games {
		if g.EventID == eventID {
			delete(s.games, id)
		}
	}
	return nil
}

func (s *Store) SwapPositions(ctx context.Context, gameID1, slot1, gameID2, slot2 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g1, ok1 := s.games[gameID1]
	g2, ok2 := s.games[gameID2]
	if !ok1 || !ok2 {
		return coreerr.NotFound("game(s) not found for swap")
	}
	v1, err := getSlot(&g1, slot1)
	if err != nil {
		return err
	}
	v2, err := getSlot(&g2, slot2)
	if err != nil {
		return err
	}
	if err := setSlot(&g1, slot1, v2); err != nil {
		return err
	}
	if err := setSlot(&g2, slot2, v1); err != nil {
		return err
	}
	g1.Swapped = true
	g2.Swapped = true
	s.games[gameID1] = g1
	s.games[gameID2] = g2
	return nil
}

func getSlot(g *models.Game, slot string) (string, error) {
	switch slot {
	case "team1_player1":
		return g.Team1Player1, nil
	case "team1_player2":
		return g.Team1Player2, nil
	case "team2_player1":
		return g.Team2Player1, nil
	case "team2_player2":
		return g.Team2Player2, nil
	default:
		return "", coreerr.InputInvalid("unknown game slot %q", slot)
	}
}

func setSlot(g *models.Game, slot, value string) error {
	switch slot {
	case "team1_player1":
		g.Team1Player1 = value
	case "team1_player2":
		g.Team1Player2 = value
	case "team2_player1":
		g.Team2Player1 = value
	case "team2_player2":
		g.Team2Player2 = value
	default:
		return coreerr.InputInvalid("unknown game slot %q", slot)
	}
	return nil
}

func (s *Store) UpdateEloSnapshots(ctx context.Context, gameID string, team1Elo, team2Elo float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return coreerr.NotFound("game %s not found", gameID)
	}
	g.Team1Elo = team1Elo
	g.Team2Elo = team2Elo
	s.games[gameID] = g
	return nil
}

func (s *Store) AppendRatingUpdates(ctx context.Context, records []models.RatingUpdateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	groupID := records[0].GroupID
	s.ratingUpdates[groupID] = append(s.ratingUpdates[groupID], records...)
	return nil
}

func (s *Store) DeleteAllForGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ratingUpdates, groupID)
	return nil
}

// LastEventDeltas returns, for each player, the rating_before recorded at
// the group's most recently completed event (ORDER BY starts_at DESC,
// created_at DESC LIMIT 1 in the original). Callers compute the displayed
// delta as current_rating - rating_before.
func (s *Store) LastEventDeltas(ctx context.Context, groupID string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var completed []models.Event
	for _, e := range s.events {
		if e.GroupID == groupID && e.Status == models.EventCompleted {
			completed = append(completed, e)
		}
	}
	if len(completed) == 0 {
		return map[string]float64{}, nil
	}
	sortEventsChronologically(completed)
	lastEventID := completed[len(completed)-1].ID

	out := map[string]float64{}
	for _, r := range s.ratingUpdates[groupID] {
		if r.EventID == lastEventID {
			out[r.PlayerID] = r.RatingBefore
		}
	}
	return out, nil
}

func (s *Store) ListByPlayer(ctx context.Context, groupID, playerID string) ([]models.RatingUpdateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RatingUpdateRecord
	for _, r := range s.ratingUpdates[groupID] {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListByEvent(ctx context.Context, eventID string) ([]models.RatingUpdateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RatingUpdateRecord
	for _, records := range s.ratingUpdates {
		for _, r := range records {
			if r.EventID == eventID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// WithTx is a no-op transaction wrapper: the in-memory store already
// serializes every operation under its mutex, so fn just runs against the
// same store with no isolation to provide.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Port) error) error {
	return fn(ctx, s)
}

func sortEventsChronologically(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		ti, tj := events[i].StartsAt, events[j].StartsAt
		switch {
		case ti == nil && tj == nil:
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		case ti == nil:
			return true
		case tj == nil:
			return false
		case !ti.Equal(*tj):
			return ti.Before(*tj)
		default:
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
	})
}
