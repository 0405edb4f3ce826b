// internal/matchmaking/constraints.go
// Constraint configuration and checker for schedule generation

package matchmaking

import "matchcore/internal/models"

// ConstraintConfig mirrors a group's constraint-relevant settings: the
// three hard-constraint toggles plus the rating-tolerance policy.
type ConstraintConfig struct {
	NoRepeatTeammateInEvent           bool
	NoRepeatTeammateFromPreviousEvent bool
	NoRepeatOpponentInEvent           bool

	EloDiff          float64
	AutoRelaxEloDiff bool
	AutoRelaxStep    float64
	AutoRelaxMaxDiff float64
}

// FromGroupSettings builds a ConstraintConfig from a group's persisted
// settings, the shape the Lifecycle Controller passes down on generate.
func FromGroupSettings(s models.GroupSettings) ConstraintConfig {
	return ConstraintConfig{
		NoRepeatTeammateInEvent:           s.Constraints.NoRepeatTeammateInEvent,
		NoRepeatTeammateFromPreviousEvent: s.Constraints.NoRepeatTeammateFromPreviousEvent,
		NoRepeatOpponentInEvent:           s.Constraints.NoRepeatOpponentInEvent,
		EloDiff:                           s.EloDiff,
		AutoRelaxEloDiff:                  s.AutoRelaxEloDiff,
		AutoRelaxStep:                     s.AutoRelaxStep,
		AutoRelaxMaxDiff:                  s.AutoRelaxMaxDiff,
	}
}

func (c ConstraintConfig) toggles() models.ConstraintToggles {
	return models.ConstraintToggles{
		NoRepeatTeammateInEvent:           c.NoRepeatTeammateInEvent,
		NoRepeatTeammateFromPreviousEvent: c.NoRepeatTeammateFromPreviousEvent,
		NoRepeatOpponentInEvent:           c.NoRepeatOpponentInEvent,
	}
}

// Pair is an unordered, canonically ordered player-id pair.
type Pair [2]string

func makePair(a, b string) Pair {
	if a <= b {
		return Pair{a, b}
	}
	return Pair{b, a}
}

// candidateMatch is a disjoint team1/team2 pairing under consideration,
// before it's assigned a round/court index.
type candidateMatch struct {
	team1 [2]string
	team2 [2]string
}

func (m candidateMatch) teammatePairs() [2]Pair {
	return [2]Pair{makePair(m.team1[0], m.team1[1]), makePair(m.team2[0], m.team2[1])}
}

func (m candidateMatch) opponentPairs() [4]Pair {
	return [4]Pair{
		makePair(m.team1[0], m.team2[0]),
		makePair(m.team1[0], m.team2[1]),
		makePair(m.team1[1], m.team2[0]),
		makePair(m.team1[1], m.team2[1]),
	}
}

func (m candidateMatch) players() [4]string {
	return [4]string{m.team1[0], m.team1[1], m.team2[0], m.team2[1]}
}

// checker validates matches against both the hard teammate/opponent
// constraints and the rating-balance filter.
type checker struct {
	config                ConstraintConfig
	previousTeammatePairs map[Pair]bool
}

func newChecker(config ConstraintConfig, previousTeammatePairs map[Pair]bool) *checker {
	if previousTeammatePairs == nil {
		previousTeammatePairs = map[Pair]bool{}
	}
	return &checker{config: config, previousTeammatePairs: previousTeammatePairs}
}

func (c *checker) teammateOKInEvent(pair Pair, existing map[Pair]bool) bool {
	if !c.config.NoRepeatTeammateInEvent {
		return true
	}
	return !existing[pair]
}

func (c *checker) teammateOKFromPrevious(pair Pair) bool {
	if !c.config.NoRepeatTeammateFromPreviousEvent {
		return true
	}
	return !c.previousTeammatePairs[pair]
}

// opponentOK allows up to two matches against the same opponent pair in
// one event — a count-limit, not a strict uniqueness constraint.
func (c *checker) opponentOK(pairs [4]Pair, counts map[Pair]int) bool {
	if !c.config.NoRepeatOpponentInEvent {
		return true
	}
	for _, pair := range pairs {
		if counts[pair] >= 2 {
			return false
		}
	}
	return true
}

func (c *checker) ratingBalanced(team1Rating, team2Rating, eloDiff float64) bool {
	maxRating := team1Rating
	if team2Rating > maxRating {
		maxRating = team2Rating
	}
	if maxRating == 0 {
		return true
	}
	diff := team1Rating - team2Rating
	if diff < 0 {
		diff = -diff
	}
	return diff/maxRating <= eloDiff
}

// hardConstraintsOK checks the teammate/opponent rules only — the rating
// filter has already narrowed the candidate pool by this point.
func (c *checker) hardConstraintsOK(m candidateMatch, teammatePairs map[Pair]bool, opponentCounts map[Pair]int) bool {
	for _, pair := range m.teammatePairs() {
		if !c.teammateOKInEvent(pair, teammatePairs) {
			return false
		}
		if !c.teammateOKFromPrevious(pair) {
			return false
		}
	}
	return c.opponentOK(m.opponentPairs(), opponentCounts)
}

// SwapWarnings mirrors check_swap_warnings: a non-blocking check run after
// a swap to flag (not prevent) a teammate repeat from the previous event.
func SwapWarnings(config ConstraintConfig, previousTeammatePairs map[Pair]bool, gameAfterSwap *models.Game) []string {
	c := newChecker(config, previousTeammatePairs)
	var warnings []string
	for _, pair := range gameAfterSwap.TeammatePairs() {
		p := makePair(pair[0], pair[1])
		if !c.teammateOKFromPrevious(p) {
			warnings = append(warnings, "swap creates teammate repeat from previous event")
			break
		}
	}
	return warnings
}
