// internal/ratings/factory.go
// Maps a group's rating_system tag to a concrete engine

package ratings

import "matchcore/internal/models"

// NewEngine builds the concrete engine for a rating system tag. eloConst
// of 0 means "use the engine's own default" (400.0 for Serious/Catch-Up,
// 0.3 for Rac's), matching the reference factory's optional-elo_const
// behavior.
func NewEngine(system models.RatingSystem, kFactor float64, eloConst float64) Engine {
	switch system {
	case models.RatingSystemCatchUp:
		if eloConst == 0 {
			eloConst = 400.0
		}
		return NewCatchUpElo(kFactor, eloConst)
	case models.RatingSystemRacsElo:
		if eloConst == 0 {
			eloConst = 0.3
		}
		return NewRacsElo(kFactor, eloConst)
	default:
		if eloConst == 0 {
			eloConst = 400.0
		}
		return NewSeriousElo(kFactor, eloConst)
	}
}
