package dashboard

import (
	"chainstats/internal/analytics"
	"chainstats/internal/config"
)

// BaseScorer estimates a visitor's score from solved tiers only. Streak
// bonuses are not applied since anonymous visitors have no saved streak.
func BaseScorer(points config.ScorePoints) analytics.Scorer {
	return func(v analytics.VisitorActivity) int {
		score := 0
		for diff, n := range v.SolvedByDifficulty {
			switch diff {
			case analytics.DifficultyEasy:
				score += n * points.Easy
			case analytics.DifficultyHard:
				score += n * points.Hard
			case analytics.DifficultyImpossible:
				score += n * points.Impossible
			}
		}
		return score
	}
}
