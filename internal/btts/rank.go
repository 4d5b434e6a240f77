package btts

import (
	"sort"

	"github.com/rewired-gh/bettips/internal/models"
)

// Rank drops games below minProbability (when it is positive) and sorts the rest
// by probability, highest first. Ties keep their input order. games is not modified.
func Rank(games []models.BTTSGame, minProbability float64) []models.BTTSGame {
	ranked := make([]models.BTTSGame, 0, len(games))
	for _, g := range games {
		if minProbability > 0 && g.Probability < minProbability {
			continue
		}
		ranked = append(ranked, g)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	return ranked
}
