package pipeline

import "github.com/rewired-gh/bettips/internal/models"

// MockPicks returns the fixed sample picks shown when no provider data can be used.
func MockPicks() []models.BTTSGame {
	return []models.BTTSGame{
		{ID: "mock-1", Home: "Bayern Munich", Away: "Borussia Dortmund", Kickoff: "17:30", Probability: 88.7},
		{ID: "mock-2", Home: "Barcelona", Away: "Real Madrid", Kickoff: "20:00", Probability: 82.3},
		{ID: "mock-3", Home: "Arsenal", Away: "Manchester United", Kickoff: "15:00", Probability: 75.5},
		{ID: "mock-4", Home: "AC Milan", Away: "Juventus", Kickoff: "19:45", Probability: 70.2},
	}
}
