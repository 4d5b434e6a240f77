package models

import "errors"

// BTTSGame is a derived "Both Teams To Score" pick.
// Probability is the bookmaker-implied percentage and is not clamped to [0, 100].
type BTTSGame struct {
	ID          string  `json:"id"`
	FixtureID   string  `json:"fixture_id,omitempty"`
	Home        string  `json:"home"`
	Away        string  `json:"away"`
	Kickoff     string  `json:"kickoff"`
	StartTime   string  `json:"start_time,omitempty"`
	Probability float64 `json:"probability"`
	Bookmaker   string  `json:"bookmaker,omitempty"`
	Odds        string  `json:"odds,omitempty"`
}

// Validate checks that the pick names both teams and carries a probability.
func (g *BTTSGame) Validate() error {
	if g.Home == "" {
		return errors.New("home team must not be empty")
	}
	if g.Away == "" {
		return errors.New("away team must not be empty")
	}
	if g.Probability < 0 {
		return errors.New("probability must not be negative")
	}
	return nil
}
