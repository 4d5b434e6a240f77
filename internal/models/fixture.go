package models

import "errors"

// Placeholder team names used when provider data lacks a home or away participant.
const (
	PlaceholderHomeTeam = "Home Team"
	PlaceholderAwayTeam = "Away Team"
	UnknownLeague       = "Unknown League"
)

// FixtureState is the provider-independent lifecycle state of a fixture.
type FixtureState string

const (
	StateUpcoming FixtureState = "upcoming"
	StateLive     FixtureState = "live"
	StateFinished FixtureState = "finished"
)

// Team is one side of a fixture.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// LeagueRef is the league a fixture belongs to.
type LeagueRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

// FixtureStatus carries the common state plus the provider's own status code.
type FixtureStatus struct {
	State   FixtureState `json:"status"`
	Elapsed *int         `json:"elapsed,omitempty"` // minutes played, live fixtures only
	Code    string       `json:"code,omitempty"`    // provider status after dictionary mapping
}

// Score holds the current goals per side. Nil means the provider reported nothing.
type Score struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// OddsEntry is a single quoted outcome of a market at one bookmaker.
// Value keeps the decimal odds exactly as the provider sent them.
type OddsEntry struct {
	Bookmaker string `json:"bookmaker,omitempty"`
	Market    string `json:"market"`
	Label     string `json:"label"`
	ValueID   string `json:"value_id,omitempty"`
	Value     string `json:"value"`
}

// Fixture is the normalized match record shared by all providers.
type Fixture struct {
	ID        string        `json:"id"`
	Provider  Provider      `json:"provider"`
	HomeTeam  Team          `json:"home_team"`
	AwayTeam  Team          `json:"away_team"`
	League    LeagueRef     `json:"league"`
	StartTime string        `json:"start_time"`
	Status    FixtureStatus `json:"status"`
	Score     Score         `json:"score"`
	Odds      []OddsEntry   `json:"odds,omitempty"`
}

// Validate checks that the fixture satisfies the normalized-record invariants.
func (f *Fixture) Validate() error {
	if f.HomeTeam.Name == "" {
		return errors.New("home team name must not be empty")
	}
	if f.AwayTeam.Name == "" {
		return errors.New("away team name must not be empty")
	}
	switch f.Status.State {
	case StateUpcoming, StateLive, StateFinished:
	default:
		return errors.New("status must be one of upcoming, live, finished")
	}
	if f.Status.Elapsed != nil && f.Status.State != StateLive {
		return errors.New("elapsed minutes are only valid for live fixtures")
	}
	return nil
}

// League groups fixtures. Grouping is provider-defined and fixture order is not significant.
type League struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Country  string    `json:"country,omitempty"`
	Logo     string    `json:"logo,omitempty"`
	Fixtures []Fixture `json:"fixtures"`
}

// PlayerStat is a provider's statistics record for one player.
type PlayerStat struct {
	PlayerID   string                 `json:"player_id"`
	PlayerName string                 `json:"player_name"`
	TeamID     string                 `json:"team_id"`
	TeamName   string                 `json:"team_name"`
	Stats      map[string]interface{} `json:"stats"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
