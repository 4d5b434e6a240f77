// Package theoddsapi implements The Odds API v4 provider. Events carry no numeric
// team ids, so team names double as ids.
package theoddsapi

import (
	"encoding/json"
	"strings"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/normalize"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// BTTSMarketKey is the market key of "Both Teams To Score".
const BTTSMarketKey = "btts"

const bttsMarketName = "Both Teams To Score"

// Status codes reported in FixtureStatus.Code.
const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
)

type rawEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime string         `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Completed    bool           `json:"completed"`
	Scores       []rawScore     `json:"scores"`
	Bookmakers   []rawBookmaker `json:"bookmakers"`
}

type rawScore struct {
	Name  string            `json:"name"`
	Score sportsapi.FlexInt `json:"score"`
}

type rawBookmaker struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []rawMarket `json:"markets"`
}

type rawMarket struct {
	Key      string       `json:"key"`
	Outcomes []rawOutcome `json:"outcomes"`
}

type rawOutcome struct {
	Name  string               `json:"name"`
	Price sportsapi.FlexString `json:"price"`
}

// Normalizer converts The Odds API events.
type Normalizer struct{}

// Provider implements normalize.Normalizer.
func (Normalizer) Provider() models.Provider {
	return models.ProviderTheOddsAPI
}

// NormalizeFixture implements normalize.Normalizer. Scores stay nil when the event
// has none; an event with scores that is not completed is live.
func (n Normalizer) NormalizeFixture(raw json.RawMessage) (models.Fixture, error) {
	var ev rawEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return models.Fixture{}, normalize.DecodeError(n.Provider(), err)
	}

	f := models.Fixture{
		ID:        ev.ID,
		Provider:  models.ProviderTheOddsAPI,
		HomeTeam:  models.Team{ID: ev.HomeTeam, Name: normalize.TeamName(ev.HomeTeam, models.PlaceholderHomeTeam)},
		AwayTeam:  models.Team{ID: ev.AwayTeam, Name: normalize.TeamName(ev.AwayTeam, models.PlaceholderAwayTeam)},
		League:    models.LeagueRef{ID: ev.SportKey, Name: leagueName(ev)},
		StartTime: ev.CommenceTime,
		Score: models.Score{
			Home: scoreFor(ev.Scores, ev.HomeTeam),
			Away: scoreFor(ev.Scores, ev.AwayTeam),
		},
		Odds: flattenOdds(ev.Bookmakers),
	}

	switch {
	case ev.Completed:
		f.Status = models.FixtureStatus{State: models.StateFinished, Code: StatusFinished}
	case len(ev.Scores) > 0:
		f.Status = models.FixtureStatus{State: models.StateLive, Code: StatusLive}
	default:
		f.Status = models.FixtureStatus{State: models.StateUpcoming, Code: StatusScheduled}
	}

	return f, nil
}

var sportTitles = map[string]string{
	"basketball_nba": "NBA",
	"baseball_mlb":   "MLB",
}

func leagueName(ev rawEvent) string {
	if ev.SportTitle != "" {
		return ev.SportTitle
	}
	if title, ok := sportTitles[ev.SportKey]; ok {
		return title
	}
	if strings.HasPrefix(ev.SportKey, "soccer") {
		return "Soccer"
	}
	return models.UnknownLeague
}

func scoreFor(scores []rawScore, team string) *int {
	if team == "" {
		return nil
	}
	for _, s := range scores {
		if s.Name == team {
			return s.Score.Ptr()
		}
	}
	return nil
}

// flattenOdds emits one entry per outcome in bookmaker, market, outcome order.
func flattenOdds(bookmakers []rawBookmaker) []models.OddsEntry {
	var entries []models.OddsEntry
	for _, b := range bookmakers {
		bookmaker := b.Title
		if bookmaker == "" {
			bookmaker = b.Key
		}
		for _, m := range b.Markets {
			market := m.Key
			if m.Key == BTTSMarketKey {
				market = bttsMarketName
			}
			for _, o := range m.Outcomes {
				entries = append(entries, models.OddsEntry{
					Bookmaker: bookmaker,
					Market:    market,
					Label:     o.Name,
					Value:     o.Price.String(),
				})
			}
		}
	}
	return entries
}
