// Package sportmonks implements the SportMonks v3 football provider: raw response
// types, the fixture normalizer and the endpoint calls.
package sportmonks

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/normalize"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// BTTSMarketID is the SportMonks market id of "Both Teams To Score".
const BTTSMarketID = 14

const bttsMarketName = "Both Teams To Score"

// Status codes after dictionary mapping.
const (
	StatusScheduled   = "SCHEDULED"
	StatusLive        = "LIVE"
	StatusFinished    = "FINISHED"
	StatusSuspended   = "SUSPENDED"
	StatusInterrupted = "INTERRUPTED"
	StatusPostponed   = "POSTPONED"
	StatusCancelled   = "CANCELLED"
	StatusAbandoned   = "ABANDONED"
	StatusAwarded     = "AWARDED"
	StatusWalkover    = "WALKOVER"
)

var statusDictionary = map[string]string{
	"NS":               StatusScheduled,
	"LIVE":             StatusLive,
	"HT":               StatusLive,
	"BREAK":            StatusLive,
	"INPLAY_1ST_HALF":  StatusLive,
	"INPLAY_2ND_HALF":  StatusLive,
	"INPLAY_ET":        StatusLive,
	"INPLAY_PENALTIES": StatusLive,
	"FT":               StatusFinished,
	"AET":              StatusFinished,
	"PEN":              StatusFinished,
	"FT_PEN":           StatusFinished,
	"SUSP":             StatusSuspended,
	"INT":              StatusInterrupted,
	"PST":              StatusPostponed,
	"POSTP":            StatusPostponed,
	"CANC":             StatusCancelled,
	"ABD":              StatusAbandoned,
	"AWD":              StatusAwarded,
	"AWARDED":          StatusAwarded,
	"WO":               StatusWalkover,
}

// state_id values used when the state relation was not included.
var stateIDCodes = map[int]string{
	1: "NS",
	2: "LIVE",
	3: "FT",
	5: "FT",
}

// MapStatus translates a SportMonks status code. Unknown codes pass through unchanged.
func MapStatus(code string) string {
	if mapped, ok := statusDictionary[strings.ToUpper(code)]; ok {
		return mapped
	}
	return code
}

// StateOf maps a dictionary status to the common fixture state.
// Anything not live or finished is treated as upcoming.
func StateOf(status string) models.FixtureState {
	switch status {
	case StatusLive:
		return models.StateLive
	case StatusFinished:
		return models.StateFinished
	default:
		return models.StateUpcoming
	}
}

// Normalizer converts SportMonks fixtures.
type Normalizer struct{}

// Provider implements normalize.Normalizer.
func (Normalizer) Provider() models.Provider {
	return models.ProviderSportmonks
}

// NormalizeFixture implements normalize.Normalizer.
func (n Normalizer) NormalizeFixture(raw json.RawMessage) (models.Fixture, error) {
	var rf rawFixture
	if err := json.Unmarshal(raw, &rf); err != nil {
		return models.Fixture{}, normalize.DecodeError(n.Provider(), err)
	}

	home, homeFound := findParticipant(rf.Participants, "home")
	away, awayFound := findParticipant(rf.Participants, "away")

	f := models.Fixture{
		ID:       rf.ID.String(),
		Provider: models.ProviderSportmonks,
		HomeTeam: models.Team{
			ID:   home.ID.String(),
			Name: normalize.TeamName(home.Name, models.PlaceholderHomeTeam),
			Logo: home.ImagePath,
		},
		AwayTeam: models.Team{
			ID:   away.ID.String(),
			Name: normalize.TeamName(away.Name, models.PlaceholderAwayTeam),
			Logo: away.ImagePath,
		},
		StartTime: rf.StartingAt,
		Score: models.Score{
			Home: models.IntPtr(currentGoals(rf.Scores, home, homeFound, "home")),
			Away: models.IntPtr(currentGoals(rf.Scores, away, awayFound, "away")),
		},
		Odds: flattenOdds(rf.Odds),
	}

	if rf.League.Set {
		f.League = leagueRef(rf.League.Value)
	} else {
		f.League = models.LeagueRef{Name: models.UnknownLeague}
	}

	code := MapStatus(statusCode(rf))
	f.Status = models.FixtureStatus{State: StateOf(code), Code: code}
	if f.Status.State == models.StateLive {
		f.Status.Elapsed = elapsed(rf.Periods)
	}

	return f, nil
}

func leagueRef(l rawLeague) models.LeagueRef {
	ref := models.LeagueRef{
		ID:      l.ID.String(),
		Name:    l.Name,
		Country: l.CountryID.String(),
		Logo:    l.ImagePath,
	}
	if l.Country.Set && l.Country.Value.Name != "" {
		ref.Country = l.Country.Value.Name
	}
	if ref.Name == "" {
		ref.Name = models.UnknownLeague
	}
	return ref
}

// findParticipant returns the first participant at location.
func findParticipant(participants []rawParticipant, location string) (rawParticipant, bool) {
	for _, p := range participants {
		if p.Meta.Location == location {
			return p, true
		}
	}
	return rawParticipant{}, false
}

// currentGoals finds the CURRENT score entry for one side, 0 when there is none.
func currentGoals(scores []rawScore, team rawParticipant, teamFound bool, location string) int {
	for _, s := range scores {
		if !strings.EqualFold(s.Description, "CURRENT") {
			continue
		}
		byID := teamFound && team.ID != "" && s.ParticipantID == team.ID
		if byID || s.Score.Participant == location {
			return s.Score.Goals.Value
		}
	}
	return 0
}

// statusCode picks the first state name the dictionary knows, falling back to the
// raw short name so unknown codes still pass through.
func statusCode(rf rawFixture) string {
	if rf.State.Set {
		candidates := []string{rf.State.Value.ShortName, rf.State.Value.State}
		for _, c := range candidates {
			if _, ok := statusDictionary[strings.ToUpper(c)]; ok {
				return c
			}
		}
		for _, c := range candidates {
			if c != "" {
				return c
			}
		}
	}
	if rf.StateID.Valid {
		if code, ok := stateIDCodes[rf.StateID.Value]; ok {
			return code
		}
	}
	return "NS"
}

func elapsed(periods []rawPeriod) *int {
	for _, p := range periods {
		if p.Ticking && p.Minutes.Valid {
			return p.Minutes.Ptr()
		}
	}
	return nil
}

// flattenOdds turns both odd shapes into one outcome per entry, keeping array order.
func flattenOdds(odds []rawOdd) []models.OddsEntry {
	var entries []models.OddsEntry
	for _, o := range odds {
		market := o.MarketDescription
		if market == "" && o.Market.Set {
			market = o.Market.Value.Name
		}
		bookmaker := o.BookmakerID.String()
		if o.Bookmaker.Set && o.Bookmaker.Value.Name != "" {
			bookmaker = o.Bookmaker.Value.Name
		}

		outcomes := o.Values
		if nested := nestedOutcomes(o.Value); len(nested) > 0 {
			outcomes = nested
			if market == "" {
				market = o.Name
			}
		}
		if market == "" && o.MarketID.Valid && o.MarketID.Value == BTTSMarketID {
			market = bttsMarketName
		}

		if len(outcomes) == 0 {
			label := o.Label
			if label == "" {
				label = o.Name
			}
			entries = append(entries, models.OddsEntry{
				Bookmaker: bookmaker,
				Market:    market,
				Label:     label,
				ValueID:   o.ValueID.String(),
				Value:     scalarValue(o.Value),
			})
			continue
		}

		for _, out := range outcomes {
			label, price := outcomeFields(out)
			entries = append(entries, models.OddsEntry{
				Bookmaker: bookmaker,
				Market:    market,
				Label:     label,
				ValueID:   out.ValueID.String(),
				Value:     price,
			})
		}
	}
	return entries
}

func nestedOutcomes(raw json.RawMessage) []rawOutcome {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil
	}
	var outcomes lenient[rawOutcome]
	if err := json.Unmarshal(trimmed, &outcomes); err != nil {
		return nil
	}
	return outcomes
}

// outcomeFields returns the label and price of a nested outcome. An object
// value names the outcome; a scalar value is the price unless "odds" is set.
func outcomeFields(out rawOutcome) (label, price string) {
	label = out.Label
	if label == "" {
		label = out.Name
	}

	trimmed := bytes.TrimSpace(out.Value)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var named struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		}
		if err := json.Unmarshal(trimmed, &named); err == nil && label == "" {
			label = named.Name
			if label == "" {
				label = named.Label
			}
		}
	} else {
		price = scalarValue(out.Value)
	}

	if out.Odds != "" {
		price = out.Odds.String()
	}
	return label, price
}

func scalarValue(raw json.RawMessage) string {
	var s sportsapi.FlexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s.String()
}
