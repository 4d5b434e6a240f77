// Package btts derives "Both Teams To Score" picks from normalized fixtures and
// ranks them.
//
// Probabilities are bookmaker-implied: round(100 / decimal odds), with no overround
// adjustment.
package btts

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/bettips/internal/models"
)

const marketPhrase = "both teams to score"

var hundred = decimal.NewFromInt(100)

// FindYes returns the first "Yes" outcome of a BTTS market in array order.
func FindYes(odds []models.OddsEntry) (models.OddsEntry, bool) {
	for _, o := range odds {
		if !strings.Contains(strings.ToLower(o.Market), marketPhrase) {
			continue
		}
		if isYes(o) {
			return o, true
		}
	}
	return models.OddsEntry{}, false
}

// isYes accepts "Yes", verbose labels such as "Both Teams To Score - Yes" or
// "BTTS: Yes", and an unlabeled outcome with value id 1.
func isYes(o models.OddsEntry) bool {
	label := strings.ToLower(strings.TrimSpace(o.Label))
	if label == "" {
		return o.ValueID == "1"
	}
	if label == "yes" {
		return true
	}
	if !strings.HasSuffix(label, "yes") {
		return false
	}
	prefix := strings.TrimSpace(strings.TrimSuffix(label, "yes"))
	return strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, ":")
}

// ImpliedProbability converts decimal odds to a whole-number percentage,
// rounding half away from zero. It reports false unless the odds parse as a
// positive number whose probability fits a float64.
func ImpliedProbability(value string) (float64, bool) {
	odds, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || !odds.IsPositive() {
		return 0, false
	}
	p, _ := hundred.DivRound(odds, 8).Round(0).Float64()
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return 0, false
	}
	return p, true
}

// KickoffFormatter renders a fixture start time for display.
type KickoffFormatter func(startTime string) string

// startLayouts are the start time formats the providers send.
var startLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// NewKickoffFormatter formats start times with layout in loc. Start times
// without a zone are read as UTC. Empty or unparsable values become "TBD".
func NewKickoffFormatter(loc *time.Location, layout string) KickoffFormatter {
	if loc == nil {
		loc = time.UTC
	}
	if layout == "" {
		layout = "15:04"
	}
	return func(startTime string) string {
		t, ok := ParseStartTime(startTime)
		if !ok {
			return "TBD"
		}
		return t.In(loc).Format(layout)
	}
}

// ParseStartTime parses a provider start time.
func ParseStartTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Derive builds one pick per fixture that has a BTTS "Yes" price. Fixtures
// without one are skipped. Output follows input order.
func Derive(fixtures []models.Fixture, kickoff KickoffFormatter) []models.BTTSGame {
	if kickoff == nil {
		kickoff = NewKickoffFormatter(time.UTC, "")
	}

	games := make([]models.BTTSGame, 0, len(fixtures))
	for _, f := range fixtures {
		yes, ok := FindYes(f.Odds)
		if !ok {
			continue
		}
		p, ok := ImpliedProbability(yes.Value)
		if !ok {
			continue
		}
		games = append(games, models.BTTSGame{
			ID:          uuid.New().String(),
			FixtureID:   f.ID,
			Home:        f.HomeTeam.Name,
			Away:        f.AwayTeam.Name,
			Kickoff:     kickoff(f.StartTime),
			StartTime:   f.StartTime,
			Probability: p,
			Bookmaker:   yes.Bookmaker,
			Odds:        yes.Value,
		})
	}
	return games
}
