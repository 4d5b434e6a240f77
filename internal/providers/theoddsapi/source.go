package theoddsapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/normalize"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// DefaultSportKeys maps each sport to the key used in /sports/{key}/... paths.
var DefaultSportKeys = map[models.Sport]string{
	models.SportFootball:   "soccer",
	models.SportBasketball: "basketball_nba",
	models.SportBaseball:   "baseball_mlb",
}

// Config holds The Odds API request options.
type Config struct {
	Regions   string // e.g. "uk,eu"
	SportKeys map[models.Sport]string
}

// Source fetches and normalizes The Odds API data.
type Source struct {
	Normalizer
	client sportsapi.Getter
	cfg    Config
}

// New creates a source on top of client.
func New(client sportsapi.Getter, cfg Config) *Source {
	if cfg.Regions == "" {
		cfg.Regions = "uk,eu"
	}
	keys := make(map[models.Sport]string, len(DefaultSportKeys))
	for sport, key := range DefaultSportKeys {
		keys[sport] = key
	}
	for sport, key := range cfg.SportKeys {
		keys[sport] = key
	}
	cfg.SportKeys = keys
	return &Source{client: client, cfg: cfg}
}

func (s *Source) sportKey(sport models.Sport) (string, error) {
	key, ok := s.cfg.SportKeys[sport]
	if !ok {
		return "", fmt.Errorf("no sport key for %s", sport)
	}
	return key, nil
}

// LiveFixtures returns events that have started and are not completed.
// Scores come from the scores endpoint since the odds endpoint carries none.
func (s *Source) LiveFixtures(ctx context.Context, sport models.Sport) ([]models.League, error) {
	key, err := s.sportKey(sport)
	if err != nil {
		return nil, err
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint:    "/sports/" + key + "/scores",
		Query:       url.Values{"dateFormat": {"iso"}},
		BypassCache: true,
	})
	if err != nil {
		return nil, err
	}

	fixtures, err := s.ParseFixtures(body)
	if err != nil {
		return nil, err
	}

	live := fixtures[:0:0]
	for _, f := range fixtures {
		if f.Status.State == models.StateLive {
			live = append(live, f)
		}
	}
	return normalize.GroupByLeague(live), nil
}

// FixturesByDate returns events commencing on date (YYYY-MM-DD, UTC). The API
// has no date filter so events are filtered after the fetch.
func (s *Source) FixturesByDate(ctx context.Context, sport models.Sport, date string) ([]models.League, error) {
	fixtures, err := s.fetchOdds(ctx, sport, "h2h", false)
	if err != nil {
		return nil, err
	}
	return normalize.GroupByLeague(OnDate(fixtures, date)), nil
}

// OddsFixtures returns football events of date with BTTS odds.
func (s *Source) OddsFixtures(ctx context.Context, date string, refresh bool) ([]models.Fixture, error) {
	fixtures, err := s.fetchOdds(ctx, models.SportFootball, BTTSMarketKey, refresh)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return fixtures, nil
	}
	return OnDate(fixtures, date), nil
}

func (s *Source) fetchOdds(ctx context.Context, sport models.Sport, markets string, refresh bool) ([]models.Fixture, error) {
	key, err := s.sportKey(sport)
	if err != nil {
		return nil, err
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint: "/sports/" + key + "/odds",
		Query: url.Values{
			"regions":    {s.cfg.Regions},
			"markets":    {markets},
			"dateFormat": {"iso"},
			"oddsFormat": {"decimal"},
		},
		BypassCache: refresh,
	})
	if err != nil {
		return nil, err
	}
	return s.ParseFixtures(body)
}

// ParseFixtures normalizes a body that is either a bare event array or wrapped in "data".
func (s *Source) ParseFixtures(body []byte) ([]models.Fixture, error) {
	items, err := sportsapi.ExtractArray(body)
	if err != nil {
		return nil, err
	}

	fixtures, skipped := normalize.All(s, items)
	if skipped > 0 {
		logger.Warn("Skipped %d malformed The Odds API events", skipped)
	}
	return fixtures, nil
}

// OnDate keeps fixtures whose start time falls on date in UTC.
// Fixtures with an unparsable start time are dropped.
func OnDate(fixtures []models.Fixture, date string) []models.Fixture {
	out := make([]models.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		start, err := time.Parse(time.RFC3339, f.StartTime)
		if err != nil {
			continue
		}
		if start.UTC().Format("2006-01-02") == date {
			out = append(out, f)
		}
	}
	return out
}

// PlayerStats returns a placeholder; The Odds API has no player data.
func (s *Source) PlayerStats(_ context.Context, playerID string) (models.PlayerStat, error) {
	return models.PlayerStat{
		PlayerID:   playerID,
		PlayerName: "Player information not available",
		TeamName:   "Team information not available",
		Stats:      map[string]interface{}{},
	}, nil
}

var _ normalize.Normalizer = (*Source)(nil)
