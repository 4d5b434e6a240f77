package sportmonks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/normalize"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

const (
	defaultLiveInclude = "league;scores;participants;state;periods"
	dateInclude        = "today.scores;today.participants;today.state;today.stage;today.group;today.round"
	oddsInclude        = "participants;odds.market;odds.bookmaker;league.country;state"
	roundInclude       = "fixtures.odds.market;fixtures.odds.bookmaker;fixtures.participants;league.country"
	playerInclude      = "stats;team"
	datePageSize       = "100"
)

// Config holds the SportMonks-specific request options.
type Config struct {
	Include     string // include list for the live endpoint
	BookmakerID string // optional odds bookmaker filter
}

// Source fetches and normalizes SportMonks data.
type Source struct {
	Normalizer
	client sportsapi.Getter
	cfg    Config
}

// New creates a SportMonks source on top of client.
func New(client sportsapi.Getter, cfg Config) *Source {
	if cfg.Include == "" {
		cfg.Include = defaultLiveInclude
	}
	return &Source{client: client, cfg: cfg}
}

// LiveFixtures returns in-play fixtures grouped by league.
// SportMonks only covers football; other sports yield no leagues.
func (s *Source) LiveFixtures(ctx context.Context, sport models.Sport) ([]models.League, error) {
	if sport != models.SportFootball {
		logger.Debug("SportMonks has no %s coverage", sport)
		return nil, nil
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint:    "/football/livescores/inplay",
		Query:       url.Values{"include": {s.cfg.Include}},
		BypassCache: true,
	})
	if err != nil {
		return nil, err
	}

	items, err := sportsapi.ExtractArray(body, "data")
	if err != nil {
		return nil, err
	}
	fixtures, skipped := normalize.All(s, items)
	if skipped > 0 {
		logger.Warn("Skipped %d malformed SportMonks live fixtures", skipped)
	}
	return normalize.GroupByLeague(fixtures), nil
}

// FixturesByDate returns the fixtures of date (YYYY-MM-DD) grouped by league.
// Leagues without fixtures on that day are left out.
func (s *Source) FixturesByDate(ctx context.Context, sport models.Sport, date string) ([]models.League, error) {
	if sport != models.SportFootball {
		logger.Debug("SportMonks has no %s coverage", sport)
		return nil, nil
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint: "/football/leagues/date/" + url.PathEscape(date),
		Query:    url.Values{"include": {dateInclude}, "per_page": {datePageSize}},
	})
	if err != nil {
		return nil, err
	}

	items, err := sportsapi.ExtractArray(body, "data")
	if err != nil {
		return nil, err
	}

	leagues := make([]models.League, 0, len(items))
	for _, item := range items {
		var day rawLeagueDay
		if err := json.Unmarshal(item, &day); err != nil {
			logger.Warn("Skipping malformed SportMonks league: %v", err)
			continue
		}
		ref := leagueRef(day.rawLeague)
		fixtures, _ := normalize.All(s, day.Today)
		if len(fixtures) == 0 {
			continue
		}
		for i := range fixtures {
			fixtures[i].League = ref
		}
		leagues = append(leagues, models.League{
			ID:       ref.ID,
			Name:     ref.Name,
			Country:  ref.Country,
			Logo:     ref.Logo,
			Fixtures: fixtures,
		})
	}

	if len(leagues) == 0 {
		return nil, sportsapi.NewError(sportsapi.KindMissingData, "fixtures by date",
			fmt.Errorf("no fixtures on %s", date))
	}
	return leagues, nil
}

// OddsFixtures returns fixtures of date carrying BTTS odds.
func (s *Source) OddsFixtures(ctx context.Context, date string, refresh bool) ([]models.Fixture, error) {
	filters := fmt.Sprintf("markets:%d", BTTSMarketID)
	if s.cfg.BookmakerID != "" {
		filters += ";bookmakers:" + s.cfg.BookmakerID
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint:    "/football/fixtures/date/" + url.PathEscape(date),
		Query:       url.Values{"include": {oddsInclude}, "filters": {filters}},
		BypassCache: refresh,
	})
	if err != nil {
		return nil, err
	}
	return s.ParseFixtures(body)
}

// RoundFixtures returns the fixtures of a round with their BTTS odds.
func (s *Source) RoundFixtures(ctx context.Context, roundID string) ([]models.Fixture, error) {
	filters := fmt.Sprintf("markets:%d", BTTSMarketID)
	if s.cfg.BookmakerID != "" {
		filters += ";bookmakers:" + s.cfg.BookmakerID
	}

	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint: "/football/rounds/" + url.PathEscape(roundID),
		Query:    url.Values{"include": {roundInclude}, "filters": {filters}},
	})
	if err != nil {
		return nil, err
	}
	return s.ParseFixtures(body)
}

// fixturePaths lists where fixture arrays live: a round payload, a plain list and
// a bare export with a top-level "fixtures" key.
var fixturePaths = [][]string{
	{"data", "fixtures"},
	{"data"},
	{"fixtures"},
}

// ParseFixtures normalizes every fixture found in an already fetched body.
func (s *Source) ParseFixtures(body []byte) ([]models.Fixture, error) {
	var lastErr error
	for _, path := range fixturePaths {
		items, err := sportsapi.ExtractArray(body, path...)
		if err != nil {
			if sportsapi.KindOf(err) == sportsapi.KindMalformedResponse {
				return nil, err
			}
			lastErr = err
			continue
		}
		fixtures, skipped := normalize.All(s, items)
		if skipped > 0 {
			logger.Warn("Skipped %d malformed SportMonks fixtures", skipped)
		}
		return fixtures, nil
	}
	return nil, lastErr
}

// PlayerStats returns the statistics record of one player.
func (s *Source) PlayerStats(ctx context.Context, playerID string) (models.PlayerStat, error) {
	body, err := s.client.Get(ctx, sportsapi.Request{
		Endpoint: "/football/players/" + url.PathEscape(playerID),
		Query:    url.Values{"include": {playerInclude}},
	})
	if err != nil {
		return models.PlayerStat{}, err
	}

	var payload struct {
		Data *rawPlayer `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.PlayerStat{}, sportsapi.NewError(sportsapi.KindMalformedResponse, "player stats", err)
	}
	if payload.Data == nil {
		return models.PlayerStat{}, sportsapi.NewError(sportsapi.KindMissingData, "player stats",
			fmt.Errorf("player %s not found", playerID))
	}

	p := payload.Data
	stat := models.PlayerStat{
		PlayerID:   p.ID.String(),
		PlayerName: firstNonEmpty(p.DisplayName, p.Name, "Unknown Player"),
		TeamName:   "Unknown Team",
		Stats:      decodeStats(p.Stats),
	}
	if p.Team.Set {
		stat.TeamID = p.Team.Value.ID.String()
		stat.TeamName = firstNonEmpty(p.Team.Value.Name, stat.TeamName)
	}
	return stat, nil
}

func decodeStats(raw json.RawMessage) map[string]interface{} {
	stats := make(map[string]interface{})
	if len(raw) == 0 {
		return stats
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return stats
	}
	switch typed := v.(type) {
	case map[string]interface{}:
		return typed
	case []interface{}:
		stats["seasons"] = typed
	}
	return stats
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
