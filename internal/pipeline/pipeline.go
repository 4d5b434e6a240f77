// Package pipeline runs the fetch → validate → normalize → derive → rank flow
// against whichever provider the selector has active.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/bettips/internal/btts"
	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/normalize"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// Source is one provider's data access plus its normalizer.
type Source interface {
	normalize.Normalizer
	LiveFixtures(ctx context.Context, sport models.Sport) ([]models.League, error)
	FixturesByDate(ctx context.Context, sport models.Sport, date string) ([]models.League, error)
	OddsFixtures(ctx context.Context, date string, refresh bool) ([]models.Fixture, error)
	ParseFixtures(body []byte) ([]models.Fixture, error)
	PlayerStats(ctx context.Context, playerID string) (models.PlayerStat, error)
}

// RoundSource is implemented by providers that can list the fixtures of a round.
type RoundSource interface {
	RoundFixtures(ctx context.Context, roundID string) ([]models.Fixture, error)
}

// ProviderSelector is the part of selector.Selector the service reads.
type ProviderSelector interface {
	Snapshot() (models.Provider, uint64)
}

// Config tunes the service.
type Config struct {
	MinProbability float64        // default pick threshold, 0 disables it
	Location       *time.Location // kickoff display and "today"
	KickoffLayout  string
}

// PickOptions narrows a BTTSPicks call.
type PickOptions struct {
	Date           string   // YYYY-MM-DD, defaults to today in the configured location
	RoundID        string   // provider round instead of a date, where supported
	MinProbability *float64 // overrides Config.MinProbability
	Refresh        bool     // bypass the response cache
}

// Service composes the pipeline stages.
type Service struct {
	selector ProviderSelector
	sources  map[models.Provider]Source
	cfg      Config
	kickoff  btts.KickoffFormatter
	now      func() time.Time
}

// New creates a Service. sources maps each provider to its implementation.
func New(sel ProviderSelector, sources map[models.Provider]Source, cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		selector: sel,
		sources:  sources,
		cfg:      cfg,
		kickoff:  btts.NewKickoffFormatter(cfg.Location, cfg.KickoffLayout),
		now:      time.Now,
	}
}

// begin resolves the active provider and opens a Result for it.
func (s *Service) begin() (Source, Result, error) {
	provider, gen := s.selector.Snapshot()
	res := Result{
		RunID:      uuid.New().String(),
		Provider:   provider,
		Generation: gen,
		FetchedAt:  s.now(),
	}
	src, err := s.source(provider)
	if err != nil {
		return nil, res, err
	}
	return src, res, nil
}

func (s *Service) source(provider models.Provider) (Source, error) {
	src, ok := s.sources[provider]
	if !ok {
		return nil, &sportsapi.Error{
			Kind:     sportsapi.KindUnsupportedProvider,
			Op:       "resolve provider",
			Provider: string(provider),
			Err:      fmt.Errorf("provider %s not implemented", provider),
		}
	}
	return src, nil
}

// Today returns today's date in the configured location.
func (s *Service) Today() string {
	return s.now().In(s.cfg.Location).Format("2006-01-02")
}

// LiveFixtures returns in-play fixtures of sport grouped by league.
func (s *Service) LiveFixtures(ctx context.Context, sport models.Sport) (Result, error) {
	src, res, err := s.begin()
	if err != nil {
		return res, err
	}

	leagues, err := src.LiveFixtures(ctx, sport)
	return s.finishLeagues(res, leagues, err, "live "+string(sport)), nil
}

// FixturesByDate returns fixtures of sport on date grouped by league.
func (s *Service) FixturesByDate(ctx context.Context, sport models.Sport, date string) (Result, error) {
	src, res, err := s.begin()
	if err != nil {
		return res, err
	}
	if date == "" {
		date = s.Today()
	}

	leagues, err := src.FixturesByDate(ctx, sport, date)
	return s.finishLeagues(res, leagues, err, string(sport)+" on "+date), nil
}

func (s *Service) finishLeagues(res Result, leagues []models.League, err error, what string) Result {
	if err != nil {
		if sportsapi.IsEmpty(err) {
			res.empty("fixtures")
			return res
		}
		logFailure(err, "Failed to fetch %s fixtures from %s: %v", what, res.Provider, err)
		res.fail(err)
		return res
	}
	if len(leagues) == 0 {
		res.empty("fixtures")
		return res
	}

	res.Leagues = leagues
	logger.Info("Fetched %d leagues of %s fixtures from %s", len(leagues), what, res.Provider)
	return res
}

// BTTSPicks fetches odds-bearing fixtures and returns ranked BTTS picks.
func (s *Service) BTTSPicks(ctx context.Context, opts PickOptions) (Result, error) {
	src, res, err := s.begin()
	if err != nil {
		return res, err
	}

	var fixtures []models.Fixture
	if opts.RoundID != "" {
		rs, ok := src.(RoundSource)
		if !ok {
			return res, &sportsapi.Error{
				Kind:     sportsapi.KindUnsupportedProvider,
				Op:       "round fixtures",
				Provider: string(res.Provider),
				Err:      fmt.Errorf("%s has no round lookup", res.Provider),
			}
		}
		fixtures, err = rs.RoundFixtures(ctx, opts.RoundID)
	} else {
		date := opts.Date
		if date == "" {
			date = s.Today()
		}
		fixtures, err = src.OddsFixtures(ctx, date, opts.Refresh)
	}

	return s.finishPicks(res, fixtures, err, s.threshold(opts)), nil
}

// ProcessRaw runs validation onward over a body that was fetched elsewhere.
func (s *Service) ProcessRaw(provider models.Provider, body []byte) (Result, error) {
	res := Result{RunID: uuid.New().String(), Provider: provider, FetchedAt: s.now()}
	src, err := s.source(provider)
	if err != nil {
		return res, err
	}

	fixtures, err := src.ParseFixtures(body)
	return s.finishPicks(res, fixtures, err, s.cfg.MinProbability), nil
}

func (s *Service) finishPicks(res Result, fixtures []models.Fixture, err error, minProbability float64) Result {
	if err != nil {
		if sportsapi.IsEmpty(err) {
			res.empty("BTTS picks")
			return res
		}
		logFailure(err, "Failed to fetch BTTS fixtures from %s: %v", res.Provider, err)
		res.fail(err)
		return res
	}

	picks := btts.Rank(btts.Derive(fixtures, s.kickoff), minProbability)
	if len(picks) == 0 {
		res.empty("BTTS picks")
		return res
	}

	res.Picks = picks
	logger.Info("Derived %d BTTS picks from %d %s fixtures", len(picks), len(fixtures), res.Provider)
	return res
}

func (s *Service) threshold(opts PickOptions) float64 {
	if opts.MinProbability != nil {
		return *opts.MinProbability
	}
	return s.cfg.MinProbability
}

// PlayerStats returns one player's statistics from the active provider.
func (s *Service) PlayerStats(ctx context.Context, playerID string) (Result, error) {
	src, res, err := s.begin()
	if err != nil {
		return res, err
	}

	stat, err := src.PlayerStats(ctx, playerID)
	if err != nil {
		if sportsapi.IsEmpty(err) {
			res.empty("player statistics")
			return res, nil
		}
		logFailure(err, "Failed to fetch player %s from %s: %v", playerID, res.Provider, err)
		res.fail(err)
		return res, nil
	}

	res.Player = &stat
	return res, nil
}

// logFailure logs at warn level for a missing credential, which is expected in
// development, and at error level otherwise.
func logFailure(err error, format string, args ...interface{}) {
	if sportsapi.KindOf(err) == sportsapi.KindMissingCredential {
		logger.Warn(format, args...)
		return
	}
	logger.Error(format, args...)
}
