// Package refresher periodically re-runs the pipeline so the API and chat
// surfaces can answer from recent data, and reports failures and recoveries
// to an optional notifier.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
)

// Service is the part of pipeline.Service the refresher drives.
type Service interface {
	BTTSPicks(ctx context.Context, opts pipeline.PickOptions) (pipeline.Result, error)
	LiveFixtures(ctx context.Context, sport models.Sport) (pipeline.Result, error)
}

// Notifier receives cycle outcomes. telegram.Client implements it.
type Notifier interface {
	SendPicks(games []models.BTTSGame) error
	SendError(err error) error
	SendRecovery(consecutiveFailures int) error
}

// Config controls the schedule.
type Config struct {
	Interval time.Duration
	Sport    models.Sport // sport of the live view, football when empty
}

// Refresher runs refresh cycles on a cron schedule. Cycles never overlap.
type Refresher struct {
	svc      Service
	board    *Board
	notifier Notifier
	cfg      Config
	cron     *cron.Cron

	mu                  sync.Mutex
	ctx                 context.Context
	consecutiveFailures int
	lastSent            string
}

type cronLogger struct{}

func (cronLogger) Printf(format string, args ...interface{}) {
	logger.Debug(format, args...)
}

// New creates a Refresher. notifier may be nil.
func New(svc Service, board *Board, notifier Notifier, cfg Config) (*Refresher, error) {
	if cfg.Interval < time.Second {
		return nil, fmt.Errorf("refresh interval %v must be at least 1s", cfg.Interval)
	}
	if cfg.Sport == "" {
		cfg.Sport = models.SportFootball
	}

	r := &Refresher{
		svc:      svc,
		board:    board,
		notifier: notifier,
		cfg:      cfg,
		ctx:      context.Background(),
	}

	printf := cron.PrintfLogger(cronLogger{})
	r.cron = cron.New(
		cron.WithLogger(printf),
		cron.WithChain(cron.Recover(printf), cron.SkipIfStillRunning(printf)),
	)
	if _, err := r.cron.AddFunc("@every "+cfg.Interval.String(), r.tick); err != nil {
		return nil, fmt.Errorf("failed to schedule refresh: %w", err)
	}
	return r, nil
}

// Start runs one cycle immediately and then keeps refreshing until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	logger.Info("Starting refresher (interval: %v, live sport: %s)", r.cfg.Interval, r.cfg.Sport)
	r.tick()
	r.cron.Start()

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
		logger.Info("Refresher stopped")
	}()
}

func (r *Refresher) tick() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	r.handleCycleResult(r.RunOnce(ctx))
}

// RunOnce fetches picks and live fixtures once and stores them on the board.
// Empty provider data is not an error.
func (r *Refresher) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	logger.Debug("Starting refresh cycle")

	var errs []error

	picks, err := r.svc.BTTSPicks(ctx, pipeline.PickOptions{Refresh: true})
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("btts picks: %w", err))
	case picks.Failed():
		errs = append(errs, fmt.Errorf("btts picks: %w", picks.Err()))
	}
	if err == nil {
		if r.board.StorePicks(picks) {
			r.notifyPicks(picks)
		} else {
			logger.Info("Dropped stale BTTS picks from %s (generation %d)", picks.Provider, picks.Generation)
		}
	}

	live, err := r.svc.LiveFixtures(ctx, r.cfg.Sport)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("live fixtures: %w", err))
	case live.Failed():
		errs = append(errs, fmt.Errorf("live fixtures: %w", live.Err()))
	}
	if err == nil && !r.board.StoreLive(r.cfg.Sport, live) {
		logger.Info("Dropped stale live fixtures from %s (generation %d)", live.Provider, live.Generation)
	}

	logger.Info("Refresh cycle completed in %v (%d picks, %d live leagues)",
		time.Since(startTime), len(picks.Picks), len(live.Leagues))
	return errors.Join(errs...)
}

// handleCycleResult reports the first failure of a streak and the recovery after it.
func (r *Refresher) handleCycleResult(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.consecutiveFailures++
		logger.Error("Refresh cycle failed: %v", err)
		if r.consecutiveFailures == 1 && r.notifier != nil {
			if sendErr := r.notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		}
		return
	}

	if r.consecutiveFailures > 0 && r.notifier != nil {
		if sendErr := r.notifier.SendRecovery(r.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification: %v", sendErr)
		}
	}
	r.consecutiveFailures = 0
}

// ConsecutiveFailures returns the length of the current failure streak.
func (r *Refresher) ConsecutiveFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.consecutiveFailures
}

// notifyPicks sends a digest when the ranked picks differ from the last one sent.
func (r *Refresher) notifyPicks(res pipeline.Result) {
	if r.notifier == nil || len(res.Picks) == 0 {
		return
	}

	key := digestKey(res.Picks)
	r.mu.Lock()
	if key == r.lastSent {
		r.mu.Unlock()
		logger.Debug("BTTS picks unchanged, skipping digest")
		return
	}
	r.mu.Unlock()

	if err := r.notifier.SendPicks(res.Picks); err != nil {
		logger.Error("Failed to send BTTS digest: %v", err)
		return
	}

	r.mu.Lock()
	r.lastSent = key
	r.mu.Unlock()
	logger.Info("Sent BTTS digest with %d picks", len(res.Picks))
}

func digestKey(games []models.BTTSGame) string {
	var b strings.Builder
	for _, g := range games {
		fmt.Fprintf(&b, "%s|%s|%s|%.1f;", g.FixtureID, g.Home, g.Away, g.Probability)
	}
	return b.String()
}
