// Package assistant answers free-text chat messages with canned replies and,
// when asked about BTTS, the current ranked picks.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
	"github.com/rewired-gh/bettips/internal/pipeline"
)

// Intent is the kind of answer a message asks for.
type Intent string

const (
	IntentGreetings Intent = "greetings"
	IntentBTTS      Intent = "btts"
	IntentFallback  Intent = "fallback"
)

// DefaultMinProbability is the recommendation threshold for BTTS answers.
const DefaultMinProbability = 60.0

const (
	greetingReply = "Hello! How can I assist you with betting tips or stats today?"
	fallbackReply = "I'm not sure how to help with that. Try asking about BTTS games, today's tips, or performance stats."
	noPicksReply  = "No BTTS picks found for today. Please try again later."
	failedReply   = "Sorry, I couldn't fetch the BTTS picks at the moment. Please try again later."
)

var greetingWords = map[string]bool{"hi": true, "hello": true, "help": true}

// DetectIntent classifies msg. BTTS wins over a greeting in the same message,
// and greetings only match whole words so "this" or "white" are not a "hi".
func DetectIntent(msg string) Intent {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "btts") || strings.Contains(lower, "both teams to score") {
		return IntentBTTS
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if greetingWords[w] {
			return IntentGreetings
		}
	}
	return IntentFallback
}

// PickSource is the part of pipeline.Service the assistant uses.
type PickSource interface {
	BTTSPicks(ctx context.Context, opts pipeline.PickOptions) (pipeline.Result, error)
}

// Config tunes the BTTS answer.
type Config struct {
	MinProbability  float64
	UseMockFallback bool
}

// Assistant produces chat replies.
type Assistant struct {
	picks PickSource
	cfg   Config
}

// New creates an Assistant. A zero MinProbability means DefaultMinProbability.
func New(picks PickSource, cfg Config) *Assistant {
	if cfg.MinProbability <= 0 {
		cfg.MinProbability = DefaultMinProbability
	}
	return &Assistant{picks: picks, cfg: cfg}
}

// Reply answers msg. It never fails; fetch problems turn into an apology.
func (a *Assistant) Reply(ctx context.Context, msg string) string {
	intent := DetectIntent(msg)
	logger.Debug("Assistant intent for %q: %s", msg, intent)

	switch intent {
	case IntentGreetings:
		return greetingReply
	case IntentBTTS:
		return a.bttsReply(ctx)
	}
	return fallbackReply
}

func (a *Assistant) bttsReply(ctx context.Context) string {
	minProbability := a.cfg.MinProbability
	res, err := a.picks.BTTSPicks(ctx, pipeline.PickOptions{MinProbability: &minProbability})
	if err != nil {
		logger.Error("Assistant could not fetch BTTS picks: %v", err)
		return failedReply
	}
	if a.cfg.UseMockFallback {
		res = res.WithMockFallback()
	}
	if res.Failed() && len(res.Picks) == 0 {
		return failedReply
	}
	if len(res.Picks) == 0 {
		return noPicksReply
	}

	header := "Here are today's BTTS picks:"
	if res.Mock {
		header = "Live odds are unavailable right now. Here are sample BTTS picks:"
	}
	return header + "\n\n" + FormatPicks(res.Picks)
}

// FormatPicks renders one pick per line.
func FormatPicks(games []models.BTTSGame) string {
	lines := make([]string, 0, len(games))
	for _, g := range games {
		lines = append(lines, FormatPick(g))
	}
	return strings.Join(lines, "\n")
}

// FormatPick renders "Home vs Away - Kickoff: HH:MM - Probability BTTS: 59.0%".
func FormatPick(g models.BTTSGame) string {
	return fmt.Sprintf("%s vs %s - Kickoff: %s - Probability BTTS: %.1f%%", g.Home, g.Away, g.Kickoff, g.Probability)
}
