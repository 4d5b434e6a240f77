// Package telegram delivers BTTS pick digests and service alerts through the
// Telegram Bot API and answers chat messages with the betting assistant.
//
// Outgoing digests use MarkdownV2 and are retried with a linear backoff.
// Assistant replies are sent as plain text.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/models"
)

// Replier answers one chat message. assistant.Assistant implements it.
type Replier interface {
	Reply(ctx context.Context, msg string) string
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	send           sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot (token %s): %w", logger.MaskSecret(botToken), err)
	}

	c, err := newClient(bot, chatID, maxRetries, retryDelayBase)
	if err != nil {
		return nil, err
	}
	c.bot = bot
	logger.Info("Telegram bot authorized as @%s", bot.Self.UserName)
	return c, nil
}

func newClient(s sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		send:           s,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendPicks sends a digest of the ranked BTTS picks.
func (c *Client) SendPicks(games []models.BTTSGame) error {
	if len(games) == 0 {
		return nil
	}
	return c.sendMarkdown(formatPicks(games, time.Now()))
}

// SendError alerts the chat that refreshing started failing.
func (c *Client) SendError(err error) error {
	message := "⚠️ *Refresh failed*\n\n" + escapeMarkdownV2(err.Error())
	return c.sendMarkdown(message)
}

// SendRecovery tells the chat that refreshing works again.
func (c *Client) SendRecovery(consecutiveFailures int) error {
	message := fmt.Sprintf("✅ *Refresh recovered* after %d failed %s",
		consecutiveFailures, plural(consecutiveFailures, "cycle", "cycles"))
	return c.sendMarkdown(message)
}

// sendMarkdown sends a MarkdownV2 message with retry
func (c *Client) sendMarkdown(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.send.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Debug("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// ListenForCommands answers every incoming text message with r until ctx is done.
// A leading slash is dropped so /btts and /help reach the assistant as words.
func (c *Client) ListenForCommands(ctx context.Context, r Replier) {
	if c.bot == nil {
		logger.Warn("Telegram command listener needs a bot connection")
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				logger.Info("Telegram command listener stopped")
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil || update.Message.Text == "" {
					continue
				}
				c.answer(ctx, r, update.Message.Chat.ID, update.Message.Text)
			}
		}
	}()
	logger.Info("Telegram command listener started")
}

func (c *Client) answer(ctx context.Context, r Replier, chatID int64, text string) {
	query := strings.TrimPrefix(strings.TrimSpace(text), "/")
	if query == "start" {
		query = "hello"
	}

	reply := tgbotapi.NewMessage(chatID, r.Reply(ctx, query))
	if _, err := c.send.Send(reply); err != nil {
		logger.Warn("Failed to answer Telegram chat %d: %v", chatID, err)
	}
}

// formatPicks formats picks into a Telegram message
func formatPicks(games []models.BTTSGame, now time.Time) string {
	var b strings.Builder
	b.WriteString("⚽ *Today's BTTS Picks*\n\n")
	b.WriteString(fmt.Sprintf("📅 Updated: %s\n\n", escapeMarkdownV2(now.Format("2006-01-02 15:04"))))

	for i, g := range games {
		fmt.Fprintf(&b, "%d\\. *%s* vs *%s*\n", i+1, escapeMarkdownV2(g.Home), escapeMarkdownV2(g.Away))
		fmt.Fprintf(&b, "   🕒 Kickoff: %s\n", escapeMarkdownV2(g.Kickoff))
		fmt.Fprintf(&b, "   🎯 BTTS: *%s*", escapeMarkdownV2(fmt.Sprintf("%.1f%%", g.Probability)))
		if g.Odds != "" {
			fmt.Fprintf(&b, " \\(odds %s\\)", escapeMarkdownV2(g.Odds))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
