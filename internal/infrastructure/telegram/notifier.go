package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/ports"
	"WallabagEnhancer/internal/redact"
)

const (
	maxMessageLen    = 4000
	maxListedFailure = 20
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends run reports to a Telegram chat via bot API.
type Notifier struct {
	api    sender
	chatID int64
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. It contacts Telegram
// once to validate the token.
func NewNotifier(botToken, chatID string, client *http.Client, logger *log.Logger) (*Notifier, error) {
	return newNotifier(botToken, chatID, tgbotapi.APIEndpoint, client, logger)
}

func newNotifier(botToken, chatID, endpoint string, client *http.Client, logger *log.Logger) (*Notifier, error) {
	if botToken == "" || chatID == "" {
		return nil, fmt.Errorf("telegram notifier misconfigured")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse telegram chat id: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger != nil {
		_ = tgbotapi.SetLogger(logger)
	}

	api, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %s", redact.Secrets(strings.ReplaceAll(err.Error(), botToken, "<redacted>")))
	}

	return &Notifier{api: api, chatID: id}, nil
}

// PublishReport posts a plain-text summary of the run.
func (n *Notifier) PublishReport(ctx context.Context, report domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatReport(report))
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// FormatReport renders counts followed by up to maxListedFailure failures.
func FormatReport(report domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "wallabag enhancer run %s\n", report.RunID)
	fmt.Fprintf(&b, "entries: %d\nprocessed: %d\nskipped: %d\nfailed: %d\n",
		report.Total,
		report.Count(domain.StatusProcessed),
		report.Count(domain.StatusSkipped),
		report.Count(domain.StatusFailed),
	)
	if report.NotAttempted > 0 {
		fmt.Fprintf(&b, "not attempted: %d\n", report.NotAttempted)
	}

	failures := report.Failures()
	if len(failures) > 0 {
		b.WriteString("\nfailures:\n")
	}
	for i, f := range failures {
		if i == maxListedFailure {
			fmt.Fprintf(&b, "... and %d more\n", len(failures)-maxListedFailure)
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.ArticleID, redact.Error(f.Err))
	}

	return strings.TrimSpace(truncate(b.String(), maxMessageLen))
}

// truncate cuts s to at most limit bytes on a rune boundary.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
