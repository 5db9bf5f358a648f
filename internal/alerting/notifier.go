package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"booking-metrics/internal/analysis"
)

// Notification carries the data-quality issues found by one report run.
type Notification struct {
	Report      string
	GeneratedAt time.Time
	Issues      []analysis.QualityIssue
}

// Notifier delivers data-quality warnings.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// LogNotifier writes every issue as a warn-level log entry.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "quality").Logger()}
}

// Notify logs each issue.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	for _, is := range note.Issues {
		n.logger.Warn().
			Str("report", note.Report).
			Str("analysis", is.Analysis).
			Str("period", is.Period).
			Str("kind", is.Kind).
			Int64("total", is.Total).
			Int64("events", is.Events).
			Msg(is.Detail)
	}
	return nil
}

// TelegramNotifier pushes a batched message through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage once per notification. Empty notifications are
// not sent.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	if len(note.Issues) == 0 {
		return nil
	}

	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("report", note.Report).
		Int("issues", len(note.Issues)).
		Msg("quality warning sent (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Booking Metrics Data Quality]\n")
	builder.WriteString(fmt.Sprintf("Report: %s\n", note.Report))
	if !note.GeneratedAt.IsZero() {
		builder.WriteString(fmt.Sprintf("Generated: %s UTC\n", note.GeneratedAt.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Issues: %d\n", len(note.Issues)))
	for _, is := range note.Issues {
		builder.WriteString(fmt.Sprintf("- %s %s [%s]: %s\n", is.Analysis, is.Period, is.Kind, is.Detail))
	}
	return builder.String()
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers to all notifiers even when some fail.
func (m Multi) Notify(ctx context.Context, note Notification) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Multi(nil)
)
