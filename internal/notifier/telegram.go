package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultTelegramBaseURL = "https://api.telegram.org"
	// MaxMessageLength is the Telegram limit for one message.
	MaxMessageLength = 4096

	defaultMaxRetries      = 3
	defaultInitialInterval = time.Second
)

// Target is one bot and chat pair.
type Target struct {
	BotToken string `yaml:"bot_token" json:"bot_token" validate:"required" jsonschema:"title=Bot token"`
	ChatID   string `yaml:"chat_id" json:"chat_id" validate:"required" jsonschema:"title=Chat ID"`
}

// TelegramNotifier sends Markdown messages via the Telegram Bot API.
type TelegramNotifier struct {
	target          Target
	baseURL         string
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	log             *logger.Logger
}

type Option func(*TelegramNotifier)

// WithBaseURL points the notifier at another Bot API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(t *TelegramNotifier) { t.baseURL = strings.TrimSuffix(baseURL, "/") }
}

func WithHTTPClient(client *http.Client) Option {
	return func(t *TelegramNotifier) { t.client = client }
}

// WithRetry sets the number of retries after the first attempt and the first backoff interval.
func WithRetry(maxRetries uint64, initialInterval time.Duration) Option {
	return func(t *TelegramNotifier) {
		t.maxRetries = maxRetries
		t.initialInterval = initialInterval
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(t *TelegramNotifier) { t.log = log }
}

func NewTelegramNotifier(target Target, opts ...Option) *TelegramNotifier {
	t := &TelegramNotifier{
		target:          target,
		baseURL:         DefaultTelegramBaseURL,
		client:          &http.Client{Timeout: 30 * time.Second},
		maxRetries:      defaultMaxRetries,
		initialInterval: defaultInitialInterval,
		log:             logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send delivers text, split into chunks when it is longer than MaxMessageLength.
// Network errors, 429 and 5xx responses are retried with exponential backoff.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	for _, chunk := range SplitMessage(text, MaxMessageLength) {
		if err := t.sendWithRetry(ctx, chunk); err != nil {
			return err
		}
	}

	t.log.Debug("Telegram message sent", zap.String("chat_id", t.target.ChatID))

	return nil
}

func (t *TelegramNotifier) sendWithRetry(ctx context.Context, text string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.initialInterval

	attempt := 0
	operation := func() error {
		attempt++

		return t.sendOnce(ctx, text)
	}

	notify := func(err error, wait time.Duration) {
		t.log.Warn("Telegram send failed, retrying",
			zap.String("chat_id", t.target.ChatID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, t.maxRetries), ctx), notify)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeNotificationFailed, err, "telegram delivery to chat %s failed after %d attempts", t.target.ChatID, attempt)
	}

	return nil
}

func (t *TelegramNotifier) sendOnce(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.target.ChatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshal payload: %w", err))
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.target.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", t.redact(err)))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		return fmt.Errorf("send message: %w", t.redact(err))
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var parsed apiResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode == http.StatusOK && parsed.OK {
		return nil
	}

	apiErr := fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, parsed.Description)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return apiErr
	}

	return backoff.Permanent(apiErr)
}

// redact strips the request URL, which holds the bot token, from transport errors.
func (t *TelegramNotifier) redact(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		err = fmt.Errorf("%s sendMessage: %w", urlErr.Op, urlErr.Err)
	}

	if t.target.BotToken != "" && strings.Contains(err.Error(), t.target.BotToken) {
		return stderrors.New(strings.ReplaceAll(err.Error(), t.target.BotToken, "<redacted>"))
	}

	return err
}

// SplitMessage splits text into chunks of at most limit characters, breaking on line ends
// where possible. Chunks never end inside a multi-byte character.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string

	for utf8.RuneCountInString(text) > limit {
		end := runeOffset(text, limit)

		cut := strings.LastIndex(text[:end], "\n")
		if cut <= 0 {
			cut = end
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}

// runeOffset returns the byte offset of the n-th rune of s, or len(s).
func runeOffset(s string, n int) int {
	count := 0

	for offset := range s {
		if count == n {
			return offset
		}

		count++
	}

	return len(s)
}
