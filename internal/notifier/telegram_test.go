package notifier

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type TelegramTestSuite struct {
	suite.Suite
	server   *httptest.Server
	mu       sync.Mutex
	requests []sendMessageRequest
	paths    []string
	statuses []int
}

func TestTelegramSuite(t *testing.T) {
	suite.Run(t, new(TelegramTestSuite))
}

func (suite *TelegramTestSuite) SetupTest() {
	suite.requests = nil
	suite.paths = nil
	suite.statuses = nil

	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.mu.Lock()
		defer suite.mu.Unlock()

		var payload sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&payload)
		suite.requests = append(suite.requests, payload)
		suite.paths = append(suite.paths, r.URL.Path)

		status := http.StatusOK
		if len(suite.statuses) > 0 {
			status = suite.statuses[0]
			suite.statuses = suite.statuses[1:]
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))

			return
		}

		_, _ = fmt.Fprintf(w, `{"ok":false,"error_code":%d,"description":"failure"}`, status)
	}))
}

func (suite *TelegramTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *TelegramTestSuite) respondWith(statuses ...int) {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	suite.statuses = statuses
}

func (suite *TelegramTestSuite) newNotifier() *TelegramNotifier {
	return NewTelegramNotifier(
		Target{BotToken: "123:abc", ChatID: "-1001"},
		WithBaseURL(suite.server.URL+"/"),
		WithRetry(2, time.Millisecond),
	)
}

func (suite *TelegramTestSuite) TestSendPostsMarkdownMessage() {
	err := suite.newNotifier().Send(context.Background(), "*2Hr BH*:")
	suite.Require().NoError(err)

	suite.Require().Len(suite.requests, 1)
	suite.Equal("/bot123:abc/sendMessage", suite.paths[0])
	suite.Equal("-1001", suite.requests[0].ChatID)
	suite.Equal("*2Hr BH*:", suite.requests[0].Text)
	suite.Equal("Markdown", suite.requests[0].ParseMode)
}

func (suite *TelegramTestSuite) TestSendRetriesServerErrors() {
	suite.respondWith(http.StatusInternalServerError, http.StatusTooManyRequests)

	err := suite.newNotifier().Send(context.Background(), "hello")
	suite.Require().NoError(err)
	suite.Len(suite.requests, 3)
}

func (suite *TelegramTestSuite) TestSendGivesUpAfterMaxRetries() {
	suite.respondWith(http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)

	err := suite.newNotifier().Send(context.Background(), "hello")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
	suite.Len(suite.requests, 3)
}

func (suite *TelegramTestSuite) TestSendDoesNotRetryClientErrors() {
	suite.respondWith(http.StatusBadRequest)

	err := suite.newNotifier().Send(context.Background(), "hello")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
	suite.Contains(err.Error(), "status 400")
	suite.Len(suite.requests, 1)
}

func (suite *TelegramTestSuite) TestSendCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := suite.newNotifier().Send(ctx, "hello")
	suite.Require().Error(err)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(suite.requests)
}

func (suite *TelegramTestSuite) TestSendSplitsLongMessages() {
	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 50)

	err := suite.newNotifier().Send(context.Background(), text)
	suite.Require().NoError(err)
	suite.Require().Len(suite.requests, 2)

	for _, req := range suite.requests {
		suite.LessOrEqual(len(req.Text), MaxMessageLength)
	}
}

func (suite *TelegramTestSuite) TestSplitMessage() {
	suite.Equal([]string{"short"}, SplitMessage("short", 10))
	suite.Equal([]string{"abc", "def"}, SplitMessage("abc\ndef", 5))
	suite.Equal([]string{"abcde", "fgh"}, SplitMessage("abcdefgh", 5))
	suite.Equal([]string{""}, SplitMessage("", 5))

	// limits count characters and cuts stay on character boundaries
	suite.Equal([]string{"ééé"}, SplitMessage("ééé", 3))
	suite.Equal([]string{"€€", "€€", "€"}, SplitMessage("€€€€€", 2))

	chunks := SplitMessage(strings.Repeat("•", 10)+"\n"+strings.Repeat("ü", 7), 8)
	suite.Equal([]string{"••••••••", "••", "üüüüüüü"}, chunks)

	for _, chunk := range chunks {
		suite.True(utf8.ValidString(chunk))
		suite.LessOrEqual(utf8.RuneCountInString(chunk), 8)
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, stderrors.New("connection reset by peer")
}

func (suite *TelegramTestSuite) TestTransportErrorHidesToken() {
	core, logs := observer.New(zap.WarnLevel)
	notifier := NewTelegramNotifier(Target{BotToken: "123:secret-token", ChatID: "42"},
		WithBaseURL(suite.server.URL),
		WithHTTPClient(&http.Client{Transport: failingTransport{}}),
		WithRetry(1, time.Millisecond),
		WithLogger(&logger.Logger{Logger: zap.New(core)}),
	)

	err := notifier.Send(context.Background(), "hello")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNotificationFailed))
	suite.Contains(err.Error(), "connection reset by peer")
	suite.NotContains(err.Error(), "secret-token")

	suite.Require().Equal(1, logs.Len())
	for _, entry := range logs.All() {
		for _, field := range entry.Context {
			if field.Type == zapcore.ErrorType {
				suite.NotContains(field.Interface.(error).Error(), "secret-token")
			}
		}
	}
}
