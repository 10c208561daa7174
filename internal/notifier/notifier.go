package notifier

import (
	"context"
	stderrors "errors"

	"github.com/rxtech-lab/argo-bh/internal/logger"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"go.uber.org/zap"
)

// Notifier delivers a pre-formatted text message.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// MultiNotifier sends every message to all of its targets in order.
type MultiNotifier struct {
	targets []Notifier
	log     *logger.Logger
}

// NewMultiNotifier creates a notifier over targets. A nil logger discards logs.
func NewMultiNotifier(log *logger.Logger, targets ...Notifier) *MultiNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &MultiNotifier{targets: targets, log: log}
}

// Len returns the number of targets.
func (m *MultiNotifier) Len() int {
	return len(m.targets)
}

// Send delivers text to every target. A failing target does not stop the others.
// It fails only when no target received the message.
func (m *MultiNotifier) Send(ctx context.Context, text string) error {
	if len(m.targets) == 0 {
		return errors.New(errors.ErrCodeNotificationFailed, "no notification targets configured")
	}

	var errs []error

	for i, target := range m.targets {
		if err := target.Send(ctx, text); err != nil {
			m.log.Error("Failed to deliver notification", zap.Int("target", i), zap.Error(err))
			errs = append(errs, err)
		}
	}

	sent := len(m.targets) - len(errs)
	m.log.Info("Notification delivered", zap.Int("sent", sent), zap.Int("targets", len(m.targets)))

	if sent == 0 {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "notification failed for every target", stderrors.Join(errs...))
	}

	return nil
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &LogNotifier{log: log}
}

func (l *LogNotifier) Send(_ context.Context, text string) error {
	l.log.Info("Notification (dry run)", zap.String("text", text))

	return nil
}
