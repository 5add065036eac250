package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

type teleSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramDispatcher posts psychology alerts into a chat. The bot is only
// used for sending; it never polls updates.
type TelegramDispatcher struct {
	tracer trace.Tracer
	bot    teleSender
	chatID int64
}

func NewTelegramDispatcher(tracer trace.Tracer, token string, chatID int64) (*TelegramDispatcher, error) {
	if strings.TrimSpace(token) == "" || chatID == 0 {
		return nil, nil
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram alert bot: %w", err)
	}
	return &TelegramDispatcher{tracer: tracer, bot: b, chatID: chatID}, nil
}

func (d *TelegramDispatcher) Dispatch(ctx context.Context, signal domain.SentimentSignal) error {
	_, span := d.tracer.Start(ctx, "alert.telegram.dispatch")
	defer span.End()

	msg := fmt.Sprintf("[Psychology Alert] %s\n\n%s", signal.Headline, formatAlertBody(signal))
	if _, err := d.bot.Send(&tele.Chat{ID: d.chatID}, msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

// Multi fans one alert out to several dispatchers. Each dispatcher's failure
// is reported but does not stop the others.
type Multi struct {
	dispatchers []Dispatcher
}

// Dispatcher mirrors the aggregator's alert hook.
type Dispatcher interface {
	Dispatch(ctx context.Context, signal domain.SentimentSignal) error
}

func NewMulti(dispatchers ...Dispatcher) *Multi {
	kept := make([]Dispatcher, 0, len(dispatchers))
	for _, d := range dispatchers {
		if d != nil {
			kept = append(kept, d)
		}
	}
	return &Multi{dispatchers: kept}
}

func (m *Multi) Len() int { return len(m.dispatchers) }

func (m *Multi) Dispatch(ctx context.Context, signal domain.SentimentSignal) error {
	var errs []string
	for _, d := range m.dispatchers {
		if err := d.Dispatch(ctx, signal); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("alert dispatch: %s", strings.Join(errs, "; "))
	}
	return nil
}
