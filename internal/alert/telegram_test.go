package alert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"perp-pulse/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type senderStub struct {
	sent []string
	to   []tele.Recipient
	err  error
}

func (s *senderStub) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.to = append(s.to, to)
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &tele.Message{}, nil
}

func TestNewTelegramDispatcherRequiresConfig(t *testing.T) {
	d, err := NewTelegramDispatcher(noopTracer(), "", 0)
	if d != nil || err != nil {
		t.Fatalf("expected nil dispatcher without config, got %v %v", d, err)
	}
	d, err = NewTelegramDispatcher(noopTracer(), "token", 0)
	if d != nil || err != nil {
		t.Fatalf("expected nil dispatcher without chat id, got %v %v", d, err)
	}
}

func TestTelegramDispatchSendsToChat(t *testing.T) {
	stub := &senderStub{}
	d := &TelegramDispatcher{tracer: noopTracer(), bot: stub, chatID: -100}

	signal := domain.SentimentSignal{
		Headline:   "Markets in freefall",
		Summary:    "Panic everywhere.",
		Sentiment:  domain.ToneNegative,
		Score:      -0.5,
		Confidence: 0.6,
	}
	if err := d.Dispatch(context.Background(), signal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.sent) != 1 || !strings.Contains(stub.sent[0], "[Psychology Alert] Markets in freefall") {
		t.Fatalf("unexpected message: %v", stub.sent)
	}
	chat, ok := stub.to[0].(*tele.Chat)
	if !ok || chat.ID != -100 {
		t.Fatalf("unexpected recipient: %+v", stub.to[0])
	}
}

func TestTelegramDispatchWrapsError(t *testing.T) {
	stub := &senderStub{err: errors.New("blocked")}
	d := &TelegramDispatcher{tracer: noopTracer(), bot: stub, chatID: -100}
	if err := d.Dispatch(context.Background(), domain.SentimentSignal{Headline: "h"}); err == nil {
		t.Fatal("expected error")
	}
}

type dispatcherRecorder struct {
	calls int
	err   error
}

func (d *dispatcherRecorder) Dispatch(ctx context.Context, signal domain.SentimentSignal) error {
	d.calls++
	return d.err
}

func TestMultiDispatchesToAll(t *testing.T) {
	a := &dispatcherRecorder{}
	b := &dispatcherRecorder{err: errors.New("smtp down")}
	c := &dispatcherRecorder{}
	m := NewMulti(a, b, c)

	err := m.Dispatch(context.Background(), domain.SentimentSignal{Headline: "h"})
	if err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected aggregated error, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatal("one failing dispatcher must not stop the others")
	}
}

func TestMultiDropsNilDispatchers(t *testing.T) {
	m := NewMulti(nil, &dispatcherRecorder{})
	if m.Len() != 1 {
		t.Fatalf("expected nil dispatchers dropped, got %d", m.Len())
	}
}
