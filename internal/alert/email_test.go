package alert

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func TestNewEmailDispatcherRequiresCredentials(t *testing.T) {
	if d := NewEmailDispatcher(noopTracer(), EmailConfig{}); d != nil {
		t.Fatal("expected nil dispatcher without credentials")
	}
	if d := NewEmailDispatcher(noopTracer(), EmailConfig{Username: "u"}); d != nil {
		t.Fatal("expected nil dispatcher without password")
	}
}

func TestNewEmailDispatcherDefaults(t *testing.T) {
	d := NewEmailDispatcher(noopTracer(), EmailConfig{Username: "alerts@example.com", Password: "secret"})
	if d == nil {
		t.Fatal("expected dispatcher")
	}
	if d.cfg.Host != "mail.privateemail.com" || d.cfg.Port != 587 {
		t.Fatalf("unexpected defaults: %+v", d.cfg)
	}
	if d.cfg.From != "alerts@example.com" {
		t.Fatalf("from must default to the username: %s", d.cfg.From)
	}
	if len(d.cfg.Recipients) != 1 || d.cfg.Recipients[0] != "support@trading.com" {
		t.Fatalf("unexpected default recipients: %v", d.cfg.Recipients)
	}
}

func TestEmailDispatchBuildsMessage(t *testing.T) {
	d := NewEmailDispatcher(noopTracer(), EmailConfig{
		Username:   "alerts@example.com",
		Password:   "secret",
		Recipients: []string{"ops@example.com"},
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	d.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	signal := domain.SentimentSignal{
		ID:         "crash-1",
		Headline:   "Markets in freefall",
		Summary:    "Panic selling across majors.",
		URL:        "https://example.com/crash",
		Sentiment:  domain.ToneNegative,
		Score:      -0.5,
		Confidence: 0.6,
	}
	if err := d.Dispatch(context.Background(), signal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "mail.privateemail.com:587" || gotFrom != "alerts@example.com" {
		t.Fatalf("unexpected envelope: %s %s", gotAddr, gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	for _, want := range []string{
		"Subject: [Psychology Alert] Markets in freefall",
		"Panic selling across majors.",
		"Sentiment: negative (score -0.5, confidence 0.6)",
		"Link: https://example.com/crash",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestEmailDispatchNoSummaryFallback(t *testing.T) {
	d := NewEmailDispatcher(noopTracer(), EmailConfig{Username: "u", Password: "p"})
	var gotMsg string
	d.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}
	_ = d.Dispatch(context.Background(), domain.SentimentSignal{Headline: "h"})
	if !strings.Contains(gotMsg, "No summary provided.") {
		t.Fatalf("expected summary fallback:\n%s", gotMsg)
	}
}

func TestEmailDispatchWrapsSendError(t *testing.T) {
	d := NewEmailDispatcher(noopTracer(), EmailConfig{Username: "u", Password: "p"})
	d.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}
	if err := d.Dispatch(context.Background(), domain.SentimentSignal{Headline: "h"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRecipientsJSONArray(t *testing.T) {
	got := ParseRecipients(`["a@example.com", " b@example.com "]`)
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestParseRecipientsDelimited(t *testing.T) {
	got := ParseRecipients("a@example.com, b@example.com c@example.com")
	if len(got) != 3 {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestParseRecipientsMalformedJSONFallsBack(t *testing.T) {
	got := ParseRecipients("[not-json")
	if len(got) != 1 || got[0] != "[not-json" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestParseRecipientsEmpty(t *testing.T) {
	if got := ParseRecipients("   "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
