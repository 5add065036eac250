package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"strings"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSMTPHost = "mail.privateemail.com"
	defaultSMTPPort = 587
)

// DefaultRecipients receives alerts when no recipient list is configured.
var DefaultRecipients = []string{"support@trading.com"}

type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	Recipients []string
}

// EmailDispatcher delivers psychology alerts over SMTP. Construction fails
// soft: without credentials it returns nil and the caller skips email
// alerting entirely.
type EmailDispatcher struct {
	tracer trace.Tracer
	cfg    EmailConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailDispatcher(tracer trace.Tracer, cfg EmailConfig) *EmailDispatcher {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	if cfg.Host == "" {
		cfg.Host = defaultSMTPHost
	}
	if cfg.Port <= 0 {
		cfg.Port = defaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if len(cfg.Recipients) == 0 {
		cfg.Recipients = DefaultRecipients
	}
	return &EmailDispatcher{tracer: tracer, cfg: cfg, send: smtp.SendMail}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, signal domain.SentimentSignal) error {
	_, span := d.tracer.Start(ctx, "alert.email.dispatch")
	defer span.End()

	subject := fmt.Sprintf("[Psychology Alert] %s", signal.Headline)
	body := formatAlertBody(signal)

	var msg strings.Builder
	msg.WriteString("From: " + d.cfg.From + "\r\n")
	msg.WriteString("To: " + strings.Join(d.cfg.Recipients, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)
	auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	if err := d.send(addr, auth, d.cfg.From, d.cfg.Recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func formatAlertBody(signal domain.SentimentSignal) string {
	summary := signal.Summary
	if summary == "" {
		summary = "No summary provided."
	}
	lines := []string{
		summary,
		"",
		fmt.Sprintf("Sentiment: %s (score %g, confidence %g)", signal.Sentiment, signal.Score, signal.Confidence),
	}
	if signal.URL != "" {
		lines = append(lines, "Link: "+signal.URL)
	}
	return strings.Join(lines, "\n")
}

// ParseRecipients accepts either a JSON string array or a comma/whitespace
// separated list.
func ParseRecipients(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var parsed []string
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			out := make([]string, 0, len(parsed))
			for _, entry := range parsed {
				if entry = strings.TrimSpace(entry); entry != "" {
					out = append(out, entry)
				}
			}
			return out
		}
		// fall back to delimiter parsing
	}
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, entry := range fields {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
