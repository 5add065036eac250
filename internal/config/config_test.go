package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("MARKET_REFRESH_SECS", "")
	t.Setenv("SENTIMENT_REFRESH_SECS", "")
	t.Setenv("SENTIMENT_MAX_COUNT", "")
	t.Setenv("SENTIMENT_MAX_AGE_MS", "")
	t.Setenv("PORT", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.MarketPollSecs != 15 || cfg.SentimentPollSecs != 300 {
		t.Fatalf("unexpected poll defaults: %d %d", cfg.MarketPollSecs, cfg.SentimentPollSecs)
	}
	if cfg.SentimentMaxCount != 200 || cfg.SentimentMaxAgeMs != 86400000 {
		t.Fatalf("unexpected sentiment limits: %d %d", cfg.SentimentMaxCount, cfg.SentimentMaxAgeMs)
	}
	if cfg.EmailHost != "mail.privateemail.com" || cfg.EmailPort != 587 {
		t.Fatalf("unexpected email defaults: %s %d", cfg.EmailHost, cfg.EmailPort)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_GROUP_ID", "-100123")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("MARKET_REFRESH_SECS", "5")
	t.Setenv("SENTIMENT_MAX_COUNT", "50")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TelegramGroupID != -100123 {
		t.Fatalf("expected group id parsed, got %d", cfg.TelegramGroupID)
	}
	if cfg.MarketPollSecs != 5 || cfg.SentimentMaxCount != 50 {
		t.Fatalf("unexpected overrides: %d %d", cfg.MarketPollSecs, cfg.SentimentMaxCount)
	}

	t.Setenv("MARKET_REFRESH_SECS", "bad")
	t.Setenv("TELEGRAM_GROUP_ID", "not-a-number")
	cfg = Load()
	if cfg.MarketPollSecs != 15 {
		t.Fatalf("invalid poll secs should fall back to default, got %d", cfg.MarketPollSecs)
	}
	if cfg.TelegramGroupID != 0 {
		t.Fatalf("invalid group id should be ignored, got %d", cfg.TelegramGroupID)
	}
}
