package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	MarketPollSecs   int
	FetchTimeoutSecs int
	FixturePath      string

	SentimentPollSecs int
	SentimentMaxCount int
	SentimentMaxAgeMs int64
	RedditCommunities string
	RedditLive        bool
	PerplexityAPIKey  string
	PerplexityModel   string
	PerplexityTopic   string
	OpenAIAPIKey      string
	OpenAIModel       string
	TelegramBotToken  string
	TelegramGroupID   int64
	AlertRecipients   string
	EmailHost         string
	EmailPort         int
	EmailUser         string
	EmailPassword     string
	EmailFrom         string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		PerplexityAPIKey:  os.Getenv("PERPLEXITY_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		AlertRecipients:   os.Getenv("PSYCHOLOGY_ALERT_RECIPIENTS"),
		EmailUser:         os.Getenv("EMAIL_USER"),
		EmailPassword:     os.Getenv("EMAIL_PASSWORD"),
		RedditCommunities: os.Getenv("SENTIMENT_REDDIT_COMMUNITIES"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, signal archive disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, snapshot mirror disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.MarketPollSecs = 15
	if v := strings.TrimSpace(os.Getenv("MARKET_REFRESH_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MarketPollSecs = n
		}
	}

	cfg.FetchTimeoutSecs = 10
	if v := strings.TrimSpace(os.Getenv("FETCH_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeoutSecs = n
		}
	}

	cfg.FixturePath = strings.TrimSpace(os.Getenv("FIXTURE_PATH"))

	cfg.SentimentPollSecs = 300
	if v := strings.TrimSpace(os.Getenv("SENTIMENT_REFRESH_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SentimentPollSecs = n
		}
	}

	cfg.SentimentMaxCount = 200
	if v := strings.TrimSpace(os.Getenv("SENTIMENT_MAX_COUNT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SentimentMaxCount = n
		}
	}

	cfg.SentimentMaxAgeMs = 24 * 60 * 60 * 1000
	if v := strings.TrimSpace(os.Getenv("SENTIMENT_MAX_AGE_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.SentimentMaxAgeMs = n
		}
	}

	cfg.RedditLive = strings.EqualFold(strings.TrimSpace(os.Getenv("SENTIMENT_REDDIT_LIVE")), "true")

	cfg.PerplexityModel = strings.TrimSpace(os.Getenv("PERPLEXITY_MODEL"))
	if cfg.PerplexityModel == "" {
		cfg.PerplexityModel = "sonar"
	}

	cfg.PerplexityTopic = strings.TrimSpace(os.Getenv("SENTIMENT_PERPLEXITY_TOPIC"))
	if cfg.PerplexityTopic == "" {
		cfg.PerplexityTopic = "crypto psychology"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_GROUP_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramGroupID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_GROUP_ID=%q, ignoring", v)
		}
	}

	cfg.EmailHost = strings.TrimSpace(os.Getenv("EMAIL_HOST"))
	if cfg.EmailHost == "" {
		cfg.EmailHost = "mail.privateemail.com"
	}

	cfg.EmailPort = 587
	if v := strings.TrimSpace(os.Getenv("EMAIL_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EmailPort = n
		}
	}

	cfg.EmailFrom = strings.TrimSpace(os.Getenv("EMAIL_FROM"))

	return cfg
}
