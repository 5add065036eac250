package bot

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"perp-pulse/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type MarketReader interface {
	Snapshot() ([]domain.MarketData, int64)
}

type SentimentReader interface {
	Snapshot() ([]domain.SentimentSignal, int64)
}

// StartTelegramBot exposes the committed snapshots over chat commands. A
// missing token skips the bot; the pipeline runs fine without it.
func StartTelegramBot(markets MarketReader, sentiment SentimentReader) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Printf("failed to create Telegram bot: %v", err)
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/markets", func(c tele.Context) error {
		data, lastUpdated := markets.Snapshot()
		return c.Send(formatMarkets(data, lastUpdated))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		signals, lastUpdated := sentiment.Snapshot()
		return c.Send(formatSentiment(signals, lastUpdated))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatMarkets(data []domain.MarketData, lastUpdated int64) string {
	if len(data) == 0 {
		return "No market data committed yet."
	}
	var sb strings.Builder
	for _, m := range data {
		sb.WriteString(fmt.Sprintf(
			"%s (%s)\nMark: $%.2f  Index: $%.2f\nFunding: %.4f%%  24h: %.2f%%\n\n",
			m.ID, m.Provider, m.MarkPrice, m.IndexPrice, m.FundingRate*100, m.Change24h,
		))
	}
	sb.WriteString("Updated: " + time.UnixMilli(lastUpdated).UTC().Format(time.RFC3339))
	return sb.String()
}

func formatSentiment(signals []domain.SentimentSignal, lastUpdated int64) string {
	if len(signals) == 0 {
		return "No sentiment signals committed yet."
	}
	limit := 5
	if len(signals) < limit {
		limit = len(signals)
	}
	var sb strings.Builder
	for _, s := range signals[:limit] {
		sb.WriteString(fmt.Sprintf("[%s] %s (%s, score %.2f)\n", s.Source, s.Headline, s.Sentiment, s.Score))
	}
	sb.WriteString("Updated: " + time.UnixMilli(lastUpdated).UTC().Format(time.RFC3339))
	return sb.String()
}
