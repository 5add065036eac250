package handler

import (
	"context"

	"perp-pulse/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type MarketSource interface {
	Snapshot() ([]domain.MarketData, int64)
	Subscribe(fn func([]domain.MarketData)) func()
}

type SentimentSource interface {
	Snapshot() ([]domain.SentimentSignal, int64)
	Subscribe(fn func([]domain.SentimentSignal)) func()
}

// SignalHistory reads back archived signals. Nil when no archive is configured.
type SignalHistory interface {
	RecentSignals(ctx context.Context, limit int) ([]domain.SentimentSignal, error)
}

type Handler struct {
	tracer    trace.Tracer
	markets   MarketSource
	sentiment SentimentSource
	history   SignalHistory
	hub       *StreamHub
}

func New(tracer trace.Tracer, markets MarketSource, sentiment SentimentSource, history SignalHistory) *Handler {
	h := &Handler{
		tracer:    tracer,
		markets:   markets,
		sentiment: sentiment,
		history:   history,
		hub:       NewStreamHub(),
	}
	if markets != nil {
		markets.Subscribe(func(data []domain.MarketData) {
			h.hub.Broadcast(tickerFrame(data))
		})
	}
	if sentiment != nil {
		sentiment.Subscribe(func(signals []domain.SentimentSignal) {
			h.hub.Broadcast(sentimentFrame(signals))
		})
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/markets", h.GetMarkets)
	r.GET("/sentiment", h.GetSentiment)
	if h.history != nil {
		r.GET("/sentiment/history", h.GetSentimentHistory)
	}
	r.GET("/stream", h.Stream)
}
