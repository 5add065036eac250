package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"perp-pulse/internal/alert"
	"perp-pulse/internal/bot"
	"perp-pulse/internal/cache"
	"perp-pulse/internal/config"
	"perp-pulse/internal/db"
	"perp-pulse/internal/handler"
	"perp-pulse/internal/job"
	"perp-pulse/internal/market"
	"perp-pulse/internal/provider"
	"perp-pulse/internal/repository"
	"perp-pulse/internal/sentiment"
	"perp-pulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "perp-pulse/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	loadAssetsFunc         = market.LoadAssets
	startPollerFunc        = func(p *job.Poller, ctx context.Context) { p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Perp Pulse API
// @version         1.0
// @description     Market data and sentiment aggregation pipeline with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Optional signal archive
	var (
		archive sentiment.SignalArchiver
		history handler.SignalHistory
	)
	if db.Pool != nil {
		signalRepo := repository.NewSignalRepository(db.Pool, tracer)
		if err := signalRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		archive = signalRepo
		history = signalRepo
	}

	// Market pipeline
	registry := provider.DefaultRegistry(tracer, cfg.FixturePath)
	assets, err := loadAssetsFunc()
	if err != nil {
		log.Fatalf("invalid asset configuration: %v", err)
	}
	var mirror market.RedisClient
	if cache.Client != nil {
		mirror = cache.Client
	}
	marketSvc, err := market.NewService(tracer, registry, assets, mirror, time.Duration(cfg.FetchTimeoutSecs)*time.Second)
	if err != nil {
		log.Fatalf("invalid provider configuration: %v", err)
	}
	marketSvc.RestoreMirror(ctx)

	// Sentiment pipeline
	classifier := buildClassifier(cfg)
	providers := []sentiment.Provider{
		sentiment.NewAIBriefProvider(tracer, cfg.PerplexityAPIKey, cfg.PerplexityModel, cfg.PerplexityTopic, classifier),
		sentiment.NewRedditProvider(tracer, sentiment.ParseCommunities(cfg.RedditCommunities), cfg.RedditLive, classifier),
		sentiment.NewChatGroupProvider(tracer, cfg.TelegramBotToken, groupIDString(cfg), classifier),
	}
	dispatcher := buildDispatcher(tracer, cfg)
	sentimentSvc := sentiment.NewService(
		tracer,
		providers,
		dispatcher,
		archive,
		cfg.SentimentMaxCount,
		time.Duration(cfg.SentimentMaxAgeMs)*time.Millisecond,
	)

	// Pollers: immediate run, fixed interval, non-overlapping cycles
	marketPoller := job.NewPoller(tracer, "markets", marketSvc, time.Duration(cfg.MarketPollSecs)*time.Second)
	sentimentPoller := job.NewPoller(tracer, "sentiment", sentimentSvc, time.Duration(cfg.SentimentPollSecs)*time.Second)
	startPollerFunc(marketPoller, ctx)
	startPollerFunc(sentimentPoller, ctx)
	defer marketPoller.Stop()
	defer sentimentPoller.Stop()

	startTelegramBotFunc(marketSvc, sentimentSvc)

	h := handler.New(tracer, marketSvc, sentimentSvc, history)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("perp-pulse"))
	r.Use(handler.APIKeyAuth(os.Getenv("API_KEY")))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func buildClassifier(cfg *config.Config) sentiment.Classifier {
	if llm := sentiment.NewLLMClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel); llm != nil {
		return llm
	}
	return sentiment.KeywordClassifier{}
}

func buildDispatcher(tracer trace.Tracer, cfg *config.Config) sentiment.AlertDispatcher {
	multi := []alert.Dispatcher{}
	if email := alert.NewEmailDispatcher(tracer, alert.EmailConfig{
		Host:       cfg.EmailHost,
		Port:       cfg.EmailPort,
		Username:   cfg.EmailUser,
		Password:   cfg.EmailPassword,
		From:       cfg.EmailFrom,
		Recipients: alert.ParseRecipients(cfg.AlertRecipients),
	}); email != nil {
		multi = append(multi, email)
	}
	if telegram, err := alert.NewTelegramDispatcher(tracer, cfg.TelegramBotToken, cfg.TelegramGroupID); err != nil {
		log.Printf("telegram alert dispatcher disabled: %v", err)
	} else if telegram != nil {
		multi = append(multi, telegram)
	}
	if len(multi) == 0 {
		log.Println("no alert dispatcher configured, psychology alerts disabled")
		return nil
	}
	return alert.NewMulti(multi...)
}

func groupIDString(cfg *config.Config) string {
	if cfg.TelegramGroupID == 0 {
		return ""
	}
	return strconv.FormatInt(cfg.TelegramGroupID, 10)
}
