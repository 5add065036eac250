package market

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"perp-pulse/internal/domain"
	"perp-pulse/internal/provider"
	"perp-pulse/internal/pubsub"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	snapshotMirrorKey = "markets:snapshot"
	snapshotMirrorTTL = 10 * time.Minute

	defaultFetchTimeout = 10 * time.Second
)

// ProviderRegistry resolves provider keys to implementations.
type ProviderRegistry interface {
	Resolve(key string) (provider.MarketProvider, error)
}

// RedisClient is the slice of go-redis the snapshot mirror needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type mirrorPayload struct {
	Markets     []domain.MarketData `json:"markets"`
	LastUpdated int64               `json:"lastUpdated"`
}

// Service owns the market refresh cycle: per-asset fallback fetching, the
// committed snapshot, subscriber notification, and the optional Redis mirror.
type Service struct {
	tracer       trace.Tracer
	registry     ProviderRegistry
	assets       []domain.AssetConfig
	redis        RedisClient
	fetchTimeout time.Duration

	mu          sync.RWMutex
	snapshot    []domain.MarketData
	lastUpdated int64

	updates *pubsub.Broadcaster[[]domain.MarketData]
}

// NewService resolves every configured provider key up front so an unknown
// key fails startup instead of a refresh cycle.
func NewService(
	tracer trace.Tracer,
	registry ProviderRegistry,
	assets []domain.AssetConfig,
	redisClient RedisClient,
	fetchTimeout time.Duration,
) (*Service, error) {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	for _, asset := range assets {
		if _, err := registry.Resolve(asset.Provider); err != nil {
			return nil, err
		}
		if asset.Fallback != nil {
			if _, err := registry.Resolve(asset.Fallback.Provider); err != nil {
				return nil, err
			}
		}
	}

	return &Service{
		tracer:       tracer,
		registry:     registry,
		assets:       assets,
		redis:        redisClient,
		fetchTimeout: fetchTimeout,
		updates:      pubsub.NewBroadcaster[[]domain.MarketData](),
	}, nil
}

// Refresh runs one full cycle: all assets fetched concurrently, each bounded
// by its own timeout, then the collected results replace the snapshot. A
// cycle that yields nothing leaves the previous snapshot untouched.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market.refresh")
	defer span.End()

	results := make([]*domain.MarketData, len(s.assets))
	var wg sync.WaitGroup
	for i, asset := range s.assets {
		wg.Add(1)
		go func(i int, asset domain.AssetConfig) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic fetching %s: %v", asset.ID, r)
				}
			}()
			fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
			defer cancel()
			results[i] = s.fetchWithFallback(fetchCtx, asset)
		}(i, asset)
	}
	wg.Wait()

	committed := make([]domain.MarketData, 0, len(results))
	for _, r := range results {
		if r != nil {
			committed = append(committed, *r)
		}
	}
	if len(committed) == 0 {
		log.Println("market refresh produced no data, keeping previous snapshot")
		return nil
	}

	now := time.Now().UnixMilli()
	s.mu.Lock()
	s.snapshot = committed
	s.lastUpdated = now
	s.mu.Unlock()

	s.updates.Publish(copyMarkets(committed))
	s.mirrorSnapshot(ctx, committed, now)

	log.Printf("Refreshed market data for %d/%d assets", len(committed), len(s.assets))
	return nil
}

// fetchWithFallback walks one asset's ladder: primary, configured fallback,
// previous committed datum, then nothing.
func (s *Service) fetchWithFallback(ctx context.Context, config domain.AssetConfig) *domain.MarketData {
	type attempt struct {
		provider string
		params   map[string]string
		label    string
	}

	attempts := []attempt{{provider: config.Provider, params: config.Params, label: "primary"}}
	if config.Fallback != nil {
		params := config.Fallback.Params
		if params == nil {
			params = config.Params
		}
		attempts = append(attempts, attempt{provider: config.Fallback.Provider, params: params, label: "fallback"})
	}

	for _, att := range attempts {
		impl, err := s.registry.Resolve(att.provider)
		if err != nil {
			log.Printf("failed to resolve provider %s for %s: %v", att.provider, config.ID, err)
			continue
		}
		data, err := impl.Fetch(ctx, domain.AssetConfig{
			ID:            config.ID,
			DisplaySymbol: config.DisplaySymbol,
			Provider:      att.provider,
			Params:        att.params,
			Fallback:      config.Fallback,
		})
		if err != nil {
			log.Printf("failed to fetch %s via %s (%s): %v", config.ID, att.provider, att.label, err)
			continue
		}
		if att.label == "fallback" {
			log.Printf("using fallback provider %s for %s", att.provider, config.ID)
		}
		return &data
	}

	if cached, ok := s.cachedDatum(config.ID); ok {
		log.Printf("serving cached %s after provider failures", config.ID)
		return &cached
	}

	log.Printf("no market data available for %s", config.ID)
	return nil
}

func (s *Service) cachedDatum(id string) (domain.MarketData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.snapshot {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.MarketData{}, false
}

// Snapshot returns a copy of the committed snapshot and its commit time in
// millis. Before the first successful cycle both are empty/zero.
func (s *Service) Snapshot() ([]domain.MarketData, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMarkets(s.snapshot), s.lastUpdated
}

// Subscribe registers a listener for committed snapshots and returns its
// unsubscribe handle.
func (s *Service) Subscribe(fn func([]domain.MarketData)) func() {
	return s.updates.Subscribe(fn)
}

// RestoreMirror loads the last mirrored snapshot from Redis. Only useful on a
// cold start, before the first commit; the true lastUpdated is kept so
// staleness stays observable.
func (s *Service) RestoreMirror(ctx context.Context) {
	if s.redis == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastUpdated != 0 {
		return
	}

	raw, err := s.redis.Get(ctx, snapshotMirrorKey).Bytes()
	if err == redis.Nil {
		return
	}
	if err != nil {
		log.Printf("redis mirror read error: %v", err)
		return
	}
	var payload mirrorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("redis mirror decode error: %v", err)
		return
	}
	if len(payload.Markets) == 0 {
		return
	}
	s.snapshot = payload.Markets
	s.lastUpdated = payload.LastUpdated
	log.Printf("Restored %d market entries from redis mirror", len(payload.Markets))
}

func (s *Service) mirrorSnapshot(ctx context.Context, markets []domain.MarketData, lastUpdated int64) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(mirrorPayload{Markets: markets, LastUpdated: lastUpdated})
	if err != nil {
		log.Printf("redis mirror encode error: %v", err)
		return
	}
	if err := s.redis.Set(ctx, snapshotMirrorKey, data, snapshotMirrorTTL).Err(); err != nil {
		log.Printf("redis mirror write error: %v", err)
	}
}

func copyMarkets(markets []domain.MarketData) []domain.MarketData {
	out := make([]domain.MarketData, len(markets))
	copy(out, markets)
	return out
}
