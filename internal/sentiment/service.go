package sentiment

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"perp-pulse/internal/domain"
	"perp-pulse/internal/pubsub"

	"go.opentelemetry.io/otel/trace"
)

// Provider is one pluggable sentiment source.
type Provider interface {
	Key() string
	FetchSignals(ctx context.Context) ([]domain.SentimentSignal, error)
}

// AlertDispatcher delivers one qualifying signal to an out-of-band channel.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, signal domain.SentimentSignal) error
}

// SignalArchiver persists committed signal batches. Optional.
type SignalArchiver interface {
	ArchiveSignals(ctx context.Context, signals []domain.SentimentSignal) error
}

const (
	defaultMaxSignalCount = 200
	defaultMaxSignalAge   = 24 * time.Hour
)

// Service fans out to every registered provider, merges the results into a
// bounded deduplicated cache, and raises at-most-once alerts for negative
// market-down signals. The cache is mutated only through Refresh.
type Service struct {
	tracer     trace.Tracer
	providers  []Provider
	dispatcher AlertDispatcher
	archive    SignalArchiver
	maxCount   int
	maxAge     time.Duration
	now        func() time.Time

	mu          sync.RWMutex
	signals     []domain.SentimentSignal
	lastUpdated int64
	alerted     map[string]struct{}

	updates *pubsub.Broadcaster[[]domain.SentimentSignal]
}

func NewService(
	tracer trace.Tracer,
	providers []Provider,
	dispatcher AlertDispatcher,
	archive SignalArchiver,
	maxCount int,
	maxAge time.Duration,
) *Service {
	if maxCount <= 0 {
		maxCount = defaultMaxSignalCount
	}
	if maxAge <= 0 {
		maxAge = defaultMaxSignalAge
	}
	return &Service{
		tracer:     tracer,
		providers:  providers,
		dispatcher: dispatcher,
		archive:    archive,
		maxCount:   maxCount,
		maxAge:     maxAge,
		now:        time.Now,
		alerted:    make(map[string]struct{}),
		updates:    pubsub.NewBroadcaster[[]domain.SentimentSignal](),
	}
}

// Refresh runs one aggregation cycle. A provider failure counts as zero
// signals for that provider; a cycle where every provider comes back empty
// leaves the cache and its commit time untouched.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "sentiment.refresh")
	defer span.End()

	batches := make([][]domain.SentimentSignal, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("sentiment provider %s panic: %v", p.Key(), r)
				}
			}()
			signals, err := p.FetchSignals(ctx)
			if err != nil {
				log.Printf("sentiment provider %s fetch failed: %v", p.Key(), err)
				return
			}
			batches[i] = signals
		}(i, p)
	}
	wg.Wait()

	merged := make([]domain.SentimentSignal, 0)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}
	if len(merged) == 0 {
		log.Println("sentiment refresh produced no signals, keeping previous cache")
		return nil
	}

	now := s.now().UnixMilli()
	s.mu.Lock()
	s.signals = s.dedupeAndTrim(s.signals, merged, now)
	s.lastUpdated = now
	committed := copySignals(s.signals)
	s.mu.Unlock()

	s.updates.Publish(committed)
	s.handleAlerts(ctx, merged)

	if s.archive != nil {
		if err := s.archive.ArchiveSignals(ctx, committed); err != nil {
			log.Printf("failed to archive sentiment signals: %v", err)
		}
	}
	return nil
}

// dedupeAndTrim merges the previous cache with the fresh batch. Later
// entries win on duplicate ids, stale entries are dropped before merging,
// and the result is newest-first and capped.
func (s *Service) dedupeAndTrim(cache, fresh []domain.SentimentSignal, nowMillis int64) []domain.SentimentSignal {
	maxAgeMillis := s.maxAge.Milliseconds()
	byID := make(map[string]int, len(cache)+len(fresh))
	merged := make([]domain.SentimentSignal, 0, len(cache)+len(fresh))

	for _, batch := range [][]domain.SentimentSignal{cache, fresh} {
		for _, signal := range batch {
			if nowMillis-signal.CreatedAt > maxAgeMillis {
				continue
			}
			if idx, ok := byID[signal.ID]; ok {
				merged[idx] = signal
				continue
			}
			byID[signal.ID] = len(merged)
			merged = append(merged, signal)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt > merged[j].CreatedAt
	})
	if len(merged) > s.maxCount {
		merged = merged[:s.maxCount]
	}
	return merged
}

// handleAlerts walks the freshly fetched batch only. Once a signal's id is
// marked alerted it stays marked even if the dispatcher fails, so every
// signal alerts at most once.
func (s *Service) handleAlerts(ctx context.Context, fresh []domain.SentimentSignal) {
	if s.dispatcher == nil {
		return
	}
	for _, signal := range fresh {
		if signal.Sentiment != domain.ToneNegative || !signal.MarketDown() {
			continue
		}
		s.mu.Lock()
		if _, seen := s.alerted[signal.ID]; seen {
			s.mu.Unlock()
			continue
		}
		s.alerted[signal.ID] = struct{}{}
		s.mu.Unlock()

		if err := s.dispatcher.Dispatch(ctx, signal); err != nil {
			log.Printf("failed to send alert for %s: %v", signal.ID, err)
		}
	}
}

// Snapshot returns a copy of the committed signal set and its commit time
// in millis.
func (s *Service) Snapshot() ([]domain.SentimentSignal, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySignals(s.signals), s.lastUpdated
}

// Subscribe registers a listener for committed signal sets and returns its
// unsubscribe handle.
func (s *Service) Subscribe(fn func([]domain.SentimentSignal)) func() {
	return s.updates.Subscribe(fn)
}

func copySignals(signals []domain.SentimentSignal) []domain.SentimentSignal {
	out := make([]domain.SentimentSignal, len(signals))
	copy(out, signals)
	return out
}
