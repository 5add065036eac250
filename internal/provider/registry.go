package provider

import (
	"context"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// MarketProvider is the fetch capability every market data source implements.
type MarketProvider interface {
	Fetch(ctx context.Context, config domain.AssetConfig) (domain.MarketData, error)
}

// Registry maps provider keys to implementations. Registration is static;
// there is no plugin loading.
type Registry struct {
	providers map[string]MarketProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]MarketProvider)}
}

func (r *Registry) Register(key string, p MarketProvider) {
	r.providers[key] = p
}

func (r *Registry) Resolve(key string) (MarketProvider, error) {
	p, ok := r.providers[key]
	if !ok {
		return nil, &UnknownProviderError{Key: key}
	}
	return p, nil
}

// DefaultRegistry wires the closed set of supported market providers.
// fixturePath, when non-empty, is an explicitly configured fixture file and
// read failures on it are not papered over with the built-in dataset.
func DefaultRegistry(tracer trace.Tracer, fixturePath string) *Registry {
	r := NewRegistry()
	r.Register("binance-perp", NewBinancePerpProvider(tracer))
	r.Register("synthetic", NewSyntheticProvider(tracer))
	r.Register("fixture", NewFixtureProvider(tracer, fixturePath))
	return r
}
