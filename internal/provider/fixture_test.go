package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func fixtureConfig(id string, params map[string]string) domain.AssetConfig {
	return domain.AssetConfig{
		ID:            id,
		DisplaySymbol: id + "-DISPLAY",
		Provider:      "fixture",
		Params:        params,
	}
}

func TestFixtureFallsBackToBuiltinOnDefaultPath(t *testing.T) {
	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), "")
	// Run from a directory without fixtures/markets.json: the default-path
	// read fails and the built-in dataset must take over.
	t.Chdir(t.TempDir())

	data, err := p.Fetch(context.Background(), fixtureConfig("BTC-PERP", nil))
	if err != nil {
		t.Fatalf("default path must never fail: %v", err)
	}
	if data.MarkPrice != 64520.15 {
		t.Fatalf("expected builtin BTC-PERP mark price, got %f", data.MarkPrice)
	}
	if data.Symbol != "BTC-USDT" {
		t.Fatalf("expected fixture symbol, got %s", data.Symbol)
	}
}

func TestFixtureCustomPathFailurePropagates(t *testing.T) {
	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), "")
	cfg := fixtureConfig("BTC-PERP", map[string]string{"path": "custom/missing.json"})

	_, err := p.Fetch(context.Background(), cfg)
	var fixtureErr *FixtureError
	if !errors.As(err, &fixtureErr) {
		t.Fatalf("expected FixtureError for missing custom path, got %v", err)
	}
}

func TestFixtureConfiguredDefaultPathFailurePropagates(t *testing.T) {
	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), "also/missing.json")

	_, err := p.Fetch(context.Background(), fixtureConfig("BTC-PERP", nil))
	var fixtureErr *FixtureError
	if !errors.As(err, &fixtureErr) {
		t.Fatalf("explicitly configured path must propagate, got %v", err)
	}
}

func TestFixtureLookupIsCaseInsensitiveAndCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markets.json")
	payload := `[{"id":"DOGE-PERP","symbol":"DOGE-USDT","markPrice":0.31,"indexPrice":0.309,"change24h":1.1}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), path)
	data, err := p.Fetch(context.Background(), fixtureConfig("doge-perp", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.MarkPrice != 0.31 || data.IndexPrice != 0.309 {
		t.Fatalf("unexpected fixture data: %+v", data)
	}
	if data.Timestamp == 0 {
		t.Fatal("missing timestamp must be stamped with now")
	}

	// Parsed index is memoized per path: rewriting the file must not change
	// subsequent reads.
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	again, err := p.Fetch(context.Background(), fixtureConfig("DOGE-PERP", nil))
	if err != nil {
		t.Fatalf("cached index must still serve: %v", err)
	}
	if again.MarkPrice != 0.31 {
		t.Fatalf("expected memoized record, got %+v", again)
	}
}

func TestFixtureMissingEntry(t *testing.T) {
	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), "")
	t.Chdir(t.TempDir())

	if _, err := p.Fetch(context.Background(), fixtureConfig("NOPE-PERP", nil)); err == nil {
		t.Fatal("expected error for id absent from fixture index")
	}
}

func TestFixtureIndexPriceDefaultsToMarkPrice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markets.json")
	payload := `[{"id":"PEPE-PERP","markPrice":0.00001}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewFixtureProvider(trace.NewNoopTracerProvider().Tracer("test"), path)
	data, err := p.Fetch(context.Background(), fixtureConfig("PEPE-PERP", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.IndexPrice != data.MarkPrice {
		t.Fatalf("absent index price must mirror mark price: %+v", data)
	}
	if data.Symbol != "PEPE-PERP-DISPLAY" {
		t.Fatalf("absent symbol must use display symbol: %+v", data)
	}
}
