package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func newTestBinanceProvider(baseURL string) *BinancePerpProvider {
	return &BinancePerpProvider{
		client:  &http.Client{Timeout: 2 * time.Second},
		baseURL: baseURL,
		tracer:  trace.NewNoopTracerProvider().Tracer("test"),
		limiter: NewRateLimiter(100, time.Millisecond),
	}
}

func btcConfig() domain.AssetConfig {
	return domain.AssetConfig{
		ID:            "BTC-PERP",
		DisplaySymbol: "BTC-USDT",
		Provider:      "binance-perp",
		Params:        map[string]string{"symbol": "BTCUSDT"},
	}
}

func TestBinanceFetchCombinesBothCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/fapi/v1/premiumIndex"):
			w.Write([]byte(`{"symbol":"BTCUSDT","markPrice":"64100.50","indexPrice":"64090.10","lastFundingRate":"0.0001"}`))
		case strings.HasPrefix(r.URL.Path, "/fapi/v1/ticker/24hr"):
			w.Write([]byte(`{"priceChangePercent":"2.5","quoteVolume":"8000000000","openInterest":"320000000"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := newTestBinanceProvider(srv.URL)
	data, err := p.Fetch(context.Background(), btcConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.MarkPrice != 64100.50 || data.IndexPrice != 64090.10 {
		t.Fatalf("unexpected prices: %+v", data)
	}
	if data.Change24h != 2.5 || data.OpenInterest != 320000000 {
		t.Fatalf("unexpected ticker fields: %+v", data)
	}
	if data.Provider != "binance-perp" || data.Symbol != "BTC-USDT" {
		t.Fatalf("unexpected identity fields: %+v", data)
	}
	if data.Timestamp == 0 {
		t.Fatal("expected fetch-time timestamp")
	}
}

func TestBinanceFetchCoercesNonFiniteToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/fapi/v1/premiumIndex") {
			w.Write([]byte(`{"markPrice":"NaN","indexPrice":"Infinity","lastFundingRate":"garbage"}`))
			return
		}
		w.Write([]byte(`{"priceChangePercent":"","quoteVolume":"1.5","openInterest":"-Inf"}`))
	}))
	defer srv.Close()

	p := newTestBinanceProvider(srv.URL)
	data, err := p.Fetch(context.Background(), btcConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.MarkPrice != 0 || data.IndexPrice != 0 || data.FundingRate != 0 {
		t.Fatalf("non-finite premium fields must be zero: %+v", data)
	}
	if data.Change24h != 0 || data.OpenInterest != 0 {
		t.Fatalf("non-finite ticker fields must be zero: %+v", data)
	}
	if data.Volume24h != 1.5 {
		t.Fatalf("finite field must survive: %+v", data)
	}
}

func TestBinanceFetchNon2xxIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newTestBinanceProvider(srv.URL)
	_, err := p.Fetch(context.Background(), btcConfig())
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", upstream.Status)
	}
}

func TestBinanceFetchMissingSymbolParam(t *testing.T) {
	p := newTestBinanceProvider("http://unused")
	cfg := btcConfig()
	cfg.Params = map[string]string{}
	if _, err := p.Fetch(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing symbol param")
	}
}
