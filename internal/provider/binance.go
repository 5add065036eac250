package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://fapi.binance.com"

// BinancePerpProvider fetches perpetual futures data from the Binance
// futures REST API. Each Fetch issues the premium index and 24h ticker
// calls concurrently; a non-2xx on either fails the whole fetch.
type BinancePerpProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewBinancePerpProvider creates a provider with built-in rate limiting.
// Binance allows far more, but 60 calls/min is plenty for polling.
func NewBinancePerpProvider(tracer trace.Tracer) *BinancePerpProvider {
	return &BinancePerpProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(60, time.Second),
	}
}

type binancePremiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	IndexPrice      string `json:"indexPrice"`
	LastFundingRate string `json:"lastFundingRate"`
}

type binance24hrTicker struct {
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenInterest       string `json:"openInterest"`
}

func (p *BinancePerpProvider) Fetch(ctx context.Context, config domain.AssetConfig) (domain.MarketData, error) {
	_, span := p.tracer.Start(ctx, "binance-perp.fetch")
	defer span.End()

	symbol := strings.TrimSpace(config.Params["symbol"])
	if symbol == "" {
		return domain.MarketData{}, fmt.Errorf("missing binance symbol for %s", config.ID)
	}

	var (
		premium    binancePremiumIndex
		ticker     binance24hrTicker
		premiumErr error
		tickerErr  error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		premiumErr = p.getJSON(ctx, "/fapi/v1/premiumIndex?symbol="+symbol, &premium)
	}()
	go func() {
		defer wg.Done()
		tickerErr = p.getJSON(ctx, "/fapi/v1/ticker/24hr?symbol="+symbol, &ticker)
	}()
	wg.Wait()

	if premiumErr != nil {
		return domain.MarketData{}, premiumErr
	}
	if tickerErr != nil {
		return domain.MarketData{}, tickerErr
	}

	return domain.MarketData{
		ID:           config.ID,
		Symbol:       config.DisplaySymbol,
		MarkPrice:    finiteNumber(premium.MarkPrice),
		IndexPrice:   finiteNumber(premium.IndexPrice),
		FundingRate:  finiteNumber(premium.LastFundingRate),
		Change24h:    finiteNumber(ticker.PriceChangePercent),
		OpenInterest: finiteNumber(ticker.OpenInterest),
		Volume24h:    finiteNumber(ticker.QuoteVolume),
		Provider:     config.Provider,
		Timestamp:    time.Now().UnixMilli(),
	}, nil
}

func (p *BinancePerpProvider) getJSON(ctx context.Context, path string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &UpstreamError{Provider: "binance-perp", Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode binance response: %w", err)
	}
	return nil
}

// finiteNumber parses an upstream decimal string, coercing unparsable or
// non-finite values to zero so NaN/Inf never reaches a snapshot.
func finiteNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
