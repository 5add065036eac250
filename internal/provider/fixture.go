package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const defaultFixturePath = "fixtures/markets.json"

type fixtureRecord struct {
	ID           string   `json:"id"`
	Symbol       string   `json:"symbol"`
	MarkPrice    float64  `json:"markPrice"`
	IndexPrice   *float64 `json:"indexPrice"`
	FundingRate  float64  `json:"fundingRate"`
	Change24h    float64  `json:"change24h"`
	OpenInterest float64  `json:"openInterest"`
	Volume24h    float64  `json:"volume24h"`
	Timestamp    int64    `json:"timestamp"`
}

type fixtureIndex map[string]fixtureRecord

// builtinFixtures keeps the pipeline alive when the default fixture file is
// missing or unreadable. Lookup keys are upper-cased asset ids.
var builtinFixtures = buildFixtureIndex([]fixtureRecord{
	{ID: "BTC-PERP", Symbol: "BTC-USDT", MarkPrice: 64520.15, IndexPrice: ptr(64480.4), FundingRate: 0.00018, Change24h: 2.4, OpenInterest: 328_000_000, Volume24h: 8_150_000_000},
	{ID: "ETH-PERP", Symbol: "ETH-USDT", MarkPrice: 3520.32, IndexPrice: ptr(3512.08), FundingRate: -0.00005, Change24h: 1.9, OpenInterest: 152_000_000, Volume24h: 2_860_000_000},
	{ID: "BNB-PERP", Symbol: "BNB-USDT", MarkPrice: 598.42, IndexPrice: ptr(597.1), FundingRate: 0.00027, Change24h: 3.2, OpenInterest: 64_000_000, Volume24h: 940_000_000},
	{ID: "SOL-PERP", Symbol: "SOL-USDT", MarkPrice: 178.65, IndexPrice: ptr(177.9), FundingRate: 0.00054, Change24h: 4.8, OpenInterest: 48_500_000, Volume24h: 760_000_000},
	{ID: "ASTR-PERP", Symbol: "ASTR-USDT", MarkPrice: 0.136, IndexPrice: ptr(0.1354), FundingRate: 0.0009, Change24h: 5.3, OpenInterest: 8_200_000, Volume24h: 28_500_000},
	{ID: "HYPE-PERP", Symbol: "HYPE-USDT", MarkPrice: 142.6, IndexPrice: ptr(143.1), FundingRate: 0.0012, Change24h: 6.7, OpenInterest: 12_500_000, Volume24h: 198_000_000},
})

func ptr(v float64) *float64 { return &v }

func buildFixtureIndex(records []fixtureRecord) fixtureIndex {
	index := make(fixtureIndex, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		index[strings.ToUpper(record.ID)] = record
	}
	return index
}

// FixtureProvider serves market data from a JSON index on disk. The parsed
// index is memoized per resolved path for the process lifetime. When the
// default path is in use a read or parse failure falls back to the built-in
// dataset; an explicitly configured path propagates the failure instead.
type FixtureProvider struct {
	tracer      trace.Tracer
	defaultPath string

	mu    sync.Mutex
	cache map[string]fixtureIndex
}

func NewFixtureProvider(tracer trace.Tracer, configuredPath string) *FixtureProvider {
	return &FixtureProvider{
		tracer:      tracer,
		defaultPath: strings.TrimSpace(configuredPath),
		cache:       make(map[string]fixtureIndex),
	}
}

func (p *FixtureProvider) Fetch(ctx context.Context, config domain.AssetConfig) (domain.MarketData, error) {
	_, span := p.tracer.Start(ctx, "fixture.fetch")
	defer span.End()

	pathParam := strings.TrimSpace(config.Params["path"])
	target := pathParam
	if target == "" {
		target = p.defaultPath
	}
	usingDefault := target == ""
	if usingDefault {
		target = defaultFixturePath
	}

	index, err := p.loadIndex(target, usingDefault)
	if err != nil {
		return domain.MarketData{}, err
	}

	record, ok := index[strings.ToUpper(config.ID)]
	if !ok {
		return domain.MarketData{}, fmt.Errorf("fixture entry missing for %s", config.ID)
	}

	symbol := record.Symbol
	if symbol == "" {
		symbol = config.DisplaySymbol
	}
	indexPrice := record.MarkPrice
	if record.IndexPrice != nil {
		indexPrice = *record.IndexPrice
	}
	timestamp := record.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	return domain.MarketData{
		ID:           config.ID,
		Symbol:       symbol,
		MarkPrice:    record.MarkPrice,
		IndexPrice:   indexPrice,
		FundingRate:  record.FundingRate,
		Change24h:    record.Change24h,
		OpenInterest: record.OpenInterest,
		Volume24h:    record.Volume24h,
		Provider:     config.Provider,
		Timestamp:    timestamp,
	}, nil
}

func (p *FixtureProvider) loadIndex(target string, allowBuiltin bool) (fixtureIndex, error) {
	resolved, err := filepath.Abs(target)
	if err != nil {
		resolved = target
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache[resolved]; ok {
		return cached, nil
	}

	index, err := readFixtureFile(resolved)
	if err != nil {
		if !allowBuiltin {
			return nil, &FixtureError{Path: target, Err: err}
		}
		p.cache[resolved] = builtinFixtures
		return builtinFixtures, nil
	}

	p.cache[resolved] = index
	return index, nil
}

func readFixtureFile(path string) (fixtureIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []fixtureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse fixture json: %w", err)
	}
	return buildFixtureIndex(records), nil
}
