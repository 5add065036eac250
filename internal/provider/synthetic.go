package provider

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBasePrice   = 150
	defaultAmplitude   = 12
	defaultChange24h   = 2.1
	defaultFundingRate = 0.012
)

// SyntheticProvider generates a deterministic waveform from wall-clock time
// and static params. No I/O, never fails; used for non-real assets and as a
// zero-dependency fallback.
type SyntheticProvider struct {
	tracer trace.Tracer
	now    func() time.Time
}

func NewSyntheticProvider(tracer trace.Tracer) *SyntheticProvider {
	return &SyntheticProvider{tracer: tracer, now: time.Now}
}

func (p *SyntheticProvider) Fetch(ctx context.Context, config domain.AssetConfig) (domain.MarketData, error) {
	_, span := p.tracer.Start(ctx, "synthetic.fetch")
	defer span.End()

	basePrice := paramNumber(config.Params, "basePrice", defaultBasePrice)
	amplitude := paramNumber(config.Params, "amplitude", defaultAmplitude)
	change24h := paramNumber(config.Params, "change24h", defaultChange24h)
	fundingRate := paramNumber(config.Params, "fundingRate", defaultFundingRate)

	// Two periodic waves with different periods so no single frequency
	// dominates the generated series.
	nowMs := p.now().UnixMilli()
	cycle := math.Sin(float64(nowMs) / 600_000)
	variance := math.Cos(float64(nowMs)/240_000) * 0.5
	markPrice := basePrice + amplitude*cycle
	indexPrice := markPrice * (1 + variance/100)

	return domain.MarketData{
		ID:           config.ID,
		Symbol:       config.DisplaySymbol,
		MarkPrice:    markPrice,
		IndexPrice:   indexPrice,
		FundingRate:  fundingRate,
		Change24h:    change24h,
		OpenInterest: math.Abs(markPrice * 3_500),
		Volume24h:    math.Abs(markPrice * 125_000),
		Provider:     config.Provider,
		Timestamp:    nowMs,
	}, nil
}

func paramNumber(params map[string]string, key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(params[key]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
