package market

import (
	"fmt"
	"os"
	"strings"

	"perp-pulse/internal/domain"
)

// LoadAssets builds the tracked instrument list. The set is fixed at startup;
// per-asset provider, symbol, and fallback come from env overrides with
// binance-perp + fixture-fallback defaults.
func LoadAssets() ([]domain.AssetConfig, error) {
	assets := []domain.AssetConfig{
		assetFromEnv("BTC-PERP", "BTC-USDT", "BTC", "BTCUSDT"),
		assetFromEnv("ETH-PERP", "ETH-USDT", "ETH", "ETHUSDT"),
	}
	if err := ValidateAssets(assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func assetFromEnv(id, displaySymbol, envKey, defaultSymbol string) domain.AssetConfig {
	cfg := domain.AssetConfig{
		ID:            id,
		DisplaySymbol: displaySymbol,
		Provider:      envOrDefault("MARKET_PROVIDER_"+envKey, "binance-perp"),
		Params: map[string]string{
			"symbol": envOrDefault("MARKET_SYMBOL_"+envKey, defaultSymbol),
		},
	}

	fallback := envOrDefault("MARKET_FALLBACK_"+envKey, "fixture")
	if fallback != "none" {
		cfg.Fallback = &domain.FallbackConfig{Provider: fallback}
	}
	return cfg
}

// ValidateAssets rejects duplicate asset ids. A duplicate is a configuration
// error and fails the pipeline at startup, never at runtime.
func ValidateAssets(assets []domain.AssetConfig) error {
	seen := make(map[string]struct{}, len(assets))
	for _, asset := range assets {
		if _, ok := seen[asset.ID]; ok {
			return fmt.Errorf("duplicate asset id %s in registry", asset.ID)
		}
		seen[asset.ID] = struct{}{}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
