package domain

// MarketData is one reconciled datum for a tracked instrument. All numeric
// fields are finite; providers coerce NaN/Inf to zero before handing data over.
type MarketData struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	MarkPrice    float64 `json:"markPrice"`
	IndexPrice   float64 `json:"indexPrice"`
	FundingRate  float64 `json:"fundingRate"`
	Change24h    float64 `json:"change24h"`
	OpenInterest float64 `json:"openInterest"`
	Volume24h    float64 `json:"volume24h"`
	Provider     string  `json:"provider"`
	Timestamp    int64   `json:"timestamp"`
}

// FallbackConfig names the secondary provider tried when the primary fails.
// Params may be nil, in which case the asset's primary params are reused.
type FallbackConfig struct {
	Provider string
	Params   map[string]string
}

// AssetConfig describes one tracked instrument. Immutable after load.
type AssetConfig struct {
	ID            string
	DisplaySymbol string
	Provider      string
	Params        map[string]string
	Fallback      *FallbackConfig
}

type SentimentTone string

const (
	TonePositive SentimentTone = "positive"
	ToneNeutral  SentimentTone = "neutral"
	ToneNegative SentimentTone = "negative"
)

// TagMarketDown marks a signal that reports broad downside pressure.
// Alerting keys off this tag (or the equivalent metadata flag).
const TagMarketDown = "market-down"

// SentimentSignal is a single observation from one sentiment source.
// ID is the dedupe key across refresh cycles.
type SentimentSignal struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Headline   string         `json:"headline"`
	Summary    string         `json:"summary,omitempty"`
	URL        string         `json:"url,omitempty"`
	Sentiment  SentimentTone  `json:"sentiment"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Tags       []string       `json:"tags,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (s SentimentSignal) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MarketDown reports whether the signal carries the market-down indicator,
// either as a tag or as a boolean metadata flag.
func (s SentimentSignal) MarketDown() bool {
	if s.HasTag(TagMarketDown) {
		return true
	}
	if s.Metadata != nil {
		if flag, ok := s.Metadata["marketDown"].(bool); ok {
			return flag
		}
	}
	return false
}
