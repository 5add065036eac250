package sentiment

import (
	"context"
	"encoding/json"
	"strings"

	"perp-pulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Classification is the tone a classifier assigned to a piece of text.
// Basis records how the tone was produced so downstream consumers can weigh
// explicit upstream labels differently from heuristic guesses.
type Classification struct {
	Tone  domain.SentimentTone
	Score float64
	Basis string
}

const (
	BasisExplicit  = "explicit"
	BasisHeuristic = "heuristic"
	BasisLLM       = "llm"
)

// Classifier assigns a tone to free text. Implementations must be safe for
// concurrent use; providers classify during fan-out.
type Classifier interface {
	Classify(ctx context.Context, text string) Classification
}

var (
	negativeTerms = []string{"dump", "bear", "fud", "panic", "down"}
	positiveTerms = []string{"pump", "moon", "bull", "up only", "green"}

	// Terms that read as broad downside pressure rather than single-name
	// weakness. Used to decide the market-down tag on heuristic signals.
	marketDownTerms = []string{"dump", "down", "crash", "panic"}
)

// KeywordClassifier matches a fixed lexicon. Negative terms win ties with
// positive ones, matching how panicky chatter tends to cite both directions.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string) Classification {
	lower := strings.ToLower(text)
	if containsAny(lower, negativeTerms) {
		return Classification{Tone: domain.ToneNegative, Score: -0.5, Basis: BasisHeuristic}
	}
	if containsAny(lower, positiveTerms) {
		return Classification{Tone: domain.TonePositive, Score: 0.5, Basis: BasisHeuristic}
	}
	return Classification{Tone: domain.ToneNeutral, Score: 0, Basis: BasisHeuristic}
}

// MarketDownText reports whether the text names broad downside pressure.
func MarketDownText(text string) bool {
	return containsAny(strings.ToLower(text), marketDownTerms)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// LLMClassifier asks a chat-completions model for a tone and falls back to
// the keyword lexicon when the model is unreachable or returns garbage.
type LLMClassifier struct {
	client   chatCompleter
	model    string
	fallback KeywordClassifier
}

func NewLLMClassifier(apiKey, model string) *LLMClassifier {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &LLMClassifier{client: &chatClient{client: client}, model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) Classification {
	if c == nil || c.client == nil {
		return KeywordClassifier{}.Classify(ctx, text)
	}

	systemPrompt := "You classify crypto market chatter. Return ONLY JSON: {\"tone\": \"positive|neutral|negative\", \"score\": -1..1}. No markdown."
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil || len(completion.Choices) == 0 {
		return c.fallback.Classify(ctx, text)
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)
	var parsed struct {
		Tone  string  `json:"tone"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return c.fallback.Classify(ctx, text)
	}

	tone, ok := normalizeTone(parsed.Tone)
	if !ok {
		return c.fallback.Classify(ctx, text)
	}
	return Classification{Tone: tone, Score: clamp(parsed.Score, -1, 1), Basis: BasisLLM}
}

func normalizeTone(raw string) (domain.SentimentTone, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "bullish", "bull":
		return domain.TonePositive, true
	case "negative", "bearish", "bear":
		return domain.ToneNegative, true
	case "neutral":
		return domain.ToneNeutral, true
	default:
		return "", false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type chatClient struct {
	client openai.Client
}

func (c *chatClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
