package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perp-pulse/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"go.opentelemetry.io/otel/trace"
)

const (
	sourceAIBrief       = "ai-brief"
	defaultAIBriefTopic = "crypto psychology"
	defaultAIBriefModel = "sonar"
	perplexityBaseURL   = "https://api.perplexity.ai"
)

// AIBriefProvider asks a chat-completions endpoint for a short market brief
// and turns it into one signal per cycle. Without credentials it emits a
// low-confidence placeholder so the pipeline keeps cycling.
type AIBriefProvider struct {
	tracer     trace.Tracer
	client     chatCompleter
	model      string
	topic      string
	classifier Classifier
	now        func() time.Time
}

func NewAIBriefProvider(tracer trace.Tracer, apiKey, model, topic string, classifier Classifier) *AIBriefProvider {
	if strings.TrimSpace(topic) == "" {
		topic = defaultAIBriefTopic
	}
	if strings.TrimSpace(model) == "" {
		model = defaultAIBriefModel
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}

	p := &AIBriefProvider{
		tracer:     tracer,
		model:      model,
		topic:      topic,
		classifier: classifier,
		now:        time.Now,
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(perplexityBaseURL))
		p.client = &chatClient{client: client}
	}
	return p
}

func (p *AIBriefProvider) Key() string { return sourceAIBrief }

func (p *AIBriefProvider) FetchSignals(ctx context.Context) ([]domain.SentimentSignal, error) {
	ctx, span := p.tracer.Start(ctx, "sentiment.aibrief.fetch")
	defer span.End()

	now := p.now().UnixMilli()
	if p.client == nil {
		return []domain.SentimentSignal{{
			ID:         fmt.Sprintf("ai-brief-%d", now),
			Source:     sourceAIBrief,
			Headline:   fmt.Sprintf("Queued AI brief for %s", p.topic),
			Summary:    "Set PERPLEXITY_API_KEY to replace this stub with live briefs.",
			Sentiment:  domain.ToneNeutral,
			Score:      0,
			Confidence: 0.2,
			Tags:       []string{"placeholder"},
			CreatedAt:  now,
			Metadata:   map[string]any{"topic": p.topic},
		}}, nil
	}

	prompt := fmt.Sprintf("Write a concise two-sentence market brief on %s as of today. Plain text, no markdown.", p.topic)
	completion, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai brief completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty ai brief completion")
	}

	brief := strings.TrimSpace(completion.Choices[0].Message.Content)
	if brief == "" {
		return nil, nil
	}

	classification := p.classifier.Classify(ctx, brief)
	signal := domain.SentimentSignal{
		ID:         fmt.Sprintf("ai-brief-%d", now),
		Source:     sourceAIBrief,
		Headline:   headlineFrom(brief),
		Summary:    brief,
		Sentiment:  classification.Tone,
		Score:      classification.Score,
		Confidence: 0.55,
		CreatedAt:  now,
		Metadata:   map[string]any{"topic": p.topic, "basis": classification.Basis},
	}
	if classification.Tone == domain.ToneNegative && MarketDownText(brief) {
		signal.Tags = append(signal.Tags, domain.TagMarketDown)
	}
	return []domain.SentimentSignal{signal}, nil
}

// headlineFrom keeps the first 120 characters of the text on a rune boundary.
func headlineFrom(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= 120 {
		return string(runes)
	}
	return string(runes[:120])
}
