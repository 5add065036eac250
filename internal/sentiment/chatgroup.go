package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	sourceChatGroup    = "chat-group"
	telegramAPIBaseURL = "https://api.telegram.org"
)

// ChatGroupProvider long-polls a Telegram bot's getUpdates feed and turns
// group messages into classified signals. Update ids are tracked across
// cycles so each message is ingested once. Without a token and group id it
// emits a single inactive placeholder.
type ChatGroupProvider struct {
	tracer     trace.Tracer
	client     *http.Client
	baseURL    string
	token      string
	chatID     string
	classifier Classifier
	now        func() time.Time

	mu           sync.Mutex
	lastUpdateID int64
}

func NewChatGroupProvider(tracer trace.Tracer, token, chatID string, classifier Classifier) *ChatGroupProvider {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &ChatGroupProvider{
		tracer:     tracer,
		client:     &http.Client{Timeout: 20 * time.Second},
		baseURL:    telegramAPIBaseURL,
		token:      strings.TrimSpace(token),
		chatID:     strings.TrimSpace(chatID),
		classifier: classifier,
		now:        time.Now,
	}
}

func (p *ChatGroupProvider) Key() string { return sourceChatGroup }

func (p *ChatGroupProvider) FetchSignals(ctx context.Context) ([]domain.SentimentSignal, error) {
	ctx, span := p.tracer.Start(ctx, "sentiment.chatgroup.fetch")
	defer span.End()

	if p.token == "" || p.chatID == "" {
		now := p.now().UnixMilli()
		return []domain.SentimentSignal{{
			ID:         fmt.Sprintf("chat-group-placeholder-%d", now),
			Source:     sourceChatGroup,
			Headline:   "Chat group ingestion inactive",
			Summary:    "Set TELEGRAM_BOT_TOKEN and TELEGRAM_GROUP_ID to enable live group monitoring.",
			Sentiment:  domain.ToneNeutral,
			Score:      0,
			Confidence: 0.1,
			Tags:       []string{"placeholder"},
			CreatedAt:  now,
		}}, nil
	}

	updates, err := p.getUpdates(ctx)
	if err != nil {
		return nil, err
	}

	now := p.now().UnixMilli()
	signals := make([]domain.SentimentSignal, 0, len(updates))
	for _, update := range updates {
		p.rememberUpdate(update.UpdateID)
		if update.Message == nil || update.Message.Chat == nil {
			continue
		}
		if fmt.Sprintf("%d", update.Message.Chat.ID) != p.chatID {
			continue
		}
		text := strings.TrimSpace(update.Message.Text)
		if text == "" {
			continue
		}

		classification := p.classifier.Classify(ctx, text)
		signal := domain.SentimentSignal{
			ID:         fmt.Sprintf("chat-group-%d", update.UpdateID),
			Source:     sourceChatGroup,
			Headline:   headlineFrom(text),
			Summary:    text,
			Sentiment:  classification.Tone,
			Score:      classification.Score,
			Confidence: 0.6,
			CreatedAt:  now,
			Metadata: map[string]any{
				"updateId": update.UpdateID,
				"chatId":   p.chatID,
				"basis":    classification.Basis,
			},
		}
		if classification.Tone == domain.ToneNegative && MarketDownText(text) {
			signal.Tags = append(signal.Tags, domain.TagMarketDown)
		}
		signals = append(signals, signal)
	}
	return signals, nil
}

type telegramUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (p *ChatGroupProvider) getUpdates(ctx context.Context) ([]telegramUpdate, error) {
	params := url.Values{"timeout": {"10"}}
	p.mu.Lock()
	if p.lastUpdateID > 0 {
		params.Set("offset", fmt.Sprintf("%d", p.lastUpdateID+1))
	}
	p.mu.Unlock()

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", strings.TrimRight(p.baseURL, "/"), p.token, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode telegram updates: %w", err)
	}
	if !payload.OK {
		return nil, nil
	}
	return payload.Result, nil
}

func (p *ChatGroupProvider) rememberUpdate(id int64) {
	p.mu.Lock()
	if id > p.lastUpdateID {
		p.lastUpdateID = id
	}
	p.mu.Unlock()
}
