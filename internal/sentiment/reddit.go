package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"perp-pulse/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	sourceReddit        = "reddit"
	redditBaseURL       = "https://www.reddit.com"
	defaultRedditUA     = "perp-pulse/1.0 (sentiment monitor)"
	redditPostsPerComm  = 5
	redditDefaultCommas = "CryptoCurrency,ethfinance"
)

// RedditProvider reads the hot listing of each configured community and
// classifies post titles. When live ingestion is disabled it emits one
// neutral monitoring placeholder per community instead.
type RedditProvider struct {
	tracer      trace.Tracer
	client      *http.Client
	baseURL     string
	userAgent   string
	communities []string
	live        bool
	classifier  Classifier
	now         func() time.Time
}

func NewRedditProvider(tracer trace.Tracer, communities []string, live bool, classifier Classifier) *RedditProvider {
	if len(communities) == 0 {
		communities = ParseCommunities(redditDefaultCommas)
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &RedditProvider{
		tracer:      tracer,
		client:      &http.Client{Timeout: 20 * time.Second},
		baseURL:     redditBaseURL,
		userAgent:   defaultRedditUA,
		communities: communities,
		live:        live,
		classifier:  classifier,
		now:         time.Now,
	}
}

// ParseCommunities splits a comma or whitespace separated community list.
func ParseCommunities(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (p *RedditProvider) Key() string { return sourceReddit }

func (p *RedditProvider) FetchSignals(ctx context.Context) ([]domain.SentimentSignal, error) {
	ctx, span := p.tracer.Start(ctx, "sentiment.reddit.fetch")
	defer span.End()

	if len(p.communities) == 0 {
		return nil, nil
	}
	if !p.live {
		return p.placeholders(), nil
	}

	signals := make([]domain.SentimentSignal, 0, len(p.communities)*redditPostsPerComm)
	for _, community := range p.communities {
		batch, err := p.fetchCommunity(ctx, community)
		if err != nil {
			return nil, fmt.Errorf("fetch r/%s: %w", community, err)
		}
		signals = append(signals, batch...)
	}
	return signals, nil
}

func (p *RedditProvider) placeholders() []domain.SentimentSignal {
	now := p.now().UnixMilli()
	signals := make([]domain.SentimentSignal, 0, len(p.communities))
	for _, community := range p.communities {
		signals = append(signals, domain.SentimentSignal{
			ID:         fmt.Sprintf("reddit-%s-%d", community, now),
			Source:     sourceReddit,
			Headline:   fmt.Sprintf("Monitoring sentiment for r/%s", community),
			Summary:    "Reddit ingestion placeholder, live data disabled.",
			URL:        "https://reddit.com/r/" + community,
			Sentiment:  domain.ToneNeutral,
			Score:      0,
			Confidence: 0.3,
			Tags:       []string{"placeholder"},
			CreatedAt:  now,
			Metadata:   map[string]any{"subreddit": community},
		})
	}
	return signals
}

func (p *RedditProvider) fetchCommunity(ctx context.Context, community string) ([]domain.SentimentSignal, error) {
	base := strings.TrimRight(p.baseURL, "/")
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", base, url.PathEscape(community), redditPostsPerComm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Title      string  `json:"title"`
					SelfText   string  `json:"selftext"`
					Permalink  string  `json:"permalink"`
					CreatedUTC float64 `json:"created_utc"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode reddit listing: %w", err)
	}

	signals := make([]domain.SentimentSignal, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		post := child.Data
		if strings.TrimSpace(post.Title) == "" {
			continue
		}
		text := post.Title + " " + post.SelfText
		classification := p.classifier.Classify(ctx, text)
		created := int64(post.CreatedUTC * 1000)
		if created <= 0 {
			created = p.now().UnixMilli()
		}
		signal := domain.SentimentSignal{
			ID:         fmt.Sprintf("reddit-%s-%s", community, post.ID),
			Source:     sourceReddit,
			Headline:   headlineFrom(post.Title),
			Summary:    strings.TrimSpace(post.SelfText),
			URL:        "https://reddit.com" + post.Permalink,
			Sentiment:  classification.Tone,
			Score:      classification.Score,
			Confidence: 0.5,
			CreatedAt:  created,
			Metadata:   map[string]any{"subreddit": community, "basis": classification.Basis},
		}
		if classification.Tone == domain.ToneNegative && MarketDownText(text) {
			signal.Tags = append(signal.Tags, domain.TagMarketDown)
		}
		signals = append(signals, signal)
	}
	return signals, nil
}
