package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/linknest/linknest/internal/domain"
	"github.com/linknest/linknest/internal/logger"
)

// Gateway classifies URLs against an OpenAI-compatible chat-completions
// endpoint. Classification is best effort: every error path funnels into
// the deterministic domain fallback, so callers never block an add on it.
type Gateway struct {
	baseURL         string
	apiKey          string
	model           string
	timeout         time.Duration
	metadataTimeout time.Duration
	httpClient      *http.Client
	log             logger.Logger

	mu    sync.RWMutex
	rules map[string]string // domain → category overrides
}

// Options configures a Gateway. An empty BaseURL disables remote
// classification entirely; the gateway then answers from the fallback.
type Options struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	MetadataTimeout time.Duration
	Rules           map[string]string
	Logger          logger.Logger
}

// New creates a classifier gateway.
func New(opts Options) *Gateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	metaTimeout := opts.MetadataTimeout
	if metaTimeout <= 0 {
		metaTimeout = 6 * time.Second
	}
	return &Gateway{
		baseURL:         strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:          opts.APIKey,
		model:           opts.Model,
		timeout:         timeout,
		metadataTimeout: metaTimeout,
		rules:           opts.Rules,
		httpClient:      &http.Client{Timeout: timeout},
		log:             opts.Logger,
	}
}

// SetRules swaps the domain override rules. Called by the scheduler when
// the rules file is reloaded; the map must not be mutated after the call.
func (g *Gateway) SetRules(rules map[string]string) {
	g.mu.Lock()
	g.rules = rules
	g.mu.Unlock()
}

func (g *Gateway) currentRules() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rules
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify fetches page metadata, asks the model for a categorization
// and parses its JSON reply. Fails fast within the configured timeout;
// callers fall back via Fallback on any error.
func (g *Gateway) Classify(ctx context.Context, rawURL, userTitle string) (*domain.Suggestion, error) {
	if g.baseURL == "" {
		return g.Fallback(rawURL, userTitle), nil
	}

	meta := FetchPageMetadata(ctx, rawURL, g.metadataTimeout)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(rawURL, domain.ExtractDomain(rawURL), meta, userTitle)},
		},
	})
	if err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ClassificationError{
			Err: fmt.Errorf("classifier endpoint returned %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}
	if len(chat.Choices) == 0 {
		return nil, &domain.ClassificationError{Err: fmt.Errorf("empty model response")}
	}

	suggestion, err := parseSuggestion(chat.Choices[0].Message.Content, meta, userTitle)
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// parseSuggestion decodes the model's JSON answer, tolerating markdown
// code fences around it. Tags are capped at 4 and normalized.
func parseSuggestion(content string, meta PageMetadata, userTitle string) (*domain.Suggestion, error) {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		Category       string   `json:"category"`
		Tags           []string `json:"tags"`
		Summary        string   `json:"summary"`
		SuggestedTitle string   `json:"suggestedTitle"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &domain.ClassificationError{Err: fmt.Errorf("unparsable model reply: %w", err)}
	}

	category := raw.Category
	if !domain.IsKnownCategory(category) {
		category = domain.CategoryOther
	}
	if len(raw.Tags) > 4 {
		raw.Tags = raw.Tags[:4]
	}

	suggestedTitle := raw.SuggestedTitle
	if suggestedTitle == "" {
		suggestedTitle = meta.Title
	}
	if suggestedTitle == "" {
		suggestedTitle = userTitle
	}

	return &domain.Suggestion{
		Category:       category,
		Tags:           domain.NormalizeTags(raw.Tags),
		Summary:        raw.Summary,
		SuggestedTitle: suggestedTitle,
		PageTitle:      meta.Title,
	}, nil
}

func buildPrompt(rawURL, pageDomain string, meta PageMetadata, userTitle string) string {
	title := meta.Title
	if title == "" {
		title = userTitle
	}
	return fmt.Sprintf(`You are a smart bookmark organizer. Analyze this webpage and return a JSON object.

URL: %s
Domain: %s
Page Title: %s
Description: %s
Site Name: %s
Keywords: %s

Return ONLY a valid JSON object (no markdown, no backticks) with these fields:
{
  "category": "one of: %s",
  "tags": ["tag1", "tag2", "tag3"],
  "summary": "A concise one-line summary of what this page is about (max 15 words)",
  "suggestedTitle": "A clean, readable title for bookmarking (max 8 words)"
}

Rules:
- IMPORTANT: Use the URL and domain to determine the category even if metadata is missing or sparse.
- Well-known sites MUST be categorized correctly based on what they are, for example:
  youtube.com means Video, github.com means Development, twitter.com/x.com means Social Media,
  spotify.com means Music, amazon.com means Shopping, netflix.com means Entertainment,
  figma.com means Design, notion.so means Productivity, wikipedia.org means Reference
- NEVER use "Other" if the site clearly fits one of the categories above
- Pick the single BEST category from the list
- Generate 2-4 short, relevant lowercase tags (no hashtags)
- Summary should be helpful and descriptive
- suggestedTitle should be concise and clear`,
		rawURL, orUnknown(pageDomain), orUnknown(title), orNone(meta.Description),
		orUnknown(meta.SiteName), orNone(meta.Keywords),
		strings.Join(domain.Categories, ", "))
}
