package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"thinkwise/models"
	"thinkwise/ports"
)

const defaultBaseURL = "https://api.tavily.com"

// NewSearcher creates a context searcher from config. Returns the mock
// searcher when no API key is configured so local runs work without
// credentials.
func NewSearcher(apiKey string, maxResults int, timeout time.Duration) ports.ContextSearcher {
	if strings.TrimSpace(apiKey) == "" {
		return &MockSearchClient{}
	}
	return NewTavilyClient(apiKey, maxResults, timeout)
}

// MockSearchClient is a mock context searcher for testing and offline runs
type MockSearchClient struct {
	Context *models.SearchContext // Set this for testing
	Error   error                 // Set this to simulate errors
}

func (m *MockSearchClient) SearchContext(ctx context.Context, ideaID, description string) (*models.SearchContext, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Context != nil {
		return m.Context, nil
	}
	return &models.SearchContext{
		Query:  buildQuery(description),
		Answer: "Mock market context used for offline runs.",
		Findings: []models.SearchFinding{
			{Title: "Mock finding", Snippet: "No live search was performed.", Score: 0.5},
		},
	}, nil
}

// TavilyClient implements ports.ContextSearcher against the Tavily
// search API.
type TavilyClient struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// NewTavilyClient creates a Tavily-backed context searcher
func NewTavilyClient(apiKey string, maxResults int, timeout time.Duration) *TavilyClient {
	if maxResults <= 0 {
		maxResults = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TavilyClient{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		MaxResults: maxResults,
		Timeout:    timeout,
	}
}

func (c *TavilyClient) SearchContext(ctx context.Context, ideaID, description string) (*models.SearchContext, error) {
	query := buildQuery(description)

	type reqBody struct {
		APIKey        string `json:"api_key"`
		Query         string `json:"query"`
		SearchDepth   string `json:"search_depth"`
		MaxResults    int    `json:"max_results"`
		IncludeAnswer bool   `json:"include_answer"`
	}
	body := reqBody{
		APIKey:        c.APIKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    c.MaxResults,
		IncludeAnswer: true,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tavily http %d: %s", resp.StatusCode, string(respRaw))
	}

	type result struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	}
	type respBody struct {
		Query   string   `json:"query"`
		Answer  string   `json:"answer"`
		Results []result `json:"results"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	findings := make([]models.SearchFinding, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		findings = append(findings, models.SearchFinding{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Score:   r.Score,
		})
	}

	log.Printf("[TavilySearch] Idea %s: %d findings for query %q", ideaID, len(findings), query)
	return &models.SearchContext{
		Query:    query,
		Answer:   decoded.Answer,
		Findings: findings,
	}, nil
}

// buildQuery turns an idea description into a bounded search query.
// Tavily caps query length, so long descriptions get truncated at a
// word boundary.
func buildQuery(description string) string {
	const maxQueryChars = 200

	desc := strings.TrimSpace(description)
	if len(desc) > maxQueryChars {
		desc = desc[:maxQueryChars]
		if idx := strings.LastIndex(desc, " "); idx > 0 {
			desc = desc[:idx]
		}
	}
	return desc + " market demand competition"
}
