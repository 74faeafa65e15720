package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/berean-labs/berean/internal/domain"
)

// AnswersClient calls the AI answer endpoint. The same endpoint serves both
// providers; the fallback flag selects the alternate one.
type AnswersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAnswersClient(baseURL string) *AnswersClient {
	return &AnswersClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

type askRequest struct {
	Question string     `json:"question"`
	Options  askOptions `json:"options"`
}

type askOptions struct {
	Fallback bool `json:"fallback"`
}

// wireVerse is the untrusted backend shape; note `ref`, not `reference`.
type wireVerse struct {
	Ref         string `json:"ref"`
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Link        string `json:"link"`
}

type wireCommentary struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Link   string `json:"link"`
}

type askResponse struct {
	AI         string           `json:"ai"`
	Verses     []wireVerse      `json:"verses"`
	Commentary []wireCommentary `json:"commentary"`
	Usage      *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Cached bool `json:"cached"`
}

// AnswerResult carries the normalized response plus request metadata the
// orchestrator hands to analytics.
type AnswerResult struct {
	Response  domain.ChatResponse
	Usage     *domain.TokenUsage
	FromCache bool
}

// Ask issues one answer request. Timeout handling belongs to the caller's
// context; the client itself sets no deadline.
func (c *AnswersClient) Ask(ctx context.Context, question string, fallback bool) (*AnswerResult, error) {
	payload, err := json.Marshal(askRequest{Question: question, Options: askOptions{Fallback: fallback}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ask request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var wire askResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &AnswerResult{
		Response:  normalizeAnswer(wire),
		Usage:     normalizeUsage(wire),
		FromCache: wire.Cached,
	}, nil
}

// normalizeAnswer maps the untrusted wire shape into the internal model at
// the service boundary, so loosely typed data never travels inward.
func normalizeAnswer(wire askResponse) domain.ChatResponse {
	out := domain.ChatResponse{
		AIAnswer:           wire.AI,
		ReferencedVerses:   make([]domain.Verse, 0, len(wire.Verses)),
		CommentaryExcerpts: make([]domain.Commentary, 0, len(wire.Commentary)),
	}
	for _, v := range wire.Verses {
		if v.Ref == "" && v.Text == "" {
			continue
		}
		out.ReferencedVerses = append(out.ReferencedVerses, domain.Verse{
			Reference:   v.Ref,
			Text:        v.Text,
			Translation: v.Translation,
			Link:        v.Link,
		})
	}
	for _, c := range wire.Commentary {
		if c.Text == "" {
			continue
		}
		out.CommentaryExcerpts = append(out.CommentaryExcerpts, domain.Commentary{
			Source: c.Source,
			Text:   c.Text,
			Link:   c.Link,
		})
	}
	return out
}

func normalizeUsage(wire askResponse) *domain.TokenUsage {
	if wire.Usage == nil {
		return nil
	}
	return &domain.TokenUsage{
		PromptTokens:     wire.Usage.PromptTokens,
		CompletionTokens: wire.Usage.CompletionTokens,
	}
}

func decodeAPIError(status int, body []byte) *domain.APIError {
	apiErr := &domain.APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
