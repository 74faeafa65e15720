package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/domain"
)

// VectorClient talks to the semantic verse index.
type VectorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewVectorClient(baseURL string) *VectorClient {
	return &VectorClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.ClientTimeout},
	}
}

// Query returns ranked matches for a free-text query.
func (c *VectorClient) Query(ctx context.Context, query string, limit int) ([]domain.VectorMatch, error) {
	body, err := c.post(ctx, "/api/vector/search", map[string]any{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	var wire struct {
		Results []domain.VectorMatch `json:"results"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return wire.Results, nil
}

// StoreBatch uploads a document batch and returns the stored ids.
func (c *VectorClient) StoreBatch(ctx context.Context, docs []domain.VectorDocument) ([]string, error) {
	body, err := c.post(ctx, "/api/vector/batch", map[string]any{
		"documents": docs,
	})
	if err != nil {
		return nil, err
	}
	var wire struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse stored ids: %w", err)
	}
	return wire.IDs, nil
}

func (c *VectorClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vector request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}
	return body, nil
}
