package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/berean-labs/berean/internal/domain"
)

const (
	placeholderTheological = "No theological insight available for this verse."
	placeholderHistorical  = "No historical context available for this verse."
	placeholderApplication = "No application notes available for this verse."
)

// ExplainClient fetches the three study sections for a verse. It never
// fails: an unavailable or timed-out service yields a deterministic mock,
// and an unstructured text response is mined section by section.
type ExplainClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewExplainClient(baseURL string, timeout time.Duration) *ExplainClient {
	return &ExplainClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Explain returns the explanation for a verse, falling back to the mock on
// any transport or upstream failure.
func (c *ExplainClient) Explain(ctx context.Context, verse domain.Verse) *domain.Explanation {
	if c.baseURL == "" {
		return mockExplanation(verse)
	}

	payload, err := json.Marshal(map[string]string{
		"reference":   verse.Reference,
		"text":        verse.Text,
		"translation": verse.Translation,
	})
	if err != nil {
		return mockExplanation(verse)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/explain", bytes.NewReader(payload))
	if err != nil {
		return mockExplanation(verse)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("explain service unavailable, using mock", "error", err, "reference", verse.Reference)
		return mockExplanation(verse)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("explain service failed, using mock", "status", resp.StatusCode, "reference", verse.Reference)
		return mockExplanation(verse)
	}

	var expl domain.Explanation
	if err := json.Unmarshal(body, &expl); err == nil && expl.Theological != "" {
		fillPlaceholders(&expl)
		return &expl
	}

	// Not structured JSON; mine the sections out of plain text.
	return extractSections(string(body))
}

var (
	theologicalPattern = regexp.MustCompile(`(?is)theological[^:]*:\s*(.+?)(?:historical|application|$)`)
	historicalPattern  = regexp.MustCompile(`(?is)historical[^:]*:\s*(.+?)(?:theological|application|$)`)
	applicationPattern = regexp.MustCompile(`(?is)application[^:]*:\s*(.+?)(?:theological|historical|$)`)
)

// extractSections pulls each labelled section out of free text. A section
// that cannot be found yields its fixed placeholder rather than failing the
// whole response.
func extractSections(text string) *domain.Explanation {
	expl := &domain.Explanation{}
	if m := theologicalPattern.FindStringSubmatch(text); m != nil {
		expl.Theological = strings.TrimSpace(m[1])
	}
	if m := historicalPattern.FindStringSubmatch(text); m != nil {
		expl.Historical = strings.TrimSpace(m[1])
	}
	if m := applicationPattern.FindStringSubmatch(text); m != nil {
		expl.Application = strings.TrimSpace(m[1])
	}
	fillPlaceholders(expl)
	return expl
}

func fillPlaceholders(expl *domain.Explanation) {
	if expl.Theological == "" {
		expl.Theological = placeholderTheological
	}
	if expl.Historical == "" {
		expl.Historical = placeholderHistorical
	}
	if expl.Application == "" {
		expl.Application = placeholderApplication
	}
}

// mockExplanation is deterministic for a given reference so repeated
// degraded requests render identically.
func mockExplanation(verse domain.Verse) *domain.Explanation {
	ref := verse.Reference
	if ref == "" {
		ref = "this passage"
	}
	return &domain.Explanation{
		Theological: fmt.Sprintf("%s speaks to God's character and his dealings with his people. Read it alongside the surrounding chapter to see the fuller argument.", ref),
		Historical:  fmt.Sprintf("%s was written into a concrete historical setting; its first hearers would have understood it against the covenant story of Israel.", ref),
		Application: fmt.Sprintf("Consider what %s reveals about God, and what response it invites in prayer, attitude, or action this week.", ref),
	}
}
