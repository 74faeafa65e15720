package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/domain"
)

// GatewayClient scrapes verse text from a public Bible site. It is the last
// resort when the JSON Bible backend is unavailable.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.ClientTimeout},
	}
}

// FetchPassage retrieves a passage page and extracts its verse text.
func (c *GatewayClient) FetchPassage(ctx context.Context, reference, translation string) (*domain.BiblePassage, error) {
	q := url.Values{}
	q.Set("search", reference)
	q.Set("version", strings.ToUpper(translation))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/passage/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch passage page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: "passage page unavailable"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse passage page: %w", err)
	}

	passage := &domain.BiblePassage{Reference: reference, Translation: translation}
	doc.Find(".passage-text .text").Each(func(_ int, sel *goquery.Selection) {
		// Verse numbers and footnote markers are markup, not scripture.
		sel.Find("sup, .versenum, .chapternum").Remove()
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		passage.Verses = append(passage.Verses, domain.Verse{
			Reference:   reference,
			Text:        text,
			Translation: translation,
			Link:        req.URL.String(),
		})
	})

	if len(passage.Verses) == 0 {
		return nil, fmt.Errorf("no verse text found for %q", reference)
	}
	return passage, nil
}
