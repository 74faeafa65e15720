package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/domain"
)

// BibleClient retrieves scripture text from the Bible backend.
type BibleClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBibleClient(baseURL string) *BibleClient {
	return &BibleClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.ClientTimeout},
	}
}

type wirePassage struct {
	Reference   string `json:"reference"`
	Translation string `json:"translation"`
	Verses      []struct {
		Reference string `json:"reference"`
		Text      string `json:"text"`
	} `json:"verses"`
}

// GetChapter fetches one chapter of a book.
func (c *BibleClient) GetChapter(ctx context.Context, book string, chapter int, translation string) (*domain.BiblePassage, error) {
	q := url.Values{}
	q.Set("book", book)
	q.Set("chapter", strconv.Itoa(chapter))
	q.Set("translation", translation)
	return c.getPassage(ctx, "/api/bible/chapter?"+q.Encode())
}

// GetPassage fetches a passage by free-form reference, e.g. "John 3:16-18".
func (c *BibleClient) GetPassage(ctx context.Context, reference, translation string) (*domain.BiblePassage, error) {
	q := url.Values{}
	q.Set("reference", reference)
	q.Set("translation", translation)
	return c.getPassage(ctx, "/api/bible/passage?"+q.Encode())
}

func (c *BibleClient) getPassage(ctx context.Context, path string) (*domain.BiblePassage, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var wire wirePassage
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse passage: %w", err)
	}

	passage := &domain.BiblePassage{
		Reference:   wire.Reference,
		Translation: wire.Translation,
		Verses:      make([]domain.Verse, 0, len(wire.Verses)),
	}
	for _, v := range wire.Verses {
		passage.Verses = append(passage.Verses, domain.Verse{
			Reference:   v.Reference,
			Text:        v.Text,
			Translation: wire.Translation,
		})
	}
	return passage, nil
}

// ListTranslations fetches the available translations.
func (c *BibleClient) ListTranslations(ctx context.Context) ([]domain.Translation, error) {
	body, err := c.get(ctx, "/api/bible/translations")
	if err != nil {
		return nil, err
	}
	var wire struct {
		Translations []domain.Translation `json:"translations"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse translations: %w", err)
	}
	return wire.Translations, nil
}

func (c *BibleClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bible request: %w", err)
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
