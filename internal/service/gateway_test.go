package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berean-labs/berean/internal/domain"
)

const passagePage = `<html><body>
<div class="passage-text">
  <p><span class="text"><sup class="versenum">1</sup>The LORD is my shepherd; I shall not want.</span></p>
  <p><span class="text"><sup class="versenum">2</sup>He maketh me to lie down in green pastures.<sup class="footnote">[a]</sup></span></p>
  <p><span class="text">   </span></p>
</div>
</body></html>`

func TestFetchPassageStripsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/passage/", r.URL.Path)
		assert.Equal(t, "Psalm 23", r.URL.Query().Get("search"))
		assert.Equal(t, "WEB", r.URL.Query().Get("version"))
		w.Write([]byte(passagePage))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	got, err := c.FetchPassage(context.Background(), "Psalm 23", "web")
	require.NoError(t, err)

	require.Len(t, got.Verses, 2, "empty text nodes are skipped")
	assert.Equal(t, "The LORD is my shepherd; I shall not want.", got.Verses[0].Text)
	assert.Equal(t, "He maketh me to lie down in green pastures.", got.Verses[1].Text,
		"verse numbers and footnote markers must not leak into scripture text")
	assert.Equal(t, "Psalm 23", got.Reference)
	assert.Equal(t, "web", got.Translation)
}

func TestFetchPassageNoVersesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>No results found.</p></body></html>`))
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	_, err := c.FetchPassage(context.Background(), "Hezekiah 1:1", "web")
	assert.Error(t, err)
}

func TestFetchPassageUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL)
	_, err := c.FetchPassage(context.Background(), "John 1", "web")

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}
