package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berean-labs/berean/internal/domain"
)

func TestAskNormalizesWireResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ask", r.URL.Path)

		var req askRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is grace?", req.Question)
		assert.True(t, req.Options.Fallback)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ai": "Unmerited favor.",
			"verses": [
				{"ref": "Ephesians 2:8", "text": "For by grace...", "translation": "web"},
				{"ref": "", "text": ""}
			],
			"commentary": [
				{"source": "Matthew Henry", "text": "Grace is free."},
				{"source": "Empty", "text": ""}
			],
			"usage": {"prompt_tokens": 12, "completion_tokens": 34},
			"cached": true
		}`))
	}))
	defer srv.Close()

	c := NewAnswersClient(srv.URL)
	got, err := c.Ask(context.Background(), "What is grace?", true)
	require.NoError(t, err)

	assert.Equal(t, "Unmerited favor.", got.Response.AIAnswer)
	require.Len(t, got.Response.ReferencedVerses, 1, "empty wire verses are dropped")
	assert.Equal(t, "Ephesians 2:8", got.Response.ReferencedVerses[0].Reference)
	require.Len(t, got.Response.CommentaryExcerpts, 1, "empty commentary is dropped")
	assert.Equal(t, "Matthew Henry", got.Response.CommentaryExcerpts[0].Source)
	require.NotNil(t, got.Usage)
	assert.Equal(t, 12, got.Usage.PromptTokens)
	assert.Equal(t, 34, got.Usage.CompletionTokens)
	assert.True(t, got.FromCache)
}

func TestAskOmittedUsageStaysNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ai": "answer"}`))
	}))
	defer srv.Close()

	c := NewAnswersClient(srv.URL)
	got, err := c.Ask(context.Background(), "q", false)
	require.NoError(t, err)
	assert.Nil(t, got.Usage)
	assert.False(t, got.FromCache)
	assert.Empty(t, got.Response.ReferencedVerses)
}

func TestAskDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "quota exceeded", "details": "retry in 60s"}`))
	}))
	defer srv.Close()

	c := NewAnswersClient(srv.URL)
	_, err := c.Ask(context.Background(), "q", false)
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "quota exceeded", apiErr.Message)
	assert.Equal(t, "retry in 60s", apiErr.Details)
}

func TestAskErrorWithoutBodyUsesStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAnswersClient(srv.URL)
	_, err := c.Ask(context.Background(), "q", false)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestAskHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	c := NewAnswersClient(srv.URL)
	go func() {
		_, err := c.Ask(ctx, "q", false)
		done <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
