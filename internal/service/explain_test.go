package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berean-labs/berean/internal/domain"
)

func TestExplainMockIsDeterministic(t *testing.T) {
	c := NewExplainClient("", time.Second)
	verse := domain.Verse{Reference: "John 3:16", Text: "For God so loved the world..."}

	first := c.Explain(context.Background(), verse)
	second := c.Explain(context.Background(), verse)

	require.NotNil(t, first)
	assert.Equal(t, first, second, "degraded responses must render identically")
	assert.Contains(t, first.Theological, "John 3:16")
	assert.NotEmpty(t, first.Historical)
	assert.NotEmpty(t, first.Application)
}

func TestExplainFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewExplainClient(srv.URL, time.Second)
	got := c.Explain(context.Background(), domain.Verse{Reference: "Psalm 23:1"})

	require.NotNil(t, got)
	assert.Contains(t, got.Theological, "Psalm 23:1")
}

func TestExplainFallsBackOnUnreachableService(t *testing.T) {
	c := NewExplainClient("http://127.0.0.1:1", 50*time.Millisecond)
	got := c.Explain(context.Background(), domain.Verse{Reference: "Romans 8:28"})

	require.NotNil(t, got)
	assert.Contains(t, got.Application, "Romans 8:28")
}

func TestExplainParsesStructuredJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"theological":"God keeps covenant.","historical":"Exilic setting.","application":"Trust the promise."}`))
	}))
	defer srv.Close()

	c := NewExplainClient(srv.URL, time.Second)
	got := c.Explain(context.Background(), domain.Verse{Reference: "Jeremiah 29:11"})

	require.NotNil(t, got)
	assert.Equal(t, "God keeps covenant.", got.Theological)
	assert.Equal(t, "Exilic setting.", got.Historical)
	assert.Equal(t, "Trust the promise.", got.Application)
}

func TestExplainMinesPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Theological insight: God is faithful.\nHistorical context: Written to exiles.\nApplication: Hold fast."))
	}))
	defer srv.Close()

	c := NewExplainClient(srv.URL, time.Second)
	got := c.Explain(context.Background(), domain.Verse{Reference: "Lamentations 3:23"})

	require.NotNil(t, got)
	assert.Equal(t, "God is faithful.", got.Theological)
	assert.Equal(t, "Written to exiles.", got.Historical)
	assert.Equal(t, "Hold fast.", got.Application)
}

func TestExtractSections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Explanation
	}{
		{
			name: "all three sections",
			text: "Theological: Grace abounds. Historical: First-century Corinth. Application: Forgive freely.",
			want: domain.Explanation{
				Theological: "Grace abounds.",
				Historical:  "First-century Corinth.",
				Application: "Forgive freely.",
			},
		},
		{
			name: "missing sections get placeholders",
			text: "Theological: Grace abounds.",
			want: domain.Explanation{
				Theological: "Grace abounds.",
				Historical:  placeholderHistorical,
				Application: placeholderApplication,
			},
		},
		{
			name: "nothing recognizable",
			text: "lorem ipsum",
			want: domain.Explanation{
				Theological: placeholderTheological,
				Historical:  placeholderHistorical,
				Application: placeholderApplication,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSections(tt.text)
			assert.Equal(t, tt.want, *got)
		})
	}
}
