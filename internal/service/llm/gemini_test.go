package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MarketWhisperer/internal/domain/models"
	"MarketWhisperer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiUnconfigured(t *testing.T) {
	g, err := NewGemini(context.Background(), Options{Model: "gemini-flash-latest"}, logger.Nop())
	require.NoError(t, err)

	assert.False(t, g.Configured())
	_, err = g.Generate(context.Background(), "hello")
	assert.True(t, errors.Is(err, models.ErrNotConfigured))
}

func TestGeminiGenerate(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-flash-latest:generateContent"), r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"action\":\"BUY\"}"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), Options{
		APIKey:      "test-key",
		Model:       "gemini-flash-latest",
		Temperature: 0.2,
		BaseURL:     srv.URL,
	}, logger.Nop())
	require.NoError(t, err)
	require.True(t, g.Configured())

	text, err := g.Generate(context.Background(), "analyze ACME")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"BUY"}`, text)
	assert.Contains(t, gotBody, "analyze ACME")
}
