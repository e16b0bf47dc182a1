package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name      string
	available bool
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }
func (s *stubProvider) Generate(ctx context.Context, req Request) (Response, error) {
	return Response{Content: s.name + ":" + req.UserPrompt}, nil
}

func TestProviderManager_GetAvailable(t *testing.T) {
	tests := []struct {
		name      string
		providers []Provider
		preferred string
		expected  string
	}{
		{
			name:      "Preferred available",
			providers: []Provider{&stubProvider{"gemini", true}, &stubProvider{"openai", true}},
			preferred: "openai",
			expected:  "openai",
		},
		{
			name:      "Preferred unavailable falls back",
			providers: []Provider{&stubProvider{"gemini", true}, &stubProvider{"openai", false}},
			preferred: "openai",
			expected:  "gemini",
		},
		{
			name:      "Nothing available",
			providers: []Provider{&stubProvider{"gemini", false}},
			expected:  "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewProviderManager(tt.providers...)
			pm.SetPreferred(tt.preferred)
			assert.Equal(t, tt.expected, pm.Name())
		})
	}
}

func TestProviderManager_GenerateWithoutProvider(t *testing.T) {
	pm := NewProviderManager()
	_, err := pm.Generate(context.Background(), Request{UserPrompt: "hi"})
	assert.Error(t, err)
	assert.False(t, pm.Available())
	assert.Empty(t, pm.ListAvailable())
}

func TestGeminiProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-3-flash-preview:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "Translate this", body.Contents[0].Parts[0].Text)

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Bonjour"}]},"finishReason":"STOP"}],"modelVersion":"gemini-3-flash"}`)
	}))
	defer server.Close()

	provider := NewGeminiProvider("secret", "").WithBaseURL(server.URL)
	resp, err := provider.Generate(context.Background(), Request{UserPrompt: "Translate this"})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", resp.Content)
	assert.Equal(t, "gemini-3-flash", resp.Model)
}

func TestGeminiProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := NewGeminiProvider("secret", "").WithBaseURL(server.URL)
	_, err := provider.Generate(context.Background(), Request{UserPrompt: "x"})
	assert.Error(t, err)
}

func TestGeminiProvider_NotConfigured(t *testing.T) {
	provider := NewGeminiProvider("", "")
	assert.False(t, provider.Available())
	_, err := provider.Generate(context.Background(), Request{UserPrompt: "x"})
	assert.Error(t, err)
}

func TestOpenAIProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Hallo"},"finish_reason":"stop"}],"model":"gpt-test"}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-test").WithBaseURL(server.URL)
	resp, err := provider.Generate(context.Background(), Request{UserPrompt: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hallo", resp.Content)
	assert.Equal(t, "openai", provider.Name())
}
