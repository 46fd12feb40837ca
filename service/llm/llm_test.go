package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txplain/txplain/service/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromConfig_SelectsProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{config.ProviderOpenAI, "openai"},
		{config.ProviderAnthropic, "anthropic"},
		{config.ProviderGemini, "gemini"},
		{config.ProviderMistral, "mistral"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{Provider: tt.provider}
			p, err := FromConfig(cfg, nil, nil, discardLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestFromConfig_UnknownProvider(t *testing.T) {
	_, err := FromConfig(&config.Config{Provider: "skynet"}, nil, nil, discardLogger())
	assert.Error(t, err)
}

func TestGenerate_MissingCredential(t *testing.T) {
	providers := []Provider{
		NewOpenAI("", "", http.DefaultClient, nil, discardLogger()),
		NewAnthropic("", "", http.DefaultClient, nil, discardLogger()),
		NewGemini("", "", http.DefaultClient, nil, discardLogger()),
		NewMistral("", "", http.DefaultClient, nil, discardLogger()),
	}

	for _, p := range providers {
		t.Run(p.Name(), func(t *testing.T) {
			_, err := p.Generate(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrMissingCredential)
		})
	}
}

func TestOpenAI_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openAIDefaultModel, req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Write([]byte(`{"choices":[{"message":{"content":"  A token swap on Jupiter.  "}}]}`))
	}))
	defer server.Close()

	p := NewOpenAI("sk-test", "", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	text, err := p.Generate(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "A token swap on Jupiter.", text)
}

func TestOpenAI_ModelOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	p := NewOpenAI("sk-test", "gpt-4o", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	_, err := p.Generate(context.Background(), "hi")
	require.NoError(t, err)
}

func TestAnthropic_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		w.Write([]byte(`{"content":[{"type":"text","text":"This transaction staked SOL."}]}`))
	}))
	defer server.Close()

	p := NewAnthropic("sk-ant", "", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	text, err := p.Generate(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "This transaction staked SOL.", text)
}

func TestGemini_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A vote transaction."}]}}]}`))
	}))
	defer server.Close()

	p := NewGemini("g-key", "", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	text, err := p.Generate(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "A vote transaction.", text)
}

func TestMistral_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer m-key", r.Header.Get("Authorization"))

		w.Write([]byte(`{"choices":[{"message":{"content":"A SOL transfer."}}]}`))
	}))
	defer server.Close()

	p := NewMistral("m-key", "", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	text, err := p.Generate(context.Background(), "explain this")
	require.NoError(t, err)
	assert.Equal(t, "A SOL transfer.", text)
}

func TestGenerate_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewOpenAI("sk-test", "", server.Client(), nil, discardLogger())
	p.baseURL = server.URL

	_, err := p.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestGenerate_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>gateway error</html>`},
		{name: "empty choices", body: `{"choices":[]}`},
		{name: "empty content", body: `{"choices":[{"message":{"content":"   "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewOpenAI("sk-test", "", server.Client(), nil, discardLogger())
			p.baseURL = server.URL

			_, err := p.Generate(context.Background(), "hi")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
