package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeProviderGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "{\"score\": 64}"}],
			"stop_reason": "end_turn", "stop_sequence": null,
			"usage": {"input_tokens": 120, "output_tokens": 9}
		}`)
	}))
	defer srv.Close()

	p, err := NewClaudeProvider("test-key", "claude-test", option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		System:   "be brief",
		Prompt:   "rate this",
		Image:    []byte{0xff, 0xd8, 0xff},
		MIMEType: "image/jpeg",
		JSON:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 64}`, resp.Text)
	assert.Equal(t, "claude", resp.Provider)
	assert.EqualValues(t, 120, resp.InputTokens)

	msgs := got["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
}

func TestClaudeProviderUpstreamErrorTripsBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer srv.Close()

	p, err := NewClaudeProvider("test-key", "claude-test", option.WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, statusCode(err))
	assert.True(t, countsAsFailure(err))
}

func TestNewProvidersRequireKeys(t *testing.T) {
	_, err := NewClaudeProvider("", "")
	assert.Error(t, err)
	_, err = NewGeminiProvider(context.Background(), "", "")
	assert.Error(t, err)
}
