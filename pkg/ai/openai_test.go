package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, status int, body string) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return client
}

func TestOpenAIClientReturnsMessageContent(t *testing.T) {
	client := newTestOpenAI(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"riskScore\": 12}"}}]}`)

	text, err := client.Generate(context.Background(), Request{Prompt: "check"})
	require.NoError(t, err)
	require.Equal(t, `{"riskScore": 12}`, text)
	require.Equal(t, "openai", client.Name())
}

func TestOpenAIClientClassifiesOverloadAsTransient(t *testing.T) {
	client := newTestOpenAI(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`)

	_, err := client.Generate(context.Background(), Request{Prompt: "check"})
	require.True(t, errors.Is(err, ErrUpstreamUnavailable))
}

func TestOpenAIClientClassifiesBadRequestAsPermanent(t *testing.T) {
	client := newTestOpenAI(t, http.StatusBadRequest, `{"error":{"message":"invalid model","type":"invalid_request_error"}}`)

	_, err := client.Generate(context.Background(), Request{Prompt: "check"})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	require.Equal(t, "invalid model", upstream.Body)
}
