package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateDecodesBase64Images(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"` +
			base64.StdEncoding.EncodeToString([]byte("png-bytes")) +
			`"},{"url":"https://example.com/x.png"},{"b64_json":"%%%"}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(Config{APIKey: "k", BaseURL: server.URL}, newTestLogger())
	blobs, err := gen.Generate(context.Background(), "red casual flatlay")
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("png-bytes")}, blobs)
	require.Equal(t, "red casual flatlay", body["prompt"])
	require.Equal(t, "b64_json", body["response_format"])
	require.Equal(t, "dall-e-3", body["model"])
}

func TestGenerateEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer server.Close()

	_, err := NewGenerator(Config{APIKey: "k", BaseURL: server.URL}, newTestLogger()).Generate(context.Background(), "p")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"prompt rejected","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := NewGenerator(Config{APIKey: "k", BaseURL: server.URL}, newTestLogger()).Generate(context.Background(), "p")
	require.ErrorContains(t, err, "image API error 400: prompt rejected")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
