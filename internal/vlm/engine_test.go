package vlm

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntimeStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/render_chat", func(w http.ResponseWriter, r *http.Request) {
		var req renderChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.NotEmpty(t, req.ImagePNG)
		json.NewEncoder(w).Encode(tokensResponse{Tokens: []int64{1, 2, 3}})
	})
	mux.HandleFunc("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1500, req.MaxNewTokens)
		json.NewEncoder(w).Encode(tokensResponse{Tokens: append(req.InputTokens, 7, 8)})
	})
	mux.HandleFunc("/v1/detokenize", func(w http.ResponseWriter, r *http.Request) {
		var req decodeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.SkipSpecialTokens)
		json.NewEncoder(w).Encode(textResponse{Text: "轉錄文字"})
	})
	mux.HandleFunc("/v1/release_memory", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(textResponse{})
	})
	return httptest.NewServer(mux)
}

func TestHTTPEngineRoundTrip(t *testing.T) {
	srv := newRuntimeStub(t)
	defer srv.Close()

	engine, err := NewHTTPEngine(srv.URL, "test-model", 5*time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	tokens, err := engine.RenderChat(ctx, "指令", img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, tokens)

	output, err := engine.Generate(ctx, tokens, 1500)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 7, 8}, output)

	text, err := engine.Decode(ctx, output[len(tokens):], true)
	require.NoError(t, err)
	assert.Equal(t, "轉錄文字", text)

	assert.NoError(t, engine.ReleaseMemory(ctx))
}

func TestHTTPEngineRuntimeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tokensResponse{Error: "CUDA error: device-side assert"})
	}))
	defer srv.Close()

	engine, err := NewHTTPEngine(srv.URL, "test-model", 5*time.Second)
	require.NoError(t, err)

	_, err = engine.Generate(context.Background(), []int64{1}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA")
	assert.True(t, isDeviceError(err))
}

func TestHTTPEngineBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine, err := NewHTTPEngine(srv.URL, "test-model", 5*time.Second)
	require.NoError(t, err)

	_, err = engine.RenderChat(context.Background(), "指令", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Error(t, err)
}

func TestNewHTTPEngineValidation(t *testing.T) {
	_, err := NewHTTPEngine("", "m", time.Second)
	assert.Error(t, err)

	_, err = NewHTTPEngine("http://127.0.0.1:30024", "", time.Second)
	assert.Error(t, err)
}
