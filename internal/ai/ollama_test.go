package ai_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dungeon-server/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOllamaAdapter_BuildsDocumentedRequestBody(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"qwen3-vl:4b","response":"  You awaken in a cave.  ","done":true,"done_reason":"stop","context":[1,2,3],"prompt_eval_count":12,"eval_count":34}`))
	}))
	defer ts.Close()

	audit, dir := newAuditLogger(t)
	adapter, err := ai.NewOllamaAdapter(ts.URL+"/api/generate", 5*time.Second, audit, zap.NewNop())
	require.NoError(t, err)

	reply, usage := adapter.GenerateText(t.Context(), ai.Request{
		Prompt:      "Tell me a story.",
		Model:       "qwen3-vl:4b",
		Temperature: 0.7,
	})

	// Ответ извлечен из поля response и очищен от пробелов
	assert.Equal(t, "You awaken in a cave.", reply)
	assert.Equal(t, 12, usage.PromptTokens)
	assert.Equal(t, 34, usage.CompletionTokens)

	assert.Equal(t, "qwen3-vl:4b", gotBody["model"])
	assert.Equal(t, "Tell me a story.", gotBody["prompt"])
	assert.Equal(t, false, gotBody["stream"])

	options, ok := gotBody["options"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.7, options["temperature"], 1e-9)
	assert.InDelta(t, 0.05, options["min_p"], 1e-9)
	assert.InDelta(t, 40, options["top_k"], 1e-9)
	assert.InDelta(t, 0.9, options["top_p"], 1e-9)
	assert.InDelta(t, 4096, options["num_ctx"], 1e-9)
	assert.InDelta(t, 1.1, options["repeat_penalty"], 1e-9)

	// Обмен попал в AI-канал целиком
	aiLog, err := os.ReadFile(filepath.Join(dir, "ai_log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(aiLog), "Tell me a story.")
	assert.Contains(t, string(aiLog), "You awaken in a cave.")
	assert.Contains(t, string(aiLog), "Provider: ollama")
}

func TestOllamaAdapter_ConnectionFailureReturnsEmptyAndLogsOnce(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	audit, dir := newAuditLogger(t)
	adapter, err := ai.NewOllamaAdapter(url+"/api/generate", time.Second, audit, zap.NewNop())
	require.NoError(t, err)

	reply, _ := adapter.GenerateText(t.Context(), ai.Request{Prompt: "hi", Model: "qwen3-vl:4b", Temperature: 0.7})
	assert.Empty(t, reply)

	errLog := readErrorLog(t, dir)
	assert.Equal(t, 1, strings.Count(errLog, "--- ERROR ["), "exactly one error entry per failed call")
	assert.Contains(t, errLog, "Cannot connect to Ollama server")

	// Обмен записан даже при сбое: единица аудита — сам обмен
	aiLog, err := os.ReadFile(filepath.Join(dir, "ai_log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(aiLog), "Prompt Length: 2 characters")
}

func TestOllamaAdapter_TimeoutLogsTimeoutKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	audit, dir := newAuditLogger(t)
	adapter, err := ai.NewOllamaAdapter(ts.URL+"/api/generate", 50*time.Millisecond, audit, zap.NewNop())
	require.NoError(t, err)

	reply, _ := adapter.GenerateText(t.Context(), ai.Request{Prompt: "hi", Model: "qwen3-vl:4b", Temperature: 0.7})
	assert.Empty(t, reply)
	assert.Contains(t, readErrorLog(t, dir), "Ollama request timed out")
}
