package ai_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dungeon-server/internal/ai"
	"dungeon-server/internal/gamelog"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newAuditLogger(t *testing.T) (*gamelog.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	return gamelog.New(filepath.Join(dir, "error_log.txt"), dir), dir
}

func readErrorLog(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "error_log.txt"))
	if os.IsNotExist(err) {
		return ""
	}
	assert.NoError(t, err)
	return string(data)
}

func TestProber_SuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	audit, dir := newAuditLogger(t)
	p := ai.NewProber(time.Second, audit, zap.NewNop())

	assert.True(t, p.Probe("Ollama", ts.URL))
	assert.Empty(t, readErrorLog(t, dir))
}

func TestProber_NonSuccessStatusLogsAndReturnsFalse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	audit, dir := newAuditLogger(t)
	p := ai.NewProber(time.Second, audit, zap.NewNop())

	assert.False(t, p.Probe("LM Studio", ts.URL))
	got := readErrorLog(t, dir)
	assert.Contains(t, got, "LM Studio check failed")
	assert.Contains(t, got, "service: LM Studio")
}

func TestProber_ConnectionErrorLogsAndReturnsFalse(t *testing.T) {
	// Сервер закрыт до запроса: гарантированный connection refused
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	audit, dir := newAuditLogger(t)
	p := ai.NewProber(time.Second, audit, zap.NewNop())

	assert.False(t, p.Probe("Ollama", url))
	assert.Contains(t, readErrorLog(t, dir), "Ollama check failed")
}
