package ai

import (
	"context"
	"errors"
	"net/http"
	"os/exec"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"dungeon-server/internal/config"
	"dungeon-server/internal/gamelog"
)

// ModelLister перечисляет установленные модели обоих бэкендов.
type ModelLister struct {
	prober         *Prober
	lmStudio       *openaigo.Client
	ollamaTagsURL  string
	lmStudioModels string
	listTimeout    time.Duration
	audit          *gamelog.Logger
	log            *zap.Logger
}

// NewModelLister создает перечислитель моделей.
func NewModelLister(cfg *config.Config, audit *gamelog.Logger, log *zap.Logger) *ModelLister {
	openaiCfg := openaigo.DefaultConfig("lm-studio")
	openaiCfg.BaseURL = strings.TrimSuffix(cfg.LMStudioBaseURL, "/")
	openaiCfg.HTTPClient = &http.Client{Timeout: cfg.ProbeTimeout}

	return &ModelLister{
		prober:         NewProber(cfg.ProbeTimeout, audit, log),
		lmStudio:       openaigo.NewClientWithConfig(openaiCfg),
		ollamaTagsURL:  cfg.OllamaTagsURL,
		lmStudioModels: strings.TrimSuffix(cfg.LMStudioBaseURL, "/") + "/models",
		listTimeout:    cfg.ListTimeout,
		audit:          audit,
		log:            log.Named("ModelLister"),
	}
}

// InstalledModels возвращает объединенный список моделей Ollama и LM Studio.
// Недоступный бэкенд дает пустой вклад, а не ошибку.
func (l *ModelLister) InstalledModels(ctx context.Context) []string {
	models := l.OllamaModels(ctx)
	return append(models, l.LMStudioModels(ctx)...)
}

// OllamaModels перечисляет локальные модели Ollama через `ollama list`.
// Ненулевой код выхода или таймаут дают пустой список плюс запись ошибки.
func (l *ModelLister) OllamaModels(ctx context.Context) []string {
	if !l.prober.Probe("Ollama", l.ollamaTagsURL) {
		l.audit.Operation("ollama_server_unavailable", map[string]any{"status": "Ollama server not running"}, "", 0, nil)
		return nil
	}

	cmdCtx, cancel := context.WithTimeout(ctx, l.listTimeout)
	defer cancel()

	out, err := exec.CommandContext(cmdCtx, "ollama", "list").Output()
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		l.audit.Error("Ollama list command timed out", nil, nil)
		return nil
	}
	if err != nil {
		ctxInfo := map[string]any{}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ctxInfo["exit_code"] = exitErr.ExitCode()
			ctxInfo["stderr"] = strings.TrimSpace(string(exitErr.Stderr))
		}
		l.audit.Error("Ollama list command failed", err, ctxInfo)
		return nil
	}

	return ParseOllamaList(string(out))
}

// ParseOllamaList разбирает табличный вывод `ollama list`: строка
// заголовка пропускается, имя модели — первый токен каждой строки.
func ParseOllamaList(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 1 {
		return nil
	}

	var models []string
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			models = append(models, fields[0])
		}
	}
	return models
}

// LMStudioModels перечисляет модели LM Studio через /v1/models (data[].id).
func (l *ModelLister) LMStudioModels(ctx context.Context) []string {
	if !l.prober.Probe("LM Studio", l.lmStudioModels) {
		return nil
	}

	list, err := l.lmStudio.ListModels(ctx)
	if err != nil {
		l.audit.Error("Error getting LM Studio models", err, nil)
		return nil
	}

	var models []string
	for _, m := range list.Models {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	return models
}
