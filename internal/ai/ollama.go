package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"dungeon-server/internal/gamelog"
)

// OllamaAdapter переводит нормализованный запрос в нативный
// completion-протокол Ollama (/api/generate).
type OllamaAdapter struct {
	client  *api.Client
	audit   *gamelog.Logger
	log     *zap.Logger
	timeout time.Duration
}

// NewOllamaAdapter создает адаптер. generateURL — полный URL completion
// endpoint'а; клиент Ollama ожидает базовый URL без суффикса пути.
func NewOllamaAdapter(generateURL string, timeout time.Duration, audit *gamelog.Logger, log *zap.Logger) (*OllamaAdapter, error) {
	base := strings.TrimSuffix(generateURL, "/api/generate")
	base = strings.TrimSuffix(base, "/")

	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama URL '%s': %w", base, err)
	}

	httpClient := &http.Client{Timeout: timeout}

	return &OllamaAdapter{
		client:  api.NewClient(parsed, httpClient),
		audit:   audit,
		log:     log.Named("OllamaAdapter"),
		timeout: timeout,
	}, nil
}

// GenerateText выполняет запрос и возвращает извлеченный текст ответа.
// Обмен целиком (промт, тело запроса, сырое тело ответа, длительность)
// уходит в AI-канал независимо от исхода: единицей аудита является сам
// обмен, а не только его результат.
func (a *OllamaAdapter) GenerateText(ctx context.Context, req Request) (string, UsageInfo) {
	usage := UsageInfo{}

	options := map[string]any{
		"temperature":    req.Temperature,
		"min_p":          0.05,
		"top_k":          40,
		"top_p":          0.9,
		"num_ctx":        4096,
		"repeat_penalty": 1.1,
	}
	stream := false
	genReq := &api.GenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: options,
	}
	requestBody, _ := json.Marshal(genReq)

	requestCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	a.log.Debug("Отправка запроса к Ollama",
		zap.String("model", req.Model),
		zap.Int("prompt_bytes", len(req.Prompt)))

	var resp api.GenerateResponse
	err := a.client.Generate(requestCtx, genReq, func(r api.GenerateResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		a.audit.Error(failureKind("Ollama", err), err, map[string]any{"model": req.Model})
		aiRequestsTotal.WithLabelValues(req.Model, "ollama", "error").Inc()
		a.audit.AIExchange(gamelog.AIRecord{
			Model:       req.Model,
			Provider:    "ollama",
			Duration:    duration,
			Prompt:      req.Prompt,
			RequestBody: string(requestBody),
			Options:     options,
		})
		return "", usage
	}

	reply := strings.TrimSpace(resp.Response)
	usage = UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}

	aiRequestsTotal.WithLabelValues(req.Model, "ollama", "success").Inc()
	aiRequestDuration.WithLabelValues(req.Model, "ollama").Observe(duration.Seconds())
	observeUsage(req.Model, usage)

	responseBody, _ := json.Marshal(resp)
	a.audit.AIExchange(gamelog.AIRecord{
		Model:        req.Model,
		Provider:     "ollama",
		Duration:     duration,
		Prompt:       req.Prompt,
		Reply:        reply,
		RequestBody:  string(requestBody),
		ResponseBody: string(responseBody),
		Options:      options,
		Extra: map[string]any{
			"context":           resp.Context,
			"done_reason":       resp.DoneReason,
			"total_duration":    resp.TotalDuration,
			"prompt_eval_count": resp.PromptEvalCount,
			"eval_count":        resp.EvalCount,
		},
	})

	a.log.Debug("Ответ от Ollama получен",
		zap.Duration("duration", duration),
		zap.Int("reply_chars", len(reply)))

	return reply, usage
}
