package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"dungeon-server/internal/gamelog"
)

const lmStudioMaxTokens = 2048

// LMStudioAdapter переводит нормализованный запрос в OpenAI-совместимый
// chat-протокол, который обслуживает LM Studio.
type LMStudioAdapter struct {
	client       *openaigo.Client
	audit        *gamelog.Logger
	log          *zap.Logger
	timeout      time.Duration
	systemPrompt string
}

// NewLMStudioAdapter создает адаптер. baseURL — OpenAI-совместимый корень
// вида http://localhost:11435/v1. LM Studio не проверяет API-ключ.
func NewLMStudioAdapter(baseURL string, timeout time.Duration, systemPrompt string, audit *gamelog.Logger, log *zap.Logger) *LMStudioAdapter {
	cfg := openaigo.DefaultConfig("lm-studio")
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &LMStudioAdapter{
		client:       openaigo.NewClientWithConfig(cfg),
		audit:        audit,
		log:          log.Named("LMStudioAdapter"),
		timeout:      timeout,
		systemPrompt: systemPrompt,
	}
}

// GenerateText выполняет запрос chat-completions и защищенно извлекает
// текст из ответа: форма payload стороннего сервера контрактом не
// гарантирована, любое отсутствующее поле дает пустую строку, а не сбой.
func (a *LMStudioAdapter) GenerateText(ctx context.Context, req Request) (string, UsageInfo) {
	usage := UsageInfo{}

	chatReq := openaigo.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: a.systemPrompt},
			{Role: openaigo.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: float32(req.Temperature),
		MaxTokens:   lmStudioMaxTokens,
	}
	requestBody, _ := json.Marshal(chatReq)
	options := map[string]any{
		"temperature": req.Temperature,
		"max_tokens":  lmStudioMaxTokens,
		"stream":      false,
	}

	requestCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	a.log.Debug("Отправка запроса к LM Studio",
		zap.String("model", req.Model),
		zap.Int("prompt_bytes", len(req.Prompt)))

	resp, err := a.client.CreateChatCompletion(requestCtx, chatReq)
	duration := time.Since(start)

	if err != nil {
		a.audit.Error(failureKind("LM Studio", err), err, map[string]any{"model": req.Model})
		aiRequestsTotal.WithLabelValues(req.Model, "lm_studio", "error").Inc()
		a.audit.AIExchange(gamelog.AIRecord{
			Model:       req.Model,
			Provider:    "lm_studio",
			Duration:    duration,
			Prompt:      req.Prompt,
			RequestBody: string(requestBody),
			Options:     options,
		})
		return "", usage
	}

	var reply string
	if len(resp.Choices) > 0 {
		reply = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	usage = UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		// LM Studio не всегда возвращает usage; оцениваем промт локально,
		// чтобы запись аудита не оставалась без счетчиков
		usage.PromptTokens = estimatePromptTokens(req.Model, a.systemPrompt+req.Prompt)
	}

	aiRequestsTotal.WithLabelValues(req.Model, "lm_studio", "success").Inc()
	aiRequestDuration.WithLabelValues(req.Model, "lm_studio").Observe(duration.Seconds())
	observeUsage(req.Model, usage)

	responseBody, _ := json.Marshal(resp)
	a.audit.AIExchange(gamelog.AIRecord{
		Model:        req.Model,
		Provider:     "lm_studio",
		Duration:     duration,
		Prompt:       req.Prompt,
		Reply:        reply,
		RequestBody:  string(requestBody),
		ResponseBody: string(responseBody),
		Options:      options,
		Extra: map[string]any{
			"finish_reason":     finishReason(resp),
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
		},
	})

	a.log.Debug("Ответ от LM Studio получен",
		zap.Duration("duration", duration),
		zap.Int("reply_chars", len(reply)))

	return reply, usage
}

func finishReason(resp openaigo.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return string(resp.Choices[0].FinishReason)
}

// estimatePromptTokens приблизительно считает токены промта через tiktoken.
// Для неизвестных моделей используется кодировка cl100k_base.
func estimatePromptTokens(model, text string) int {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0
		}
	}
	return len(tke.Encode(text, nil, nil))
}
