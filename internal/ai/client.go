package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dungeon-server/internal/config"
	"dungeon-server/internal/gamelog"
)

const defaultTemperature = 0.7

// Client — единая точка входа для получения AI-ответов: владеет выбором
// бэкенда и диспетчеризацией в адаптеры.
type Client struct {
	classifier   *Classifier
	ollama       Responder
	lmStudio     Responder
	audit        *gamelog.Logger
	log          *zap.Logger
	defaultModel string
}

// NewClient собирает оркестратор из конфигурации: пробер, классификатор
// и оба протокольных адаптера.
func NewClient(cfg *config.Config, systemPrompt string, audit *gamelog.Logger, log *zap.Logger) (*Client, error) {
	prober := NewProber(cfg.ProbeTimeout, audit, log)
	classifier := NewClassifier(prober.Probe, cfg.LMStudioBaseURL+"/models", cfg.OllamaTagsURL)

	ollama, err := NewOllamaAdapter(cfg.OllamaURL, cfg.RequestTimeout, audit, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Ollama адаптера: %w", err)
	}
	lmStudio := NewLMStudioAdapter(cfg.LMStudioBaseURL, cfg.RequestTimeout, systemPrompt, audit, log)

	return NewClientWithBackends(classifier, ollama, lmStudio, audit, log, cfg.DefaultModel), nil
}

// NewClientWithBackends — конструктор с явными зависимостями; позволяет
// подменять адаптеры в тестах.
func NewClientWithBackends(classifier *Classifier, ollama, lmStudio Responder, audit *gamelog.Logger, log *zap.Logger, defaultModel string) *Client {
	return &Client{
		classifier:   classifier,
		ollama:       ollama,
		lmStudio:     lmStudio,
		audit:        audit,
		log:          log.Named("AIClient"),
		defaultModel: defaultModel,
	}
}

// GetResponse классифицирует модель и диспетчеризует запрос в подходящий
// адаптер. Пустая строка означает неудачу: вызывающий код трактует ее как
// «нет ответа, пусть игрок попробует снова», игровой цикл остается живым.
// Никакой сбой ниже этой границы наружу не поднимается.
func (c *Client) GetResponse(ctx context.Context, prompt, model string, temperature float64) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			c.audit.Error("Error getting AI response", fmt.Errorf("panic: %v", r), map[string]any{"model": model})
			reply = ""
		}
	}()

	if model == "" {
		model = c.defaultModel
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	backend := c.classifier.Classify(model)
	req := Request{Prompt: prompt, Model: model, Temperature: temperature}

	switch backend {
	case BackendLMStudio:
		reply, _ = c.lmStudio.GenerateText(ctx, req)
	case BackendOllama:
		reply, _ = c.ollama.GenerateText(ctx, req)
	default:
		// Неверный wire-формат дал бы невнятные ошибки бэкенда, поэтому
		// при неизвестном типе не угадываем протокол, а сразу сдаемся
		c.audit.Error(fmt.Sprintf("Unknown model type for model: %s", model), nil, map[string]any{"model": model})
		aiRequestsTotal.WithLabelValues(model, "unknown", "unknown_model").Inc()
		return ""
	}
	return reply
}

// DefaultModel возвращает модель по умолчанию из конфигурации.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}
