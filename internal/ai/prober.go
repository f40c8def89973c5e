package ai

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"dungeon-server/internal/gamelog"
)

// Prober выполняет быструю проверку доступности HTTP-сервиса.
// Таймаут проверки короткий и независимый от таймаута генерации,
// чтобы обнаружение бэкенда оставалось дешевым.
type Prober struct {
	client *http.Client
	audit  *gamelog.Logger
	log    *zap.Logger
}

// NewProber создает пробер с фиксированным таймаутом.
func NewProber(timeout time.Duration, audit *gamelog.Logger, log *zap.Logger) *Prober {
	return &Prober{
		client: &http.Client{Timeout: timeout},
		audit:  audit,
		log:    log.Named("Prober"),
	}
}

// Probe возвращает true, только если сервер ответил успешным статусом.
// Любая сетевая ошибка, таймаут или не-2xx статус дают false; ошибка
// записывается как нефатальная с именем сервиса в контексте. Наверх
// никогда не поднимается: классификация обязана переживать недоступные
// бэкенды.
func (p *Prober) Probe(serviceName, url string) bool {
	resp, err := p.client.Get(url)
	if err != nil {
		p.audit.Error(serviceName+" check failed", err, map[string]any{"service": serviceName, "url": url})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.audit.Error(serviceName+" check failed", nil, map[string]any{
			"service": serviceName,
			"url":     url,
			"status":  resp.StatusCode,
		})
		return false
	}
	return true
}
