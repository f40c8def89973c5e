package ai

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Request — нормализованный запрос генерации, общий для обоих протоколов.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
}

// UsageInfo содержит счетчики токенов, сообщенные бэкендом.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Responder — способность «отправить промт, получить текстовый ответ».
// Каждый адаптер сам пишет обмен в AI-канал аудита и сам изолирует свои
// сбои: пустая строка означает неудачу, ошибки за границу адаптера не
// поднимаются.
type Responder interface {
	GenerateText(ctx context.Context, req Request) (string, UsageInfo)
}

// failureKind сводит сетевую ошибку к одному из документированных видов
// сбоя для канала ошибок.
func failureKind(provider string, err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return provider + " request timed out"
	}
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return "Cannot connect to " + provider + " server"
	}
	return provider + " request failed"
}
