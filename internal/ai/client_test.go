package ai_test

import (
	"strings"
	"testing"

	"dungeon-server/internal/ai"
	"dungeon-server/internal/ai/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestClient_UnknownModelShortCircuits(t *testing.T) {
	// Обе пробы падают: классификация дает unknown
	failingProbe := func(serviceName, url string) bool { return false }
	classifier := ai.NewClassifier(failingProbe, "http://lm/v1/models", "http://ollama/api/tags")

	audit, dir := newAuditLogger(t)
	mockOllama := mocks.NewMockResponder(t)
	mockLMStudio := mocks.NewMockResponder(t)

	client := ai.NewClientWithBackends(classifier, mockOllama, mockLMStudio, audit, zap.NewNop(), "qwen3-vl:4b")

	reply := client.GetResponse(t.Context(), "prompt", "my_model.gguf", 0.7)

	assert.Empty(t, reply)
	// Ни один адаптер не вызван: отправка неверного wire-формата не
	// предпринимается
	mockOllama.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	mockLMStudio.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything)
	assert.Contains(t, readErrorLog(t, dir), "Unknown model type for model: my_model.gguf")
}

func TestClient_DispatchesByClassification(t *testing.T) {
	classifier := ai.NewClassifier(nil, "", "")
	audit, _ := newAuditLogger(t)

	t.Run("ollama model goes to ollama adapter", func(t *testing.T) {
		mockOllama := mocks.NewMockResponder(t)
		mockLMStudio := mocks.NewMockResponder(t)
		client := ai.NewClientWithBackends(classifier, mockOllama, mockLMStudio, audit, zap.NewNop(), "qwen3-vl:4b")

		mockOllama.On("GenerateText", mock.Anything, mock.MatchedBy(func(req ai.Request) bool {
			return req.Model == "qwen3-vl:4b" && req.Temperature == 0.7
		})).Return("from ollama", ai.UsageInfo{}).Once()

		assert.Equal(t, "from ollama", client.GetResponse(t.Context(), "p", "qwen3-vl:4b", 0.7))
		mockOllama.AssertExpectations(t)
	})

	t.Run("lm studio model goes to lm studio adapter", func(t *testing.T) {
		mockOllama := mocks.NewMockResponder(t)
		mockLMStudio := mocks.NewMockResponder(t)
		client := ai.NewClientWithBackends(classifier, mockOllama, mockLMStudio, audit, zap.NewNop(), "qwen3-vl:4b")

		mockLMStudio.On("GenerateText", mock.Anything, mock.Anything).Return("from lm studio", ai.UsageInfo{}).Once()

		assert.Equal(t, "from lm studio", client.GetResponse(t.Context(), "p", "qwen/qwen3-4b", 0.7))
		mockLMStudio.AssertExpectations(t)
	})
}

func TestClient_EmptyModelFallsBackToDefault(t *testing.T) {
	classifier := ai.NewClassifier(nil, "", "")
	audit, _ := newAuditLogger(t)
	mockOllama := mocks.NewMockResponder(t)
	mockLMStudio := mocks.NewMockResponder(t)
	client := ai.NewClientWithBackends(classifier, mockOllama, mockLMStudio, audit, zap.NewNop(), "qwen3-vl:4b")

	mockOllama.On("GenerateText", mock.Anything, mock.MatchedBy(func(req ai.Request) bool {
		return req.Model == "qwen3-vl:4b"
	})).Return("ok", ai.UsageInfo{}).Once()

	assert.Equal(t, "ok", client.GetResponse(t.Context(), "p", "", 0.7))
	mockOllama.AssertExpectations(t)
}

func TestClient_ZeroTemperatureUsesDefault(t *testing.T) {
	classifier := ai.NewClassifier(nil, "", "")
	audit, _ := newAuditLogger(t)
	mockOllama := mocks.NewMockResponder(t)
	client := ai.NewClientWithBackends(classifier, mockOllama, mocks.NewMockResponder(t), audit, zap.NewNop(), "qwen3-vl:4b")

	mockOllama.On("GenerateText", mock.Anything, mock.MatchedBy(func(req ai.Request) bool {
		return req.Temperature == 0.7
	})).Return("ok", ai.UsageInfo{}).Once()

	assert.Equal(t, "ok", client.GetResponse(t.Context(), "p", "qwen3-vl:4b", 0))
	mockOllama.AssertExpectations(t)
}

func TestClient_FailedCallProducesSingleErrorEntry(t *testing.T) {
	failingProbe := func(serviceName, url string) bool { return false }
	classifier := ai.NewClassifier(failingProbe, "http://lm/v1/models", "http://ollama/api/tags")

	audit, dir := newAuditLogger(t)
	client := ai.NewClientWithBackends(classifier, mocks.NewMockResponder(t), mocks.NewMockResponder(t), audit, zap.NewNop(), "qwen3-vl:4b")

	_ = client.GetResponse(t.Context(), "p", "my_model.gguf", 0.7)

	errLog := readErrorLog(t, dir)
	assert.Equal(t, 1, strings.Count(errLog, "Unknown model type for model"))
}
