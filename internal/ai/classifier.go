package ai

import (
	"strings"
	"unicode"
)

// Префиксы вендоров, характерные для каталога LM Studio.
var lmStudioPrefixes = []string{"qwen/", "llama/", "mistral/", "gpt/"}

// ProbeFunc — стратегия проверки доступности сервера, подставляется
// в классификатор отдельно, чтобы лексические правила оставались чистыми
// и тестировались без сети.
type ProbeFunc func(serviceName, url string) bool

// Classifier сопоставляет идентификатор модели с бэкендом. Горячий путь
// полностью лексический; сетевые пробы — только для действительно
// неоднозначных имен.
type Classifier struct {
	probe          ProbeFunc
	lmStudioModels string
	ollamaTags     string
}

// NewClassifier создает классификатор. probe может быть nil: тогда
// неоднозначные имена сразу получают BackendUnknown.
func NewClassifier(probe ProbeFunc, lmStudioModelsURL, ollamaTagsURL string) *Classifier {
	return &Classifier{
		probe:          probe,
		lmStudioModels: lmStudioModelsURL,
		ollamaTags:     ollamaTagsURL,
	}
}

// ClassifyLexical применяет только дешевые строковые правила.
// Порядок правил значим: идентификатор может удовлетворять нескольким
// эвристикам, выигрывает первое совпадение.
func ClassifyLexical(model string) Backend {
	lower := strings.ToLower(model)

	// Модели LM Studio содержат путь вида vendor/name
	if strings.Contains(model, "/") || hasVendorPrefix(lower) {
		return BackendLMStudio
	}
	// Модели Ollama: тег через двоеточие, чисто алфавитно-цифровое имя
	// или имя с дефисом
	if strings.Contains(model, ":") || isAlphanumeric(model) || strings.Contains(model, "-") {
		return BackendOllama
	}
	return BackendUnknown
}

// Classify классифицирует модель, при неоднозначности опрашивая серверы:
// сначала LM Studio, затем Ollama. Возвращает BackendUnknown, если обе
// пробы не удались.
func (c *Classifier) Classify(model string) Backend {
	if backend := ClassifyLexical(model); backend != BackendUnknown {
		return backend
	}
	if c.probe == nil {
		return BackendUnknown
	}
	if c.probe("LM Studio", c.lmStudioModels) {
		return BackendLMStudio
	}
	if c.probe("Ollama", c.ollamaTags) {
		return BackendOllama
	}
	return BackendUnknown
}

func hasVendorPrefix(lower string) bool {
	for _, prefix := range lmStudioPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
