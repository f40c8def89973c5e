package ai

// Backend — вариант инференс-бэкенда, обслуживающего модель.
type Backend int

const (
	// BackendUnknown — модель не удалось отнести ни к одному бэкенду.
	// Терминальная классификация для текущего вызова: оркестратор
	// обязан вернуть пустой ответ, а не угадывать протокол.
	BackendUnknown Backend = iota
	// BackendOllama — нативный completion-протокол Ollama.
	BackendOllama
	// BackendLMStudio — OpenAI-совместимый chat-протокол (LM Studio).
	BackendLMStudio
)

func (b Backend) String() string {
	switch b {
	case BackendOllama:
		return "ollama"
	case BackendLMStudio:
		return "lm_studio"
	default:
		return "unknown"
	}
}
