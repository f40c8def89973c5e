package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию игрового приложения.
// Все значения загружаются из переменных окружения с дефолтами,
// соответствующими локальным инсталляциям Ollama и LM Studio.
type Config struct {
	// Бэкенды AI
	OllamaURL       string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434/api/generate"`
	OllamaTagsURL   string        `envconfig:"OLLAMA_TAGS_URL" default:"http://localhost:11434/api/tags"`
	LMStudioBaseURL string        `envconfig:"LM_STUDIO_BASE_URL" default:"http://localhost:11435/v1"`
	DefaultModel    string        `envconfig:"DEFAULT_MODEL" default:"qwen3-vl:4b"`
	Temperature     float64       `envconfig:"TEMPERATURE" default:"0.7"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"180s"`
	ProbeTimeout    time.Duration `envconfig:"PROBE_TIMEOUT" default:"10s"`
	ListTimeout     time.Duration `envconfig:"LIST_TIMEOUT" default:"30s"`

	// Логи и сохранения
	ErrorLogFile string `envconfig:"ERROR_LOG_FILE" default:"error_log.txt"`
	LogDir       string `envconfig:"LOG_DIR" default:"logs"`
	SaveDir      string `envconfig:"SAVE_DIR" default:"saves"`
	SaveFile     string `envconfig:"SAVE_FILE" default:"saves/adventure.json"`

	// Локализация
	LocalesDir string `envconfig:"LOCALES_DIR" default:"locales"`
	Language   string `envconfig:"LANGUAGE" default:"en"`

	// Игровые настройки
	MaxConversationLength int `envconfig:"MAX_CONVERSATION_LENGTH" default:"10000"`

	// Метрики Prometheus
	MetricsPort string `envconfig:"METRICS_PORT" default:"9091"`

	// Настройки процессного логгера
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	return &cfg, nil
}
