// Package gamelog реализует многоканальный аудит игры: четыре независимых
// append-only файла (ошибки, операции, AI-обмены, игровые действия).
// Файл открывается и закрывается на каждую запись, поэтому несколько
// процессов могут безопасно дописывать в одни и те же пути.
package gamelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// Лимиты усечения операционного канала. AI-канал принципиально
	// не усекается: он является полной аудиторской записью обмена.
	maxParamLen  = 200
	maxResultLen = 500

	// Префикс массива токенов, попадающий в AI-канал.
	tokenPrefixLen = 20

	timeLayout   = "2006-01-02 15:04:05"
	timeLayoutMs = "2006-01-02 15:04:05.000"

	separator = "================================================================================"
)

// Действия, для которых в игровой канал пишется полный текущий транскрипт.
var conversationActions = map[string]bool{
	"player_input":         true,
	"ai_response_received": true,
	"conversation_updated": true,
}

// Logger пишет в четыре канала аудита. Путь канала ошибок настраивается,
// остальные три — фиксированные имена внутри каталога логов.
type Logger struct {
	errorPath     string
	operationPath string
	aiPath        string
	gamePath      string
}

// New создает логгер. errorLogPath — путь файла ошибок, logDir — каталог
// для остальных трех каналов.
func New(errorLogPath, logDir string) *Logger {
	return &Logger{
		errorPath:     errorLogPath,
		operationPath: filepath.Join(logDir, "operation_log.txt"),
		aiPath:        filepath.Join(logDir, "ai_log.txt"),
		gamePath:      filepath.Join(logDir, "game_log.txt"),
	}
}

// AIRecord — полная запись одного обмена с AI-бэкендом.
type AIRecord struct {
	Model    string
	Provider string
	Duration time.Duration
	Prompt   string
	Reply    string
	// Сырые тела запроса и ответа в том виде, в котором их видел бэкенд.
	RequestBody  string
	ResponseBody string
	// Параметры генерации (temperature, top_p и т.д.).
	Options map[string]any
	// Специфичные для бэкенда поля, пишутся как есть; массивы токенов
	// усекаются до короткого префикса для контроля объема.
	Extra   map[string]any
	Context map[string]any
}

// Error пишет запись в канал ошибок. Никогда не возвращает ошибку:
// сбой записи лога не должен ронять игру.
func (l *Logger) Error(message string, err error, ctx map[string]any) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- ERROR [%s] ---\n", time.Now().Format(timeLayout))
	fmt.Fprintf(&b, "Message: %s\n", message)
	if err != nil {
		fmt.Fprintf(&b, "Error: %T: %s\n", err, err.Error())
	}
	writeKV(&b, "Context", ctx)
	b.WriteString("--- END ERROR ---\n")

	l.append(l.errorPath, b.String(), "error")
}

// Operation пишет запись в операционный канал. Строковые параметры длиннее
// 200 символов и результат длиннее 500 усекаются с пометкой о длине.
func (l *Logger) Operation(operation string, params map[string]any, result string, duration time.Duration, ctx map[string]any) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n=== OPERATION [%s] ===\n", time.Now().Format(timeLayoutMs))
	fmt.Fprintf(&b, "Operation: %s\n", operation)

	if len(params) > 0 {
		b.WriteString("Parameters:\n")
		for _, key := range sortedKeys(params) {
			value := params[key]
			if s, ok := value.(string); ok && len(s) > maxParamLen {
				value = fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxParamLen], len(s))
			}
			fmt.Fprintf(&b, "  %s: %v\n", key, value)
		}
	}
	if result != "" {
		if len(result) > maxResultLen {
			result = result[:maxResultLen] + "..."
		}
		fmt.Fprintf(&b, "Result: %s\n", result)
	}
	if duration > 0 {
		fmt.Fprintf(&b, "Duration: %.3fs\n", duration.Seconds())
	}
	writeKV(&b, "Context", ctx)
	b.WriteString("=== END OPERATION ===\n")

	l.append(l.operationPath, b.String(), "operation")
}

// AIExchange пишет полную запись обмена с AI. Промт и ответ не усекаются.
func (l *Logger) AIExchange(rec AIRecord) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🤖 AI REQUEST [%s] 🤖\n", time.Now().Format(timeLayoutMs))
	fmt.Fprintf(&b, "Model: %s\n", rec.Model)
	if rec.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", rec.Provider)
	}
	fmt.Fprintf(&b, "Duration: %.3fs\n", rec.Duration.Seconds())
	fmt.Fprintf(&b, "Prompt Length: %d characters\n", len(rec.Prompt))

	fmt.Fprintf(&b, "Prompt: [COMPLETE PROMPT - Length: %d chars]\n", len(rec.Prompt))
	fmt.Fprintf(&b, "  %s\n  %s\n  %s\n", separator, rec.Prompt, separator)

	if len(rec.Options) > 0 {
		b.WriteString("Options:\n")
		for _, key := range sortedKeys(rec.Options) {
			fmt.Fprintf(&b, "  %s: %v\n", key, rec.Options[key])
		}
	}
	if rec.RequestBody != "" {
		fmt.Fprintf(&b, "Request Body: %s\n", rec.RequestBody)
	}
	if rec.ResponseBody != "" {
		fmt.Fprintf(&b, "Response Body: %s\n", rec.ResponseBody)
	}

	fmt.Fprintf(&b, "Response: [COMPLETE RESPONSE - Length: %d chars]\n", len(rec.Reply))
	fmt.Fprintf(&b, "  %s\n  %s\n  %s\n", separator, rec.Reply, separator)

	if len(rec.Extra) > 0 {
		b.WriteString("Response Details:\n")
		for _, key := range sortedKeys(rec.Extra) {
			writeExtra(&b, key, rec.Extra[key])
		}
	}
	writeKV(&b, "Game Context", rec.Context)
	b.WriteString("🤖 END AI REQUEST 🤖\n")

	l.append(l.aiPath, b.String(), "ai")
}

// GameAction пишет запись игрового действия. Для действий из allow-list
// (player_input, ai_response_received, conversation_updated) дополнительно
// записывается полный текущий транскрипт.
func (l *Logger) GameAction(action string, details map[string]any, conversation string, ctx map[string]any) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🎮 GAME ACTION [%s] 🎮\n", time.Now().Format(timeLayoutMs))
	fmt.Fprintf(&b, "Action: %s\n", action)
	writeKV(&b, "Details", details)
	writeKV(&b, "Current State", ctx)

	if conversationActions[action] && conversation != "" {
		b.WriteString("Complete Conversation:\n")
		fmt.Fprintf(&b, "  %s\n  %s\n  %s\n", separator, conversation, separator)
	}
	b.WriteString("🎮 END GAME ACTION 🎮\n")

	l.append(l.gamePath, b.String(), "game")
}

// append дописывает блок в файл канала. Сбой записи изолируется внутри
// канала: печатается последний диагностический вывод в stderr, и только
// эта одна запись теряется.
func (l *Logger) append(path, block, channel string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to open %s log: %v\n", channel, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(block); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write %s log: %v\n", channel, err)
	}
}

// writeExtra форматирует специфичное для бэкенда поле. Массивы токенов
// печатаются как длина плюс короткий префикс.
func writeExtra(b *strings.Builder, key string, value any) {
	if tokens, ok := value.([]int); ok {
		prefix := tokens
		if len(prefix) > tokenPrefixLen {
			prefix = prefix[:tokenPrefixLen]
		}
		fmt.Fprintf(b, "  %s: [Array length: %d] First %d tokens: %v\n", key, len(tokens), len(prefix), prefix)
		return
	}
	fmt.Fprintf(b, "  %s: %v\n", key, value)
}

func writeKV(b *strings.Builder, title string, m map[string]any) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, key := range sortedKeys(m) {
		fmt.Fprintf(b, "  %s: %v\n", key, m[key])
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
