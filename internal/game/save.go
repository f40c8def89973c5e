package game

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// saveFile — формат файла сохранения: один JSON-документ UTF-8
// с транскриптом и блоком метаданных.
type saveFile struct {
	Conversation string       `json:"conversation"`
	Metadata     saveMetadata `json:"metadata"`
}

type saveMetadata struct {
	CharacterName string `json:"character_name"`
	Genre         string `json:"genre"`
	Role          string `json:"role"`
	Model         string `json:"model"`
	SaveTime      string `json:"save_time"`
}

// Save сериализует состояние в файл сохранения. Возвращает false при
// любой ошибке ввода-вывода; состояние в памяти не меняется.
func (s *Session) Save() bool {
	start := time.Now()

	data := saveFile{
		Conversation: s.state.Conversation,
		Metadata: saveMetadata{
			CharacterName: s.state.CharacterName,
			Genre:         s.state.Genre,
			Role:          s.state.Role,
			Model:         s.state.CurrentModel,
			SaveTime:      time.Now().Format(time.RFC3339),
		},
	}

	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.audit.Error("Failed to save adventure", err, s.ctx())
		return false
	}

	if dir := filepath.Dir(s.savePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.audit.Error("Failed to save adventure", err, s.ctx())
			return false
		}
	}
	if err := os.WriteFile(s.savePath, blob, 0o644); err != nil {
		s.audit.Error("Failed to save adventure", err, s.ctx())
		return false
	}

	s.audit.Operation("save_adventure", map[string]any{
		"path":               s.savePath,
		"conversation_chars": len(s.state.Conversation),
	}, "ok", time.Since(start), s.ctx())
	return true
}

// Load замещает состояние содержимым файла сохранения. При любой
// неудаче возвращает false, а состояние в памяти остается прежним —
// неудачная загрузка не портит текущую сессию. Последний ответ ведущего
// восстанавливается обратным поиском маркера в загруженном транскрипте.
func (s *Session) Load() bool {
	start := time.Now()

	blob, err := os.ReadFile(s.savePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.audit.Operation("load_adventure", map[string]any{"path": s.savePath}, "no save file found", time.Since(start), s.ctx())
		} else {
			s.audit.Error("Failed to load adventure", err, s.ctx())
		}
		return false
	}

	var data saveFile
	if err := json.Unmarshal(blob, &data); err != nil {
		s.audit.Error("Failed to load adventure", err, s.ctx())
		return false
	}

	// Полная замена транскрипта и метаданных
	s.state.Conversation = data.Conversation
	s.state.CharacterName = orDefault(data.Metadata.CharacterName, s.table.T("defaults.character_name"))
	s.state.Genre = orDefault(data.Metadata.Genre, "Fantasy")
	s.state.Role = orDefault(data.Metadata.Role, "Adventurer")
	s.state.CurrentModel = orDefault(data.Metadata.Model, s.defaultModel)
	s.state.LastReply = lastReplyFrom(data.Conversation)
	s.state.LastPlayerInput = ""
	s.state.Started = true
	s.phase = PhaseAdventureActive

	s.audit.Operation("load_adventure", map[string]any{
		"path":               s.savePath,
		"conversation_chars": len(data.Conversation),
	}, "ok", time.Since(start), s.ctx())
	return true
}

// HasSave сообщает, существует ли файл сохранения.
func (s *Session) HasSave() bool {
	_, err := os.Stat(s.savePath)
	return err == nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
