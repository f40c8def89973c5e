// Package game владеет состоянием одного приключения: растущим
// транскриптом, стадией сессии и сохранением на диск. Транскрипт —
// единственная память разговора: он целиком передается бэкенду на
// каждом ходу, отдельной структурированной истории нет.
package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dungeon-server/internal/config"
	"dungeon-server/internal/gamelog"
	"dungeon-server/internal/localization"
)

// Маркер хода ведущего в транскрипте. По нему при загрузке восстанавливается
// последний ответ: транскрипт — единственный источник истины.
const dmMarker = "Dungeon Master:"

// Phase — стадия сессии. Переходы линейны, циклов нет:
// NotStarted → CharacterCreated → AdventureActive; save/load возвращают
// в AdventureActive.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseCharacterCreated
	PhaseAdventureActive
)

// AIResponder — контракт оркестратора с точки зрения игры.
// Пустая строка означает «ответа нет, пусть игрок попробует снова».
type AIResponder interface {
	GetResponse(ctx context.Context, prompt, model string, temperature float64) string
}

// State — изменяемая запись одного приключения.
type State struct {
	Conversation    string
	LastReply       string
	LastPlayerInput string
	CurrentModel    string
	CharacterName   string
	Genre           string
	Role            string
	Started         bool
}

// Session управляет состоянием приключения и его переходами.
// Одна сессия — одно приключение; конкурирующих запросов нет,
// взаимодействие строго пошаговое.
type Session struct {
	sessionID    string
	phase        Phase
	state        State
	ai           AIResponder
	audit        *gamelog.Logger
	log          *zap.Logger
	table        localization.Table
	systemPrompt string
	savePath     string
	defaultModel string
	temperature  float64
	maxLength    int
}

// NewSession создает сессию в стадии NotStarted.
func NewSession(cfg *config.Config, ai AIResponder, table localization.Table, audit *gamelog.Logger, log *zap.Logger) *Session {
	return &Session{
		sessionID:    uuid.NewString(),
		phase:        PhaseNotStarted,
		state:        State{CurrentModel: cfg.DefaultModel},
		ai:           ai,
		audit:        audit,
		log:          log.Named("Session"),
		table:        table,
		systemPrompt: table.T("dm_system_prompt"),
		savePath:     cfg.SaveFile,
		defaultModel: cfg.DefaultModel,
		temperature:  cfg.Temperature,
		maxLength:    cfg.MaxConversationLength,
	}
}

// State возвращает копию текущего состояния.
func (s *Session) State() State {
	return s.state
}

// Phase возвращает текущую стадию сессии.
func (s *Session) Phase() Phase {
	return s.phase
}

// SetModel фиксирует выбранную модель; пустое имя заменяется моделью
// по умолчанию, чтобы CurrentModel никогда не пустела после старта.
func (s *Session) SetModel(model string) {
	if model == "" {
		model = s.defaultModel
	}
	s.state.CurrentModel = model
	s.audit.GameAction("model_selected", map[string]any{"model": model}, "", s.ctx())
}

// CreateCharacter фиксирует жанр, роль и имя персонажа и переводит
// сессию в стадию CharacterCreated. Поля после этого не меняются
// до перезапуска.
func (s *Session) CreateCharacter(genre, role, name string) {
	if name == "" {
		name = s.table.T("defaults.character_name")
	}
	s.state.Genre = genre
	s.state.Role = role
	s.state.CharacterName = name
	s.phase = PhaseCharacterCreated

	s.audit.GameAction("character_created", map[string]any{
		"genre": genre,
		"role":  role,
		"name":  name,
	}, "", s.ctx())
}

// StartAdventure запрашивает у AI вступительную сцену. Сессия переходит
// в AdventureActive только при непустом первом ответе; при неудаче
// стадия остается CharacterCreated, транскрипт не трогается — вызывающий
// код повторяет попытку или прерывает игру, тихого запасного транскрипта
// нет.
func (s *Session) StartAdventure(ctx context.Context) bool {
	if s.phase != PhaseCharacterCreated {
		return false
	}

	starter := Starter(s.state.Genre, s.state.Role, s.table)
	header := fmt.Sprintf(
		"### Adventure Setting ###\nGenre: %s\nPlayer Character: %s the %s\nStarting Scenario: %s\n\nDungeon Master: ",
		s.state.Genre, s.state.CharacterName, s.state.Role, starter,
	)

	prompt := s.systemPrompt + "\n\n" + header
	reply := s.ai.GetResponse(ctx, prompt, s.state.CurrentModel, s.temperature)
	if reply == "" {
		return false
	}

	s.state.Conversation = header + reply
	s.state.LastReply = reply
	s.state.Started = true
	s.phase = PhaseAdventureActive

	s.audit.GameAction("conversation_updated", map[string]any{"reply_chars": len(reply)}, s.state.Conversation, s.ctx())
	s.checkLength()
	return true
}

// Turn выполняет один ход игрока. При пустом ответе транскрипт не
// мутируется: неудавшиеся ходы не становятся содержанием приключения,
// они остаются только в логах ошибок.
func (s *Session) Turn(ctx context.Context, input string) (string, bool) {
	if s.phase != PhaseAdventureActive {
		return "", false
	}

	s.state.LastPlayerInput = input
	s.audit.GameAction("player_input", map[string]any{"input": input}, s.state.Conversation, s.ctx())

	prompt := fmt.Sprintf("%s\n\n%s\nPlayer: %s\n%s",
		s.systemPrompt, s.state.Conversation, input, dmMarker)

	reply := s.ai.GetResponse(ctx, prompt, s.state.CurrentModel, s.temperature)
	if reply == "" {
		return "", false
	}

	s.state.Conversation += fmt.Sprintf("\nPlayer: %s\n%s %s", input, dmMarker, reply)
	s.state.LastReply = reply

	s.audit.GameAction("ai_response_received", map[string]any{"reply_chars": len(reply)}, s.state.Conversation, s.ctx())
	s.checkLength()
	return reply, true
}

// Reset полностью сбрасывает сессию к началу (перезапуск приключения).
func (s *Session) Reset() {
	s.state = State{CurrentModel: s.defaultModel}
	s.phase = PhaseNotStarted
	s.audit.GameAction("adventure_reset", nil, "", s.ctx())
}

// checkLength сверяет транскрипт с настроенным лимитом. Лимит не
// обрезает: транскрипт — единственная память модели, его молчаливое
// усечение уничтожило бы контекст. Превышение фиксируется в
// операционном канале.
func (s *Session) checkLength() {
	if s.maxLength > 0 && len(s.state.Conversation) > s.maxLength {
		s.audit.Operation("conversation_length_exceeded", map[string]any{
			"length": len(s.state.Conversation),
			"max":    s.maxLength,
		}, "", 0, s.ctx())
	}
}

// ctx — стандартный игровой контекст для записей аудита.
func (s *Session) ctx() map[string]any {
	return map[string]any{
		"session_id": s.sessionID,
		"model":      s.state.CurrentModel,
		"character":  s.state.CharacterName,
	}
}

// lastReplyFrom извлекает последний ответ ведущего из транскрипта
// линейным обратным поиском маркера.
func lastReplyFrom(conversation string) string {
	idx := strings.LastIndex(conversation, dmMarker)
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(conversation[idx+len(dmMarker):])
}
