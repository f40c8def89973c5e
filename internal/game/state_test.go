package game_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dungeon-server/internal/config"
	"dungeon-server/internal/game"
	"dungeon-server/internal/gamelog"
	"dungeon-server/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAI отдает заготовленные ответы и запоминает полученные промты.
type stubAI struct {
	replies []string
	prompts []string
}

func (s *stubAI) GetResponse(_ context.Context, prompt, _ string, _ float64) string {
	s.prompts = append(s.prompts, prompt)
	if len(s.replies) == 0 {
		return ""
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply
}

func testTable() localization.Table {
	return localization.Table{
		"dm_system_prompt": "You are a dungeon master.",
		"defaults":         map[string]any{"character_name": "Alex"},
	}
}

func newTestSession(t *testing.T, ai *stubAI) *game.Session {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DefaultModel:          "qwen3-vl:4b",
		Temperature:           0.7,
		SaveFile:              filepath.Join(dir, "adventure.json"),
		MaxConversationLength: 10000,
	}
	audit := gamelog.New(filepath.Join(dir, "error_log.txt"), dir)
	return game.NewSession(cfg, ai, testTable(), audit, zap.NewNop())
}

func TestCreateCharacter_TransitionsAndDefaults(t *testing.T) {
	s := newTestSession(t, &stubAI{})

	assert.Equal(t, game.PhaseNotStarted, s.Phase())
	s.CreateCharacter("Fantasy", "Knight", "")

	assert.Equal(t, game.PhaseCharacterCreated, s.Phase())
	st := s.State()
	assert.Equal(t, "Fantasy", st.Genre)
	assert.Equal(t, "Knight", st.Role)
	assert.Equal(t, "Alex", st.CharacterName, "empty name falls back to the localized default")
	assert.False(t, st.Started)
}

func TestStartAdventure_BuildsSettingHeader(t *testing.T) {
	ai := &stubAI{replies: []string{"You stand in the courtyard."}}
	s := newTestSession(t, ai)
	s.CreateCharacter("Fantasy", "Knight", "Brienne")

	require.True(t, s.StartAdventure(context.Background()))

	st := s.State()
	assert.Equal(t, game.PhaseAdventureActive, s.Phase())
	assert.True(t, st.Started)
	assert.Equal(t, "You stand in the courtyard.", st.LastReply)

	assert.True(t, strings.HasPrefix(st.Conversation, "### Adventure Setting ###\n"))
	assert.Contains(t, st.Conversation, "Genre: Fantasy")
	assert.Contains(t, st.Conversation, "Player Character: Brienne the Knight")
	assert.Contains(t, st.Conversation, "Starting Scenario: You're training in the castle courtyard when")
	assert.True(t, strings.HasSuffix(st.Conversation, "Dungeon Master: You stand in the courtyard."))

	// Промт начинается с системного промта ведущего
	require.Len(t, ai.prompts, 1)
	assert.True(t, strings.HasPrefix(ai.prompts[0], "You are a dungeon master.\n\n"))
}

func TestStartAdventure_FailedFirstReplyKeepsCharacterCreated(t *testing.T) {
	s := newTestSession(t, &stubAI{}) // пустой ответ
	s.CreateCharacter("Fantasy", "Knight", "Brienne")

	assert.False(t, s.StartAdventure(context.Background()))
	assert.Equal(t, game.PhaseCharacterCreated, s.Phase())

	st := s.State()
	assert.Empty(t, st.Conversation, "no silent fallback transcript")
	assert.False(t, st.Started)
}

func TestStartAdventure_RequiresCharacter(t *testing.T) {
	s := newTestSession(t, &stubAI{replies: []string{"scene"}})
	assert.False(t, s.StartAdventure(context.Background()))
}

func TestTurn_AppendsLabeledTurn(t *testing.T) {
	ai := &stubAI{replies: []string{"Opening scene.", "A troll appears."}}
	s := newTestSession(t, ai)
	s.CreateCharacter("Fantasy", "Knight", "Brienne")
	require.True(t, s.StartAdventure(context.Background()))
	before := s.State().Conversation

	reply, ok := s.Turn(context.Background(), "I cross the bridge.")
	require.True(t, ok)
	assert.Equal(t, "A troll appears.", reply)

	st := s.State()
	assert.Equal(t, before+"\nPlayer: I cross the bridge.\nDungeon Master: A troll appears.", st.Conversation)
	assert.Equal(t, "A troll appears.", st.LastReply)
	assert.Equal(t, "I cross the bridge.", st.LastPlayerInput)
	assert.Equal(t, game.PhaseAdventureActive, s.Phase())

	// Промт хода: системный промт + транскрипт + новый ввод игрока
	prompt := ai.prompts[len(ai.prompts)-1]
	assert.Contains(t, prompt, before)
	assert.Contains(t, prompt, "Player: I cross the bridge.")
	assert.True(t, strings.HasSuffix(prompt, "Dungeon Master:"))
}

func TestTurn_EmptyReplyDoesNotMutateTranscript(t *testing.T) {
	ai := &stubAI{replies: []string{"Opening scene."}}
	s := newTestSession(t, ai)
	s.CreateCharacter("Fantasy", "Knight", "Brienne")
	require.True(t, s.StartAdventure(context.Background()))
	before := s.State()

	reply, ok := s.Turn(context.Background(), "I shout into the void.")
	assert.False(t, ok)
	assert.Empty(t, reply)

	st := s.State()
	assert.Equal(t, before.Conversation, st.Conversation, "failed turns are not recorded as adventure content")
	assert.Equal(t, before.LastReply, st.LastReply)
}

func TestTurn_InactiveSessionRefuses(t *testing.T) {
	s := newTestSession(t, &stubAI{replies: []string{"x"}})
	_, ok := s.Turn(context.Background(), "hello")
	assert.False(t, ok)
}

func TestTurn_LengthLimitLogsOperationWarning(t *testing.T) {
	ai := &stubAI{replies: []string{"Opening scene.", strings.Repeat("a", 300)}}
	dir := t.TempDir()
	cfg := &config.Config{
		DefaultModel:          "qwen3-vl:4b",
		Temperature:           0.7,
		SaveFile:              filepath.Join(dir, "adventure.json"),
		MaxConversationLength: 100,
	}
	audit := gamelog.New(filepath.Join(dir, "error_log.txt"), dir)
	s := game.NewSession(cfg, ai, testTable(), audit, zap.NewNop())

	s.CreateCharacter("Fantasy", "Knight", "Brienne")
	require.True(t, s.StartAdventure(context.Background()))
	_, ok := s.Turn(context.Background(), "go on")
	require.True(t, ok)

	opLog, err := os.ReadFile(filepath.Join(dir, "operation_log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(opLog), "conversation_length_exceeded")
	assert.Contains(t, string(opLog), "max: 100")
}

func TestReset_ReturnsToNotStarted(t *testing.T) {
	ai := &stubAI{replies: []string{"Opening scene."}}
	s := newTestSession(t, ai)
	s.CreateCharacter("Fantasy", "Knight", "Brienne")
	require.True(t, s.StartAdventure(context.Background()))

	s.Reset()

	assert.Equal(t, game.PhaseNotStarted, s.Phase())
	st := s.State()
	assert.Empty(t, st.Conversation)
	assert.Equal(t, "qwen3-vl:4b", st.CurrentModel, "model falls back to the configured default")
	assert.False(t, st.Started)
}

func TestRoles(t *testing.T) {
	assert.Contains(t, game.Genres(), "Fantasy")
	assert.Contains(t, game.RolesFor("Fantasy"), "Knight")
	assert.Empty(t, game.RolesFor("No Such Genre"))

	table := testTable()
	assert.Equal(t, "You're training in the castle courtyard when", game.Starter("Fantasy", "Knight", table))
	assert.Equal(t, "You find yourself in an unexpected situation when", game.Starter("Fantasy", "Time Traveler", table))

	// Локализованный стартер имеет приоритет над встроенным
	localized := localization.Table{
		"role_starters": map[string]any{
			"fantasy": map[string]any{"knight": "Ты тренируешься во дворе замка, когда"},
		},
	}
	assert.Equal(t, "Ты тренируешься во дворе замка, когда", game.Starter("Fantasy", "Knight", localized))
}
