package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dungeon-server/internal/ai"
	"dungeon-server/internal/config"
	"dungeon-server/internal/game"
	"dungeon-server/internal/gamelog"
	"dungeon-server/internal/localization"
	"dungeon-server/internal/logger"
)

func main() {
	// .env — удобство локального запуска, отсутствие файла не ошибка
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer zlog.Sync() // Flush буфера логгера при выходе

	for _, dir := range []string{cfg.LogDir, cfg.SaveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Не удалось создать каталог %s: %v", dir, err)
		}
	}

	audit := gamelog.New(cfg.ErrorLogFile, cfg.LogDir)

	table, err := localization.Load(cfg.LocalesDir, cfg.Language)
	if err != nil {
		// Играбельно и без переводов: T() вернет сами ключи
		zlog.Warn("Не удалось загрузить локализацию", zap.Error(err))
		table = localization.Table{}
	}

	aiClient, err := ai.NewClient(cfg, table.T("dm_system_prompt"), audit, zlog)
	if err != nil {
		log.Fatalf("Ошибка инициализации AI клиента: %v", err)
	}
	lister := ai.NewModelLister(cfg, audit, zlog)

	// HTTP-сервер метрик Prometheus в отдельной горутине
	go startMetricsServer(cfg.MetricsPort, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		fmt.Println("\n" + table.T("ui.game_interrupted"))
		os.Exit(0)
	}()

	session := game.NewSession(cfg, aiClient, table, audit, zlog)
	app := &cli{
		in:      bufio.NewReader(os.Stdin),
		session: session,
		lister:  lister,
		table:   table,
		audit:   audit,
		ctx:     ctx,
	}
	app.run()
}

func startMetricsServer(port string, zlog *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + port
	zlog.Info("Запуск сервера метрик", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		zlog.Error("Сервер метрик остановлен", zap.Error(err))
	}
}

// cli — интерактивный цикл игры поверх одной сессии.
type cli struct {
	in      *bufio.Reader
	session *game.Session
	lister  *ai.ModelLister
	table   localization.Table
	audit   *gamelog.Logger
	ctx     context.Context
}

func (c *cli) run() {
	defer func() {
		if r := recover(); r != nil {
			c.audit.Error("Unhandled panic in game loop", fmt.Errorf("%v", r), nil)
			fmt.Println(c.table.T("ui.unexpected_error"))
		}
	}()

	fmt.Println(c.table.T("ui.game_title"))

	c.selectModel()

	if c.session.HasSave() && c.askYesNo(c.table.T("ui.saved_adventure_exists")) {
		if c.session.Load() {
			fmt.Println(c.table.T("ui.adventure_loaded_successfully"))
			c.printReply(c.session.State().LastReply)
		} else {
			fmt.Println(c.table.T("ui.failed_to_load_adventure"))
			return
		}
	} else {
		if !c.newAdventure() {
			return
		}
	}

	fmt.Println(c.table.T("ui.type_help_for_commands"))
	c.gameLoop()
}

// selectModel предлагает установленные модели; при пустом списке имя
// вводится вручную, пустой ввод оставляет модель по умолчанию.
func (c *cli) selectModel() {
	models := c.lister.InstalledModels(c.ctx)
	defaultModel := c.session.State().CurrentModel

	if len(models) == 0 {
		fmt.Println(c.table.T("ui.no_models_found"))
		name := c.readLine(c.table.TF("ui.enter_model_name", map[string]string{"default_model": defaultModel}))
		c.session.SetModel(name)
	} else {
		fmt.Println(c.table.T("ui.available_models"))
		for i, m := range models {
			fmt.Printf("  %d. %s\n", i+1, m)
		}
		answer := c.readLine(c.table.TF("ui.select_model", map[string]string{
			"count":         strconv.Itoa(len(models)),
			"default_model": defaultModel,
		}))
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(models) {
			c.session.SetModel(models[n-1])
		} else {
			c.session.SetModel(answer)
		}
	}

	fmt.Println(c.table.TF("ui.using_model", map[string]string{"model": c.session.State().CurrentModel}))
}

// newAdventure проводит создание персонажа и запрашивает вступительную
// сцену. false означает, что приключение не удалось начать.
func (c *cli) newAdventure() bool {
	genre := c.chooseGenre()
	role := c.chooseRole(genre)
	name := c.readLine(c.table.T("ui.enter_character_name"))

	c.session.CreateCharacter(genre, role, name)
	st := c.session.State()

	fmt.Println(c.table.TF("ui.adventure_start", map[string]string{"name": st.CharacterName, "role": st.Role}))
	fmt.Println(c.table.TF("ui.starting_scenario", map[string]string{"scenario": game.Starter(genre, role, c.table)}))

	if !c.session.StartAdventure(c.ctx) {
		fmt.Println(c.table.T("ui.failed_to_get_initial_response"))
		return false
	}
	c.printReply(c.session.State().LastReply)
	return true
}

func (c *cli) chooseGenre() string {
	genres := game.Genres()
	for {
		fmt.Println(c.table.T("ui.choose_genre"))
		for i, g := range genres {
			fmt.Printf("  %d. %s — %s\n", i+1, g, game.GenreDescription(g, c.table))
		}
		answer := c.readLine(c.table.T("ui.enter_choice_number"))
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(genres) {
			return genres[n-1]
		}
		fmt.Println(c.table.T("ui.invalid_choice_try_again"))
	}
}

func (c *cli) chooseRole(genre string) string {
	roles := game.RolesFor(genre)
	for {
		fmt.Println(c.table.TF("ui.choose_role_in_genre", map[string]string{"genre": genre}))
		for i, r := range roles {
			fmt.Printf("  %d. %s\n", i+1, r)
		}
		answer := c.readLine(c.table.T("ui.enter_role_choice_or_random"))
		if strings.EqualFold(answer, "r") {
			return roles[rand.Intn(len(roles))]
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(roles) {
			return roles[n-1]
		}
		fmt.Println(c.table.T("ui.invalid_choice_try_again"))
	}
}

func (c *cli) gameLoop() {
	for {
		input := c.readLine(c.table.T("ui.prompt"))
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !c.handleCommand(input) {
				return
			}
			continue
		}

		reply, ok := c.session.Turn(c.ctx, input)
		if !ok {
			fmt.Println(c.table.T("ui.failed_to_get_response_try_again"))
			continue
		}
		c.printReply(reply)
	}
}

// handleCommand обрабатывает слэш-команды; false завершает игру.
func (c *cli) handleCommand(command string) bool {
	switch command {
	case "/help":
		fmt.Println(c.table.T("ui.available_commands"))
	case "/exit":
		fmt.Println(c.table.T("ui.exiting_adventure"))
		return false
	case "/save":
		if c.session.Save() {
			fmt.Println(c.table.T("ui.adventure_saved_successfully"))
		} else {
			fmt.Println(c.table.T("ui.failed_to_save_adventure"))
		}
	case "/load":
		if !c.session.HasSave() {
			fmt.Println(c.table.T("ui.no_saved_adventure_found"))
			break
		}
		if c.session.Load() {
			fmt.Println(c.table.T("ui.adventure_loaded_successfully"))
			c.printReply(c.session.State().LastReply)
		} else {
			fmt.Println(c.table.T("ui.failed_to_load_adventure"))
		}
	case "/status":
		c.printStatus()
	default:
		fmt.Println(c.table.TF("ui.unknown_command", map[string]string{"command": command}))
	}
	return true
}

func (c *cli) printStatus() {
	st := c.session.State()
	started := c.table.T("ui.not_started")
	if st.Started {
		started = c.table.T("ui.started")
	}
	fmt.Println(c.table.T("ui.current_game_status"))
	fmt.Println(c.table.TF("ui.character", map[string]string{"name": st.CharacterName, "role": st.Role}))
	fmt.Println(c.table.TF("ui.genre", map[string]string{"genre": st.Genre}))
	fmt.Println(c.table.TF("ui.model", map[string]string{"model": st.CurrentModel}))
	fmt.Println(c.table.TF("ui.adventure_started", map[string]string{"status": started}))
	if st.LastPlayerInput != "" {
		fmt.Println(c.table.TF("ui.last_action", map[string]string{"action": st.LastPlayerInput}))
	}
}

func (c *cli) printReply(reply string) {
	fmt.Println(c.table.TF("ui.dungeon_master", map[string]string{"response": reply}))
}

func (c *cli) askYesNo(prompt string) bool {
	answer := strings.ToLower(c.readLine(prompt))
	return answer == "y" || answer == "yes"
}

// readLine печатает приглашение и читает одну строку. EOF трактуется
// как выход из игры.
func (c *cli) readLine(prompt string) string {
	fmt.Print(prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Println()
		fmt.Println(c.table.T("ui.exiting_adventure"))
		os.Exit(0)
	}
	return strings.TrimSpace(line)
}
