package loretta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	tmpdir := t.TempDir()
	dbPath := filepath.Join(tmpdir, "test.sqlite3")
	db, err := CreateDB(
		context.Background(),
		"sqlite",
		dbPath,
	)
	if err != nil {
		t.Fatalf("error creating test database: %v", err)
	}
	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)
	return db
}

// botTestData holds common IDs, generated based on the current test
type botTestData struct {
	GuildID       string
	ChannelID     string
	UserID        string
	Username      string
	InteractionID string
	DiscordToken  string
	ApplicationID string
}

func newBotTestData(t testing.TB) botTestData {
	t.Helper()
	return botTestData{
		GuildID:       fmt.Sprintf("g_%s", t.Name()),
		ChannelID:     fmt.Sprintf("c_%s", t.Name()),
		UserID:        fmt.Sprintf("userid_%s", t.Name()),
		Username:      fmt.Sprintf("user_%s", t.Name()),
		InteractionID: fmt.Sprintf("i_%s", t.Name()),
		DiscordToken:  fmt.Sprintf("discord_token_%s", t.Name()),
		ApplicationID: fmt.Sprintf("discord_app_id_%s", t.Name()),
	}
}

// DefaultTestRuntimeConfig returns a default RuntimeConfig for testing,
// with admin credentials derived from the test name.
func DefaultTestRuntimeConfig(t testing.TB) *RuntimeConfig {
	t.Helper()
	cfg := DefaultRuntimeConfig()

	logLevel := DBLogLevel(slog.LevelWarn.String())
	cfg.LogLevel = logLevel
	cfg.DiscordLogLevel = logLevel
	cfg.DiscordGoLogLevel = logLevel
	cfg.DatabaseLogLevel = logLevel
	cfg.FeedLogLevel = logLevel
	cfg.BirthdayLogLevel = logLevel
	cfg.APILogLevel = logLevel

	cfg.AdminUsername = fmt.Sprintf("user_%s", t.Name())
	password := fmt.Sprintf("password_%s", t.Name())
	hashedPassword, err := HashPassword(password)
	require.NoError(t, err)
	cfg.AdminPassword = hashedPassword
	return &cfg
}

// newTestLoretta returns a Loretta wired for tests: a temp sqlite
// database with a runtime config row, a mocked discord session, and
// loggers carrying the test name. Run is not called - workers and
// listeners stay stopped.
func newTestLoretta(t testing.TB) *Loretta {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard

	cfg := DefaultTestConfig(t)

	dbctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	db, err := CreateDB(dbctx, cfg.DatabaseType, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)

	runtimeCfg := DefaultTestRuntimeConfig(t)
	require.NoError(t, db.Create(runtimeCfg).Error)

	bot, err := New(cfg)
	require.NoError(t, err)

	bot.db = db
	bot.writeDB = NewDatabase(db, bot.logger, cfg.DatabaseType != dbTypeSQLite)
	bot.runtimeConfig = runtimeCfg
	bot.discord.session = newMockDiscordSession()
	bot.startedAt = time.Now()

	setTestLoggers(t, bot)
	return bot
}

func setTestLoggers(t testing.TB, bot *Loretta) {
	t.Helper()

	originalDefault := slog.Default()
	slog.SetDefault(originalDefault.With("test", t.Name()))
	t.Cleanup(
		func() {
			slog.SetDefault(originalDefault)
		},
	)

	bot.logger = bot.logger.With("test", t.Name())
	bot.discord.logger = bot.discord.logger.With("test", t.Name())
	bot.api.logger = bot.api.logger.With("test", t.Name())
	bot.feedWatcher.logger = bot.feedWatcher.logger.With("test", t.Name())
	bot.birthdayWorker.logger = bot.birthdayWorker.logger.With("test", t.Name())

	dbLogHandler := tint.NewHandler(
		os.Stdout, &tint.Options{
			Level:     bot.config.DatabaseLogLevel,
			AddSource: true,
		},
	).WithAttrs([]slog.Attr{slog.String("test", t.Name())})
	if bot.db != nil {
		bot.db.Logger = newGORMLogger(
			dbLogHandler,
			bot.config.DatabaseSlowThreshold,
		)
	}
	discordgo.Logger = discordgoLoggerFunc(context.Background(), dbLogHandler)
}

func TestPauseResume(t *testing.T) {
	t.Parallel()
	bot := newTestLoretta(t)
	ctx := context.Background()

	assert.False(t, bot.Paused())

	assert.True(t, bot.Pause(ctx))
	assert.True(t, bot.Paused())

	// already paused
	assert.False(t, bot.Pause(ctx))

	assert.True(t, bot.Resume(ctx))
	assert.False(t, bot.Paused())
	assert.False(t, bot.Resume(ctx))

	var fromDB RuntimeConfig
	require.NoError(t, bot.db.Last(&fromDB).Error)
	assert.False(t, fromDB.Paused)
}

func TestPauseResumeDuringConfigRefresh(t *testing.T) {
	t.Parallel()
	bot := newTestLoretta(t)
	ctx := context.Background()

	// Pause/Resume read the runtime config while refreshRuntimeConfig
	// swaps the pointer, so hammer both from separate goroutines
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < 25; n++ {
			bot.Pause(ctx)
			bot.Resume(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < 25; n++ {
			bot.refreshRuntimeConfig(ctx, true)
		}
	}()
	wg.Wait()

	bot.Resume(ctx)
	assert.False(t, bot.Paused())
}

func TestGetDiscordPresenceStatusUpdate(t *testing.T) {
	t.Parallel()

	paused := getDiscordPresenceStatusUpdate(
		RuntimeConfig{Paused: true, DiscordCustomStatus: "übertakten"},
	)
	assert.True(t, paused.AFK)
	assert.Equal(t, string(discordgo.StatusDoNotDisturb), paused.Status)

	running := getDiscordPresenceStatusUpdate(
		RuntimeConfig{DiscordCustomStatus: "übertakten"},
	)
	assert.False(t, running.AFK)
	assert.Equal(t, "übertakten", running.Status)
}

func TestRuntimeConfigCopy(t *testing.T) {
	t.Parallel()
	bot := newTestLoretta(t)

	rc := bot.RuntimeConfig()
	rc.RollMax = 7
	assert.NotEqual(t, rc.RollMax, bot.RuntimeConfig().RollMax)
}

func TestRefreshRuntimeConfig(t *testing.T) {
	t.Parallel()
	bot := newTestLoretta(t)
	ctx := context.Background()

	require.NoError(
		t,
		bot.db.Model(bot.runtimeConfig).Update("roll_max", 42).Error,
	)

	bot.refreshRuntimeConfig(ctx, true)
	assert.Equal(t, 42, bot.RuntimeConfig().RollMax)
}

func TestRegisterSlashCommands(t *testing.T) {
	t.Parallel()
	bot := newTestLoretta(t)

	created, err := bot.RegisterSlashCommands()
	require.NoError(t, err)
	assert.Len(t, created, len(commandDefinitions(bot.RuntimeConfig())))
}
