package loretta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	// When building, set these like:
	// -ldflags "-X github.com/stuoningur/loretta/loretta.Version=$$(date +'%Y%m%d')"

	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

var (
	defaultLogWriter io.Writer = os.Stdout
)

// Loretta is the main application struct. It owns the Discord session
// wrapper, the database, the runtime and guild configuration caches,
// the RSS feed watcher, the birthday worker and the admin API server.
type Loretta struct {
	dbNotifier DBNotifier
	config     *Config

	// Pointer to a read-only GORM connection. This is from an
	// overabundance of caution for using SQLite.
	db *gorm.DB

	// gorm.DB wrapper for write/update/delete operations.
	// The only difference between this and [Loretta.db]
	// is that, when using sqlite, a mutex is used. Otherwise,
	// just use [Loretta.db].
	writeDB DBI

	// Standard logger. Missing loggers will try to use this,
	// and fall back to slog.Default()
	logger *slog.Logger

	// Handler to use for the above
	logHandler slog.Handler

	// Handles discord integration, sessions
	discord *Discord

	// Polls the configured RSS feeds
	feedWatcher *FeedWatcher

	// Announces birthdays once a day
	birthdayWorker *BirthdayWorker

	// open-meteo client for the /wetter command
	weather *WeatherClient

	// Serves the admin API
	api *API

	// Caches Specification search results
	specCache *specCache

	// signalStop enables an explicit stop signal to be sent to the bot,
	// such as by the admin API
	signalStop chan struct{}

	// signalReady has a value sent on it once startup finished: database
	// initialized and migrated, config loaded, discord session open,
	// commands registered, workers started.
	signalReady chan struct{}

	// A signal is sent on this channel when the
	// [Loretta.shutdown] function finished
	eventShutdown chan struct{}

	// prevents Run from executing concurrently
	runMu sync.Mutex

	// If true, slash commands get a 'paused' notice and the feed and
	// birthday workers skip their ticks.
	paused atomic.Bool

	// The time Run was called
	startedAt time.Time

	// Indicates whether admin credentials have been set. While pending,
	// only the admin API is served.
	pendingSetup atomic.Bool

	// Runtime-configurable settings - things you may want to
	// change without restarting the bot.
	runtimeConfig *RuntimeConfig

	// protecc the runtime config
	cfgMu sync.RWMutex

	// Per-guild configuration cache
	guildConfigs *guildConfigCache

	// commandsInProgress indicates the number of slash commands
	// actively being handled
	commandsInProgress atomic.Int64

	// Interaction IDs acknowledged via deferResponse. Error notices for
	// these must edit the deferred response instead of responding again.
	deferredInteractions sync.Map

	triggerRuntimeConfigRefreshCh chan bool
	triggerGuildConfigRefreshCh   chan bool
}

func (lo *Loretta) getLogger(ctx context.Context) (
	context.Context,
	*slog.Logger,
) {
	logger, ok := ContextLogger(ctx)
	if logger == nil || !ok {
		logger = lo.logger
		ctx = WithLogger(ctx, logger)
	}
	return ctx, logger
}

// RuntimeConfig returns a copy of the current runtime configuration
func (lo *Loretta) RuntimeConfig() RuntimeConfig {
	lo.cfgMu.RLock()
	defer lo.cfgMu.RUnlock()
	return *lo.runtimeConfig
}

// Paused reports whether the bot is currently paused.
func (lo *Loretta) Paused() bool {
	return lo.paused.Load()
}

// New creates and initializes a new Loretta instance: loggers, the
// Discord wrapper, the feed watcher, the birthday worker, the weather
// client and the admin API server. The database connection is not
// opened until Run is called.
func New(config *Config) (*Loretta, error) {
	var errs []error

	switch config.DatabaseType {
	case dbTypeSQLite, dbTypePostgres:
		//
	default:
		errs = append(
			errs,
			errors.New("invalid database type (must be 'sqlite' or 'postgres')"),
		)
	}

	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	lo := &Loretta{
		config:                        config,
		signalReady:                   make(chan struct{}, 1),
		eventShutdown:                 make(chan struct{}, 1),
		triggerRuntimeConfigRefreshCh: make(chan bool, 1),
		triggerGuildConfigRefreshCh:   make(chan bool, 1),
		guildConfigs:                  newGuildConfigCache(config.GuildConfigTTL),
	}

	lo.logHandler = tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     lo.config.LogLevel,
			AddSource: true,
		},
	)

	lo.logger = slog.New(lo.logHandler)
	slog.SetDefault(lo.logger)

	lo.config.Discord.httpClient = lo.config.HTTPClient

	disc, err := newDiscord(lo.config.Discord)
	if err != nil {
		errs = append(errs, err)
	}

	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     lo.config.Discord.DiscordGoLogLevel,
				AddSource: true,
			},
		).WithAttrs([]slog.Attr{slog.String(loggerNameKey, "discordgo")}),
	)

	disc.logger = slog.New(
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     lo.config.Discord.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "discord")

	lo.discord = disc
	disc.lo = lo

	lo.specCache = newSpecCache()

	lo.feedWatcher = newFeedWatcher(lo, lo.config.Feeds)
	lo.birthdayWorker = newBirthdayWorker(lo)
	lo.weather = newWeatherClient(lo.config.Weather, lo.config.HTTPClient)

	api, err := newAPI(lo, config.API)
	errs = append(errs, err)
	lo.api = api

	return lo, errors.Join(errs...)
}

func (lo *Loretta) ValidateConfig() error {
	err := structValidator.Struct(lo.config)
	if err != nil {
		return err
	}

	return nil
}

// RegisterSlashCommands registers the slash commands for the bot's
// configured guild, using a bulk overwrite.
func (lo *Loretta) RegisterSlashCommands(options ...discordgo.RequestOption) (
	[]*discordgo.ApplicationCommand,
	error,
) {
	return lo.discord.registerCommands(lo.RuntimeConfig(), options...)
}

// Run starts the bot: initializes the database, loads runtime and
// guild config, opens the discord gateway, registers commands and
// starts the background workers. It blocks until ctx is canceled or a
// stop signal is received, then performs a graceful shutdown.
func (lo *Loretta) Run(ctx context.Context) error {
	// prevents concurrent runs
	lo.runMu.Lock()
	defer lo.runMu.Unlock()

	lo.signalStop = make(chan struct{}, 1)

	lo.startedAt = time.Now()
	logger := lo.logger

	if err := lo.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	notifier, err := newDBNotifier(lo)
	if err != nil {
		logger.Error("error creating db notifier", tint.Err(err))
		return err
	}
	lo.dbNotifier = notifier

	ctx = WithLogger(ctx, logger)

	// background workers spawned over the bot's lifetime
	runtimeWG := &sync.WaitGroup{}

	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", lo.config))
	if lo.signalReady == nil {
		lo.signalReady = make(chan struct{}, 1)
	}

	// this is the 'runtime' context, which triggers a graceful shutdown
	// when canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-lo.signalStop:
			lo.logger.Warn("got stop signal, canceling")
			cancel()
		case <-ctx.Done():
			lo.logger.Warn("context canceled, sending stop signal")
			lo.signalStop <- struct{}{}
			return
		}
	}()

	if lo.config.API.Enabled {
		go func() {
			httpErr := lo.api.Serve(ctx)
			if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
				lo.logger.ErrorContext(ctx, "error serving api HTTP", tint.Err(httpErr))
			}
		}()
	}

	startCtx, startCancel := context.WithTimeout(ctx, lo.config.StartupTimeout)
	defer startCancel()

	initErr := make(chan error, 1)
	go func() {
		logger.Debug("initializing run...")
		initErr <- lo.initRun(startCtx)
	}()

	select {
	case <-startCtx.Done():
		return fmt.Errorf("startup cancelled or timed out")
	case err := <-initErr:
		if err != nil {
			logger.ErrorContext(ctx, "init error", tint.Err(err))
			if lo.api != nil && lo.api.listener != nil {
				go func() {
					if e := lo.api.listener.Close(); e != nil {
						logger.ErrorContext(ctx, "error closing listener", tint.Err(e))
					}
				}()
			}
			return err
		}
		logger.InfoContext(ctx, "init complete")
	}

	if setupErr := lo.waitOnSetup(ctx, logger, runtimeWG); setupErr != nil {
		return setupErr
	}

	if discErr := lo.initDiscordSession(ctx, runtimeWG); discErr != nil {
		lo.logger.ErrorContext(ctx, "error creating discord session", tint.Err(discErr))
		return discErr
	}

	if err = lo.discordInit(ctx, logger); err != nil {
		return err
	}

	lo.startRuntimeConfigRefresher(ctx, runtimeWG, logger)
	lo.startGuildConfigRefresher(ctx, runtimeWG)

	// long-running workers - the first one to fail cancels the rest
	workers, workerCtx := errgroup.WithContext(ctx)
	if lo.config.Feeds.Enabled {
		workers.Go(
			func() error {
				return lo.feedWatcher.Run(workerCtx)
			},
		)
	}
	workers.Go(
		func() error {
			return lo.birthdayWorker.Run(workerCtx)
		},
	)

	lo.signalReady <- struct{}{}
	lo.logger.InfoContext(ctx, "sent ready signal")

	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()
		if e := lo.dbNotifier.Listen(ctx, lo.dbNotifier.RuntimeConfigChannelName()); e != nil {
			lo.logger.ErrorContext(ctx, "error listening to runtime config channel", tint.Err(e))
		}
	}()

	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()
		if e := lo.dbNotifier.Listen(ctx, lo.dbNotifier.GuildConfigChannelName()); e != nil {
			lo.logger.ErrorContext(ctx, "error listening to guild config channel", tint.Err(e))
		}
	}()

	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()
		if workerErr := workers.Wait(); workerErr != nil &&
			!errors.Is(workerErr, context.Canceled) {
			lo.logger.ErrorContext(ctx, "worker failed", tint.Err(workerErr))
		}
	}()

	// block until something cancels the main runtime context - generally
	// from an interrupt, or the admin API
	stopCh := make(chan struct{}, 1)
	go func() {
		<-ctx.Done()
		stopCh <- struct{}{}
	}()
	<-stopCh

	// Commence shutdown
	return lo.shutdown(ctx, runtimeWG)
}

func (lo *Loretta) waitOnSetup(
	ctx context.Context,
	logger *slog.Logger,
	runtimeWG *sync.WaitGroup,
) error {
	if !lo.pendingSetup.Load() {
		return nil
	}

	logger.WarnContext(
		ctx,
		"admin credentials not set, waiting (use the `init` command)",
	)
	pendingStateCh := make(chan struct{}, 1)
	go func() {
		for ctx.Err() == nil {
			var runtimeState RuntimeConfig
			logger.InfoContext(ctx, "checking if runtime config exists yet")
			getRuntimeStateErr := lo.db.Last(&runtimeState).Error
			if getRuntimeStateErr != nil {
				logger.ErrorContext(
					ctx,
					"error getting runtime state",
					tint.Err(getRuntimeStateErr),
				)
			}
			if runtimeState.AdminUsername != "" && runtimeState.AdminPassword != "" {
				pendingStateCh <- struct{}{}
				return
			}
			time.Sleep(5 * time.Second)
		}
	}()

	select {
	case <-ctx.Done():
		logger.WarnContext(ctx, "context cancelled waiting on setup, exiting")
		return lo.shutdown(ctx, runtimeWG)
	case <-pendingStateCh:
		lo.pendingSetup.Store(false)
	}

	return nil
}

// discordInit opens the discord websocket connection and registers
// the guild slash commands.
func (lo *Loretta) discordInit(
	ctx context.Context,
	logger *slog.Logger,
) error {
	lo.logger.InfoContext(ctx, "connecting to discord")
	if err := lo.discord.session.Open(); err != nil {
		logger.ErrorContext(ctx, "error connecting to discord!", tint.Err(err))
		return fmt.Errorf("error connecting to discord: %w", err)
	}

	runtimeCfg := lo.RuntimeConfig()
	if runtimeCfg.DiscordCustomStatus != "" && !lo.paused.Load() {
		go func() {
			if statusErr := lo.discord.session.UpdateCustomStatus(
				runtimeCfg.DiscordCustomStatus,
			); statusErr != nil {
				logger.Error("error updating discord status", tint.Err(statusErr))
			}
		}()
	}

	commands, err := lo.RegisterSlashCommands()
	if err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}
	logger.InfoContext(
		ctx,
		"registered slash commands",
		"count", len(commands),
		"guild_id", lo.config.Discord.GuildID,
	)
	return nil
}

func (lo *Loretta) startGuildConfigRefresher(ctx context.Context, runtimeWG *sync.WaitGroup) {
	guildConfigTTL := lo.config.GuildConfigTTL

	if guildConfigTTL > 0 {
		runtimeWG.Add(1)
		go func() {
			defer runtimeWG.Done()
			ticker := time.NewTicker(guildConfigTTL)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case lo.triggerGuildConfigRefreshCh <- false:
					//
					case <-time.After(15 * time.Second):
						lo.logger.Info("timed out sending guild config refresh signal")
					}
				}
			}
		}()
	}

	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()
		for {
			select {
			case <-ctx.Done():
				lo.logger.Info("context canceled, stopping guild config refresher")
				return
			case forceRefresh := <-lo.triggerGuildConfigRefreshCh:
				if forceRefresh || lo.guildConfigs.stale(time.Now()) {
					if err := lo.refreshGuildConfigs(ctx); err != nil {
						lo.logger.Error("error refreshing guild configs", tint.Err(err))
					} else {
						lo.logger.Info("refreshed guild configs")
					}
				}
			}
		}
	}()
}

// startRuntimeConfigRefresher starts the cache refresher goroutine.
// This periodically refreshes [RuntimeConfig].
func (lo *Loretta) startRuntimeConfigRefresher(
	ctx context.Context,
	runtimeWG *sync.WaitGroup,
	logger *slog.Logger,
) {
	runtimeConfigTTL := lo.config.RuntimeConfigTTL

	if runtimeConfigTTL > 0 {
		runtimeWG.Add(1)
		go func() {
			defer runtimeWG.Done()
			ticker := time.NewTicker(runtimeConfigTTL)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					select {
					case lo.triggerRuntimeConfigRefreshCh <- false:
						logger.Info("sent cache refresh signal from ticker")
					case <-time.After(5 * time.Second):
						logger.Warn("timed out sending config refresh signal")
					}
				}
			}
		}()
	}

	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()

		for {
			select {
			case <-ctx.Done():
				return
			case forceRefresh := <-lo.triggerRuntimeConfigRefreshCh:
				refreshCh := make(chan struct{}, 1)
				refreshCtx, refreshCancel := context.WithTimeout(ctx, 30*time.Second)
				go func() {
					lo.refreshRuntimeConfig(refreshCtx, forceRefresh)
					refreshCh <- struct{}{}
				}()
				select {
				case <-refreshCh:
				//
				case <-refreshCtx.Done():
					lo.logger.Warn("refresh runtime config timed out or interrupted")
				}
				refreshCancel()
			}
		}
	}()
}

func (lo *Loretta) refreshRuntimeConfig(ctx context.Context, force bool) {
	lo.cfgMu.Lock()
	defer lo.cfgMu.Unlock()

	runtimeConfigTTL := lo.config.RuntimeConfigTTL
	previousConfig := lo.runtimeConfig

	var refreshConfig RuntimeConfig
	if err := lo.db.WithContext(ctx).Last(&refreshConfig).Error; err != nil {
		lo.logger.Error("error getting runtime config", tint.Err(err))
		return
	}

	lastUpdated := time.Since(time.UnixMilli(refreshConfig.UpdatedAt))
	if force || lastUpdated > runtimeConfigTTL {
		lo.logger.Info(
			fmt.Sprintf(
				"runtime config last updated: %s ago, refreshing",
				lastUpdated.String(),
			),
		)
		lo.unsafeRefreshRuntimeConfig(previousConfig, &refreshConfig)
	} else {
		lo.logger.Info("runtime config is up to date, skipping refresh")
	}
}

// unsafeRefreshRuntimeConfig refreshes the runtime configuration without
// locking the config mutex.
func (lo *Loretta) unsafeRefreshRuntimeConfig(
	previousConfig *RuntimeConfig,
	freshConfig *RuntimeConfig,
) {
	lo.logger.Info("refreshing runtime configuration")

	switch {
	case freshConfig.Paused && !previousConfig.Paused:
		lo.paused.Store(true)
		if discErr := lo.discord.updateStatusComplex(
			discordgo.UpdateStatusData{
				AFK:    true,
				Status: string(discordgo.StatusDoNotDisturb),
			},
		); discErr != nil {
			lo.logger.Error("error updating discord status", tint.Err(discErr))
		}
	case !freshConfig.Paused && previousConfig.Paused:
		lo.paused.Store(false)
		if discErr := lo.discord.updateCustomStatus(
			freshConfig.DiscordCustomStatus,
		); discErr != nil {
			lo.logger.Error("error updating discord status", tint.Err(discErr))
		}
	case freshConfig.DiscordCustomStatus != previousConfig.DiscordCustomStatus:
		if discErr := lo.discord.updateCustomStatus(
			freshConfig.DiscordCustomStatus,
		); discErr != nil {
			lo.logger.Error("error updating discord status", tint.Err(discErr))
		}
	}

	lo.runtimeConfig = freshConfig
	lo.setRuntimeLevels(*freshConfig)

	lo.logger.Info("refreshed runtime config")
}

func (lo *Loretta) shutdown(
	ctx context.Context,
	runtimeWG *sync.WaitGroup,
) error {
	lo.logger.WarnContext(ctx, "shutting down")
	defer func() {
		if lo.eventShutdown != nil {
			go func() {
				lo.eventShutdown <- struct{}{}
			}()
		}
	}()
	shutdownStart := time.Now()
	shutdownTimeout := lo.config.ShutdownTimeout
	if shutdownTimeout.Seconds() == 0 {
		lo.logger.Warn("immediate shutdown")
		go func() {
			_ = lo.api.httpServer.Close()
		}()
		return fmt.Errorf("shutdown workers did not stop in time")
	}
	shutdownDeadline := shutdownStart.Add(shutdownTimeout)

	shutdownAnnouncementInterval := 10 * time.Second

	announcementTicker := time.NewTicker(shutdownAnnouncementInterval)
	defer announcementTicker.Stop()

	lo.logger.InfoContext(
		ctx,
		"exiting!",
		"shutdown_timeout", lo.config.ShutdownTimeout,
		"shutdown_started", shutdownStart,
		"shutdown_deadline", shutdownDeadline,
	)

	closeCtx, closeCancel := context.WithDeadline(
		context.Background(),
		shutdownDeadline,
	)
	defer closeCancel()

	// Graceful shutdown - at least until closeCtx is closed
	gracefulShutdownCh := make(chan struct{}, 1)
	go func() {
		runtimeWG.Wait() // wait for anything spawned by the main processes
		runtimeStopEnd := time.Now()
		lo.logger.InfoContext(
			ctx,
			"finished handling in-flight requests",
			"shutdown_started", shutdownStart,
			"runtime_stopped", runtimeStopEnd,
			"runtime_stop_duration", runtimeStopEnd.Sub(shutdownStart),
		)
		stopWG := &sync.WaitGroup{}

		if lo.api.httpServer != nil {
			stopWG.Add(1)
			go func() {
				defer stopWG.Done()
				lo.logger.InfoContext(ctx, "stopping http server")
				_ = lo.api.httpServer.Shutdown(closeCtx)
				lo.logger.InfoContext(ctx, "http server stopped")
			}()
		}

		if lo.discord.session != nil {
			stopWG.Add(1)
			go func() {
				defer stopWG.Done()
				lo.logger.InfoContext(ctx, "closing discord session")
				_ = lo.discord.session.Close()
				lo.logger.InfoContext(ctx, "discord session closed")
				if len(lo.discord.discordgoRemoveHandlerFuncs) > 0 {
					lo.logger.InfoContext(
						ctx,
						fmt.Sprintf(
							"removing %d discord handlers",
							len(lo.discord.discordgoRemoveHandlerFuncs),
						),
					)
					for _, h := range lo.discord.discordgoRemoveHandlerFuncs {
						h()
					}
					lo.logger.InfoContext(ctx, "finished removing handlers")
				}
			}()
		}

		// wait on the above, then send a signal that we're done
		go func() {
			lo.logger.InfoContext(ctx, "waiting graceful shutdown")
			stopWG.Wait()
			gracefulShutdownCh <- struct{}{}
			lo.logger.InfoContext(ctx, "stopped http/discord")
		}()
	}()

	// if we get a signal on gracefulShutdownCh, everything stopped and
	// cleaned up normally.
	// otherwise, burn it all down!
	for {
		select {
		case <-gracefulShutdownCh:
			closeCancel()
			shutdownEnded := time.Now()
			lo.logger.InfoContext(
				ctx,
				"shutdown complete",
				"shutdown_ended", shutdownEnded,
				"shutdown_duration", shutdownEnded.Sub(shutdownStart),
			)
			return nil
		case <-announcementTicker.C:
			remaining := time.Until(shutdownDeadline)
			lo.logger.Warn(
				fmt.Sprintf(
					"time until hard shutdown: %s",
					remaining.String(),
				),
			)
		case <-closeCtx.Done(): // timed out, enqueue closing stuff
			lo.logger.Warn("shutdown workers did not stop in time, forcing close")

			go func() {
				_ = lo.api.httpServer.Close()
			}()

			return fmt.Errorf("shutdown workers did not stop in time")
		}
	}
}

// setRuntimeLevels sets the logging levels for the bot's components
// based on the provided runtime configuration.
func (lo *Loretta) setRuntimeLevels(state RuntimeConfig) {
	lo.config.LogLevel.Set(state.LogLevel.Level())
	lo.config.Discord.LogLevel.Set(state.DiscordLogLevel.Level())
	lo.config.Discord.DiscordGoLogLevel.Set(state.DiscordGoLogLevel.Level())
	lo.config.DatabaseLogLevel.Set(state.DatabaseLogLevel.Level())
	lo.config.API.LogLevel.Set(state.APILogLevel.Level())
	lo.config.Feeds.LogLevel.Set(state.FeedLogLevel.Level())
}

func (lo *Loretta) initRun(startCtx context.Context) error {
	lo.logger.Debug("initializing DB...")
	if err := lo.initDB(startCtx); err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	lo.logger.Debug("finished initializing DB")

	// load or create the DB state config - this tells the bot whether
	// it should start in a 'paused' state (to avoid a potential scenario
	// where we want to keep it paused, but it crashes and restarts in
	// an active state)
	var botState RuntimeConfig

	getStateErr := lo.db.Last(&botState).Error
	if getStateErr != nil {
		if errors.Is(getStateErr, gorm.ErrRecordNotFound) {
			lo.pendingSetup.Store(true)
			botState = DefaultRuntimeConfig()

			if _, err := lo.writeDB.Create(startCtx, &botState); err != nil {
				return fmt.Errorf("error creating config: %w", err)
			}
		} else {
			return fmt.Errorf("error getting config: %w", getStateErr)
		}
	}
	if validationErr := structValidator.Struct(botState); validationErr != nil {
		return fmt.Errorf("invalid runtime config: %w", validationErr)
	}

	if botState.AdminUsername == "" || botState.AdminPassword == "" {
		lo.pendingSetup.Store(true)
	}
	lo.paused.Store(botState.Paused)
	lo.setRuntimeLevels(botState)
	lo.runtimeConfig = &botState

	if err := lo.refreshGuildConfigs(startCtx); err != nil {
		return fmt.Errorf("error loading guild configs: %w", err)
	}

	if err := seedMemoryTimings(startCtx, lo.db, lo.writeDB); err != nil {
		return fmt.Errorf("error seeding memory timings: %w", err)
	}

	return nil
}

func (lo *Loretta) initDB(ctx context.Context) error {
	logger, ok := ContextLogger(ctx)
	if !ok || logger == nil {
		logger = lo.logger
	}

	handler := tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     lo.config.DatabaseLogLevel,
			AddSource: true,
		},
	)

	gormLogger := newGORMLogger(handler, lo.config.DatabaseSlowThreshold)
	db, err := getDB(lo.config.DatabaseType, lo.config.Database, gormLogger)

	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	lo.db = db

	lo.writeDB = NewDatabase(db, nil, lo.config.DatabaseType == dbTypePostgres)

	logger.Debug("migrating database...")
	txn := db.WithContext(ctx).Begin()

	mg := txn.Migrator()
	err = mg.AutoMigrate(
		&RuntimeConfig{},
		&GuildConfig{},
		&Birthday{},
		&Specification{},
		&PostedFeedEntry{},
		&CommandStatistic{},
		&MemoryTiming{},
	)
	if err != nil {
		logger.Error("error migrating database", tint.Err(err))
		return fmt.Errorf("error migrating database: %w", err)
	}
	logger.Debug("finished migrating database")

	commitErr := txn.Commit().Error
	if commitErr != nil {
		return fmt.Errorf("error committing transaction: %w", commitErr)
	}
	return nil
}

func (lo *Loretta) initDiscordSession(ctx context.Context, runtimeWG *sync.WaitGroup) error {
	logger := lo.logger.With(loggerNameKey, "discord_session")

	if lo.discord.session == nil {
		disc, discErr := lo.discord.newSession()
		if discErr != nil {
			return fmt.Errorf("error creating discord session: %w", discErr)
		}
		lo.discord.session = disc
	}

	ctx = WithLogger(ctx, logger)

	if len(lo.discord.discordgoRemoveHandlerFuncs) > 0 {
		for _, h := range lo.discord.discordgoRemoveHandlerFuncs {
			h()
		}
	}

	presenceCfg := lo.RuntimeConfig()
	presenceCfg.Paused = lo.paused.Load()
	identify := discordgo.Identify{
		Intents:  lo.config.Discord.GatewayIntents,
		Presence: getDiscordPresenceStatusUpdate(presenceCfg),
	}
	lo.discord.session.SetIdentify(identify)

	lo.discord.discordgoRemoveHandlerFuncs = []func(){
		lo.discord.session.AddHandler(lo.discord.handlerConnect()),
		lo.discord.session.AddHandler(lo.discord.handlerDisconnect()),
		lo.discord.session.AddHandler(lo.discord.handlerReady()),
		lo.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				i *discordgo.InteractionCreate,
			) {
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					lo.handleInteraction(ctx, i)
				}()
			},
		),
		lo.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				m *discordgo.MessageCreate,
			) {
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					lo.handleDiscordMessage(ctx, m)
				}()
			},
		),
		lo.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				m *discordgo.GuildMemberAdd,
			) {
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					lo.handleGuildMemberAdd(ctx, m)
				}()
			},
		),
		lo.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				m *discordgo.GuildMemberRemove,
			) {
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					lo.handleGuildMemberRemove(ctx, m)
				}()
			},
		),
	}

	return nil
}

// Pause 'pauses' the bot. While paused, slash commands receive a
// notice instead of being executed, and the feed and birthday workers
// skip their ticks.
func (lo *Loretta) Pause(ctx context.Context) bool {
	prev := lo.paused.Swap(true)
	if prev {
		return false
	}

	if err := lo.discord.updateStatusComplex(
		discordgo.UpdateStatusData{
			AFK:    true,
			Status: string(discordgo.StatusDoNotDisturb),
		},
	); err != nil {
		lo.logger.ErrorContext(ctx, "unable to update afk status", tint.Err(err))
	}
	lo.cfgMu.RLock()
	current := lo.runtimeConfig
	alreadyPaused := current.Paused
	lo.cfgMu.RUnlock()

	if !alreadyPaused {
		if _, err := lo.writeDB.Update(
			ctx,
			current,
			columnRuntimeConfigPaused,
			true,
		); err != nil {
			lo.logger.ErrorContext(ctx, "unable to set paused in db", tint.Err(err))
		}
	}
	return true
}

// Resume resumes command processing. It returns a bool indicating whether
// the bot was paused at the time the function was called.
func (lo *Loretta) Resume(ctx context.Context) bool {
	prev := lo.paused.Swap(false)
	if !prev {
		lo.logger.Warn("bot not paused")
		return false
	}
	lo.logger.InfoContext(ctx, "bot resumed")

	lo.cfgMu.RLock()
	current := lo.runtimeConfig
	wasPaused := current.Paused
	customStatus := current.DiscordCustomStatus
	lo.cfgMu.RUnlock()

	if err := lo.discord.updateCustomStatus(customStatus); err != nil {
		lo.logger.ErrorContext(ctx, "unable to update online status", tint.Err(err))
	}

	if wasPaused {
		if _, err := lo.writeDB.Update(
			ctx, current, columnRuntimeConfigPaused, false,
		); err != nil {
			lo.logger.ErrorContext(ctx, "unable to set resumed in db", tint.Err(err))
		}
	}

	return true
}

func (*Loretta) handleRecover(ctx context.Context, rc any) {
	if rc == nil {
		return
	}
	logger, ok := ContextLogger(ctx)
	if !ok || logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(
		ctx,
		"recovered from panic",
		"panic", rc,
		"stack", string(debug.Stack()),
	)
}
