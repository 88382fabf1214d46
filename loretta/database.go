package loretta

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	dbTypeSQLite                              = "sqlite"
	dbTypePostgres                            = "postgres"
	postgresNotifyChannelRuntimeConfigUpdated = "loretta_reload_runtime_config"
	postgresNotifyChannelGuildConfigUpdated   = "loretta_reload_guild_config"
	postgresNotifyChannelStop                 = "loretta_stop"
)

var (
	sqliteMaxOpenConns    = 1
	sqliteMaxIdleConns    = 1
	sqliteMaxConnLifetime = 5 * time.Minute
	sqliteExecPragma      = []string{
		"pragma journal_mode=WAL;",
		"pragma synchronous = normal;",
		"pragma temp_store = memory;",
		"pragma foreign_keys = ON;",
		"pragma busy_timeout = 5000;",
	}
	dbOperationTimeout    = 30 * time.Second
	dbNotifierSendTimeout = 15 * time.Second
)

// ModelUnixTime is an embeddable model with Unix timestamps for
// creation, update, and deletion.
type ModelUnixTime struct {
	CreatedAt int64          `gorm:"autoCreateTime:milli" json:"created_at,omitempty"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type ModelUintID struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// database wraps the GORM connection and provides the DBI API.
//
// When concurrent writes are disabled (SQLite), a mutex serializes all
// write operations so only a single writer touches the file at a time.
// Every operation runs under dbOperationTimeout unless the caller's
// context already carries a deadline.
type database struct {
	db                     *gorm.DB
	mu                     sync.Mutex
	logger                 *slog.Logger
	enableConcurrentWrites bool
}

// NewDatabase initializes a new database instance wrapping the given
// GORM connection. enableConcurrentWrites should be false for SQLite.
func NewDatabase(
	db *gorm.DB,
	log *slog.Logger,
	enableConcurrentWrites bool,
) DBI {
	if log == nil {
		log = slog.Default()
	}
	d := &database{
		db:                     db,
		logger:                 log.With(loggerNameKey, "writedb"),
		enableConcurrentWrites: enableConcurrentWrites,
	}
	return d
}

func (d *database) DB() *gorm.DB {
	return d.db
}

func (d *database) Lock() {
	if d.enableConcurrentWrites {
		return
	}
	d.mu.Lock()
}

func (d *database) Unlock() {
	if d.enableConcurrentWrites {
		return
	}
	d.mu.Unlock()
}

func (d *database) Create(ctx context.Context, value any, omit ...string) (
	rowsAffected int64,
	err error,
) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	db := d.db
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}
	db = db.WithContext(ctx)

	if len(omit) > 0 {
		rv := db.Omit(omit...).Create(value)
		return rv.RowsAffected, rv.Error
	}
	rv := db.Create(value)
	return rv.RowsAffected, rv.Error
}

func (d *database) Updates(ctx context.Context, model, values any) (
	rowsAffected int64,
	err error,
) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}
	rv := d.db.WithContext(ctx).Model(model).Updates(values)
	return rv.RowsAffected, rv.Error
}

func (d *database) Transaction(
	ctx context.Context,
	fc func(tx *gorm.DB) error,
	opts ...*sql.TxOptions,
) (err error) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}
	rv := d.db.WithContext(ctx).Transaction(fc, opts...)
	return rv
}

func (d *database) Save(ctx context.Context, value any, omit ...string) (
	rowsAffected int64,
	err error,
) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}

	if len(omit) > 0 {
		rv := d.db.WithContext(ctx).Omit(omit...).Save(value)
		return rv.RowsAffected, rv.Error
	}
	rv := d.db.WithContext(ctx).Save(value)
	return rv.RowsAffected, rv.Error
}

func (d *database) Update(
	ctx context.Context,
	model any,
	column string,
	value any,
) (rowsAffected int64, err error) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}

	rv := d.db.WithContext(ctx).Model(model).Update(column, value)
	return rv.RowsAffected, rv.Error
}

func (d *database) UpdatesWhere(
	ctx context.Context,
	model any,
	values map[string]any,
	query any,
	conds ...any,
) (rowsAffected int64, err error) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	_, ok := ctx.Deadline()
	if !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dbOperationTimeout)
		defer cancel()
	}

	rv := d.db.WithContext(ctx).Model(model).Where(query, conds...).Updates(values)
	return rv.RowsAffected, rv.Error
}

// Delete permanently removes matching rows. Soft-deleted rows would
// keep occupying the unique indexes on birthdays and specifications, so
// deletes bypass gorm.DeletedAt.
func (d *database) Delete(
	value any,
	conds ...any,
) (rowsAffected int64, err error) {
	if !d.enableConcurrentWrites {
		d.mu.Lock()
		defer d.mu.Unlock()
	}
	rv := d.db.Unscoped().Delete(value, conds...)
	return rv.RowsAffected, rv.Error
}

// Duration is a wrapper for time.Duration that implements
// SQL Scanner and Valuer interfaces for GORM.
type Duration struct {
	time.Duration
}

// Scan implements the sql.Scanner interface.
func (d *Duration) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("unexpected type for Duration: %T", value)
	}
}

// Value implements the driver.Valuer interface.
func (d Duration) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Duration) parse(value string) error {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	d.Duration = duration
	return nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	// Remove quotes
	s = s[1 : len(s)-1]
	return d.parse(s)
}

// MarshalJSON implements the json.Marshaller interface.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`%q`, d.String())), nil
}

// GormDataType is used by GORM to determine the default data type for a field.
func (Duration) GormDataType() string {
	return "string"
}

// DBI defines the interface for database operations. This is here primarily
// to enable mocking of the database operations for testing.
// [database] implements this interface for 'real' DB operations.
type DBI interface {
	Lock()
	Unlock()

	DB() *gorm.DB
	Create(ctx context.Context, value any, omit ...string) (rowsAffected int64, err error)
	Updates(ctx context.Context, model any, values any) (rowsAffected int64, err error)
	Delete(value any, conds ...any) (rowsAffected int64, err error)
	Transaction(
		ctx context.Context,
		fc func(tx *gorm.DB) error,
		opts ...*sql.TxOptions,
	) (err error)
	Save(ctx context.Context, value any, omit ...string) (rowsAffected int64, err error)
	Update(ctx context.Context, model any, column string, value any) (
		rowsAffected int64,
		err error,
	)
	UpdatesWhere(
		ctx context.Context,
		model any,
		values map[string]any,
		query any,
		conds ...any,
	) (rowsAffected int64, err error)
}

// CreateDB initializes and returns a GORM database connection based on the
// specified database type, and performs auto-migration for all models.
func CreateDB(ctx context.Context, databaseType string, database string) (*gorm.DB, error) {
	handler := tint.NewHandler(
		os.Stdout,
		&tint.Options{
			Level:     slog.LevelWarn,
			AddSource: true,
		},
	)

	gormLogger := newGORMLogger(handler, 500*time.Millisecond)
	dbLogger := slog.New(handler)

	dbLogger.InfoContext(
		ctx,
		"Initializing database",
		"database_type", databaseType,
		"database", database,
	)
	db, err := getDB(databaseType, database, gormLogger)
	if err != nil {
		return db, err
	}

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
		return db, err
	}

	commitErr := txn.Commit().Error
	if commitErr != nil {
		return db, commitErr
	}

	return db, nil
}

// getDB initializes and returns a GORM database connection based on the
// specified database type.
func getDB(
	databaseType string,
	database string,
	gormLogger *gormStructuredLogger,
) (*gorm.DB, error) {
	switch databaseType {
	case dbTypeSQLite:
		parentDir := filepath.Dir(database)
		if parentDir != "" {
			if err := os.MkdirAll(parentDir, 0755); err != nil {
				if !errors.Is(err, os.ErrExist) {
					return nil, err
				}
			}
		}
		db, err := gorm.Open(
			sqlite.Open(database),
			&gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
		sqlDB.SetMaxIdleConns(sqliteMaxIdleConns)
		sqlDB.SetConnMaxLifetime(sqliteMaxConnLifetime)
		for _, pragma := range sqliteExecPragma {
			if err = db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("error executing %q: %w", pragma, err)
			}
		}
		return db, nil
	case dbTypePostgres:
		return gorm.Open(
			postgres.Open(database), &gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
	default:
		return nil, fmt.Errorf(
			"unsupported database type: %s (must be %q or %q)",
			databaseType, dbTypeSQLite, dbTypePostgres,
		)
	}
}

// DBNotifier defines the interface for notifying bot instances of
// database changes and other events.
type DBNotifier interface {
	RuntimeConfigChannelName() string

	// ReloadRuntimeConfig sends a notification to bot instances to
	// reload their runtime configuration from the DB
	ReloadRuntimeConfig(context.Context) bool

	GuildConfigChannelName() string

	// ReloadGuildConfig sends a notification to bot instances to
	// reload their guild configuration cache from the DB
	ReloadGuildConfig(context.Context) bool

	StopChannelName() string

	// Stop sends a shutdown signal to all bots
	Stop(context.Context) bool

	// ID returns the identifier for this notifier. DBNotifier instances
	// should use this ID to filter out their own notifications.
	ID() string
	Listen(ctx context.Context, channel string) error
}

func newDBNotifier(lo *Loretta) (DBNotifier, error) {
	notifyID, err := generateRandomHexString(16)
	if err != nil {
		return nil, err
	}
	log := lo.logger.With(loggerNameKey, "db_notifier")
	var notifier DBNotifier
	switch lo.config.DatabaseType {
	case dbTypeSQLite:
		notifier = &sqliteNotifier{
			logger:         log,
			lo:             lo,
			sqliteNotifyID: notifyID,
		}
	case dbTypePostgres:
		notifier = &postgresNotifier{
			lo:         lo,
			logger:     log,
			pgNotifyID: notifyID,
		}
	default:
		return nil, errors.New("invalid database type")
	}
	return notifier, nil
}

// sqliteNotifier is a single-process notifier. There is nothing to
// broadcast, so notifications go straight to the local channels.
type sqliteNotifier struct {
	logger         *slog.Logger
	lo             *Loretta
	sqliteNotifyID string
}

func (s *sqliteNotifier) Listen(_ context.Context, channel string) error {
	s.logger.Debug("listener called", "channel", channel)
	return nil
}

func (sqliteNotifier) StopChannelName() string {
	return ""
}

func (s *sqliteNotifier) Stop(ctx context.Context) bool {
	s.logger.Info("notifying stop signal")
	select {
	case s.lo.signalStop <- struct{}{}:
	//
	case <-ctx.Done():
		s.logger.Warn("timeout sending stop signal")
		return false
	}
	return true
}

func (s *sqliteNotifier) ID() string {
	return s.sqliteNotifyID
}

func (s *sqliteNotifier) ReloadRuntimeConfig(ctx context.Context) bool {
	s.logger.Info("got runtime config reload notification")
	select {
	case s.lo.triggerRuntimeConfigRefreshCh <- true:
	//
	case <-ctx.Done():
		s.logger.Warn("timeout sending runtime config refresh signal")
		return false
	}
	return true
}

func (s *sqliteNotifier) ReloadGuildConfig(ctx context.Context) bool {
	s.logger.Info("got guild config reload notification")
	select {
	case s.lo.triggerGuildConfigRefreshCh <- true:
	//
	case <-ctx.Done():
		s.logger.Warn("timeout sending guild config refresh signal")
		return false
	}
	return true
}

func (sqliteNotifier) RuntimeConfigChannelName() string {
	return ""
}

func (sqliteNotifier) GuildConfigChannelName() string {
	return ""
}

type postgresNotifier struct {
	lo         *Loretta
	logger     *slog.Logger
	pgNotifyID string
}

func (postgresNotifier) RuntimeConfigChannelName() string {
	return postgresNotifyChannelRuntimeConfigUpdated
}

func (postgresNotifier) GuildConfigChannelName() string {
	return postgresNotifyChannelGuildConfigUpdated
}

func (postgresNotifier) StopChannelName() string {
	return postgresNotifyChannelStop
}

func (p *postgresNotifier) ID() string {
	return p.pgNotifyID
}

func (p *postgresNotifier) notify(ctx context.Context, channel string, what string) bool {
	notifyErr := p.lo.writeDB.DB().WithContext(ctx).Exec(
		"SELECT pg_notify(?, ?)",
		channel,
		p.ID(),
	).Error
	if notifyErr != nil {
		p.logger.ErrorContext(
			ctx,
			fmt.Sprintf("Error sending NOTIFY to %s", what),
			tint.Err(notifyErr),
		)
		return false
	}
	p.logger.Info(
		fmt.Sprintf("sent %s notification", what),
		"pg_notify_id", p.ID(),
	)
	return true
}

func (p *postgresNotifier) Stop(ctx context.Context) bool {
	return p.notify(ctx, p.StopChannelName(), "stop bot")
}

func (p *postgresNotifier) ReloadRuntimeConfig(ctx context.Context) bool {
	return p.notify(ctx, p.RuntimeConfigChannelName(), "reload runtime config")
}

func (p *postgresNotifier) ReloadGuildConfig(ctx context.Context) bool {
	sent := p.notify(ctx, p.GuildConfigChannelName(), "reload guild config")

	select {
	case p.lo.triggerGuildConfigRefreshCh <- true:
	//
	case <-ctx.Done():
		p.logger.Warn("timeout sending guild config refresh signal")
	}

	return sent
}

func (p *postgresNotifier) Listen(ctx context.Context, channel string) error {
	p.logger.Info("starting db listener", "channel", channel)

	config, err := pgxpool.ParseConfig(p.lo.config.Database)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error parsing database config", tint.Err(err))
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error creating connection pool", tint.Err(err))
		return err
	}
	defer pool.Close()

	// Start listening for notifications
	conn, err := pool.Acquire(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error acquiring connection", tint.Err(err))
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("LISTEN %s", channel))
	if err != nil {
		p.logger.ErrorContext(ctx, "Error setting up listener", tint.Err(err))
		return err
	}
	logger := p.logger.With("channel", channel)
	logger.InfoContext(ctx, "Started listening on channel")

	for ctx.Err() == nil {
		notification, e := conn.Conn().WaitForNotification(ctx)
		if e != nil {
			logger.ErrorContext(ctx, "Error waiting for notification", tint.Err(e))
			time.Sleep(5 * time.Second) // Wait before retrying
			continue
		}
		if notification.Payload == p.ID() {
			logger.Info(
				"Received notification from self, ignoring",
				"payload",
				notification.Payload,
			)
			continue
		}

		switch channel {
		case p.RuntimeConfigChannelName():
			logger.InfoContext(ctx, "Received notification for runtime config update")
			select {
			case p.lo.triggerRuntimeConfigRefreshCh <- true:
				logger.Info("sent runtime config refresh signal from postgres listener")
			case <-time.After(dbNotifierSendTimeout):
				logger.Warn("timed out sending config refresh signal")
			}
		case p.GuildConfigChannelName():
			logger.InfoContext(ctx, "Received notification for guild config update")
			select {
			case p.lo.triggerGuildConfigRefreshCh <- true:
				logger.Info("sent guild config refresh signal from postgres listener")
			case <-time.After(dbNotifierSendTimeout):
				logger.Warn("timed out sending guild config refresh signal")
			}
		case p.StopChannelName():
			logger.InfoContext(ctx, "received stop signal via NOTIFY")
			select {
			case p.lo.signalStop <- struct{}{}:
				logger.Info("forwarded stop signal")
			case <-time.After(dbNotifierSendTimeout):
				logger.Warn("timed out forwarding stop signal")
			}
		default:
			logger.Warn("Received unknown notification", "channel", notification.Channel)
		}
	}

	return nil
}
