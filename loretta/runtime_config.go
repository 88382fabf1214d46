package loretta

import (
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	columnRuntimeConfigAdminUsername = "admin_username"
	columnRuntimeConfigAdminPassword = "admin_password"
	columnRuntimeConfigPaused        = "paused"
)

const (
	DefaultFeedPollInterval     = 5 * time.Minute
	DefaultBirthdayAnnounceHour = 9
	DefaultSpecCacheTTL         = 5 * time.Minute
	DefaultRollMax              = 100
	rollMaxLimit                = 1_000_000
	DefaultPurgeMax             = 100
)

// RuntimeConfig represents the runtime configuration of the bot.
// It stores settings that can be modified while running and persisted
// across restarts. This struct is used to manage the 'live' application
// state for states we would want to maintain across restarts
// (e.g., being paused).
//
//nolint:lll // struct tags can't be split
type RuntimeConfig struct {
	ModelUintID
	ModelUnixTime

	// Paused indicates whether the bot is currently paused.
	Paused bool `json:"paused" gorm:"not null;default:false"`

	// DiscordCustomStatus is the custom status message displayed for the bot on Discord.
	DiscordCustomStatus string `json:"discord_custom_status" gorm:"type:string"`

	// DiscordErrorMessage is the generic failure notice shown to users.
	DiscordErrorMessage string `json:"discord_error_message" gorm:"type:string" binding:"min=1,max=100"`

	// FeedPollInterval is the interval between RSS feed polls.
	FeedPollInterval Duration `json:"feed_poll_interval" gorm:"type:string"`

	// BirthdayAnnounceHour is the local (Europe/Berlin) hour at which the
	// daily birthday announcement runs.
	BirthdayAnnounceHour int `json:"birthday_announce_hour" gorm:"default:9;check:birthday_announce_hour >= 0 AND birthday_announce_hour <= 23" binding:"min=0,max=23"`

	// SpecCacheTTL is the time-to-live of the specification search cache.
	SpecCacheTTL Duration `json:"spec_cache_ttl" gorm:"type:string"`

	// RollMax is the default upper bound for the 'roll' command.
	RollMax int `json:"roll_max" gorm:"default:100;check:roll_max > 0" binding:"min=1,max=1000000"`

	// PurgeMax is the maximum number of messages 'purge' may delete at once.
	PurgeMax int `json:"purge_max" gorm:"default:100;check:purge_max > 0" binding:"min=1,max=100"`

	// AdminUsername for the admin API
	AdminUsername string `json:"admin_username" gorm:"type:string" log:"[redacted]"`

	// AdminPassword stores the hashed password for the admin user
	AdminPassword string `json:"admin_password" gorm:"type:string" log:"[redacted]"`

	// LogLevel is the general logging level for the application.
	LogLevel DBLogLevel `gorm:"default:INFO;type:string;check:log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DiscordLogLevel is the logging level for Discord-related operations.
	DiscordLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:discord_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"discord_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DiscordGoLogLevel is the logging level for the DiscordGo library.
	DiscordGoLogLevel DBLogLevel `gorm:"default:INFO;column:discordgo_log_level;type:string;check:discordgo_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"discordgo_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DatabaseLogLevel is the logging level for database operations.
	DatabaseLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:database_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"database_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// FeedLogLevel is the logging level for the RSS watchers.
	FeedLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:feed_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"feed_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// BirthdayLogLevel is the logging level for the birthday worker.
	BirthdayLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:birthday_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"birthday_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// APILogLevel is the logging level for API operations.
	APILogLevel DBLogLevel `gorm:"default:INFO;type:string;check:api_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"api_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
}

func (RuntimeConfig) TableName() string {
	return "config"
}

func (c RuntimeConfig) LogValue() slog.Value {
	return structToSlogValue(c)
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Paused:               false,
		DiscordCustomStatus:  DefaultDiscordCustomStatus,
		DiscordErrorMessage:  DefaultDiscordErrorMessage,
		FeedPollInterval:     Duration{DefaultFeedPollInterval},
		BirthdayAnnounceHour: DefaultBirthdayAnnounceHour,
		SpecCacheTTL:         Duration{DefaultSpecCacheTTL},
		RollMax:              DefaultRollMax,
		PurgeMax:             DefaultPurgeMax,
		LogLevel:             DBLogLevel(slog.LevelInfo.String()),
		DiscordLogLevel:      DBLogLevel(slog.LevelInfo.String()),
		DiscordGoLogLevel:    DBLogLevel(slog.LevelInfo.String()),
		DatabaseLogLevel:     DBLogLevel(slog.LevelInfo.String()),
		FeedLogLevel:         DBLogLevel(slog.LevelInfo.String()),
		BirthdayLogLevel:     DBLogLevel(slog.LevelInfo.String()),
		APILogLevel:          DBLogLevel(slog.LevelInfo.String()),
	}
}

// RuntimeConfigUpdate is a partial-update payload for RuntimeConfig.
// Nil fields are left unchanged.
//
//nolint:lll // can't break tags
type RuntimeConfigUpdate struct {
	Paused *bool `json:"paused,omitempty"`

	DiscordCustomStatus *string `json:"discord_custom_status,omitempty"`
	DiscordErrorMessage *string `json:"discord_error_message,omitempty" binding:"omitnil,min=1,max=100"`

	FeedPollInterval     *Duration `json:"feed_poll_interval,omitempty"`
	BirthdayAnnounceHour *int      `json:"birthday_announce_hour,omitempty" binding:"omitnil,min=0,max=23"`
	SpecCacheTTL         *Duration `json:"spec_cache_ttl,omitempty"`
	RollMax              *int      `json:"roll_max,omitempty" binding:"omitnil,min=1,max=1000000"`
	PurgeMax             *int      `json:"purge_max,omitempty" binding:"omitnil,min=1,max=100"`

	LogLevel          *DBLogLevel `json:"log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DiscordLogLevel   *DBLogLevel `json:"discord_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DiscordGoLogLevel *DBLogLevel `json:"discordgo_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DatabaseLogLevel  *DBLogLevel `json:"database_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	FeedLogLevel      *DBLogLevel `json:"feed_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	BirthdayLogLevel  *DBLogLevel `json:"birthday_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	APILogLevel       *DBLogLevel `json:"api_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
}

func validateRuntimeUpdateLimits(field reflect.Value) any {
	if value, ok := field.Interface().(RuntimeConfigUpdate); ok {
		if value.FeedPollInterval != nil {
			pollDuration := *value.FeedPollInterval
			if pollDuration.Duration < 30*time.Second {
				return fmt.Errorf("feed poll interval must be at least 30s")
			}
			if pollDuration.Duration > 24*time.Hour {
				return fmt.Errorf("feed poll interval must be at most 24h")
			}
		}
		if value.SpecCacheTTL != nil {
			ttl := *value.SpecCacheTTL
			if ttl.Duration < 0 {
				return fmt.Errorf("spec cache ttl must be >= 0")
			}
		}
	}
	return nil
}

func (b RuntimeConfigUpdate) validate() error {
	err := structValidator.Struct(b)
	return err
}

func getDiscordPresenceStatusUpdate(config RuntimeConfig) discordgo.GatewayStatusUpdate {
	if config.Paused {
		return discordgo.GatewayStatusUpdate{
			AFK:    true,
			Status: string(discordgo.StatusDoNotDisturb),
		}
	}
	return discordgo.GatewayStatusUpdate{Status: config.DiscordCustomStatus}
}
