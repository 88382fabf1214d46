package loretta

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Channel types settable via the /config channel subcommand.
const (
	guildChannelTypeLog      = "log"
	guildChannelTypeNews     = "news"
	guildChannelTypeBirthday = "birthday"
)

// GuildConfig stores the per-guild settings that moderators manage via
// the /config command or the admin API.
//
//nolint:lll // struct tags can't be split
type GuildConfig struct {
	ModelUintID
	ModelUnixTime

	GuildID string `json:"guild_id" gorm:"uniqueIndex;not null"`

	// CommandPrefix is retained from the legacy message-command era and
	// is no longer used for dispatch.
	CommandPrefix string `json:"command_prefix" gorm:"default:!"`

	// LogChannelID receives member join/leave embeds.
	LogChannelID string `json:"log_channel_id" gorm:"type:string"`

	// NewsChannelID receives RSS feed announcements.
	NewsChannelID string `json:"news_channel_id" gorm:"type:string"`

	// BirthdayChannelID receives the daily birthday greetings.
	BirthdayChannelID string `json:"birthday_channel_id" gorm:"type:string"`

	// PictureOnlyChannels lists channel IDs where messages without an
	// image attachment are removed.
	PictureOnlyChannels StringSlice `json:"picture_only_channels" gorm:"type:string"`
}

func (g GuildConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("guild_id", g.GuildID),
		slog.String("log_channel_id", g.LogChannelID),
		slog.String("news_channel_id", g.NewsChannelID),
		slog.String("birthday_channel_id", g.BirthdayChannelID),
		slog.Int("picture_only_channels", len(g.PictureOnlyChannels)),
	)
}

// GuildConfigUpdate is a partial-update payload for GuildConfig.
// Nil fields are left unchanged.
type GuildConfigUpdate struct {
	CommandPrefix       *string      `json:"command_prefix,omitempty" binding:"omitnil,min=1,max=5"`
	LogChannelID        *string      `json:"log_channel_id,omitempty"`
	NewsChannelID       *string      `json:"news_channel_id,omitempty"`
	BirthdayChannelID   *string      `json:"birthday_channel_id,omitempty"`
	PictureOnlyChannels *StringSlice `json:"picture_only_channels,omitempty"`
}

func (g GuildConfigUpdate) validate() error {
	return structValidator.Struct(g)
}

// guildConfigCache holds the per-guild config rows, refreshed on
// updates, on notifier signals, and at least every TTL.
type guildConfigCache struct {
	mu        sync.RWMutex
	configs   map[string]*GuildConfig
	refreshed time.Time
	ttl       time.Duration
}

func newGuildConfigCache(ttl time.Duration) *guildConfigCache {
	return &guildConfigCache{
		configs: map[string]*GuildConfig{},
		ttl:     ttl,
	}
}

func (c *guildConfigCache) get(guildID string) (*GuildConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.configs[guildID]
	return cfg, ok
}

func (c *guildConfigCache) set(cfg *GuildConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[cfg.GuildID] = cfg
}

func (c *guildConfigCache) all() []GuildConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	configs := make([]GuildConfig, 0, len(c.configs))
	for _, cfg := range c.configs {
		configs = append(configs, *cfg)
	}
	return configs
}

func (c *guildConfigCache) stale(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl > 0 && now.Sub(c.refreshed) > c.ttl
}

func (c *guildConfigCache) replaceAll(configs []GuildConfig, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs = make(map[string]*GuildConfig, len(configs))
	for i := range configs {
		cfg := configs[i]
		c.configs[cfg.GuildID] = &cfg
	}
	c.refreshed = now
}

// GetOrCreateGuildConfig returns the cached config for the guild,
// loading or creating the DB row as needed.
func (lo *Loretta) GetOrCreateGuildConfig(
	ctx context.Context,
	guildID string,
) (*GuildConfig, error) {
	if cfg, ok := lo.guildConfigs.get(guildID); ok && !lo.guildConfigs.stale(time.Now()) {
		return cfg, nil
	}

	var cfg GuildConfig
	err := lo.db.WithContext(ctx).Where("guild_id = ?", guildID).Last(&cfg).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		cfg = GuildConfig{GuildID: guildID}
		if _, createErr := lo.writeDB.Create(ctx, &cfg); createErr != nil {
			// Another instance may have created the row in the meantime
			if retryErr := lo.db.WithContext(ctx).Where(
				"guild_id = ?", guildID,
			).Last(&cfg).Error; retryErr != nil {
				return nil, createErr
			}
		}
	}
	lo.guildConfigs.set(&cfg)
	return &cfg, nil
}

// UpdateGuildConfig applies a partial update to a guild's config row,
// refreshes the cache and signals other instances.
func (lo *Loretta) UpdateGuildConfig(
	ctx context.Context,
	guildID string,
	update GuildConfigUpdate,
) (*GuildConfig, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	cfg, err := lo.GetOrCreateGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if update.CommandPrefix != nil {
		updates["command_prefix"] = stringPointerValue(update.CommandPrefix)
	}
	if update.LogChannelID != nil {
		updates["log_channel_id"] = stringPointerValue(update.LogChannelID)
	}
	if update.NewsChannelID != nil {
		updates["news_channel_id"] = stringPointerValue(update.NewsChannelID)
	}
	if update.BirthdayChannelID != nil {
		updates["birthday_channel_id"] = stringPointerValue(update.BirthdayChannelID)
	}
	if update.PictureOnlyChannels != nil {
		updates["picture_only_channels"] = *update.PictureOnlyChannels
	}
	if len(updates) == 0 {
		return cfg, nil
	}

	if _, err = lo.writeDB.Updates(ctx, cfg, updates); err != nil {
		return nil, err
	}

	var fresh GuildConfig
	if err = lo.db.WithContext(ctx).Where(
		"guild_id = ?", guildID,
	).Last(&fresh).Error; err != nil {
		return nil, err
	}
	lo.guildConfigs.set(&fresh)

	if lo.dbNotifier != nil {
		go lo.dbNotifier.ReloadGuildConfig(context.WithoutCancel(ctx))
	}
	return &fresh, nil
}

// refreshGuildConfigs reloads all guild config rows into the cache.
func (lo *Loretta) refreshGuildConfigs(ctx context.Context) error {
	var configs []GuildConfig
	if err := lo.db.WithContext(ctx).Find(&configs).Error; err != nil {
		return err
	}
	lo.guildConfigs.replaceAll(configs, time.Now())
	return nil
}
