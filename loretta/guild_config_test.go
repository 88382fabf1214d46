package loretta

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateGuildConfig(t *testing.T) {
	bot := newTestLoretta(t)
	ids := newBotTestData(t)
	ctx := context.Background()

	cfg, err := bot.GetOrCreateGuildConfig(ctx, ids.GuildID)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ids.GuildID, cfg.GuildID)
	require.NotZero(t, cfg.ID)

	// second call hits the cache and returns the same row
	again, err := bot.GetOrCreateGuildConfig(ctx, ids.GuildID)
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, again.ID)

	var count int64
	require.NoError(t, bot.db.Model(&GuildConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateGuildConfig(t *testing.T) {
	bot := newTestLoretta(t)
	ids := newBotTestData(t)
	ctx := context.Background()

	logChannel := "log_" + t.Name()
	cfg, err := bot.UpdateGuildConfig(
		ctx, ids.GuildID, GuildConfigUpdate{LogChannelID: &logChannel},
	)
	require.NoError(t, err)
	assert.Equal(t, logChannel, cfg.LogChannelID)
	assert.Empty(t, cfg.NewsChannelID)

	// partial update leaves other fields alone
	newsChannel := "news_" + t.Name()
	cfg, err = bot.UpdateGuildConfig(
		ctx, ids.GuildID, GuildConfigUpdate{NewsChannelID: &newsChannel},
	)
	require.NoError(t, err)
	assert.Equal(t, logChannel, cfg.LogChannelID)
	assert.Equal(t, newsChannel, cfg.NewsChannelID)

	// empty update is a no-op
	cfg, err = bot.UpdateGuildConfig(ctx, ids.GuildID, GuildConfigUpdate{})
	require.NoError(t, err)
	assert.Equal(t, logChannel, cfg.LogChannelID)

	// validation failures don't touch the row
	badPrefix := "viel zu langes prefix"
	_, err = bot.UpdateGuildConfig(
		ctx, ids.GuildID, GuildConfigUpdate{CommandPrefix: &badPrefix},
	)
	assert.Error(t, err)
}

func TestGuildConfigCache(t *testing.T) {
	cache := newGuildConfigCache(time.Minute)
	now := time.Now()

	_, ok := cache.get("guild_a")
	assert.False(t, ok)

	cache.set(&GuildConfig{GuildID: "guild_a", LogChannelID: "log_a"})
	cfg, ok := cache.get("guild_a")
	require.True(t, ok)
	assert.Equal(t, "log_a", cfg.LogChannelID)

	assert.True(t, cache.stale(now), "never refreshed")

	cache.replaceAll(
		[]GuildConfig{
			{GuildID: "guild_b"},
			{GuildID: "guild_c"},
		},
		now,
	)
	_, ok = cache.get("guild_a")
	assert.False(t, ok, "replaceAll drops rows not in the new set")
	_, ok = cache.get("guild_b")
	assert.True(t, ok)
	assert.Len(t, cache.all(), 2)

	assert.False(t, cache.stale(now.Add(30*time.Second)))
	assert.True(t, cache.stale(now.Add(2*time.Minute)))

	// zero TTL disables staleness entirely
	forever := newGuildConfigCache(0)
	forever.replaceAll(nil, now.Add(-24*time.Hour))
	assert.False(t, forever.stale(now))
}

func TestRefreshGuildConfigs(t *testing.T) {
	bot := newTestLoretta(t)
	ctx := context.Background()

	for _, guildID := range []string{"guild_x", "guild_y"} {
		require.NoError(t, bot.db.Create(&GuildConfig{GuildID: guildID}).Error)
	}

	require.NoError(t, bot.refreshGuildConfigs(ctx))
	assert.Len(t, bot.guildConfigs.all(), 2)
	_, ok := bot.guildConfigs.get("guild_x")
	assert.True(t, ok)
}

func TestCommandGuildConfigShow(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	t.Run("unconfigured", func(t *testing.T) {
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandConfig, subCommandOption("show"),
		)
		require.NoError(t, bot.commandGuildConfig(ctx, i))

		resp := waitForPayload(t, rec.responses)
		require.Len(t, resp.Data.Embeds, 1)
		embed := resp.Data.Embeds[0]
		assert.Equal(t, "Server-Konfiguration", embed.Title)
		require.Len(t, embed.Fields, 4)
		assert.Equal(t, "Log-Kanal", embed.Fields[0].Name)
		assert.Equal(t, "Nicht gesetzt", embed.Fields[0].Value)
		assert.Equal(t, "Nur-Bilder-Kanäle", embed.Fields[3].Name)
		assert.Equal(t, "Keine", embed.Fields[3].Value)
	})

	t.Run("with channels set", func(t *testing.T) {
		logChannel := "kanal_log"
		_, err := bot.UpdateGuildConfig(
			ctx, ids.GuildID, GuildConfigUpdate{
				LogChannelID:        &logChannel,
				PictureOnlyChannels: &StringSlice{"kanal_bilder"},
			},
		)
		require.NoError(t, err)

		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandConfig, subCommandOption("show"),
		)
		require.NoError(t, bot.commandGuildConfig(ctx, i))

		resp := waitForPayload(t, rec.responses)
		embed := resp.Data.Embeds[0]
		assert.Equal(t, "<#kanal_log>", embed.Fields[0].Value)
		assert.Equal(t, "<#kanal_bilder>", embed.Fields[3].Value)
	})
}

func TestCommandGuildConfigSetChannel(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	i := newSlashCommandInteraction(
		ids, user, DiscordSlashCommandConfig,
		subCommandOption(
			"channel",
			stringCommandOption("typ", guildChannelTypeBirthday),
			channelCommandOption("kanal", "kanal_geburtstage"),
		),
	)
	require.NoError(t, bot.commandGuildConfig(ctx, i))

	resp := waitForPayload(t, rec.responses)
	assert.Equal(
		t,
		"Geburtstags-Kanal wurde auf <#kanal_geburtstage> gesetzt.",
		resp.Data.Content,
	)

	cfg, err := bot.GetOrCreateGuildConfig(ctx, ids.GuildID)
	require.NoError(t, err)
	assert.Equal(t, "kanal_geburtstage", cfg.BirthdayChannelID)

	t.Run("unknown channel type", func(t *testing.T) {
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandConfig,
			subCommandOption(
				"channel",
				stringCommandOption("typ", "voice"),
				channelCommandOption("kanal", "kanal_x"),
			),
		)
		require.NoError(t, bot.commandGuildConfig(ctx, i))
		resp := waitForPayload(t, rec.responses)
		assert.Equal(t, "Unbekannter Kanal-Typ.", resp.Data.Content)
	})

	t.Run("non-string channel value", func(t *testing.T) {
		// a malformed payload must not panic the handler
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandConfig,
			subCommandOption(
				"channel",
				stringCommandOption("typ", guildChannelTypeLog),
				&discordgo.ApplicationCommandInteractionDataOption{
					Type:  discordgo.ApplicationCommandOptionChannel,
					Name:  "kanal",
					Value: 12345.0,
				},
			),
		)
		require.NoError(t, bot.commandGuildConfig(ctx, i))
		resp := waitForPayload(t, rec.responses)
		assert.NotEmpty(t, resp.Data.Content)
	})
}

func TestCommandGuildConfigPictureOnlyToggle(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	i := newSlashCommandInteraction(
		ids, user, DiscordSlashCommandConfig,
		subCommandOption("pictureonly", channelCommandOption("kanal", "kanal_bilder")),
	)

	require.NoError(t, bot.commandGuildConfig(ctx, i))
	resp := waitForPayload(t, rec.responses)
	assert.Equal(t, "<#kanal_bilder> ist jetzt ein Nur-Bilder-Kanal.", resp.Data.Content)

	cfg, err := bot.GetOrCreateGuildConfig(ctx, ids.GuildID)
	require.NoError(t, err)
	assert.True(t, cfg.PictureOnlyChannels.Contains("kanal_bilder"))

	// toggling again removes the channel
	require.NoError(t, bot.commandGuildConfig(ctx, i))
	resp = waitForPayload(t, rec.responses)
	assert.Equal(t, "<#kanal_bilder> ist kein Nur-Bilder-Kanal mehr.", resp.Data.Content)

	cfg, err = bot.GetOrCreateGuildConfig(ctx, ids.GuildID)
	require.NoError(t, err)
	assert.False(t, cfg.PictureOnlyChannels.Contains("kanal_bilder"))
}
