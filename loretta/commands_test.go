package loretta

import (
	"context"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandModule(t *testing.T) {
	cases := map[string]string{
		DiscordSlashCommandPing:         commandModuleFun,
		DiscordSlashCommandRoll:         commandModuleFun,
		DiscordSlashCommandMagicBall:    commandModuleFun,
		DiscordSlashCommandHwbot:        commandModuleFun,
		DiscordSlashCommandScreenshot:   commandModuleFun,
		DiscordSlashCommandRandom:       commandModuleFun,
		DiscordSlashCommandBios:         commandModuleGuides,
		DiscordSlashCommandAnleitung:    commandModuleGuides,
		DiscordSlashCommandMainboard:    commandModuleGuides,
		DiscordSlashCommandServerInfo:   commandModuleInfo,
		DiscordSlashCommandBotInfo:      commandModuleInfo,
		DiscordSlashCommandStatistics:   commandModuleInfo,
		DiscordSlashCommandHelp:         commandModuleInfo,
		DiscordSlashCommandSpecs:        commandModuleSpecs,
		DiscordSlashCommandBirthday:     commandModuleBirthday,
		DiscordSlashCommandTimings:      commandModuleTimings,
		DiscordSlashCommandWeather:      commandModuleWeather,
		DiscordSlashCommandWeatherShort: commandModuleWeather,
		DiscordSlashCommandPurge:        commandModuleModeration,
		DiscordSlashCommandConfig:       commandModuleModeration,
		"mystery":                       "mystery",
	}
	for commandName, moduleName := range cases {
		assert.Equal(
			t,
			moduleName,
			commandModule(commandName),
			"command: %s", commandName,
		)
	}
}

func TestHandleSlashCommandRecordsStatistic(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandPing)
	bot.handleInteraction(context.Background(), i)

	resp := waitForPayload(t, rec.responses)
	require.NotNil(t, resp.Data)
	require.Len(t, resp.Data.Embeds, 1)
	assert.Equal(t, "Pong!", resp.Data.Embeds[0].Title)

	var stats []CommandStatistic
	require.NoError(t, bot.db.Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.Equal(t, DiscordSlashCommandPing, stats[0].CommandName)
	assert.Equal(t, commandModuleFun, stats[0].ModuleName)
	assert.Equal(t, user.ID, stats[0].UserID)
	assert.Equal(t, ids.GuildID, stats[0].GuildID)
	assert.True(t, stats[0].Success)
	assert.Empty(t, stats[0].ErrorMessage)
}

func TestHandleSlashCommandFailureRecordsError(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	i := newSlashCommandInteraction(ids, user, "doesnotexist")
	bot.handleInteraction(context.Background(), i)

	resp := waitForPayload(t, rec.responses)
	require.NotNil(t, resp.Data)
	assert.Equal(t, DefaultDiscordErrorMessage, resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	var stats []CommandStatistic
	require.NoError(t, bot.db.Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.False(t, stats[0].Success)
	assert.Contains(t, stats[0].ErrorMessage, "unknown command")
}

func TestHandleSlashCommandFailureAfterDeferEditsResponse(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	// geocoding backend is down, so /wetter fails after its deferred ack
	newWeatherTestServers(
		t, bot,
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		geocodeMiss,
	)

	i := newSlashCommandInteraction(
		ids, user, DiscordSlashCommandWeather,
		stringCommandOption("ort", "Hamburg"),
	)
	bot.handleInteraction(context.Background(), i)

	resp := waitForPayload(t, rec.responses)
	assert.Equal(
		t,
		discordgo.InteractionResponseDeferredChannelMessageWithSource,
		resp.Type,
	)

	// the error notice must edit the deferred response, a second
	// interaction response would be rejected by discord
	edit := waitForPayload(t, rec.edits)
	require.NotNil(t, edit.Content)
	assert.Equal(t, DefaultDiscordErrorMessage, *edit.Content)
	requireNoPayload(t, rec.responses)

	var stats []CommandStatistic
	require.NoError(t, bot.db.Find(&stats).Error)
	require.Len(t, stats, 1)
	assert.False(t, stats[0].Success)
}

func TestHandleSlashCommandPaused(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	bot.paused.Store(true)

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandPing)
	bot.handleInteraction(context.Background(), i)

	resp := waitForPayload(t, rec.responses)
	require.NotNil(t, resp.Data)
	assert.Equal(t, DefaultDiscordPausedMessage, resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	var count int64
	require.NoError(t, bot.db.Model(&CommandStatistic{}).Count(&count).Error)
	assert.Zero(t, count, "paused commands should not be recorded")
}

func TestHandleInteractionIgnoresBots(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	user.Bot = true

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandPing)
	bot.handleInteraction(context.Background(), i)

	requireNoPayload(t, rec.responses)
}

func TestHandleMessageComponentUnknownCustomID(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	i := newComponentInteraction(ids, user, "bogus:stuff")
	bot.handleInteraction(context.Background(), i)

	requireNoPayload(t, rec.responses)
}

func TestRespondTextFlags(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandPing)

	require.NoError(t, bot.respondText(i, "öffentlich", false))
	resp := waitForPayload(t, rec.responses)
	assert.Equal(t, "öffentlich", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlags(0), resp.Data.Flags)

	require.NoError(t, bot.respondText(i, "geheim", true))
	resp = waitForPayload(t, rec.responses)
	assert.Equal(t, "geheim", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestBotEmbedFooter(t *testing.T) {
	user := newDiscordUser(t)
	e := botEmbed("Titel", user)
	assert.Equal(t, "Titel", e.Title)
	assert.Equal(t, embedColorBlurple, e.Color)
	require.NotNil(t, e.Footer)
	assert.Equal(t, "Angefordert von "+user.Username, e.Footer.Text)

	noUser := botEmbed("Titel", nil)
	assert.Nil(t, noUser.Footer)

	errored := errorEmbed("Fehler", "kaputt", user)
	assert.Equal(t, embedColorRed, errored.Color)
	assert.Equal(t, "kaputt", errored.Description)
}
