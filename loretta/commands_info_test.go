package loretta

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandServerInfo(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	rec.guild = &discordgo.Guild{
		ID:                       "4712834213978112",
		Name:                     "Hardware-Community",
		OwnerID:                  "owner_" + t.Name(),
		ApproximateMemberCount:   1234,
		ApproximatePresenceCount: 99,
		PremiumSubscriptionCount: 7,
	}

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandServerInfo)
	require.NoError(t, bot.commandServerInfo(context.Background(), i))

	ack := waitForPayload(t, rec.responses)
	assert.Equal(
		t,
		discordgo.InteractionResponseDeferredChannelMessageWithSource,
		ack.Type,
	)

	edit := waitForPayload(t, rec.edits)
	require.NotNil(t, edit.Embeds)
	require.Len(t, *edit.Embeds, 1)
	embed := (*edit.Embeds)[0]
	assert.Equal(t, "Hardware-Community", embed.Title)
	require.Len(t, embed.Fields, 6)
	assert.Equal(t, "Server-ID", embed.Fields[0].Name)
	assert.Equal(t, rec.guild.ID, embed.Fields[0].Value)
	assert.Equal(t, "Mitglieder", embed.Fields[3].Name)
	assert.Equal(t, "1234", embed.Fields[3].Value)
	assert.Equal(t, "7", embed.Fields[5].Value)
}

func TestCommandUserInfo(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	rec.member = &discordgo.Member{
		GuildID:  ids.GuildID,
		User:     user,
		JoinedAt: time.Date(2023, time.May, 1, 12, 0, 0, 0, time.UTC),
		Roles:    []string{"rolle_oc", "rolle_mod"},
	}

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandUserInfo)
	require.NoError(t, bot.commandUserInfo(context.Background(), i))

	waitForPayload(t, rec.responses)
	edit := waitForPayload(t, rec.edits)
	require.NotNil(t, edit.Embeds)
	embed := (*edit.Embeds)[0]
	assert.Equal(t, user.GlobalName, embed.Title)
	require.GreaterOrEqual(t, len(embed.Fields), 3)
	assert.Equal(t, user.Username, embed.Fields[0].Value)
	assert.Equal(t, user.ID, embed.Fields[1].Value)

	var roleField *discordgo.MessageEmbedField
	for _, f := range embed.Fields {
		if f.Name == "Rollen" {
			roleField = f
		}
	}
	require.NotNil(t, roleField)
	assert.Contains(t, roleField.Value, "<@&rolle_oc>")
	assert.Contains(t, roleField.Value, "<@&rolle_mod>")
}

func TestCommandBotInfo(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandBotInfo)
	require.NoError(t, bot.commandBotInfo(context.Background(), i))

	resp := waitForPayload(t, rec.responses)
	require.Len(t, resp.Data.Embeds, 1)
	embed := resp.Data.Embeds[0]
	assert.Equal(t, "Loretta", embed.Title)
	require.Len(t, embed.Fields, 6)
	assert.Equal(t, "Version", embed.Fields[0].Name)
	assert.Equal(t, Version, embed.Fields[0].Value)
	assert.Equal(t, discordgo.VERSION, embed.Fields[4].Value)
}

func TestCommandStatistics(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	i := newSlashCommandInteraction(ids, user, DiscordSlashCommandStatistics)

	t.Run("empty", func(t *testing.T) {
		require.NoError(t, bot.commandStatistics(ctx, i))
		resp := waitForPayload(t, rec.responses)
		require.Len(t, resp.Data.Embeds, 1)
		embed := resp.Data.Embeds[0]
		assert.Equal(t, "Command-Statistiken", embed.Title)
		assert.Equal(t, "Noch keine Befehle ausgeführt.", embed.Description)
	})

	t.Run("populated", func(t *testing.T) {
		rows := []CommandStatistic{
			{CommandName: "ping", ModuleName: commandModuleFun, Success: true},
			{CommandName: "ping", ModuleName: commandModuleFun, Success: true},
			{CommandName: "wetter", ModuleName: commandModuleWeather, Success: false},
		}
		for n := range rows {
			require.NoError(t, bot.db.Create(&rows[n]).Error)
		}

		require.NoError(t, bot.commandStatistics(ctx, i))
		resp := waitForPayload(t, rec.responses)
		embed := resp.Data.Embeds[0]
		assert.Contains(t, embed.Description, "**Gesamt:** 3")
		assert.Contains(t, embed.Description, "**Erfolgreich:** 2")
		assert.Contains(t, embed.Description, "**Fehlgeschlagen:** 1")
		require.Len(t, embed.Fields, 1)
		assert.Equal(t, "Top Befehle", embed.Fields[0].Name)
		assert.Contains(t, embed.Fields[0].Value, "**/ping** - 2 (0 Fehler)")
		assert.Contains(t, embed.Fields[0].Value, "**/wetter** - 1 (1 Fehler)")
	})
}
