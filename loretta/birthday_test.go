package loretta

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBirthdaySet(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandBirthday,
			subCommandOption("set", stringCommandOption("datum", "24.12.")),
		)
		require.NoError(t, bot.commandBirthday(ctx, i))

		resp := waitForPayload(t, rec.responses)
		assert.Equal(
			t,
			"Dein Geburtstag wurde auf den 24.12. gesetzt!",
			resp.Data.Content,
		)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

		var b Birthday
		require.NoError(
			t,
			bot.db.Where("guild_id = ? AND user_id = ?", ids.GuildID, user.ID).
				Last(&b).Error,
		)
		assert.Equal(t, 24, b.BirthDay)
		assert.Equal(t, 12, b.BirthMonth)
	})

	t.Run("update keeps a single row", func(t *testing.T) {
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandBirthday,
			subCommandOption("set", stringCommandOption("datum", "1.4.")),
		)
		require.NoError(t, bot.commandBirthday(ctx, i))

		resp := waitForPayload(t, rec.responses)
		assert.Equal(
			t,
			"Dein Geburtstag wurde auf den 01.04. gesetzt!",
			resp.Data.Content,
		)

		var birthdays []Birthday
		require.NoError(
			t,
			bot.db.Where("guild_id = ? AND user_id = ?", ids.GuildID, user.ID).
				Find(&birthdays).Error,
		)
		require.Len(t, birthdays, 1)
		assert.Equal(t, 1, birthdays[0].BirthDay)
		assert.Equal(t, 4, birthdays[0].BirthMonth)
	})

	t.Run("invalid date", func(t *testing.T) {
		i := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandBirthday,
			subCommandOption("set", stringCommandOption("datum", "31.04.")),
		)
		require.NoError(t, bot.commandBirthday(ctx, i))

		resp := waitForPayload(t, rec.responses)
		require.Len(t, resp.Data.Embeds, 1)
		assert.Equal(t, "Ungültiges Datum", resp.Data.Embeds[0].Title)
	})
}

func TestBirthdayRemove(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	i := newSlashCommandInteraction(
		ids, user, DiscordSlashCommandBirthday, subCommandOption("remove"),
	)

	t.Run("nothing stored", func(t *testing.T) {
		require.NoError(t, bot.commandBirthday(ctx, i))
		resp := waitForPayload(t, rec.responses)
		assert.Equal(t, "Du hattest keinen Geburtstag eingetragen.", resp.Data.Content)
	})

	t.Run("removes stored birthday", func(t *testing.T) {
		require.NoError(
			t,
			bot.db.Create(
				&Birthday{
					GuildID:    ids.GuildID,
					UserID:     user.ID,
					BirthDay:   24,
					BirthMonth: 12,
				},
			).Error,
		)

		require.NoError(t, bot.commandBirthday(ctx, i))
		resp := waitForPayload(t, rec.responses)
		assert.Equal(t, "Dein Geburtstag wurde entfernt.", resp.Data.Content)

		var count int64
		require.NoError(t, bot.db.Model(&Birthday{}).Count(&count).Error)
		assert.Zero(t, count)

		// the row is gone entirely, not soft-deleted into the
		// guild/user unique index
		require.NoError(
			t,
			bot.db.Unscoped().Model(&Birthday{}).Count(&count).Error,
		)
		assert.Zero(t, count)
	})

	t.Run("setting again after removal works", func(t *testing.T) {
		set := newSlashCommandInteraction(
			ids, user, DiscordSlashCommandBirthday,
			subCommandOption("set", stringCommandOption("datum", "15.06.")),
		)
		require.NoError(t, bot.commandBirthday(ctx, set))

		resp := waitForPayload(t, rec.responses)
		assert.Equal(
			t,
			"Dein Geburtstag wurde auf den 15.06. gesetzt!",
			resp.Data.Content,
		)

		var b Birthday
		require.NoError(
			t,
			bot.db.Where("guild_id = ? AND user_id = ?", ids.GuildID, user.ID).
				Last(&b).Error,
		)
		assert.Equal(t, 15, b.BirthDay)
		assert.Equal(t, 6, b.BirthMonth)
	})
}

func TestBirthdayNext(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	user := newDiscordUser(t)
	ctx := context.Background()

	i := newSlashCommandInteraction(
		ids, user, DiscordSlashCommandBirthday, subCommandOption("next"),
	)

	t.Run("empty", func(t *testing.T) {
		require.NoError(t, bot.commandBirthday(ctx, i))
		resp := waitForPayload(t, rec.responses)
		require.Len(t, resp.Data.Embeds, 1)
		embed := resp.Data.Embeds[0]
		assert.Equal(t, "Nächste Geburtstage", embed.Title)
		assert.Equal(t, "Es sind noch keine Geburtstage eingetragen.", embed.Description)
	})

	t.Run("sorted upcoming, capped at five", func(t *testing.T) {
		loc, err := time.LoadLocation(birthdayTimezone)
		require.NoError(t, err)
		now := time.Now().In(loc)

		// seven birthdays, on the next seven days
		for n := 1; n <= 7; n++ {
			d := now.AddDate(0, 0, n)
			require.NoError(
				t,
				bot.db.Create(
					&Birthday{
						GuildID:    ids.GuildID,
						UserID:     fmt.Sprintf("member_%d", n),
						BirthDay:   d.Day(),
						BirthMonth: int(d.Month()),
					},
				).Error,
			)
		}

		require.NoError(t, bot.commandBirthday(ctx, i))
		resp := waitForPayload(t, rec.responses)
		require.Len(t, resp.Data.Embeds, 1)
		desc := resp.Data.Embeds[0].Description

		assert.Contains(t, desc, "<@member_1>")
		assert.Contains(t, desc, "<@member_5>")
		assert.NotContains(t, desc, "<@member_6>")

		// nearest birthday listed first
		assert.Less(
			t,
			strings.Index(desc, "<@member_1>"),
			strings.Index(desc, "<@member_2>"),
		)
	})
}

func TestBirthdayWorkerAnnounce(t *testing.T) {
	bot := newTestLoretta(t)
	rec := recordDiscordTraffic(t, bot)
	ids := newBotTestData(t)
	ctx := context.Background()

	loc, err := time.LoadLocation(birthdayTimezone)
	require.NoError(t, err)
	now := time.Now().In(loc)

	require.NoError(
		t,
		bot.db.Create(
			&Birthday{
				GuildID:    ids.GuildID,
				UserID:     "geburtstagskind",
				BirthDay:   now.Day(),
				BirthMonth: int(now.Month()),
			},
		).Error,
	)
	// someone else's birthday, not today
	other := now.AddDate(0, 0, 14)
	require.NoError(
		t,
		bot.db.Create(
			&Birthday{
				GuildID:    ids.GuildID,
				UserID:     "anderes_mitglied",
				BirthDay:   other.Day(),
				BirthMonth: int(other.Month()),
			},
		).Error,
	)

	t.Run("skips guilds without a channel", func(t *testing.T) {
		require.NoError(t, bot.birthdayWorker.announce(ctx, now))
		requireNoPayload(t, rec.messagesSent)
	})

	t.Run("announces into the configured channel", func(t *testing.T) {
		_, err := bot.UpdateGuildConfig(
			ctx,
			ids.GuildID,
			GuildConfigUpdate{BirthdayChannelID: &ids.ChannelID},
		)
		require.NoError(t, err)

		require.NoError(t, bot.birthdayWorker.announce(ctx, now))

		sent := waitForPayload(t, rec.messagesSent)
		assert.Equal(t, ids.ChannelID, sent.ChannelID)
		assert.Contains(t, sent.Content, "<@geburtstagskind>")
		assert.NotContains(t, sent.Content, "{user}")
		requireNoPayload(t, rec.messagesSent)
	})
}
