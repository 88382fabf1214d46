package loretta

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// discordBulkDeleteMaxAge is the oldest a message may be for Discord's
// bulk delete endpoint to accept it.
const discordBulkDeleteMaxAge = 14 * 24 * time.Hour

// handleDiscordMessage enforces the picture-only channel rule. Messages
// without an image attachment are removed and the author is notified
// via DM. Administrators are exempt.
func (lo *Loretta) handleDiscordMessage(
	ctx context.Context,
	m *discordgo.MessageCreate,
) {
	lo.discord.metricMessagesSeen.Add(1)

	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	logger := lo.logger.With(messageLogAttrs(m)...)

	cfg, err := lo.GetOrCreateGuildConfig(ctx, m.GuildID)
	if err != nil {
		logger.Error("error loading guild config", tint.Err(err))
		return
	}
	if !cfg.PictureOnlyChannels.Contains(m.ChannelID) {
		return
	}
	if m.Member != nil && m.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return
	}
	if messageHasImage(m.Message) {
		return
	}

	if err = lo.discord.session.ChannelMessageDelete(
		m.ChannelID, m.ID,
	); err != nil {
		logger.Error("error deleting non-image message", tint.Err(err))
		return
	}
	logger.Info("removed non-image message from picture-only channel")

	notice := &discordgo.MessageEmbed{
		Title: "Nur Bilder erlaubt",
		Description: fmt.Sprintf(
			"Deine Nachricht in <#%s> wurde entfernt, "+
				"da in diesem Kanal nur Bilder erlaubt sind.",
			m.ChannelID,
		),
		Color:     embedColorRed,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err = lo.discord.directMessageSendEmbed(m.Author.ID, notice); err != nil {
		logger.Warn("error sending picture-only DM notice", tint.Err(err))
	}
}

func messageLogAttrs(m *discordgo.MessageCreate) []any {
	return []any{
		"guild_id", m.GuildID,
		"channel_id", m.ChannelID,
		"message_id", m.ID,
		"user_id", m.Author.ID,
	}
}

// messageHasImage reports whether the message carries at least one
// image attachment.
func messageHasImage(m *discordgo.Message) bool {
	for _, attachment := range m.Attachments {
		if attachment == nil {
			continue
		}
		if strings.HasPrefix(attachment.ContentType, "image/") {
			return true
		}
		if attachment.Width > 0 && attachment.Height > 0 {
			return true
		}
	}
	return false
}

// handleGuildMemberAdd posts a join embed to the guild's log channel.
func (lo *Loretta) handleGuildMemberAdd(
	ctx context.Context,
	m *discordgo.GuildMemberAdd,
) {
	if m.User == nil {
		return
	}
	embed := lo.memberLogEmbed(
		m.GuildID,
		m.User,
		"Mitglied beigetreten",
		fmt.Sprintf("<@%s> ist dem Server beigetreten", m.User.ID),
	)
	lo.sendMemberLog(ctx, m.GuildID, m.User.ID, embed)
}

// handleGuildMemberRemove posts a leave embed to the guild's log
// channel.
func (lo *Loretta) handleGuildMemberRemove(
	ctx context.Context,
	m *discordgo.GuildMemberRemove,
) {
	if m.User == nil {
		return
	}
	embed := lo.memberLogEmbed(
		m.GuildID,
		m.User,
		"Mitglied hat den Server verlassen",
		fmt.Sprintf("<@%s> hat den Server verlassen", m.User.ID),
	)
	lo.sendMemberLog(ctx, m.GuildID, m.User.ID, embed)
}

func (lo *Loretta) memberLogEmbed(
	guildID string,
	user *discordgo.User,
	title string,
	description string,
) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       embedColorBlurple,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Benutzername", Value: user.Username, Inline: true},
			{Name: "Benutzer-ID", Value: user.ID, Inline: true},
		},
	}

	if created, err := discordgo.SnowflakeTimestamp(user.ID); err == nil {
		embed.Fields = append(
			embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   "Account erstellt",
				Value:  fmt.Sprintf("<t:%d:f>", created.Unix()),
				Inline: true,
			},
		)
	}

	avatarURL := user.AvatarURL("256")
	if avatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatarURL}
	}

	if guild, err := lo.discord.session.GuildWithCounts(guildID); err == nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("%d Mitglieder", guild.ApproximateMemberCount),
			IconURL: avatarURL,
		}
	}
	return embed
}

func (lo *Loretta) sendMemberLog(
	ctx context.Context,
	guildID string,
	userID string,
	embed *discordgo.MessageEmbed,
) {
	logger := lo.logger.With("guild_id", guildID, "user_id", userID)

	cfg, err := lo.GetOrCreateGuildConfig(ctx, guildID)
	if err != nil {
		logger.Error("error loading guild config", tint.Err(err))
		return
	}
	if cfg.LogChannelID == "" {
		return
	}
	if err = lo.discord.channelMessageSendEmbed(
		cfg.LogChannelID, embed,
	); err != nil {
		logger.Error("error sending member log", tint.Err(err))
		return
	}
	logger.Info("member event logged", "title", embed.Title)
}

// commandPurge bulk-deletes the requested number of recent messages
// from the channel the command was invoked in.
func (lo *Loretta) commandPurge(
	_ context.Context,
	i *discordgo.InteractionCreate,
) error {
	opts := discordInteractionOptions(i)
	amountOpt, ok := opts["anzahl"]
	if !ok {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Ungültige Anzahl",
				"Bitte gib an, wie viele Nachrichten gelöscht werden sollen.",
				getDiscordUser(i),
			),
			true,
		)
	}
	amount := int(amountOpt.IntValue())

	purgeMax := lo.RuntimeConfig().PurgeMax
	if amount < 1 || amount > purgeMax {
		return lo.respondEmbed(
			i,
			errorEmbed(
				"Ungültige Anzahl",
				fmt.Sprintf(
					"Die Anzahl muss zwischen 1 und %d liegen.",
					purgeMax,
				),
				getDiscordUser(i),
			),
			true,
		)
	}

	if err := lo.deferResponse(i); err != nil {
		return err
	}

	messages, err := lo.discord.session.ChannelMessages(
		i.ChannelID, amount, "", "", "",
	)
	if err != nil {
		return fmt.Errorf("error listing channel messages: %w", err)
	}

	// Discord's bulk delete endpoint rejects messages older than two
	// weeks, skip those.
	cutoff := time.Now().Add(-discordBulkDeleteMaxAge)
	messageIDs := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || msg.Timestamp.Before(cutoff) {
			continue
		}
		messageIDs = append(messageIDs, msg.ID)
	}

	if len(messageIDs) == 0 {
		return lo.editResponseEmbed(
			i,
			errorEmbed(
				"Keine Nachrichten gelöscht",
				"Es wurden keine Nachrichten gefunden, die gelöscht werden können. "+
					"Nachrichten, die älter als 14 Tage sind, können nicht "+
					"gelöscht werden.",
				getDiscordUser(i),
			),
		)
	}

	switch len(messageIDs) {
	case 1:
		err = lo.discord.session.ChannelMessageDelete(
			i.ChannelID, messageIDs[0],
		)
	default:
		// the bulk delete endpoint takes at most 100 IDs per call
		for _, batch := range chunkItems(discordMaxBulkDeleteMessages, messageIDs...) {
			if err = lo.discord.session.ChannelMessagesBulkDelete(
				i.ChannelID, batch,
			); err != nil {
				break
			}
		}
	}
	if err != nil {
		return fmt.Errorf("error deleting messages: %w", err)
	}

	lo.logger.Info(
		"purged messages",
		"channel_id", i.ChannelID,
		"count", len(messageIDs),
		"user_id", getDiscordUser(i).ID,
	)

	embed := botEmbed("Nachrichten gelöscht", getDiscordUser(i))
	embed.Description = fmt.Sprintf(
		"%d Nachrichten wurden erfolgreich gelöscht.",
		len(messageIDs),
	)
	return lo.editResponseEmbed(i, embed)
}

// commandGuildConfig handles the /config command and its show, channel
// and pictureonly subcommands.
func (lo *Loretta) commandGuildConfig(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) error {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return lo.respondText(i, "Unbekannter Unterbefehl.", true)
	}
	sub := data.Options[0]

	switch sub.Name {
	case "show":
		return lo.guildConfigShow(ctx, i)
	case "channel":
		return lo.guildConfigSetChannel(ctx, i, sub)
	case "pictureonly":
		return lo.guildConfigTogglePictureOnly(ctx, i, sub)
	default:
		return lo.respondText(i, "Unbekannter Unterbefehl.", true)
	}
}

func formatChannelRef(channelID string) string {
	if channelID == "" {
		return "Nicht gesetzt"
	}
	return fmt.Sprintf("<#%s>", channelID)
}

func (lo *Loretta) guildConfigShow(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) error {
	cfg, err := lo.GetOrCreateGuildConfig(ctx, i.GuildID)
	if err != nil {
		return err
	}

	pictureOnly := "Keine"
	if len(cfg.PictureOnlyChannels) > 0 {
		refs := make([]string, 0, len(cfg.PictureOnlyChannels))
		for _, channelID := range cfg.PictureOnlyChannels {
			refs = append(refs, formatChannelRef(channelID))
		}
		pictureOnly = strings.Join(refs, ", ")
	}

	embed := botEmbed("Server-Konfiguration", getDiscordUser(i))
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   "Log-Kanal",
			Value:  formatChannelRef(cfg.LogChannelID),
			Inline: true,
		},
		{
			Name:   "News-Kanal",
			Value:  formatChannelRef(cfg.NewsChannelID),
			Inline: true,
		},
		{
			Name:   "Geburtstags-Kanal",
			Value:  formatChannelRef(cfg.BirthdayChannelID),
			Inline: true,
		},
		{
			Name:  "Nur-Bilder-Kanäle",
			Value: pictureOnly,
		},
	}
	return lo.respondEmbed(i, embed, true)
}

func (lo *Loretta) guildConfigSetChannel(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	opts := subcommandOptions(sub)

	channelType := ""
	if opt, ok := opts["typ"]; ok {
		channelType = opt.StringValue()
	}
	channelID := ""
	if opt, ok := opts["kanal"]; ok {
		channelID, _ = opt.Value.(string)
	}

	update := GuildConfigUpdate{}
	var label string
	switch channelType {
	case guildChannelTypeLog:
		update.LogChannelID = &channelID
		label = "Log-Kanal"
	case guildChannelTypeNews:
		update.NewsChannelID = &channelID
		label = "News-Kanal"
	case guildChannelTypeBirthday:
		update.BirthdayChannelID = &channelID
		label = "Geburtstags-Kanal"
	default:
		return lo.respondText(i, "Unbekannter Kanal-Typ.", true)
	}

	if _, err := lo.UpdateGuildConfig(ctx, i.GuildID, update); err != nil {
		return err
	}
	return lo.respondText(
		i,
		fmt.Sprintf(
			"%s wurde auf %s gesetzt.", label, formatChannelRef(channelID),
		),
		true,
	)
}

func (lo *Loretta) guildConfigTogglePictureOnly(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	opts := subcommandOptions(sub)
	opt, ok := opts["kanal"]
	if !ok {
		return lo.respondText(i, "Bitte gib einen Kanal an.", true)
	}
	channelID, _ := opt.Value.(string)
	if channelID == "" {
		return lo.respondText(i, "Bitte gib einen Kanal an.", true)
	}

	cfg, err := lo.GetOrCreateGuildConfig(ctx, i.GuildID)
	if err != nil {
		return err
	}

	channels := make(StringSlice, 0, len(cfg.PictureOnlyChannels)+1)
	removed := false
	for _, existing := range cfg.PictureOnlyChannels {
		if existing == channelID {
			removed = true
			continue
		}
		channels = append(channels, existing)
	}
	if !removed {
		channels = append(channels, channelID)
	}

	if _, err = lo.UpdateGuildConfig(
		ctx,
		i.GuildID,
		GuildConfigUpdate{PictureOnlyChannels: &channels},
	); err != nil {
		return err
	}

	if removed {
		return lo.respondText(
			i,
			fmt.Sprintf(
				"%s ist kein Nur-Bilder-Kanal mehr.",
				formatChannelRef(channelID),
			),
			true,
		)
	}
	return lo.respondText(
		i,
		fmt.Sprintf(
			"%s ist jetzt ein Nur-Bilder-Kanal.",
			formatChannelRef(channelID),
		),
		true,
	)
}
