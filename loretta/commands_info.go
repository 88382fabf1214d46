package loretta

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (lo *Loretta) commandServerInfo(_ context.Context, i *discordgo.InteractionCreate) error {
	if err := lo.deferResponse(i); err != nil {
		return err
	}

	guild, err := lo.discord.session.GuildWithCounts(i.GuildID)
	if err != nil {
		return fmt.Errorf("error fetching guild: %w", err)
	}

	created, _ := discordgo.SnowflakeTimestamp(guild.ID)

	embed := botEmbed(guild.Name, getDiscordUser(i))
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Server-ID", Value: guild.ID, Inline: true},
		{
			Name:   "Erstellt",
			Value:  fmt.Sprintf("<t:%d:f>", created.Unix()),
			Inline: true,
		},
		{Name: "Besitzer", Value: fmt.Sprintf("<@%s>", guild.OwnerID), Inline: true},
		{
			Name:   "Mitglieder",
			Value:  fmt.Sprintf("%d", guild.ApproximateMemberCount),
			Inline: true,
		},
		{
			Name:   "Online",
			Value:  fmt.Sprintf("%d", guild.ApproximatePresenceCount),
			Inline: true,
		},
		{
			Name:   "Boosts",
			Value:  fmt.Sprintf("%d", guild.PremiumSubscriptionCount),
			Inline: true,
		},
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	return lo.editResponseEmbed(i, embed)
}

func (lo *Loretta) commandUserInfo(_ context.Context, i *discordgo.InteractionCreate) error {
	if err := lo.deferResponse(i); err != nil {
		return err
	}

	target := getDiscordUser(i)
	opts := discordInteractionOptions(i)
	if opt, ok := opts["benutzer"]; ok {
		target = opt.UserValue(nil)
		if target != nil && i.ApplicationCommandData().Resolved != nil {
			if resolved, found := i.ApplicationCommandData().Resolved.Users[target.ID]; found {
				target = resolved
			}
		}
	}
	if target == nil {
		return lo.editResponseText(i, "Benutzer nicht gefunden.")
	}

	created, _ := discordgo.SnowflakeTimestamp(target.ID)

	displayName := target.GlobalName
	if displayName == "" {
		displayName = target.Username
	}

	embed := botEmbed(displayName, getDiscordUser(i))
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("256")}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Benutzername", Value: target.Username, Inline: true},
		{Name: "Benutzer-ID", Value: target.ID, Inline: true},
		{
			Name:   "Account erstellt",
			Value:  fmt.Sprintf("<t:%d:f>", created.Unix()),
			Inline: true,
		},
	}

	member, err := lo.discord.session.GuildMember(i.GuildID, target.ID)
	if err == nil && member != nil {
		if !member.JoinedAt.IsZero() {
			embed.Fields = append(
				embed.Fields, &discordgo.MessageEmbedField{
					Name:   "Beigetreten",
					Value:  fmt.Sprintf("<t:%d:f>", member.JoinedAt.Unix()),
					Inline: true,
				},
			)
		}
		if len(member.Roles) > 0 {
			mentions := make([]string, 0, len(member.Roles))
			for _, roleID := range member.Roles {
				mentions = append(mentions, fmt.Sprintf("<@&%s>", roleID))
			}
			embed.Fields = append(
				embed.Fields, &discordgo.MessageEmbedField{
					Name:  "Rollen",
					Value: truncate(strings.Join(mentions, " "), 1024),
				},
			)
		}
	}
	return lo.editResponseEmbed(i, embed)
}

func (lo *Loretta) commandBotInfo(_ context.Context, i *discordgo.InteractionCreate) error {
	uptime := time.Since(lo.startedAt).Round(time.Second)

	embed := botEmbed("Loretta", getDiscordUser(i))
	embed.Description = "Discord Bot der deutschen Overclocking-Community"
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Version", Value: Version, Inline: true},
		{Name: "Commit", Value: CommitSHA, Inline: true},
		{Name: "Build", Value: BuildTime, Inline: true},
		{Name: "Go", Value: runtime.Version(), Inline: true},
		{Name: "discordgo", Value: discordgo.VERSION, Inline: true},
		{Name: "Uptime", Value: uptime.String(), Inline: true},
	}
	return lo.respondEmbed(i, embed, false)
}

func (lo *Loretta) commandStatistics(ctx context.Context, i *discordgo.InteractionCreate) error {
	counts, err := commandStatisticCounts(ctx, lo.db)
	if err != nil {
		return fmt.Errorf("error loading command statistics: %w", err)
	}

	embed := botEmbed("Command-Statistiken", getDiscordUser(i))
	if len(counts) == 0 {
		embed.Description = "Noch keine Befehle ausgeführt."
		return lo.respondEmbed(i, embed, false)
	}

	var total int64
	var errors int64
	var sb strings.Builder
	for n, c := range counts {
		total += c.Total
		errors += c.Errors
		if n < 10 {
			fmt.Fprintf(&sb, "**/%s** - %d (%d Fehler)\n", c.CommandName, c.Total, c.Errors)
		}
	}

	embed.Description = fmt.Sprintf(
		"**Gesamt:** %d\n**Erfolgreich:** %d\n**Fehlgeschlagen:** %d",
		total, total-errors, errors,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Top Befehle", Value: sb.String()},
	}
	return lo.respondEmbed(i, embed, false)
}
