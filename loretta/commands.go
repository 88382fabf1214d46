package loretta

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// Slash command names, as registered with Discord.
const (
	DiscordSlashCommandPing         = "ping"
	DiscordSlashCommandRoll         = "roll"
	DiscordSlashCommandMagicBall    = "8ball"
	DiscordSlashCommandLeetspeak    = "leetspeak"
	DiscordSlashCommandSgehdn       = "sgehdn"
	DiscordSlashCommandSchmutz      = "schmutz"
	DiscordSlashCommandGif          = "gif"
	DiscordSlashCommandWhy          = "why"
	DiscordSlashCommandHwbot        = "hwbot"
	DiscordSlashCommandScreenshot   = "screenshot"
	DiscordSlashCommandRandom       = "random"
	DiscordSlashCommandBios         = "bios"
	DiscordSlashCommandCPU          = "cpu"
	DiscordSlashCommandCurve        = "curve"
	DiscordSlashCommandLimit        = "limit"
	DiscordSlashCommandListe        = "liste"
	DiscordSlashCommandAnleitung    = "anleitung"
	DiscordSlashCommandSPD          = "spd"
	DiscordSlashCommandRamkit       = "ramkit"
	DiscordSlashCommandMainboard    = "mainboard"
	DiscordSlashCommandHelp         = "help"
	DiscordSlashCommandServerInfo   = "serverinfo"
	DiscordSlashCommandUserInfo     = "userinfo"
	DiscordSlashCommandBotInfo      = "botinfo"
	DiscordSlashCommandStatistics   = "statistics"
	DiscordSlashCommandSpecs        = "specs"
	DiscordSlashCommandBirthday     = "birthday"
	DiscordSlashCommandTimings      = "timings"
	DiscordSlashCommandWeather      = "wetter"
	DiscordSlashCommandWeatherShort = "weathershort"
	DiscordSlashCommandPurge        = "purge"
	DiscordSlashCommandConfig       = "config"
)

// Module names recorded in [CommandStatistic].
const (
	commandModuleFun        = "fun"
	commandModuleGuides     = "guides"
	commandModuleInfo       = "info"
	commandModuleSpecs      = "specs"
	commandModuleBirthday   = "birthday"
	commandModuleTimings    = "timings"
	commandModuleWeather    = "weather"
	commandModuleModeration = "moderation"
)

// Embed colors (discord 'blurple' and the error red).
const (
	embedColorBlurple = 0x5865F2
	embedColorRed     = 0xED4245
)

// commandDefinitions returns the full guild slash command set, sent to
// the bulk overwrite endpoint on startup.
func commandDefinitions(config RuntimeConfig) []*discordgo.ApplicationCommand {
	minOne := 1.0
	rollMax := float64(rollMaxLimit)
	purgeMax := float64(config.PurgeMax)
	if purgeMax <= 0 {
		purgeMax = DefaultPurgeMax
	}
	manageMessages := int64(discordgo.PermissionManageMessages)
	administrator := int64(discordgo.PermissionAdministrator)

	timingGenerations := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Zen 1", Value: "zen1"},
		{Name: "Zen 2", Value: "zen2"},
		{Name: "Zen 3", Value: "zen3"},
		{Name: "Zen 4", Value: "zen4"},
		{Name: "Zen 5", Value: "zen5"},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        DiscordSlashCommandPing,
			Description: "Zeigt die Latenz des Bots an",
		},
		{
			Name:        DiscordSlashCommandRoll,
			Description: "Würfelt eine Zufallszahl (Standard: 1-100)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "maximum",
					Description: "Obergrenze für den Wurf",
					MinValue:    &minOne,
					MaxValue:    rollMax,
				},
			},
		},
		{
			Name:        DiscordSlashCommandMagicBall,
			Description: "Gibt eine Magic 8 Ball Antwort auf eine Frage",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "frage",
					Description: "Die Frage an die Magic 8 Ball",
					Required:    true,
				},
			},
		},
		{
			Name:        DiscordSlashCommandLeetspeak,
			Description: "Konvertiert Text zu Leet Speak (1337 sp34k)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Der zu konvertierende Text",
					Required:    true,
				},
			},
		},
		{
			Name:        DiscordSlashCommandSgehdn,
			Description: "Sendet ein Sgehdn GIF",
		},
		{
			Name:        DiscordSlashCommandSchmutz,
			Description: "Sendet ein Schmutz GIF",
		},
		{
			Name:        DiscordSlashCommandGif,
			Description: "Sucht ein GIF für den Suchbegriff",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "suchbegriff",
					Description: "Wonach gesucht werden soll",
					Required:    true,
				},
			},
		},
		{
			Name:        DiscordSlashCommandWhy,
			Description: "Erklärt den Namen des Bots",
		},
		{
			Name:        DiscordSlashCommandHwbot,
			Description: "HWBOT Team CUP Informationen",
		},
		{
			Name:        DiscordSlashCommandScreenshot,
			Description: "Sendet ein Screenshot-Hilfe GIF",
		},
		{
			Name:        DiscordSlashCommandRandom,
			Description: "Macht Text zufällig groß und klein",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "Der zu randomisierende Text",
					Required:    true,
				},
			},
		},
		{
			Name:        DiscordSlashCommandBios,
			Description: "Link zu der besten AM4 und AM5 BIOS Übersicht",
		},
		{
			Name:        DiscordSlashCommandCPU,
			Description: "Link zu dem Community CPU und BIOS Guide",
		},
		{
			Name:        DiscordSlashCommandCurve,
			Description: "Link zu dem Community Curve Optimizer Guide",
		},
		{
			Name:        DiscordSlashCommandLimit,
			Description: "Link zum Hardwareluxx RAM OC und Limit Thread",
		},
		{
			Name:        DiscordSlashCommandListe,
			Description: "Link zum OC Ergebnisse Google Sheet",
		},
		{
			Name:        DiscordSlashCommandAnleitung,
			Description: "Link zu der RAM OC Anleitung",
		},
		{
			Name:        DiscordSlashCommandSPD,
			Description: "Link zur Hardwareluxx SPD Datenbank",
		},
		{
			Name:        DiscordSlashCommandRamkit,
			Description: "Link zum Computerbase RAM-Empfehlungen Artikel",
		},
		{
			Name:        DiscordSlashCommandMainboard,
			Description: "Link zum Hardwareluxx AM4 VRM Thread",
		},
		{
			Name:        DiscordSlashCommandHelp,
			Description: "Zeigt alle verfügbaren Bot-Befehle an",
		},
		{
			Name:        DiscordSlashCommandServerInfo,
			Description: "Zeigt Informationen über den Server an",
		},
		{
			Name:        DiscordSlashCommandUserInfo,
			Description: "Zeigt Informationen über einen Benutzer an",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "benutzer",
					Description: "Der Benutzer (Standard: du selbst)",
				},
			},
		},
		{
			Name:        DiscordSlashCommandBotInfo,
			Description: "Zeigt Informationen über den Bot an",
		},
		{
			Name:        DiscordSlashCommandStatistics,
			Description: "Zeigt Command-Statistiken an",
		},
		{
			Name:        DiscordSlashCommandSpecs,
			Description: "Hardware-Spezifikationen verwalten und anzeigen",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Speichert deine Hardware-Spezifikationen",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "text",
							Description: "Deine Hardware-Spezifikationen",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Zeigt die Spezifikationen eines Benutzers an",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "benutzer",
							Description: "Der Benutzer (Standard: du selbst)",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "search",
					Description: "Durchsucht die Spezifikationen aller Benutzer",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "begriff",
							Description: "Der Suchbegriff",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        DiscordSlashCommandBirthday,
			Description: "Geburtstag verwalten",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Speichert deinen Geburtstag",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "datum",
							Description: "Format: DD.MM. (z.B. 25.12.)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Entfernt deinen Geburtstag",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "next",
					Description: "Zeigt die nächsten Geburtstage an",
				},
			},
		},
		{
			Name:        DiscordSlashCommandTimings,
			Description: "Zeigt Memory-Timing-Presets für eine CPU-Generation an",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "generation",
					Description: "Die CPU-Generation",
					Required:    true,
					Choices:     timingGenerations,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Name des Presets (Standard: alle)",
				},
			},
		},
		{
			Name:        DiscordSlashCommandWeather,
			Description: "Zeigt aktuelle Wetterdaten für einen Ort an",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ort",
					Description: "Der Ort",
					Required:    true,
				},
			},
		},
		{
			Name:        DiscordSlashCommandWeatherShort,
			Description: "Zeigt kurze Wetterinformationen für einen Ort an",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ort",
					Description: "Der Ort",
					Required:    true,
				},
			},
		},
		{
			Name:                     DiscordSlashCommandPurge,
			Description:              "Löscht eine bestimmte Anzahl von Nachrichten aus dem aktuellen Kanal",
			DefaultMemberPermissions: &manageMessages,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "anzahl",
					Description: "Anzahl der zu löschenden Nachrichten",
					Required:    true,
					MinValue:    &minOne,
					MaxValue:    purgeMax,
				},
			},
		},
		{
			Name:                     DiscordSlashCommandConfig,
			Description:              "Server-Konfiguration anzeigen und ändern",
			DefaultMemberPermissions: &administrator,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Zeigt die aktuelle Konfiguration an",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "channel",
					Description: "Setzt einen Konfigurations-Kanal",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "typ",
							Description: "Welcher Kanal gesetzt werden soll",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Log", Value: guildChannelTypeLog},
								{Name: "News", Value: guildChannelTypeNews},
								{Name: "Geburtstage", Value: guildChannelTypeBirthday},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "kanal",
							Description: "Der Kanal",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pictureonly",
					Description: "Schaltet einen Nur-Bild-Kanal um",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "kanal",
							Description: "Der Kanal",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

// commandModule maps a slash command name to the module name recorded
// in its [CommandStatistic] rows.
func commandModule(commandName string) string {
	switch commandName {
	case DiscordSlashCommandPing,
		DiscordSlashCommandRoll,
		DiscordSlashCommandMagicBall,
		DiscordSlashCommandLeetspeak,
		DiscordSlashCommandSgehdn,
		DiscordSlashCommandSchmutz,
		DiscordSlashCommandGif,
		DiscordSlashCommandWhy,
		DiscordSlashCommandHwbot,
		DiscordSlashCommandScreenshot,
		DiscordSlashCommandRandom:
		return commandModuleFun
	case DiscordSlashCommandBios,
		DiscordSlashCommandCPU,
		DiscordSlashCommandCurve,
		DiscordSlashCommandLimit,
		DiscordSlashCommandListe,
		DiscordSlashCommandAnleitung,
		DiscordSlashCommandSPD,
		DiscordSlashCommandRamkit,
		DiscordSlashCommandMainboard:
		return commandModuleGuides
	case DiscordSlashCommandServerInfo,
		DiscordSlashCommandUserInfo,
		DiscordSlashCommandBotInfo,
		DiscordSlashCommandStatistics,
		DiscordSlashCommandHelp:
		return commandModuleInfo
	case DiscordSlashCommandSpecs:
		return commandModuleSpecs
	case DiscordSlashCommandBirthday:
		return commandModuleBirthday
	case DiscordSlashCommandTimings:
		return commandModuleTimings
	case DiscordSlashCommandWeather, DiscordSlashCommandWeatherShort:
		return commandModuleWeather
	case DiscordSlashCommandPurge, DiscordSlashCommandConfig:
		return commandModuleModeration
	default:
		return commandName
	}
}

// handleInteraction processes incoming Discord interactions: pings,
// message components (search pagination buttons) and the slash
// commands themselves.
func (lo *Loretta) handleInteraction(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	defer func() {
		lo.handleRecover(ctx, recover())
	}()

	logger := lo.discord.logger
	discordUser := getDiscordUser(i)
	if discordUser == nil {
		logger.ErrorContext(
			ctx,
			"no user found in interaction",
			"interaction", structToSlogValue(i),
		)
		return
	}

	logger = logger.With(slog.Group("interaction", interactionLogAttrs(*i)...))
	ctx = WithLogger(ctx, logger)
	logger.InfoContext(ctx, "received new interaction", "user", structToSlogValue(discordUser))

	if discordUser.Bot {
		logger.WarnContext(ctx, "user is bot, ignoring")
		return
	}

	switch i.Type {
	case discordgo.InteractionPing:
		_ = lo.discord.session.InteractionRespond(
			i.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponsePong,
			},
		)
	case discordgo.InteractionMessageComponent:
		lo.handleMessageComponent(ctx, i)
	case discordgo.InteractionApplicationCommand:
		lo.handleSlashCommand(ctx, i, discordUser)
	}
}

func (lo *Loretta) handleSlashCommand(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	discordUser *discordgo.User,
) {
	_, logger := lo.getLogger(ctx)
	commandName := i.ApplicationCommandData().Name

	if lo.paused.Load() {
		logger.InfoContext(ctx, "bot paused, rejecting command", "command_name", commandName)
		if err := lo.respondText(i, DefaultDiscordPausedMessage, true); err != nil {
			logger.ErrorContext(ctx, "error sending paused notice", tint.Err(err))
		}
		return
	}

	lo.commandsInProgress.Add(1)
	defer lo.commandsInProgress.Add(-1)

	started := time.Now()
	cmdErr := lo.runSlashCommand(ctx, i)
	_, wasDeferred := lo.deferredInteractions.LoadAndDelete(i.ID)

	stat := CommandStatistic{
		CommandName: commandName,
		ModuleName:  commandModule(commandName),
		UserID:      discordUser.ID,
		GuildID:     i.GuildID,
		Success:     cmdErr == nil,
		DurationMS:  time.Since(started).Milliseconds(),
	}
	if cmdErr != nil {
		stat.ErrorMessage = cmdErr.Error()
		logger.ErrorContext(
			ctx,
			"command failed",
			tint.Err(cmdErr),
			"command_name", commandName,
		)
		var respErr error
		if wasDeferred {
			// the interaction is already acknowledged, a second
			// response would be rejected
			respErr = lo.editResponseText(i, lo.RuntimeConfig().DiscordErrorMessage)
		} else {
			respErr = lo.respondText(i, lo.RuntimeConfig().DiscordErrorMessage, true)
		}
		if respErr != nil {
			logger.DebugContext(ctx, "error sending error notice", tint.Err(respErr))
		}
	}

	if _, err := lo.writeDB.Create(ctx, &stat); err != nil {
		logger.ErrorContext(ctx, "error saving command statistic", tint.Err(err))
	}
}

func (lo *Loretta) runSlashCommand(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) error {
	switch i.ApplicationCommandData().Name {
	case DiscordSlashCommandPing:
		return lo.commandPing(ctx, i)
	case DiscordSlashCommandRoll:
		return lo.commandRoll(ctx, i)
	case DiscordSlashCommandMagicBall:
		return lo.commandMagicBall(ctx, i)
	case DiscordSlashCommandLeetspeak:
		return lo.commandLeetspeak(ctx, i)
	case DiscordSlashCommandSgehdn:
		return lo.commandSgehdn(ctx, i)
	case DiscordSlashCommandSchmutz:
		return lo.commandSchmutz(ctx, i)
	case DiscordSlashCommandGif:
		return lo.commandGif(ctx, i)
	case DiscordSlashCommandWhy:
		return lo.commandWhy(ctx, i)
	case DiscordSlashCommandHwbot:
		return lo.commandHwbot(ctx, i)
	case DiscordSlashCommandScreenshot:
		return lo.commandScreenshot(ctx, i)
	case DiscordSlashCommandRandom:
		return lo.commandRandom(ctx, i)
	case DiscordSlashCommandBios,
		DiscordSlashCommandCPU,
		DiscordSlashCommandCurve,
		DiscordSlashCommandLimit,
		DiscordSlashCommandListe,
		DiscordSlashCommandAnleitung,
		DiscordSlashCommandSPD,
		DiscordSlashCommandRamkit,
		DiscordSlashCommandMainboard:
		return lo.commandGuide(ctx, i)
	case DiscordSlashCommandHelp:
		return lo.commandHelp(ctx, i)
	case DiscordSlashCommandServerInfo:
		return lo.commandServerInfo(ctx, i)
	case DiscordSlashCommandUserInfo:
		return lo.commandUserInfo(ctx, i)
	case DiscordSlashCommandBotInfo:
		return lo.commandBotInfo(ctx, i)
	case DiscordSlashCommandStatistics:
		return lo.commandStatistics(ctx, i)
	case DiscordSlashCommandSpecs:
		return lo.commandSpecs(ctx, i)
	case DiscordSlashCommandBirthday:
		return lo.commandBirthday(ctx, i)
	case DiscordSlashCommandTimings:
		return lo.commandTimings(ctx, i)
	case DiscordSlashCommandWeather:
		return lo.commandWeather(ctx, i)
	case DiscordSlashCommandWeatherShort:
		return lo.commandWeatherShort(ctx, i)
	case DiscordSlashCommandPurge:
		return lo.commandPurge(ctx, i)
	case DiscordSlashCommandConfig:
		return lo.commandGuildConfig(ctx, i)
	default:
		return fmt.Errorf("unknown command: %s", i.ApplicationCommandData().Name)
	}
}

func (lo *Loretta) handleMessageComponent(
	ctx context.Context,
	i *discordgo.InteractionCreate,
) {
	_, logger := lo.getLogger(ctx)
	customID := i.MessageComponentData().CustomID

	page, searchTerm, ok := parseSpecsSearchCustomID(customID)
	if !ok {
		logger.WarnContext(ctx, "unknown component", "custom_id", customID)
		return
	}
	if err := lo.handleSpecsSearchPage(ctx, i, searchTerm, page); err != nil {
		logger.ErrorContext(ctx, "error handling search pagination", tint.Err(err))
	}
}

// respondText sends a plain text interaction response.
func (lo *Loretta) respondText(
	i *discordgo.InteractionCreate,
	content string,
	ephemeral bool,
) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return lo.discord.session.InteractionRespond(
		i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		},
	)
}

// respondEmbed sends an embed interaction response.
func (lo *Loretta) respondEmbed(
	i *discordgo.InteractionCreate,
	embed *discordgo.MessageEmbed,
	ephemeral bool,
) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return lo.discord.session.InteractionRespond(
		i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		},
	)
}

// deferResponse acknowledges the interaction so a slower command can
// edit in its result within the interaction token lifespan.
func (lo *Loretta) deferResponse(i *discordgo.InteractionCreate) error {
	err := lo.discord.session.InteractionRespond(
		i.Interaction,
		lo.discord.ackResponse(i.ApplicationCommandData().Name),
	)
	if err == nil {
		lo.deferredInteractions.Store(i.ID, struct{}{})
	}
	return err
}

// editResponseEmbed replaces a deferred response with an embed.
func (lo *Loretta) editResponseEmbed(
	i *discordgo.InteractionCreate,
	embed *discordgo.MessageEmbed,
) error {
	_, err := lo.discord.session.InteractionResponseEdit(
		i.Interaction, &discordgo.WebhookEdit{
			Embeds: &[]*discordgo.MessageEmbed{embed},
		},
	)
	return err
}

// editResponseText replaces a deferred response with plain text.
func (lo *Loretta) editResponseText(
	i *discordgo.InteractionCreate,
	content string,
) error {
	_, err := lo.discord.session.InteractionResponseEdit(
		i.Interaction, &discordgo.WebhookEdit{Content: &content},
	)
	return err
}

// botEmbed returns an embed in the bot's house style: blurple,
// timestamped, with an "Angefordert von" footer.
func botEmbed(title string, requester *discordgo.User) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:     title,
		Color:     embedColorBlurple,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if requester != nil {
		e.Footer = &discordgo.MessageEmbedFooter{
			Text:    "Angefordert von " + requester.Username,
			IconURL: requester.AvatarURL(""),
		}
	}
	return e
}

// errorEmbed returns a red error embed with a German description.
func errorEmbed(title string, description string, requester *discordgo.User) *discordgo.MessageEmbed {
	e := botEmbed(title, requester)
	e.Color = embedColorRed
	e.Description = description
	return e
}
