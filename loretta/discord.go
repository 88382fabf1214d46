package loretta

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// discordMaxBulkDeleteMessages is the most messages the bulk delete
// endpoint accepts per call.
const discordMaxBulkDeleteMessages = 100

// Discord represents the bot's Discord integration.
//
// It manages the Discord session, handles gateway events, and provides
// methods for interacting with the Discord API.
type Discord struct {
	session                     DiscordSessionHandler
	config                      *DiscordConfig
	logger                      *slog.Logger
	metricConnects              atomic.Int64
	metricDisconnects           atomic.Int64
	metricMessagesSeen          atomic.Int64
	connected                   atomic.Bool
	discordgoRemoveHandlerFuncs []func()
	lo                          *Loretta
}

// newDiscord initializes a new Discord instance with the provided configuration
func newDiscord(config *DiscordConfig) (*Discord, error) {
	d := &Discord{
		config:                      config,
		discordgoRemoveHandlerFuncs: []func(){},
	}
	return d, nil
}

// newSession initializes a new Discord session for the Discord struct.
// It sets up the session with the appropriate logger, token, and configuration.
func (d *Discord) newSession() (DiscordSessionHandler, error) {
	session := DiscordSession{logger: d.logger.With(loggerNameKey, "discord_session_handler")}
	disc, err := discordgo.New("Bot " + d.config.Token)
	if err != nil {
		return session, fmt.Errorf("error creating discord session: %w", err)
	}
	disc.SyncEvents = true
	disc.StateEnabled = false
	session.session = disc
	if d.config.httpClient != nil {
		disc.Client = d.config.httpClient
	}

	err = session.SetLogLevel(d.config.DiscordGoLogLevel.Level())
	if err != nil {
		return session, err
	}

	return session, nil
}

// channelMessageSend sends the given message to the given discord channel ID
func (d *Discord) channelMessageSend(
	channelID string,
	message string,
	opts ...discordgo.RequestOption,
) error {
	_, err := d.session.ChannelMessageSend(channelID, message, opts...)
	return err
}

// channelMessageSendEmbed sends the given embed to the given discord channel ID
func (d *Discord) channelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	opts ...discordgo.RequestOption,
) error {
	_, err := d.session.ChannelMessageSendEmbed(channelID, embed, opts...)
	return err
}

// directMessageSend opens (or reuses) a DM channel with the given user
// and sends the message there.
func (d *Discord) directMessageSend(
	userID string,
	message string,
	opts ...discordgo.RequestOption,
) error {
	ch, err := d.session.UserChannelCreate(userID, opts...)
	if err != nil {
		return fmt.Errorf("error creating DM channel: %w", err)
	}
	_, err = d.session.ChannelMessageSend(ch.ID, message, opts...)
	return err
}

// directMessageSendEmbed opens (or reuses) a DM channel with the given
// user and sends the embed there.
func (d *Discord) directMessageSendEmbed(
	userID string,
	embed *discordgo.MessageEmbed,
	opts ...discordgo.RequestOption,
) error {
	ch, err := d.session.UserChannelCreate(userID, opts...)
	if err != nil {
		return fmt.Errorf("error creating DM channel: %w", err)
	}
	_, err = d.session.ChannelMessageSendEmbed(ch.ID, embed, opts...)
	return err
}

func (d *Discord) handlerReady() func(
	s *discordgo.Session,
	r *discordgo.Ready,
) {
	return func(s *discordgo.Session, _ *discordgo.Ready) {
		d.logger.Info(
			"Ready",
			"session_id", s.State.SessionID,
			"user_id", s.State.User.ID,
			"username", s.State.User.Username,
		)
	}
}

func (d *Discord) handlerConnect() func(
	s *discordgo.Session,
	r *discordgo.Connect,
) {
	return func(s *discordgo.Session, _ *discordgo.Connect) {
		d.metricConnects.Add(1)
		d.connected.Store(true)
		var sessionID string
		var userID string
		var username string

		if s != nil && s.State != nil {
			sessionID = s.State.SessionID
			if s.State.User != nil {
				userID = s.State.User.ID
				username = s.State.User.Username
			}
		}
		d.logger.Info(
			"Connected",
			"session_id", sessionID,
			slog.Group("user", "id", userID, "username", username),
		)
	}
}

func (d *Discord) handlerDisconnect() func(
	s *discordgo.Session,
	r *discordgo.Disconnect,
) {
	return func(s *discordgo.Session, _ *discordgo.Disconnect) {
		d.connected.Store(false)
		d.metricDisconnects.Add(1)

		var sessionID string
		var userID string
		var username string

		if s != nil && s.State != nil {
			sessionID = s.State.SessionID
			if s.State.User != nil {
				userID = s.State.User.ID
				username = s.State.User.Username
			}
		}
		d.logger.Info(
			"disconnected",
			"session_id", sessionID,
			slog.Group("user", "id", userID, "username", username),
		)
	}
}

func (d *Discord) updateCustomStatus(status string) error {
	return d.session.UpdateCustomStatus(status)
}

func (d *Discord) updateStatusComplex(data discordgo.UpdateStatusData) error {
	return d.session.UpdateStatusComplex(data)
}

// registerCommands sends the bot's commands to the discord bulk overwrite
// endpoint
func (d *Discord) registerCommands(
	runtimeConfig RuntimeConfig,
	options ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	commands := commandDefinitions(runtimeConfig)

	created, err := d.session.ApplicationCommandBulkOverwrite(
		d.config.ApplicationID,
		d.config.GuildID,
		commands,
		options...,
	)
	if err != nil {
		d.logger.Error("error overwriting discord commands", tint.Err(err))
		return created, err
	}
	if len(created) == 0 {
		d.logger.Warn("no commands to create")
		panic("no commands to create")
	}
	for _, c := range created {
		d.logger.Info("Created command", "command", c.Name)
	}

	return created, nil
}

func (d *Discord) ackResponse(commandName string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: d.ackResponseFlag(commandName),
		},
	}
}

// ackResponseFlag returns the appropriate discordgo.MessageFlags based on the given command.
func (*Discord) ackResponseFlag(command string) discordgo.MessageFlags {
	switch command {
	case DiscordSlashCommandPurge,
		DiscordSlashCommandConfig,
		DiscordSlashCommandBirthday:
		return discordgo.MessageFlagsEphemeral
	default:
		return 0
	}
}

// DiscordSessionHandler defines the interface for handling Discord sessions.
// This basically defines methods from `discordgo.Session` which are
// used in this application, to enable testing/mocking.
type DiscordSessionHandler interface {
	// Open creates a websocket connection to Discord
	Open() error

	// Close closes the websocket connection to Discord
	Close() error

	// ChannelMessageSend sends a message to a specified channel.
	ChannelMessageSend(
		channelID string,
		message string,
		opts ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// ChannelMessageSendEmbed sends an embed to a specified channel.
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		opts ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// ChannelMessageDelete deletes a single message from a channel
	ChannelMessageDelete(
		channelID string,
		messageID string,
		opts ...discordgo.RequestOption,
	) error

	// ChannelMessages returns up to limit messages from a channel,
	// newest first
	ChannelMessages(
		channelID string,
		limit int,
		beforeID string,
		afterID string,
		aroundID string,
		opts ...discordgo.RequestOption,
	) ([]*discordgo.Message, error)

	// ChannelMessagesBulkDelete deletes the given message IDs from a
	// channel in a single call
	ChannelMessagesBulkDelete(
		channelID string,
		messages []string,
		opts ...discordgo.RequestOption,
	) error

	// UserChannelCreate opens (or returns an existing) DM channel with
	// the given user
	UserChannelCreate(
		userID string,
		opts ...discordgo.RequestOption,
	) (*discordgo.Channel, error)

	// GuildWithCounts fetches a guild including approximate member and
	// presence counts
	GuildWithCounts(
		guildID string,
		opts ...discordgo.RequestOption,
	) (*discordgo.Guild, error)

	// GuildMember fetches a single guild member
	GuildMember(
		guildID string,
		userID string,
		opts ...discordgo.RequestOption,
	) (*discordgo.Member, error)

	// ApplicationCommandBulkOverwrite overwrites Discord application
	// commands in bulk.
	ApplicationCommandBulkOverwrite(
		appID string,
		guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)

	// UpdateCustomStatus sets the bot's user status to the given string.
	// If empty, sets the bot user to active and removes any existing
	// custom status.
	UpdateCustomStatus(status string) error

	// UpdateStatusComplex sends the given status update, untouched
	UpdateStatusComplex(data discordgo.UpdateStatusData) error

	// AddHandler adds a discord gateway event handler
	AddHandler(handler any) func()

	// InteractionRespond sends an interaction response to Discord
	InteractionRespond(
		interaction *discordgo.Interaction,
		resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption,
	) error

	// InteractionResponseEdit modifies the given interaction
	InteractionResponseEdit(
		interaction *discordgo.Interaction,
		newresp *discordgo.WebhookEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)

	// SetHTTPClient sets the HTTP client for the session
	SetHTTPClient(client *http.Client)

	// SetIdentify sets the identify object that's sent during the initial
	// handshake with the discord gateway
	SetIdentify(discordgo.Identify)

	// SetLogLevel modifies the session's log level
	SetLogLevel(lvl slog.Level) error

	GatewayBot(options ...discordgo.RequestOption) (st *discordgo.GatewayBotResponse, err error)
}

// DiscordSession implements DiscordSessionHandler, wrapping a
// [discordgo.Session](https://pkg.go.dev/github.com/bwmarrin/discordgo#Session)
type DiscordSession struct {
	session *discordgo.Session
	logger  *slog.Logger
}

func (d DiscordSession) GatewayBot(options ...discordgo.RequestOption) (
	st *discordgo.GatewayBotResponse,
	err error,
) {
	gb, err := d.session.GatewayBot(options...)
	if err != nil {
		d.logger.Error("error retrieving gateway bot", tint.Err(err))
	} else {
		d.logger.Info("retrieved gateway bot", "gateway_bot", structToSlogValue(gb))
	}
	return gb, err
}

func (d DiscordSession) SetLogLevel(lvl slog.Level) error {
	switch lvl.Level() {
	case slog.LevelInfo:
		d.session.LogLevel = discordgo.LogInformational
	case slog.LevelWarn:
		d.session.LogLevel = discordgo.LogWarning
	case slog.LevelDebug:
		d.session.LogLevel = discordgo.LogDebug
	case slog.LevelError:
		d.session.LogLevel = discordgo.LogError
	default:
		return fmt.Errorf("invalid log level: %s", lvl)
	}
	return nil
}

func (d DiscordSession) SetHTTPClient(client *http.Client) {
	d.session.Client = client
}

func (d DiscordSession) SetIdentify(i discordgo.Identify) {
	d.session.Identify = i
}

func (d DiscordSession) InteractionRespond(
	interaction *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	options ...discordgo.RequestOption,
) error {
	return d.session.InteractionRespond(interaction, resp, options...)
}

func (d DiscordSession) InteractionResponseEdit(
	interaction *discordgo.Interaction,
	newresp *discordgo.WebhookEdit,
	options ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.InteractionResponseEdit(interaction, newresp, options...)
}

func (d DiscordSession) AddHandler(handler any) func() {
	return d.session.AddHandler(handler)
}

func (d DiscordSession) Open() error {
	return d.session.Open()
}

func (d DiscordSession) Close() error {
	return d.session.Close()
}

func (d DiscordSession) ChannelMessageSend(
	channelID string,
	message string,
	opts ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSend(channelID, message, opts...)
}

func (d DiscordSession) ChannelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	opts ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return d.session.ChannelMessageSendEmbed(channelID, embed, opts...)
}

func (d DiscordSession) ChannelMessageDelete(
	channelID string,
	messageID string,
	opts ...discordgo.RequestOption,
) error {
	return d.session.ChannelMessageDelete(channelID, messageID, opts...)
}

func (d DiscordSession) ChannelMessages(
	channelID string,
	limit int,
	beforeID string,
	afterID string,
	aroundID string,
	opts ...discordgo.RequestOption,
) ([]*discordgo.Message, error) {
	return d.session.ChannelMessages(
		channelID, limit, beforeID, afterID, aroundID, opts...,
	)
}

func (d DiscordSession) ChannelMessagesBulkDelete(
	channelID string,
	messages []string,
	opts ...discordgo.RequestOption,
) error {
	return d.session.ChannelMessagesBulkDelete(channelID, messages, opts...)
}

func (d DiscordSession) UserChannelCreate(
	userID string,
	opts ...discordgo.RequestOption,
) (*discordgo.Channel, error) {
	ch, err := d.session.UserChannelCreate(userID, opts...)
	if err != nil {
		d.logger.Error("error creating DM channel", tint.Err(err), "user_id", userID)
	}
	return ch, err
}

func (d DiscordSession) GuildWithCounts(
	guildID string,
	opts ...discordgo.RequestOption,
) (*discordgo.Guild, error) {
	return d.session.GuildWithCounts(guildID, opts...)
}

func (d DiscordSession) GuildMember(
	guildID string,
	userID string,
	opts ...discordgo.RequestOption,
) (*discordgo.Member, error) {
	return d.session.GuildMember(guildID, userID, opts...)
}

func (d DiscordSession) ApplicationCommandBulkOverwrite(
	appID string,
	guildID string,
	commands []*discordgo.ApplicationCommand,
	options ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	created, err := d.session.ApplicationCommandBulkOverwrite(
		appID,
		guildID,
		commands,
		options...,
	)
	if err != nil {
		d.logger.Error("error overwriting discord commands", tint.Err(err))
		return created, err
	}
	for _, c := range created {
		d.logger.Info("Created command", "command", c.Name)
	}

	return created, nil
}

func (d DiscordSession) UpdateCustomStatus(
	status string,
) error {
	return d.session.UpdateCustomStatus(status)
}

func (d DiscordSession) UpdateStatusComplex(
	data discordgo.UpdateStatusData,
) error {
	return d.session.UpdateStatusComplex(data)
}

// getDiscordUser returns the [discordgo.User] associated with the interaction.
// Users don't always appear in the same place in the interaction object, so
// this checks known areas.
func getDiscordUser(i *discordgo.InteractionCreate) *discordgo.User {
	u := i.User
	if u == nil && i.Member != nil {
		u = i.Member.User
	}
	return u
}
