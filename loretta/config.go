//nolint:lll // struct tags can't be split
package loretta

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
)

const (
	EnvvarSetEnvPrefix = "LORETTA_ENV_PREFIX"
	DefaultEnvPrefix   = "LORETTA"

	DefaultDatabaseType = "sqlite"
	DefaultDatabase     = "loretta.sqlite3"
	DefaultLogLevel     = slog.LevelInfo

	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 30 * time.Second

	DefaultDiscordGatewayIntent = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentGuildMembers |
		discordgo.IntentMessageContent
	DefaultDiscordLogLevel      = slog.LevelWarn
	DefaultDiscordgoLogLevel    = slog.LevelWarn
	DefaultDiscordErrorMessage  = "Da ist etwas schiefgelaufen!"
	DefaultDiscordPausedMessage = "Ich mache gerade Pause, versuch es später nochmal!"
	DefaultDiscordCustomStatus  = "mit Speichertimings"
	discordMaxMessageLength     = 2000
	discordMaxEmbedTitleLength  = 256

	DefaultAPIListen               = "127.0.0.1:5000"
	DefaultAPITLSMinVersion        = tls.VersionTLS12
	DefaultAPISessionMaxAge        = 6 * time.Hour
	DefaultAPILogLevel             = slog.LevelInfo
	DefaultAPICORSAllowCredentials = true
	defaultListenNetwork           = "tcp"

	DefaultDatabaseSlowThreshold = 200 * time.Millisecond
	DefaultDatabaseLogLevel      = slog.LevelInfo
	DefaultFeedLogLevel          = slog.LevelInfo
	DefaultBirthdayLogLevel      = slog.LevelInfo
	DefaultWeatherLogLevel       = slog.LevelInfo

	DefaultRuntimeConfigTTL = 5 * time.Minute
	DefaultGuildConfigTTL   = 5 * time.Minute

	// Shared limiter for outbound feed/weather requests
	DefaultHTTPRequestsPerSecond = 2
	DefaultHTTPTimeout           = 15 * time.Second
)

var (
	DefaultCORSAllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
		http.MethodHead,
	}
	DefaultCORSAllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-Requested-With",
		"Cache-Control",
		"X-CSRF-Token",
		xRequestIDHeader,
	}
	DefaultCORSExposeHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		xRequestIDHeader,
		"Location",
		"ETag",
		"Authorization",
		"Last-Modified",
	}
	DefaultCORSMaxAge = 12 * time.Hour
)

type Config struct {
	// Database connection string
	Database string `yaml:"database" mapstructure:"database" json:"database"`

	// DatabaseType specifies the type of database, either 'sqlite' or 'postgres'
	DatabaseType string `yaml:"database_type" mapstructure:"database_type" json:"database_type" binding:"oneof=sqlite postgres"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// API configures the backend admin API server
	API *APIConfig `yaml:"api" mapstructure:"api" json:"api"`

	// Discord configures aspects of the Discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// Feeds configures the RSS watchers
	Feeds *FeedConfig `yaml:"feeds" mapstructure:"feeds" json:"feeds"`

	// Weather configures the open-meteo client for the /wetter command
	Weather *WeatherConfig `yaml:"weather" mapstructure:"weather" json:"weather"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// initialize. If this is passed, the bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After this
	// elapses, the bot will force close all connections and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	// RuntimeConfigTTL sets the time-to-live for the RuntimeConfig cache.
	// By default, RuntimeConfig is loaded on start, and refreshed with each
	// update. When running multiple instances, though, the config may become
	// 'stale' if updated from another instance. If this TTL is set above 0,
	// the config will be refreshed from the database at least every TTL duration.
	// If using PostgreSQL, LISTEN/NOTIFY will be used to announce updates in
	// addition to this.
	RuntimeConfigTTL time.Duration `yaml:"runtime_config_ttl" mapstructure:"runtime_config_ttl" json:"runtime_config_ttl"`

	// GuildConfigTTL sets the time-to-live for the per-guild config cache
	GuildConfigTTL time.Duration `yaml:"guild_config_ttl" mapstructure:"guild_config_ttl" json:"guild_config_ttl"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord bot itself.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Discord application ID (from the 'General Information' tab in the discord dev portal)
	ApplicationID string `yaml:"application_id" mapstructure:"application_id" json:"application_id" binding:"required"`

	// GuildID of the single guild this bot serves. Slash commands are
	// registered against this guild only.
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id" binding:"required"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	// Custom status shown under the bot's name
	CustomStatus string `yaml:"custom_status" mapstructure:"custom_status" json:"custom_status"`

	httpClient *http.Client
}

// FeedConfig configures the RSS/software feed watchers.
//
//nolint:lll // can't break tags
type FeedConfig struct {
	// Disables the feed watcher entirely when false
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// NewsFeeds are polled and filtered against Keywords
	NewsFeeds []string `yaml:"news_feeds" mapstructure:"news_feeds" json:"news_feeds"`

	// SoftwareFeeds are polled and posted unfiltered
	SoftwareFeeds []string `yaml:"software_feeds" mapstructure:"software_feeds" json:"software_feeds"`

	// Keywords matched (word boundary, case-insensitive) against news entry titles
	Keywords []string `yaml:"keywords" mapstructure:"keywords" json:"keywords"`

	// LogLevel for the feed watcher
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// RequestsPerSecond limits outbound feed requests
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" json:"requests_per_second"`
}

// WeatherConfig configures the open-meteo API client.
//
//nolint:lll // can't break tags
type WeatherConfig struct {
	// GeocodingURL is the open-meteo geocoding search endpoint
	GeocodingURL string `yaml:"geocoding_url" mapstructure:"geocoding_url" json:"geocoding_url" binding:"required,url"`

	// ForecastURL is the open-meteo forecast endpoint
	ForecastURL string `yaml:"forecast_url" mapstructure:"forecast_url" json:"forecast_url" binding:"required,url"`

	// LogLevel for the weather client
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Timeout for each API call
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
}

// APIConfig configures the backend admin API server
//
//nolint:lll // can't break tags
type APIConfig struct {
	// Determines whether the admin API is served at all
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// The address and port on which the server should listen (e.g., "127.0.0.1:5000").
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen" binding:"required_if=Enabled true,hostname|filepath"`

	// The network type for listening (e.g., "tcp", "tcp4", "tcp6", "unix").
	ListenNetwork string `yaml:"listen_network" mapstructure:"listen_network" json:"listen_network" binding:"required_if=Enabled true,oneof=tcp tcp4 tcp6 unix"`

	// Secret used for signing cookies
	Secret string `yaml:"secret" mapstructure:"secret" json:"secret" log:"[redacted]"`

	// Configuration for SSL/TLS.
	SSL SSLConfig `yaml:"ssl" mapstructure:"ssl" json:"ssl"`

	// The logging level for the API server.
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Cross-origin configuration
	CORS CORSConfig `yaml:"cors" mapstructure:"cors" json:"cors"`

	// Maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" binding:"required_if=Enabled true,min=1s"`

	// Amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout" json:"read_header_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Max age for session cookies
	SessionMaxAge time.Duration `yaml:"session_max_age" mapstructure:"session_max_age" json:"session_max_age"  binding:"required_if=Enabled true,min=10m,max=24h"`

	// If true, the SameSite attribute of the session cookie will be set to 'None'
	Development bool `yaml:"development" mapstructure:"development" json:"development"`
}

// SSLConfig specifies cert paths and the TLS version to use
type SSLConfig struct {
	// Path to an SSL certificate
	Cert string `yaml:"cert" mapstructure:"cert" json:"cert"`

	// Path to an SSL cert key
	Key string `yaml:"key" mapstructure:"key" json:"key"`

	// Minimum TLS version
	TLSMinVersion uint16 `yaml:"tls_min_version" mapstructure:"tls_min_version" json:"tls_min_version"`
}

// CORSConfig specifies cross-origin resource sharing settings
type CORSConfig struct {
	AllowOrigins     []string      `yaml:"allow_origins" mapstructure:"allow_origins" json:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods" mapstructure:"allow_methods" json:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers" mapstructure:"allow_headers" json:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers" mapstructure:"expose_headers" json:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials" mapstructure:"allow_credentials" json:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age" mapstructure:"max_age" json:"max_age"`
}

func (c CORSConfig) GINConfig() cors.Config {
	return cors.Config{
		AllowOrigins:     c.AllowOrigins,
		AllowMethods:     c.AllowMethods,
		AllowHeaders:     c.AllowHeaders,
		MaxAge:           c.MaxAge,
		ExposeHeaders:    c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials,
	}
}

func DefaultCORSConfig() CORSConfig {
	defaultMethods := make([]string, len(DefaultCORSAllowMethods))
	copy(defaultMethods, DefaultCORSAllowMethods)

	defaultHeaders := make([]string, len(DefaultCORSAllowHeaders))
	copy(defaultHeaders, DefaultCORSAllowHeaders)

	defaultExpose := make([]string, len(DefaultCORSExposeHeaders))
	copy(defaultExpose, DefaultCORSExposeHeaders)

	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     defaultMethods,
		AllowHeaders:     defaultHeaders,
		ExposeHeaders:    defaultExpose,
		MaxAge:           DefaultCORSMaxAge,
		AllowCredentials: DefaultAPICORSAllowCredentials,
	}
}

// Default feeds for the hardware news watcher. These can be overridden
// entirely via config, this is just the out-of-the-box set.
var (
	DefaultNewsFeeds = []string{
		"https://www.pcgameshardware.de/rss/feed.cfm?menu_id=1",
		"https://www.computerbase.de/rss/news.xml",
		"https://www.hardwareluxx.de/index.php/news.feed",
	}
	DefaultSoftwareFeeds = []string{
		"https://www.computerbase.de/rss/downloads.xml",
	}
	DefaultFeedKeywords = []string{
		"Ryzen", "AMD", "Intel", "RAM", "DDR5", "DDR4",
		"Overclocking", "Übertakten", "Mainboard", "CPU", "GPU",
	}
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	dbLogLevel := &slog.LevelVar{}
	apiLogLevel := &slog.LevelVar{}
	feedLogLevel := &slog.LevelVar{}
	weatherLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	dbLogLevel.Set(DefaultDatabaseLogLevel)
	apiLogLevel.Set(DefaultAPILogLevel)
	feedLogLevel.Set(DefaultFeedLogLevel)
	weatherLogLevel.Set(DefaultWeatherLogLevel)

	newsFeeds := make([]string, len(DefaultNewsFeeds))
	copy(newsFeeds, DefaultNewsFeeds)
	softwareFeeds := make([]string, len(DefaultSoftwareFeeds))
	copy(softwareFeeds, DefaultSoftwareFeeds)
	keywords := make([]string, len(DefaultFeedKeywords))
	copy(keywords, DefaultFeedKeywords)

	return &Config{
		DatabaseType:          DefaultDatabaseType,
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		LogLevel:              mainLogLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		RuntimeConfigTTL:      DefaultRuntimeConfigTTL,
		GuildConfigTTL:        DefaultGuildConfigTTL,
		Discord: &DiscordConfig{
			GatewayIntents:    DefaultDiscordGatewayIntent,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
			CustomStatus:      DefaultDiscordCustomStatus,
		},
		Feeds: &FeedConfig{
			Enabled:           true,
			NewsFeeds:         newsFeeds,
			SoftwareFeeds:     softwareFeeds,
			Keywords:          keywords,
			LogLevel:          feedLogLevel,
			RequestsPerSecond: DefaultHTTPRequestsPerSecond,
		},
		Weather: &WeatherConfig{
			GeocodingURL: DefaultGeocodingURL,
			ForecastURL:  DefaultForecastURL,
			LogLevel:     weatherLogLevel,
			Timeout:      DefaultHTTPTimeout,
		},
		API: &APIConfig{
			Enabled:       true,
			Listen:        DefaultAPIListen,
			ListenNetwork: defaultListenNetwork,
			SSL: SSLConfig{
				TLSMinVersion: DefaultAPITLSMinVersion,
			},
			LogLevel:          apiLogLevel,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			SessionMaxAge:     DefaultAPISessionMaxAge,
			CORS:              DefaultCORSConfig(),
		},
	}
}
