package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stuoningur/loretta/loretta"
)

func assertLogLevel(t testing.TB, expected slog.Level, v any) {
	t.Helper()

	lvl, ok := v.(*slog.LevelVar)
	require.Truef(t, ok, "could not convert %#v (%T) to *slog.LevelVar", v, v)
	assert.Equal(t, expected, lvl.Level())
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	// Save the original environment
	originalEnv := os.Environ()
	t.Cleanup(
		func() {
			os.Clearenv()
			for _, envVar := range originalEnv {
				parts := strings.SplitN(envVar, "=", 2)
				os.Setenv(parts[0], parts[1])
			}
		},
	)

	// Clear the environment before the test
	os.Clearenv()

	tmpdir := t.TempDir()

	// Set up the test environment file
	envFile := filepath.Join(tmpdir, "test.env")

	envContent := `
# General/database config

LORETTA_DATABASE=/home/foo/loretta.sqlite3
LORETTA_DATABASE_TYPE=sqlite
LORETTA_DATABASE_LOG_LEVEL=INFO
LORETTA_DATABASE_SLOW_THRESHOLD=200ms
LORETTA_LOG_LEVEL=INFO
LORETTA_STARTUP_TIMEOUT=30s
LORETTA_SHUTDOWN_TIMEOUT=60s
LORETTA_RUNTIME_CONFIG_TTL=5m
LORETTA_GUILD_CONFIG_TTL=5m

# Discord bot config

LORETTA_DISCORD_TOKEN=your-discord-bot-token
LORETTA_DISCORD_APPLICATION_ID=your-discord-bot-app-id
LORETTA_DISCORD_GUILD_ID=1234567890
LORETTA_DISCORD_LOG_LEVEL=WARN
LORETTA_DISCORD_DISCORDGO_LOG_LEVEL=WARN
LORETTA_DISCORD_CUSTOM_STATUS="mit Speichertimings"
LORETTA_DISCORD_GATEWAY_INTENTS=3243773

# Feed watcher config

LORETTA_FEEDS_ENABLED=true
LORETTA_FEEDS_NEWS_FEEDS=https://example.com/news.xml https://example.org/rss
LORETTA_FEEDS_SOFTWARE_FEEDS=https://example.com/downloads.xml
LORETTA_FEEDS_KEYWORDS=Ryzen DDR5
LORETTA_FEEDS_LOG_LEVEL=INFO
LORETTA_FEEDS_REQUESTS_PER_SECOND=2

# Weather config

LORETTA_WEATHER_GEOCODING_URL=https://geocoding-api.open-meteo.com/v1/search
LORETTA_WEATHER_FORECAST_URL=https://api.open-meteo.com/v1/forecast
LORETTA_WEATHER_TIMEOUT=15s
LORETTA_WEATHER_LOG_LEVEL=INFO

# API server

LORETTA_API_ENABLED=true
LORETTA_API_LISTEN=127.0.0.1:5000
LORETTA_API_SSL_CERT=/etc/ssl/cert.pem
LORETTA_API_SSL_KEY=/etc/ssl/key.pem
LORETTA_API_SSL_TLS_MIN_VERSION=771
LORETTA_API_SECRET=your-api-secret
LORETTA_API_LOG_LEVEL=DEBUG
LORETTA_API_DEVELOPMENT=true
LORETTA_API_CORS_ALLOW_ORIGINS=https://127.0.0.1:5000 https://localhost:5000
LORETTA_API_CORS_ALLOW_METHODS=GET POST PUT PATCH DELETE OPTIONS HEAD
LORETTA_API_CORS_ALLOW_HEADERS=Origin Content-Length Content-Type Accept Authorization X-Requested-With Cache-Control X-CSRF-Token X-Request-ID
LORETTA_API_CORS_EXPOSE_HEADERS=Content-Type Content-Length Accept-Encoding X-Request-ID Location ETag Authorization Last-Modified
LORETTA_API_CORS_ALLOW_CREDENTIALS=true
LORETTA_API_CORS_MAX_AGE=12h
LORETTA_API_READ_TIMEOUT=5s
LORETTA_API_READ_HEADER_TIMEOUT=5s
LORETTA_API_WRITE_TIMEOUT=10s
LORETTA_API_IDLE_TIMEOUT=30s
LORETTA_API_SESSION_MAX_AGE=6h
`

	err := os.WriteFile(envFile, []byte(envContent), 0644)
	assert.NoError(t, err)

	rootCmd.SetArgs([]string{fmt.Sprintf("--config=%s", envFile), "version"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "/home/foo/loretta.sqlite3", cfg.Database)
	assert.Equal(t, "/home/foo/loretta.sqlite3", viper.GetString("database"))
	assert.Equal(t, "sqlite", viper.GetString("database_type"))

	assertLogLevel(t, slog.LevelInfo, viper.Get("database_log_level"))

	assert.Equal(t, 200*time.Millisecond, viper.GetDuration("database_slow_threshold"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("log_level"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("startup_timeout"))
	assert.Equal(t, 60*time.Second, viper.GetDuration("shutdown_timeout"))
	assert.Equal(t, 5*time.Minute, viper.GetDuration("runtime_config_ttl"))
	assert.Equal(t, 5*time.Minute, viper.GetDuration("guild_config_ttl"))

	assert.Equal(t, "your-discord-bot-token", viper.GetString("discord.token"))
	assert.Equal(t, "your-discord-bot-app-id", viper.GetString("discord.application_id"))
	assert.Equal(t, "1234567890", viper.GetString("discord.guild_id"))

	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.log_level"))

	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.discordgo_log_level"))
	assert.Equal(t, "mit Speichertimings", viper.GetString("discord.custom_status"))
	assert.Equal(t, 3243773, viper.GetInt("discord.gateway_intents"))

	assert.True(t, viper.GetBool("feeds.enabled"))
	assert.Equal(
		t,
		[]string{"https://example.com/news.xml", "https://example.org/rss"},
		viper.GetStringSlice("feeds.news_feeds"),
	)
	assert.Equal(
		t,
		[]string{"https://example.com/downloads.xml"},
		viper.GetStringSlice("feeds.software_feeds"),
	)
	assert.Equal(t, []string{"Ryzen", "DDR5"}, viper.GetStringSlice("feeds.keywords"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("feeds.log_level"))
	assert.Equal(t, float64(2), viper.GetFloat64("feeds.requests_per_second"))

	assert.Equal(
		t,
		"https://geocoding-api.open-meteo.com/v1/search",
		viper.GetString("weather.geocoding_url"),
	)
	assert.Equal(
		t,
		"https://api.open-meteo.com/v1/forecast",
		viper.GetString("weather.forecast_url"),
	)
	assert.Equal(t, 15*time.Second, viper.GetDuration("weather.timeout"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("weather.log_level"))

	assert.True(t, viper.GetBool("api.enabled"))
	assert.Equal(t, "127.0.0.1:5000", viper.GetString("api.listen"))
	assert.Equal(t, "/etc/ssl/cert.pem", viper.GetString("api.ssl.cert"))
	assert.Equal(t, "/etc/ssl/key.pem", viper.GetString("api.ssl.key"))
	assert.Equal(t, 771, viper.GetInt("api.ssl.tls_min_version"))
	assert.Equal(t, "your-api-secret", viper.GetString("api.secret"))
	assertLogLevel(t, slog.LevelDebug, viper.Get("api.log_level"))
	assert.Equal(t, slog.LevelDebug, cfg.API.LogLevel.Level())
	assert.True(t, viper.GetBool("api.development"))
	assert.Equal(
		t,
		[]string{"https://127.0.0.1:5000", "https://localhost:5000"},
		viper.GetStringSlice("api.cors.allow_origins"),
	)
	assert.Equal(
		t,
		[]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		viper.GetStringSlice("api.cors.allow_methods"),
	)
	assert.Equal(
		t,
		[]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		cfg.API.CORS.AllowMethods,
	)
	assert.Equal(
		t,
		[]string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"Cache-Control",
			"X-CSRF-Token",
			"X-Request-ID",
		},
		viper.GetStringSlice("api.cors.allow_headers"),
	)
	assert.Equal(
		t,
		[]string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"X-Request-ID",
			"Location",
			"ETag",
			"Authorization",
			"Last-Modified",
		},
		viper.GetStringSlice("api.cors.expose_headers"),
	)
	assert.True(t, viper.GetBool("api.cors.allow_credentials"))
	assert.Equal(t, 12*time.Hour, viper.GetDuration("api.cors.max_age"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("api.read_timeout"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("api.read_header_timeout"))
	assert.Equal(t, 10*time.Second, viper.GetDuration("api.write_timeout"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("api.idle_timeout"))
	assert.Equal(t, 6*time.Hour, viper.GetDuration("api.session_max_age"))

	var config loretta.Config
	err = viper.Unmarshal(
		&config, viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				LevelToStringHookFunc(),
			),
		),
	)
	assert.NoError(t, err)

	// Verify some key fields in the Config struct
	assert.Equal(t, "/home/foo/loretta.sqlite3", config.Database)
	assert.Equal(t, "sqlite", config.DatabaseType)
	assert.Equal(t, slog.LevelInfo, config.DatabaseLogLevel.Level())
	assert.Equal(t, 200*time.Millisecond, config.DatabaseSlowThreshold)
	assert.Equal(t, slog.LevelInfo, config.LogLevel.Level())
	assert.Equal(t, 30*time.Second, config.StartupTimeout)
	assert.Equal(t, 60*time.Second, config.ShutdownTimeout)

	assert.Equal(t, "your-discord-bot-token", config.Discord.Token)
	assert.Equal(t, "your-discord-bot-app-id", config.Discord.ApplicationID)
	assert.Equal(t, "1234567890", config.Discord.GuildID)
	assert.Equal(t, slog.LevelWarn, config.Discord.LogLevel.Level())
	assert.Equal(t, slog.LevelWarn, config.Discord.DiscordGoLogLevel.Level())
	assert.Equal(t, "mit Speichertimings", config.Discord.CustomStatus)
	assert.Equal(t, discordgo.Intent(3243773), config.Discord.GatewayIntents)

	assert.True(t, config.Feeds.Enabled)
	assert.Equal(
		t,
		[]string{"https://example.com/news.xml", "https://example.org/rss"},
		config.Feeds.NewsFeeds,
	)
	assert.Equal(t, []string{"Ryzen", "DDR5"}, config.Feeds.Keywords)
	assert.Equal(t, float64(2), config.Feeds.RequestsPerSecond)

	assert.Equal(
		t,
		"https://geocoding-api.open-meteo.com/v1/search",
		config.Weather.GeocodingURL,
	)
	assert.Equal(t, 15*time.Second, config.Weather.Timeout)

	assert.Equal(t, "127.0.0.1:5000", config.API.Listen)
	assert.Equal(t, "/etc/ssl/cert.pem", config.API.SSL.Cert)
	assert.Equal(t, "/etc/ssl/key.pem", config.API.SSL.Key)
	assert.Equal(t, uint16(771), config.API.SSL.TLSMinVersion)
	assert.Equal(t, "your-api-secret", config.API.Secret)
	assert.Equal(t, slog.LevelDebug, config.API.LogLevel.Level())
	assert.True(t, config.API.Development)
	assert.Equal(
		t,
		[]string{"https://127.0.0.1:5000", "https://localhost:5000"},
		config.API.CORS.AllowOrigins,
	)
	assert.Equal(
		t,
		[]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		config.API.CORS.AllowMethods,
	)
	assert.Equal(
		t,
		[]string{
			"Origin",
			"Content-Length",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"Cache-Control",
			"X-CSRF-Token",
			"X-Request-ID",
		},
		config.API.CORS.AllowHeaders,
	)
}
