package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stuoningur/loretta/loretta"
)

var (
	cfg        = loretta.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use: "loretta [flags]",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := viper.Unmarshal(
			cfg,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					LevelToStringHookFunc(),
				),
			),
		)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func getLogLevel(level string) (slog.Level, error) {
	switch level {
	case slog.LevelDebug.String():
		return slog.LevelDebug, nil
	case slog.LevelInfo.String():
		return slog.LevelInfo, nil
	case slog.LevelWarn.String():
		return slog.LevelWarn, nil
	case slog.LevelError.String():
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func LevelToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any,
	) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Ptr {
			return data, nil
		}

		typ := t.Elem()

		if typ != reflect.TypeOf(slog.LevelVar{}) {
			return data, nil
		}
		lvl, err := getLogLevel(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", data)
		}
		lvlVar := &slog.LevelVar{}
		lvlVar.Set(lvl)
		return lvlVar, nil
	}
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			//
		}
	}()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFile == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	} else {
		fmt.Println("loading env from file", configFile)
		if err := godotenv.Load(configFile); err != nil {
			log.Println("No .env file found")
		}
	}

	viper.SetDefault("database", loretta.DefaultDatabase)
	viper.SetDefault("database_type", loretta.DefaultDatabaseType)
	viper.SetDefault(
		"database_slow_threshold",
		loretta.DefaultDatabaseSlowThreshold,
	)
	viper.SetDefault(
		"database_log_level",
		loretta.DefaultDatabaseLogLevel.String(),
	)

	viper.SetDefault("runtime_config_ttl", loretta.DefaultRuntimeConfigTTL)
	viper.SetDefault("guild_config_ttl", loretta.DefaultGuildConfigTTL)

	viper.SetDefault("log_level", loretta.DefaultLogLevel.String())

	viper.SetDefault("startup_timeout", loretta.DefaultStartupTimeout)
	viper.SetDefault("shutdown_timeout", loretta.DefaultShutdownTimeout)

	// Discord config
	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.application_id", "")
	viper.SetDefault("discord.guild_id", "")
	viper.SetDefault(
		"discord.log_level",
		loretta.DefaultDiscordLogLevel.String(),
	)
	viper.SetDefault(
		"discord.discordgo_log_level",
		loretta.DefaultDiscordgoLogLevel.String(),
	)
	viper.SetDefault(
		"discord.gateway_intents",
		loretta.DefaultDiscordGatewayIntent,
	)
	viper.SetDefault("discord.custom_status", loretta.DefaultDiscordCustomStatus)

	// Feed watcher config
	viper.SetDefault("feeds.enabled", true)
	viper.SetDefault("feeds.news_feeds", loretta.DefaultNewsFeeds)
	viper.SetDefault("feeds.software_feeds", loretta.DefaultSoftwareFeeds)
	viper.SetDefault("feeds.keywords", loretta.DefaultFeedKeywords)
	viper.SetDefault("feeds.log_level", loretta.DefaultFeedLogLevel.String())
	viper.SetDefault(
		"feeds.requests_per_second",
		loretta.DefaultHTTPRequestsPerSecond,
	)

	// Weather (open-meteo) config
	viper.SetDefault("weather.geocoding_url", loretta.DefaultGeocodingURL)
	viper.SetDefault("weather.forecast_url", loretta.DefaultForecastURL)
	viper.SetDefault("weather.timeout", loretta.DefaultHTTPTimeout)
	viper.SetDefault("weather.log_level", loretta.DefaultWeatherLogLevel.String())

	fatalErr := func(err error) {
		if err != nil {
			log.Fatalf("error: %v", err)
		}
	}

	// API config
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.listen", loretta.DefaultAPIListen)
	viper.SetDefault("api.secret", "")
	viper.SetDefault("api.log_level", loretta.DefaultAPILogLevel.String())
	viper.SetDefault("api.development", false)

	viper.SetDefault(
		"api.session_max_age",
		loretta.DefaultAPISessionMaxAge,
	)
	viper.SetDefault("api.read_timeout", loretta.DefaultReadTimeout)
	viper.SetDefault(
		"api.read_header_timeout",
		loretta.DefaultReadHeaderTimeout,
	)
	viper.SetDefault("api.write_timeout", loretta.DefaultWriteTimeout)
	viper.SetDefault("api.idle_timeout", loretta.DefaultIdleTimeout)

	// API: SSL config
	fatalErr(viper.BindEnv("api.ssl.cert"))
	fatalErr(viper.BindEnv("api.ssl.key"))
	fatalErr(viper.BindEnv("api.ssl.tls_min_version"))

	// API: CORS config
	viper.SetDefault(
		"api.cors.allow_headers",
		loretta.DefaultCORSAllowHeaders,
	)
	viper.SetDefault(
		"api.cors.allow_methods",
		loretta.DefaultCORSAllowMethods,
	)
	viper.SetDefault(
		"api.cors.expose_headers",
		loretta.DefaultCORSExposeHeaders,
	)
	viper.SetDefault(
		"api.cors.allow_origins",
		[]string{},
	)
	viper.SetDefault("api.cors.max_age", loretta.DefaultCORSMaxAge)
	viper.SetDefault(
		"api.cors.allow_credentials",
		loretta.DefaultAPICORSAllowCredentials,
	)

	envPrefix := os.Getenv(loretta.EnvvarSetEnvPrefix)
	if envPrefix == "" {
		envPrefix = loretta.DefaultEnvPrefix
	}
	viper.SetEnvPrefix(envPrefix)

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	// Convert values to correct types
	viper.Set(
		"api.cors.allow_headers",
		viper.GetStringSlice("api.cors.allow_headers"),
	)
	viper.Set(
		"api.cors.allow_origins",
		viper.GetStringSlice("api.cors.allow_origins"),
	)
	viper.Set(
		"api.cors.allow_methods",
		viper.GetStringSlice("api.cors.allow_methods"),
	)
	viper.Set(
		"api.cors.expose_headers",
		viper.GetStringSlice("api.cors.expose_headers"),
	)
	viper.Set(
		"feeds.news_feeds",
		viper.GetStringSlice("feeds.news_feeds"),
	)
	viper.Set(
		"feeds.software_feeds",
		viper.GetStringSlice("feeds.software_feeds"),
	)
	viper.Set(
		"feeds.keywords",
		viper.GetStringSlice("feeds.keywords"),
	)

	for _, key := range []string{
		"log_level",
		"database_log_level",
		"discord.log_level",
		"discord.discordgo_log_level",
		"feeds.log_level",
		"weather.log_level",
		"api.log_level",
	} {
		logLevelVar, err := levelStringToLevelVar(viper.GetString(key))
		if err != nil {
			log.Fatalf("error parsing %s: %v", key, err)
		}
		viper.Set(key, logLevelVar)
	}
}

func levelStringToLevelVar(lvl string) (*slog.LevelVar, error) {
	level := &slog.LevelVar{}
	err := level.UnmarshalText([]byte(lvl))
	return level, err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Config file to use",
	)
}
