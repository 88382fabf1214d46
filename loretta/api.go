package loretta

import (
	"context"
	cryprand "crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
	ginPprof "github.com/gin-contrib/pprof"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	pprofPrefix              = "/debug"
	apiPrefix                = "/api"
	apiPathLogin             = "/login"
	apiPathLogout            = "/logout"
	apiPathLoggedIn          = "/logged_in"
	apiHealthCheck           = "/healthz"
	apiPathSetup             = "/setup"
	apiPathSetupStatus       = "/setup/status"
	apiPathConfig            = "/config"
	apiPathGuildConfig       = "/config/guild/:id"
	apiPathStats             = "/stats"
	apiPathPause             = "/pause"
	apiPathResume            = "/resume"
	apiPathRegisterCommands  = "/discord/register_commands"
	apiPathDiscordGatewayBot = "/discord/gateway/bot"
)

const (
	xRequestIDHeader = "X-Request-ID"
	sessionVarName   = "user"
	sessionVarField  = "username"
)

var structValidator = validator.New()

//nolint:gochecknoinits // gotta register the validators
func init() {
	structValidator.SetTagName("binding")
	structValidator.RegisterCustomTypeFunc(
		validateRuntimeUpdateLimits,
		RuntimeConfigUpdate{},
	)
}

// API is the admin backend HTTP server. It exposes the runtime and
// per-guild configuration, pause/resume controls and command
// statistics behind a session-cookie login.
type API struct {
	config              *APIConfig
	httpServer          *http.Server
	listener            net.Listener
	engine              *gin.Engine
	store               CookieStore
	loginRequestLimiter *rate.Limiter
	requestMetrics      map[string]int
	requestMetricsMu    sync.Mutex
	logger              *slog.Logger

	handlers *APIHandlers
}

// newAPI initializes the admin API server, wiring the session store,
// middleware and routes. The server isn't started until Serve is
// called.
func newAPI(lo *Loretta, config *APIConfig) (*API, error) {
	setupLogger := slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.LogLevel,
				AddSource: true,
			},
		),
	)

	r := gin.New()

	api := &API{
		config:              config,
		engine:              r,
		requestMetrics:      map[string]int{},
		loginRequestLimiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	apiHandlers := NewAPIHandlers(lo)
	api.handlers = apiHandlers
	api.store = apiHandlers.store
	_ = r.Use(sessions.Sessions(sessionVarName, apiHandlers.store))

	var tlsCfg *tls.Config
	if config.SSL.Cert != "" || config.SSL.Key != "" {
		cfg, e := tlsConfig(
			config.SSL.Cert,
			config.SSL.Key,
			config.SSL.TLSMinVersion,
		)
		if e != nil {
			return nil, fmt.Errorf("error loading SSL certs: %w", e)
		}
		tlsCfg = cfg
	}

	httpServer := &http.Server{
		Addr:              config.Listen,
		Handler:           r,
		TLSConfig:         tlsCfg,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	api.httpServer = httpServer
	api.logger = setupLogger.With(loggerNameKey, "api")

	corsConfig := config.CORS.GINConfig()
	if len(corsConfig.AllowOrigins) == 0 && api.config.Development {
		corsConfig.AllowOrigins = []string{"*"}
	}

	if !config.Development {
		r.Use(gin.Recovery())
	}
	r.Use(
		requestIDMiddleware(),
		ginLoggingMiddleware(),
		metricMiddleware(api),
		cors.New(corsConfig),
	)

	r.POST(apiPathLogin, apiHandlers.loginHandler)
	r.GET(apiHealthCheck, apiHandlers.healthCheck)
	r.POST(apiPathLogout, apiHandlers.logoutHandler)

	if config.Development {
		ginPprof.Register(r, pprofPrefix)
	}

	r.POST(apiPathSetup, apiHandlers.adminSetup)
	r.GET(apiPathSetupStatus, apiHandlers.setupStatus)

	protected := r.Group(apiPrefix)
	protected.Use(authMiddleware(lo))

	protected.GET(apiPathLoggedIn, apiHandlers.loggedIn)
	protected.GET(apiPathConfig, apiHandlers.getRuntimeConfig)
	protected.PATCH(apiPathConfig, apiHandlers.updateRuntimeConfig)
	protected.GET(apiPathGuildConfig, apiHandlers.getGuildConfig)
	protected.PATCH(apiPathGuildConfig, apiHandlers.updateGuildConfig)
	protected.GET(apiPathStats, apiHandlers.getStats)
	protected.POST(apiPathPause, apiHandlers.botPause)
	protected.POST(apiPathResume, apiHandlers.botResume)
	protected.POST(apiPathRegisterCommands, apiHandlers.discordRegisterCommands)
	protected.GET(apiPathDiscordGatewayBot, apiHandlers.getDiscordGatewayBot)

	return api, nil
}

func (a *API) Serve(ctx context.Context) error {
	if a.listener != nil {
		return a.httpServer.Serve(a.listener)
	}
	listenCfg := &net.ListenConfig{}
	ln, err := listenCfg.Listen(ctx, a.config.ListenNetwork, a.config.Listen)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", a.config.Listen, err)
	}
	if a.httpServer.TLSConfig != nil {
		ln = tls.NewListener(ln, a.httpServer.TLSConfig)
	}
	a.listener = ln
	return a.httpServer.Serve(a.listener)
}

func (a *API) getSessionUsername(c *gin.Context) (string, error) {
	session, err := a.store.Get(c.Request, sessionVarName)
	if err != nil {
		return "", err
	}
	username, ok := session.Values[sessionVarField]
	if !ok {
		return "", errors.New("username not found in session")
	}
	s, ok := username.(string)
	if !ok {
		return "", errors.New("username not a string")
	}
	return s, nil
}

type CookieStore interface {
	sessions.Store
}

func NewCookieStore(keyPairs ...[]byte) CookieStore {
	return &cookieStore{gsessions.NewCookieStore(keyPairs...)}
}

type cookieStore struct {
	*gsessions.CookieStore
}

func (c *cookieStore) Options(options sessions.Options) {
	c.CookieStore.Options = options.ToGorillaOptions()
}

// APIHandlers contains the handlers for the various API endpoints.
type APIHandlers struct {
	lo     *Loretta
	logger *slog.Logger
	store  CookieStore
}

// NewAPIHandlers sets up the session store and returns the handler set.
// If no API secret is configured, a random one is generated and
// sessions will not survive a restart.
func NewAPIHandlers(lo *Loretta) *APIHandlers {
	logger := lo.logger.With(loggerNameKey, "api")

	var secretKey []byte
	switch sk := lo.config.API.Secret; {
	case sk == "":
		logger.Warn(
			"api secret not set, generating random secret " +
				"(sessions will not persist across restarts)",
		)
		secretKey = securecookie.GenerateRandomKey(64)
	default:
		secretKey = derive64ByteKey(sk)
	}

	store := NewCookieStore(secretKey)
	sameSite := http.SameSiteStrictMode
	if lo.config.API.Development {
		sameSite = http.SameSiteNoneMode
	}
	store.Options(
		sessions.Options{
			HttpOnly: true,
			Secure:   true,
			MaxAge:   int(lo.config.API.SessionMaxAge.Seconds()),
			SameSite: sameSite,
		},
	)
	return &APIHandlers{lo: lo, logger: logger, store: store}
}

// setupStatus reports whether the initial admin setup is still pending.
func (h *APIHandlers) setupStatus(c *gin.Context) {
	c.JSON(http.StatusOK, setupResponse{Required: h.lo.pendingSetup.Load()})
}

// adminSetup sets the initial admin credentials. Only allowed while no
// credentials exist yet.
func (h *APIHandlers) adminSetup(c *gin.Context) {
	h.lo.cfgMu.Lock()
	defer h.lo.cfgMu.Unlock()

	if !h.lo.pendingSetup.Load() {
		c.JSON(http.StatusForbidden, httpError{Error: "Forbidden"})
		return
	}

	logger := ginContextLogger(c)
	logger.Info("first time admin setup")
	var setup adminSetupPayload

	if err := c.ShouldBindJSON(&setup); err != nil {
		logger.Error("bad payload", tint.Err(err))
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	password, err := HashPassword(setup.Password)
	if err != nil {
		logger.Error("error hashing password", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error setting admin credentials"},
		)
		return
	}

	currentState := h.lo.runtimeConfig
	if _, err = h.lo.writeDB.Updates(
		c.Request.Context(),
		currentState,
		map[string]any{
			columnRuntimeConfigAdminUsername: setup.Username,
			columnRuntimeConfigAdminPassword: password,
		},
	); err != nil {
		logger.Error("error updating admin credentials", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error updating admin credentials"},
		)
		return
	}
	h.lo.pendingSetup.Store(false)
	c.JSON(http.StatusCreated, httpReply{Message: "admin credentials set"})
}

// loginHandler validates the admin credentials and creates a session
// cookie. Login attempts are rate limited.
func (h *APIHandlers) loginHandler(c *gin.Context) {
	logger := ginContextLogger(c)
	if !h.lo.api.loginRequestLimiter.Allow() {
		logger.Warn("login rate limited")
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}

	var login userLogin
	if err := c.ShouldBindJSON(&login); err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	runtimeConfig := h.lo.RuntimeConfig()
	if runtimeConfig.AdminUsername == "" || runtimeConfig.AdminPassword == "" {
		logger.Warn("admin username and password not set")
		c.JSON(http.StatusUnauthorized, httpError{Error: "Unauthorized"})
		return
	}
	if login.Username != runtimeConfig.AdminUsername {
		logger.Warn("admin username incorrect")
		c.JSON(http.StatusUnauthorized, httpError{Error: "Unauthorized"})
		return
	}
	valid, err := VerifyPassword(runtimeConfig.AdminPassword, login.Password)
	if err != nil {
		logger.Error("error verifying password", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "Internal Server Error"},
		)
		return
	}
	if !valid {
		logger.Warn("invalid login attempt", "username", login.Username)
		c.JSON(http.StatusUnauthorized, httpError{Error: "Unauthorized"})
		return
	}

	session, err := h.store.New(c.Request, sessionVarName)
	if err != nil || session == nil {
		logger.Error("error creating session", tint.Err(err))
		ginReplyError(c, "internal server error")
		return
	}
	sameSite := http.SameSiteStrictMode
	if h.lo.config.API.Development {
		sameSite = http.SameSiteNoneMode
	}
	session.Options = &gsessions.Options{
		MaxAge:   int(h.lo.config.API.SessionMaxAge.Seconds()),
		SameSite: sameSite,
		HttpOnly: true,
		Secure:   true,
	}
	session.Values[sessionVarField] = login.Username
	if err = session.Save(c.Request, c.Writer); err != nil {
		logger.Error("error saving session", tint.Err(err))
		ginReplyError(c, "internal server error")
		return
	}
	logger.Info("saved user session", "username", login.Username)
	c.JSON(http.StatusOK, loggedInResponse{Username: login.Username})
}

// healthCheck reports the pause state and discord gateway connectivity.
func (h *APIHandlers) healthCheck(c *gin.Context) {
	c.JSON(
		http.StatusOK, healthCheckResponse{
			Paused:                  h.lo.paused.Load(),
			SetupPending:            h.lo.pendingSetup.Load(),
			DiscordGatewayConnected: h.lo.discord.connected.Load(),
		},
	)
}

func (h *APIHandlers) logoutHandler(c *gin.Context) {
	logger := ginContextLogger(c)
	session, err := h.store.Get(c.Request, sessionVarName)
	if err != nil {
		logger.Error("error getting session", tint.Err(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	session.Values[sessionVarField] = ""
	if err = session.Save(c.Request, c.Writer); err != nil {
		logger.Error("error saving cookie", tint.Err(err))
	}
	ginReplyMessage(c, "logged out")
}

func (h *APIHandlers) loggedIn(c *gin.Context) {
	username, err := h.lo.api.getSessionUsername(c)
	if err != nil {
		ginContextLogger(c).Warn(
			"error getting session username",
			tint.Err(err),
		)
		c.JSON(http.StatusUnauthorized, httpError{Error: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, loggedInResponse{Username: username})
}

func (h *APIHandlers) getRuntimeConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.lo.RuntimeConfig())
}

// updateRuntimeConfig applies a partial update to the runtime config,
// persists it and propagates the changes: log levels, pause state,
// custom status and the refresher notification.
func (h *APIHandlers) updateRuntimeConfig(c *gin.Context) {
	lo := h.lo
	lo.cfgMu.Lock()
	defer lo.cfgMu.Unlock()

	ctx := c.Request.Context()
	logger := ginContextLogger(c)

	var updateRequest RuntimeConfigUpdate
	if err := c.ShouldBindJSON(&updateRequest); err != nil {
		logger.Error("bad payload", tint.Err(err))
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}
	if err := updateRequest.validate(); err != nil {
		logger.Error("invalid update", tint.Err(err))
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	existingConfig := lo.runtimeConfig
	rollbackConfig := *existingConfig

	updateData, err := json.Marshal(updateRequest)
	if err != nil {
		logger.Error("error marshaling update request", tint.Err(err))
		ginReplyError(c, "error marshaling update request")
		return
	}
	var updates map[string]any
	if err = json.Unmarshal(updateData, &updates); err != nil {
		logger.Error("error unmarshaling update request", tint.Err(err))
		ginReplyError(c, "error unmarshaling update request")
		return
	}
	logger.Info("applying updates", "updates", updates)

	updateErr := lo.writeDB.Transaction(
		ctx,
		func(tx *gorm.DB) error {
			if txErr := tx.Model(existingConfig).Updates(updates).Error; txErr != nil {
				return txErr
			}
			return structValidator.Struct(existingConfig)
		},
	)
	if updateErr != nil {
		*lo.runtimeConfig = rollbackConfig
		logger.Error("error updating config", tint.Err(updateErr))
		c.JSON(http.StatusBadRequest, httpError{Error: "error updating config"})
		return
	}

	lo.setRuntimeLevels(*existingConfig)

	wasPaused := lo.paused.Swap(existingConfig.Paused)
	switch {
	case wasPaused && !existingConfig.Paused:
		logger.Info("unpaused bot")
	case existingConfig.Paused && !wasPaused:
		logger.Warn("paused bot")
	}

	if lo.discord != nil && lo.discord.session != nil {
		var statusErr error
		if existingConfig.Paused {
			statusErr = lo.discord.updateStatusComplex(
				discordgo.UpdateStatusData{
					AFK:    true,
					Status: string(discordgo.StatusDoNotDisturb),
				},
			)
		} else if existingConfig.DiscordCustomStatus != rollbackConfig.DiscordCustomStatus {
			statusErr = lo.discord.updateCustomStatus(
				existingConfig.DiscordCustomStatus,
			)
		}
		if statusErr != nil {
			logger.Error("error updating discord status", tint.Err(statusErr))
		}
	}

	c.JSON(http.StatusAccepted, *existingConfig)

	if lo.dbNotifier != nil {
		if !lo.dbNotifier.ReloadRuntimeConfig(context.WithoutCancel(ctx)) {
			logger.Error("error sending config update notification")
		}
	}
}

func (h *APIHandlers) getGuildConfig(c *gin.Context) {
	cfg, err := h.lo.GetOrCreateGuildConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		ginContextLogger(c).Error("error getting guild config", tint.Err(err))
		ginReplyError(c, "error getting guild config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *APIHandlers) updateGuildConfig(c *gin.Context) {
	logger := ginContextLogger(c)

	var update GuildConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		logger.Warn("bad request", tint.Err(err))
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}

	cfg, err := h.lo.UpdateGuildConfig(
		c.Request.Context(), c.Param("id"), update,
	)
	if err != nil {
		logger.Error("error updating guild config", tint.Err(err))
		ginReplyError(c, "error updating guild config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// getStats reports uptime, gateway metrics, per-command execution
// counts and API request counts.
func (h *APIHandlers) getStats(c *gin.Context) {
	logger := ginContextLogger(c)

	commands, err := commandStatisticCounts(c.Request.Context(), h.lo.db)
	if err != nil {
		logger.Error("error getting command statistics", tint.Err(err))
		ginReplyError(c, "error getting command statistics")
		return
	}

	h.lo.api.requestMetricsMu.Lock()
	requests := make(map[string]int, len(h.lo.api.requestMetrics))
	for k, v := range h.lo.api.requestMetrics {
		requests[k] = v
	}
	h.lo.api.requestMetricsMu.Unlock()

	c.JSON(
		http.StatusOK, botStatsResponse{
			StartedAt:          h.lo.startedAt,
			Uptime:             time.Since(h.lo.startedAt).String(),
			Paused:             h.lo.paused.Load(),
			GatewayConnects:    h.lo.discord.metricConnects.Load(),
			GatewayDisconnects: h.lo.discord.metricDisconnects.Load(),
			MessagesSeen:       h.lo.discord.metricMessagesSeen.Load(),
			CommandsInProgress: h.lo.commandsInProgress.Load(),
			Commands:           commands,
			APIRequests:        requests,
		},
	)
}

func (h *APIHandlers) botPause(c *gin.Context) {
	if h.lo.Pause(c.Request.Context()) {
		ginReplyMessage(c, "bot paused")
		return
	}
	c.AbortWithStatusJSON(
		http.StatusConflict,
		httpError{Error: "bot already paused"},
	)
}

func (h *APIHandlers) botResume(c *gin.Context) {
	if h.lo.Resume(c.Request.Context()) {
		ginReplyMessage(c, "bot resumed")
		return
	}
	c.AbortWithStatusJSON(
		http.StatusConflict,
		httpError{Error: "bot not paused"},
	)
}

// discordRegisterCommands re-registers the slash commands via the bulk
// overwrite endpoint.
func (h *APIHandlers) discordRegisterCommands(c *gin.Context) {
	logger := ginContextLogger(c)
	logger.Info("registering commands")

	createdCommands, err := h.lo.discord.registerCommands(h.lo.RuntimeConfig())
	if err != nil {
		logger.Error("error registering commands", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error registering commands"},
		)
		return
	}
	c.JSON(http.StatusCreated, createdCommands)
}

func (h *APIHandlers) getDiscordGatewayBot(c *gin.Context) {
	gatewayBot, err := h.lo.discord.session.GatewayBot()
	if err != nil {
		ginContextLogger(c).Error("error getting gateway bot", tint.Err(err))
		ginReplyError(c, "error getting gateway bot")
		return
	}
	c.JSON(http.StatusOK, gatewayBot)
}

type loggedInResponse struct {
	Username string `json:"username"`
}

type healthCheckResponse struct {
	Paused                  bool `json:"paused"`
	SetupPending            bool `json:"setup_pending"`
	DiscordGatewayConnected bool `json:"discord_gateway_connected"`
}

type botStatsResponse struct {
	StartedAt          time.Time      `json:"started_at"`
	Uptime             string         `json:"uptime"`
	Paused             bool           `json:"paused"`
	GatewayConnects    int64          `json:"gateway_connects"`
	GatewayDisconnects int64          `json:"gateway_disconnects"`
	MessagesSeen       int64          `json:"messages_seen"`
	CommandsInProgress int64          `json:"commands_in_progress"`
	Commands           []commandCount `json:"commands"`
	APIRequests        map[string]int `json:"api_requests"`
}

type httpReply struct {
	Message string `json:"message"`
}

type httpError struct {
	Error string `json:"error"`
}

type userLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminSetupPayload struct {
	Username string `json:"username" binding:"required,min=1,max=32"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type setupResponse struct {
	Required bool `json:"required"`
}

// authMiddleware rejects requests without a valid login session.
func authMiddleware(lo *Loretta) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := lo.logger
		if logger == nil {
			logger = slog.Default()
		}
		if lo.pendingSetup.Load() {
			logger.Warn("admin username and password not set")
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}

		session, err := lo.api.store.Get(c.Request, sessionVarName)
		if err != nil || session == nil {
			logger.Error("error getting session", tint.Err(err))
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}

		username, ok := session.Values[sessionVarField]
		if !ok || username == "" {
			logger.Warn("username not found in session")
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware assigns each request a random ID, set both in the
// gin context and the response headers.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := generateRandomHexString(32)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(xRequestIDHeader, id)
		if requestID, exists := c.Get(xRequestIDHeader); exists {
			c.Header(xRequestIDHeader, requestID.(string))
		}
		c.Next()
	}
}

// ginContextLogger returns the slog.Logger from the given gin context,
// or, if it doesn't exist, creates a logger with request details included,
// and sets the logger in the context so the next call to ginContextLogger
// will return the new logger.
func ginContextLogger(c *gin.Context) *slog.Logger {
	var requestLogger *slog.Logger
	logger, ok := c.Get(string(loggerContextKey))
	if ok {
		requestLogger, ok = logger.(*slog.Logger)
		if ok {
			return requestLogger
		}
	}
	requestLogger = slog.Default()
	requestID, _ := c.Get(xRequestIDHeader)
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery
	if raw != "" {
		path = path + "?" + raw
	}

	requestLogger = requestLogger.With(
		slog.Group(
			"request",
			"method", c.Request.Method,
			"path", path,
			"remote_addr", c.Request.RemoteAddr,
			"remote_ip", c.RemoteIP(),
			"user_agent", c.Request.UserAgent(),
			"referer", c.Request.Referer(),
		),
		slog.Any(xRequestIDHeader, requestID),
	)
	c.Set(string(loggerContextKey), requestLogger)
	return requestLogger
}

// ginLoggingMiddleware logs each request with its duration and response
// status.
func ginLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := ginContextLogger(c)
		c.Next()
		latency := time.Since(start)

		var errs []error
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			errs = append(errs, *e)
		}
		if len(errs) > 0 {
			requestLogger.Error(
				fmt.Sprintf(
					"%s %s finished with errors",
					c.Request.Method,
					c.Request.URL,
				),
				"duration", latency,
				"errors", errs,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		} else {
			requestLogger.Info(
				fmt.Sprintf("%s %s finished", c.Request.Method, c.Request.URL),
				"duration", latency,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		}
	}
}

// metricMiddleware increments the request count for each unique
// combination of HTTP method and URL path.
func metricMiddleware(a *API) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Next()

		a.requestMetricsMu.Lock()
		defer a.requestMetricsMu.Unlock()

		key := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		a.requestMetrics[key]++
	}
}

// ginReplyMessage sends a JSON response with a message,
// with HTTP status code 200, via the gin context.
func ginReplyMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, httpReply{Message: message})
}

// ginReplyError sends a JSON response with a message,
// with HTTP status code 500, via the gin context.
func ginReplyError(c *gin.Context, err string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, httpError{Error: err})
}

// generateSelfSignedCert generates a self-signed TLS certificate and
// private key, valid from the current time for 1 year.
func generateSelfSignedCert(
	certFile string,
	keyFile string,
) (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(cryprand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	certTemplate := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Loretta"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	derBytes, err := x509.CreateCertificate(
		cryprand.Reader,
		&certTemplate,
		&certTemplate,
		&priv.PublicKey,
		priv,
	)
	if err != nil {
		return tls.Certificate{}, err
	}

	certOut, err := os.Create(certFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	defer func() {
		_ = certOut.Close()
	}()

	if err = pem.Encode(
		certOut,
		&pem.Block{Type: "CERTIFICATE", Bytes: derBytes},
	); err != nil {
		return tls.Certificate{}, err
	}

	keyOut, err := os.Create(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	defer func() {
		_ = keyOut.Close()
	}()

	privBytes := x509.MarshalPKCS1PrivateKey(priv)
	if err = pem.Encode(
		keyOut,
		&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privBytes},
	); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(certFile, keyFile)
}
