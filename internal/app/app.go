package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"placesbot/internal/bot"
	"placesbot/internal/config"
	"placesbot/internal/metrics"
	"placesbot/internal/search"
	"placesbot/internal/session"
	"placesbot/internal/session/redisstore"
	"placesbot/internal/storage"
	"placesbot/internal/storage/ch"
	"placesbot/internal/storage/gplaces"
	"placesbot/internal/storage/mysql"
	"placesbot/internal/storage/stubs"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	places   storage.Places
	users    storage.UserStore
	closers  []storage.Lifecycle
	redis    *redis.Client
	sessions session.Store
	metrics  *metrics.Metrics
	bot      *bot.Bot
	server   *http.Server
	ctx      context.Context
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	app := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
		ctx:     context.Background(),
	}

	logger.Info("Starting Places Bot...",
		zap.String("places_backend", string(cfg.PlacesBackend)),
		zap.Bool("webhook_mode", cfg.WebhookMode),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize storage
	if err := app.initStorage(ctx); err != nil {
		app.closeStorage()
		return nil, err
	}

	if err := app.initSessions(ctx); err != nil {
		app.closeStorage()
		return nil, err
	}

	// Initialize bot
	if err := app.initBot(); err != nil {
		app.closeStorage()
		return nil, err
	}

	// Initialize HTTP server
	app.initHTTPServer()

	return app, nil
}

// NewLogger builds the production logger, or the development one for debug
func NewLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// initStorage opens the places backend and the user store paired with it
func (a *App) initStorage(ctx context.Context) error {
	cfg := a.config

	switch cfg.PlacesBackend {
	case config.BackendMemory:
		a.logger.Info("Using mock database")
		db := stubs.NewMockDB()
		a.places, a.users = db, db
		a.closers = append(a.closers, db)

	case config.BackendMySQL:
		a.logger.Info("Connecting to MySQL")
		db, err := mysql.Open(cfg.MySQLDSN, cfg.MySQLPoolSize, a.logger)
		if err != nil {
			return err
		}
		a.places, a.users = db, db
		a.closers = append(a.closers, db)

	case config.BackendClickHouse:
		tlsStatus := "without TLS"
		if cfg.ClickHouseUseTLS {
			tlsStatus = "with TLS"
		}
		a.logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.String("tls", tlsStatus),
		)
		db, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
			a.logger,
		)
		if err != nil {
			return err
		}
		a.places = db
		a.closers = append(a.closers, db)

	case config.BackendGoogle:
		a.logger.Info("Using the Google Places API")
		client, err := gplaces.NewClient(cfg.GoogleMapsAPIKey)
		if err != nil {
			return err
		}
		store := gplaces.New(client, a.logger)
		a.places = store
		a.closers = append(a.closers, store)

	default:
		return fmt.Errorf("unsupported places backend %q", cfg.PlacesBackend)
	}

	if a.users == nil {
		if err := a.initUserStore(); err != nil {
			return err
		}
	}

	// Initialize database schema and default data
	for _, c := range a.closers {
		if err := c.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
	}
	a.logger.Info("Storage initialized successfully")
	return nil
}

// initUserStore picks the user store for backends that only serve places
func (a *App) initUserStore() error {
	if a.config.MySQLDSN == "" {
		a.logger.Warn("MYSQL_DSN not set, users, favorites and reviews are kept in memory")
		db := stubs.NewMockDB()
		a.users = db
		a.closers = append(a.closers, db)
		return nil
	}

	db, err := mysql.Open(a.config.MySQLDSN, a.config.MySQLPoolSize, a.logger)
	if err != nil {
		return err
	}
	a.users = db
	a.closers = append(a.closers, db)
	return nil
}

func (a *App) initSessions(ctx context.Context) error {
	if a.config.UseMockSessions {
		a.logger.Info("Using in-memory sessions")
		a.sessions = session.NewMemoryStore(a.config.DefaultRadius)
		return nil
	}

	client, err := redisstore.Connect(ctx, a.config.RedisAddr, a.config.RedisPassword, a.config.RedisDB)
	if err != nil {
		return err
	}
	a.logger.Info("Connected to Redis",
		zap.String("addr", a.config.RedisAddr),
		zap.Duration("session_ttl", a.config.SessionTTL),
	)

	a.redis = client
	a.sessions = redisstore.New(client, a.config.SessionTTL, a.config.DefaultRadius)
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	matcher, err := search.MatcherByName(a.config.TypeMatch)
	if err != nil {
		return err
	}
	service := search.NewService(a.places, a.logger,
		search.WithTypeMatcher(matcher),
		search.WithMetrics(a.metrics),
	)

	telegramBot, err := bot.NewBot(a.config.TelegramToken, bot.Deps{
		Search:   service,
		Places:   a.places,
		Users:    a.users,
		Sessions: a.sessions,
		Metrics:  a.metrics,
	}, bot.Settings{
		AllowedUserIDs: a.config.AllowedUserIDs,
		PageSize:       a.config.PageSize,
		DefaultRadius:  a.config.DefaultRadius,
		PhotoLimit:     a.config.PhotoLimit,
		Location:       a.config.Location,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for health checks, metrics,
// the webhook and the Mini App API
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	// Root endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		mode := "polling"
		if a.config.WebhookMode {
			mode = "webhook"
		}
		fmt.Fprintf(w, "Places Bot is running (mode: %s)", mode)
	})

	mux.Handle("/metrics", a.metrics.Handler())

	// Webhook endpoint (only used in webhook mode)
	mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.logger.Warn("Error decoding webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Process update in background to respond quickly to Telegram
		go a.bot.HandleWebhookUpdate(a.ctx, update)

		w.WriteHeader(http.StatusOK)
	})

	bot.NewHTTPServer(a.bot, a.config.WebhookMode).RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.ctx = ctx

	// Start HTTP server in background
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
			stop()
		}
	}()

	// Start bot in appropriate mode
	if a.config.WebhookMode {
		// Webhook mode: configure webhook and wait for HTTP requests
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			a.Shutdown()
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured. Bot will receive updates via HTTP endpoint /telegram-webhook")
	} else {
		// Polling mode: actively poll Telegram servers
		go func() {
			if err := a.bot.Start(ctx); err != nil {
				a.logger.Error("Bot stopped", zap.Error(err))
				stop()
			}
		}()
	}

	// Wait for interrupt signal
	<-ctx.Done()

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	err := a.closeStorage()
	if err != nil {
		a.logger.Error("Error closing storage", zap.Error(err))
	}

	a.logger.Info("Shutdown complete")
	a.logger.Sync()
	return err
}

// closeStorage closes every opened backend and the Redis client
func (a *App) closeStorage() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
		a.redis = nil
	}
	return errors.Join(errs...)
}
