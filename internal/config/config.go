package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"placesbot/internal/search"
	"placesbot/internal/storage/mysql"
)

// PlacesBackend names where venues are read from
type PlacesBackend string

const (
	BackendMySQL      PlacesBackend = "mysql"
	BackendClickHouse PlacesBackend = "clickhouse"
	BackendGoogle     PlacesBackend = "google"
	BackendMemory     PlacesBackend = "memory"
)

const (
	maxPageSize   = 10 // one number button per item
	maxPhotoLimit = 10 // Telegram media group limit
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64 // empty means everyone may use the bot

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string

	PlacesBackend PlacesBackend

	// MySQL configuration, used by the mysql backend and for user data
	MySQLDSN      string
	MySQLPoolSize int

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	GoogleMapsAPIKey string

	// Session storage
	UseMockSessions bool
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	SessionTTL      time.Duration

	// Search and presentation
	TypeMatch     string
	PageSize      int
	DefaultRadius int
	PhotoLimit    int
	Location      *time.Location

	LogLevel string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	ids, err := parseUserIDs(os.Getenv("ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}
	config.AllowedUserIDs = ids

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = strings.TrimSuffix(os.Getenv("WEBHOOK_URL"), "/")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}
	config.Port = envString("PORT", "8080")

	if err := config.loadPlaces(); err != nil {
		return nil, err
	}
	if err := config.loadSessions(); err != nil {
		return nil, err
	}
	if err := config.loadSearch(); err != nil {
		return nil, err
	}

	config.LogLevel = strings.ToLower(envString("LOG_LEVEL", "info"))

	return config, nil
}

// loadPlaces reads the backend choice and the settings it needs
func (c *Config) loadPlaces() error {
	backend := PlacesBackend(strings.ToLower(envString("PLACES_BACKEND", string(BackendMySQL))))
	// USE_MOCK_DB is kept as a shortcut for the in-memory backend
	if os.Getenv("USE_MOCK_DB") == "true" {
		backend = BackendMemory
	}
	c.PlacesBackend = backend

	c.MySQLDSN = os.Getenv("MYSQL_DSN")
	if c.MySQLDSN == "" && os.Getenv("MYSQL_HOST") != "" {
		c.MySQLDSN = mysql.DSN(
			os.Getenv("MYSQL_HOST"),
			envString("MYSQL_PORT", "3306"),
			envString("MYSQL_USER", "root"),
			os.Getenv("MYSQL_PASSWORD"),
			envString("MYSQL_DATABASE", "places"),
		)
	}
	poolSize, err := envInt("MYSQL_POOL_SIZE", 20)
	if err != nil {
		return err
	}
	if poolSize <= 0 {
		return fmt.Errorf("MYSQL_POOL_SIZE must be positive, got %d", poolSize)
	}
	c.MySQLPoolSize = poolSize

	switch backend {
	case BackendMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN or MYSQL_HOST is required when PLACES_BACKEND is mysql")
		}

	case BackendClickHouse:
		c.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if c.ClickHouseHost == "" {
			return fmt.Errorf("CLICKHOUSE_HOST is required when PLACES_BACKEND is clickhouse")
		}

		port, err := envInt("CLICKHOUSE_PORT", 9000) // Default ClickHouse native port
		if err != nil {
			return err
		}
		c.ClickHousePort = port
		c.ClickHouseDatabase = envString("CLICKHOUSE_DATABASE", "default")
		c.ClickHouseUser = envString("CLICKHOUSE_USER", "default")
		c.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD") // Password is optional
		c.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"

	case BackendGoogle:
		c.GoogleMapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
		if c.GoogleMapsAPIKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is required when PLACES_BACKEND is google")
		}

	case BackendMemory:

	default:
		return fmt.Errorf("invalid PLACES_BACKEND %q (use mysql, clickhouse, google or memory)", backend)
	}

	return nil
}

func (c *Config) loadSessions() error {
	c.UseMockSessions = os.Getenv("USE_MOCK_SESSIONS") == "true"

	ttl, err := envDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return err
	}
	c.SessionTTL = ttl

	if c.UseMockSessions {
		return nil
	}

	c.RedisAddr = os.Getenv("REDIS_ADDR")
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when USE_MOCK_SESSIONS is not set")
	}
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")

	db, err := envInt("REDIS_DB", 0)
	if err != nil {
		return err
	}
	c.RedisDB = db
	return nil
}

func (c *Config) loadSearch() error {
	c.TypeMatch = envString("TYPE_MATCH", "tags")
	if _, err := search.MatcherByName(c.TypeMatch); err != nil {
		return fmt.Errorf("invalid TYPE_MATCH: %w", err)
	}

	var err error
	if c.PageSize, err = envInt("PAGE_SIZE", 5); err != nil {
		return err
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("PAGE_SIZE must be between 1 and %d, got %d", maxPageSize, c.PageSize)
	}

	if c.DefaultRadius, err = envInt("DEFAULT_RADIUS", 300); err != nil {
		return err
	}
	if c.DefaultRadius <= 0 {
		return fmt.Errorf("DEFAULT_RADIUS must be positive, got %d", c.DefaultRadius)
	}

	if c.PhotoLimit, err = envInt("PHOTO_LIMIT", 5); err != nil {
		return err
	}
	if c.PhotoLimit < 1 || c.PhotoLimit > maxPhotoLimit {
		return fmt.Errorf("PHOTO_LIMIT must be between 1 and %d, got %d", maxPhotoLimit, c.PhotoLimit)
	}

	c.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		c.Location = loc
	}
	return nil
}

func parseUserIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var ids []int64
	for _, idStr := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, v)
	}
	return d, nil
}
