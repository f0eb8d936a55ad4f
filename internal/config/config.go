package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"roomstay/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Booking       BookingConfig       `yaml:"booking"`
	Payment       PaymentConfig       `yaml:"payment"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Verification  VerificationConfig  `yaml:"verification"`
	Exports       ExportConfig        `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	JWT       JWTConfig          `yaml:"jwt"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig         `yaml:"cors"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// JWTConfig holds the shared secret of the user directory that signs actor tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN renders a lib/pq connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type BookingConfig struct {
	MaxBookingDays          int           `yaml:"max_booking_days"`
	CompletionSweepInterval time.Duration `yaml:"completion_sweep_interval"`
	CatalogPath             string        `yaml:"catalog_path"`
	Lock                    LockConfig    `yaml:"lock"`
}

type LockConfig struct {
	Driver string        `yaml:"driver"`
	TTL    time.Duration `yaml:"ttl"`
	Wait   time.Duration `yaml:"wait"`
}

type PaymentConfig struct {
	Provider       string   `yaml:"provider"`
	DeclineMethods []string `yaml:"decline_methods"`
	MaxAmount      string   `yaml:"max_amount"`
}

type NotificationsConfig struct {
	QueueKey      string         `yaml:"queue_key"`
	DeadLetterKey string         `yaml:"dead_letter_key"`
	PollInterval  time.Duration  `yaml:"poll_interval"`
	Lease         time.Duration  `yaml:"lease"`
	Retry         RetryConfig    `yaml:"retry"`
	Telegram      TelegramConfig `yaml:"telegram"`
}

type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type VerificationConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"
)

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.API.Enabled && c.API.JWT.Secret == "" {
		return errors.New("api.jwt.secret is required when the API is enabled")
	}

	switch c.Booking.Lock.Driver {
	case LockLocal:
	case LockRedis:
		if c.Redis.Address == "" {
			return errors.New("booking.lock.driver=redis requires redis.address")
		}
	default:
		return fmt.Errorf("unknown lock driver %q", c.Booking.Lock.Driver)
	}

	for _, m := range c.Payment.DeclineMethods {
		if !models.PaymentMethod(m).IsValid() {
			return fmt.Errorf("payment.decline_methods: unknown method %q", m)
		}
	}
	if c.Payment.MaxAmount != "" {
		if _, err := models.ParseMoney(c.Payment.MaxAmount); err != nil {
			return fmt.Errorf("payment.max_amount: %w", err)
		}
	}

	if c.Notifications.Telegram.BotToken != "" && c.Notifications.Telegram.ChatID == 0 {
		return errors.New("notifications.telegram.chat_id is required with a bot token")
	}

	return nil
}

// ValidateCatalog checks seed data for duplicate ids and dangling references.
func ValidateCatalog(catalog *models.Catalog) error {
	propertyIDs := make(map[int64]bool)
	for _, p := range catalog.Properties {
		if p.ID == 0 {
			return fmt.Errorf("property '%s' has invalid ID 0", p.Name)
		}
		if propertyIDs[p.ID] {
			return fmt.Errorf("duplicate property ID found: %d", p.ID)
		}
		if strings.TrimSpace(p.OwnerID) == "" {
			return fmt.Errorf("property %d has no owner", p.ID)
		}
		propertyIDs[p.ID] = true
	}

	roomIDs := make(map[int64]bool)
	for _, r := range catalog.Rooms {
		if r.ID == 0 {
			return fmt.Errorf("room '%s' has invalid ID 0", r.Name)
		}
		if roomIDs[r.ID] {
			return fmt.Errorf("duplicate room ID found: %d", r.ID)
		}
		if !propertyIDs[r.PropertyID] {
			return fmt.Errorf("room %d references unknown property %d", r.ID, r.PropertyID)
		}
		if r.Capacity <= 0 {
			return fmt.Errorf("room %d must have positive capacity", r.ID)
		}
		if !r.RoomType.IsValid() {
			return fmt.Errorf("room %d has unknown room type %q", r.ID, r.RoomType)
		}
		roomIDs[r.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.CatalogPath == "" {
		c.Booking.CatalogPath = "configs/catalog.yaml"
	}
	if c.Booking.Lock.Driver == "" {
		c.Booking.Lock.Driver = LockLocal
	}
	if c.Booking.Lock.TTL == 0 {
		c.Booking.Lock.TTL = 10 * time.Second
	}
	if c.Booking.Lock.Wait == 0 {
		c.Booking.Lock.Wait = 5 * time.Second
	}

	if c.Payment.Provider == "" {
		c.Payment.Provider = "simulated"
	}

	if c.Notifications.QueueKey == "" {
		c.Notifications.QueueKey = "roomstay:notifications"
	}
	if c.Notifications.DeadLetterKey == "" {
		c.Notifications.DeadLetterKey = "roomstay:notifications:deadletter"
	}
	if c.Notifications.Lease == 0 {
		c.Notifications.Lease = 5 * time.Minute
	}

	if c.Verification.TTL == 0 {
		c.Verification.TTL = 10 * time.Minute
	}
	if c.Verification.MaxAttempts == 0 {
		c.Verification.MaxAttempts = 5
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
