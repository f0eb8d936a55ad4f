package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"roomstay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("ROOMSTAY_JWT_SECRET", "from-env")

	yamlContent := `
app:
  name: roomstay
database:
  path: "test.db"
api:
  enabled: true
  jwt:
    secret: "${ROOMSTAY_JWT_SECRET}"
booking:
  completion_sweep_interval: 30m
  lock:
    ttl: 3s
payment:
  decline_methods: ["paypal"]
  max_amount: "5000.00"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.API.JWT.Secret)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Booking.CompletionSweepInterval)
	assert.Equal(t, 3*time.Second, cfg.Booking.Lock.TTL)
	assert.Equal(t, LockLocal, cfg.Booking.Lock.Driver)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.True(t, cfg.API.HTTP.Enabled)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, models.DefaultMaxBookingDays, cfg.Booking.MaxBookingDays)
	assert.Equal(t, 10*time.Minute, cfg.Verification.TTL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{Database: DatabaseConfig{Path: "path"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: true},
		{name: "api without jwt secret", mutate: func(c *Config) { c.API.Enabled = true }, wantErr: true},
		{name: "redis lock without redis", mutate: func(c *Config) { c.Booking.Lock.Driver = LockRedis }, wantErr: true},
		{name: "bad decline method", mutate: func(c *Config) { c.Payment.DeclineMethods = []string{"cash"} }, wantErr: true},
		{name: "bad max amount", mutate: func(c *Config) { c.Payment.MaxAmount = "lots" }, wantErr: true},
		{name: "telegram without chat", mutate: func(c *Config) { c.Notifications.Telegram.BotToken = "t" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	property := models.Property{ID: 1, OwnerID: "vendor-1", Name: "Lakeside"}
	room := models.Room{ID: 10, PropertyID: 1, RoomType: models.RoomDouble, Name: "101", Capacity: 2}

	assert.NoError(t, ValidateCatalog(&models.Catalog{
		Properties: []models.Property{property},
		Rooms:      []models.Room{room},
	}))

	dangling := room
	dangling.PropertyID = 2
	assert.Error(t, ValidateCatalog(&models.Catalog{Properties: []models.Property{property}, Rooms: []models.Room{dangling}}))

	assert.Error(t, ValidateCatalog(&models.Catalog{Properties: []models.Property{property, property}}))

	noCapacity := room
	noCapacity.Capacity = 0
	assert.Error(t, ValidateCatalog(&models.Catalog{Properties: []models.Property{property}, Rooms: []models.Room{noCapacity}}))

	ownerless := property
	ownerless.OwnerID = " "
	assert.Error(t, ValidateCatalog(&models.Catalog{Properties: []models.Property{ownerless}}))
}
