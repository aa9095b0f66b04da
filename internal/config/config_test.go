package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_PORT", "LOG_LEVEL", "STORE_BACKEND", "STORE_COLLECTION", "STORE_ATOMIC_UPDATES",
		"MONGODB_URI", "MONGODB_DB_NAME", "FIRESTORE_PROJECT_ID", "FIRESTORE_CREDENTIALS_PATH",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
		"WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "META_VERIFY_TOKEN", "WHATSAPP_BASE_URL",
		"WHATSAPP_API_VERSION", "WHATSAPP_REPORT_RECIPIENT",
		"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID",
		"REPORT_CRON_SCHEDULE", "TIMEZONE", "LOW_STOCK_THRESHOLD", "ANTHROPIC_API_KEY",
	} {
		// Setenv registers the restore; Unsetenv lets godotenv fill the key.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "pantry", cfg.Store.Collection)
	assert.True(t, cfg.Store.AtomicUpdates)
	assert.Equal(t, 2, cfg.Reporting.LowStockThreshold)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "STORE_BACKEND=Redis\nREDIS_ADDR=cache:6380\nREDIS_DB=3\nSTORE_ATOMIC_UPDATES=false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.Store.AtomicUpdates)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOW_STOCK_THRESHOLD", "few")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "LOW_STOCK_THRESHOLD")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Store:     StoreConfig{Backend: BackendMemory, Collection: "pantry"},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"},
			WhatsApp:  WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"memory backend", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }, "unsupported STORE_BACKEND"},
		{"firestore without project", func(c *Config) { c.Store.Backend = BackendFirestore }, "FIRESTORE_PROJECT_ID"},
		{"mongodb without uri", func(c *Config) { c.Store.Backend = BackendMongoDB; c.MongoDB.DBName = "pantry" }, "MONGODB_URI"},
		{"redis without addr", func(c *Config) { c.Store.Backend = BackendRedis }, "REDIS_ADDR"},
		{"whatsapp without phone id", func(c *Config) { c.WhatsApp.AccessToken = "token" }, "WHATSAPP_PHONE_NUMBER_ID"},
		{"whatsapp without verify token", func(c *Config) {
			c.WhatsApp.AccessToken = "token"
			c.WhatsApp.PhoneNumberID = "123"
		}, "META_VERIFY_TOKEN"},
		{"sheets without credentials", func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"empty collection", func(c *Config) { c.Store.Collection = "" }, "STORE_COLLECTION"},
		{"negative threshold", func(c *Config) { c.Reporting.LowStockThreshold = -1 }, "LOW_STOCK_THRESHOLD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
