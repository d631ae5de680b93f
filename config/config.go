package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxMessageBytes = 1599
	defaultCompletionToken = "Antal intresserad"
	stateFileName          = ".parking_finder-cache.json"
)

// Config holds all application configuration loaded from environment
// variables and the optional YAML overlay.
type Config struct {
	LogLevel string
	// Schedule is a cron expression; empty means run once and exit.
	Schedule string

	// MetricsAddr is the listen address of /metrics in watch mode.
	MetricsAddr string

	StateFile     string
	CSVOutputPath string

	ChromeBin   string
	PageTimeout int
	MaxRetries  int
	RateLimitMs int

	MaxMessageBytes int
	CompletionToken string
	Glyphs          map[string]string
	Areas           Areas

	TwilioAccountSID string
	TwilioAuthToken  string
	WhatsAppFrom     string
	WhatsAppTo       string

	TelegramBotToken string
	TelegramChatID   int64

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// DotEnvLoaded is false when no .env file was found.
	DotEnvLoaded bool
	// Overlay is the path of the YAML file applied on top of the defaults.
	Overlay string
}

// overlay mirrors the YAML file named by PARKING_FINDER_CONFIG.
type overlay struct {
	Areas           []Area            `yaml:"areas"`
	Glyphs          map[string]string `yaml:"glyphs"`
	CompletionToken string            `yaml:"completion_token"`
	MaxMessageBytes int               `yaml:"max_message_bytes"`
}

// Load reads the .env file, the environment and the optional YAML overlay,
// and returns a populated Config.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		LogLevel: os.Getenv("LOG_LEVEL"),
		Schedule: getEnv("SCHEDULE", ""),

		MetricsAddr: getEnv("METRICS_ADDR", ""),

		StateFile:     getEnv("STATE_FILE", defaultStateFile()),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),

		ChromeBin:   getEnv("CHROME_BIN", ""),
		PageTimeout: getEnvInt("PAGE_TIMEOUT_SEC", 60),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 1000),

		MaxMessageBytes: getEnvInt("MAX_MESSAGE_BYTES", defaultMaxMessageBytes),
		CompletionToken: getEnv("COMPLETION_TOKEN", defaultCompletionToken),
		Areas:           DefaultAreas,

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		WhatsAppFrom:     getEnv("WHATSAPP_FROM", ""),
		WhatsAppTo:       getEnv("WHATSAPP_TO", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "parking"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "parking"),
		PostgresDB:       getEnv("POSTGRES_DB", "parking_finder"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		DotEnvLoaded: loaded,
		Overlay:      os.Getenv("PARKING_FINDER_CONFIG"),
	}

	if cfg.Overlay != "" {
		if err := cfg.applyOverlay(cfg.Overlay); err != nil {
			return nil, err
		}
	}
	if cfg.MaxMessageBytes < 1 {
		return nil, fmt.Errorf("config: MAX_MESSAGE_BYTES must be positive, got %d", cfg.MaxMessageBytes)
	}
	return cfg, nil
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read overlay: %w", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config: parse overlay %q: %w", path, err)
	}

	if len(o.Areas) > 0 {
		for _, a := range o.Areas {
			if a.Code == "" || a.Name == "" {
				return fmt.Errorf("config: overlay %q: area needs both code and name", path)
			}
		}
		c.Areas = o.Areas
	}
	if len(o.Glyphs) > 0 {
		c.Glyphs = make(map[string]string, len(o.Glyphs))
		for kind, glyph := range o.Glyphs {
			c.Glyphs[strings.ToLower(kind)] = glyph
		}
	}
	if o.CompletionToken != "" {
		c.CompletionToken = o.CompletionToken
	}
	if o.MaxMessageBytes != 0 {
		c.MaxMessageBytes = o.MaxMessageBytes
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// WhatsAppEnabled reports whether every Twilio setting is present.
func (c *Config) WhatsAppEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		c.WhatsAppFrom != "" && c.WhatsAppTo != ""
}

// TelegramEnabled reports whether a bot token and a chat are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// defaultStateFile returns ~/.cache/parking_finder/.parking_finder-cache.json,
// falling back to the working directory when the home directory is unknown.
func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return stateFileName
	}
	return filepath.Join(home, ".cache", "parking_finder", stateFileName)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
