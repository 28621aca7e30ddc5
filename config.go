package quizsystem

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration shared by the CLI and the web server
type Config struct {
	HTTPAddr      string   `yaml:"http_addr"`
	DBDriver      Driver   `yaml:"db_driver"`
	DBDSN         string   `yaml:"db_dsn"`
	SessionSecret string   `yaml:"session_secret"`
	CORSOrigins   []string `yaml:"cors_origins"`

	AI         AIConfig         `yaml:"ai"`
	Logging    LoggingConfig    `yaml:"logging"`
	Generation GenerationConfig `yaml:"generation"`
}

// LoggingConfig mirrors LogOptions in the config file
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	// TranscriptDir holds per-generation prompt/response logs; empty disables them
	TranscriptDir string `yaml:"transcript_dir"`
}

// Options converts the logging section for InitLogger
func (c LoggingConfig) Options() LogOptions {
	return LogOptions{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}

// GenerationConfig tunes the generation orchestrator
type GenerationConfig struct {
	ExtractDelay time.Duration `yaml:"extract_delay"`
	MockDelay    time.Duration `yaml:"mock_delay"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8180",
		DBDriver:      DriverSQLite,
		DBDSN:         "./quiz.db",
		SessionSecret: "dev-session-secret-change-me",
		CORSOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AI:            AIConfig{Provider: ProviderMock},
		Logging:       LoggingConfig{Level: "info"},
		Generation: GenerationConfig{
			ExtractDelay: 500 * time.Millisecond,
			MockDelay:    1500 * time.Millisecond,
			Timeout:      10 * time.Minute,
		},
	}
}

// LoadConfig reads the optional YAML file at path on top of the defaults and
// then applies environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if !cfg.AI.Provider.Valid() {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.AI.Provider)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		c.HTTPAddr = ":" + port
	}
	c.DBDriver = Driver(envOr("DB_DRIVER", string(c.DBDriver)))
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.SessionSecret = envOr("SESSION_SECRET", c.SessionSecret)
	c.CORSOrigins = csvOr("CORS_ORIGINS", c.CORSOrigins)

	c.AI = c.AI.Merge(AIConfig{
		Provider:      Provider(os.Getenv("AI_PROVIDER")),
		APIKey:        envOr("AI_API_KEY", os.Getenv("OPENAI_API_KEY")),
		CustomBaseURL: os.Getenv("AI_BASE_URL"),
		Model:         os.Getenv("AI_MODEL"),
	})

	c.Logging.Level = envOr("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = envOr("LOG_FILE", c.Logging.File)
	c.Logging.TranscriptDir = envOr("LOG_TRANSCRIPT_DIR", c.Logging.TranscriptDir)
	if envBool("VERBOSE", false) {
		c.Logging.Level = "debug"
	}

	c.Generation.Timeout = envDuration("GENERATION_TIMEOUT", c.Generation.Timeout)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
