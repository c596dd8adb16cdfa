package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config is read from the environment, a .env file in the working directory
// is loaded first.
type Config struct {
	Env               string
	DBDriver          string
	DBDSN             string
	HTTPPort          string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CacheTTL          time.Duration
	KafkaBrokers      string
	KafkaTopic        string
	LedgerCompression string
	AuditSchedule     string
	Moderators        []string
	LogLevel          string
	LogFormat         string
}

func defaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", ".data/lexicon.db")
	v.SetDefault("HTTP_PORT", "4001")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "lexicon.contributions")
	v.SetDefault("LEDGER_COMPRESSION", "gzip")
	v.SetDefault("AUDIT_SCHEDULE", "@every 10m")
	v.SetDefault("MODERATORS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// LoadConfig reads the configuration and exits on invalid values.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Load reads the configuration.
func Load() (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:               v.GetString("ENV"),
		DBDriver:          strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:             v.GetString("DB_DSN"),
		HTTPPort:          v.GetString("HTTP_PORT"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		KafkaBrokers:      v.GetString("KAFKA_BROKERS"),
		KafkaTopic:        v.GetString("KAFKA_TOPIC"),
		LedgerCompression: strings.ToLower(v.GetString("LEDGER_COMPRESSION")),
		AuditSchedule:     v.GetString("AUDIT_SCHEDULE"),
		Moderators:        splitList(v.GetString("MODERATORS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	switch c.LedgerCompression {
	case "nop", "gzip", "brotli", "lz4":
	default:
		return fmt.Errorf("LEDGER_COMPRESSION must be one of nop, gzip, brotli, lz4, got %q", c.LedgerCompression)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func (c *Config) IsTest() bool {
	return c.Env == "test"
}

func OpenDB(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch cfg.DBDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DBDSN), gormConfig)
	case "sqlite":
		if dir := filepath.Dir(cfg.DBDSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		return gorm.Open(sqlite.Open(cfg.DBDSN), gormConfig)
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
}

// SetupLogging configures the package level logrus logger.
func SetupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
