package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable read by Load.
const Prefix = "COTAHIST"

const ledgerFile = "downloads.db"

type Config struct {
	DataDir      string        `envconfig:"DATA_DIR" default:"b3_data" validate:"required"`
	ConfigPath   string        `envconfig:"CONFIG_PATH" default:"config.json" validate:"required"`
	BaseURL      string        `envconfig:"BASE_URL" default:"https://bvmf.bmfbovespa.com.br/InstDados/SerHist" validate:"required,url"`
	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" default:"10" validate:"min=1"`
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" default:"1s" validate:"min=0"`
	RateLimit    float64       `envconfig:"RATE_LIMIT" default:"1" validate:"gt=0"`
	HTTPTimeout  time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s" validate:"min=0"`
	// DBPath is the download ledger location, downloads.db under DataDir
	// when unset. Set but empty disables the ledger.
	DBPath   string `envconfig:"DB_PATH"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	if _, ok := os.LookupEnv(Prefix + "_DB_PATH"); !ok {
		cfg.DBPath = filepath.Join(cfg.DataDir, ledgerFile)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
