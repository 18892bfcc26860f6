package engine

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-driven configuration for one embedded
// engine instance: database count, memory ceiling, and how often the
// background reaper sweeps for expired keys.
//
// Grounded on cmd/node/main.go's NODE_ID/NODE_LISTEN/... environment
// variables, generalized from ad hoc os.Getenv/mustGetenv calls to
// struct-tag binding.
type Config struct {
	Databases      int           `env:"REDCORE_DATABASES" envDefault:"16"`
	MaxMemoryBytes int64         `env:"REDCORE_MAX_MEMORY_BYTES" envDefault:"0"`
	ReapInterval   time.Duration `env:"REDCORE_REAP_INTERVAL" envDefault:"1s"`
	LogLevel       string        `env:"REDCORE_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from the process environment, filling in any
// variable left unset with its default.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
